package codec

import (
	"encoding"
	"encoding/binary"

	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/errors"
)

var (
	_ encoding.BinaryMarshaler   = (*Value)(nil)
	_ encoding.BinaryUnmarshaler = (*Value)(nil)
	_ encoding.BinaryMarshaler   = (*Instance)(nil)
	_ encoding.BinaryUnmarshaler = (*Instance)(nil)
)

// MarshalBinary returns the flexible array length as a uvarint followed
// by the packed bytes.
func (v *Value) MarshalBinary() ([]byte, error) {
	data, err := v.Pack()
	if err != nil {
		return nil, err
	}
	return append(binary.AppendUvarint(nil, uint64(v.flex)), data...), nil
}

// UnmarshalBinary restores a value written by MarshalBinary of the same
// layout. v is left unchanged on error.
func (v *Value) UnmarshalBinary(data []byte) error {
	n, body, err := splitBinary(v.def, data)
	if err != nil {
		return err
	}
	if v.def.FlexibleArray() != nil {
		if err := v.SetFlexibleLength(n); err != nil {
			return err
		}
	}
	return v.Unpack(body)
}

// MarshalBinary returns the flexible array length as a uvarint followed
// by the instance's bytes.
func (i *Instance) MarshalBinary() ([]byte, error) {
	data, err := i.Pack()
	if err != nil {
		return nil, err
	}
	return append(binary.AppendUvarint(nil, uint64(i.flex)), data...), nil
}

// UnmarshalBinary writes data produced by MarshalBinary into the
// instance's memory, rebinding the flexible array first.
func (i *Instance) UnmarshalBinary(data []byte) error {
	n, body, err := splitBinary(i.def, data)
	if err != nil {
		return err
	}
	if i.def.FlexibleArray() != nil {
		if err := i.rebind(n); err != nil {
			return err
		}
	}
	return i.Unpack(body)
}

// splitBinary validates the length prefix and the body size against def.
func splitBinary(def *ctype.Composite, data []byte) (int, []byte, error) {
	n, k := binary.Uvarint(data)
	if k <= 0 {
		return 0, nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Type(def.String()).
			Detail("missing flexible length prefix").
			Build()
	}
	body := data[k:]
	if n > uint64(len(body)) || (n > 0 && def.FlexibleArray() == nil) {
		return 0, nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Type(def.String()).
			Value(n).
			Detail("invalid flexible length").
			Build()
	}
	if size := def.SizeWith(int(n)); size != len(body) {
		return 0, nil, errors.OutOfBounds(errors.PhaseDecode, []string{def.String()}, 0, size, len(body))
	}
	return int(n), body, nil
}
