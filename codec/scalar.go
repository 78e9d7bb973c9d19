package codec

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/errors"
)

// scalar encodes one element of a native or enum member.
type scalar struct {
	native ctype.Native
	order  binary.ByteOrder
	enum   *ctype.Enum
}

func scalarOf(f *ctype.Field) scalar {
	return scalar{native: f.Native, order: f.Order.Binary(), enum: f.Enum}
}

func (s scalar) width() int { return s.native.Width }

// zero returns the canonical zero value.
func (s scalar) zero() any {
	switch {
	case s.enum != nil, s.native.Kind == ctype.KindInt:
		return int64(0)
	case s.native.Kind == ctype.KindFloat:
		return float64(0)
	}
	return uint64(0)
}

// zeroSlice returns a canonical array of n zero elements.
func (s scalar) zeroSlice(n int) any {
	switch {
	case s.enum != nil, s.native.Kind == ctype.KindInt:
		return make([]int64, n)
	case s.native.Kind == ctype.KindFloat:
		return make([]float64, n)
	}
	return make([]uint64, n)
}

func (s scalar) decode(src []byte) any {
	w := s.width()
	var u uint64
	switch w {
	case 1:
		u = uint64(src[0])
	case 2:
		u = uint64(s.order.Uint16(src))
	case 4:
		u = uint64(s.order.Uint32(src))
	default:
		u = s.order.Uint64(src)
	}
	switch {
	case s.native.Kind == ctype.KindFloat && w == 4:
		return float64(math.Float32frombits(uint32(u)))
	case s.native.Kind == ctype.KindFloat:
		return math.Float64frombits(u)
	case s.enum != nil, s.native.Kind == ctype.KindInt:
		shift := 64 - 8*w
		return int64(u<<shift) >> shift
	}
	return u
}

// encode writes a canonical value produced by coerce.
func (s scalar) encode(dst []byte, v any) {
	var u uint64
	switch x := v.(type) {
	case int64:
		u = uint64(x)
	case uint64:
		u = x
	case float64:
		if s.width() == 4 {
			u = uint64(math.Float32bits(float32(x)))
		} else {
			u = math.Float64bits(x)
		}
	}
	switch s.width() {
	case 1:
		dst[0] = byte(u)
	case 2:
		s.order.PutUint16(dst, uint16(u))
	case 4:
		s.order.PutUint32(dst, uint32(u))
	default:
		s.order.PutUint64(dst, u)
	}
}

// coerce converts a Go value to the canonical representation, checking
// that it fits the member's width. Enum members also accept constant names.
func (s scalar) coerce(v any, path []string) (any, error) {
	if s.enum != nil {
		if name, ok := v.(string); ok {
			n, ok := s.enum.Value(name)
			if !ok {
				return nil, errors.New(errors.PhaseEncode, errors.KindNotFound).
					Path(path...).
					Type(s.enum.String()).
					Value(name).
					Detail("no constant %q", name).
					Build()
			}
			v = n
		}
	}

	switch {
	case s.native.Kind == ctype.KindFloat:
		f, ok := toFloat(v)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseEncode, path, s.native.Name, v)
		}
		if s.width() == 4 && !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, errors.Overflow(errors.PhaseEncode, path, v, s.native.Name)
		}
		return f, nil

	case s.enum != nil, s.native.Kind == ctype.KindInt:
		i, ok := toInt(v)
		if !ok {
			if _, isUint := toUint(v); isUint {
				return nil, errors.Overflow(errors.PhaseEncode, path, v, s.native.Name)
			}
			return nil, errors.TypeMismatch(errors.PhaseEncode, path, s.native.Name, v)
		}
		if w := s.width(); w < 8 {
			limit := int64(1) << (8*w - 1)
			if i < -limit || i >= limit {
				return nil, errors.Overflow(errors.PhaseEncode, path, v, s.native.Name)
			}
		}
		return i, nil
	}

	u, ok := toUint(v)
	if !ok {
		if _, isInt := toInt(v); isInt {
			return nil, errors.Overflow(errors.PhaseEncode, path, v, s.native.Name)
		}
		return nil, errors.TypeMismatch(errors.PhaseEncode, path, s.native.Name, v)
	}
	if w := s.width(); w < 8 && u>>(8*w) != 0 {
		return nil, errors.Overflow(errors.PhaseEncode, path, v, s.native.Name)
	}
	return u, nil
}

// coerceSlice converts any slice or array of numbers to the canonical
// slice type. n < 0 accepts any length.
func (s scalar) coerceSlice(v any, n int, path []string) (any, int, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, 0, errors.TypeMismatch(errors.PhaseEncode, path, s.native.Name+"[]", v)
	}
	if n >= 0 && rv.Len() != n {
		return nil, 0, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Path(path...).
			Type(s.native.Name).
			Value(rv.Len()).
			Detail("array needs %d elements, got %d", n, rv.Len()).
			Build()
	}
	out := reflect.ValueOf(s.zeroSlice(rv.Len()))
	for i := 0; i < rv.Len(); i++ {
		c, err := s.coerce(rv.Index(i).Interface(), path)
		if err != nil {
			return nil, 0, err
		}
		out.Index(i).Set(reflect.ValueOf(c))
	}
	return out.Interface(), rv.Len(), nil
}

// coerceBytes converts a string or byte slice for a char member of n
// bytes, zero padding or truncating it.
func coerceBytes(v any, n int, path []string) ([]byte, error) {
	var src []byte
	switch x := v.(type) {
	case []byte:
		src = x
	case string:
		src = []byte(x)
	default:
		return nil, errors.TypeMismatch(errors.PhaseEncode, path, "char", v)
	}
	out := make([]byte, n)
	copy(out, src)
	return out, nil
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), uint64(x) <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64
	case uintptr:
		return int64(x), uint64(x) <= math.MaxInt64
	case float64:
		return int64(x), x == math.Trunc(x) && math.Abs(x) < 1<<63
	case float32:
		return int64(x), float64(x) == math.Trunc(float64(x)) && math.Abs(float64(x)) < 1<<63
	}
	return 0, false
}

func toUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case uintptr:
		return uint64(x), true
	}
	if i, ok := toInt(v); ok && i >= 0 {
		return uint64(i), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	if u, ok := toUint(v); ok {
		return float64(u), true
	}
	return 0, false
}
