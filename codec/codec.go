package codec

import (
	"github.com/wippyai/cstruct/errors"
)

// Accessor is the member access surface shared by Value and Instance.
type Accessor interface {
	Get(name string) (any, error)
	Set(name string, x any) error
	GetPath(path string) (any, error)
	SetPath(path string, x any) error
	Pack() ([]byte, error)
	Unpack(data []byte) error
	Names() []string
	Size() int
	Inspect() string
}

var (
	_ Accessor = (*Value)(nil)
	_ Accessor = (*Instance)(nil)
)

// As returns member name asserted to T.
func As[T any](a Accessor, name string) (T, error) {
	var zero T
	x, err := a.Get(name)
	if err != nil {
		return zero, err
	}
	v, ok := x.(T)
	if !ok {
		return zero, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Path(name).
			Value(x).
			Detail("member holds %T, want %T", x, zero).
			Build()
	}
	return v, nil
}
