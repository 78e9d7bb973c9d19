package ctype

// Type is anything a type name can resolve to: a Native scalar, a
// *Composite or an *Enum.
type Type interface {
	Size() int
	String() string
}

var (
	_ Type = Native{}
	_ Type = (*Composite)(nil)
	_ Type = (*Enum)(nil)
)
