package ctype

import "github.com/wippyai/cstruct/errors"

// DefaultEnumSize is the storage width of enums without an explicit type.
const DefaultEnumSize = 4

// EnumConstant is one named enum value.
type EnumConstant struct {
	Name  string
	Value int64
}

// Enum is an ordered set of named integer constants.
type Enum struct {
	values    map[string]int64
	name      string
	constants []EnumConstant
	storage   Native
}

// Name returns the tag, empty for unnamed enums.
func (e *Enum) Name() string { return e.name }

// Storage returns the native type values are encoded as.
func (e *Enum) Storage() Native { return e.storage }

// Size returns the storage width in bytes.
func (e *Enum) Size() int { return e.storage.Width }

func (e *Enum) String() string {
	if e.name == "" {
		return "enum"
	}
	return "enum " + e.name
}

// Constants returns the constants in declaration order.
func (e *Enum) Constants() []EnumConstant {
	out := make([]EnumConstant, len(e.constants))
	copy(out, e.constants)
	return out
}

// Value returns the value of a named constant.
func (e *Enum) Value(name string) (int64, bool) {
	v, ok := e.values[name]
	return v, ok
}

// NameOf returns the first constant declared with value v.
func (e *Enum) NameOf(v int64) (string, bool) {
	for _, c := range e.constants {
		if c.Value == v {
			return c.Name, true
		}
	}
	return "", false
}

// EnumBuilder collects enum constants, applying the successor rule.
type EnumBuilder struct {
	e    *Enum
	next int64
}

// NewEnumBuilder starts an enum stored as the given native type.
func NewEnumBuilder(name string, storage Native) *EnumBuilder {
	return &EnumBuilder{e: &Enum{
		name:    name,
		storage: storage,
		values:  make(map[string]int64),
	}}
}

// Add appends a constant. A nil value takes the previous value plus one,
// or 0 for the first constant.
func (b *EnumBuilder) Add(name string, value *int64) (int64, error) {
	if _, ok := b.e.values[name]; ok {
		return 0, errors.Duplicate(errors.PhaseParse, []string{b.e.String()}, name)
	}
	v := b.next
	if value != nil {
		v = *value
	}
	b.e.values[name] = v
	b.e.constants = append(b.e.constants, EnumConstant{Name: name, Value: v})
	b.next = v + 1
	return v, nil
}

// Build returns the finished enum.
func (b *EnumBuilder) Build() *Enum {
	return b.e
}

// Named returns a copy of e carrying a different tag.
func (e *Enum) Named(name string) *Enum {
	cp := *e
	cp.name = name
	return &cp
}
