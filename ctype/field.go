package ctype

import "github.com/wippyai/cstruct/ctype/internal/layout"

// FieldKind selects how a member is encoded.
type FieldKind uint8

const (
	FieldNative FieldKind = iota
	FieldStruct
	FieldUnion
	FieldEnum
)

var fieldKindNames = [...]string{
	FieldNative: "native",
	FieldStruct: "struct",
	FieldUnion:  "union",
	FieldEnum:   "enum",
}

func (k FieldKind) String() string {
	if int(k) < len(fieldKindNames) {
		return fieldKindNames[k]
	}
	return "unknown"
}

// Field is one member of a struct or union.
type Field struct {
	Name  string
	Kind  FieldKind
	CType string // canonical C type: "int", "struct op_a", "enum color"

	// Native is the scalar encoding for native and enum members.
	Native Native
	Ref    *Composite
	Enum   *Enum

	VLen     int  // element count, 0 for an unbound flexible array
	Flexible bool // trailing "name[]" member
	Order    ByteOrder

	BaseOffset int // offset before this member's own padding
	Offset     int
	Padding    int

	// Anonymous marks a synthetic member holding a tagless nested composite.
	Anonymous bool
	// Via lists the anonymous members a promoted field was reached through.
	Via []string
}

// IsComposite reports whether the member is a nested struct or union.
func (f *Field) IsComposite() bool {
	return f.Kind == FieldStruct || f.Kind == FieldUnion
}

// IsChar reports whether the member is a char byte string.
func (f *Field) IsChar() bool {
	return f.Kind == FieldNative && f.Native.Kind == KindChar
}

// IsArray reports whether the member holds a sequence of elements.
// char[N] is a byte string, not an array.
func (f *Field) IsArray() bool {
	if f.IsChar() {
		return false
	}
	return f.Flexible || f.VLen != 1
}

// ElemSize returns the size in bytes of one element.
func (f *Field) ElemSize() int {
	if f.IsComposite() {
		return f.Ref.Size()
	}
	return f.Native.Width
}

// Size returns the member size with its declared (or currently bound) length.
func (f *Field) Size() int {
	return f.ElemSize() * f.VLen
}

// SizeWith returns the member size when holding n elements.
func (f *Field) SizeWith(n int) int {
	return f.ElemSize() * n
}

// Alignment returns the member alignment: the scalar width for native and
// enum members, the nested composite's own alignment otherwise.
func (f *Field) Alignment() int {
	if f.IsComposite() {
		return f.Ref.Align()
	}
	return f.Native.Width
}

func (f *Field) member() layout.Member {
	return layout.Member{
		Info:     layout.Info{Size: f.Size(), Align: f.Alignment()},
		Unpadded: f.IsChar(),
	}
}

// Path returns the anonymous members the field is reached through followed
// by its own name.
func (f *Field) Path() []string {
	path := make([]string, 0, len(f.Via)+1)
	path = append(path, f.Via...)
	return append(path, f.Name)
}
