package witmap

import (
	"fmt"
	"strings"

	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/errors"
	"go.bytecodealliance.org/wit"
)

// Mapper converts composites and enums to WIT type definitions. Each
// composite or enum is converted once; nested types are emitted before
// the types that use them.
type Mapper struct {
	composites map[*ctype.Composite]*wit.TypeDef
	enums      map[*ctype.Enum]*wit.TypeDef
	order      []*wit.TypeDef
}

func New() *Mapper {
	return &Mapper{
		composites: make(map[*ctype.Composite]*wit.TypeDef),
		enums:      make(map[*ctype.Enum]*wit.TypeDef),
	}
}

// TypeDefs returns every named definition produced so far, dependencies
// first.
func (m *Mapper) TypeDefs() []*wit.TypeDef {
	out := make([]*wit.TypeDef, len(m.order))
	copy(out, m.order)
	return out
}

// Composite maps a struct to a WIT record. Unions have no WIT equivalent
// and become a named list<u8> of their raw bytes. Tagless composites are
// named after hint.
func (m *Mapper) Composite(c *ctype.Composite, hint string) (*wit.TypeDef, error) {
	if td, ok := m.composites[c]; ok {
		return td, nil
	}
	name := c.Name()
	if name == "" {
		name = hint
	}
	if name == "" {
		return nil, errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Type(c.String()).
			Detail("tagless composite needs a name").
			Build()
	}
	name = Name(name)

	if c.IsUnion() {
		td := &wit.TypeDef{Name: &name, Kind: &wit.List{Type: wit.U8{}}}
		m.composites[c] = td
		m.order = append(m.order, td)
		return td, nil
	}

	fields := make([]wit.Field, 0, len(c.Fields()))
	for _, f := range c.Fields() {
		t, err := m.field(f, name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, wit.Field{Name: Name(f.Name), Type: t})
	}
	td := &wit.TypeDef{Name: &name, Kind: &wit.Record{Fields: fields}}
	m.composites[c] = td
	m.order = append(m.order, td)
	return td, nil
}

// Enum maps an enum to a WIT enum. Case order follows declaration order;
// explicit constant values are not representable.
func (m *Mapper) Enum(e *ctype.Enum) *wit.TypeDef {
	if td, ok := m.enums[e]; ok {
		return td
	}
	name := Name(e.Name())
	consts := e.Constants()
	cases := make([]wit.EnumCase, len(consts))
	for i, c := range consts {
		cases[i] = wit.EnumCase{Name: Name(c.Name)}
	}
	td := &wit.TypeDef{Name: &name, Kind: &wit.Enum{Cases: cases}}
	m.enums[e] = td
	m.order = append(m.order, td)
	return td
}

func (m *Mapper) field(f *ctype.Field, owner string) (wit.Type, error) {
	if f.IsChar() {
		if f.VLen == 1 && !f.Flexible {
			return wit.U8{}, nil
		}
		return wit.String{}, nil
	}

	var elem wit.Type
	switch f.Kind {
	case ctype.FieldStruct, ctype.FieldUnion:
		td, err := m.Composite(f.Ref, owner+"-"+f.Name)
		if err != nil {
			return nil, err
		}
		elem = td
	case ctype.FieldEnum:
		if f.Enum.Name() == "" {
			return Scalar(f.Native)
		}
		elem = m.Enum(f.Enum)
	default:
		t, err := Scalar(f.Native)
		if err != nil {
			return nil, err
		}
		elem = t
	}
	if f.IsArray() {
		return &wit.TypeDef{Kind: &wit.List{Type: elem}}, nil
	}
	return elem, nil
}

// Scalar maps a native C type to a WIT primitive.
func Scalar(n ctype.Native) (wit.Type, error) {
	switch n.Kind {
	case ctype.KindChar:
		return wit.U8{}, nil
	case ctype.KindFloat:
		if n.Width == 4 {
			return wit.F32{}, nil
		}
		return wit.F64{}, nil
	case ctype.KindInt:
		switch n.Width {
		case 1:
			return wit.S8{}, nil
		case 2:
			return wit.S16{}, nil
		case 4:
			return wit.S32{}, nil
		case 8:
			return wit.S64{}, nil
		}
	case ctype.KindUint, ctype.KindPointer:
		switch n.Width {
		case 1:
			return wit.U8{}, nil
		case 2:
			return wit.U16{}, nil
		case 4:
			return wit.U32{}, nil
		case 8:
			return wit.U64{}, nil
		}
	}
	return nil, errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("%s of %d bytes", n.Name, n.Width))
}

// Name converts a C identifier to a WIT kebab-case name.
func Name(ident string) string {
	var sb strings.Builder
	dash := false
	for _, r := range ident {
		switch {
		case r == '_' || r == '-' || r == ' ':
			dash = sb.Len() > 0
		default:
			if dash {
				sb.WriteByte('-')
				dash = false
			}
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
