package witmap

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"
)

// Describe returns the WIT spelling of a type reference.
func Describe(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		if l, ok := v.Kind.(*wit.List); ok {
			return "list<" + Describe(l.Type) + ">"
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// Render formats named definitions as WIT source.
func Render(defs []*wit.TypeDef) string {
	var sb strings.Builder
	for i, td := range defs {
		if td.Name == nil {
			continue
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch k := td.Kind.(type) {
		case *wit.Record:
			fmt.Fprintf(&sb, "record %s {\n", *td.Name)
			for _, f := range k.Fields {
				fmt.Fprintf(&sb, "    %s: %s,\n", f.Name, Describe(f.Type))
			}
			sb.WriteString("}\n")
		case *wit.Enum:
			fmt.Fprintf(&sb, "enum %s {\n", *td.Name)
			for _, c := range k.Cases {
				fmt.Fprintf(&sb, "    %s,\n", c.Name)
			}
			sb.WriteString("}\n")
		case *wit.List:
			fmt.Fprintf(&sb, "type %s = list<%s>;\n", *td.Name, Describe(k.Type))
		}
	}
	return sb.String()
}
