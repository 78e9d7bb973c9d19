package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/wippyai/cstruct/codec"
	"github.com/wippyai/cstruct/ctype"
)

// dumpRecords decodes consecutive records from r until EOF or until count
// records were printed. count 0 means no limit.
func dumpRecords(w io.Writer, def *ctype.Composite, r io.Reader, start int64, count int, st styles) (int, error) {
	v := codec.New(def)
	n := 0
	for count == 0 || n < count {
		ok, err := v.UnpackReader(r)
		if err != nil {
			return n, fmt.Errorf("record %d: %w", n, err)
		}
		if !ok {
			break
		}
		off := start + int64(n)*int64(v.Size())
		fmt.Fprintf(w, "%s\n", st.title.Render(fmt.Sprintf("%s #%d @ 0x%x", def, n, off)))
		if err := writeValue(w, v, "  ", st); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func writeValue(w io.Writer, v *codec.Value, indent string, st styles) error {
	for _, f := range v.Def().Fields() {
		x, err := v.Get(f.Name)
		if err != nil {
			return err
		}
		switch m := x.(type) {
		case *codec.Value:
			if f.Anonymous {
				if err := writeValue(w, m, indent, st); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(w, "%s%s:\n", indent, st.name.Render(f.Name))
			if err := writeValue(w, m, indent+"  ", st); err != nil {
				return err
			}
		case []*codec.Value:
			for k, e := range m {
				fmt.Fprintf(w, "%s%s:\n", indent, st.name.Render(f.Name+"["+strconv.Itoa(k)+"]"))
				if err := writeValue(w, e, indent+"  ", st); err != nil {
					return err
				}
			}
		default:
			fmt.Fprintf(w, "%s%s = %s\n", indent, st.name.Render(f.Name), st.value.Render(formatMember(f, x)))
		}
	}
	return nil
}

// formatMember renders a scalar or array member. Char strings are cut at
// the first NUL, enums show their constant name.
func formatMember(f *ctype.Field, x any) string {
	switch m := x.(type) {
	case []byte:
		if i := bytes.IndexByte(m, 0); i >= 0 {
			m = m[:i]
		}
		return strconv.Quote(string(m))
	case int64:
		if f.Enum != nil {
			if name, ok := f.Enum.NameOf(m); ok {
				return name + " (" + strconv.FormatInt(m, 10) + ")"
			}
		}
		return strconv.FormatInt(m, 10)
	case uint64:
		if f.Native.Kind == ctype.KindPointer {
			return "0x" + strconv.FormatUint(m, 16)
		}
		return strconv.FormatUint(m, 10)
	case float64:
		return strconv.FormatFloat(m, 'g', -1, 64)
	}
	return fmt.Sprint(x)
}

// parseMember converts editor input to the canonical type of cur.
// Unparsable enum input is passed through as a constant name.
func parseMember(input string, cur any) (any, error) {
	switch cur.(type) {
	case []byte:
		return []byte(input), nil
	case int64:
		n, err := strconv.ParseInt(input, 0, 64)
		if err != nil {
			return input, nil
		}
		return n, nil
	case uint64:
		n, err := strconv.ParseUint(input, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid unsigned value %q", input)
		}
		return n, nil
	case float64:
		n, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float value %q", input)
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot edit %T", cur)
}
