package codec

import (
	"strconv"
	"strings"

	"github.com/wippyai/cstruct/errors"
)

// step is one component of a dotted member path such as "u1.a_op.a" or
// "bval[2].c".
type step struct {
	name  string
	index int // -1 when not indexed
}

func parsePath(path string) ([]step, error) {
	if path == "" {
		return nil, errors.New(errors.PhaseLayout, errors.KindSyntax).
			Detail("empty member path").
			Build()
	}
	parts := strings.Split(path, ".")
	steps := make([]step, 0, len(parts))
	for _, part := range parts {
		st := step{name: part, index: -1}
		if open := strings.IndexByte(part, '['); open >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, badPath(path)
			}
			n, err := strconv.Atoi(part[open+1 : len(part)-1])
			if err != nil || n < 0 {
				return nil, badPath(path)
			}
			st.name, st.index = part[:open], n
		}
		if st.name == "" {
			return nil, badPath(path)
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func badPath(path string) error {
	return errors.New(errors.PhaseLayout, errors.KindSyntax).
		Value(path).
		Detail("invalid member path %q", path).
		Build()
}

func (s step) String() string {
	if s.index < 0 {
		return s.name
	}
	return s.name + "[" + strconv.Itoa(s.index) + "]"
}

// index selects element i of a decoded array value.
func index(v any, i int, path []string) (any, error) {
	n := -1
	var out any
	switch x := v.(type) {
	case []int64:
		if n = len(x); i < n {
			out = x[i]
		}
	case []uint64:
		if n = len(x); i < n {
			out = x[i]
		}
	case []float64:
		if n = len(x); i < n {
			out = x[i]
		}
	case []byte:
		if n = len(x); i < n {
			out = uint64(x[i])
		}
	case []*Value:
		if n = len(x); i < n {
			out = x[i]
		}
	case []*Instance:
		if n = len(x); i < n {
			out = x[i]
		}
	case *ArrayView:
		return x.At(i)
	}
	if n < 0 {
		return nil, errors.New(errors.PhaseLayout, errors.KindTypeMismatch).
			Path(path...).
			Detail("member is not an array").
			Build()
	}
	if out == nil {
		return nil, errors.OutOfBounds(errors.PhaseLayout, path, i, 1, n)
	}
	return out, nil
}
