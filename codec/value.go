package codec

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/errors"
	"go.uber.org/zap"
)

// Value is a decoded copy of a struct or union. Members hold canonical Go
// values: int64 for signed and enum members, uint64 for unsigned and
// pointer members, float64 for floating point, []byte for char strings,
// slices of those for arrays and *Value for nested composites.
//
// Setting a member of a union, or of anything nested in one, re-decodes
// the union's other members from the written bytes so that every member
// reflects the same storage.
type Value struct {
	def    *ctype.Composite
	fields map[string]any
	flex   int

	parent      *Value
	parentField string
	lastSet     string
}

// New returns a zero-valued instance of def.
func New(def *ctype.Composite) *Value {
	return newValue(def, nil, "")
}

func newValue(def *ctype.Composite, parent *Value, parentField string) *Value {
	v := &Value{
		def:         def,
		fields:      make(map[string]any, len(def.Fields())),
		parent:      parent,
		parentField: parentField,
	}
	for _, f := range def.Fields() {
		v.fields[f.Name] = v.zero(f, f.VLen)
	}
	return v
}

func (v *Value) zero(f *ctype.Field, n int) any {
	switch {
	case f.IsChar():
		return make([]byte, n)
	case f.IsComposite() && f.IsArray():
		elems := make([]*Value, n)
		for i := range elems {
			elems[i] = newValue(f.Ref, v, f.Name)
		}
		return elems
	case f.IsComposite():
		return newValue(f.Ref, v, f.Name)
	case f.IsArray():
		return scalarOf(f).zeroSlice(n)
	}
	return scalarOf(f).zero()
}

// Def returns the composite the value was created for.
func (v *Value) Def() *ctype.Composite { return v.def }

// Names returns every accessible member name in declaration order.
func (v *Value) Names() []string { return v.def.Names() }

// Size returns the packed size, including the bound length of a flexible
// array member. The composite's declared size is def.Size().
func (v *Value) Size() int {
	if v.def.FlexibleArray() != nil {
		return v.def.SizeWith(v.flex)
	}
	return v.def.Size()
}

// FlexibleLength returns the element count bound to the flexible array.
func (v *Value) FlexibleLength() int { return v.flex }

// SetFlexibleLength binds the flexible array member to n elements,
// keeping existing elements that still fit. Unpack reads that many.
func (v *Value) SetFlexibleLength(n int) error {
	flex := v.def.FlexibleArray()
	if flex == nil {
		return noFlexibleArray(v.def)
	}
	if n < 0 {
		return errors.New(errors.PhaseLayout, errors.KindInvalidSize).
			Path(flex.Name).
			Value(n).
			Detail("negative flexible array length").
			Build()
	}
	old := v.flex
	v.flex = n
	v.fields[flex.Name] = resize(v.fields[flex.Name], v.zero(flex, n))
	Logger().Debug("flexible array bound",
		zap.Stringer("type", v.def),
		zap.String("field", flex.Name),
		zap.Int("old", old),
		zap.Int("new", n),
		zap.Int("size", v.Size()))
	return nil
}

// resize copies the common prefix of cur into fresh.
func resize(cur, fresh any) any {
	switch dst := fresh.(type) {
	case []byte:
		copy(dst, cur.([]byte))
	case []int64:
		copy(dst, cur.([]int64))
	case []uint64:
		copy(dst, cur.([]uint64))
	case []float64:
		copy(dst, cur.([]float64))
	case []*Value:
		copy(dst, cur.([]*Value))
	}
	return fresh
}

func noFlexibleArray(def *ctype.Composite) error {
	return errors.New(errors.PhaseLayout, errors.KindFlexibleArray).
		Type(def.String()).
		Detail("no flexible array member").
		Build()
}

// owner finds the value holding name, descending through anonymous
// members for promoted names.
func (v *Value) owner(name string) (*Value, *ctype.Field, error) {
	f, ok := v.def.Lookup(name)
	if !ok {
		return nil, nil, errors.NotFound(errors.PhaseLayout, "member", v.def.String()+"."+name)
	}
	cur := v
	for _, anon := range f.Via {
		cur = cur.fields[anon].(*Value)
	}
	own, _ := cur.def.Lookup(f.Name)
	return cur, own, nil
}

// Get returns a member by name. Nested composites are returned as *Value
// and share state with v.
func (v *Value) Get(name string) (any, error) {
	own, f, err := v.owner(name)
	if err != nil {
		return nil, err
	}
	return own.fields[f.Name], nil
}

// Set assigns a member. Arrays take any slice of numbers with the declared
// length; assigning a flexible array binds its length to the slice.
// Nested composites take a *Value of the same type, copied in.
func (v *Value) Set(name string, x any) error {
	own, f, err := v.owner(name)
	if err != nil {
		return err
	}
	if err := own.assign(f, x); err != nil {
		return err
	}
	own.changed(f.Name)
	return nil
}

func (v *Value) assign(f *ctype.Field, x any) error {
	path := []string{v.def.String(), f.Name}
	n := f.VLen
	if f.Flexible {
		n = -1
	}

	switch {
	case f.IsChar():
		if f.Flexible {
			b, err := coerceBytes(x, bytesLen(x), path)
			if err != nil {
				return err
			}
			return v.bindFlexible(f, len(b), b)
		}
		b, err := coerceBytes(x, f.VLen, path)
		if err != nil {
			return err
		}
		v.fields[f.Name] = b

	case f.IsComposite() && f.IsArray():
		src, ok := x.([]*Value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, path, f.CType+"[]", x)
		}
		if !f.Flexible && len(src) != f.VLen {
			return errors.TypeMismatch(errors.PhaseEncode, path, f.CType+"[]", x)
		}
		for _, e := range src {
			if e == nil || !f.Ref.SameLayout(e.def) {
				return errors.TypeMismatch(errors.PhaseEncode, path, f.CType, e)
			}
		}
		if f.Flexible && len(src) != v.flex {
			if err := v.SetFlexibleLength(len(src)); err != nil {
				return err
			}
		}
		dst := v.fields[f.Name].([]*Value)
		for i := range src {
			if err := dst[i].copyFrom(src[i], path); err != nil {
				return err
			}
		}

	case f.IsComposite():
		src, ok := x.(*Value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, path, f.CType, x)
		}
		return v.fields[f.Name].(*Value).copyFrom(src, path)

	case f.IsArray():
		s, count, err := scalarOf(f).coerceSlice(x, n, path)
		if err != nil {
			return err
		}
		if f.Flexible {
			return v.bindFlexible(f, count, s)
		}
		v.fields[f.Name] = s

	default:
		c, err := scalarOf(f).coerce(x, path)
		if err != nil {
			return err
		}
		v.fields[f.Name] = c
	}
	return nil
}

func bytesLen(x any) int {
	switch b := x.(type) {
	case []byte:
		return len(b)
	case string:
		return len(b)
	}
	return 0
}

func (v *Value) bindFlexible(f *ctype.Field, n int, data any) error {
	if n != v.flex {
		if err := v.SetFlexibleLength(n); err != nil {
			return err
		}
	}
	v.fields[f.Name] = data
	return nil
}

func (v *Value) copyFrom(src *Value, path []string) error {
	if !v.def.SameLayout(src.def) {
		return errors.TypeMismatch(errors.PhaseEncode, path, v.def.String(), src.def.String())
	}
	data, err := src.Pack()
	if err != nil {
		return err
	}
	v.decode(data, 0)
	v.lastSet = src.lastSet
	return nil
}

// changed keeps enclosing unions consistent after member name of v was
// written.
func (v *Value) changed(name string) {
	if v.def.IsUnion() {
		v.lastSet = name
		buf := make([]byte, v.Size())
		v.encode(buf, 0)
		v.decode(buf, 0)
	}
	if v.parent != nil {
		v.parent.changed(v.parentField)
	}
}

// Pack encodes the value. Native layout padding is zero filled.
func (v *Value) Pack() ([]byte, error) {
	buf := make([]byte, v.Size())
	v.encode(buf, 0)
	return buf, nil
}

func (v *Value) encode(buf []byte, base int) {
	for _, f := range v.def.Fields() {
		v.encodeField(buf, base, f)
	}
	if v.def.IsUnion() && v.lastSet != "" {
		f, _ := v.def.Lookup(v.lastSet)
		v.encodeField(buf, base, f)
	}
}

func (v *Value) encodeField(buf []byte, base int, f *ctype.Field) {
	off := base + f.Offset
	x := v.fields[f.Name]
	switch {
	case f.IsChar():
		copy(buf[off:], x.([]byte))
	case f.IsComposite() && f.IsArray():
		for i, e := range x.([]*Value) {
			e.encode(buf, off+i*f.ElemSize())
		}
	case f.IsComposite():
		x.(*Value).encode(buf, off)
	case f.IsArray():
		s := scalarOf(f)
		for i, e := range elements(x) {
			s.encode(buf[off+i*s.width():], e)
		}
	default:
		scalarOf(f).encode(buf[off:], x)
	}
}

func elements(x any) []any {
	var out []any
	switch s := x.(type) {
	case []int64:
		for _, e := range s {
			out = append(out, e)
		}
	case []uint64:
		for _, e := range s {
			out = append(out, e)
		}
	case []float64:
		for _, e := range s {
			out = append(out, e)
		}
	}
	return out
}

// Unpack decodes data into v. A nil slice clears the value. Data must
// hold at least Size() bytes; a flexible array is read with its currently
// bound length.
func (v *Value) Unpack(data []byte) error {
	return v.UnpackFrom(data, 0)
}

// UnpackFrom decodes the value starting at offset.
func (v *Value) UnpackFrom(data []byte, offset int) error {
	if data == nil {
		v.Clear()
		return nil
	}
	if offset < 0 || offset+v.Size() > len(data) {
		return errors.OutOfBounds(errors.PhaseDecode, []string{v.def.String()}, offset, v.Size(), len(data))
	}
	v.decode(data, offset)
	return nil
}

// UnpackReader reads exactly Size() bytes from r and decodes them. It
// returns false, with no error, when r holds fewer bytes.
func (v *Value) UnpackReader(r io.Reader) (bool, error) {
	buf := make([]byte, v.Size())
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "read "+v.def.String())
	}
	v.decode(buf, 0)
	return true, nil
}

func (v *Value) decode(data []byte, base int) {
	for _, f := range v.def.Fields() {
		off := base + f.Offset
		n := f.VLen
		if f.Flexible {
			n = v.flex
		}
		switch {
		case f.IsChar():
			b := make([]byte, n)
			copy(b, data[off:])
			v.fields[f.Name] = b
		case f.IsComposite() && f.IsArray():
			for i, e := range v.fields[f.Name].([]*Value) {
				e.decode(data, off+i*f.ElemSize())
			}
		case f.IsComposite():
			v.fields[f.Name].(*Value).decode(data, off)
		case f.IsArray():
			s := scalarOf(f)
			out := s.zeroSlice(n)
			for i := 0; i < n; i++ {
				setElement(out, i, s.decode(data[off+i*s.width():]))
			}
			v.fields[f.Name] = out
		default:
			v.fields[f.Name] = scalarOf(f).decode(data[off:])
		}
	}
}

func setElement(s any, i int, e any) {
	switch x := s.(type) {
	case []int64:
		x[i] = e.(int64)
	case []uint64:
		x[i] = e.(uint64)
	case []float64:
		x[i] = e.(float64)
	}
}

// Clear resets every member to zero and unbinds the flexible array.
func (v *Value) Clear() {
	if flex := v.def.FlexibleArray(); flex != nil {
		v.flex = 0
		v.fields[flex.Name] = v.zero(flex, 0)
	}
	v.lastSet = ""
	v.decode(make([]byte, v.Size()), 0)
}

// GetPath resolves a dotted member path such as "u1.a_op.a" or "bval[2].c".
func (v *Value) GetPath(path string) (any, error) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	var cur any = v
	for i, st := range steps {
		val, ok := cur.(*Value)
		if !ok {
			return nil, notComposite(steps[:i])
		}
		x, err := val.Get(st.name)
		if err != nil {
			return nil, err
		}
		if st.index >= 0 {
			if x, err = index(x, st.index, []string{path}); err != nil {
				return nil, err
			}
		}
		cur = x
	}
	return cur, nil
}

// SetPath assigns the member a dotted path names. An indexed last step
// replaces one array element.
func (v *Value) SetPath(path string, x any) error {
	steps, err := parsePath(path)
	if err != nil {
		return err
	}
	last := steps[len(steps)-1]
	target := v
	if len(steps) > 1 {
		parent, err := v.GetPath(joinSteps(steps[:len(steps)-1]))
		if err != nil {
			return err
		}
		var ok bool
		if target, ok = parent.(*Value); !ok {
			return notComposite(steps[:len(steps)-1])
		}
	}
	if last.index < 0 {
		return target.Set(last.name, x)
	}

	cur, err := target.Get(last.name)
	if err != nil {
		return err
	}
	if elems, ok := cur.([]*Value); ok {
		if last.index >= len(elems) {
			return errors.OutOfBounds(errors.PhaseLayout, []string{path}, last.index, 1, len(elems))
		}
		src, ok := x.(*Value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, []string{path}, elems[0].def.String(), x)
		}
		if err := elems[last.index].copyFrom(src, []string{path}); err != nil {
			return err
		}
		elems[last.index].changed("")
		return nil
	}
	updated, err := withElement(cur, last.index, x, path)
	if err != nil {
		return err
	}
	return target.Set(last.name, updated)
}

func withElement(cur any, i int, x any, path string) (any, error) {
	if _, err := index(cur, i, []string{path}); err != nil {
		return nil, err
	}
	switch s := cur.(type) {
	case []byte:
		out := slices.Clone(s)
		b, ok := toUint(x)
		if !ok || b > 0xff {
			return nil, errors.TypeMismatch(errors.PhaseEncode, []string{path}, "char", x)
		}
		out[i] = byte(b)
		return out, nil
	case []int64, []uint64, []float64:
		out := elements(s)
		out[i] = x
		return out, nil
	}
	return nil, errors.TypeMismatch(errors.PhaseEncode, []string{path}, "array", x)
}

func joinSteps(steps []step) string {
	parts := make([]string, len(steps))
	for i, st := range steps {
		parts[i] = st.String()
	}
	return strings.Join(parts, ".")
}

func notComposite(steps []step) error {
	return errors.New(errors.PhaseLayout, errors.KindTypeMismatch).
		Path(joinSteps(steps)).
		Detail("member is not a struct or union").
		Build()
}

// Equal reports whether both values have the same type and members.
func (v *Value) Equal(o *Value) bool {
	if o == nil || !v.def.SameLayout(o.def) || v.flex != o.flex {
		return false
	}
	for _, f := range v.def.Fields() {
		if !equalMember(v.fields[f.Name], o.fields[f.Name]) {
			return false
		}
	}
	return true
}

func equalMember(a, b any) bool {
	switch x := a.(type) {
	case *Value:
		y, ok := b.(*Value)
		return ok && x.Equal(y)
	case []*Value:
		y, ok := b.([]*Value)
		return ok && slices.EqualFunc(x, y, (*Value).Equal)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case []int64:
		y, ok := b.([]int64)
		return ok && slices.Equal(x, y)
	case []uint64:
		y, ok := b.([]uint64)
		return ok && slices.Equal(x, y)
	case []float64:
		y, ok := b.([]float64)
		return ok && slices.Equal(x, y)
	}
	return a == b
}

// Inspect returns a hex dump of the packed value.
func (v *Value) Inspect() string {
	data, _ := v.Pack()
	return hexdump(data)
}

// String formats the value as "struct NAME{a: 1, b: [1 2]}".
func (v *Value) String() string {
	var sb strings.Builder
	sb.WriteString(v.def.String())
	sb.WriteByte('{')
	for i, f := range v.def.Fields() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: ", f.Name)
		switch x := v.fields[f.Name].(type) {
		case []byte:
			fmt.Fprintf(&sb, "%q", x)
		case []*Value:
			sb.WriteByte('[')
			for j, e := range x {
				if j > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(e.String())
			}
			sb.WriteByte(']')
		default:
			fmt.Fprint(&sb, x)
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
