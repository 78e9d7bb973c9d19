package codec

import (
	"io"
	"strings"

	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/memory"
	"go.uber.org/zap"
)

// Instance is a live view of a composite stored in a Memory. It caches
// nothing: every Get decodes from memory and every Set encodes into it.
// Instances over the same memory observe each other's writes.
type Instance struct {
	def   *ctype.Composite
	mem   memory.Memory
	base  uint32
	flex  int
	owned bool
}

// NewInstance allocates an owned, zeroed buffer of the composite's size
// plus one sentinel byte.
func NewInstance(def *ctype.Composite) *Instance {
	return &Instance{
		def:   def,
		mem:   memory.NewBuffer(uint32(def.Size()) + 1),
		owned: true,
	}
}

// NewInstanceOver binds an instance to caller memory at base. The memory
// is borrowed, never resized unless it implements memory.Resizer.
func NewInstanceOver(def *ctype.Composite, mem memory.Memory, base uint32) (*Instance, error) {
	if uint64(base)+uint64(def.Size()) > uint64(mem.Size()) {
		return nil, errors.OutOfBounds(errors.PhaseLayout, []string{def.String()}, int(base), def.Size(), int(mem.Size()))
	}
	return &Instance{def: def, mem: mem, base: base}, nil
}

// Allocate places a new instance in mem at an address handed out by alloc.
// The region is zeroed.
func Allocate(def *ctype.Composite, mem memory.Memory, alloc memory.Allocator) (*Instance, error) {
	size := uint32(def.Size())
	ptr, err := alloc.Alloc(size, uint32(max(def.Align(), 1)))
	if err != nil {
		return nil, err
	}
	inst, err := NewInstanceOver(def, mem, ptr)
	if err != nil {
		alloc.Free(ptr, size, uint32(max(def.Align(), 1)))
		return nil, err
	}
	if err := mem.Write(ptr, make([]byte, size)); err != nil {
		return nil, err
	}
	Logger().Debug("instance allocated",
		zap.Stringer("type", def),
		zap.Uint32("base", ptr),
		zap.Uint32("size", size))
	return inst, nil
}

// Def returns the composite the instance views.
func (i *Instance) Def() *ctype.Composite { return i.def }

// Memory returns the backing memory.
func (i *Instance) Memory() memory.Memory { return i.mem }

// Base returns the instance's offset in its memory.
func (i *Instance) Base() uint32 { return i.base }

// Names returns every accessible member name in declaration order.
func (i *Instance) Names() []string { return i.def.Names() }

// Size returns the instance size with its flexible array's bound length.
func (i *Instance) Size() int {
	if i.def.FlexibleArray() != nil {
		return i.def.SizeWith(i.flex)
	}
	return i.def.Size()
}

// FlexibleLength returns the element count bound to the flexible array.
func (i *Instance) FlexibleLength() int { return i.flex }

// SetFlexibleLength binds the flexible array to n elements, growing or
// shrinking an owned buffer. Borrowed memory must already be large enough
// or implement memory.Resizer.
func (i *Instance) SetFlexibleLength(n int) error {
	flex := i.def.FlexibleArray()
	if flex == nil {
		return noFlexibleArray(i.def)
	}
	if n < 0 {
		return errors.New(errors.PhaseLayout, errors.KindInvalidSize).
			Path(flex.Name).
			Value(n).
			Detail("negative flexible array length").
			Build()
	}
	size := uint32(i.def.SizeWith(n))
	switch r, ok := i.mem.(memory.Resizer); {
	case i.owned:
		if err := r.Resize(size + 1); err != nil {
			return err
		}
		Logger().Debug("live store reallocated",
			zap.Stringer("type", i.def),
			zap.Uint32("size", size+1))
	case uint64(i.base)+uint64(size) <= uint64(i.mem.Size()):
	case ok:
		if err := r.Resize(i.base + size); err != nil {
			return err
		}
	default:
		return errors.OutOfBounds(errors.PhaseLayout, []string{i.def.String(), flex.Name}, int(i.base), int(size), int(i.mem.Size()))
	}
	if n < i.flex {
		// zero released elements of borrowed memory
		tail := uint32(flex.Offset + flex.SizeWith(n))
		end := uint32(flex.Offset + flex.SizeWith(i.flex))
		if !i.owned {
			if err := i.mem.Write(i.base+tail, make([]byte, end-tail)); err != nil {
				return err
			}
		}
	}
	Logger().Debug("flexible array bound",
		zap.Stringer("type", i.def),
		zap.String("field", flex.Name),
		zap.Int("old", i.flex),
		zap.Int("new", n),
		zap.Int("size", int(size)))
	i.flex = n
	return nil
}

func (i *Instance) field(name string) (*ctype.Field, error) {
	f, ok := i.def.Lookup(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseLayout, "member", i.def.String()+"."+name)
	}
	return f, nil
}

func (i *Instance) length(f *ctype.Field) int {
	if f.Flexible {
		return i.flex
	}
	return f.VLen
}

func (i *Instance) read(off, n int) ([]byte, error) {
	return i.mem.Read(i.base+uint32(off), uint32(n))
}

// Get decodes a member. Nested composites come back as *Instance and
// arrays of them as []*Instance, all sharing this memory. Native arrays
// come back as *ArrayView; char strings as a copied []byte.
func (i *Instance) Get(name string) (any, error) {
	f, err := i.field(name)
	if err != nil {
		return nil, err
	}
	n := i.length(f)
	switch {
	case f.IsChar():
		data, err := i.read(f.Offset, n)
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		copy(out, data)
		return out, nil
	case f.IsComposite() && f.IsArray():
		elems := make([]*Instance, n)
		for k := range elems {
			elems[k] = i.child(f, k)
		}
		return elems, nil
	case f.IsComposite():
		return i.child(f, 0), nil
	case f.IsArray():
		return &ArrayView{mem: i.mem, base: i.base + uint32(f.Offset), n: n, s: scalarOf(f), path: []string{i.def.String(), f.Name}}, nil
	}
	data, err := i.read(f.Offset, f.Native.Width)
	if err != nil {
		return nil, err
	}
	return scalarOf(f).decode(data), nil
}

func (i *Instance) child(f *ctype.Field, k int) *Instance {
	return &Instance{def: f.Ref, mem: i.mem, base: i.base + uint32(f.Offset+k*f.ElemSize())}
}

// Set encodes a member directly into memory. Assigning a flexible array
// of a different length rebinds it first, resizing owned memory. Nested
// composites take a *Instance or *Value of the same type.
func (i *Instance) Set(name string, x any) error {
	f, err := i.field(name)
	if err != nil {
		return err
	}
	path := []string{i.def.String(), f.Name}
	off := i.base + uint32(f.Offset)

	switch {
	case f.IsChar():
		n := i.length(f)
		if f.Flexible {
			n = bytesLen(x)
		}
		b, err := coerceBytes(x, n, path)
		if err != nil {
			return err
		}
		if f.Flexible {
			if err := i.rebind(n); err != nil {
				return err
			}
		}
		return i.mem.Write(off, b)

	case f.IsComposite() && f.IsArray():
		src, err := compositeElems(x, path, f.CType)
		if err != nil {
			return err
		}
		if !f.Flexible && len(src) != i.length(f) {
			return errors.TypeMismatch(errors.PhaseEncode, path, f.CType+"[]", x)
		}
		elems := make([][]byte, len(src))
		for k, e := range src {
			if elems[k], err = packedAs(f.Ref, e, path); err != nil {
				return err
			}
		}
		if f.Flexible {
			if err := i.rebind(len(src)); err != nil {
				return err
			}
		}
		for k, data := range elems {
			c := i.child(f, k)
			if err := c.mem.Write(c.base, data); err != nil {
				return err
			}
		}
		return nil

	case f.IsComposite():
		return i.child(f, 0).copyFrom(x, path)

	case f.IsArray():
		n := i.length(f)
		if f.Flexible {
			n = -1
		}
		s := scalarOf(f)
		vals, count, err := s.coerceSlice(x, n, path)
		if err != nil {
			return err
		}
		if f.Flexible {
			if err := i.rebind(count); err != nil {
				return err
			}
		}
		buf := make([]byte, count*s.width())
		for k, e := range elements(vals) {
			s.encode(buf[k*s.width():], e)
		}
		return i.mem.Write(off, buf)
	}

	s := scalarOf(f)
	c, err := s.coerce(x, path)
	if err != nil {
		return err
	}
	buf := make([]byte, s.width())
	s.encode(buf, c)
	return i.mem.Write(off, buf)
}

func (i *Instance) rebind(n int) error {
	if n == i.flex {
		return nil
	}
	return i.SetFlexibleLength(n)
}

func compositeElems(x any, path []string, cType string) ([]any, error) {
	switch s := x.(type) {
	case []*Instance:
		out := make([]any, len(s))
		for k, e := range s {
			out[k] = e
		}
		return out, nil
	case []*Value:
		out := make([]any, len(s))
		for k, e := range s {
			out[k] = e
		}
		return out, nil
	}
	return nil, errors.TypeMismatch(errors.PhaseEncode, path, cType+"[]", x)
}

func (i *Instance) copyFrom(x any, path []string) error {
	data, err := packedAs(i.def, x, path)
	if err != nil {
		return err
	}
	return i.mem.Write(i.base, data)
}

// packedAs returns the bytes of a *Instance or *Value laid out as def.
func packedAs(def *ctype.Composite, x any, path []string) ([]byte, error) {
	var src *ctype.Composite
	var data []byte
	var err error
	switch v := x.(type) {
	case *Instance:
		if v == nil {
			return nil, errors.TypeMismatch(errors.PhaseEncode, path, def.String(), x)
		}
		src = v.def
		data, err = v.Pack()
	case *Value:
		if v == nil {
			return nil, errors.TypeMismatch(errors.PhaseEncode, path, def.String(), x)
		}
		src = v.def
		data, err = v.Pack()
	default:
		return nil, errors.TypeMismatch(errors.PhaseEncode, path, def.String(), x)
	}
	if err != nil {
		return nil, err
	}
	if !def.SameLayout(src) {
		return nil, errors.TypeMismatch(errors.PhaseEncode, path, def.String(), src.String())
	}
	return data, nil
}

// Pack returns a copy of the instance's bytes, without the sentinel.
func (i *Instance) Pack() ([]byte, error) {
	data, err := i.read(0, i.Size())
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Unpack copies data into the instance's memory. A nil slice zeroes it.
// A flexible array is read with its currently bound length.
func (i *Instance) Unpack(data []byte) error {
	return i.UnpackFrom(data, 0)
}

// UnpackFrom copies Size() bytes of data starting at offset.
func (i *Instance) UnpackFrom(data []byte, offset int) error {
	size := i.Size()
	if data == nil {
		return i.mem.Write(i.base, make([]byte, size))
	}
	if offset < 0 || offset+size > len(data) {
		return errors.OutOfBounds(errors.PhaseDecode, []string{i.def.String()}, offset, size, len(data))
	}
	return i.mem.Write(i.base, data[offset:offset+size])
}

// UnpackReader reads exactly Size() bytes from r into memory. It returns
// false, with no error, when r holds fewer bytes.
func (i *Instance) UnpackReader(r io.Reader) (bool, error) {
	buf := make([]byte, i.Size())
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "read "+i.def.String())
	}
	return true, i.mem.Write(i.base, buf)
}

// Clear zeroes the instance and unbinds its flexible array.
func (i *Instance) Clear() error {
	if i.def.FlexibleArray() != nil && i.flex != 0 {
		if err := i.SetFlexibleLength(0); err != nil {
			return err
		}
	}
	return i.Unpack(nil)
}

// Value decodes a snapshot of the instance.
func (i *Instance) Value() (*Value, error) {
	v := New(i.def)
	if i.flex > 0 {
		if err := v.SetFlexibleLength(i.flex); err != nil {
			return nil, err
		}
	}
	data, err := i.Pack()
	if err != nil {
		return nil, err
	}
	return v, v.Unpack(data)
}

// GetPath resolves a dotted member path such as "u1.a_op.a" or "bval[2].c".
func (i *Instance) GetPath(path string) (any, error) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	var cur any = i
	for k, st := range steps {
		inst, ok := cur.(*Instance)
		if !ok {
			return nil, notComposite(steps[:k])
		}
		x, err := inst.Get(st.name)
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
// writes one array element in place.
func (i *Instance) SetPath(path string, x any) error {
	steps, err := parsePath(path)
	if err != nil {
		return err
	}
	last := steps[len(steps)-1]
	target := i
	if len(steps) > 1 {
		parent, err := i.GetPath(joinSteps(steps[:len(steps)-1]))
		if err != nil {
			return err
		}
		var ok bool
		if target, ok = parent.(*Instance); !ok {
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
	switch arr := cur.(type) {
	case *ArrayView:
		return arr.Set(last.index, x)
	case []*Instance:
		if last.index >= len(arr) {
			return errors.OutOfBounds(errors.PhaseLayout, []string{path}, last.index, 1, len(arr))
		}
		return arr[last.index].copyFrom(x, []string{path})
	case []byte:
		b, ok := toUint(x)
		if !ok || b > 0xff {
			return errors.TypeMismatch(errors.PhaseEncode, []string{path}, "char", x)
		}
		if last.index >= len(arr) {
			return errors.OutOfBounds(errors.PhaseLayout, []string{path}, last.index, 1, len(arr))
		}
		f, _ := target.def.Lookup(last.name)
		return target.mem.Write(target.base+uint32(f.Offset+last.index), []byte{byte(b)})
	}
	return errors.New(errors.PhaseLayout, errors.KindTypeMismatch).
		Path(path).
		Detail("member is not an array").
		Build()
}

// Inspect returns a hex dump of the instance's bytes.
func (i *Instance) Inspect() string {
	data, err := i.Pack()
	if err != nil {
		return err.Error()
	}
	return hexdump(data)
}

// String formats a decoded snapshot of the instance.
func (i *Instance) String() string {
	v, err := i.Value()
	if err != nil {
		return i.def.String() + "{" + strings.TrimSpace(err.Error()) + "}"
	}
	return v.String()
}

// ArrayView writes array elements through to memory one at a time.
type ArrayView struct {
	mem  memory.Memory
	base uint32
	n    int
	s    scalar
	path []string
}

// Len returns the number of elements.
func (a *ArrayView) Len() int { return a.n }

func (a *ArrayView) check(k int) error {
	if k < 0 || k >= a.n {
		return errors.OutOfBounds(errors.PhaseLayout, a.path, k, 1, a.n)
	}
	return nil
}

// At decodes element k.
func (a *ArrayView) At(k int) (any, error) {
	if err := a.check(k); err != nil {
		return nil, err
	}
	data, err := a.mem.Read(a.base+uint32(k*a.s.width()), uint32(a.s.width()))
	if err != nil {
		return nil, err
	}
	return a.s.decode(data), nil
}

// Set encodes element k without touching the others.
func (a *ArrayView) Set(k int, x any) error {
	if err := a.check(k); err != nil {
		return err
	}
	c, err := a.s.coerce(x, a.path)
	if err != nil {
		return err
	}
	buf := make([]byte, a.s.width())
	a.s.encode(buf, c)
	return a.mem.Write(a.base+uint32(k*a.s.width()), buf)
}

// Values decodes every element into a canonical slice.
func (a *ArrayView) Values() (any, error) {
	out := a.s.zeroSlice(a.n)
	if a.n == 0 {
		return out, nil
	}
	data, err := a.mem.Read(a.base, uint32(a.n*a.s.width()))
	if err != nil {
		return nil, err
	}
	for k := 0; k < a.n; k++ {
		setElement(out, k, a.s.decode(data[k*a.s.width():]))
	}
	return out, nil
}
