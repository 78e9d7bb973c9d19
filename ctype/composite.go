package ctype

import (
	"fmt"

	"github.com/wippyai/cstruct/ctype/internal/layout"
	"github.com/wippyai/cstruct/errors"
)

// AnonymousPrefix starts the synthetic names of tagless nested members.
const AnonymousPrefix = "__anonymous"

// Composite is the immutable layout of a struct or union.
type Composite struct {
	promoted map[string]*Field
	byName   map[string]*Field
	name     string
	fields   []*Field
	names    []string
	size     int
	align    int
	end      int // struct: end of the last member before tail padding
	order    ByteOrder
	union    bool
}

// Name returns the tag, empty for unnamed composites.
func (c *Composite) Name() string { return c.name }

// IsUnion reports whether members overlap at offset 0.
func (c *Composite) IsUnion() bool { return c.union }

// Order returns the byte order the layout was computed for.
func (c *Composite) Order() ByteOrder { return c.order }

// Size returns the declared size. A trailing flexible array contributes
// nothing.
func (c *Composite) Size() int { return c.size }

// Align returns the largest member alignment, 0 for an empty composite.
func (c *Composite) Align() int { return c.align }

// String returns "struct NAME" or "union NAME".
func (c *Composite) String() string {
	kind := "struct"
	if c.union {
		kind = "union"
	}
	if c.name == "" {
		return kind
	}
	return kind + " " + c.name
}

// Fields returns the declared members in declaration order. Promoted
// members of anonymous composites are not included.
func (c *Composite) Fields() []*Field {
	out := make([]*Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Names returns every accessible member name: declared members, each
// anonymous member followed by the names it promotes.
func (c *Composite) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Lookup returns a declared or promoted member. Promoted members carry
// offsets relative to c.
func (c *Composite) Lookup(name string) (*Field, bool) {
	if f, ok := c.byName[name]; ok {
		return f, true
	}
	f, ok := c.promoted[name]
	return f, ok
}

// SameLayout reports whether o is c or an identical layout: same tag,
// kind, byte order, size and members at the same offsets.
func (c *Composite) SameLayout(o *Composite) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil || c.name != o.name || c.union != o.union || c.order != o.order ||
		c.size != o.size || c.align != o.align || len(c.fields) != len(o.fields) {
		return false
	}
	for k, f := range c.fields {
		g := o.fields[k]
		if f.Name != g.Name || f.Kind != g.Kind || f.CType != g.CType || f.Native != g.Native ||
			f.VLen != g.VLen || f.Flexible != g.Flexible || f.Offset != g.Offset {
			return false
		}
		if f.IsComposite() && !f.Ref.SameLayout(g.Ref) {
			return false
		}
	}
	return true
}

// FlexibleArray returns the trailing flexible array member, if any.
func (c *Composite) FlexibleArray() *Field {
	if c.union || len(c.fields) == 0 {
		return nil
	}
	if last := c.fields[len(c.fields)-1]; last.Flexible {
		return last
	}
	return nil
}

// SizeWith returns the size with the flexible array bound to n elements.
// Only the trailing member's contribution is recomputed.
func (c *Composite) SizeWith(n int) int {
	flex := c.FlexibleArray()
	if flex == nil {
		return c.size
	}
	return layout.Tail(flex.Offset+flex.SizeWith(n), c.align, !c.order.Packed())
}

// Builder computes a composite layout incrementally, member by member.
type Builder struct {
	c     *Composite
	anons int
}

// NewBuilder starts a struct or union layout.
func NewBuilder(name string, union bool, order ByteOrder) *Builder {
	return &Builder{c: &Composite{
		name:     name,
		union:    union,
		order:    order,
		byName:   make(map[string]*Field),
		promoted: make(map[string]*Field),
	}}
}

// Len returns the number of declared members so far.
func (b *Builder) Len() int { return len(b.c.fields) }

// Has reports whether name is already taken by a declared or promoted member.
func (b *Builder) Has(name string) bool {
	_, ok := b.c.Lookup(name)
	return ok
}

// NextAnonymousName returns the synthetic name for the next tagless member.
func (b *Builder) NextAnonymousName() string {
	name := fmt.Sprintf("%s%d", AnonymousPrefix, b.anons)
	b.anons++
	return name
}

func (b *Builder) path(name string) []string {
	return []string{b.c.String(), name}
}

// Add appends a member, placing it after the previous one (struct) or at
// offset 0 (union). Anonymous composite members promote their names.
func (b *Builder) Add(f Field) (*Field, error) {
	c := b.c
	if flex := c.FlexibleArray(); flex != nil {
		return nil, errors.New(errors.PhaseParse, errors.KindFlexibleArray).
			Path(b.path(f.Name)...).
			Detail("flexible array member %q must be the last member", flex.Name).
			Build()
	}
	if f.Flexible && c.union {
		return nil, errors.New(errors.PhaseParse, errors.KindFlexibleArray).
			Path(b.path(f.Name)...).
			Detail("flexible array member not allowed in a union").
			Build()
	}
	if f.IsComposite() && f.Ref.FlexibleArray() != nil {
		return nil, errors.New(errors.PhaseParse, errors.KindFlexibleArray).
			Path(b.path(f.Name)...).
			Type(f.Ref.String()).
			Detail("composite with a flexible array member cannot be nested").
			Build()
	}
	if b.Has(f.Name) {
		return nil, errors.Duplicate(errors.PhaseParse, []string{c.String()}, f.Name)
	}
	if f.Anonymous {
		for _, name := range f.Ref.Names() {
			if b.Has(name) {
				return nil, errors.Duplicate(errors.PhaseParse, []string{c.String()}, name)
			}
		}
	}

	field := f
	field.Order = c.order
	if field.Flexible {
		field.VLen = 0
	}
	aligned := !c.order.Packed()
	m := field.member()
	if c.union {
		field.BaseOffset, field.Offset, field.Padding = 0, 0, 0
	} else {
		field.BaseOffset = c.end
		field.Padding, field.Offset = layout.Place(c.end, m, aligned)
		c.end = field.Offset + m.Size
	}
	if m.Align > c.align {
		c.align = m.Align
	}

	c.fields = append(c.fields, &field)
	c.byName[field.Name] = &field
	c.names = append(c.names, field.Name)

	if field.Anonymous {
		for _, name := range field.Ref.Names() {
			inner, _ := field.Ref.Lookup(name)
			p := *inner
			p.BaseOffset += field.Offset
			p.Offset += field.Offset
			p.Via = append([]string{field.Name}, inner.Via...)
			c.promoted[name] = &p
			c.names = append(c.names, name)
		}
	}

	if c.union {
		members := make([]layout.Member, len(c.fields))
		for i, mf := range c.fields {
			members[i] = mf.member()
		}
		c.size = layout.Union(members).Size
	} else {
		c.size = layout.Tail(c.end, c.align, aligned)
	}
	return &field, nil
}

// Build returns the finished composite. The builder must not be used after.
func (b *Builder) Build() *Composite {
	return b.c
}

// Named returns a copy of c carrying a different tag.
func (c *Composite) Named(name string) *Composite {
	cp := *c
	cp.name = name
	return &cp
}
