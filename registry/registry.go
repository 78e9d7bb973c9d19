package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/wippyai/cstruct/cexpr"
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/errors"
)

// builtinTypedefs are aliases every registry starts with.
var builtinTypedefs = map[string]string{
	"short int":              "short",
	"signed short":           "short",
	"signed short int":       "short",
	"unsigned short int":     "unsigned short",
	"ushort":                 "unsigned short",
	"signed":                 "int",
	"signed int":             "int",
	"unsigned":               "unsigned int",
	"long int":               "long",
	"signed long":            "long",
	"signed long int":        "long",
	"unsigned long int":      "unsigned long",
	"long long int":          "long long",
	"signed long long":       "long long",
	"unsigned long long int": "unsigned long long",
	"int8_t":                 "int8",
	"uint8_t":                "uint8",
	"int16_t":                "int16",
	"uint16_t":               "uint16",
	"int32_t":                "int32",
	"uint32_t":               "uint32",
	"int64_t":                "int64",
	"uint64_t":               "uint64",
}

// Registry holds named constants, typedefs, composites and enums.
//
// Individual operations are safe for concurrent use. A declaration that
// registers several entries should run inside Serialize so that no other
// declaration interleaves with it.
type Registry struct {
	defines    map[string]cexpr.Number
	typedefs   map[string]string
	composites map[string]*ctype.Composite
	enums      map[string]*ctype.Enum
	mu         sync.RWMutex
	declMu     sync.Mutex
}

// New creates a registry preloaded with the builtin typedefs.
func New() *Registry {
	r := &Registry{
		defines:    make(map[string]cexpr.Number),
		typedefs:   make(map[string]string, len(builtinTypedefs)),
		composites: make(map[string]*ctype.Composite),
		enums:      make(map[string]*ctype.Enum),
	}
	for alias, typ := range builtinTypedefs {
		r.typedefs[alias] = typ
	}
	return r
}

var _ cexpr.Resolver = (*Registry)(nil)

// Serialize runs fn while holding the registry's declaration lock.
func (r *Registry) Serialize(fn func() error) error {
	r.declMu.Lock()
	defer r.declMu.Unlock()
	return fn()
}

// Define sets a named constant.
func (r *Registry) Define(name string, v cexpr.Number) {
	r.mu.Lock()
	r.defines[name] = v
	r.mu.Unlock()
}

// DefineExpr evaluates expr against the registry and stores the result.
func (r *Registry) DefineExpr(name, expr string) (cexpr.Number, error) {
	v, err := cexpr.Eval(expr, r)
	if err != nil {
		return cexpr.Number{}, err
	}
	r.Define(name, v)
	return v, nil
}

// Undef removes a named constant.
func (r *Registry) Undef(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defines[name]; !ok {
		return errors.NotFound(errors.PhaseRegistry, "constant", name)
	}
	delete(r.defines, name)
	return nil
}

// GetDef returns a named constant.
func (r *Registry) GetDef(name string) (cexpr.Number, error) {
	if v, ok := r.Constant(name); ok {
		return v, nil
	}
	return cexpr.Number{}, errors.NotFound(errors.PhaseRegistry, "constant", name)
}

// Constant implements cexpr.Resolver.
func (r *Registry) Constant(name string) (cexpr.Number, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.defines[name]
	return v, ok
}

// Defines returns the names of all constants, sorted.
func (r *Registry) Defines() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.defines)
}

// Typedef registers alias as another name for typ.
func (r *Registry) Typedef(typ, alias string) {
	r.mu.Lock()
	r.typedefs[Normalize(alias)] = Normalize(typ)
	r.mu.Unlock()
}

// Typedefs returns the alias table, builtins included.
func (r *Registry) Typedefs() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.typedefs))
	for k, v := range r.typedefs {
		out[k] = v
	}
	return out
}

// Resolve follows typedefs until name is no longer an alias.
func (r *Registry) Resolve(name string) string {
	name = Normalize(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := 0; i <= len(r.typedefs); i++ {
		next, ok := r.typedefs[name]
		if !ok {
			break
		}
		name = next
	}
	return name
}

// IsTypedef reports whether name is a registered alias.
func (r *Registry) IsTypedef(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.typedefs[Normalize(name)]
	return ok
}

// RegisterComposite stores a named struct or union under its tag,
// replacing any previous definition. Struct and union tags share one
// namespace.
func (r *Registry) RegisterComposite(c *ctype.Composite) error {
	if c.Name() == "" {
		return errors.New(errors.PhaseRegistry, errors.KindInvalidData).
			Type(c.String()).
			Detail("cannot register an unnamed composite").
			Build()
	}
	r.mu.Lock()
	r.composites[c.Name()] = c
	r.mu.Unlock()
	return nil
}

// RegisterEnum stores a named enum under "enum NAME".
func (r *Registry) RegisterEnum(e *ctype.Enum) error {
	if e.Name() == "" {
		return errors.New(errors.PhaseRegistry, errors.KindInvalidData).
			Detail("cannot register an unnamed enum").
			Build()
	}
	r.mu.Lock()
	r.enums[e.Name()] = e
	r.mu.Unlock()
	return nil
}

// Composite returns the struct or union registered as tag.
func (r *Registry) Composite(tag string) (*ctype.Composite, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.composites[tag]
	return c, ok
}

// Enum returns the enum registered as tag.
func (r *Registry) Enum(tag string) (*ctype.Enum, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.enums[tag]
	return e, ok
}

// Composites returns every registered composite ordered by tag.
func (r *Registry) Composites() []*ctype.Composite {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := sortedKeys(r.composites)
	out := make([]*ctype.Composite, len(keys))
	for i, k := range keys {
		out[i] = r.composites[k]
	}
	return out
}

// Enums returns every registered enum ordered by tag.
func (r *Registry) Enums() []*ctype.Enum {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := sortedKeys(r.enums)
	out := make([]*ctype.Enum, len(keys))
	for i, k := range keys {
		out[i] = r.enums[k]
	}
	return out
}

// GetType resolves a type name: a typedef, "struct NAME", "union NAME",
// "enum NAME", a pointer or a native type. Natives are sized for order.
// A composite tag is found under either keyword.
func (r *Registry) GetType(name string, order ctype.ByteOrder) (ctype.Type, error) {
	resolved := r.Resolve(name)
	if IsPointer(resolved) {
		resolved = ctype.PointerType
	}
	kind, tag, _ := strings.Cut(resolved, " ")
	switch kind {
	case "struct", "union":
		if c, ok := r.Composite(tag); ok {
			return c, nil
		}
	case "enum":
		if e, ok := r.Enum(tag); ok {
			return e, nil
		}
	default:
		if n, ok := ctype.LookupNative(resolved, order); ok {
			return n, nil
		}
	}
	return nil, errors.NotFound(errors.PhaseRegistry, "type", name)
}

// Sizeof returns the size of a type name in native order. Bare composite
// and enum tags are accepted as well.
func (r *Registry) Sizeof(name string) (int, error) {
	t, err := r.GetType(name, ctype.NativeOrder)
	if err == nil {
		return t.Size(), nil
	}
	tag := Normalize(name)
	if c, ok := r.Composite(tag); ok {
		return c.Size(), nil
	}
	if e, ok := r.Enum(tag); ok {
		return e.Size(), nil
	}
	return 0, err
}

// Normalize collapses runs of whitespace and trims the name.
func Normalize(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// IsPointer reports whether a type name denotes a pointer.
func IsPointer(name string) bool {
	return strings.HasSuffix(strings.TrimSpace(name), "*")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
