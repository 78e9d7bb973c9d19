package cstruct

import (
	"github.com/wippyai/cstruct/cexpr"
	"github.com/wippyai/cstruct/codec"
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/decl"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/registry"
	"go.uber.org/zap"
)

var defaultRegistry = registry.New()

// Registry returns the process-wide registry used by this package.
func Registry() *registry.Registry { return defaultRegistry }

// SetLogger configures the logger of the parser and codec packages.
func SetLogger(l *zap.Logger) {
	decl.SetLogger(l)
	codec.SetLogger(l)
}

// Define sets a named constant. Integers and floats are stored as is;
// a string is evaluated as a constant expression.
func Define(name string, value any) error {
	switch v := value.(type) {
	case cexpr.Number:
		defaultRegistry.Define(name, v)
	case string:
		_, err := defaultRegistry.DefineExpr(name, v)
		return err
	case bool:
		defaultRegistry.Define(name, cexpr.Bool(v))
	case float32:
		defaultRegistry.Define(name, cexpr.Float(float64(v)))
	case float64:
		defaultRegistry.Define(name, cexpr.Float(v))
	default:
		n, ok := toInt64(value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseRegistry, []string{name}, "constant", value)
		}
		defaultRegistry.Define(name, cexpr.Int(n))
	}
	return nil
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		return int64(v), v <= 1<<63-1
	case uint64:
		return int64(v), v <= 1<<63-1
	}
	return 0, false
}

// Undef removes a named constant.
func Undef(name string) error { return defaultRegistry.Undef(name) }

// GetDef returns a named constant.
func GetDef(name string) (cexpr.Number, error) { return defaultRegistry.GetDef(name) }

// Typedef registers alias as another name for typ.
func Typedef(typ, alias string) { defaultRegistry.Typedef(typ, alias) }

// Sizeof returns the native size of a type name such as "int",
// "struct utmp" or a typedef.
func Sizeof(name string) (int, error) { return defaultRegistry.Sizeof(name) }

// GetType resolves a struct, union, enum, typedef or native type name.
func GetType(name string) (ctype.Type, error) {
	return defaultRegistry.GetType(name, ctype.NativeOrder)
}

// Parse parses a definition in native layout and returns the last struct,
// union or enum it declares.
func Parse(src string) (ctype.Type, error) {
	return decl.Parse(defaultRegistry, src, nil)
}

// ParseWithConfig parses a definition using cfg.
func ParseWithConfig(src string, cfg *decl.Config) (ctype.Type, error) {
	return decl.Parse(defaultRegistry, src, cfg)
}

// ParseAll parses a definition and returns every top-level struct, union
// and enum in declaration order.
func ParseAll(src string, cfg *decl.Config) ([]ctype.Type, error) {
	return decl.ParseAll(defaultRegistry, src, cfg)
}

// ParseComposite parses a definition that must end in a struct or union.
func ParseComposite(src string, cfg *decl.Config) (*ctype.Composite, error) {
	return decl.ParseComposite(defaultRegistry, src, cfg)
}

func composite(tag string) (*ctype.Composite, error) {
	c, ok := defaultRegistry.Composite(tag)
	if !ok {
		return nil, errors.NotFound(errors.PhaseRegistry, "composite", tag)
	}
	return c, nil
}

// New returns a zeroed buffer value of a registered struct or union.
func New(tag string) (*codec.Value, error) {
	c, err := composite(tag)
	if err != nil {
		return nil, err
	}
	return codec.New(c), nil
}

// NewInstance returns a live instance of a registered struct or union
// over an owned buffer.
func NewInstance(tag string) (*codec.Instance, error) {
	c, err := composite(tag)
	if err != nil {
		return nil, err
	}
	return codec.NewInstance(c), nil
}

// Eval evaluates a constant expression against the defined constants.
func Eval(expr string) (cexpr.Number, error) {
	return cexpr.Eval(expr, defaultRegistry)
}
