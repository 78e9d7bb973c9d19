package decl

import (
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/decl/internal/parser"
	"github.com/wippyai/cstruct/decl/internal/token"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/registry"
	"go.uber.org/zap"
)

// Config controls how a definition is laid out and registered.
type Config struct {
	// Name tags bare member lists and tagless top-level bodies.
	Name string
	// EnumSize is the storage width of enums declared without a type.
	// Zero means 4 bytes.
	EnumSize int
	// ByteOrder selects packed little/big endian or native ABI layout.
	ByteOrder ctype.ByteOrder
	// Union makes a bare member list declare a union.
	Union bool
	// Anonymous skips registering top-level definitions.
	Anonymous bool
}

// DefaultConfig returns the configuration used when nil is passed.
func DefaultConfig() *Config {
	return &Config{ByteOrder: ctype.NativeOrder}
}

func (c *Config) options() parser.Options {
	return parser.Options{
		Name:     c.Name,
		EnumSize: c.EnumSize,
		Order:    c.ByteOrder,
		Union:    c.Union,
		Register: !c.Anonymous,
	}
}

// Parse parses a definition and returns the last struct, union or enum it
// declares. All named definitions are registered along the way. A
// definition holding only #define lines and typedefs returns nil.
func Parse(reg *registry.Registry, src string, cfg *Config) (ctype.Type, error) {
	types, err := ParseAll(reg, src, cfg)
	if err != nil || len(types) == 0 {
		return nil, err
	}
	return types[len(types)-1], nil
}

// ParseAll parses a definition and returns every top-level struct, union
// and enum in declaration order.
func ParseAll(reg *registry.Registry, src string, cfg *Config) ([]ctype.Type, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var types []ctype.Type
	err := reg.Serialize(func() error {
		tokens, err := token.Tokenize(src, defineInto(reg))
		if err != nil {
			return err
		}
		types, err = parser.New(reg, tokens, cfg.options()).Parse()
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		logDeclared(t)
	}
	return types, nil
}

// ParseEnum parses a bare enum constant list such as "A, B, C = 2".
func ParseEnum(reg *registry.Registry, src string, cfg *Config) (*ctype.Enum, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var e *ctype.Enum
	err := reg.Serialize(func() error {
		tokens, err := token.Tokenize(src, defineInto(reg))
		if err != nil {
			return err
		}
		e, err = parser.New(reg, tokens, cfg.options()).ParseEnumList(cfg.Name)
		return err
	})
	if err != nil {
		return nil, err
	}
	logDeclared(e)
	return e, nil
}

// ParseComposite parses a definition that must end in a struct or union.
func ParseComposite(reg *registry.Registry, src string, cfg *Config) (*ctype.Composite, error) {
	t, err := Parse(reg, src, cfg)
	if err != nil {
		return nil, err
	}
	c, ok := t.(*ctype.Composite)
	if !ok {
		return nil, errors.New(errors.PhaseParse, errors.KindTypeMismatch).
			Detail("definition does not declare a struct or union").
			Build()
	}
	return c, nil
}

func defineInto(reg *registry.Registry) func(token.Define) error {
	return func(d token.Define) error {
		v, err := reg.DefineExpr(d.Name, d.Expr)
		if err != nil {
			return errors.New(errors.PhaseParse, errors.KindInvalidExpression).
				Line(d.Line).
				Detail("#define %s %s", d.Name, d.Expr).
				Cause(err).
				Build()
		}
		Logger().Debug("constant defined",
			zap.String("name", d.Name),
			zap.Stringer("value", v),
			zap.Int("line", d.Line))
		return nil
	}
}

func logDeclared(t ctype.Type) {
	switch v := t.(type) {
	case *ctype.Composite:
		Logger().Debug("composite declared",
			zap.Stringer("type", v),
			zap.Int("size", v.Size()),
			zap.Int("align", v.Align()),
			zap.Int("fields", len(v.Fields())),
			zap.Stringer("order", v.Order()))
	case *ctype.Enum:
		Logger().Debug("enum declared",
			zap.Stringer("type", v),
			zap.Int("size", v.Size()),
			zap.Int("constants", len(v.Constants())))
	}
}
