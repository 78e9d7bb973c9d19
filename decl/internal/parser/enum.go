package parser

import (
	"strings"

	"github.com/wippyai/cstruct/cexpr"
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/registry"
)

// enumScope resolves identifiers against constants declared earlier in
// the same enum before falling back to the registry.
type enumScope struct {
	reg    *registry.Registry
	values map[string]int64
}

func (s *enumScope) Constant(name string) (cexpr.Number, bool) {
	if v, ok := s.values[name]; ok {
		return cexpr.Int(v), true
	}
	return s.reg.Constant(name)
}

func (s *enumScope) Sizeof(name string) (int, error) {
	return s.reg.Sizeof(name)
}

// parseEnumDefinition parses "[: TYPE] { constants }" after the tag.
// Nested named enums are registered immediately.
func (p *Parser) parseEnumDefinition(name string, nested bool) (*ctype.Enum, error) {
	storage, err := p.enumStorage()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	e, err := p.parseEnumConstants(name, storage, true)
	if err != nil {
		return nil, err
	}
	if nested && name != "" {
		if err := p.reg.RegisterEnum(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// enumStorage reads an optional ": TYPE" underlying type.
func (p *Parser) enumStorage() (ctype.Native, error) {
	if !p.optional(":") {
		return p.defaultEnumStorage()
	}
	line := p.s.Line()
	name, err := p.parseBaseName()
	if err != nil {
		return ctype.Native{}, err
	}
	resolved := p.reg.Resolve(name)
	n, ok := ctype.LookupNative(resolved, p.opts.Order)
	if !ok || (n.Kind != ctype.KindInt && n.Kind != ctype.KindUint) {
		return ctype.Native{}, errors.New(errors.PhaseParse, errors.KindInvalidSize).
			Line(line).
			Type(name).
			Detail("enum underlying type must be an integer type").
			Build()
	}
	return n, nil
}

func (p *Parser) defaultEnumStorage() (ctype.Native, error) {
	size := p.opts.EnumSize
	if size == 0 {
		size = ctype.DefaultEnumSize
	}
	n, ok := ctype.SizedInt(size)
	if !ok {
		return ctype.Native{}, errors.New(errors.PhaseParse, errors.KindInvalidSize).
			Value(size).
			Detail("enum size %d is not one of 1, 2, 4, 8", size).
			Build()
	}
	return n, nil
}

// parseEnumConstants reads "NAME [= EXPR]" items separated by commas, up
// to '}' when braced or end of input otherwise. A trailing comma is allowed.
func (p *Parser) parseEnumConstants(name string, storage ctype.Native, braced bool) (*ctype.Enum, error) {
	eb := ctype.NewEnumBuilder(name, storage)
	scope := &enumScope{reg: p.reg, values: make(map[string]int64)}
	for {
		t, ok := p.s.Peek()
		if !ok {
			if braced {
				return nil, errors.Syntax(p.s.Line(), "expected '}' to close enum")
			}
			return eb.Build(), nil
		}
		if t.Is("}") && braced {
			p.s.Pop()
			return eb.Build(), nil
		}

		nameTok, err := p.expectWord()
		if err != nil {
			return nil, err
		}
		if reserved[nameTok.Value] || !isIdent(nameTok.Value) {
			return nil, errors.New(errors.PhaseParse, errors.KindReservedName).
				Line(nameTok.Line).
				Detail("invalid enum constant name %q", nameTok.Value).
				Build()
		}

		var value *int64
		if p.optional("=") {
			expr, err := p.collectExpression(braced)
			if err != nil {
				return nil, err
			}
			v, err := cexpr.EvalInt(expr, scope)
			if err != nil {
				return nil, errors.New(errors.PhaseParse, errors.KindInvalidExpression).
					Line(nameTok.Line).
					Detail("value of %s", nameTok.Value).
					Cause(err).
					Build()
			}
			value = &v
		}
		v, err := eb.Add(nameTok.Value, value)
		if err != nil {
			return nil, withLine(err, nameTok.Line)
		}
		scope.values[nameTok.Value] = v

		if sep, ok := p.s.Peek(); ok && !sep.Is(",") && !(braced && sep.Is("}")) {
			return nil, errors.Syntax(sep.Line, "expected ',' after enum constant %q, got %q", nameTok.Value, sep.Value)
		}
		p.optional(",")
	}
}

// collectExpression joins tokens up to the next ',' or closing '}'.
func (p *Parser) collectExpression(braced bool) (string, error) {
	var parts []string
	depth := 0
	for {
		t, ok := p.s.Peek()
		if !ok {
			break
		}
		if depth == 0 && (t.Is(",") || (braced && t.Is("}"))) {
			break
		}
		switch {
		case t.Is("("):
			depth++
		case t.Is(")"):
			depth--
		}
		p.s.Pop()
		parts = append(parts, t.Value)
	}
	if len(parts) == 0 {
		return "", errors.Syntax(p.s.Line(), "expected expression")
	}
	return strings.Join(parts, " "), nil
}
