package parser

import (
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/decl/internal/token"
	"github.com/wippyai/cstruct/errors"
)

// parseTypedef handles "typedef TYPE [*]ALIAS[, ...];" including inline
// struct, union and enum bodies. A tagless inline body takes the first
// alias as its tag.
func (p *Parser) parseTypedef() error {
	p.s.Pop()
	p.skipQualifiers()
	t, err := p.pop()
	if err != nil {
		return err
	}

	var target string
	var inline ctype.Type
	switch {
	case t.Is("struct"), t.Is("union"), t.Is("enum"):
		tag := p.optionalTag()
		next, ok := p.s.Peek()
		if ok && (next.Is("{") || (t.Is("enum") && next.Is(":"))) {
			inline, err = p.parseTypedefBody(t.Value, tag)
			if err != nil {
				return err
			}
			target = inline.String()
		} else {
			if tag == "" {
				return errors.Syntax(t.Line, "expected tag after %q", t.Value)
			}
			target = t.Value + " " + tag
		}
	default:
		p.s.Push(t)
		target, err = p.parseBaseName()
		if err != nil {
			return err
		}
	}

	first := true
	for {
		pointer := false
		for p.optional("*") {
			pointer = true
		}
		alias, err := p.expectWord()
		if err != nil {
			return err
		}
		if reserved[alias.Value] || !isIdent(alias.Value) {
			return errors.New(errors.PhaseParse, errors.KindReservedName).
				Line(alias.Line).
				Detail("invalid typedef name %q", alias.Value).
				Build()
		}
		if next, ok := p.s.Peek(); ok && next.Type == token.Bracket {
			return errors.Unsupported(errors.PhaseParse, "array typedef "+alias.Value)
		}

		if first && inline != nil {
			named, err := p.nameInline(inline, alias.Value)
			if err != nil {
				return err
			}
			target = named.String()
		}
		first = false

		if pointer {
			p.reg.Typedef(ctype.PointerType, alias.Value)
		} else {
			p.reg.Typedef(target, alias.Value)
		}

		sep, err := p.pop()
		if err != nil {
			return err
		}
		if sep.Is(";") {
			return nil
		}
		if !sep.Is(",") {
			return errors.Syntax(sep.Line, "expected ';' after typedef %q, got %q", alias.Value, sep.Value)
		}
	}
}

func (p *Parser) parseTypedefBody(kw, tag string) (ctype.Type, error) {
	if kw == "enum" {
		e, err := p.parseEnumDefinition(tag, true)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	p.s.Pop() // '{'
	c, err := p.parseBody(tag, kw == "union", false)
	if err != nil {
		return nil, err
	}
	if tag != "" {
		if err := p.reg.RegisterComposite(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// nameInline gives a tagless inline body the alias as its tag and
// registers it.
func (p *Parser) nameInline(t ctype.Type, alias string) (ctype.Type, error) {
	switch v := t.(type) {
	case *ctype.Composite:
		if v.Name() != "" {
			return v, nil
		}
		named := v.Named(alias)
		return named, p.reg.RegisterComposite(named)
	case *ctype.Enum:
		if v.Name() != "" {
			return v, nil
		}
		named := v.Named(alias)
		return named, p.reg.RegisterEnum(named)
	}
	return t, nil
}
