package parser

import (
	"strings"

	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/decl/internal/token"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/registry"
)

// spec is a parsed type specifier, resolved against the registry.
type spec struct {
	ref    *ctype.Composite
	enum   *ctype.Enum
	ctype  string
	native ctype.Native
	kind   ctype.FieldKind
	inline bool // body declared in place
	void   bool // only valid behind '*'
	// opaque names a type not yet known, only valid behind '*'
	opaque string
}

func (p *Parser) parseSpecifier() (spec, error) {
	p.skipQualifiers()
	t, err := p.pop()
	if err != nil {
		return spec{}, err
	}

	switch {
	case t.Is("struct"), t.Is("union"):
		return p.parseCompositeSpecifier(t.Value == "union")
	case t.Is("enum"):
		return p.parseEnumSpecifier()
	}

	p.s.Push(t)
	name, err := p.parseBaseName()
	if err != nil {
		return spec{}, err
	}
	if name == "void" {
		return spec{ctype: "void", void: true}, nil
	}
	return p.resolveNamed(name, t.Line)
}

func (p *Parser) parseCompositeSpecifier(union bool) (spec, error) {
	line := p.s.Line()
	tag := p.optionalTag()
	if p.optional("{") {
		c, err := p.parseBody(tag, union, false)
		if err != nil {
			return spec{}, err
		}
		if tag != "" {
			if err := p.reg.RegisterComposite(c); err != nil {
				return spec{}, err
			}
		}
		return compositeSpec(c, true), nil
	}
	if tag == "" {
		return spec{}, errors.Syntax(line, "expected tag or '{'")
	}
	c, ok := p.reg.Composite(tag)
	if !ok {
		name := "struct " + tag
		if union {
			name = "union " + tag
		}
		return p.pointee(name, line)
	}
	return compositeSpec(c, false), nil
}

func (p *Parser) parseEnumSpecifier() (spec, error) {
	line := p.s.Line()
	tag := p.optionalTag()
	if t, ok := p.s.Peek(); ok && (t.Is("{") || t.Is(":")) {
		e, err := p.parseEnumDefinition(tag, true)
		if err != nil {
			return spec{}, err
		}
		return p.enumSpec(e, true), nil
	}
	if tag == "" {
		return spec{}, errors.Syntax(line, "expected tag or '{'")
	}
	e, ok := p.reg.Enum(tag)
	if !ok {
		return p.pointee("enum "+tag, line)
	}
	return p.enumSpec(e, false), nil
}

func compositeSpec(c *ctype.Composite, inline bool) spec {
	kind := ctype.FieldStruct
	if c.IsUnion() {
		kind = ctype.FieldUnion
	}
	return spec{kind: kind, ctype: c.String(), ref: c, inline: inline}
}

func (p *Parser) enumSpec(e *ctype.Enum, inline bool) spec {
	storage, ok := ctype.LookupNative(e.Storage().Name, p.opts.Order)
	if !ok {
		storage = e.Storage()
	}
	return spec{kind: ctype.FieldEnum, ctype: e.String(), enum: e, native: storage, inline: inline}
}

// parseBaseName reads a native keyword sequence ("unsigned long long",
// "short int") or a single type name, without resolving typedefs.
func (p *Parser) parseBaseName() (string, error) {
	t, err := p.expectWord()
	if err != nil {
		return "", err
	}
	if !baseKeywords[t.Value] {
		return t.Value, nil
	}
	words := []string{t.Value}
	for {
		next, ok := p.s.Peek()
		if !ok || next.Type != token.Word || !baseKeywords[next.Value] {
			break
		}
		p.s.Pop()
		words = append(words, next.Value)
	}
	name, ok := canonicalBase(words)
	if !ok {
		return "", errors.Syntax(t.Line, "invalid type specifier %q", strings.Join(words, " "))
	}
	return name, nil
}

// canonicalBase maps any ordering of C base keywords to the native name.
func canonicalBase(words []string) (string, bool) {
	count := make(map[string]int, len(words))
	for _, w := range words {
		count[w]++
	}
	if count["signed"] > 0 && count["unsigned"] > 0 {
		return "", false
	}
	prefix := ""
	if count["unsigned"] > 0 {
		prefix = "unsigned "
	}
	exclusive := func(allowed ...string) bool {
		n := 0
		for _, w := range allowed {
			n += count[w]
		}
		return n == len(words)
	}

	switch {
	case count["void"] > 0:
		return "void", len(words) == 1
	case count["float"] > 0:
		return "float", len(words) == 1
	case count["double"] > 0:
		return "double", len(words) == 1
	case count["char"] == 1:
		if count["signed"] > 0 {
			prefix = "signed "
		}
		return prefix + "char", exclusive("char", "signed", "unsigned")
	case count["short"] == 1:
		return prefix + "short", exclusive("short", "int", "signed", "unsigned") && count["int"] <= 1
	case count["long"] == 2:
		return prefix + "long long", exclusive("long", "int", "signed", "unsigned") && count["int"] <= 1
	case count["long"] == 1:
		return prefix + "long", exclusive("long", "int", "signed", "unsigned") && count["int"] <= 1
	}
	return prefix + "int", exclusive("int", "signed", "unsigned") && count["int"] <= 1 &&
		count["signed"] <= 1 && count["unsigned"] <= 1
}

// resolveNamed resolves a type name through typedefs to a native scalar,
// a registered composite or a registered enum.
func (p *Parser) resolveNamed(name string, line int) (spec, error) {
	resolved := p.reg.Resolve(name)
	if registry.IsPointer(resolved) {
		n, _ := ctype.LookupNative(ctype.PointerType, p.opts.Order)
		return spec{kind: ctype.FieldNative, ctype: ctype.PointerType, native: n}, nil
	}
	kind, tag, _ := strings.Cut(resolved, " ")
	switch kind {
	case "struct", "union":
		if c, ok := p.reg.Composite(tag); ok {
			return compositeSpec(c, false), nil
		}
	case "enum":
		if e, ok := p.reg.Enum(tag); ok {
			return p.enumSpec(e, false), nil
		}
	default:
		if n, ok := ctype.LookupNative(resolved, p.opts.Order); ok {
			return spec{kind: ctype.FieldNative, ctype: resolved, native: n}, nil
		}
	}
	return p.pointee(name, line)
}

// pointee defers an unknown type when a pointer declarator follows, so
// self-referential and opaque pointers parse as plain pointers.
func (p *Parser) pointee(name string, line int) (spec, error) {
	if t, ok := p.s.Peek(); ok && t.Is("*") {
		return spec{ctype: name, opaque: name}, nil
	}
	return spec{}, withLine(errors.UnknownType(errors.PhaseParse, name), line)
}
