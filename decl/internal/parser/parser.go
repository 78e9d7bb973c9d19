package parser

import (
	stderrors "errors"
	"strings"

	"github.com/wippyai/cstruct/cexpr"
	"github.com/wippyai/cstruct/ctype"
	"github.com/wippyai/cstruct/decl/internal/token"
	"github.com/wippyai/cstruct/errors"
	"github.com/wippyai/cstruct/registry"
)

// Options controls how declarations are laid out and registered.
type Options struct {
	Name     string // tag for bare member lists and tagless definitions
	EnumSize int    // enum storage width when no type is given, 0 for default
	Order    ctype.ByteOrder
	Union    bool // bare member lists declare a union
	Register bool // register top-level definitions
}

var reserved = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "int": true, "long": true, "register": true, "return": true,
	"short": true, "signed": true, "sizeof": true, "static": true, "struct": true,
	"switch": true, "typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true,
}

var qualifiers = map[string]bool{"const": true, "volatile": true}

var baseKeywords = map[string]bool{
	"signed": true, "unsigned": true, "short": true, "long": true, "int": true,
	"char": true, "float": true, "double": true, "void": true,
}

type Parser struct {
	reg     *registry.Registry
	s       *token.Stream
	results []ctype.Type
	opts    Options
}

func New(reg *registry.Registry, tokens []token.Token, opts Options) *Parser {
	return &Parser{reg: reg, s: token.NewStream(tokens), opts: opts}
}

// Parse consumes the whole input and returns the top-level types in the
// order they were declared. Typedefs produce no result of their own.
func (p *Parser) Parse() ([]ctype.Type, error) {
	for p.s.Len() > 0 {
		t, _ := p.s.Peek()
		switch {
		case t.Is(";"):
			p.s.Pop()
		case t.Is("typedef"):
			if err := p.parseTypedef(); err != nil {
				return nil, err
			}
		case (t.Is("struct") || t.Is("union")) && p.isDefinition():
			if err := p.parseTopComposite(); err != nil {
				return nil, err
			}
		case t.Is("enum") && p.isDefinition():
			if err := p.parseTopEnum(); err != nil {
				return nil, err
			}
		default:
			if err := p.parseBareMembers(); err != nil {
				return nil, err
			}
		}
	}
	return p.results, nil
}

// ParseEnumList parses a bare "A, B = 2, C" constant list.
func (p *Parser) ParseEnumList(name string) (*ctype.Enum, error) {
	storage, err := p.defaultEnumStorage()
	if err != nil {
		return nil, err
	}
	e, err := p.parseEnumConstants(name, storage, false)
	if err != nil {
		return nil, err
	}
	if p.opts.Register && name != "" {
		if err := p.reg.RegisterEnum(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// isDefinition reports whether the struct/union/enum keyword at the front
// starts a body: "KW {", "KW TAG {" or "KW TAG : TYPE {".
func (p *Parser) isDefinition() bool {
	next, ok := p.s.PeekN(1)
	if !ok {
		return false
	}
	if next.Is("{") {
		return true
	}
	after, ok := p.s.PeekN(2)
	return ok && next.Type == token.Word && (after.Is("{") || after.Is(":"))
}

func (p *Parser) parseTopComposite() error {
	kw, _ := p.s.Pop()
	tag := p.optionalTag()
	if _, err := p.expect("{"); err != nil {
		return err
	}
	name := tag
	if name == "" {
		name = p.opts.Name
	}
	c, err := p.parseBody(name, kw.Value == "union", false)
	if err != nil {
		return err
	}
	p.optional(";")
	return p.emit(c)
}

func (p *Parser) parseTopEnum() error {
	p.s.Pop()
	tag := p.optionalTag()
	name := tag
	if name == "" {
		name = p.opts.Name
	}
	e, err := p.parseEnumDefinition(name, false)
	if err != nil {
		return err
	}
	p.optional(";")
	return p.emit(e)
}

func (p *Parser) parseBareMembers() error {
	c, err := p.parseBody(p.opts.Name, p.opts.Union, true)
	if err != nil {
		return err
	}
	return p.emit(c)
}

func (p *Parser) emit(t ctype.Type) error {
	if p.opts.Register {
		if err := p.register(t); err != nil {
			return err
		}
	}
	p.results = append(p.results, t)
	return nil
}

func (p *Parser) register(t ctype.Type) error {
	switch v := t.(type) {
	case *ctype.Composite:
		if v.Name() != "" {
			return p.reg.RegisterComposite(v)
		}
	case *ctype.Enum:
		if v.Name() != "" {
			return p.reg.RegisterEnum(v)
		}
	}
	return nil
}

// parseBody parses members up to the closing brace, or to end of input
// for bare member lists.
func (p *Parser) parseBody(name string, union, bare bool) (*ctype.Composite, error) {
	b := ctype.NewBuilder(name, union, p.opts.Order)
	for {
		t, ok := p.s.Peek()
		if !ok {
			if bare {
				return b.Build(), nil
			}
			return nil, errors.Syntax(p.s.Line(), "expected '}' to close %s", b.Build().String())
		}
		if t.Is("}") && !bare {
			p.s.Pop()
			return b.Build(), nil
		}
		if err := p.parseMember(b); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseMember(b *ctype.Builder) error {
	line := p.s.Line()
	sp, err := p.parseSpecifier()
	if err != nil {
		return err
	}

	if p.optional(";") {
		switch {
		case sp.inline && sp.ref != nil:
			_, err := b.Add(ctype.Field{
				Name:      b.NextAnonymousName(),
				Kind:      sp.kind,
				CType:     sp.ctype,
				Ref:       sp.ref,
				VLen:      1,
				Anonymous: true,
			})
			return withLine(err, line)
		case sp.inline:
			return nil
		}
		return errors.Syntax(line, "expected member name after %q", sp.ctype)
	}

	for {
		line = p.s.Line()
		stars := 0
		for p.optional("*") {
			stars++
		}
		nameTok, err := p.expectWord()
		if err != nil {
			return err
		}
		if err := checkName(b, nameTok); err != nil {
			return err
		}
		vlen, flexible, err := p.parseDimensions()
		if err != nil {
			return err
		}

		field := ctype.Field{Name: nameTok.Value, VLen: vlen, Flexible: flexible}
		switch {
		case stars > 0:
			field.Kind = ctype.FieldNative
			field.CType = ctype.PointerType
			field.Native, _ = ctype.LookupNative(ctype.PointerType, p.opts.Order)
		case sp.void:
			return withLine(errors.UnknownType(errors.PhaseParse, "void"), line)
		case sp.opaque != "":
			return withLine(errors.UnknownType(errors.PhaseParse, sp.opaque), line)
		default:
			field.Kind = sp.kind
			field.CType = sp.ctype
			field.Native = sp.native
			field.Ref = sp.ref
			field.Enum = sp.enum
		}
		if _, err := b.Add(field); err != nil {
			return withLine(err, line)
		}

		sep, err := p.pop()
		if err != nil {
			return err
		}
		switch {
		case sep.Is(","):
			continue
		case sep.Is(";"):
			return nil
		}
		return errors.Syntax(sep.Line, "expected ';' after member %q, got %q", nameTok.Value, sep.Value)
	}
}

func checkName(b *ctype.Builder, t token.Token) error {
	if reserved[t.Value] || strings.HasPrefix(t.Value, ctype.AnonymousPrefix) {
		return errors.New(errors.PhaseParse, errors.KindReservedName).
			Line(t.Line).
			Detail("reserved name %q", t.Value).
			Build()
	}
	if !isIdent(t.Value) {
		return errors.Syntax(t.Line, "invalid member name %q", t.Value)
	}
	if b.Has(t.Value) {
		return errors.New(errors.PhaseParse, errors.KindDuplicate).
			Line(t.Line).
			Detail("duplicate member %q", t.Value).
			Build()
	}
	return nil
}

// parseDimensions reads "[N]" suffixes. An empty bracket declares a
// flexible array and must be the only one; several sized brackets multiply.
func (p *Parser) parseDimensions() (vlen int, flexible bool, err error) {
	vlen = 1
	for i := 0; ; i++ {
		t, ok := p.s.Peek()
		if !ok || t.Type != token.Bracket {
			return vlen, flexible, nil
		}
		p.s.Pop()
		if flexible {
			return 0, false, errors.New(errors.PhaseParse, errors.KindFlexibleArray).
				Line(t.Line).
				Detail("flexible array with more than one dimension").
				Build()
		}
		if t.Value == "" {
			if i > 0 {
				return 0, false, errors.Syntax(t.Line, "only the first array dimension may be empty")
			}
			flexible = true
			vlen = 0
			continue
		}
		n, err := p.evalLength(t.Value, t.Line)
		if err != nil {
			return 0, false, err
		}
		vlen *= n
	}
}

func (p *Parser) evalLength(expr string, line int) (int, error) {
	n, err := cexpr.EvalInt(expr, p.reg)
	if err != nil {
		return 0, errors.New(errors.PhaseParse, errors.KindInvalidSize).
			Line(line).
			Detail("array length %q", expr).
			Cause(err).
			Build()
	}
	if n < 0 {
		return 0, errors.New(errors.PhaseParse, errors.KindInvalidSize).
			Line(line).
			Value(n).
			Detail("negative array length %q", expr).
			Build()
	}
	return int(n), nil
}

func (p *Parser) pop() (token.Token, error) {
	t, ok := p.s.Pop()
	if !ok {
		return t, errors.Syntax(p.s.Line(), "unexpected end of input")
	}
	return t, nil
}

func (p *Parser) expect(v string) (token.Token, error) {
	t, err := p.pop()
	if err != nil {
		return t, errors.Syntax(p.s.Line(), "expected %q, got end of input", v)
	}
	if !t.Is(v) {
		return t, errors.Syntax(t.Line, "expected %q, got %q", v, t.Value)
	}
	return t, nil
}

func (p *Parser) expectWord() (token.Token, error) {
	t, err := p.pop()
	if err != nil {
		return t, errors.Syntax(p.s.Line(), "expected name, got end of input")
	}
	if t.Type != token.Word {
		return t, errors.Syntax(t.Line, "expected name, got %q", t.Value)
	}
	return t, nil
}

// optional consumes the next token if it is v.
func (p *Parser) optional(v string) bool {
	if t, ok := p.s.Peek(); ok && t.Is(v) {
		p.s.Pop()
		return true
	}
	return false
}

// optionalTag consumes a tag name following struct/union/enum.
func (p *Parser) optionalTag() string {
	if t, ok := p.s.Peek(); ok && t.Type == token.Word {
		p.s.Pop()
		return t.Value
	}
	return ""
}

func (p *Parser) skipQualifiers() {
	for {
		t, ok := p.s.Peek()
		if !ok || !qualifiers[t.Value] {
			return
		}
		p.s.Pop()
	}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

// withLine attaches a source line to errors raised without one.
func withLine(err error, line int) error {
	if err == nil {
		return nil
	}
	var e *errors.Error
	if stderrors.As(err, &e) && e.Line == 0 {
		e.Line = line
	}
	return err
}
