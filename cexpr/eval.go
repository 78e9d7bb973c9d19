package cexpr

import (
	"math"
	"strings"

	"github.com/wippyai/cstruct/errors"
)

// Resolver supplies the values of identifiers and sizeof operands.
type Resolver interface {
	// Constant returns the value of a named constant.
	Constant(name string) (Number, bool)
	// Sizeof returns the size in bytes of a type name such as "long",
	// "struct X" or a typedef.
	Sizeof(typeName string) (int, error)
}

// Eval evaluates a C constant expression. r may be nil when the expression
// references no identifiers.
func Eval(expr string, r Resolver) (Number, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return Number{}, err
	}
	if len(tokens) == 1 {
		return Number{}, errors.InvalidExpression(expr, "empty expression")
	}
	p := &parser{expr: expr, tokens: tokens, resolver: r}
	n, err := p.parseBinary(0)
	if err != nil {
		return Number{}, err
	}
	if t := p.peek(); t.typ != tokEOF {
		return Number{}, errors.InvalidExpression(expr, "unexpected %q", t.value)
	}
	return n, nil
}

// EvalInt evaluates expr and requires an integral result.
func EvalInt(expr string, r Resolver) (int64, error) {
	n, err := Eval(expr, r)
	if err != nil {
		return 0, err
	}
	if !n.IsIntegral() {
		return 0, errors.InvalidExpression(expr, "non-integral result %s", n)
	}
	return n.Int64(), nil
}

// Binary operator precedence levels, lowest first.
var levels = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<", ">", "<=", ">="},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func levelOf(op string) int {
	for i, ops := range levels {
		for _, o := range ops {
			if o == op {
				return i
			}
		}
	}
	return -1
}

func isComparison(level int) bool {
	return level == 5 || level == 6
}

type parser struct {
	resolver Resolver
	expr     string
	tokens   []token
	pos      int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(typ tokenType) (token, error) {
	t := p.next()
	if t.typ != typ {
		return t, errors.InvalidExpression(p.expr, "expected %v, got %q", typ, t.value)
	}
	return t, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return errors.InvalidExpression(p.expr, format, args...)
}

// parseBinary parses operators at level and above. Comparison operators
// chain as conjunctions: a < b < c is (a < b) && (b < c).
func (p *parser) parseBinary(level int) (Number, error) {
	if level >= len(levels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return Number{}, err
	}
	chained := true
	for {
		t := p.peek()
		if t.typ != tokOp || levelOf(t.value) != level {
			break
		}
		p.next()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return Number{}, err
		}
		if isComparison(level) {
			ok, err := p.compare(t.value, left, right)
			if err != nil {
				return Number{}, err
			}
			chained = chained && ok
			left = right
			if p.peek().typ != tokOp || levelOf(p.peek().value) != level {
				return Bool(chained), nil
			}
			continue
		}
		left, err = p.apply(t.value, left, right)
		if err != nil {
			return Number{}, err
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (Number, error) {
	t := p.peek()
	if t.typ == tokOp {
		switch t.value {
		case "-", "+", "!", "~":
			p.next()
			v, err := p.parseUnary()
			if err != nil {
				return Number{}, err
			}
			switch t.value {
			case "-":
				if v.float {
					return Float(-v.f), nil
				}
				return Int(-v.i), nil
			case "+":
				return v, nil
			case "!":
				return Bool(!v.Truthy()), nil
			default:
				if v.float {
					return Number{}, p.errorf("bitwise not on float %s", v)
				}
				return Int(^v.i), nil
			}
		}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Number, error) {
	t := p.next()
	switch t.typ {
	case tokNumber:
		return t.num, nil
	case tokLParen:
		v, err := p.parseBinary(0)
		if err != nil {
			return Number{}, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return Number{}, err
		}
		return v, nil
	case tokIdent:
		if t.value == "sizeof" {
			return p.parseSizeof()
		}
		if p.resolver != nil {
			if v, ok := p.resolver.Constant(t.value); ok {
				return v, nil
			}
		}
		return Number{}, errors.Unresolved(t.value)
	case tokEOF:
		return Number{}, p.errorf("unexpected end of expression")
	}
	return Number{}, p.errorf("unexpected %q", t.value)
}

// parseSizeof handles sizeof(TYPE) where TYPE may span several words
// ("unsigned long long", "struct X") and end in '*'.
func (p *parser) parseSizeof() (Number, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return Number{}, err
	}
	var words []string
	for {
		t := p.next()
		switch {
		case t.typ == tokRParen:
			if len(words) == 0 {
				return Number{}, p.errorf("sizeof requires a type")
			}
			if p.resolver == nil {
				return Number{}, errors.Unresolved(strings.Join(words, " "))
			}
			name := strings.Join(words, " ")
			size, err := p.resolver.Sizeof(name)
			if err != nil {
				return Number{}, errors.Wrap(errors.PhaseEval, errors.KindUnresolved, err, "sizeof("+name+")")
			}
			return Int(int64(size)), nil
		case t.typ == tokIdent:
			words = append(words, t.value)
		case t.typ == tokOp && t.value == "*":
			words = append(words, "*")
		default:
			return Number{}, p.errorf("unexpected %q in sizeof", t.value)
		}
	}
}

func (p *parser) compare(op string, a, b Number) (bool, error) {
	if a.float || b.float {
		x, y := a.Float64(), b.Float64()
		switch op {
		case "==":
			return x == y, nil
		case "!=":
			return x != y, nil
		case "<":
			return x < y, nil
		case ">":
			return x > y, nil
		case "<=":
			return x <= y, nil
		case ">=":
			return x >= y, nil
		}
	} else {
		x, y := a.i, b.i
		switch op {
		case "==":
			return x == y, nil
		case "!=":
			return x != y, nil
		case "<":
			return x < y, nil
		case ">":
			return x > y, nil
		case "<=":
			return x <= y, nil
		case ">=":
			return x >= y, nil
		}
	}
	return false, p.errorf("unknown operator %q", op)
}

func (p *parser) apply(op string, a, b Number) (Number, error) {
	switch op {
	case "&&":
		return Bool(a.Truthy() && b.Truthy()), nil
	case "||":
		return Bool(a.Truthy() || b.Truthy()), nil
	}

	if a.float || b.float {
		x, y := a.Float64(), b.Float64()
		switch op {
		case "+":
			return Float(x + y), nil
		case "-":
			return Float(x - y), nil
		case "*":
			return Float(x * y), nil
		case "/":
			if y == 0 {
				return Number{}, p.divisionByZero()
			}
			return Float(x / y), nil
		case "%":
			if y == 0 {
				return Number{}, p.divisionByZero()
			}
			return Float(math.Mod(x, y)), nil
		}
		return Number{}, p.errorf("operator %q requires integer operands", op)
	}

	x, y := a.i, b.i
	switch op {
	case "+":
		return Int(x + y), nil
	case "-":
		return Int(x - y), nil
	case "*":
		return Int(x * y), nil
	case "/":
		if y == 0 {
			return Number{}, p.divisionByZero()
		}
		return Int(x / y), nil
	case "%":
		if y == 0 {
			return Number{}, p.divisionByZero()
		}
		return Int(x % y), nil
	case "&":
		return Int(x & y), nil
	case "|":
		return Int(x | y), nil
	case "^":
		return Int(x ^ y), nil
	case "<<", ">>":
		if y < 0 {
			return Number{}, p.errorf("negative shift count %d", y)
		}
		if op == "<<" {
			return Int(x << uint64(y)), nil
		}
		return Int(x >> uint64(y)), nil
	}
	return Number{}, p.errorf("unknown operator %q", op)
}

func (p *parser) divisionByZero() error {
	return errors.New(errors.PhaseEval, errors.KindDivisionByZero).
		Value(p.expr).
		Detail("division by zero").
		Build()
}
