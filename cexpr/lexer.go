package cexpr

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/wippyai/cstruct/errors"
)

type tokenType int

const (
	tokNumber tokenType = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

func (t tokenType) String() string {
	switch t {
	case tokNumber:
		return "number"
	case tokIdent:
		return "identifier"
	case tokOp:
		return "operator"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokEOF:
		return "end of expression"
	}
	return "unknown"
}

type token struct {
	value string
	num   Number
	typ   tokenType
}

// Operators, longest first so that "<<" wins over "<".
var operators = []string{
	"<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"+", "-", "*", "/", "%", "&", "|", "^", "!", "~", "<", ">",
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	s := expr
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			break
		}
		c := s[0]
		switch {
		case c == '(':
			tokens = append(tokens, token{typ: tokLParen, value: "("})
			s = s[1:]
		case c == ')':
			tokens = append(tokens, token{typ: tokRParen, value: ")"})
			s = s[1:]
		case c == '\'':
			v, n, err := charLiteral(expr, s)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{typ: tokNumber, value: s[:n], num: Int(v)})
			s = s[n:]
		case isDigit(c) || (c == '.' && len(s) > 1 && isDigit(s[1])):
			n := scanNumber(s)
			num, err := parseNumber(s[:n])
			if err != nil {
				return nil, errors.InvalidExpression(expr, "invalid number %q", s[:n])
			}
			tokens = append(tokens, token{typ: tokNumber, value: s[:n], num: num})
			s = s[n:]
		case isIdentStart(c):
			n := 1
			for n < len(s) && isIdentPart(s[n]) {
				n++
			}
			tokens = append(tokens, token{typ: tokIdent, value: s[:n]})
			s = s[n:]
		default:
			op := ""
			for _, candidate := range operators {
				if strings.HasPrefix(s, candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				return nil, errors.InvalidExpression(expr, "unexpected character %q", c)
			}
			tokens = append(tokens, token{typ: tokOp, value: op})
			s = s[len(op):]
		}
	}
	return append(tokens, token{typ: tokEOF}), nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || unicode.IsLetter(rune(c)) }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

func scanNumber(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		switch {
		case isIdentPart(c) || c == '.':
			n++
		case (c == '+' || c == '-') && n > 0 && (s[n-1] == 'e' || s[n-1] == 'E') && !isHex(s[:n]):
			n++
		default:
			return n
		}
	}
	return n
}

func isHex(s string) bool {
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// parseNumber accepts C integer literals (decimal, 0x hex, 0 octal, 0b
// binary, u/l suffixes) and floating literals (f/l suffixes).
func parseNumber(lit string) (Number, error) {
	lower := strings.ToLower(lit)
	if !isHex(lower) && strings.ContainsAny(lower, ".e") {
		v, err := strconv.ParseFloat(strings.TrimRight(lower, "fl"), 64)
		if err != nil {
			return Number{}, err
		}
		return Float(v), nil
	}
	digits := strings.TrimRight(lower, "ul")
	base := 10
	switch {
	case strings.HasPrefix(digits, "0x"):
		base, digits = 16, digits[2:]
	case strings.HasPrefix(digits, "0b"):
		base, digits = 2, digits[2:]
	case len(digits) > 1 && digits[0] == '0':
		base, digits = 8, digits[1:]
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return Number{}, err
	}
	return Int(int64(u)), nil
}

var simpleEscapes = map[byte]int64{
	'n': '\n', 't': '\t', 'r': '\r', '0': 0, 'a': '\a', 'b': '\b',
	'f': '\f', 'v': '\v', '\\': '\\', '\'': '\'', '"': '"', '?': '?',
}

// charLiteral decodes a quoted character at the start of s and returns its
// ordinal and the consumed length.
func charLiteral(expr, s string) (int64, int, error) {
	end := 1
	for end < len(s) && s[end] != '\'' {
		if s[end] == '\\' {
			end++
		}
		end++
	}
	if end >= len(s) {
		return 0, 0, errors.InvalidExpression(expr, "unterminated character literal")
	}
	body := s[1:end]
	switch {
	case len(body) == 1:
		return int64(body[0]), end + 1, nil
	case len(body) == 2 && body[0] == '\\':
		if v, ok := simpleEscapes[body[1]]; ok {
			return v, end + 1, nil
		}
	case len(body) > 2 && body[0] == '\\' && body[1] == 'x':
		if v, err := strconv.ParseUint(body[2:], 16, 8); err == nil {
			return int64(v), end + 1, nil
		}
	case len(body) > 1 && body[0] == '\\':
		if v, err := strconv.ParseUint(body[1:], 8, 8); err == nil {
			return int64(v), end + 1, nil
		}
	}
	return 0, 0, errors.InvalidExpression(expr, "invalid character literal %q", s[:end+1])
}
