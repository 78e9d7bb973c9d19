package token

import (
	"strings"
	"unicode"

	"github.com/wippyai/cstruct/errors"
)

type Type int

const (
	Word    Type = iota // identifiers, keywords, numbers, operator runs
	Punct               // ; { } : , = * ( )
	Bracket             // [expr], Value holds expr
)

func (t Type) String() string {
	switch t {
	case Word:
		return "word"
	case Punct:
		return "punctuation"
	case Bracket:
		return "array length"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
}

// Is reports whether the token is the punctuation or word v.
func (t Token) Is(v string) bool {
	return t.Type != Bracket && t.Value == v
}

// Define is an object-like macro found in the input.
type Define struct {
	Name string
	Expr string
	Line int
}

const punctuation = ";{}:,*()"

// Tokenize strips comments, hands every "#define NAME EXPR" line to
// define, and splits the remaining text into tokens.
func Tokenize(src string, define func(Define) error) ([]Token, error) {
	text, err := stripComments(src)
	if err != nil {
		return nil, err
	}

	var tokens []Token
	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			d, err := parseDirective(trimmed, lineNo)
			if err != nil {
				return nil, err
			}
			if define != nil {
				if err := define(d); err != nil {
					return nil, err
				}
			}
			continue
		}
		lineTokens, err := scanLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, lineTokens...)
	}
	return tokens, nil
}

// stripComments blanks out comments, keeping newlines so that line
// numbers survive.
func stripComments(src string) (string, error) {
	var b strings.Builder
	b.Grow(len(src))
	line := 1
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\n':
			line++
			b.WriteByte(c)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			i--
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			start := line
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return "", errors.Syntax(start, "unterminated comment")
			}
			comment := src[i : i+2+end+2]
			n := strings.Count(comment, "\n")
			line += n
			b.WriteByte(' ')
			b.WriteString(strings.Repeat("\n", n))
			i += len(comment) - 1
		case c == '\'':
			// char literals may hold '/' or '*'
			j := i + 1
			for j < len(src) && src[j] != '\'' && src[j] != '\n' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) || src[j] != '\'' {
				b.WriteByte(c)
				continue
			}
			b.WriteString(src[i : j+1])
			i = j
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// parseDirective accepts only "#define NAME EXPR".
func parseDirective(line string, lineNo int) (Define, error) {
	rest := strings.TrimSpace(line[1:])
	directive, rest, _ := strings.Cut(rest, " ")
	if i := strings.IndexFunc(directive, unicode.IsSpace); i >= 0 {
		directive, rest = directive[:i], directive[i:]+" "+rest
	}
	if directive != "define" {
		return Define{}, errors.Syntax(lineNo, "unsupported preprocessor directive %q", line)
	}
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	name, expr := rest, ""
	if end >= 0 {
		name, expr = rest[:end], rest[end:]
	}
	if !isIdent(name) {
		return Define{}, errors.Syntax(lineNo, "invalid macro name in %q", line)
	}
	if strings.HasPrefix(expr, "(") {
		return Define{}, errors.Syntax(lineNo, "function-like macro %q is not supported", name)
	}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Define{}, errors.Syntax(lineNo, "macro %q has no value", name)
	}
	return Define{Name: name, Expr: expr, Line: lineNo}, nil
}

func scanLine(line string, lineNo int) ([]Token, error) {
	var tokens []Token
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, Token{Value: word.String(), Type: Word, Line: lineNo})
			word.Reset()
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			flush()
		case c == '[':
			flush()
			depth, j := 1, i+1
			for ; j < len(line) && depth > 0; j++ {
				switch line[j] {
				case '[':
					depth++
				case ']':
					depth--
				}
			}
			if depth > 0 {
				return nil, errors.Syntax(lineNo, "unterminated '['")
			}
			tokens = append(tokens, Token{Value: strings.TrimSpace(line[i+1 : j-1]), Type: Bracket, Line: lineNo})
			i = j - 1
		case c == ']':
			return nil, errors.Syntax(lineNo, "unexpected ']'")
		case c == '=' && isComparison(line, i, word.String()):
			word.WriteByte(c)
		case c == '=' || strings.IndexByte(punctuation, c) >= 0:
			flush()
			tokens = append(tokens, Token{Value: string(c), Type: Punct, Line: lineNo})
		default:
			word.WriteByte(c)
		}
	}
	flush()
	return tokens, nil
}

// isComparison reports whether the '=' at line[i] belongs to ==, !=, <= or >=.
func isComparison(line string, i int, word string) bool {
	if i+1 < len(line) && line[i+1] == '=' {
		return true
	}
	if word == "" {
		return false
	}
	return strings.IndexByte("<>!=", word[len(word)-1]) >= 0
}
