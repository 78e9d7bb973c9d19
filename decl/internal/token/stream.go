package token

import "slices"

// Stream is a token queue with push-back.
type Stream struct {
	tokens []Token
	pos    int
	last   int
}

func NewStream(tokens []Token) *Stream {
	return &Stream{tokens: tokens}
}

// Len returns the number of tokens left.
func (s *Stream) Len() int {
	return len(s.tokens) - s.pos
}

// Peek returns the next token without consuming it.
func (s *Stream) Peek() (Token, bool) {
	return s.PeekN(0)
}

// PeekN returns the token n positions ahead.
func (s *Stream) PeekN(n int) (Token, bool) {
	if s.pos+n >= len(s.tokens) {
		return Token{}, false
	}
	return s.tokens[s.pos+n], true
}

// Pop consumes the next token.
func (s *Stream) Pop() (Token, bool) {
	if s.pos >= len(s.tokens) {
		return Token{}, false
	}
	t := s.tokens[s.pos]
	s.pos++
	s.last = t.Line
	return t, true
}

// Push returns a token to the front of the queue.
func (s *Stream) Push(t Token) {
	if s.pos > 0 && s.tokens[s.pos-1] == t {
		s.pos--
		return
	}
	s.tokens = slices.Insert(s.tokens, s.pos, t)
}

// Line returns the line of the next token, or of the last consumed one at
// end of input.
func (s *Stream) Line() int {
	if t, ok := s.Peek(); ok {
		return t.Line
	}
	return s.last
}
