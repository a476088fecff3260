package vm

import (
	"go.creack.net/casm/op"
	"go.creack.net/casm/parser"
)

// scanner is a cursor with one-token lookahead over a lexed line. The
// checking helpers short-circuit once the machine error slot is set,
// returning the zero token so callers can fall through without nil
// checks. No operation allocates.
type scanner struct {
	m    *Machine
	toks parser.Tokens
	cur  int
}

func newScanner(m *Machine, toks parser.Tokens) *scanner {
	return &scanner{m: m, toks: toks}
}

func (s *scanner) atEnd() bool {
	return s.cur >= len(s.toks)
}

func (s *scanner) peek() parser.Token {
	if s.atEnd() {
		return parser.Token{}
	}
	return s.toks[s.cur]
}

func (s *scanner) advance() parser.Token {
	tok := s.peek()
	if !s.atEnd() {
		s.cur++
	}
	return tok
}

func (s *scanner) prev() parser.Token {
	if s.cur == 0 {
		return parser.Token{}
	}
	return s.toks[s.cur-1]
}

// check returns the next token without advancing if it has the wanted
// kind, raising ParseExpectedToken and returning the zero token otherwise.
func (s *scanner) check(tt op.TokenType) parser.Token {
	if s.m.err != nil {
		return parser.Token{}
	}
	tok := s.peek()
	if tok.Typ != tt {
		s.m.failf(op.ParseExpectedToken, "Expected %s but found %s", tt, tok.Typ)
		return parser.Token{}
	}
	return tok
}

// consume is check plus advance.
func (s *scanner) consume(tt op.TokenType) parser.Token {
	if s.m.err != nil {
		return parser.Token{}
	}
	tok := s.advance()
	if tok.Typ != tt {
		s.m.failf(op.ParseExpectedToken, "Expected %s but found %s", tt, tok.Typ)
		return parser.Token{}
	}
	return tok
}
