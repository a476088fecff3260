// Package parser turns casm source lines into tokens and harvests label
// definitions ahead of execution.
package parser

import (
	"fmt"
	"strings"

	"go.creack.net/casm/op"
)

// Token is a (kind, literal) pair. The literal is a slice of the source
// line, not a copy, and is valid only as long as the line is.
type Token struct {
	Typ     op.TokenType
	Literal string
	Pos     int // Byte offset of the literal within the line.
}

func (t Token) String() string {
	switch t.Typ {
	case op.TokenNone:
		return "NONE"
	case op.TokenLabelRef, op.TokenRegister, op.TokenNumber:
		return fmt.Sprintf("%s %q", t.Typ, t.Literal)
	default:
		return t.Typ.String()
	}
}

// Tokens is the ordered token list produced for exactly one source line.
type Tokens []Token

func (ts Tokens) String() string {
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, " ")
}

// lexer is a byte driven scanner with start/cur cursors over one line.
// A line ends at the terminating NUL-equivalent (end of string), a
// newline or a comment character.
type lexer struct {
	input  string
	start  int
	cur    int
	tokens Tokens
}

func (l *lexer) atEnd() bool {
	if l.cur >= len(l.input) {
		return true
	}
	c := l.input[l.cur]
	return c == '\n' || c == op.CommentChar
}

func (l *lexer) advance() byte {
	l.cur++
	return l.input[l.cur-1]
}

func (l *lexer) peek() byte {
	return l.input[l.cur]
}

func (l *lexer) addToken(tt op.TokenType) *op.Error {
	if len(l.tokens) >= op.MaxTokens {
		return op.Errorf(op.LexTooManyTokens, "Too many tokens on this line (max %d)", op.MaxTokens)
	}
	l.tokens = append(l.tokens, Token{
		Typ:     tt,
		Literal: l.input[l.start:l.cur],
		Pos:     l.start,
	})
	l.start = l.cur
	return nil
}

func (l *lexer) skipWhitespace() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.cur++
			l.start = l.cur
		default:
			return
		}
	}
}

func (l *lexer) scanNumber() *op.Error {
	for !l.atEnd() && isDigit(l.peek()) {
		l.advance()
	}
	return l.addToken(op.TokenNumber)
}

func (l *lexer) scanIdentifier() *op.Error {
	for !l.atEnd() {
		c := l.peek()
		if !isDigit(c) && !isAlpha(c) && c != '_' {
			break
		}
		l.advance()
	}
	return l.addToken(op.ClassifyIdentifier(l.input[l.start:l.cur]))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// TokenizeLine lexes a single source line. Tokens appear in source order
// and their literals point into the input string.
func TokenizeLine(line string) (Tokens, *op.Error) {
	l := &lexer{input: line}
	for {
		l.skipWhitespace()
		if l.atEnd() {
			return l.tokens, nil
		}
		var err *op.Error
		switch c := l.advance(); c {
		case '=':
			err = l.addToken(op.TokenEqual)
		case '[':
			err = l.addToken(op.TokenLBracket)
		case ']':
			err = l.addToken(op.TokenRBracket)
		case '@':
			err = l.addToken(op.TokenAt)
		case '$':
			err = l.addToken(op.TokenDollar)
		case ',':
			err = l.addToken(op.TokenComma)
		case ':':
			err = l.addToken(op.TokenColon)
		default:
			switch {
			case isDigit(c):
				err = l.scanNumber()
			case isAlpha(c):
				err = l.scanIdentifier()
			default:
				return nil, op.Errorf(op.LexUnexpectedChar, "Unexpected character %q at column %d", c, l.start+1)
			}
		}
		if err != nil {
			return nil, err
		}
	}
}
