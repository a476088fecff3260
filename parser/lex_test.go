package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.creack.net/casm/op"
)

func kinds(ts Tokens) []op.TokenType {
	var out []op.TokenType
	for _, t := range ts {
		out = append(out, t.Typ)
	}
	return out
}

func TestTokenizeLine(t *testing.T) {
	table := []struct {
		name string
		in   string
		want []op.TokenType
	}{
		{
			"load immediate",
			"LOAD R1, =8",
			[]op.TokenType{op.TokenLoad, op.TokenRegister, op.TokenComma, op.TokenEqual, op.TokenNumber},
		},
		{
			"indexed operand",
			"LOAD R3, [72, R1]",
			[]op.TokenType{op.TokenLoad, op.TokenRegister, op.TokenComma, op.TokenLBracket, op.TokenNumber, op.TokenComma, op.TokenRegister, op.TokenRBracket},
		},
		{
			"punctuation run",
			"5[]$=100=,10",
			[]op.TokenType{op.TokenNumber, op.TokenLBracket, op.TokenRBracket, op.TokenDollar, op.TokenEqual, op.TokenNumber, op.TokenEqual, op.TokenComma, op.TokenNumber},
		},
		{
			"label definition",
			"Label: BGEQ R1, R2, End",
			[]op.TokenType{op.TokenLabelRef, op.TokenColon, op.TokenBgeq, op.TokenRegister, op.TokenComma, op.TokenRegister, op.TokenComma, op.TokenLabelRef},
		},
		{
			"comment terminates",
			"ADD R1, R2 ; increments nothing",
			[]op.TokenType{op.TokenAdd, op.TokenRegister, op.TokenComma, op.TokenRegister},
		},
		{
			"comment only",
			"; full line comment",
			nil,
		},
		{
			"blank line",
			"   \t ",
			nil,
		},
		{
			"indirect and relative",
			"@R4 $R2",
			[]op.TokenType{op.TokenAt, op.TokenRegister, op.TokenDollar, op.TokenRegister},
		},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			tokens, err := TokenizeLine(tc.in)
			require.Nil(t, err)
			assert.Equal(t, tc.want, kinds(tokens))
		})
	}
}

func TestTokenizeLineLiterals(t *testing.T) {
	line := "LOAD R1, =28"
	tokens, err := TokenizeLine(line)
	require.Nil(t, err)
	require.Len(t, tokens, 5)

	assert.Equal(t, "LOAD", tokens[0].Literal)
	assert.Equal(t, "R1", tokens[1].Literal)
	assert.Equal(t, "28", tokens[4].Literal)
	// Literals are views into the line, at their source offsets.
	for _, tok := range tokens {
		assert.Equal(t, tok.Literal, line[tok.Pos:tok.Pos+len(tok.Literal)])
	}
}

func TestTokenizeLineUnexpectedChar(t *testing.T) {
	tokens, err := TokenizeLine("LOAD R1, #8")
	require.NotNil(t, err)
	assert.Nil(t, tokens)
	assert.Equal(t, op.LexUnexpectedChar, err.Kind)
	assert.Contains(t, err.Message, "column 10")
	assert.True(t, errors.Is(err, &op.Error{Kind: op.LexUnexpectedChar}))
}

func TestTokenizeLineTooManyTokens(t *testing.T) {
	_, err := TokenizeLine(strings.Repeat("1 ", op.MaxTokens+1))
	require.NotNil(t, err)
	assert.Equal(t, op.LexTooManyTokens, err.Kind)
}

func TestTokenizeKeywordStress(t *testing.T) {
	// One line mixing keywords with lookalike labels.
	line := "WRITE WRRITE STORE SUB STTORE SUBB BLEQ BLT BR"
	tokens, err := TokenizeLine(line)
	require.Nil(t, err)
	assert.Equal(t, []op.TokenType{
		op.TokenWrite, op.TokenLabelRef, op.TokenStore, op.TokenSub, op.TokenLabelRef,
		op.TokenLabelRef, op.TokenBleq, op.TokenBlt, op.TokenBr,
	}, kinds(tokens))
}
