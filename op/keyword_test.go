package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIdentifier(t *testing.T) {
	table := []struct {
		in   string
		want TokenType
	}{
		// Keywords, case insensitive.
		{"LOAD", TokenLoad},
		{"load", TokenLoad},
		{"LoAd", TokenLoad},
		{"STORE", TokenStore},
		{"READ", TokenRead},
		{"WRITE", TokenWrite},
		{"HALT", TokenHalt},
		{"halt", TokenHalt},
		{"ADD", TokenAdd},
		{"SUB", TokenSub},
		{"MUL", TokenMul},
		{"DIV", TokenDiv},
		{"INC", TokenInc},
		{"BR", TokenBr},
		{"BLT", TokenBlt},
		{"BGT", TokenBgt},
		{"BLEQ", TokenBleq},
		{"BGEQ", TokenBgeq},
		{"BEQ", TokenBeq},
		{"BNEQ", TokenBneq},

		// Registers.
		{"R1", TokenRegister},
		{"r5", TokenRegister},
		{"R0", TokenRegister},
		{"R9", TokenRegister},

		// Near misses are labels.
		{"WRRITE", TokenLabelRef},
		{"STTORE", TokenLabelRef},
		{"SUBB", TokenLabelRef},
		{"BLEQQ", TokenLabelRef},
		{"BLTT", TokenLabelRef},
		{"BRR", TokenLabelRef},
		{"BGEQQ", TokenLabelRef},
		{"B", TokenLabelRef},
		{"BG", TokenLabelRef},
		{"R10", TokenLabelRef},
		{"RX", TokenLabelRef},
		{"MULflub", TokenLabelRef},
		{"flub", TokenLabelRef},
		{"hi", TokenLabelRef},
		{"Label_2", TokenLabelRef},
	}

	for _, tc := range table {
		assert.Equal(t, tc.want, ClassifyIdentifier(tc.in), "identifier %q", tc.in)
	}
}

func TestTokenPredicates(t *testing.T) {
	assert.True(t, TokenLoad.IsInstruction())
	assert.True(t, TokenBneq.IsInstruction())
	assert.False(t, TokenLabelRef.IsInstruction())
	assert.False(t, TokenComma.IsInstruction())

	assert.True(t, TokenBlt.IsBranch())
	assert.True(t, TokenBneq.IsBranch())
	assert.False(t, TokenBr.IsBranch(), "BR is unconditional")
	assert.False(t, TokenLoad.IsBranch())
}
