package parser

import (
	"strings"

	"go.creack.net/casm/op"
)

// Preprocess visits every program line and harvests leading `LABEL:`
// definitions into a label table. Lines are not rewritten: the executor
// re-lexes each line and skips the leading label pair itself.
func Preprocess(lines []string, maxLabels int) (*LabelTable, *op.Error) {
	labels := NewLabelTable(maxLabels)
	for i, line := range lines {
		tokens, err := TokenizeLine(line)
		if err != nil {
			return nil, err
		}
		if len(tokens) < 2 || tokens[0].Typ != op.TokenLabelRef || tokens[1].Typ != op.TokenColon {
			continue
		}
		// Clone so the table does not pin the whole source line.
		if err := labels.add(strings.Clone(tokens[0].Literal), i); err != nil {
			return nil, err
		}
	}
	return labels, nil
}
