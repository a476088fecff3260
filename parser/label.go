package parser

import "go.creack.net/casm/op"

// LabelTable maps label names to 0-based program line indices.
// Names are case sensitive. Bounded capacity.
type LabelTable struct {
	cap     int
	names   []string // Definition order.
	indices map[string]int
}

func NewLabelTable(capacity int) *LabelTable {
	return &LabelTable{
		cap:     capacity,
		indices: make(map[string]int, capacity),
	}
}

func (lt *LabelTable) add(name string, line int) *op.Error {
	if _, ok := lt.indices[name]; ok {
		return op.Errorf(op.PreprocessDuplicateLabel, "Duplicate label %q", name)
	}
	if len(lt.names) >= lt.cap {
		return op.Errorf(op.PreprocessTooManyLabels, "Too many labels (max %d)", lt.cap)
	}
	lt.names = append(lt.names, name)
	lt.indices[name] = line
	return nil
}

// Lookup returns the line index of a label.
func (lt *LabelTable) Lookup(name string) (int, bool) {
	line, ok := lt.indices[name]
	return line, ok
}

// Names returns the label names in definition order.
func (lt *LabelTable) Names() []string {
	out := make([]string, len(lt.names))
	copy(out, lt.names)
	return out
}

func (lt *LabelTable) Len() int { return len(lt.names) }
