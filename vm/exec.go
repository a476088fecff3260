package vm

import (
	"strconv"

	"go.creack.net/casm/op"
)

// execute dispatches on the instruction token and runs it. Every
// instruction must consume its whole token list.
func (m *Machine) execute(sc *scanner) {
	tok := sc.advance()
	switch tok.Typ {
	case op.TokenNone:
		// Blank or label-only line: a no-op that advances the PC.
		return
	case op.TokenLoad:
		m.execLoad(sc)
	case op.TokenStore:
		m.execStore(sc)
	case op.TokenRead:
		m.execRead(sc)
	case op.TokenWrite:
		m.execWrite(sc)
	case op.TokenHalt:
		m.halt()
	case op.TokenAdd, op.TokenSub, op.TokenMul, op.TokenDiv:
		m.execMath(tok.Typ, sc)
	case op.TokenInc:
		m.execInc(sc)
	case op.TokenBr:
		m.execBr(sc)
	case op.TokenBlt, op.TokenBgt, op.TokenBleq, op.TokenBgeq, op.TokenBeq, op.TokenBneq:
		m.execConditionalBranch(tok.Typ, sc)
	default:
		m.failf(op.ParseUnknownInstruction, "Unexpected token %s", tok.Typ)
	}
	if m.err == nil && !sc.atEnd() {
		m.failf(op.ParseTrailingTokens, "Too many tokens on this line")
	}
}

// LOAD Rx, <value>
func (m *Machine) execLoad(sc *scanner) {
	r := m.getRegister(sc)
	sc.consume(op.TokenComma)
	value := m.loadValue(sc)
	if m.err != nil {
		return
	}
	m.setRegister(r.index, value)
}

// STORE Rx, <address>
func (m *Machine) execStore(sc *scanner) {
	r := m.getRegister(sc)
	sc.consume(op.TokenComma)
	addr := m.storeAddress(sc)
	if m.err != nil {
		return
	}
	word, err := wordIndex(addr, len(m.Memory))
	if err != nil {
		m.setError(err)
		return
	}
	m.setMemory(word, strconv.Itoa(r.value))
}

// READ Rx, <value>
func (m *Machine) execRead(sc *scanner) {
	r := m.getRegister(sc)
	sc.consume(op.TokenComma)
	value := m.readValue(sc)
	if m.err != nil {
		return
	}
	m.setRegister(r.index, value)
}

// WRITE Rx, <address>
func (m *Machine) execWrite(sc *scanner) {
	r := m.getRegister(sc)
	sc.consume(op.TokenComma)
	addr := m.writeAddress(sc)
	if m.err != nil {
		return
	}
	word, err := wordIndex(addr, len(m.Storage))
	if err != nil {
		m.setError(err)
		return
	}
	m.setStorage(word, strconv.Itoa(r.value))
}

// ADD|SUB|MUL|DIV Rx, Ry
func (m *Machine) execMath(instruction op.TokenType, sc *scanner) {
	r1 := m.getRegister(sc)
	sc.consume(op.TokenComma)
	r2 := m.getRegister(sc)
	if m.err != nil {
		return
	}
	op1, op2 := r1.value, r2.value
	var result int
	switch instruction {
	case op.TokenAdd:
		result = op1 + op2
	case op.TokenSub:
		result = op1 - op2
	case op.TokenMul:
		result = op1 * op2
	case op.TokenDiv:
		if op2 == 0 {
			m.failf(op.DivByZero, "Division by zero")
			return
		}
		// The remainder lands in Ry before the quotient lands in Rx.
		m.setRegister(r2.index, op1%op2)
		result = op1 / op2
	}
	m.setRegister(r1.index, result)
}

// INC Rx
func (m *Machine) execInc(sc *scanner) {
	r := m.getRegister(sc)
	if m.err != nil {
		return
	}
	m.setRegister(r.index, r.value+1)
}

// BR label
func (m *Machine) execBr(sc *scanner) {
	target := sc.consume(op.TokenLabelRef)
	if m.err != nil {
		return
	}
	if line, ok := m.branchTarget(target.Literal); ok {
		m.setPC(line)
	}
}

// Bcc Rx, Ry, label
func (m *Machine) execConditionalBranch(instruction op.TokenType, sc *scanner) {
	r1 := m.getRegister(sc)
	sc.consume(op.TokenComma)
	r2 := m.getRegister(sc)
	sc.consume(op.TokenComma)
	target := sc.consume(op.TokenLabelRef)
	if m.err != nil {
		return
	}

	var taken bool
	switch instruction {
	case op.TokenBlt:
		taken = r1.value < r2.value
	case op.TokenBgt:
		taken = r1.value > r2.value
	case op.TokenBleq:
		taken = r1.value <= r2.value
	case op.TokenBgeq:
		taken = r1.value >= r2.value
	case op.TokenBeq:
		taken = r1.value == r2.value
	case op.TokenBneq:
		taken = r1.value != r2.value
	}
	line, ok := m.branchTarget(target.Literal)
	if ok && taken {
		m.setPC(line)
	}
}

// branchTarget resolves a branch label and counts the executed branch
// against the infinite loop guard. Every evaluated branch counts,
// taken or not.
func (m *Machine) branchTarget(label string) (int, bool) {
	line, ok := m.Labels.Lookup(label)
	if !ok {
		m.failf(op.UnknownLabel, "Unknown label %q", label)
		return 0, false
	}
	if m.NumLabelJumps >= m.Config.MaxLabelJumps {
		m.failf(op.PossibleInfiniteLoop, "Possible infinite loop: %d jumps taken (%s)", m.NumLabelJumps, m.jumpBreakdown())
		return 0, false
	}
	m.NumLabelJumps++
	m.LabelJumps[label]++
	return line, true
}
