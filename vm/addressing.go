package vm

import (
	"strconv"

	"go.creack.net/casm/op"
)

// Addressing resolution. Each context-aware entry point dispatches on
// the operand's leading token and accepts only the modes legal there.
//
//	loadValue:    direct, immediate, indexed, indirect, relative
//	storeAddress: direct, indexed, relative
//	readValue:    direct, indexed (both against storage)
//	writeAddress: direct, indexed

// operandMode maps an operand's leading token to its addressing mode.
func operandMode(tt op.TokenType) (op.AddressMode, bool) {
	switch tt {
	case op.TokenRegister:
		return op.AddrDirect, true
	case op.TokenEqual:
		return op.AddrImmediate, true
	case op.TokenLBracket:
		return op.AddrIndexed, true
	case op.TokenAt:
		return op.AddrIndirect, true
	case op.TokenDollar:
		return op.AddrRelative, true
	default:
		return 0, false
	}
}

// illegalMode raises AddrIllegalMode, naming the mode when the operand
// at least starts like one.
func (m *Machine) illegalMode(tt op.TokenType, context string) {
	if mode, ok := operandMode(tt); ok {
		m.failf(op.AddrIllegalMode, "The %s mode is not legal in a %s operand", mode, context)
		return
	}
	m.failf(op.AddrIllegalMode, "Unexpected token %s in %s operand", tt, context)
}

// registerRef is a register operand captured at parse time:
// R5 with registers[5] == 7 yields {index: 5, value: 7}.
type registerRef struct {
	index int
	value int
}

// getRegister consumes a register token. Only R1..R9 are legal in
// operand position; the PC is addressed implicitly.
func (m *Machine) getRegister(sc *scanner) registerRef {
	tok := sc.consume(op.TokenRegister)
	if m.err != nil {
		return registerRef{}
	}
	index := int(tok.Literal[1] - '0')
	if index == 0 {
		m.failf(op.RegOutOfRange, "Register R0 is the program counter and cannot be named")
		return registerRef{}
	}
	return registerRef{index: index, value: m.Registers[index]}
}

// getNumber consumes a number token and parses it.
func (m *Machine) getNumber(sc *scanner) int {
	tok := sc.consume(op.TokenNumber)
	if m.err != nil {
		return 0
	}
	n, _ := strconv.Atoi(tok.Literal)
	return n
}

// indexedAddress parses `[k, Rn]` and yields the byte address k + Rn.
func (m *Machine) indexedAddress(sc *scanner) int {
	sc.consume(op.TokenLBracket)
	base := m.getNumber(sc)
	sc.consume(op.TokenComma)
	r := m.getRegister(sc)
	sc.consume(op.TokenRBracket)
	if m.err != nil {
		return 0
	}
	return base + r.value
}

// relativeAddress parses `$Rn` and yields the byte address of the
// currently executing instruction plus Rn. The PC was pre-incremented
// at fetch, hence the -1.
func (m *Machine) relativeAddress(sc *scanner) int {
	sc.advance() // '$'.
	r := m.getRegister(sc)
	if m.err != nil {
		return 0
	}
	pc := (m.Registers[0] - 1) * op.WordSize
	return pc + r.value
}

// loadValue resolves a LOAD source operand to a value.
func (m *Machine) loadValue(sc *scanner) int {
	switch tok := sc.peek(); tok.Typ {
	case op.TokenRegister:
		return m.getRegister(sc).value
	case op.TokenEqual:
		sc.advance()
		return m.getNumber(sc)
	case op.TokenLBracket:
		return m.memoryValue(m.indexedAddress(sc))
	case op.TokenAt:
		sc.advance()
		r := m.getRegister(sc)
		if m.err != nil {
			return 0
		}
		return m.memoryValue(r.value)
	case op.TokenDollar:
		return m.memoryValue(m.relativeAddress(sc))
	default:
		m.illegalMode(tok.Typ, "value")
		return 0
	}
}

// storeAddress resolves a STORE target operand to a memory byte address.
func (m *Machine) storeAddress(sc *scanner) int {
	switch tok := sc.peek(); tok.Typ {
	case op.TokenRegister:
		return m.getRegister(sc).value
	case op.TokenLBracket:
		return m.indexedAddress(sc)
	case op.TokenDollar:
		return m.relativeAddress(sc)
	default:
		m.illegalMode(tok.Typ, "memory address")
		return 0
	}
}

// readValue resolves a READ source operand to a value from storage.
func (m *Machine) readValue(sc *scanner) int {
	switch tok := sc.peek(); tok.Typ {
	case op.TokenRegister:
		r := m.getRegister(sc)
		if m.err != nil {
			return 0
		}
		return m.storageValue(r.value)
	case op.TokenLBracket:
		return m.storageValue(m.indexedAddress(sc))
	default:
		m.illegalMode(tok.Typ, "storage value")
		return 0
	}
}

// writeAddress resolves a WRITE target operand to a storage byte address.
func (m *Machine) writeAddress(sc *scanner) int {
	switch tok := sc.peek(); tok.Typ {
	case op.TokenRegister:
		return m.getRegister(sc).value
	case op.TokenLBracket:
		return m.indexedAddress(sc)
	default:
		m.illegalMode(tok.Typ, "storage address")
		return 0
	}
}
