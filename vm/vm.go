// Package vm implements the casm machine: registers, memory, storage,
// the instruction executor and the load/step/run driver.
package vm

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.creack.net/casm/op"
	"go.creack.net/casm/parser"
)

type Config struct {
	MemorySize    int // Words of program memory.
	StorageSize   int // Words of persistent storage.
	MaxLabels     int
	MaxLabelJumps int // Executed branches (taken or not) before the infinite loop guard trips.
}

func DefaultConfig() Config {
	return Config{
		MemorySize:    op.MemorySize,
		StorageSize:   op.StorageSize,
		MaxLabels:     op.MaxLabels,
		MaxLabelJumps: op.MaxLabelJumps,
	}
}

// Machine is a single casm interpreter instance. It owns all state and
// is strictly single threaded: no method may be called concurrently.
type Machine struct {
	Config Config

	// Registers[0] is the program counter, in word units.
	Registers [op.RegisterCount]int
	Memory    Ram
	Storage   Ram

	Labels        *parser.LabelTable
	LabelJumps    map[string]int // Executed branches per target label, taken or not.
	NumLabelJumps int
	Halted        bool

	lines []string // Loaded program, for diagnostics.
	err   *op.Error
	subs  []func(Event)
}

func New(cfg Config) *Machine {
	m := &Machine{Config: cfg}
	m.reset()
	return m
}

func (m *Machine) reset() {
	m.Registers = [op.RegisterCount]int{}
	m.Memory = NewRam(m.Config.MemorySize)
	m.Storage = NewRam(m.Config.StorageSize)
	m.Labels = parser.NewLabelTable(m.Config.MaxLabels)
	m.LabelJumps = make(map[string]int)
	m.NumLabelJumps = 0
	m.Halted = false
	m.lines = nil
	m.err = nil
}

// Load re-initializes the whole machine, preprocesses the program and
// installs its lines into memory cells 0..n-1.
func (m *Machine) Load(lines []string) error {
	m.reset()
	if len(lines) > m.Config.MemorySize {
		err := op.Errorf(op.AddrOutOfRange, "Program does not fit in memory: %d lines, %d cells", len(lines), m.Config.MemorySize)
		m.setError(err)
		return err
	}
	labels, err := parser.Preprocess(lines, m.Config.MaxLabels)
	if err != nil {
		m.setError(err)
		return fmt.Errorf("preprocess: %w", err)
	}
	m.Labels = labels
	m.lines = make([]string, len(lines))
	copy(m.lines, lines)
	for i, line := range m.lines {
		m.Memory[i] = Cell{Value: line, Valid: true}
	}
	return nil
}

// Step executes exactly one instruction. It returns false once the
// program halted or the error slot is set.
func (m *Machine) Step() bool {
	if m.err != nil || m.Halted {
		return false
	}

	// Fetch, then pre-increment the PC. Branches overwrite it again.
	pc := m.Registers[0]
	if pc < 0 || pc >= len(m.Memory) {
		m.setError(op.Errorf(op.AddrOutOfRange, "Program counter out of range: %d", pc))
		return false
	}
	cell := m.Memory[pc]
	if !cell.Valid {
		m.setError(op.Errorf(op.MemUninitialized, "Expected instruction but found garbage"))
		return false
	}
	m.setPC(pc + 1)

	tokens, lexErr := parser.TokenizeLine(cell.Value)
	if lexErr != nil {
		m.setError(lexErr)
		return false
	}

	// The preprocessor left label definitions in place; skip them here.
	sc := newScanner(m, tokens)
	if sc.peek().Typ == op.TokenLabelRef && len(tokens) > 1 && tokens[1].Typ == op.TokenColon {
		sc.advance()
		sc.advance()
	}

	m.execute(sc)

	return m.err == nil && !m.Halted
}

// Run repeats Step until the program halts or fails.
func (m *Machine) Run() error {
	for m.Step() {
	}
	if m.err != nil {
		return m.err
	}
	return nil
}

// Err returns the error descriptor, nil while the machine is healthy.
func (m *Machine) Err() *op.Error { return m.err }

// setError records a failure. First writer wins: once the slot is set,
// later messages are dropped.
func (m *Machine) setError(err *op.Error) {
	if m.err != nil {
		return
	}
	m.err = err
	m.emit(Event{Type: EventError, Index: -1, Message: err.Message})
}

func (m *Machine) failf(kind op.ErrorKind, format string, args ...any) {
	m.setError(op.Errorf(kind, format, args...))
}

// ErrorReport renders the user-facing diagnostic:
//
//	Error at address <pc*4> executing '<line>'
//	<message>
func (m *Machine) ErrorReport() string {
	if m.err == nil {
		return ""
	}
	pc := m.Registers[0] - 1 // The PC is pre-incremented at fetch.
	if pc < 0 {
		pc = 0
	}
	line := ""
	if pc < len(m.lines) {
		line = strings.TrimSpace(m.lines[pc])
	}
	return fmt.Sprintf("Error at address %d executing '%s'\n%s", pc*op.WordSize, line, m.err.Message)
}

// ----------------
// Setters
// ----------------
// Each setter commits the mutation first and then emits exactly one
// event. Failed mutations never reach a setter.

func (m *Machine) setRegister(index, value int) {
	old := m.Registers[index]
	m.Registers[index] = value
	m.emit(NewEvent(EventRegister, index, strconv.Itoa(old), strconv.Itoa(value)))
}

func (m *Machine) setPC(word int) {
	old := m.Registers[0]
	m.Registers[0] = word
	m.emit(NewEvent(EventPC, -1, strconv.Itoa(old), strconv.Itoa(word)))
}

func (m *Machine) setMemory(word int, value string) {
	old := m.Memory[word]
	m.Memory[word] = Cell{Value: value, Valid: true}
	m.emit(NewEvent(EventMemory, word, old.Value, value))
}

func (m *Machine) setStorage(word int, value string) {
	old := m.Storage[word]
	m.Storage[word] = Cell{Value: value, Valid: true}
	m.emit(NewEvent(EventStorage, word, old.Value, value))
}

func (m *Machine) halt() {
	m.Halted = true
	m.emit(Event{Type: EventHalt, Index: -1})
}

// ----------------
// Memory access
// ----------------

// wordIndex validates a byte address against a word array and converts
// it to a word index.
func wordIndex(addr, words int) (int, *op.Error) {
	if addr%op.WordSize != 0 {
		return 0, op.Errorf(op.AddrMisaligned, "Expected address to be a multiple of %d: %d", op.WordSize, addr)
	}
	if addr < 0 || addr/op.WordSize >= words {
		return 0, op.Errorf(op.AddrOutOfRange, "Address out of range: %d", addr)
	}
	return addr / op.WordSize, nil
}

// cellValue reads a cell as a decimal integer. Cells holding anything
// else (such as an instruction line) read as zero, matching atoi.
func cellValue(r Ram, addr int, what string) (int, *op.Error) {
	idx, err := wordIndex(addr, len(r))
	if err != nil {
		return 0, err
	}
	cell := r[idx]
	if !cell.Valid {
		return 0, op.Errorf(op.MemUninitialized, "Garbage contained at %s address: %d", what, addr)
	}
	n, _ := strconv.Atoi(strings.TrimSpace(cell.Value))
	return n, nil
}

// memoryValue dereferences a byte address in program memory, routing
// failures to the error slot.
func (m *Machine) memoryValue(addr int) int {
	if m.err != nil {
		return 0
	}
	n, err := cellValue(m.Memory, addr, "memory")
	if err != nil {
		m.setError(err)
		return 0
	}
	return n
}

// storageValue dereferences a byte address in storage.
func (m *Machine) storageValue(addr int) int {
	if m.err != nil {
		return 0
	}
	n, err := cellValue(m.Storage, addr, "storage")
	if err != nil {
		m.setError(err)
		return 0
	}
	return n
}

// ----------------
// Host accessors
// ----------------

// ReadMemory reads a memory cell as an integer without touching the
// error slot. For the host and tests.
func (m *Machine) ReadMemory(addr int) (int, error) {
	n, err := cellValue(m.Memory, addr, "memory")
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ReadStorage is ReadMemory for the storage array.
func (m *Machine) ReadStorage(addr int) (int, error) {
	n, err := cellValue(m.Storage, addr, "storage")
	if err != nil {
		return 0, err
	}
	return n, nil
}

// PokeMemory seeds a memory cell before a run. Bypasses the
// program-visible setters: no event is emitted.
func (m *Machine) PokeMemory(addr int, value string) error {
	idx, err := wordIndex(addr, len(m.Memory))
	if err != nil {
		return err
	}
	m.Memory[idx] = Cell{Value: value, Valid: true}
	return nil
}

// PokeStorage seeds a storage cell before a run.
func (m *Machine) PokeStorage(addr int, value string) error {
	idx, err := wordIndex(addr, len(m.Storage))
	if err != nil {
		return err
	}
	m.Storage[idx] = Cell{Value: value, Valid: true}
	return nil
}

// SetRegister seeds a general purpose register before a run. The PC is
// not user writable.
func (m *Machine) SetRegister(index, value int) error {
	if index < 1 || index >= op.RegisterCount {
		return op.Errorf(op.RegOutOfRange, "Register index out of range: R%d", index)
	}
	m.Registers[index] = value
	return nil
}

// Snapshot is a value copy of the inspectable machine state.
type Snapshot struct {
	PC        int
	Registers [op.RegisterCount]int
	Memory    Ram
	Storage   Ram
	Halted    bool
}

func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		PC:        m.Registers[0],
		Registers: m.Registers,
		Memory:    m.Memory.Copy(),
		Storage:   m.Storage.Copy(),
		Halted:    m.Halted,
	}
}

// Line returns the source line at a word index, for the viewers.
func (m *Machine) Line(word int) string {
	if word < 0 || word >= len(m.lines) {
		return ""
	}
	return m.lines[word]
}

// DumpRegisters writes the register file in the debug format.
func (m *Machine) DumpRegisters(w io.Writer) {
	fmt.Fprintf(w, "PC: %d\n", m.Registers[0])
	for i := 1; i < op.RegisterCount; i++ {
		fmt.Fprintf(w, "R%d: %d\n", i, m.Registers[i])
	}
}

// jumpBreakdown renders the per-label jump counts for the infinite loop
// diagnostic, most taken first.
func (m *Machine) jumpBreakdown() string {
	names := make([]string, 0, len(m.LabelJumps))
	for name := range m.LabelJumps {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if m.LabelJumps[names[i]] != m.LabelJumps[names[j]] {
			return m.LabelJumps[names[i]] > m.LabelJumps[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %d", name, m.LabelJumps[name]))
	}
	return strings.Join(parts, ", ")
}
