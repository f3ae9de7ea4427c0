package cpu

import (
	"errors"
)

// Opcode describes one entry of the dispatch table.
type Opcode struct {
	Code     uint8
	Mnemonic string
	Length   uint16 // Instruction length in bytes.
	Operands string // Disassembly format, see Disassemble.
	Branch   bool   // Control transfer; PC is not simply advanced.

	exec func(cpu *Cpu)
}

// Table maps every opcode byte to its descriptor.
type Table [256]*Opcode

// opcodes is the shared dispatch table. It is never modified after init.
var opcodes = mustBuildTable()

func mustBuildTable() *Table {
	table, err := BuildTable()
	if err != nil {
		panic(err)
	}
	return table
}

// Lookup returns the descriptor for an opcode byte.
func Lookup(code uint8) *Opcode {
	return opcodes[code]
}

// tableBuilder collects opcode installs and checks the table for holes and
// collisions when done.
type tableBuilder struct {
	table Table
	errs  []error
}

func (tb *tableBuilder) install(code uint8, mnemonic string, length uint16, operands string, exec func(cpu *Cpu)) (op *Opcode) {
	op = &Opcode{
		Code:     code,
		Mnemonic: mnemonic,
		Length:   length,
		Operands: operands,
		exec:     exec,
	}
	if prior := tb.table[code]; prior != nil {
		tb.errs = append(tb.errs, ErrOpcodeDuplicate{
			Opcode:   code,
			Mnemonic: mnemonic,
			Existing: prior.Mnemonic,
		})
		return
	}
	tb.table[code] = op
	return
}

// branch installs a control transfer instruction.
func (tb *tableBuilder) branch(code uint8, mnemonic string, length uint16, operands string, exec func(cpu *Cpu)) {
	tb.install(code, mnemonic, length, operands, exec).Branch = true
}

func (tb *tableBuilder) build() (table *Table, err error) {
	for code, op := range tb.table {
		if op == nil {
			tb.errs = append(tb.errs, ErrOpcodeMissing(code))
		}
	}
	if len(tb.errs) != 0 {
		err = errors.Join(tb.errs...)
		return
	}
	table = &tb.table
	return
}

// BuildTable assembles the 256 entry dispatch table from the instruction
// families. Any unfilled or doubly filled opcode is reported.
func BuildTable() (table *Table, err error) {
	tb := &tableBuilder{}

	tb.logical(0x40, "ORL", func(a, b uint8) uint8 { return a | b })
	tb.logical(0x50, "ANL", func(a, b uint8) uint8 { return a & b })
	tb.logical(0x60, "XRL", func(a, b uint8) uint8 { return a ^ b })

	tb.additive(0x20, "ADD", func(a, b uint8, _ bool) (uint8, Flags) { return Add(a, b, false) })
	tb.additive(0x30, "ADDC", Add)
	tb.additive(0x90, "SUBB", Subb)

	tb.bitUnary(0xB2, "CPL", func(on bool) bool { return !on })
	tb.bitUnary(0xC2, "CLR", func(bool) bool { return false })
	tb.bitUnary(0xD2, "SETB", func(bool) bool { return true })

	tb.step(0x00, "INC", func(v uint8) uint8 { return v + 1 })
	tb.step(0x10, "DEC", func(v uint8) uint8 { return v - 1 })

	tb.moves()
	tb.compareBranch()
	tb.decrementBranch()
	tb.bitLogic()
	tb.jumps()
	tb.calls()
	tb.accumulator()
	tb.exchanges()
	tb.misc()

	table, err = tb.build()
	return
}
