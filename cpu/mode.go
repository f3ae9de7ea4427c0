package cpu

import (
	"fmt"
)

// operand binds a byte addressing mode to an instruction. The text is the
// disassembly format of the operand.
type operand struct {
	text string
	get  func(cpu *Cpu) uint8
	put  func(cpu *Cpu, value uint8)
}

// bitOperand binds a bit addressing mode to an instruction.
type bitOperand struct {
	text string
	get  func(cpu *Cpu) bool
	put  func(cpu *Cpu, on bool)
}

// arg returns the instruction byte at offset n from the opcode.
func (cpu *Cpu) arg(n uint16) uint8 {
	return cpu.fetch(cpu.OpAddr + n)
}

// rel returns the branch target for the displacement at offset n.
func (cpu *Cpu) rel(n uint16) uint16 {
	return cpu.PC + uint16(int8(cpu.arg(n)))
}

// Direct reads the direct address space: internal RAM below 0x80, SFRs
// above. Undeclared SFR addresses read as 0.
func (cpu *Cpu) Direct(addr uint8) uint8 {
	if addr < SFR_BASE {
		return cpu.Iram[addr]
	}
	reg := cpu.sfr[addr-SFR_BASE]
	switch {
	case reg == nil:
		return 0
	case reg.hook != nil:
		return reg.hook.ReadSFR(reg)
	}
	return reg.value
}

// SetDirect writes the direct address space. Writes to undeclared SFR
// addresses are dropped.
func (cpu *Cpu) SetDirect(addr uint8, value uint8) {
	if addr < SFR_BASE {
		cpu.Iram[addr] = value
		return
	}
	reg := cpu.sfr[addr-SFR_BASE]
	switch {
	case reg == nil:
	case reg.hook != nil:
		reg.hook.WriteSFR(reg, value)
	default:
		reg.Set(value)
	}
}

// bitLocation resolves a bit number to its register and shift.
func (cpu *Cpu) bitLocation(bn uint8) (reg *Register, addr uint8, shift uint8) {
	shift = bn & 7
	if bn < 0x80 {
		addr = BIT_BASE + bn>>3
		return
	}
	addr = bn & 0xF8
	reg = cpu.sfr[addr-SFR_BASE]
	return
}

// GetBit reads a bit from the bit addressable space.
func (cpu *Cpu) GetBit(bn uint8) bool {
	reg, addr, shift := cpu.bitLocation(bn)
	if bn < 0x80 {
		return cpu.Iram[addr]&(1<<shift) != 0
	}
	if reg == nil {
		return false
	}
	return reg.Flag(shift)
}

// PutBit writes a bit of the bit addressable space.
func (cpu *Cpu) PutBit(bn uint8, on bool) {
	reg, addr, shift := cpu.bitLocation(bn)
	if bn < 0x80 {
		if on {
			cpu.Iram[addr] |= 1 << shift
		} else {
			cpu.Iram[addr] &^= 1 << shift
		}
		return
	}
	if reg != nil {
		reg.SetFlag(shift, on)
	}
}

func (cpu *Cpu) carry() bool {
	return cpu.PSW.Flag(PSW_CY)
}

func (cpu *Cpu) setCarry(on bool) {
	cpu.PSW.SetFlag(PSW_CY, on)
}

// setFlags stores the arithmetic flags in PSW.
func (cpu *Cpu) setFlags(flags Flags) {
	cpu.PSW.SetFlag(PSW_CY, flags.CY)
	cpu.PSW.SetFlag(PSW_AC, flags.AC)
	cpu.PSW.SetFlag(PSW_OV, flags.OV)
}

var opA = operand{
	text: "A",
	get:  func(cpu *Cpu) uint8 { return cpu.ACC.Get() },
	put:  func(cpu *Cpu, value uint8) { cpu.ACC.Set(value) },
}

// opReg is Rn, selected by the low three opcode bits.
var opReg = operand{
	text: "%r",
	get:  func(cpu *Cpu) uint8 { return cpu.Iram[cpu.bank()+cpu.Opcode&7] },
	put:  func(cpu *Cpu, value uint8) { cpu.Iram[cpu.bank()+cpu.Opcode&7] = value },
}

// ri returns the pointer held in R0 or R1, selected by the low opcode bit.
func (cpu *Cpu) ri() uint8 {
	return cpu.Iram[cpu.bank()+cpu.Opcode&1]
}

// opInd is @Ri into internal RAM, upper 128 bytes included.
var opInd = operand{
	text: "%i",
	get:  func(cpu *Cpu) uint8 { return cpu.Iram[cpu.ri()] },
	put:  func(cpu *Cpu, value uint8) { cpu.Iram[cpu.ri()] = value },
}

// opXInd is @Ri into external RAM, paged by P2.
var opXInd = operand{
	text: "%i",
	get: func(cpu *Cpu) uint8 {
		return cpu.Xram[uint16(cpu.P2.Get())<<8|uint16(cpu.ri())]
	},
	put: func(cpu *Cpu, value uint8) {
		cpu.Xram[uint16(cpu.P2.Get())<<8|uint16(cpu.ri())] = value
	},
}

var opXDptr = operand{
	text: "@DPTR",
	get:  func(cpu *Cpu) uint8 { return cpu.Xram[cpu.DPTR()] },
	put:  func(cpu *Cpu, value uint8) { cpu.Xram[cpu.DPTR()] = value },
}

// opCodePC reads code at A+PC, PC already advanced past the instruction.
var opCodePC = operand{
	text: "@A+PC",
	get: func(cpu *Cpu) uint8 {
		return cpu.fetch(uint16(cpu.ACC.Get()) + cpu.PC)
	},
}

var opCodeDptr = operand{
	text: "@A+DPTR",
	get: func(cpu *Cpu) uint8 {
		return cpu.fetch(uint16(cpu.ACC.Get()) + cpu.DPTR())
	},
}

func opImm(n uint16) operand {
	return operand{
		text: fmt.Sprintf("%%#%d", n),
		get:  func(cpu *Cpu) uint8 { return cpu.arg(n) },
	}
}

func opDirect(n uint16) operand {
	return operand{
		text: fmt.Sprintf("%%d%d", n),
		get:  func(cpu *Cpu) uint8 { return cpu.Direct(cpu.arg(n)) },
		put:  func(cpu *Cpu, value uint8) { cpu.SetDirect(cpu.arg(n), value) },
	}
}

var opC = bitOperand{
	text: "C",
	get:  (*Cpu).carry,
	put:  (*Cpu).setCarry,
}

func opBit(n uint16) bitOperand {
	return bitOperand{
		text: fmt.Sprintf("%%b%d", n),
		get:  func(cpu *Cpu) bool { return cpu.GetBit(cpu.arg(n)) },
		put:  func(cpu *Cpu, on bool) { cpu.PutBit(cpu.arg(n), on) },
	}
}

func opNotBit(n uint16) bitOperand {
	return bitOperand{
		text: fmt.Sprintf("%%n%d", n),
		get:  func(cpu *Cpu) bool { return !cpu.GetBit(cpu.arg(n)) },
	}
}
