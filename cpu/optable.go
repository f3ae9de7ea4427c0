package cpu

import (
	"strconv"
)

// column is one addressing mode variant of an accumulator family.
type column struct {
	code   uint8
	length uint16
	src    operand
}

// sources lists the shared source operand columns at base+4 through
// base+0xF: #data, direct, @R0, @R1 and R0-R7.
func sources(base uint8) (cols []column) {
	cols = append(cols,
		column{base + 0x4, 2, opImm(1)},
		column{base + 0x5, 2, opDirect(1)},
		column{base + 0x6, 1, opInd},
		column{base + 0x7, 1, opInd},
	)
	for n := range uint8(8) {
		cols = append(cols, column{base + 0x8 + n, 1, opReg})
	}
	return
}

// logical installs ORL, ANL or XRL with a byte destination.
func (tb *tableBuilder) logical(base uint8, mnemonic string, fn func(a, b uint8) uint8) {
	combine := func(dst, src operand) func(cpu *Cpu) {
		return func(cpu *Cpu) {
			b := src.get(cpu)
			a := dst.get(cpu)
			dst.put(cpu, fn(a, b))
		}
	}

	dst := opDirect(1)
	tb.install(base+0x2, mnemonic, 2, dst.text+",A", combine(dst, opA))
	imm := opImm(2)
	tb.install(base+0x3, mnemonic, 3, dst.text+","+imm.text, combine(dst, imm))

	for _, col := range sources(base) {
		tb.install(col.code, mnemonic, col.length, "A,"+col.src.text, combine(opA, col.src))
	}
}

// additive installs ADD, ADDC or SUBB. The carry flag is passed to fn as
// the carry or borrow input.
func (tb *tableBuilder) additive(base uint8, mnemonic string, fn func(a, b uint8, carry bool) (uint8, Flags)) {
	for _, col := range sources(base) {
		src := col.src
		tb.install(col.code, mnemonic, col.length, "A,"+src.text, func(cpu *Cpu) {
			b := src.get(cpu)
			result, flags := fn(cpu.ACC.Get(), b, cpu.carry())
			cpu.ACC.Set(result)
			cpu.setFlags(flags)
		})
	}
}

// bitUnary installs CPL, CLR or SETB for a bit (base) and for C (base+1).
func (tb *tableBuilder) bitUnary(base uint8, mnemonic string, fn func(on bool) bool) {
	for n, dst := range []bitOperand{opBit(1), opC} {
		length := uint16(2 - n)
		tb.install(base+uint8(n), mnemonic, length, dst.text, func(cpu *Cpu) {
			dst.put(cpu, fn(dst.get(cpu)))
		})
	}
}

// step installs INC or DEC for A, direct, @Ri and Rn.
func (tb *tableBuilder) step(base uint8, mnemonic string, fn func(v uint8) uint8) {
	cols := sources(base)
	cols[0] = column{base + 0x4, 1, opA}
	for _, col := range cols {
		dst := col.src
		tb.install(col.code, mnemonic, col.length, dst.text, func(cpu *Cpu) {
			dst.put(cpu, fn(dst.get(cpu)))
		})
	}
}

func (tb *tableBuilder) mov(code uint8, length uint16, dst, src operand) {
	tb.install(code, "MOV", length, dst.text+","+src.text, func(cpu *Cpu) {
		dst.put(cpu, src.get(cpu))
	})
}

// moves installs the byte MOV family.
func (tb *tableBuilder) moves() {
	tb.mov(0x74, 2, opA, opImm(1))
	tb.mov(0xE5, 2, opA, opDirect(1))
	tb.mov(0xE6, 1, opA, opInd)
	tb.mov(0xE7, 1, opA, opInd)

	tb.mov(0x76, 2, opInd, opImm(1))
	tb.mov(0x77, 2, opInd, opImm(1))
	tb.mov(0xA6, 2, opInd, opDirect(1))
	tb.mov(0xA7, 2, opInd, opDirect(1))
	tb.mov(0xF6, 1, opInd, opA)
	tb.mov(0xF7, 1, opInd, opA)

	for n := range uint8(8) {
		tb.mov(0xE8+n, 1, opA, opReg)
		tb.mov(0x78+n, 2, opReg, opImm(1))
		tb.mov(0xA8+n, 2, opReg, opDirect(1))
		tb.mov(0xF8+n, 1, opReg, opA)
		tb.mov(0x88+n, 2, opDirect(1), opReg)
	}

	tb.mov(0x75, 3, opDirect(1), opImm(2))
	tb.mov(0x85, 3, opDirect(2), opDirect(1))
	tb.mov(0x86, 2, opDirect(1), opInd)
	tb.mov(0x87, 2, opDirect(1), opInd)
	tb.mov(0xF5, 2, opDirect(1), opA)

	tb.install(0x90, "MOV", 3, "DPTR,%W1", func(cpu *Cpu) {
		cpu.DPH.Set(cpu.arg(1))
		cpu.DPL.Set(cpu.arg(2))
	})
	tb.install(0x83, "MOVC", 1, "A,"+opCodePC.text, func(cpu *Cpu) {
		cpu.ACC.Set(opCodePC.get(cpu))
	})
	tb.install(0x93, "MOVC", 1, "A,"+opCodeDptr.text, func(cpu *Cpu) {
		cpu.ACC.Set(opCodeDptr.get(cpu))
	})

	movx := func(code uint8, dst, src operand) {
		tb.install(code, "MOVX", 1, dst.text+","+src.text, func(cpu *Cpu) {
			dst.put(cpu, src.get(cpu))
		})
	}
	movx(0xE0, opA, opXDptr)
	movx(0xE2, opA, opXInd)
	movx(0xE3, opA, opXInd)
	movx(0xF0, opXDptr, opA)
	movx(0xF2, opXInd, opA)
	movx(0xF3, opXInd, opA)
}

// compareBranch installs CJNE. C is set when the first operand is less
// than the second.
func (tb *tableBuilder) compareBranch() {
	cjne := func(code uint8, a, b operand) {
		tb.branch(code, "CJNE", 3, a.text+","+b.text+",%j2", func(cpu *Cpu) {
			x := a.get(cpu)
			y := b.get(cpu)
			cpu.setCarry(x < y)
			if x != y {
				cpu.PC = cpu.rel(2)
			}
		})
	}
	cjne(0xB4, opA, opImm(1))
	cjne(0xB5, opA, opDirect(1))
	cjne(0xB6, opInd, opImm(1))
	cjne(0xB7, opInd, opImm(1))
	for n := range uint8(8) {
		cjne(0xB8+n, opReg, opImm(1))
	}
}

// decrementBranch installs DJNZ.
func (tb *tableBuilder) decrementBranch() {
	djnz := func(code uint8, length uint16, dst operand) {
		tb.branch(code, "DJNZ", length, dst.text+",%j"+strconv.Itoa(int(length-1)), func(cpu *Cpu) {
			v := dst.get(cpu) - 1
			dst.put(cpu, v)
			if v != 0 {
				cpu.PC = cpu.rel(length - 1)
			}
		})
	}
	djnz(0xD5, 3, opDirect(1))
	for n := range uint8(8) {
		djnz(0xD8+n, 2, opReg)
	}
}

// bitLogic installs the carry bit operations.
func (tb *tableBuilder) bitLogic() {
	orl := func(c, b bool) bool { return c || b }
	anl := func(c, b bool) bool { return c && b }
	logic := func(code uint8, mnemonic string, src bitOperand, fn func(c, b bool) bool) {
		tb.install(code, mnemonic, 2, "C,"+src.text, func(cpu *Cpu) {
			b := src.get(cpu)
			cpu.setCarry(fn(cpu.carry(), b))
		})
	}
	logic(0x72, "ORL", opBit(1), orl)
	logic(0x82, "ANL", opBit(1), anl)
	logic(0xA0, "ORL", opNotBit(1), orl)
	logic(0xB0, "ANL", opNotBit(1), anl)

	bit := opBit(1)
	tb.install(0xA2, "MOV", 2, "C,"+bit.text, func(cpu *Cpu) {
		cpu.setCarry(bit.get(cpu))
	})
	tb.install(0x92, "MOV", 2, bit.text+",C", func(cpu *Cpu) {
		bit.put(cpu, cpu.carry())
	})
}

// jumps installs the jump and conditional branch instructions.
func (tb *tableBuilder) jumps() {
	for page := range uint8(8) {
		tb.branch(page<<5|0x01, "AJMP", 2, "%a1", func(cpu *Cpu) {
			cpu.PC = cpu.PC&0xF800 | uint16(page)<<8 | uint16(cpu.arg(1))
		})
	}

	tb.branch(0x02, "LJMP", 3, "%L1", func(cpu *Cpu) {
		cpu.PC = uint16(cpu.arg(1))<<8 | uint16(cpu.arg(2))
	})
	tb.branch(0x80, "SJMP", 2, "%j1", func(cpu *Cpu) {
		cpu.PC = cpu.rel(1)
	})
	tb.branch(0x73, "JMP", 1, "@A+DPTR", func(cpu *Cpu) {
		cpu.PC = uint16(cpu.ACC.Get()) + cpu.DPTR()
	})

	when := func(code uint8, mnemonic string, cond func(cpu *Cpu) bool) {
		tb.branch(code, mnemonic, 2, "%j1", func(cpu *Cpu) {
			if cond(cpu) {
				cpu.PC = cpu.rel(1)
			}
		})
	}
	when(0x40, "JC", func(cpu *Cpu) bool { return cpu.carry() })
	when(0x50, "JNC", func(cpu *Cpu) bool { return !cpu.carry() })
	when(0x60, "JZ", func(cpu *Cpu) bool { return cpu.ACC.Get() == 0 })
	when(0x70, "JNZ", func(cpu *Cpu) bool { return cpu.ACC.Get() != 0 })

	bit := opBit(1)
	tb.branch(0x20, "JB", 3, bit.text+",%j2", func(cpu *Cpu) {
		if bit.get(cpu) {
			cpu.PC = cpu.rel(2)
		}
	})
	tb.branch(0x30, "JNB", 3, bit.text+",%j2", func(cpu *Cpu) {
		if !bit.get(cpu) {
			cpu.PC = cpu.rel(2)
		}
	})
	tb.branch(0x10, "JBC", 3, bit.text+",%j2", func(cpu *Cpu) {
		if bit.get(cpu) {
			bit.put(cpu, false)
			cpu.PC = cpu.rel(2)
		}
	})
}

// calls installs subroutine call and return.
func (tb *tableBuilder) calls() {
	for page := range uint8(8) {
		tb.branch(page<<5|0x11, "ACALL", 2, "%a1", func(cpu *Cpu) {
			cpu.PushPC()
			cpu.PC = cpu.PC&0xF800 | uint16(page)<<8 | uint16(cpu.arg(1))
		})
	}

	tb.branch(0x12, "LCALL", 3, "%L1", func(cpu *Cpu) {
		cpu.PushPC()
		cpu.PC = uint16(cpu.arg(1))<<8 | uint16(cpu.arg(2))
	})
	tb.branch(0x22, "RET", 1, "", func(cpu *Cpu) {
		cpu.PopPC()
	})
	tb.branch(0x32, "RETI", 1, "", func(cpu *Cpu) {
		cpu.returnFromInterrupt()
		cpu.PopPC()
	})
}

// accumulator installs the rotates and the accumulator only operations.
func (tb *tableBuilder) accumulator() {
	tb.install(0x03, "RR", 1, "A", func(cpu *Cpu) {
		a := cpu.ACC.Get()
		cpu.ACC.Set(a>>1 | a<<7)
	})
	tb.install(0x23, "RL", 1, "A", func(cpu *Cpu) {
		a := cpu.ACC.Get()
		cpu.ACC.Set(a<<1 | a>>7)
	})
	tb.install(0x13, "RRC", 1, "A", func(cpu *Cpu) {
		a := cpu.ACC.Get()
		result := a >> 1
		if cpu.carry() {
			result |= 0x80
		}
		cpu.setCarry(a&0x01 != 0)
		cpu.ACC.Set(result)
	})
	tb.install(0x33, "RLC", 1, "A", func(cpu *Cpu) {
		a := cpu.ACC.Get()
		result := a << 1
		if cpu.carry() {
			result |= 0x01
		}
		cpu.setCarry(a&0x80 != 0)
		cpu.ACC.Set(result)
	})
	tb.install(0xC4, "SWAP", 1, "A", func(cpu *Cpu) {
		a := cpu.ACC.Get()
		cpu.ACC.Set(a<<4 | a>>4)
	})
	tb.install(0xE4, "CLR", 1, "A", func(cpu *Cpu) {
		cpu.ACC.Set(0)
	})
	tb.install(0xF4, "CPL", 1, "A", func(cpu *Cpu) {
		cpu.ACC.Set(^cpu.ACC.Get())
	})
	tb.install(0xD4, "DA", 1, "A", func(cpu *Cpu) {
		result, carry := DecimalAdjust(cpu.ACC.Get(), cpu.carry(), cpu.PSW.Flag(PSW_AC))
		cpu.ACC.Set(result)
		cpu.setCarry(carry)
	})
	tb.install(0xA4, "MUL", 1, "AB", func(cpu *Cpu) {
		lo, hi, ov := Mul(cpu.ACC.Get(), cpu.B.Get())
		cpu.ACC.Set(lo)
		cpu.B.Set(hi)
		cpu.setCarry(false)
		cpu.PSW.SetFlag(PSW_OV, ov)
	})
	tb.install(0x84, "DIV", 1, "AB", func(cpu *Cpu) {
		quotient, remainder, ov := Div(cpu.ACC.Get(), cpu.B.Get())
		cpu.ACC.Set(quotient)
		cpu.B.Set(remainder)
		cpu.setCarry(false)
		cpu.PSW.SetFlag(PSW_OV, ov)
	})
}

// exchanges installs XCH and XCHD.
func (tb *tableBuilder) exchanges() {
	cols := sources(0xC0)[1:]
	for _, col := range cols {
		src := col.src
		tb.install(col.code, "XCH", col.length, "A,"+src.text, func(cpu *Cpu) {
			v := src.get(cpu)
			src.put(cpu, cpu.ACC.Get())
			cpu.ACC.Set(v)
		})
	}
	for _, code := range []uint8{0xD6, 0xD7} {
		tb.install(code, "XCHD", 1, "A,"+opInd.text, func(cpu *Cpu) {
			v := opInd.get(cpu)
			a := cpu.ACC.Get()
			opInd.put(cpu, v&0xF0|a&0x0F)
			cpu.ACC.Set(a&0xF0 | v&0x0F)
		})
	}
}

// misc installs the stack operations, INC DPTR, NOP and the undefined
// opcode.
func (tb *tableBuilder) misc() {
	tb.install(0x00, "NOP", 1, "", func(cpu *Cpu) {})

	// 0xA5 is reserved by the architecture; it executes as a one byte NOP.
	tb.install(0xA5, "UNDEF", 1, "", func(cpu *Cpu) {})

	dir := opDirect(1)
	tb.install(0xC0, "PUSH", 2, dir.text, func(cpu *Cpu) {
		sp := cpu.SP.Get() + 1
		cpu.SP.Set(sp)
		cpu.Iram[sp] = dir.get(cpu)
	})
	tb.install(0xD0, "POP", 2, dir.text, func(cpu *Cpu) {
		v := cpu.Pop()
		dir.put(cpu, v)
	})
	tb.install(0xA3, "INC", 1, "DPTR", func(cpu *Cpu) {
		cpu.SetDPTR(cpu.DPTR() + 1)
	})
}
