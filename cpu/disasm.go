package cpu

import (
	"fmt"
	"strings"
)

// Address spaces passed to a Namer.
const (
	SPACE_CODE = 'c' // Program memory.
	SPACE_DATA = 'd' // Direct address space.
	SPACE_BIT  = 'b' // Bit address space.
)

// Namer supplies symbolic names for addresses. An empty result selects the
// default rendering.
type Namer interface {
	Name(space rune, addr uint16) string
}

// Disassemble renders the instruction at pc. The operand format of each
// opcode uses these verbs, with a trailing digit giving the operand byte
// offset where one is needed:
//
//	%dN  direct address
//	%#N  immediate byte
//	%WN  immediate word
//	%bN  bit
//	%nN  complemented bit
//	%jN  relative branch target
//	%aN  11-bit page address
//	%LN  16-bit address
//	%r   register Rn
//	%i   indirect register @Ri
func (cpu *Cpu) Disassemble(pc uint16, namer Namer) (text string, next uint16) {
	op := opcodes[cpu.Code[pc]]
	next = pc + op.Length

	arg := func(n byte) uint8 {
		return cpu.Code[pc+uint16(n-'0')]
	}

	var out strings.Builder
	format := op.Operands
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			out.WriteByte(c)
			continue
		}
		i++
		verb := format[i]
		switch verb {
		case 'r':
			fmt.Fprintf(&out, "R%d", op.Code&7)
			continue
		case 'i':
			fmt.Fprintf(&out, "@R%d", op.Code&1)
			continue
		}
		i++
		if i >= len(format) {
			break
		}
		n := format[i]
		switch verb {
		case 'd':
			out.WriteString(cpu.name(namer, SPACE_DATA, uint16(arg(n))))
		case '#':
			fmt.Fprintf(&out, "#%02XH", arg(n))
		case 'W':
			fmt.Fprintf(&out, "#%04XH", uint16(arg(n))<<8|uint16(arg(n+1)))
		case 'b':
			out.WriteString(cpu.name(namer, SPACE_BIT, uint16(arg(n))))
		case 'n':
			out.WriteString("/" + cpu.name(namer, SPACE_BIT, uint16(arg(n))))
		case 'j':
			target := next + uint16(int8(arg(n)))
			out.WriteString(cpu.name(namer, SPACE_CODE, target))
		case 'a':
			target := next&0xF800 | uint16(op.Code&0xE0)<<3 | uint16(arg(n))
			out.WriteString(cpu.name(namer, SPACE_CODE, target))
		case 'L':
			target := uint16(arg(n))<<8 | uint16(arg(n+1))
			out.WriteString(cpu.name(namer, SPACE_CODE, target))
		}
	}

	text = strings.TrimSpace(fmt.Sprintf("%-6s %s", op.Mnemonic, out.String()))
	return
}

// name renders an address, preferring the namer, then SFR names.
func (cpu *Cpu) name(namer Namer, space rune, addr uint16) string {
	if namer != nil {
		if text := namer.Name(space, addr); text != "" {
			return text
		}
	}

	switch space {
	case SPACE_DATA:
		if reg, ok := cpu.SFRAt(uint8(addr)); ok {
			return reg.Name
		}
		return fmt.Sprintf("%02XH", addr)
	case SPACE_BIT:
		if addr >= 0x80 {
			reg, _, shift := cpu.bitLocation(uint8(addr))
			if reg != nil {
				for _, bit := range reg.Bits {
					if bit.Shift == shift {
						return bit.Name
					}
				}
			}
		}
		return fmt.Sprintf("%02XH", addr)
	}
	return fmt.Sprintf("%04XH", addr)
}
