package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapNamer map[uint16]string

func (n mapNamer) Name(space rune, addr uint16) string {
	if space != SPACE_CODE {
		return ""
	}
	return n[addr]
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	table := [...]struct {
		pc   uint16
		code []uint8
		text string
	}{
		{0x0000, []uint8{0x00}, "NOP"},
		{0x0000, []uint8{0x22}, "RET"},
		{0x0000, []uint8{0x75, 0x81, 0x30}, "MOV    SP,#30H"},
		{0x0000, []uint8{0x02, 0x12, 0x34}, "LJMP   1234H"},
		{0x0100, []uint8{0x80, 0xFE}, "SJMP   0100H"},
		{0x0000, []uint8{0xD2, 0xAF}, "SETB   EA"},
		{0x0000, []uint8{0xC2, 0x07}, "CLR    07H"},
		{0x0000, []uint8{0xB0, 0xD7}, "ANL    C,/CY"},
		{0x0000, []uint8{0xE6}, "MOV    A,@R0"},
		{0x0000, []uint8{0xF9}, "MOV    R1,A"},
		{0x0800, []uint8{0x11, 0x23}, "ACALL  0823H"},
		{0x07FF, []uint8{0xE1, 0x00}, "AJMP   0F00H"},
		{0x0000, []uint8{0x85, 0x10, 0x20}, "MOV    20H,10H"},
		{0x0000, []uint8{0x90, 0xAB, 0xCD}, "MOV    DPTR,#ABCDH"},
		{0x0010, []uint8{0xB4, 0x0D, 0x03}, "CJNE   A,#0DH,0016H"},
		{0x0010, []uint8{0xDA, 0xFE}, "DJNZ   R2,0010H"},
		{0x0000, []uint8{0x20, 0xE7, 0x00}, "JB     ACC.7,0003H"},
		{0x0000, []uint8{0xE3}, "MOVX   A,@R1"},
		{0x0000, []uint8{0x93}, "MOVC   A,@A+DPTR"},
		{0x0000, []uint8{0xA4}, "MUL    AB"},
		{0x0000, []uint8{0xF5, 0x99}, "MOV    SBUF,A"},
		{0x0000, []uint8{0xA5}, "UNDEF"},
	}

	for _, entry := range table {
		cpu := NewCpu()
		copy(cpu.Code[entry.pc:], entry.code)
		text, next := cpu.Disassemble(entry.pc, nil)
		assert.Equal(entry.text, text)
		assert.Equal(entry.pc+uint16(len(entry.code)), next, entry.text)
	}
}

func TestDisassemble_Namer(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	copy(cpu.Code[:], []uint8{0x12, 0x01, 0x00, 0x02, 0x02, 0x00})

	namer := mapNamer{0x0100: "PUTCHAR"}
	text, next := cpu.Disassemble(0, namer)
	assert.Equal("LCALL  PUTCHAR", text)
	assert.Equal(uint16(3), next)

	text, _ = cpu.Disassemble(next, namer)
	assert.Equal("LJMP   0200H", text)
}
