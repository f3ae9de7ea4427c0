package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// run places code at pc and executes one instruction there.
func run(cpu *Cpu, pc uint16, code ...uint8) {
	for n, b := range code {
		cpu.Code[pc+uint16(n)] = b
	}
	cpu.Step(pc)
}

func TestSJMP(t *testing.T) {
	assert := assert.New(t)

	table := [...]struct {
		pc     uint16
		rel    uint8
		target uint16
	}{
		{0x8765, 0xF0, 0x8757},
		{0xFFFE, 0x01, 0x0001},
		{0xFFF0, 0x03, 0xFFF5},
		{0x0000, 0xFE, 0x0000},
		{0x1000, 0x7F, 0x1081},
		{0x1000, 0x80, 0x0F82},
	}

	for _, entry := range table {
		cpu := NewCpu()
		run(cpu, entry.pc, 0x80, entry.rel)
		assert.Equal(entry.target, cpu.PC, "%04x+%02x", entry.pc, entry.rel)
	}
}

func TestAJMP_ACALL(t *testing.T) {
	assert := assert.New(t)

	for page := range uint16(8) {
		for block := range uint16(8) {
			origin := block<<11 | 0x0123
			next := origin + 2
			target := next&0xF800 | page<<8 | 0x45
			name := fmt.Sprintf("page %d block %d", page, block)

			cpu := NewCpu()
			run(cpu, origin, uint8(page<<5|0x01), 0x45)
			assert.Equal(target, cpu.PC, name)
			assert.Equal(uint8(0x07), cpu.SP.Get(), name)

			cpu = NewCpu()
			run(cpu, origin, uint8(page<<5|0x11), 0x45)
			assert.Equal(target, cpu.PC, name)
			assert.Equal(uint8(0x09), cpu.SP.Get(), name)
			assert.Equal(uint8(next), cpu.Iram[0x08], name)
			assert.Equal(uint8(next>>8), cpu.Iram[0x09], name)
		}
	}
}

func TestLCALL_RET(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.SP.Set(0x30)
	run(cpu, 0x1234, 0x12, 0x56, 0x78)
	assert.Equal(uint16(0x5678), cpu.PC)
	assert.Equal(uint8(0x32), cpu.SP.Get())
	assert.Equal(uint8(0x37), cpu.Iram[0x31])
	assert.Equal(uint8(0x12), cpu.Iram[0x32])

	run(cpu, 0x5678, 0x22)
	assert.Equal(uint16(0x1237), cpu.PC)
	assert.Equal(uint8(0x30), cpu.SP.Get())
}

func TestLJMP(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	run(cpu, 0xFFFD, 0x02, 0xAB, 0xCD)
	assert.Equal(uint16(0xABCD), cpu.PC)
}

func TestJMP_Indirect(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.ACC.Set(0xFF)
	cpu.SetDPTR(0xFF55)
	run(cpu, 0x0400, 0x73)
	assert.Equal(uint16(0x0054), cpu.PC)
}

func TestMOVC(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Code[0x0048] = 0x5A
	cpu.ACC.Set(0xF3)
	cpu.SetDPTR(0xFF55)
	run(cpu, 0x0400, 0x93)
	assert.Equal(uint8(0x5A), cpu.ACC.Get())
	assert.Equal(uint16(0x0401), cpu.PC)

	cpu.Code[0x1011] = 0xA5
	cpu.ACC.Set(0x10)
	run(cpu, 0x1000, 0x83)
	assert.Equal(uint8(0xA5), cpu.ACC.Get())
}

func TestMOVX(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.SetDPTR(0x1234)
	cpu.ACC.Set(0x77)
	run(cpu, 0, 0xF0)
	assert.Equal(uint8(0x77), cpu.Xram[0x1234])

	cpu.P2.Set(0x12)
	cpu.SetR(1, 0x34)
	cpu.ACC.Set(0)
	run(cpu, 0, 0xE3)
	assert.Equal(uint8(0x77), cpu.ACC.Get())

	cpu.ACC.Set(0x99)
	cpu.SetR(0, 0x35)
	run(cpu, 0, 0xF2)
	assert.Equal(uint8(0x99), cpu.Xram[0x1235])

	cpu.Xram[0x1234] = 0x42
	run(cpu, 0, 0xE0)
	assert.Equal(uint8(0x42), cpu.ACC.Get())
}

func TestCJNE(t *testing.T) {
	assert := assert.New(t)

	table := [...]struct {
		x, y  uint8
		carry bool
	}{
		{0x10, 0x20, true},
		{0x20, 0x10, false},
		{0x33, 0x33, false},
		{0x00, 0xFF, true},
		{0xFF, 0x00, false},
	}

	for _, entry := range table {
		name := fmt.Sprintf("%02x,%02x", entry.x, entry.y)
		target := uint16(0x0103)
		if entry.x != entry.y {
			target += 0x10
		}

		cpu := NewCpu()
		cpu.ACC.Set(entry.x)
		run(cpu, 0x0100, 0xB4, entry.y, 0x10)
		assert.Equal(entry.carry, cpu.PSW.Flag(PSW_CY), name)
		assert.Equal(target, cpu.PC, name)

		cpu = NewCpu()
		cpu.SetR(6, entry.x)
		run(cpu, 0x0100, 0xBE, entry.y, 0x10)
		assert.Equal(entry.carry, cpu.PSW.Flag(PSW_CY), name)
		assert.Equal(target, cpu.PC, name)

		cpu = NewCpu()
		cpu.ACC.Set(entry.x)
		cpu.Iram[0x40] = entry.y
		run(cpu, 0x0100, 0xB5, 0x40, 0x10)
		assert.Equal(entry.carry, cpu.PSW.Flag(PSW_CY), name)
		assert.Equal(target, cpu.PC, name)

		cpu = NewCpu()
		cpu.SetR(1, 0x50)
		cpu.Iram[0x50] = entry.x
		run(cpu, 0x0100, 0xB7, entry.y, 0x10)
		assert.Equal(entry.carry, cpu.PSW.Flag(PSW_CY), name)
		assert.Equal(target, cpu.PC, name)
	}
}

func TestDJNZ(t *testing.T) {
	assert := assert.New(t)

	table := [...]struct {
		value  uint8
		result uint8
		jump   bool
	}{
		{0x01, 0x00, false},
		{0x00, 0xFF, true},
		{0x02, 0x01, true},
		{0x80, 0x7F, true},
	}

	for _, entry := range table {
		cpu := NewCpu()
		cpu.SetR(2, entry.value)
		run(cpu, 0x0200, 0xDA, 0xFE)
		assert.Equal(entry.result, cpu.R(2))
		if entry.jump {
			assert.Equal(uint16(0x0200), cpu.PC)
		} else {
			assert.Equal(uint16(0x0202), cpu.PC)
		}

		cpu = NewCpu()
		cpu.Iram[0x30] = entry.value
		run(cpu, 0x0200, 0xD5, 0x30, 0x05)
		assert.Equal(entry.result, cpu.Iram[0x30])
		if entry.jump {
			assert.Equal(uint16(0x0208), cpu.PC)
		} else {
			assert.Equal(uint16(0x0203), cpu.PC)
		}
	}
}

func TestPushPop(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.ACC.Set(0x5A)
	run(cpu, 0, 0xC0, 0xE0)
	assert.Equal(uint8(0x08), cpu.SP.Get())
	assert.Equal(uint8(0x5A), cpu.Iram[0x08])

	run(cpu, 0, 0xD0, 0xF0)
	assert.Equal(uint8(0x07), cpu.SP.Get())
	assert.Equal(uint8(0x5A), cpu.B.Get())

	cpu.SP.Set(0x7F)
	cpu.Iram[0x20] = 0x33
	run(cpu, 0, 0xC0, 0x20)
	assert.Equal(uint8(0x80), cpu.SP.Get())
	assert.Equal(uint8(0x33), cpu.Iram[0x80])
	assert.Equal(uint8(0xFF), cpu.P0.Get())
}

func TestBitLogic(t *testing.T) {
	assert := assert.New(t)

	table := [...]struct {
		code  uint8
		carry bool
		bit   bool
		out   bool
	}{
		{0x82, false, false, false},
		{0x82, false, true, false},
		{0x82, true, false, false},
		{0x82, true, true, true},
		{0x72, false, false, false},
		{0x72, false, true, true},
		{0x72, true, false, true},
		{0x72, true, true, true},
		{0xB0, false, false, false},
		{0xB0, false, true, false},
		{0xB0, true, false, true},
		{0xB0, true, true, false},
		{0xA0, false, false, true},
		{0xA0, false, true, false},
		{0xA0, true, false, true},
		{0xA0, true, true, true},
		{0xA2, true, false, false},
		{0xA2, false, true, true},
	}

	for _, entry := range table {
		name := fmt.Sprintf("%02x c=%v b=%v", entry.code, entry.carry, entry.bit)
		cpu := NewCpu()
		cpu.PSW.SetFlag(PSW_CY, entry.carry)
		cpu.PutBit(0x03, entry.bit)
		run(cpu, 0, entry.code, 0x03)
		assert.Equal(entry.out, cpu.PSW.Flag(PSW_CY), name)
		assert.Equal(entry.bit, cpu.GetBit(0x03), name)
		assert.Equal(uint16(2), cpu.PC, name)
	}
}

func TestBitAddressing(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	run(cpu, 0, 0xD2, 0x07)
	assert.Equal(uint8(0x80), cpu.Iram[0x20])
	run(cpu, 0, 0xD2, 0x7F)
	assert.Equal(uint8(0x80), cpu.Iram[0x2F])
	run(cpu, 0, 0xD2, 0xE0)
	assert.Equal(uint8(0x01), cpu.ACC.Get())
	run(cpu, 0, 0xB2, 0x97)
	assert.Equal(uint8(0x7F), cpu.P1.Get())
	run(cpu, 0, 0xC2, 0x07)
	assert.Equal(uint8(0x00), cpu.Iram[0x20])
	run(cpu, 0, 0xD3)
	assert.True(cpu.PSW.Flag(PSW_CY))
	run(cpu, 0, 0xB3)
	assert.False(cpu.PSW.Flag(PSW_CY))

	// MOV 0x05,C
	run(cpu, 0, 0xD3)
	run(cpu, 0, 0x92, 0x05)
	assert.Equal(uint8(0x20), cpu.Iram[0x20])
}

func TestJB_JNB_JBC(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Iram[0x21] = 0x01
	run(cpu, 0x0300, 0x20, 0x08, 0x10)
	assert.Equal(uint16(0x0313), cpu.PC)
	run(cpu, 0x0300, 0x30, 0x08, 0x10)
	assert.Equal(uint16(0x0303), cpu.PC)
	run(cpu, 0x0300, 0x10, 0x08, 0x10)
	assert.Equal(uint16(0x0313), cpu.PC)
	assert.Equal(uint8(0x00), cpu.Iram[0x21])
	run(cpu, 0x0300, 0x10, 0x08, 0x10)
	assert.Equal(uint16(0x0303), cpu.PC)
	run(cpu, 0x0300, 0x30, 0x08, 0xF0)
	assert.Equal(uint16(0x02F3), cpu.PC)
}

func TestConditionalJumps(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	run(cpu, 0x0100, 0x60, 0x10)
	assert.Equal(uint16(0x0112), cpu.PC)
	run(cpu, 0x0100, 0x70, 0x10)
	assert.Equal(uint16(0x0102), cpu.PC)
	run(cpu, 0x0100, 0x40, 0x10)
	assert.Equal(uint16(0x0102), cpu.PC)
	run(cpu, 0x0100, 0x50, 0x10)
	assert.Equal(uint16(0x0112), cpu.PC)

	cpu.ACC.Set(1)
	cpu.PSW.SetFlag(PSW_CY, true)
	run(cpu, 0x0100, 0x60, 0x10)
	assert.Equal(uint16(0x0102), cpu.PC)
	run(cpu, 0x0100, 0x70, 0x10)
	assert.Equal(uint16(0x0112), cpu.PC)
	run(cpu, 0x0100, 0x40, 0x10)
	assert.Equal(uint16(0x0112), cpu.PC)
	run(cpu, 0x0100, 0x50, 0x10)
	assert.Equal(uint16(0x0102), cpu.PC)
}

func TestArithmetic(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.ACC.Set(0x97)
	run(cpu, 0, 0x24, 0x97)
	assert.Equal(uint8(0x2E), cpu.ACC.Get())
	assert.True(cpu.PSW.Flag(PSW_CY))
	assert.False(cpu.PSW.Flag(PSW_AC))

	cpu.ACC.Set(0x99)
	cpu.PSW.SetFlag(PSW_CY, true)
	cpu.SetR(3, 0x99)
	run(cpu, 0, 0x3B)
	assert.Equal(uint8(0x33), cpu.ACC.Get())
	assert.True(cpu.PSW.Flag(PSW_CY))
	assert.True(cpu.PSW.Flag(PSW_AC))
	run(cpu, 0, 0xD4)
	assert.Equal(uint8(0x99), cpu.ACC.Get())
	assert.True(cpu.PSW.Flag(PSW_CY))

	cpu.ACC.Set(0x10)
	cpu.PSW.SetFlag(PSW_CY, false)
	cpu.Iram[0x40] = 0x08
	run(cpu, 0, 0x95, 0x40)
	assert.Equal(uint8(0x08), cpu.ACC.Get())
	assert.False(cpu.PSW.Flag(PSW_CY))
	assert.False(cpu.PSW.Flag(PSW_OV))
	assert.True(cpu.PSW.Flag(PSW_AC))
}

func TestMulDiv(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.ACC.Set(0xFF)
	cpu.B.Set(0xFF)
	cpu.PSW.SetFlag(PSW_CY, true)
	run(cpu, 0, 0xA4)
	assert.Equal(uint8(0x01), cpu.ACC.Get())
	assert.Equal(uint8(0xFE), cpu.B.Get())
	assert.True(cpu.PSW.Flag(PSW_OV))
	assert.False(cpu.PSW.Flag(PSW_CY))

	cpu.ACC.Set(0x11)
	cpu.B.Set(0x02)
	cpu.PSW.SetFlag(PSW_AC, true)
	run(cpu, 0, 0x84)
	assert.Equal(uint8(0x08), cpu.ACC.Get())
	assert.Equal(uint8(0x01), cpu.B.Get())
	assert.False(cpu.PSW.Flag(PSW_OV))
	assert.True(cpu.PSW.Flag(PSW_AC))

	for _, a := range []uint8{0x00, 0x01, 0x7F, 0xFF} {
		cpu.ACC.Set(a)
		cpu.B.Set(0)
		cpu.PSW.SetFlag(PSW_CY, true)
		run(cpu, 0, 0x84)
		assert.Equal(a, cpu.ACC.Get())
		assert.Equal(uint8(0), cpu.B.Get())
		assert.True(cpu.PSW.Flag(PSW_OV))
		assert.False(cpu.PSW.Flag(PSW_CY))
	}
}

func TestLogical(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.ACC.Set(0xF0)
	run(cpu, 0, 0x54, 0x3C)
	assert.Equal(uint8(0x30), cpu.ACC.Get())
	run(cpu, 0, 0x44, 0x0F)
	assert.Equal(uint8(0x3F), cpu.ACC.Get())
	run(cpu, 0, 0x64, 0xFF)
	assert.Equal(uint8(0xC0), cpu.ACC.Get())

	cpu.Iram[0x30] = 0x0F
	run(cpu, 0, 0x43, 0x30, 0xA0)
	assert.Equal(uint8(0xAF), cpu.Iram[0x30])
	assert.Equal(uint16(3), cpu.PC)
	run(cpu, 0, 0x52, 0x30)
	assert.Equal(uint8(0x80), cpu.Iram[0x30])

	run(cpu, 0, 0x63, 0xA0, 0x0F)
	assert.Equal(uint8(0xF0), cpu.P2.Get())
}

func TestIncDec(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.SetDPTR(0xFFFF)
	run(cpu, 0, 0xA3)
	assert.Equal(uint16(0x0000), cpu.DPTR())
	run(cpu, 0, 0xA3)
	assert.Equal(uint16(0x0001), cpu.DPTR())

	cpu.ACC.Set(0xFF)
	run(cpu, 0, 0x04)
	assert.Equal(uint8(0x00), cpu.ACC.Get())
	assert.False(cpu.PSW.Flag(PSW_CY))
	run(cpu, 0, 0x14)
	assert.Equal(uint8(0xFF), cpu.ACC.Get())

	cpu.SetR(0, 0x40)
	cpu.Iram[0x40] = 0x10
	run(cpu, 0, 0x06)
	assert.Equal(uint8(0x11), cpu.Iram[0x40])
	run(cpu, 0, 0x1F)
	assert.Equal(uint8(0xFF), cpu.R(7))
}

func TestRotates(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.ACC.Set(0x81)
	run(cpu, 0, 0x03)
	assert.Equal(uint8(0xC0), cpu.ACC.Get())
	run(cpu, 0, 0x23)
	assert.Equal(uint8(0x81), cpu.ACC.Get())

	run(cpu, 0, 0x13)
	assert.Equal(uint8(0x40), cpu.ACC.Get())
	assert.True(cpu.PSW.Flag(PSW_CY))
	run(cpu, 0, 0x13)
	assert.Equal(uint8(0xA0), cpu.ACC.Get())
	assert.False(cpu.PSW.Flag(PSW_CY))

	cpu.ACC.Set(0x80)
	run(cpu, 0, 0x33)
	assert.Equal(uint8(0x00), cpu.ACC.Get())
	assert.True(cpu.PSW.Flag(PSW_CY))
	run(cpu, 0, 0x33)
	assert.Equal(uint8(0x01), cpu.ACC.Get())
	assert.False(cpu.PSW.Flag(PSW_CY))

	cpu.ACC.Set(0x5A)
	run(cpu, 0, 0xC4)
	assert.Equal(uint8(0xA5), cpu.ACC.Get())
}

func TestExchange(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.ACC.Set(0x12)
	cpu.SetR(5, 0x34)
	run(cpu, 0, 0xCD)
	assert.Equal(uint8(0x34), cpu.ACC.Get())
	assert.Equal(uint8(0x12), cpu.R(5))

	cpu.SetR(1, 0x60)
	cpu.Iram[0x60] = 0xAB
	run(cpu, 0, 0xD7)
	assert.Equal(uint8(0x3B), cpu.ACC.Get())
	assert.Equal(uint8(0xA4), cpu.Iram[0x60])

	cpu.B.Set(0x77)
	run(cpu, 0, 0xC5, 0xF0)
	assert.Equal(uint8(0x77), cpu.ACC.Get())
	assert.Equal(uint8(0x3B), cpu.B.Get())
}

func TestMoves(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	run(cpu, 0, 0x90, 0x12, 0x34)
	assert.Equal(uint16(0x1234), cpu.DPTR())

	run(cpu, 0, 0x75, 0x90, 0x12)
	assert.Equal(uint8(0x12), cpu.P1.Get())
	assert.Equal(uint8(0x00), cpu.Iram[0x90])

	cpu.SetR(0, 0x90)
	cpu.ACC.Set(0x66)
	run(cpu, 0, 0xF6)
	assert.Equal(uint8(0x66), cpu.Iram[0x90])
	assert.Equal(uint8(0x12), cpu.P1.Get())

	cpu.Iram[0x31] = 0x99
	run(cpu, 0, 0x85, 0x31, 0x32)
	assert.Equal(uint8(0x99), cpu.Iram[0x32])

	run(cpu, 0, 0x7C, 0x42)
	assert.Equal(uint8(0x42), cpu.R(4))
	run(cpu, 0, 0xEC)
	assert.Equal(uint8(0x42), cpu.ACC.Get())
	run(cpu, 0, 0x8C, 0x50)
	assert.Equal(uint8(0x42), cpu.Iram[0x50])
	run(cpu, 0, 0xAB, 0x50)
	assert.Equal(uint8(0x42), cpu.R(3))
	run(cpu, 0, 0xE4)
	assert.Equal(uint8(0x00), cpu.ACC.Get())
	run(cpu, 0, 0xF4)
	assert.Equal(uint8(0xFF), cpu.ACC.Get())
}

func TestRegisterBanks(t *testing.T) {
	assert := assert.New(t)

	for bank := range uint8(4) {
		cpu := NewCpu()
		cpu.PSW.Set(bank << 3)
		run(cpu, 0, 0x7F, 0xA0+bank)
		assert.Equal(0xA0+bank, cpu.Iram[bank*8+7])
		assert.Equal(0xA0+bank, cpu.R(7))
	}
}

func TestUndefinedOpcode(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.ACC.Set(0x42)
	before := cpu.String()
	op := cpu.Step(0x0FFF)
	assert.Equal("NOP", op.Mnemonic)

	cpu.Code[0x2000] = 0xA5
	op = cpu.Step(0x2000)
	assert.Equal("UNDEF", op.Mnemonic)
	assert.Equal(uint16(0x2001), cpu.PC)
	assert.NotEqual(before, cpu.String())
	assert.Equal(uint8(0x42), cpu.ACC.Get())
	assert.Equal(2, cpu.Ticks)
}

func TestCpuString(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	text := cpu.String()
	assert.Contains(text, "   pc: 0000\n")
	assert.Contains(text, "   sp: 07\n")
	assert.Contains(text, "  ipl: idle\n")
}
