package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Push(0x12)
	assert.Equal(uint8(0x08), cpu.SP.Get())
	assert.Equal(uint8(0x12), cpu.Iram[0x08])
	assert.Equal(uint8(0x12), cpu.Peek())

	cpu.Push(0x34)
	assert.Equal(uint8(0x09), cpu.SP.Get())
	assert.Equal(uint8(0x34), cpu.Peek())
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Push(0x12)
	cpu.Push(0x34)

	assert.Equal(uint8(0x34), cpu.Pop())
	assert.Equal(uint8(0x08), cpu.SP.Get())
	assert.Equal(uint8(0x12), cpu.Pop())
	assert.Equal(uint8(0x07), cpu.SP.Get())
}

func TestStack_Wrap(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.SP.Set(0xFF)
	cpu.Push(0xAA)
	assert.Equal(uint8(0x00), cpu.SP.Get())
	assert.Equal(uint8(0xAA), cpu.Iram[0x00])

	assert.Equal(uint8(0xAA), cpu.Pop())
	assert.Equal(uint8(0xFF), cpu.SP.Get())
}

func TestStack_PC(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.PC = 0xBEEF
	cpu.PushPC()
	assert.Equal(uint8(0x09), cpu.SP.Get())
	assert.Equal(uint8(0xEF), cpu.Iram[0x08])
	assert.Equal(uint8(0xBE), cpu.Iram[0x09])

	cpu.PC = 0
	cpu.PopPC()
	assert.Equal(uint16(0xBEEF), cpu.PC)
	assert.Equal(uint8(0x07), cpu.SP.Get())
}
