package io

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/sim51/cpu"
)

func newSerial(t *testing.T) (mcu *cpu.Cpu, sp *Serial, output *bytes.Buffer) {
	mcu = cpu.NewCpu()
	output = &bytes.Buffer{}
	sp = &Serial{Output: output}
	assert.NoError(t, sp.Attach(mcu))
	return
}

func TestSerial_Transmit(t *testing.T) {
	assert := assert.New(t)

	mcu, _, output := newSerial(t)

	// MOV SBUF,#'H'; MOV A,#'i'; MOV SBUF,A
	copy(mcu.Code[:], []uint8{0x75, 0x99, 'H', 0x74, 'i', 0xF5, 0x99})
	mcu.Tick()
	assert.Equal("H", output.String())
	assert.True(mcu.SCON.Flag(cpu.SCON_TI))
	assert.True(mcu.Recheck)

	mcu.SCON.SetFlag(cpu.SCON_TI, false)
	mcu.Tick()
	mcu.Tick()
	assert.Equal("Hi", output.String())
	assert.True(mcu.SCON.Flag(cpu.SCON_TI))
	assert.Equal(uint8('i'), mcu.SBUF.Get())
}

func TestSerial_Receive(t *testing.T) {
	assert := assert.New(t)

	mcu, sp, _ := newSerial(t)

	n, err := sp.Write([]byte("x"))
	assert.NoError(err)
	assert.Equal(1, n)
	sp.Poll()
	assert.False(mcu.SCON.Flag(cpu.SCON_RI))
	assert.Equal(0, sp.Pending())

	mcu.SCON.SetFlag(cpu.SCON_REN, true)
	_, err = sp.Write([]byte("ab"))
	assert.NoError(err)
	assert.Equal(2, sp.Pending())

	sp.Poll()
	assert.True(mcu.SCON.Flag(cpu.SCON_RI))
	assert.Equal(1, sp.Pending())

	// MOV A,SBUF
	mcu.Code[0x0100] = 0xE5
	mcu.Code[0x0101] = 0x99
	mcu.Step(0x0100)
	assert.Equal(uint8('a'), mcu.ACC.Get())

	sp.Poll()
	assert.Equal(1, sp.Pending())
	mcu.Step(0x0100)
	assert.Equal(uint8('a'), mcu.ACC.Get())

	mcu.SCON.SetFlag(cpu.SCON_RI, false)
	sp.Poll()
	assert.True(mcu.SCON.Flag(cpu.SCON_RI))
	mcu.Step(0x0100)
	assert.Equal(uint8('b'), mcu.ACC.Get())
	assert.Equal(0, sp.Pending())
}

func TestSerial_Full(t *testing.T) {
	assert := assert.New(t)

	_, sp, _ := newSerial(t)

	n, err := sp.Write(make([]byte, SERIAL_QUEUE_SIZE+3))
	assert.ErrorIs(err, ErrChannelFull)
	assert.Equal(SERIAL_QUEUE_SIZE, n)
	assert.Equal(SERIAL_QUEUE_SIZE, sp.Pending())
}

func TestSerial_Attach(t *testing.T) {
	assert := assert.New(t)

	sp := &Serial{}
	sp.Poll()

	mcu, _, _ := newSerial(t)
	assert.ErrorIs(sp.Attach(mcu), cpu.ErrHookConflict)
}
