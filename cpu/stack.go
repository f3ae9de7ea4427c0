package cpu

// The stack lives in internal RAM and grows upward from SP. SP wraps at
// 0xFF into the bottom of internal RAM.

// Push stores value at the pre-incremented SP.
func (cpu *Cpu) Push(value uint8) {
	sp := cpu.SP.Get() + 1
	cpu.SP.Set(sp)
	cpu.Iram[sp] = value
}

// Pop returns the byte at SP and post-decrements SP.
func (cpu *Cpu) Pop() (value uint8) {
	sp := cpu.SP.Get()
	value = cpu.Iram[sp]
	cpu.SP.Set(sp - 1)
	return
}

// Peek returns the byte at SP.
func (cpu *Cpu) Peek() (value uint8) {
	return cpu.Iram[cpu.SP.Get()]
}

// PushPC pushes PC, low byte first.
func (cpu *Cpu) PushPC() {
	cpu.Push(uint8(cpu.PC))
	cpu.Push(uint8(cpu.PC >> 8))
}

// PopPC pops PC pushed by PushPC.
func (cpu *Cpu) PopPC() {
	hi := cpu.Pop()
	lo := cpu.Pop()
	cpu.PC = uint16(hi)<<8 | uint16(lo)
}
