package cpu

// Memory space sizes.
const (
	CODE_SIZE = 0x1_0000 // Program memory.
	IRAM_SIZE = 0x100    // Internal RAM, including 8052 upper RAM.
	XRAM_SIZE = 0x1_0000 // External data memory.
)

// Direct address space layout.
const (
	SFR_BASE  = 0x80 // First SFR address in the direct space.
	SFR_COUNT = 0x80 // Number of SFR addresses.
	BIT_BASE  = 0x20 // Internal RAM byte holding bit 0x00.
	BANK_SIZE = 8    // Registers per bank.
)

// Fixed code addresses.
const (
	VECTOR_RESET = 0x0000 // Reset vector.
	VECTOR_IE0   = 0x0003 // External interrupt 0.
	VECTOR_TF0   = 0x000B // Timer 0 overflow.
	VECTOR_IE1   = 0x0013 // External interrupt 1.
	VECTOR_TF1   = 0x001B // Timer 1 overflow.
	VECTOR_SER   = 0x0023 // Serial port receive or transmit.
	VECTOR_TF2   = 0x002B // Timer 2 overflow or external reload.
)

// fetch reads code memory at pc.
func (cpu *Cpu) fetch(pc uint16) uint8 {
	return cpu.Code[pc]
}

// DPTR returns the 16-bit data pointer.
func (cpu *Cpu) DPTR() uint16 {
	return uint16(cpu.DPH.Get())<<8 | uint16(cpu.DPL.Get())
}

// SetDPTR sets both halves of the data pointer.
func (cpu *Cpu) SetDPTR(value uint16) {
	cpu.DPH.Set(uint8(value >> 8))
	cpu.DPL.Set(uint8(value))
}

// bank returns the iram offset of the active register bank.
func (cpu *Cpu) bank() uint8 {
	return cpu.PSW.Get() & (PSW_RS1_MASK | PSW_RS0_MASK)
}

// R returns register Rn of the active bank.
func (cpu *Cpu) R(n int) uint8 {
	return cpu.Iram[cpu.bank()+uint8(n&7)]
}

// SetR sets register Rn of the active bank.
func (cpu *Cpu) SetR(n int, value uint8) {
	cpu.Iram[cpu.bank()+uint8(n&7)] = value
}
