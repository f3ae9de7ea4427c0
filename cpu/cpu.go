package cpu

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Cpu is the simulation context of one 8052.
type Cpu struct {
	Verbose bool // Set to enable per instruction logging.

	Code [CODE_SIZE]uint8 // Program memory.
	Iram [IRAM_SIZE]uint8 // Internal RAM.
	Xram [XRAM_SIZE]uint8 // External data memory.

	PC      uint16 // Program counter.
	OpAddr  uint16 // Address of the executing opcode.
	Opcode  uint8  // Executing opcode byte.
	Ipl     Level  // Running interrupt level.
	Recheck bool   // Interrupt state may have changed.

	Ticks int // Instructions executed since reset.

	// Standard registers.
	ACC, B, PSW, SP, DPL, DPH       *Register
	P0, P1, P2, P3                  *Register
	IE, IP, TCON, TMOD, T2CON, T2MOD *Register
	TL0, TH0, TL1, TH1, TL2, TH2    *Register
	RCAP2L, RCAP2H                  *Register
	SCON, SBUF, PCON                *Register

	sfr       [SFR_COUNT]*Register
	sfrByName map[string]*Register
	bitByName map[string]bitRef
}

// NewCpu creates a CPU with the 8052 register set, in reset state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		sfrByName: map[string]*Register{},
		bitByName: map[string]bitRef{},
	}

	named := map[string]**Register{
		"ACC": &cpu.ACC, "B": &cpu.B, "PSW": &cpu.PSW, "SP": &cpu.SP,
		"DPL": &cpu.DPL, "DPH": &cpu.DPH,
		"P0": &cpu.P0, "P1": &cpu.P1, "P2": &cpu.P2, "P3": &cpu.P3,
		"IE": &cpu.IE, "IP": &cpu.IP, "TCON": &cpu.TCON, "TMOD": &cpu.TMOD,
		"T2CON": &cpu.T2CON, "T2MOD": &cpu.T2MOD,
		"TL0": &cpu.TL0, "TH0": &cpu.TH0, "TL1": &cpu.TL1, "TH1": &cpu.TH1,
		"TL2": &cpu.TL2, "TH2": &cpu.TH2,
		"RCAP2L": &cpu.RCAP2L, "RCAP2H": &cpu.RCAP2H,
		"SCON": &cpu.SCON, "SBUF": &cpu.SBUF, "PCON": &cpu.PCON,
	}

	for _, decl := range sfrLayout {
		var reg *Register
		var err error
		if decl.bits == "" {
			reg, err = cpu.DeclarePlain(decl.name, decl.addr, decl.reset)
		} else {
			reg, err = cpu.DeclareBitfield(decl.name, decl.addr, decl.bits, decl.irq, decl.reset)
		}
		if err != nil {
			panic(err)
		}
		if field, ok := named[decl.name]; ok {
			*field = reg
		}
	}

	cpu.ACC.changed = cpu.updateParity
	cpu.PSW.changed = cpu.updateParity

	cpu.Reset()

	return
}

// updateParity keeps PSW.P equal to the parity of ACC, whatever was
// written to PSW.
func (cpu *Cpu) updateParity() {
	if Parity(cpu.ACC.value) {
		cpu.PSW.value |= 1 << PSW_P
	} else {
		cpu.PSW.value &^= 1 << PSW_P
	}
}

// Reset the CPU state.
// - Loads every SFR with its power-on value.
// - Clears PC, the interrupt level and the recheck flag.
// - Zeros the instruction counter.
// Memory contents are preserved.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		logrus.Debug("cpu: reset")
	}

	for _, reg := range cpu.sfr {
		if reg != nil {
			reg.value = reg.Reset
		}
	}
	cpu.updateParity()

	cpu.PC = VECTOR_RESET
	cpu.OpAddr = VECTOR_RESET
	cpu.Opcode = 0
	cpu.Ipl = LEVEL_IDLE
	cpu.Recheck = false
	cpu.Ticks = 0
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"pc", "a", "b", "psw", "sp", "dptr",
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"ipl",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%04X", cpu.PC)
		case "a":
			strval = fmt.Sprintf("%02X", cpu.ACC.Get())
		case "b":
			strval = fmt.Sprintf("%02X", cpu.B.Get())
		case "psw":
			strval = cpu.PSW.String()
		case "sp":
			strval = fmt.Sprintf("%02X", cpu.SP.Get())
		case "dptr":
			strval = fmt.Sprintf("%04X", cpu.DPTR())
		case "r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7":
			strval = fmt.Sprintf("%02X", cpu.R(int(reg[1]-'0')))
		case "ipl":
			strval = cpu.Ipl.String()
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Step executes one instruction at pc. If interrupts need rechecking, a
// pending interrupt may vector first, in which case the first instruction
// of the handler is executed instead.
func (cpu *Cpu) Step(pc uint16) (op *Opcode) {
	cpu.OpAddr = pc
	cpu.PC = pc

	if cpu.Recheck && cpu.arbitrate() {
		cpu.OpAddr = cpu.PC
	}

	cpu.Opcode = cpu.fetch(cpu.PC)
	op = opcodes[cpu.Opcode]

	if cpu.Verbose {
		logrus.WithFields(logrus.Fields{
			"pc":  fmt.Sprintf("%04X", cpu.OpAddr),
			"op":  op.Mnemonic,
			"a":   fmt.Sprintf("%02X", cpu.ACC.Get()),
			"psw": fmt.Sprintf("%02X", cpu.PSW.Get()),
			"sp":  fmt.Sprintf("%02X", cpu.SP.Get()),
		}).Debug("cpu: step")
	}

	cpu.PC = cpu.OpAddr + op.Length
	op.exec(cpu)
	cpu.Ticks++

	return
}

// Tick executes the instruction at the current PC.
func (cpu *Cpu) Tick() (op *Opcode) {
	return cpu.Step(cpu.PC)
}
