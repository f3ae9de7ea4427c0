package cpu

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// PSW flag shifts.
const (
	PSW_P   = 0 // Parity of ACC.
	PSW_F1  = 1 // User flag 1.
	PSW_OV  = 2 // Overflow.
	PSW_RS0 = 3 // Register bank select, low bit.
	PSW_RS1 = 4 // Register bank select, high bit.
	PSW_F0  = 5 // User flag 0.
	PSW_AC  = 6 // Auxiliary carry.
	PSW_CY  = 7 // Carry.

	PSW_RS0_MASK = 1 << PSW_RS0
	PSW_RS1_MASK = 1 << PSW_RS1
)

// Other flag shifts used by the core and the serial port.
const (
	IE_EA     = 7 // Global interrupt enable.
	SCON_RI   = 0 // Receive interrupt.
	SCON_TI   = 1 // Transmit interrupt.
	SCON_REN  = 4 // Receive enable.
	TCON_IE0  = 1 // External 0 edge flag.
	TCON_TF0  = 5 // Timer 0 overflow.
	T2CON_TF2 = 7 // Timer 2 overflow.
)

// Bit is a named flag of a bit-field SFR.
type Bit struct {
	Name  string
	Shift uint8
	Mask  uint8
	Addr  uint8 // Register address plus shift.
}

// SFRHook intercepts instruction driven direct accesses to an SFR.
type SFRHook interface {
	ReadSFR(reg *Register) uint8
	WriteSFR(reg *Register, value uint8)
}

// Register is a special function register. Bit-field registers keep a
// single backing byte; flags are views of it through their mask.
type Register struct {
	Name     string
	Addr     uint8
	Reset    uint8
	Bitfield bool  // Declared with a bit list.
	Irq      bool  // Writes raise the recheck interrupts signal.
	Bits     []Bit // Declared flags, bit 0 first.

	mask    uint8
	value   uint8
	hook    SFRHook
	changed func()
}

// Get returns the register byte. Reserved bits read as 0.
func (reg *Register) Get() uint8 {
	return reg.value
}

// Set writes the register byte, dropping reserved bits.
func (reg *Register) Set(value uint8) {
	reg.value = value & reg.mask
	if reg.changed != nil {
		reg.changed()
	}
}

// Flag returns the bit at shift.
func (reg *Register) Flag(shift uint8) bool {
	return reg.value&(1<<(shift&7)) != 0
}

// SetFlag writes the bit at shift. Writes to reserved bits are ignored.
func (reg *Register) SetFlag(shift uint8, on bool) {
	mask := uint8(1) << (shift & 7)
	if on {
		reg.value |= mask & reg.mask
	} else {
		reg.value &^= mask
	}
	if reg.changed != nil {
		reg.changed()
	}
}

// Bit finds a declared flag by name.
func (reg *Register) Bit(name string) (bit Bit, ok bool) {
	for _, bit = range reg.Bits {
		if bit.Name == name {
			ok = true
			return
		}
	}
	bit = Bit{}
	return
}

// String renders the register with its flags, upper case when set.
func (reg *Register) String() string {
	text := fmt.Sprintf("%s=%02X", reg.Name, reg.value)
	if len(reg.Bits) == 0 || strings.HasPrefix(reg.Bits[0].Name, reg.Name+".") {
		return text
	}
	var names []string
	for _, bit := range slices.Backward(reg.Bits) {
		if reg.Flag(bit.Shift) {
			names = append(names, strings.ToUpper(bit.Name))
		} else {
			names = append(names, strings.ToLower(bit.Name))
		}
	}
	return text + " [" + strings.Join(names, " ") + "]"
}

// parseBits splits a bit list, most significant name first. A "." entry
// marks a reserved bit.
func parseBits(addr uint8, list string) (bits []Bit, mask uint8, err error) {
	names := strings.Fields(list)
	if len(names) == 0 || len(names) > 8 {
		err = fmt.Errorf("%w: %q", ErrSfrBits, list)
		return
	}
	slices.Reverse(names)
	for n, name := range names {
		if name == "." {
			continue
		}
		bit := Bit{
			Name:  name,
			Shift: uint8(n),
			Mask:  1 << n,
			Addr:  addr + uint8(n),
		}
		bits = append(bits, bit)
		mask |= bit.Mask
	}
	return
}

// anonymous names every bit of a bit addressable byte register.
func anonymous(name string) string {
	names := make([]string, 8)
	for n := range 8 {
		names[n] = fmt.Sprintf("%s.%d", name, 7-n)
	}
	return strings.Join(names, " ")
}

type sfrDecl struct {
	name  string
	addr  uint8
	reset uint8
	bits  string // Empty for a plain register.
	irq   bool
}

// sfrLayout is the 8052 register set.
var sfrLayout = []sfrDecl{
	{name: "P0", addr: 0x80, reset: 0xFF, bits: anonymous("P0")},
	{name: "SP", addr: 0x81, reset: 0x07},
	{name: "DPL", addr: 0x82},
	{name: "DPH", addr: 0x83},
	{name: "PCON", addr: 0x87, bits: "SMOD . . . GF1 GF0 PD IDL"},
	{name: "TCON", addr: 0x88, bits: "TF1 TR1 TF0 TR0 IE1 IT1 IE0 IT0", irq: true},
	{name: "TMOD", addr: 0x89, bits: "GATE1 CT1 T1M1 T1M0 GATE0 CT0 T0M1 T0M0"},
	{name: "TL0", addr: 0x8A},
	{name: "TL1", addr: 0x8B},
	{name: "TH0", addr: 0x8C},
	{name: "TH1", addr: 0x8D},
	{name: "P1", addr: 0x90, reset: 0xFF, bits: anonymous("P1")},
	{name: "SCON", addr: 0x98, bits: "SM0 SM1 SM2 REN TB8 RB8 TI RI", irq: true},
	{name: "SBUF", addr: 0x99},
	{name: "P2", addr: 0xA0, reset: 0xFF, bits: anonymous("P2")},
	{name: "IE", addr: 0xA8, bits: "EA . ET2 ES ET1 EX1 ET0 EX0", irq: true},
	{name: "P3", addr: 0xB0, reset: 0xFF, bits: anonymous("P3")},
	{name: "IP", addr: 0xB8, bits: ". . PT2 PS PT1 PX1 PT0 PX0", irq: true},
	{name: "T2CON", addr: 0xC8, bits: "TF2 EXF2 RCLK TCLK EXEN2 TR2 CT2 CPRL2", irq: true},
	{name: "T2MOD", addr: 0xC9, bits: ". . . . . . T2OE DCEN"},
	{name: "RCAP2L", addr: 0xCA},
	{name: "RCAP2H", addr: 0xCB},
	{name: "TL2", addr: 0xCC},
	{name: "TH2", addr: 0xCD},
	{name: "PSW", addr: 0xD0, bits: "CY AC F0 RS1 RS0 OV F1 P"},
	{name: "ACC", addr: 0xE0, bits: anonymous("ACC")},
	{name: "B", addr: 0xF0, bits: anonymous("B")},
}

// DeclarePlain adds a byte wide SFR to the CPU.
func (cpu *Cpu) DeclarePlain(name string, addr uint8, reset uint8) (reg *Register, err error) {
	reg = &Register{
		Name:  name,
		Addr:  addr,
		Reset: reset,
		mask:  0xFF,
	}
	err = cpu.declare(reg)
	if err != nil {
		reg = nil
	}
	return
}

// DeclareBitfield adds a bit-field SFR to the CPU. The bit list is space
// separated, most significant bit first, with "." for reserved bits.
func (cpu *Cpu) DeclareBitfield(name string, addr uint8, bits string, irq bool, reset uint8) (reg *Register, err error) {
	reg = &Register{
		Name:     name,
		Addr:     addr,
		Bitfield: true,
		Irq:      irq,
	}
	reg.Bits, reg.mask, err = parseBits(addr, bits)
	if err != nil {
		reg = nil
		return
	}
	reg.Reset = reset & reg.mask
	err = cpu.declare(reg)
	if err != nil {
		reg = nil
	}
	return
}

func (cpu *Cpu) declare(reg *Register) (err error) {
	if reg.Addr < SFR_BASE {
		err = fmt.Errorf("%w: %v 0x%02x", ErrSfrAddress, reg.Name, reg.Addr)
		return
	}
	if cpu.sfr[reg.Addr-SFR_BASE] != nil {
		err = ErrSfrDuplicate{Name: reg.Name, Addr: reg.Addr}
		return
	}
	if _, ok := cpu.sfrByName[reg.Name]; ok {
		err = ErrSfrDuplicate{Name: reg.Name, Addr: reg.Addr}
		return
	}
	for _, bit := range reg.Bits {
		if _, ok := cpu.bitByName[bit.Name]; ok {
			err = ErrSfrDuplicate{Name: bit.Name, Addr: reg.Addr}
			return
		}
	}

	if reg.Irq {
		reg.changed = func() { cpu.Recheck = true }
	}
	reg.value = reg.Reset

	cpu.sfr[reg.Addr-SFR_BASE] = reg
	cpu.sfrByName[reg.Name] = reg
	for _, bit := range reg.Bits {
		cpu.bitByName[bit.Name] = bitRef{reg: reg, shift: bit.Shift}
	}
	return
}

type bitRef struct {
	reg   *Register
	shift uint8
}

// SFR finds a register by name.
func (cpu *Cpu) SFR(name string) (reg *Register, ok bool) {
	reg, ok = cpu.sfrByName[name]
	return
}

// SFRAt finds the register at a direct address.
func (cpu *Cpu) SFRAt(addr uint8) (reg *Register, ok bool) {
	if addr < SFR_BASE {
		return
	}
	reg = cpu.sfr[addr-SFR_BASE]
	ok = reg != nil
	return
}

// SFRs iterates all declared registers in address order.
func (cpu *Cpu) SFRs() iter.Seq2[string, *Register] {
	return func(yield func(string, *Register) bool) {
		for _, reg := range cpu.sfr {
			if reg == nil {
				continue
			}
			if !yield(reg.Name, reg) {
				return
			}
		}
	}
}

// Flag reads a named SFR flag.
func (cpu *Cpu) Flag(name string) (on bool, err error) {
	ref, ok := cpu.bitByName[name]
	if !ok {
		err = fmt.Errorf("%w: %v", ErrBitUnknown, name)
		return
	}
	on = ref.reg.Flag(ref.shift)
	return
}

// SetFlag writes a named SFR flag.
func (cpu *Cpu) SetFlag(name string, on bool) (err error) {
	ref, ok := cpu.bitByName[name]
	if !ok {
		err = fmt.Errorf("%w: %v", ErrBitUnknown, name)
		return
	}
	ref.reg.SetFlag(ref.shift, on)
	return
}

// Hook installs an access hook on the SFR at addr. A nil hook removes it.
func (cpu *Cpu) Hook(addr uint8, hook SFRHook) (err error) {
	reg, ok := cpu.SFRAt(addr)
	if !ok {
		err = fmt.Errorf("%w: 0x%02x", ErrSfrUnknown, addr)
		return
	}
	if hook != nil && reg.hook != nil {
		err = fmt.Errorf("%w: %v", ErrHookConflict, reg.Name)
		return
	}
	reg.hook = hook
	return
}
