// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/sim51/cpu"
	"github.com/ezrec/sim51/ihex"
	sio "github.com/ezrec/sim51/io"
)

const (
	STEP_OVER_RANGE = 0x10 // Step over stops within PC+1..PC+15.
	RUN_SLICE       = 100  // Instructions between context checks in Run.
)

// Breakpoint stops execution before the instruction at Addr.
type Breakpoint struct {
	Addr      uint16
	Message   string
	Transient bool // Cleared when hit.

	group int // Step over set; the whole set is cleared when one is hit.
}

// Emulator state. CPU + serial port + debugging aids.
type Emulator struct {
	Verbose  bool      // If set, enables verbose logging.
	*cpu.Cpu           // Reference to the CPU simulation.
	Serial   sio.Serial
	Symbols  *Symbols
	Trace    io.Writer // If set, receives the state after each instruction.

	Fetches  Ring[uint16]
	Branches Ring[Branch]

	Executed int           // Instructions executed over the emulator lifetime.
	Elapsed  time.Duration // Time spent in Run.

	breakpoints map[uint16]Breakpoint
	groups      int
	devices     []sio.Device
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:         cpu.NewCpu(),
		Symbols:     NewSymbols(),
		breakpoints: map[uint16]Breakpoint{},
	}

	emu.Symbols.Declare(emu.Cpu)

	err := emu.Attach(&emu.Serial)
	if err != nil {
		panic(err)
	}

	return
}

// Attach connects a device to the CPU; it is polled before every
// instruction.
func (emu *Emulator) Attach(dev sio.Device) (err error) {
	err = dev.Attach(emu.Cpu)
	if err != nil {
		return
	}
	emu.devices = append(emu.devices, dev)
	return
}

// LoadHex loads an Intel HEX image into code memory.
func (emu *Emulator) LoadHex(r io.Reader) (img *ihex.Image, err error) {
	img, err = ihex.Parse(r)
	if err != nil {
		return
	}
	err = img.Load(emu.Cpu.Code[:])
	if err != nil {
		img = nil
		return
	}

	if emu.Verbose {
		logrus.WithFields(logrus.Fields{
			"lowest": fmt.Sprintf("%04X", img.Lowest),
			"length": img.Len(),
		}).Info("emulator: loaded")
	}
	return
}

// LoadSymbols adds the symbol table of an assembler listing.
func (emu *Emulator) LoadSymbols(r io.Reader) (count int, err error) {
	return emu.Symbols.Parse(r)
}

// Reset the CPU and the histories. Memory, symbols and breakpoints are kept.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.Fetches.Reset()
	emu.Branches.Reset()
}

// Jump moves PC, recording the change in the branch history under reason.
func (emu *Emulator) Jump(addr uint16, reason string) {
	if addr == emu.Cpu.PC {
		return
	}
	from := emu.Cpu.PC
	emu.Cpu.PC = addr
	emu.Branches.Push(Branch{From: from, To: addr, Name: reason, State: Capture(emu.Cpu)})
}

// SetBreakpoint places a breakpoint, replacing any at the same address.
func (emu *Emulator) SetBreakpoint(addr uint16, message string, transient bool) {
	emu.breakpoints[addr] = Breakpoint{Addr: addr, Message: message, Transient: transient}
}

// ClearBreakpoint removes a breakpoint, reporting whether one was set.
func (emu *Emulator) ClearBreakpoint(addr uint16) (ok bool) {
	_, ok = emu.breakpoints[addr]
	delete(emu.breakpoints, addr)
	return
}

// Breakpoints iterates the breakpoints in address order.
func (emu *Emulator) Breakpoints() iter.Seq[Breakpoint] {
	return func(yield func(Breakpoint) bool) {
		for _, addr := range slices.Sorted(maps.Keys(emu.breakpoints)) {
			if !yield(emu.breakpoints[addr]) {
				return
			}
		}
	}
}

// StepOver places transient breakpoints at PC+1 through PC+15, so that
// execution stops when a call or skip returns nearby. Existing breakpoints
// in the range are left alone.
func (emu *Emulator) StepOver() {
	emu.groups++
	for offset := uint16(1); offset < STEP_OVER_RANGE; offset++ {
		addr := emu.Cpu.PC + offset
		if _, ok := emu.breakpoints[addr]; ok {
			continue
		}
		emu.breakpoints[addr] = Breakpoint{
			Addr:      addr,
			Message:   fmt.Sprintf("stepped over to $+%02XH", offset),
			Transient: true,
			group:     emu.groups,
		}
	}
}

// hit consumes the breakpoint at pc, if any.
func (emu *Emulator) hit(pc uint16) (err error) {
	bp, ok := emu.breakpoints[pc]
	if !ok {
		return
	}

	switch {
	case bp.group != 0:
		for addr, other := range emu.breakpoints {
			if other.group == bp.group {
				delete(emu.breakpoints, addr)
			}
		}
	case bp.Transient:
		delete(emu.breakpoints, pc)
	}

	err = &ErrBreakpoint{Addr: pc, Message: bp.Message}
	return
}

// step polls the devices and executes one instruction, keeping history.
func (emu *Emulator) step() {
	emu.Cpu.Verbose = emu.Verbose

	for _, dev := range emu.devices {
		dev.Poll()
	}

	pc := emu.Cpu.PC
	op := emu.Cpu.Step(pc)
	mcu := emu.Cpu

	if mcu.OpAddr != pc {
		emu.Branches.Push(Branch{From: pc, To: mcu.OpAddr, Name: "INT", State: Capture(mcu)})
	}
	emu.Fetches.Push(mcu.OpAddr)
	if op.Branch && mcu.PC != mcu.OpAddr+op.Length {
		emu.Branches.Push(Branch{From: mcu.OpAddr, To: mcu.PC, Name: op.Mnemonic, State: Capture(mcu)})
	}

	emu.Executed++

	if emu.Trace != nil {
		fmt.Fprintln(emu.Trace, Capture(mcu).String())
	}
}

// Tick performs a single instruction of the emulator, unless a breakpoint
// is set at PC.
func (emu *Emulator) Tick() (err error) {
	err = emu.hit(emu.Cpu.PC)
	if err != nil {
		return
	}
	emu.step()
	return
}

// Run executes until a breakpoint, until limit instructions when limit is
// positive, or until ctx is done. A breakpoint at the starting PC does not
// stop the run.
func (emu *Emulator) Run(ctx context.Context, limit int) (count int, err error) {
	start := time.Now()
	defer func() {
		emu.Elapsed += time.Since(start)
	}()

	for limit <= 0 || count < limit {
		if count%RUN_SLICE == 0 {
			err = ctx.Err()
			if err != nil {
				return
			}
		}
		if count != 0 {
			err = emu.hit(emu.Cpu.PC)
			if err != nil {
				return
			}
		}
		emu.step()
		count++
	}

	return
}

// Rate returns the average instructions per second over all runs.
func (emu *Emulator) Rate() float64 {
	seconds := emu.Elapsed.Seconds()
	if seconds == 0 {
		return 0
	}
	return float64(emu.Executed) / seconds
}

// Display renders an address against the symbol table.
func (emu *Emulator) Display(space rune, addr uint16) string {
	return emu.Symbols.Display(space, addr)
}

// Disassemble renders the instruction at pc with symbolic operands.
func (emu *Emulator) Disassemble(pc uint16) (text string, next uint16) {
	return emu.Cpu.Disassemble(pc, emu.Symbols)
}

// IsBreakpoint reports whether err is a breakpoint stop.
func IsBreakpoint(err error) (bp *ErrBreakpoint, ok bool) {
	ok = errors.As(err, &bp)
	return
}
