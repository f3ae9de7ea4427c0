package debugger

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/ezrec/sim51/cpu"
	"github.com/ezrec/sim51/emulator"
)

type command struct {
	name        string
	description string
	run         func(d *Debugger, ctx context.Context, words []string) error
}

// commands are matched by prefix, in this order.
var commands []command

func init() {
	commands = []command{
		{"dump", "Dump processor state.", (*Debugger).cmdDump},
		{"step", "Single step [n] instructions.", (*Debugger).cmdStep},
		{"go", "Continue execution [at addr].", (*Debugger).cmdGo},
		{"til", "Continue until addr is reached.", (*Debugger).cmdTil},
		{"break", "Set a breakpoint at addr.", (*Debugger).cmdBreak},
		{"blist", "List breakpoints.", (*Debugger).cmdBlist},
		{"unbreak", "Clear the breakpoint at addr.", (*Debugger).cmdUnbreak},
		{"mem", "Dump [n] bytes of external RAM at addr.", (*Debugger).cmdMem},
		{"code", "Dump [n] bytes of code memory at addr.", (*Debugger).cmdCode},
		{"history", "Display the instruction fetch history.", (*Debugger).cmdHistory},
		{"bhistory", "Display the branch history.", (*Debugger).cmdBhistory},
		{"sfr", "Dump [n] bytes of the direct space at addr.", (*Debugger).cmdSfr},
		{"iram", "Dump [n] bytes of internal RAM at addr.", (*Debugger).cmdIram},
		{"list", "Disassemble [n] instructions [at addr].", (*Debugger).cmdList},
		{"over", "Step over the instruction at PC.", (*Debugger).cmdOver},
		{"quit", "Exit the simulator.", (*Debugger).cmdQuit},
		{"debug", "Show debug flags, or set [flag [value]].\nWith no value the flag is toggled.", (*Debugger).cmdDebug},
		{"stats", "Show execution statistics.", (*Debugger).cmdStats},
		{"state", "Pretty print the emulator state.", (*Debugger).cmdState},
		{"help", "Show help [for cmd].", (*Debugger).cmdHelp},
	}
}

func find(name string) (cmd command, ok bool) {
	if name == "" {
		return
	}
	for _, cmd = range commands {
		if strings.HasPrefix(cmd.name, name) {
			ok = true
			return
		}
	}
	return
}

// address parses an address argument: pc, '.' for the last address
// examined, or an expression.
func (d *Debugger) address(word string) (addr uint16, err error) {
	switch strings.ToLower(word) {
	case "pc":
		addr = d.Emu.Cpu.PC
	case ".":
		addr = d.lastX
	default:
		addr, err = d.Emu.Eval(word)
	}
	return
}

func (d *Debugger) dumpState() {
	mcu := d.Emu.Cpu
	bit := func(on bool) int {
		if on {
			return 1
		}
		return 0
	}

	d.printf(" a=%02X   b=%02X  cy=%d ov=%d ac=%d  sp=%02X psw=%02X  dptr=%04X  pc=%s\n",
		mcu.ACC.Get(), mcu.B.Get(),
		bit(mcu.PSW.Flag(cpu.PSW_CY)), bit(mcu.PSW.Flag(cpu.PSW_OV)), bit(mcu.PSW.Flag(cpu.PSW_AC)),
		mcu.SP.Get(), mcu.PSW.Get(), mcu.DPTR(), d.Emu.Display(emulator.SPACE_CODE, mcu.PC))

	regs := make([]string, 8)
	for n := range regs {
		regs[n] = fmt.Sprintf("r%d=%02X", n, mcu.R(n))
	}
	d.printf("%s\n", strings.Join(regs, "  "))
}

func (d *Debugger) cmdDump(ctx context.Context, words []string) error {
	d.dumpState()
	return nil
}

func (d *Debugger) cmdStep(ctx context.Context, words []string) (err error) {
	count := 1
	if len(words) > 1 {
		count, err = strconv.Atoi(words[1])
		if err != nil || count < 1 {
			return ErrUsage(f("Step count must be a positive number"))
		}
	}
	return d.run(ctx, count)
}

func (d *Debugger) cmdGo(ctx context.Context, words []string) (err error) {
	if len(words) > 1 {
		var addr uint16
		addr, err = d.address(words[1])
		if err != nil {
			return
		}
		d.Emu.Jump(addr, "go")
	}
	return d.run(ctx, 0)
}

func (d *Debugger) cmdTil(ctx context.Context, words []string) (err error) {
	if len(words) != 2 {
		return ErrUsage(f("Must specify an address to go Til"))
	}
	addr, err := d.address(words[1])
	if err != nil {
		return
	}

	where := d.Emu.Display(emulator.SPACE_CODE, addr)
	d.Emu.SetBreakpoint(addr, "now at "+where, true)
	d.printf("[Running until %s]\n", where)
	return d.run(ctx, 0)
}

func (d *Debugger) cmdBreak(ctx context.Context, words []string) (err error) {
	if len(words) != 2 {
		return ErrUsage(f("Must specify an address for breakpoint"))
	}
	addr, err := d.address(words[1])
	if err != nil {
		return
	}
	d.Emu.SetBreakpoint(addr, "breakpoint at "+d.Emu.Display(emulator.SPACE_CODE, addr), false)
	return
}

func (d *Debugger) cmdBlist(ctx context.Context, words []string) error {
	bps := slices.Collect(d.Emu.Breakpoints())
	if len(bps) == 0 {
		d.printf("No breakpoints\n")
		return nil
	}

	width := 0
	for _, bp := range bps {
		width = max(width, len(d.Emu.Display(emulator.SPACE_CODE, bp.Addr)))
	}

	d.printf("Current Breakpoints:\n")
	for n, bp := range bps {
		transient := ""
		if bp.Transient {
			transient = " [transient]"
		}
		d.printf("%3s] %*s: %s%s\n", fmt.Sprintf("[%d", n+1), width,
			d.Emu.Display(emulator.SPACE_CODE, bp.Addr), bp.Message, transient)
	}
	d.printf("\n")
	return nil
}

func (d *Debugger) cmdUnbreak(ctx context.Context, words []string) (err error) {
	if len(words) != 2 {
		return ErrUsage(f("Must specify an address to clear breakpoint"))
	}
	addr, err := d.address(words[1])
	if err != nil {
		return
	}
	if !d.Emu.ClearBreakpoint(addr) {
		d.printf("No breakpoint at %s\n", d.Emu.Display(emulator.SPACE_CODE, addr))
	}
	return
}

// dumpMem prints size bytes of a memory space, 16 to a line. With no
// address it continues after the previous dump.
func (d *Debugger) dumpMem(words []string, space rune, size int, read func(addr int) uint8) (err error) {
	start := int(d.lastX) + d.dumpLen
	length := d.dumpLen
	if len(words) > 1 {
		var addr uint16
		addr, err = d.address(words[1])
		if err != nil {
			return
		}
		start = int(addr)
		length = 1
	}
	if len(words) > 2 {
		var n uint64
		n, err = strconv.ParseUint(strings.TrimSuffix(strings.ToUpper(words[2]), "H"), 16, 16)
		if err != nil || n == 0 {
			return ErrUsage(f("Byte count must be a hex number"))
		}
		length = int(n)
	}

	start %= size
	end := min(start+length, size)
	d.lastX = uint16(start)
	d.dumpLen = end - start

	width := 0
	for x := start; x < end; x += 16 {
		width = max(width, len(d.Emu.Display(space, uint16(x))))
	}

	for x := start; x < end; {
		var line strings.Builder
		fmt.Fprintf(&line, "%*s:", width, d.Emu.Display(space, uint16(x)))
		for n := 0; n < 16 && x < end; n, x = n+1, x+1 {
			if n&7 == 0 {
				line.WriteByte(' ')
			}
			fmt.Fprintf(&line, " %02X", read(x))
		}
		d.printf("%s\n", line.String())
	}
	return
}

func (d *Debugger) cmdMem(ctx context.Context, words []string) error {
	return d.dumpMem(words, emulator.SPACE_XDATA, cpu.XRAM_SIZE, func(addr int) uint8 {
		return d.Emu.Cpu.Xram[addr]
	})
}

func (d *Debugger) cmdCode(ctx context.Context, words []string) error {
	return d.dumpMem(words, emulator.SPACE_CODE, cpu.CODE_SIZE, func(addr int) uint8 {
		return d.Emu.Cpu.Code[addr]
	})
}

func (d *Debugger) cmdSfr(ctx context.Context, words []string) error {
	return d.dumpMem(words, emulator.SPACE_DATA, 0x100, func(addr int) uint8 {
		return d.Emu.Cpu.Direct(uint8(addr))
	})
}

func (d *Debugger) cmdIram(ctx context.Context, words []string) error {
	return d.dumpMem(words, emulator.SPACE_DATA, cpu.IRAM_SIZE, func(addr int) uint8 {
		return d.Emu.Cpu.Iram[addr]
	})
}

func (d *Debugger) cmdHistory(ctx context.Context, words []string) error {
	d.printf("Fetch history (oldest first):\n")
	for age, pc := range d.Emu.Fetches.All() {
		d.printf("-%04X: %s\n", age, d.Emu.Display(emulator.SPACE_CODE, pc))
	}
	d.printf("\n")
	return nil
}

func (d *Debugger) cmdBhistory(ctx context.Context, words []string) error {
	fromWidth, toWidth := 0, 0
	for _, br := range d.Emu.Branches.All() {
		fromWidth = max(fromWidth, len(d.Emu.Display(emulator.SPACE_CODE, br.From)))
		toWidth = max(toWidth, len(d.Emu.Display(emulator.SPACE_CODE, br.To)))
	}

	d.printf("Branch history (oldest first):\n")
	for _, br := range d.Emu.Branches.All() {
		d.printf("%*s: %-5s %-*s %v\n",
			fromWidth, d.Emu.Display(emulator.SPACE_CODE, br.From),
			br.Name,
			toWidth, d.Emu.Display(emulator.SPACE_CODE, br.To),
			br.State)
	}
	d.printf("\n")
	return nil
}

func (d *Debugger) cmdList(ctx context.Context, words []string) (err error) {
	pc := d.listNext
	count := 10
	if len(words) > 1 {
		pc, err = d.address(words[1])
		if err != nil {
			return
		}
	}
	if len(words) > 2 {
		count, err = strconv.Atoi(words[2])
		if err != nil || count < 1 {
			return ErrUsage(f("Instruction count must be a positive number"))
		}
	}

	d.lastX = pc
	for range count {
		var line string
		line, pc = d.Listing(pc)
		d.printf("%s\n", line)
	}
	d.listNext = pc
	return
}

func (d *Debugger) cmdOver(ctx context.Context, words []string) error {
	d.Emu.StepOver()
	return d.run(ctx, 0)
}

func (d *Debugger) cmdQuit(ctx context.Context, words []string) error {
	d.printf("[Exiting]\n")
	return ErrQuit
}

type debugFlag struct {
	name string
	get  func(d *Debugger) bool
	set  func(d *Debugger, on bool)
}

var debugFlags = []debugFlag{
	{
		name: "verbose",
		get:  func(d *Debugger) bool { return d.Emu.Verbose },
		set:  func(d *Debugger, on bool) { d.Emu.Verbose = on },
	},
	{
		name: "trace",
		get:  func(d *Debugger) bool { return d.Emu.Trace != nil },
		set: func(d *Debugger, on bool) {
			var trace io.Writer
			if on {
				trace = d.Output
			}
			d.Emu.Trace = trace
		},
	},
	{
		name: "serial",
		get:  func(d *Debugger) bool { return d.Emu.Serial.Verbose },
		set:  func(d *Debugger, on bool) { d.Emu.Serial.Verbose = on },
	},
}

func (d *Debugger) cmdDebug(ctx context.Context, words []string) (err error) {
	if len(words) < 2 {
		width := 0
		for _, flag := range debugFlags {
			width = max(width, len(flag.name))
		}
		d.printf("\nCurrent debug flags and their values:\n")
		for _, flag := range debugFlags {
			d.printf("  %*s: %v\n", width, flag.name, flag.get(d))
		}
		d.printf("\n")
		return
	}

	index := slices.IndexFunc(debugFlags, func(flag debugFlag) bool {
		return flag.name == strings.ToLower(words[1])
	})
	if index < 0 {
		return ErrUsage(f("Unknown debug flag '%s'.", words[1]))
	}
	flag := debugFlags[index]

	on := !flag.get(d)
	if len(words) > 2 {
		on, err = strconv.ParseBool(words[2])
		if err != nil {
			return ErrUsage(f("Debug flag value '%s' is not a boolean.", words[2]))
		}
	}
	flag.set(d, on)
	d.printf("%s is now %v.\n", flag.name, on)
	return
}

func (d *Debugger) cmdStats(ctx context.Context, words []string) error {
	d.printf("Instructions executed: %d\n", d.Emu.Executed)
	d.printf("Average rate: %.1f/s\n", d.Emu.Rate())
	return nil
}

type snapshot struct {
	PC          string
	Level       string
	Registers   emulator.State
	Breakpoints []string
	Executed    int
}

func (d *Debugger) cmdState(ctx context.Context, words []string) error {
	snap := snapshot{
		PC:        d.Emu.Display(emulator.SPACE_CODE, d.Emu.Cpu.PC),
		Level:     d.Emu.Cpu.Ipl.String(),
		Registers: emulator.Capture(d.Emu.Cpu),
		Executed:  d.Emu.Executed,
	}
	for bp := range d.Emu.Breakpoints() {
		snap.Breakpoints = append(snap.Breakpoints, bp.Message)
	}

	printer := pp.New()
	printer.SetColoringEnabled(false)
	_, err := printer.Fprintln(d.Output, snap)
	return err
}

func (d *Debugger) cmdHelp(ctx context.Context, words []string) error {
	if len(words) > 1 {
		cmd, ok := find(strings.ToLower(words[1]))
		if !ok {
			return ErrUsage(f("Unknown command %s", words[1]))
		}
		d.printf("%s: %s\n", cmd.name, cmd.description)
		return nil
	}

	width := 0
	for _, cmd := range commands {
		width = max(width, len(cmd.name))
	}

	d.printf("\nCommands:\n")
	for _, cmd := range commands {
		lines := strings.Split(cmd.description, "\n")
		d.printf("%*s: %s\n", width, cmd.name, lines[0])
		for _, line := range lines[1:] {
			d.printf("%*s  %s\n", width, "", line)
		}
	}
	d.printf("\n")
	return nil
}
