// Package debugger is the interactive command interpreter of the simulator.
package debugger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ezrec/sim51/emulator"
)

// Console is the user side of a run. Start is called before the emulator
// runs; the returned context is cancelled when the user interrupts, and
// stop is called when the run ends.
type Console interface {
	Start(ctx context.Context) (run context.Context, stop func())
}

// LineReader supplies command lines.
type LineReader interface {
	ReadLine(prompt string) (line string, err error)
}

// Debugger drives an emulator from text commands.
type Debugger struct {
	Emu     *emulator.Emulator
	Output  io.Writer
	Console Console // Optional.

	lastLine string
	lastX    uint16
	listNext uint16
	dumpLen  int
}

// New returns a debugger writing to output.
func New(emu *emulator.Emulator, output io.Writer) *Debugger {
	return &Debugger{
		Emu:     emu,
		Output:  output,
		dumpLen: 0x10,
	}
}

func (d *Debugger) printf(format string, args ...any) {
	fmt.Fprintf(d.Output, format, args...)
}

// Listing renders the instruction at pc with its address and bytes.
func (d *Debugger) Listing(pc uint16) (line string, next uint16) {
	text, next := d.Emu.Disassemble(pc)

	raw := make([]string, 0, 3)
	for addr := pc; addr != next; addr++ {
		raw = append(raw, fmt.Sprintf("%02X", d.Emu.Cpu.Code[addr]))
	}

	head := fmt.Sprintf("%s: %-10s", d.Emu.Display(emulator.SPACE_CODE, pc), strings.Join(raw, " "))
	line = fmt.Sprintf("%-38s %s", head, text)
	return
}

// Prompt shows the next instruction to execute.
func (d *Debugger) Prompt() string {
	line, _ := d.Listing(d.Emu.Cpu.PC)
	return line + " > "
}

// Execute runs one command line. An empty line repeats the previous one.
// Only ErrQuit and context errors are returned; other failures are
// reported on the output.
func (d *Debugger) Execute(ctx context.Context, line string) (err error) {
	words := strings.Fields(line)
	if len(words) == 0 && d.lastLine != "" {
		line = d.lastLine
		words = strings.Fields(line)
	}
	d.lastLine = line

	name := "?"
	if len(words) > 0 {
		name = strings.ToLower(words[0])
		words[0] = name
	}

	cmd, ok := find(name)
	if !ok {
		cmd, _ = find("help")
		words = []string{"help"}
	}

	err = cmd.run(d, ctx, words)
	switch {
	case err == nil:
	case errors.Is(err, ErrQuit), ctx.Err() != nil:
	default:
		d.printf("%v\n", err)
		err = nil
	}
	return
}

// Serve reads and executes commands until quit or end of input.
func (d *Debugger) Serve(ctx context.Context, lines LineReader) (err error) {
	for {
		var line string
		line, err = lines.ReadLine(d.Prompt())
		if errors.Is(err, io.EOF) {
			err = nil
			return
		}
		if err != nil {
			return
		}

		err = d.Execute(ctx, line)
		if errors.Is(err, ErrQuit) {
			err = nil
			return
		}
		if err != nil {
			return
		}
	}
}

// run executes the emulator and reports why it stopped.
func (d *Debugger) run(ctx context.Context, limit int) (err error) {
	runCtx, stop := ctx, func() {}
	if d.Console != nil {
		runCtx, stop = d.Console.Start(ctx)
	}

	start := time.Now()
	count, err := d.Emu.Run(runCtx, limit)
	elapsed := time.Since(start)
	stop()

	bp, atBreak := emulator.IsBreakpoint(err)
	switch {
	case atBreak:
		d.printf("[%s]\n", bp.Message)
	case err != nil && ctx.Err() == nil && runCtx.Err() != nil:
		d.printf("[interrupted]\n")
	case err != nil:
		return
	}
	err = nil

	d.dumpState()

	if limit <= 0 || atBreak {
		rate := 0.0
		if elapsed > 0 {
			rate = float64(count) / elapsed.Seconds()
		}
		d.printf("[Executed %d instructions or %.1f/s]\n", count, rate)
	}

	return
}

type lineReader struct {
	scanner *bufio.Scanner
	prompt  io.Writer
}

// Lines reads command lines from r, writing prompts to w.
func Lines(r io.Reader, w io.Writer) LineReader {
	return &lineReader{scanner: bufio.NewScanner(r), prompt: w}
}

func (lr *lineReader) ReadLine(prompt string) (line string, err error) {
	fmt.Fprint(lr.prompt, prompt)
	if !lr.scanner.Scan() {
		err = lr.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		return
	}
	line = lr.scanner.Text()
	return
}
