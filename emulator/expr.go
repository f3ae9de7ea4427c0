package emulator

import (
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// predeclared binds every symbol and the main registers for Eval.
func (emu *Emulator) predeclared() (pred starlark.StringDict) {
	pred = starlark.StringDict{}
	for name, sym := range emu.Symbols.All() {
		if _, ok := pred[name]; ok {
			continue
		}
		pred[name] = starlark.MakeInt(int(sym.Addr))
	}

	regs := map[string]int{
		"PC":   int(emu.Cpu.PC),
		"A":    int(emu.Cpu.ACC.Get()),
		"B":    int(emu.Cpu.B.Get()),
		"SP":   int(emu.Cpu.SP.Get()),
		"DPTR": int(emu.Cpu.DPTR()),
	}
	for n := range 8 {
		regs["R"+strconv.Itoa(n)] = int(emu.Cpu.R(n))
	}
	for name, value := range regs {
		pred[name] = starlark.MakeInt(value)
	}

	return
}

// Eval resolves an address: pc, a bare hexadecimal number, or an
// expression over symbol names and the registers PC, A, B, SP, DPTR and
// R0 through R7.
func (emu *Emulator) Eval(expr string) (addr uint16, err error) {
	expr = strings.TrimSpace(expr)
	if strings.EqualFold(expr, "pc") {
		addr = emu.Cpu.PC
		return
	}

	if value, perr := strconv.ParseUint(strings.TrimSuffix(strings.ToUpper(expr), "H"), 16, 16); perr == nil {
		addr = uint16(value)
		return
	}

	thread := starlark.Thread{Name: "eval"}
	opts := syntax.FileOptions{}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, emu.predeclared())
	if err != nil {
		return
	}

	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 < 0 || st_int64 > 0xFFFF {
		err = ErrExpression(expr)
		return
	}

	addr = uint16(st_int64)
	return
}
