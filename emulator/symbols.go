package emulator

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"iter"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/sim51/cpu"
	"github.com/ezrec/sim51/internal"
)

// Symbol address spaces.
const (
	SPACE_DATA   = 'd' // Direct addresses.
	SPACE_CODE   = 'c' // Program memory.
	SPACE_BIT    = 'b' // Bit numbers.
	SPACE_NUMBER = 'n' // Plain numbers.
	SPACE_XDATA  = 'x' // External data memory.
)

// Spaces lists the symbol spaces in lookup order.
var Spaces = []rune{SPACE_DATA, SPACE_CODE, SPACE_BIT, SPACE_NUMBER, SPACE_XDATA}

// CLOSEST_RANGE is the largest offset from a symbol that Closest accepts.
const CLOSEST_RANGE = 0x80

// Symbol is one entry of an assembler symbol table.
type Symbol struct {
	Name   string
	Space  rune
	Type   string
	Addr   uint16
	LineNo int // Source line, when the listing has one.
}

// Symbols is a symbol table keyed by space and name.
type Symbols struct {
	spaces map[rune]map[string]Symbol
}

var _ cpu.Namer = (*Symbols)(nil)

// NewSymbols returns an empty table.
func NewSymbols() (syms *Symbols) {
	syms = &Symbols{spaces: map[rune]map[string]Symbol{}}
	for _, space := range Spaces {
		syms.spaces[space] = map[string]Symbol{}
	}
	return
}

// Declare adds the SFR and SFR bit names of mcu.
func (syms *Symbols) Declare(mcu *cpu.Cpu) {
	for name, reg := range mcu.SFRs() {
		syms.Add(Symbol{Name: name, Space: SPACE_DATA, Type: "SFR", Addr: uint16(reg.Addr)})
		if reg.Addr&0x07 != 0 {
			continue
		}
		for _, bit := range reg.Bits {
			syms.Add(Symbol{Name: bit.Name, Space: SPACE_BIT, Type: "BIT", Addr: uint16(bit.Addr)})
		}
	}
}

// Add inserts or replaces a symbol.
func (syms *Symbols) Add(sym Symbol) {
	space, ok := syms.spaces[sym.Space]
	if !ok {
		space = map[string]Symbol{}
		syms.spaces[sym.Space] = space
	}
	space[sym.Name] = sym
}

// Lookup finds a symbol by name, searching the spaces in order.
func (syms *Symbols) Lookup(name string) (sym Symbol, ok bool) {
	for _, space := range Spaces {
		sym, ok = syms.spaces[space][name]
		if ok {
			return
		}
	}
	return
}

// Space iterates the symbols of one space, in name order.
func (syms *Symbols) Space(space rune) iter.Seq2[string, Symbol] {
	return func(yield func(string, Symbol) bool) {
		table := syms.spaces[space]
		for _, name := range slices.Sorted(maps.Keys(table)) {
			if !yield(name, table[name]) {
				return
			}
		}
	}
}

// All iterates every symbol, space by space.
func (syms *Symbols) All() iter.Seq2[string, Symbol] {
	var seqs []iter.Seq2[string, Symbol]
	for _, space := range Spaces {
		seqs = append(seqs, syms.Space(space))
	}
	return internal.IterSeq2Concat(seqs...)
}

// Len returns the number of symbols.
func (syms *Symbols) Len() (n int) {
	for _, table := range syms.spaces {
		n += len(table)
	}
	return
}

// Closest finds the symbol at or below addr, within CLOSEST_RANGE.
func (syms *Symbols) Closest(space rune, addr uint16) (sym Symbol, offset uint16, ok bool) {
	for _, candidate := range syms.spaces[space] {
		if candidate.Addr > addr {
			continue
		}
		delta := addr - candidate.Addr
		if delta >= CLOSEST_RANGE {
			continue
		}
		if ok && (delta > offset || (delta == offset && cmp.Less(sym.Name, candidate.Name))) {
			continue
		}
		sym, offset, ok = candidate, delta, true
	}
	return
}

func hexWidth(space rune) string {
	if space == SPACE_CODE || space == SPACE_XDATA {
		return "%04X"
	}
	return "%02X"
}

// Display renders an address as NAME+off=addr against the closest symbol,
// or as addrH when none is in range.
func (syms *Symbols) Display(space rune, addr uint16) string {
	format := hexWidth(space)
	sym, offset, ok := syms.Closest(space, addr)
	if !ok {
		return fmt.Sprintf(format+"H", addr)
	}
	text := sym.Name
	if offset != 0 {
		text += "+" + fmt.Sprintf(format, offset)
	}
	return text + "=" + fmt.Sprintf(format, addr)
}

// Name implements cpu.Namer. Code addresses render as Display does; data
// and bit addresses render only on an exact match.
func (syms *Symbols) Name(space rune, addr uint16) string {
	switch space {
	case cpu.SPACE_CODE:
		if _, _, ok := syms.Closest(SPACE_CODE, addr); ok {
			return syms.Display(SPACE_CODE, addr)
		}
	case cpu.SPACE_DATA, cpu.SPACE_BIT:
		sym, offset, ok := syms.Closest(space, addr)
		if ok && offset == 0 {
			return sym.Name
		}
	}
	return ""
}

const (
	lstHeader1 = "N A M E      T Y P E   V A L U E       A T T R I B U T E S"
)

var (
	lstHeader2 = regexp.MustCompile(`^SYMBOL\s+TYPE\s+VALUE\s+LINE\s*$`)
	lstRule    = regexp.MustCompile(`^-+\s*$`)
	lstEntry2  = regexp.MustCompile(`(\w+)\s+(\w+)\s+([0-9A-F]+)(?:\s+(\d+)\s*)?`)
)

// column returns the trimmed text of line[from:to], clipped to the line.
func column(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[from:min(to, len(line))])
}

func parseHex(text string) (value uint16, err error) {
	text = strings.TrimSuffix(strings.ToUpper(text), "H")
	v, err := strconv.ParseUint(text, 16, 16)
	value = uint16(v)
	return
}

// bitNumber converts a byte address and bit index to a bit number.
// Only the bit addressable RAM bytes and SFRs on a multiple of 8 have bits.
func bitNumber(addr uint16, bit uint16) (uint16, error) {
	switch {
	case addr >= cpu.SFR_BASE && addr <= 0xFF && addr&7 == 0:
		return addr | bit&7, nil
	case addr >= cpu.BIT_BASE && addr < cpu.BIT_BASE+0x10:
		return (addr-cpu.BIT_BASE)<<3 | bit&7, nil
	}
	return 0, fmt.Errorf("%w: %04XH.%d", ErrBitAddress, addr, bit)
}

// parseFixed reads one line of a fixed column listing:
//
//	ACC . . . .  D ADDR    00E0H   A
func parseFixed(line string) (sym Symbol, ok bool, err error) {
	name := column(line, 0, 12)
	if i := strings.IndexAny(name, ". \t"); i >= 0 {
		name = name[:i]
	}
	space := strings.ToLower(column(line, 13, 14))
	if space == "" {
		space = "n"
	}
	kind := column(line, 15, 22)
	value := column(line, 23, 30)

	if name == "" || (kind != "NUMB" && kind != "ADDR") {
		return
	}

	sym = Symbol{Name: name, Space: rune(space[0]), Type: kind}
	byteAddr, bit, isBit := strings.Cut(value, ".")
	sym.Addr, err = parseHex(byteAddr)
	if err != nil {
		return
	}
	if isBit {
		var n uint64
		n, err = strconv.ParseUint(bit, 10, 3)
		if err != nil {
			return
		}
		sym.Addr, err = bitNumber(sym.Addr, uint16(n))
		if err != nil {
			return
		}
	}

	ok = true
	return
}

// parseTabular reads one line of a tabular listing:
//
//	AABS         CODE      139C    4795
func parseTabular(line string) (sym Symbol, ok bool, err error) {
	match := lstEntry2.FindStringSubmatch(line)
	if match == nil {
		return
	}

	sym = Symbol{Name: match[1], Type: match[2]}
	switch match[2] {
	case "CODE":
		sym.Space = SPACE_CODE
	case "NUMBER", "DATA":
		sym.Space = SPACE_DATA
	case "XDATA":
		sym.Space = SPACE_XDATA
	case "BIT":
		sym.Space = SPACE_BIT
	default:
		logrus.WithField("line", line).Warn("symbols: unrecognized entry")
		return
	}

	sym.Addr, err = parseHex(match[3])
	if err != nil {
		return
	}
	if match[4] != "" {
		sym.LineNo, err = strconv.Atoi(match[4])
		if err != nil {
			return
		}
	}

	ok = true
	return
}

// Parse loads the symbol table section of an assembler listing. Both the
// fixed column (NAME TYPE VALUE ATTRIBUTES) and the tabular (SYMBOL TYPE
// VALUE LINE) layouts are understood. Page headings are skipped.
func (syms *Symbols) Parse(r io.Reader) (count int, err error) {
	type layout int
	const (
		NONE = layout(iota)
		FIXED
		TABULAR
	)

	format := NONE
	heading := false

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r")

		switch format {
		case NONE:
			switch {
			case strings.HasPrefix(line, lstHeader1):
				format = FIXED
			case lstHeader2.MatchString(line):
				format = TABULAR
				heading = true
			}
			continue
		case FIXED:
			if strings.HasPrefix(line, "\f") || strings.HasPrefix(line, lstHeader1) {
				continue
			}
		case TABULAR:
			if strings.HasPrefix(line, "\f") {
				heading = true
				continue
			}
			if heading {
				heading = !lstRule.MatchString(line)
				continue
			}
		}

		var sym Symbol
		var ok bool
		if format == FIXED {
			sym, ok, err = parseFixed(line)
		} else {
			sym, ok, err = parseTabular(line)
		}
		if err != nil {
			err = &ErrSymbolLine{LineNo: lineno, Err: err}
			return
		}
		if ok {
			syms.Add(sym)
			count++
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if format == NONE {
		err = ErrSymbolFormat
	}

	return
}
