package emulator

import (
	"fmt"
	"iter"
	"strings"

	"github.com/ezrec/sim51/cpu"
)

// HISTORY_SIZE is the depth of the fetch and branch history rings.
const HISTORY_SIZE = 256

// Ring keeps the most recent HISTORY_SIZE entries pushed to it.
type Ring[T any] struct {
	entries [HISTORY_SIZE]T
	next    int
	count   int
}

// Push records an entry, discarding the oldest when full.
func (ring *Ring[T]) Push(value T) {
	ring.entries[ring.next] = value
	ring.next = (ring.next + 1) % HISTORY_SIZE
	ring.count = min(ring.count+1, HISTORY_SIZE)
}

// Len returns the number of recorded entries.
func (ring *Ring[T]) Len() int {
	return ring.count
}

// Reset discards all entries.
func (ring *Ring[T]) Reset() {
	ring.next = 0
	ring.count = 0
}

// All yields the entries oldest first, with their age; the newest entry
// has age 0.
func (ring *Ring[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for age := ring.count - 1; age >= 0; age-- {
			x := (ring.next - 1 - age + HISTORY_SIZE) % HISTORY_SIZE
			if !yield(age, ring.entries[x]) {
				return
			}
		}
	}
}

// State is the register snapshot kept with each branch.
type State struct {
	A, B, SP, PSW uint8
	CY, OV, AC    bool
	DPTR          uint16
	Regs          [8]uint8
}

// Capture snapshots the registers of mcu.
func Capture(mcu *cpu.Cpu) (state State) {
	state = State{
		A:    mcu.ACC.Get(),
		B:    mcu.B.Get(),
		SP:   mcu.SP.Get(),
		PSW:  mcu.PSW.Get(),
		CY:   mcu.PSW.Flag(cpu.PSW_CY),
		OV:   mcu.PSW.Flag(cpu.PSW_OV),
		AC:   mcu.PSW.Flag(cpu.PSW_AC),
		DPTR: mcu.DPTR(),
	}
	for n := range state.Regs {
		state.Regs[n] = mcu.R(n)
	}
	return
}

// String renders the state on one line:
//
//	A=XX B=XX SP=XX PSW=XX CoA DPTR=XXXX R:XX XX XX XX  XX XX XX XX
func (state State) String() string {
	flag := func(on bool, name byte) byte {
		if on {
			return name
		}
		return name + 'a' - 'A'
	}

	var regs strings.Builder
	for n, r := range state.Regs {
		if n == 4 {
			regs.WriteByte(' ')
		}
		if n > 0 {
			regs.WriteByte(' ')
		}
		fmt.Fprintf(&regs, "%02X", r)
	}

	return fmt.Sprintf("A=%02X B=%02X SP=%02X PSW=%02X %c%c%c DPTR=%04X R:%v",
		state.A, state.B, state.SP, state.PSW,
		flag(state.CY, 'C'), flag(state.OV, 'O'), flag(state.AC, 'A'),
		state.DPTR, regs.String())
}

// Branch is a recorded change of flow.
type Branch struct {
	From  uint16
	To    uint16
	Name  string // Mnemonic, INT for interrupts, or the command that moved PC.
	State State  // Registers after the branch.
}
