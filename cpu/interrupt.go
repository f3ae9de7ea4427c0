package cpu

import (
	"github.com/sirupsen/logrus"
)

// Level is the priority of the interrupt handler currently executing.
type Level int8

//go:generate go tool stringer -linecomment -type=Level
const (
	LEVEL_IDLE = Level(-1) // idle
	LEVEL_LOW  = Level(0)  // low
	LEVEL_HIGH = Level(1)  // high
)

// Source describes one interrupt source by the bit numbers of its flags.
type Source struct {
	Name     string
	Pending  uint8 // Request flag.
	Enable   uint8 // Per source enable flag in IE.
	Priority uint8 // Priority select flag in IP.
	Vector   uint16
}

// BIT_EA is the global interrupt enable.
const BIT_EA = 0xAF

// Sources is the fixed polling order of the 8052 interrupt sources. The
// serial and timer 2 sources share their vectors.
var Sources = [...]Source{
	{"IE0", 0x89, 0xA8, 0xB8, VECTOR_IE0},
	{"TF0", 0x8D, 0xA9, 0xB9, VECTOR_TF0},
	{"IE1", 0x8B, 0xAA, 0xBA, VECTOR_IE1},
	{"TF1", 0x8F, 0xAB, 0xBB, VECTOR_TF1},
	{"RI", 0x98, 0xAC, 0xBC, VECTOR_SER},
	{"TI", 0x99, 0xAC, 0xBC, VECTOR_SER},
	{"TF2", 0xCF, 0xAD, 0xBD, VECTOR_TF2},
	{"EXF2", 0xCE, 0xAD, 0xBD, VECTOR_TF2},
}

// arbitrate services the highest priority pending interrupt that may
// preempt the running level. It returns true when PC was vectored.
func (cpu *Cpu) arbitrate() (taken bool) {
	cpu.Recheck = false

	if !cpu.GetBit(BIT_EA) {
		return
	}

	for _, level := range []Level{LEVEL_HIGH, LEVEL_LOW} {
		if level <= cpu.Ipl {
			break
		}
		for _, src := range Sources {
			if cpu.GetBit(src.Priority) != (level == LEVEL_HIGH) {
				continue
			}
			if !cpu.GetBit(src.Pending) || !cpu.GetBit(src.Enable) {
				continue
			}

			if cpu.Verbose {
				logrus.WithFields(logrus.Fields{
					"source": src.Name,
					"vector": src.Vector,
					"level":  level.String(),
					"pc":     cpu.PC,
				}).Debug("cpu: interrupt")
			}

			cpu.PushPC()
			cpu.PC = src.Vector
			cpu.Ipl = level
			taken = true
			return
		}
	}

	return
}

// returnFromInterrupt drops the running level by one, never below idle.
// Sources held off by the old level are arbitrated again.
func (cpu *Cpu) returnFromInterrupt() {
	if cpu.Ipl > LEVEL_IDLE {
		cpu.Ipl--
	}
	cpu.Recheck = true
}
