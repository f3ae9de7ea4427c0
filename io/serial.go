package io

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/sim51/cpu"
)

// SERIAL_QUEUE_SIZE is the number of received bytes a Serial buffers.
const SERIAL_QUEUE_SIZE = 256

// Serial is the on-chip UART as seen from the host. Bytes the program
// stores into SBUF are written to Output. Bytes written to the Serial are
// queued, and handed to the program one at a time through SBUF and RI.
type Serial struct {
	Output  io.Writer
	Verbose bool

	mcu   *cpu.Cpu
	once  sync.Once
	rx    chan byte
	latch uint8
}

var _ Device = (*Serial)(nil)
var _ cpu.SFRHook = (*Serial)(nil)
var _ io.Writer = (*Serial)(nil)

func (sp *Serial) queue() chan byte {
	sp.once.Do(func() {
		sp.rx = make(chan byte, SERIAL_QUEUE_SIZE)
	})
	return sp.rx
}

// Attach hooks SBUF of the CPU.
func (sp *Serial) Attach(mcu *cpu.Cpu) (err error) {
	err = mcu.Hook(mcu.SBUF.Addr, sp)
	if err != nil {
		return
	}
	sp.mcu = mcu
	return
}

// Write queues host input for the program. It never blocks; when the queue
// is full the remaining bytes are refused with ErrChannelFull.
// Safe for use from any goroutine.
func (sp *Serial) Write(p []byte) (n int, err error) {
	rx := sp.queue()
	for _, b := range p {
		select {
		case rx <- b:
			n++
		default:
			err = ErrChannelFull
			return
		}
	}
	return
}

// Pending returns the number of queued input bytes.
func (sp *Serial) Pending() int {
	return len(sp.queue())
}

// Poll moves one queued byte into the receive latch when the receiver is
// enabled and RI is clear. Input arriving while REN is clear is dropped.
func (sp *Serial) Poll() {
	if sp.mcu == nil {
		return
	}

	rx := sp.queue()
	scon := sp.mcu.SCON

	if !scon.Flag(cpu.SCON_REN) {
		for {
			select {
			case <-rx:
			default:
				return
			}
		}
	}

	if scon.Flag(cpu.SCON_RI) {
		return
	}

	select {
	case b := <-rx:
		sp.latch = b
		scon.SetFlag(cpu.SCON_RI, true)
	default:
	}
}

// ReadSFR returns the received byte.
func (sp *Serial) ReadSFR(reg *cpu.Register) uint8 {
	return sp.latch
}

// WriteSFR transmits value and raises TI.
func (sp *Serial) WriteSFR(reg *cpu.Register, value uint8) {
	reg.Set(value)

	if sp.Output != nil {
		_, err := sp.Output.Write([]byte{value})
		if err != nil {
			logrus.WithError(err).Warn("serial: output")
		}
	}
	if sp.Verbose {
		logrus.WithField("byte", value).Debug("serial: transmit")
	}

	sp.mcu.SCON.SetFlag(cpu.SCON_TI, true)
}
