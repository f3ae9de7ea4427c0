// Package io provides the host side peripherals of the simulated 8052.
// A Device hooks one or more SFRs of the CPU and is polled between
// instructions to move host input into the CPU.
package io

import (
	"github.com/ezrec/sim51/cpu"
)

// Device defines the interface for all host peripherals.
type Device interface {
	// Attach binds the device to the SFRs of a CPU.
	Attach(mcu *cpu.Cpu) error
	// Poll delivers pending host input. Called from the CPU goroutine.
	Poll()
}
