// Package cpu implements an instruction-level model of the MCS-51/8052
// microcontroller.
//
// The CPU owns three flat memory spaces (code, internal RAM and external
// RAM), a set of special function registers (SFRs) mapped at 0x80-0xFF of
// the direct address space, and a two level interrupt arbiter. Instructions
// are dispatched through a 256 entry opcode table that is built once and
// shared by every Cpu instance.
//
// Step executes exactly one instruction. There is no cycle accounting; hosts
// model peripherals by reading and writing SFRs between steps, or by
// installing an SFRHook on an SFR address.
package cpu
