package cpu

import (
	"errors"

	"github.com/ezrec/sim51/translate"
)

var f = translate.From

var (
	// Register model errors
	ErrSfrAddress   = errors.New(f("sfr address out of range"))
	ErrSfrBits      = errors.New(f("sfr bit list invalid"))
	ErrSfrUnknown   = errors.New(f("sfr unknown"))
	ErrBitUnknown   = errors.New(f("bit unknown"))
	ErrOpcodeTable  = errors.New(f("opcode table invalid"))
	ErrHookConflict = errors.New(f("sfr already hooked"))
)

// ErrSfrDuplicate is returned when an SFR name or address is declared twice.
type ErrSfrDuplicate struct {
	Name string
	Addr uint8
}

func (err ErrSfrDuplicate) Error() string {
	return f("sfr %v at 0x%02x duplicated", err.Name, err.Addr)
}

// ErrOpcodeMissing marks an opcode table entry that no builder filled.
type ErrOpcodeMissing uint8

func (err ErrOpcodeMissing) Error() string {
	return f("opcode 0x%02x missing", uint8(err))
}

func (err ErrOpcodeMissing) Unwrap() error {
	return ErrOpcodeTable
}

// ErrOpcodeDuplicate marks an opcode table entry filled more than once.
type ErrOpcodeDuplicate struct {
	Opcode   uint8
	Mnemonic string
	Existing string
}

func (err ErrOpcodeDuplicate) Error() string {
	return f("opcode 0x%02x %v already assigned to %v", err.Opcode, err.Mnemonic, err.Existing)
}

func (err ErrOpcodeDuplicate) Unwrap() error {
	return ErrOpcodeTable
}
