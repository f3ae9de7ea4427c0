package emulator

import (
	"errors"

	"github.com/ezrec/sim51/translate"
)

var f = translate.From

var (
	ErrSymbolFormat = errors.New(f("symbol table format not recognized"))
	ErrBitAddress   = errors.New(f("byte address has no addressable bits"))
)

// ErrBreakpoint reports a stop at a breakpoint.
type ErrBreakpoint struct {
	Addr    uint16
	Message string
}

func (err *ErrBreakpoint) Error() string {
	return err.Message
}

// ErrExpression reports an address expression that could not be evaluated.
type ErrExpression string

func (err ErrExpression) Error() string {
	return f("expression %v not an address", string(err))
}

// ErrSymbolLine locates a symbol table line that could not be parsed.
type ErrSymbolLine struct {
	LineNo int
	Err    error
}

func (err *ErrSymbolLine) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrSymbolLine) Unwrap() error {
	return err.Err
}
