package ihex

import (
	"errors"

	"github.com/ezrec/sim51/translate"
)

var f = translate.From

var (
	ErrRecordStart    = errors.New(f("record start code missing"))
	ErrRecordHex      = errors.New(f("record is not hexadecimal"))
	ErrRecordLength   = errors.New(f("record length mismatch"))
	ErrRecordChecksum = errors.New(f("record checksum mismatch"))
	ErrRecordType     = errors.New(f("record type unknown"))
	ErrEOFMissing     = errors.New(f("end of file record missing"))
	ErrImageRange     = errors.New(f("image outside of memory"))
)

// ErrRecord locates a parse failure.
type ErrRecord struct {
	Line int
	Err  error
}

func (err ErrRecord) Error() string {
	return f("line %d: %v", err.Line, err.Err)
}

func (err ErrRecord) Unwrap() error {
	return err.Err
}
