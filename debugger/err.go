package debugger

import (
	"errors"

	"github.com/ezrec/sim51/translate"
)

var f = translate.From

var (
	ErrQuit = errors.New(f("quit"))
)

// ErrUsage is a command line that could not be carried out.
type ErrUsage string

func (err ErrUsage) Error() string {
	return string(err)
}
