package console

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// INTERRUPT_KEY (Ctrl-\) stops a run and returns to the command prompt.
const INTERRUPT_KEY = 0x1c

// Terminal is the local keyboard and screen. Between runs it edits command
// lines; during a run keystrokes go to the serial port.
type Terminal struct {
	Serial io.Writer

	keys    chan byte
	line    *term.Terminal
	restore func() error
}

var _ io.Writer = (*Terminal)(nil)

// NewTerminal puts in into raw mode. Close restores it.
func NewTerminal(in *os.File, out io.Writer, serial io.Writer) (t *Terminal, err error) {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return
	}

	t = newTerminal(in, out, serial)
	t.restore = func() error {
		return term.Restore(fd, state)
	}
	return
}

func newTerminal(in io.Reader, out io.Writer, serial io.Writer) (t *Terminal) {
	t = &Terminal{
		Serial: serial,
		keys:   make(chan byte, INPUT_BUFFER_SIZE),
	}
	t.line = term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{keyReader(t.keys), out}, "")

	go t.read(in)
	return
}

func (t *Terminal) read(in io.Reader) {
	defer close(t.keys)

	buf := make([]byte, INPUT_BUFFER_SIZE)
	for {
		n, err := in.Read(buf)
		for _, b := range buf[:n] {
			t.keys <- b
		}
		if err != nil {
			return
		}
	}
}

// keyReader hands the line editor whatever keys are waiting, blocking for
// at least one.
type keyReader chan byte

func (keys keyReader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return
	}

	b, ok := <-keys
	if !ok {
		err = io.EOF
		return
	}
	p[n] = b
	n++

	for n < len(p) {
		select {
		case b, ok = <-keys:
			if !ok {
				return
			}
			p[n] = b
			n++
		default:
			return
		}
	}
	return
}

// Close restores the terminal mode.
func (t *Terminal) Close() (err error) {
	if t.restore != nil {
		err = t.restore()
		t.restore = nil
	}
	return
}

// Write sends output to the screen, translating line endings for raw mode.
func (t *Terminal) Write(p []byte) (n int, err error) {
	return t.line.Write(p)
}

// ReadLine reads an edited command line.
func (t *Terminal) ReadLine(prompt string) (line string, err error) {
	t.line.SetPrompt(prompt)
	return t.line.ReadLine()
}

// Start forwards keystrokes to the serial port until stop is called. The
// run context is cancelled when INTERRUPT_KEY is pressed.
func (t *Terminal) Start(ctx context.Context) (run context.Context, stop func()) {
	run, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		for {
			select {
			case <-done:
				return
			case <-run.Done():
				return
			case b, ok := <-t.keys:
				if !ok {
					return
				}
				if b == INTERRUPT_KEY {
					cancel()
					return
				}
				_, err := t.Serial.Write([]byte{b})
				if err != nil {
					logrus.WithError(err).Warn("console: keystroke dropped")
				}
			}
		}
	}()

	stop = func() {
		close(done)
		<-finished
		cancel()
	}
	return
}
