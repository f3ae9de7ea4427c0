// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/ezrec/sim51/console"
	"github.com/ezrec/sim51/debugger"
	"github.com/ezrec/sim51/emulator"
	"github.com/ezrec/sim51/translate"
)

// listingFor returns the .LST file next to a .HEX file.
func listingFor(hexFile string) string {
	return strings.TrimSuffix(hexFile, filepath.Ext(hexFile)) + ".LST"
}

func main() {
	var listing string
	var verbose bool
	var run bool
	var limit int
	var tcpAddr string
	var wsAddr string
	var cpuprofile string
	var lang string

	flag.StringVar(&listing, "l", "", ".LST file with the symbol table (default: next to the .HEX file)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&run, "go", false, "Run without the debugger")
	flag.IntVar(&limit, "n", 0, "Stop after this many instructions")
	flag.StringVar(&tcpAddr, "tcp", "", "Serve the serial console over TCP at this address")
	flag.StringVar(&wsAddr, "ws", "", "Serve the serial console over websocket at this address")
	flag.StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to `file`")
	flag.StringVar(&lang, "lang", "", "Message language, such as en-US (default: from the environment)")

	flag.Parse()

	if flag.NArg() != 1 {
		logrus.Fatalf("%v: Usage: %v [options] file.hex", os.Args[0], os.Args[0])
	}
	hexFile := flag.Arg(0)

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if len(lang) != 0 {
		translate.Use(lang)
	}

	if len(cpuprofile) != 0 {
		ouf, err := os.Create(cpuprofile)
		if err != nil {
			logrus.Fatalf("%v: %v", cpuprofile, err)
		}
		defer ouf.Close()
		err = pprof.StartCPUProfile(ouf)
		if err != nil {
			logrus.Fatalf("%v: %v", cpuprofile, err)
		}
		defer pprof.StopCPUProfile()
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	inf, err := os.Open(hexFile)
	if err != nil {
		logrus.Fatalf("%v: %v", hexFile, err)
	}
	img, err := emu.LoadHex(inf)
	inf.Close()
	if err != nil {
		logrus.Fatalf("%v: %v", hexFile, err)
	}
	fmt.Println(translate.From("Loaded %04X: %x bytes", img.Lowest, img.Len()))

	if len(listing) == 0 {
		if _, err := os.Stat(listingFor(hexFile)); err == nil {
			listing = listingFor(hexFile)
		}
	}
	if len(listing) != 0 {
		inf, err := os.Open(listing)
		if err != nil {
			logrus.Fatalf("%v: %v", listing, err)
		}
		count, err := emu.LoadSymbols(inf)
		inf.Close()
		if err != nil {
			logrus.Fatalf("%v: %v", listing, err)
		}
		logrus.Debugf("%v: %d symbols", listing, count)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	hub := console.NewHub(&emu.Serial)
	emu.Serial.Output = hub

	if len(tcpAddr) != 0 {
		listener, err := net.Listen("tcp", tcpAddr)
		if err != nil {
			logrus.Fatalf("%v: %v", tcpAddr, err)
		}
		go func() {
			err := hub.Serve(ctx, listener)
			if err != nil {
				logrus.WithError(err).Error("console: tcp")
			}
		}()
	}

	if len(wsAddr) != 0 {
		go func() {
			err := hub.ServeWebSocket(ctx, wsAddr)
			if err != nil {
				logrus.WithError(err).Error("console: websocket")
			}
		}()
	}

	fmt.Println(translate.From("[Control-\\ will interrupt execution and return to prompt]"))

	dbg := debugger.New(emu, os.Stdout)

	if run || !term.IsTerminal(int(os.Stdin.Fd())) {
		hub.Add(os.Stdout)
		go func() {
			err := hub.Feed(os.Stdin)
			if err != nil {
				logrus.WithError(err).Warn("console: stdin")
			}
		}()

		line := "go"
		if limit > 0 {
			line = fmt.Sprintf("step %d", limit)
		}
		err = dbg.Execute(ctx, line)
		if err != nil && !errors.Is(err, context.Canceled) {
			logrus.Fatalf("%v: %v", hexFile, err)
		}
		return
	}

	terminal, err := console.NewTerminal(os.Stdin, os.Stdout, &emu.Serial)
	if err != nil {
		logrus.Fatalf("%v: %v", os.Stdin.Name(), err)
	}
	defer terminal.Close()

	logrus.SetOutput(terminal)
	hub.Add(terminal)
	dbg.Output = terminal
	dbg.Console = terminal

	err = dbg.Serve(ctx, terminal)
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.Errorf("%v: %v", hexFile, err)
	}
}
