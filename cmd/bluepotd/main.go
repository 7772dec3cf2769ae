// Command bluepotd is the gateway process entry point: it opens the
// hardware port, wires the three FSMs and the scheduler together, and
// serves the command surface over stdin/stdout.
//
// Grounded on the teacher's cmd/direwolf/main.go boot sequence (parse
// flags, open hardware, initialize subsystems in dependency order,
// run) translated from its audio/AX.25 stack to the POTS/BT stack.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/rkarlsba/bluepot/internal/bm64"
	"github.com/rkarlsba/bluepot/internal/btlink"
	"github.com/rkarlsba/bluepot/internal/cmdsurface"
	"github.com/rkarlsba/bluepot/internal/hwport"
	"github.com/rkarlsba/bluepot/internal/pots"
	"github.com/rkarlsba/bluepot/internal/scheduler"
	"github.com/rkarlsba/bluepot/internal/store"
	"github.com/rkarlsba/bluepot/internal/telco"
)

// version is the field diagnostics string (SPEC_FULL.md §12; the
// original firmware's blue_pot.h VERSION define).
const version = "1.0-bluepot"

func main() {
	var (
		uartDevice = pflag.StringP("uart", "u", "/dev/ttyS1", "BM64 UART device path.")
		baud       = pflag.IntP("baud", "b", 115200, "BM64 UART baud rate.")
		gpioChip   = pflag.StringP("gpio-chip", "g", "gpiochip0", "GPIO chip device for board pins.")
		storePath  = pflag.StringP("store", "s", defaultStorePath(), "Pairing-slot persistence file.")
		verbose    = pflag.BoolP("verbose", "v", false, "Verbose codec logging (also toggled at runtime via V=1).")
		showVer    = pflag.BoolP("version", "V", false, "Print version and exit.")
		cmdAddr    = pflag.StringP("cmd-addr", "c", "127.0.0.1:6400", "TCP address the command surface listens on, for bluepotctl.")

		rstnLine = pflag.Int("gpio-rstn", 0, "gpiochip line offset for RSTN.")
		eanLine  = pflag.Int("gpio-ean", 1, "gpiochip line offset for EAN.")
		p20Line  = pflag.Int("gpio-p20", 2, "gpiochip line offset for P2_0.")
		mfbLine  = pflag.Int("gpio-mfb", 3, "gpiochip line offset for MFB.")
		frLine   = pflag.Int("gpio-fr", 4, "gpiochip line offset for ring FR.")
		rmLine   = pflag.Int("gpio-rm", 5, "gpiochip line offset for ring RM.")
		shkLine  = pflag.Int("gpio-shk", 6, "gpiochip line offset for hook-switch SHK.")
		ledLine  = pflag.Int("gpio-led", 7, "gpiochip line offset for status LED.")
	)
	pflag.Parse()

	if *showVer {
		fmt.Printf("bluepotd %s\n", version)
		os.Exit(0)
	}

	logger := telco.NewLogger(*verbose)
	logger.Info("starting", "version", version)

	lineMap := hwport.LineMap{
		hwport.PinRSTN: *rstnLine,
		hwport.PinEAN:  *eanLine,
		hwport.PinP2_0: *p20Line,
		hwport.PinMFB:  *mfbLine,
		hwport.PinFR:   *frLine,
		hwport.PinRM:   *rmLine,
		hwport.PinSHK:  *shkLine,
		hwport.PinLED:  *ledLine,
	}

	port, err := hwport.OpenLinux(*gpioChip, lineMap, *uartDevice, *baud)
	if err != nil {
		logger.Error("hardware init failed", "err", err)
		os.Exit(1)
	}

	st, err := store.Open(*storePath)
	if err != nil {
		logger.Error("persistent store init failed", "err", err)
		os.Exit(1)
	}

	hwport.SelectMode(port, hwport.ModeFlashApp)
	hwport.Reset(port)

	codec := bm64.NewCodec(logger)
	codec.SetVerbose(*verbose)

	line := pots.New()
	link := btlink.New(codec, line, logger, st.PairID())
	link.BindPort(port)

	sched := scheduler.New(port, line, link, pots.NoDetector{}, logger)

	target := &cmdTarget{link: link, store: st, logger: logger}
	stdinCmds := cmdsurface.New(target, logger, func(s string) { fmt.Println(s) })

	stop := make(chan struct{})
	go serveCommands(os.Stdin, stdinCmds)
	go serveCommandSocket(*cmdAddr, target, logger)
	sched.Run(stop)
}

// serveCommandSocket accepts command-surface connections the way
// bluepotctl speaks to the daemon, mirroring the teacher's AGW TCP
// listener pattern (tnctest's net.Dial("tcp4", ...) counterpart).
// Only one client is expected at a time (spec.md §5's single
// low-priority command worker); connections are served sequentially.
func serveCommandSocket(addr string, target cmdsurface.Target, logger *log.Logger) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("command socket listen failed", "addr", addr, "err", err)
		return
	}
	defer ln.Close()
	logger.Info("command socket listening", "addr", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Warn("command socket accept failed", "err", err)
			continue
		}
		handleCommandConn(conn, target, logger)
	}
}

func handleCommandConn(conn net.Conn, target cmdsurface.Target, logger *log.Logger) {
	defer conn.Close()
	p := cmdsurface.New(target, logger, func(s string) { fmt.Fprintln(conn, s) })
	reader := bufio.NewReader(conn)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return
		}
		p.Feed(b)
	}
}

// cmdTarget adapts *btlink.Link plus the persistent store to
// cmdsurface.Target: pairing-slot writes go through the store so they
// survive a restart, everything else passes straight through.
type cmdTarget struct {
	link   *btlink.Link
	store  *store.Store
	logger *log.Logger
}

func (t *cmdTarget) Slot() byte { return t.link.Slot() }

func (t *cmdTarget) SetSlot(slot byte) bool {
	if !t.link.SetSlot(slot) {
		return false
	}
	if err := t.store.SetPairID(slot); err != nil {
		t.logger.Error("pairing slot persist failed", "err", err)
	}
	return true
}

func (t *cmdTarget) EnterPairing()           { t.link.EnterPairing() }
func (t *cmdTarget) InjectPacket(p []byte)   { t.link.InjectPacket(p) }
func (t *cmdTarget) ResetModule()            { t.link.ResetModule() }
func (t *cmdTarget) SetVerbose(v bool)       { t.link.SetVerbose(v) }

// serveCommands feeds stdin into the command surface byte by byte,
// the low-priority command worker of spec.md §5.
func serveCommands(r *os.File, p *cmdsurface.Processor) {
	reader := bufio.NewReader(r)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return
		}
		p.Feed(b)
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bluepot-store.yaml"
	}
	return filepath.Join(dir, "bluepot", "store.yaml")
}
