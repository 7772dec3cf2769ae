// Package hwport is the narrow hardware-abstraction port specified in
// spec.md §4.A: GPIO read/write/direction, non-blocking UART I/O, a
// monotonic millisecond clock, and the BM64 reset/mode-select sequence.
// Everything above this package talks to these interfaces, never to
// gpiocdev or pkg/term directly, so the FSMs stay testable without real
// hardware (see fake.go's Fake, used by the other internal packages'
// tests).
package hwport

import "time"

// Pin names the logical board signals spec.md §6 enumerates. The
// concrete line/offset each one maps to is a deployment detail supplied
// to OpenLinux as a LineMap, not baked into this package.
type Pin int

const (
	PinRSTN Pin = iota // BM64 reset, active-low, driven
	PinEAN             // BM64 mode-select bit 0: tri-state or drive-low
	PinP2_0            // BM64 mode-select bit 1: tri-state or drive-low
	PinMFB             // BM64 multi-function button, driven
	PinFR              // AG1171 ring frequency/cadence, driven
	PinRM              // AG1171 ring mode enable, driven
	PinSHK             // AG1171 off-hook sense, input only
	PinLED             // status LED, driven
)

// Direction is gpio_set_direction's argument. Two of BM64's mode pins
// must become high-impedance inputs to express "tri-state pulled by an
// external network," which is not the same thing as driving a 0 — see
// spec.md §4.A and §9. Collapsing this distinction to a boolean level
// would make SelectMode's {tri, drive0} encoding inexpressible.
type Direction int

const (
	DirOut Direction = iota
	DirIn
)

// Level is a single GPIO logic level.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

// Port is the hardware-abstraction contract. Implementations must make
// every method safe to call from the scheduler's single worker; the
// interface does not promise concurrency safety beyond that because
// nothing above this layer needs it (spec.md §5).
type Port interface {
	GPIORead(p Pin) Level
	GPIOWrite(p Pin, l Level)
	GPIOSetDirection(p Pin, d Direction)

	// UARTReadNonblock returns a byte and true if one was available,
	// or false with an unspecified byte if not. It never blocks.
	UARTReadNonblock() (byte, bool)
	UARTWrite(data []byte)

	MonotonicMS() uint64
	SleepMS(n uint64)
}

// Mode is the BM64 boot mode, selected by the EAN/P2_0 pin pair per
// spec.md §4.A's table. FlashApp is the mode used for normal operation.
type Mode int

const (
	ModeFlashApp Mode = iota
	ModeFlashIBDK
	ModeRomApp
	ModeRomIBDK
)

type pinState struct {
	dir Direction
	lvl Level
}

// modeTable encodes spec.md §4.A's (EAN, P2_0) matrix. "tri" means the
// pin is switched to input (high-impedance, left floating/pulled by the
// board); "drive0" means the pin is an output driven low.
var modeTable = map[Mode][2]pinState{
	ModeFlashApp:  {{DirIn, Low}, {DirOut, Low}},
	ModeFlashIBDK: {{DirOut, Low}, {DirOut, Low}},
	ModeRomApp:    {{DirIn, Low}, {DirIn, Low}},
	ModeRomIBDK:   {{DirIn, Low}, {DirOut, Low}},
}

// SelectMode drives EAN/P2_0 into the pin configuration for mode m,
// ahead of a Reset call. It never touches RSTN or MFB.
func SelectMode(p Port, m Mode) {
	cfg := modeTable[m]
	p.GPIOSetDirection(PinEAN, cfg[0].dir)
	if cfg[0].dir == DirOut {
		p.GPIOWrite(PinEAN, cfg[0].lvl)
	}
	p.GPIOSetDirection(PinP2_0, cfg[1].dir)
	if cfg[1].dir == DirOut {
		p.GPIOWrite(PinP2_0, cfg[1].lvl)
	}
}

// resetHoldMS and postMFBSettleMS are the two delays spec.md §4.A calls
// out explicitly: RSTN must stay asserted with MFB low for at least
// 499ms, and MFB needs 1ms after being raised before RSTN releases.
const (
	resetHoldMS     = 499
	postMFBSettleMS = 1
)

// Reset runs the BM64 power-on sequence: assert RSTN low, hold with MFB
// low for ≥499ms, raise MFB, wait 1ms, release RSTN. This is the one
// blocking call in the whole system (spec.md §5's "suspension points").
func Reset(p Port) {
	p.GPIOWrite(PinRSTN, Low)
	p.GPIOWrite(PinMFB, Low)
	p.SleepMS(resetHoldMS)
	p.GPIOWrite(PinMFB, High)
	p.SleepMS(postMFBSettleMS)
	p.GPIOWrite(PinRSTN, High)
}

// Clock is a tiny seam for tests: anything that needs "now" in
// milliseconds without a real Port can use a Clock instead.
type Clock interface {
	NowMS() uint64
}

type realClock struct{ start time.Time }

func NewRealClock() Clock { return &realClock{start: time.Now()} }

func (c *realClock) NowMS() uint64 {
	return uint64(time.Since(c.start).Milliseconds())
}
