package hwport

/*------------------------------------------------------------------
 *
 * Purpose:	Linux implementation of the hardware-abstraction Port:
 *		gpiocdev lines for GPIO, a pkg/term serial port for the
 *		BM64 UART.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"time"

	"github.com/pkg/term"
	"github.com/warthog618/go-gpiocdev"
)

// uartPollTimeout bounds how long a single UARTReadNonblock call may
// block waiting on the kernel tty layer. It must stay well under the
// scheduler's fastest period (10ms, spec.md §4.E) or the POTS tick
// would be starved by a slow BT-side drain.
const uartPollTimeout = 2 * time.Millisecond

// LineMap supplies the line offset for every logical Pin on the chip
// named in OpenLinux's chip argument, since that wiring is
// board-specific.
type LineMap map[Pin]int

type linuxPort struct {
	lines map[Pin]*gpiocdev.Line
	uart  *term.Term
	clock Clock
}

// OpenLinux requests every pin named in lm on the given gpiocdev chip
// (e.g. "gpiochip0") and opens uartDevice at baud. SHK is requested as
// an input; everything else, EAN/P2_0 included, starts as an output
// driven low. SelectMode later reconfigures EAN/P2_0, ahead of Reset.
func OpenLinux(chip string, lm LineMap, uartDevice string, baud int) (Port, error) {
	p := &linuxPort{lines: make(map[Pin]*gpiocdev.Line, len(lm)), clock: NewRealClock()}

	for pin, offset := range lm {
		var opt gpiocdev.LineReqOption
		if pin == PinSHK {
			opt = gpiocdev.AsInput
		} else {
			opt = gpiocdev.AsOutput(0)
		}
		line, err := gpiocdev.RequestLine(chip, offset, opt, gpiocdev.WithConsumer("bluepot"))
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("hwport: request line %d (pin %d): %w", offset, pin, err)
		}
		p.lines[pin] = line
	}

	tty, err := term.Open(uartDevice, term.RawMode)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("hwport: open uart %s: %w", uartDevice, err)
	}
	if baud != 0 {
		if err := tty.SetSpeed(baud); err != nil {
			p.Close()
			return nil, fmt.Errorf("hwport: set baud %d: %w", baud, err)
		}
	}
	if err := tty.SetReadTimeout(uartPollTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("hwport: set read timeout: %w", err)
	}
	p.uart = tty

	return p, nil
}

func (p *linuxPort) Close() {
	for _, l := range p.lines {
		if l != nil {
			l.Close()
		}
	}
	if p.uart != nil {
		p.uart.Close()
	}
}

func (p *linuxPort) GPIORead(pin Pin) Level {
	l, ok := p.lines[pin]
	if !ok {
		return Low
	}
	v, err := l.Value()
	if err != nil {
		return Low
	}
	return Level(v)
}

func (p *linuxPort) GPIOWrite(pin Pin, lvl Level) {
	l, ok := p.lines[pin]
	if !ok {
		return
	}
	_ = l.SetValue(int(lvl))
}

func (p *linuxPort) GPIOSetDirection(pin Pin, d Direction) {
	l, ok := p.lines[pin]
	if !ok {
		return
	}
	if d == DirIn {
		_ = l.Reconfigure(gpiocdev.AsInput)
	} else {
		_ = l.Reconfigure(gpiocdev.AsOutput(0))
	}
}

func (p *linuxPort) UARTReadNonblock() (byte, bool) {
	var buf [1]byte
	n, err := p.uart.Read(buf[:])
	if n != 1 || err != nil {
		return 0, false
	}
	return buf[0], true
}

func (p *linuxPort) UARTWrite(data []byte) {
	_, _ = p.uart.Write(data)
}

// MonotonicMS uses the runtime's monotonic clock reading via
// Clock/realClock (hwport.go), not wall-clock time: a backward NTP
// step or manual clock adjustment must never perturb the scheduler's
// wrap-safe tick math or the BT link's reconnect timer (spec.md §4.E,
// §9).
func (p *linuxPort) MonotonicMS() uint64 {
	return p.clock.NowMS()
}

func (p *linuxPort) SleepMS(n uint64) {
	time.Sleep(time.Duration(n) * time.Millisecond)
}
