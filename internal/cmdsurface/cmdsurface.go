// Package cmdsurface implements the line-oriented ASCII command
// surface of spec.md §4.F: single-letter verbs, optionally carrying a
// hex integer or space-separated hex byte argument, terminated by \n
// or \r.
//
// Grounded on the teacher's line-oriented tokenizing in kissutil.go and
// the hex/arg parsing style of tt_user.go; the fixed-size line buffer
// and explicit parser states mirror original_source/'s cmd_processor.c
// (CMD_ST_IDLE and friends) rather than an unbounded buffered reader,
// per spec.md §9's "fixed-size buffers everywhere" ethos.
package cmdsurface

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// maxLineBytes bounds the command line buffer (spec.md §9, §12).
const maxLineBytes = 32

// maxInjectBytes is the P= payload bound (spec.md §4.B's payload
// bound, reused here since P= injects straight into the codec receive
// path). The maxLineBytes limit is reached first: a P= line of
// two-digit hex fields carries at most 10 bytes, and a longer line is
// answered "Illegal command" as overlong without this check or its
// warning running.
const maxInjectBytes = 29

type parserState int

const (
	cmdIdle parserState = iota
	cmdLine
)

// Target is everything the command surface can act on. It is kept
// narrow and decoupled from *btlink.Link/*bm64.Codec concrete types so
// this package has no import-time dependency on either (spec.md §9).
type Target interface {
	Slot() byte
	SetSlot(slot byte) bool // false means rejected (>7); prior slot retained
	EnterPairing()
	InjectPacket(payload []byte)
	ResetModule()
	SetVerbose(v bool)
}

// Processor is the byte-at-a-time line parser. One Processor exists
// per command input stream (spec.md's single low-priority command
// worker, §5).
type Processor struct {
	state    parserState
	buf      [maxLineBytes]byte
	n        int
	overflow bool

	target Target
	logger *log.Logger
	out    func(line string)
}

// New builds a Processor. out receives one line of response text per
// command (no trailing newline); callers typically write it followed
// by "\n" to whatever stream the command arrived on.
func New(target Target, logger *log.Logger, out func(line string)) *Processor {
	return &Processor{target: target, logger: logger, out: out}
}

// Feed consumes one input byte. \n and \r both terminate and dispatch
// the accumulated line (spec.md §6: "Line-terminated by \n or \r").
func (p *Processor) Feed(b byte) {
	if b == '\n' || b == '\r' {
		if p.n > 0 || p.overflow {
			p.dispatch(string(p.buf[:p.n]))
		}
		p.reset()
		return
	}
	if p.n >= maxLineBytes {
		p.overflow = true
		return
	}
	p.buf[p.n] = b
	p.n++
	p.state = cmdLine
}

func (p *Processor) reset() {
	p.state = cmdIdle
	p.n = 0
	p.overflow = false
}

func (p *Processor) dispatch(line string) {
	if p.overflow {
		p.reply("Illegal command")
		return
	}
	line = strings.TrimSpace(line)
	switch {
	case line == "D":
		p.reply(fmt.Sprintf("pairing slot: %d", p.target.Slot()))

	case strings.HasPrefix(line, "D="):
		v, err := strconv.ParseUint(line[2:], 16, 8)
		if err != nil || v > 7 {
			if p.logger != nil {
				p.logger.Warn("rejected pairing slot", "raw", line[2:])
			}
			p.reply("Illegal command")
			return
		}
		if !p.target.SetSlot(byte(v)) {
			p.reply("Illegal command")
			return
		}
		p.reply(fmt.Sprintf("pairing slot: %d", v))

	case line == "L":
		p.target.EnterPairing()
		p.reply("pairing mode entered")

	case strings.HasPrefix(line, "P="):
		payload, err := parseHexBytes(line[2:])
		if err != nil {
			p.reply("Illegal command")
			return
		}
		if len(payload) > maxInjectBytes {
			if p.logger != nil {
				p.logger.Warn("oversize packet submission rejected", "len", len(payload))
			}
			p.reply("Illegal command")
			return
		}
		p.target.InjectPacket(payload)
		p.reply("packet injected")

	case line == "R":
		p.target.ResetModule()
		p.reply("module reset")

	case strings.HasPrefix(line, "V="):
		switch line[2:] {
		case "0":
			p.target.SetVerbose(false)
			p.reply("verbose off")
		case "1":
			p.target.SetVerbose(true)
			p.reply("verbose on")
		default:
			p.reply("Illegal command")
		}

	case line == "H":
		p.reply(helpText)

	default:
		p.reply("Illegal command")
	}
}

func (p *Processor) reply(s string) {
	if p.out != nil {
		p.out(s)
	}
}

const helpText = `D            print current pairing slot
D=<0..7>     persist and apply pairing slot
L            enter pairing mode
P=<bytes>    inject raw packet payload (space-separated hex)
R            reset module
V=<0|1>      toggle verbose codec logging
H            this help`

// parseHexBytes splits a space-separated run of hex byte pairs, e.g.
// "00 AA 01 02 03" into a []byte.
func parseHexBytes(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Fields(s)
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(v))
	}
	return out, nil
}
