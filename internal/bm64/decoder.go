package bm64

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// rxState is the receive-frame state spec.md §3 names explicitly:
// Idle, Sync, LenHi, LenLo, Cmd, Data, Checksum.
type rxState int

const (
	rxIdle rxState = iota
	rxSync
	rxLenHi
	rxLenLo
	rxCmd
	rxData
	rxChecksum
)

// decoder is the byte-driven receive state machine of spec.md §4.B.
// It owns the fixed-size frame buffer; once steady state is reached the
// only allocation is the payload copy returned with each completed
// frame.
type decoder struct {
	state   rxState
	lenHi   byte
	length  int // LEN: count of bytes from CMD through last payload byte
	buf     [maxFrameBytes]byte
	idx     int // next write offset into buf (CMD at buf[0])
	sum     byte
	logger  *log.Logger
	verbose bool

	// raw accumulates every byte of the frame currently being decoded,
	// from the leading sync byte onward, so verbose mode can print the
	// raw hex of each received frame (spec.md §4.B), not just its
	// classified fields.
	raw []byte
}

func newDecoder(logger *log.Logger) *decoder {
	return &decoder{state: rxIdle, logger: logger}
}

func (d *decoder) setVerbose(v bool) { d.verbose = v }

// feed advances the state machine by one byte. It returns a completed
// Frame and true when a checksum-valid event frame (CMD != 0) is
// recognized; a malformed or CMD==0 frame returns ok=false but still
// resets to Idle, satisfying spec.md §8 property 1.
func (d *decoder) feed(b byte) (Frame, bool) {
	switch d.state {
	case rxIdle:
		if b == syncByte0 {
			d.raw = append(d.raw[:0], b)
			d.state = rxSync
		}
		// else: stay in Idle, no partial resync (spec.md §4.B).

	case rxSync:
		d.raw = append(d.raw, b)
		if b == syncByte1 {
			d.state = rxLenHi
			d.sum = 0
			d.idx = 0
		} else {
			d.logBad("unexpected sync byte")
			d.state = rxIdle
		}

	case rxLenHi:
		d.raw = append(d.raw, b)
		d.lenHi = b
		d.sum += b
		d.state = rxLenLo

	case rxLenLo:
		d.raw = append(d.raw, b)
		d.sum += b
		d.length = int(d.lenHi)<<8 | int(b)
		if d.length < 1 || d.length > maxCmdPayload {
			d.logBad("length out of range")
			d.state = rxIdle
			break
		}
		d.state = rxCmd

	case rxCmd:
		d.raw = append(d.raw, b)
		d.buf[0] = b
		d.idx = 1
		d.sum += b
		if d.length == 1 {
			d.state = rxChecksum
		} else {
			d.state = rxData
		}

	case rxData:
		d.raw = append(d.raw, b)
		d.buf[d.idx] = b
		d.idx++
		d.sum += b
		if d.idx >= d.length {
			d.state = rxChecksum
		}

	case rxChecksum:
		d.raw = append(d.raw, b)
		want := ^d.sum + 1
		cmd := d.buf[0]
		d.state = rxIdle
		if d.verbose {
			d.logger.Debug("rx frame", "hex", fmt.Sprintf("% x", d.raw))
		}
		if want != b {
			d.logBad("checksum mismatch")
			return Frame{}, false
		}
		if cmd == 0 {
			return Frame{}, false
		}
		payload := make([]byte, d.length-1)
		copy(payload, d.buf[1:d.length])
		return Frame{Cmd: cmd, Payload: payload}, true
	}

	return Frame{}, false
}

func (d *decoder) logBad(reason string) {
	if d.verbose && d.logger != nil {
		d.logger.Warn("BAD frame", "reason", reason)
	}
}
