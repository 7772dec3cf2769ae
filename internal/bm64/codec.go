package bm64

import (
	"github.com/charmbracelet/log"

	"github.com/rkarlsba/bluepot/internal/hwport"
)

// EventKind classifies a parsed Frame the way spec.md §4.B's "Event
// dispatch" does.
type EventKind int

const (
	EventLinkUp EventKind = iota
	EventLinkDown
	EventCallState
	EventCallerID
	EventOther
)

// Event is what Drain hands to the BT link FSM: a frame already
// classified, with irrelevant fields left zero.
type Event struct {
	Kind      EventKind
	CallState CallState
	CallerID  string
	Cmd       byte
}

// Codec bundles the receive state machine with event classification
// and ack transmission (spec.md §4.B). A Codec is owned by exactly one
// BT tick; Drain is the only entry point callers need on the hot path.
type Codec struct {
	dec     *decoder
	logger  *log.Logger
	verbose bool
}

func NewCodec(logger *log.Logger) *Codec {
	return &Codec{dec: newDecoder(logger), logger: logger}
}

// SetVerbose toggles raw-hex/BAD-prefixed logging of every received
// frame (spec.md §4.B "Verbose mode", §4.F `V=` command).
// The raw-hex dump is logged at Debug, so the shared logger's level is
// raised to Debug while verbose and returned to Info otherwise.
func (c *Codec) SetVerbose(v bool) {
	c.verbose = v
	c.dec.setVerbose(v)
	if c.logger != nil {
		if v {
			c.logger.SetLevel(log.DebugLevel)
		} else {
			c.logger.SetLevel(log.InfoLevel)
		}
	}
}

// Inject feeds payload through the receive state machine directly,
// bypassing the UART, exactly as spec.md §4.F's `P=` command and §8's
// worked scenarios do: acks and events are produced the same way Drain
// would produce them for the same bytes arriving over the wire.
func (c *Codec) Inject(port hwport.Port, payload []byte) []Event {
	var events []Event
	for _, b := range payload {
		frame, complete := c.dec.feed(b)
		if !complete {
			continue
		}
		port.UARTWrite(EncodeEventAck(frame.Cmd))
		if ev, ok := classify(frame); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Drain reads every byte currently available on the UART
// (non-blocking), feeds the receive state machine, and for each
// successfully parsed event frame: sends its Event-Ack immediately and
// appends a classified Event to the returned slice. Malformed or
// CMD==0 frames produce no event and are not acked (spec.md §4.B, §7).
//
// Per spec.md §4.E, the whole UART queue is drained before the BT
// state machine is evaluated; callers must invoke Drain exactly once
// per BT tick, before touching link/call state.
func (c *Codec) Drain(port hwport.Port) []Event {
	var events []Event
	for {
		b, ok := port.UARTReadNonblock()
		if !ok {
			break
		}
		frame, complete := c.dec.feed(b)
		if !complete {
			continue
		}
		port.UARTWrite(EncodeEventAck(frame.Cmd))
		if ev, ok := classify(frame); ok {
			events = append(events, ev)
		}
	}
	return events
}

// classify turns a validated Frame into an Event per spec.md §4.B's
// CMD table. It returns ok=false only for CMDs that carry no
// actionable event (still acked by Drain, just not surfaced) — "All
// other CMDs: acked but not acted upon."
func classify(f Frame) (Event, bool) {
	switch f.Cmd {
	case CmdBTMStatus:
		if len(f.Payload) < 1 {
			return Event{}, false
		}
		switch f.Payload[0] {
		case 0x05:
			return Event{Kind: EventLinkUp, Cmd: f.Cmd}, true
		case 0x07:
			return Event{Kind: EventLinkDown, Cmd: f.Cmd}, true
		default:
			return Event{}, false
		}

	case CmdCallStatus:
		if len(f.Payload) < 2 {
			return Event{}, false
		}
		v := f.Payload[1]
		if v > byte(CallActive) {
			// Out-of-range values retain the prior call state
			// (spec.md §4.B): nothing to report.
			return Event{}, false
		}
		return Event{Kind: EventCallState, CallState: CallState(v), Cmd: f.Cmd}, true

	case CmdCallerID:
		return Event{Kind: EventCallerID, CallerID: string(f.Payload), Cmd: f.Cmd}, true

	default:
		return Event{Kind: EventOther, Cmd: f.Cmd}, false
	}
}
