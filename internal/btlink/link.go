// Package btlink implements the BT link FSM of spec.md §4.D: the
// reconnect loop, call lifecycle, and handset→AG command translation.
// It is evaluated once per 20ms scheduler tick, after the codec's UART
// queue has been fully drained for that tick (spec.md §4.E).
//
// Grounded on the teacher's attach/reconnect loop in nettnc.go
// (generalized from "reattach to a network KISS TNC" to "reconnect to
// a paired BT device") and the command-driven transition style of
// tt_user.go.
package btlink

import (
	"github.com/charmbracelet/log"

	"github.com/rkarlsba/bluepot/internal/bm64"
	"github.com/rkarlsba/bluepot/internal/hwport"
	"github.com/rkarlsba/bluepot/internal/pots"
)

// State is spec.md §3's Link state enum.
type State int

const (
	Disconnected State = iota
	ConnectedIdle
	Dialing
	CallInitiated
	CallOutgoing
	CallActive
	CallReceived
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ConnectedIdle:
		return "connected-idle"
	case Dialing:
		return "dialing"
	case CallInitiated:
		return "call-initiated"
	case CallOutgoing:
		return "call-outgoing"
	case CallActive:
		return "call-active"
	case CallReceived:
		return "call-received"
	default:
		return "unknown"
	}
}

// reconnectTicks is 60s at a 20ms tick (spec.md §4.D/§6).
const reconnectTicks = 3000

// numDialDigits is the fixed dial-buffer capacity (spec.md §3).
const numDialDigits = 10

// Line is the subset of internal/pots' API the link FSM needs: reading
// the edge signals POTS produces and pushing the level directives it
// consumes (spec.md §4.D, §9's "narrow line directives interface").
type Line interface {
	HookChange() (offHook bool, ok bool)
	DigitDialed() (digit int, ok bool)
	SetInService(bool)
	SetInCall(bool)
	SetRing(bool)
}

// Link is the BT link FSM instance, owned by the scheduler.
type Link struct {
	state           State
	inService       bool
	moduleCallState bm64.CallState

	retryTicks int
	slot       byte

	dialBuf   [numDialDigits]int
	dialCount int

	// injectedCallState records a Call_Status that arrived through
	// InjectPacket, for the next Evaluate to act on.
	injectedCallState bool

	codec  *bm64.Codec
	pots   Line
	logger *log.Logger
	port   hwport.Port // bound separately; used only by the command-surface methods below
}

// New constructs a Link in its boot state (Disconnected, retry timer
// armed) for the given initial pairing slot (spec.md §6).
func New(codec *bm64.Codec, line Line, logger *log.Logger, slot byte) *Link {
	return &Link{
		state:      Disconnected,
		retryTicks: reconnectTicks,
		slot:       slot,
		codec:      codec,
		pots:       line,
		logger:     logger,
	}
}

func (l *Link) State() State { return l.state }

// BindPort gives the Link a port reference for the command-surface
// methods below (EnterPairing, InjectPacket, ResetModule), which run
// from the low-priority command worker rather than the BT tick that
// drives Evaluate (spec.md §5's "plausible deployment" with a separate
// command worker).
func (l *Link) BindPort(port hwport.Port) { l.port = port }

// Slot reports the pairing slot used by the next reconnect attempt
// (spec.md §4.F `D` command).
func (l *Link) Slot() byte { return l.slot }

// SetSlot changes the pairing slot used by the next reconnect attempt,
// rejecting anything out of [0..7] and retaining the prior value
// (spec.md §7 "Invalid pairing slot").
func (l *Link) SetSlot(slot byte) bool {
	if slot > 7 {
		return false
	}
	l.slot = slot
	return true
}

// EnterPairing sends the BM64 pairing-mode MMI command directly,
// independent of link state (spec.md §4.F `L` command).
func (l *Link) EnterPairing() {
	l.port.UARTWrite(bm64.EncodeEnterPairing())
}

// InjectPacket feeds raw bytes through the codec as though they had
// just arrived over the UART (spec.md §4.F `P=` command, §8's worked
// scenarios), folding any resulting events into link/call state
// immediately rather than waiting for the next BT tick's Drain. An
// injected Call_Status drives the next Evaluate's transitions just as
// a drained one would.
func (l *Link) InjectPacket(payload []byte) {
	events := l.codec.Inject(l.port, payload)
	if l.foldEvents(events) {
		l.injectedCallState = true
	}
}

// ResetModule runs the BM64 power-on reset sequence and forces the
// link back to Disconnected, arming the reconnect loop (spec.md §4.F
// `R` command). The link stays Disconnected until the module reports
// link-up again.
func (l *Link) ResetModule() {
	hwport.Reset(l.port)
	l.inService = false
	l.enterDisconnected()
}

// SetVerbose toggles the codec's raw-hex/BAD-prefixed logging (spec.md
// §4.F `V=` command).
func (l *Link) SetVerbose(v bool) {
	l.codec.SetVerbose(v)
}

// Evaluate runs one 20ms tick: drain the codec, fold its events into
// link/call state, consume POTS edges, then run the transition table.
func (l *Link) Evaluate(port hwport.Port) {
	events := l.codec.Drain(port)
	sawCallState := l.foldEvents(events) || l.injectedCallState
	l.injectedCallState = false

	hookOff, hookOk := l.pots.HookChange()
	digit, digitOk := l.pots.DigitDialed()

	l.transition(port, hookOk, hookOff, digitOk, digit, sawCallState)
}

// foldEvents applies codec events to link/call state and reports
// whether a fresh Call_Status event arrived this tick.
func (l *Link) foldEvents(events []bm64.Event) bool {
	var sawCallState bool
	for _, ev := range events {
		switch ev.Kind {
		case bm64.EventLinkUp:
			l.inService = true
		case bm64.EventLinkDown:
			l.inService = false
		case bm64.EventCallState:
			l.moduleCallState = ev.CallState
			sawCallState = true
			if ev.CallState == bm64.CallVoiceDial && l.logger != nil {
				l.logger.Debug("module call state", "state", ev.CallState)
			}
		case bm64.EventCallerID:
			if l.logger != nil {
				l.logger.Info("caller id", "value", ev.CallerID)
			}
		}
	}
	return sawCallState
}

func (l *Link) transition(port hwport.Port, hookOk, hookOff bool, digitOk bool, digit int, sawCallState bool) {
	onHookEdge := hookOk && !hookOff
	offHookEdge := hookOk && hookOff

	if !l.inService {
		if l.state != Disconnected {
			l.enterDisconnected()
			return
		}
		l.tickRetry(port)
		return
	}

	if l.state == Disconnected {
		l.enterConnectedIdle()
		return
	}

	// spec.md §3 invariant: any CALL_ACTIVE observation from any
	// non-Disconnected state moves straight to CallActive, overriding
	// the narrower per-state rows below.
	if sawCallState && l.moduleCallState == bm64.CallActive && l.state != CallActive {
		l.enterCallActive(port)
		return
	}

	switch l.state {
	case ConnectedIdle:
		switch {
		case offHookEdge:
			l.state = Dialing
			l.dialCount = 0
		case sawCallState && l.moduleCallState == bm64.CallIncoming:
			l.state = CallReceived
			l.pots.SetRing(true)
		}

	case Dialing:
		switch {
		case onHookEdge:
			l.state = ConnectedIdle
		case digitOk:
			if l.dialCount == 0 && digit == 0 {
				l.state = CallInitiated
				port.UARTWrite(bm64.EncodeVoiceDial())
				return
			}
			if l.dialCount < numDialDigits {
				l.dialBuf[l.dialCount] = digit
				l.dialCount++
			}
			if l.dialCount == numDialDigits {
				l.state = CallInitiated
				var ascii [numDialDigits]byte
				for i, d := range l.dialBuf {
					ascii[i] = pots.DigitToASCII(d)
				}
				port.UARTWrite(bm64.EncodeDialNumber(ascii))
			}
		}

	case CallInitiated:
		switch {
		case onHookEdge:
			l.state = ConnectedIdle
			port.UARTWrite(bm64.EncodeDropCall())
		case sawCallState && l.moduleCallState == bm64.CallOutgoing:
			l.state = CallOutgoing
		}

	case CallOutgoing:
		switch {
		case onHookEdge:
			l.state = ConnectedIdle
			port.UARTWrite(bm64.EncodeDropCall())
		case sawCallState && l.moduleCallState == bm64.CallIdle:
			l.state = ConnectedIdle
		}

	case CallActive:
		switch {
		case onHookEdge:
			l.state = ConnectedIdle
			l.pots.SetInCall(false)
			port.UARTWrite(bm64.EncodeDropCall())
		case sawCallState && l.moduleCallState == bm64.CallIdle:
			l.state = ConnectedIdle
			l.pots.SetInCall(false)
		}

	case CallReceived:
		switch {
		case offHookEdge:
			port.UARTWrite(bm64.EncodeAcceptCall())
			l.enterCallActive(port)
		case sawCallState && l.moduleCallState != bm64.CallIncoming:
			l.enterConnectedIdle()
		}
	}
}

func (l *Link) tickRetry(port hwport.Port) {
	if l.retryTicks > 0 {
		l.retryTicks--
	}
	if l.retryTicks == 0 {
		port.UARTWrite(bm64.EncodeLinkToSlot(l.slot))
		l.retryTicks = reconnectTicks
	}
}

func (l *Link) enterDisconnected() {
	l.state = Disconnected
	l.retryTicks = reconnectTicks
	l.pots.SetInService(false)
	l.pots.SetInCall(false)
	l.pots.SetRing(false)
}

func (l *Link) enterConnectedIdle() {
	l.state = ConnectedIdle
	l.pots.SetInService(true)
	l.pots.SetInCall(false)
	l.pots.SetRing(false)
}

// speakerGain is the fixed gain level sent on every CallActive entry
// (spec.md §4.D, §6).
const speakerGain = 0x0E

func (l *Link) enterCallActive(port hwport.Port) {
	l.state = CallActive
	l.pots.SetInCall(true)
	l.pots.SetRing(false)
	port.UARTWrite(bm64.EncodeSetSpeakerGain(speakerGain))
}
