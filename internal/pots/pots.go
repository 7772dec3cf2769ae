package pots

import "github.com/rkarlsba/bluepot/internal/hwport"

// Line is the whole POTS line FSM: hook debounce, ringer, dialer and
// tone selector, evaluated together once per 10ms tick (spec.md
// §4.C/§4.E). It is the scheduler-owned instance; nothing here is a
// package-level global (spec.md §9).
type Line struct {
	state            LineState
	rawPrev          bool
	latchedOffHook   bool
	provisionalCount int

	ring      ringer
	ringWant  bool
	dial      dialer
	tone      toneSelector
	inService bool
	inCall    bool

	// pendingHookChange/pendingDigit are the single-shot edge signals
	// spec.md §3 requires: "reading it consumes it."
	pendingHookChange   bool
	pendingHookOffValue bool
	pendingDigit        int // -1 = none
}

// New returns a Line in its boot state: OnHook, everything idle.
func New() *Line {
	return &Line{pendingDigit: -1}
}

// State reports the current LineState, mainly for logging/tests.
func (l *Line) State() LineState { return l.state }

// SetInService mirrors the BT link FSM's view of module service
// availability into POTS (spec.md §4.D's set_in_service directive).
func (l *Line) SetInService(v bool) { l.inService = v }

// SetInCall raises/lowers the in-call flag (spec.md invariants: any
// CALL_ACTIVE observation raises it; link loss clears it).
func (l *Line) SetInCall(v bool) { l.inCall = v }

// SetRing requests (or cancels) cadenced ringing. It only actually
// starts the cadence once Evaluate observes the line OnHook and the
// ring sub-machine Idle (spec.md §4.C).
func (l *Line) SetRing(v bool) { l.ringWant = v }

// HookChange consumes the pending hook_change edge, if any. Spec.md
// §3: "The hook_change edge is single-shot: reading it consumes it."
func (l *Line) HookChange() (offHook bool, ok bool) {
	if !l.pendingHookChange {
		return false, false
	}
	l.pendingHookChange = false
	return l.pendingHookOffValue, true
}

// DigitDialed consumes the pending dialed digit, if any.
func (l *Line) DigitDialed() (digit int, ok bool) {
	if l.pendingDigit < 0 {
		return 0, false
	}
	d := l.pendingDigit
	l.pendingDigit = -1
	return d, true
}

// ActiveTone reports the currently active supervisory tone profile,
// for whatever audio layer exists downstream (spec.md §1 Non-goals).
func (l *Line) ActiveTone() (Profile, bool) { return l.tone.ActiveProfile() }

// Evaluate runs one 10ms tick: hook debounce, ring cadence, dial
// decode, tone selection, in that order (each may depend on the
// previous stage's edge for this tick).
func (l *Line) Evaluate(port hwport.Port, dtmf DTMFDetector) {
	raw := hwportSHKOffHook(port)
	e := l.debounceHook(raw)
	wasRinging := l.state == Ringing

	surfaced, offHook := l.applyHookTransition(e)

	// Ring start/stop requests take effect once the line is OnHook and
	// the cadence is idle, or are cancelled unconditionally.
	if !l.ringWant && l.ring.active {
		l.ring.stop()
	}
	if l.ringWant && l.state == OnHook && l.ring.sub == ringIdle && !l.ring.active {
		l.ring.requestRing()
		l.state = Ringing
	}

	if l.state == Ringing {
		l.ring.tick(port)
		if s2, o2 := l.resolveRingingIdle(); s2 {
			surfaced, offHook = s2, o2
		}
	} else {
		l.ring.tick(port)
	}

	lineOnHook := l.state == OnHook
	digit := l.dial.tick(e, lineOnHook, dtmf)

	if surfaced {
		l.pendingHookChange = true
		l.pendingHookOffValue = offHook
		if !offHook {
			l.tone.cancel(true)
		} else {
			l.tone.enterOffHook(wasRinging, l.inService)
		}
	}
	if digit >= 0 {
		l.pendingDigit = digit
		l.tone.cancel(false)
	}
	if !surfaced && digit < 0 {
		l.tone.tick()
	}
}
