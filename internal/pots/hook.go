// Package pots is the POTS line FSM of spec.md §4.C: hook debounce,
// cadenced ringing, rotary+DTMF dialing, and supervisory tone
// selection. It is evaluated once per 10ms scheduler tick (spec.md
// §4.E).
//
// Grounded on the teacher's debounce/edge bookkeeping style in
// pll_dcd.go and the tone-table shape of gen_tone.go, generalized from
// demodulator state to telephone-line state.
package pots

import "github.com/rkarlsba/bluepot/internal/hwport"

// LineState is spec.md §3's Line state enum.
type LineState int

const (
	OnHook LineState = iota
	OffHook
	OnHookProvisional
	Ringing
)

func (s LineState) String() string {
	switch s {
	case OnHook:
		return "on-hook"
	case OffHook:
		return "off-hook"
	case OnHookProvisional:
		return "on-hook-provisional"
	case Ringing:
		return "ringing"
	default:
		return "unknown"
	}
}

// hookEdge is the raw debounced transition for a single tick: none, a
// fresh off-hook (receiver lifted), or a fresh on-hook (receiver
// replaced, or a rotary pulse break).
type hookEdge int

const (
	edgeNone hookEdge = iota
	edgeOffHook
	edgeOnHook
)

// provisionalDebounceTicks is 500ms at a 10ms tick (spec.md §3/§4.C).
const provisionalDebounceTicks = 50

// debounceHook implements spec.md §4.C's "two consecutive samples
// agree and differ from the latched value" rule. raw is this tick's
// SHK sample, already translated to "is the loop closed" (true =
// off-hook).
func (p *Line) debounceHook(raw bool) hookEdge {
	e := edgeNone
	if raw == p.rawPrev && raw != p.latchedOffHook {
		p.latchedOffHook = raw
		if raw {
			e = edgeOffHook
		} else {
			e = edgeOnHook
		}
	}
	p.rawPrev = raw
	return e
}

// applyHookTransition runs spec.md §4.C's phone-state transition table
// for everything except the Ringing resolution, which needs the
// ring sub-machine's post-tick state and is applied by Evaluate after
// the ringer's tick runs. It returns whether a hook_change edge should be
// surfaced this tick, and its value.
func (p *Line) applyHookTransition(e hookEdge) (surfaced bool, offHook bool) {
	switch p.state {
	case OnHook:
		if e == edgeOffHook {
			p.state = OffHook
			surfaced, offHook = true, true
		}

	case OffHook:
		if e == edgeOnHook {
			p.state = OnHookProvisional
			p.provisionalCount = 0
		}

	case OnHookProvisional:
		p.provisionalCount++
		if e == edgeOffHook {
			// A rotary pulse break, not a hang-up: revert silently.
			p.state = OffHook
		} else if p.provisionalCount >= provisionalDebounceTicks {
			p.state = OnHook
			surfaced, offHook = true, false
		}

	case Ringing:
		// Spec invariant: any off-hook edge during Ringing both ends
		// the ring and surfaces exactly one hook_change(true), handled
		// directly here rather than waiting for the ring sub-machine
		// to unwind on its own next tick.
		if e == edgeOffHook {
			p.ring.stop()
			p.state = OffHook
			surfaced, offHook = true, true
		}
	}
	return
}

// resolveRingingIdle implements "when ring sub-state returns to Idle,
// resolve to OffHook (surface edge, it was answered) if currently
// off-hook, else OnHook" (spec.md §4.C).
func (p *Line) resolveRingingIdle() (surfaced bool, offHook bool) {
	if p.state != Ringing || p.ring.sub != ringIdle {
		return false, false
	}
	if p.latchedOffHook {
		p.state = OffHook
		return true, true
	}
	p.state = OnHook
	return false, false
}

// hwportSHKOffHook translates the raw SHK level into "loop closed".
// The AG1171 drives SHK high when the receiver is lifted.
func hwportSHKOffHook(port hwport.Port) bool {
	return port.GPIORead(hwport.PinSHK) == hwport.High
}
