package pots

// ToneSubState is spec.md §3/§4.C's supervisory tone enum.
type ToneSubState int

const (
	toneIdle ToneSubState = iota
	toneOff
	toneDial
	toneNoServiceOn
	toneNoServiceOff
	toneOffHookOn
	toneOffHookOff
)

// Profile describes a tone's frequency components, for whatever
// downstream DSP/DAC layer renders it (spec.md §4.C). The core only
// tracks which profile is active and for how long; synthesis is out
// of scope (spec.md §1 Non-goals).
type Profile struct {
	Freqs []float64
	Amps  []float64
}

var (
	dialProfile      = Profile{Freqs: []float64{350, 440}, Amps: []float64{0.5, 0.5}}
	noServiceProfile = Profile{Freqs: []float64{480, 620}, Amps: []float64{0.5, 0.5}}
	offHookProfile   = Profile{
		Freqs: []float64{1400, 2060, 2450, 2600},
		Amps:  []float64{0.25, 0.25, 0.25, 0.25},
	}
)

const (
	offHookToneTimeoutTicks = 6000 // 60s at 10ms/tick
	noServiceOnTicks        = 30   // 300ms
	noServiceOffTicks       = 20   // 200ms
	offHookWarbleOnTicks    = 10   // 100ms
	offHookWarbleOffTicks   = 10   // 100ms
)

type toneSelector struct {
	sub     ToneSubState
	elapsed int // ticks since entering the current sub-state
}

// enterOffHook is called the tick an off-hook edge is surfaced,
// choosing the first tone per spec.md §4.C's rules. answeredRing is
// true when the off-hook edge resolved a Ringing state (the call was
// answered, so no dial tone / no-service warble is appropriate — just
// silence, armed with the 60s "receiver left off-hook" timeout).
func (t *toneSelector) enterOffHook(answeredRing, inService bool) {
	switch {
	case answeredRing:
		t.sub = toneOff
	case inService:
		t.sub = toneDial
	default:
		t.sub = toneNoServiceOn
	}
	t.elapsed = 0
}

// cancel moves the tone back to Off (still off-hook, just quiet) on a
// dialed digit, or fully to Idle on a genuine on-hook edge (spec.md
// §4.C: "Any digit dialed or on-hook edge cancels tone emission").
func (t *toneSelector) cancel(hangUp bool) {
	if hangUp {
		t.sub = toneIdle
	} else {
		t.sub = toneOff
	}
	t.elapsed = 0
}

// tick advances the selector by one 10ms step. It has no side effects
// on hardware: the tone is consumed by whatever audio layer exists
// downstream (spec.md §1 Non-goals), this just tracks state/timing.
func (t *toneSelector) tick() {
	t.elapsed++
	switch t.sub {
	case toneOff:
		if t.elapsed >= offHookToneTimeoutTicks {
			t.sub = toneOffHookOn
			t.elapsed = 0
		}
	case toneNoServiceOn:
		if t.elapsed >= noServiceOnTicks {
			t.sub = toneNoServiceOff
			t.elapsed = 0
		}
	case toneNoServiceOff:
		if t.elapsed >= noServiceOffTicks {
			t.sub = toneNoServiceOn
			t.elapsed = 0
		}
	case toneOffHookOn:
		if t.elapsed >= offHookWarbleOnTicks {
			t.sub = toneOffHookOff
			t.elapsed = 0
		}
	case toneOffHookOff:
		if t.elapsed >= offHookWarbleOffTicks {
			t.sub = toneOffHookOn
			t.elapsed = 0
		}
	case toneDial, toneIdle:
		// steady states with no internal timeout of their own.
	}
}

// ActiveProfile reports the currently-active tone profile and whether
// any tone is active at all (Idle and Off both mean silence).
func (t *toneSelector) ActiveProfile() (Profile, bool) {
	switch t.sub {
	case toneDial:
		return dialProfile, true
	case toneNoServiceOn, toneOffHookOn:
		return noServiceOrOffHook(t.sub), true
	default:
		return Profile{}, false
	}
}

func noServiceOrOffHook(s ToneSubState) Profile {
	if s == toneOffHookOn {
		return offHookProfile
	}
	return noServiceProfile
}
