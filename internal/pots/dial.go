package pots

// DialSubState is spec.md §3's Dial sub-state enum, shared by the
// rotary and DTMF input modes (only one is ever active at a time,
// both start and end in Idle).
type DialSubState int

const (
	dialIdle DialSubState = iota
	dialBreak
	dialMake
	dialDtmfOn
	dialDtmfOff
)

const (
	// breakTicks/makeTicks are 100ms at a 10ms tick (spec.md §4.C).
	breakTicks = 10
	makeTicks  = 10

	// dtmfQualifyTicks/dtmfSilenceTicks are 30ms at a 10ms tick.
	dtmfQualifyTicks = 3
	dtmfSilenceTicks = 3

	// numValidDigits bounds a dialed digit's value (10='*', 11='#'),
	// spec.md §3.
	numValidDigits = 12

	// maxRotaryPulses is the cap on a single digit's pulse count
	// (spec.md §4.C: "10 pulses ≡ digit 0").
	maxRotaryPulses = 10
)

// dialer decodes one digit at a time from rotary pulses (hook edges)
// or DTMF tones. It does not own the 10-digit dial buffer — that
// belongs to the BT link FSM, which is the only component that knows
// when a full number is ready to dispatch (spec.md §3, §4.D).
type dialer struct {
	sub        DialSubState
	pulseCount int
	prevDigit  int
	ticks      int // generic within-substate tick counter
}

// digit is returned by tick whenever a digit was just finalized;
// -1 means none this tick.
func (d *dialer) tick(e hookEdge, lineOnHook bool, dtmf DTMFDetector) int {
	if lineOnHook {
		d.sub = dialIdle
		return -1
	}

	detected := dtmf.Digit()

	switch d.sub {
	case dialIdle:
		if e == edgeOnHook {
			d.sub = dialBreak
			d.pulseCount = 0
			d.ticks = 0
			return -1
		}
		if detected >= 0 {
			d.sub = dialDtmfOn
			d.prevDigit = detected
			d.ticks = 1
		}
		return -1

	case dialBreak:
		d.ticks++
		if e == edgeOffHook {
			if d.pulseCount < maxRotaryPulses {
				d.pulseCount++
			}
			d.sub = dialMake
			d.ticks = 0
			return -1
		}
		if d.ticks >= breakTicks {
			// Break timed out with no Make: discard the partial
			// digit and return to Idle (spec.md §9 Open Questions,
			// resolved in SPEC_FULL.md §13).
			d.sub = dialIdle
			d.pulseCount = 0
		}
		return -1

	case dialMake:
		d.ticks++
		if e == edgeOnHook {
			d.sub = dialBreak
			d.ticks = 0
			return -1
		}
		if d.ticks >= makeTicks {
			digit := d.pulseCount
			if digit == maxRotaryPulses {
				digit = 0
			}
			d.sub = dialIdle
			d.pulseCount = 0
			return digit
		}
		return -1

	case dialDtmfOn:
		if detected != d.prevDigit {
			d.sub = dialIdle
			return -1
		}
		d.ticks++
		if d.ticks >= dtmfQualifyTicks {
			d.sub = dialDtmfOff
			d.ticks = 0
		}
		return -1

	case dialDtmfOff:
		if detected >= 0 {
			// New digit restarts qualification (also covers the
			// same digit reappearing before silence completed).
			d.prevDigit = detected
			d.sub = dialDtmfOn
			d.ticks = 1
			return -1
		}
		d.ticks++
		if d.ticks >= dtmfSilenceTicks {
			digit := d.prevDigit
			d.sub = dialIdle
			return digit
		}
		return -1
	}

	return -1
}

// DigitToASCII renders a dial-buffer digit (0..11) as the ASCII byte
// the BM64 DialNumber payload expects (spec.md §4.D, §6): '0'-'9' for
// 0-9, '*' for 10, '#' for 11.
func DigitToASCII(digit int) byte {
	switch {
	case digit >= 0 && digit <= 9:
		return byte('0' + digit)
	case digit == 10:
		return '*'
	case digit == 11:
		return '#'
	default:
		return '0'
	}
}
