package pots

import "github.com/rkarlsba/bluepot/internal/hwport"

// RingSubState is spec.md §3's Ring sub-state enum.
type RingSubState int

const (
	ringIdle RingSubState = iota
	ringPulseOn
	ringPulseOff
	ringBetween
)

const (
	// ringCycleTicks is one full 25Hz warble cycle: 40ms at a 10ms
	// tick, split evenly between PulseOn and PulseOff (spec.md §4.C,
	// §8 property 4).
	ringCycleTicks    = 4
	ringHalfCycleTicks = ringCycleTicks / 2

	ringOnPhaseTicks      = 100 // 1s at 10ms/tick
	ringBetweenPhaseTicks = 300 // 3s at 10ms/tick
)

// ringer owns the AG1171 FR/RM cadence. It is driven from Line via
// requestRing/stop and updated once per tick.
type ringer struct {
	sub        RingSubState
	active     bool // set by requestRing, cleared by stop
	phaseTicks int  // ticks elapsed in the current on-phase or between-phase
}

// requestRing starts the cadence. Per spec.md §4.C it only takes
// effect "while OnHook and Idle"; Line enforces that precondition
// before calling this.
func (r *ringer) requestRing() {
	r.active = true
	r.sub = ringPulseOn
	r.phaseTicks = 0
}

// stop ends the cadence unconditionally, restoring the idle levels.
func (r *ringer) stop() {
	r.active = false
	r.sub = ringIdle
	r.phaseTicks = 0
}

// tick advances the cadence by one 10ms step and drives FR/RM.
func (r *ringer) tick(port hwport.Port) {
	if !r.active {
		port.GPIOWrite(hwport.PinFR, hwport.High)
		port.GPIOWrite(hwport.PinRM, hwport.Low)
		return
	}

	switch r.sub {
	case ringPulseOn, ringPulseOff:
		port.GPIOWrite(hwport.PinRM, hwport.High)
		if (r.phaseTicks/ringHalfCycleTicks)%2 == 0 {
			r.sub = ringPulseOn
			port.GPIOWrite(hwport.PinFR, hwport.High)
		} else {
			r.sub = ringPulseOff
			port.GPIOWrite(hwport.PinFR, hwport.Low)
		}
		r.phaseTicks++
		if r.phaseTicks >= ringOnPhaseTicks {
			r.sub = ringBetween
			r.phaseTicks = 0
		}

	case ringBetween:
		port.GPIOWrite(hwport.PinFR, hwport.High)
		port.GPIOWrite(hwport.PinRM, hwport.High)
		r.phaseTicks++
		if r.phaseTicks >= ringBetweenPhaseTicks {
			r.sub = ringPulseOn
			r.phaseTicks = 0
		}

	case ringIdle:
		port.GPIOWrite(hwport.PinFR, hwport.High)
		port.GPIOWrite(hwport.PinRM, hwport.Low)
	}
}
