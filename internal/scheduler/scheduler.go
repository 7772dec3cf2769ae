// Package scheduler implements the cooperative periodic driver of
// spec.md §4.E: two independent cadences (10ms POTS, 20ms BT) ticking
// off a single monotonic millisecond clock, wrap-safe, with the BT
// codec fully drained before its FSM is evaluated each BT tick.
//
// Grounded on the teacher's multi-channel periodic driver
// (multi_modem.go's per-channel audio callback scheduling) and the
// top-level run loop shape of direwolf.go.
package scheduler

import (
	"github.com/charmbracelet/log"

	"github.com/rkarlsba/bluepot/internal/hwport"
	"github.com/rkarlsba/bluepot/internal/pots"
	"github.com/rkarlsba/bluepot/internal/telco"
)

// Periods, in milliseconds, per spec.md §4.E.
const (
	PotsPeriodMS = 10
	BTPeriodMS   = 20
)

// Line is the subset of *pots.Line the scheduler drives directly.
type Line interface {
	Evaluate(port hwport.Port, dtmf pots.DTMFDetector)
}

// Link is the subset of *btlink.Link the scheduler drives directly.
type Link interface {
	Evaluate(port hwport.Port)
}

// Scheduler owns the tick bookkeeping; it has no knowledge of FSM
// internals beyond the two Evaluate entry points.
type Scheduler struct {
	port hwport.Port
	line Line
	link Link
	dtmf pots.DTMFDetector

	lastPots uint64
	lastBT   uint64
	logger   *log.Logger
}

// New returns a Scheduler armed to fire both cadences on their first
// Run call (lastPots/lastBT start far enough in the past that the
// first Tick always fires both).
func New(port hwport.Port, line Line, link Link, dtmf pots.DTMFDetector, logger *log.Logger) *Scheduler {
	now := port.MonotonicMS()
	return &Scheduler{
		port:     port,
		line:     line,
		link:     link,
		dtmf:     dtmf,
		lastPots: now - PotsPeriodMS,
		lastBT:   now - BTPeriodMS,
		logger:   logger,
	}
}

// Tick checks both cadences against the current monotonic clock and
// advances whichever ones are due. It is safe to call more often than
// either period; cadences that are not yet due are simply skipped
// (spec.md §4.E: "only advances if the elapsed delta >= its period").
func (s *Scheduler) Tick() {
	now := s.port.MonotonicMS()

	if telco.ElapsedMS(s.lastPots, now) >= PotsPeriodMS {
		s.line.Evaluate(s.port, s.dtmf)
		s.lastPots = now
	}

	if telco.ElapsedMS(s.lastBT, now) >= BTPeriodMS {
		// The BT tick's codec-drain-before-evaluate ordering lives
		// inside *btlink.Link.Evaluate itself (it calls Codec.Drain
		// first thing), keeping that invariant next to the state it
		// protects rather than duplicated here.
		s.link.Evaluate(s.port)
		s.lastBT = now
	}
}

// Run drives Tick in a loop until stop is closed. Each iteration
// sleeps a small slice of the faster period so wakeups stay responsive
// without busy-spinning; this loop is the only driver of the FSM ticks
// (spec.md §5: "cooperative and periodic, not preemptive").
func (s *Scheduler) Run(stop <-chan struct{}) {
	const pollMS = 2
	for {
		select {
		case <-stop:
			return
		default:
		}
		s.Tick()
		s.port.SleepMS(pollMS)
	}
}
