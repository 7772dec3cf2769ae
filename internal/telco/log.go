// Package telco holds the cross-cutting pieces shared by every FSM package:
// the logger, the monotonic clock wrap helper, and nothing else. Keeping
// these in one tiny leaf package avoids an import cycle between hwport,
// bm64, pots, btlink and scheduler.
package telco

import (
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger builds the process-wide logger. verbose raises the level to
// Debug, matching the command surface's V=1 toggle (spec §4.F); callers
// that need to flip it at runtime hold onto the *log.Logger and call
// SetLevel directly.
func NewLogger(verbose bool) *log.Logger {
	lvl := log.InfoLevel
	if verbose {
		lvl = log.DebugLevel
	}
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	})
	return l
}

// ElapsedMS returns now-prev as an unsigned 64-bit delta, correct across
// wraparound of a monotonic millisecond counter. Per spec §4.E/§9,
// comparisons against a raw monotonic clock must never use a naive `<`:
// this computes the same value modular subtraction would, so a wrapped
// counter still yields the true elapsed time.
func ElapsedMS(prev, now uint64) uint64 {
	return now - prev
}
