package pots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkarlsba/bluepot/internal/hwport"
)

func setOffHook(port *hwport.Fake, v bool) {
	if v {
		port.GPIOWrite(hwport.PinSHK, hwport.High)
	} else {
		port.GPIOWrite(hwport.PinSHK, hwport.Low)
	}
}

// settle runs n ticks holding the current raw SHK level, to get past
// the two-consecutive-sample debounce window.
func settle(l *Line, port *hwport.Fake, n int) {
	for i := 0; i < n; i++ {
		l.Evaluate(port, NoDetector{})
	}
}

func TestOffHookEdgeSurfacesOnSecondSample(t *testing.T) {
	l := New()
	port := hwport.NewFake()
	setOffHook(port, false)
	l.Evaluate(port, NoDetector{}) // establish baseline sample

	setOffHook(port, true)
	l.Evaluate(port, NoDetector{}) // sample 1 of the new level
	_, ok := l.HookChange()
	assert.False(t, ok, "single sample must not yet confirm the edge")

	l.Evaluate(port, NoDetector{}) // sample 2: two consecutive agree
	off, ok := l.HookChange()
	require.True(t, ok)
	assert.True(t, off)
	assert.Equal(t, OffHook, l.State())
}

func TestHookChangeIsSingleShot(t *testing.T) {
	l := New()
	port := hwport.NewFake()
	l.Evaluate(port, NoDetector{})
	setOffHook(port, true)
	l.Evaluate(port, NoDetector{})
	l.Evaluate(port, NoDetector{})
	_, ok := l.HookChange()
	require.True(t, ok)
	_, ok = l.HookChange()
	assert.False(t, ok, "a consumed edge must not be reported twice")
}

func TestRotaryPulseBreakDoesNotHangUp(t *testing.T) {
	l := New()
	port := hwport.NewFake()
	setOffHook(port, true)
	settle(l, port, 2)
	l.HookChange()
	require.Equal(t, OffHook, l.State())

	// A short on-hook/off-hook blip (a rotary pulse break) well inside
	// the 500ms provisional window must not surface as a hang-up.
	setOffHook(port, false)
	settle(l, port, 5)
	setOffHook(port, true)
	settle(l, port, 2)

	assert.Equal(t, OffHook, l.State())
	_, ok := l.HookChange()
	assert.False(t, ok, "a rotary pulse break must be suppressed, not surfaced")
}

func TestProvisionalTimeoutIsARealHangup(t *testing.T) {
	l := New()
	port := hwport.NewFake()
	setOffHook(port, true)
	settle(l, port, 2)
	l.HookChange()

	setOffHook(port, false)
	settle(l, port, 2) // enters OnHookProvisional
	require.Equal(t, OnHookProvisional, l.State())

	settle(l, port, provisionalDebounceTicks)
	assert.Equal(t, OnHook, l.State())
	off, ok := l.HookChange()
	require.True(t, ok)
	assert.False(t, off)
}

func TestDialTenRotaryPulsesYieldsDigitZero(t *testing.T) {
	l := New()
	port := hwport.NewFake()
	setOffHook(port, true)
	settle(l, port, 2)
	l.HookChange()

	for pulse := 0; pulse < 10; pulse++ {
		setOffHook(port, false)
		settle(l, port, 2) // confirms the on-hook edge, Break begins
		setOffHook(port, true)
		settle(l, port, 2) // confirms the off-hook edge, pulse counted, Make begins
	}
	settle(l, port, makeTicks+1) // gap ends the digit

	digit, ok := l.DigitDialed()
	require.True(t, ok)
	assert.Equal(t, 0, digit, "10 rotary pulses must yield digit 0, not 10")
}

func TestRingCadenceTogglesFRAndHoldsRMHigh(t *testing.T) {
	l := New()
	port := hwport.NewFake()
	l.SetRing(true)
	l.Evaluate(port, NoDetector{}) // starts ringing from OnHook/Idle
	require.Equal(t, Ringing, l.State())

	frHighCount, frLowCount := 0, 0
	for i := 0; i < ringOnPhaseTicks; i++ {
		l.Evaluate(port, NoDetector{})
		assert.Equal(t, hwport.High, port.GPIORead(hwport.PinRM), "RM must stay high through the on-phase")
		if port.GPIORead(hwport.PinFR) == hwport.High {
			frHighCount++
		} else {
			frLowCount++
		}
	}
	assert.InDelta(t, ringOnPhaseTicks/2, frHighCount, 2)
	assert.InDelta(t, ringOnPhaseTicks/2, frLowCount, 2)
}

func TestOffHookDuringRingingEndsRingAndAnswers(t *testing.T) {
	l := New()
	port := hwport.NewFake()
	l.SetRing(true)
	l.Evaluate(port, NoDetector{})
	require.Equal(t, Ringing, l.State())

	settle(l, port, 5)
	setOffHook(port, true)
	settle(l, port, 2)

	assert.Equal(t, OffHook, l.State())
	assert.Equal(t, hwport.Low, port.GPIORead(hwport.PinRM))
	off, ok := l.HookChange()
	require.True(t, ok)
	assert.True(t, off)
}
