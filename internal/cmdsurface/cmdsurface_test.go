package cmdsurface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	slot       byte
	paired     bool
	injected   []byte
	resetCount int
	verbose    bool
}

func (f *fakeTarget) Slot() byte { return f.slot }
func (f *fakeTarget) SetSlot(slot byte) bool {
	if slot > 7 {
		return false
	}
	f.slot = slot
	return true
}
func (f *fakeTarget) EnterPairing()            { f.paired = true }
func (f *fakeTarget) InjectPacket(p []byte)     { f.injected = p }
func (f *fakeTarget) ResetModule()              { f.resetCount++ }
func (f *fakeTarget) SetVerbose(v bool)         { f.verbose = v }

func feedLine(p *Processor, line string) {
	for i := 0; i < len(line); i++ {
		p.Feed(line[i])
	}
	p.Feed('\n')
}

func TestQuerySlot(t *testing.T) {
	target := &fakeTarget{slot: 3}
	var got string
	p := New(target, nil, func(s string) { got = s })

	feedLine(p, "D")
	assert.Equal(t, "pairing slot: 3", got)
}

func TestSetSlotValid(t *testing.T) {
	target := &fakeTarget{slot: 0}
	var got string
	p := New(target, nil, func(s string) { got = s })

	feedLine(p, "D=5")
	require.Equal(t, byte(5), target.slot)
	assert.Contains(t, got, "5")
}

func TestSetSlotRejectsOutOfRange(t *testing.T) {
	target := &fakeTarget{slot: 2}
	var got string
	p := New(target, nil, func(s string) { got = s })

	feedLine(p, "D=9")
	assert.Equal(t, byte(2), target.slot, "prior slot retained on rejection")
	assert.Equal(t, "Illegal command", got)
}

func TestEnterPairing(t *testing.T) {
	target := &fakeTarget{}
	p := New(target, nil, func(string) {})
	feedLine(p, "L")
	assert.True(t, target.paired)
}

func TestInjectPacket(t *testing.T) {
	target := &fakeTarget{}
	p := New(target, nil, func(string) {})
	feedLine(p, "P=00 AA 01 02 03")
	assert.Equal(t, []byte{0x00, 0xAA, 0x01, 0x02, 0x03}, target.injected)
}

func TestInjectOversizeRejected(t *testing.T) {
	target := &fakeTarget{}
	var got string
	p := New(target, nil, func(s string) { got = s })

	line := "P="
	for i := 0; i < 30; i++ {
		line += "00 "
	}
	feedLine(p, line)
	assert.Nil(t, target.injected)
	assert.Equal(t, "Illegal command", got)
}

func TestResetAndVerbose(t *testing.T) {
	target := &fakeTarget{}
	p := New(target, nil, func(string) {})

	feedLine(p, "R")
	assert.Equal(t, 1, target.resetCount)

	feedLine(p, "V=1")
	assert.True(t, target.verbose)
	feedLine(p, "V=0")
	assert.False(t, target.verbose)
}

func TestUnknownVerbIsIllegal(t *testing.T) {
	target := &fakeTarget{}
	var got string
	p := New(target, nil, func(s string) { got = s })
	feedLine(p, "Z")
	assert.Equal(t, "Illegal command", got)
}

func TestOverlongLineIsIllegal(t *testing.T) {
	target := &fakeTarget{}
	var got string
	p := New(target, nil, func(s string) { got = s })
	for i := 0; i < maxLineBytes+5; i++ {
		p.Feed('D')
	}
	p.Feed('\n')
	assert.Equal(t, "Illegal command", got)
}

func TestCarriageReturnAlsoTerminates(t *testing.T) {
	target := &fakeTarget{}
	var got string
	p := New(target, nil, func(s string) { got = s })
	p.Feed('H')
	p.Feed('\r')
	assert.Contains(t, got, "print current pairing slot")
}
