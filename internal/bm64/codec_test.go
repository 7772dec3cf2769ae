package bm64

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/rkarlsba/bluepot/internal/hwport"
	"github.com/rkarlsba/bluepot/internal/telco"
)

func feedAll(d *decoder, bytes []byte) (Frame, bool) {
	var last Frame
	var ok bool
	for _, b := range bytes {
		last, ok = d.feed(b)
	}
	return last, ok
}

func TestEncodeKnownFrames(t *testing.T) {
	cases := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"AcceptCall", EncodeAcceptCall(), []byte{0x00, 0xAA, 0x00, 0x03, 0x02, 0x00, 0x04, 0xF7}},
		{"DropCall", EncodeDropCall(), []byte{0x00, 0xAA, 0x00, 0x03, 0x02, 0x00, 0x06, 0xF5}},
		{"VoiceDial", EncodeVoiceDial(), []byte{0x00, 0xAA, 0x00, 0x03, 0x02, 0x00, 0x0A, 0xF1}},
		{"SetSpeakerGain(0x0E)", EncodeSetSpeakerGain(0x0E), []byte{0x00, 0xAA, 0x00, 0x03, 0x1B, 0x00, 0x0E, 0xD4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.got)
		})
	}
}

func TestEncodeLinkToSlotChecksumIsSelfConsistent(t *testing.T) {
	frame := EncodeLinkToSlot(3)
	require.Equal(t, []byte{0x00, 0xAA, 0x00, 0x04, 0x17, 0x04, 0x03, 0x03}, frame[:8])
	sum := byte(0)
	for _, b := range frame[2:] {
		sum += b
	}
	assert.Zero(t, sum, "sum of all bytes after sync, including checksum, must be 0 mod 256")
}

func TestDecoderRoundTrip(t *testing.T) {
	frame := Encode(0x03, []byte("Jane Doe"))
	d := newDecoder(nil)
	got, ok := feedAll(d, frame)
	require.True(t, ok)
	assert.Equal(t, byte(0x03), got.Cmd)
	assert.Equal(t, []byte("Jane Doe"), got.Payload)
}

func TestDecoderRejectsBadChecksum(t *testing.T) {
	frame := Encode(0x02, []byte{0x00, 0x04})
	frame[len(frame)-1] ^= 0xFF // corrupt checksum
	d := newDecoder(nil)
	_, ok := feedAll(d, frame)
	assert.False(t, ok)
	assert.Equal(t, rxIdle, d.state, "decoder must return to Idle after a malformed frame")
}

func TestDecoderIgnoresCmdZero(t *testing.T) {
	frame := Encode(0x00, []byte{0x01, 0x02})
	d := newDecoder(nil)
	_, ok := feedAll(d, frame)
	assert.False(t, ok, "CMD 0 frames are never surfaced as events")
	assert.Equal(t, rxIdle, d.state)
}

func TestDecoderNoPartialResync(t *testing.T) {
	d := newDecoder(nil)
	// 0x00 0x00 0xAA: the first 0x00 moves to Sync, the second 0x00
	// is not 0xAA so it drops back to Idle rather than treating the
	// second 0x00 as a fresh sync start that the subsequent 0xAA
	// would complete.
	d.feed(0x00)
	assert.Equal(t, rxSync, d.state)
	d.feed(0x00)
	assert.Equal(t, rxIdle, d.state)
}

func TestClassifyBTMStatus(t *testing.T) {
	up, ok := classify(Frame{Cmd: CmdBTMStatus, Payload: []byte{0x05}})
	require.True(t, ok)
	assert.Equal(t, EventLinkUp, up.Kind)

	down, ok := classify(Frame{Cmd: CmdBTMStatus, Payload: []byte{0x07}})
	require.True(t, ok)
	assert.Equal(t, EventLinkDown, down.Kind)

	_, ok = classify(Frame{Cmd: CmdBTMStatus, Payload: []byte{0x09}})
	assert.False(t, ok, "unrecognized BTM_Status payload is ignored")
}

func TestClassifyCallStatusOutOfRangeIgnored(t *testing.T) {
	_, ok := classify(Frame{Cmd: CmdCallStatus, Payload: []byte{0x00, 0x09}})
	assert.False(t, ok, "values outside 0..4 retain prior call state")
}

func TestClassifyCallerID(t *testing.T) {
	ev, ok := classify(Frame{Cmd: CmdCallerID, Payload: []byte("555-1234")})
	require.True(t, ok)
	assert.Equal(t, EventCallerID, ev.Kind)
	assert.Equal(t, "555-1234", ev.CallerID)
}

func TestCodecDrainSendsEventAck(t *testing.T) {
	logger := newTestLogger()
	codec := NewCodec(logger)
	port := hwport.NewFake()
	port.FeedRX(Encode(CmdBTMStatus, []byte{0x05})...)

	events := codec.Drain(port)
	require.Len(t, events, 1)
	assert.Equal(t, EventLinkUp, events[0].Kind)
	assert.Equal(t, EncodeEventAck(CmdBTMStatus), port.TXLog())
}

func TestCodecDrainSkipsAckOnBadChecksum(t *testing.T) {
	codec := NewCodec(newTestLogger())
	port := hwport.NewFake()
	frame := Encode(CmdCallStatus, []byte{0x00, 0x02})
	frame[len(frame)-1] ^= 0xFF
	port.FeedRX(frame...)

	events := codec.Drain(port)
	assert.Empty(t, events)
	assert.Empty(t, port.TXLog())
}

// --- property-based tests (spec.md §8) ---

func TestPropertyDecoderAlwaysReturnsToIdle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := newDecoder(nil)
		n := rapid.IntRange(0, 200).Draw(t, "n")
		for i := 0; i < n; i++ {
			b := byte(rapid.IntRange(0, 255).Draw(t, "b"))
			prev := d.state
			d.feed(b)
			// The byte that completes a frame (valid or not) and a bad
			// second sync byte both leave the machine in Idle.
			if prev == rxChecksum || (prev == rxSync && b != syncByte1) {
				assert.Equal(t, rxIdle, d.state)
			}
		}
		// After any prefix, the state is also always one of the seven
		// named states (never corrupted).
		assert.True(t, d.state >= rxIdle && d.state <= rxChecksum)
	})
}

func TestPropertyEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cmd := byte(rapid.IntRange(1, 255).Draw(t, "cmd"))
		payload := rapid.SliceOfN(rapid.IntRange(0, 255), 0, maxPayloadBytes).Draw(t, "payload")
		pb := make([]byte, len(payload))
		for i, v := range payload {
			pb[i] = byte(v)
		}

		frame := Encode(cmd, pb)
		d := newDecoder(nil)
		got, ok := feedAll(d, frame)
		require.True(t, ok)
		assert.Equal(t, cmd, got.Cmd)
		assert.Equal(t, pb, got.Payload)
		assert.Equal(t, rxIdle, d.state)
	})
}

func TestPropertyChecksumSumsToZero(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cmd := byte(rapid.IntRange(0, 255).Draw(t, "cmd"))
		n := rapid.IntRange(0, maxPayloadBytes).Draw(t, "n")
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(rapid.IntRange(0, 255).Draw(t, "p"))
		}
		frame := Encode(cmd, payload)
		var sum byte
		for _, b := range frame[2:] { // skip sync bytes
			sum += b
		}
		assert.Zero(t, sum)
	})
}

func newTestLogger() *log.Logger { return telco.NewLogger(true) }
