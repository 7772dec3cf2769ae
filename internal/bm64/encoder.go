package bm64

// Encode builds a complete outbound wire frame for cmd/payload: sync,
// big-endian length (CMD + payload byte count), payload, and the
// two's-complement checksum (spec.md §4.B, §6). payload must be at
// most maxPayloadBytes long; callers that violate this are a
// programming error, not a runtime condition, so Encode panics rather
// than silently truncating.
func Encode(cmd byte, payload []byte) []byte {
	if len(payload) > maxPayloadBytes {
		panic("bm64: payload too large to encode")
	}
	length := 1 + len(payload)
	lenHi := byte(length >> 8)
	lenLo := byte(length)

	body := make([]byte, 0, 2+length)
	body = append(body, lenHi, lenLo, cmd)
	body = append(body, payload...)

	frame := make([]byte, 0, 2+len(body)+1)
	frame = append(frame, syncByte0, syncByte1)
	frame = append(frame, body...)
	frame = append(frame, checksum(body))
	return frame
}

// EncodeEventAck builds the Event-Ack frame (CMD 0x14) a receiver must
// send for every inbound event CMD (spec.md §4.B, §6, GLOSSARY).
func EncodeEventAck(eventCmd byte) []byte {
	return Encode(eventAckCmd, []byte{eventCmd})
}

// Named outbound command builders, spec.md §6's table.

func EncodeAcceptCall() []byte    { return Encode(0x02, []byte{0x00, 0x04}) }
func EncodeDropCall() []byte      { return Encode(0x02, []byte{0x00, 0x06}) }
func EncodeVoiceDial() []byte     { return Encode(0x02, []byte{0x00, 0x0A}) }
func EncodeEnterPairing() []byte  { return Encode(0x02, []byte{0x00, 0x5D}) }
func EncodeSetSpeakerGain(gain byte) []byte {
	return Encode(0x1B, []byte{0x00, gain & 0x0F})
}
func EncodeLinkToSlot(slot byte) []byte {
	return Encode(0x17, []byte{0x04, slot, 0x03})
}

// EncodeDialNumber builds the DialNumber packet: CMD 0x00, a single
// 0x00 payload prefix byte, then exactly 10 ASCII digit characters
// drawn from '0'-'9', '*', '#'. This gives LEN=12 on the wire
// (CMD + prefix + 10 digits) regardless of how many digits were
// meaningfully dialed — the dial buffer always fills to 10 before
// dispatch (spec.md §6, §9).
func EncodeDialNumber(digits [10]byte) []byte {
	payload := make([]byte, 0, 11)
	payload = append(payload, 0x00)
	payload = append(payload, digits[:]...)
	return Encode(0x00, payload)
}
