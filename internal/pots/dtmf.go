package pots

// DTMFDetector is the DSP-layer boundary spec.md §4.C/§9 calls out:
// the core specifies when a dialed digit is deemed DTMF, not the
// Goertzel/ADC details behind it. Digit returns 0..11 (10='*', 11='#')
// for a currently-detected tone pair, or -1 when no tone is present.
//
// Grounded on the teacher's dtmf_test_shim.go, whose real decoder is
// itself stubbed out in the source (`_pots_dtmf_digit_found` returns
// -1) — the same posture spec.md §9 asks for here: this package
// depends on the interface but never invents the Goertzel math.
type DTMFDetector interface {
	Digit() int
}

// NoDetector is the default DTMFDetector: it never reports a digit.
// A deployment without DSP support (or one still bringing up audio)
// can use this and rely on rotary dialing alone.
type NoDetector struct{}

func (NoDetector) Digit() int { return -1 }
