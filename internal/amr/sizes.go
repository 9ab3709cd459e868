package amr

import "fmt"

// Frame payload sizes in bits, indexed by the 4-bit frame type from header
// bits 6..3 (3GPP TS 26.101 for NB, TS 26.201 for WB). Stored frame size in
// bytes is the rounded-up payload plus the one-byte header. A zero entry
// marked valid means a header-only frame (NO_DATA, SPEECH_LOST).
var (
	frameBitsNB = [16]int{
		// speech modes 4.75 through 12.2 kbit/s
		95, 103, 118, 134, 148, 159, 204, 244,
		// SID family: AMR, GSM-EFR, TDMA-EFR, PDC-EFR
		39, 43, 38, 37,
		// reserved
		0, 0, 0,
		// NO_DATA
		0,
	}
	frameBitsWB = [16]int{
		// speech modes 6.60 through 23.85 kbit/s
		132, 177, 253, 285, 317, 365, 397, 461, 477,
		// SID
		40,
		// reserved
		0, 0, 0, 0,
		// SPEECH_LOST, NO_DATA
		0, 0,
	}
)

// frameSize resolves a frame type code to its stored size in bytes,
// including the header byte. noData marks SID and header-only codes, whose
// payloads carry no speech. Reserved codes wrap errInvalidFrameType; the
// walker treats them as corruption.
func frameSize(v Variant, code uint8) (size int, noData bool, err error) {
	if code > 15 {
		return 0, false, fmt.Errorf("frame type %d: %w", code, errInvalidFrameType)
	}
	var bits int
	if v == Wideband {
		if code > 9 && code < 14 {
			return 0, false, fmt.Errorf("frame type %d: %w", code, errInvalidFrameType)
		}
		bits = frameBitsWB[code]
		noData = code >= 9
	} else {
		if code > 11 && code < 15 {
			return 0, false, fmt.Errorf("frame type %d: %w", code, errInvalidFrameType)
		}
		bits = frameBitsNB[code]
		noData = code >= 8
	}
	return (bits+7)/8 + 1, noData, nil
}
