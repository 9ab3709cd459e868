// Package amr implements demuxing of AMR (Adaptive Multi-Rate) speech
// containers, narrowband and wideband. It walks the stored frame sequence
// once at open time, validating each frame header against the codec's fixed
// size classes, and folds the result into a run-length frame table that
// answers time-to-offset seeks in O(runs) without rescanning the file.
package amr

// Variant selects the narrowband or wideband partition of the codec tables.
// It is fixed when the container magic is read and never changes for the
// life of an extractor.
type Variant int

const (
	// Narrowband is AMR-NB: 8 kHz sampling, "#!AMR\n" magic.
	Narrowband Variant = iota
	// Wideband is AMR-WB: 16 kHz sampling, "#!AMR-WB\n" magic.
	Wideband
)

// Container magic prefixes for the single-channel storage format (RFC 4867).
const (
	magicNB = "#!AMR\n"
	magicWB = "#!AMR-WB\n"
)

// MIME types reported in track metadata and sniff results.
const (
	MIMENarrowband = "audio/amr"
	MIMEWideband   = "audio/amr-wb"
)

// Every stored frame covers 20ms of speech regardless of mode. SID and
// no-data frames occupy the same 20ms slot for indexing purposes; silence
// stretching is a decoder concern.
const FrameDurationUs = 20000

// String returns the short codec name.
func (v Variant) String() string {
	if v == Wideband {
		return "amr-wb"
	}
	return "amr-nb"
}

// MIME returns the container MIME type for the variant.
func (v Variant) MIME() string {
	if v == Wideband {
		return MIMEWideband
	}
	return MIMENarrowband
}

// SampleRate returns the codec sampling rate in Hz.
func (v Variant) SampleRate() int {
	if v == Wideband {
		return 16000
	}
	return 8000
}

// magic returns the variant's container prefix.
func (v Variant) magic() string {
	if v == Wideband {
		return magicWB
	}
	return magicNB
}
