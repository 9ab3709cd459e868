package distribution

import (
	"context"
	"log/slog"
	"testing"

	"github.com/zsiec/amrx/internal/source"
)

// nbFrameSize is the stored size of an AMR-NB mode-0 (4.75 kbit/s) frame.
const nbFrameSize = 13

// nbStream builds a narrowband container of n mode-0 frames.
func nbStream(tb testing.TB, n int) []byte {
	tb.Helper()
	out := []byte("#!AMR\n")
	for i := 0; i < n; i++ {
		frame := make([]byte, nbFrameSize)
		frame[0] = 0x04 // mode 0, quality bit set
		for j := 1; j < nbFrameSize; j++ {
			frame[j] = byte(i + j)
		}
		out = append(out, frame...)
	}
	return out
}

// newTestLibrary returns a library with one in-memory narrowband entry of
// frames mode-0 frames registered under id.
func newTestLibrary(tb testing.TB, id string, frames int) (*Library, *Entry) {
	tb.Helper()
	lib := NewLibrary(nil, nil, slog.New(slog.DiscardHandler))
	e, err := lib.AddSource(context.Background(), id, source.NewMem(nbStream(tb, frames)), nil)
	if err != nil {
		tb.Fatalf("AddSource: %v", err)
	}
	return lib, e
}
