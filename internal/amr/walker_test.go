package amr

import (
	"errors"
	"io"
	"testing"

	"github.com/zsiec/amrx/internal/source"
)

func TestWalkFrame_SpeechFrame(t *testing.T) {
	t.Parallel()

	buf := frameBytes(t, Narrowband, 7) // 12.2 kbit/s, 32 bytes
	src := source.NewMem(buf)

	size, noData, next, err := walkFrame(src, Narrowband, 0)
	if err != nil {
		t.Fatal(err)
	}
	if size != 32 {
		t.Errorf("size = %d, want 32", size)
	}
	if noData {
		t.Error("noData = true for a speech frame")
	}
	if next != 32 {
		t.Errorf("next = %d, want 32", next)
	}
}

func TestWalkFrame_SIDFrame(t *testing.T) {
	t.Parallel()

	src := source.NewMem(frameBytes(t, Narrowband, 8))
	size, noData, next, err := walkFrame(src, Narrowband, 0)
	if err != nil {
		t.Fatal(err)
	}
	if size != 6 {
		t.Errorf("size = %d, want 6", size)
	}
	if !noData {
		t.Error("noData = false for a SID frame")
	}
	if next != 6 {
		t.Errorf("next = %d, want 6", next)
	}
}

func TestWalkFrame_EndOfStream(t *testing.T) {
	t.Parallel()

	buf := frameBytes(t, Wideband, 2)
	src := source.NewMem(buf)

	if _, _, _, err := walkFrame(src, Wideband, int64(len(buf))); !errors.Is(err, io.EOF) {
		t.Errorf("error at end = %v, want io.EOF", err)
	}
	if _, _, _, err := walkFrame(source.NewMem(nil), Wideband, 0); !errors.Is(err, io.EOF) {
		t.Errorf("error on empty source = %v, want io.EOF", err)
	}
}

func TestWalkFrame_InvalidCode(t *testing.T) {
	t.Parallel()

	src := source.NewMem([]byte{0x64, 0xAA, 0xBB}) // 0x64 carries reserved frame type 12
	_, _, _, err := walkFrame(src, Narrowband, 0)
	if !errors.Is(err, errInvalidFrameType) {
		t.Errorf("error = %v, want errInvalidFrameType", err)
	}
}

func TestWalkFrame_Truncated(t *testing.T) {
	t.Parallel()

	full := frameBytes(t, Narrowband, 7)
	src := source.NewMem(full[:10]) // header declares 32 bytes

	_, _, _, err := walkFrame(src, Narrowband, 0)
	if !errors.Is(err, errTruncatedFrame) {
		t.Errorf("error = %v, want errTruncatedFrame", err)
	}
}
