package amr

import (
	"errors"
	"io"
	"testing"

	"github.com/zsiec/amrx/internal/source"
)

func FuzzOpen(f *testing.F) {
	// Seeds: valid streams of both variants, bare magics, corrupt tails,
	// and non-AMR noise.
	f.Add(buildStream(f, Narrowband, 0, 7, 8))
	f.Add(buildStream(f, Wideband, 2, 9))
	f.Add([]byte(magicNB))
	f.Add([]byte(magicWB))
	f.Add(append(buildStream(f, Narrowband, 4), 0x64, 0xFF))
	f.Add([]byte("RIFF\x00\x00\x00\x00WAVE"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		e, err := Open(source.NewMem(data))
		if err != nil {
			return
		}
		// An opened extractor must serve every indexed frame without
		// panicking, with strictly increasing timestamps.
		lastPTS := int64(-1)
		for {
			fr, err := e.ReadFrame()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Fatalf("ReadFrame after successful Open: %v", err)
			}
			if fr.PTS <= lastPTS {
				t.Fatalf("PTS %d not increasing (prev %d)", fr.PTS, lastPTS)
			}
			lastPTS = fr.PTS
		}
		if err := e.SeekTo(lastPTS / 2); err != nil {
			t.Fatalf("SeekTo: %v", err)
		}
	})
}

func FuzzBuildIndex(f *testing.F) {
	f.Add(frameRegion(f, Narrowband, 0, 1, 2, 3, 4, 5, 6, 7))
	f.Add(frameRegion(f, Narrowband, 8, 15))
	f.Add([]byte{0x64})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		idx, err := buildIndex(source.NewMem(data), Narrowband, 0)
		if err != nil {
			return
		}
		// Invariants of any successfully built index.
		var frames, dur uint64
		for i, run := range idx.runs {
			if run.FrameCount == 0 {
				t.Fatalf("runs[%d] has zero FrameCount", i)
			}
			if i > 0 && idx.runs[i-1].FrameSize == run.FrameSize &&
				idx.runs[i-1].FrameDuration == run.FrameDuration {
				t.Fatalf("runs[%d] and runs[%d] were not coalesced", i-1, i)
			}
			frames += run.FrameCount
			dur += run.FrameCount * uint64(run.FrameDuration)
		}
		if frames != idx.totalFrames {
			t.Fatalf("totalFrames = %d, runs sum to %d", idx.totalFrames, frames)
		}
		if dur != idx.totalDuration {
			t.Fatalf("totalDuration = %d, runs sum to %d", idx.totalDuration, dur)
		}
	})
}
