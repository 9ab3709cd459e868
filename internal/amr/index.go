package amr

import (
	"errors"
	"io"

	"github.com/zsiec/amrx/internal/source"
)

// RunEntry is a maximal contiguous run of frames sharing one stored size and
// duration. The ordered run sequence is the whole frame index: a
// constant-bitrate file collapses to a single entry no matter how long it
// plays.
type RunEntry struct {
	FrameCount    uint64
	FrameSize     uint32 // stored bytes per frame, header included
	FrameDuration uint32 // microseconds per frame
}

// frameIndex is the immutable product of one forward pass over the frame
// stream. The extractor owns it and the seek math borrows the same slice.
type frameIndex struct {
	runs          []RunEntry
	firstOffset   int64 // byte offset of frame 0, right after the magic
	totalFrames   uint64
	totalDuration uint64 // microseconds
}

// constantFrameRate reports whether every indexed frame shares one size and
// the standard 20ms duration. Callers use it to shortcut seek math.
func (x *frameIndex) constantFrameRate() bool {
	return len(x.runs) == 1 && x.runs[0].FrameDuration == FrameDurationUs
}

// buildIndex walks the frame stream starting immediately after the magic,
// coalescing consecutive equal-size frames into runs. Trailing corruption or
// truncation closes the index at the last good frame; a read failure after
// at least one good frame is treated the same way. A stream yielding zero
// valid frames is rejected with ErrEmptyStream, or with the read error that
// prevented any progress.
func buildIndex(src source.Source, v Variant, firstOffset int64) (*frameIndex, error) {
	idx := &frameIndex{firstOffset: firstOffset}

	var open RunEntry
	offset := firstOffset
	for {
		size, _, next, err := walkFrame(src, v, offset)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				// Clean end of stream.
			case errors.Is(err, errInvalidFrameType), errors.Is(err, errTruncatedFrame):
				// Trailing corruption; keep the valid prefix.
			default:
				if idx.totalFrames == 0 {
					return nil, err
				}
			}
			break
		}

		if open.FrameCount > 0 && open.FrameSize == uint32(size) && open.FrameDuration == FrameDurationUs {
			open.FrameCount++
		} else {
			if open.FrameCount > 0 {
				idx.runs = append(idx.runs, open)
			}
			open = RunEntry{FrameCount: 1, FrameSize: uint32(size), FrameDuration: FrameDurationUs}
		}
		idx.totalFrames++
		idx.totalDuration += FrameDurationUs
		offset = next
	}
	if open.FrameCount > 0 {
		idx.runs = append(idx.runs, open)
	}
	if idx.totalFrames == 0 {
		return nil, ErrEmptyStream
	}
	return idx, nil
}
