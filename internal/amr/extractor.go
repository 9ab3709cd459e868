package amr

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/zsiec/amrx/internal/media"
	"github.com/zsiec/amrx/internal/source"
)

// Extractor serves sequential frame reads and time seeks over one opened
// AMR container. It borrows the byte source for its whole life and never
// closes it; the source must outlive the extractor. Methods assume one
// in-flight call at a time, matching a single read cursor per instance.
// Callers sharing an instance across goroutines must serialize access.
type Extractor struct {
	src     source.Source
	variant Variant
	idx     *frameIndex
	cur     cursor
	log     *slog.Logger
}

// Option configures an Extractor at open time.
type Option func(*Extractor)

// WithLogger routes the extractor's debug logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// Open reads the container magic, walks the whole frame stream once to
// build the run-length index, and returns an Extractor positioned on
// frame 0.
//
// Open fails with ErrBadMagic when neither magic matches, ErrEmptyStream
// when no valid frame follows the magic, or a wrapped read error. No
// Extractor is returned on failure.
func Open(src source.Source, opts ...Option) (*Extractor, error) {
	e := &Extractor{src: src, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	v, headerLen, err := sniffMagic(src)
	if err != nil {
		return nil, err
	}
	e.variant = v

	idx, err := buildIndex(src, v, int64(headerLen))
	if err != nil {
		return nil, err
	}
	e.idx = idx
	e.cur = idx.cursorAt(0)

	e.log.Debug("amr container indexed",
		"variant", v.String(),
		"frames", idx.totalFrames,
		"runs", len(idx.runs),
		"duration_us", idx.totalDuration)
	return e, nil
}

// Variant reports the container variant fixed at open time.
func (e *Extractor) Variant() Variant { return e.variant }

// CountTracks reports the number of tracks in the container. AMR containers
// carry exactly one audio track.
func (e *Extractor) CountTracks() int { return 1 }

// TotalFrames reports how many frames the index covers.
func (e *Extractor) TotalFrames() uint64 {
	if e.idx == nil {
		return 0
	}
	return e.idx.totalFrames
}

// Track returns the metadata of the single audio track. A zero-value
// Extractor reports ErrNotInitialized.
func (e *Extractor) Track() (media.TrackInfo, error) {
	if e.idx == nil {
		return media.TrackInfo{}, ErrNotInitialized
	}
	return media.TrackInfo{
		MIME:              e.variant.MIME(),
		SampleRate:        e.variant.SampleRate(),
		Channels:          1,
		Duration:          int64(e.idx.totalDuration),
		ConstantFrameRate: e.idx.constantFrameRate(),
	}, nil
}

// ReadFrame reads the frame under the cursor, stamps its presentation time,
// and advances the cursor. It returns io.EOF once the cursor has passed the
// last indexed frame.
func (e *Extractor) ReadFrame() (media.Frame, error) {
	if e.idx == nil {
		return media.Frame{}, ErrNotInitialized
	}
	if e.cur.frame >= e.idx.totalFrames {
		return media.Frame{}, io.EOF
	}

	run := e.idx.runs[e.cur.run]
	buf := make([]byte, run.FrameSize)
	if _, err := e.src.ReadAt(buf, e.cur.offset); err != nil {
		return media.Frame{}, fmt.Errorf("amr: read frame %d at offset %d: %w", e.cur.frame, e.cur.offset, err)
	}

	f := media.Frame{
		PTS:        e.cur.pts,
		Duration:   int64(run.FrameDuration),
		Data:       buf,
		SampleRate: e.variant.SampleRate(),
		Channels:   1,
	}

	e.cur.frame++
	e.cur.offset += int64(run.FrameSize)
	e.cur.pts += int64(run.FrameDuration)
	e.cur.inRun++
	if e.cur.inRun == run.FrameCount {
		e.cur.run++
		e.cur.inRun = 0
	}
	return f, nil
}

// SeekTo repositions the cursor on the frame whose slot covers targetUs.
// Times outside the track clamp to the first or last frame. The byte source
// is not touched until the next ReadFrame.
func (e *Extractor) SeekTo(targetUs int64) error {
	if e.idx == nil {
		return ErrNotInitialized
	}
	pos := e.idx.frameAtTime(targetUs)
	e.cur = e.idx.cursorAt(pos.frame)
	return nil
}
