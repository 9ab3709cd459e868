package probe

import (
	"errors"
	"io"
	"testing"

	"github.com/zsiec/amrx/internal/media"
	"github.com/zsiec/amrx/internal/source"
)

// nbStream is a minimal narrowband container: the magic plus one 12.2
// kbit/s frame.
func nbStream() []byte {
	frame := make([]byte, 32)
	frame[0] = 7<<3 | 0x04
	return append([]byte("#!AMR\n"), frame...)
}

// wbStream is a minimal wideband container: the magic plus one SID frame.
func wbStream() []byte {
	frame := make([]byte, 6)
	frame[0] = 9<<3 | 0x04
	return append([]byte("#!AMR-WB\n"), frame...)
}

func TestDefaultProbe_AMRVariants(t *testing.T) {
	t.Parallel()

	res, err := Default().Probe(source.NewMem(nbStream()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Format != "amr-nb" {
		t.Errorf("Format = %q, want amr-nb", res.Format)
	}
	if res.MIME != "audio/amr" {
		t.Errorf("MIME = %q, want audio/amr", res.MIME)
	}
	if res.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", res.Confidence)
	}

	res, err = Default().Probe(source.NewMem(wbStream()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Format != "amr-wb" {
		t.Errorf("Format = %q, want amr-wb", res.Format)
	}
	if res.MIME != "audio/amr-wb" {
		t.Errorf("MIME = %q, want audio/amr-wb", res.MIME)
	}
}

func TestProbe_Unknown(t *testing.T) {
	t.Parallel()

	_, err := Default().Probe(source.NewMem([]byte("OggS\x00\x02")))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("error = %v, want ErrUnknownFormat", err)
	}
	if _, _, err := Default().Open(source.NewMem(nil)); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Open error = %v, want ErrUnknownFormat", err)
	}
}

func TestOpen_ServesFrames(t *testing.T) {
	t.Parallel()

	d, res, err := Default().Open(source.NewMem(nbStream()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Format != "amr-nb" {
		t.Errorf("Format = %q, want amr-nb", res.Format)
	}
	if d.CountTracks() != 1 {
		t.Errorf("CountTracks() = %d, want 1", d.CountTracks())
	}
	info, err := d.Track()
	if err != nil {
		t.Fatal(err)
	}
	if info.Duration != 20_000 {
		t.Errorf("Duration = %d, want 20000", info.Duration)
	}
	f, err := d.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if f.PTS != 0 || len(f.Data) != 32 {
		t.Errorf("frame = PTS %d len %d, want PTS 0 len 32", f.PTS, len(f.Data))
	}
	if _, err := d.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("read past end = %v, want io.EOF", err)
	}
}

// fakeDemuxer satisfies Demuxer for registry dispatch tests.
type fakeDemuxer struct{ name string }

func (f *fakeDemuxer) CountTracks() int { return 1 }

func (f *fakeDemuxer) Track() (media.TrackInfo, error) { return media.TrackInfo{}, nil }

func (f *fakeDemuxer) ReadFrame() (media.Frame, error) { return media.Frame{}, io.EOF }

func (f *fakeDemuxer) SeekTo(int64) error { return nil }

func TestRegistry_HighestConfidenceWins(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("weak",
		func(source.Source) (Result, bool) { return Result{Confidence: 0.3}, true },
		func(source.Source) (Demuxer, error) { return &fakeDemuxer{name: "weak"}, nil })
	r.Register("strong",
		func(source.Source) (Result, bool) { return Result{Confidence: 0.9}, true },
		func(source.Source) (Demuxer, error) { return &fakeDemuxer{name: "strong"}, nil })

	d, res, err := r.Open(source.NewMem(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.Format != "strong" {
		t.Errorf("Format = %q, want strong", res.Format)
	}
	if fd, ok := d.(*fakeDemuxer); !ok || fd.name != "strong" {
		t.Errorf("dispatched demuxer = %+v, want strong", d)
	}
}
