package distribution

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/zsiec/amrx/internal/config"
)

type collectedRecord struct {
	pts     int64
	payload []byte
}

func collectSink(records *[]collectedRecord) RecordSink {
	return func(pts int64, payload []byte) error {
		*records = append(*records, collectedRecord{pts: pts, payload: payload})
		return nil
	}
}

func TestSessionStreamAllFrames(t *testing.T) {
	t.Parallel()

	lib, e := newTestLibrary(t, "speech", 6)
	defer lib.Close()
	mgr := NewSessionManager(nil, slog.New(slog.DiscardHandler))

	sess := mgr.Create(context.Background(), e, "test")
	if mgr.Count() != 1 {
		t.Fatalf("Count = %d, want 1", mgr.Count())
	}

	var records []collectedRecord
	if err := sess.Stream(context.Background(), collectSink(&records), 0, config.PaceFast); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	mgr.Release(context.Background(), sess)

	if len(records) != 6 {
		t.Fatalf("got %d records, want 6", len(records))
	}
	for i, rec := range records {
		if rec.pts != int64(i)*20000 {
			t.Errorf("record %d: pts = %d, want %d", i, rec.pts, int64(i)*20000)
		}
		if len(rec.payload) != nbFrameSize {
			t.Errorf("record %d: payload %d bytes, want %d", i, len(rec.payload), nbFrameSize)
		}
	}
	if mgr.Count() != 0 {
		t.Errorf("Count after release = %d, want 0", mgr.Count())
	}
}

func TestSessionStreamFrom(t *testing.T) {
	t.Parallel()

	lib, e := newTestLibrary(t, "speech", 10)
	defer lib.Close()
	mgr := NewSessionManager(nil, slog.New(slog.DiscardHandler))
	sess := mgr.Create(context.Background(), e, "test")
	defer mgr.Release(context.Background(), sess)

	// 70ms lands inside frame 3's 20ms slot.
	var records []collectedRecord
	if err := sess.Stream(context.Background(), collectSink(&records), 70_000, config.PaceFast); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(records) != 7 {
		t.Fatalf("got %d records, want 7", len(records))
	}
	if records[0].pts != 60_000 {
		t.Errorf("first pts = %d, want 60000", records[0].pts)
	}
}

func TestSessionStreamSinkError(t *testing.T) {
	t.Parallel()

	lib, e := newTestLibrary(t, "speech", 5)
	defer lib.Close()
	mgr := NewSessionManager(nil, slog.New(slog.DiscardHandler))
	sess := mgr.Create(context.Background(), e, "test")
	defer mgr.Release(context.Background(), sess)

	sinkErr := errors.New("client went away")
	delivered := 0
	err := sess.Stream(context.Background(), func(int64, []byte) error {
		delivered++
		if delivered == 2 {
			return sinkErr
		}
		return nil
	}, 0, config.PaceFast)
	if !errors.Is(err, sinkErr) {
		t.Fatalf("Stream err = %v, want sink error", err)
	}
	if delivered != 2 {
		t.Errorf("delivered = %d, want 2", delivered)
	}
}

func TestSessionStreamCancelled(t *testing.T) {
	t.Parallel()

	lib, e := newTestLibrary(t, "speech", 3)
	defer lib.Close()
	mgr := NewSessionManager(nil, slog.New(slog.DiscardHandler))
	sess := mgr.Create(context.Background(), e, "test")
	defer mgr.Release(context.Background(), sess)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sess.Stream(ctx, collectSink(&[]collectedRecord{}), 0, config.PaceRealtime)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Stream err = %v, want context.Canceled", err)
	}
}
