package distribution

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/zsiec/amrx/internal/source"
)

func TestLibraryAddFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "greeting.amr")
	if err := os.WriteFile(path, nbStream(t, 5), 0o644); err != nil {
		t.Fatal(err)
	}

	lib := NewLibrary(nil, nil, slog.New(slog.DiscardHandler))
	defer lib.Close()

	e, err := lib.Add(context.Background(), "", path)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if e.ID != "greeting" {
		t.Errorf("derived ID = %q, want %q", e.ID, "greeting")
	}
	if e.Format != "amr-nb" {
		t.Errorf("Format = %q, want amr-nb", e.Format)
	}
	if e.Track.Duration != 5*20000 {
		t.Errorf("Duration = %d, want %d", e.Track.Duration, 5*20000)
	}
	if got, ok := lib.Get("greeting"); !ok || got != e {
		t.Error("Get did not return the added entry")
	}
}

func TestLibraryDuplicateID(t *testing.T) {
	t.Parallel()

	lib, _ := newTestLibrary(t, "a", 3)
	defer lib.Close()

	if _, err := lib.AddSource(context.Background(), "a", source.NewMem(nbStream(t, 3)), nil); err == nil {
		t.Fatal("duplicate id accepted")
	}
}

func TestLibraryRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	lib := NewLibrary(nil, nil, slog.New(slog.DiscardHandler))
	_, err := lib.AddSource(context.Background(), "junk", source.NewMem([]byte("RIFF....WAVE")), nil)
	if err == nil {
		t.Fatal("unknown format accepted")
	}
}

func TestLibraryListOrderAndRemove(t *testing.T) {
	t.Parallel()

	lib := NewLibrary(nil, nil, slog.New(slog.DiscardHandler))
	for _, id := range []string{"c", "a", "b"} {
		if _, err := lib.AddSource(context.Background(), id, source.NewMem(nbStream(t, 2)), nil); err != nil {
			t.Fatalf("AddSource(%q): %v", id, err)
		}
	}

	ids := func() []string {
		var out []string
		for _, e := range lib.List() {
			out = append(out, e.ID)
		}
		return out
	}

	got := ids()
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List order = %v, want %v", got, want)
		}
	}

	closed := false
	lib.entries["b"].closer = func() error { closed = true; return nil }

	if !lib.Remove("b") {
		t.Fatal("Remove(b) = false")
	}
	if !closed {
		t.Error("Remove did not close the entry's source")
	}
	if lib.Remove("b") {
		t.Error("second Remove(b) = true")
	}
	if len(lib.List()) != 2 {
		t.Errorf("entries after remove = %d, want 2", len(lib.List()))
	}
}

func TestEntryNewDemuxerIndependentCursors(t *testing.T) {
	t.Parallel()

	lib, e := newTestLibrary(t, "shared", 4)
	defer lib.Close()

	d1, err := e.NewDemuxer()
	if err != nil {
		t.Fatal(err)
	}
	d2, err := e.NewDemuxer()
	if err != nil {
		t.Fatal(err)
	}

	// Drain d1 completely; d2 must still start at frame 0.
	for i := 0; i < 4; i++ {
		if _, err := d1.ReadFrame(); err != nil {
			t.Fatalf("d1 frame %d: %v", i, err)
		}
	}
	f, err := d2.ReadFrame()
	if err != nil {
		t.Fatalf("d2 first frame: %v", err)
	}
	if f.PTS != 0 {
		t.Errorf("d2 first PTS = %d, want 0", f.PTS)
	}
}
