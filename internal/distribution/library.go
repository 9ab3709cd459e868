// Package distribution serves opened AMR containers to network clients:
// a library of indexed files, per-client streaming sessions with their own
// read cursors, a varint wire format for frame records, and the HTTP/3 +
// HTTPS + WebSocket server that ties them together.
package distribution

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zsiec/amrx/internal/media"
	"github.com/zsiec/amrx/internal/observe"
	"github.com/zsiec/amrx/internal/probe"
	"github.com/zsiec/amrx/internal/source"
)

// Entry is one container in the served library. The source is opened and
// indexed once at Add time; every streaming session gets its own demuxer
// (and therefore its own cursor) over the shared source.
type Entry struct {
	ID     string
	Path   string
	Format string
	MIME   string
	Track  media.TrackInfo

	src    source.Source
	closer func() error
	reg    *probe.Registry
}

// NewDemuxer opens a fresh demuxer over the entry's source. Each caller
// owns the returned cursor; the underlying source stays shared.
func (e *Entry) NewDemuxer() (probe.Demuxer, error) {
	d, _, err := e.reg.Open(e.src)
	if err != nil {
		return nil, fmt.Errorf("distribution: reopen %q: %w", e.ID, err)
	}
	return d, nil
}

// Library is the registry of opened containers, keyed by ID. All methods
// are safe for concurrent use.
type Library struct {
	log *slog.Logger
	reg *probe.Registry
	met *observe.Metrics

	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewLibrary creates an empty library probing with reg. If log is nil,
// slog.Default() is used; if met is nil, open metrics are not recorded.
func NewLibrary(reg *probe.Registry, met *observe.Metrics, log *slog.Logger) *Library {
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		reg = probe.Default()
	}
	return &Library{
		log:     log.With("component", "library"),
		reg:     reg,
		met:     met,
		entries: make(map[string]*Entry),
	}
}

// Add opens the container file at path, indexes it, and registers it under
// id. An empty id derives from the path's base name without extension. A
// duplicate id or an unrecognized/corrupt file is an error; the file is not
// retained on failure.
func (l *Library) Add(ctx context.Context, id, path string) (*Entry, error) {
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	src, err := source.OpenFile(path)
	if err != nil {
		return nil, err
	}
	e, err := l.addSource(ctx, id, path, src, src.Close)
	if err != nil {
		src.Close()
		return nil, err
	}
	return e, nil
}

// AddSource registers an already-open source under id. The library takes
// over calling close (which may be nil) when the entry is removed.
func (l *Library) AddSource(ctx context.Context, id string, src source.Source, close func() error) (*Entry, error) {
	return l.addSource(ctx, id, "", src, close)
}

func (l *Library) addSource(ctx context.Context, id, path string, src source.Source, close func() error) (*Entry, error) {
	start := time.Now()
	d, res, err := l.reg.Open(src)
	if err != nil {
		l.recordOpen(ctx, res.Format, "error", start)
		return nil, err
	}
	track, err := d.Track()
	if err != nil {
		l.recordOpen(ctx, res.Format, "error", start)
		return nil, fmt.Errorf("distribution: track metadata for %q: %w", id, err)
	}

	e := &Entry{
		ID:     id,
		Path:   path,
		Format: res.Format,
		MIME:   res.MIME,
		Track:  track,
		src:    src,
		closer: close,
		reg:    l.reg,
	}

	l.mu.Lock()
	if _, ok := l.entries[id]; ok {
		l.mu.Unlock()
		l.recordOpen(ctx, res.Format, "duplicate", start)
		return nil, fmt.Errorf("distribution: id %q already registered", id)
	}
	l.entries[id] = e
	l.mu.Unlock()

	l.recordOpen(ctx, res.Format, "ok", start)
	l.log.Info("container added",
		"id", id,
		"format", res.Format,
		"duration_us", track.Duration,
		"cbr", track.ConstantFrameRate)
	return e, nil
}

func (l *Library) recordOpen(ctx context.Context, format, status string, start time.Time) {
	if l.met == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	l.met.RecordOpen(ctx, format, status, time.Since(start).Seconds())
}

// Get returns the entry registered under id.
func (l *Library) Get(id string) (*Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[id]
	return e, ok
}

// List returns all entries ordered by ID.
func (l *Library) List() []*Entry {
	l.mu.RLock()
	entries := make([]*Entry, 0, len(l.entries))
	for _, e := range l.entries {
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Remove unregisters id and closes its source. It reports whether an entry
// was removed.
func (l *Library) Remove(id string) bool {
	l.mu.Lock()
	e, ok := l.entries[id]
	if ok {
		delete(l.entries, id)
	}
	l.mu.Unlock()

	if !ok {
		return false
	}
	if e.closer != nil {
		if err := e.closer(); err != nil {
			l.log.Warn("closing removed entry", "id", id, "error", err)
		}
	}
	l.log.Info("container removed", "id", id)
	return true
}

// Close removes every entry, closing all sources.
func (l *Library) Close() {
	for _, e := range l.List() {
		l.Remove(e.ID)
	}
}
