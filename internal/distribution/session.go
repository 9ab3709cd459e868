package distribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zsiec/amrx/internal/config"
	"github.com/zsiec/amrx/internal/observe"
)

// A RecordSink receives one frame record per call. HTTP sessions append the
// record to the response body; WebSocket sessions send it as one binary
// message. A sink error ends the session.
type RecordSink func(pts int64, payload []byte) error

// Session streams one library entry to one client. It owns a private
// demuxer cursor over the entry's shared source, so concurrent sessions on
// the same file never interfere.
type Session struct {
	ID        string
	Transport string

	log   *slog.Logger
	entry *Entry
	met   *observe.Metrics
}

// SessionManager tracks live streaming sessions, adapted around uuid keys.
type SessionManager struct {
	log *slog.Logger
	met *observe.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty session manager. If log is nil,
// slog.Default() is used; if met is nil, session metrics are not recorded.
func NewSessionManager(met *observe.Metrics, log *slog.Logger) *SessionManager {
	if log == nil {
		log = slog.Default()
	}
	return &SessionManager{
		log:      log.With("component", "session-manager"),
		met:      met,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session streaming entry over transport and returns
// it. Release must be called when the session ends.
func (m *SessionManager) Create(ctx context.Context, entry *Entry, transport string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Transport: transport,
		entry:     entry,
		met:       m.met,
	}
	s.log = m.log.With("session", s.ID, "file", entry.ID, "transport", transport)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if m.met != nil {
		m.met.ActiveSessions.Add(ctx, 1)
	}
	s.log.Info("session started")
	return s
}

// Release removes a session from the manager.
func (m *SessionManager) Release(ctx context.Context, s *Session) {
	m.mu.Lock()
	_, ok := m.sessions[s.ID]
	if ok {
		delete(m.sessions, s.ID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	if m.met != nil {
		m.met.ActiveSessions.Add(ctx, -1)
	}
	s.log.Info("session ended")
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stream reads frames from fromUs to the end of the track and delivers each
// as one record to sink. PaceRealtime holds every frame until its
// presentation slot, measured against the first delivered frame; PaceFast
// delivers as fast as the sink drains. Stream returns nil on a complete
// track, ctx.Err() on cancellation, or the sink's error.
func (s *Session) Stream(ctx context.Context, sink RecordSink, fromUs int64, pace config.Pace) error {
	dmx, err := s.entry.NewDemuxer()
	if err != nil {
		return err
	}
	if fromUs > 0 {
		if err := dmx.SeekTo(fromUs); err != nil {
			return fmt.Errorf("distribution: seek %q to %dus: %w", s.entry.ID, fromUs, err)
		}
		if s.met != nil {
			s.met.Seeks.Add(ctx, 1)
		}
	}

	var (
		frames   int64
		bytes    int64
		start    time.Time
		startPTS int64
		timer    *time.Timer
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if s.met != nil && frames > 0 {
			s.met.RecordFramesServed(ctx, s.Transport, frames, bytes)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := dmx.ReadFrame()
		if errors.Is(err, io.EOF) {
			s.log.Debug("track complete", "frames", frames)
			return nil
		}
		if err != nil {
			return err
		}

		if pace == config.PaceRealtime {
			if timer == nil {
				start = time.Now()
				startPTS = f.PTS
				timer = time.NewTimer(0)
				if !timer.Stop() {
					<-timer.C
				}
			}
			due := start.Add(time.Duration(f.PTS-startPTS) * time.Microsecond)
			if wait := time.Until(due); wait > 0 {
				timer.Reset(wait)
				select {
				case <-timer.C:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		if err := sink(f.PTS, f.Data); err != nil {
			return err
		}
		frames++
		bytes += int64(len(f.Data))
	}
}
