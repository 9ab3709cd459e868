package distribution

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"go.opentelemetry.io/otel/metric"

	"github.com/zsiec/amrx/internal/certs"
	"github.com/zsiec/amrx/internal/config"
	"github.com/zsiec/amrx/internal/observe"
)

// FileInfo is the JSON summary of a library entry, returned by the
// /api/files endpoints.
type FileInfo struct {
	ID                string `json:"id"`
	Format            string `json:"format"`
	MIME              string `json:"mime"`
	SampleRate        int    `json:"sampleRate"`
	Channels          int    `json:"channels"`
	DurationUs        int64  `json:"durationUs"`
	ConstantFrameRate bool   `json:"constantFrameRate"`
}

func fileInfo(e *Entry) FileInfo {
	return FileInfo{
		ID:                e.ID,
		Format:            e.Format,
		MIME:              e.MIME,
		SampleRate:        e.Track.SampleRate,
		Channels:          e.Track.Channels,
		DurationUs:        e.Track.Duration,
		ConstantFrameRate: e.Track.ConstantFrameRate,
	}
}

// ServerConfig holds the configuration for the distribution Server.
type ServerConfig struct {
	// Addr is served as UDP for HTTP/3 by Start and as TCP for the HTTPS
	// fallback the caller runs over Handler.
	Addr string

	// WebDir, when set, is served as static files at /.
	WebDir string

	// Cert terminates TLS for both listeners.
	Cert *certs.CertInfo

	// Library supplies the served entries.
	Library *Library

	// DefaultPace applies when a request does not choose a pacing mode.
	DefaultPace config.Pace

	// CORSOrigin is the Access-Control-Allow-Origin value. Default "*".
	CORSOrigin string

	// Metrics records serving telemetry. Nil disables recording; the
	// /metrics endpoint is exposed either way.
	Metrics *observe.Metrics

	// Log is the server's logger. Nil means slog.Default().
	Log *slog.Logger
}

// Server serves the library over HTTP/3, the caller's HTTPS listener, and
// WebSocket frame streams.
type Server struct {
	cfg      ServerConfig
	log      *slog.Logger
	sessions *SessionManager
	upgrader websocket.Upgrader
	h3       *http3.Server
}

// NewServer creates a distribution Server. Addr, Cert, and Library are
// required.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Cert == nil {
		return nil, errors.New("distribution: Cert is required")
	}
	if cfg.Addr == "" {
		return nil, errors.New("distribution: Addr is required")
	}
	if cfg.Library == nil {
		return nil, errors.New("distribution: Library is required")
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	if !cfg.DefaultPace.IsValid() {
		cfg.DefaultPace = config.PaceRealtime
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "distribution")

	return &Server{
		cfg:      cfg,
		log:      log,
		sessions: NewSessionManager(cfg.Metrics, log),
		// SECURITY: CheckOrigin accepts all origins. This is intentional
		// for development and local-network use. Deployments behind a
		// reverse proxy should enforce origin checks at the proxy layer.
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Sessions returns the server's session manager.
func (s *Server) Sessions() *SessionManager { return s.sessions }

// Handler returns the full HTTP handler: REST API, frame streaming,
// WebSocket streaming, health, metrics, and optional static files.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/files", s.handleListFiles)
	mux.HandleFunc("GET /api/files/{id}", s.handleFileInfo)
	mux.HandleFunc("GET /api/files/{id}/frames", s.handleFileFrames)
	mux.HandleFunc("GET /ws/files/{id}", s.handleFileWS)
	mux.HandleFunc("GET /api/cert-hash", s.handleCertHash)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.cfg.WebDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.WebDir)))
	}

	return s.corsMiddleware(s.metricsMiddleware(mux))
}

// metricsMiddleware records request latency per method and route pattern.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	if s.cfg.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.cfg.Metrics.HTTPRequestDuration.Record(r.Context(), time.Since(start).Seconds(),
			metric.WithAttributes(
				observe.Attr("method", r.Method),
				observe.Attr("path", r.URL.Path),
			))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// Start launches the HTTP/3 server and blocks until the context is
// cancelled or a fatal error occurs. The HTTPS fallback over the same
// Handler is the caller's to run.
func (s *Server) Start(ctx context.Context) error {
	s.h3 = &http3.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{s.cfg.Cert.TLSCert},
		},
		QUICConfig: &quic.Config{
			MaxIdleTimeout: 30 * time.Second,
			Allow0RTT:      true,
		},
	}

	s.log.Info("HTTP/3 server listening", "addr", s.cfg.Addr)

	stop := context.AfterFunc(ctx, func() { s.h3.Close() })
	defer stop()

	err := s.h3.ListenAndServe()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) handleListFiles(w http.ResponseWriter, _ *http.Request) {
	entries := s.cfg.Library.List()
	resp := make([]FileInfo, len(entries))
	for i, e := range entries {
		resp[i] = fileInfo(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cfg.Library.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	writeJSON(w, http.StatusOK, fileInfo(e))
}

// streamParams extracts the from/pace query parameters shared by the HTTP
// and WebSocket streaming endpoints.
func (s *Server) streamParams(r *http.Request) (fromUs int64, pace config.Pace, err error) {
	pace = s.cfg.DefaultPace
	if p := r.URL.Query().Get("pace"); p != "" {
		pace = config.Pace(p)
		if !pace.IsValid() {
			return 0, "", errors.New("pace must be realtime or fast")
		}
	}
	if f := r.URL.Query().Get("from"); f != "" {
		fromUs, err = strconv.ParseInt(f, 10, 64)
		if err != nil {
			return 0, "", errors.New("from must be an integer microsecond offset")
		}
	}
	return fromUs, pace, nil
}

func (s *Server) handleFileFrames(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cfg.Library.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	fromUs, pace, err := s.streamParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.sessions.Create(r.Context(), e, "http")
	defer s.sessions.Release(r.Context(), sess)

	w.Header().Set("Content-Type", "application/octet-stream")
	flusher, _ := w.(http.Flusher)

	err = sess.Stream(r.Context(), func(pts int64, payload []byte) error {
		if _, err := WriteFrameRecord(w, pts, payload); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}, fromUs, pace)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Debug("frame stream ended", "session", sess.ID, "error", err)
	}
}

func (s *Server) handleFileWS(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cfg.Library.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	fromUs, pace, err := s.streamParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := s.sessions.Create(r.Context(), e, "websocket")
	defer s.sessions.Release(r.Context(), sess)

	err = sess.Stream(r.Context(), func(pts int64, payload []byte) error {
		rec := AppendFrameRecord(make([]byte, 0, 16+len(payload)), pts, payload)
		return conn.WriteMessage(websocket.BinaryMessage, rec)
	}, fromUs, pace)
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			s.log.Debug("websocket stream ended", "session", sess.ID, "error", err)
		}
		return
	}
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "track complete"), deadline)
}

type certHashResponse struct {
	Hash string `json:"hash"`
	Addr string `json:"addr"`
}

func (s *Server) handleCertHash(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, certHashResponse{
		Hash: s.cfg.Cert.FingerprintBase64(),
		Addr: s.cfg.Addr,
	})
}

type healthResponse struct {
	Status   string `json:"status"`
	Files    int    `json:"files"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Files:    len(s.cfg.Library.List()),
		Sessions: s.sessions.Count(),
	})
}
