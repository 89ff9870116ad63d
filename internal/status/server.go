// Package status exposes a small read-only HTTP surface reporting what
// the channel is doing: current state, the segment on screen, queue
// progress, and the most recent playback error.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"homereel/internal/events"
	"homereel/internal/scheduler"
)

// Snapshotter is the slice of the scheduler the server reads from.
type Snapshotter interface {
	Snapshot() scheduler.Snapshot
}

// Server serves GET /status and GET /healthz.
type Server struct {
	logger zerolog.Logger
	sched  Snapshotter
	http   *http.Server

	mu        sync.Mutex
	lastError string
	lastAt    time.Time
}

// NewServer builds a server bound to addr. The bus, when non-nil, feeds
// the last-error field; call Watch to start consuming it.
func NewServer(logger zerolog.Logger, addr string, sched Snapshotter) *Server {
	s := &Server{
		logger: logger.With().Str("component", "status").Logger(),
		sched:  sched,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the router. Split out so tests can drive it with httptest.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/status", s.handleStatus)
	r.Get("/healthz", s.handleHealthz)
	return r
}

// Watch records playback errors from the bus until the subscription closes.
func (s *Server) Watch(sub events.Subscriber) {
	for ev := range sub {
		if ev.Type != events.TypePlaybackError {
			continue
		}
		msg, _ := ev.Payload.(string)
		s.mu.Lock()
		s.lastError = msg
		s.lastAt = time.Now()
		s.mu.Unlock()
	}
}

// Start serves HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("status server listening")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type nowPlayingResponse struct {
	File          string `json:"file"`
	StartMs       int64  `json:"start_ms"`
	DurationMs    int64  `json:"duration_ms"`
	PlaylistIndex int    `json:"playlist_index"`
	PlaylistTotal int    `json:"playlist_total"`
}

type statusResponse struct {
	State       string              `json:"state"`
	NowPlaying  *nowPlayingResponse `json:"now_playing,omitempty"`
	QueueIndex  int                 `json:"queue_index"`
	QueueTotal  int                 `json:"queue_total"`
	MinSeconds  int                 `json:"min_seconds"`
	MaxSeconds  int                 `json:"max_seconds"`
	Loop        bool                `json:"loop"`
	LastError   string              `json:"last_error,omitempty"`
	LastErrorAt string              `json:"last_error_at,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.sched.Snapshot()

	resp := statusResponse{
		State:      snap.State.String(),
		QueueIndex: snap.QueueIndex,
		QueueTotal: snap.QueueTotal,
		MinSeconds: snap.MinSeconds,
		MaxSeconds: snap.MaxSeconds,
		Loop:       snap.Loop,
	}
	if snap.NowPlaying != nil {
		resp.NowPlaying = &nowPlayingResponse{
			File:          snap.NowPlaying.Path,
			StartMs:       snap.NowPlaying.Start.Milliseconds(),
			DurationMs:    snap.NowPlaying.Duration.Milliseconds(),
			PlaylistIndex: snap.NowPlaying.PlaylistIndex,
			PlaylistTotal: snap.NowPlaying.PlaylistTotal,
		}
	}

	s.mu.Lock()
	if s.lastError != "" {
		resp.LastError = s.lastError
		resp.LastErrorAt = s.lastAt.Format(time.RFC3339)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
