// Package scheduler implements the randomized segment playback state
// machine: it pulls files from a shuffled session queue, drives the media
// backend through load → seek → play cycles, ends each segment with a
// single-shot countdown timer, and skips forward on backend errors.
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"homereel/internal/events"
	"homereel/internal/segment"
	"homereel/internal/session"
)

const (
	defaultRetryDelay = 100 * time.Millisecond
	defaultRetryLimit = 10
)

// SegmentInfo is the read-only snapshot emitted once per started segment.
type SegmentInfo struct {
	Path          string
	Start         time.Duration
	Duration      time.Duration
	PlaylistIndex int // 1-based position in the current pass
	PlaylistTotal int
}

// Snapshot is a point-in-time view of the scheduler for status reporting.
type Snapshot struct {
	State      State
	NowPlaying *SegmentInfo // nil unless a segment is playing or paused
	QueueIndex int
	QueueTotal int
	MinSeconds int
	MaxSeconds int
	Loop       bool
}

// Options tune scheduler internals; the zero value applies defaults.
type Options struct {
	Rand       *rand.Rand    // randomness for shuffling and segment bounds
	RetryDelay time.Duration // delay between duration probes
	RetryLimit int           // probes before a file is abandoned
}

// Scheduler owns the session queue and the playback state machine.
//
// All mutable state is confined to the Run goroutine: user commands,
// backend events, and timer expiries are serialized through channels and
// handled one at a time, so no transition ever runs concurrently with
// another. Staleness is handled with a generation token bumped on every
// load request, Stop, and ConfigureSession; events carrying an old token
// are dropped.
type Scheduler struct {
	backend Backend
	bus     *events.Bus
	logger  zerolog.Logger
	rng     *rand.Rand

	retryDelay time.Duration
	retryLimit int

	cmds  chan command
	ticks chan tick
	done  chan struct{}

	// Owned by the Run goroutine.
	state      State
	queue      *session.Queue
	minSeconds int
	maxSeconds int
	loop       bool
	token      uint64
	timerSeq   uint64
	pending    *pendingLoad
	timer      *time.Timer
	deadline   time.Time
	remaining  time.Duration
	current    *SegmentInfo

	mu   sync.RWMutex
	snap Snapshot
}

type pendingLoad struct {
	path    string
	retries int
}

type cmdKind int

const (
	cmdConfigure cmdKind = iota
	cmdStart
	cmdNext
	cmdPause
	cmdResume
	cmdStop
)

type command struct {
	kind       cmdKind
	files      []string
	minSeconds int
	maxSeconds int
	loop       bool
}

type tickKind int

const (
	tickSegmentEnd tickKind = iota // countdown timer expired
	tickProbe                      // duration re-check after a short delay
	tickSkip                       // deferred advance after a load failure
)

type tick struct {
	kind tickKind
	seq  uint64
}

// New creates a scheduler for the given backend. Observer events are
// published on bus; playback does not begin until ConfigureSession and
// Start are called and Run is looping.
func New(backend Backend, bus *events.Bus, logger zerolog.Logger, opts Options) *Scheduler {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	retryLimit := opts.RetryLimit
	if retryLimit <= 0 {
		retryLimit = defaultRetryLimit
	}

	s := &Scheduler{
		backend:    backend,
		bus:        bus,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		rng:        rng,
		retryDelay: retryDelay,
		retryLimit: retryLimit,
		cmds:       make(chan command, 16),
		ticks:      make(chan tick, 16),
		done:       make(chan struct{}),
		queue:      session.NewQueue(rng),
		minSeconds: 1,
		maxSeconds: 1,
	}
	s.storeSnapshot()
	return s
}

// Run processes commands, backend events, and timer ticks one at a time
// until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().Msg("scheduler started")
	defer close(s.done)

	backendEvents := s.backend.Events()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			s.logger.Info().Msg("scheduler stopped")
			return ctx.Err()

		case c := <-s.cmds:
			s.handleCommand(c)

		case ev, ok := <-backendEvents:
			if !ok {
				backendEvents = nil
				continue
			}
			s.handleBackendEvent(ev)

		case tk := <-s.ticks:
			s.handleTick(tk)
		}
	}
}

// ConfigureSession replaces the session: the file list is copied and
// shuffled, the timing range normalized so 1 ≤ min ≤ max, and all pending
// and paused state reset. The scheduler returns to Idle.
func (s *Scheduler) ConfigureSession(files []string, minSeconds, maxSeconds int, loop bool) {
	fs := make([]string, len(files))
	copy(fs, files)
	s.send(command{kind: cmdConfigure, files: fs, minSeconds: minSeconds, maxSeconds: maxSeconds, loop: loop})
}

// Start begins playback of the configured session. Ignored while a
// session is already active.
func (s *Scheduler) Start() { s.send(command{kind: cmdStart}) }

// NextSegment skips to the next queue item immediately.
func (s *Scheduler) NextSegment() { s.send(command{kind: cmdNext}) }

// Pause suspends the current segment, capturing the countdown remainder.
func (s *Scheduler) Pause() { s.send(command{kind: cmdPause}) }

// Resume continues a paused segment with the captured remainder.
func (s *Scheduler) Resume() { s.send(command{kind: cmdResume}) }

// Stop ends the session from any state, including mid-retry.
func (s *Scheduler) Stop() { s.send(command{kind: cmdStop}) }

// Snapshot returns the most recent state for status reporting.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Scheduler) send(c command) {
	select {
	case s.cmds <- c:
	case <-s.done:
	}
}

// --- Run goroutine internals ---

func (s *Scheduler) handleCommand(c command) {
	switch c.kind {
	case cmdConfigure:
		s.configure(c)
	case cmdStart:
		if s.state.IsActive() {
			s.logger.Debug().Msg("start ignored: session already active")
			break
		}
		s.logger.Info().Int("files", s.queue.Total()).Msg("session starting")
		s.advance()
	case cmdNext:
		if !s.state.IsActive() {
			s.logger.Debug().Msg("next ignored: no active session")
			break
		}
		s.advance()
	case cmdPause:
		s.pause()
	case cmdResume:
		s.resume()
	case cmdStop:
		s.stop()
	}
	s.storeSnapshot()
}

func (s *Scheduler) handleBackendEvent(ev BackendEvent) {
	if ev.Token != s.token {
		s.logger.Debug().Uint64("token", ev.Token).Uint64("current", s.token).Msg("stale backend event ignored")
		return
	}

	switch ev.Kind {
	case BackendReady:
		s.handleReady(ev.Duration)
	case BackendFailed:
		msg := ev.Message
		if msg == "" {
			msg = "unknown playback error"
		}
		s.reportError(msg)
		if s.state.IsActive() {
			s.advance()
		}
	}
	s.storeSnapshot()
}

func (s *Scheduler) handleTick(tk tick) {
	switch tk.kind {
	case tickSegmentEnd:
		if tk.seq != s.timerSeq || s.state != Playing {
			return
		}
		s.advance()
	case tickProbe:
		if tk.seq != s.token {
			return
		}
		if s.state == RetryingDuration && s.pending != nil {
			s.handleReady(0)
		}
	case tickSkip:
		if tk.seq != s.token {
			return
		}
		if s.state.IsActive() {
			s.advance()
		}
	}
	s.storeSnapshot()
}

func (s *Scheduler) configure(c command) {
	minSec := c.minSeconds
	if minSec < 1 {
		minSec = 1
	}
	maxSec := c.maxSeconds
	if maxSec < minSec {
		maxSec = minSec
	}

	s.disarmTimer()
	s.token++
	s.pending = nil
	s.remaining = 0
	s.current = nil
	s.minSeconds = minSec
	s.maxSeconds = maxSec
	s.loop = c.loop
	s.queue.Configure(c.files, c.loop)
	s.state = Idle

	s.logger.Info().
		Int("files", len(c.files)).
		Int("min_seconds", minSec).
		Int("max_seconds", maxSec).
		Bool("loop", c.loop).
		Msg("session configured")
}

// advance ends the current segment, pulls the next queue item, and asks
// the backend to load it. Timer and pending state are cleared first and
// the token bumped, so nothing from the old segment can act afterwards.
func (s *Scheduler) advance() {
	s.disarmTimer()
	s.remaining = 0
	s.current = nil
	s.token++
	s.pending = nil

	path, ok := s.queue.Next()
	if !ok {
		s.state = Exhausted
		if err := s.backend.Stop(); err != nil {
			s.logger.Debug().Err(err).Msg("backend stop failed")
		}
		s.logger.Info().Msg("session queue empty")
		s.bus.Publish(events.TypeQueueEmpty, nil)
		return
	}

	s.pending = &pendingLoad{path: path}
	s.state = AwaitingLoad
	s.logger.Debug().Str("file", path).Uint64("token", s.token).Msg("requesting load")

	if err := s.backend.Load(s.token, path); err != nil {
		s.reportError(fmt.Sprintf("load %s: %v", path, err))
		s.pending = nil
		// Defer the skip instead of recursing so a queue of unloadable
		// files cannot spin the loop.
		s.scheduleTick(tickSkip, s.token, s.retryDelay)
	}
}

// handleReady finishes a pending load: with a usable duration it computes
// the segment plan, seeks, plays, and arms the countdown; without one it
// schedules a bounded re-probe, because real backends often report
// readiness before metadata carries a length.
func (s *Scheduler) handleReady(reported time.Duration) {
	if s.pending == nil {
		// Readiness for a segment that already started; nothing to do.
		return
	}

	d := reported
	if d <= 0 {
		if probed, err := s.backend.Duration(); err == nil && probed > 0 {
			d = probed
		}
	}
	if d <= 0 {
		if s.pending.retries >= s.retryLimit {
			s.reportError(fmt.Sprintf("could not read duration: %s", s.pending.path))
			s.advance()
			return
		}
		s.pending.retries++
		s.state = RetryingDuration
		s.scheduleTick(tickProbe, s.token, s.retryDelay)
		return
	}

	plan, err := segment.Choose(d, s.minSeconds, s.maxSeconds, s.rng)
	if err != nil {
		s.reportError(fmt.Sprintf("segment plan for %s: %v", s.pending.path, err))
		s.advance()
		return
	}

	if err := s.backend.Seek(plan.Start); err != nil {
		s.reportError(fmt.Sprintf("seek %s: %v", s.pending.path, err))
		s.advance()
		return
	}
	if err := s.backend.Play(); err != nil {
		s.reportError(fmt.Sprintf("play %s: %v", s.pending.path, err))
		s.advance()
		return
	}

	info := SegmentInfo{
		Path:          s.pending.path,
		Start:         plan.Start,
		Duration:      plan.Duration,
		PlaylistIndex: s.queue.Position(),
		PlaylistTotal: s.queue.Total(),
	}
	s.pending = nil
	s.current = &info
	s.state = Playing
	s.armTimer(plan.Duration)

	s.logger.Info().
		Str("file", info.Path).
		Dur("start", info.Start).
		Dur("duration", info.Duration).
		Int("index", info.PlaylistIndex).
		Int("total", info.PlaylistTotal).
		Msg("segment started")
	s.bus.Publish(events.TypeSegmentStarted, info)
}

func (s *Scheduler) pause() {
	if s.state != Playing || !s.backend.IsPlaying() {
		return
	}
	if err := s.backend.Pause(); err != nil {
		s.logger.Warn().Err(err).Msg("backend pause failed")
		return
	}
	s.remaining = time.Until(s.deadline)
	if s.remaining < 0 {
		s.remaining = 0
	}
	s.disarmTimer()
	s.state = Paused
	s.logger.Info().Dur("remaining", s.remaining).Msg("paused")
}

func (s *Scheduler) resume() {
	if s.state != Paused || !s.backend.IsPaused() {
		return
	}
	if err := s.backend.Resume(); err != nil {
		s.logger.Warn().Err(err).Msg("backend resume failed")
		return
	}
	if s.remaining > 0 {
		s.armTimer(s.remaining)
	}
	s.state = Playing
	s.logger.Info().Dur("remaining", s.remaining).Msg("resumed")
	s.remaining = 0
}

// stop returns to Idle from any state. Bumping the token makes every
// in-flight backend event, probe, and timer tick stale.
func (s *Scheduler) stop() {
	s.disarmTimer()
	s.token++
	s.pending = nil
	s.remaining = 0
	s.current = nil
	s.state = Idle
	if err := s.backend.Stop(); err != nil {
		s.logger.Debug().Err(err).Msg("backend stop failed")
	}
	s.logger.Info().Msg("session stopped")
}

func (s *Scheduler) shutdown() {
	s.disarmTimer()
	s.token++
	s.pending = nil
	s.current = nil
	s.state = Idle
	if err := s.backend.Stop(); err != nil {
		s.logger.Debug().Err(err).Msg("backend stop failed")
	}
	s.storeSnapshot()
}

func (s *Scheduler) reportError(msg string) {
	s.logger.Warn().Str("reason", msg).Msg("playback error")
	s.bus.Publish(events.TypePlaybackError, msg)
}

// armTimer starts the single-shot segment countdown. The sequence number
// invalidates ticks from any previously armed timer that may already be
// queued.
func (s *Scheduler) armTimer(d time.Duration) {
	s.disarmTimer()
	s.timerSeq++
	seq := s.timerSeq
	s.deadline = time.Now().Add(d)
	s.timer = time.AfterFunc(d, func() {
		s.postTick(tick{kind: tickSegmentEnd, seq: seq})
	})
}

func (s *Scheduler) disarmTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerSeq++
}

func (s *Scheduler) scheduleTick(kind tickKind, seq uint64, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.postTick(tick{kind: kind, seq: seq})
	})
}

func (s *Scheduler) postTick(tk tick) {
	select {
	case s.ticks <- tk:
	case <-s.done:
	}
}

func (s *Scheduler) storeSnapshot() {
	snap := Snapshot{
		State:      s.state,
		QueueIndex: s.queue.Position(),
		QueueTotal: s.queue.Total(),
		MinSeconds: s.minSeconds,
		MaxSeconds: s.maxSeconds,
		Loop:       s.loop,
	}
	if s.current != nil {
		info := *s.current
		snap.NowPlaying = &info
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
