// Package vlc implements the scheduler's media backend on libVLC.
//
// libVLC loads media asynchronously and often reports readiness before
// track metadata carries a length, so the engine translates parse/duration
// callbacks into scheduler backend events tagged with the load token it
// was handed. Seeks requested before playback starts are held and applied
// on the first playing callback, because libVLC ignores SetMediaTime on a
// stopped player.
package vlc

import (
	"fmt"
	"sync"
	"time"

	libvlc "github.com/adrg/libvlc-go/v3"
	"github.com/rs/zerolog"

	"homereel/internal/scheduler"
)

var (
	vlcInitOnce sync.Once
	vlcInitErr  error
)

// Options configure the playback surface.
type Options struct {
	Fullscreen bool
	Volume     int // initial volume, 0-100
	Mute       bool
}

// Engine drives a libVLC player and reports load outcomes on its event
// channel. It implements scheduler.Backend.
type Engine struct {
	logger zerolog.Logger
	player *libvlc.Player
	events chan scheduler.BackendEvent

	playerManager *libvlc.EventManager
	playerEvents  []libvlc.EventID

	mu          sync.Mutex
	media       *libvlc.Media
	mediaIDs    []libvlc.EventID
	mediaMan    *libvlc.EventManager
	token       uint64
	path        string
	pendingSeek time.Duration
	hasSeek     bool
	readySent   bool
}

var _ scheduler.Backend = (*Engine)(nil)

// New initializes libVLC (once per process) and creates the engine.
func New(logger zerolog.Logger, opts Options) (*Engine, error) {
	vlcInitOnce.Do(func() {
		flags := []string{
			"--no-video-title-show",
			"--no-osd",
			"--no-spu",

			"--avcodec-hw=any",
			"--avcodec-threads=0",

			"--file-caching=3000",
			"--clock-jitter=0",
			"--deinterlace=0",

			"--quiet",
		}
		if opts.Fullscreen {
			flags = append(flags, "--fullscreen")
		}
		vlcInitErr = libvlc.Init(flags...)
	})
	if vlcInitErr != nil {
		return nil, fmt.Errorf("libvlc init: %w", vlcInitErr)
	}

	player, err := libvlc.NewPlayer()
	if err != nil {
		return nil, fmt.Errorf("libvlc player: %w", err)
	}

	e := &Engine{
		logger: logger.With().Str("component", "vlc").Logger(),
		player: player,
		events: make(chan scheduler.BackendEvent, 16),
	}

	if err := e.attachPlayerEvents(); err != nil {
		player.Release()
		return nil, err
	}

	if opts.Volume > 0 {
		if err := e.SetVolume(opts.Volume); err != nil {
			e.logger.Warn().Err(err).Msg("set volume failed")
		}
	}
	if err := e.SetMute(opts.Mute); err != nil {
		e.logger.Warn().Err(err).Msg("set mute failed")
	}

	e.logger.Info().Bool("fullscreen", opts.Fullscreen).Msg("libVLC player initialized")
	return e, nil
}

func (e *Engine) attachPlayerEvents() error {
	manager, err := e.player.EventManager()
	if err != nil {
		return fmt.Errorf("libvlc event manager: %w", err)
	}
	e.playerManager = manager

	errorID, err := manager.Attach(libvlc.MediaPlayerEncounteredError, func(event libvlc.Event, userData interface{}) {
		e.mu.Lock()
		token := e.token
		path := e.path
		e.mu.Unlock()
		e.push(scheduler.BackendEvent{
			Kind:    scheduler.BackendFailed,
			Token:   token,
			Message: fmt.Sprintf("vlc cannot play %s", path),
		})
	}, nil)
	if err != nil {
		return fmt.Errorf("attach error event: %w", err)
	}

	playingID, err := manager.Attach(libvlc.MediaPlayerPlaying, func(event libvlc.Event, userData interface{}) {
		if err := e.applyPendingSeek(); err != nil {
			e.logger.Warn().Err(err).Msg("deferred seek failed")
		}
	}, nil)
	if err != nil {
		return fmt.Errorf("attach playing event: %w", err)
	}

	e.playerEvents = append(e.playerEvents, errorID, playingID)
	return nil
}

// Load replaces the current media and starts async metadata parsing.
// Readiness is reported on the event channel with the given token.
func (e *Engine) Load(token uint64, path string) error {
	e.mu.Lock()
	e.token = token
	e.path = path
	e.hasSeek = false
	e.readySent = false
	e.releaseMediaLocked()
	e.mu.Unlock()

	if err := e.player.Stop(); err != nil {
		e.logger.Debug().Err(err).Msg("stop before load failed")
	}

	media, err := e.player.LoadMediaFromPath(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	e.mu.Lock()
	e.media = media
	e.mu.Unlock()

	announce := func(event libvlc.Event, userData interface{}) {
		e.announceReady(token)
	}

	manager, err := media.EventManager()
	if err == nil {
		var ids []libvlc.EventID
		if id, err := manager.Attach(libvlc.MediaParsedChanged, announce, nil); err == nil {
			ids = append(ids, id)
		}
		if id, err := manager.Attach(libvlc.MediaDurationChanged, announce, nil); err == nil {
			ids = append(ids, id)
		}
		e.mu.Lock()
		e.mediaMan = manager
		e.mediaIDs = ids
		e.mu.Unlock()
	}

	if err := media.ParseWithOptions(0, libvlc.MediaParseLocal); err != nil {
		// Parsing is best-effort: announce readiness now and let the
		// scheduler's duration probes take over.
		e.logger.Debug().Err(err).Str("file", path).Msg("parse request failed")
		e.announceReady(token)
	}

	return nil
}

// announceReady pushes a single readiness event per load, carrying
// whatever duration is known at this point (possibly zero).
func (e *Engine) announceReady(token uint64) {
	e.mu.Lock()
	if e.token != token || e.readySent {
		e.mu.Unlock()
		return
	}
	e.readySent = true
	e.mu.Unlock()

	d, err := e.Duration()
	if err != nil {
		d = 0
	}
	e.push(scheduler.BackendEvent{Kind: scheduler.BackendReady, Token: token, Duration: d})
}

// Duration reports the loaded media length, preferring parsed metadata
// and falling back to the player's own view of the current item.
func (e *Engine) Duration() (time.Duration, error) {
	e.mu.Lock()
	media := e.media
	e.mu.Unlock()

	if media != nil {
		if d, err := media.Duration(); err == nil && d > 0 {
			return d, nil
		}
	}

	length, err := e.player.MediaLength()
	if err != nil {
		return 0, fmt.Errorf("media length: %w", err)
	}
	return time.Duration(length) * time.Millisecond, nil
}

// Seek positions the player at offset. If playback has not started yet
// the offset is held and applied on the first playing callback.
func (e *Engine) Seek(offset time.Duration) error {
	e.mu.Lock()
	e.pendingSeek = offset
	e.hasSeek = true
	e.mu.Unlock()

	if e.player.IsPlaying() {
		return e.applyPendingSeek()
	}
	return nil
}

func (e *Engine) applyPendingSeek() error {
	e.mu.Lock()
	if !e.hasSeek {
		e.mu.Unlock()
		return nil
	}
	offset := e.pendingSeek
	e.hasSeek = false
	e.mu.Unlock()

	return e.player.SetMediaTime(int(offset / time.Millisecond))
}

func (e *Engine) Play() error {
	return e.player.Play()
}

func (e *Engine) Pause() error {
	return e.player.SetPause(true)
}

func (e *Engine) Resume() error {
	return e.player.SetPause(false)
}

func (e *Engine) Stop() error {
	return e.player.Stop()
}

func (e *Engine) IsPlaying() bool {
	return e.player.IsPlaying()
}

func (e *Engine) IsPaused() bool {
	state, err := e.player.MediaState()
	return err == nil && state == libvlc.MediaPaused
}

// Events delivers readiness and failure notifications to the scheduler.
func (e *Engine) Events() <-chan scheduler.BackendEvent {
	return e.events
}

// SetVolume is a passthrough; volume is not scheduler state.
func (e *Engine) SetVolume(percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return e.player.SetVolume(percent)
}

// SetMute is a passthrough; mute is not scheduler state.
func (e *Engine) SetMute(muted bool) error {
	return e.player.SetMute(muted)
}

// Release frees all libVLC resources. The engine is unusable afterwards.
func (e *Engine) Release() {
	e.player.Stop()

	e.mu.Lock()
	e.releaseMediaLocked()
	e.mu.Unlock()

	if e.playerManager != nil {
		e.playerManager.Detach(e.playerEvents...)
		e.playerEvents = nil
	}
	if e.player != nil {
		e.player.Release()
		e.player = nil
	}
	libvlc.Release()
	e.logger.Info().Msg("libVLC player released")
}

func (e *Engine) releaseMediaLocked() {
	if e.mediaMan != nil {
		e.mediaMan.Detach(e.mediaIDs...)
		e.mediaMan = nil
		e.mediaIDs = nil
	}
	if e.media != nil {
		e.media.Release()
		e.media = nil
	}
}

// push delivers an event without ever blocking a libVLC callback thread.
func (e *Engine) push(ev scheduler.BackendEvent) {
	select {
	case e.events <- ev:
	default:
		e.logger.Debug().Uint64("token", ev.Token).Msg("backend event dropped: channel full")
	}
}
