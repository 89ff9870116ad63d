package scheduler

import "time"

// BackendEventKind tags asynchronous backend notifications.
type BackendEventKind int

const (
	// BackendReady reports that a requested load is far enough along to
	// query duration and begin playback. Duration may still be zero when
	// metadata has not finished parsing; the scheduler probes again.
	BackendReady BackendEventKind = iota
	// BackendFailed reports a load or playback failure.
	BackendFailed
)

// BackendEvent is delivered by the media backend on its event channel.
// Token echoes the value passed to Load so the scheduler can discard
// events for loads it has already abandoned.
type BackendEvent struct {
	Kind     BackendEventKind
	Token    uint64
	Duration time.Duration // valid for BackendReady, zero if unknown
	Message  string        // valid for BackendFailed
}

// Backend is the media engine the scheduler drives. Load never completes
// synchronously: the outcome arrives later as a BackendEvent. All other
// calls act on the most recently loaded media.
//
// Backends must not call back into the scheduler; they only push events
// onto the channel returned by Events.
type Backend interface {
	// Load starts loading the file and eventually delivers a BackendReady
	// or BackendFailed event echoing token.
	Load(token uint64, path string) error
	// Duration reports the loaded media length. Non-positive means
	// metadata is not available yet.
	Duration() (time.Duration, error)
	Seek(offset time.Duration) error
	Play() error
	Pause() error
	Resume() error
	Stop() error
	IsPlaying() bool
	IsPaused() bool
	Events() <-chan BackendEvent
}
