package scheduler

// State represents the scheduler's position in the segment playback cycle.
//
// Valid transitions:
//   - Idle → AwaitingLoad            (Start pulls the first item)
//   - Idle → Exhausted               (Start on an empty queue)
//   - AwaitingLoad → Playing         (backend ready, duration known)
//   - AwaitingLoad → RetryingDuration (backend ready, duration unknown)
//   - RetryingDuration → Playing     (a probe finally sees a duration)
//   - RetryingDuration → AwaitingLoad (retry ceiling hit, next item loads)
//   - Playing → AwaitingLoad         (timer expiry or manual next)
//   - Playing → Paused               (Pause)
//   - Paused → Playing               (Resume)
//   - AwaitingLoad/Playing → Exhausted (queue drained, not looping)
//   - any → Idle                     (Stop or ConfigureSession)
type State int

const (
	Idle State = iota
	AwaitingLoad
	RetryingDuration
	Playing
	Paused
	Exhausted
)

// String returns the state name for logging and status reporting.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingLoad:
		return "awaiting_load"
	case RetryingDuration:
		return "retrying_duration"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// IsActive reports whether a session is in progress. Idle and Exhausted
// are inert: events and manual advances are ignored until Start.
func (s State) IsActive() bool {
	switch s {
	case AwaitingLoad, RetryingDuration, Playing, Paused:
		return true
	}
	return false
}
