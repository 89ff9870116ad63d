// Package segment chooses randomized playback windows inside source clips.
// Selection is pure: the only input besides the clip duration and the
// configured range is an injected random source, so callers can seed it
// for reproducible output.
package segment

import (
	"errors"
	"math/rand"
	"time"
)

// ErrInvalidDuration is returned when the reported clip duration is not
// positive, which happens when the media backend has not finished loading
// metadata yet.
var ErrInvalidDuration = errors.New("segment: source duration must be positive")

// Plan is one playable slice of a source clip.
// Start+Duration never exceeds the clip duration it was computed from.
type Plan struct {
	Start    time.Duration
	Duration time.Duration
}

// Choose picks a random segment of the clip between minSeconds and
// maxSeconds long. The range is normalized first: minSeconds is raised to
// at least 1 and maxSeconds to at least minSeconds, so a misconfigured
// range clamps instead of erroring.
//
// Clips shorter than the minimum window are played whole from the start.
func Choose(total time.Duration, minSeconds, maxSeconds int, rng *rand.Rand) (Plan, error) {
	if total <= 0 {
		return Plan{}, ErrInvalidDuration
	}

	if minSeconds < 1 {
		minSeconds = 1
	}
	if maxSeconds < minSeconds {
		maxSeconds = minSeconds
	}

	minWindow := time.Duration(minSeconds) * time.Second
	maxWindow := time.Duration(maxSeconds) * time.Second

	// No clipping possible: the clip fits inside the minimum window.
	if total <= minWindow {
		return Plan{Start: 0, Duration: total}, nil
	}

	length := minWindow
	if maxWindow > minWindow {
		length += time.Duration(rng.Int63n(int64(maxWindow-minWindow) + 1))
	}
	if length > total {
		length = total
	}

	var start time.Duration
	if maxStart := total - length; maxStart > 0 {
		start = time.Duration(rng.Int63n(int64(maxStart) + 1))
	}

	return Plan{Start: start, Duration: length}, nil
}
