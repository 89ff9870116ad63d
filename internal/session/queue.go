// Package session holds the shuffled play order for one channel session.
package session

import (
	"math/rand"
	"time"
)

// Queue walks a random permutation of a fixed source list one item at a
// time. When looping is enabled, exhausting the permutation triggers a
// fresh uniform reshuffle of the full source list; reshuffles are
// independent, so the last item of one pass may open the next.
//
// Queue is not safe for concurrent use; the scheduler drives it from a
// single goroutine.
type Queue struct {
	sources []string
	order   []string
	cursor  int
	loop    bool
	rng     *rand.Rand
}

// NewQueue creates an empty queue. A nil rng gets a time-seeded source.
func NewQueue(rng *rand.Rand) *Queue {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Queue{rng: rng}
}

// Configure replaces the source list, shuffles a fresh permutation, and
// resets the cursor. An empty source list is legal and yields a
// permanently empty queue.
func (q *Queue) Configure(sources []string, loop bool) {
	q.sources = make([]string, len(sources))
	copy(q.sources, sources)
	q.loop = loop
	q.reshuffle()
}

// Next returns the item at the cursor and advances. When the permutation
// is exhausted it reshuffles and continues if looping, otherwise it
// reports no item and stays exhausted.
func (q *Queue) Next() (string, bool) {
	if len(q.sources) == 0 {
		return "", false
	}
	if q.cursor >= len(q.order) {
		if !q.loop {
			return "", false
		}
		q.reshuffle()
	}
	item := q.order[q.cursor]
	q.cursor++
	return item, true
}

// Total returns the length of the active permutation.
func (q *Queue) Total() int {
	return len(q.order)
}

// Position returns the cursor as a 1-based index into the current pass.
// It is 0 before the first Next of a pass.
func (q *Queue) Position() int {
	return q.cursor
}

func (q *Queue) reshuffle() {
	q.order = make([]string, len(q.sources))
	copy(q.order, q.sources)
	q.rng.Shuffle(len(q.order), func(i, j int) {
		q.order[i], q.order[j] = q.order[j], q.order[i]
	})
	q.cursor = 0
}
