// Package monitor serves the running session over HTTP for debugging: the
// latest world snapshot as JSON, and go-echarts pages for the economy
// timeline and the position filter trace.
package monitor

import (
	"sync"
	"time"

	"github.com/TEJM09/Vision-Core/internal/world"
)

// TimelinePoint is one sampled economy state.
type TimelinePoint struct {
	Elapsed    time.Duration
	Score      float64
	Lives      float64
	Difficulty float64
	Objects    int
	Detected   bool
}

// EventCounts accumulates step events over the session.
type EventCounts struct {
	Frames     int     `json:"frames"`
	Spawned    int     `json:"spawned"`
	Caught     int     `json:"caught"`
	Missed     int     `json:"missed"`
	HazardHits int     `json:"hazard_hits"`
	RegenLives float64 `json:"regen_lives"`
}

// Timeline records a decimated history of snapshots and running event
// counts. Observe and Count run on the game loop; readers may be
// concurrent.
type Timeline struct {
	mu       sync.Mutex
	every    time.Duration
	capacity int
	points   []TimelinePoint
	last     time.Duration
	hasLast  bool
	counts   EventCounts
}

// NewTimeline keeps one point per every of session time, at most capacity
// points (oldest dropped).
func NewTimeline(every time.Duration, capacity int) *Timeline {
	if capacity < 1 {
		capacity = 1
	}
	return &Timeline{every: every, capacity: capacity}
}

// Observe samples snap if at least every has elapsed since the last point.
// Terminal snapshots are always kept.
func (t *Timeline) Observe(snap world.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts.Frames++
	e := snap.Economy.Elapsed
	if t.hasLast && e-t.last < t.every && snap.Phase != world.PhaseTerminal {
		return
	}
	t.last, t.hasLast = e, true
	t.points = append(t.points, TimelinePoint{
		Elapsed:    e,
		Score:      snap.Economy.Score,
		Lives:      snap.Economy.Lives,
		Difficulty: snap.Economy.Difficulty,
		Objects:    len(snap.Objects),
		Detected:   snap.Detected,
	})
	if len(t.points) > t.capacity {
		t.points = t.points[len(t.points)-t.capacity:]
	}
}

// Count folds one step's events into the running totals.
func (t *Timeline) Count(res world.StepResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts.Spawned += res.Spawned
	t.counts.Caught += res.Caught
	t.counts.Missed += res.Missed
	t.counts.HazardHits += res.HazardHits
	t.counts.RegenLives += res.RegenLives
}

// Points returns a copy of the sampled history, oldest first.
func (t *Timeline) Points() []TimelinePoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TimelinePoint, len(t.points))
	copy(out, t.points)
	return out
}

// Counts returns the running event totals.
func (t *Timeline) Counts() EventCounts {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts
}
