package input

import (
	"sync"
	"time"

	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/timeutil"
	"github.com/TEJM09/Vision-Core/internal/tracking"
)

// PointerSource turns raw pointer events into paddle positions. The
// position is taken as-is; Detected is true only while the pointer is inside
// the playfield, the session is not paused, and the last event is younger
// than StaleAfter.
type PointerSource struct {
	Out        *latest.Value[tracking.Position]
	Clock      timeutil.Clock
	StaleAfter time.Duration // zero disables staleness
	Paused     func() bool

	mu     sync.Mutex
	last   tracking.Position
	lastAt time.Time
	inside bool
	seen   bool
}

// NewPointerSource creates a PointerSource writing to out.
func NewPointerSource(out *latest.Value[tracking.Position], clock timeutil.Clock, staleAfter time.Duration, paused func() bool) *PointerSource {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &PointerSource{
		Out:        out,
		Clock:      clock,
		StaleAfter: staleAfter,
		Paused:     paused,
		last:       tracking.Position{X: tracking.InitialEstimate},
	}
}

// Move records a pointer event at horizontal fraction fx of the playfield.
// fx outside [0,1] means the pointer left the playfield; the paddle holds
// its last position. Events are ignored while paused.
func (p *PointerSource) Move(fx float64) {
	if p.paused() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.inside = fx >= 0 && fx <= 1
	if p.inside {
		p.last.X = fx
	}
	p.lastAt = p.Clock.Now()
	p.seen = true
	p.publishLocked()
}

// Refresh re-evaluates detection without a new event, so staleness and
// pause take effect. Hosts call it once per frame.
func (p *PointerSource) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishLocked()
}

func (p *PointerSource) publishLocked() {
	pos := p.last
	pos.Detected = p.seen && p.inside && !p.paused() && !p.staleLocked()
	p.Out.Store(pos)
}

func (p *PointerSource) staleLocked() bool {
	if p.StaleAfter <= 0 {
		return false
	}
	return p.Clock.Since(p.lastAt) > p.StaleAfter
}

func (p *PointerSource) paused() bool {
	return p.Paused != nil && p.Paused()
}
