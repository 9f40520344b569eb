// Package gameloop drives a world.World from a frame ticker, reading the
// newest paddle position on every frame and publishing snapshots.
package gameloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/monitoring"
	"github.com/TEJM09/Vision-Core/internal/sensor"
	"github.com/TEJM09/Vision-Core/internal/timeutil"
	"github.com/TEJM09/Vision-Core/internal/tracking"
	"github.com/TEJM09/Vision-Core/internal/world"
)

// ErrDriverReused is returned by Run on a Driver that has already run.
var ErrDriverReused = errors.New("gameloop: driver already started")

// DefaultInterval is the display refresh interval (~60Hz).
const DefaultInterval = 16 * time.Millisecond

// Options configures a Driver. Only Position is required.
type Options struct {
	Clock    timeutil.Clock
	Interval time.Duration

	// Position is the shared cell written by the active input producer.
	Position *latest.Value[tracking.Position]

	// Sink receives a snapshot after every frame. It runs on the loop
	// goroutine and should not block.
	Sink func(world.Snapshot)

	// OnStep receives the events of every non-empty step.
	OnStep func(world.StepResult)

	// SensorStatus, when set, is copied into every snapshot.
	SensorStatus func() sensor.Status
}

// Driver calls World.Step once per frame with dt measured between
// consecutive frame timestamps.
type Driver struct {
	world *world.World
	opts  Options

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}

	mu      sync.Mutex
	lastTs  time.Time
	hasLast bool
	frames  uint64
}

// New creates a Driver for w. A Driver runs one session only.
func New(w *world.World, opts Options) *Driver {
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Position == nil {
		opts.Position = latest.NewValue(tracking.Position{X: tracking.InitialEstimate})
	}
	return &Driver{world: w, opts: opts, stopCh: make(chan struct{})}
}

// Run ticks the world until ctx is cancelled, Stop is called, or the
// session reaches its terminal state. Cancellation returns ctx.Err();
// the other two return nil.
func (d *Driver) Run(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return ErrDriverReused
	}

	ticker := d.opts.Clock.NewTicker(d.opts.Interval)
	defer ticker.Stop()
	monitoring.Logf("gameloop: session %s started, interval=%s", d.world.SessionID(), d.opts.Interval)

	for {
		select {
		case <-ctx.Done():
			d.Stop()
			return ctx.Err()
		case <-d.stopCh:
			monitoring.Logf("gameloop: session %s stopped after %d frames", d.world.SessionID(), d.Frames())
			return nil
		case ts := <-ticker.C():
			d.Frame(ts)
		}
	}
}

// Frame runs one display callback at timestamp ts. The first frame has
// dt=0. Frames after Stop are ignored.
func (d *Driver) Frame(ts time.Time) world.StepResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped() {
		return world.StepResult{}
	}

	var dt time.Duration
	if d.hasLast {
		dt = ts.Sub(d.lastTs)
	}
	d.lastTs, d.hasLast = ts, true
	d.frames++

	pos, _ := d.opts.Position.Load()
	res := d.world.Step(ts, dt, pos)
	if d.opts.OnStep != nil && res != (world.StepResult{}) {
		d.opts.OnStep(res)
	}

	if d.opts.Sink != nil {
		snap := d.world.Snapshot()
		if d.opts.SensorStatus != nil {
			snap.SensorStatus = d.opts.SensorStatus()
		}
		d.opts.Sink(snap)
	}

	if res.Terminal || d.world.Phase() == world.PhaseTerminal {
		d.Stop()
	}
	return res
}

// TogglePause flips the world between running and paused and reports the
// new paused state. Frames keep arriving while paused so there is no dt
// spike on resume.
func (d *Driver) TogglePause() bool {
	paused := d.world.TogglePause()
	monitoring.Logf("gameloop: paused=%t", paused)
	return paused
}

// Stop cancels further frames. It is safe to call more than once.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

// Done is closed once the driver has stopped.
func (d *Driver) Done() <-chan struct{} { return d.stopCh }

// Frames returns the number of frames processed.
func (d *Driver) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

func (d *Driver) stopped() bool {
	select {
	case <-d.stopCh:
		return true
	default:
		return false
	}
}
