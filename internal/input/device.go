package input

import (
	"context"
	"time"

	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/monitoring"
	"github.com/TEJM09/Vision-Core/internal/serialmux"
	"github.com/TEJM09/Vision-Core/internal/timeutil"
	"github.com/TEJM09/Vision-Core/internal/tracking"
)

// DeviceSource feeds lines from a serial paddle controller into a
// PointerSource. Position lines move the paddle; status lines update State.
type DeviceSource struct {
	Mux     serialmux.SerialMuxInterface
	Pointer *PointerSource
	State   *serialmux.DeviceState

	rejected int
}

// NewDeviceSource creates a DeviceSource publishing to out with the same
// staleness and pause rules as pointer input.
func NewDeviceSource(mux serialmux.SerialMuxInterface, out *latest.Value[tracking.Position], clock timeutil.Clock, staleAfter time.Duration, paused func() bool) *DeviceSource {
	return &DeviceSource{
		Mux:     mux,
		Pointer: NewPointerSource(out, clock, staleAfter, paused),
		State:   &serialmux.DeviceState{},
	}
}

// Run consumes controller lines until ctx is done or the mux closes the
// subscription. It does not start the mux's Monitor loop.
func (d *DeviceSource) Run(ctx context.Context) error {
	id, lines := d.Mux.Subscribe()
	defer d.Mux.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				monitoring.Logf("input: device subscription closed after %d rejected lines", d.rejected)
				return nil
			}
			d.HandleLine(line)
		}
	}
}

// HandleLine applies one controller line.
func (d *DeviceSource) HandleLine(line string) {
	switch serialmux.ClassifyPayload(line) {
	case serialmux.EventTypePosition:
		x, err := serialmux.ParsePosition(line)
		if err != nil {
			d.reject(line, err)
			return
		}
		d.Pointer.Move(x)
	case serialmux.EventTypeStatus:
		if err := d.State.HandleStatus(line); err != nil {
			d.reject(line, err)
		}
	default:
		d.reject(line, nil)
	}
}

// Rejected returns the number of lines that could not be used.
func (d *DeviceSource) Rejected() int { return d.rejected }

func (d *DeviceSource) reject(line string, err error) {
	d.rejected++
	if d.rejected <= 10 {
		monitoring.Logf("input: ignoring controller line %q: %v", line, err)
	}
}
