package tracking

import (
	"context"
	"errors"
	"image"
	"io"

	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/monitoring"
	"github.com/TEJM09/Vision-Core/internal/sensor"
)

// VisionPipeline is the single producer of paddle positions in vision mode:
// frame -> sampler -> filter -> position cell.
type VisionPipeline struct {
	Source  sensor.FrameSource
	Sampler *sensor.Sampler
	Filter  *Kalman1D
	Out     *latest.Value[Position]
	Status  *sensor.StatusFlag
	Diag    *Diagnostics // optional
}

// NewVisionPipeline wires a pipeline with a fresh status flag.
func NewVisionPipeline(src sensor.FrameSource, sampler *sensor.Sampler, filter *Kalman1D, out *latest.Value[Position]) *VisionPipeline {
	return &VisionPipeline{
		Source:  src,
		Sampler: sampler,
		Filter:  filter,
		Out:     out,
		Status:  &sensor.StatusFlag{},
	}
}

// Process runs one frame through the sampler and filter and publishes the
// result. A nil frame counts as a rejected measurement.
func (p *VisionPipeline) Process(frame *image.RGBA) Position {
	m, ok := p.Sampler.Sample(frame)

	p.Filter.Predict()
	var innovation, gain float64
	if ok {
		innovation, gain = p.Filter.Correct(m.Z)
	}
	pos := Position{X: p.Filter.X, Detected: ok}
	p.Out.Store(pos)

	if p.Diag != nil {
		z := 0.0
		if ok {
			z = m.Z
		}
		p.Diag.Record(TraceSample{Z: z, X: pos.X, P: p.Filter.P, Detected: ok}, innovation, gain)
	}
	return pos
}

// hold publishes the current estimate without a detection.
func (p *VisionPipeline) hold() {
	p.Out.Store(Position{X: p.Filter.X, Detected: false})
}

// Run pulls frames until ctx is done or the source ends. An unavailable
// source is not an error: the status flag goes to Unavailable, the paddle is
// held where it is, and Run returns nil so the session keeps going. The
// filter is reseeded at the centre before the first frame.
func (p *VisionPipeline) Run(ctx context.Context) error {
	defer p.Source.Close()
	p.Filter.Reset()

	for {
		frame, err := p.Source.Next(ctx)
		switch {
		case err == nil:
			p.Status.Set(sensor.StatusActive)
			p.Process(frame)

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err

		case errors.Is(err, sensor.ErrSensorUnavailable):
			monitoring.Logf("vision: %v; holding paddle at %.3f", err, p.Filter.X)
			p.Status.Set(sensor.StatusUnavailable)
			p.hold()
			return nil

		case errors.Is(err, io.EOF):
			monitoring.Logf("vision: frame source exhausted; holding paddle at %.3f", p.Filter.X)
			p.Status.Set(sensor.StatusUnavailable)
			p.hold()
			return nil

		default:
			// A single bad frame is a rejected measurement.
			monitoring.Logf("vision: dropping frame: %v", err)
			p.Process(nil)
		}
	}
}
