package tracking

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/sensor"
)

type sliceSource struct {
	frames []*image.RGBA
	errs   []error // returned after frames are exhausted, in order
	closed bool
}

func (s *sliceSource) Next(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.frames) > 0 {
		f := s.frames[0]
		s.frames = s.frames[1:]
		return f, nil
	}
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return nil, io.EOF
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

func litAt(col int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		img.SetRGBA(col, y, color.RGBA{255, 255, 255, 255})
	}
	return img
}

func dark() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, 40, 30))
}

func newTestPipeline(src sensor.FrameSource) (*VisionPipeline, *latest.Value[Position]) {
	out := latest.NewValue(Position{X: InitialEstimate})
	p := NewVisionPipeline(src, sensor.NewSampler(sensor.DefaultSamplerConfig()), NewKalman1D(0.015, 0.15), out)
	p.Diag = NewDiagnostics(16)
	return p, out
}

func TestVisionPipeline_ProcessPublishes(t *testing.T) {
	t.Parallel()
	p, out := newTestPipeline(&sliceSource{})

	pos := p.Process(litAt(32)) // raw 0.8 -> z = 0.65/0.7
	assert.True(t, pos.Detected)
	assert.Greater(t, pos.X, 0.5)

	got, ok := out.Load()
	require.True(t, ok)
	assert.Equal(t, pos, got)
}

func TestVisionPipeline_RejectedFrameHolds(t *testing.T) {
	t.Parallel()
	p, out := newTestPipeline(&sliceSource{})

	first := p.Process(litAt(32))
	held := p.Process(dark())

	assert.False(t, held.Detected)
	assert.Equal(t, first.X, held.X)
	got, _ := out.Load()
	assert.False(t, got.Detected)
	assert.Equal(t, first.X, got.X)
}

func TestVisionPipeline_RunUntilExhausted(t *testing.T) {
	t.Parallel()
	src := &sliceSource{frames: []*image.RGBA{litAt(20), dark(), litAt(20)}}
	p, out := newTestPipeline(src)

	require.NoError(t, p.Run(context.Background()))
	assert.True(t, src.closed)
	assert.Equal(t, sensor.StatusUnavailable, p.Status.Load())

	got, _ := out.Load()
	assert.False(t, got.Detected)
	assert.InDelta(t, 0.5, got.X, 1e-9)

	sum := p.Diag.Summary()
	assert.Equal(t, 3, sum.Samples)
	assert.Equal(t, 2, sum.Detections)
	assert.Equal(t, 1, sum.Rejections)
}

func TestVisionPipeline_UnavailableDegrades(t *testing.T) {
	t.Parallel()
	p, out := newTestPipeline(sensor.UnavailableSource{Reason: errors.New("no device")})

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, sensor.StatusUnavailable, p.Status.Load())

	got, ok := out.Load()
	require.True(t, ok)
	assert.Equal(t, Position{X: InitialEstimate, Detected: false}, got)
}

func TestVisionPipeline_BadFrameIsRejection(t *testing.T) {
	t.Parallel()
	src := &sliceSource{
		frames: []*image.RGBA{litAt(32)},
		errs:   []error{errors.New("corrupt jpeg")},
	}
	p, _ := newTestPipeline(src)

	require.NoError(t, p.Run(context.Background()))
	sum := p.Diag.Summary()
	assert.Equal(t, 1, sum.Detections)
	assert.Equal(t, 1, sum.Rejections)
}

func TestVisionPipeline_Cancelled(t *testing.T) {
	t.Parallel()
	p, _ := newTestPipeline(&sliceSource{frames: []*image.RGBA{litAt(20)}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Equal(t, sensor.StatusIdle, p.Status.Load())
}

func TestVisionPipeline_RunReseedsFilter(t *testing.T) {
	t.Parallel()
	p, out := newTestPipeline(&sliceSource{})
	p.Filter.X, p.Filter.P = 0.9, 0.01

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, InitialEstimate, p.Filter.X)
	assert.Equal(t, InitialCovariance, p.Filter.P)

	got, _ := out.Load()
	assert.Equal(t, Position{X: InitialEstimate, Detected: false}, got)
}
