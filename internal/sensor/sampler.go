package sensor

import (
	"image"

	"github.com/TEJM09/Vision-Core/internal/config"
)

// SamplerConfig holds the sampling policy.
type SamplerConfig struct {
	LuminanceThreshold float64 // mean channel brightness a pixel must exceed (0-255)
	MinSupport         int     // qualifying pixel count must exceed this
	PixelStride        int     // sample every Nth pixel in scan order
	BandLow            float64 // raw centroid mapped to 0
	BandHigh           float64 // raw centroid mapped to 1
}

// DefaultSamplerConfig returns the built-in sampling policy.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfigFromTuning(config.EmptyTuningConfig())
}

// SamplerConfigFromTuning builds a SamplerConfig from a loaded TuningConfig.
func SamplerConfigFromTuning(cfg *config.TuningConfig) SamplerConfig {
	return SamplerConfig{
		LuminanceThreshold: cfg.GetLuminanceThreshold(),
		MinSupport:         cfg.GetMinSupport(),
		PixelStride:        cfg.GetPixelStride(),
		BandLow:            cfg.GetBandLow(),
		BandHigh:           cfg.GetBandHigh(),
	}
}

// Measurement is one accepted sample.
type Measurement struct {
	Raw     float64 // centroid / width before remapping, in [0,1)
	Z       float64 // remapped and clamped to [0,1]
	Support int     // number of qualifying pixels
}

// Sampler extracts brightness-centroid measurements from frames.
type Sampler struct {
	Config SamplerConfig
}

// NewSampler creates a Sampler with the given policy.
func NewSampler(cfg SamplerConfig) *Sampler {
	if cfg.PixelStride < 1 {
		cfg.PixelStride = 1
	}
	return &Sampler{Config: cfg}
}

// Sample computes the bright-pixel centroid of frame. The second return is
// false when the frame is nil, empty, or has too little bright support;
// that is a rejected measurement, not an error.
func (s *Sampler) Sample(frame *image.RGBA) (Measurement, bool) {
	if frame == nil {
		return Measurement{}, false
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return Measurement{}, false
	}

	// Mean of three channels > threshold, compared without division.
	limit := s.Config.LuminanceThreshold * 3

	var sumX float64
	count := 0
	for idx := 0; idx < w*h; idx += s.Config.PixelStride {
		x, y := idx%w, idx/w
		off := frame.PixOffset(b.Min.X+x, b.Min.Y+y)
		r, g, bl := frame.Pix[off], frame.Pix[off+1], frame.Pix[off+2]
		if float64(int(r)+int(g)+int(bl)) > limit {
			sumX += float64(x)
			count++
		}
	}

	if count <= s.Config.MinSupport {
		return Measurement{Support: count}, false
	}

	raw := (sumX / float64(count)) / float64(w)
	return Measurement{
		Raw:     raw,
		Z:       s.remap(raw),
		Support: count,
	}, true
}

// remap expands [BandLow, BandHigh] to [0,1]; a hand rarely reaches the
// frame edges.
func (s *Sampler) remap(raw float64) float64 {
	span := s.Config.BandHigh - s.Config.BandLow
	if span <= 0 {
		return clamp01(raw)
	}
	return clamp01((raw - s.Config.BandLow) / span)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
