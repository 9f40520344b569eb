package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds the session-independent tuning knobs for the sampler,
// the position filter, the playfield and the frame cadence. Every field is
// optional; Get* accessors fall back to the built-in defaults so partial
// files are safe.
type TuningConfig struct {
	// Sensor sampler
	LuminanceThreshold *float64 `json:"luminance_threshold,omitempty"`
	MinSupport         *int     `json:"min_support,omitempty"`
	PixelStride        *int     `json:"pixel_stride,omitempty"`
	BandLow            *float64 `json:"band_low,omitempty"`
	BandHigh           *float64 `json:"band_high,omitempty"`
	FrameWidth         *int     `json:"frame_width,omitempty"`
	FrameHeight        *int     `json:"frame_height,omitempty"`

	// Position filter
	ProcessNoise     *float64 `json:"process_noise,omitempty"`
	MeasurementNoise *float64 `json:"measurement_noise,omitempty"`

	// Playfield
	PlayfieldWidth    *float64 `json:"playfield_width,omitempty"`
	PlayfieldHeight   *float64 `json:"playfield_height,omitempty"`
	PlayfieldMargin   *float64 `json:"playfield_margin,omitempty"`
	HazardProbability *float64 `json:"hazard_probability,omitempty"`

	// Cadence, duration strings like "16ms"
	FrameInterval     *string `json:"frame_interval,omitempty"`
	CameraInterval    *string `json:"camera_interval,omitempty"`
	PointerStaleAfter *string `json:"pointer_stale_after,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		LuminanceThreshold: ptrFloat64(empty.GetLuminanceThreshold()),
		MinSupport:         ptrInt(empty.GetMinSupport()),
		PixelStride:        ptrInt(empty.GetPixelStride()),
		BandLow:            ptrFloat64(empty.GetBandLow()),
		BandHigh:           ptrFloat64(empty.GetBandHigh()),
		FrameWidth:         ptrInt(empty.GetFrameWidth()),
		FrameHeight:        ptrInt(empty.GetFrameHeight()),
		ProcessNoise:       ptrFloat64(empty.GetProcessNoise()),
		MeasurementNoise:   ptrFloat64(empty.GetMeasurementNoise()),
		PlayfieldWidth:     ptrFloat64(empty.GetPlayfieldWidth()),
		PlayfieldHeight:    ptrFloat64(empty.GetPlayfieldHeight()),
		PlayfieldMargin:    ptrFloat64(empty.GetPlayfieldMargin()),
		HazardProbability:  ptrFloat64(empty.GetHazardProbability()),
		FrameInterval:      ptrString(empty.GetFrameInterval().String()),
		CameraInterval:     ptrString(empty.GetCameraInterval().String()),
		PointerStaleAfter:  ptrString(empty.GetPointerStaleAfter().String()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/filter-trace/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.LuminanceThreshold != nil {
		if *c.LuminanceThreshold < 0 || *c.LuminanceThreshold > 255 {
			return fmt.Errorf("luminance_threshold must be between 0 and 255, got %f", *c.LuminanceThreshold)
		}
	}
	if c.MinSupport != nil && *c.MinSupport < 0 {
		return fmt.Errorf("min_support must be non-negative, got %d", *c.MinSupport)
	}
	if c.PixelStride != nil && *c.PixelStride < 1 {
		return fmt.Errorf("pixel_stride must be at least 1, got %d", *c.PixelStride)
	}
	if low, high := c.GetBandLow(), c.GetBandHigh(); low < 0 || high > 1 || low >= high {
		return fmt.Errorf("band must satisfy 0 <= band_low < band_high <= 1, got [%f, %f]", low, high)
	}
	if c.FrameWidth != nil && *c.FrameWidth < 1 {
		return fmt.Errorf("frame_width must be positive, got %d", *c.FrameWidth)
	}
	if c.FrameHeight != nil && *c.FrameHeight < 1 {
		return fmt.Errorf("frame_height must be positive, got %d", *c.FrameHeight)
	}
	if c.ProcessNoise != nil && *c.ProcessNoise < 0 {
		return fmt.Errorf("process_noise must be non-negative, got %f", *c.ProcessNoise)
	}
	if c.MeasurementNoise != nil && *c.MeasurementNoise <= 0 {
		return fmt.Errorf("measurement_noise must be positive, got %f", *c.MeasurementNoise)
	}
	if c.PlayfieldWidth != nil && *c.PlayfieldWidth <= 2*c.GetPlayfieldMargin() {
		return fmt.Errorf("playfield_width must exceed twice the margin, got %f", *c.PlayfieldWidth)
	}
	if c.PlayfieldHeight != nil && *c.PlayfieldHeight <= 0 {
		return fmt.Errorf("playfield_height must be positive, got %f", *c.PlayfieldHeight)
	}
	if c.PlayfieldMargin != nil && *c.PlayfieldMargin < 0 {
		return fmt.Errorf("playfield_margin must be non-negative, got %f", *c.PlayfieldMargin)
	}
	if c.HazardProbability != nil {
		if *c.HazardProbability < 0 || *c.HazardProbability > 1 {
			return fmt.Errorf("hazard_probability must be between 0 and 1, got %f", *c.HazardProbability)
		}
	}

	for name, v := range map[string]*string{
		"frame_interval":      c.FrameInterval,
		"camera_interval":     c.CameraInterval,
		"pointer_stale_after": c.PointerStaleAfter,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}

	return nil
}

// GetLuminanceThreshold returns the luminance_threshold value or the default.
func (c *TuningConfig) GetLuminanceThreshold() float64 {
	if c.LuminanceThreshold == nil {
		return 150
	}
	return *c.LuminanceThreshold
}

// GetMinSupport returns the min_support value or the default.
func (c *TuningConfig) GetMinSupport() int {
	if c.MinSupport == nil {
		return 8
	}
	return *c.MinSupport
}

// GetPixelStride returns the pixel_stride value or the default.
func (c *TuningConfig) GetPixelStride() int {
	if c.PixelStride == nil {
		return 4
	}
	return *c.PixelStride
}

// GetBandLow returns the band_low value or the default.
func (c *TuningConfig) GetBandLow() float64 {
	if c.BandLow == nil {
		return 0.15
	}
	return *c.BandLow
}

// GetBandHigh returns the band_high value or the default.
func (c *TuningConfig) GetBandHigh() float64 {
	if c.BandHigh == nil {
		return 0.85
	}
	return *c.BandHigh
}

// GetFrameWidth returns the frame_width value or the default.
func (c *TuningConfig) GetFrameWidth() int {
	if c.FrameWidth == nil {
		return 40
	}
	return *c.FrameWidth
}

// GetFrameHeight returns the frame_height value or the default.
func (c *TuningConfig) GetFrameHeight() int {
	if c.FrameHeight == nil {
		return 30
	}
	return *c.FrameHeight
}

// GetProcessNoise returns the process_noise value or the default.
func (c *TuningConfig) GetProcessNoise() float64 {
	if c.ProcessNoise == nil {
		return 0.015
	}
	return *c.ProcessNoise
}

// GetMeasurementNoise returns the measurement_noise value or the default.
func (c *TuningConfig) GetMeasurementNoise() float64 {
	if c.MeasurementNoise == nil {
		return 0.15
	}
	return *c.MeasurementNoise
}

// GetPlayfieldWidth returns the playfield_width value or the default.
func (c *TuningConfig) GetPlayfieldWidth() float64 {
	if c.PlayfieldWidth == nil {
		return 800
	}
	return *c.PlayfieldWidth
}

// GetPlayfieldHeight returns the playfield_height value or the default.
func (c *TuningConfig) GetPlayfieldHeight() float64 {
	if c.PlayfieldHeight == nil {
		return 600
	}
	return *c.PlayfieldHeight
}

// GetPlayfieldMargin returns the playfield_margin value or the default.
func (c *TuningConfig) GetPlayfieldMargin() float64 {
	if c.PlayfieldMargin == nil {
		return 60
	}
	return *c.PlayfieldMargin
}

// GetHazardProbability returns the hazard_probability value or the default.
func (c *TuningConfig) GetHazardProbability() float64 {
	if c.HazardProbability == nil {
		return 0.22
	}
	return *c.HazardProbability
}

// GetFrameInterval returns the display refresh interval (default ~60Hz).
func (c *TuningConfig) GetFrameInterval() time.Duration {
	return parseDurationOr(c.FrameInterval, 16*time.Millisecond)
}

// GetCameraInterval returns the camera frame cadence used by replay sources.
func (c *TuningConfig) GetCameraInterval() time.Duration {
	return parseDurationOr(c.CameraInterval, 33*time.Millisecond)
}

// GetPointerStaleAfter returns how long a pointer position stays detected
// without a new event. Zero disables staleness.
func (c *TuningConfig) GetPointerStaleAfter() time.Duration {
	return parseDurationOr(c.PointerStaleAfter, 2*time.Second)
}

func parseDurationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def // default on parse error
	}
	return d
}
