package sensor

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/TEJM09/Vision-Core/internal/timeutil"
)

// ErrSensorUnavailable reports that no camera frames can be produced at all
// (no device, permission denied, empty replay directory). It is persistent.
var ErrSensorUnavailable = errors.New("sensor unavailable")

// FrameSource is the camera frame collaborator. Next blocks until a frame is
// available or ctx is done. Frames are already downsampled and mirrored.
type FrameSource interface {
	Next(ctx context.Context) (*image.RGBA, error)
	Close() error
}

// Status is the sensor state surfaced to the host.
type Status int32

const (
	StatusIdle        Status = iota // no frame processed yet
	StatusActive                    // frames are arriving
	StatusUnavailable               // source failed permanently; paddle is held
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// StatusFlag is a concurrency-safe holder for Status. Once Unavailable it
// never changes again.
type StatusFlag struct {
	v atomic.Int32
}

// Load returns the current status.
func (f *StatusFlag) Load() Status { return Status(f.v.Load()) }

// Set updates the status unless it is already Unavailable.
func (f *StatusFlag) Set(s Status) {
	for {
		cur := f.v.Load()
		if Status(cur) == StatusUnavailable {
			return
		}
		if f.v.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

// UnavailableSource always reports ErrSensorUnavailable.
type UnavailableSource struct {
	Reason error
}

// Next implements FrameSource.
func (u UnavailableSource) Next(context.Context) (*image.RGBA, error) {
	if u.Reason != nil {
		return nil, fmt.Errorf("%w: %v", ErrSensorUnavailable, u.Reason)
	}
	return nil, ErrSensorUnavailable
}

// Close implements FrameSource.
func (UnavailableSource) Close() error { return nil }

// DirOptions configures a DirSource.
type DirOptions struct {
	Width, Height int           // processing buffer size
	Interval      time.Duration // frame cadence; 0 delivers frames as fast as asked
	Loop          bool          // restart from the first frame at the end
	Clock         timeutil.Clock
}

// DirSource replays a directory of PNG/JPEG frames in lexical order as a
// stand-in for a live camera.
type DirSource struct {
	frames []string
	next   int
	opts   DirOptions
	ticker timeutil.Ticker
}

// OpenDir lists the frames in dir. A missing or empty directory is reported
// as ErrSensorUnavailable so the caller can degrade instead of crashing.
func OpenDir(dir string, opts DirOptions) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSensorUnavailable, err)
	}

	var frames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			frames = append(frames, filepath.Join(dir, e.Name()))
		}
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames in %s", ErrSensorUnavailable, dir)
	}
	sort.Strings(frames)

	if opts.Width <= 0 {
		opts.Width = 40
	}
	if opts.Height <= 0 {
		opts.Height = 30
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}

	s := &DirSource{frames: frames, opts: opts}
	if opts.Interval > 0 {
		s.ticker = opts.Clock.NewTicker(opts.Interval)
	}
	return s, nil
}

// Len returns the number of frames in the replay.
func (s *DirSource) Len() int { return len(s.frames) }

// Next implements FrameSource. It returns io.EOF after the last frame unless
// Loop is set.
func (s *DirSource) Next(ctx context.Context) (*image.RGBA, error) {
	if s.ticker != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.ticker.C():
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.next >= len(s.frames) {
		if !s.opts.Loop {
			return nil, io.EOF
		}
		s.next = 0
	}
	path := s.frames[s.next]
	s.next++

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return Downsample(img, s.opts.Width, s.opts.Height, true), nil
}

// Close stops the pacing ticker.
func (s *DirSource) Close() error {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
