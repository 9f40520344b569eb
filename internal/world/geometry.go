package world

import "github.com/TEJM09/Vision-Core/internal/config"

// Paddle dimensions in playfield units.
const (
	PaddleWidth        = 140.0
	PaddleHeight       = 24.0
	PaddleBottomOffset = 110.0 // top edge sits this far above the playfield bottom
)

// Playfield is the simulation coordinate space. Objects are culled once they
// are further than Margin outside it.
type Playfield struct {
	Width  float64
	Height float64
	Margin float64
}

// DefaultPlayfield returns the 800x600 field with a 60 unit margin.
func DefaultPlayfield() Playfield {
	return Playfield{Width: 800, Height: 600, Margin: 60}
}

// PlayfieldFromTuning builds a Playfield from a loaded TuningConfig.
func PlayfieldFromTuning(cfg *config.TuningConfig) Playfield {
	return Playfield{
		Width:  cfg.GetPlayfieldWidth(),
		Height: cfg.GetPlayfieldHeight(),
		Margin: cfg.GetPlayfieldMargin(),
	}
}

func (pf Playfield) outside(o FallingObject) bool {
	return o.Y >= pf.Height+pf.Margin || o.X <= -pf.Margin || o.X >= pf.Width+pf.Margin
}

// Paddle is the axis-aligned catch rectangle. X,Y is the top-left corner.
type Paddle struct {
	X, Y          float64
	Width, Height float64
}

// PaddleAt centres the paddle on the normalized horizontal position x.
func PaddleAt(x float64, pf Playfield) Paddle {
	return Paddle{
		X:      x*pf.Width - PaddleWidth/2,
		Y:      pf.Height - PaddleBottomOffset,
		Width:  PaddleWidth,
		Height: PaddleHeight,
	}
}

// Overlaps reports whether the object's centre lies strictly within the
// paddle's horizontal span and its vertical extent (centre +/- radius)
// intersects the paddle.
func (p Paddle) Overlaps(o FallingObject) bool {
	return o.X > p.X && o.X < p.X+p.Width &&
		o.Y+o.Radius > p.Y && o.Y-o.Radius < p.Y+p.Height
}
