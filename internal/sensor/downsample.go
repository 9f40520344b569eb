package sensor

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Downsample scales src into a new w×h RGBA buffer, optionally mirrored
// horizontally so that moving a hand right moves the centroid right.
func Downsample(src image.Image, w, h int, mirror bool) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := src.Bounds()
	if b.Empty() || w <= 0 || h <= 0 {
		return dst
	}

	sx := float64(w) / float64(b.Dx())
	sy := float64(h) / float64(b.Dy())
	minX, minY := float64(b.Min.X), float64(b.Min.Y)

	s2d := f64.Aff3{sx, 0, -sx * minX, 0, sy, -sy * minY}
	if mirror {
		s2d = f64.Aff3{-sx, 0, float64(w) + sx*minX, 0, sy, -sy * minY}
	}
	draw.ApproxBiLinear.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}
