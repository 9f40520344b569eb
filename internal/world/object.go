package world

import "fmt"

// Category is the falling-object kind.
type Category uint8

const (
	Beneficial Category = iota
	Hazardous
)

func (c Category) String() string {
	switch c {
	case Beneficial:
		return "beneficial"
	case Hazardous:
		return "hazardous"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// FallingObject is owned by the World; snapshots carry copies.
type FallingObject struct {
	ID       uint64
	X, Y     float64
	Radius   float64
	Speed    float64 // vertical units per 16.67ms at gravity 1
	DriftVel float64 // horizontal units per 16.67ms, drift themes only
	Phase    float64 // zigzag oscillator phase, radians
	Category Category
	Variant  string

	// Missed is set once a Beneficial object has crossed the bottom edge
	// and its miss penalty has been charged.
	Missed bool
}
