// Package input holds the paddle input producers. Exactly one producer
// writes the session's position cell, chosen by Mode.
package input

import (
	"fmt"
	"strings"
)

// Mode selects the paddle input producer for a session.
type Mode string

const (
	Pointer Mode = "pointer" // mouse/touch position, filter bypassed
	Vision  Mode = "vision"  // camera frames through the sampler and filter
	Device  Mode = "device"  // serial paddle controller, filter bypassed
)

// ParseMode accepts a case-insensitive mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Pointer, Vision, Device:
		return m, nil
	default:
		return "", fmt.Errorf("unknown input mode %q: expected pointer, vision, or device", s)
	}
}
