package serialmux

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	EventTypePosition = "position"
	EventTypeStatus   = "status"
	EventTypeUnknown  = "unknown"
)

// ClassifyPayload inspects a controller line and returns a simple event
// type token. Bare numbers and JSON objects carrying "x" are positions;
// any other JSON object is a status report.
func ClassifyPayload(payload string) string {
	p := strings.TrimSpace(payload)
	if _, err := strconv.ParseFloat(p, 64); err == nil {
		return EventTypePosition
	}
	if !strings.HasPrefix(p, "{") {
		return EventTypeUnknown
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(p), &obj); err != nil {
		return EventTypeUnknown
	}
	if _, ok := obj["x"]; ok {
		return EventTypePosition
	}
	return EventTypeStatus
}

type positionLine struct {
	X *float64 `json:"x"`
}

// ParsePosition extracts the normalized horizontal position from a line of
// the form "0.42" or {"x":0.42}. Values outside [0,1] are rejected.
func ParsePosition(payload string) (float64, error) {
	p := strings.TrimSpace(payload)
	var x float64
	if strings.HasPrefix(p, "{") {
		var line positionLine
		if err := json.Unmarshal([]byte(p), &line); err != nil {
			return 0, fmt.Errorf("failed to unmarshal position: %w", err)
		}
		if line.X == nil {
			return 0, fmt.Errorf("position line has no x: %q", p)
		}
		x = *line.X
	} else {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse position %q: %w", p, err)
		}
		x = v
	}
	if x < 0 || x > 1 {
		return 0, fmt.Errorf("position %f outside [0,1]", x)
	}
	return x, nil
}
