package serialmux

import (
	"encoding/json"
	"fmt"
	"maps"
	"sync"
)

// DeviceState accumulates the key/value status reports a controller emits
// (firmware version, report rate, battery). Later reports overwrite earlier
// keys.
type DeviceState struct {
	mu     sync.Mutex
	values map[string]any
}

// HandleStatus merges one JSON status line into the state.
func (d *DeviceState) HandleStatus(payload string) error {
	var values map[string]any
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.values == nil {
		d.values = make(map[string]any)
	}
	maps.Copy(d.values, values)
	return nil
}

// Values returns a copy of the current state.
func (d *DeviceState) Values() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.values)
}
