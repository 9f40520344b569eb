package serialmux

import (
	"fmt"

	"go.bug.st/serial"

	"github.com/TEJM09/Vision-Core/internal/monitoring"
)

// NewRealSerialMux opens the controller at path and wraps it in a SerialMux.
func NewRealSerialMux(path string, opts PortOptions, initCommands ...string) (*SerialMux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, fmt.Errorf("port options for %s: %w", path, err)
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		if ports, lerr := serial.GetPortsList(); lerr == nil && len(ports) > 0 {
			monitoring.Logf("serialmux: available ports: %v", ports)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	monitoring.Logf("serialmux: opened %s at %s", path, opts)
	return NewSerialMux[serial.Port](port, initCommands...), nil
}
