package serialmux

import (
	"fmt"
	"slices"
	"strings"

	"go.bug.st/serial"
)

// DefaultBaudRate is the rate paddle controllers ship with.
const DefaultBaudRate = 115200

// DefaultFraming is eight data bits, no parity, one stop bit.
const DefaultFraming = "8N1"

var standardBaudRates = []int{9600, 19200, 38400, 57600, 115200, 230400}

// PortOptions describes how to open a paddle controller. Framing uses the
// conventional data-bits/parity/stop-bits shorthand such as "8N1" or "7E2";
// empty fields take the defaults.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	Framing  string `json:"framing"`
}

var parities = map[byte]serial.Parity{
	'N': serial.NoParity,
	'E': serial.EvenParity,
	'O': serial.OddParity,
}

// SerialMode validates the options and converts them into the mode
// go.bug.st/serial opens the port with.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	baud := o.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	if !slices.Contains(standardBaudRates, baud) {
		return nil, fmt.Errorf("unsupported baud rate %d", baud)
	}

	framing := strings.ToUpper(strings.TrimSpace(o.Framing))
	if framing == "" {
		framing = DefaultFraming
	}
	if len(framing) != 3 {
		return nil, fmt.Errorf("invalid framing %q: want e.g. 8N1", o.Framing)
	}

	mode := &serial.Mode{BaudRate: baud}
	switch d := framing[0]; {
	case d >= '5' && d <= '8':
		mode.DataBits = int(d - '0')
	default:
		return nil, fmt.Errorf("invalid framing %q: data bits must be 5 to 8", o.Framing)
	}

	parity, ok := parities[framing[1]]
	if !ok {
		return nil, fmt.Errorf("invalid framing %q: parity must be N, E or O", o.Framing)
	}
	mode.Parity = parity

	switch framing[2] {
	case '1':
		mode.StopBits = serial.OneStopBit
	case '2':
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid framing %q: stop bits must be 1 or 2", o.Framing)
	}
	return mode, nil
}

// String renders the options as "115200 8N1".
func (o PortOptions) String() string {
	baud, framing := o.BaudRate, strings.ToUpper(o.Framing)
	if baud == 0 {
		baud = DefaultBaudRate
	}
	if framing == "" {
		framing = DefaultFraming
	}
	return fmt.Sprintf("%d %s", baud, framing)
}
