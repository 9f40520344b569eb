package serialmux

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"
)

// SimulatedPort is a SerialPorter that behaves like a paddle controller
// sweeping side to side. Writes are accepted and discarded.
type SimulatedPort struct {
	r    *io.PipeReader
	w    *io.PipeWriter
	once sync.Once
	done chan struct{}
}

// NewSimulatedSerialMux creates a SerialMux on a SimulatedPort that emits
// one position line every interval, one full sweep every period.
func NewSimulatedSerialMux(interval, period time.Duration) *SerialMux[*SimulatedPort] {
	r, w := io.Pipe()
	port := &SimulatedPort{r: r, w: w, done: make(chan struct{})}

	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		start := time.Now()
		for {
			select {
			case <-port.done:
				return
			case now := <-ticker.C:
				phase := 2 * math.Pi * float64(now.Sub(start)) / float64(period)
				x := 0.5 + 0.45*math.Sin(phase)
				if _, err := fmt.Fprintf(w, "{\"x\":%.4f}\n", x); err != nil {
					return
				}
			}
		}
	}()

	return NewSerialMux(port)
}

func (p *SimulatedPort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *SimulatedPort) Write(b []byte) (int, error) { return len(b), nil }

// Close stops the generator and unblocks readers.
func (p *SimulatedPort) Close() error {
	p.once.Do(func() {
		close(p.done)
		p.r.Close()
	})
	return nil
}
