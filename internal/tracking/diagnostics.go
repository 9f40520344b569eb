package tracking

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// TraceSample is one filter step as seen by the diagnostics window.
type TraceSample struct {
	Z        float64 // accepted measurement (0 when rejected)
	X        float64 // posterior estimate
	P        float64 // posterior covariance
	Detected bool
}

// DiagnosticsSummary aggregates the current window.
type DiagnosticsSummary struct {
	Samples        int
	Detections     int
	Rejections     int
	MeanInnovation float64
	StdInnovation  float64
	LastGain       float64
	LastCovariance float64
}

// Diagnostics keeps a bounded window of recent filter steps. It is safe for
// one writer (the pipeline) and concurrent readers (the debug server).
type Diagnostics struct {
	mu          sync.Mutex
	size        int
	trace       []TraceSample
	innovations []float64
	lastGain    float64
}

// NewDiagnostics returns a window holding at most size steps.
func NewDiagnostics(size int) *Diagnostics {
	if size < 1 {
		size = 1
	}
	return &Diagnostics{size: size}
}

// Record appends one step. innovation and gain are ignored for rejected
// samples.
func (d *Diagnostics) Record(s TraceSample, innovation, gain float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.trace = append(d.trace, s)
	if len(d.trace) > d.size {
		d.trace = d.trace[len(d.trace)-d.size:]
	}
	if s.Detected {
		d.innovations = append(d.innovations, innovation)
		if len(d.innovations) > d.size {
			d.innovations = d.innovations[len(d.innovations)-d.size:]
		}
		d.lastGain = gain
	}
}

// Trace returns a copy of the window, oldest first.
func (d *Diagnostics) Trace() []TraceSample {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]TraceSample, len(d.trace))
	copy(out, d.trace)
	return out
}

// Summary computes window statistics.
func (d *Diagnostics) Summary() DiagnosticsSummary {
	d.mu.Lock()
	defer d.mu.Unlock()

	sum := DiagnosticsSummary{Samples: len(d.trace), LastGain: d.lastGain}
	for _, s := range d.trace {
		if s.Detected {
			sum.Detections++
		} else {
			sum.Rejections++
		}
	}
	if n := len(d.trace); n > 0 {
		sum.LastCovariance = d.trace[n-1].P
	}
	switch len(d.innovations) {
	case 0:
	case 1:
		sum.MeanInnovation = d.innovations[0]
	default:
		sum.MeanInnovation, sum.StdInnovation = stat.MeanStdDev(d.innovations, nil)
	}
	return sum
}
