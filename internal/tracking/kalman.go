package tracking

import (
	"github.com/TEJM09/Vision-Core/internal/config"
)

// Seed values for a new tracking session.
const (
	InitialEstimate   = 0.5
	InitialCovariance = 1.0
)

// Position is the paddle input consumed by the simulation: a normalized
// horizontal coordinate and whether it is backed by a fresh detection.
type Position struct {
	X        float64
	Detected bool
}

// Kalman1D is a scalar recursive estimator with an identity state
// transition. The tracked quantity is assumed slowly varying; motion is
// absorbed by the process noise Q.
type Kalman1D struct {
	X float64 // estimate, in [0,1]
	P float64 // error covariance, >= 0
	Q float64 // process noise
	R float64 // measurement noise
}

// NewKalman1D creates a filter seeded at the centre with unit covariance.
func NewKalman1D(q, r float64) *Kalman1D {
	return &Kalman1D{X: InitialEstimate, P: InitialCovariance, Q: q, R: r}
}

// FilterFromTuning builds a Kalman1D from a loaded TuningConfig.
func FilterFromTuning(cfg *config.TuningConfig) *Kalman1D {
	return NewKalman1D(cfg.GetProcessNoise(), cfg.GetMeasurementNoise())
}

// Reset re-initialises the estimate and covariance for a new session.
func (k *Kalman1D) Reset() {
	k.X = InitialEstimate
	k.P = InitialCovariance
}

// Predict inflates the covariance by the process noise. The estimate is
// unchanged.
func (k *Kalman1D) Predict() {
	k.P += k.Q
}

// Correct folds measurement z into the estimate and returns the innovation
// (z minus the prior estimate) and the gain used. z is clamped to [0,1] so
// the estimate can never leave that range.
func (k *Kalman1D) Correct(z float64) (innovation, gain float64) {
	z = clamp01(z)
	gain = k.P / (k.P + k.R)
	innovation = z - k.X
	k.X += gain * innovation
	k.P = (1 - gain) * k.P
	return innovation, gain
}

// Step runs one predict stage and, when ok, one correct stage. Without a
// measurement the last estimate is held and the result reports
// Detected=false; the estimate is never reset on a miss.
func (k *Kalman1D) Step(z float64, ok bool) Position {
	k.Predict()
	if !ok {
		return Position{X: k.X, Detected: false}
	}
	k.Correct(z)
	return Position{X: k.X, Detected: true}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
