package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// tone is a finite sine sweep from startHz to endHz with a linear attack
// and release.
type tone struct {
	sr      beep.SampleRate
	startHz float64
	endHz   float64
	gain    float64
	pos     int
	length  int
	phase   float64
}

func newTone(sr beep.SampleRate, startHz, endHz, gain float64, d time.Duration) *tone {
	return &tone{sr: sr, startHz: startHz, endHz: endHz, gain: gain, length: sr.N(d)}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	if t.pos >= t.length {
		return 0, false
	}
	for i := range samples {
		if t.pos >= t.length {
			return i, true
		}
		frac := float64(t.pos) / float64(t.length)
		freq := t.startHz + (t.endHz-t.startHz)*frac
		t.phase += 2 * math.Pi * freq / float64(t.sr)

		env := math.Min(frac/0.05, 1) * math.Min((1-frac)/0.2, 1)
		s := t.gain * env * math.Sin(t.phase)
		samples[i][0] = s
		samples[i][1] = s
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// Stream returns a fresh streamer for c, or nil for an unknown cue.
func Stream(c Cue) beep.Streamer {
	switch c {
	case CueCatch:
		return newTone(sampleRate, 660, 990, 0.25, 90*time.Millisecond)
	case CueHazard:
		return beep.Seq(
			newTone(sampleRate, 180, 140, 0.35, 120*time.Millisecond),
			newTone(sampleRate, 140, 110, 0.35, 120*time.Millisecond),
		)
	case CueMiss:
		return newTone(sampleRate, 330, 220, 0.2, 150*time.Millisecond)
	case CueRegen:
		return beep.Seq(
			newTone(sampleRate, 880, 880, 0.2, 70*time.Millisecond),
			newTone(sampleRate, 1320, 1320, 0.2, 90*time.Millisecond),
		)
	case CueGameOver:
		return newTone(sampleRate, 440, 110, 0.3, 600*time.Millisecond)
	default:
		return nil
	}
}
