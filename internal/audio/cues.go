// Package audio plays short synthesized cues for world events. Audio is
// optional: when no output device is available the cues are muted and the
// session carries on.
package audio

import (
	"sync"
	"time"

	"github.com/TEJM09/Vision-Core/internal/monitoring"
	"github.com/TEJM09/Vision-Core/internal/world"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Cue identifies one sound effect.
type Cue int

const (
	CueCatch Cue = iota
	CueHazard
	CueMiss
	CueRegen
	CueGameOver
)

func (c Cue) String() string {
	switch c {
	case CueCatch:
		return "catch"
	case CueHazard:
		return "hazard"
	case CueMiss:
		return "miss"
	case CueRegen:
		return "regen"
	case CueGameOver:
		return "game-over"
	default:
		return "unknown"
	}
}

// CuesFor maps one step's events to the cues it should trigger, at most one
// of each kind per step.
func CuesFor(res world.StepResult) []Cue {
	var cues []Cue
	if res.Caught > 0 {
		cues = append(cues, CueCatch)
	}
	if res.HazardHits > 0 {
		cues = append(cues, CueHazard)
	}
	if res.Missed > 0 {
		cues = append(cues, CueMiss)
	}
	if res.RegenLives > 0 {
		cues = append(cues, CueRegen)
	}
	if res.Terminal {
		cues = append(cues, CueGameOver)
	}
	return cues
}

// Player mixes cue streams into the speaker.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	muted       bool
}

// NewPlayer returns a player that stays silent until Initialize succeeds.
func NewPlayer() *Player {
	return &Player{mixer: &beep.Mixer{}}
}

// Initialize opens the speaker. On failure the player is muted and the
// error is returned for logging only.
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		p.muted = true
		monitoring.Logf("audio: speaker unavailable, cues muted: %v", err)
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// SetMuted silences or re-enables cues.
func (p *Player) SetMuted(m bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = m
}

// Muted reports whether cues are currently dropped.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted || !p.initialized
}

// OnStep plays the cues for one step. It never blocks the game loop.
func (p *Player) OnStep(res world.StepResult) {
	for _, c := range CuesFor(res) {
		p.Play(c)
	}
}

// Play queues one cue.
func (p *Player) Play(c Cue) {
	s := Stream(c)
	if s == nil {
		return
	}

	if !p.lockedActive() {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

func (p *Player) lockedActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized && !p.muted
}

// Close stops all cues.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}
