package world

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/TEJM09/Vision-Core/internal/config"
	"github.com/TEJM09/Vision-Core/internal/economy"
	"github.com/TEJM09/Vision-Core/internal/monitoring"
	"github.com/TEJM09/Vision-Core/internal/sensor"
	"github.com/TEJM09/Vision-Core/internal/tracking"
	"github.com/google/uuid"
)

// Motion integration constants.
const (
	referenceFrameMs = 16.67 // speeds are expressed per 60Hz frame
	zigzagPhaseMs    = 120.0 // ms of dt per radian of zigzag phase
	zigzagAmplitude  = 8.0
	windPeriodMs     = 700.0
	windAmplitude    = 4.0
	spawnTopY        = -50.0
	driftSpread      = 4.0
	radiusBase       = 20.0
	radiusJitter     = 5.0
	speedJitter      = 2.0
)

// Phase is the session state machine position.
type Phase uint8

const (
	PhaseRunning Phase = iota
	PhasePaused
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Config is the immutable session configuration.
type Config struct {
	Difficulty        economy.Difficulty
	Theme             economy.ThemeID
	Avatar            string
	InputMode         string // recorded in the Result only
	Playfield         Playfield
	HazardProbability float64

	// HighScore is the best score known before this session. The World only
	// compares against it; persisting a new record is up to OnResult.
	HighScore int

	// Rand drives spawning. Nil seeds a generator from the start time.
	Rand *rand.Rand

	// SessionID identifies the session in results. Zero generates one.
	SessionID uuid.UUID

	// OnResult is invoked exactly once, after the Step that reached the
	// terminal state has released the World.
	OnResult func(Result)
}

// DefaultConfig returns a Medium/Cosmic session on the default playfield.
func DefaultConfig() Config {
	return Config{
		Difficulty:        economy.Medium,
		Theme:             economy.Cosmic,
		Avatar:            "aero",
		Playfield:         DefaultPlayfield(),
		HazardProbability: 0.22,
	}
}

// ConfigFromTuning fills the playfield and hazard probability from a loaded
// TuningConfig, leaving session selection at its defaults.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	c := DefaultConfig()
	c.Playfield = PlayfieldFromTuning(cfg)
	c.HazardProbability = cfg.GetHazardProbability()
	return c
}

// Economy is the score/lives state at one instant.
type Economy struct {
	Score      float64
	Lives      float64
	MaxLives   float64
	Combo      int
	Difficulty float64
	Elapsed    time.Duration
}

// Snapshot is a deep copy of the World for presentation.
type Snapshot struct {
	SessionID    uuid.UUID
	Phase        Phase
	Difficulty   economy.Difficulty
	Theme        economy.ThemeID
	Avatar       string
	Playfield    Playfield
	Objects      []FallingObject
	Economy      Economy
	Paddle       Paddle
	PaddleX      float64
	Detected     bool
	Paused       bool
	HighScore    int
	SensorStatus sensor.Status
}

// StepResult lists the events produced by one Step.
type StepResult struct {
	Spawned    int
	Caught     int
	HazardHits int
	Missed     int
	ScoreDelta float64
	LivesDelta float64 // collision and miss effects, before regen and clamping
	RegenLives float64
	Terminal   bool
}

// Result is reported once when the session ends. HighScore includes this
// session; PreviousHighScore is the value injected at session start.
type Result struct {
	SessionID         uuid.UUID
	FinalScore        int
	HighScore         int
	PreviousHighScore int
	NewHighScore      bool
	Difficulty        economy.Difficulty
	Theme             economy.ThemeID
	Avatar            string
	InputMode         string
	Elapsed           time.Duration
	Caught            int
	Missed            int
	HazardHits        int
	StartedAt         time.Time
	EndedAt           time.Time
}

// World is the state of one session.
type World struct {
	mu sync.Mutex

	cfg    Config
	preset economy.Preset
	theme  economy.Theme
	rng    *rand.Rand
	start  time.Time

	phase      Phase
	objects    []FallingObject
	nextID     uint64
	spawnTimer time.Duration
	econ       Economy
	milestones economy.Milestones
	paddleX    float64
	detected   bool

	caught, missed, hazardHits int
	reported                   bool
}

// New creates a running World whose session clock starts at start.
func New(cfg Config, start time.Time) *World {
	if cfg.Playfield == (Playfield{}) {
		cfg.Playfield = DefaultPlayfield()
	}
	if cfg.SessionID == uuid.Nil {
		cfg.SessionID = uuid.New()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(start.UnixNano()), 0x9e3779b97f4a7c15))
	}
	preset := economy.PresetFor(cfg.Difficulty)
	theme := economy.ThemeFor(cfg.Theme)
	cfg.Difficulty, cfg.Theme = preset.ID, theme.ID

	return &World{
		cfg:     cfg,
		preset:  preset,
		theme:   theme,
		rng:     rng,
		start:   start,
		phase:   PhaseRunning,
		paddleX: tracking.InitialEstimate,
		econ: Economy{
			Lives:      preset.InitialLives,
			MaxLives:   preset.InitialLives,
			Difficulty: economy.DifficultyScalar(0, 0),
		},
	}
}

// SessionID returns the session identifier.
func (w *World) SessionID() uuid.UUID { return w.cfg.SessionID }

// Phase returns the current state machine phase.
func (w *World) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// SetPaused moves between Running and Paused. It has no effect once the
// session is terminal.
func (w *World) SetPaused(paused bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setPausedLocked(paused)
}

// TogglePause flips between Running and Paused and reports whether the
// World is now paused.
func (w *World) TogglePause() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setPausedLocked(w.phase == PhaseRunning)
	return w.phase == PhasePaused
}

func (w *World) setPausedLocked(paused bool) {
	if w.phase == PhaseTerminal {
		return
	}
	if paused {
		w.phase = PhasePaused
	} else {
		w.phase = PhaseRunning
	}
}

// Step advances the session by dt at wall-clock time now, using pos as the
// paddle input. Paused and terminal worlds are left untouched.
func (w *World) Step(now time.Time, dt time.Duration, pos tracking.Position) StepResult {
	w.mu.Lock()
	res, fire := w.stepLocked(now, dt, pos)
	onResult := w.cfg.OnResult
	w.mu.Unlock()

	if fire != nil && onResult != nil {
		onResult(*fire)
	}
	return res
}

func (w *World) stepLocked(now time.Time, dt time.Duration, pos tracking.Position) (StepResult, *Result) {
	var res StepResult
	if w.phase != PhaseRunning {
		return res, nil
	}
	if dt < 0 {
		dt = 0
	}

	w.paddleX = clamp(pos.X, 0, 1)
	w.detected = pos.Detected

	params := economy.Evaluate(w.econ.Score, w.econ.Elapsed, w.preset, w.theme)
	w.advance(now, dt, params.GravityMultiplier)

	w.spawnTimer += dt
	if w.spawnTimer > params.SpawnInterval {
		w.spawnTimer = 0
		w.spawn()
		res.Spawned++
	}

	w.resolve(&res, params)

	// Economy fold.
	w.econ.Score += res.ScoreDelta
	res.RegenLives = w.milestones.Regen(w.econ.Score, w.preset)
	w.econ.Lives = clamp(w.econ.Lives+res.LivesDelta+res.RegenLives, 0, w.econ.MaxLives)
	w.econ.Elapsed = max(now.Sub(w.start), 0)
	w.econ.Difficulty = economy.DifficultyScalar(w.econ.Score, w.econ.Elapsed.Seconds())

	w.caught += res.Caught
	w.missed += res.Missed
	w.hazardHits += res.HazardHits

	if w.econ.Lives > 0 {
		return res, nil
	}
	w.phase = PhaseTerminal
	res.Terminal = true
	if w.reported {
		return res, nil
	}
	w.reported = true
	result := w.resultLocked(now)
	monitoring.Logf("world: session %s ended score=%d caught=%d missed=%d hazards=%d",
		result.SessionID, result.FinalScore, result.Caught, result.Missed, result.HazardHits)
	return res, &result
}

// advance moves objects without culling them; resolve culls after the miss
// check so an object that clears the margin within one tick is still charged.
func (w *World) advance(now time.Time, dt time.Duration, gravity float64) {
	dtMs := float64(dt) / float64(time.Millisecond)
	frames := dtMs / referenceFrameMs
	nowMs := float64(now.UnixNano()) / float64(time.Millisecond)

	kept := w.objects[:0]
	for _, o := range w.objects {
		o.Y += o.Speed * frames * gravity
		switch w.theme.Motion {
		case economy.Drift:
			o.X += o.DriftVel * frames
		case economy.Zigzag:
			o.Phase += dtMs / zigzagPhaseMs
			o.X += math.Sin(o.Phase) * zigzagAmplitude
		case economy.WindSway:
			o.X += math.Sin(nowMs/windPeriodMs+o.X) * windAmplitude
		}
		kept = append(kept, o)
	}
	w.objects = kept
}

func (w *World) spawn() {
	pf := w.cfg.Playfield
	hazard := w.rng.Float64() < w.cfg.HazardProbability
	cat := Beneficial
	if hazard {
		cat = Hazardous
	}
	o := FallingObject{
		ID:       w.nextID,
		X:        w.rng.Float64()*(pf.Width-2*pf.Margin) + pf.Margin,
		Y:        spawnTopY,
		Radius:   radiusBase + w.rng.Float64()*radiusJitter,
		Speed:    w.theme.SpeedBase + w.rng.Float64()*speedJitter,
		Phase:    w.rng.Float64() * 2 * math.Pi,
		Category: cat,
	}
	if variants := w.theme.Variants(hazard); len(variants) > 0 {
		o.Variant = variants[w.rng.IntN(len(variants))]
	}
	if w.theme.Motion == economy.Drift {
		o.DriftVel = (w.rng.Float64() - 0.5) * driftSpread
	}
	w.nextID++
	w.objects = append(w.objects, o)
}

// resolve applies at most one score or life effect per object, then drops
// objects that have left the playfield margin.
func (w *World) resolve(res *StepResult, params economy.Params) {
	paddle := PaddleAt(w.paddleX, w.cfg.Playfield)
	kept := w.objects[:0]
	for _, o := range w.objects {
		if !o.Missed && paddle.Overlaps(o) {
			if o.Category == Beneficial {
				res.ScoreDelta += economy.CatchPoints(w.econ.Combo)
				w.econ.Combo++
				res.Caught++
			} else {
				res.LivesDelta -= params.HazardPenalty
				w.econ.Combo = 0
				res.HazardHits++
			}
			continue
		}
		if o.Category == Beneficial && !o.Missed && o.Y > w.cfg.Playfield.Height {
			o.Missed = true
			res.LivesDelta -= params.MissPenalty
			w.econ.Combo = 0
			res.Missed++
		}
		if w.cfg.Playfield.outside(o) {
			continue
		}
		kept = append(kept, o)
	}
	w.objects = kept
}

func (w *World) resultLocked(now time.Time) Result {
	final := int(math.Floor(w.econ.Score))
	return Result{
		SessionID:         w.cfg.SessionID,
		FinalScore:        final,
		HighScore:         max(final, w.cfg.HighScore),
		PreviousHighScore: w.cfg.HighScore,
		NewHighScore:      final > w.cfg.HighScore,
		Difficulty:        w.cfg.Difficulty,
		Theme:             w.cfg.Theme,
		Avatar:            w.cfg.Avatar,
		InputMode:         w.cfg.InputMode,
		Elapsed:           w.econ.Elapsed,
		Caught:            w.caught,
		Missed:            w.missed,
		HazardHits:        w.hazardHits,
		StartedAt:         w.start,
		EndedAt:           now,
	}
}

// Snapshot returns a deep copy of the current state.
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	objs := make([]FallingObject, len(w.objects))
	copy(objs, w.objects)
	return Snapshot{
		SessionID:  w.cfg.SessionID,
		Phase:      w.phase,
		Difficulty: w.cfg.Difficulty,
		Theme:      w.cfg.Theme,
		Avatar:     w.cfg.Avatar,
		Playfield:  w.cfg.Playfield,
		Objects:    objs,
		Economy:    w.econ,
		Paddle:     PaddleAt(w.paddleX, w.cfg.Playfield),
		PaddleX:    w.paddleX,
		Detected:   w.detected,
		Paused:     w.phase == PhasePaused,
		HighScore:  w.cfg.HighScore,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
