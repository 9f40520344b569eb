package economy

import (
	"math"
	"time"
)

// Model constants.
const (
	ScorePerDifficulty   = 400.0 // score that adds 1 to the difficulty scalar
	SecondsPerDifficulty = 180.0 // elapsed seconds that add 1
	MinSpawnIntervalMs   = 160.0
	SpawnMsPerPoint      = 4.0
)

// Params is the economy evaluated at one instant.
type Params struct {
	DifficultyScalar  float64
	GravityMultiplier float64
	SpawnInterval     time.Duration
	HazardPenalty     float64
	MissPenalty       float64
}

// DifficultyScalar is 1 at the start of a session and grows without bound
// with score and elapsed time.
func DifficultyScalar(score, elapsedSeconds float64) float64 {
	return 1 + score/ScorePerDifficulty + elapsedSeconds/SecondsPerDifficulty
}

// SpawnIntervalMs returns the spawn interval in milliseconds, floored before
// theme scaling to bound worst-case spawn density.
func SpawnIntervalMs(score float64, preset Preset, theme Theme) float64 {
	ms := math.Max(MinSpawnIntervalMs, preset.SpawnBaseMs-SpawnMsPerPoint*score)
	mult := theme.SpawnRateMult
	if mult <= 0 {
		mult = 1
	}
	return ms / mult
}

// Evaluate maps (score, elapsed, preset, theme) to the current parameters.
func Evaluate(score float64, elapsed time.Duration, preset Preset, theme Theme) Params {
	d := DifficultyScalar(score, elapsed.Seconds())
	return Params{
		DifficultyScalar:  d,
		GravityMultiplier: theme.GravityMult * d,
		SpawnInterval:     time.Duration(SpawnIntervalMs(score, preset, theme) * float64(time.Millisecond)),
		HazardPenalty:     preset.HazardPenalty,
		MissPenalty:       preset.MissPenalty,
	}
}

// CatchPoints is the award for one Beneficial catch at the given combo.
func CatchPoints(combo int) float64 {
	return 5 + float64(combo/4)
}

// Milestones tracks life regeneration. The last-milestone index only ever
// increases, so every milestone pays out exactly once regardless of how
// many are crossed within a single tick.
type Milestones struct {
	last int
}

// Last returns the highest milestone index already paid out.
func (m *Milestones) Last() int { return m.last }

// Regen returns the lives granted for milestones newly crossed by score.
func (m *Milestones) Regen(score float64, preset Preset) float64 {
	if preset.RegenPerMilestone <= 0 {
		return 0
	}
	idx := int(math.Floor(score / MilestonePoints))
	if idx <= m.last {
		return 0
	}
	crossed := idx - m.last
	m.last = idx
	return float64(crossed) * preset.RegenPerMilestone
}
