package economy

import (
	"fmt"
	"strings"
)

// Difficulty identifies a preset.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Preset is selected once per session and never mutated.
type Preset struct {
	ID                Difficulty
	InitialLives      float64 // also the session's maxLives
	Growth            float64 // score-growth-to-difficulty coefficient; shown on the debug page, not used by Evaluate
	MissPenalty       float64 // lives lost per missed Beneficial object
	HazardPenalty     float64 // lives lost per Hazardous collision
	SpawnBaseMs       float64 // spawn interval at score 0, before theme scaling
	RegenPerMilestone float64 // lives granted per MilestonePoints crossed; 0 disables
}

// MilestonePoints is the score step at which regeneration fires.
const MilestonePoints = 100

var presets = map[Difficulty]Preset{
	Easy:   {ID: Easy, InitialLives: 5, Growth: 0.03, MissPenalty: 0.03, HazardPenalty: 1, SpawnBaseMs: 1400, RegenPerMilestone: 0.5},
	Medium: {ID: Medium, InitialLives: 3, Growth: 0.1, MissPenalty: 0.1, HazardPenalty: 1, SpawnBaseMs: 1000},
	Hard:   {ID: Hard, InitialLives: 1, Growth: 0.25, MissPenalty: 1.0, HazardPenalty: 1, SpawnBaseMs: 700},
}

// PresetFor returns the preset for id. Unknown ids fall back to Medium.
func PresetFor(id Difficulty) Preset {
	if p, ok := presets[id]; ok {
		return p
	}
	return presets[Medium]
}

// ParseDifficulty accepts a case-insensitive preset name.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := presets[d]; !ok {
		return "", fmt.Errorf("unknown difficulty %q: expected easy, medium, or hard", s)
	}
	return d, nil
}

// Avatar is a cosmetic tag chosen at session start.
type Avatar struct {
	ID   string
	Name string
}

var avatars = []Avatar{
	{ID: "aero", Name: "Aero"},
	{ID: "nova", Name: "Nova"},
	{ID: "gears", Name: "Gears"},
	{ID: "leaf", Name: "Leaf"},
}

// Avatars returns the selectable avatars in menu order.
func Avatars() []Avatar {
	out := make([]Avatar, len(avatars))
	copy(out, avatars)
	return out
}

// ParseAvatar looks up an avatar by id.
func ParseAvatar(s string) (Avatar, error) {
	id := strings.ToLower(strings.TrimSpace(s))
	for _, a := range avatars {
		if a.ID == id {
			return a, nil
		}
	}
	return Avatar{}, fmt.Errorf("unknown avatar %q", s)
}
