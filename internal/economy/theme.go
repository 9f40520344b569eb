package economy

import (
	"fmt"
	"strings"
)

// ThemeID identifies a theme.
type ThemeID string

const (
	Cosmic    ThemeID = "cosmic"
	NeonCity  ThemeID = "neon_city"
	Nature    ThemeID = "nature"
	UrbanRain ThemeID = "urban_rain"
	MindLab   ThemeID = "mind_lab"
	Retro     ThemeID = "retro"
)

// Motion governs the horizontal perturbation of falling objects.
type Motion uint8

const (
	Uniform  Motion = iota // straight down
	Drift                  // constant per-object horizontal velocity
	Zigzag                 // sinusoid with per-object advancing phase
	WindSway               // low-frequency sine keyed to wall clock and x
)

func (m Motion) String() string {
	switch m {
	case Uniform:
		return "uniform"
	case Drift:
		return "drift"
	case Zigzag:
		return "zigzag"
	case WindSway:
		return "wind"
	default:
		return fmt.Sprintf("Motion(%d)", uint8(m))
	}
}

// Theme carries the per-theme motion constants and visual variant tags.
type Theme struct {
	ID            ThemeID
	GravityMult   float64
	SpawnRateMult float64
	Motion        Motion
	SpeedBase     float64 // fall speed floor; objects get SpeedBase + U(0,2)
	Beneficial    []string
	Hazardous     []string
}

// Variants returns the variant set for a category.
func (t Theme) Variants(hazardous bool) []string {
	if hazardous {
		return t.Hazardous
	}
	return t.Beneficial
}

var themeOrder = []ThemeID{Cosmic, NeonCity, Nature, UrbanRain, MindLab, Retro}

var themes = map[ThemeID]Theme{
	Cosmic: {
		ID: Cosmic, GravityMult: 0.9, SpawnRateMult: 1, Motion: Drift, SpeedBase: 4,
		Beneficial: []string{"gem", "sparkle", "comet"},
		Hazardous:  []string{"rock", "dark_moon", "blast"},
	},
	NeonCity: {
		ID: NeonCity, GravityMult: 1.1, SpawnRateMult: 1, Motion: Zigzag, SpeedBase: 4,
		Beneficial: []string{"disk", "bolt", "battery"},
		Hazardous:  []string{"invader", "skull", "fire"},
	},
	Nature: {
		ID: Nature, GravityMult: 0.7, SpawnRateMult: 1, Motion: WindSway, SpeedBase: 4,
		Beneficial: []string{"apple", "cherry", "sunflower"},
		Hazardous:  []string{"web", "dead_leaf", "wilted_rose"},
	},
	UrbanRain: {
		ID: UrbanRain, GravityMult: 1.3, SpawnRateMult: 1, Motion: Uniform, SpeedBase: 7,
		Beneficial: []string{"umbrella", "coffee", "gem"},
		Hazardous:  []string{"bolt", "barrier", "blast"},
	},
	MindLab: {
		ID: MindLab, GravityMult: 1.0, SpawnRateMult: 1, Motion: Uniform, SpeedBase: 4,
		Beneficial: []string{"brain", "puzzle", "flask"},
		Hazardous:  []string{"stop", "warning", "chart_down"},
	},
	Retro: {
		ID: Retro, GravityMult: 1.2, SpawnRateMult: 1.5, Motion: Uniform, SpeedBase: 4,
		Beneficial: []string{"star", "mushroom", "cherry"},
		Hazardous:  []string{"ghost", "bomb", "invader"},
	},
}

// ThemeFor returns the theme for id. Unknown ids fall back to Cosmic.
func ThemeFor(id ThemeID) Theme {
	if t, ok := themes[id]; ok {
		return t
	}
	return themes[Cosmic]
}

// Themes returns every theme in menu order.
func Themes() []Theme {
	out := make([]Theme, 0, len(themeOrder))
	for _, id := range themeOrder {
		out = append(out, themes[id])
	}
	return out
}

// ParseTheme accepts a case-insensitive theme name; dashes and spaces are
// treated as underscores.
func ParseTheme(s string) (ThemeID, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	id := ThemeID(norm)
	if _, ok := themes[id]; !ok {
		return "", fmt.Errorf("unknown theme %q", s)
	}
	return id, nil
}
