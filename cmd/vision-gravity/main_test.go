package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/TEJM09/Vision-Core/internal/db"
	"github.com/TEJM09/Vision-Core/internal/economy"
	"github.com/TEJM09/Vision-Core/internal/input"
	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/sensor"
	"github.com/TEJM09/Vision-Core/internal/serialmux"
	"github.com/TEJM09/Vision-Core/internal/tracking"
	"github.com/TEJM09/Vision-Core/internal/world"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionFlags(t *testing.T) {
	t.Parallel()

	sf, err := parseSessionFlags("Hard", "neon-city", "nova", "vision")
	require.NoError(t, err)
	assert.Equal(t, economy.Hard, sf.Difficulty)
	assert.Equal(t, economy.NeonCity, sf.Theme)
	assert.Equal(t, "nova", sf.Avatar.ID)
	assert.Equal(t, input.Vision, sf.Input)

	for _, bad := range [][4]string{
		{"insane", "cosmic", "aero", "pointer"},
		{"easy", "space", "aero", "pointer"},
		{"easy", "cosmic", "robot", "pointer"},
		{"easy", "cosmic", "aero", "joystick"},
	} {
		_, err := parseSessionFlags(bad[0], bad[1], bad[2], bad[3])
		assert.Error(t, err, "%v", bad)
	}
}

func TestLoadTuning(t *testing.T) {
	t.Parallel()

	cfg, err := loadTuning("")
	require.NoError(t, err)
	assert.Equal(t, 16*time.Millisecond, cfg.GetFrameInterval())

	_, err = loadTuning("/nonexistent/tuning.json")
	assert.Error(t, err)
}

func TestNewVisionPipeline_NoFramesIsUnavailable(t *testing.T) {
	t.Parallel()

	cfg, err := loadTuning("")
	require.NoError(t, err)
	out := latest.NewValue(tracking.Position{X: 0.3})
	p := newVisionPipeline("", cfg, out)
	require.NotNil(t, p.Diag)

	require.NoError(t, p.Run(t.Context()))
	assert.Equal(t, sensor.StatusUnavailable, p.Status.Load())
	pos, _ := out.Load()
	assert.False(t, pos.Detected)
	assert.Equal(t, tracking.InitialEstimate, pos.X)
}

func TestOpenController_Sim(t *testing.T) {
	t.Parallel()

	mux, err := openController("sim", serialmux.PortOptions{})
	require.NoError(t, err)
	require.NoError(t, mux.Close())

	_, err = openController("/dev/does-not-exist", serialmux.PortOptions{})
	assert.Error(t, err)
}

func testResult() world.Result {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return world.Result{
		SessionID:         uuid.New(),
		FinalScore:        315,
		HighScore:         315,
		PreviousHighScore: 200,
		NewHighScore:      true,
		Difficulty:        economy.Easy,
		Theme:             economy.Retro,
		Avatar:            "leaf",
		InputMode:         "device",
		Elapsed:           95 * time.Second,
		Caught:            50,
		Missed:            3,
		HazardHits:        2,
		StartedAt:         start,
		EndedAt:           start.Add(95 * time.Second),
	}
}

func TestSessionRecord(t *testing.T) {
	t.Parallel()

	r := testResult()
	rec := sessionRecord(r, sensor.StatusActive)
	assert.Equal(t, r.SessionID, rec.SessionID)
	assert.Equal(t, "easy", rec.Difficulty)
	assert.Equal(t, "retro", rec.Theme)
	assert.Equal(t, "active", rec.SensorStatus)
	assert.Equal(t, 315, rec.FinalScore)
	assert.True(t, rec.NewHighScore)
	assert.Equal(t, r.EndedAt, rec.EndedAt)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	r := testResult()
	var buf bytes.Buffer
	printSummary(&buf, &r, []db.SessionRecord{sessionRecord(r, sensor.StatusIdle)})
	out := buf.String()
	assert.Contains(t, out, "Final score 315 (easy, retro) in 1m35s")
	assert.Contains(t, out, "Caught 50, missed 3, hazards hit 2")
	assert.Contains(t, out, "New high score! (previous 200)")
	assert.NotContains(t, out, "previous 315")
	assert.Contains(t, out, "Recent sessions:")
	assert.Contains(t, out, "device")

	buf.Reset()
	printSummary(&buf, nil, nil)
	assert.Equal(t, "Session ended before game over.\n", buf.String())
}
