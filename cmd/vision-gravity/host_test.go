package main

import (
	"strings"
	"testing"
	"time"

	"github.com/TEJM09/Vision-Core/internal/input"
	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/sensor"
	"github.com/TEJM09/Vision-Core/internal/timeutil"
	"github.com/TEJM09/Vision-Core/internal/tracking"
	"github.com/TEJM09/Vision-Core/internal/world"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	toggles int
	stops   int
	done    chan struct{}
}

func (f *fakeController) TogglePause() bool     { f.toggles++; return f.toggles%2 == 1 }
func (f *fakeController) Stop()                 { f.stops++ }
func (f *fakeController) Done() <-chan struct{} { return f.done }

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func rowText(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return b.String()
}

func TestCellFor(t *testing.T) {
	t.Parallel()

	pf := world.DefaultPlayfield()
	tests := []struct {
		name     string
		x, y     float64
		col, row int
		ok       bool
	}{
		{"origin", 0, 0, 0, 1, true},
		{"centre", 400, 300, 40, 12, true},
		{"last cell", 799, 599, 79, 22, true},
		{"above field", 100, -50, 0, 0, false},
		{"left of field", -1, 100, 0, 0, false},
		{"right edge excluded", 800, 100, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, row, ok := cellFor(tt.x, tt.y, pf, 80, 24)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.col, col)
				assert.Equal(t, tt.row, row)
			}
		})
	}

	_, _, ok := cellFor(10, 10, pf, 80, 2)
	assert.False(t, ok, "no rows left for the play area")
}

func testSnapshot() world.Snapshot {
	pf := world.DefaultPlayfield()
	return world.Snapshot{
		Phase:      world.PhaseRunning,
		Difficulty: "medium",
		Theme:      "cosmic",
		Playfield:  pf,
		Objects: []world.FallingObject{
			{ID: 1, X: 400, Y: 300, Radius: 22, Category: world.Beneficial},
			{ID: 2, X: 100, Y: 100, Radius: 22, Category: world.Hazardous},
		},
		Economy:  world.Economy{Score: 42.9, Lives: 2.5, MaxLives: 3, Combo: 4, Difficulty: 1.1},
		Paddle:   world.PaddleAt(0.5, pf),
		PaddleX:  0.5,
		Detected: true,
	}
}

func TestRenderSnapshot(t *testing.T) {
	t.Parallel()

	s := newSimScreen(t, 80, 24)
	snap := testSnapshot()
	renderSnapshot(s, snap)
	s.Show()

	hud := rowText(s, 0)
	assert.Contains(t, hud, "SCORE 42")
	assert.Contains(t, hud, "LIVES 2.5/3")
	assert.Contains(t, hud, "COMBO 4")
	assert.Contains(t, rowText(s, 23), "q quit")

	r, _, _, _ := s.GetContent(40, 12)
	assert.Equal(t, 'o', r)
	r, _, _, _ = s.GetContent(10, 4)
	assert.Equal(t, 'X', r)

	_, row, ok := cellFor(snap.Paddle.X, snap.Paddle.Y, snap.Playfield, 80, 24)
	require.True(t, ok)
	assert.Contains(t, rowText(s, row), "===")
}

func TestRenderSnapshot_Banners(t *testing.T) {
	t.Parallel()

	s := newSimScreen(t, 80, 24)
	snap := testSnapshot()

	snap.Paused = true
	renderSnapshot(s, snap)
	assert.Contains(t, rowText(s, 12), "PAUSED")

	snap.Paused = false
	snap.Phase = world.PhaseTerminal
	snap.HighScore = 10
	snap.SensorStatus = sensor.StatusUnavailable
	renderSnapshot(s, snap)
	assert.Contains(t, rowText(s, 12), "GAME OVER  score 42")
	assert.Contains(t, rowText(s, 13), "NEW HIGH SCORE")
	assert.Contains(t, rowText(s, 0), "SENSOR OFFLINE")
}

func TestHost_HandleEvent(t *testing.T) {
	t.Parallel()

	s := newSimScreen(t, 80, 24)
	ctl := &fakeController{done: make(chan struct{})}
	cell := latest.NewValue(tracking.Position{X: tracking.InitialEstimate})
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	ptr := input.NewPointerSource(cell, clock, time.Second, nil)
	h := newHost(s, ctl, &latest.Value[world.Snapshot]{}, ptr, ptr.Refresh, 0)

	assert.True(t, h.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), false))
	assert.Equal(t, 1, ctl.toggles)

	assert.True(t, h.handleEvent(tcell.NewEventMouse(20, 10, tcell.ButtonNone, tcell.ModNone), false))
	pos, _ := cell.Load()
	assert.InDelta(t, 20.5/80, pos.X, 1e-9)
	assert.True(t, pos.Detected)

	// Pointer over the HUD counts as leaving the playfield.
	h.handleEvent(tcell.NewEventMouse(60, 0, tcell.ButtonNone, tcell.ModNone), false)
	pos, _ = cell.Load()
	assert.InDelta(t, 20.5/80, pos.X, 1e-9)
	assert.False(t, pos.Detected)

	h.handleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), false)
	pos, _ = cell.Load()
	assert.InDelta(t, 20.5/80+nudgeStep, pos.X, 1e-9)
	assert.True(t, pos.Detected)

	assert.False(t, h.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), false))
	assert.False(t, h.handleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), false))
	assert.False(t, h.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), true), "any key leaves the final screen")
	assert.Equal(t, 1, ctl.toggles)
}

func TestHost_NudgeClamps(t *testing.T) {
	t.Parallel()

	s := newSimScreen(t, 80, 24)
	cell := latest.NewValue(tracking.Position{X: tracking.InitialEstimate})
	ptr := input.NewPointerSource(cell, timeutil.NewMockClock(time.Unix(0, 0)), 0, nil)
	h := newHost(s, &fakeController{done: make(chan struct{})}, &latest.Value[world.Snapshot]{}, ptr, nil, 0)

	for i := 0; i < 40; i++ {
		h.nudge(-nudgeStep)
	}
	pos, _ := cell.Load()
	assert.Equal(t, 0.0, pos.X)
	assert.True(t, pos.Detected)
}

func TestHost_IgnoresMouseWithoutPointer(t *testing.T) {
	t.Parallel()

	s := newSimScreen(t, 80, 24)
	h := newHost(s, &fakeController{done: make(chan struct{})}, &latest.Value[world.Snapshot]{}, nil, nil, 0)
	assert.True(t, h.handleEvent(tcell.NewEventMouse(1, 5, tcell.Button1, tcell.ModNone), false))
	h.nudge(nudgeStep)
}

type fakeMuter struct{ calls []bool }

func (f *fakeMuter) SetMuted(m bool) { f.calls = append(f.calls, m) }

func TestHost_MuteKeyTogglesSound(t *testing.T) {
	t.Parallel()

	s := newSimScreen(t, 80, 24)
	snaps := latest.NewValue(testSnapshot())
	h := newHost(s, &fakeController{done: make(chan struct{})}, snaps, nil, nil, 0)
	sound := &fakeMuter{}
	h.sound = sound

	mKey := tcell.NewEventKey(tcell.KeyRune, 'm', tcell.ModNone)
	assert.True(t, h.handleEvent(mKey, false))
	h.draw()
	assert.Contains(t, rowText(s, 23), "MUTED")

	assert.True(t, h.handleEvent(mKey, false))
	h.draw()
	assert.NotContains(t, rowText(s, 23), "MUTED")
	assert.Equal(t, []bool{true, false}, sound.calls)
}

func TestHost_MuteWithoutSound(t *testing.T) {
	t.Parallel()

	s := newSimScreen(t, 80, 24)
	h := newHost(s, &fakeController{done: make(chan struct{})}, &latest.Value[world.Snapshot]{}, nil, nil, 0)
	h.toggleMute()
	assert.True(t, h.muted)
}
