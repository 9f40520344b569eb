package main

import (
	"context"
	"fmt"
	"time"

	"github.com/TEJM09/Vision-Core/internal/input"
	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/sensor"
	"github.com/TEJM09/Vision-Core/internal/world"
	"github.com/gdamore/tcell/v2"
)

const (
	hudRows    = 1
	footerRows = 1
	nudgeStep  = 0.04
)

var (
	styleHUD       = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleFooter    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBenefit   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleHazard    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleMissed    = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	stylePaddle    = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	stylePaddleOff = tcell.StyleDefault.Foreground(tcell.ColorDimGray)
	styleBanner    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Reverse(true)
	styleWarn      = tcell.StyleDefault.Foreground(tcell.ColorOrange)
)

// controller is the part of the game loop driver the host talks to.
type controller interface {
	TogglePause() bool
	Stop()
	Done() <-chan struct{}
}

// muter silences audio cues.
type muter interface {
	SetMuted(bool)
}

// host renders snapshots into a terminal and turns mouse and keyboard
// events into pointer positions and pause/quit commands.
type host struct {
	screen    tcell.Screen
	ctl       controller
	snapshots *latest.Value[world.Snapshot]
	pointer   *input.PointerSource // nil unless the paddle follows the mouse
	refresh   func()               // called once per frame; may be nil
	interval  time.Duration
	sound     muter // may be nil

	nudgeX float64
	muted  bool
}

func newHost(screen tcell.Screen, ctl controller, snapshots *latest.Value[world.Snapshot], pointer *input.PointerSource, refresh func(), interval time.Duration) *host {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &host{
		screen:    screen,
		ctl:       ctl,
		snapshots: snapshots,
		pointer:   pointer,
		refresh:   refresh,
		interval:  interval,
		nudgeX:    0.5,
	}
}

// run draws at the frame interval until the player quits or ctx is done.
// After the session ends the final screen stays up until a key is pressed.
func (h *host) run(ctx context.Context) {
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	done := h.ctl.Done()
	over := false
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if !h.handleEvent(ev, over) {
				h.ctl.Stop()
				return
			}
		case <-done:
			done = nil
			over = true
			h.draw()
		case <-ticker.C:
			if h.refresh != nil {
				h.refresh()
			}
			h.draw()
		}
	}
}

// handleEvent applies one terminal event and reports whether the host
// should keep running.
func (h *host) handleEvent(ev tcell.Event, over bool) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if over {
			return false
		}
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			h.nudge(-nudgeStep)
		case tcell.KeyRight:
			h.nudge(nudgeStep)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'p', ' ':
				h.ctl.TogglePause()
			case 'm':
				h.toggleMute()
			}
		}
	case *tcell.EventMouse:
		if h.pointer == nil {
			return true
		}
		x, y := ev.Position()
		w, hgt := h.screen.Size()
		if y < hudRows || y >= hgt-footerRows {
			h.pointer.Move(-1)
			return true
		}
		h.nudgeX = (float64(x) + 0.5) / float64(w)
		h.pointer.Move(h.nudgeX)
	case *tcell.EventResize:
		h.screen.Sync()
	}
	return true
}

func (h *host) nudge(d float64) {
	if h.pointer == nil {
		return
	}
	h.nudgeX = min(max(h.nudgeX+d, 0), 1)
	h.pointer.Move(h.nudgeX)
}

func (h *host) draw() {
	snap, ok := h.snapshots.Load()
	if !ok {
		return
	}
	renderSnapshot(h.screen, snap)
	if h.muted {
		w, ht := h.screen.Size()
		putString(h.screen, w-len(mutedLabel), ht-1, mutedLabel, styleFooter)
	}
	h.screen.Show()
}

const mutedLabel = " MUTED "

func (h *host) toggleMute() {
	h.muted = !h.muted
	if h.sound != nil {
		h.sound.SetMuted(h.muted)
	}
}

// cellFor maps playfield coordinates to a screen cell inside the play area.
func cellFor(x, y float64, pf world.Playfield, w, h int) (col, row int, ok bool) {
	rows := h - hudRows - footerRows
	if w <= 0 || rows <= 0 || x < 0 || y < 0 || x >= pf.Width || y >= pf.Height {
		return 0, 0, false
	}
	col = int(x / pf.Width * float64(w))
	row = hudRows + int(y/pf.Height*float64(rows))
	return col, row, true
}

func objectGlyph(o world.FallingObject) (rune, tcell.Style) {
	if o.Category == world.Hazardous {
		return 'X', styleHazard
	}
	if o.Missed {
		return '.', styleMissed
	}
	return 'o', styleBenefit
}

func putString(s tcell.Screen, x, y int, str string, style tcell.Style) {
	w, _ := s.Size()
	for _, r := range str {
		if x >= w {
			return
		}
		if x >= 0 {
			s.SetContent(x, y, r, nil, style)
		}
		x++
	}
}

func putCentered(s tcell.Screen, y int, str string, style tcell.Style) {
	w, _ := s.Size()
	putString(s, (w-len([]rune(str)))/2, y, str, style)
}

func hudLine(snap world.Snapshot) string {
	e := snap.Economy
	return fmt.Sprintf(" SCORE %d  LIVES %.1f/%.0f  COMBO %d  x%.2f  %s/%s  HI %d",
		int(e.Score), e.Lives, e.MaxLives, e.Combo, e.Difficulty,
		snap.Difficulty, snap.Theme, snap.HighScore)
}

// renderSnapshot draws one frame. It does not call Show.
func renderSnapshot(s tcell.Screen, snap world.Snapshot) {
	s.Clear()
	w, h := s.Size()
	pf := snap.Playfield

	putString(s, 0, 0, hudLine(snap), styleHUD)
	if snap.SensorStatus == sensor.StatusUnavailable {
		putString(s, w-len(" SENSOR OFFLINE "), 0, " SENSOR OFFLINE ", styleWarn)
	}
	putString(s, 0, h-1, " mouse/arrows move  p pause  m mute  q quit", styleFooter)

	for _, o := range snap.Objects {
		col, row, ok := cellFor(o.X, o.Y, pf, w, h)
		if !ok {
			continue
		}
		r, st := objectGlyph(o)
		s.SetContent(col, row, r, nil, st)
	}

	p := snap.Paddle
	style := stylePaddle
	if !snap.Detected {
		style = stylePaddleOff
	}
	left, row, okL := cellFor(max(p.X, 0), p.Y, pf, w, h)
	right, _, okR := cellFor(min(p.X+p.Width, pf.Width-1), p.Y, pf, w, h)
	if okL && okR {
		for c := left; c <= right; c++ {
			s.SetContent(c, row, '=', nil, style)
		}
	}

	mid := hudRows + (h-hudRows-footerRows)/2
	switch {
	case snap.Phase == world.PhaseTerminal:
		putCentered(s, mid, fmt.Sprintf(" GAME OVER  score %d ", int(snap.Economy.Score)), styleBanner)
		if int(snap.Economy.Score) > snap.HighScore {
			putCentered(s, mid+1, " NEW HIGH SCORE ", styleBanner)
		}
		putCentered(s, mid+2, "press any key", styleFooter)
	case snap.Paused:
		putCentered(s, mid, " PAUSED ", styleBanner)
	}
}
