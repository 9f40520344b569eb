package input

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/serialmux"
	"github.com/TEJM09/Vision-Core/internal/timeutil"
	"github.com/TEJM09/Vision-Core/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func load(t *testing.T, cell *latest.Value[tracking.Position]) tracking.Position {
	t.Helper()
	pos, ok := cell.Load()
	require.True(t, ok)
	return pos
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Mode{"pointer": Pointer, " Vision": Vision, "DEVICE": Device} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("joystick")
	assert.Error(t, err)
}

func TestPointerSource(t *testing.T) {
	t.Parallel()

	t.Run("inside playfield is detected", func(t *testing.T) {
		t.Parallel()
		cell := latest.NewValue(tracking.Position{X: 0.5})
		p := NewPointerSource(cell, timeutil.NewMockClock(t0), time.Second, nil)
		p.Move(0.3)
		assert.Equal(t, tracking.Position{X: 0.3, Detected: true}, load(t, cell))
	})

	t.Run("leaving the playfield holds position", func(t *testing.T) {
		t.Parallel()
		cell := latest.NewValue(tracking.Position{X: 0.5})
		p := NewPointerSource(cell, timeutil.NewMockClock(t0), time.Second, nil)
		p.Move(0.7)
		p.Move(1.2)
		assert.Equal(t, tracking.Position{X: 0.7, Detected: false}, load(t, cell))
	})

	t.Run("stale pointer is undetected", func(t *testing.T) {
		t.Parallel()
		clock := timeutil.NewMockClock(t0)
		cell := latest.NewValue(tracking.Position{X: 0.5})
		p := NewPointerSource(cell, clock, 2*time.Second, nil)
		p.Move(0.4)

		clock.Advance(2 * time.Second)
		p.Refresh()
		assert.True(t, load(t, cell).Detected)

		clock.Advance(time.Millisecond)
		p.Refresh()
		assert.Equal(t, tracking.Position{X: 0.4, Detected: false}, load(t, cell))

		p.Move(0.45)
		assert.True(t, load(t, cell).Detected)
	})

	t.Run("zero stale window never expires", func(t *testing.T) {
		t.Parallel()
		clock := timeutil.NewMockClock(t0)
		cell := latest.NewValue(tracking.Position{X: 0.5})
		p := NewPointerSource(cell, clock, 0, nil)
		p.Move(0.6)
		clock.Advance(time.Hour)
		p.Refresh()
		assert.True(t, load(t, cell).Detected)
	})

	t.Run("paused ignores events", func(t *testing.T) {
		t.Parallel()
		var paused atomic.Bool
		cell := latest.NewValue(tracking.Position{X: 0.5})
		p := NewPointerSource(cell, timeutil.NewMockClock(t0), time.Second, paused.Load)
		p.Move(0.2)

		paused.Store(true)
		p.Move(0.9)
		p.Refresh()
		assert.Equal(t, tracking.Position{X: 0.2, Detected: false}, load(t, cell))

		paused.Store(false)
		p.Refresh()
		assert.Equal(t, tracking.Position{X: 0.2, Detected: true}, load(t, cell))
	})

	t.Run("no event yet", func(t *testing.T) {
		t.Parallel()
		cell := latest.NewValue(tracking.Position{X: 0.5})
		p := NewPointerSource(cell, timeutil.NewMockClock(t0), time.Second, nil)
		p.Refresh()
		assert.Equal(t, tracking.Position{X: 0.5, Detected: false}, load(t, cell))
	})
}

func TestDeviceSource_HandleLine(t *testing.T) {
	t.Parallel()

	cell := latest.NewValue(tracking.Position{X: 0.5})
	d := NewDeviceSource(serialmux.NewSerialMux(serialmux.NewLoopbackPort()), cell, timeutil.NewMockClock(t0), time.Second, nil)

	d.HandleLine("0.25")
	assert.Equal(t, tracking.Position{X: 0.25, Detected: true}, load(t, cell))

	d.HandleLine(`{"x":0.8}`)
	assert.Equal(t, 0.8, load(t, cell).X)

	d.HandleLine(`{"fw":"2.0"}`)
	assert.Equal(t, "2.0", d.State.Values()["fw"])

	d.HandleLine("1.7")
	d.HandleLine("OK")
	assert.Equal(t, 2, d.Rejected())
	assert.Equal(t, 0.8, load(t, cell).X)
}

func TestDeviceSource_Run(t *testing.T) {
	t.Parallel()

	port := serialmux.NewLoopbackPort()
	mux := serialmux.NewSerialMux(port)
	cell := latest.NewValue(tracking.Position{X: 0.5})
	d := NewDeviceSource(mux, cell, timeutil.NewMockClock(t0), 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// Run must have subscribed before Monitor fans out the lines.
	require.Eventually(t, func() bool { return mux.Subscribers() == 1 }, time.Second, time.Millisecond)

	port.Feed("0.61\n")
	port.Hangup()
	require.NoError(t, mux.Monitor(ctx))

	require.Eventually(t, func() bool {
		pos, _ := cell.Load()
		return pos == tracking.Position{X: 0.61, Detected: true}
	}, time.Second, time.Millisecond)

	require.NoError(t, mux.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the mux closed")
	}
}
