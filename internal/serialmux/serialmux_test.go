package serialmux

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSerialMux_Initialize(t *testing.T) {
	port := NewLoopbackPort()
	mux := NewSerialMux(port)

	if err := mux.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	want := strings.Join(DefaultInitCommands, "\n") + "\n"
	if got := port.Written(); got != want {
		t.Errorf("written = %q, want %q", got, want)
	}
}

func TestSerialMux_InitializeCustomCommands(t *testing.T) {
	port := NewLoopbackPort()
	mux := NewSerialMux(port, "RATE 30")

	if err := mux.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := port.Written(); got != "RATE 30\n" {
		t.Errorf("written = %q, want %q", got, "RATE 30\n")
	}
}

func TestSerialMux_InitializeWriteError(t *testing.T) {
	port := NewLoopbackPort()
	boom := errors.New("boom")
	port.FailWrites(boom)
	mux := NewSerialMux(port)

	err := mux.Initialize()
	if err == nil || !strings.Contains(err.Error(), "RESET") {
		t.Errorf("Initialize() error = %v, want failure naming the first command", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Initialize() error = %v, want it to wrap the port error", err)
	}
}

func TestSerialMux_SendCommand(t *testing.T) {
	port := NewLoopbackPort()
	mux := NewSerialMux(port)

	if err := mux.SendCommand("STREAM OFF\n"); err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	if got := port.Written(); got != "STREAM OFF\n" {
		t.Errorf("written = %q, newline should not be doubled", got)
	}

	short := NewLoopbackPort()
	short.ShortWrites()
	if err := NewSerialMux(short).SendCommand("X"); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("short write error = %v, want ErrWriteFailed", err)
	}
}

func TestSerialMux_MonitorFansOut(t *testing.T) {
	port := NewLoopbackPort()
	port.Feed("0.10\r\n\n{\"x\":0.20}\n{\"fw\":\"1.2\"}\n")
	port.Hangup()
	mux := NewSerialMux(port)

	_, a := mux.Subscribe()
	_, b := mux.Subscribe()

	if err := mux.Monitor(context.Background()); err != nil {
		t.Fatalf("Monitor() error = %v", err)
	}

	want := []string{"0.10", `{"x":0.20}`, `{"fw":"1.2"}`}
	for name, ch := range map[string]chan string{"a": a, "b": b} {
		var got []string
		for len(ch) > 0 {
			got = append(got, <-ch)
		}
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("subscriber %s got %v, want %v", name, got, want)
		}
	}
	if st := mux.Stats(); st.Lines != 3 || st.Dropped != 0 {
		t.Errorf("Stats() = %+v, want 3 lines and no drops", st)
	}
}

func TestSerialMux_SlowSubscriberDrops(t *testing.T) {
	port := NewLoopbackPort()
	port.Feed(strings.Repeat("0.5\n", subscriberBuffer+4))
	port.Hangup()
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	if err := mux.Monitor(context.Background()); err != nil {
		t.Fatalf("Monitor() error = %v", err)
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("buffered = %d, want %d", len(ch), subscriberBuffer)
	}
	if st := mux.Stats(); st.Dropped != 4 {
		t.Errorf("Stats().Dropped = %d, want 4", st.Dropped)
	}
}

func TestSerialMux_MonitorReadError(t *testing.T) {
	port := NewLoopbackPort()
	port.FailReads(errors.New("device unplugged"))
	mux := NewSerialMux(port)

	err := mux.Monitor(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unplugged") {
		t.Errorf("Monitor() error = %v, want read error", err)
	}
}

func TestSerialMux_MonitorCancel(t *testing.T) {
	mux := NewSerialMux(NewLoopbackPort())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Monitor() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return after cancel")
	}
	mux.Close()
}

func TestSerialMux_MonitorStopsOnClose(t *testing.T) {
	mux := NewSerialMux(NewLoopbackPort())

	done := make(chan error, 1)
	go func() { done <- mux.Monitor(context.Background()) }()

	mux.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Monitor() error = %v, want nil after Close", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return after Close")
	}
}

func TestSerialMux_UnsubscribeAndClose(t *testing.T) {
	port := NewLoopbackPort()
	mux := NewSerialMux(port)

	id, ch := mux.Subscribe()
	mux.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	mux.Unsubscribe(id)

	_, ch2 := mux.Subscribe()
	if err := mux.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := <-ch2; ok {
		t.Error("channel should be closed after Close")
	}
	if !port.Closed() {
		t.Error("port should be closed")
	}
	if err := mux.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	_, ch3 := mux.Subscribe()
	if _, ok := <-ch3; ok {
		t.Error("Subscribe after Close should return a closed channel")
	}
	if mux.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after Close", mux.Subscribers())
	}
}

func TestSubscribeIDsAreUnique(t *testing.T) {
	mux := NewSerialMux(NewLoopbackPort())
	seen := map[string]bool{}
	for range 50 {
		id, _ := mux.Subscribe()
		if seen[id] {
			t.Fatalf("duplicate subscriber id %s", id)
		}
		seen[id] = true
	}
	if mux.Subscribers() != 50 {
		t.Errorf("Subscribers() = %d, want 50", mux.Subscribers())
	}
}

func TestSimulatedSerialMux(t *testing.T) {
	mux := NewSimulatedSerialMux(time.Millisecond, 100*time.Millisecond)
	_, ch := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	select {
	case line := <-ch:
		x, err := ParsePosition(line)
		if err != nil {
			t.Fatalf("ParsePosition(%q) error = %v", line, err)
		}
		if x < 0.05 || x > 0.95 {
			t.Errorf("simulated x = %f, want within sweep range", x)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no line from simulated controller")
	}

	if err := mux.SendCommand("RATE 30"); err != nil {
		t.Errorf("SendCommand() error = %v", err)
	}
	cancel()
	mux.Close()
}
