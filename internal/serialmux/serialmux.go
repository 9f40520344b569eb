// Package serialmux multiplexes a single serial paddle controller: many
// subscribers receive every line the device emits, and commands from any
// caller are serialised onto the port.
package serialmux

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrWriteFailed is returned when the port accepts fewer bytes than a
// command holds.
var ErrWriteFailed = errors.New("failed to write to serial port")

// DefaultInitCommands put a paddle controller into streaming mode: factory
// reset, normalized output, 60Hz report rate, then start streaming.
var DefaultInitCommands = []string{"RESET", "MODE NORM", "RATE 60", "STREAM ON"}

// subscriberBuffer is how many lines a subscriber may fall behind before
// lines are dropped for it.
const subscriberBuffer = 16

// SerialPorter is the minimal interface needed for a serial port.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// SerialMuxInterface is what input sources and the debug server need from a
// controller connection, real or simulated.
type SerialMuxInterface interface {
	// Subscribe returns an id and a channel receiving every line read from
	// the controller. The channel is closed by Unsubscribe or Close.
	Subscribe() (string, chan string)
	Unsubscribe(string)
	// SendCommand writes one newline-terminated command.
	SendCommand(string) error
	// Monitor reads lines until the context ends, the port reaches EOF,
	// or Close is called.
	Monitor(context.Context) error
	Close() error
	Initialize() error
	// AttachAdminRoutes registers the console and line tail under /debug/.
	AttachAdminRoutes(*http.ServeMux)
}

// Stats counts controller traffic since the mux was created.
type Stats struct {
	Lines   uint64 `json:"lines"`
	Dropped uint64 `json:"dropped"`
}

// SerialMux fans controller lines out to subscribers.
type SerialMux[T SerialPorter] struct {
	port         T
	initCommands []string

	mu          sync.Mutex
	subscribers map[string]chan string

	writeMu sync.Mutex
	closed  atomic.Bool
	lines   atomic.Uint64
	dropped atomic.Uint64
}

// NewSerialMux creates a SerialMux on port. With no initCommands,
// Initialize sends DefaultInitCommands.
func NewSerialMux[T SerialPorter](port T, initCommands ...string) *SerialMux[T] {
	if len(initCommands) == 0 {
		initCommands = DefaultInitCommands
	}
	return &SerialMux[T]{
		port:         port,
		initCommands: initCommands,
		subscribers:  make(map[string]chan string),
	}
}

// Subscribe registers a buffered line channel. After Close it returns an
// already closed channel.
func (s *SerialMux[T]) Subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string, subscriberBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		close(ch)
		return id, ch
	}
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe closes and forgets a subscription. Unknown ids are ignored.
func (s *SerialMux[T]) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

// Subscribers returns the number of active subscriptions.
func (s *SerialMux[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Stats returns the line counters.
func (s *SerialMux[T]) Stats() Stats {
	return Stats{Lines: s.lines.Load(), Dropped: s.dropped.Load()}
}

// Initialize sends the start-up commands in order and stops at the first
// failure.
func (s *SerialMux[T]) Initialize() error {
	for _, command := range s.initCommands {
		if err := s.SendCommand(command); err != nil {
			return fmt.Errorf("failed to send start command %q: %w", command, err)
		}
	}
	return nil
}

// SendCommand writes command followed by a newline unless it already ends
// in one.
func (s *SerialMux[T]) SendCommand(command string) error {
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	n, err := io.WriteString(s.port, command)
	if err != nil {
		return fmt.Errorf("write %q: %w", strings.TrimSpace(command), err)
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor scans lines on a separate goroutine so cancellation is observed
// while a read is blocked. Carriage returns are stripped and blank lines
// skipped.
func (s *SerialMux[T]) Monitor(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(s.port)
		defer func() {
			scanErr <- scanner.Err()
			close(lines)
		}()
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if line == "" {
				continue
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				if s.closed.Load() {
					return nil
				}
				return <-scanErr
			}
			if s.closed.Load() {
				return nil
			}
			s.broadcast(line)
		}
	}
}

func (s *SerialMux[T]) broadcast(line string) {
	s.lines.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- line:
		default:
			s.dropped.Add(1)
		}
	}
}

// Close closes every subscriber channel and then the port. Calls after the
// first return nil.
func (s *SerialMux[T]) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	s.mu.Unlock()

	return s.port.Close()
}
