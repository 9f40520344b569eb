package serialmux

import (
	"bytes"
	"io"
	"sync"
)

// LoopbackPort is an in-memory SerialPorter for tests. Reads block until
// data is fed, the port is hung up, or it is closed; writes are captured.
type LoopbackPort struct {
	mu   sync.Mutex
	cond *sync.Cond

	in  bytes.Buffer
	out bytes.Buffer

	hungUp   bool
	closed   bool
	readErr  error
	writeErr error
	short    bool
}

// NewLoopbackPort returns an open port with nothing to read.
func NewLoopbackPort() *LoopbackPort {
	p := &LoopbackPort{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Feed queues data for Read.
func (p *LoopbackPort) Feed(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.in.WriteString(data)
	p.cond.Broadcast()
}

// Hangup makes Read return io.EOF once the queued data is drained, the way
// a controller that was unplugged cleanly behaves.
func (p *LoopbackPort) Hangup() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hungUp = true
	p.cond.Broadcast()
}

// FailReads makes every following Read return err.
func (p *LoopbackPort) FailReads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
	p.cond.Broadcast()
}

// FailWrites makes every following Write return err.
func (p *LoopbackPort) FailWrites(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// ShortWrites makes Write accept one byte less than it is given.
func (p *LoopbackPort) ShortWrites() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.short = true
}

func (p *LoopbackPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		switch {
		case p.closed:
			return 0, io.ErrClosedPipe
		case p.readErr != nil:
			return 0, p.readErr
		case p.in.Len() > 0:
			return p.in.Read(b)
		case p.hungUp:
			return 0, io.EOF
		}
		p.cond.Wait()
	}
}

func (p *LoopbackPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.short && len(b) > 0 {
		b = b[:len(b)-1]
	}
	return p.out.Write(b)
}

// Close unblocks pending reads.
func (p *LoopbackPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.cond.Broadcast()
	return nil
}

// Written returns everything written so far.
func (p *LoopbackPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.String()
}

// Closed reports whether Close has been called.
func (p *LoopbackPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
