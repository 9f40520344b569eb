package latest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_EmptyLoad(t *testing.T) {
	t.Parallel()
	var v Value[float64]
	got, ok := v.Load()
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestValue_LastWriterWins(t *testing.T) {
	t.Parallel()
	v := NewValue(0.5)
	v.Store(0.1)
	v.Store(0.9)

	got, ok := v.Load()
	assert.True(t, ok)
	assert.Equal(t, 0.9, got)
}

func TestValue_ConcurrentProducerConsumer(t *testing.T) {
	t.Parallel()
	type pos struct {
		X        float64
		Detected bool
	}
	v := NewValue(pos{X: 0.5})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i <= 1000; i++ {
			v.Store(pos{X: float64(i) / 1000, Detected: true})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			p, ok := v.Load()
			assert.True(t, ok)
			assert.GreaterOrEqual(t, p.X, 0.0)
			assert.LessOrEqual(t, p.X, 1.0)
		}
	}()
	wg.Wait()

	final, _ := v.Load()
	assert.Equal(t, pos{X: 1, Detected: true}, final)
}
