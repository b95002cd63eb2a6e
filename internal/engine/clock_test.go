package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockStrictlyIncreasing(t *testing.T) {
	c := NewClock()
	var last int64
	for i := 0; i < 1000; i++ {
		next := c.Next()
		assert.Greater(t, next, last)
		last = next
	}
}

func TestClockResumesFromCheckpoint(t *testing.T) {
	c := NewClockAt(42)
	assert.Equal(t, int64(42), c.Current())
	assert.Equal(t, int64(43), c.Next())
}

func TestClockConcurrentUniqueness(t *testing.T) {
	c := NewClock()
	const goroutines = 8
	const perG = 500

	var mu sync.Mutex
	seen := make(map[int64]bool, goroutines*perG)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				v := c.Next()
				mu.Lock()
				assert.False(t, seen[v], "duplicate seq %d", v)
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
