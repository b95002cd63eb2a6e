// Package testutil provides deterministic fixtures shared by test
// packages: a reproducible wall-clock source and a standard cast of
// actors.
package testutil

import (
	"sync"
	"time"
)

// Timeline is a deterministic wall-clock source for tests.
//
// Each call to Next returns a timestamp one fixed step after the
// previous one, so traces built against a Timeline are byte-identical
// across runs.
//
// Thread-safety: all methods are safe for concurrent use.
type Timeline struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewTimeline creates a Timeline starting at start and advancing by
// step on every call to Next.
func NewTimeline(start time.Time, step time.Duration) *Timeline {
	return &Timeline{next: start.UTC(), step: step}
}

// Next returns the current timestamp and advances the timeline.
func (tl *Timeline) Next() time.Time {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	t := tl.next
	tl.next = tl.next.Add(tl.step)
	return t
}

// Reset rewinds the timeline to start. After Reset, the next call to
// Next returns start again.
func (tl *Timeline) Reset(start time.Time) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.next = start.UTC()
}
