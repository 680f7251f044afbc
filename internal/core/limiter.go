package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultMaxConcurrentActions caps actions running at once across
	// all sessions when no explicit limit is configured.
	DefaultMaxConcurrentActions = 5

	// DefaultActionMaxWait bounds how long a request waits for a free
	// slot before giving up.
	DefaultActionMaxWait = 30 * time.Second
)

// ErrTooManyActions is returned when the wait for a free action slot
// times out.
var ErrTooManyActions = errors.New("too many actions in progress")

// ActionLimiter bounds how many session actions (upload, merge,
// analyze, export) run concurrently across the whole process. Parsing
// and workbook serialization hold file contents in memory, so an
// unbounded number of simultaneous actions can exhaust it. The limiter
// also lets shutdown wait for in-flight actions to drain.
type ActionLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
}

// ActionLimiterStatus is a snapshot of limiter occupancy.
type ActionLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// NewActionLimiter creates a limiter allowing maxConcurrent actions at
// once. Callers blocked longer than maxWait get ErrTooManyActions.
// Non-positive arguments fall back to the package defaults.
func NewActionLimiter(maxConcurrent int, maxWait time.Duration) *ActionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentActions
	}
	if maxWait <= 0 {
		maxWait = DefaultActionMaxWait
	}
	return &ActionLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire blocks until a slot is free, the wait times out, or ctx is
// cancelled. A nil return means the caller holds a slot and must call
// Release when done.
func (l *ActionLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-timer.C:
		return ErrTooManyActions
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire grabs a slot without blocking. Returns false when all
// slots are taken.
func (l *ActionLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees a slot acquired with Acquire or TryAcquire.
func (l *ActionLimiter) Release() {
	l.mu.Lock()
	if l.active > 0 {
		l.active--
	}
	l.mu.Unlock()

	select {
	case <-l.slots:
	default:
	}
}

// ActiveCount returns the number of actions currently holding a slot.
func (l *ActionLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Available returns the number of free slots.
func (l *ActionLimiter) Available() int {
	return cap(l.slots) - l.ActiveCount()
}

// MaxConcurrent returns the configured concurrency cap.
func (l *ActionLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Status returns a snapshot of limiter occupancy.
func (l *ActionLimiter) Status() ActionLimiterStatus {
	active := l.ActiveCount()
	return ActionLimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - active,
		MaxConcurrent: cap(l.slots),
	}
}

// WaitForDrain blocks until no action holds a slot or ctx is done. Used
// during shutdown so in-flight actions finish before the process exits.
func (l *ActionLimiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}
