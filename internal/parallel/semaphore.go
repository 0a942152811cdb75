package parallel

import (
	"context"
	"runtime"
)

// Semaphore bounds the number of extra goroutines a recursive algorithm may
// spawn. Callers that fail TryAcquire do the work inline instead of waiting.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore returns a semaphore with n slots; n <= 0 means
// runtime.NumCPU().
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return &Semaphore{slots: make(chan struct{}, n)}
}

// TryAcquire takes a slot if one is free.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by TryAcquire or Acquire.
func (s *Semaphore) Release() {
	<-s.slots
}

// Cap is the number of slots.
func (s *Semaphore) Cap() int { return cap(s.slots) }

// InUse is the number of slots currently held.
func (s *Semaphore) InUse() int { return len(s.slots) }
