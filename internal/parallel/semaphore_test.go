package parallel

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

func TestNewSemaphoreDefaultsToNumCPU(t *testing.T) {
	t.Parallel()
	for _, n := range []int{0, -3} {
		if got := NewSemaphore(n).Cap(); got != runtime.NumCPU() {
			t.Errorf("NewSemaphore(%d).Cap() = %d, want %d", n, got, runtime.NumCPU())
		}
	}
	if got := NewSemaphore(3).Cap(); got != 3 {
		t.Errorf("Cap() = %d, want 3", got)
	}
}

func TestSemaphoreTryAcquire(t *testing.T) {
	t.Parallel()
	s := NewSemaphore(2)

	if !s.TryAcquire() || !s.TryAcquire() {
		t.Fatal("two slots should be free")
	}
	if s.TryAcquire() {
		t.Error("third TryAcquire should fail")
	}
	if s.InUse() != 2 {
		t.Errorf("InUse() = %d, want 2", s.InUse())
	}

	s.Release()
	if s.InUse() != 1 {
		t.Errorf("InUse() after Release = %d, want 1", s.InUse())
	}
	if !s.TryAcquire() {
		t.Error("a released slot should be reusable")
	}
}

func TestSemaphoreAcquireHonorsContext(t *testing.T) {
	t.Parallel()
	s := NewSemaphore(1)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire on a free slot: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire on a full semaphore = %v, want DeadlineExceeded", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Acquire(context.Background()) }()
	s.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Acquire after Release: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not wake up after Release")
	}
}
