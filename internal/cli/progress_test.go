package cli

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/picalc/internal/chudnovsky"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestProgressStateAverage(t *testing.T) {
	t.Parallel()
	ps := NewProgressState(2)
	ps.Update(0, 0.25)
	ps.Update(1, 0.5)
	ps.Update(5, 1.0)
	ps.Update(-1, 1.0)
	if got := ps.Average(); got != 0.375 {
		t.Errorf("Average() = %g, want 0.375", got)
	}
	if NewProgressState(0).Average() != 0 {
		t.Error("empty state average is not 0")
	}
}

func TestProgressStateETA(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(0, 0)}
	ps := newProgressStateAt(1, clock.now)

	if ps.ETA() != 0 {
		t.Fatal("ETA known before any progress")
	}
	clock.advance(time.Second)
	ps.Update(0, 0.25)
	// First rate is progress/elapsed = 0.25/s, so 0.75 remains for 3s.
	if got := ps.ETA(); got != 3*time.Second {
		t.Errorf("ETA() = %v, want 3s", got)
	}

	clock.advance(time.Second)
	ps.Update(0, 0.5)
	// Smoothed: 0.7·0.25 + 0.3·0.25 = 0.25/s, 0.5 remains.
	if got := ps.ETA(); got < 2*time.Second-time.Millisecond || got > 2*time.Second+time.Millisecond {
		t.Errorf("ETA() = %v, want about 2s", got)
	}

	ps.Update(0, 1.0)
	if ps.ETA() != 0 {
		t.Error("ETA non-zero at completion")
	}
}

func TestProgressStateIgnoresEarlyUpdates(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(0, 0)}
	ps := newProgressStateAt(1, clock.now)
	clock.advance(10 * time.Millisecond)
	ps.Update(0, 0.5)
	if ps.ETA() != 0 {
		t.Error("ETA estimated from the first 10ms")
	}
}

func TestFormatETA(t *testing.T) {
	t.Parallel()
	tests := []struct {
		eta  time.Duration
		want string
	}{
		{0, "calculating..."},
		{-time.Second, "calculating..."},
		{500 * time.Millisecond, "< 1s"},
		{42 * time.Second, "42s"},
		{2 * time.Minute, "2m"},
		{150 * time.Second, "2m30s"},
		{time.Hour, "1h"},
		{75 * time.Minute, "1h15m"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.eta); got != tt.want {
			t.Errorf("FormatETA(%v) = %q, want %q", tt.eta, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		want     string
	}{
		{0.0, "░░░░░░░░░░"},
		{0.5, "█████░░░░░"},
		{1.0, "██████████"},
		{1.2, "██████████"},
		{-0.1, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.progress, 10); got != tt.want {
			t.Errorf("progressBar(%g) = %s, want %s", tt.progress, got, tt.want)
		}
	}
}

type mockSpinner struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	suffixes []string
}

func (m *mockSpinner) Start() { m.mu.Lock(); m.started = true; m.mu.Unlock() }
func (m *mockSpinner) Stop()  { m.mu.Lock(); m.stopped = true; m.mu.Unlock() }
func (m *mockSpinner) UpdateSuffix(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suffixes = append(m.suffixes, s)
}

// Tests replacing newSpinner are not parallel.

func TestDisplayProgress(t *testing.T) {
	mock := &mockSpinner{}
	orig := newSpinner
	newSpinner = func(...spinner.Option) Spinner { return mock }
	defer func() { newSpinner = orig }()

	var buf bytes.Buffer
	var wg sync.WaitGroup
	ch := make(chan chudnovsky.ProgressUpdate, 4)
	wg.Add(1)
	go DisplayProgress(&wg, ch, 2, &buf)

	ch <- chudnovsky.ProgressUpdate{CalculatorIndex: 0, Value: 0.5}
	ch <- chudnovsky.ProgressUpdate{CalculatorIndex: 1, Value: 1.0}
	time.Sleep(ProgressRefreshRate + 100*time.Millisecond)
	close(ch)
	wg.Wait()

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if !mock.started || !mock.stopped {
		t.Errorf("spinner started=%v stopped=%v", mock.started, mock.stopped)
	}
	if len(mock.suffixes) == 0 || !strings.Contains(mock.suffixes[len(mock.suffixes)-1], "Avg progress:  75.00%") {
		t.Errorf("suffixes = %q", mock.suffixes)
	}
	if !strings.Contains(buf.String(), "Avg progress: 100.00%") {
		t.Errorf("final line missing: %q", buf.String())
	}
}

func TestDisplayProgressNoCalculatorsDrains(t *testing.T) {
	t.Parallel()
	var wg sync.WaitGroup
	ch := make(chan chudnovsky.ProgressUpdate, 2)
	ch <- chudnovsky.ProgressUpdate{Value: 0.5}
	close(ch)
	var buf bytes.Buffer
	wg.Add(1)
	DisplayProgress(&wg, ch, 0, &buf)
	wg.Wait()
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing", buf.String())
	}
}
