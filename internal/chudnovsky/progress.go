package chudnovsky

import (
	"sync"
	"sync/atomic"
)

// ProgressUpdate is a data transfer object (DTO) that encapsulates the
// progress state of a calculation. It is sent over a channel from the
// calculator to the user interface.
type ProgressUpdate struct {
	// CalculatorIndex identifies the calculator instance, allowing the UI to
	// distinguish between concurrent calculations.
	CalculatorIndex int
	// Value is the normalized progress, from 0.0 to 1.0.
	Value float64
}

// ProgressReporter is the callback used by splitters and reconstructors to
// report normalized progress (0.0 to 1.0).
type ProgressReporter func(progress float64)

// Scaled returns a reporter mapping [0, 1] onto [from, to] of r.
// A nil r yields a nil reporter.
func (r ProgressReporter) Scaled(from, to float64) ProgressReporter {
	if r == nil {
		return nil
	}
	return func(progress float64) {
		r(from + (to-from)*progress)
	}
}

// report calls r when it is not nil.
func (r ProgressReporter) report(progress float64) {
	if r != nil {
		r(progress)
	}
}

// progressTracker counts completed leaves across the goroutines of one split
// and forwards the fraction done whenever it has grown by at least
// ProgressReportThreshold. A nil tracker ignores all calls.
type progressTracker struct {
	reporter ProgressReporter
	total    int64
	done     atomic.Int64

	mu   sync.Mutex
	last float64
}

func newProgressTracker(reporter ProgressReporter, total int64) *progressTracker {
	if reporter == nil || total <= 0 {
		return nil
	}
	return &progressTracker{reporter: reporter, total: total}
}

func (p *progressTracker) add(leaves int64) {
	if p == nil {
		return
	}
	done := p.done.Add(leaves)
	progress := float64(done) / float64(p.total)

	p.mu.Lock()
	defer p.mu.Unlock()
	if progress-p.last >= ProgressReportThreshold || done == p.total {
		p.last = progress
		p.reporter(progress)
	}
}
