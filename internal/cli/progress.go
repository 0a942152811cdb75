// Package cli renders picalc's terminal output: the progress spinner while
// calculators run, the result summary, the digit file and the JSON report.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/picalc/internal/chudnovsky"
)

const (
	// ProgressRefreshRate is the spinner and bar refresh period.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width of the bar in cells.
	ProgressBarWidth = 40
	// maxETA caps estimates made from a very slow start.
	maxETA = 24 * time.Hour
)

// Spinner is the part of a terminal spinner DisplayProgress drives.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

// newSpinner is replaced in tests.
var newSpinner = func(options ...spinner.Option) Spinner {
	return &realSpinner{spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)}
}

// ProgressState averages the progress of several concurrent calculators and
// estimates the time remaining from a smoothed rate.
type ProgressState struct {
	progresses []float64
	now        func() time.Time

	start        time.Time
	lastUpdate   time.Time
	lastProgress float64
	rate         float64 // progress per second
}

// NewProgressState tracks n calculators.
func NewProgressState(n int) *ProgressState {
	return newProgressStateAt(n, time.Now)
}

func newProgressStateAt(n int, now func() time.Time) *ProgressState {
	t := now()
	return &ProgressState{progresses: make([]float64, n), now: now, start: t, lastUpdate: t}
}

// Update records value for calculator index and refreshes the rate.
// Out-of-range indices are ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index < 0 || index >= len(ps.progresses) {
		return
	}
	ps.progresses[index] = value

	progress := ps.Average()
	now := ps.now()
	elapsed := now.Sub(ps.start)
	if elapsed < 100*time.Millisecond || progress <= 0.001 {
		ps.lastUpdate, ps.lastProgress = now, progress
		return
	}
	since := now.Sub(ps.lastUpdate).Seconds()
	if since < 0.05 {
		return
	}
	if delta := progress - ps.lastProgress; delta > 0 {
		instant := delta / since
		if ps.rate > 0 {
			ps.rate = 0.7*ps.rate + 0.3*instant
		} else {
			ps.rate = progress / elapsed.Seconds()
		}
	}
	ps.lastUpdate, ps.lastProgress = now, progress
}

// Average is the mean progress over all calculators.
func (ps *ProgressState) Average() float64 {
	if len(ps.progresses) == 0 {
		return 0
	}
	var sum float64
	for _, p := range ps.progresses {
		sum += p
	}
	return sum / float64(len(ps.progresses))
}

// ETA is the estimated time remaining, or 0 when unknown or done.
func (ps *ProgressState) ETA() time.Duration {
	progress := ps.Average()
	if ps.rate <= 0 || progress >= 1 {
		return 0
	}
	eta := time.Duration((1 - progress) / ps.rate * float64(time.Second))
	return min(eta, maxETA)
}

// FormatETA renders an estimate as "< 1s", "42s", "2m30s" or "1h15m".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m, s := int(eta.Minutes()), int(eta.Seconds())%60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		h, m := int(eta.Hours()), int(eta.Minutes())%60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	}
}

func progressBar(progress float64, width int) string {
	progress = max(0, min(progress, 1))
	filled := int(progress * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func progressLine(label string, progress float64, eta string) string {
	return fmt.Sprintf("%s: %6.2f%% [%s] ETA: %s", label, progress*100, progressBar(progress, ProgressBarWidth), eta)
}

// DisplayProgress draws a spinner with the averaged progress of n
// calculators until progressChan is closed, then prints a final 100% line.
// It calls wg.Done on return.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan chudnovsky.ProgressUpdate, n int, out io.Writer) {
	defer wg.Done()
	if n <= 0 {
		for range progressChan {
		}
		return
	}

	label := "Progress"
	if n > 1 {
		label = "Avg progress"
	}
	state := NewProgressState(n)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				fmt.Fprintln(out, progressLine(label, 1, "< 1s"))
				return
			}
			state.Update(update.CalculatorIndex, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(" " + progressLine(label, state.Average(), FormatETA(state.ETA())))
		}
	}
}
