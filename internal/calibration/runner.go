package calibration

import (
	"context"
	"time"

	"github.com/agbru/picalc/internal/chudnovsky"
)

// noDuration marks a search that produced no successful trial.
const noDuration = time.Duration(1<<63 - 1)

// calibrationRunner times calculator runs at chudnovsky.CalibrationDigits,
// each bounded by perTrial, over the quick candidate set.
type calibrationRunner struct {
	ctx        context.Context
	perTrial   time.Duration
	digits     int64
	candidates ThresholdSet
}

func newCalibrationRunner(ctx context.Context, timeout time.Duration) *calibrationRunner {
	return &calibrationRunner{
		ctx:        ctx,
		perTrial:   max(timeout/6, 2*time.Second),
		digits:     chudnovsky.CalibrationDigits,
		candidates: GenerateQuickThresholdSet(),
	}
}

func (r *calibrationRunner) runTrial(calc chudnovsky.Calculator, opts chudnovsky.Options) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.perTrial)
	defer cancel()
	start := time.Now()
	_, err := calc.Calculate(ctx, nil, 0, r.digits, opts)
	return time.Since(start), err
}

// findBest runs one trial per candidate, with apply writing the candidate
// into the options, and returns the fastest. fallback is returned with
// noDuration when every trial fails.
func (r *calibrationRunner) findBest(calc chudnovsky.Calculator, candidates []int, fallback int, apply func(*chudnovsky.Options, int)) (int, time.Duration) {
	best, bestDur := fallback, noDuration
	for _, cand := range candidates {
		if r.ctx.Err() != nil {
			break
		}
		var opts chudnovsky.Options
		apply(&opts, cand)
		dur, err := r.runTrial(calc, opts)
		if err != nil {
			continue
		}
		if dur < bestDur {
			best, bestDur = cand, dur
		}
	}
	return best, bestDur
}

func (r *calibrationRunner) findBestParallelThreshold(calc chudnovsky.Calculator, fallback int) (int, time.Duration) {
	return r.findBest(calc, r.candidates.Parallel, fallback, func(o *chudnovsky.Options, v int) {
		o.ParallelThreshold = v
	})
}

func (r *calibrationRunner) findBestFFTThreshold(calc chudnovsky.Calculator, parallelThreshold, fallback int) (int, time.Duration) {
	return r.findBest(calc, r.candidates.FFT, fallback, func(o *chudnovsky.Options, v int) {
		o.ParallelThreshold = parallelThreshold
		o.FFTThreshold = v
	})
}

func (r *calibrationRunner) findBestKaratsubaThreshold(calc chudnovsky.Calculator, parallelThreshold, fftThreshold, fallback int) (int, time.Duration) {
	return r.findBest(calc, r.candidates.Karatsuba, fallback, func(o *chudnovsky.Options, v int) {
		o.ParallelThreshold = parallelThreshold
		o.FFTThreshold = fftThreshold
		o.KaratsubaThreshold = v
	})
}
