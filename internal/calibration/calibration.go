package calibration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/config"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/ui"
)

// CalibrationAlgorithm is the calculator whose fork threshold is tuned.
const CalibrationAlgorithm = "parallel"

const (
	// fullTrialTimeout bounds each multiplication trial of --calibrate.
	fullTrialTimeout = 30 * time.Second
	// measuredConfidence is the confidence of a range measured by --calibrate.
	measuredConfidence = 0.9
)

// CalibrationOptions configures the calibration process.
type CalibrationOptions struct {
	// ProfilePath is where the profile is saved and loaded; empty means
	// GetDefaultProfilePath().
	ProfilePath string
	SaveProfile bool
	// LoadProfile returns a valid stored profile instead of benchmarking.
	LoadProfile bool
}

type calibrationResult struct {
	Threshold int
	Duration  time.Duration
	Err       error
}

// RunCalibration benchmarks every fork threshold from
// GenerateParallelThresholds on a chudnovsky.CalibrationDigits run of the
// "parallel" calculator, then the FFT and Karatsuba thresholds at the fastest
// fork threshold. It prints a summary and saves the results to the default
// profile. It returns a process exit code.
func RunCalibration(ctx context.Context, out io.Writer, calculatorRegistry map[string]chudnovsky.Calculator) int {
	return RunCalibrationWithOptions(ctx, out, calculatorRegistry, CalibrationOptions{
		SaveProfile: true,
	})
}

// RunCalibrationWithOptions executes calibration with the specified options.
func RunCalibrationWithOptions(ctx context.Context, out io.Writer, calculatorRegistry map[string]chudnovsky.Calculator, opts CalibrationOptions) int {
	t := ui.Current()
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Optimal Fork Threshold ---\n")

	if opts.LoadProfile {
		if profile, loaded := LoadOrCreateProfile(opts.ProfilePath); loaded {
			fmt.Fprintf(out, "%sLoaded existing calibration profile from %s%s\n",
				t.Success, resolveProfilePath(opts.ProfilePath), t.Reset)
			fmt.Fprintf(out, "Profile: %s\n", profile)
			fmt.Fprintf(out, "\n%sUsing cached calibration: %s--threshold %d%s\n",
				t.Success, t.Warning, profile.OptimalParallelThreshold, t.Reset)
			return apperrors.ExitSuccess
		}
	}

	calculator := calculatorRegistry[CalibrationAlgorithm]
	if calculator == nil {
		fmt.Fprintf(out, "%sCritical error: the '%s' algorithm is required for calibration but was not found.%s\n",
			t.Error, CalibrationAlgorithm, t.Reset)
		return apperrors.ExitErrorGeneric
	}

	candidates := GenerateFullThresholdSet()
	thresholdsToTest := candidates.Parallel
	fmt.Fprintf(out, "%sUsing adaptive thresholds for %d CPU cores (%d digits per run)%s\n",
		t.Primary, runtime.NumCPU(), chudnovsky.CalibrationDigits, t.Reset)

	results := make([]calibrationResult, 0, len(thresholdsToTest))
	bestDuration := noDuration
	bestThreshold := 0
	calibrationStart := time.Now()

	var wg sync.WaitGroup
	progressChan := make(chan chudnovsky.ProgressUpdate, 5)
	wg.Add(1)
	go cli.DisplayProgress(&wg, progressChan, 1, out)
	stopProgress := func() {
		close(progressChan)
		wg.Wait()
	}

	for _, threshold := range thresholdsToTest {
		if ctx.Err() != nil {
			stopProgress()
			fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", t.Warning, t.Reset)
			return apperrors.ExitErrorCanceled
		}

		startTime := time.Now()
		_, err := calculator.Calculate(ctx, progressChan, 0, chudnovsky.CalibrationDigits,
			chudnovsky.Options{ParallelThreshold: threshold})
		duration := time.Since(startTime)

		if err != nil {
			results = append(results, calibrationResult{threshold, 0, err})
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				stopProgress()
				return apperrors.HandleCalculationError(err, duration, out, ui.Colors{})
			}
			continue
		}

		results = append(results, calibrationResult{threshold, duration, nil})
		if duration < bestDuration {
			bestDuration, bestThreshold = duration, threshold
		}
	}
	stopProgress()

	if bestDuration == noDuration {
		fmt.Fprintf(out, "\n%sCalibration failed: no valid results obtained.%s\n", t.Error, t.Reset)
		return apperrors.ExitErrorGeneric
	}

	printCalibrationResults(out, results, bestThreshold)

	runner := newCalibrationRunner(ctx, 0)
	runner.perTrial = fullTrialTimeout
	runner.candidates = candidates
	bestFFT, fftDur := runner.findBestFFTThreshold(calculator, bestThreshold, EstimateOptimalFFTThreshold())
	bestKar, karDur := runner.findBestKaratsubaThreshold(calculator, bestThreshold, bestFFT, EstimateOptimalKaratsubaThreshold())
	if ctx.Err() != nil {
		fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", t.Warning, t.Reset)
		return apperrors.ExitErrorCanceled
	}
	fmt.Fprintf(out, "Multiplication: FFT=%s, Karatsuba=%s\n", formatBits(bestFFT), formatBits(bestKar))

	fmt.Fprintf(out, "\n%sRecommendation for this machine: %s--threshold %d --fft-threshold %d --karatsuba-threshold %d%s\n",
		t.Success, t.Warning, bestThreshold, bestFFT, bestKar, t.Reset)

	if opts.SaveProfile {
		par, fft, kar := ValidateThresholds(bestThreshold, bestFFT, bestKar)
		profile := NewProfile()
		profile.OptimalParallelThreshold = par
		profile.OptimalFFTThreshold = fft
		profile.OptimalKaratsubaThreshold = kar
		profile.CalibrationDigits = chudnovsky.CalibrationDigits
		profile.CalibrationTime = time.Since(calibrationStart).String()
		profile.InitializeDefaultRanges()

		measurements := 0
		for _, r := range results {
			if r.Err == nil {
				measurements++
			}
		}
		for _, d := range []time.Duration{fftDur, karDur} {
			if d != noDuration {
				measurements++
			}
		}
		minDigits, maxDigits := digitRange(chudnovsky.CalibrationDigits)
		profile.AddRangeThresholds(RangeThresholds{
			MinDigits:          minDigits,
			MaxDigits:          maxDigits,
			ParallelThreshold:  par,
			FFTThreshold:       fft,
			KaratsubaThreshold: kar,
			ConfidenceScore:    measuredConfidence,
			MeasurementCount:   measurements,
		})

		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", t.Warning, err, t.Reset)
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n",
				t.Success, resolveProfilePath(opts.ProfilePath), t.Reset)
		}
	}

	return apperrors.ExitSuccess
}

// AutoCalibrate tunes cfg's thresholds at startup, using cfg.CalibrationProfile.
func AutoCalibrate(parentCtx context.Context, cfg config.AppConfig, out io.Writer, calculatorRegistry map[string]chudnovsky.Calculator) (updated config.AppConfig, ok bool) {
	return AutoCalibrateWithProfile(parentCtx, cfg, out, calculatorRegistry, cfg.CalibrationProfile)
}

// AutoCalibrateWithProfile resolves thresholds in three steps: a valid
// stored profile, then the multiplication micro-benchmarks plus the heuristic
// fork threshold when their confidence is at least 0.5, then timed trial runs
// of the "parallel" calculator. Results of the last two are saved to
// profilePath.
func AutoCalibrateWithProfile(parentCtx context.Context, cfg config.AppConfig, out io.Writer, calculatorRegistry map[string]chudnovsky.Calculator, profilePath string) (updated config.AppConfig, ok bool) {
	t := ui.Current()
	calc := calculatorRegistry[CalibrationAlgorithm]
	if calc == nil {
		return cfg, false
	}

	if updated, ok := LoadCachedCalibration(cfg, profilePath); ok {
		fmt.Fprintf(out, "%sUsing cached calibration%s: %s\n", t.Success, t.Reset, thresholdSummary(updated))
		return updated, true
	}

	microResults, err := QuickCalibrate(parentCtx)
	if err == nil && microResults.Confidence >= 0.5 {
		updated := cfg
		updated.Threshold = EstimateOptimalParallelThreshold()
		updated.FFTThreshold = microResults.FFTThreshold
		updated.KaratsubaThreshold = microResults.KaratsubaThreshold

		fmt.Fprintf(out, "%sQuick calibration%s (%v): %s (confidence: %.0f%%)\n",
			t.Success, t.Reset, microResults.Duration.Round(time.Millisecond),
			thresholdSummary(updated), microResults.Confidence*100)

		saveCalibrationProfile(updated, profilePath, out)
		return updated, true
	}

	runner := newCalibrationRunner(parentCtx, cfg.Timeout)
	bestPar, bestParDur := runner.findBestParallelThreshold(calc, cfg.Threshold)
	bestFFT, bestFFTDur := runner.findBestFFTThreshold(calc, bestPar, cfg.FFTThreshold)
	bestKar, bestKarDur := runner.findBestKaratsubaThreshold(calc, bestPar, bestFFT, cfg.KaratsubaThreshold)

	updated, ok = applyCalibrationResults(cfg,
		trialOutcome{bestPar, bestParDur},
		trialOutcome{bestFFT, bestFFTDur},
		trialOutcome{bestKar, bestKarDur})
	if !ok {
		return cfg, false
	}

	saveCalibrationProfile(updated, profilePath, out)
	printCalibrationOutput(updated, out)
	return updated, true
}

// LoadCachedCalibration applies a valid stored profile younger than
// ProfileMaxAge to cfg.
func LoadCachedCalibration(cfg config.AppConfig, profilePath string) (updated config.AppConfig, ok bool) {
	profile, loaded := LoadOrCreateProfile(profilePath)
	if !loaded || profile.IsStale(ProfileMaxAge) {
		return cfg, false
	}

	updated = cfg
	updated.Threshold, updated.FFTThreshold, updated.KaratsubaThreshold = profile.GetThresholdsForDigits(cfg.Digits)
	return updated, true
}

// trialOutcome is the best candidate of one threshold search.
type trialOutcome struct {
	value    int
	duration time.Duration
}

func (o trialOutcome) found() bool { return o.duration != noDuration }

// applyCalibrationResults copies every successful search into cfg. ok is
// false when neither the fork nor the FFT search produced a result.
func applyCalibrationResults(cfg config.AppConfig, par, fft, karatsuba trialOutcome) (updated config.AppConfig, ok bool) {
	if !par.found() && !fft.found() {
		return cfg, false
	}

	updated = cfg
	if par.found() {
		updated.Threshold = par.value
	}
	if fft.found() {
		updated.FFTThreshold = fft.value
	}
	if karatsuba.found() {
		updated.KaratsubaThreshold = karatsuba.value
	}
	return updated, true
}

func saveCalibrationProfile(cfg config.AppConfig, profilePath string, out io.Writer) {
	profile := NewProfile()
	profile.OptimalParallelThreshold, profile.OptimalFFTThreshold, profile.OptimalKaratsubaThreshold =
		ValidateThresholds(cfg.Threshold, cfg.FFTThreshold, cfg.KaratsubaThreshold)
	profile.CalibrationDigits = chudnovsky.CalibrationDigits

	if err := profile.SaveProfile(profilePath); err != nil {
		t := ui.Current()
		fmt.Fprintf(out, "%sWarning: could not save calibration profile: %v%s\n", t.Warning, err, t.Reset)
	}
}
