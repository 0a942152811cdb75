// Package calibration tunes the split and multiplication thresholds of the π
// calculators for the current machine.
// This file implements adaptive threshold generation based on hardware characteristics.
package calibration

import (
	"runtime"

	"github.com/agbru/picalc/internal/chudnovsky"
)

const (
	// MinParallelThreshold and MaxParallelThreshold bound the fork threshold,
	// in terms. MaxParallelThreshold exceeds the term count of any
	// calibration run, so it measures the sequential recursion.
	MinParallelThreshold = 16
	MaxParallelThreshold = 1 << 20

	// MaxFFTThreshold and MaxKaratsubaThreshold bound the multiplication
	// thresholds, in bits.
	MaxFFTThreshold       = 100_000_000
	MaxKaratsubaThreshold = 10_000_000

	// DisabledThreshold turns a multiplication tier off in chudnovsky.Options.
	DisabledThreshold = -1
)

// wordSize is 32 or 64.
const wordSize = 32 << (^uint(0) >> 63)

// ─────────────────────────────────────────────────────────────────────────────
// Adaptive Parallel Threshold Generation
// ─────────────────────────────────────────────────────────────────────────────

// GenerateParallelThresholds returns the fork thresholds, in terms, to test
// on this machine. More cores make smaller subtrees worth a goroutine.
func GenerateParallelThresholds() []int {
	numCPU := runtime.NumCPU()

	thresholds := []int{MaxParallelThreshold}

	switch {
	case numCPU == 1:
		return thresholds
	case numCPU <= 4:
		thresholds = append(thresholds, 256, 512, 1024, 2048, 4096)
	case numCPU <= 8:
		thresholds = append(thresholds, 128, 256, 512, 1024, 2048, 4096)
	case numCPU <= 16:
		thresholds = append(thresholds, 64, 128, 256, 512, 1024, 2048)
	default:
		thresholds = append(thresholds, 32, 64, 128, 256, 512, 1024, 2048)
	}

	return thresholds
}

// GenerateQuickParallelThresholds returns a reduced candidate set for
// startup calibration.
func GenerateQuickParallelThresholds() []int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU == 1:
		return []int{MaxParallelThreshold}
	case numCPU <= 4:
		return []int{MaxParallelThreshold, 512, 1024}
	case numCPU <= 8:
		return []int{MaxParallelThreshold, 256, 512, 1024}
	default:
		return []int{MaxParallelThreshold, 128, 256, 512}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Adaptive Multiplication Threshold Generation
// ─────────────────────────────────────────────────────────────────────────────

// GenerateFFTThresholds returns FFT thresholds, in bits, to test.
// DisabledThreshold keeps every merge on the Karatsuba and math/big tiers.
func GenerateFFTThresholds() []int {
	thresholds := []int{DisabledThreshold}

	if wordSize == 64 {
		thresholds = append(thresholds, 250_000, 500_000, 750_000, 1_000_000, 2_000_000)
	} else {
		thresholds = append(thresholds, 125_000, 250_000, 500_000, 1_000_000)
	}

	return thresholds
}

// GenerateQuickFFTThresholds returns a reduced FFT candidate set.
func GenerateQuickFFTThresholds() []int {
	return []int{DisabledThreshold, 500_000, 1_000_000}
}

// GenerateKaratsubaThresholds returns parallel Karatsuba thresholds, in bits.
// The parallel recursion only pays off when spare cores exist.
func GenerateKaratsubaThresholds() []int {
	thresholds := []int{DisabledThreshold}
	if runtime.NumCPU() == 1 {
		return thresholds
	}
	return append(thresholds, 1024*64, 2048*64, 4096*64, 8192*64)
}

// GenerateQuickKaratsubaThresholds returns a reduced Karatsuba candidate set.
func GenerateQuickKaratsubaThresholds() []int {
	if runtime.NumCPU() == 1 {
		return []int{DisabledThreshold}
	}
	return []int{DisabledThreshold, 2048 * 64, 4096 * 64}
}

// ─────────────────────────────────────────────────────────────────────────────
// Threshold Estimation (without benchmarking)
// ─────────────────────────────────────────────────────────────────────────────

// EstimateOptimalParallelThreshold provides a heuristic fork threshold, in
// terms, without running benchmarks.
func EstimateOptimalParallelThreshold() int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU == 1:
		return MaxParallelThreshold
	case numCPU <= 2:
		return 1024
	case numCPU <= 4:
		return 512
	case numCPU <= 8:
		return 256
	case numCPU <= 16:
		return 128
	default:
		return 64
	}
}

// EstimateOptimalFFTThreshold provides a heuristic FFT threshold in bits.
func EstimateOptimalFFTThreshold() int {
	if wordSize == 64 {
		return 500_000
	}
	return 250_000
}

// EstimateOptimalKaratsubaThreshold provides a heuristic parallel Karatsuba
// threshold in bits.
func EstimateOptimalKaratsubaThreshold() int {
	if runtime.NumCPU() == 1 {
		return DisabledThreshold
	}
	return 2048 * 64
}

// ─────────────────────────────────────────────────────────────────────────────
// Threshold Validation
// ─────────────────────────────────────────────────────────────────────────────

// ValidateThresholds clamps thresholds into their supported ranges. A
// non-positive fork threshold becomes chudnovsky.DefaultParallelThreshold.
// Multiplication thresholds of 0 keep the default and negative values
// become DisabledThreshold.
func ValidateThresholds(parallel, fft, karatsuba int) (int, int, int) {
	if parallel <= 0 {
		parallel = chudnovsky.DefaultParallelThreshold
	}
	parallel = min(max(parallel, MinParallelThreshold), MaxParallelThreshold)

	clampTier := func(v, limit int) int {
		if v < 0 {
			return DisabledThreshold
		}
		return min(v, limit)
	}
	return parallel, clampTier(fft, MaxFFTThreshold), clampTier(karatsuba, MaxKaratsubaThreshold)
}

// ─────────────────────────────────────────────────────────────────────────────
// Combined Threshold Generation
// ─────────────────────────────────────────────────────────────────────────────

// ThresholdSet holds the candidates of each threshold search.
type ThresholdSet struct {
	Parallel  []int
	FFT       []int
	Karatsuba []int
}

// GenerateFullThresholdSet generates all thresholds for --calibrate.
func GenerateFullThresholdSet() ThresholdSet {
	return ThresholdSet{
		Parallel:  GenerateParallelThresholds(),
		FFT:       GenerateFFTThresholds(),
		Karatsuba: GenerateKaratsubaThresholds(),
	}
}

// GenerateQuickThresholdSet generates thresholds for quick auto-calibration.
func GenerateQuickThresholdSet() ThresholdSet {
	return ThresholdSet{
		Parallel:  GenerateQuickParallelThresholds(),
		FFT:       GenerateQuickFFTThresholds(),
		Karatsuba: GenerateQuickKaratsubaThresholds(),
	}
}

// EstimatedThresholds returns heuristic estimates without benchmarking.
func EstimatedThresholds() (parallel, fft, karatsuba int) {
	return EstimateOptimalParallelThreshold(),
		EstimateOptimalFFTThreshold(),
		EstimateOptimalKaratsubaThreshold()
}
