package chudnovsky

import "github.com/agbru/picalc/internal/bigmul"

// Options configures a π calculation.
type Options struct {
	// ParallelThreshold is the minimum interval length, in terms, at which
	// the splitter forks. If 0, DefaultParallelThreshold is used.
	ParallelThreshold int
	// MaxParallelDepth bounds the fork depth. If 0, DefaultMaxParallelDepth is used.
	MaxParallelDepth int
	// ParallelMulThreshold is the operand size in bits above which the
	// products of one merge run concurrently. If 0, DefaultParallelMulThreshold
	// is used; a negative value disables concurrent products.
	ParallelMulThreshold int
	// FFTThreshold is the bit size threshold for FFT multiplication.
	// If 0, bigmul.DefaultFFTThreshold is used.
	FFTThreshold int
	// KaratsubaThreshold is the bit size threshold for the parallel Karatsuba.
	// If 0, bigmul.DefaultKaratsubaThreshold is used.
	KaratsubaThreshold int
	// GuardDigits is the number of extra digits computed and truncated.
	// If 0, DefaultGuardDigits is used; a negative value disables guard digits.
	GuardDigits int
	// MarginTerms is the number of terms added to the closed-form estimate.
	// If 0, DefaultMarginTerms is used; a negative value disables the margin
	// unless guard digits are disabled too.
	MarginTerms int
}

// orDefault maps 0 to def and negative values to 0.
func orDefault(v, def int) int {
	switch {
	case v == 0:
		return def
	case v < 0:
		return 0
	default:
		return v
	}
}

// normalizeOptions returns a copy of opts with threshold defaults filled in,
// so every calculator resolves thresholds the same way. GuardDigits and
// MarginTerms are resolved by the Reconstructor.
func normalizeOptions(opts Options) Options {
	normalized := opts
	if normalized.ParallelThreshold <= 0 {
		normalized.ParallelThreshold = DefaultParallelThreshold
	}
	if normalized.MaxParallelDepth <= 0 {
		normalized.MaxParallelDepth = DefaultMaxParallelDepth
	}
	normalized.ParallelMulThreshold = orDefault(opts.ParallelMulThreshold, DefaultParallelMulThreshold)
	if normalized.FFTThreshold == 0 {
		normalized.FFTThreshold = bigmul.DefaultFFTThreshold
	}
	if normalized.KaratsubaThreshold == 0 {
		normalized.KaratsubaThreshold = bigmul.DefaultKaratsubaThreshold
	}
	return normalized
}

// resolveGuards maps 0 to the defaults and negative values to 0. At least
// one guard stays on: with no guard digits the margin is never below
// DefaultMarginTerms.
func resolveGuards(guardDigits, marginTerms int) (guard, margin int) {
	guard = orDefault(guardDigits, DefaultGuardDigits)
	margin = orDefault(marginTerms, DefaultMarginTerms)
	if guard == 0 {
		margin = max(margin, DefaultMarginTerms)
	}
	return guard, margin
}

// AdaptiveMultiplier returns the multiplier the parallel calculators build
// from opts, with the same defaults.
func AdaptiveMultiplier(opts Options) *bigmul.Adaptive {
	return normalizeOptions(opts).multiplier()
}

// multiplier builds the adaptive multiplier described by normalized options.
func (o Options) multiplier() *bigmul.Adaptive {
	return &bigmul.Adaptive{
		FFTThreshold:       max(o.FFTThreshold, 0),
		KaratsubaThreshold: max(o.KaratsubaThreshold, 0),
	}
}
