package chudnovsky

import (
	"math"
	"math/big"
)

// ─────────────────────────────────────────────────────────────────────────────
// Series Constants
// ─────────────────────────────────────────────────────────────────────────────
//
//	1/π = 12 Σ (-1)^k (6k)! (A + B·k) / ((3k)! (k!)³ C^(3k+3/2))
//
// which the reconstruction rewrites as π = D·√E / Σ with C³/24 folded into Q.

const (
	// SeriesA is the constant term of the linear factor A + B·k.
	SeriesA = 13591409
	// SeriesB is the slope of the linear factor A + B·k.
	SeriesB = 545140134
	// SeriesC is the base of the geometric denominator.
	SeriesC = 640320
	// SeriesD is C^(3/2) / (12·√E), the integer multiplier of √E.
	SeriesD = 426880
	// SeriesE is the radicand: C = 64·E.
	SeriesE = 10005

	// DigitsPerTerm is log10(C³/24 / 72), the number of correct decimal
	// digits each additional term contributes.
	DigitsPerTerm = 14.1816474627254776555
)

// Constants groups the read-only values shared by the splitter and the
// reconstructor. A Constants value is immutable once built and may be shared
// between goroutines.
type Constants struct {
	A, B, C, D, E int64

	// C3Over24 is C³/24, exact since 640320³ is divisible by 24.
	C3Over24 *big.Int

	// DigitsPerTerm is the convergence rate used by EstimateTerms.
	DigitsPerTerm float64
}

var defaultConstants = newConstants()

func newConstants() *Constants {
	c := big.NewInt(SeriesC)
	c3 := new(big.Int).Mul(c, c)
	c3.Mul(c3, c)
	c3.Quo(c3, big.NewInt(24))
	return &Constants{
		A:             SeriesA,
		B:             SeriesB,
		C:             SeriesC,
		D:             SeriesD,
		E:             SeriesE,
		C3Over24:      c3,
		DigitsPerTerm: DigitsPerTerm,
	}
}

// DefaultConstants returns the shared Chudnovsky constants.
// Callers must treat the returned value, including C3Over24, as read-only.
func DefaultConstants() *Constants {
	return defaultConstants
}

// derivedDigitsPerTerm recomputes log10(C³/24 / 6 / 2 / 6) in float64.
func derivedDigitsPerTerm(c3Over24 *big.Int) float64 {
	f, _ := new(big.Float).SetInt(c3Over24).Float64()
	return math.Log10(f / 6 / 2 / 6)
}

// ─────────────────────────────────────────────────────────────────────────────
// Tuning Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// DefaultParallelThreshold is the interval length, in terms, at or above
	// which the two halves of a split run on separate goroutines. Below it the
	// goroutine scheduling cost outweighs the work of the subtree.
	DefaultParallelThreshold = 256

	// DefaultMaxParallelDepth bounds the depth of forked recursion, which caps
	// the number of concurrently running subtrees at 2^depth.
	DefaultMaxParallelDepth = 6

	// DefaultParallelMulThreshold is the operand size in bits above which the
	// four products of a merge run concurrently.
	DefaultParallelMulThreshold = 1_000_000

	// DefaultGuardDigits is the number of extra digits computed and then
	// truncated so that the final digit is exact.
	DefaultGuardDigits = 8

	// DefaultMarginTerms is the number of terms added to the closed-form term
	// estimate.
	DefaultMarginTerms = 1

	// MaxDigits is the largest digit count whose operands have a bit length
	// representable in an int.
	MaxDigits = int64(math.MaxInt / 8)

	// CalibrationDigits is the digit count used by calibration runs.
	CalibrationDigits = 200_000
)

// ProgressReportThreshold is the minimum progress change (0.0 to 1.0) required
// before a new progress update is sent.
const ProgressReportThreshold = 0.01
