package chudnovsky

import (
	"context"
	"fmt"
	"math/big"

	"github.com/agbru/picalc/internal/bigmul"
)

// Shares of the overall progress attributed to each reconstruction phase.
const (
	splitShare = 0.80
	sqrtShare  = 0.90
)

// IntegerSqrt returns floor(√n). It panics if n is negative.
func IntegerSqrt(n *big.Int) *big.Int {
	if n.Sign() < 0 {
		panic("chudnovsky: square root of negative number")
	}
	return new(big.Int).Sqrt(n)
}

// Reconstructor turns the triplet of [0, N) into floor(π·10^digits).
//
// The a = 0 leaf contributes 1 to T, so the series sum over the common
// denominator Q is T + (A−1)·Q, and
//
//	π·10^d = Q·D·isqrt(E·10^(2d)) / (T + (A−1)·Q)
//
// computed with GuardDigits extra digits that are truncated at the end.
// GuardDigits and MarginTerms follow Options: 0 selects the default and a
// negative value disables the guard, but never both.
type Reconstructor struct {
	Constants   *Constants
	Splitter    TermSplitter
	Multiplier  bigmul.Multiplier
	GuardDigits int
	MarginTerms int
}

// NewReconstructor returns a sequential Reconstructor with the default
// guard digits and margin terms.
func NewReconstructor() *Reconstructor {
	return &Reconstructor{
		Constants:   DefaultConstants(),
		Splitter:    &SequentialSplitter{Constants: DefaultConstants(), Multiplier: bigmul.Standard{}},
		Multiplier:  bigmul.Standard{},
		GuardDigits: DefaultGuardDigits,
		MarginTerms: DefaultMarginTerms,
	}
}

// ComputePiDigits returns floor(π × 10^digits), so that the result's decimal
// representation is "3" followed by the first digits decimals of π.
// It fails with ErrInvalidInput when digits <= 0.
func ComputePiDigits(digits int64) (*big.Int, error) {
	return NewReconstructor().Compute(context.Background(), digits, nil)
}

// Compute returns floor(π × 10^digits). progress may be nil.
func (r *Reconstructor) Compute(ctx context.Context, digits int64, progress ProgressReporter) (*big.Int, error) {
	if digits <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidInput, digits)
	}
	guardDigits, marginTerms := resolveGuards(r.GuardDigits, r.MarginTerms)
	guard := int64(guardDigits)
	if digits > MaxDigits-guard {
		return nil, fmt.Errorf("%w: %d > %d", ErrArithmeticOverflow, digits, MaxDigits-guard)
	}
	consts := r.Constants
	if consts == nil {
		consts = DefaultConstants()
	}
	mul := r.Multiplier
	if mul == nil {
		mul = bigmul.Standard{}
	}
	splitter := r.Splitter
	if splitter == nil {
		splitter = &SequentialSplitter{Constants: consts, Multiplier: mul}
	}

	work := digits + guard
	n, err := estimateTerms(work, consts.DigitsPerTerm, marginTerms)
	if err != nil {
		return nil, err
	}

	pqt, err := splitter.SplitRange(ctx, 0, n, progress.Scaled(0, splitShare))
	if err != nil {
		return nil, err
	}
	progress.report(splitShare)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sqrtE := IntegerSqrt(scaledRadicand(consts.E, work))
	progress.report(sqrtShare)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pi := finalCombine(pqt, sqrtE, consts, mul)
	if guard > 0 {
		pi.Quo(pi, pow10(guard))
	}
	progress.report(1.0)
	return pi, nil
}

// scaledRadicand returns e·10^(2·digits).
func scaledRadicand(e, digits int64) *big.Int {
	n := pow10(2 * digits)
	return n.Mul(n, big.NewInt(e))
}

// finalCombine returns Q·D·sqrtE / (T + (A−1)·Q), truncated.
func finalCombine(pqt Triplet, sqrtE *big.Int, consts *Constants, mul bigmul.Multiplier) *big.Int {
	num := new(big.Int).Mul(pqt.Q, big.NewInt(consts.D))
	num = mul.Multiply(num, num, sqrtE)

	den := new(big.Int).Mul(pqt.Q, big.NewInt(consts.A-1))
	den.Add(den, pqt.T)

	return num.Quo(num, den)
}

func pow10(exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
}
