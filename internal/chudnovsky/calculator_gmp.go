//go:build gmp

// The GMP calculator is opt-in: building it requires libgmp and
// `go build -tags=gmp`. Without the tag the module stays pure Go.

package chudnovsky

import (
	"context"
	"math/big"

	"github.com/ncw/gmp"
)

func init() {
	_ = RegisterCalculator("gmp", func() coreCalculator { return &GMPBinarySplit{} })
}

// GMPBinarySplit runs the splitting recursion on GMP integers, whose
// assembly multiplication outperforms math/big for very large merges. The
// final triplet is converted back to math/big for reconstruction.
type GMPBinarySplit struct{}

// Name returns the name of the algorithm.
func (c *GMPBinarySplit) Name() string {
	return "GMP (Binary Splitting)"
}

// CalculateCore computes floor(π × 10^digits).
func (c *GMPBinarySplit) CalculateCore(ctx context.Context, reporter ProgressReporter, digits int64, opts Options) (*big.Int, error) {
	r := &Reconstructor{
		Constants:   DefaultConstants(),
		Splitter:    gmpSplitter{},
		GuardDigits: opts.GuardDigits,
		MarginTerms: opts.MarginTerms,
	}
	return r.Compute(ctx, digits, reporter)
}

// gmpSplitter is a TermSplitter over github.com/ncw/gmp.
type gmpSplitter struct{}

type gmpTriplet struct {
	p, q, t *gmp.Int
}

// SplitRange implements TermSplitter.
func (gmpSplitter) SplitRange(ctx context.Context, a, b int64, progress ProgressReporter) (Triplet, error) {
	checkInterval(a, b)
	c3 := new(gmp.Int)
	c3.SetBytes(DefaultConstants().C3Over24.Bytes())

	res, err := gmpSplit(ctx, a, b, c3, newProgressTracker(progress, b-a))
	if err != nil {
		return Triplet{}, err
	}
	return Triplet{P: gmpToStdBigInt(res.p), Q: gmpToStdBigInt(res.q), T: gmpToStdBigInt(res.t)}, nil
}

func gmpLeaf(a int64, c3 *gmp.Int) gmpTriplet {
	if a == 0 {
		return gmpTriplet{p: gmp.NewInt(1), q: gmp.NewInt(1), t: gmp.NewInt(1)}
	}
	p := gmp.NewInt(6*a - 5)
	p.Mul(p, gmp.NewInt(2*a-1))
	p.Mul(p, gmp.NewInt(6*a-1))

	ab := gmp.NewInt(a)
	q := new(gmp.Int).Mul(ab, ab)
	q.Mul(q, ab)
	q.Mul(q, c3)

	t := new(gmp.Int).Mul(ab, gmp.NewInt(SeriesB))
	t.Add(t, gmp.NewInt(SeriesA))
	t.Mul(t, p)
	if a%2 == 1 {
		t.Neg(t)
	}
	return gmpTriplet{p: p, q: q, t: t}
}

func gmpSplit(ctx context.Context, a, b int64, c3 *gmp.Int, tracker *progressTracker) (gmpTriplet, error) {
	if b-a == 1 {
		res := gmpLeaf(a, c3)
		tracker.add(1)
		return res, nil
	}
	if b-a >= cancelCheckTerms {
		if err := ctx.Err(); err != nil {
			return gmpTriplet{}, err
		}
	}

	m := (a + b) / 2
	left, err := gmpSplit(ctx, a, m, c3, tracker)
	if err != nil {
		return gmpTriplet{}, err
	}
	right, err := gmpSplit(ctx, m, b, c3, tracker)
	if err != nil {
		return gmpTriplet{}, err
	}

	t := new(gmp.Int).Mul(right.q, left.t)
	u := new(gmp.Int).Mul(left.p, right.t)
	t.Add(t, u)
	left.p.Mul(left.p, right.p)
	left.q.Mul(left.q, right.q)
	return gmpTriplet{p: left.p, q: left.q, t: t}, nil
}

// gmpToStdBigInt converts a gmp.Int to a math/big Int, keeping the sign.
func gmpToStdBigInt(g *gmp.Int) *big.Int {
	z := new(big.Int).SetBytes(g.Bytes())
	if g.Sign() < 0 {
		z.Neg(z)
	}
	return z
}
