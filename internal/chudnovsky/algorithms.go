package chudnovsky

import (
	"context"
	"math/big"

	"github.com/agbru/picalc/internal/bigmul"
)

// SequentialBinarySplit evaluates the series on the calling goroutine with
// math/big multiplication. It is the reference implementation the other
// calculators are checked against.
type SequentialBinarySplit struct{}

// Name returns the name of the algorithm.
func (c *SequentialBinarySplit) Name() string {
	return "Binary Splitting (sequential)"
}

// CalculateCore computes floor(π × 10^digits).
func (c *SequentialBinarySplit) CalculateCore(ctx context.Context, reporter ProgressReporter, digits int64, opts Options) (*big.Int, error) {
	consts := DefaultConstants()
	r := &Reconstructor{
		Constants:   consts,
		Splitter:    &SequentialSplitter{Constants: consts, Multiplier: bigmul.Standard{}},
		Multiplier:  bigmul.Standard{},
		GuardDigits: opts.GuardDigits,
		MarginTerms: opts.MarginTerms,
	}
	return r.Compute(ctx, digits, reporter)
}

// ParallelBinarySplit forks the splitting recursion across goroutines and
// multiplies through the adaptive Karatsuba/FFT tiers.
type ParallelBinarySplit struct{}

// Name returns the name of the algorithm.
func (c *ParallelBinarySplit) Name() string {
	return "Binary Splitting (parallel)"
}

// CalculateCore computes floor(π × 10^digits).
func (c *ParallelBinarySplit) CalculateCore(ctx context.Context, reporter ProgressReporter, digits int64, opts Options) (*big.Int, error) {
	consts := DefaultConstants()
	mul := opts.multiplier()
	splitter := &Splitter{
		Constants:            consts,
		Multiplier:           mul,
		ParallelThreshold:    int64(opts.ParallelThreshold),
		MaxDepth:             opts.MaxParallelDepth,
		ParallelMulThreshold: opts.ParallelMulThreshold,
	}
	r := &Reconstructor{
		Constants:   consts,
		Splitter:    splitter,
		Multiplier:  mul,
		GuardDigits: opts.GuardDigits,
		MarginTerms: opts.MarginTerms,
	}
	return r.Compute(ctx, digits, reporter)
}
