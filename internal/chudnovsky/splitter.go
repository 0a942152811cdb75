package chudnovsky

import (
	"context"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/picalc/internal/bigmul"
	"github.com/agbru/picalc/internal/parallel"
)

// Splitter is the fork-join TermSplitter. Intervals of at least
// ParallelThreshold terms are split into halves computed on separate
// goroutines until MaxDepth is reached; smaller intervals recurse
// sequentially. Each goroutine owns its subtree, and a merge only reads the
// two completed triplets of its children.
//
// Cancellation abandons work at fork boundaries: when ctx is done no new
// subtree is started and partial results are discarded.
type Splitter struct {
	Constants  *Constants
	Multiplier bigmul.Multiplier

	// ParallelThreshold is the minimum interval length, in terms, to fork.
	ParallelThreshold int64
	// MaxDepth bounds the fork depth.
	MaxDepth int
	// ParallelMulThreshold is the operand size in bits above which the four
	// products of a merge run concurrently. Zero disables concurrent products.
	ParallelMulThreshold int
}

// NewSplitter returns a Splitter using the default constants and thresholds
// with the given multiplier.
func NewSplitter(mul bigmul.Multiplier) *Splitter {
	return &Splitter{
		Constants:            DefaultConstants(),
		Multiplier:           mul,
		ParallelThreshold:    DefaultParallelThreshold,
		MaxDepth:             DefaultMaxParallelDepth,
		ParallelMulThreshold: DefaultParallelMulThreshold,
	}
}

// SplitRange implements TermSplitter.
func (s *Splitter) SplitRange(ctx context.Context, a, b int64, progress ProgressReporter) (Triplet, error) {
	checkInterval(a, b)
	return s.split(ctx, a, b, 0, newProgressTracker(progress, b-a))
}

func (s *Splitter) constants() *Constants {
	if s.Constants == nil {
		return DefaultConstants()
	}
	return s.Constants
}

func (s *Splitter) multiplier() bigmul.Multiplier {
	if s.Multiplier == nil {
		return bigmul.Standard{}
	}
	return s.Multiplier
}

func (s *Splitter) split(ctx context.Context, a, b int64, depth int, tracker *progressTracker) (Triplet, error) {
	threshold := max(s.ParallelThreshold, 2)
	if b-a < threshold || depth >= s.MaxDepth {
		return splitRange(ctx, a, b, s.constants().C3Over24, s.multiplier(), tracker)
	}
	if err := ctx.Err(); err != nil {
		return Triplet{}, err
	}

	m := (a + b) / 2
	var left, right Triplet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		left, err = s.split(gctx, a, m, depth+1, tracker)
		return err
	})
	g.Go(func() error {
		var err error
		right, err = s.split(gctx, m, b, depth+1, tracker)
		return err
	})
	if err := g.Wait(); err != nil {
		return Triplet{}, err
	}

	if s.ParallelMulThreshold > 0 && left.Q.BitLen() > s.ParallelMulThreshold {
		return s.mergeParallel(ctx, left, right)
	}
	return merge(left, right, s.multiplier()), nil
}

// multiplicationTask is one product of a merge.
type multiplicationTask struct {
	dest **big.Int
	x, y *big.Int
	mul  bigmul.Multiplier
}

func (t *multiplicationTask) execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	*t.dest = t.mul.Multiply(nil, t.x, t.y)
	return nil
}

// mergeParallel computes the four products of a merge concurrently. All
// destinations are fresh, so the tasks share nothing but read-only operands.
func (s *Splitter) mergeParallel(ctx context.Context, left, right Triplet) (Triplet, error) {
	var p, q, t, u *big.Int
	mul := s.multiplier()
	tasks := []multiplicationTask{
		{dest: &p, x: left.P, y: right.P, mul: mul},
		{dest: &q, x: left.Q, y: right.Q, mul: mul},
		{dest: &t, x: right.Q, y: left.T, mul: mul},
		{dest: &u, x: left.P, y: right.T, mul: mul},
	}

	fns := make([]func(context.Context) error, len(tasks))
	for i := range tasks {
		fns[i] = tasks[i].execute
	}
	if err := parallel.RunAll(ctx, fns...); err != nil {
		return Triplet{}, err
	}

	t.Add(t, u)
	return Triplet{P: p, Q: q, T: t}, nil
}
