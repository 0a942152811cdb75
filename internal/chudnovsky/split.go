package chudnovsky

import (
	"context"
	"fmt"
	"math/big"

	"github.com/agbru/picalc/internal/bigmul"
)

// cancelCheckTerms is the interval length at or above which the sequential
// recursion polls its context before descending.
const cancelCheckTerms = 64

// Triplet holds P(a,b), Q(a,b) and T(a,b) for the term interval [a, b).
//
// For any a < m < b the triplets satisfy
//
//	P(a,b) = P(a,m)·P(m,b)
//	Q(a,b) = Q(a,m)·Q(m,b)
//	T(a,b) = Q(m,b)·T(a,m) + P(a,m)·T(m,b)
type Triplet struct {
	P, Q, T *big.Int
}

// Equal reports whether all three components of t and u are equal.
func (t Triplet) Equal(u Triplet) bool {
	return t.P.Cmp(u.P) == 0 && t.Q.Cmp(u.Q) == 0 && t.T.Cmp(u.T) == 0
}

// TermSplitter computes the triplet of an interval. progress receives the
// fraction of the interval's terms completed; it may be nil.
type TermSplitter interface {
	SplitRange(ctx context.Context, a, b int64, progress ProgressReporter) (Triplet, error)
}

// Split computes (P, Q, T) over [a, b) sequentially with math/big
// multiplication, using c3Over24 = 640320³/24 in the Q factors.
//
// Split panics if a < 0 or b <= a: an empty or reversed interval can only come
// from a programming error and would otherwise yield a wrong digit string.
func Split(a, b int64, c3Over24 *big.Int) Triplet {
	checkInterval(a, b)
	t, _ := splitRange(context.Background(), a, b, c3Over24, bigmul.Standard{}, nil)
	return t
}

func checkInterval(a, b int64) {
	if a < 0 || b <= a {
		panic(fmt.Sprintf("chudnovsky: invalid split interval [%d, %d)", a, b))
	}
}

// leaf returns the triplet of the single-term interval [a, a+1).
func leaf(a int64, c3Over24 *big.Int) Triplet {
	if a == 0 {
		return Triplet{P: big.NewInt(1), Q: big.NewInt(1), T: big.NewInt(1)}
	}

	// P = (6a−5)(2a−1)(6a−1)
	p := big.NewInt(6*a - 5)
	p.Mul(p, big.NewInt(2*a-1))
	p.Mul(p, big.NewInt(6*a-1))

	// Q = a³·C³/24
	ab := big.NewInt(a)
	q := new(big.Int).Mul(ab, ab)
	q.Mul(q, ab)
	q.Mul(q, c3Over24)

	// T = ±(A + B·a)·P
	t := new(big.Int).Mul(ab, big.NewInt(SeriesB))
	t.Add(t, big.NewInt(SeriesA))
	t.Mul(t, p)
	if a%2 == 1 {
		t.Neg(t)
	}

	return Triplet{P: p, Q: q, T: t}
}

// merge combines the triplets of [a, m) and [m, b). The left operands are
// reused as destinations, so neither input may be used afterwards.
func merge(left, right Triplet, mul bigmul.Multiplier) Triplet {
	t := mul.Multiply(nil, right.Q, left.T)
	u := mul.Multiply(nil, left.P, right.T)
	t.Add(t, u)

	p := mul.Multiply(left.P, left.P, right.P)
	q := mul.Multiply(left.Q, left.Q, right.Q)
	return Triplet{P: p, Q: q, T: t}
}

// splitRange is the sequential recursion shared by every splitter.
func splitRange(ctx context.Context, a, b int64, c3Over24 *big.Int, mul bigmul.Multiplier, tracker *progressTracker) (Triplet, error) {
	if b-a == 1 {
		t := leaf(a, c3Over24)
		tracker.add(1)
		return t, nil
	}
	if b-a >= cancelCheckTerms {
		if err := ctx.Err(); err != nil {
			return Triplet{}, err
		}
	}

	m := (a + b) / 2
	left, err := splitRange(ctx, a, m, c3Over24, mul, tracker)
	if err != nil {
		return Triplet{}, err
	}
	right, err := splitRange(ctx, m, b, c3Over24, mul, tracker)
	if err != nil {
		return Triplet{}, err
	}
	return merge(left, right, mul), nil
}

// SequentialSplitter runs the whole recursion on the calling goroutine.
type SequentialSplitter struct {
	Constants  *Constants
	Multiplier bigmul.Multiplier
}

// SplitRange implements TermSplitter.
func (s *SequentialSplitter) SplitRange(ctx context.Context, a, b int64, progress ProgressReporter) (Triplet, error) {
	checkInterval(a, b)
	consts := s.Constants
	if consts == nil {
		consts = DefaultConstants()
	}
	mul := s.Multiplier
	if mul == nil {
		mul = bigmul.Standard{}
	}
	return splitRange(ctx, a, b, consts.C3Over24, mul, newProgressTracker(progress, b-a))
}
