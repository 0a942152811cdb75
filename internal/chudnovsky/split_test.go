package chudnovsky

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/picalc/internal/bigmul"
)

func mustInt(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("invalid integer literal %q", s)
	}
	return n
}

func TestSplitBaseCases(t *testing.T) {
	t.Parallel()
	c3 := DefaultConstants().C3Over24

	tests := []struct {
		k       int64
		p, q, t string
	}{
		{0, "1", "1", "1"},
		{1, "5", "10939058860032000", "-2793657715"},
		{2, "231", "87512470880256000", "254994357387"},
		{3, "1105", "295354589220864000", "-1822158051155"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("k=%d", tt.k), func(t *testing.T) {
			t.Parallel()
			got := Split(tt.k, tt.k+1, c3)
			want := Triplet{P: mustInt(t, tt.p), Q: mustInt(t, tt.q), T: mustInt(t, tt.t)}
			if !got.Equal(want) {
				t.Errorf("Split(%d, %d) = (%s, %s, %s), want (%s, %s, %s)",
					tt.k, tt.k+1, got.P, got.Q, got.T, tt.p, tt.q, tt.t)
			}
		})
	}
}

func TestC3Over24IsExact(t *testing.T) {
	t.Parallel()
	c := big.NewInt(SeriesC)
	c3 := new(big.Int).Exp(c, big.NewInt(3), nil)
	q, r := new(big.Int).QuoRem(c3, big.NewInt(24), new(big.Int))
	if r.Sign() != 0 {
		t.Fatalf("640320³ mod 24 = %s, want 0", r)
	}
	if q.Cmp(DefaultConstants().C3Over24) != 0 {
		t.Errorf("C3Over24 = %s, want %s", DefaultConstants().C3Over24, q)
	}
}

func TestSplitPanicsOnInvalidInterval(t *testing.T) {
	t.Parallel()
	intervals := [][2]int64{{5, 5}, {6, 5}, {-1, 3}}

	for _, iv := range intervals {
		t.Run(fmt.Sprintf("[%d,%d)", iv[0], iv[1]), func(t *testing.T) {
			t.Parallel()
			defer func() {
				if recover() == nil {
					t.Errorf("Split(%d, %d) did not panic", iv[0], iv[1])
				}
			}()
			Split(iv[0], iv[1], DefaultConstants().C3Over24)
		})
	}
}

// TestSplitMergeAssociativity checks that any split point m in (a, b) gives
// the same triplet as the midpoint recursion.
func TestSplitMergeAssociativity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	c3 := DefaultConstants().C3Over24

	properties.Property("merge(split(a,m), split(m,b)) == split(a,b)", prop.ForAll(
		func(a, width, offset int64) bool {
			b := a + width
			m := a + 1 + offset%(width-1)
			whole := Split(a, b, c3)
			merged := merge(Split(a, m, c3), Split(m, b, c3), bigmul.Standard{})
			return merged.Equal(whole)
		},
		gen.Int64Range(0, 500),
		gen.Int64Range(2, 120),
		gen.Int64Range(0, 1000),
	))

	properties.TestingRun(t)
}

func TestQIsPositiveAndIncreasing(t *testing.T) {
	t.Parallel()
	c3 := DefaultConstants().C3Over24
	prev := Split(0, 1, c3).Q
	for b := int64(2); b <= 40; b++ {
		q := Split(0, b, c3).Q
		if q.Sign() <= 0 {
			t.Fatalf("Q(0,%d) = %s, want positive", b, q)
		}
		if b > 2 && q.Cmp(prev) <= 0 {
			t.Fatalf("Q(0,%d) = %s is not greater than Q(0,%d) = %s", b, q, b-1, prev)
		}
		prev = q
	}
}

func TestSplittersAgree(t *testing.T) {
	t.Parallel()
	const n = 700
	want := Split(0, n, DefaultConstants().C3Over24)

	splitters := map[string]TermSplitter{
		"sequential/math-big": &SequentialSplitter{},
		"sequential/karatsuba": &SequentialSplitter{
			Multiplier: &bigmul.Adaptive{KaratsubaThreshold: 4096},
		},
		"parallel/defaults": NewSplitter(bigmul.NewAdaptive()),
		"parallel/fine-grained": &Splitter{
			Multiplier:           &bigmul.Adaptive{FFTThreshold: 20_000, KaratsubaThreshold: 4096},
			ParallelThreshold:    8,
			MaxDepth:             5,
			ParallelMulThreshold: 2_000,
		},
	}

	for name, s := range splitters {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := s.SplitRange(context.Background(), 0, n, nil)
			if err != nil {
				t.Fatalf("SplitRange: %v", err)
			}
			if !got.Equal(want) {
				t.Error("triplet differs from Split")
			}
		})
	}
}

func TestSplitterCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	splitters := map[string]TermSplitter{
		"sequential": &SequentialSplitter{},
		"parallel":   &Splitter{ParallelThreshold: 16, MaxDepth: 4},
	}
	for name, s := range splitters {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := s.SplitRange(ctx, 0, 10_000, nil)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("SplitRange(canceled) error = %v, want context.Canceled", err)
			}
		})
	}
}

func TestSplitterReportsProgress(t *testing.T) {
	t.Parallel()
	var last float64
	var calls int
	s := &Splitter{ParallelThreshold: 32, MaxDepth: 3}
	// The tracker serializes reporter calls.
	_, err := s.SplitRange(context.Background(), 0, 2000, func(p float64) {
		calls++
		if p < last {
			t.Errorf("progress went backwards: %f after %f", p, last)
		}
		last = p
	})
	if err != nil {
		t.Fatalf("SplitRange: %v", err)
	}
	if calls == 0 || last != 1.0 {
		t.Errorf("calls = %d, last = %f; want at least one call ending at 1.0", calls, last)
	}
}
