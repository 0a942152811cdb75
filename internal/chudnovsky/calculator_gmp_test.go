//go:build gmp

package chudnovsky

import (
	"context"
	"testing"
)

func TestGMPBinarySplitMatchesSequential(t *testing.T) {
	t.Parallel()

	for _, digits := range []int64{1, 50, 1000, 5000} {
		want, err := ComputePiDigits(digits)
		if err != nil {
			t.Fatalf("ComputePiDigits(%d): %v", digits, err)
		}
		got, err := (&GMPBinarySplit{}).CalculateCore(context.Background(), nil, digits, normalizeOptions(Options{}))
		if err != nil {
			t.Fatalf("CalculateCore(%d): %v", digits, err)
		}
		if got.Cmp(want) != 0 {
			t.Errorf("digits=%d: gmp result differs from sequential", digits)
		}
	}
}

func TestGMPSplitterMatchesSplit(t *testing.T) {
	t.Parallel()

	got, err := gmpSplitter{}.SplitRange(context.Background(), 3, 40, nil)
	if err != nil {
		t.Fatalf("SplitRange: %v", err)
	}
	if want := Split(3, 40, DefaultConstants().C3Over24); !got.Equal(want) {
		t.Error("gmp triplet differs from math/big triplet")
	}
}

func TestGMPRegistered(t *testing.T) {
	t.Parallel()
	if !GlobalFactory().Has("gmp") {
		t.Error(`"gmp" calculator not registered with the gmp build tag`)
	}
}
