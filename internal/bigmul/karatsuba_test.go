package bigmul

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func randomBits(t *testing.T, bits int) *big.Int {
	t.Helper()
	x, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), uint(bits)))
	if err != nil {
		t.Fatalf("rand.Int: %v", err)
	}
	return x
}

func TestKaratsubaSmall(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		x, y, want int64
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 3, 6},
		{12345, 67890, 838102050},
		{-5, 3, -15},
		{-7, -8, 56},
	}

	for _, tc := range testCases {
		got := KaratsubaMultiply(big.NewInt(tc.x), big.NewInt(tc.y))
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Errorf("KaratsubaMultiply(%d, %d) = %s, want %d", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestKaratsubaMatchesMathBig(t *testing.T) {
	t.Parallel()
	sizes := []struct {
		name   string
		xb, yb int
	}{
		{"balanced 10k bits", 10_000, 10_000},
		{"balanced 300k bits", 300_000, 300_000},
		{"asymmetric", 400_000, 20_000},
		{"uneven halves", 200_001, 150_007},
	}
	for _, tc := range sizes {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			x := randomBits(t, tc.xb)
			y := randomBits(t, tc.yb)
			y.Neg(y)

			got := KaratsubaMultiply(x, y)
			want := new(big.Int).Mul(x, y)
			if got.Cmp(want) != 0 {
				t.Fatalf("mismatch for %d-bit x %d-bit operands", x.BitLen(), y.BitLen())
			}
		})
	}
}

func TestKaratsubaDoesNotModifyOperands(t *testing.T) {
	t.Parallel()
	x := randomBits(t, 50_000)
	y := randomBits(t, 45_000)
	xc, yc := new(big.Int).Set(x), new(big.Int).Set(y)

	_ = KaratsubaMultiply(x, y)

	if x.Cmp(xc) != 0 || y.Cmp(yc) != 0 {
		t.Error("operands were modified")
	}
}

func TestKaratsubaAliasedDestination(t *testing.T) {
	t.Parallel()
	x := randomBits(t, 20_000)
	want := new(big.Int).Mul(x, x)

	KaratsubaMultiplyTo(x, x, x)
	if x.Cmp(want) != 0 {
		t.Error("aliased destination produced a wrong square")
	}
}

func TestKaratsubaProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("KaratsubaMultiply agrees with big.Int.Mul", prop.ForAll(
		func(xw, yw int, seed int64) bool {
			x := new(big.Int).Lsh(big.NewInt(seed|1), uint(xw*64))
			x.Add(x, big.NewInt(seed))
			y := new(big.Int).Lsh(big.NewInt(seed^0x5bd1e995), uint(yw*64))
			y.Sub(y, big.NewInt(seed>>3))
			return KaratsubaMultiply(x, y).Cmp(new(big.Int).Mul(x, y)) == 0
		},
		gen.IntRange(0, 2000),
		gen.IntRange(0, 2000),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
