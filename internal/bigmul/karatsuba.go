// Package bigmul provides the multiplication tiers used by the binary
// splitting recursion: math/big schoolbook/Karatsuba for small operands, a
// goroutine-parallel Karatsuba for medium operands and Schönhage-Strassen FFT
// multiplication for the largest merges.
package bigmul

import (
	"math/big"
	"math/bits"
	"runtime"
	"sync"

	"github.com/agbru/picalc/internal/parallel"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration Constants
// ─────────────────────────────────────────────────────────────────────────────

// DefaultKaratsubaBaseWords is the size in words below which the recursion
// hands the operands back to math/big, whose own Karatsuba is tuned for
// small sizes.
const DefaultKaratsubaBaseWords = 64

// DefaultParallelKaratsubaWords is the minimum operand size in words for which
// the top-level Karatsuba products run on separate goroutines.
const DefaultParallelKaratsubaWords = 4096

// MaxKaratsubaParallelDepth limits the depth of parallel recursion to avoid
// excessive goroutine creation.
const MaxKaratsubaParallelDepth = 3

// karatsubaSlots bounds the extra goroutines of all concurrent Karatsuba
// products to the number of CPUs.
var karatsubaSlots = parallel.NewSemaphore(runtime.NumCPU())

// ─────────────────────────────────────────────────────────────────────────────
// Public API
// ─────────────────────────────────────────────────────────────────────────────

// KaratsubaMultiply computes x * y and returns the product in a new *big.Int.
func KaratsubaMultiply(x, y *big.Int) *big.Int {
	return KaratsubaMultiplyTo(new(big.Int), x, y)
}

// KaratsubaMultiplyTo computes x * y and stores the result in z.
// The sign of the result follows the usual rules; z may alias x or y.
func KaratsubaMultiplyTo(z, x, y *big.Int) *big.Int {
	if x.Sign() == 0 || y.Sign() == 0 {
		return z.SetInt64(0)
	}
	negative := x.Sign() != y.Sign()

	xAbs := new(big.Int).Abs(x)
	yAbs := new(big.Int).Abs(y)
	z.Set(karatsuba(xAbs, yAbs, 0))

	if negative {
		z.Neg(z)
	}
	return z
}

// ─────────────────────────────────────────────────────────────────────────────
// Core Karatsuba Implementation
// ─────────────────────────────────────────────────────────────────────────────

// lowHigh splits a non-negative x at word k into (low, high) so that
// x = high·2^(k·W) + low. The halves share x's backing array and must only be
// used as read-only operands.
func lowHigh(x *big.Int, k int) (low, high *big.Int) {
	words := x.Bits()
	if len(words) <= k {
		return x, new(big.Int)
	}
	low = new(big.Int).SetBits(words[:k:k])
	high = new(big.Int).SetBits(words[k:])
	return low, high
}

// karatsuba multiplies two non-negative integers. Inputs are never modified.
func karatsuba(x, y *big.Int, depth int) *big.Int {
	n, m := len(x.Bits()), len(y.Bits())
	if n < m {
		x, y = y, x
		n, m = m, n
	}

	if m == 0 {
		return new(big.Int)
	}
	if m <= DefaultKaratsubaBaseWords {
		return new(big.Int).Mul(x, y)
	}
	// Highly asymmetric operands are cut into m-word slices of x.
	if n > 2*m {
		return multiplyAsymmetric(x, y, m, depth)
	}

	k := n / 2
	x0, x1 := lowHigh(x, k)
	y0, y1 := lowHigh(y, k)

	// z0 = x0·y0, z2 = x1·y1, z1 = (x0+x1)(y0+y1) − z0 − z2
	var z0, z2 *big.Int
	if depth < MaxKaratsubaParallelDepth && n >= DefaultParallelKaratsubaWords {
		if karatsubaSlots.TryAcquire() {
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer karatsubaSlots.Release()
				z2 = karatsuba(x1, y1, depth+1)
			}()
			z0 = karatsuba(x0, y0, depth+1)
			wg.Wait()
		} else {
			z0 = karatsuba(x0, y0, depth+1)
			z2 = karatsuba(x1, y1, depth+1)
		}
	} else {
		z0 = karatsuba(x0, y0, depth+1)
		z2 = karatsuba(x1, y1, depth+1)
	}

	sumX := new(big.Int).Add(x0, x1)
	sumY := new(big.Int).Add(y0, y1)
	z1 := karatsuba(sumX, sumY, depth+1)
	z1.Sub(z1, z0)
	z1.Sub(z1, z2)

	return assemble(z0, z1, z2, k)
}

// multiplyAsymmetric handles operands where x is much longer than y.
func multiplyAsymmetric(x, y *big.Int, m, depth int) *big.Int {
	words := x.Bits()
	result := new(big.Int)
	part := new(big.Int)
	for i := 0; i < len(words); i += m {
		end := min(i+m, len(words))
		chunk := new(big.Int).SetBits(words[i:end:end])
		part.Lsh(karatsuba(chunk, y, depth+1), uint(i*wordBits))
		result.Add(result, part)
	}
	return result
}

// assemble returns z0 + z1·2^(k·W) + z2·2^(2k·W).
func assemble(z0, z1, z2 *big.Int, k int) *big.Int {
	shift := uint(k * wordBits)
	res := new(big.Int).Lsh(z2, shift)
	res.Add(res, z1)
	res.Lsh(res, shift)
	return res.Add(res, z0)
}

// wordBits is the size of a big.Word in bits.
const wordBits = bits.UintSize
