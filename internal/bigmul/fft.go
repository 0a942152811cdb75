package bigmul

import (
	"math/big"

	"github.com/remyoudompheng/bigfft"
)

// FFTMultiplyTo computes x * y with Schönhage-Strassen multiplication over
// Fermat rings and stores the result in z; a nil z allocates. Below its
// internal cut-off the library falls back to math/big.
func FFTMultiplyTo(z, x, y *big.Int) *big.Int {
	if z == nil {
		return bigfft.Mul(x, y)
	}
	return z.Set(bigfft.Mul(x, y))
}
