package bigmul

import "math/big"

const (
	// DefaultFFTThreshold is the operand size in bits above which merges
	// switch to FFT multiplication.
	DefaultFFTThreshold = 500_000

	// DefaultKaratsubaThreshold is the operand size in bits above which the
	// parallel Karatsuba replaces math/big's sequential multiplication.
	DefaultKaratsubaThreshold = 2048 * 64
)

// Multiplier multiplies arbitrary-precision integers.
//
// Multiply stores x * y in z and returns z. A nil z allocates a new result.
// Implementations are safe for concurrent use as long as callers do not
// share z between goroutines.
type Multiplier interface {
	Multiply(z, x, y *big.Int) *big.Int
	Name() string
}

// Standard uses (*big.Int).Mul.
type Standard struct{}

// Multiply implements Multiplier.
func (Standard) Multiply(z, x, y *big.Int) *big.Int {
	if z == nil {
		z = new(big.Int)
	}
	return z.Mul(x, y)
}

// Name implements Multiplier.
func (Standard) Name() string { return "math/big" }

// Karatsuba always uses the parallel Karatsuba recursion.
type Karatsuba struct{}

// Multiply implements Multiplier.
func (Karatsuba) Multiply(z, x, y *big.Int) *big.Int {
	if z == nil {
		z = new(big.Int)
	}
	return KaratsubaMultiplyTo(z, x, y)
}

// Name implements Multiplier.
func (Karatsuba) Name() string { return "Karatsuba" }

// FFT always uses FFT multiplication.
type FFT struct{}

// Multiply implements Multiplier.
func (FFT) Multiply(z, x, y *big.Int) *big.Int {
	return FFTMultiplyTo(z, x, y)
}

// Name implements Multiplier.
func (FFT) Name() string { return "FFT" }

// Adaptive selects a tier from the operand sizes:
// FFT when both operands exceed FFTThreshold bits, parallel Karatsuba when
// both exceed KaratsubaThreshold bits, math/big otherwise. A zero threshold
// disables its tier.
type Adaptive struct {
	FFTThreshold       int
	KaratsubaThreshold int
}

// NewAdaptive returns an Adaptive multiplier with the default thresholds.
func NewAdaptive() *Adaptive {
	return &Adaptive{
		FFTThreshold:       DefaultFFTThreshold,
		KaratsubaThreshold: DefaultKaratsubaThreshold,
	}
}

// Multiply implements Multiplier.
func (a *Adaptive) Multiply(z, x, y *big.Int) *big.Int {
	bx, by := x.BitLen(), y.BitLen()

	// Tier 1: FFT
	if a.FFTThreshold > 0 && bx > a.FFTThreshold && by > a.FFTThreshold {
		return FFTMultiplyTo(z, x, y)
	}

	if z == nil {
		z = new(big.Int)
	}

	// Tier 2: parallel Karatsuba
	if a.KaratsubaThreshold > 0 && bx > a.KaratsubaThreshold && by > a.KaratsubaThreshold {
		return KaratsubaMultiplyTo(z, x, y)
	}

	// Tier 3: math/big
	return z.Mul(x, y)
}

// Name implements Multiplier.
func (a *Adaptive) Name() string { return "Adaptive" }

// Tier reports which tier Multiply would use for operands of the given
// bit lengths.
func (a *Adaptive) Tier(bx, by int) string {
	switch {
	case a.FFTThreshold > 0 && bx > a.FFTThreshold && by > a.FFTThreshold:
		return FFT{}.Name()
	case a.KaratsubaThreshold > 0 && bx > a.KaratsubaThreshold && by > a.KaratsubaThreshold:
		return Karatsuba{}.Name()
	default:
		return Standard{}.Name()
	}
}
