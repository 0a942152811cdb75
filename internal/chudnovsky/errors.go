package chudnovsky

import "errors"

var (
	// ErrInvalidInput is returned when the requested digit count, or the term
	// count derived from it, is not positive.
	ErrInvalidInput = errors.New("chudnovsky: digit count must be positive")

	// ErrArithmeticOverflow is returned when the operands needed for the
	// requested digit count would exceed what big.Int can index.
	ErrArithmeticOverflow = errors.New("chudnovsky: digit count exceeds representable operand size")
)
