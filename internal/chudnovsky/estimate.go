package chudnovsky

import (
	"fmt"
	"math"
)

// EstimateTerms returns the number of series terms needed for digits correct
// decimal digits: floor(digits / DigitsPerTerm) + 1, plus DefaultMarginTerms.
func EstimateTerms(digits int64) (int64, error) {
	return estimateTerms(digits, DigitsPerTerm, DefaultMarginTerms)
}

// EstimateTermsWithMargin is EstimateTerms with an explicit number of margin
// terms. A zero margin gives the bare closed form.
func EstimateTermsWithMargin(digits int64, margin int) (int64, error) {
	if margin < 0 {
		return 0, fmt.Errorf("%w: negative margin %d", ErrInvalidInput, margin)
	}
	return estimateTerms(digits, DigitsPerTerm, margin)
}

func estimateTerms(digits int64, digitsPerTerm float64, margin int) (int64, error) {
	if digits <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidInput, digits)
	}
	if digits > MaxDigits {
		return 0, fmt.Errorf("%w: %d > %d", ErrArithmeticOverflow, digits, MaxDigits)
	}
	n := int64(math.Floor(float64(digits)/digitsPerTerm)) + 1 + int64(margin)
	if n <= 0 {
		return 0, fmt.Errorf("%w: term count %d", ErrInvalidInput, n)
	}
	return n, nil
}
