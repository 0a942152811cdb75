// Package digits turns the integer floor(π·10^d) produced by the calculators
// into text, and analyses digit streams.
package digits

import (
	"fmt"
	"math/big"
	"strings"
)

// Format renders pi = floor(π·10^digits) with the radix point after the
// leading 3, e.g. Format(31415, 4) == "3.1415". A value whose decimal
// representation is not digits+1 long is rendered without a point, as it
// cannot be a scaled π.
func Format(pi *big.Int, digits int64) string {
	s := pi.String()
	if digits <= 0 || int64(len(s)) != digits+1 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 1)
	b.WriteString(s[:1])
	b.WriteByte('.')
	b.WriteString(s[1:])
	return b.String()
}

// LastDigits returns the k least significant decimal digits of n, zero
// padded to k. It is how reference values such as "...01989" are compared.
func LastDigits(n *big.Int, k int) string {
	if k <= 0 {
		return ""
	}
	mod := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(k)), nil)
	r := new(big.Int).Mod(new(big.Int).Abs(n), mod)
	return fmt.Sprintf("%0*s", k, r.String())
}

// Truncate returns floor(pi / 10^(from-to)), the to-digit expansion
// contained in a from-digit one. It panics if to > from.
func Truncate(pi *big.Int, from, to int64) *big.Int {
	if to > from {
		panic(fmt.Sprintf("digits: cannot truncate %d digits to %d", from, to))
	}
	if to == from {
		return new(big.Int).Set(pi)
	}
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(from-to), nil)
	return new(big.Int).Quo(pi, div)
}

// Summary abbreviates a long digit string to its head and tail, joined by
// an ellipsis, for terminal display.
func Summary(s string, keep int) string {
	if keep <= 0 || len(s) <= 2*keep+3 {
		return s
	}
	return s[:keep] + "..." + s[len(s)-keep:]
}
