package digits

import (
	"fmt"
	"strings"
)

// Radix is the number of distinct digit values a Record counts.
const Radix = 10

// Record counts the occurrences of each decimal digit in a stream.
// The zero value is an empty record ready to use; Records are values and
// copying one yields an independent snapshot.
type Record struct {
	counts [Radix]uint64
}

// RecordByte counts b if it is an ASCII digit and ignores it otherwise, so
// radix points, newlines and headers in a digit file are skipped.
func (r *Record) RecordByte(b byte) {
	if b >= '0' && b <= '9' {
		r.RecordIndex(int(b - '0'))
	}
}

// RecordIndex counts the digit value i. It panics if i is not in [0, Radix).
func (r *Record) RecordIndex(i int) {
	r.counts[i]++
}

// Count returns the number of occurrences of digit d.
func (r Record) Count(d int) uint64 {
	return r.counts[d]
}

// Counts returns a copy of all counters, indexed by digit.
func (r Record) Counts() [Radix]uint64 {
	return r.counts
}

// Total is the number of digits recorded.
func (r Record) Total() uint64 {
	var sum uint64
	for _, c := range r.counts {
		sum += c
	}
	return sum
}

// Mean is the expected count per digit, Total()/Radix using integer
// division.
func (r Record) Mean() float64 {
	return float64(r.Total() / Radix)
}

// Variance is the mean squared deviation of the counters from Mean().
func (r Record) Variance() float64 {
	mean := r.Mean()
	var delta float64
	for _, c := range r.counts {
		d := float64(c) - mean
		delta += d * d
	}
	return delta / Radix
}

// String implements fmt.Stringer.
func (r Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Record{mean: %g, variance: %g, counts: {", r.Mean(), r.Variance())
	for i, c := range r.counts {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d: %d", i, c)
	}
	b.WriteString("}}")
	return b.String()
}
