package cli

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/picalc/internal/bigmul"
	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/digits"
	"github.com/agbru/picalc/internal/ui"
)

const (
	// TruncationLimit is the number of digits above which the value is
	// abbreviated unless verbose output is requested.
	TruncationLimit = 100
	// DisplayEdges is the number of characters kept at each end of an
	// abbreviated value.
	DisplayEdges = 25
)

// DisplayOptions selects the sections of the result summary.
type DisplayOptions struct {
	// Verbose prints the value in full regardless of its length.
	Verbose bool
	// Details adds timing and series statistics.
	Details bool
	// Multiplier, when set, names the tier of the final multiplication in
	// the details.
	Multiplier *bigmul.Adaptive
	// ShowValue prints the digits of π.
	ShowValue bool
	// Tail is the number of trailing digits printed; 0 omits the line.
	Tail int
}

// FormatExecutionDuration renders d in µs below a millisecond, in ms below a
// second, and with time.Duration's format otherwise.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.String()
	}
}

// DisplayResult prints the summary of pi = floor(π·10^n).
func DisplayResult(pi *big.Int, n int64, duration time.Duration, opts DisplayOptions, out io.Writer) {
	t := ui.Current()
	fmt.Fprintf(out, "Digits computed: %s%s%s (%s bits).\n",
		t.Secondary, formatNumberString(strconv.FormatInt(n, 10)), t.Reset,
		formatNumberString(strconv.Itoa(pi.BitLen())))

	if opts.Tail > 0 {
		k := min(opts.Tail, int(n))
		fmt.Fprintf(out, "Last %d digits: %s%s%s\n", k, t.Digits, digits.LastDigits(pi, k), t.Reset)
	}

	if opts.Details {
		fmt.Fprintf(out, "\n%s--- Detailed result analysis ---%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Calculation time : %s%s%s\n", t.Success, FormatExecutionDuration(duration), t.Reset)
		if terms, err := chudnovsky.EstimateTerms(n); err == nil {
			fmt.Fprintf(out, "Series terms     : %s%s%s\n", t.Secondary, formatNumberString(strconv.FormatInt(terms, 10)), t.Reset)
		}
		if opts.Multiplier != nil {
			bits := pi.BitLen()
			fmt.Fprintf(out, "Final multiply   : %s%s%s\n", t.Secondary, opts.Multiplier.Tier(bits, bits), t.Reset)
		}
		if duration > 0 {
			rate := float64(n) / duration.Seconds()
			fmt.Fprintf(out, "Throughput       : %s%s%s digits/s\n", t.Secondary, formatNumberString(strconv.FormatInt(int64(rate), 10)), t.Reset)
		}
	}

	if !opts.ShowValue {
		return
	}
	value := digits.Format(pi, n)
	fmt.Fprintf(out, "\n%s--- Digits of π ---%s\n", t.Bold, t.Reset)
	if opts.Verbose || len(value) <= TruncationLimit {
		fmt.Fprintf(out, "π = %s%s%s\n", t.Digits, value, t.Reset)
		return
	}
	fmt.Fprintf(out, "π (truncated) = %s%s%s\n", t.Digits, digits.Summary(value, DisplayEdges), t.Reset)
	fmt.Fprintf(out, "(Tip: use %s-v%s to display all digits, or %s-o FILE%s to save them)\n",
		t.Warning, t.Reset, t.Warning, t.Reset)
}

// formatNumberString inserts thousands separators into a decimal string.
func formatNumberString(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.Grow(len(sign) + len(s) + (len(s)-1)/3)
	b.WriteString(sign)
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
