package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/agbru/picalc/internal/digits"
	"github.com/agbru/picalc/internal/ui"
	"github.com/agbru/picalc/pkg/models"
)

// ScanPrinter reports balanced positions of a digit scan, as text lines or
// as JSON lines.
type ScanPrinter struct {
	Out  io.Writer
	JSON bool
}

// Match is a digits.MatchFunc.
func (p *ScanPrinter) Match(pos int64, rec digits.Record) error {
	if p.JSON {
		return json.NewEncoder(p.Out).Encode(models.ScanMatch{
			Position: pos,
			Mean:     rec.Mean(),
			Variance: rec.Variance(),
			Counts:   rec.Counts(),
		})
	}
	t := ui.Current()
	_, err := fmt.Fprintf(p.Out, "byte %s%s%s: %v\n", t.Secondary, formatNumberString(fmt.Sprint(pos)), t.Reset, rec)
	return err
}

// Summary prints the totals of a finished scan.
func (p *ScanPrinter) Summary(res digits.Result) {
	if p.JSON {
		return
	}
	t := ui.Current()
	fmt.Fprintf(p.Out, "\n%s--- Scan summary ---%s\n", t.Bold, t.Reset)
	fmt.Fprintf(p.Out, "Bytes read : %s\n", formatNumberString(fmt.Sprint(res.Bytes)))
	fmt.Fprintf(p.Out, "Digits     : %s\n", formatNumberString(fmt.Sprint(res.Final.Total())))
	fmt.Fprintf(p.Out, "Matches    : %s\n", formatNumberString(fmt.Sprint(res.Matches)))
	fmt.Fprintf(p.Out, "Final      : %v\n", res.Final)
}
