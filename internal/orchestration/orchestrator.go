// Package orchestration runs one or more π calculators concurrently, drives
// the progress display and compares their results.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/config"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/ui"
	"github.com/agbru/picalc/pkg/models"
)

// CalculationResult is the outcome of one calculator run.
type CalculationResult struct {
	// Name is the calculator name, e.g. "parallel".
	Name string
	// Result is floor(π·10^digits), nil on error.
	Result   *big.Int
	Duration time.Duration
	Err      error
}

// ProgressBufferMultiplier sizes the progress channel per calculator, so a
// slow terminal does not block the splitters.
const ProgressBufferMultiplier = 5

// ExecuteCalculations runs every calculator for cfg.Digits concurrently and
// returns their results in input order. Progress is drawn on out.
//
// A failing calculator does not cancel the others: each result carries its
// own error.
func ExecuteCalculations(ctx context.Context, calculators []chudnovsky.Calculator, cfg config.AppConfig, out io.Writer) []CalculationResult {
	var g errgroup.Group
	results := make([]CalculationResult, len(calculators))
	progressChan := make(chan chudnovsky.ProgressUpdate, len(calculators)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(calculators), out)

	chudnovsky.NewMetricsObserver().ResetMetrics()
	opts := cfg.ToCalculationOptions()
	for i, calc := range calculators {
		g.Go(func() error {
			start := time.Now()
			res, err := calc.Calculate(ctx, progressChan, i, cfg.Digits, opts)
			results[i] = CalculationResult{
				Name:     calc.Name(),
				Result:   res,
				Duration: time.Since(start),
				Err:      apperrors.NewCalculationError(calc.Name(), cfg.Digits, err),
			}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// FindBestResult returns the fastest successful result, or nil.
func FindBestResult(results []CalculationResult) *CalculationResult {
	var best *CalculationResult
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		if best == nil || results[i].Duration < best.Duration {
			best = &results[i]
		}
	}
	return best
}

// CheckConsistency returns a MismatchError when two successful results
// differ, naming the first digit at which they do.
func CheckConsistency(results []CalculationResult, digits int64) error {
	var ref *CalculationResult
	for i := range results {
		res := &results[i]
		if res.Err != nil || res.Result == nil {
			continue
		}
		if ref == nil {
			ref = res
			continue
		}
		if res.Result.Cmp(ref.Result) != 0 {
			return apperrors.MismatchError{
				Digits:     digits,
				FirstDiff:  firstDifference(ref.Result.String(), res.Result.String()),
				Algorithms: []string{ref.Name, res.Name},
			}
		}
	}
	return nil
}

// firstDifference is the index of the first differing character, or -1 when
// one string is a prefix of the other.
func firstDifference(a, b string) int64 {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return int64(i)
		}
	}
	return -1
}

// AnalyzeComparisonResults prints the comparison table and the global
// status, then the best result. It returns the process exit code.
func AnalyzeComparisonResults(results []CalculationResult, cfg config.AppConfig, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	t := ui.Current()
	var firstError error
	successCount := 0

	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sAlgorithm%s\t%sDuration%s\t%sStatus%s\n", t.Bold, t.Reset, t.Bold, t.Reset, t.Bold, t.Reset)
	for _, res := range results {
		var status string
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", t.Error, res.Err, t.Reset)
			if firstError == nil {
				firstError = res.Err
			}
		} else {
			status = fmt.Sprintf("%s✅ Success%s", t.Success, t.Reset)
			successCount++
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\n",
			t.Primary, res.Name, t.Reset,
			t.Warning, cli.FormatExecutionDuration(res.Duration), t.Reset,
			status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	if successCount == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No algorithm could complete the calculation.\n")
		return apperrors.HandleCalculationError(firstError, 0, out, ui.Colors{})
	}

	if err := CheckConsistency(results, cfg.Digits); err != nil {
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! An inconsistency was detected between the results of the algorithms.\n")
		return apperrors.HandleCalculationError(err, 0, out, ui.Colors{})
	}

	fmt.Fprintf(out, "\nGlobal Status: Success. All valid results are consistent.\n")
	best := FindBestResult(results)
	if err := cli.DisplayResultWithConfig(out, best.Result, cfg.Digits, best.Duration, best.Name, cli.NewOutputConfig(cfg)); err != nil {
		fmt.Fprintf(out, "Error saving result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// BuildReport converts results into the JSON report. Values are included
// only when cfg.ShowValue is set.
func BuildReport(results []CalculationResult, cfg config.AppConfig) models.Report {
	report := models.Report{
		Digits:     cfg.Digits,
		Results:    make([]models.Result, len(results)),
		Consistent: CheckConsistency(results, cfg.Digits) == nil,
		Generated:  time.Now().UTC(),
	}
	for i, res := range results {
		report.Results[i] = cli.NewResult(res.Name, cfg.Digits, res.Result, res.Duration, res.Err, cfg.Tail, cfg.ShowValue)
	}
	return report
}

// ExitCodeFor is the exit code of a set of results: success when at least
// one calculator succeeded and all successful results agree.
func ExitCodeFor(results []CalculationResult, digits int64) int {
	if FindBestResult(results) == nil {
		for _, res := range results {
			if res.Err != nil {
				return apperrors.ExitCode(res.Err)
			}
		}
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitCode(CheckConsistency(results, digits))
}
