package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/picalc/internal/bigmul"
	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/ui"
)

// GetCalculatorsToRun returns the calculator named by cfg.Algo, or every
// registered calculator in name order for "all".
func GetCalculatorsToRun(cfg config.AppConfig, factory chudnovsky.CalculatorFactory) []chudnovsky.Calculator {
	if cfg.Algo != config.AllAlgorithms {
		if calc, err := factory.Get(cfg.Algo); err == nil {
			return []chudnovsky.Calculator{calc}
		}
		return nil
	}
	names := factory.List()
	calculators := make([]chudnovsky.Calculator, 0, len(names))
	for _, name := range names {
		if calc, err := factory.Get(name); err == nil {
			calculators = append(calculators, calc)
		}
	}
	return calculators
}

// PrintExecutionConfig prints what is about to be computed and with which
// tuning.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	t := ui.Current()
	opts := cfg.ToCalculationOptions()
	terms, _ := chudnovsky.EstimateTermsWithMargin(cfg.Digits, max(cfg.Margin, 0))

	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Computing %s%s%s digits of π (%s series terms) with a timeout of %s%s%s.\n",
		t.Digits, formatNumberString(fmt.Sprint(cfg.Digits)), t.Reset,
		formatNumberString(fmt.Sprint(terms)),
		t.Warning, cfg.Timeout, t.Reset)
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s, %s.\n",
		t.Secondary, runtime.NumCPU(), t.Reset, t.Secondary, runtime.Version(), t.Reset,
		bigmul.DetectCPUFeatures())
	fmt.Fprintf(out, "Thresholds: fork=%s%d%s terms, Karatsuba=%s%d%s bits, FFT=%s%d%s bits, guard=%d digits.\n",
		t.Secondary, orDefault(opts.ParallelThreshold, chudnovsky.DefaultParallelThreshold), t.Reset,
		t.Secondary, orDefault(opts.KaratsubaThreshold, bigmul.DefaultKaratsubaThreshold), t.Reset,
		t.Secondary, orDefault(opts.FFTThreshold, bigmul.DefaultFFTThreshold), t.Reset,
		max(cfg.Guard, 0))
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// PrintExecutionMode announces a single run or a comparison.
func PrintExecutionMode(calculators []chudnovsky.Calculator, out io.Writer) {
	t := ui.Current()
	if len(calculators) > 1 {
		fmt.Fprintf(out, "Execution mode: comparison of %d calculators.\n", len(calculators))
	} else if len(calculators) == 1 {
		fmt.Fprintf(out, "Execution mode: single calculation with %s%s%s.\n", t.Success, calculators[0].Name(), t.Reset)
	}
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
