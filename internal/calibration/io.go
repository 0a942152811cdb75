package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/ui"
)

// formatThreshold labels a fork threshold for the summary table.
func formatThreshold(threshold int) string {
	if threshold >= MaxParallelThreshold {
		return "Sequential"
	}
	return fmt.Sprintf("%d terms", threshold)
}

// formatBits labels a multiplication threshold.
func formatBits(bits int) string {
	switch {
	case bits < 0:
		return "off"
	case bits == 0:
		return "default"
	default:
		return fmt.Sprintf("%d bits", bits)
	}
}

// printCalibrationResults formats and prints the calibration results table.
func printCalibrationResults(out io.Writer, results []calibrationResult, bestThreshold int) {
	t := ui.Current()
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sThreshold%s    │ %sExecution Time%s\n", t.Bold, t.Reset, t.Bold, t.Reset)
	fmt.Fprintf(tw, "  %s┼%s\n", strings.Repeat("─", 14), strings.Repeat("─", 25))
	for _, res := range results {
		durationStr := fmt.Sprintf("%sN/A%s", t.Error, t.Reset)
		if res.Err == nil {
			durationStr = cli.FormatExecutionDuration(res.Duration)
		}
		highlight := ""
		if res.Threshold == bestThreshold && res.Err == nil {
			highlight = fmt.Sprintf(" %s(Optimal)%s", t.Success, t.Reset)
		}
		fmt.Fprintf(tw, "  %s%-12s%s │ %s%s%s%s\n",
			t.Primary, formatThreshold(res.Threshold), t.Reset, t.Warning, durationStr, t.Reset, highlight)
	}
	tw.Flush()
}

func thresholdSummary(cfg config.AppConfig) string {
	t := ui.Current()
	return fmt.Sprintf("fork=%s%s%s, FFT=%s%s%s, Karatsuba=%s%s%s",
		t.Warning, formatThreshold(cfg.Threshold), t.Reset,
		t.Warning, formatBits(cfg.FFTThreshold), t.Reset,
		t.Warning, formatBits(cfg.KaratsubaThreshold), t.Reset)
}

func printCalibrationOutput(cfg config.AppConfig, out io.Writer) {
	t := ui.Current()
	fmt.Fprintf(out, "%sAuto-calibration%s: %s\n", t.Success, t.Reset, thresholdSummary(cfg))
}
