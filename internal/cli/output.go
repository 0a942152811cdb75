package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/digits"
	"github.com/agbru/picalc/internal/ui"
	"github.com/agbru/picalc/pkg/models"
)

// OutputConfig controls how a result leaves the process.
type OutputConfig struct {
	// OutputFile receives the digits when not empty.
	OutputFile string
	Quiet      bool
	Display    DisplayOptions
}

// WriteResultToFile writes a commented header followed by the expansion
// with its radix point, creating parent directories as needed.
func WriteResultToFile(pi *big.Int, n int64, duration time.Duration, algo, path string) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# π to %d decimal digits\n", n)
	fmt.Fprintf(w, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "# Algorithm: %s\n", algo)
	fmt.Fprintf(w, "# Duration: %s\n", duration)
	fmt.Fprintf(w, "# Last digits: %s\n\n", digits.LastDigits(pi, min(20, int(n))))
	w.WriteString(digits.Format(pi, n))
	w.WriteByte('\n')
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// DisplayQuietResult prints the expansion alone, for scripts.
func DisplayQuietResult(out io.Writer, pi *big.Int, n int64) {
	fmt.Fprintln(out, digits.Format(pi, n))
}

// DisplayResultWithConfig prints the result in the configured mode and
// saves it when an output file is set.
func DisplayResultWithConfig(out io.Writer, pi *big.Int, n int64, duration time.Duration, algo string, cfg OutputConfig) error {
	if cfg.Quiet {
		DisplayQuietResult(out, pi, n)
	} else {
		DisplayResult(pi, n, duration, cfg.Display, out)
	}

	if cfg.OutputFile == "" {
		return nil
	}
	if err := WriteResultToFile(pi, n, duration, algo, cfg.OutputFile); err != nil {
		return err
	}
	if !cfg.Quiet {
		t := ui.Current()
		fmt.Fprintf(out, "\n%s✓ Digits saved to: %s%s%s\n", t.Success, t.Secondary, cfg.OutputFile, t.Reset)
	}
	return nil
}

// NewResult builds the JSON record of one calculation. The full value is
// included only when withValue is set.
func NewResult(algo string, n int64, pi *big.Int, duration time.Duration, err error, tail int, withValue bool) models.Result {
	r := models.Result{Algorithm: algo, Digits: n, DurationMS: models.Milliseconds(duration)}
	if terms, terr := chudnovsky.EstimateTerms(n); terr == nil {
		r.Terms = terms
	}
	if err != nil {
		r.Error = err.Error()
		return r
	}
	if tail > 0 {
		r.Tail = digits.LastDigits(pi, min(tail, int(n)))
	}
	if withValue {
		r.Value = digits.Format(pi, n)
	}
	return r
}

// WriteJSONReport encodes report as indented JSON.
func WriteJSONReport(out io.Writer, report models.Report) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// NewOutputConfig derives the output settings from the application flags.
func NewOutputConfig(cfg config.AppConfig) OutputConfig {
	return OutputConfig{
		OutputFile: cfg.OutputFile,
		Quiet:      cfg.Quiet,
		Display: DisplayOptions{
			Verbose:    cfg.Verbose,
			Details:    cfg.Details,
			Multiplier: chudnovsky.AdaptiveMultiplier(cfg.ToCalculationOptions()),
			ShowValue:  cfg.ShowValue,
			Tail:       cfg.Tail,
		},
	}
}
