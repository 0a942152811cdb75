// Package config parses picalc's command line and PICALC_* environment into
// an AppConfig and validates it. Flags win over the environment, which wins
// over the defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/agbru/picalc/internal/chudnovsky"
	apperrors "github.com/agbru/picalc/internal/errors"
)

// EnvPrefix prefixes every environment variable read by picalc.
const EnvPrefix = "PICALC_"

// Defaults.
const (
	DefaultDigits  int64 = 100_000
	DefaultTimeout       = 5 * time.Minute
	DefaultPort          = "8080"
	DefaultAlgo          = "parallel"
	// AllAlgorithms runs every registered calculator and compares them.
	AllAlgorithms = "all"
	// DefaultTail is the number of trailing digits shown in the summary.
	DefaultTail = 20
)

// AppConfig is the parsed configuration of one picalc invocation.
type AppConfig struct {
	// Digits is the number of decimals of π after the leading 3.
	Digits  int64
	Timeout time.Duration
	Algo    string

	// Threshold is the interval length, in terms, at which the splitter
	// forks. Zero selects the default.
	Threshold          int
	FFTThreshold       int
	KaratsubaThreshold int
	// Guard and Margin are the extra digits and extra terms computed beyond
	// the estimate.
	Guard  int
	Margin int

	Verbose   bool
	Details   bool
	ShowValue bool
	Tail      int
	JSON      bool
	Quiet     bool
	NoColor   bool
	Theme     string

	OutputFile string
	ScanFile   string

	ServerMode bool
	Port       string

	Calibrate          bool
	AutoCalibrate      bool
	CalibrationProfile string

	ShowVersion bool
}

// ToCalculationOptions converts the tuning flags to calculator options.
// A zero Guard or Margin next to a non-zero one means "none", which
// chudnovsky.Options expresses as a negative value. Both zero is the zero
// AppConfig and keeps the calculator defaults.
func (c AppConfig) ToCalculationOptions() chudnovsky.Options {
	opts := chudnovsky.Options{
		ParallelThreshold:  c.Threshold,
		FFTThreshold:       c.FFTThreshold,
		KaratsubaThreshold: c.KaratsubaThreshold,
		GuardDigits:        c.Guard,
		MarginTerms:        c.Margin,
	}
	if c.Guard == 0 && c.Margin == 0 {
		return opts
	}
	if c.Guard == 0 {
		opts.GuardDigits = -1
	}
	if c.Margin == 0 {
		opts.MarginTerms = -1
	}
	return opts
}

// Validate checks ranges and that Algo names a registered calculator or
// "all".
func (c AppConfig) Validate(availableAlgos []string) error {
	switch {
	case c.Digits <= 0:
		return apperrors.NewConfigError("digits must be strictly positive: %d", c.Digits)
	case c.Digits > chudnovsky.MaxDigits:
		return apperrors.NewConfigError("digits exceeds the supported maximum of %d: %d", chudnovsky.MaxDigits, c.Digits)
	case c.Timeout <= 0:
		return apperrors.NewConfigError("timeout value must be strictly positive")
	case c.Threshold < 0:
		return apperrors.NewConfigError("parallel threshold cannot be negative: %d", c.Threshold)
	case c.FFTThreshold < 0:
		return apperrors.NewConfigError("FFT threshold cannot be negative: %d", c.FFTThreshold)
	case c.KaratsubaThreshold < 0:
		return apperrors.NewConfigError("Karatsuba threshold cannot be negative: %d", c.KaratsubaThreshold)
	case c.Guard < 0:
		return apperrors.NewConfigError("guard digits cannot be negative: %d", c.Guard)
	case c.Margin < 0:
		return apperrors.NewConfigError("margin terms cannot be negative: %d", c.Margin)
	case c.Guard == 0 && c.Margin == 0:
		return apperrors.NewConfigError("guard digits and margin terms cannot both be zero")
	case c.Tail < 0:
		return apperrors.NewConfigError("tail length cannot be negative: %d", c.Tail)
	}
	if c.Algo != AllAlgorithms && !slices.Contains(availableAlgos, c.Algo) {
		return apperrors.NewConfigError("unrecognized algorithm: '%s'. Valid algorithms are: '%s' or [%s]",
			c.Algo, AllAlgorithms, strings.Join(availableAlgos, ", "))
	}
	return nil
}

// ErrInvalidConfig is returned by ParseConfig after a validation failure has
// been printed with the usage text.
var ErrInvalidConfig = errors.New("invalid configuration")

// ParseConfig parses args (without the program name). Parse errors and
// usage are written to errorWriter. flag.ErrHelp is returned for -h.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableAlgos []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	cfg := AppConfig{}
	fs.Int64Var(&cfg.Digits, "digits", DefaultDigits, "Number of decimal digits of π to compute.")
	fs.Int64Var(&cfg.Digits, "d", DefaultDigits, "Number of digits (shorthand).")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the calculation.")
	fs.StringVar(&cfg.Algo, "algo", DefaultAlgo,
		fmt.Sprintf("Calculator to use: '%s' to compare, or one of [%s].", AllAlgorithms, strings.Join(availableAlgos, ", ")))
	fs.IntVar(&cfg.Threshold, "threshold", chudnovsky.DefaultParallelThreshold, "Interval length (in terms) at which the split recursion forks.")
	fs.IntVar(&cfg.FFTThreshold, "fft-threshold", 0, "Operand size (in bits) above which FFT multiplication is used (0 for the default).")
	fs.IntVar(&cfg.KaratsubaThreshold, "karatsuba-threshold", 0, "Operand size (in bits) above which parallel Karatsuba is used (0 for the default).")
	fs.IntVar(&cfg.Guard, "guard", chudnovsky.DefaultGuardDigits, "Extra digits computed and then truncated.")
	fs.IntVar(&cfg.Margin, "margin", chudnovsky.DefaultMarginTerms, "Extra series terms beyond the estimate.")

	fs.BoolVar(&cfg.Verbose, "v", false, "Display the full digit string and debug logs.")
	fs.BoolVar(&cfg.Details, "details", false, "Display performance details and result metadata.")
	fs.BoolVar(&cfg.ShowValue, "calculate", false, "Print the digits of π.")
	fs.BoolVar(&cfg.ShowValue, "c", false, "Print the digits of π (shorthand).")
	fs.IntVar(&cfg.Tail, "tail", DefaultTail, "Number of trailing digits shown in the summary.")
	fs.BoolVar(&cfg.JSON, "json", false, "Output results in JSON format.")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Quiet mode: print only the result.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR).")
	fs.StringVar(&cfg.Theme, "theme", "dark", "Color theme: dark, light or none.")

	fs.StringVar(&cfg.OutputFile, "output", "", "Write the digits to this file.")
	fs.StringVar(&cfg.OutputFile, "o", "", "Output file (shorthand).")
	fs.StringVar(&cfg.ScanFile, "scan", "", "Scan a digit file for balanced digit frequencies instead of computing.")

	fs.BoolVar(&cfg.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&cfg.Port, "port", DefaultPort, "Port to listen on in server mode.")

	fs.BoolVar(&cfg.Calibrate, "calibrate", false, "Benchmark thresholds for this machine and save a profile.")
	fs.BoolVar(&cfg.AutoCalibrate, "auto-calibrate", false, "Run a quick calibration at startup.")
	fs.StringVar(&cfg.CalibrationProfile, "calibration-profile", "", "Calibration profile path (default ~/.picalc_calibration.json).")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print version information and exit.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if err := applyEnvOverrides(&cfg, fs); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		return AppConfig{}, err
	}

	cfg.Algo = strings.ToLower(cfg.Algo)
	if cfg.ShowVersion {
		return cfg, nil
	}
	if err := cfg.Validate(availableAlgos); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}
