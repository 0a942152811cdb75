package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agbru/picalc/internal/calibration"
	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/digits"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/server"
	"github.com/agbru/picalc/internal/ui"
)

// Application is one picalc invocation: the parsed configuration plus the
// calculators it may run.
type Application struct {
	Config  config.AppConfig
	Factory chudnovsky.CalculatorFactory
	// ErrWriter receives diagnostics and logs (typically os.Stderr).
	ErrWriter io.Writer
	Logger    logging.Logger
}

// New parses args (including the program name) and resolves the tuning
// thresholds from a cached calibration profile, or from hardware heuristics
// when there is none.
func New(args []string, errWriter io.Writer) (*Application, error) {
	factory := chudnovsky.GlobalFactory()

	programName := "picalc"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, factory.List())
	if err != nil {
		return nil, err
	}

	if cfgWithProfile, loaded := calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile); loaded && !thresholdsOverridden(cfg) {
		cfg = cfgWithProfile
	} else {
		cfg = applyAdaptiveThresholds(cfg)
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
		Logger:    configureLogging(cfg, errWriter),
	}, nil
}

// configureLogging points zerolog's global logger, used by the calculators,
// at w and returns an adapter for the application's own lines. Debug lines
// are only emitted with -v.
func configureLogging(cfg config.AppConfig, w io.Writer) logging.Logger {
	adapter := logging.New(w, logging.Options{Verbose: cfg.Verbose, Console: true, Component: "picalc"})
	log.Logger = adapter.Zerolog()
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	return adapter
}

// thresholdsOverridden reports whether any tuning flag differs from its
// default, in which case a stored profile must not replace it.
func thresholdsOverridden(cfg config.AppConfig) bool {
	return cfg.Threshold != chudnovsky.DefaultParallelThreshold || cfg.FFTThreshold != 0 || cfg.KaratsubaThreshold != 0
}

// applyAdaptiveThresholds replaces thresholds left at their defaults with
// estimates for this machine. Explicit flags are preserved.
func applyAdaptiveThresholds(cfg config.AppConfig) config.AppConfig {
	par, fft, kar := calibration.EstimatedThresholds()
	if cfg.Threshold == chudnovsky.DefaultParallelThreshold {
		cfg.Threshold = par
	}
	if cfg.FFTThreshold == 0 {
		cfg.FFTThreshold = fft
	}
	if cfg.KaratsubaThreshold == 0 {
		cfg.KaratsubaThreshold = kar
	}
	return cfg
}

// Run dispatches to the mode selected by the flags and returns the exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}

	ui.Init(a.Config.NoColor, a.Config.Theme)

	switch {
	case a.Config.ServerMode:
		return a.runServer()
	case a.Config.Calibrate:
		return a.runCalibration(ctx, out)
	case a.Config.ScanFile != "":
		return a.runScan(ctx, out)
	}

	a.Config = a.runAutoCalibrationIfEnabled(ctx, out)
	return a.runCalculate(ctx, out)
}

func (a *Application) runServer() int {
	srv := server.NewServer(a.Factory, a.Config)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, cleanup := SetupLifecycle(ctx, a.Config.Timeout)
	defer cleanup.Cleanup()
	return calibration.RunCalibrationWithOptions(ctx, out, a.Factory.GetAll(), calibration.CalibrationOptions{
		ProfilePath: a.Config.CalibrationProfile,
		SaveProfile: true,
	})
}

// runAutoCalibrationIfEnabled returns the configuration with calibrated
// thresholds when --auto-calibrate is set and calibration succeeds.
func (a *Application) runAutoCalibrationIfEnabled(ctx context.Context, out io.Writer) config.AppConfig {
	if !a.Config.AutoCalibrate {
		return a.Config
	}
	progressOut := out
	if a.Config.Quiet || a.Config.JSON {
		progressOut = io.Discard
	}
	if updated, ok := calibration.AutoCalibrate(ctx, a.Config, progressOut, a.Factory.GetAll()); ok {
		return updated
	}
	a.Logger.Warn("auto-calibration failed, keeping the configured thresholds")
	return a.Config
}

// runScan reports the balanced prefixes of a digit file; "-" reads stdin.
func (a *Application) runScan(ctx context.Context, out io.Writer) int {
	ctx, cleanup := SetupLifecycle(ctx, a.Config.Timeout)
	defer cleanup.Cleanup()

	in := io.Reader(os.Stdin)
	if a.Config.ScanFile != "-" {
		f, err := os.Open(a.Config.ScanFile)
		if err != nil {
			fmt.Fprintf(a.ErrWriter, "Error opening scan input: %v\n", err)
			return apperrors.ExitErrorConfig
		}
		defer f.Close()
		in = f
	}

	printer := &cli.ScanPrinter{Out: out, JSON: a.Config.JSON}
	scanner := &digits.Scanner{Logger: a.Logger}
	res, err := scanner.Scan(ctx, in, printer.Match)
	if err != nil {
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, ui.Colors{})
	}
	printer.Summary(res)
	return apperrors.ExitSuccess
}

// runCalculate runs the selected calculators under the configured timeout
// and reports the results as JSON, bare digits or a comparison summary.
func (a *Application) runCalculate(ctx context.Context, out io.Writer) int {
	ctx, cleanup := SetupLifecycle(ctx, a.Config.Timeout)
	defer cleanup.Cleanup()

	calculatorsToRun := cli.GetCalculatorsToRun(a.Config, a.Factory)
	if len(calculatorsToRun) == 0 {
		fmt.Fprintf(a.ErrWriter, "No calculator available for algorithm %q.\n", a.Config.Algo)
		return apperrors.ExitErrorConfig
	}

	if !a.Config.JSON && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(calculatorsToRun, out)
	}

	progressOut := out
	if a.Config.Quiet || a.Config.JSON {
		progressOut = io.Discard
	}

	results := orchestration.ExecuteCalculations(ctx, calculatorsToRun, a.Config, progressOut)

	switch {
	case a.Config.JSON:
		return a.printJSONResults(results, out)
	case a.Config.Quiet:
		return a.printQuietResult(results, out)
	default:
		return orchestration.AnalyzeComparisonResults(results, a.Config, out)
	}
}

func (a *Application) printJSONResults(results []orchestration.CalculationResult, out io.Writer) int {
	if err := cli.WriteJSONReport(out, orchestration.BuildReport(results, a.Config)); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error encoding JSON: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return orchestration.ExitCodeFor(results, a.Config.Digits)
}

// printQuietResult prints the digits of the fastest successful calculator,
// or the first failure to ErrWriter.
func (a *Application) printQuietResult(results []orchestration.CalculationResult, out io.Writer) int {
	best := orchestration.FindBestResult(results)
	if best == nil {
		for _, res := range results {
			if res.Err != nil {
				return apperrors.HandleCalculationError(res.Err, res.Duration, a.ErrWriter, ui.Colors{})
			}
		}
		return apperrors.ExitErrorGeneric
	}
	if err := orchestration.CheckConsistency(results, a.Config.Digits); err != nil {
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, ui.Colors{})
	}

	if err := cli.DisplayResultWithConfig(out, best.Result, a.Config.Digits, best.Duration, best.Name, cli.NewOutputConfig(a.Config)); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// IsHelpError reports whether err comes from -h or --help.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
