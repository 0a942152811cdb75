package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/picalc/internal/errors"
)

// envBinding ties an environment variable (without prefix) to the flags
// that take precedence over it.
type envBinding struct {
	key   string
	flags []string
	apply func(val string) error
}

// isFlagSet reports whether any of names was given on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, n := range names {
			if f.Name == n {
				found = true
			}
		}
	})
	return found
}

func parseBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

func intBinding(key string, dst *int, flags ...string) envBinding {
	return envBinding{key, flags, func(val string) error {
		n, err := strconv.Atoi(val)
		if err == nil {
			*dst = n
		}
		return err
	}}
}

func boolBinding(key string, dst *bool, flags ...string) envBinding {
	return envBinding{key, flags, func(val string) error {
		b, err := parseBool(val)
		if err == nil {
			*dst = b
		}
		return err
	}}
}

func stringBinding(key string, dst *string, flags ...string) envBinding {
	return envBinding{key, flags, func(val string) error {
		*dst = val
		return nil
	}}
}

func bindings(cfg *AppConfig) []envBinding {
	return []envBinding{
		{"DIGITS", []string{"digits", "d"}, func(val string) error {
			n, err := strconv.ParseInt(val, 10, 64)
			if err == nil {
				cfg.Digits = n
			}
			return err
		}},
		{"TIMEOUT", []string{"timeout"}, func(val string) error {
			d, err := time.ParseDuration(val)
			if err == nil {
				cfg.Timeout = d
			}
			return err
		}},
		stringBinding("ALGO", &cfg.Algo, "algo"),
		intBinding("THRESHOLD", &cfg.Threshold, "threshold"),
		intBinding("FFT_THRESHOLD", &cfg.FFTThreshold, "fft-threshold"),
		intBinding("KARATSUBA_THRESHOLD", &cfg.KaratsubaThreshold, "karatsuba-threshold"),
		intBinding("GUARD", &cfg.Guard, "guard"),
		intBinding("MARGIN", &cfg.Margin, "margin"),
		intBinding("TAIL", &cfg.Tail, "tail"),
		boolBinding("VERBOSE", &cfg.Verbose, "v"),
		boolBinding("DETAILS", &cfg.Details, "details"),
		boolBinding("CALCULATE", &cfg.ShowValue, "calculate", "c"),
		boolBinding("JSON", &cfg.JSON, "json"),
		boolBinding("QUIET", &cfg.Quiet, "quiet", "q"),
		boolBinding("NO_COLOR", &cfg.NoColor, "no-color"),
		stringBinding("THEME", &cfg.Theme, "theme"),
		stringBinding("OUTPUT", &cfg.OutputFile, "output", "o"),
		stringBinding("SCAN", &cfg.ScanFile, "scan"),
		boolBinding("SERVER", &cfg.ServerMode, "server"),
		stringBinding("PORT", &cfg.Port, "port"),
		boolBinding("CALIBRATE", &cfg.Calibrate, "calibrate"),
		boolBinding("AUTO_CALIBRATE", &cfg.AutoCalibrate, "auto-calibrate"),
		stringBinding("CALIBRATION_PROFILE", &cfg.CalibrationProfile, "calibration-profile"),
	}
}

// applyEnvOverrides copies PICALC_* values into cfg for every setting not
// given as a flag. Unlike flags, a malformed value is reported rather than
// silently ignored.
func applyEnvOverrides(cfg *AppConfig, fs *flag.FlagSet) error {
	for _, b := range bindings(cfg) {
		val, ok := os.LookupEnv(EnvPrefix + b.key)
		if !ok || val == "" || isFlagSet(fs, b.flags...) {
			continue
		}
		if err := b.apply(val); err != nil {
			return apperrors.NewConfigError("invalid value %q for %s%s", val, EnvPrefix, b.key)
		}
	}
	return nil
}
