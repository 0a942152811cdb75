package calibration

// Calibration profile persistence.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/agbru/picalc/internal/bigmul"
)

// CalibrationProfile stores the results of a calibration run together with
// the hardware it was measured on, so stale profiles can be rejected.
type CalibrationProfile struct {
	// Hardware identification
	CPUModel    string `json:"cpu_model"`
	CPUFeatures string `json:"cpu_features"`
	NumCPU      int    `json:"num_cpu"`
	GOARCH      string `json:"goarch"`
	GOOS        string `json:"goos"`
	GoVersion   string `json:"go_version"`
	WordSize    int    `json:"word_size"`

	// OptimalParallelThreshold is in terms; the multiplication thresholds
	// are in bits.
	OptimalParallelThreshold  int `json:"optimal_parallel_threshold"`
	OptimalFFTThreshold       int `json:"optimal_fft_threshold"`
	OptimalKaratsubaThreshold int `json:"optimal_karatsuba_threshold"`

	ThresholdsByRange []RangeThresholds `json:"thresholds_by_range,omitempty"`

	CalibratedAt      time.Time `json:"calibrated_at"`
	CalibrationDigits int64     `json:"calibration_digits"`
	CalibrationTime   string    `json:"calibration_time"`

	ProfileVersion int `json:"profile_version"`
}

// RangeThresholds stores thresholds measured for one range of digit counts.
type RangeThresholds struct {
	// MinDigits and MaxDigits are inclusive.
	MinDigits          int64   `json:"min_digits"`
	MaxDigits          int64   `json:"max_digits"`
	ParallelThreshold  int     `json:"parallel_threshold"`
	FFTThreshold       int     `json:"fft_threshold"`
	KaratsubaThreshold int     `json:"karatsuba_threshold"`
	ConfidenceScore    float64 `json:"confidence_score"`
	MeasurementCount   int     `json:"measurement_count"`
}

const (
	// CurrentProfileVersion is bumped on incompatible format changes.
	CurrentProfileVersion = 1

	DefaultProfileFileName = ".picalc_calibration.json"
	// ProfileMaxAge is the age after which a stored profile is measured again.
	ProfileMaxAge = 30 * 24 * time.Hour
)

// DefaultDigitRanges are the digit-count buckets of ThresholdsByRange.
var DefaultDigitRanges = []struct {
	MinDigits, MaxDigits int64
	Label                string
}{
	{1, 99_999, "small"},
	{100_000, 999_999, "medium"},
	{1_000_000, 9_999_999, "large"},
	{10_000_000, 99_999_999, "xlarge"},
	{100_000_000, 1<<63 - 1, "huge"},
}

// GetDefaultProfilePath returns ~/.picalc_calibration.json, or the bare file
// name when the home directory is unknown.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

func resolveProfilePath(path string) string {
	if path == "" {
		return GetDefaultProfilePath()
	}
	return path
}

// NewProfile creates a profile stamped with the current hardware.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		CPUModel:       getCPUModel(),
		CPUFeatures:    bigmul.DetectCPUFeatures().String(),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       wordSize,
		CalibratedAt:   time.Now(),
		ProfileVersion: CurrentProfileVersion,
	}
}

func getCPUModel() string {
	return fmt.Sprintf("%s-%d-cores", runtime.GOARCH, runtime.NumCPU())
}

// LoadProfile reads a profile from path, or from the default path when path
// is empty.
func LoadProfile(path string) (*CalibrationProfile, error) {
	data, err := os.ReadFile(resolveProfilePath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile CalibrationProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile writes the profile as indented JSON with owner-only permissions.
func (p *CalibrationProfile) SaveProfile(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(resolveProfilePath(path), data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// IsValid reports whether the profile was produced by this format version on
// hardware with the same core count, architecture and word size, and holds a
// usable parallel threshold.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}
	if p.ProfileVersion != CurrentProfileVersion {
		return false
	}
	if p.NumCPU != runtime.NumCPU() || p.GOARCH != runtime.GOARCH || p.WordSize != wordSize {
		return false
	}
	return p.OptimalParallelThreshold > 0
}

// IsStale reports whether the profile is older than maxAge.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

func (p *CalibrationProfile) String() string {
	if p == nil {
		return "<nil profile>"
	}

	rangeInfo := ""
	if len(p.ThresholdsByRange) > 0 {
		rangeInfo = fmt.Sprintf(", Ranges: %d", len(p.ThresholdsByRange))
	}

	return fmt.Sprintf(
		"CalibrationProfile{CPU: %s, Parallel: %d terms, FFT: %d bits, Karatsuba: %d bits%s, Calibrated: %s}",
		p.CPUModel,
		p.OptimalParallelThreshold,
		p.OptimalFFTThreshold,
		p.OptimalKaratsubaThreshold,
		rangeInfo,
		p.CalibratedAt.Format(time.RFC3339),
	)
}

// GetThresholdsForDigits returns the thresholds of the range containing
// digits when that range has a confidence of at least 0.5, and the profile
// defaults otherwise.
func (p *CalibrationProfile) GetThresholdsForDigits(digits int64) (parallel, fft, karatsuba int) {
	if p == nil {
		return 0, 0, 0
	}

	for _, r := range p.ThresholdsByRange {
		if digits >= r.MinDigits && digits <= r.MaxDigits && r.ConfidenceScore >= 0.5 {
			return r.ParallelThreshold, r.FFTThreshold, r.KaratsubaThreshold
		}
	}
	return p.OptimalParallelThreshold, p.OptimalFFTThreshold, p.OptimalKaratsubaThreshold
}

// AddRangeThresholds inserts r, or merges it into the range with the same
// bounds by averaging weighted on measurement counts.
func (p *CalibrationProfile) AddRangeThresholds(r RangeThresholds) {
	for i, existing := range p.ThresholdsByRange {
		if existing.MinDigits != r.MinDigits || existing.MaxDigits != r.MaxDigits {
			continue
		}
		total := existing.MeasurementCount + r.MeasurementCount
		if total == 0 {
			return
		}
		ew := float64(existing.MeasurementCount) / float64(total)
		nw := float64(r.MeasurementCount) / float64(total)
		blend := func(a, b int) int { return int(float64(a)*ew + float64(b)*nw) }

		cur := &p.ThresholdsByRange[i]
		cur.ParallelThreshold = blend(existing.ParallelThreshold, r.ParallelThreshold)
		cur.FFTThreshold = blend(existing.FFTThreshold, r.FFTThreshold)
		cur.KaratsubaThreshold = blend(existing.KaratsubaThreshold, r.KaratsubaThreshold)
		cur.ConfidenceScore = existing.ConfidenceScore*ew + r.ConfidenceScore*nw
		cur.MeasurementCount = total
		return
	}

	p.ThresholdsByRange = append(p.ThresholdsByRange, r)
}

// digitRange returns the DefaultDigitRanges bucket containing digits.
func digitRange(digits int64) (minDigits, maxDigits int64) {
	for _, r := range DefaultDigitRanges {
		if digits >= r.MinDigits && digits <= r.MaxDigits {
			return r.MinDigits, r.MaxDigits
		}
	}
	return digits, digits
}

// InitializeDefaultRanges fills an empty range table with the profile
// defaults at low confidence.
func (p *CalibrationProfile) InitializeDefaultRanges() {
	if len(p.ThresholdsByRange) > 0 {
		return
	}

	for _, r := range DefaultDigitRanges {
		p.ThresholdsByRange = append(p.ThresholdsByRange, RangeThresholds{
			MinDigits:          r.MinDigits,
			MaxDigits:          r.MaxDigits,
			ParallelThreshold:  p.OptimalParallelThreshold,
			FFTThreshold:       p.OptimalFFTThreshold,
			KaratsubaThreshold: p.OptimalKaratsubaThreshold,
			ConfidenceScore:    0.3,
		})
	}
}

// LoadOrCreateProfile returns the stored profile and true, or a fresh profile
// and false when none exists or it does not match this machine.
func LoadOrCreateProfile(path string) (*CalibrationProfile, bool) {
	profile, err := LoadProfile(path)
	if err != nil || !profile.IsValid() {
		return NewProfile(), false
	}
	return profile, true
}

// ProfileExists checks if a calibration profile exists at the given path.
func ProfileExists(path string) bool {
	_, err := os.Stat(resolveProfilePath(path))
	return err == nil
}
