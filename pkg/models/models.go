// Package models defines the JSON documents picalc exchanges with other
// programs: the --json output of the CLI, the responses of the HTTP API and
// the records of a digit-frequency scan.
package models

import "time"

// Result is one π computation.
type Result struct {
	Algorithm string `json:"algorithm"`
	Digits    int64  `json:"digits"`
	// Terms is the number of series terms evaluated.
	Terms int64 `json:"terms,omitempty"`
	// Tail holds the last digits, for checking against published values.
	Tail string `json:"tail,omitempty"`
	// Value is the full expansion with its radix point ("3.1415..."). It is
	// only filled in when requested.
	Value      string  `json:"value,omitempty"`
	DurationMS float64 `json:"duration_ms"`
	Cached     bool    `json:"cached,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Report is the --json document of a CLI run.
type Report struct {
	Digits     int64     `json:"digits"`
	Results    []Result  `json:"results"`
	Consistent bool      `json:"consistent"`
	Generated  time.Time `json:"generated"`
}

// ScanMatch is a position in a digit stream where the digit frequencies are
// balanced.
type ScanMatch struct {
	Position int64      `json:"position"`
	Mean     float64    `json:"mean"`
	Variance float64    `json:"variance"`
	Counts   [10]uint64 `json:"counts"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Milliseconds converts d for the DurationMS fields.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
