package chudnovsky

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// GoldenData is one entry of testdata/pi_golden.json, produced by
// cmd/generate-golden from an independent Machin-formula oracle.
type GoldenData struct {
	Digits int64  `json:"digits"`
	Tail   string `json:"tail"`
	Result string `json:"result,omitempty"`
}

func loadGolden(t *testing.T) []GoldenData {
	t.Helper()
	file, err := os.Open(filepath.Join("testdata", "pi_golden.json"))
	if err != nil {
		t.Fatalf("Failed to open golden file: %v. Did you run 'go run ./cmd/generate-golden'?", err)
	}
	defer file.Close()

	var cases []GoldenData
	if err := json.NewDecoder(file).Decode(&cases); err != nil {
		t.Fatalf("Failed to decode golden file: %v", err)
	}
	return cases
}

func TestCalculatorsAgainstGoldenFile(t *testing.T) {
	t.Parallel()
	cases := loadGolden(t)

	calculators := map[string]Calculator{
		"Sequential": NewCalculator(&SequentialBinarySplit{}),
		"Parallel":   NewCalculator(&ParallelBinarySplit{}),
	}
	opts := Options{ParallelThreshold: 16, FFTThreshold: 30_000, KaratsubaThreshold: 8_000, ParallelMulThreshold: 10_000}

	for name, calc := range calculators {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, tc := range cases {
				t.Run(fmt.Sprintf("digits=%d", tc.Digits), func(t *testing.T) {
					t.Parallel()
					got, err := calc.Calculate(context.Background(), nil, 0, tc.Digits, opts)
					if err != nil {
						t.Fatalf("Calculate(%d) error = %v", tc.Digits, err)
					}
					s := got.String()
					if tc.Result != "" && s != tc.Result {
						t.Errorf("Mismatch for digits=%d.\nExpected: %s\nGot:      %s", tc.Digits, tc.Result, s)
					}
					if tail := s[len(s)-min(len(s), 20):]; tail != tc.Tail {
						t.Errorf("tail for digits=%d = %s, want %s", tc.Digits, tail, tc.Tail)
					}
				})
			}
		})
	}
}
