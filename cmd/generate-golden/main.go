package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

// GoldenData represents a single test case in the golden file
type GoldenData struct {
	Digits int64  `json:"digits"`
	Tail   string `json:"tail"`
	Result string `json:"result,omitempty"`
}

const (
	tailLength = 20
	// Full expansions are only stored up to this many digits to keep the
	// file readable; larger cases carry the tail only.
	maxStoredDigits = 1000
	guardDigits     = 10
)

func main() {
	outputDir := flag.String("out", "internal/chudnovsky/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "pi_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// Term boundaries (14, 15, 28, 42), round sizes, and a few values
	// around the parallel fork thresholds.
	targets := []int64{
		1, 2, 5, 10, 14, 15, 28, 42, 50, 100,
		166, 244, 306, 500, 1000,
		2000, 5000, 10000,
	}

	var data []GoldenData

	fmt.Println("Generating golden data...")

	for _, n := range targets {
		s := machinPi(n).String()
		entry := GoldenData{Digits: n, Tail: s[len(s)-min(len(s), tailLength):]}
		if n <= maxStoredDigits {
			entry.Result = s
		}
		data = append(data, entry)
		fmt.Printf("Generated pi to %d digits\n", n)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

// machinPi returns floor(π·10^n) from Machin's formula
// π = 16·atan(1/5) − 4·atan(1/239), evaluated in fixed point with guard
// digits. It shares no code with the Chudnovsky calculators.
func machinPi(n int64) *big.Int {
	unity := new(big.Int).Exp(big.NewInt(10), big.NewInt(n+guardDigits), nil)

	pi := new(big.Int).Mul(big.NewInt(16), arctanInv(5, unity))
	pi.Sub(pi, new(big.Int).Mul(big.NewInt(4), arctanInv(239, unity)))

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(guardDigits), nil)
	return pi.Quo(pi, scale)
}

// arctanInv returns atan(1/x)·unity via the alternating Taylor series.
func arctanInv(x int64, unity *big.Int) *big.Int {
	bx := big.NewInt(x)
	x2 := new(big.Int).Mul(bx, bx)

	power := new(big.Int).Quo(unity, bx) // unity / x^(2k+1)
	sum := new(big.Int).Set(power)
	term := new(big.Int)
	for k := int64(1); power.Sign() != 0; k++ {
		power.Quo(power, x2)
		term.Quo(power, big.NewInt(2*k+1))
		if k%2 == 1 {
			sum.Sub(sum, term)
		} else {
			sum.Add(sum, term)
		}
	}
	return sum
}
