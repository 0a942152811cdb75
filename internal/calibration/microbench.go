package calibration

// Fast multiplication micro-benchmarks for quick threshold estimation.

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/agbru/picalc/internal/bigmul"
	"github.com/agbru/picalc/internal/parallel"
)

const (
	// MicroBenchIterations is the number of timed multiplications per test.
	MicroBenchIterations = 3

	// MicroBenchTimeout is the maximum time for the entire micro-benchmark suite.
	MicroBenchTimeout = 250 * time.Millisecond
)

// MicroBenchTestSizes are the operand sizes, in words, spanning the tier
// crossovers of bigmul.Adaptive.
var MicroBenchTestSizes = []int{
	500,   // ~32K bits, math/big territory
	2000,  // ~128K bits, near the Karatsuba threshold
	8000,  // ~512K bits, near the FFT threshold
	16000, // ~1M bits, FFT territory
}

// benchMultipliers are the tiers compared at every size.
var benchMultipliers = []bigmul.Multiplier{bigmul.Standard{}, bigmul.Karatsuba{}, bigmul.FFT{}}

// MicroBenchmark times the multiplication tiers on synthetic operands.
type MicroBenchmark struct {
	TestSizes  []int
	Iterations int
	Timeout    time.Duration
	// Concurrency bounds the tests run at once; 0 means runtime.NumCPU().
	Concurrency int
}

// ThresholdResults contains the thresholds estimated by micro-benchmarks.
type ThresholdResults struct {
	// FFTThreshold and KaratsubaThreshold are in bits; DisabledThreshold
	// means the tier never won.
	FFTThreshold       int
	KaratsubaThreshold int
	// Confidence is a score from 0 to 1.
	Confidence float64
	Duration   time.Duration
}

type testResult struct {
	wordSize   int
	multiplier string
	duration   time.Duration
	err        error
}

// NewMicroBenchmark creates a new MicroBenchmark with default settings.
func NewMicroBenchmark() *MicroBenchmark {
	return &MicroBenchmark{
		TestSizes:  MicroBenchTestSizes,
		Iterations: MicroBenchIterations,
		Timeout:    MicroBenchTimeout,
	}
}

// RunQuick runs every (size, tier) test under mb.Timeout and derives the
// crossover sizes where Karatsuba and FFT beat math/big.
func (mb *MicroBenchmark) RunQuick(ctx context.Context) (ThresholdResults, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, mb.Timeout)
	defer cancel()

	results := mb.runParallelTests(ctx)

	thresholds := analyzeResults(results)
	thresholds.Duration = time.Since(start)

	return thresholds, nil
}

func (mb *MicroBenchmark) runParallelTests(ctx context.Context) []testResult {
	var (
		results []testResult
		mu      sync.Mutex
		wg      sync.WaitGroup
	)
	sem := parallel.NewSemaphore(mb.Concurrency)

	for _, size := range mb.TestSizes {
		for _, mul := range benchMultipliers {
			wg.Add(1)
			go func(size int, mul bigmul.Multiplier) {
				defer wg.Done()
				if err := sem.Acquire(ctx); err != nil {
					return
				}
				defer sem.Release()

				dur, err := mb.runSingleTest(ctx, size, mul)

				mu.Lock()
				results = append(results, testResult{
					wordSize:   size,
					multiplier: mul.Name(),
					duration:   dur,
					err:        err,
				})
				mu.Unlock()
			}(size, mul)
		}
	}

	wg.Wait()
	return results
}

func (mb *MicroBenchmark) runSingleTest(ctx context.Context, words int, mul bigmul.Multiplier) (time.Duration, error) {
	x := generateTestNumber(words, 0)
	y := generateTestNumber(words, 1)
	z := new(big.Int)

	// Warm up
	mul.Multiply(z, x, y)

	iterations := max(mb.Iterations, 1)
	var total time.Duration
	for range iterations {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		start := time.Now()
		mul.Multiply(z, x, y)
		total += time.Since(start)
	}

	return total / time.Duration(iterations), nil
}

// generateTestNumber returns a deterministic operand with the given word
// count; seed varies the bit pattern.
func generateTestNumber(words, seed int) *big.Int {
	if words <= 0 {
		return new(big.Int)
	}
	bits := make([]big.Word, words)
	for i := range bits {
		bits[i] = big.Word(0xAAAAAAAAAAAAAAAA ^ uint64((i+seed)*0x1234567))
	}
	// Keep the top word non-zero so the bit length is exact.
	bits[words-1] |= 1 << (wordSize - 1)
	return new(big.Int).SetBits(bits)
}

// analyzeResults turns per-size timings into thresholds. Missing data keeps
// the heuristic estimates with a lower confidence.
func analyzeResults(results []testResult) ThresholdResults {
	tr := ThresholdResults{
		FFTThreshold:       EstimateOptimalFFTThreshold(),
		KaratsubaThreshold: EstimateOptimalKaratsubaThreshold(),
		Confidence:         0.5,
	}

	bySize := make(map[int]map[string]time.Duration)
	for _, r := range results {
		if r.err != nil {
			continue
		}
		if bySize[r.wordSize] == nil {
			bySize[r.wordSize] = make(map[string]time.Duration)
		}
		bySize[r.wordSize][r.multiplier] = r.duration
	}

	if len(bySize) == 0 {
		tr.Confidence = 0
		return tr
	}

	if t, ok := findCrossover(bySize, bigmul.FFT{}.Name()); ok {
		tr.FFTThreshold = t
		tr.Confidence += 0.25
	}
	if t, ok := findCrossover(bySize, bigmul.Karatsuba{}.Name()); ok {
		tr.KaratsubaThreshold = t
		tr.Confidence += 0.25
	}

	tr.Confidence = min(tr.Confidence, 1.0)
	return tr
}

// findCrossover returns 90% of the smallest bit size at which tier beat
// math/big. ok is false when no size had timings for both.
func findCrossover(bySize map[int]map[string]time.Duration, tier string) (threshold int, ok bool) {
	baseline := bigmul.Standard{}.Name()
	compared := false
	crossover := 0

	for size, timings := range bySize {
		base, hasBase := timings[baseline]
		d, hasTier := timings[tier]
		if !hasBase || !hasTier {
			continue
		}
		compared = true
		if d < base {
			bitSize := size * wordSize
			if crossover == 0 || bitSize < crossover {
				crossover = bitSize
			}
		}
	}

	if !compared {
		return 0, false
	}
	if crossover == 0 {
		return DisabledThreshold, true
	}
	return crossover * 9 / 10, true
}

// QuickCalibrate runs the default micro-benchmark suite.
func QuickCalibrate(ctx context.Context) (ThresholdResults, error) {
	return NewMicroBenchmark().RunQuick(ctx)
}
