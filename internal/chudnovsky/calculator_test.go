package chudnovsky

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
)

type stubCore struct {
	result *big.Int
	err    error
	seen   Options
}

func (s *stubCore) Name() string { return "stub" }

func (s *stubCore) CalculateCore(ctx context.Context, reporter ProgressReporter, digits int64, opts Options) (*big.Int, error) {
	s.seen = opts
	reporter(0.5)
	return s.result, s.err
}

func TestNewCalculatorPanicsOnNilCore(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("NewCalculator(nil) did not panic")
		}
	}()
	NewCalculator(nil)
}

func TestCalculatorRejectsInvalidDigits(t *testing.T) {
	t.Parallel()
	core := &stubCore{result: big.NewInt(31)}
	calc := NewCalculator(core)

	for _, digits := range []int64{0, -3} {
		_, err := calc.Calculate(context.Background(), nil, 0, digits, Options{})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Calculate(%d) error = %v, want ErrInvalidInput", digits, err)
		}
	}
}

func TestCalculatorNormalizesOptions(t *testing.T) {
	t.Parallel()
	core := &stubCore{result: big.NewInt(31)}
	if _, err := NewCalculator(core).Calculate(context.Background(), nil, 0, 1, Options{GuardDigits: -1}); err != nil {
		t.Fatalf("Calculate error = %v", err)
	}
	if core.seen.ParallelThreshold != DefaultParallelThreshold {
		t.Errorf("ParallelThreshold = %d, want %d", core.seen.ParallelThreshold, DefaultParallelThreshold)
	}
	if core.seen.GuardDigits != -1 || core.seen.MarginTerms != 0 {
		t.Errorf("guard/margin = %d/%d, want them passed through as -1/0", core.seen.GuardDigits, core.seen.MarginTerms)
	}
}

func TestCalculatorProgressChannel(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(&stubCore{result: big.NewInt(314)})
	ch := make(chan ProgressUpdate, 10)

	if _, err := calc.Calculate(context.Background(), ch, 3, 2, Options{}); err != nil {
		t.Fatalf("Calculate error = %v", err)
	}
	close(ch)

	var values []float64
	for u := range ch {
		if u.CalculatorIndex != 3 {
			t.Errorf("CalculatorIndex = %d, want 3", u.CalculatorIndex)
		}
		values = append(values, u.Value)
	}
	if len(values) != 2 || values[0] != 0.5 || values[1] != 1.0 {
		t.Errorf("progress values = %v, want [0.5 1]", values)
	}
}

func TestCalculatorPropagatesCoreError(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("boom")
	calc := NewCalculator(&stubCore{err: wantErr})
	ch := make(chan ProgressUpdate, 10)

	if _, err := calc.Calculate(context.Background(), ch, 0, 5, Options{}); !errors.Is(err, wantErr) {
		t.Errorf("Calculate error = %v, want %v", err, wantErr)
	}
	close(ch)
	for u := range ch {
		if u.Value == 1.0 {
			t.Error("completion reported for a failed calculation")
		}
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	updates []float64
}

func (o *recordingObserver) Update(_ int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updates = append(o.updates, progress)
}

func TestCalculateWithObserversRealCalculators(t *testing.T) {
	t.Parallel()
	for _, core := range []coreCalculator{&SequentialBinarySplit{}, &ParallelBinarySplit{}} {
		t.Run(core.Name(), func(t *testing.T) {
			t.Parallel()
			calc := NewCalculator(core).(*PiCalculator)
			obs := &recordingObserver{}
			subject := NewProgressSubject()
			subject.Register(obs)

			pi, err := calc.CalculateWithObservers(context.Background(), subject, 0, 3000, Options{ParallelThreshold: 16})
			if err != nil {
				t.Fatalf("CalculateWithObservers error = %v", err)
			}
			if n := len(pi.String()); n != 3001 {
				t.Errorf("result has %d digits, want 3001", n)
			}

			obs.mu.Lock()
			defer obs.mu.Unlock()
			if len(obs.updates) < 3 {
				t.Fatalf("got %d progress updates, want at least 3", len(obs.updates))
			}
			if last := obs.updates[len(obs.updates)-1]; last != 1.0 {
				t.Errorf("last progress = %f, want 1.0", last)
			}
		})
	}
}

func TestCalculateWithNilSubject(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(&SequentialBinarySplit{}).(*PiCalculator)
	pi, err := calc.CalculateWithObservers(context.Background(), nil, 0, 10, Options{})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if pi.String() != "31415926535" {
		t.Errorf("result = %s, want 31415926535", pi)
	}
}

func TestCalculatorsKeepAGuardWhenBothAreDisabled(t *testing.T) {
	t.Parallel()
	opts := Options{GuardDigits: -1, MarginTerms: -1}
	for _, core := range []coreCalculator{&SequentialBinarySplit{}, &ParallelBinarySplit{}} {
		got, err := NewCalculator(core).Calculate(context.Background(), nil, 0, 14, opts)
		if err != nil {
			t.Fatalf("%s: Calculate error = %v", core.Name(), err)
		}
		if got.String() != pi100[:15] {
			t.Errorf("%s: Calculate(14) = %s, want %s", core.Name(), got, pi100[:15])
		}
	}
}
