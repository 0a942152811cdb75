package chudnovsky

import (
	"context"
	"math/big"
	"sort"
)

// MockCalculator is a Calculator with canned behavior, exported for tests of
// the orchestration, service and server layers.
type MockCalculator struct {
	// CalcName is returned by Name; empty means "mock".
	CalcName string
	Result   *big.Int
	Err      error
	Fn       func(ctx context.Context, digits int64) (*big.Int, error)
}

// Name returns the calculator name.
func (m *MockCalculator) Name() string {
	if m.CalcName == "" {
		return "mock"
	}
	return m.CalcName
}

// Calculate returns the configured Result and Err, or calls Fn if set.
func (m *MockCalculator) Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, digits int64, opts Options) (*big.Int, error) {
	if m.Fn != nil {
		return m.Fn(ctx, digits)
	}
	if progressChan != nil {
		progressChan <- ProgressUpdate{CalculatorIndex: calcIndex, Value: 1.0}
	}
	return m.Result, m.Err
}

// TestFactory is a CalculatorFactory over a fixed set of calculators.
type TestFactory struct {
	calculators map[string]Calculator
}

// NewTestFactory returns a factory serving calculators.
func NewTestFactory(calculators map[string]Calculator) *TestFactory {
	if calculators == nil {
		calculators = make(map[string]Calculator)
	}
	return &TestFactory{calculators: calculators}
}

// Create returns the calculator by name.
func (f *TestFactory) Create(name string) (Calculator, error) {
	return f.Get(name)
}

// Get returns the calculator by name.
func (f *TestFactory) Get(name string) (Calculator, error) {
	calc, ok := f.calculators[name]
	if !ok {
		return nil, &UnknownCalculatorError{Name: name}
	}
	return calc, nil
}

// List returns the sorted calculator names.
func (f *TestFactory) List() []string {
	names := make([]string, 0, len(f.calculators))
	for name := range f.calculators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register is a no-op; calculators are fixed at construction.
func (f *TestFactory) Register(string, func() coreCalculator) error {
	return nil
}

// GetAll returns a copy of all calculators.
func (f *TestFactory) GetAll() map[string]Calculator {
	result := make(map[string]Calculator, len(f.calculators))
	for k, v := range f.calculators {
		result[k] = v
	}
	return result
}
