// Package chudnovsky computes the decimal digits of π with the Chudnovsky
// series evaluated by binary splitting. It exposes a `Calculator` interface
// that abstracts the splitting strategy (sequential, fork-join parallel, GMP),
// so the orchestration layer can run and compare them interchangeably.
package chudnovsky

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	calculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pi_calculations_total",
			Help: "The total number of π calculations processed",
		},
		[]string{"algorithm", "status"},
	)
	calculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pi_calculation_duration_seconds",
			Help:    "The duration of π calculations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
		},
		[]string{"algorithm"},
	)
	digitsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pi_digits_computed_total",
			Help: "The total number of decimal digits of π produced",
		},
		[]string{"algorithm"},
	)
)

// progressLogStep is the progress advance between two debug lines.
const progressLogStep = 0.25

// Calculator defines the public interface for a π calculator.
// It is the primary abstraction used by the orchestration layer to interact
// with the different splitting strategies.
type Calculator interface {
	// Calculate returns floor(π × 10^digits). It is safe for concurrent use
	// and honors ctx cancellation at fork boundaries. Progress updates are sent
	// asynchronously to progressChan, which may be nil.
	Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, digits int64, opts Options) (*big.Int, error)

	// Name returns the display name of the algorithm.
	Name() string
}

// coreCalculator defines the internal interface for a pure calculation
// algorithm.
type coreCalculator interface {
	CalculateCore(ctx context.Context, reporter ProgressReporter, digits int64, opts Options) (*big.Int, error)
	Name() string
}

// PiCalculator is the Calculator decorator wrapping a coreCalculator with
// input validation, tracing, metrics, logging and progress adaptation.
type PiCalculator struct {
	core coreCalculator
}

// NewCalculator wraps core in a PiCalculator. It panics if core is nil.
func NewCalculator(core coreCalculator) Calculator {
	if core == nil {
		panic("chudnovsky: the `coreCalculator` implementation cannot be nil")
	}
	return &PiCalculator{core: core}
}

// Name returns the name of the encapsulated coreCalculator.
func (c *PiCalculator) Name() string {
	return c.core.Name()
}

// Calculate adapts progressChan to a ProgressSubject and delegates to
// CalculateWithObservers. Progress is also exported to the Prometheus gauge
// and, at debug level, to the global logger.
func (c *PiCalculator) Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, digits int64, opts Options) (*big.Int, error) {
	subject := NewProgressSubject()
	if progressChan != nil {
		subject.Register(NewChannelObserver(progressChan))
	}
	subject.Register(NewMetricsObserver())
	if log.Debug().Enabled() {
		subject.Register(NewLoggingObserver(log.Logger, progressLogStep))
	}
	return c.CalculateWithObservers(ctx, subject, calcIndex, digits, opts)
}

// CalculateWithObservers executes the calculation, notifying every observer
// registered on subject. A nil subject discards progress.
func (c *PiCalculator) CalculateWithObservers(ctx context.Context, subject *ProgressSubject, calcIndex int, digits int64, opts Options) (result *big.Int, err error) {
	tracer := otel.Tracer("chudnovsky")
	ctx, span := tracer.Start(ctx, "Calculate")
	span.SetAttributes(
		attribute.String("algorithm", c.core.Name()),
		attribute.Int64("digits", digits),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		algoName := c.core.Name()
		calculationsTotal.WithLabelValues(algoName, status).Inc()
		calculationDuration.WithLabelValues(algoName).Observe(duration)
		if err == nil {
			digitsComputed.WithLabelValues(algoName).Add(float64(digits))
		}

		log.Debug().
			Str("algo", algoName).
			Int64("digits", digits).
			Float64("duration", duration).
			Str("status", status).
			Msg("calculation completed")
	}()

	if digits <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidInput, digits)
	}

	var reporter ProgressReporter
	if subject != nil {
		reporter = subject.AsProgressReporter(calcIndex)
	} else {
		reporter = func(float64) {}
	}

	result, err = c.core.CalculateCore(ctx, reporter, digits, normalizeOptions(opts))
	if err == nil && result != nil {
		reporter(1.0)
	}
	return result, err
}
