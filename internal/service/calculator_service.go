// Package service is the calculation entry point shared by the HTTP server:
// it validates requests, deduplicates concurrent identical ones and caches
// expansions, serving shorter requests from longer cached ones.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/digits"
)

// DefaultCacheSize is the number of expansions kept by NewCalculatorService.
const DefaultCacheSize = 32

// ErrMaxDigitsExceeded is returned when a request asks for more digits than
// the service allows.
var ErrMaxDigitsExceeded = errors.New("maximum digits exceeded")

// Outcome is a computed or cached expansion.
type Outcome struct {
	// Value is floor(π·10^digits). It is owned by the caller.
	Value *big.Int
	// Cached reports that no calculator ran for this request.
	Cached   bool
	Duration time.Duration
}

// Service computes digits of π by calculator name.
type Service interface {
	// Calculate returns floor(π·10^digits) computed by algoName.
	Calculate(ctx context.Context, algoName string, digits int64) (*big.Int, error)
	// CalculateOutcome is Calculate with cache and timing information.
	CalculateOutcome(ctx context.Context, algoName string, digits int64) (Outcome, error)
}

type cacheKey struct {
	algo   string
	digits int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// CalculatorService implements Service over a CalculatorFactory.
type CalculatorService struct {
	factory   chudnovsky.CalculatorFactory
	config    config.AppConfig
	maxDigits int64

	cache  *lru.Cache[cacheKey, *big.Int]
	group  singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ Service = (*CalculatorService)(nil)

// NewCalculatorService returns a service with a cache of DefaultCacheSize
// entries. maxDigits of 0 means no limit.
func NewCalculatorService(factory chudnovsky.CalculatorFactory, cfg config.AppConfig, maxDigits int64) *CalculatorService {
	return NewCalculatorServiceWithCache(factory, cfg, maxDigits, DefaultCacheSize)
}

// NewCalculatorServiceWithCache is NewCalculatorService with an explicit
// cache size; a size of 0 or less disables caching.
func NewCalculatorServiceWithCache(factory chudnovsky.CalculatorFactory, cfg config.AppConfig, maxDigits int64, cacheSize int) *CalculatorService {
	s := &CalculatorService{factory: factory, config: cfg, maxDigits: maxDigits}
	if cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		s.cache, _ = lru.New[cacheKey, *big.Int](cacheSize)
	}
	return s
}

// Calculate implements Service.
func (s *CalculatorService) Calculate(ctx context.Context, algoName string, digits int64) (*big.Int, error) {
	out, err := s.CalculateOutcome(ctx, algoName, digits)
	if err != nil {
		return nil, err
	}
	return out.Value, nil
}

// CalculateOutcome validates the request, then answers from the cache or
// runs the calculator. Concurrent requests for the same key share one run.
// The run is detached from every caller's context and bounded by the
// configured timeout instead; each caller stops waiting when its own context
// is done.
func (s *CalculatorService) CalculateOutcome(ctx context.Context, algoName string, n int64) (Outcome, error) {
	if n <= 0 {
		return Outcome{}, fmt.Errorf("%w: got %d", chudnovsky.ErrInvalidInput, n)
	}
	if s.maxDigits > 0 && n > s.maxDigits {
		return Outcome{}, fmt.Errorf("%w: %d > %d", ErrMaxDigitsExceeded, n, s.maxDigits)
	}
	calc, err := s.factory.Get(algoName)
	if err != nil {
		return Outcome{}, err
	}

	if v, ok := s.lookup(algoName, n); ok {
		s.hits.Add(1)
		return Outcome{Value: v, Cached: true}, nil
	}
	s.misses.Add(1)

	key := cacheKey{algo: algoName, digits: n}
	start := time.Now()
	ch := s.group.DoChan(fmt.Sprintf("%s/%d", algoName, n), func() (any, error) {
		runCtx, cancel := s.runContext(ctx)
		defer cancel()
		pi, err := calc.Calculate(runCtx, nil, 0, n, s.config.ToCalculationOptions())
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Add(key, pi)
		}
		return pi, nil
	})

	select {
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Outcome{}, res.Err
		}
		return Outcome{Value: new(big.Int).Set(res.Val.(*big.Int)), Duration: time.Since(start)}, nil
	}
}

// runContext returns the context of a shared run: ctx's values without its
// cancellation, limited by the configured timeout when there is one.
func (s *CalculatorService) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.config.Timeout > 0 {
		return context.WithTimeout(detached, s.config.Timeout)
	}
	return context.WithCancel(detached)
}

// lookup returns a copy of the cached expansion for (algo, n), or truncates
// the shortest cached longer one.
func (s *CalculatorService) lookup(algo string, n int64) (*big.Int, bool) {
	if s.cache == nil {
		return nil, false
	}
	if v, ok := s.cache.Get(cacheKey{algo, n}); ok {
		return new(big.Int).Set(v), true
	}
	best := cacheKey{}
	for _, k := range s.cache.Keys() {
		if k.algo == algo && k.digits > n && (best.digits == 0 || k.digits < best.digits) {
			best = k
		}
	}
	if best.digits == 0 {
		return nil, false
	}
	v, ok := s.cache.Get(best)
	if !ok {
		return nil, false
	}
	return digits.Truncate(v, best.digits, n), true
}

// Stats returns the cache counters.
func (s *CalculatorService) Stats() CacheStats {
	hits, misses := s.hits.Load(), s.misses.Load()
	stats := CacheStats{Hits: hits, Misses: misses}
	if s.cache != nil {
		stats.Size = s.cache.Len()
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}

// Purge empties the cache.
func (s *CalculatorService) Purge() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
