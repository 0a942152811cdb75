package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a per-client token bucket: each client may burst up to
// Burst requests, and tokens refill at RequestsPerMinute.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	rate    float64 // tokens per second
	perMin  int
	burst   float64
	cleanup time.Duration
	idle    time.Duration
	now     func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
}

type bucket struct {
	tokens float64
	last   time.Time
}

// RateLimiterConfig configures NewRateLimiter. Zero fields take defaults.
type RateLimiterConfig struct {
	RequestsPerMinute int
	// Burst is the bucket capacity; it defaults to RequestsPerMinute.
	Burst           int
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig allows 60 requests per minute per client.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 60,
		Burst:             10,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewRateLimiter starts a limiter and its cleanup goroutine; call Stop to
// release it.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return newRateLimiterAt(config, time.Now)
}

func newRateLimiterAt(config RateLimiterConfig, now func() time.Time) *RateLimiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 60
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	rate := float64(config.RequestsPerMinute) / 60
	rl := &RateLimiter{
		clients:  make(map[string]*bucket),
		rate:     rate,
		perMin:   config.RequestsPerMinute,
		burst:    float64(config.Burst),
		cleanup:  config.CleanupInterval,
		idle:     time.Duration(float64(config.Burst) / rate * float64(time.Second)),
		now:      now,
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow takes a token for client, reporting false when its bucket is empty.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[client]
	if !ok {
		b = &bucket{tokens: rl.burst, last: now}
		rl.clients[client] = b
	}
	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.last).Seconds()*rl.rate)
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter is the whole number of seconds until one token refills.
func (rl *RateLimiter) RetryAfter() int {
	return (60 + rl.perMin - 1) / rl.perMin
}

// clients idle long enough to have a full bucket are forgotten.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stopChan:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, b := range rl.clients {
		if now.Sub(b.last) > rl.idle {
			delete(rl.clients, ip)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

// RateLimitMiddleware answers 429 to clients over their budget.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(getClientIP(r)) {
			rateLimited.Inc()
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter()))
			writeError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}
		next(w, r)
	}
}

// getClientIP prefers the first X-Forwarded-For address, then X-Real-IP,
// then the connection address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return extractFirstIP(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return stripPort(r.RemoteAddr)
}

func extractFirstIP(xff string) string {
	if idx := strings.IndexByte(xff, ','); idx != -1 {
		return strings.TrimSpace(xff[:idx])
	}
	return strings.TrimSpace(xff)
}

// stripPort handles "1.2.3.4:80", "[::1]:80" and bare addresses.
func stripPort(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return strings.Trim(addr, "[]")
	}
	return host
}
