package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/service"
	"github.com/agbru/picalc/pkg/models"
)

const pi20 = "314159265358979323846"

// prefixCalculator serves prefixes of pi20.
func prefixCalculator(name string) *chudnovsky.MockCalculator {
	return &chudnovsky.MockCalculator{CalcName: name, Fn: func(ctx context.Context, n int64) (*big.Int, error) {
		if n > 20 {
			return nil, errors.New("too many digits for the fixture")
		}
		v, _ := new(big.Int).SetString(pi20[:n+1], 10)
		return v, nil
	}}
}

func newTestServer(calcs map[string]chudnovsky.Calculator, opts ...Option) *Server {
	cfg := config.AppConfig{Port: "0", Algo: "parallel"}
	opts = append([]Option{
		WithLogger(logging.Nop{}),
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 10_000, Burst: 10_000})),
	}, opts...)
	return NewServer(chudnovsky.NewTestFactory(calcs), cfg, opts...)
}

func defaultCalcs() map[string]chudnovsky.Calculator {
	return map[string]chudnovsky.Calculator{
		"parallel":   prefixCalculator("parallel"),
		"sequential": prefixCalculator("sequential"),
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleCalculate(t *testing.T) {
	t.Parallel()
	srv := newTestServer(defaultCalcs(), WithMaxDigits(15))
	defer srv.rateLimiter.Stop()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		check      func(t *testing.T, r models.Result)
		wantErr    string
	}{
		{
			name: "default tail", query: "?digits=10", wantStatus: http.StatusOK,
			check: func(t *testing.T, r models.Result) {
				if r.Tail != "1415926535" || r.Value != "" || r.Algorithm != "parallel" || r.Terms != 2 {
					t.Errorf("result = %+v", r)
				}
			},
		},
		{
			name: "short tail", query: "?digits=10&tail=5&algo=sequential", wantStatus: http.StatusOK,
			check: func(t *testing.T, r models.Result) {
				if r.Tail != "26535" || r.Algorithm != "sequential" {
					t.Errorf("result = %+v", r)
				}
			},
		},
		{
			name: "full value", query: "?digits=10&format=full&tail=0", wantStatus: http.StatusOK,
			check: func(t *testing.T, r models.Result) {
				if r.Value != "3.1415926535" || r.Tail != "" {
					t.Errorf("result = %+v", r)
				}
			},
		},
		{name: "missing digits", query: "", wantStatus: http.StatusBadRequest, wantErr: "Missing 'digits'"},
		{name: "invalid digits", query: "?digits=abc", wantStatus: http.StatusBadRequest, wantErr: "positive integer"},
		{name: "zero digits", query: "?digits=0", wantStatus: http.StatusBadRequest, wantErr: "positive integer"},
		{name: "negative digits", query: "?digits=-5", wantStatus: http.StatusBadRequest, wantErr: "positive integer"},
		{name: "over limit", query: "?digits=16", wantStatus: http.StatusBadRequest, wantErr: "exceeds maximum allowed (15)"},
		{name: "bad format", query: "?digits=5&format=xml", wantStatus: http.StatusBadRequest, wantErr: "'format'"},
		{name: "bad tail", query: "?digits=5&tail=-1", wantStatus: http.StatusBadRequest, wantErr: "'tail'"},
		{name: "unknown algorithm", query: "?digits=5&algo=nope", wantStatus: http.StatusBadRequest, wantErr: `Unknown algorithm "nope"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := get(t, srv.Handler(), "/calculate"+tt.query)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.wantStatus, w.Body)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if tt.wantErr != "" {
				var e models.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
					t.Fatal(err)
				}
				if !strings.Contains(e.Message, tt.wantErr) {
					t.Errorf("message = %q, want %q", e.Message, tt.wantErr)
				}
				if e.RequestID == "" || e.RequestID != w.Header().Get(RequestIDHeader) {
					t.Errorf("request id body %q header %q", e.RequestID, w.Header().Get(RequestIDHeader))
				}
				return
			}
			var r models.Result
			if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
				t.Fatal(err)
			}
			tt.check(t, r)
		})
	}
}

func TestHandleCalculateCalculationErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err        error
		wantStatus int
	}{
		{errors.New("boom"), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusServiceUnavailable},
		{service.ErrMaxDigitsExceeded, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(map[string]chudnovsky.Calculator{
				"parallel": &chudnovsky.MockCalculator{Err: tt.err},
			})
			defer srv.rateLimiter.Stop()
			w := get(t, srv.Handler(), "/calculate?digits=5")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleCalculateCaching(t *testing.T) {
	t.Parallel()
	srv := newTestServer(defaultCalcs())
	defer srv.rateLimiter.Stop()

	var first, second models.Result
	_ = json.Unmarshal(get(t, srv.Handler(), "/calculate?digits=20").Body.Bytes(), &first)
	_ = json.Unmarshal(get(t, srv.Handler(), "/calculate?digits=12&format=full").Body.Bytes(), &second)
	if first.Cached {
		t.Error("first request reported as cached")
	}
	if !second.Cached || second.Value != "3."+pi20[1:13] {
		t.Errorf("second = %+v", second)
	}
}

// stubService records the arguments it is called with.
type stubService struct {
	algo   string
	digits int64
}

func (s *stubService) Calculate(ctx context.Context, algo string, n int64) (*big.Int, error) {
	out, err := s.CalculateOutcome(ctx, algo, n)
	return out.Value, err
}

func (s *stubService) CalculateOutcome(_ context.Context, algo string, n int64) (service.Outcome, error) {
	s.algo, s.digits = algo, n
	return service.Outcome{Value: big.NewInt(31415)}, nil
}

func TestWithService(t *testing.T) {
	t.Parallel()
	stub := &stubService{}
	srv := newTestServer(defaultCalcs(), WithService(stub))
	defer srv.rateLimiter.Stop()

	w := get(t, srv.Handler(), "/calculate?digits=4&algo=sequential&tail=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if stub.algo != "sequential" || stub.digits != 4 {
		t.Errorf("service called with %s/%d", stub.algo, stub.digits)
	}
	if !strings.Contains(w.Body.String(), `"tail":"15"`) {
		t.Errorf("body = %s", w.Body)
	}
}

func TestHandleHealthAndAlgorithms(t *testing.T) {
	t.Parallel()
	srv := newTestServer(defaultCalcs())
	defer srv.rateLimiter.Stop()

	w := get(t, srv.Handler(), "/health")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"healthy"`) {
		t.Errorf("health: %d %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), `"hit_rate"`) {
		t.Errorf("health should report cache stats: %s", w.Body)
	}

	w = get(t, srv.Handler(), "/algorithms")
	var body struct {
		Algorithms []string `json:"algorithms"`
		Default    string   `json:"default"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if strings.Join(body.Algorithms, ",") != "parallel,sequential" || body.Default != "parallel" {
		t.Errorf("algorithms = %+v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	srv := newTestServer(defaultCalcs())
	defer srv.rateLimiter.Stop()
	for _, path := range []string{"/calculate?digits=5", "/health", "/algorithms", "/metrics"} {
		req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s = %d", path, w.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(defaultCalcs())
	defer srv.rateLimiter.Stop()

	get(t, srv.Handler(), "/health")
	w := get(t, srv.Handler(), "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "picalc_requests_total") {
		t.Error("picalc_requests_total not exported")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()
	srv := newTestServer(defaultCalcs())
	defer srv.rateLimiter.Stop()

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set(RequestIDHeader, id)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if _, err := uuid.Parse(w.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("invalid id was not replaced: %q", w.Header().Get(RequestIDHeader))
	}
}

func TestRequestsAreLogged(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	srv := newTestServer(defaultCalcs(), WithStdLogger(log.New(&buf, "", 0)))
	defer srv.rateLimiter.Stop()

	get(t, srv.Handler(), "/calculate?digits=5")
	out := buf.String()
	for _, want := range []string{"[INFO] request [", "{path /calculate}", "{status 200}"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestServerStartGracefulShutdown(t *testing.T) {
	srv := newTestServer(defaultCalcs())
	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	time.Sleep(100 * time.Millisecond)
	srv.shutdownSignal <- syscall.SIGTERM

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
