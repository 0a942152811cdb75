package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/digits"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/service"
	"github.com/agbru/picalc/pkg/models"
)

// calculateParams is a parsed /calculate query.
type calculateParams struct {
	digits int64
	algo   string
	format string
	tail   int
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	body := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	if st, ok := s.service.(interface{ Stats() service.CacheStats }); ok {
		body["cache"] = st.Stats()
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"algorithms": s.factory.List(),
		"default":    s.defaultAlgo(),
	})
}

// handleCalculate answers GET /calculate?digits=N[&algo=A][&format=tail|full][&tail=K].
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	p, err := s.parseCalculateParams(r)
	if err != nil {
		var parseErr CalculateParseError
		if errors.As(err, &parseErr) {
			writeError(w, r, parseErr.StatusCode, parseErr.Message)
		} else {
			writeError(w, r, http.StatusBadRequest, err.Error())
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	start := time.Now()
	out, err := s.service.CalculateOutcome(ctx, p.algo, p.digits)
	duration := time.Since(start)
	if err != nil {
		status, msg := s.calculationStatus(err)
		s.logger.Error("calculation failed", err,
			logging.String("request_id", RequestIDFromContext(r.Context())),
			logging.String("algo", p.algo),
			logging.Int64("digits", p.digits),
		)
		writeError(w, r, status, msg)
		return
	}

	if out.Cached {
		cacheResults.WithLabelValues("hit").Inc()
	} else {
		cacheResults.WithLabelValues("miss").Inc()
	}
	s.writeJSON(w, http.StatusOK, buildCalculateResponse(p, out, duration))
}

func (s *Server) defaultAlgo() string {
	if s.cfg.Algo == "" || s.cfg.Algo == config.AllAlgorithms {
		return config.DefaultAlgo
	}
	return s.cfg.Algo
}

func (s *Server) parseCalculateParams(r *http.Request) (calculateParams, error) {
	q := r.URL.Query()
	raw := q.Get("digits")
	if raw == "" {
		return calculateParams{}, CalculateParseError{Message: "Missing 'digits' parameter", StatusCode: http.StatusBadRequest}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return calculateParams{}, CalculateParseError{Message: "Invalid 'digits' parameter: must be a positive integer", StatusCode: http.StatusBadRequest}
	}
	if limit := s.securityConfig.MaxDigits; limit > 0 && n > limit {
		return calculateParams{}, CalculateParseError{
			Message:    fmt.Sprintf("Value of 'digits' exceeds maximum allowed (%d).", limit),
			StatusCode: http.StatusBadRequest,
		}
	}

	p := calculateParams{digits: n, algo: q.Get("algo"), format: q.Get("format"), tail: config.DefaultTail}
	if p.algo == "" {
		p.algo = s.defaultAlgo()
	}
	switch p.format {
	case "":
		p.format = FormatTail
	case FormatTail, FormatFull:
	default:
		return calculateParams{}, CalculateParseError{Message: "Invalid 'format' parameter: must be 'tail' or 'full'", StatusCode: http.StatusBadRequest}
	}
	if raw := q.Get("tail"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k < 0 || k > MaxTail {
			return calculateParams{}, CalculateParseError{
				Message:    fmt.Sprintf("Invalid 'tail' parameter: must be between 0 and %d", MaxTail),
				StatusCode: http.StatusBadRequest,
			}
		}
		p.tail = k
	}
	return p, nil
}

// calculationStatus maps a service error to an HTTP status and message.
func (s *Server) calculationStatus(err error) (int, string) {
	var unknown *chudnovsky.UnknownCalculatorError
	switch {
	case errors.As(err, &unknown):
		return http.StatusBadRequest, fmt.Sprintf("Unknown algorithm %q", unknown.Name)
	case errors.Is(err, service.ErrMaxDigitsExceeded), errors.Is(err, chudnovsky.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Calculation exceeded the request timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Calculation canceled"
	default:
		return http.StatusInternalServerError, "Calculation failed"
	}
}

func buildCalculateResponse(p calculateParams, out service.Outcome, duration time.Duration) models.Result {
	resp := models.Result{
		Algorithm:  p.algo,
		Digits:     p.digits,
		DurationMS: models.Milliseconds(duration),
		Cached:     out.Cached,
	}
	if terms, err := chudnovsky.EstimateTerms(p.digits); err == nil {
		resp.Terms = terms
	}
	if p.tail > 0 {
		resp.Tail = digits.LastDigits(out.Value, min(p.tail, int(p.digits)))
	}
	if p.format == FormatFull {
		resp.Value = digits.Format(out.Value, p.digits)
	}
	return resp
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

// writeError writes a models.ErrorResponse carrying the request id.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	})
}
