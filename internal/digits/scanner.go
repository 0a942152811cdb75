package digits

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/agbru/picalc/internal/logging"
)

const (
	// DefaultVarianceThreshold is the variance below which a Record is
	// reported as balanced.
	DefaultVarianceThreshold = 100.0
	// DefaultReportEvery is the number of bytes between progress log lines.
	DefaultReportEvery = 1_000_000
)

// ErrStop may be returned by a MatchFunc to end the scan early without
// error.
var ErrStop = errors.New("digits: stop scan")

// MatchFunc receives the position (bytes read so far) and a snapshot of
// the counters each time they are balanced. Returning ErrStop ends the scan;
// any other error aborts it and is returned by Scan.
type MatchFunc func(pos int64, rec Record) error

// Scanner searches a digit stream for the prefixes in which every decimal
// digit occurs about equally often.
type Scanner struct {
	// Threshold is the variance below which onMatch is called.
	// Zero means DefaultVarianceThreshold.
	Threshold float64
	// ReportEvery is the number of bytes between progress log lines.
	// Zero means DefaultReportEvery; negative disables reporting.
	ReportEvery int64
	Logger      logging.Logger
}

// Result summarises a completed scan.
type Result struct {
	Bytes   int64
	Matches int64
	Final   Record
}

// Scan reads r to EOF, recording every byte. Balance is checked after each
// digit; other bytes only advance the position. ctx is checked with each
// progress report.
func (s *Scanner) Scan(ctx context.Context, r io.Reader, onMatch MatchFunc) (Result, error) {
	threshold := s.Threshold
	if threshold == 0 {
		threshold = DefaultVarianceThreshold
	}
	every := s.ReportEvery
	if every == 0 {
		every = DefaultReportEvery
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Nop{}
	}

	br := bufio.NewReaderSize(r, 64*1024)
	var res Result
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("reading digits at byte %d: %w", res.Bytes, err)
		}
		res.Bytes++
		isDigit := b >= '0' && b <= '9'
		res.Final.RecordByte(b)

		if isDigit && res.Final.Variance() < threshold {
			res.Matches++
			if onMatch != nil {
				if err := onMatch(res.Bytes, res.Final); err != nil {
					if errors.Is(err, ErrStop) {
						return res, nil
					}
					return res, err
				}
			}
		}

		if every > 0 && res.Bytes%every == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			logger.Info("digits scanned",
				logging.Int64("bytes", res.Bytes),
				logging.Float64("mean", res.Final.Mean()),
				logging.Float64("variance", res.Final.Variance()),
				logging.String("record", res.Final.String()),
			)
		}
	}
}
