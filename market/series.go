package market

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrOutOfOrder is returned when a candle arrives with a timestamp
	// earlier than the last accepted candle.
	ErrOutOfOrder = errors.New("market: candle out of order")

	// ErrDuplicate is returned when a candle repeats the timestamp of the
	// last accepted candle.
	ErrDuplicate = errors.New("market: duplicate candle timestamp")
)

// Series is an append-only, strictly time-ordered candle sequence for one
// pair. Gaps are not filled here; a gap must be resolved upstream or the
// consumer treats the series as incomplete warm-up.
type Series struct {
	Pair      string
	Timeframe time.Duration
	Candles   []Candle
}

// NewSeries returns an empty series for the pair.
func NewSeries(pair string, timeframe time.Duration) *Series {
	return &Series{Pair: pair, Timeframe: timeframe}
}

// Append validates ordering and adds the candle. The series is unchanged
// when an error is returned.
func (s *Series) Append(c Candle) error {
	if n := len(s.Candles); n > 0 {
		last := s.Candles[n-1].Time
		if c.Time.Equal(last) {
			return fmt.Errorf("%w: %s at %s", ErrDuplicate, s.Pair, c.Time.Format(time.RFC3339))
		}
		if c.Time.Before(last) {
			return fmt.Errorf("%w: %s at %s (last %s)", ErrOutOfOrder, s.Pair,
				c.Time.Format(time.RFC3339), last.Format(time.RFC3339))
		}
	}
	s.Candles = append(s.Candles, c)
	return nil
}

// Len returns the number of accepted candles.
func (s *Series) Len() int { return len(s.Candles) }

// Last returns the most recent candle and whether one exists.
func (s *Series) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}
