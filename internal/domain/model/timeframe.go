package model

import (
	"errors"
	"time"
)

// Timeframe selects the trailing window a leaderboard is computed over.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeAllTime Timeframe = "all_time"
)

// ErrUnknownTimeframe reports a timeframe outside the known set.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// Timeframes lists all timeframes in rebuild order.
func Timeframes() []Timeframe {
	return []Timeframe{TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeAllTime}
}

// ParseTimeframe validates a raw timeframe string.
func ParseTimeframe(raw string) (Timeframe, error) {
	tf := Timeframe(raw)
	switch tf {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeAllTime:
		return tf, nil
	default:
		return "", ErrUnknownTimeframe
	}
}

// WindowStart returns the start of the trailing window relative to now.
// The zero time means unbounded (all_time).
func (t Timeframe) WindowStart(now time.Time) time.Time {
	switch t {
	case TimeframeDaily:
		return now.AddDate(0, 0, -1)
	case TimeframeWeekly:
		return now.AddDate(0, 0, -7)
	case TimeframeMonthly:
		return now.AddDate(0, 0, -30)
	default:
		return time.Time{}
	}
}
