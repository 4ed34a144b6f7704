package contracts

import (
	"fmt"
	"time"
)

// InsufficientDataError signals that a single date had too few valid
// observations to compute a statistic. It is recovered locally: the
// date is recorded as undefined and the evaluation continues.
type InsufficientDataError struct {
	Date time.Time
	Got  int
	Need int
}

func (e *InsufficientDataError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("insufficient data: got %d valid values, need %d", e.Got, e.Need)
	}
	return fmt.Sprintf("insufficient data at %s: got %d valid values, need %d",
		e.Date.Format("2006-01-02"), e.Got, e.Need)
}

// InvalidConfigurationError signals a caller error: bad n_groups, empty
// instrument set, inverted window. Fatal, surfaced immediately.
type InvalidConfigurationError struct {
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}

// DataUnavailableError signals that provider failures across the window
// exceeded the configured threshold. Fatal: no partial report is
// produced.
type DataUnavailableError struct {
	Failed    int
	Total     int
	Threshold float64
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable: %d of %d dates failed (threshold %.0f%%)",
		e.Failed, e.Total, e.Threshold*100)
}

// InternalComputationError signals a violated numeric invariant, e.g. a
// rank correlation that is not a number even after clamping. It
// indicates a logic bug and must never be swallowed.
type InternalComputationError struct {
	Reason string
}

func (e *InternalComputationError) Error() string {
	return "internal computation error: " + e.Reason
}
