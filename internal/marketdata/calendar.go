package marketdata

import (
	"time"

	"github.com/wonny/factorlab/internal/contracts"
)

// Schedule expands an evaluation window into its ordered schedule
// dates, start through end inclusive. Daily stepping skips weekends;
// weekly steps 7 calendar days from the window start; monthly steps one
// calendar month. There is no holiday calendar: a scheduled date with
// no market data simply yields an undefined entry downstream.
func Schedule(window contracts.Window) []time.Time {
	var dates []time.Time

	current := window.Start
	if window.Frequency == contracts.FreqDaily {
		current = skipWeekend(current)
	}

	for !current.After(window.End) {
		dates = append(dates, current)
		current = NextDate(current, window.Frequency)
	}

	return dates
}

// NextDate returns the schedule date following `date` for the given
// frequency. This is also the forward-return horizon end under the
// default non-overlap policy.
func NextDate(date time.Time, freq contracts.Frequency) time.Time {
	switch freq {
	case contracts.FreqWeekly:
		return date.AddDate(0, 0, 7)
	case contracts.FreqMonthly:
		return date.AddDate(0, 1, 0)
	default:
		return skipWeekend(date.AddDate(0, 0, 1))
	}
}

// skipWeekend advances Saturday/Sunday to the following Monday
func skipWeekend(date time.Time) time.Time {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}
