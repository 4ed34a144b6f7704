package marketdata

import (
	"testing"
	"time"

	"github.com/wonny/factorlab/internal/contracts"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSchedule_DailySkipsWeekends(t *testing.T) {
	// 2024-01-05 is a Friday
	window := contracts.Window{
		Start:     date(2024, 1, 5),
		End:       date(2024, 1, 9),
		Frequency: contracts.FreqDaily,
	}

	dates := Schedule(window)
	want := []time.Time{date(2024, 1, 5), date(2024, 1, 8), date(2024, 1, 9)}

	if len(dates) != len(want) {
		t.Fatalf("Schedule() len = %d, want %d", len(dates), len(want))
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}
}

func TestSchedule_DailyStartOnWeekend(t *testing.T) {
	// 2024-01-06 is a Saturday; the schedule must start on Monday
	window := contracts.Window{
		Start:     date(2024, 1, 6),
		End:       date(2024, 1, 8),
		Frequency: contracts.FreqDaily,
	}

	dates := Schedule(window)
	if len(dates) != 1 || !dates[0].Equal(date(2024, 1, 8)) {
		t.Errorf("Schedule() = %v, want [2024-01-08]", dates)
	}
}

func TestSchedule_Weekly(t *testing.T) {
	window := contracts.Window{
		Start:     date(2024, 1, 1),
		End:       date(2024, 1, 31),
		Frequency: contracts.FreqWeekly,
	}

	dates := Schedule(window)
	if len(dates) != 5 {
		t.Fatalf("Schedule() len = %d, want 5", len(dates))
	}
	for i, d := range dates {
		want := date(2024, 1, 1).AddDate(0, 0, 7*i)
		if !d.Equal(want) {
			t.Errorf("dates[%d] = %s, want %s", i, d, want)
		}
	}
}

func TestSchedule_Monthly(t *testing.T) {
	window := contracts.Window{
		Start:     date(2024, 1, 15),
		End:       date(2024, 6, 15),
		Frequency: contracts.FreqMonthly,
	}

	dates := Schedule(window)
	if len(dates) != 6 {
		t.Fatalf("Schedule() len = %d, want 6", len(dates))
	}
	if !dates[5].Equal(date(2024, 6, 15)) {
		t.Errorf("last date = %s, want 2024-06-15", dates[5])
	}
}

func TestSchedule_StrictlyIncreasing(t *testing.T) {
	window := contracts.Window{
		Start:     date(2024, 1, 1),
		End:       date(2024, 3, 31),
		Frequency: contracts.FreqDaily,
	}

	dates := Schedule(window)
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			t.Fatalf("dates not strictly increasing at %d: %s then %s", i, dates[i-1], dates[i])
		}
	}
}

func TestNextDate(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		freq contracts.Frequency
		want time.Time
	}{
		{"daily midweek", date(2024, 1, 9), contracts.FreqDaily, date(2024, 1, 10)},
		{"daily friday to monday", date(2024, 1, 5), contracts.FreqDaily, date(2024, 1, 8)},
		{"weekly", date(2024, 1, 5), contracts.FreqWeekly, date(2024, 1, 12)},
		// AddDate normalizes Feb 31 to Mar 2
		{"monthly end of month", date(2024, 1, 31), contracts.FreqMonthly, date(2024, 3, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextDate(tt.from, tt.freq); !got.Equal(tt.want) {
				t.Errorf("NextDate() = %s, want %s", got, tt.want)
			}
		})
	}
}
