package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/wonny/factorlab/internal/contracts"
)

// fakePriceRepo serves closes from an in-memory map keyed by
// instrument, then date string.
type fakePriceRepo struct {
	closes map[string]map[string]float64
}

func (f *fakePriceRepo) ClosesAsOf(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	result := make(map[string]float64)
	for _, id := range instruments {
		if c, ok := f.closes[id][date.Format("2006-01-02")]; ok {
			result[id] = c
		}
	}
	return result, nil
}

func (f *fakePriceRepo) CloseSeries(ctx context.Context, instrument string, from, to time.Time) ([]contracts.PricePoint, error) {
	return nil, nil
}

func TestPriceReturnProvider_ForwardReturns(t *testing.T) {
	repo := &fakePriceRepo{closes: map[string]map[string]float64{
		"AAA": {"2024-01-02": 100, "2024-01-03": 110},
		"BBB": {"2024-01-02": 50, "2024-01-03": 45},
		"CCC": {"2024-01-02": 80}, // no end price
		"DDD": {"2024-01-02": 0, "2024-01-03": 10}, // unusable start
	}}

	provider := NewPriceReturnProvider(repo)

	returns, err := provider.ForwardReturns(context.Background(),
		[]string{"AAA", "BBB", "CCC", "DDD", "EEE"},
		date(2024, 1, 2), date(2024, 1, 3))
	if err != nil {
		t.Fatalf("ForwardReturns() error = %v", err)
	}

	if len(returns) != 2 {
		t.Fatalf("ForwardReturns() len = %d, want 2", len(returns))
	}

	if got := returns["AAA"]; got < 0.0999 || got > 0.1001 {
		t.Errorf("AAA return = %f, want 0.10", got)
	}
	if got := returns["BBB"]; got > -0.0999 || got < -0.1001 {
		t.Errorf("BBB return = %f, want -0.10", got)
	}

	// CCC (missing end), DDD (zero start), EEE (unknown) are absent
	for _, id := range []string{"CCC", "DDD", "EEE"} {
		if _, ok := returns[id]; ok {
			t.Errorf("instrument %s should be absent from returns", id)
		}
	}
}
