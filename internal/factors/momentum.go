package factors

import (
	"context"
	"time"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/pkg/logger"
)

// Momentum scores instruments by their trailing price return over a
// lookback period. Higher past returns predict higher forward returns
// under the momentum premise, so direction is +1.
type Momentum struct {
	prices   contracts.PriceRepository
	lookback int // calendar days
	logger   *logger.Logger
}

// NewMomentum creates a momentum factor with the given lookback in
// calendar days (60 is roughly three trading months).
func NewMomentum(prices contracts.PriceRepository, lookback int, log *logger.Logger) *Momentum {
	return &Momentum{
		prices:   prices,
		lookback: lookback,
		logger:   log,
	}
}

// Name returns the factor identifier
func (f *Momentum) Name() string {
	return "momentum"
}

// Direction returns +1: higher trailing returns are favored
func (f *Momentum) Direction() int {
	return 1
}

// Scores returns the trailing return per instrument. Instruments
// without a usable price at both ends of the lookback are absent.
func (f *Momentum) Scores(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	return trailingReturns(ctx, f.prices, instruments, date, f.lookback)
}

// Reversal scores instruments by their short-term trailing return.
// Short-term winners tend to mean-revert, so direction is -1: lower
// recent returns are favored.
type Reversal struct {
	prices   contracts.PriceRepository
	lookback int // calendar days
	logger   *logger.Logger
}

// NewReversal creates a reversal factor with the given short lookback
// in calendar days (5-10 days is typical).
func NewReversal(prices contracts.PriceRepository, lookback int, log *logger.Logger) *Reversal {
	return &Reversal{
		prices:   prices,
		lookback: lookback,
		logger:   log,
	}
}

// Name returns the factor identifier
func (f *Reversal) Name() string {
	return "reversal"
}

// Direction returns -1: recent losers are favored
func (f *Reversal) Direction() int {
	return -1
}

// Scores returns the short-term trailing return per instrument
func (f *Reversal) Scores(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	return trailingReturns(ctx, f.prices, instruments, date, f.lookback)
}

// trailingReturns computes close(date)/close(date-lookback) - 1 per
// instrument from the latest closes at each end.
func trailingReturns(ctx context.Context, prices contracts.PriceRepository, instruments []string, date time.Time, lookback int) (map[string]float64, error) {
	past := date.AddDate(0, 0, -lookback)

	pastCloses, err := prices.ClosesAsOf(ctx, instruments, past)
	if err != nil {
		return nil, err
	}

	currentCloses, err := prices.ClosesAsOf(ctx, instruments, date)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(instruments))
	for _, id := range instruments {
		pastClose, ok := pastCloses[id]
		if !ok || pastClose == 0 {
			continue
		}
		currentClose, ok := currentCloses[id]
		if !ok {
			continue
		}
		scores[id] = currentClose/pastClose - 1
	}

	return scores, nil
}
