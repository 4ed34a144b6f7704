package factors

import (
	"context"
	"time"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/pkg/logger"
)

// Value scores instruments by earnings yield (1/PER). Cheaper
// instruments score higher, and cheapness is expected to predict higher
// forward returns, so direction is +1. Instruments with a non-positive
// PER (losses) have no defined yield and are left unscored.
type Value struct {
	fundamentals contracts.FundamentalRepository
	logger       *logger.Logger
}

// NewValue creates an earnings-yield value factor
func NewValue(fundamentals contracts.FundamentalRepository, log *logger.Logger) *Value {
	return &Value{
		fundamentals: fundamentals,
		logger:       log,
	}
}

// Name returns the factor identifier
func (f *Value) Name() string {
	return "value"
}

// Direction returns +1: higher earnings yield is favored
func (f *Value) Direction() int {
	return 1
}

// Scores returns the earnings yield per instrument
func (f *Value) Scores(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	fundamentals, err := f.fundamentals.LatestAsOf(ctx, instruments, date)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(fundamentals))
	for id, fundamental := range fundamentals {
		if fundamental.PER <= 0 {
			continue
		}
		scores[id] = 1 / fundamental.PER
	}

	return scores, nil
}

// Quality scores instruments by profitability tempered by leverage:
// ROE minus a debt-ratio penalty. Direction is +1.
type Quality struct {
	fundamentals contracts.FundamentalRepository
	debtPenalty  float64
	logger       *logger.Logger
}

// NewQuality creates a quality factor. debtPenalty scales how strongly
// the debt ratio drags on the score; 0.1 is a reasonable default.
func NewQuality(fundamentals contracts.FundamentalRepository, debtPenalty float64, log *logger.Logger) *Quality {
	return &Quality{
		fundamentals: fundamentals,
		debtPenalty:  debtPenalty,
		logger:       log,
	}
}

// Name returns the factor identifier
func (f *Quality) Name() string {
	return "quality"
}

// Direction returns +1: profitable, lightly levered instruments are favored
func (f *Quality) Direction() int {
	return 1
}

// Scores returns the quality score per instrument
func (f *Quality) Scores(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	fundamentals, err := f.fundamentals.LatestAsOf(ctx, instruments, date)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(fundamentals))
	for id, fundamental := range fundamentals {
		scores[id] = fundamental.ROE - f.debtPenalty*fundamental.DebtRatio
	}

	return scores, nil
}
