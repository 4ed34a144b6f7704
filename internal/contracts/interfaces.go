package contracts

import (
	"context"
	"time"
)

// FactorSource produces a raw per-instrument score for a date.
// Implementations must be deterministic for a given (instruments, date)
// pair; point-in-time correctness is the source's responsibility, not
// the engine's. Instruments without a score are simply absent from the
// returned map.
type FactorSource interface {
	// Name returns the factor identifier used for persistence keys.
	Name() string

	// Direction returns +1 when higher scores predict higher forward
	// returns, -1 when they predict lower forward returns.
	Direction() int

	// Scores returns the raw factor value per instrument at date.
	Scores(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error)
}

// ReturnProvider supplies realized forward returns. The horizon runs
// from `from` (exclusive of look-ahead beyond `to`) to `to`. Instruments
// without a return are absent from the returned map.
type ReturnProvider interface {
	ForwardReturns(ctx context.Context, instruments []string, from, to time.Time) (map[string]float64, error)
}

// ReportStore persists evaluation reports and factor statuses.
// LoadReport returns (nil, nil) when no report exists for the key,
// which callers use for idempotent re-evaluation checks.
type ReportStore interface {
	SaveReport(ctx context.Context, report *FactorEvaluationReport) error
	LoadReport(ctx context.Context, factorID string, window Window) (*FactorEvaluationReport, error)
	SaveStatus(ctx context.Context, factorID string, status Status) error

	// LoadStatus returns ("", nil) when the factor has never been
	// classified.
	LoadStatus(ctx context.Context, factorID string) (Status, error)
}

// PriceRepository provides daily close prices for built-in factors and
// the price-based return provider.
type PriceRepository interface {
	// ClosesAsOf returns the latest close at or before date, per
	// instrument. Instruments with no price are absent.
	ClosesAsOf(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error)

	// CloseSeries returns (date, close) pairs for one instrument in
	// ascending date order within [from, to].
	CloseSeries(ctx context.Context, instrument string, from, to time.Time) ([]PricePoint, error)
}

// FundamentalRepository provides point-in-time fundamentals for the
// built-in value and quality factors.
type FundamentalRepository interface {
	// LatestAsOf returns the most recent fundamentals published at or
	// before date, per instrument. Instruments with none are absent.
	LatestAsOf(ctx context.Context, instruments []string, date time.Time) (map[string]Fundamental, error)
}

// PricePoint is one close observation
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Fundamental is a point-in-time fundamentals snapshot
type Fundamental struct {
	PER       float64   `json:"per"`
	PBR       float64   `json:"pbr"`
	ROE       float64   `json:"roe"`
	DebtRatio float64   `json:"debt_ratio"`
	AsOf      time.Time `json:"as_of"`
}
