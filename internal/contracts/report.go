package contracts

import (
	"fmt"
	"time"
)

// Frequency is the evaluation schedule stepping
type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

// Valid reports whether the frequency is one of the supported values
func (f Frequency) Valid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqMonthly:
		return true
	}
	return false
}

// Window identifies one evaluation span
type Window struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Frequency Frequency `json:"frequency"`
}

// Validate checks the window invariants
func (w Window) Validate() error {
	if !w.Frequency.Valid() {
		return &InvalidConfigurationError{Reason: fmt.Sprintf("unknown frequency %q", w.Frequency)}
	}
	if !w.Start.Before(w.End) {
		return &InvalidConfigurationError{Reason: "start date must be before end date"}
	}
	return nil
}

// Key returns the persistence key for this window
func (w Window) Key() string {
	return fmt.Sprintf("%s_%s_%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"), w.Frequency)
}

// Status is the operational classification of a factor
type Status string

const (
	StatusActive   Status = "active"
	StatusWarning  Status = "warning"
	StatusInactive Status = "inactive"
)

// ICPoint is one date's rank IC observation. RankIC is nil when the
// date had fewer valid pairs than the minimum sample threshold; such
// entries stay in the series for audit but are excluded from all
// aggregates.
type ICPoint struct {
	Date       time.Time `json:"date"`
	RankIC     *float64  `json:"rank_ic"`
	SampleSize int       `json:"sample_size"`
}

// Defined reports whether the point carries a usable IC value
func (p ICPoint) Defined() bool {
	return p.RankIC != nil
}

// ICSeries is an ordered sequence of per-date IC observations with
// strictly increasing dates.
type ICSeries struct {
	Points []ICPoint `json:"points"`
}

// DefinedValues returns the IC values of defined entries, in date order
func (s ICSeries) DefinedValues() []float64 {
	values := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Defined() {
			values = append(values, *p.RankIC)
		}
	}
	return values
}

// Len returns the number of points in the series
func (s ICSeries) Len() int {
	return len(s.Points)
}

// GroupBacktestResult holds the quantile backtest outcome.
// BucketReturns[i] is the mean forward return of bucket i across all
// dates where the bucket was non-empty; nil when the bucket never had
// members. Bucket 0 holds the lowest factor scores.
type GroupBacktestResult struct {
	NGroups         int        `json:"n_groups"`
	BucketReturns   []*float64 `json:"bucket_returns"`
	BucketDates     []int      `json:"bucket_dates"`
	LongShortReturn *float64   `json:"long_short_return"`
	IsMonotonic     bool       `json:"is_monotonic"`
	Dates           int        `json:"dates"`
}

// FactorEvaluationReport bundles everything known about one factor over
// one evaluation window. It is immutable after construction; consumers
// only read or archive it.
type FactorEvaluationReport struct {
	FactorID  string    `json:"factor_id"`
	Direction int       `json:"direction"`
	Window    Window    `json:"window"`

	IC     ICSeries             `json:"ic_series"`
	Groups *GroupBacktestResult `json:"group_backtest"`

	// Aggregates over defined IC entries only. Nil means undefined
	// (too few defined entries, or zero IC dispersion for ICIR) and is
	// preserved as JSON null so persisted forms never confuse undefined
	// with numeric zero.
	MeanIC  *float64 `json:"mean_ic"`
	ICStd   *float64 `json:"ic_std"`
	ICIR    *float64 `json:"ic_ir"`
	HitRate *float64 `json:"hit_rate"`

	Status      Status    `json:"status"`
	GeneratedAt time.Time `json:"generated_at"`
}
