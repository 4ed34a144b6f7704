package evaluation

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/internal/marketdata"
	"github.com/wonny/factorlab/pkg/config"
	"github.com/wonny/factorlab/pkg/logger"
)

// Config holds the evaluation engine settings
type Config struct {
	MinSamples           int
	NGroups              int
	MaxWorkers           int
	FetchTimeout         time.Duration
	FailureRateThreshold float64
	MonotonicTolerance   float64
	AllowOverlapHorizon  bool
	FetchRateLimit       float64
}

// ConfigFrom maps application configuration onto engine settings
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		MinSamples:           cfg.Evaluation.MinSamples,
		NGroups:              cfg.Evaluation.NGroups,
		MaxWorkers:           cfg.Evaluation.MaxWorkers,
		FetchTimeout:         cfg.Evaluation.FetchTimeout,
		FailureRateThreshold: cfg.Evaluation.FailureRateThreshold,
		MonotonicTolerance:   cfg.Evaluation.MonotonicTolerance,
		AllowOverlapHorizon:  cfg.Evaluation.AllowOverlapHorizon,
		FetchRateLimit:       cfg.Evaluation.FetchRateLimit,
	}
}

// Evaluator runs factor evaluations: the IC series, the group backtest
// and the health classification, bundled into one immutable report per
// (factor, window) call.
//
// Per-date work is scheduled across a bounded worker pool; results are
// merged by sorting on date after all workers complete, so the output
// is identical regardless of parallelism degree. Provider fetches are
// the only suspension points and each carries its own timeout: a failed
// date is recorded as undefined rather than aborting the series, until
// the failure rate across the window crosses the configured threshold,
// at which point the whole call fails with DataUnavailableError and no
// partial report is produced.
type Evaluator struct {
	returns contracts.ReturnProvider
	cfg     Config
	limiter *rate.Limiter
	logger  *logger.Logger
}

// New creates a new evaluator
func New(returns contracts.ReturnProvider, cfg Config, log *logger.Logger) *Evaluator {
	var limiter *rate.Limiter
	if cfg.FetchRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.FetchRateLimit), 1)
	}

	return &Evaluator{
		returns: returns,
		cfg:     cfg,
		limiter: limiter,
		logger:  log,
	}
}

// dateResult is one date's evaluation outcome
type dateResult struct {
	date        time.Time
	icPoint     contracts.ICPoint
	bucketMeans []float64
	bucketOK    []bool
	failed      bool
	fatal       error
}

// Evaluate runs the full evaluation for one factor over one window and
// returns a complete report, or a typed failure with no partial report.
func (e *Evaluator) Evaluate(ctx context.Context, factor contracts.FactorSource, instruments []string, window contracts.Window) (*contracts.FactorEvaluationReport, error) {
	e.logger.WithFields(map[string]interface{}{
		"factor":      factor.Name(),
		"start":       window.Start.Format("2006-01-02"),
		"end":         window.End.Format("2006-01-02"),
		"frequency":   window.Frequency,
		"instruments": len(instruments),
	}).Info("Starting factor evaluation")

	results, err := e.runWindow(ctx, factor, instruments, window, e.cfg.NGroups, true)
	if err != nil {
		return nil, err
	}

	series := assembleSeries(results)
	acc := newGroupAccumulator(e.cfg.NGroups)
	for _, r := range results {
		if !r.failed && r.bucketMeans != nil {
			acc.add(r.bucketMeans, r.bucketOK)
		}
	}
	groups := acc.result(factor.Direction(), e.cfg.MonotonicTolerance)

	summary := Summarize(series)
	status := Classify(summary, groups.IsMonotonic)

	report := &contracts.FactorEvaluationReport{
		FactorID:    factor.Name(),
		Direction:   factor.Direction(),
		Window:      window,
		IC:          series,
		Groups:      groups,
		MeanIC:      summary.MeanIC,
		ICStd:       summary.ICStd,
		ICIR:        summary.ICIR,
		HitRate:     summary.HitRate,
		Status:      status,
		GeneratedAt: time.Now().UTC(),
	}

	e.logger.WithFields(map[string]interface{}{
		"factor":  factor.Name(),
		"dates":   series.Len(),
		"defined": len(series.DefinedValues()),
		"status":  status,
	}).Info("Factor evaluation completed")

	return report, nil
}

// ComputeICSeries computes only the IC series for one factor over one
// window.
func (e *Evaluator) ComputeICSeries(ctx context.Context, factor contracts.FactorSource, instruments []string, window contracts.Window) (contracts.ICSeries, error) {
	results, err := e.runWindow(ctx, factor, instruments, window, 0, false)
	if err != nil {
		return contracts.ICSeries{}, err
	}
	return assembleSeries(results), nil
}

// GroupBacktest computes only the group backtest for one factor over
// one window.
func (e *Evaluator) GroupBacktest(ctx context.Context, factor contracts.FactorSource, instruments []string, window contracts.Window, nGroups int) (*contracts.GroupBacktestResult, error) {
	if nGroups < 2 {
		return nil, &contracts.InvalidConfigurationError{Reason: "n_groups must be >= 2"}
	}

	results, err := e.runWindow(ctx, factor, instruments, window, nGroups, true)
	if err != nil {
		return nil, err
	}

	acc := newGroupAccumulator(nGroups)
	for _, r := range results {
		if !r.failed && r.bucketMeans != nil {
			acc.add(r.bucketMeans, r.bucketOK)
		}
	}
	return acc.result(factor.Direction(), e.cfg.MonotonicTolerance), nil
}

// runWindow evaluates every schedule date of the window across the
// worker pool. Cancellation is checked between batches, never
// mid-batch.
func (e *Evaluator) runWindow(ctx context.Context, factor contracts.FactorSource, instruments []string, window contracts.Window, nGroups int, wantGroups bool) ([]dateResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if len(instruments) == 0 {
		return nil, &contracts.InvalidConfigurationError{Reason: "instrument set is empty"}
	}
	if wantGroups && nGroups < 2 {
		return nil, &contracts.InvalidConfigurationError{Reason: "n_groups must be >= 2"}
	}

	schedule := marketdata.Schedule(window)

	// Each date's forward return runs to the next schedule date, so the
	// final schedule point only serves as a horizon end. Overlapping
	// horizons step a fixed period past every date instead.
	type datedHorizon struct {
		date    time.Time
		horizon time.Time
	}
	var work []datedHorizon
	if e.cfg.AllowOverlapHorizon {
		for _, d := range schedule {
			work = append(work, datedHorizon{date: d, horizon: marketdata.NextDate(d, window.Frequency)})
		}
	} else {
		for i := 0; i+1 < len(schedule); i++ {
			work = append(work, datedHorizon{date: schedule[i], horizon: schedule[i+1]})
		}
	}

	if len(work) == 0 {
		return nil, &contracts.InvalidConfigurationError{Reason: "window contains no evaluable schedule dates"}
	}

	results := make([]dateResult, len(work))

	workers := e.cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	for start := 0; start < len(work); start += workers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + workers
		if end > len(work) {
			end = len(work)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				w := work[idx]
				results[idx] = e.evaluateDate(ctx, factor, instruments, w.date, w.horizon, nGroups, wantGroups)
			}(i)
		}
		wg.Wait()
	}

	// Deterministic merge: order by date, not by completion
	sort.Slice(results, func(i, j int) bool {
		return results[i].date.Before(results[j].date)
	})

	failed := 0
	for _, r := range results {
		if r.fatal != nil {
			return nil, r.fatal
		}
		if r.failed {
			failed++
		}
	}

	if rateOf(failed, len(results)) > e.cfg.FailureRateThreshold {
		return nil, &contracts.DataUnavailableError{
			Failed:    failed,
			Total:     len(results),
			Threshold: e.cfg.FailureRateThreshold,
		}
	}

	return results, nil
}

// evaluateDate fetches and computes one date. Provider failures and
// timeouts mark the date failed; it is recorded as undefined unless the
// window-level failure rate later crosses the threshold.
func (e *Evaluator) evaluateDate(ctx context.Context, factor contracts.FactorSource, instruments []string, date, horizon time.Time, nGroups int, wantGroups bool) dateResult {
	result := dateResult{
		date:    date,
		icPoint: contracts.ICPoint{Date: date},
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			result.failed = true
			return result
		}
	}

	scores, err := e.fetchScores(ctx, factor, instruments, date)
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"factor": factor.Name(),
			"date":   date.Format("2006-01-02"),
			"error":  err.Error(),
		}).Warn("Factor score fetch failed for date")
		result.failed = true
		return result
	}

	returns, err := e.fetchReturns(ctx, instruments, date, horizon)
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"factor": factor.Name(),
			"date":   date.Format("2006-01-02"),
			"error":  err.Error(),
		}).Warn("Forward return fetch failed for date")
		result.failed = true
		return result
	}

	ic, sampleSize, err := RankIC(scores, returns, e.cfg.MinSamples)
	if err != nil {
		result.fatal = err
		return result
	}
	result.icPoint.RankIC = ic
	result.icPoint.SampleSize = sampleSize

	if wantGroups {
		assignment, err := AssignGroups(scores, nGroups)
		if err != nil {
			result.fatal = err
			return result
		}
		result.bucketMeans, result.bucketOK = dateBucketReturns(assignment, returns, nGroups)
	}

	return result
}

func (e *Evaluator) fetchScores(ctx context.Context, factor contracts.FactorSource, instruments []string, date time.Time) (map[string]float64, error) {
	fetchCtx, cancel := e.fetchContext(ctx)
	defer cancel()
	return factor.Scores(fetchCtx, instruments, date)
}

func (e *Evaluator) fetchReturns(ctx context.Context, instruments []string, from, to time.Time) (map[string]float64, error) {
	fetchCtx, cancel := e.fetchContext(ctx)
	defer cancel()
	return e.returns.ForwardReturns(fetchCtx, instruments, from, to)
}

func (e *Evaluator) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.FetchTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.cfg.FetchTimeout)
}

// assembleSeries folds sorted date results into an ICSeries. Failed
// dates stay in the series as undefined entries for audit.
func assembleSeries(results []dateResult) contracts.ICSeries {
	points := make([]contracts.ICPoint, 0, len(results))
	for _, r := range results {
		points = append(points, r.icPoint)
	}
	return contracts.ICSeries{Points: points}
}

func rateOf(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
