package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/internal/evaluation"
	"github.com/wonny/factorlab/internal/factors"
	"github.com/wonny/factorlab/pkg/logger"
)

// UniverseSource supplies the instrument universe to evaluate over
type UniverseSource interface {
	Instruments(ctx context.Context) ([]string, error)
}

// EvaluateJob re-evaluates every registered factor over a trailing
// window each night and persists the resulting reports and statuses.
// A factor whose report for tonight's window already exists is skipped,
// so retries after a partial failure only redo the missing factors.
type EvaluateJob struct {
	registry  *factors.Registry
	evaluator *evaluation.Evaluator
	store     contracts.ReportStore
	universe  UniverseSource
	logger    *logger.Logger

	lookbackDays int
	frequency    contracts.Frequency
}

// NewEvaluateJob creates the nightly evaluation job. lookbackDays sets
// the trailing window length; 180 days of weekly observations is a
// reasonable default.
func NewEvaluateJob(
	registry *factors.Registry,
	evaluator *evaluation.Evaluator,
	store contracts.ReportStore,
	universe UniverseSource,
	lookbackDays int,
	frequency contracts.Frequency,
	log *logger.Logger,
) *EvaluateJob {
	return &EvaluateJob{
		registry:     registry,
		evaluator:    evaluator,
		store:        store,
		universe:     universe,
		logger:       log,
		lookbackDays: lookbackDays,
		frequency:    frequency,
	}
}

// Name returns the job name
func (j *EvaluateJob) Name() string {
	return "factor_evaluation"
}

// Schedule returns the cron schedule (every day at 3 AM, after market
// data has settled)
func (j *EvaluateJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run evaluates all registered factors over the trailing window
func (j *EvaluateJob) Run(ctx context.Context) error {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	window := contracts.Window{
		Start:     end.AddDate(0, 0, -j.lookbackDays),
		End:       end,
		Frequency: j.frequency,
	}

	instruments, err := j.universe.Instruments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load universe: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"factors":     j.registry.Len(),
		"instruments": len(instruments),
		"window":      window.Key(),
	}).Info("Starting scheduled factor evaluation")

	var failed int
	for _, name := range j.registry.Names() {
		factor, _ := j.registry.Get(name)

		existing, err := j.store.LoadReport(ctx, name, window)
		if err != nil {
			return fmt.Errorf("failed to check existing report for %s: %w", name, err)
		}
		if existing != nil {
			j.logger.WithField("factor", name).Info("Report already exists, skipping")
			continue
		}

		report, err := j.evaluator.Evaluate(ctx, factor, instruments, window)
		if err != nil {
			var cfgErr *contracts.InvalidConfigurationError
			if errors.As(err, &cfgErr) || ctx.Err() != nil {
				return fmt.Errorf("evaluation of %s failed: %w", name, err)
			}
			// Data gaps for one factor should not block the rest
			j.logger.WithError(err).WithField("factor", name).Warn("Factor evaluation failed")
			failed++
			continue
		}

		if err := j.store.SaveReport(ctx, report); err != nil {
			return fmt.Errorf("failed to save report for %s: %w", name, err)
		}
		if err := j.store.SaveStatus(ctx, name, report.Status); err != nil {
			return fmt.Errorf("failed to save status for %s: %w", name, err)
		}

		j.logger.WithFields(map[string]interface{}{
			"factor": name,
			"status": string(report.Status),
		}).Info("Factor evaluated")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d factors failed to evaluate", failed, j.registry.Len())
	}

	return nil
}
