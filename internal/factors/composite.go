package factors

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/internal/evaluation"
	"github.com/wonny/factorlab/pkg/logger"
)

// Composite combines several child factors into a single actionable
// score. Each child's raw scores are ranked cross-sectionally, the
// ranks normalized to [0, 1] and flipped for direction -1 children, and
// the normalized ranks averaged under the configured weights. Ranking
// first makes children with wildly different raw scales commensurable.
//
// The composite itself has direction +1 by construction: higher
// combined scores always mean "more favored".
type Composite struct {
	name     string
	children []contracts.FactorSource
	weights  []float64
	logger   *logger.Logger
}

// NewComposite creates a composite factor. Weights must match the
// children one-to-one and sum to 1 within a small tolerance.
func NewComposite(name string, children []contracts.FactorSource, weights []float64, log *logger.Logger) (*Composite, error) {
	if len(children) == 0 {
		return nil, &contracts.InvalidConfigurationError{Reason: "composite factor needs at least one child"}
	}
	if len(children) != len(weights) {
		return nil, &contracts.InvalidConfigurationError{
			Reason: fmt.Sprintf("composite %q has %d children but %d weights", name, len(children), len(weights)),
		}
	}

	var sum float64
	for _, w := range weights {
		if w < 0 {
			return nil, &contracts.InvalidConfigurationError{Reason: "composite weights must be non-negative"}
		}
		sum += w
	}
	if sum < 0.99 || sum > 1.01 {
		return nil, &contracts.InvalidConfigurationError{
			Reason: fmt.Sprintf("composite weights sum to %.4f, want 1.0", sum),
		}
	}

	return &Composite{
		name:     name,
		children: children,
		weights:  weights,
		logger:   log,
	}, nil
}

// Name returns the factor identifier
func (f *Composite) Name() string {
	return f.name
}

// Direction returns +1: the combination is normalized to "higher is favored"
func (f *Composite) Direction() int {
	return 1
}

// Scores returns the weighted normalized-rank combination per
// instrument. An instrument is scored only when every child scored it;
// partially covered instruments are left unscored rather than silently
// reweighted.
func (f *Composite) Scores(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	combined := make(map[string]float64)
	covered := make(map[string]int)

	for i, child := range f.children {
		raw, err := child.Scores(ctx, instruments, date)
		if err != nil {
			return nil, fmt.Errorf("composite child %s failed: %w", child.Name(), err)
		}

		ranks, err := evaluation.Rank(raw)
		if err != nil {
			// Too few valid scores from this child for this date: no
			// instrument can be fully covered, so the composite has no
			// scores either.
			f.logger.WithFields(map[string]interface{}{
				"composite": f.name,
				"child":     child.Name(),
				"date":      date.Format("2006-01-02"),
			}).Warn("Composite child has too few valid scores")
			return map[string]float64{}, nil
		}

		// Normalize ranks to [0, 1]; a single-rank edge cannot occur
		// because Rank requires at least two values.
		n := float64(len(ranks))
		for id, rank := range ranks {
			norm := (rank - 1) / (n - 1)
			if child.Direction() < 0 {
				norm = 1 - norm
			}
			combined[id] += f.weights[i] * norm
			covered[id]++
		}
	}

	scores := make(map[string]float64)
	for id, count := range covered {
		if count == len(f.children) {
			scores[id] = combined[id]
		}
	}

	return scores, nil
}
