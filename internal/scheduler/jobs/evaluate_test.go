package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/internal/evaluation"
	"github.com/wonny/factorlab/internal/factors"
	"github.com/wonny/factorlab/pkg/logger"
)

type stubFactor struct {
	name   string
	scores map[string]float64
	calls  int
}

func (s *stubFactor) Name() string   { return s.name }
func (s *stubFactor) Direction() int { return 1 }
func (s *stubFactor) Scores(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	s.calls++
	return s.scores, nil
}

type stubReturns struct {
	returns map[string]float64
}

func (s *stubReturns) ForwardReturns(ctx context.Context, instruments []string, from, to time.Time) (map[string]float64, error) {
	return s.returns, nil
}

type stubUniverse struct {
	instruments []string
}

func (s *stubUniverse) Instruments(ctx context.Context) ([]string, error) {
	return s.instruments, nil
}

type memStore struct {
	reports  map[string]*contracts.FactorEvaluationReport
	statuses map[string]contracts.Status
}

func newMemStore() *memStore {
	return &memStore{
		reports:  make(map[string]*contracts.FactorEvaluationReport),
		statuses: make(map[string]contracts.Status),
	}
}

func (m *memStore) SaveReport(ctx context.Context, report *contracts.FactorEvaluationReport) error {
	m.reports[report.FactorID+"/"+report.Window.Key()] = report
	return nil
}

func (m *memStore) LoadReport(ctx context.Context, factorID string, window contracts.Window) (*contracts.FactorEvaluationReport, error) {
	return m.reports[factorID+"/"+window.Key()], nil
}

func (m *memStore) SaveStatus(ctx context.Context, factorID string, status contracts.Status) error {
	m.statuses[factorID] = status
	return nil
}

func (m *memStore) LoadStatus(ctx context.Context, factorID string) (contracts.Status, error) {
	return m.statuses[factorID], nil
}

func newTestJob(t *testing.T, store contracts.ReportStore, sources ...contracts.FactorSource) *EvaluateJob {
	t.Helper()

	registry := factors.NewRegistry()
	for _, f := range sources {
		if err := registry.Register(f); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	evaluator := evaluation.New(
		&stubReturns{returns: map[string]float64{"A": 0.01, "B": 0.02, "C": 0.03}},
		evaluation.Config{
			MinSamples:           3,
			NGroups:              3,
			MaxWorkers:           2,
			FetchTimeout:         time.Second,
			FailureRateThreshold: 0.2,
			MonotonicTolerance:   1e-9,
		},
		logger.NewNop(),
	)

	return NewEvaluateJob(registry, evaluator, store, &stubUniverse{instruments: []string{"A", "B", "C"}}, 60, contracts.FreqWeekly, logger.NewNop())
}

func TestEvaluateJob_EvaluatesAndPersists(t *testing.T) {
	store := newMemStore()
	factor := &stubFactor{name: "momentum", scores: map[string]float64{"A": 1, "B": 2, "C": 3}}
	job := newTestJob(t, store, factor)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(store.reports) != 1 {
		t.Fatalf("len(reports) = %d, want 1", len(store.reports))
	}
	status, ok := store.statuses["momentum"]
	if !ok {
		t.Fatal("no status saved for momentum")
	}
	// Constant IC of +1.0 has zero dispersion, so ICIR is undefined and
	// the factor cannot be promoted past warning.
	if status != contracts.StatusWarning {
		t.Errorf("status = %q, want warning", status)
	}
}

func TestEvaluateJob_SkipsExistingReport(t *testing.T) {
	store := newMemStore()
	done := &stubFactor{name: "momentum", scores: map[string]float64{"A": 1, "B": 2, "C": 3}}
	fresh := &stubFactor{name: "value", scores: map[string]float64{"A": 3, "B": 2, "C": 1}}
	job := newTestJob(t, store, done, fresh)

	// First run evaluates everything
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	doneCalls := done.calls
	freshCalls := fresh.calls
	if doneCalls == 0 || freshCalls == 0 {
		t.Fatalf("expected both factors evaluated, calls = %d/%d", doneCalls, freshCalls)
	}

	// Second run the same night skips both
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() retry error = %v", err)
	}
	if done.calls != doneCalls || fresh.calls != freshCalls {
		t.Errorf("factors re-evaluated despite existing reports: calls = %d/%d", done.calls, fresh.calls)
	}
}

func TestEvaluateJob_Name(t *testing.T) {
	job := newTestJob(t, newMemStore())
	if job.Name() != "factor_evaluation" {
		t.Errorf("Name() = %q", job.Name())
	}
	if job.Schedule() == "" {
		t.Error("Schedule() is empty")
	}
}
