package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/internal/factors"
	"github.com/wonny/factorlab/pkg/logger"
)

type stubFactor struct {
	name      string
	direction int
}

func (s *stubFactor) Name() string   { return s.name }
func (s *stubFactor) Direction() int { return s.direction }
func (s *stubFactor) Scores(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	return nil, nil
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

func newTestHandler(t *testing.T) (*FactorHandler, *memStore) {
	t.Helper()

	reg := factors.NewRegistry()
	if err := reg.Register(&stubFactor{name: "momentum", direction: 1}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(&stubFactor{name: "reversal", direction: -1}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	store := newMemStore()
	return NewFactorHandler(reg, store, logger.NewNop()), store
}

func TestFactorHandler_List(t *testing.T) {
	handler, store := newTestHandler(t)
	store.statuses["momentum"] = contracts.StatusActive

	req := httptest.NewRequest(http.MethodGet, "/api/factors", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Count   int          `json:"count"`
			Factors []FactorInfo `json:"factors"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if body.Data.Count != 2 {
		t.Errorf("count = %d, want 2", body.Data.Count)
	}
	if body.Data.Factors[0].Name != "momentum" || body.Data.Factors[0].Status != "active" {
		t.Errorf("factors[0] = %+v, want momentum/active", body.Data.Factors[0])
	}
	if body.Data.Factors[1].Direction != -1 {
		t.Errorf("factors[1].Direction = %d, want -1", body.Data.Factors[1].Direction)
	}
}

func TestFactorHandler_GetReport(t *testing.T) {
	handler, store := newTestHandler(t)

	window := contracts.Window{
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Frequency: contracts.FreqWeekly,
	}
	store.reports["momentum/"+window.Key()] = &contracts.FactorEvaluationReport{
		FactorID: "momentum",
		Window:   window,
		Status:   contracts.StatusActive,
	}

	tests := []struct {
		name     string
		factorID string
		query    string
		wantCode int
	}{
		{"stored report", "momentum", "start=2024-01-01&end=2024-06-30&freq=weekly", http.StatusOK},
		{"default frequency is weekly", "momentum", "start=2024-01-01&end=2024-06-30", http.StatusOK},
		{"no report for window", "momentum", "start=2023-01-01&end=2023-06-30&freq=weekly", http.StatusNotFound},
		{"unknown factor", "nope", "start=2024-01-01&end=2024-06-30&freq=weekly", http.StatusNotFound},
		{"bad start date", "momentum", "start=January&end=2024-06-30", http.StatusBadRequest},
		{"start after end", "momentum", "start=2024-06-30&end=2024-01-01", http.StatusBadRequest},
		{"bad frequency", "momentum", "start=2024-01-01&end=2024-06-30&freq=hourly", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/factors/"+tt.factorID+"/report?"+tt.query, nil)
			req = mux.SetURLVars(req, map[string]string{"id": tt.factorID})
			rec := httptest.NewRecorder()

			handler.GetReport(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestFactorHandler_GetStatus(t *testing.T) {
	handler, store := newTestHandler(t)
	store.statuses["momentum"] = contracts.StatusWarning

	req := httptest.NewRequest(http.MethodGet, "/api/factors/momentum/status", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "momentum"})
	rec := httptest.NewRecorder()
	handler.GetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Data.Status != "warning" {
		t.Errorf("status = %q, want warning", body.Data.Status)
	}

	// Never-evaluated factor
	req = httptest.NewRequest(http.MethodGet, "/api/factors/reversal/status", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "reversal"})
	rec = httptest.NewRecorder()
	handler.GetStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unevaluated factor", rec.Code)
	}
}
