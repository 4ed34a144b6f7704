package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/pkg/logger"
)

func testWindow() contracts.Window {
	return contracts.Window{
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Frequency: contracts.FreqWeekly,
	}
}

func testReport() *contracts.FactorEvaluationReport {
	ic := 0.04
	return &contracts.FactorEvaluationReport{
		FactorID:  "momentum",
		Direction: 1,
		Window:    testWindow(),
		IC: contracts.ICSeries{Points: []contracts.ICPoint{
			{Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), RankIC: &ic, SampleSize: 40},
			{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), RankIC: nil, SampleSize: 2},
		}},
		MeanIC:      &ic,
		ICStd:       nil,
		Status:      contracts.StatusWarning,
		GeneratedAt: time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC),
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	report := testReport()
	if err := fs.SaveReport(ctx, report); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	loaded, err := fs.LoadReport(ctx, "momentum", testWindow())
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadReport() = nil, want report")
	}

	if loaded.FactorID != "momentum" {
		t.Errorf("FactorID = %q, want momentum", loaded.FactorID)
	}
	if loaded.Status != contracts.StatusWarning {
		t.Errorf("Status = %q, want warning", loaded.Status)
	}
	if loaded.MeanIC == nil || *loaded.MeanIC != 0.04 {
		t.Errorf("MeanIC = %v, want 0.04", loaded.MeanIC)
	}

	// Undefined values must survive persistence as nil, never zero.
	if loaded.ICStd != nil {
		t.Errorf("ICStd = %v, want nil", *loaded.ICStd)
	}
	if loaded.IC.Points[1].RankIC != nil {
		t.Errorf("undefined IC point came back as %v, want nil", *loaded.IC.Points[1].RankIC)
	}
	if loaded.IC.Points[1].SampleSize != 2 {
		t.Errorf("SampleSize = %d, want 2", loaded.IC.Points[1].SampleSize)
	}
}

func TestFileStore_LoadMissingReport(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	loaded, err := fs.LoadReport(context.Background(), "momentum", testWindow())
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}
	if loaded != nil {
		t.Errorf("LoadReport() = %+v, want nil", loaded)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	first := testReport()
	if err := fs.SaveReport(ctx, first); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	second := testReport()
	second.Status = contracts.StatusActive
	if err := fs.SaveReport(ctx, second); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	loaded, err := fs.LoadReport(ctx, "momentum", testWindow())
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}
	if loaded.Status != contracts.StatusActive {
		t.Errorf("Status = %q, want active after overwrite", loaded.Status)
	}
}

func TestFileStore_Status(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	status, err := fs.LoadStatus(ctx, "momentum")
	if err != nil {
		t.Fatalf("LoadStatus() error = %v", err)
	}
	if status != "" {
		t.Errorf("LoadStatus() = %q, want empty for unknown factor", status)
	}

	if err := fs.SaveStatus(ctx, "momentum", contracts.StatusActive); err != nil {
		t.Fatalf("SaveStatus() error = %v", err)
	}
	if err := fs.SaveStatus(ctx, "value", contracts.StatusInactive); err != nil {
		t.Fatalf("SaveStatus() error = %v", err)
	}
	if err := fs.SaveStatus(ctx, "momentum", contracts.StatusWarning); err != nil {
		t.Fatalf("SaveStatus() error = %v", err)
	}

	status, err = fs.LoadStatus(ctx, "momentum")
	if err != nil {
		t.Fatalf("LoadStatus() error = %v", err)
	}
	if status != contracts.StatusWarning {
		t.Errorf("LoadStatus(momentum) = %q, want warning", status)
	}

	status, err = fs.LoadStatus(ctx, "value")
	if err != nil {
		t.Fatalf("LoadStatus() error = %v", err)
	}
	if status != contracts.StatusInactive {
		t.Errorf("LoadStatus(value) = %q, want inactive", status)
	}
}

func TestFileStore_ReportPathUsesWindowKey(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	path := fs.reportPath("momentum", testWindow())
	if !strings.HasSuffix(path, "momentum_2024-01-01_2024-06-30_weekly.json") {
		t.Errorf("reportPath() = %q, want window-keyed filename", path)
	}
}
