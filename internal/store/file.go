package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/pkg/logger"
)

// FileStore persists reports as pretty-printed JSON files under a base
// directory, one file per (factor, window). Statuses live in a single
// status.json map. Suited to local runs and inspection; the Postgres
// store is the production backend.
type FileStore struct {
	baseDir string
	logger  *logger.Logger
}

// NewFileStore creates a file-backed report store rooted at baseDir
func NewFileStore(baseDir string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &FileStore{
		baseDir: baseDir,
		logger:  log,
	}, nil
}

func (s *FileStore) reportPath(factorID string, window contracts.Window) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_%s.json", factorID, window.Key()))
}

func (s *FileStore) statusPath() string {
	return filepath.Join(s.baseDir, "status.json")
}

// SaveReport writes the report to its per-window file, replacing any
// previous run.
func (s *FileStore) SaveReport(ctx context.Context, report *contracts.FactorEvaluationReport) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	path := s.reportPath(report.FactorID, report.Window)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"factor": report.FactorID,
		"path":   path,
	}).Info("Evaluation report saved")

	return nil
}

// LoadReport reads the stored report, or returns (nil, nil) when the
// file does not exist.
func (s *FileStore) LoadReport(ctx context.Context, factorID string, window contracts.Window) (*contracts.FactorEvaluationReport, error) {
	payload, err := os.ReadFile(s.reportPath(factorID, window))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report contracts.FactorEvaluationReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report for %s: %w", factorID, err)
	}

	return &report, nil
}

// SaveStatus updates the factor's entry in status.json
func (s *FileStore) SaveStatus(ctx context.Context, factorID string, status contracts.Status) error {
	statuses, err := s.loadStatuses()
	if err != nil {
		return err
	}
	statuses[factorID] = status

	payload, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal statuses: %w", err)
	}
	if err := os.WriteFile(s.statusPath(), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}

	return nil
}

// LoadStatus returns the stored status for a factor, or ("", nil) when
// the factor has never been classified.
func (s *FileStore) LoadStatus(ctx context.Context, factorID string) (contracts.Status, error) {
	statuses, err := s.loadStatuses()
	if err != nil {
		return "", err
	}
	return statuses[factorID], nil
}

func (s *FileStore) loadStatuses() (map[string]contracts.Status, error) {
	payload, err := os.ReadFile(s.statusPath())
	if os.IsNotExist(err) {
		return make(map[string]contracts.Status), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	statuses := make(map[string]contracts.Status)
	if err := json.Unmarshal(payload, &statuses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status file: %w", err)
	}
	return statuses, nil
}
