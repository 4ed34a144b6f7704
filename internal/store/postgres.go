package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/pkg/database"
	"github.com/wonny/factorlab/pkg/logger"
)

// PostgresStore persists evaluation reports as JSONB rows keyed by
// (factor_id, window key) and factor statuses in a one-row-per-factor
// table. Re-running an evaluation for the same factor and window
// overwrites the previous report.
type PostgresStore struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresStore creates a Postgres-backed report store
func NewPostgresStore(db *database.DB, log *logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log,
	}
}

// SaveReport upserts the report for its factor and window
func (s *PostgresStore) SaveReport(ctx context.Context, report *contracts.FactorEvaluationReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		INSERT INTO evaluation.reports (factor_id, window_key, report, generated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (factor_id, window_key)
		DO UPDATE SET report = EXCLUDED.report, generated_at = EXCLUDED.generated_at
	`

	_, err = s.db.Pool.Exec(ctx, query,
		report.FactorID,
		report.Window.Key(),
		payload,
		report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report for %s: %w", report.FactorID, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"factor": report.FactorID,
		"window": report.Window.Key(),
		"status": string(report.Status),
	}).Info("Evaluation report saved")

	return nil
}

// LoadReport returns the stored report for the factor and window, or
// (nil, nil) when none exists.
func (s *PostgresStore) LoadReport(ctx context.Context, factorID string, window contracts.Window) (*contracts.FactorEvaluationReport, error) {
	query := `
		SELECT report
		FROM evaluation.reports
		WHERE factor_id = $1 AND window_key = $2
	`

	var payload []byte
	err := s.db.Pool.QueryRow(ctx, query, factorID, window.Key()).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report for %s: %w", factorID, err)
	}

	var report contracts.FactorEvaluationReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report for %s: %w", factorID, err)
	}

	return &report, nil
}

// SaveStatus upserts the current operational status of a factor
func (s *PostgresStore) SaveStatus(ctx context.Context, factorID string, status contracts.Status) error {
	query := `
		INSERT INTO evaluation.factor_status (factor_id, status, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (factor_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
	`

	_, err := s.db.Pool.Exec(ctx, query, factorID, string(status))
	if err != nil {
		return fmt.Errorf("failed to save status for %s: %w", factorID, err)
	}

	return nil
}

// LoadStatus returns the stored status for a factor, or ("", nil) when
// the factor has never been classified.
func (s *PostgresStore) LoadStatus(ctx context.Context, factorID string) (contracts.Status, error) {
	query := `
		SELECT status
		FROM evaluation.factor_status
		WHERE factor_id = $1
	`

	var status string
	err := s.db.Pool.QueryRow(ctx, query, factorID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load status for %s: %w", factorID, err)
	}

	return contracts.Status(status), nil
}
