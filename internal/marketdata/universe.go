package marketdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UniverseRepository supplies the evaluable instrument universe from
// PostgreSQL. Only instruments flagged active are returned; delisted
// instruments keep their price history but drop out of new evaluations.
type UniverseRepository struct {
	pool *pgxpool.Pool
}

// NewUniverseRepository creates a new universe repository
func NewUniverseRepository(pool *pgxpool.Pool) *UniverseRepository {
	return &UniverseRepository{pool: pool}
}

// Instruments returns the active instrument IDs in sorted order
func (r *UniverseRepository) Instruments(ctx context.Context) ([]string, error) {
	query := `
		SELECT instrument_id
		FROM market.instruments
		WHERE status = 'active'
		ORDER BY instrument_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query universe: %w", err)
	}
	defer rows.Close()

	var instruments []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan instrument row: %w", err)
		}
		instruments = append(instruments, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instrument rows: %w", err)
	}

	return instruments, nil
}
