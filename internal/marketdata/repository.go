package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/factorlab/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository on PostgreSQL.
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// ClosesAsOf returns the latest close at or before date, per instrument.
// Instruments with no price on or before the date are absent from the
// result.
func (r *PriceRepository) ClosesAsOf(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	query := `
		SELECT DISTINCT ON (instrument_id) instrument_id, close_price
		FROM market.daily_prices
		WHERE instrument_id = ANY($1) AND trade_date <= $2
		ORDER BY instrument_id, trade_date DESC
	`

	rows, err := r.pool.Query(ctx, query, instruments, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes: %w", err)
	}
	defer rows.Close()

	closes := make(map[string]float64, len(instruments))
	for rows.Next() {
		var id string
		var close float64
		if err := rows.Scan(&id, &close); err != nil {
			return nil, fmt.Errorf("failed to scan close row: %w", err)
		}
		closes[id] = close
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating close rows: %w", err)
	}

	return closes, nil
}

// CloseSeries returns close prices for one instrument within [from, to]
// in ascending date order.
func (r *PriceRepository) CloseSeries(ctx context.Context, instrument string, from, to time.Time) ([]contracts.PricePoint, error) {
	query := `
		SELECT trade_date, close_price
		FROM market.daily_prices
		WHERE instrument_id = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, instrument, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query close series: %w", err)
	}
	defer rows.Close()

	var points []contracts.PricePoint
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan close series row: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating close series rows: %w", err)
	}

	return points, nil
}

// FundamentalRepository implements contracts.FundamentalRepository on
// PostgreSQL. Fundamentals are keyed by publication date so lookups are
// point-in-time correct.
type FundamentalRepository struct {
	pool *pgxpool.Pool
}

// NewFundamentalRepository creates a new fundamental repository
func NewFundamentalRepository(pool *pgxpool.Pool) *FundamentalRepository {
	return &FundamentalRepository{pool: pool}
}

// LatestAsOf returns the most recent fundamentals published at or
// before date, per instrument.
func (r *FundamentalRepository) LatestAsOf(ctx context.Context, instruments []string, date time.Time) (map[string]contracts.Fundamental, error) {
	query := `
		SELECT DISTINCT ON (instrument_id) instrument_id, per, pbr, roe, debt_ratio, published_at
		FROM market.fundamentals
		WHERE instrument_id = ANY($1) AND published_at <= $2
		ORDER BY instrument_id, published_at DESC
	`

	rows, err := r.pool.Query(ctx, query, instruments, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query fundamentals: %w", err)
	}
	defer rows.Close()

	fundamentals := make(map[string]contracts.Fundamental, len(instruments))
	for rows.Next() {
		var id string
		var f contracts.Fundamental
		if err := rows.Scan(&id, &f.PER, &f.PBR, &f.ROE, &f.DebtRatio, &f.AsOf); err != nil {
			return nil, fmt.Errorf("failed to scan fundamental row: %w", err)
		}
		fundamentals[id] = f
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fundamental rows: %w", err)
	}

	return fundamentals, nil
}
