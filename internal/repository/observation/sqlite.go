package observation

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ahmethakanbesel/bazaar-history/internal/apperror"
	domain "github.com/ahmethakanbesel/bazaar-history/internal/observation"
)

const selectColumns = `SELECT id, product_id, buy_price, sell_price, buy_volume, sell_volume, timestamp
		FROM price_history`

type Repository struct {
	db *sql.DB
	mu sync.Mutex // serializes appends
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, o domain.Observation) (domain.Observation, error) {
	const query = `INSERT INTO price_history
		(product_id, buy_price, sell_price, buy_volume, sell_volume, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, query,
		o.ProductID, o.BuyPrice, o.SellPrice, o.BuyVolume, o.SellVolume, o.Timestamp,
	)
	if err != nil {
		return o, fmt.Errorf("append %s: %w: %w", o.ProductID, apperror.ErrStorageWrite, err)
	}

	o.ID, _ = res.LastInsertId()
	return o, nil
}

func (r *Repository) QueryRange(ctx context.Context, productID string, sinceMillis int64) ([]domain.Observation, error) {
	const query = selectColumns + `
		WHERE product_id = ? AND timestamp > ?
		ORDER BY timestamp ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, productID, sinceMillis)
	if err != nil {
		return nil, fmt.Errorf("query range: %w: %w", apperror.ErrStorageRead, err)
	}
	return scanObservations(rows)
}

func (r *Repository) QueryRangeAll(ctx context.Context, sinceMillis int64) ([]domain.Observation, error) {
	const query = selectColumns + `
		WHERE timestamp > ?
		ORDER BY product_id ASC, timestamp ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, sinceMillis)
	if err != nil {
		return nil, fmt.Errorf("query range all: %w: %w", apperror.ErrStorageRead, err)
	}
	return scanObservations(rows)
}

func scanObservations(rows *sql.Rows) ([]domain.Observation, error) {
	defer func() { _ = rows.Close() }()

	out := make([]domain.Observation, 0)
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(&o.ID, &o.ProductID, &o.BuyPrice, &o.SellPrice,
			&o.BuyVolume, &o.SellVolume, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("scan observation: %w: %w", apperror.ErrStorageRead, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w: %w", apperror.ErrStorageRead, err)
	}
	return out, nil
}
