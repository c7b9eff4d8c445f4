package repository

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/shubhamku044/cross-chain-rebase-token/database"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

// RateRepository implements the service.RateRepository interface. The
// global rate lives in the single ledger_state row; every successful
// change is journaled in rate_changes.
type RateRepository struct {
	q queryable
}

// NewRateRepository creates a new rate repository
func NewRateRepository(db *database.DB) *RateRepository {
	return &RateRepository{q: db.Pool}
}

// newRateRepositoryWithTx creates a new rate repository bound to a transaction
func newRateRepositoryWithTx(tx queryable) *RateRepository {
	return &RateRepository{q: tx}
}

// GetGlobalRate returns the stored global rate
func (r *RateRepository) GetGlobalRate(ctx context.Context) (*big.Int, error) {
	return r.getGlobalRate(ctx, `SELECT global_rate::text FROM ledger_state WHERE id = 1`)
}

// GetGlobalRateForUpdate returns the global rate and locks the state row,
// serializing concurrent rate updates.
func (r *RateRepository) GetGlobalRateForUpdate(ctx context.Context) (*big.Int, error) {
	return r.getGlobalRate(ctx, `SELECT global_rate::text FROM ledger_state WHERE id = 1 FOR UPDATE`)
}

func (r *RateRepository) getGlobalRate(ctx context.Context, query string) (*big.Int, error) {
	var rate string
	err := r.q.QueryRow(ctx, query).Scan(&rate)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("ledger state not seeded")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get global rate: %w", err)
	}

	return parseNumeric(rate)
}

// SetGlobalRate overwrites the stored global rate
func (r *RateRepository) SetGlobalRate(ctx context.Context, rate *big.Int) error {
	query := `
		UPDATE ledger_state
		SET global_rate = $1::numeric, updated_at = NOW()
		WHERE id = 1
	`

	result, err := r.q.Exec(ctx, query, numericArg(rate))
	if err != nil {
		return fmt.Errorf("failed to set global rate: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("ledger state not seeded")
	}

	return nil
}

// EnsureGlobalRate inserts the initial rate if no state row exists
func (r *RateRepository) EnsureGlobalRate(ctx context.Context, rate *big.Int) error {
	query := `
		INSERT INTO ledger_state (id, global_rate)
		VALUES (1, $1::numeric)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, numericArg(rate)); err != nil {
		return fmt.Errorf("failed to seed global rate: %w", err)
	}

	return nil
}

// RecordChange appends a rate change to the history
func (r *RateRepository) RecordChange(ctx context.Context, change *models.RateChange) error {
	query := `
		INSERT INTO rate_changes (old_rate, new_rate, changed_by)
		VALUES ($1::numeric, $2::numeric, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		numericArg(change.OldRate),
		numericArg(change.NewRate),
		change.ChangedBy,
	).Scan(&change.ID, &change.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record rate change: %w", err)
	}

	return nil
}

// GetHistory returns the most recent rate changes
func (r *RateRepository) GetHistory(ctx context.Context, limit int) ([]*models.RateChange, error) {
	query := `
		SELECT id, old_rate::text, new_rate::text, changed_by, created_at
		FROM rate_changes
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate history: %w", err)
	}
	defer rows.Close()

	var changes []*models.RateChange
	for rows.Next() {
		var change models.RateChange
		var oldRate, newRate string

		if err := rows.Scan(&change.ID, &oldRate, &newRate, &change.ChangedBy, &change.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rate change: %w", err)
		}

		if change.OldRate, err = parseNumeric(oldRate); err != nil {
			return nil, fmt.Errorf("failed to parse old rate: %w", err)
		}
		if change.NewRate, err = parseNumeric(newRate); err != nil {
			return nil, fmt.Errorf("failed to parse new rate: %w", err)
		}

		changes = append(changes, &change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rate changes: %w", err)
	}

	return changes, nil
}
