package repository

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/shubhamku044/cross-chain-rebase-token/database"
)

// AllowanceRepository implements the service.AllowanceRepository interface
type AllowanceRepository struct {
	q queryable
}

// NewAllowanceRepository creates a new allowance repository
func NewAllowanceRepository(db *database.DB) *AllowanceRepository {
	return &AllowanceRepository{q: db.Pool}
}

// newAllowanceRepositoryWithTx creates a new allowance repository bound to a transaction
func newAllowanceRepositoryWithTx(tx queryable) *AllowanceRepository {
	return &AllowanceRepository{q: tx}
}

// Get returns the allowance owner has granted spender, zero if none
func (r *AllowanceRepository) Get(ctx context.Context, owner, spender string) (*big.Int, error) {
	query := `
		SELECT amount::text
		FROM allowances
		WHERE owner_address = $1 AND spender_address = $2
	`

	var amount string
	err := r.q.QueryRow(ctx, query, owner, spender).Scan(&amount)
	if err == pgx.ErrNoRows {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allowance from %s to %s: %w", owner, spender, err)
	}

	return parseNumeric(amount)
}

// Set overwrites the allowance owner grants spender
func (r *AllowanceRepository) Set(ctx context.Context, owner, spender string, amount *big.Int) error {
	query := `
		INSERT INTO allowances (owner_address, spender_address, amount)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (owner_address, spender_address)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, owner, spender, numericArg(amount)); err != nil {
		return fmt.Errorf("failed to set allowance from %s to %s: %w", owner, spender, err)
	}

	return nil
}
