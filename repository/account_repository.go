package repository

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shubhamku044/cross-chain-rebase-token/database"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

// AccountRepository implements the service.AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository bound to a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `address, principal::text, rate::text, last_settled_at, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	var principal, rate string

	err := row.Scan(
		&account.Address,
		&principal,
		&rate,
		&account.LastSettledAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if account.Principal, err = parseNumeric(principal); err != nil {
		return nil, fmt.Errorf("failed to parse principal: %w", err)
	}
	if account.Rate, err = parseNumeric(rate); err != nil {
		return nil, fmt.Errorf("failed to parse rate: %w", err)
	}

	return &account, nil
}

// GetByAddress retrieves an account by address. Returns nil for an
// account that has never been touched.
func (r *AccountRepository) GetByAddress(ctx context.Context, address string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, address))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}

	return account, nil
}

// GetForUpdate retrieves an account and locks its row until the enclosing
// transaction ends, serializing conflicting ledger operations.
func (r *AccountRepository) GetForUpdate(ctx context.Context, address string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, address))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", address, err)
	}

	return account, nil
}

// Create creates an account row on first touch with zero principal and
// the given frozen rate.
func (r *AccountRepository) Create(ctx context.Context, address string, rate *big.Int, settledAt time.Time) (*models.Account, error) {
	query := `
		INSERT INTO accounts (address, principal, rate, last_settled_at)
		VALUES ($1, 0, $2::numeric, $3)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, address, numericArg(rate), settledAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", address, err)
	}

	return account, nil
}

// AddPrincipal adds to an account's principal atomically
func (r *AccountRepository) AddPrincipal(ctx context.Context, address string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET principal = principal + $1::numeric, updated_at = NOW()
		WHERE address = $2
	`

	result, err := r.q.Exec(ctx, query, numericArg(amount), address)
	if err != nil {
		return fmt.Errorf("failed to add principal for %s: %w", address, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", address)
	}

	return nil
}

// DeductPrincipal deducts from an account's principal atomically, failing
// if the stored principal is insufficient. The >= guard in the WHERE
// clause keeps the check and the write in one statement.
func (r *AccountRepository) DeductPrincipal(ctx context.Context, address string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET principal = principal - $1::numeric, updated_at = NOW()
		WHERE address = $2 AND principal >= $1::numeric
	`

	result, err := r.q.Exec(ctx, query, numericArg(amount), address)
	if err != nil {
		return fmt.Errorf("failed to deduct principal for %s: %w", address, err)
	}

	if result.RowsAffected() == 0 {
		account, err := r.GetByAddress(ctx, address)
		if err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}
		if account == nil {
			return fmt.Errorf("account %s not found", address)
		}
		return fmt.Errorf("insufficient principal: have %s, need %s", account.Principal, amount)
	}

	return nil
}

// SetRate overwrites the account's frozen rate
func (r *AccountRepository) SetRate(ctx context.Context, address string, rate *big.Int) error {
	query := `
		UPDATE accounts
		SET rate = $1::numeric, updated_at = NOW()
		WHERE address = $2
	`

	result, err := r.q.Exec(ctx, query, numericArg(rate), address)
	if err != nil {
		return fmt.Errorf("failed to set rate for %s: %w", address, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", address)
	}

	return nil
}

// SetSettledAt updates the account's last settlement timestamp
func (r *AccountRepository) SetSettledAt(ctx context.Context, address string, settledAt time.Time) error {
	query := `
		UPDATE accounts
		SET last_settled_at = $1, updated_at = NOW()
		WHERE address = $2
	`

	result, err := r.q.Exec(ctx, query, settledAt, address)
	if err != nil {
		return fmt.Errorf("failed to set settlement time for %s: %w", address, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", address)
	}

	return nil
}

// GetAll returns all touched accounts
func (r *AccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
