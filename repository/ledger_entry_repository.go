package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shubhamku044/cross-chain-rebase-token/database"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

// LedgerEntryRepository implements the service.LedgerEntryRepository
// interface over the append-only principal journal.
type LedgerEntryRepository struct {
	q queryable
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

// newLedgerEntryRepositoryWithTx creates a new ledger entry repository bound to a transaction
func newLedgerEntryRepositoryWithTx(tx queryable) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Record appends a new ledger entry
func (r *LedgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal entry metadata: %w", err)
		}
	}

	query := `
		INSERT INTO ledger_entries (address, principal_before, principal_after, change_amount, entry_type, metadata, reference)
		VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.Address,
		numericArg(entry.PrincipalBefore),
		numericArg(entry.PrincipalAfter),
		numericArg(entry.ChangeAmount),
		string(entry.EntryType),
		metadataJSON,
		entry.Reference,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record ledger entry for %s: %w", entry.Address, err)
	}

	return nil
}

// GetByAddress returns the most recent entries for an account
func (r *LedgerEntryRepository) GetByAddress(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, address, principal_before::text, principal_after::text, change_amount::text,
		       entry_type, metadata, reference, created_at
		FROM ledger_entries
		WHERE address = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for %s: %w", address, err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var before, after, change string
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.Address,
			&before,
			&after,
			&change,
			&entry.EntryType,
			&metadataJSON,
			&entry.Reference,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		if entry.PrincipalBefore, err = parseNumeric(before); err != nil {
			return nil, fmt.Errorf("failed to parse principal_before: %w", err)
		}
		if entry.PrincipalAfter, err = parseNumeric(after); err != nil {
			return nil, fmt.Errorf("failed to parse principal_after: %w", err)
		}
		if entry.ChangeAmount, err = parseNumeric(change); err != nil {
			return nil, fmt.Errorf("failed to parse change_amount: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal entry metadata: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
