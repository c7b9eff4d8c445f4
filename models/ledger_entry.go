package models

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

// EntryType represents the kind of principal change
type EntryType string

const (
	EntryTypeMint        EntryType = "mint"
	EntryTypeBurn        EntryType = "burn"
	EntryTypeTransferIn  EntryType = "transfer_in"
	EntryTypeTransferOut EntryType = "transfer_out"
	EntryTypeInterest    EntryType = "interest"
)

// LedgerEntry represents one historical principal change. Every mutation
// of an account's principal, including realized interest, appends exactly
// one entry.
type LedgerEntry struct {
	ID              int64          `db:"id"`
	Address         string         `db:"address"`
	PrincipalBefore *big.Int       `db:"principal_before"`
	PrincipalAfter  *big.Int       `db:"principal_after"`
	ChangeAmount    *big.Int       `db:"change_amount"`
	EntryType       EntryType      `db:"entry_type"`
	Metadata        map[string]any `db:"metadata"`
	Reference       *uuid.UUID     `db:"reference"` // collaborator-supplied reconciliation id
	CreatedAt       time.Time      `db:"created_at"`
}
