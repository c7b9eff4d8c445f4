package testutil

import (
	"math/big"

	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

// DefaultRate is a frozen per-second rate used across repository tests,
// scaled by 1e18.
var DefaultRate = big.NewInt(50_000_000_000)

// Tokens converts whole units to the 1e18-scaled representation
func Tokens(n int64) *big.Int {
	scale, _ := new(big.Int).SetString("1000000000000000000", 10)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

// CreateTestLedgerEntry creates a mint entry with default amounts
func CreateTestLedgerEntry(address string, entryType models.EntryType) *models.LedgerEntry {
	return &models.LedgerEntry{
		Address:         address,
		PrincipalBefore: big.NewInt(0),
		PrincipalAfter:  Tokens(100),
		ChangeAmount:    Tokens(100),
		EntryType:       entryType,
		Metadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestLedgerEntryWithAmounts creates an entry with specific amounts
func CreateTestLedgerEntryWithAmounts(address string, before, after, change *big.Int, entryType models.EntryType) *models.LedgerEntry {
	entry := CreateTestLedgerEntry(address, entryType)
	entry.PrincipalBefore = before
	entry.PrincipalAfter = after
	entry.ChangeAmount = change
	return entry
}

// CreateTestRateChange creates a rate change record
func CreateTestRateChange(oldRate, newRate *big.Int, changedBy string) *models.RateChange {
	return &models.RateChange{
		OldRate:   oldRate,
		NewRate:   newRate,
		ChangedBy: changedBy,
	}
}

// CreateTestRoleGrant creates a mint_and_burn grant
func CreateTestRoleGrant(address, grantedBy string) *models.RoleGrant {
	return &models.RoleGrant{
		Address:   address,
		Role:      models.RoleMintAndBurn,
		GrantedBy: grantedBy,
	}
}
