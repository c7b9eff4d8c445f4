package service

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shubhamku044/cross-chain-rebase-token/events"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByAddress retrieves an account by address, nil if never touched
	GetByAddress(ctx context.Context, address string) (*models.Account, error)

	// GetForUpdate retrieves an account and locks its row for the
	// remainder of the transaction, nil if never touched
	GetForUpdate(ctx context.Context, address string) (*models.Account, error)

	// Create creates an account row on first touch with zero principal
	Create(ctx context.Context, address string, rate *big.Int, settledAt time.Time) (*models.Account, error)

	// AddPrincipal adds to an account's principal atomically
	AddPrincipal(ctx context.Context, address string, amount *big.Int) error

	// DeductPrincipal deducts from an account's principal atomically,
	// failing if the stored principal is insufficient
	DeductPrincipal(ctx context.Context, address string, amount *big.Int) error

	// SetRate overwrites the account's frozen rate
	SetRate(ctx context.Context, address string, rate *big.Int) error

	// SetSettledAt updates the account's last settlement timestamp
	SetSettledAt(ctx context.Context, address string, settledAt time.Time) error

	// GetAll returns all touched accounts
	GetAll(ctx context.Context) ([]*models.Account, error)
}

// RateRepository defines the interface for global rate state access
type RateRepository interface {
	// GetGlobalRate returns the stored global rate
	GetGlobalRate(ctx context.Context) (*big.Int, error)

	// GetGlobalRateForUpdate returns the global rate and locks the state
	// row for the remainder of the transaction
	GetGlobalRateForUpdate(ctx context.Context) (*big.Int, error)

	// SetGlobalRate overwrites the stored global rate
	SetGlobalRate(ctx context.Context, rate *big.Int) error

	// EnsureGlobalRate inserts the initial rate if no state row exists
	EnsureGlobalRate(ctx context.Context, rate *big.Int) error

	// RecordChange appends a rate change to the history
	RecordChange(ctx context.Context, change *models.RateChange) error

	// GetHistory returns the most recent rate changes
	GetHistory(ctx context.Context, limit int) ([]*models.RateChange, error)
}

// RoleRepository defines the interface for the capability set
type RoleRepository interface {
	// HasRole reports whether an address holds a role
	HasRole(ctx context.Context, address string, role models.Role) (bool, error)

	// Grant adds a role grant, idempotent for an existing grant
	Grant(ctx context.Context, grant *models.RoleGrant) error

	// Revoke removes a role grant
	Revoke(ctx context.Context, address string, role models.Role) error

	// GetByRole returns all grants of a role
	GetByRole(ctx context.Context, role models.Role) ([]*models.RoleGrant, error)
}

// AllowanceRepository defines the interface for spender approvals
type AllowanceRepository interface {
	// Get returns the allowance owner has granted spender, zero if none
	Get(ctx context.Context, owner, spender string) (*big.Int, error)

	// Set overwrites the allowance owner grants spender
	Set(ctx context.Context, owner, spender string, amount *big.Int) error
}

// LedgerEntryRepository defines the interface for the principal journal
type LedgerEntryRepository interface {
	// Record appends a new ledger entry
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByAddress returns the most recent entries for an account
	GetByAddress(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error)
}

// EventPublisher defines the interface for publishing events within a
// unit of work; events are delivered only after the transaction commits
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork provides transactional access to all repositories
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Accounts returns the account repository for this unit of work
	Accounts() AccountRepository

	// Rates returns the rate repository for this unit of work
	Rates() RateRepository

	// Roles returns the role repository for this unit of work
	Roles() RoleRepository

	// Allowances returns the allowance repository for this unit of work
	Allowances() AllowanceRepository

	// LedgerEntries returns the journal repository for this unit of work
	LedgerEntries() LedgerEntryRepository

	// EventBus returns the transactional event publisher
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LedgerService defines the accrual ledger operations
type LedgerService interface {
	// Mint settles `to` under its previous rate, freezes `rate` (nil
	// means the current global rate), then adds `amount` of principal.
	// Requires the mint_and_burn role.
	Mint(ctx context.Context, caller, to string, amount, rate *big.Int, reference *uuid.UUID) (*models.Account, error)

	// Burn settles `from` and deducts `amount` of principal; the max
	// sentinel resolves to the full live balance. Requires the
	// mint_and_burn role. Returns the amount actually burned.
	Burn(ctx context.Context, caller, from string, amount *big.Int, reference *uuid.UUID) (*big.Int, error)

	// Transfer settles both sides, applies the rate inheritance rule and
	// moves principal from sender to recipient
	Transfer(ctx context.Context, sender, recipient string, amount *big.Int) (*models.TransferResult, error)

	// TransferFrom is Transfer on behalf of sender, limited by the
	// allowance sender has granted spender
	TransferFrom(ctx context.Context, spender, sender, recipient string, amount *big.Int) (*models.TransferResult, error)

	// Approve sets the allowance owner grants spender
	Approve(ctx context.Context, owner, spender string, amount *big.Int) error

	// Allowance returns the allowance owner has granted spender
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)

	// BalanceOf returns the live computed balance without settling
	BalanceOf(ctx context.Context, address string) (*big.Int, error)

	// PrincipalBalanceOf returns the settled principal without accrual
	PrincipalBalanceOf(ctx context.Context, address string) (*big.Int, error)

	// GetAccount returns the stored account state, nil if never touched
	GetAccount(ctx context.Context, address string) (*models.Account, error)

	// EntriesFor returns the most recent journal entries for an account
	EntriesFor(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error)
}

// RateService defines the rate registry operations
type RateService interface {
	// SetGlobalRate replaces the global rate; owner only; fails if the
	// new rate is a strict increase over the stored one
	SetGlobalRate(ctx context.Context, caller string, newRate *big.Int) error

	// GetGlobalRate returns the current global rate
	GetGlobalRate(ctx context.Context) (*big.Int, error)

	// GetAccountRate returns an account's frozen rate, zero if untouched
	GetAccountRate(ctx context.Context, address string) (*big.Int, error)

	// GetRateHistory returns the most recent successful rate changes
	GetRateHistory(ctx context.Context, limit int) ([]*models.RateChange, error)

	// SeedGlobalRate installs the initial global rate if none is stored
	SeedGlobalRate(ctx context.Context, initial *big.Int) error
}

// RoleService defines role administration; all mutations are owner only
type RoleService interface {
	// GrantRole grants the mint_and_burn role to an account
	GrantRole(ctx context.Context, caller, account string) error

	// RevokeRole revokes the mint_and_burn role from an account
	RevokeRole(ctx context.Context, caller, account string) error

	// HasMintAndBurnRole reports whether an account holds the role
	HasMintAndBurnRole(ctx context.Context, account string) (bool, error)

	// RoleHolders returns all current mint_and_burn grants
	RoleHolders(ctx context.Context) ([]*models.RoleGrant, error)
}

// Clock abstracts the settlement clock so accrual can be tested with
// warped time
type Clock interface {
	Now() time.Time
}
