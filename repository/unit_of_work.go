package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shubhamku044/cross-chain-rebase-token/database"
	"github.com/shubhamku044/cross-chain-rebase-token/events"
	"github.com/shubhamku044/cross-chain-rebase-token/service"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	accountRepo      service.AccountRepository
	rateRepo         service.RateRepository
	roleRepo         service.RoleRepository
	allowanceRepo    service.AllowanceRepository
	entryRepo        service.LedgerEntryRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.rateRepo = newRateRepositoryWithTx(tx)
	u.roleRepo = newRoleRepositoryWithTx(tx)
	u.allowanceRepo = newAllowanceRepositoryWithTx(tx)
	u.entryRepo = newLedgerEntryRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// Accounts returns the account repository for this unit of work
func (u *unitOfWork) Accounts() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// Rates returns the rate repository for this unit of work
func (u *unitOfWork) Rates() service.RateRepository {
	if u.rateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.rateRepo
}

// Roles returns the role repository for this unit of work
func (u *unitOfWork) Roles() service.RoleRepository {
	if u.roleRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.roleRepo
}

// Allowances returns the allowance repository for this unit of work
func (u *unitOfWork) Allowances() service.AllowanceRepository {
	if u.allowanceRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.allowanceRepo
}

// LedgerEntries returns the journal repository for this unit of work
func (u *unitOfWork) LedgerEntries() service.LedgerEntryRepository {
	if u.entryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.entryRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
