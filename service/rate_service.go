package service

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shubhamku044/cross-chain-rebase-token/events"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
	log "github.com/sirupsen/logrus"
)

type rateService struct {
	uowFactory UnitOfWorkFactory
	owner      string
}

// NewRateService creates a new rate service. owner is the single identity
// allowed to change the global rate.
func NewRateService(uowFactory UnitOfWorkFactory, owner string) RateService {
	return &rateService{
		uowFactory: uowFactory,
		owner:      owner,
	}
}

// SetGlobalRate replaces the global rate. The rate registry enforces the
// monotonic-decrease invariant: a strict increase over the stored value is
// rejected, re-setting an equal value is allowed.
func (s *rateService) SetGlobalRate(ctx context.Context, caller string, newRate *big.Int) error {
	if newRate == nil || newRate.Sign() < 0 {
		return fmt.Errorf("rate cannot be negative")
	}
	if caller != s.owner {
		return &UnauthorizedError{Address: caller, Action: "set the global rate"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Locks the state row so concurrent updates compare against a stable
	// stored value
	oldRate, err := uow.Rates().GetGlobalRateForUpdate(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stored global rate: %w", err)
	}

	if newRate.Cmp(oldRate) > 0 {
		return &RateIncreaseError{Old: oldRate, New: newRate}
	}

	if err := uow.Rates().SetGlobalRate(ctx, newRate); err != nil {
		return fmt.Errorf("failed to store global rate: %w", err)
	}

	change := &models.RateChange{
		OldRate:   oldRate,
		NewRate:   newRate,
		ChangedBy: caller,
	}
	if err := uow.Rates().RecordChange(ctx, change); err != nil {
		return fmt.Errorf("failed to record rate change: %w", err)
	}

	uow.EventBus().Publish(events.RateChangedEvent{
		OldRate:   oldRate,
		NewRate:   newRate,
		ChangedBy: caller,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *rateService) GetGlobalRate(ctx context.Context) (*big.Int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Rates().GetGlobalRate(ctx)
}

// GetAccountRate returns an account's frozen rate. An account that has
// never been touched behaves as rate zero.
func (s *rateService) GetAccountRate(ctx context.Context, address string) (*big.Int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.Accounts().GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return big.NewInt(0), nil
	}

	return account.Rate, nil
}

func (s *rateService) GetRateHistory(ctx context.Context, limit int) ([]*models.RateChange, error) {
	if limit <= 0 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Rates().GetHistory(ctx, limit)
}

// SeedGlobalRate installs the initial global rate if none is stored yet.
// Called once at startup; a restart against an existing database keeps
// the stored rate.
func (s *rateService) SeedGlobalRate(ctx context.Context, initial *big.Int) error {
	if initial == nil || initial.Sign() < 0 {
		return fmt.Errorf("initial rate cannot be negative")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Rates().EnsureGlobalRate(ctx, initial); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("rate", initial.String()).Debug("Global rate seeded")
	return nil
}
