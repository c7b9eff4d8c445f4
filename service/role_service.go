package service

import (
	"context"
	"fmt"

	"github.com/shubhamku044/cross-chain-rebase-token/events"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

type roleService struct {
	uowFactory UnitOfWorkFactory
	owner      string
}

// NewRoleService creates a new role service. owner is the single identity
// allowed to administer roles.
func NewRoleService(uowFactory UnitOfWorkFactory, owner string) RoleService {
	return &roleService{
		uowFactory: uowFactory,
		owner:      owner,
	}
}

func (s *roleService) GrantRole(ctx context.Context, caller, account string) error {
	if account == "" {
		return fmt.Errorf("account is required")
	}
	if caller != s.owner {
		return &UnauthorizedError{Address: caller, Action: "grant roles"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	grant := &models.RoleGrant{
		Address:   account,
		Role:      models.RoleMintAndBurn,
		GrantedBy: caller,
	}
	if err := uow.Roles().Grant(ctx, grant); err != nil {
		return err
	}

	uow.EventBus().Publish(events.RoleGrantedEvent{
		Address:   account,
		Role:      models.RoleMintAndBurn,
		GrantedBy: caller,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *roleService) RevokeRole(ctx context.Context, caller, account string) error {
	if account == "" {
		return fmt.Errorf("account is required")
	}
	if caller != s.owner {
		return &UnauthorizedError{Address: caller, Action: "revoke roles"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Roles().Revoke(ctx, account, models.RoleMintAndBurn); err != nil {
		return err
	}

	uow.EventBus().Publish(events.RoleRevokedEvent{
		Address:   account,
		Role:      models.RoleMintAndBurn,
		RevokedBy: caller,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *roleService) HasMintAndBurnRole(ctx context.Context, account string) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Roles().HasRole(ctx, account, models.RoleMintAndBurn)
}

func (s *roleService) RoleHolders(ctx context.Context) ([]*models.RoleGrant, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Roles().GetByRole(ctx, models.RoleMintAndBurn)
}
