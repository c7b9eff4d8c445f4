package api

import (
	"context"
	"math/big"

	"github.com/google/uuid"
	"github.com/shubhamku044/cross-chain-rebase-token/models"

	"github.com/stretchr/testify/mock"
)

// MockLedgerService is a mock implementation of service.LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Mint(ctx context.Context, caller, to string, amount, rate *big.Int, reference *uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, caller, to, amount, rate, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockLedgerService) Burn(ctx context.Context, caller, from string, amount *big.Int, reference *uuid.UUID) (*big.Int, error) {
	args := m.Called(ctx, caller, from, amount, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) Transfer(ctx context.Context, sender, recipient string, amount *big.Int) (*models.TransferResult, error) {
	args := m.Called(ctx, sender, recipient, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferResult), args.Error(1)
}

func (m *MockLedgerService) TransferFrom(ctx context.Context, spender, sender, recipient string, amount *big.Int) (*models.TransferResult, error) {
	args := m.Called(ctx, spender, sender, recipient, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferResult), args.Error(1)
}

func (m *MockLedgerService) Approve(ctx context.Context, owner, spender string, amount *big.Int) error {
	args := m.Called(ctx, owner, spender, amount)
	return args.Error(0)
}

func (m *MockLedgerService) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	args := m.Called(ctx, owner, spender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) PrincipalBalanceOf(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) GetAccount(ctx context.Context, address string) (*models.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockLedgerService) EntriesFor(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

// MockRateService is a mock implementation of service.RateService
type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) SetGlobalRate(ctx context.Context, caller string, newRate *big.Int) error {
	args := m.Called(ctx, caller, newRate)
	return args.Error(0)
}

func (m *MockRateService) GetGlobalRate(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockRateService) GetAccountRate(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockRateService) GetRateHistory(ctx context.Context, limit int) ([]*models.RateChange, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RateChange), args.Error(1)
}

func (m *MockRateService) SeedGlobalRate(ctx context.Context, initial *big.Int) error {
	args := m.Called(ctx, initial)
	return args.Error(0)
}

// MockRoleService is a mock implementation of service.RoleService
type MockRoleService struct {
	mock.Mock
}

func (m *MockRoleService) GrantRole(ctx context.Context, caller, account string) error {
	args := m.Called(ctx, caller, account)
	return args.Error(0)
}

func (m *MockRoleService) RevokeRole(ctx context.Context, caller, account string) error {
	args := m.Called(ctx, caller, account)
	return args.Error(0)
}

func (m *MockRoleService) HasMintAndBurnRole(ctx context.Context, account string) (bool, error) {
	args := m.Called(ctx, account)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleService) RoleHolders(ctx context.Context) ([]*models.RoleGrant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoleGrant), args.Error(1)
}
