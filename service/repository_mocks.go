package service

import (
	"context"
	"math/big"
	"time"

	"github.com/shubhamku044/cross-chain-rebase-token/events"
	"github.com/shubhamku044/cross-chain-rebase-token/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByAddress(ctx context.Context, address string) (*models.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetForUpdate(ctx context.Context, address string) (*models.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, address string, rate *big.Int, settledAt time.Time) (*models.Account, error) {
	args := m.Called(ctx, address, rate, settledAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddPrincipal(ctx context.Context, address string, amount *big.Int) error {
	args := m.Called(ctx, address, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) DeductPrincipal(ctx context.Context, address string, amount *big.Int) error {
	args := m.Called(ctx, address, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) SetRate(ctx context.Context, address string, rate *big.Int) error {
	args := m.Called(ctx, address, rate)
	return args.Error(0)
}

func (m *MockAccountRepository) SetSettledAt(ctx context.Context, address string, settledAt time.Time) error {
	args := m.Called(ctx, address, settledAt)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

// MockRateRepository is a mock implementation of RateRepository
type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) GetGlobalRate(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockRateRepository) GetGlobalRateForUpdate(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockRateRepository) SetGlobalRate(ctx context.Context, rate *big.Int) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockRateRepository) EnsureGlobalRate(ctx context.Context, rate *big.Int) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockRateRepository) RecordChange(ctx context.Context, change *models.RateChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockRateRepository) GetHistory(ctx context.Context, limit int) ([]*models.RateChange, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RateChange), args.Error(1)
}

// MockRoleRepository is a mock implementation of RoleRepository
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) HasRole(ctx context.Context, address string, role models.Role) (bool, error) {
	args := m.Called(ctx, address, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleRepository) Grant(ctx context.Context, grant *models.RoleGrant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *MockRoleRepository) Revoke(ctx context.Context, address string, role models.Role) error {
	args := m.Called(ctx, address, role)
	return args.Error(0)
}

func (m *MockRoleRepository) GetByRole(ctx context.Context, role models.Role) ([]*models.RoleGrant, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoleGrant), args.Error(1)
}

// MockAllowanceRepository is a mock implementation of AllowanceRepository
type MockAllowanceRepository struct {
	mock.Mock
}

func (m *MockAllowanceRepository) Get(ctx context.Context, owner, spender string) (*big.Int, error) {
	args := m.Called(ctx, owner, spender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockAllowanceRepository) Set(ctx context.Context, owner, spender string, amount *big.Int) error {
	args := m.Called(ctx, owner, spender, amount)
	return args.Error(0)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetByAddress(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock

	accountRepo   AccountRepository
	rateRepo      RateRepository
	roleRepo      RoleRepository
	allowanceRepo AllowanceRepository
	entryRepo     LedgerEntryRepository
	publisher     EventPublisher
}

// SetRepositories configures the repositories returned by the accessors
func (m *MockUnitOfWork) SetRepositories(
	accounts AccountRepository,
	rates RateRepository,
	roles RoleRepository,
	allowances AllowanceRepository,
	entries LedgerEntryRepository,
	publisher EventPublisher,
) {
	m.accountRepo = accounts
	m.rateRepo = rates
	m.roleRepo = roles
	m.allowanceRepo = allowances
	m.entryRepo = entries
	m.publisher = publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Accounts() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) Rates() RateRepository {
	return m.rateRepo
}

func (m *MockUnitOfWork) Roles() RoleRepository {
	return m.roleRepo
}

func (m *MockUnitOfWork) Allowances() AllowanceRepository {
	return m.allowanceRepo
}

func (m *MockUnitOfWork) LedgerEntries() LedgerEntryRepository {
	return m.entryRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.publisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
