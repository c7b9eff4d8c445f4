package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shubhamku044/cross-chain-rebase-token/events"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

// In-memory fixtures for scenario tests that need stateful repositories
// across many operations (time warps, settlement sequences). The mock
// repositories in repository_mocks.go stay the right tool for single-call
// expectation tests.

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memState struct {
	accounts    map[string]*models.Account
	globalRate  *big.Int
	rateChanges []*models.RateChange
	roles       map[string]map[models.Role]*models.RoleGrant
	allowances  map[string]*big.Int
	entries     []*models.LedgerEntry
	published   []events.Event
	now         func() time.Time
}

func newMemState(clock Clock) *memState {
	return &memState{
		accounts:   make(map[string]*models.Account),
		globalRate: big.NewInt(0),
		roles:      make(map[string]map[models.Role]*models.RoleGrant),
		allowances: make(map[string]*big.Int),
		now:        clock.Now,
	}
}

func allowanceKey(owner, spender string) string {
	return owner + "\x00" + spender
}

// memUnitOfWorkFactory hands every unit of work the same shared state.
type memUnitOfWorkFactory struct {
	state *memState
}

func newMemFactory(clock Clock) (*memUnitOfWorkFactory, *memState) {
	state := newMemState(clock)
	return &memUnitOfWorkFactory{state: state}, state
}

func (f *memUnitOfWorkFactory) Create() UnitOfWork {
	return &memUnitOfWork{state: f.state}
}

type memUnitOfWork struct {
	state *memState
}

func (u *memUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *memUnitOfWork) Commit() error                   { return nil }
func (u *memUnitOfWork) Rollback() error                 { return nil }

func (u *memUnitOfWork) Accounts() AccountRepository         { return &memAccountRepo{u.state} }
func (u *memUnitOfWork) Rates() RateRepository               { return &memRateRepo{u.state} }
func (u *memUnitOfWork) Roles() RoleRepository               { return &memRoleRepo{u.state} }
func (u *memUnitOfWork) Allowances() AllowanceRepository     { return &memAllowanceRepo{u.state} }
func (u *memUnitOfWork) LedgerEntries() LedgerEntryRepository { return &memEntryRepo{u.state} }
func (u *memUnitOfWork) EventBus() EventPublisher            { return &memPublisher{u.state} }

type memAccountRepo struct {
	state *memState
}

func (r *memAccountRepo) get(address string) *models.Account {
	account, ok := r.state.accounts[address]
	if !ok {
		return nil
	}
	copied := *account
	copied.Principal = new(big.Int).Set(account.Principal)
	copied.Rate = new(big.Int).Set(account.Rate)
	return &copied
}

func (r *memAccountRepo) GetByAddress(ctx context.Context, address string) (*models.Account, error) {
	return r.get(address), nil
}

func (r *memAccountRepo) GetForUpdate(ctx context.Context, address string) (*models.Account, error) {
	return r.get(address), nil
}

func (r *memAccountRepo) Create(ctx context.Context, address string, rate *big.Int, settledAt time.Time) (*models.Account, error) {
	if _, exists := r.state.accounts[address]; exists {
		return nil, fmt.Errorf("account %s already exists", address)
	}
	account := &models.Account{
		Address:       address,
		Principal:     big.NewInt(0),
		Rate:          new(big.Int).Set(rate),
		LastSettledAt: settledAt,
		CreatedAt:     r.state.now(),
		UpdatedAt:     r.state.now(),
	}
	r.state.accounts[address] = account
	return r.get(address), nil
}

func (r *memAccountRepo) AddPrincipal(ctx context.Context, address string, amount *big.Int) error {
	account, ok := r.state.accounts[address]
	if !ok {
		return fmt.Errorf("account %s not found", address)
	}
	account.Principal.Add(account.Principal, amount)
	return nil
}

func (r *memAccountRepo) DeductPrincipal(ctx context.Context, address string, amount *big.Int) error {
	account, ok := r.state.accounts[address]
	if !ok {
		return fmt.Errorf("account %s not found", address)
	}
	if account.Principal.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient principal: have %s, need %s", account.Principal, amount)
	}
	account.Principal.Sub(account.Principal, amount)
	return nil
}

func (r *memAccountRepo) SetRate(ctx context.Context, address string, rate *big.Int) error {
	account, ok := r.state.accounts[address]
	if !ok {
		return fmt.Errorf("account %s not found", address)
	}
	account.Rate = new(big.Int).Set(rate)
	return nil
}

func (r *memAccountRepo) SetSettledAt(ctx context.Context, address string, settledAt time.Time) error {
	account, ok := r.state.accounts[address]
	if !ok {
		return fmt.Errorf("account %s not found", address)
	}
	account.LastSettledAt = settledAt
	return nil
}

func (r *memAccountRepo) GetAll(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	for address := range r.state.accounts {
		accounts = append(accounts, r.get(address))
	}
	return accounts, nil
}

type memRateRepo struct {
	state *memState
}

func (r *memRateRepo) GetGlobalRate(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(r.state.globalRate), nil
}

func (r *memRateRepo) GetGlobalRateForUpdate(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(r.state.globalRate), nil
}

func (r *memRateRepo) SetGlobalRate(ctx context.Context, rate *big.Int) error {
	r.state.globalRate = new(big.Int).Set(rate)
	return nil
}

func (r *memRateRepo) EnsureGlobalRate(ctx context.Context, rate *big.Int) error {
	if r.state.globalRate.Sign() == 0 {
		r.state.globalRate = new(big.Int).Set(rate)
	}
	return nil
}

func (r *memRateRepo) RecordChange(ctx context.Context, change *models.RateChange) error {
	change.ID = int64(len(r.state.rateChanges) + 1)
	change.CreatedAt = r.state.now()
	r.state.rateChanges = append(r.state.rateChanges, change)
	return nil
}

func (r *memRateRepo) GetHistory(ctx context.Context, limit int) ([]*models.RateChange, error) {
	changes := r.state.rateChanges
	if len(changes) > limit {
		changes = changes[len(changes)-limit:]
	}
	out := make([]*models.RateChange, 0, len(changes))
	for i := len(changes) - 1; i >= 0; i-- {
		out = append(out, changes[i])
	}
	return out, nil
}

type memRoleRepo struct {
	state *memState
}

func (r *memRoleRepo) HasRole(ctx context.Context, address string, role models.Role) (bool, error) {
	_, ok := r.state.roles[address][role]
	return ok, nil
}

func (r *memRoleRepo) Grant(ctx context.Context, grant *models.RoleGrant) error {
	if r.state.roles[grant.Address] == nil {
		r.state.roles[grant.Address] = make(map[models.Role]*models.RoleGrant)
	}
	if _, exists := r.state.roles[grant.Address][grant.Role]; !exists {
		grant.GrantedAt = r.state.now()
		r.state.roles[grant.Address][grant.Role] = grant
	}
	return nil
}

func (r *memRoleRepo) Revoke(ctx context.Context, address string, role models.Role) error {
	delete(r.state.roles[address], role)
	return nil
}

func (r *memRoleRepo) GetByRole(ctx context.Context, role models.Role) ([]*models.RoleGrant, error) {
	var grants []*models.RoleGrant
	for _, byRole := range r.state.roles {
		if grant, ok := byRole[role]; ok {
			grants = append(grants, grant)
		}
	}
	return grants, nil
}

type memAllowanceRepo struct {
	state *memState
}

func (r *memAllowanceRepo) Get(ctx context.Context, owner, spender string) (*big.Int, error) {
	if allowance, ok := r.state.allowances[allowanceKey(owner, spender)]; ok {
		return new(big.Int).Set(allowance), nil
	}
	return big.NewInt(0), nil
}

func (r *memAllowanceRepo) Set(ctx context.Context, owner, spender string, amount *big.Int) error {
	r.state.allowances[allowanceKey(owner, spender)] = new(big.Int).Set(amount)
	return nil
}

type memEntryRepo struct {
	state *memState
}

func (r *memEntryRepo) Record(ctx context.Context, entry *models.LedgerEntry) error {
	entry.ID = int64(len(r.state.entries) + 1)
	entry.CreatedAt = r.state.now()
	r.state.entries = append(r.state.entries, entry)
	return nil
}

func (r *memEntryRepo) GetByAddress(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	for i := len(r.state.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		if r.state.entries[i].Address == address {
			entries = append(entries, r.state.entries[i])
		}
	}
	return entries, nil
}

type memPublisher struct {
	state *memState
}

func (p *memPublisher) Publish(event events.Event) {
	p.state.published = append(p.state.published, event)
}

// entriesOfType filters the journal by entry type, oldest first.
func (s *memState) entriesOfType(entryType models.EntryType) []*models.LedgerEntry {
	var out []*models.LedgerEntry
	for _, entry := range s.entries {
		if entry.EntryType == entryType {
			out = append(out, entry)
		}
	}
	return out
}
