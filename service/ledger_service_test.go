package service

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shubhamku044/cross-chain-rebase-token/accrual"
	"github.com/shubhamku044/cross-chain-rebase-token/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	vault  = "0xvau1t"
	bridge = "0xbr1dge"
	alice  = "0xa11ce"
	bob    = "0xb0b"
)

var (
	rate5e10 = big.NewInt(50_000_000_000)
	rate4e10 = big.NewInt(40_000_000_000)
)

// tokens converts whole units to the Precision-scaled representation.
func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), accrual.Precision)
}

type ledgerFixture struct {
	svc   LedgerService
	state *memState
	clock *fakeClock
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	clock := newFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	factory, state := newMemFactory(clock)

	// The vault holds the mint_and_burn role in every scenario
	state.roles[vault] = map[models.Role]*models.RoleGrant{
		models.RoleMintAndBurn: {Address: vault, Role: models.RoleMintAndBurn, GrantedBy: "owner"},
	}

	return &ledgerFixture{
		svc:   NewLedgerService(factory, clock),
		state: state,
		clock: clock,
	}
}

func TestMint_RequiresRole(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.Mint(context.Background(), alice, alice, tokens(1000), rate5e10, nil)

	var unauthorized *UnauthorizedError
	require.True(t, errors.As(err, &unauthorized))
	assert.Equal(t, alice, unauthorized.Address)
	assert.Empty(t, f.state.accounts)
	assert.Empty(t, f.state.entries)
}

func TestMint_FirstTouchCreatesAccount(t *testing.T) {
	f := newLedgerFixture(t)

	account, err := f.svc.Mint(context.Background(), vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, account.Principal.Cmp(tokens(1000)))
	assert.Equal(t, 0, account.Rate.Cmp(rate5e10))
	assert.Equal(t, f.clock.Now(), account.LastSettledAt)

	// First touch never produces an interest entry, only the mint
	require.Len(t, f.state.entries, 1)
	assert.Equal(t, models.EntryTypeMint, f.state.entries[0].EntryType)
}

func TestMint_SettlesUnderPreviousRateBeforeAssigning(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	// Second mint carries a lower rate; the hour of accrual that
	// precedes it must be realized under the original rate.
	account, err := f.svc.Mint(ctx, vault, alice, tokens(10), rate4e10, nil)
	require.NoError(t, err)

	interestEntries := f.state.entriesOfType(models.EntryTypeInterest)
	require.Len(t, interestEntries, 1)

	// 1000e18 * 3600 * 5e10 / 1e18
	expectedInterest := new(big.Int).Mul(tokens(1000), big.NewInt(3600))
	expectedInterest.Mul(expectedInterest, rate5e10)
	expectedInterest.Quo(expectedInterest, accrual.Precision)
	assert.Equal(t, 0, interestEntries[0].ChangeAmount.Cmp(expectedInterest))

	assert.Equal(t, 0, account.Rate.Cmp(rate4e10), "new rate is frozen after settlement")
}

func TestMint_NilRateFreezesGlobalRate(t *testing.T) {
	f := newLedgerFixture(t)
	f.state.globalRate = new(big.Int).Set(rate4e10)

	account, err := f.svc.Mint(context.Background(), vault, alice, tokens(100), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, account.Rate.Cmp(rate4e10))
}

func TestBalanceOf_LinearGrowthWithoutMutation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	balanceAfterOneHour, err := f.svc.BalanceOf(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 1, balanceAfterOneHour.Cmp(tokens(1000)), "balance must exceed principal after an hour")

	f.clock.Advance(time.Hour)
	balanceAfterTwoHours, err := f.svc.BalanceOf(ctx, alice)
	require.NoError(t, err)

	firstDelta := new(big.Int).Sub(balanceAfterOneHour, tokens(1000))
	secondDelta := new(big.Int).Sub(balanceAfterTwoHours, balanceAfterOneHour)

	diff := new(big.Int).Sub(firstDelta, secondDelta)
	diff.Abs(diff)
	assert.True(t, diff.Cmp(big.NewInt(1)) <= 0,
		"equal intervals must accrue equal increments, got %s vs %s", firstDelta, secondDelta)

	// Reading balances never realizes interest
	assert.Equal(t, 0, f.state.accounts[alice].Principal.Cmp(tokens(1000)))
	assert.Empty(t, f.state.entriesOfType(models.EntryTypeInterest))
}

func TestSettlement_IdempotentAtSameInstant(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	// First operation at the new instant realizes the hour of interest
	_, err = f.svc.Mint(ctx, vault, alice, tokens(1), rate5e10, nil)
	require.NoError(t, err)
	require.Len(t, f.state.entriesOfType(models.EntryTypeInterest), 1)

	// A second operation at the exact same instant realizes nothing more
	_, err = f.svc.Mint(ctx, vault, alice, tokens(1), rate5e10, nil)
	require.NoError(t, err)
	assert.Len(t, f.state.entriesOfType(models.EntryTypeInterest), 1)
}

func TestBurn_MaxSentinelEmptiesLiveBalance(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	liveBefore, err := f.svc.BalanceOf(ctx, alice)
	require.NoError(t, err)

	burned, err := f.svc.Burn(ctx, vault, alice, accrual.MaxAmount, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, burned.Cmp(liveBefore), "max burn resolves to the full live balance")

	balance, err := f.svc.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())

	principal, err := f.svc.PrincipalBalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, principal.Sign())
}

func TestBurn_InsufficientPrincipal(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(100), rate5e10, nil)
	require.NoError(t, err)

	_, err = f.svc.Burn(ctx, vault, alice, tokens(500), nil)

	var insufficient *InsufficientPrincipalError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, alice, insufficient.Address)
	assert.Equal(t, 0, insufficient.Need.Cmp(tokens(500)))
}

func TestBurn_RequiresRole(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(100), rate5e10, nil)
	require.NoError(t, err)

	_, err = f.svc.Burn(ctx, alice, alice, tokens(100), nil)

	var unauthorized *UnauthorizedError
	require.True(t, errors.As(err, &unauthorized))
}

func TestBurn_MaxOnUntouchedAccountBurnsNothing(t *testing.T) {
	f := newLedgerFixture(t)

	burned, err := f.svc.Burn(context.Background(), vault, "0xghost", accrual.MaxAmount, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, burned.Sign())
}

func TestZeroPrincipalFloor(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(100), rate5e10, nil)
	require.NoError(t, err)
	_, err = f.svc.Burn(ctx, vault, alice, accrual.MaxAmount, nil)
	require.NoError(t, err)

	// The account stays active with a nonzero rate, but nothing accrues
	// on zero principal no matter how much time passes.
	f.clock.Advance(365 * 24 * time.Hour)

	balance, err := f.svc.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())
	assert.Equal(t, 0, f.state.accounts[alice].Rate.Cmp(rate5e10))
}

func TestTransfer_FreshRecipientInheritsSenderRate(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)

	result, err := f.svc.Transfer(ctx, alice, bob, tokens(400))
	require.NoError(t, err)

	assert.True(t, result.RateInherited)
	assert.Equal(t, 0, result.Amount.Cmp(tokens(400)))
	assert.Equal(t, 0, result.SenderPrincipal.Cmp(tokens(600)))
	assert.Equal(t, 0, result.RecipientPrincipal.Cmp(tokens(400)))

	assert.Equal(t, 0, f.state.accounts[alice].Rate.Cmp(rate5e10), "sender keeps its rate")
	assert.Equal(t, 0, f.state.accounts[bob].Rate.Cmp(rate5e10), "recipient inherits the sender's rate")
}

func TestTransfer_FundedRecipientKeepsOwnRate(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)
	_, err = f.svc.Mint(ctx, vault, bob, tokens(50), rate4e10, nil)
	require.NoError(t, err)

	result, err := f.svc.Transfer(ctx, alice, bob, tokens(400))
	require.NoError(t, err)

	assert.False(t, result.RateInherited)
	assert.Equal(t, 0, f.state.accounts[bob].Rate.Cmp(rate4e10), "funded recipient keeps its frozen rate")
}

func TestTransfer_EmptiedRecipientInheritsAgain(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)
	_, err = f.svc.Mint(ctx, vault, bob, tokens(50), rate4e10, nil)
	require.NoError(t, err)
	_, err = f.svc.Burn(ctx, vault, bob, accrual.MaxAmount, nil)
	require.NoError(t, err)

	// Bob is back at zero principal: the next transfer is an effective
	// first touch and re-triggers inheritance.
	result, err := f.svc.Transfer(ctx, alice, bob, tokens(100))
	require.NoError(t, err)

	assert.True(t, result.RateInherited)
	assert.Equal(t, 0, f.state.accounts[bob].Rate.Cmp(rate5e10))
}

func TestTransfer_MaxSentinelMovesFullBalance(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	liveBefore, err := f.svc.BalanceOf(ctx, alice)
	require.NoError(t, err)

	result, err := f.svc.Transfer(ctx, alice, bob, accrual.MaxAmount)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Amount.Cmp(liveBefore))

	senderBalance, err := f.svc.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, senderBalance.Sign())
}

func TestTransfer_InsufficientPrincipal(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(100), rate5e10, nil)
	require.NoError(t, err)

	_, err = f.svc.Transfer(ctx, alice, bob, tokens(500))

	var insufficient *InsufficientPrincipalError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 0, insufficient.Have.Cmp(tokens(100)))
}

func TestTransfer_UnknownSender(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.Transfer(context.Background(), "0xghost", bob, tokens(1))

	var insufficient *InsufficientPrincipalError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 0, insufficient.Have.Sign())
}

func TestTransfer_ToSelfRejected(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.Transfer(context.Background(), alice, alice, tokens(1))
	assert.Error(t, err)
}

func TestTransferFrom_AllowanceEnforcedAndDecremented(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Approve(ctx, alice, bridge, tokens(300)))

	_, err = f.svc.TransferFrom(ctx, bridge, alice, bob, tokens(400))
	var insufficientAllowance *InsufficientAllowanceError
	require.True(t, errors.As(err, &insufficientAllowance))
	assert.Equal(t, 0, insufficientAllowance.Have.Cmp(tokens(300)))

	_, err = f.svc.TransferFrom(ctx, bridge, alice, bob, tokens(250))
	require.NoError(t, err)

	remaining, err := f.svc.Allowance(ctx, alice, bridge)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining.Cmp(tokens(50)))
}

func TestTransferFrom_MaxAllowanceNeverDecrements(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Approve(ctx, alice, bridge, accrual.MaxAmount))

	_, err = f.svc.TransferFrom(ctx, bridge, alice, bob, tokens(400))
	require.NoError(t, err)

	remaining, err := f.svc.Allowance(ctx, alice, bridge)
	require.NoError(t, err)
	assert.True(t, accrual.IsMax(remaining))
}

// The deposit scenario: 1000 units at rate 5e10, two one-hour warps with
// near-equal growth, then a max burn leaving exactly zero.
func TestScenario_DepositWarpBurn(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mint(ctx, vault, alice, tokens(1000), rate5e10, nil)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	afterFirstHour, err := f.svc.BalanceOf(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 1, afterFirstHour.Cmp(tokens(1000)))

	f.clock.Advance(time.Hour)
	afterSecondHour, err := f.svc.BalanceOf(ctx, alice)
	require.NoError(t, err)

	firstDelta := new(big.Int).Sub(afterFirstHour, tokens(1000))
	secondDelta := new(big.Int).Sub(afterSecondHour, afterFirstHour)

	// Tolerance of 0.01 units relative to the 1e18 precision
	tolerance := new(big.Int).Quo(accrual.Precision, big.NewInt(100))
	diff := new(big.Int).Sub(firstDelta, secondDelta)
	diff.Abs(diff)
	assert.True(t, diff.Cmp(tolerance) <= 0, "hourly growth diverged by %s", diff)

	_, err = f.svc.Burn(ctx, vault, alice, accrual.MaxAmount, nil)
	require.NoError(t, err)

	balance, err := f.svc.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())
}

// Mock-based check in the unit-of-work style: an unauthorized mint must
// roll back without touching any repository.
func TestMint_UnauthorizedNeverCommits(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockRoleRepo := new(MockRoleRepository)
	mockEntryRepo := new(MockLedgerEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, mockRoleRepo, nil, mockEntryRepo, nil)

	svc := NewLedgerService(mockFactory, SystemClock())

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	// No Commit() expected

	mockRoleRepo.On("HasRole", ctx, alice, models.RoleMintAndBurn).Return(false, nil)

	_, err := svc.Mint(ctx, alice, bob, tokens(10), rate5e10, nil)

	var unauthorized *UnauthorizedError
	require.True(t, errors.As(err, &unauthorized))

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockRoleRepo.AssertExpectations(t)
	mockAccountRepo.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything)
	mockEntryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}
