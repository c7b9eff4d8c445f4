package repository

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/shubhamku044/cross-chain-rebase-token/accrual"
	"github.com/shubhamku044/cross-chain-rebase-token/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("untouched account is nil", func(t *testing.T) {
		account, err := repo.GetByAddress(ctx, "0xnobody")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("create on first touch", func(t *testing.T) {
		settledAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		account, err := repo.Create(ctx, "0xalice", testutil.DefaultRate, settledAt)
		require.NoError(t, err)
		require.NotNil(t, account)

		assert.Equal(t, "0xalice", account.Address)
		assert.Equal(t, 0, account.Principal.Sign(), "new accounts start at zero principal")
		assert.Equal(t, 0, account.Rate.Cmp(testutil.DefaultRate))
		assert.True(t, account.LastSettledAt.Equal(settledAt))
	})

	t.Run("duplicate create fails", func(t *testing.T) {
		_, err := repo.Create(ctx, "0xalice", testutil.DefaultRate, time.Now())
		assert.Error(t, err)
	})

	t.Run("lock and read", func(t *testing.T) {
		account, err := repo.GetForUpdate(ctx, "0xalice")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "0xalice", account.Address)
	})
}

// The full 256-bit range must survive the NUMERIC(78,0) round trip.
func TestAccountRepository_MaxValueRoundTrip(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "0xwhale", accrual.MaxAmount, time.Now())
	require.NoError(t, err)

	almostMax := new(big.Int).Sub(accrual.MaxAmount, big.NewInt(1))
	require.NoError(t, repo.AddPrincipal(ctx, "0xwhale", almostMax))

	account, err := repo.GetByAddress(ctx, "0xwhale")
	require.NoError(t, err)
	require.NotNil(t, account)

	assert.Equal(t, 0, account.Principal.Cmp(almostMax))
	assert.Equal(t, 0, account.Rate.Cmp(accrual.MaxAmount))
}

func TestAccountRepository_AddAndDeductPrincipal(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "0xbob", testutil.DefaultRate, time.Now())
	require.NoError(t, err)

	t.Run("add accumulates", func(t *testing.T) {
		require.NoError(t, repo.AddPrincipal(ctx, "0xbob", testutil.Tokens(100)))
		require.NoError(t, repo.AddPrincipal(ctx, "0xbob", testutil.Tokens(50)))

		account, err := repo.GetByAddress(ctx, "0xbob")
		require.NoError(t, err)
		assert.Equal(t, 0, account.Principal.Cmp(testutil.Tokens(150)))
	})

	t.Run("deduct subtracts", func(t *testing.T) {
		require.NoError(t, repo.DeductPrincipal(ctx, "0xbob", testutil.Tokens(60)))

		account, err := repo.GetByAddress(ctx, "0xbob")
		require.NoError(t, err)
		assert.Equal(t, 0, account.Principal.Cmp(testutil.Tokens(90)))
	})

	t.Run("deduct beyond stored principal fails and leaves the row alone", func(t *testing.T) {
		err := repo.DeductPrincipal(ctx, "0xbob", testutil.Tokens(1000))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient principal")

		account, err := repo.GetByAddress(ctx, "0xbob")
		require.NoError(t, err)
		assert.Equal(t, 0, account.Principal.Cmp(testutil.Tokens(90)))
	})

	t.Run("unknown account", func(t *testing.T) {
		err := repo.AddPrincipal(ctx, "0xghost", testutil.Tokens(1))
		assert.Error(t, err)

		err = repo.DeductPrincipal(ctx, "0xghost", testutil.Tokens(1))
		assert.Error(t, err)
	})

	t.Run("non-positive amounts rejected", func(t *testing.T) {
		assert.Error(t, repo.AddPrincipal(ctx, "0xbob", big.NewInt(0)))
		assert.Error(t, repo.DeductPrincipal(ctx, "0xbob", big.NewInt(-5)))
	})
}

func TestAccountRepository_SetRateAndSettledAt(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "0xcarol", testutil.DefaultRate, time.Now())
	require.NoError(t, err)

	newRate := big.NewInt(40_000_000_000)
	require.NoError(t, repo.SetRate(ctx, "0xcarol", newRate))

	settledAt := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetSettledAt(ctx, "0xcarol", settledAt))

	account, err := repo.GetByAddress(ctx, "0xcarol")
	require.NoError(t, err)
	assert.Equal(t, 0, account.Rate.Cmp(newRate))
	assert.True(t, account.LastSettledAt.Equal(settledAt))

	assert.Error(t, repo.SetRate(ctx, "0xghost", newRate))
	assert.Error(t, repo.SetSettledAt(ctx, "0xghost", settledAt))
}

func TestAccountRepository_GetAll(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	accounts, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	for _, address := range []string{"0xa", "0xb", "0xc"} {
		_, err := repo.Create(ctx, address, testutil.DefaultRate, time.Now())
		require.NoError(t, err)
	}

	accounts, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 3)
}
