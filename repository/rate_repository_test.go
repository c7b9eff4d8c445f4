package repository

import (
	"context"
	"math/big"
	"testing"

	"github.com/shubhamku044/cross-chain-rebase-token/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateRepository_SeedAndSet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRateRepository(testDB.DB)
	ctx := context.Background()

	t.Run("unseeded state errors", func(t *testing.T) {
		_, err := repo.GetGlobalRate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not seeded")

		err = repo.SetGlobalRate(ctx, testutil.DefaultRate)
		require.Error(t, err)
	})

	t.Run("ensure seeds once", func(t *testing.T) {
		require.NoError(t, repo.EnsureGlobalRate(ctx, testutil.DefaultRate))

		rate, err := repo.GetGlobalRate(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, rate.Cmp(testutil.DefaultRate))

		// A second ensure keeps the stored value
		require.NoError(t, repo.EnsureGlobalRate(ctx, big.NewInt(99)))

		rate, err = repo.GetGlobalRate(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, rate.Cmp(testutil.DefaultRate))
	})

	t.Run("set overwrites", func(t *testing.T) {
		newRate := big.NewInt(40_000_000_000)
		require.NoError(t, repo.SetGlobalRate(ctx, newRate))

		rate, err := repo.GetGlobalRate(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, rate.Cmp(newRate))

		locked, err := repo.GetGlobalRateForUpdate(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, locked.Cmp(newRate))
	})
}

func TestRateRepository_History(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRateRepository(testDB.DB)
	ctx := context.Background()

	history, err := repo.GetHistory(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	first := testutil.CreateTestRateChange(big.NewInt(50), big.NewInt(40), "0xowner")
	require.NoError(t, repo.RecordChange(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := testutil.CreateTestRateChange(big.NewInt(40), big.NewInt(30), "0xowner")
	require.NoError(t, repo.RecordChange(ctx, second))

	t.Run("newest first", func(t *testing.T) {
		history, err := repo.GetHistory(ctx, 10)
		require.NoError(t, err)
		require.Len(t, history, 2)

		assert.Equal(t, 0, history[0].NewRate.Cmp(big.NewInt(30)))
		assert.Equal(t, 0, history[1].NewRate.Cmp(big.NewInt(40)))
		assert.Equal(t, "0xowner", history[0].ChangedBy)
	})

	t.Run("limit respected", func(t *testing.T) {
		history, err := repo.GetHistory(ctx, 1)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, 0, history[0].NewRate.Cmp(big.NewInt(30)))
	})
}
