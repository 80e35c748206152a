package goals_test

import (
	"context"
	"testing"

	"github.com/joshsymonds/greenstash/internal/storage"
	"github.com/joshsymonds/greenstash/internal/testutil/goals"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	seeded, err := goals.NewBuilder(t).
		WithFixture(goals.FixtureMixed).
		WithGoal(goals.Spec{Title: "Custom", Target: "50", Deposits: []string{"10", "5"}}).
		Build(ctx, store)
	require.NoError(t, err)
	require.Len(t, seeded, 4)

	assert.True(t, seeded[0].CurrentAmount.IsZero())
	assert.True(t, decimal.NewFromInt(1200).Equal(seeded[1].CurrentAmount))
	assert.True(t, seeded[2].IsCompleted())
	assert.True(t, decimal.NewFromInt(15).Equal(seeded[3].CurrentAmount))

	txns, err := store.GetTransactions(ctx, seeded[3].ID)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestBuilder_BadTarget(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	_, err = goals.NewBuilder(t).
		WithGoal(goals.Spec{Title: "Broken", Target: "lots"}).
		Build(context.Background(), store)
	assert.Error(t, err)
}
