// Package testutil provides shared helpers for tests that need a GreenStash database.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/service"
	"github.com/joshsymonds/greenstash/internal/storage"
	"github.com/joshsymonds/greenstash/internal/testutil/goals"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	Goals   []model.Goal
}

// SetupTestDB creates a new in-memory test database seeded with the given
// fixture. It automatically handles migrations and cleanup. A nil fixture
// leaves the database empty.
//
// Example:
//
//	db := testutil.SetupTestDB(t, goals.FixtureMixed)
func SetupTestDB(t *testing.T, fixture goals.Fixture) *TestDB {
	t.Helper()

	return SetupTestDBWithBuilder(t, func(b goals.Builder) goals.Builder {
		if fixture == nil {
			return b
		}
		return b.WithFixture(fixture)
	})
}

// SetupTestDBWithBuilder creates a test database using a goal builder.
func SetupTestDBWithBuilder(t *testing.T, configure func(goals.Builder) goals.Builder) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	builder := goals.NewBuilder(t)
	if configure != nil {
		builder = configure(builder)
	}

	seeded, err := builder.Build(ctx, store)
	if err != nil {
		t.Fatalf("failed to seed goals: %v", err)
	}

	return &TestDB{
		Storage: store,
		Goals:   seeded,
		t:       t,
	}
}

// MustGetGoal returns the seeded goal with the given title or fails the test.
func (db *TestDB) MustGetGoal(title string) model.Goal {
	db.t.Helper()
	for _, g := range db.Goals {
		if g.Title == title {
			return g
		}
	}
	db.t.Fatalf("goal %q not found in test data", title)
	return model.Goal{}
}

// FindGoal reads the current state of the goal with the given title from
// storage or fails the test.
func (db *TestDB) FindGoal(title string) model.Goal {
	db.t.Helper()
	all, err := db.Storage.GetGoals(context.Background())
	if err != nil {
		db.t.Fatalf("failed to load goals: %v", err)
	}
	for _, g := range all {
		if g.Title == title {
			return g
		}
	}
	db.t.Fatalf("goal %q not found in database", title)
	return model.Goal{}
}

// WithTransaction executes the given function within a database transaction.
// The transaction is always rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
