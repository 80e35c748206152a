// Package goals provides a fluent API for seeding savings goals and their
// ledgers in tests.
//
// Example usage:
//
//	seeded, err := goals.NewBuilder(t).
//		WithFixture(goals.FixtureMixed).
//		WithGoal(goals.Spec{Title: "Custom", Target: "50"}).
//		Build(ctx, store)
package goals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/service"
	"github.com/shopspring/decimal"
)

// Spec describes a goal to seed. Deposits are applied in order through the
// ledger so each one leaves a transaction behind.
type Spec struct {
	Deadline *time.Time
	Title    string
	Target   string
	Notes    string
	Deposits []string
}

// Builder provides a fluent interface for constructing test goals.
type Builder interface {
	// WithGoal adds a single goal.
	WithGoal(spec Spec) Builder

	// WithFixture adds every goal from a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// Build saves the goals in the provided storage and returns them as stored.
	Build(ctx context.Context, storage service.Storage) ([]model.Goal, error)
}

type goalBuilder struct {
	t     *testing.T
	specs []Spec
}

// NewBuilder creates a new goal builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &goalBuilder{t: t}
}

func (b *goalBuilder) WithGoal(spec Spec) Builder {
	b.specs = append(b.specs, spec)
	return b
}

func (b *goalBuilder) WithFixture(fixture Fixture) Builder {
	b.specs = append(b.specs, fixture.Goals()...)
	return b
}

func (b *goalBuilder) Build(ctx context.Context, storage service.Storage) ([]model.Goal, error) {
	b.t.Helper()

	result := make([]model.Goal, 0, len(b.specs))
	for _, spec := range b.specs {
		target, err := decimal.NewFromString(spec.Target)
		if err != nil {
			return nil, fmt.Errorf("goal %q: bad target %q: %w", spec.Title, spec.Target, err)
		}

		goal := &model.Goal{
			Title:        spec.Title,
			Notes:        spec.Notes,
			TargetAmount: target,
			Deadline:     spec.Deadline,
		}
		if err := storage.SaveGoal(ctx, goal); err != nil {
			return nil, fmt.Errorf("failed to create goal %q: %w", spec.Title, err)
		}

		for _, raw := range spec.Deposits {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("goal %q: bad deposit %q: %w", spec.Title, raw, err)
			}
			updated, _, err := storage.Deposit(ctx, goal.ID, model.LedgerEntry{Amount: amount, Notes: "seed"})
			if err != nil {
				return nil, fmt.Errorf("goal %q: deposit %s: %w", spec.Title, raw, err)
			}
			goal = updated
		}

		result = append(result, *goal)
	}

	return result, nil
}
