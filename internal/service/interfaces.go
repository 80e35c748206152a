// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/shopspring/decimal"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Goal operations
	GetGoals(ctx context.Context) ([]model.Goal, error)
	GetGoal(ctx context.Context, id int64) (*model.Goal, error)
	SaveGoal(ctx context.Context, goal *model.Goal) error
	UpdateGoalAmount(ctx context.Context, id int64, amount decimal.Decimal) error
	DeleteGoal(ctx context.Context, id int64) error

	// Ledger operations
	GetTransactions(ctx context.Context, goalID int64) ([]model.Transaction, error)
	GetAllTransactions(ctx context.Context) ([]model.Transaction, error)
	Deposit(ctx context.Context, goalID int64, entry model.LedgerEntry) (*model.Goal, *model.Transaction, error)
	Withdraw(ctx context.Context, goalID int64, entry model.LedgerEntry) (*model.Goal, *model.Transaction, error)
	ImportStatement(ctx context.Context, goalID int64, entries []model.StatementEntry) (*model.ImportResult, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// GoalReport is everything a report writer needs to export the user's goals.
type GoalReport struct {
	GeneratedAt  time.Time
	Currency     string
	Goals        []model.Goal
	Transactions []model.Transaction
}

// ReportWriter publishes a goal report to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, report *GoalReport) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
