// Package storage provides the data persistence layer for GreenStash.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/shopspring/decimal"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidID         = errors.New("id must be positive")
	ErrInvalidGoal       = errors.New("invalid goal")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrGoalNotFound      = errors.New("goal not found")
	ErrInvalidLedger     = errors.New("invalid ledger entry")
	ErrInvalidImportMode = errors.New("invalid import mode")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidID, paramName, id)
	}
	return nil
}

// validateGoal checks a goal before it is written.
func validateGoal(goal *model.Goal) error {
	if goal == nil {
		return fmt.Errorf("%w: goal", ErrNilParameter)
	}
	if goal.ID < 0 {
		return fmt.Errorf("%w: negative id", ErrInvalidGoal)
	}
	if strings.TrimSpace(goal.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidGoal)
	}
	if !goal.TargetAmount.IsPositive() {
		return fmt.Errorf("%w: target amount must be greater than zero", ErrInvalidGoal)
	}
	if goal.CurrentAmount.IsNegative() {
		return fmt.Errorf("%w: current amount cannot be negative", ErrInvalidGoal)
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}
	return nil
}

// validateLedgerEntry checks a deposit or withdrawal request.
func validateLedgerEntry(entry model.LedgerEntry) error {
	if !entry.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidLedger)
	}
	return nil
}
