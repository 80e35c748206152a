package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money going into a goal from money coming out.
type TransactionType string

const (
	// TransactionDeposit adds money to a goal.
	TransactionDeposit TransactionType = "deposit"
	// TransactionWithdraw takes money out of a goal.
	TransactionWithdraw TransactionType = "withdraw"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TransactionDeposit || t == TransactionWithdraw
}

// Transaction is a single deposit or withdrawal against a goal.
type Transaction struct {
	Date       time.Time       `json:"date" yaml:"date"`
	CreatedAt  time.Time       `json:"created_at" yaml:"created_at"`
	ID         string          `json:"id" yaml:"id"`
	Notes      string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	ExternalID string          `json:"external_id,omitempty" yaml:"external_id,omitempty"` // bank statement id for imported entries
	Type       TransactionType `json:"type" yaml:"type"`
	Amount     decimal.Decimal `json:"amount" yaml:"amount"`
	GoalID     int64           `json:"goal_id" yaml:"goal_id"`
}

// SignedAmount returns the amount as it affects the goal balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionWithdraw {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Describe renders the one-line history text for the transaction.
func (t Transaction) Describe(currency string) string {
	label := "Deposited"
	if t.Type == TransactionWithdraw {
		label = "Withdrawn"
	}
	return fmt.Sprintf("%s | %s", label, FormatCurrency(t.Amount, currency))
}

// LedgerEntry is the user input for a deposit or withdrawal.
type LedgerEntry struct {
	Date   time.Time
	Notes  string
	Amount decimal.Decimal
}
