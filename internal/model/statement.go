package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementEntry is one line of a bank statement. Amount is signed: credits are
// positive and debits negative.
type StatementEntry struct {
	Date       time.Time
	ExternalID string
	AccountID  string
	Memo       string
	Amount     decimal.Decimal
}

// Key identifies the entry across imports. Banks only guarantee statement ids
// to be unique within one account, so the account id is part of the key.
// Entries without a statement id have no key.
func (e StatementEntry) Key() string {
	if e.ExternalID == "" {
		return ""
	}
	if e.AccountID == "" {
		return e.ExternalID
	}
	return e.AccountID + ":" + e.ExternalID
}

// TransactionType maps the entry's sign onto a goal transaction type.
func (e StatementEntry) TransactionType() TransactionType {
	if e.Amount.IsNegative() {
		return TransactionWithdraw
	}
	return TransactionDeposit
}

// SkippedEntry records a statement entry that could not be applied.
type SkippedEntry struct {
	Entry  StatementEntry
	Reason string
}

// ImportResult summarizes applying a statement to a goal.
type ImportResult struct {
	Goal       *Goal
	Skipped    []SkippedEntry
	Imported   int
	Duplicates int
}
