package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger rule errors.
var (
	ErrGoalAchieved      = errors.New("goal already achieved")
	ErrNothingToWithdraw = errors.New("nothing saved to withdraw")
	ErrInsufficientFunds = errors.New("withdrawal exceeds saved amount")
)

// ErrInvalidDate is returned for deadlines not written as YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// DateLayout is the input format for deadlines.
const DateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// Goal is a savings target with a title, a target amount and the amount saved so far.
type Goal struct {
	CreatedAt     time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" yaml:"updated_at"`
	Deadline      *time.Time      `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Title         string          `json:"title" yaml:"title"`
	Notes         string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	TargetAmount  decimal.Decimal `json:"target_amount" yaml:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount" yaml:"current_amount"`
	ID            int64           `json:"id" yaml:"id"`
}

// IsCompleted reports whether the saved amount has reached the target.
func (g Goal) IsCompleted() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Remaining returns how much is still needed, never below zero.
func (g Goal) Remaining() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Progress returns the completion percentage clamped to [0, 100].
func (g Goal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 100
	}

	pct := g.CurrentAmount.Div(g.TargetAmount).Mul(hundred).InexactFloat64()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// CanDeposit checks whether the goal still accepts deposits.
func (g Goal) CanDeposit() error {
	if g.IsCompleted() {
		return ErrGoalAchieved
	}
	return nil
}

// CanWithdraw checks whether amount can be taken out of the goal.
func (g Goal) CanWithdraw(amount decimal.Decimal) error {
	if g.CurrentAmount.IsZero() {
		return ErrNothingToWithdraw
	}
	if amount.GreaterThan(g.CurrentAmount) {
		return ErrInsufficientFunds
	}
	return nil
}

// DaysLeft returns the number of whole days until the deadline. Goals without a
// deadline, or with a deadline in the past, report zero.
func (g Goal) DaysLeft(now time.Time) int {
	if g.Deadline == nil {
		return 0
	}

	days := int(CalendarDate(*g.Deadline).Sub(CalendarDate(now)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// SavingsPlan describes how much needs to be saved per period to hit the deadline.
type SavingsPlan struct {
	Daily    decimal.Decimal
	Weekly   decimal.Decimal
	Monthly  decimal.Decimal
	DaysLeft int
}

// SavingsPlan computes the per-period amounts needed to reach the target by the
// deadline. ok is false when there is no deadline, the deadline has passed, or
// the goal is already completed.
func (g Goal) SavingsPlan(now time.Time) (plan SavingsPlan, ok bool) {
	if g.Deadline == nil || g.IsCompleted() {
		return SavingsPlan{}, false
	}

	days := g.DaysLeft(now)
	if days <= 0 {
		return SavingsPlan{}, false
	}

	remaining := g.Remaining()
	daysDec := decimal.NewFromInt(int64(days))

	plan = SavingsPlan{
		DaysLeft: days,
		Daily:    remaining.Div(daysDec).Round(2),
		Weekly:   remaining,
		Monthly:  remaining,
	}

	if days > 7 {
		plan.Weekly = remaining.Div(daysDec.Div(decimal.NewFromInt(7))).Round(2)
	}
	if days > 30 {
		plan.Monthly = remaining.Div(daysDec.Div(decimal.NewFromInt(30))).Round(2)
	}

	return plan, true
}

// CalendarDate returns midnight UTC of the day t falls on in its own location.
// Deadlines are stored this way so they read back as the same date in every
// time zone, and day counts between two calendar dates are exact multiples of
// 24 hours.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDeadline parses a YYYY-MM-DD deadline into its calendar date. Empty
// input means no deadline.
func ParseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w %q (want YYYY-MM-DD)", ErrInvalidDate, s)
	}
	due := CalendarDate(t)
	return &due, nil
}
