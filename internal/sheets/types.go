package sheets

import (
	"fmt"
	"slices"
	"time"

	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/service"
	"github.com/shopspring/decimal"
)

// Tab names in the exported spreadsheet.
const (
	SummaryTab      = "Summary"
	GoalsTab        = "Goals"
	TransactionsTab = "Transactions"
)

// GoalRow represents a single row in the Goals tab.
type GoalRow struct {
	Deadline  *time.Time
	Title     string
	Status    string
	Notes     string
	Target    decimal.Decimal
	Saved     decimal.Decimal
	Remaining decimal.Decimal
	Progress  float64
	ID        int64
}

// TransactionRow represents a single row in the Transactions tab.
type TransactionRow struct {
	Date    time.Time
	Goal    string
	Type    string
	Notes   string
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

// SummaryRow is a label/value pair on the Summary tab.
type SummaryRow struct {
	Value any
	Label string
}

// TabData holds all the data for the complete spreadsheet export.
type TabData struct {
	Summary      []SummaryRow
	Goals        []GoalRow
	Transactions []TransactionRow
}

// BuildTabData turns a goal report into spreadsheet rows. Transactions get a
// running balance per goal, computed oldest first and listed newest first.
// Timestamps are shown in loc. Deadlines are calendar dates and stay as they are.
func BuildTabData(report *service.GoalReport, loc *time.Location) *TabData {
	data := &TabData{}
	titles := make(map[int64]string, len(report.Goals))

	var saved, target decimal.Decimal
	completed := 0
	for _, g := range report.Goals {
		titles[g.ID] = g.Title
		saved = saved.Add(g.CurrentAmount)
		target = target.Add(g.TargetAmount)

		status := "Ongoing"
		if g.IsCompleted() {
			status = "Completed"
			completed++
		}

		data.Goals = append(data.Goals, GoalRow{
			ID:        g.ID,
			Title:     g.Title,
			Target:    g.TargetAmount,
			Saved:     g.CurrentAmount,
			Remaining: g.Remaining(),
			Progress:  g.Progress(),
			Status:    status,
			Deadline:  g.Deadline,
			Notes:     g.Notes,
		})
	}

	ordered := slices.Clone(report.Transactions)
	slices.SortStableFunc(ordered, func(a, b model.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	balances := make(map[int64]decimal.Decimal)
	rows := make([]TransactionRow, 0, len(ordered))
	for _, txn := range ordered {
		balance := balances[txn.GoalID].Add(txn.SignedAmount())
		balances[txn.GoalID] = balance

		rows = append(rows, TransactionRow{
			Date:    txn.Date.In(loc),
			Goal:    titles[txn.GoalID],
			Type:    typeLabel(txn.Type),
			Amount:  txn.SignedAmount(),
			Balance: balance,
			Notes:   txn.Notes,
		})
	}
	slices.Reverse(rows)
	data.Transactions = rows

	overall := 0.0
	if target.IsPositive() {
		overall = saved.Div(target).Mul(decimal.NewFromInt(100)).InexactFloat64()
		if overall > 100 {
			overall = 100
		}
	}

	data.Summary = []SummaryRow{
		{Label: "Generated", Value: report.GeneratedAt.In(loc).Format("Jan 2, 2006 15:04")},
		{Label: "Goals", Value: len(report.Goals)},
		{Label: "Completed", Value: completed},
		{Label: "Total saved", Value: saved.InexactFloat64()},
		{Label: "Total target", Value: target.InexactFloat64()},
		{Label: "Overall progress", Value: fmt.Sprintf("%.1f%%", overall)},
		{Label: "Transactions", Value: len(report.Transactions)},
	}

	return data
}

func typeLabel(t model.TransactionType) string {
	switch t {
	case model.TransactionDeposit:
		return "Deposit"
	case model.TransactionWithdraw:
		return "Withdrawal"
	default:
		return string(t)
	}
}
