package components

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
	"github.com/stretchr/testify/assert"
)

func historyFixture() HistoryData {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.AddDate(0, 0, 60)

	return HistoryData{
		Now:        now,
		Currency:   "$",
		DateFormat: "2006-01-02",
		Goal: model.Goal{
			ID:            2,
			Title:         "Vacation in Japan",
			TargetAmount:  dec("3000"),
			CurrentAmount: dec("1200"),
			Deadline:      &deadline,
			Notes:         "Cherry blossom season",
		},
		Transactions: []model.Transaction{
			{ID: "b", GoalID: 2, Type: model.TransactionWithdraw, Amount: dec("50"), Date: now.AddDate(0, 0, -1), Notes: "train"},
			{ID: "a", GoalID: 2, Type: model.TransactionDeposit, Amount: dec("1250"), Date: now.AddDate(0, 0, -10)},
		},
	}
}

func TestHistory_View(t *testing.T) {
	m := NewHistory(historyFixture(), themes.Default, 100, 40)
	view := m.View()

	assert.Contains(t, view, "Vacation in Japan")
	assert.Contains(t, view, "$1,200.00 of $3,000.00")
	assert.Contains(t, view, "$1,800.00")
	assert.Contains(t, view, "60 days left")
	assert.Contains(t, view, "$30.00 a day")
	assert.Contains(t, view, "Cherry blossom season")
	assert.Contains(t, view, "Withdrawn | $50.00")
	assert.Contains(t, view, "Deposited | $1,250.00")
	assert.Contains(t, view, "train")
	assert.Contains(t, view, "2026-02-28")
}

func TestHistory_Empty(t *testing.T) {
	data := historyFixture()
	data.Transactions = nil
	data.Goal.Deadline = nil
	data.Goal.CurrentAmount = dec("3000")

	view := NewHistory(data, themes.Default, 80, 30).View()

	assert.Contains(t, view, "No transactions yet")
	assert.Contains(t, view, "Goal achieved")
	assert.NotContains(t, view, "Deadline")
}

func TestHistory_Close(t *testing.T) {
	m := NewHistory(historyFixture(), themes.Default, 80, 30)
	assert.False(t, m.Closed())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.False(t, m.Closed())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.Closed())
	assert.Equal(t, int64(2), m.Goal().ID)
}
