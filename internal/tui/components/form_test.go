package components

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m FormModel, text string) FormModel {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func pressKey(m FormModel, k tea.KeyType) FormModel {
	m, _ = m.Update(tea.KeyMsg{Type: k})
	return m
}

func TestAmountForm_EmptyAmountRejected(t *testing.T) {
	m := NewAmountForm("Deposit", "Bike", themes.Default)

	m = pressKey(m, tea.KeyEnter)

	require.Error(t, m.Err())
	assert.ErrorIs(t, m.Err(), model.ErrEmptyAmount)
	assert.Equal(t, "amount cannot be empty", m.Err().Error())
	assert.False(t, m.IsComplete())
	assert.Equal(t, 0, m.Focused())
	assert.Contains(t, m.View(), "amount cannot be empty")
}

func TestAmountForm_Submit(t *testing.T) {
	m := NewAmountForm("Deposit", "Bike", themes.Default)

	m = typeText(m, "12,50")
	m = pressKey(m, tea.KeyEnter)
	assert.NoError(t, m.Err())
	assert.Equal(t, 1, m.Focused())

	m = typeText(m, "birthday money")
	m = pressKey(m, tea.KeyEnter)

	require.True(t, m.IsComplete())
	assert.Equal(t, "12,50", m.Value(0))
	assert.Equal(t, "birthday money", m.Value(1))
}

func TestAmountForm_NotesOptional(t *testing.T) {
	m := NewAmountForm("Withdraw", "Bike", themes.Default)

	m = typeText(m, "5")
	m = pressKey(m, tea.KeyTab)
	m = pressKey(m, tea.KeyEnter)

	assert.True(t, m.IsComplete())
	assert.Empty(t, m.Value(1))
}

func TestAmountForm_InvalidAmountRefocuses(t *testing.T) {
	m := NewAmountForm("Deposit", "", themes.Default)

	m = typeText(m, "-3")
	m = pressKey(m, tea.KeyTab)
	m = pressKey(m, tea.KeyEnter)

	assert.False(t, m.IsComplete())
	assert.ErrorIs(t, m.Err(), model.ErrNonPositiveAmount)
	assert.Equal(t, 0, m.Focused())
}

func TestGoalForm_RequiresTitle(t *testing.T) {
	m := NewGoalForm(themes.Default)

	m = pressKey(m, tea.KeyEnter)
	require.Error(t, m.Err())
	assert.Equal(t, "title cannot be empty", m.Err().Error())

	m = typeText(m, "Bike")
	m = pressKey(m, tea.KeyEnter)
	m = typeText(m, "600")
	m = pressKey(m, tea.KeyEnter)
	m = pressKey(m, tea.KeyEnter)

	require.True(t, m.IsComplete())
	assert.Equal(t, "Bike", m.Value(0))
	assert.Equal(t, "600", m.Value(1))
	assert.Equal(t, "", m.Value(5))
}

func TestEditGoalForm_Prefilled(t *testing.T) {
	deadline := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	goal := model.Goal{
		Title:        "Bike",
		TargetAmount: decimal.RequireFromString("600.50"),
		Deadline:     &deadline,
		Notes:        "road bike",
	}

	m := NewEditGoalForm(goal, themes.Default)
	assert.Equal(t, "Bike", m.Value(0))
	assert.Equal(t, "600.5", m.Value(1))
	assert.Equal(t, "2026-12-31", m.Value(2))
	assert.Equal(t, "road bike", m.Value(3))

	for range 4 {
		m = pressKey(m, tea.KeyEnter)
	}
	assert.True(t, m.IsComplete())
}

func TestEditGoalForm_DeadlineOptional(t *testing.T) {
	m := NewEditGoalForm(model.Goal{Title: "Camera", TargetAmount: decimal.NewFromInt(900)}, themes.Default)

	for range 4 {
		m = pressKey(m, tea.KeyEnter)
	}
	require.True(t, m.IsComplete())
	assert.Equal(t, "", m.Value(2))
}

func TestForm_Cancel(t *testing.T) {
	m := NewAmountForm("Deposit", "", themes.Default)

	m = typeText(m, "10")
	m = pressKey(m, tea.KeyEsc)

	assert.True(t, m.IsCancelled())
	assert.False(t, m.IsComplete())

	// Input after cancel is ignored.
	m = typeText(m, "5")
	assert.Equal(t, "10", m.Value(0))
}
