package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testGoals() []model.Goal {
	return []model.Goal{
		{ID: 1, Title: "Emergency fund", TargetAmount: dec("5000"), CurrentAmount: dec("0")},
		{ID: 2, Title: "Vacation in Japan", TargetAmount: dec("3000"), CurrentAmount: dec("1200")},
		{ID: 3, Title: "New Laptop", TargetAmount: dec("1500"), CurrentAmount: dec("1500")},
	}
}

func newTestList(goals []model.Goal) GoalListModel {
	m := NewGoalList(themes.Default, "$")
	m.Resize(100, 20)
	m.SetGoals(goals)
	return m
}

func listKey(m GoalListModel, s string) GoalListModel {
	var msg tea.KeyMsg
	switch s {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	m, _ = m.Update(msg)
	return m
}

func TestGoalList_RendersGoals(t *testing.T) {
	m := newTestList(testGoals())

	view := m.View()
	assert.Contains(t, view, "3 goals")
	assert.Contains(t, view, "Vacation in Japan")
	assert.Contains(t, view, "$1,200.00 / $3,000.00")
	assert.Contains(t, view, "Completed")
	assert.Contains(t, view, "Ongoing")

	selected, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(1), selected.ID)
}

func TestGoalList_EmptyState(t *testing.T) {
	m := newTestList(nil)

	_, ok := m.Selected()
	assert.False(t, ok)
	assert.Contains(t, m.View(), "No goals yet")
	assert.Contains(t, m.View(), "Press n")
}

func TestGoalList_Navigation(t *testing.T) {
	m := newTestList(testGoals())

	m = listKey(m, "down")
	m = listKey(m, "j")
	selected, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "New Laptop", selected.Title)

	m = listKey(m, "up")
	selected, _ = m.Selected()
	assert.Equal(t, "Vacation in Japan", selected.Title)
}

func TestGoalList_ApplyFilter(t *testing.T) {
	m := newTestList(testGoals())

	notice, ok := m.ApplyFilter(model.FilterCompleted)
	assert.True(t, ok)
	assert.Empty(t, notice)
	require.Len(t, m.Visible(), 1)
	assert.Equal(t, "New Laptop", m.Visible()[0].Title)
	assert.Contains(t, m.View(), "Filter: completed")

	notice, ok = m.ApplyFilter(model.FilterOngoing)
	assert.True(t, ok)
	assert.Empty(t, notice)
	assert.Len(t, m.Visible(), 2)
}

func TestGoalList_EmptyFilterKeepsList(t *testing.T) {
	ongoing := testGoals()[:2]
	m := newTestList(ongoing)

	notice, ok := m.ApplyFilter(model.FilterCompleted)
	assert.False(t, ok)
	assert.Equal(t, "No completed goals", notice)
	assert.Equal(t, model.FilterAll, m.Filter())
	assert.Len(t, m.Visible(), 2)
}

func TestGoalList_SetGoalsResetsStaleFilter(t *testing.T) {
	m := newTestList(testGoals())
	_, ok := m.ApplyFilter(model.FilterCompleted)
	require.True(t, ok)

	m.SetGoals(testGoals()[:2])

	assert.Equal(t, model.FilterAll, m.Filter())
	assert.Len(t, m.Visible(), 2)
}

func TestGoalList_SetGoalsKeepsSelection(t *testing.T) {
	m := newTestList(testGoals())
	m = listKey(m, "down")
	m = listKey(m, "down")

	goals := testGoals()
	goals[2].CurrentAmount = dec("1000")
	m.SetGoals(append([]model.Goal{{ID: 9, Title: "A first goal", TargetAmount: dec("1")}}, goals...))

	selected, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(3), selected.ID)
}

func TestGoalList_LiveSearch(t *testing.T) {
	m := newTestList(testGoals())

	m.StartSearch()
	require.True(t, m.Searching())

	m = listKey(m, "L")
	m = listKey(m, "A")
	m = listKey(m, "P")
	assert.Equal(t, "LAP", m.Query())
	require.Len(t, m.Visible(), 1)
	assert.Equal(t, "New Laptop", m.Visible()[0].Title)

	// Letters go to the input, not to the table.
	m = listKey(m, "j")
	assert.Equal(t, "LAPj", m.Query())
	assert.True(t, m.NotFound())
	assert.Contains(t, m.View(), NotFoundMessage)

	m = listKey(m, "backspace")
	m = listKey(m, "enter")
	assert.False(t, m.Searching())
	assert.Equal(t, "LAP", m.Query())
	assert.Contains(t, m.View(), `Search: "LAP"`)

	m.StartSearch()
	m = listKey(m, "esc")
	assert.False(t, m.Searching())
	assert.Empty(t, m.Query())
	assert.Len(t, m.Visible(), 3)
}

func TestGoalList_NotFoundNeedsGoals(t *testing.T) {
	m := newTestList(nil)
	m.StartSearch()
	m = listKey(m, "x")

	assert.False(t, m.NotFound())
	assert.Contains(t, m.View(), "No goals yet")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Vacation…", truncate("Vacation in Japan", 9))
	assert.Equal(t, "abc", truncate("abc", 2))
}
