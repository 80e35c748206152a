package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
	"github.com/stretchr/testify/assert"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFilterMenu(t *testing.T) {
	tests := []struct {
		name    string
		current model.GoalFilter
		want    model.GoalFilter
		keys    []tea.KeyMsg
	}{
		{
			name:    "enter keeps current",
			current: model.FilterOngoing,
			keys:    []tea.KeyMsg{{Type: tea.KeyEnter}},
			want:    model.FilterOngoing,
		},
		{
			name:    "move down",
			current: model.FilterAll,
			keys:    []tea.KeyMsg{runes("j"), runes("j"), {Type: tea.KeyEnter}},
			want:    model.FilterCompleted,
		},
		{
			name:    "wraps upward",
			current: model.FilterAll,
			keys:    []tea.KeyMsg{{Type: tea.KeyUp}, {Type: tea.KeyEnter}},
			want:    model.FilterCompleted,
		},
		{
			name:    "quick select",
			current: model.FilterCompleted,
			keys:    []tea.KeyMsg{runes("2")},
			want:    model.FilterOngoing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFilterMenu(tt.current, themes.Default)
			for _, k := range tt.keys {
				m, _ = m.Update(k)
			}
			assert.True(t, m.IsComplete())
			assert.False(t, m.IsCancelled())
			assert.Equal(t, tt.want, m.Choice())
		})
	}
}

func TestFilterMenu_Cancel(t *testing.T) {
	m := NewFilterMenu(model.FilterAll, themes.Default)
	assert.Contains(t, m.View(), "Ongoing")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.IsCancelled())
	assert.False(t, m.IsComplete())
}

func TestConfirm(t *testing.T) {
	goal := model.Goal{ID: 1, Title: "Bike"}

	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{name: "y confirms", keys: []tea.KeyMsg{runes("y")}, want: true},
		{name: "n declines", keys: []tea.KeyMsg{runes("n")}, want: false},
		{name: "esc declines", keys: []tea.KeyMsg{{Type: tea.KeyEsc}}, want: false},
		{name: "enter defaults to no", keys: []tea.KeyMsg{{Type: tea.KeyEnter}}, want: false},
		{name: "switch then enter", keys: []tea.KeyMsg{{Type: tea.KeyLeft}, {Type: tea.KeyEnter}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDeleteConfirm(goal, themes.Default)
			for _, k := range tt.keys {
				m, _ = m.Update(k)
			}
			assert.True(t, m.IsComplete())
			assert.Equal(t, tt.want, m.Confirmed())
		})
	}
}

func TestConfirm_View(t *testing.T) {
	m := NewDeleteConfirm(model.Goal{Title: "Bike"}, themes.Default)
	view := m.View()

	assert.Contains(t, view, "Delete goal?")
	assert.Contains(t, view, `"Bike"`)
	assert.Contains(t, view, "Cancel")
}
