package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
)

var filterOptions = []model.GoalFilter{
	model.FilterAll,
	model.FilterOngoing,
	model.FilterCompleted,
}

// FilterMenuModel lets the user pick a completion filter.
type FilterMenuModel struct {
	theme     themes.Theme
	cursor    int
	complete  bool
	cancelled bool
}

// NewFilterMenu creates a filter menu with the cursor on current.
func NewFilterMenu(current model.GoalFilter, theme themes.Theme) FilterMenuModel {
	m := FilterMenuModel{theme: theme}
	for i, f := range filterOptions {
		if f == current {
			m.cursor = i
		}
	}
	return m
}

// Update handles messages.
func (m FilterMenuModel) Update(msg tea.Msg) (FilterMenuModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.complete || m.cancelled {
		return m, nil
	}

	switch keyMsg.String() {
	case "j", "down":
		m.cursor = (m.cursor + 1) % len(filterOptions)
	case "k", "up":
		m.cursor = (m.cursor + len(filterOptions) - 1) % len(filterOptions)
	case "1", "2", "3":
		m.cursor = int(keyMsg.String()[0] - '1')
		m.complete = true
	case "enter", " ":
		m.complete = true
	case "esc", "q", "f":
		m.cancelled = true
	}

	return m, nil
}

// Choice returns the highlighted filter.
func (m FilterMenuModel) Choice() model.GoalFilter {
	return filterOptions[m.cursor]
}

// IsComplete reports whether a filter was chosen.
func (m FilterMenuModel) IsComplete() bool {
	return m.complete
}

// IsCancelled reports whether the menu was dismissed.
func (m FilterMenuModel) IsCancelled() bool {
	return m.cancelled
}

// View renders the menu.
func (m FilterMenuModel) View() string {
	lines := []string{m.theme.Title.Render("Filter goals")}

	for i, f := range filterOptions {
		label := fmt.Sprintf("%d. %s", i+1, titleCase(string(f)))
		if i == m.cursor {
			lines = append(lines, m.theme.Selected.Render("> "+label+" "))
			continue
		}
		lines = append(lines, m.theme.Normal.Render("  "+label))
	}

	lines = append(lines, "",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("[↑↓] Move  [Enter] Apply  [Esc] Cancel"))

	return m.theme.RoundedBox.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// ConfirmModel asks a yes/no question. No is the default answer.
type ConfirmModel struct {
	theme     themes.Theme
	title     string
	body      string
	yesLabel  string
	yes       bool
	confirmed bool
	complete  bool
}

// NewConfirm creates a confirmation dialog.
func NewConfirm(title, body, yesLabel string, theme themes.Theme) ConfirmModel {
	return ConfirmModel{
		title:    title,
		body:     body,
		yesLabel: yesLabel,
		theme:    theme,
	}
}

// NewDeleteConfirm asks before a goal and its history are removed.
func NewDeleteConfirm(goal model.Goal, theme themes.Theme) ConfirmModel {
	return NewConfirm(
		"Delete goal?",
		fmt.Sprintf("%q and all of its transactions will be removed.", goal.Title),
		"Delete",
		theme,
	)
}

// Update handles messages.
func (m ConfirmModel) Update(msg tea.Msg) (ConfirmModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.complete {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.confirmed = true
		m.complete = true
	case "n", "N", "esc", "q":
		m.confirmed = false
		m.complete = true
	case "left", "right", "h", "l", "tab":
		m.yes = !m.yes
	case "enter":
		m.confirmed = m.yes
		m.complete = true
	}

	return m, nil
}

// IsComplete reports whether the user answered.
func (m ConfirmModel) IsComplete() bool {
	return m.complete
}

// Confirmed reports whether the answer was yes.
func (m ConfirmModel) Confirmed() bool {
	return m.confirmed
}

// View renders the dialog.
func (m ConfirmModel) View() string {
	yes := " " + m.yesLabel + " "
	no := " Cancel "
	if m.yes {
		yes = m.theme.Selected.Background(m.theme.Error).Render(yes)
		no = m.theme.Normal.Render(no)
	} else {
		yes = m.theme.Normal.Render(yes)
		no = m.theme.Selected.Render(no)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Foreground(m.theme.Error).Render(m.title),
		m.theme.Normal.Render(m.body),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, yes, "  ", no),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("[y] Yes  [n] No  [←→] Switch"),
	)

	return m.theme.RoundedBox.Width(52).Render(content)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
