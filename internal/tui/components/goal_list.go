package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
)

// NotFoundMessage is shown when a search matches no goal.
const NotFoundMessage = "Item not found"

const progressBarWidth = 10

// GoalListModel shows goals in a table with filter and live search.
type GoalListModel struct {
	theme       themes.Theme
	currency    string
	query       string
	filter      model.GoalFilter
	goals       []model.Goal
	filtered    []model.Goal
	visible     []model.Goal
	searchInput textinput.Model
	table       table.Model
	width       int
	height      int
	searching   bool
}

// NewGoalList creates an empty goal list.
func NewGoalList(theme themes.Theme, currency string) GoalListModel {
	// Letters are reserved for goal actions, so the table only keeps
	// arrow, vim line and paging keys.
	km := table.DefaultKeyMap()
	km.PageUp = key.NewBinding(key.WithKeys("pgup"))
	km.PageDown = key.NewBinding(key.WithKeys("pgdown"))
	km.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"))

	t := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithKeyMap(km),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	t.SetStyles(s)

	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "Search goals..."
	searchInput.CharLimit = 50

	m := GoalListModel{
		theme:       theme,
		currency:    currency,
		filter:      model.FilterAll,
		table:       t,
		searchInput: searchInput,
		width:       80,
		height:      20,
	}
	m.updateColumnWidths()
	return m
}

// SetGoals replaces the goal set and keeps the cursor on the same goal when it
// is still visible. A filter that no longer matches anything falls back to all.
func (m *GoalListModel) SetGoals(goals []model.Goal) {
	selectedID := int64(0)
	if g, ok := m.Selected(); ok {
		selectedID = g.ID
	}

	m.goals = goals
	filtered, ok := model.FilterGoals(goals, m.filter)
	if !ok {
		m.filter = model.FilterAll
		filtered = goals
	}
	m.filtered = filtered
	m.refresh(selectedID)
}

// ApplyFilter switches the completion filter. When the filter matches nothing
// the current list is kept and the returned notice explains why.
func (m *GoalListModel) ApplyFilter(f model.GoalFilter) (notice string, ok bool) {
	filtered, ok := model.FilterGoals(m.goals, f)
	if !ok {
		return f.EmptyMessage(), false
	}

	m.filter = f
	m.filtered = filtered
	m.table.GotoTop()
	m.refresh(0)
	return "", true
}

// StartSearch focuses the search input.
func (m *GoalListModel) StartSearch() tea.Cmd {
	m.searching = true
	m.table.Blur()
	m.searchInput.SetValue(m.query)
	m.searchInput.CursorEnd()
	return m.searchInput.Focus()
}

// ClearSearch drops the current query.
func (m *GoalListModel) ClearSearch() {
	m.stopSearch()
	m.searchInput.SetValue("")
	m.query = ""
	m.refresh(0)
}

func (m *GoalListModel) stopSearch() {
	m.searching = false
	m.searchInput.Blur()
	m.table.Focus()
}

func (m *GoalListModel) refresh(selectedID int64) {
	m.visible = model.SearchGoals(m.filtered, m.query)
	m.table.SetRows(m.buildRows())

	if selectedID != 0 {
		for i, g := range m.visible {
			if g.ID == selectedID {
				m.table.SetCursor(i)
				return
			}
		}
	}
	switch {
	case m.table.Cursor() < 0:
		m.table.SetCursor(0)
	case m.table.Cursor() >= len(m.visible):
		m.table.SetCursor(len(m.visible) - 1)
	}
}

// Update handles messages.
func (m GoalListModel) Update(msg tea.Msg) (GoalListModel, tea.Cmd) {
	if m.searching {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "enter":
				m.stopSearch()
				return m, nil
			case "esc":
				m.ClearSearch()
				return m, nil
			}
		}

		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		if q := m.searchInput.Value(); q != m.query {
			m.query = q
			m.table.GotoTop()
			m.refresh(0)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Selected returns the goal under the cursor.
func (m GoalListModel) Selected() (model.Goal, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return model.Goal{}, false
	}
	return m.visible[i], true
}

// Goals returns every goal regardless of filter or search.
func (m GoalListModel) Goals() []model.Goal {
	return m.goals
}

// Visible returns the goals currently shown.
func (m GoalListModel) Visible() []model.Goal {
	return m.visible
}

// Filter returns the active completion filter.
func (m GoalListModel) Filter() model.GoalFilter {
	return m.filter
}

// Query returns the active search text.
func (m GoalListModel) Query() string {
	return m.query
}

// Searching reports whether the search input has focus.
func (m GoalListModel) Searching() bool {
	return m.searching
}

// NotFound reports whether a search hides every goal.
func (m GoalListModel) NotFound() bool {
	return len(m.filtered) > 0 && m.query != "" && len(m.visible) == 0
}

// View renders the list.
func (m GoalListModel) View() string {
	sections := []string{m.renderHeader()}

	if m.searching || m.query != "" {
		sections = append(sections, m.searchInput.View())
	}

	switch {
	case len(m.goals) == 0:
		sections = append(sections, m.renderEmpty())
	case m.NotFound():
		sections = append(sections, "", m.theme.StatusWarning.Render(NotFoundMessage))
	default:
		sections = append(sections, m.table.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m GoalListModel) renderHeader() string {
	status := fmt.Sprintf("%d goals", len(m.visible))
	if len(m.visible) == 1 {
		status = "1 goal"
	}
	if m.filter != model.FilterAll {
		status += fmt.Sprintf(" | Filter: %s", m.filter)
	}
	if m.query != "" && !m.searching {
		status += fmt.Sprintf(" | Search: %q", m.query)
	}
	return m.theme.Subtitle.Render(status)
}

func (m GoalListModel) renderEmpty() string {
	lines := []string{
		"",
		m.theme.Bold.Render(cli.StashIcon + " " + model.FilterAll.EmptyMessage()),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press n to add your first savings goal."),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m GoalListModel) buildRows() []table.Row {
	rows := make([]table.Row, 0, len(m.visible))
	titleWidth := m.table.Columns()[0].Width

	for _, g := range m.visible {
		status := "Ongoing"
		if g.IsCompleted() {
			status = "Completed"
		}

		rows = append(rows, table.Row{
			truncate(g.Title, titleWidth),
			fmt.Sprintf("%s / %s",
				model.FormatCurrency(g.CurrentAmount, m.currency),
				model.FormatCurrency(g.TargetAmount, m.currency)),
			cli.FormatProgressBar(g.Progress(), progressBarWidth),
			status,
		})
	}
	return rows
}

// Resize updates the component size.
func (m *GoalListModel) Resize(width, height int) {
	m.width = width
	m.height = height

	// Header line, optional search line and the table's own header.
	chrome := 3
	if m.searching || m.query != "" {
		chrome++
	}
	m.table.SetHeight(max(1, height-chrome))
	m.updateColumnWidths()
	m.table.SetRows(m.buildRows())
}

func (m *GoalListModel) updateColumnWidths() {
	available := max(m.width-8, 60)

	amountWidth := max(21, int(float64(available)*0.32))
	progressWidth := progressBarWidth + 5
	statusWidth := 10
	titleWidth := max(12, available-amountWidth-progressWidth-statusWidth)

	m.table.SetColumns([]table.Column{
		{Title: "Goal", Width: titleWidth},
		{Title: "Saved / Target", Width: amountWidth},
		{Title: "Progress", Width: progressWidth},
		{Title: "Status", Width: statusWidth},
	})
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen || maxLen < 4 {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}
