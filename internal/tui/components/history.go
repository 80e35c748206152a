package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
)

// HistoryData is what the info screen shows.
type HistoryData struct {
	Now          time.Time
	Currency     string
	DateFormat   string
	Transactions []model.Transaction
	Goal         model.Goal
}

// HistoryModel shows a goal's details and its transaction history.
type HistoryModel struct {
	theme    themes.Theme
	data     HistoryData
	viewport viewport.Model
	closed   bool
}

// NewHistory creates the info screen sized to width x height.
func NewHistory(data HistoryData, theme themes.Theme, width, height int) HistoryModel {
	if data.DateFormat == "" {
		data.DateFormat = "Jan 2, 2006"
	}
	if data.Now.IsZero() {
		data.Now = time.Now()
	}

	m := HistoryModel{
		theme:    theme,
		data:     data,
		viewport: viewport.New(max(width, 20), max(height-2, 3)),
	}
	m.viewport.SetContent(m.renderContent())
	return m
}

// Update handles messages.
func (m HistoryModel) Update(msg tea.Msg) (HistoryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q", "enter", "i":
			m.closed = true
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.Resize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Resize updates the component size.
func (m *HistoryModel) Resize(width, height int) {
	m.viewport.Width = max(width, 20)
	m.viewport.Height = max(height-2, 3)
	m.viewport.SetContent(m.renderContent())
}

// Closed reports whether the user left the screen.
func (m HistoryModel) Closed() bool {
	return m.closed
}

// Goal returns the goal being shown.
func (m HistoryModel) Goal() model.Goal {
	return m.data.Goal
}

// View renders the screen.
func (m HistoryModel) View() string {
	footer := lipgloss.NewStyle().Foreground(m.theme.Muted).
		Render(fmt.Sprintf("[↑↓] Scroll  [Esc] Back  %3.0f%%", m.viewport.ScrollPercent()*100))

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), "", footer)
}

func (m HistoryModel) renderContent() string {
	d := m.data
	g := d.Goal

	lines := []string{
		m.theme.Title.Render(cli.GoalIcon + " " + g.Title),
		fmt.Sprintf("%s %s",
			m.theme.Bold.Render("Saved:"),
			fmt.Sprintf("%s of %s",
				model.FormatCurrency(g.CurrentAmount, d.Currency),
				model.FormatCurrency(g.TargetAmount, d.Currency))),
		fmt.Sprintf("%s %s",
			m.theme.Bold.Render("Remaining:"),
			model.FormatCurrency(g.Remaining(), d.Currency)),
		m.renderProgress(g),
	}

	if g.IsCompleted() {
		lines = append(lines, m.theme.StatusSuccess.Render(cli.CheckIcon+" Goal achieved"))
	}

	if g.Deadline != nil {
		lines = append(lines, fmt.Sprintf("%s %s (%d days left)",
			m.theme.Bold.Render("Deadline:"),
			g.Deadline.Format(d.DateFormat),
			g.DaysLeft(d.Now)))

		if plan, ok := g.SavingsPlan(d.Now); ok {
			lines = append(lines, m.theme.Subtitle.Render(fmt.Sprintf("Save %s a day, %s a week or %s a month",
				model.FormatCurrency(plan.Daily, d.Currency),
				model.FormatCurrency(plan.Weekly, d.Currency),
				model.FormatCurrency(plan.Monthly, d.Currency))))
		}
	}

	if g.Notes != "" {
		lines = append(lines, "", m.theme.Italic.Render(g.Notes))
	}

	lines = append(lines, "", m.theme.Title.Render("History"))
	if len(d.Transactions) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.Muted).Render("No transactions yet"))
	}

	for _, txn := range d.Transactions {
		style := m.theme.StatusSuccess
		icon := cli.DepositIcon
		if txn.Type == model.TransactionWithdraw {
			style = m.theme.StatusWarning
			icon = cli.WithdrawIcon
		}

		line := fmt.Sprintf("%s  %s %s",
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render(txn.Date.Local().Format(d.DateFormat)),
			icon,
			style.Render(txn.Describe(d.Currency)))
		if txn.Notes != "" {
			line += m.theme.Normal.Render(" · " + txn.Notes)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func (m HistoryModel) renderProgress(g model.Goal) string {
	width := 24
	filled := int(g.Progress() / 100 * float64(width))
	return m.theme.ProgressBar.Render(strings.Repeat("█", filled)) +
		m.theme.ProgressEmpty.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %.1f%%", g.Progress())
}
