package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joshsymonds/greenstash/internal/about"
	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/shopspring/decimal"
)

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render(cli.StashIcon+" GreenStash"),
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Loading your goals..."),
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// renderScreen lays out the header, the active view, the notice line and the
// status bar.
func (m Model) renderScreen() string {
	var body string

	switch m.state {
	case StateDeposit, StateWithdraw, StateNewGoal, StateEditGoal:
		body = m.overlay(m.form.View())
	case StateFilter:
		body = m.overlay(m.filterMenu.View())
	case StateConfirmDelete:
		body = m.overlay(m.confirm.View())
	case StateInfo:
		body = m.history.View()
	case StateHelp:
		body = m.renderHelp()
	case StateAbout:
		body = m.renderAbout()
	default:
		body = m.list.View()
	}

	body = lipgloss.NewStyle().
		Width(m.bodyWidth()).
		Height(m.bodyHeight()).
		MaxHeight(m.bodyHeight()).
		Render(body)

	return m.wrapWithBorder(lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderNotice(),
	))
}

// renderHeader shows the app name and the overall savings.
func (m Model) renderHeader() string {
	saved, target := m.totals()
	title := lipgloss.NewStyle().Foreground(m.theme.Primary).Bold(true).Render(cli.StashIcon + " GreenStash")
	summary := m.theme.Subtitle.Render(fmt.Sprintf("  %s saved of %s",
		model.FormatCurrency(saved, m.config.Currency),
		model.FormatCurrency(target, m.config.Currency)))
	return title + summary
}

// overlay centers a dialog in the body area.
func (m Model) overlay(dialog string) string {
	return lipgloss.Place(m.bodyWidth(), m.bodyHeight(), lipgloss.Center, lipgloss.Center, dialog)
}

// renderHelp renders the help screen.
func (m Model) renderHelp() string {
	title := m.theme.Title.Render("GreenStash - Help")

	sections := []struct {
		title string
		items [][2]string
	}{
		{
			"Navigation",
			[][2]string{
				{"↑/k, ↓/j", "Move up/down"},
				{"PgUp/PgDn", "Page up/down"},
				{"g/G", "First/last goal"},
			},
		},
		{
			"Goals",
			[][2]string{
				{"Enter/i", "Info and transaction history"},
				{"d/+", "Deposit"},
				{"w/-", "Withdraw"},
				{"n", "New goal"},
				{"e", "Edit goal"},
				{"x/Del", "Delete goal"},
			},
		},
		{
			"List",
			[][2]string{
				{"/", "Search titles"},
				{"f", "Filter all/ongoing/completed"},
				{"Esc", "Clear search"},
			},
		},
		{
			"Application",
			[][2]string{
				{"a", "About"},
				{"Ctrl+R", "Reload"},
				{"?", "Toggle help"},
				{"q", "Quit"},
			},
		},
	}

	content := []string{title}
	for _, section := range sections {
		content = append(content, m.theme.Bold.Render(section.title))
		for _, item := range section.items {
			content = append(content, fmt.Sprintf("  %s %s",
				lipgloss.NewStyle().Foreground(m.theme.Primary).Width(12).Render(item[0]),
				m.theme.Normal.Render(item[1]),
			))
		}
		content = append(content, "")
	}
	content = append(content, lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press ? or Esc to close help"))

	return m.overlay(m.theme.RoundedBox.Width(56).Render(lipgloss.JoinVertical(lipgloss.Left, content...)))
}

// renderAbout renders project links and the version report.
func (m Model) renderAbout() string {
	content := []string{m.theme.Title.Render("About GreenStash")}

	for i, link := range about.Links {
		content = append(content, fmt.Sprintf("  %s %s  %s",
			lipgloss.NewStyle().Foreground(m.theme.Primary).Render(fmt.Sprintf("%d.", i+1)),
			m.theme.Bold.Render(link.Label),
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render(link.URL),
		))
	}

	content = append(content,
		"",
		m.theme.Code.Render(strings.TrimRight(m.report.String(), "\n")),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("[1-4] Open link  [c] Copy report  [Esc] Back"),
	)

	return m.overlay(m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Left, content...)))
}

// renderNotice renders the last action result.
func (m Model) renderNotice() string {
	if m.notice.text == "" {
		return ""
	}

	switch m.notice.level {
	case noticeSuccess:
		return m.theme.StatusSuccess.Render(cli.SuccessIcon + " " + m.notice.text)
	case noticeError:
		return m.theme.StatusError.Render(cli.ErrorIcon + " " + m.notice.text)
	default:
		return m.theme.StatusInfo.Render(m.notice.text)
	}
}

// wrapWithBorder adds a border and the status bar around content.
func (m Model) wrapWithBorder(content string) string {
	fullContent := lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		m.renderStatusBar(),
	)

	return m.theme.BorderedBox.
		Width(m.width - 2).
		Render(fullContent)
}

// renderStatusBar renders the bottom status bar.
func (m Model) renderStatusBar() string {
	left := m.theme.StatusInfo.Render(m.state.String())

	var center string
	if saved, target := m.totals(); target.IsPositive() {
		pct := saved.Div(target).InexactFloat64()
		center = fmt.Sprintf("%s %.0f%%", m.renderMiniProgressBar(20, pct), min(pct, 1)*100)
	}

	right := m.help.ShortHelpView(m.keymap.ShortHelp())
	if m.state != StateList {
		right = lipgloss.NewStyle().Foreground(m.theme.Muted).Render("? Help")
	}

	totalWidth := m.bodyWidth()
	spacing := totalWidth - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if spacing < 2 {
		// Not enough room for everything: drop the key hints.
		right = ""
		spacing = totalWidth - lipgloss.Width(left) - lipgloss.Width(center)
	}
	spacing = max(spacing, 2)
	leftPad := spacing / 2

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", spacing-leftPad) + right
}

// renderMiniProgressBar renders a small progress bar.
func (m Model) renderMiniProgressBar(width int, progress float64) string {
	progress = max(0, min(progress, 1))
	filled := int(float64(width) * progress)
	empty := width - filled

	return m.theme.ProgressBar.Render(strings.Repeat("█", filled)) +
		m.theme.ProgressEmpty.Render(strings.Repeat("░", empty))
}

// totals sums saved and target amounts over every goal.
func (m Model) totals() (saved, target decimal.Decimal) {
	for _, g := range m.list.Goals() {
		saved = saved.Add(g.CurrentAmount)
		target = target.Add(g.TargetAmount)
	}
	return saved, target
}
