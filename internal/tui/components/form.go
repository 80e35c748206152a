package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
)

// Field describes one input of a form.
type Field struct {
	// Validate runs on submit. A nil Validate only rejects empty required fields.
	Validate    func(string) error
	Label       string
	Placeholder string
	CharLimit   int
	Optional    bool
}

// FormModel is a small multi-field input dialog.
type FormModel struct {
	err       error
	theme     themes.Theme
	title     string
	subtitle  string
	fields    []Field
	inputs    []textinput.Model
	focus     int
	width     int
	complete  bool
	cancelled bool
}

// NewForm creates a form with the first field focused.
func NewForm(title, subtitle string, fields []Field, theme themes.Theme) FormModel {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = f.Placeholder
		in.CharLimit = f.CharLimit
		if in.CharLimit == 0 {
			in.CharLimit = 120
		}
		in.Width = 36
		if i == 0 {
			in.Focus()
		}
		inputs[i] = in
	}

	return FormModel{
		title:    title,
		subtitle: subtitle,
		fields:   fields,
		inputs:   inputs,
		theme:    theme,
		width:    48,
	}
}

// NewAmountForm builds the deposit/withdraw dialog: a required amount and optional notes.
func NewAmountForm(title, subtitle string, theme themes.Theme) FormModel {
	return NewForm(title, subtitle, []Field{
		{Label: "Amount", Placeholder: "0.00", CharLimit: 20, Validate: validateAmount},
		{Label: "Notes", Placeholder: "what is it for?", Optional: true},
	}, theme)
}

// NewGoalForm builds the dialog for a new goal.
func NewGoalForm(theme themes.Theme) FormModel {
	return NewForm("New goal", "What are you saving for?", []Field{
		{Label: "Title", Placeholder: "Vacation in Japan", CharLimit: 100},
		{Label: "Target", Placeholder: "0.00", CharLimit: 20, Validate: validateAmount},
		{Label: "Notes", Optional: true},
	}, theme)
}

// NewEditGoalForm builds the dialog for changing a goal, pre-filled with its
// current values. The saved amount is changed through deposits and withdrawals.
func NewEditGoalForm(goal model.Goal, theme themes.Theme) FormModel {
	m := NewForm("Edit goal", goal.Title, []Field{
		{Label: "Title", CharLimit: 100},
		{Label: "Target", Placeholder: "0.00", CharLimit: 20, Validate: validateAmount},
		{Label: "Deadline", Placeholder: "YYYY-MM-DD", CharLimit: 10, Optional: true, Validate: validateDeadline},
		{Label: "Notes", Optional: true},
	}, theme)

	m.SetValue(0, goal.Title)
	m.SetValue(1, goal.TargetAmount.String())
	if goal.Deadline != nil {
		m.SetValue(2, goal.Deadline.Format(model.DateLayout))
	}
	m.SetValue(3, goal.Notes)
	return m
}

func validateDeadline(s string) error {
	_, err := model.ParseDeadline(s)
	return err
}

func validateAmount(s string) error {
	_, err := model.ParseAmount(s)
	return err
}

// Init starts the cursor blink.
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	if m.complete || m.cancelled {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateFocused(msg)
	}

	switch keyMsg.String() {
	case "esc":
		m.cancelled = true
		return m, nil

	case "tab", "down":
		return m, m.setFocus((m.focus + 1) % len(m.inputs))

	case "shift+tab", "up":
		return m, m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))

	case "enter":
		if m.focus < len(m.inputs)-1 {
			if err := m.validateField(m.focus); err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			return m, m.setFocus(m.focus + 1)
		}
		return m.submit()
	}

	return m.updateFocused(msg)
}

func (m FormModel) updateFocused(msg tea.Msg) (FormModel, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m FormModel) submit() (FormModel, tea.Cmd) {
	for i := range m.fields {
		if err := m.validateField(i); err != nil {
			m.err = err
			return m, m.setFocus(i)
		}
	}
	m.err = nil
	m.complete = true
	return m, nil
}

func (m *FormModel) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

func (m FormModel) validateField(i int) error {
	field := m.fields[i]
	value := strings.TrimSpace(m.inputs[i].Value())

	if value == "" && field.Optional {
		return nil
	}
	if field.Validate != nil {
		return field.Validate(value)
	}
	if value == "" {
		return fmt.Errorf("%s cannot be empty", strings.ToLower(field.Label))
	}
	return nil
}

// Value returns the trimmed value of field i.
func (m FormModel) Value(i int) string {
	if i < 0 || i >= len(m.inputs) {
		return ""
	}
	return strings.TrimSpace(m.inputs[i].Value())
}

// SetValue pre-fills field i.
func (m *FormModel) SetValue(i int, value string) {
	if i >= 0 && i < len(m.inputs) {
		m.inputs[i].SetValue(value)
	}
}

// Err returns the last validation error.
func (m FormModel) Err() error {
	return m.err
}

// Focused returns the index of the focused field.
func (m FormModel) Focused() int {
	return m.focus
}

// IsComplete reports whether the form was submitted with valid input.
func (m FormModel) IsComplete() bool {
	return m.complete
}

// IsCancelled reports whether the user dismissed the form.
func (m FormModel) IsCancelled() bool {
	return m.cancelled
}

// View renders the form.
func (m FormModel) View() string {
	sections := []string{m.theme.Title.Render(m.title)}
	if m.subtitle != "" {
		sections = append(sections, m.theme.Subtitle.Render(m.subtitle), "")
	}

	for i, field := range m.fields {
		label := field.Label
		if field.Optional {
			label += " (optional)"
		}

		labelStyle := m.theme.Subtitle
		if i == m.focus {
			labelStyle = lipgloss.NewStyle().Foreground(m.theme.Primary).Bold(true)
		}

		sections = append(sections,
			labelStyle.Render(label),
			m.theme.BorderedBox.Width(m.width-4).Render(m.inputs[i].View()),
		)
	}

	if m.err != nil {
		sections = append(sections, m.theme.StatusError.Render("✗ "+m.err.Error()))
	}

	sections = append(sections, "",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("[Tab] Next field  [Enter] Save  [Esc] Cancel"))

	return m.theme.RoundedBox.
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
