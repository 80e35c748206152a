package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshsymonds/greenstash/internal/about"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/service"
	"github.com/joshsymonds/greenstash/internal/tui/components"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
	"github.com/shopspring/decimal"
)

// State represents the current state of the TUI.
type State int

const (
	StateList State = iota
	StateDeposit
	StateWithdraw
	StateNewGoal
	StateEditGoal
	StateFilter
	StateConfirmDelete
	StateInfo
	StateHelp
	StateAbout
)

// String returns the label shown in the status bar.
func (s State) String() string {
	switch s {
	case StateDeposit:
		return "Deposit"
	case StateWithdraw:
		return "Withdraw"
	case StateNewGoal:
		return "New goal"
	case StateEditGoal:
		return "Edit goal"
	case StateFilter:
		return "Filter"
	case StateConfirmDelete:
		return "Delete"
	case StateInfo:
		return "Info"
	case StateHelp:
		return "Help"
	case StateAbout:
		return "About"
	default:
		return "Goals"
	}
}

type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeSuccess
	noticeError
)

type notice struct {
	text  string
	level noticeLevel
}

// Model holds the main TUI state.
type Model struct {
	theme      themes.Theme
	storage    service.Storage
	lastError  error
	now        func() time.Time
	notice     notice
	report     about.VersionReport
	target     model.Goal
	config     Config
	keymap     KeyMap
	help       help.Model
	form       components.FormModel
	list       components.GoalListModel
	history    components.HistoryModel
	filterMenu components.FilterMenuModel
	confirm    components.ConfirmModel
	width      int
	height     int
	state      State
	quitting   bool
	ready      bool
}

// newModel creates a new model with the given configuration.
func newModel(cfg Config) Model {
	m := Model{
		state:   StateList,
		config:  cfg,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		theme:   cfg.Theme,
		storage: cfg.Storage,
		report:  about.NewVersionReport(cfg.Build),
		now:     time.Now,
		width:   cfg.Width,
		height:  cfg.Height,
		list:    components.NewGoalList(cfg.Theme, cfg.Currency),
	}
	m.handleResize()
	return m
}

// Init loads the goals.
func (m Model) Init() tea.Cmd {
	return m.loadGoals()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		if key.Matches(msg, m.keymap.ClearScreen) {
			return m, tea.ClearScreen
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case goalsLoadedMsg:
		m.ready = true
		if msg.err != nil {
			m.setError(fmt.Errorf("failed to load goals: %w", msg.err))
			return m, nil
		}
		m.list.SetGoals(msg.goals)
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("failed to load history: %w", msg.err))
			return m, nil
		}
		m.history = components.NewHistory(components.HistoryData{
			Goal:         msg.goal,
			Transactions: msg.transactions,
			Currency:     m.config.Currency,
			DateFormat:   m.config.DateFormat,
			Now:          m.now(),
		}, m.theme, m.bodyWidth(), m.bodyHeight())
		m.state = StateInfo
		return m, nil

	case ledgerAppliedMsg:
		return m.handleLedgerApplied(msg)

	case goalSavedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("failed to save goal: %w", msg.err))
			return m, nil
		}
		verb := "Added"
		if msg.updated {
			verb = "Updated"
		}
		m.setNotice(noticeSuccess, fmt.Sprintf("%s goal %q", verb, msg.goal.Title))
		return m, m.loadGoals()

	case goalDeletedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("failed to delete goal: %w", msg.err))
			return m, nil
		}
		m.setNotice(noticeSuccess, fmt.Sprintf("Deleted goal %q", msg.goal.Title))
		return m, m.loadGoals()

	case reportCopiedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("failed to copy: %w", msg.err))
		} else {
			m.setNotice(noticeSuccess, "Version report copied to clipboard")
		}
		return m, nil

	case linkOpenedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("failed to open %s: %w", msg.label, msg.err))
		} else {
			m.setNotice(noticeInfo, "Opened "+msg.label)
		}
		return m, nil
	}

	// Delegate to active component based on state
	switch m.state {
	case StateList:
		return m.updateList(msg)
	case StateDeposit, StateWithdraw, StateNewGoal, StateEditGoal:
		return m.updateForm(msg)
	case StateFilter:
		return m.updateFilter(msg)
	case StateConfirmDelete:
		return m.updateConfirm(msg)
	case StateInfo:
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		if m.history.Closed() {
			m.state = StateList
		}
		return m, cmd
	case StateHelp:
		if msg, ok := msg.(tea.KeyMsg); ok {
			if key.Matches(msg, m.keymap.Help, m.keymap.Quit) {
				m.state = StateList
			}
		}
		return m, nil
	case StateAbout:
		return m.updateAbout(msg)
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.renderLoading()
	}
	return m.renderScreen()
}

// updateList handles the goal list, where keys map to goal actions unless the
// search input has focus.
func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.list.Searching() {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	m.clearNotice()

	switch {
	case key.Matches(keyMsg, m.keymap.Quit):
		if keyMsg.String() == "esc" && m.list.Query() != "" {
			m.list.ClearSearch()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, m.keymap.Help):
		m.state = StateHelp
		return m, nil

	case key.Matches(keyMsg, m.keymap.About):
		m.state = StateAbout
		return m, nil

	case key.Matches(keyMsg, m.keymap.Refresh):
		return m, m.loadGoals()

	case key.Matches(keyMsg, m.keymap.Search):
		return m, m.list.StartSearch()

	case key.Matches(keyMsg, m.keymap.Filter):
		m.filterMenu = components.NewFilterMenu(m.list.Filter(), m.theme)
		m.state = StateFilter
		return m, nil

	case key.Matches(keyMsg, m.keymap.NewGoal):
		m.form = components.NewGoalForm(m.theme)
		m.state = StateNewGoal
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keymap.Info, m.keymap.Deposit, m.keymap.Withdraw, m.keymap.Edit, m.keymap.Delete):
		return m.handleGoalAction(keyMsg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleGoalAction starts an action on the selected goal.
func (m Model) handleGoalAction(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	goal, ok := m.list.Selected()
	if !ok {
		m.setNotice(noticeInfo, "No goal selected")
		return m, nil
	}
	m.target = goal

	switch {
	case key.Matches(msg, m.keymap.Info):
		return m, m.loadHistory(goal)

	case key.Matches(msg, m.keymap.Deposit):
		if err := goal.CanDeposit(); err != nil {
			m.setError(err)
			return m, nil
		}
		m.form = components.NewAmountForm("Deposit", m.amountSubtitle(goal), m.theme)
		m.state = StateDeposit
		return m, m.form.Init()

	case key.Matches(msg, m.keymap.Withdraw):
		if err := goal.CanWithdraw(decimal.Zero); err != nil {
			m.setError(err)
			return m, nil
		}
		m.form = components.NewAmountForm("Withdraw", m.amountSubtitle(goal), m.theme)
		m.state = StateWithdraw
		return m, m.form.Init()

	case key.Matches(msg, m.keymap.Edit):
		m.form = components.NewEditGoalForm(goal, m.theme)
		m.state = StateEditGoal
		return m, m.form.Init()

	case key.Matches(msg, m.keymap.Delete):
		m.confirm = components.NewDeleteConfirm(goal, m.theme)
		m.state = StateConfirmDelete
		return m, nil
	}

	return m, nil
}

func (m Model) amountSubtitle(goal model.Goal) string {
	return fmt.Sprintf("%s: %s of %s saved",
		goal.Title,
		model.FormatCurrency(goal.CurrentAmount, m.config.Currency),
		model.FormatCurrency(goal.TargetAmount, m.config.Currency))
}

// updateForm drives the deposit, withdraw and goal dialogs.
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)

	if m.form.IsCancelled() {
		m.state = StateList
		return m, nil
	}
	if !m.form.IsComplete() {
		return m, cmd
	}

	state := m.state
	m.state = StateList

	switch state {
	case StateDeposit, StateWithdraw:
		amount, err := model.ParseAmount(m.form.Value(0))
		if err != nil {
			m.setError(err)
			return m, nil
		}
		txType := model.TransactionDeposit
		if state == StateWithdraw {
			txType = model.TransactionWithdraw
		}
		entry := model.LedgerEntry{Amount: amount, Notes: m.form.Value(1)}
		return m, m.applyLedger(m.target, txType, entry)

	case StateNewGoal:
		target, err := model.ParseAmount(m.form.Value(1))
		if err != nil {
			m.setError(err)
			return m, nil
		}
		goal := model.Goal{
			Title:         m.form.Value(0),
			TargetAmount:  target,
			CurrentAmount: decimal.Zero,
			Notes:         m.form.Value(2),
		}
		return m, m.saveGoal(goal)

	case StateEditGoal:
		target, err := model.ParseAmount(m.form.Value(1))
		if err != nil {
			m.setError(err)
			return m, nil
		}
		deadline, err := model.ParseDeadline(m.form.Value(2))
		if err != nil {
			m.setError(err)
			return m, nil
		}
		goal := m.target
		goal.Title = m.form.Value(0)
		goal.TargetAmount = target
		goal.Deadline = deadline
		goal.Notes = m.form.Value(3)
		return m, m.saveGoal(goal)
	}

	return m, nil
}

func (m Model) handleLedgerApplied(msg ledgerAppliedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(msg.err)
		return m, m.loadGoals()
	}

	amount := model.FormatCurrency(msg.txn.Amount, m.config.Currency)
	text := fmt.Sprintf("Deposited %s into %q", amount, msg.title)
	if msg.txType == model.TransactionWithdraw {
		text = fmt.Sprintf("Withdrew %s from %q", amount, msg.title)
	} else if msg.goal.IsCompleted() {
		text += ". Goal reached! 🎉"
	}

	m.setNotice(noticeSuccess, text)
	return m, m.loadGoals()
}

func (m Model) updateFilter(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.filterMenu, _ = m.filterMenu.Update(msg)

	switch {
	case m.filterMenu.IsCancelled():
		m.state = StateList
	case m.filterMenu.IsComplete():
		m.state = StateList
		if text, ok := m.list.ApplyFilter(m.filterMenu.Choice()); !ok {
			m.setNotice(noticeInfo, text)
		}
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.confirm, _ = m.confirm.Update(msg)
	if !m.confirm.IsComplete() {
		return m, nil
	}

	m.state = StateList
	if !m.confirm.Confirmed() {
		return m, nil
	}
	return m, m.deleteGoal(m.target)
}

func (m Model) updateAbout(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	s := keyMsg.String()
	switch {
	case key.Matches(keyMsg, m.keymap.Quit, m.keymap.About):
		m.state = StateList
		return m, nil
	case s == "c":
		return m, m.copyReport()
	case len(s) == 1 && s[0] >= '1' && s[0] <= '9':
		i := int(s[0] - '1')
		if i < len(about.Links) {
			return m, m.openLink(about.Links[i])
		}
	}
	return m, nil
}

// handleResize adjusts component sizes when terminal resizes.
func (m *Model) handleResize() {
	m.list.Resize(m.bodyWidth(), m.bodyHeight())
	m.help.Width = m.bodyWidth()
	if m.state == StateInfo {
		m.history.Resize(m.bodyWidth(), m.bodyHeight())
	}
}

// bodyWidth accounts for the border and padding.
func (m Model) bodyWidth() int {
	return max(m.width-4, 20)
}

// bodyHeight accounts for the border, title, notice and status bar.
func (m Model) bodyHeight() int {
	return max(m.height-7, 5)
}

func (m *Model) setNotice(level noticeLevel, text string) {
	m.notice = notice{text: text, level: level}
}

func (m *Model) setError(err error) {
	m.lastError = err
	text := err.Error()
	if text != "" {
		text = strings.ToUpper(text[:1]) + text[1:]
	}
	m.setNotice(noticeError, text)
}

func (m *Model) clearNotice() {
	m.notice = notice{}
}
