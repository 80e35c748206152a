package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshsymonds/greenstash/internal/about"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/testutil"
	"github.com/joshsymonds/greenstash/internal/testutil/goals"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClipboard struct {
	err    error
	copied string
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.copied = text
	return nil
}

type harness struct {
	db            *testutil.TestDB
	clipboard     *fakeClipboard
	opened        []string
	beforeDeletes []int
	m             Model
}

func newHarness(t *testing.T, fixture goals.Fixture) *harness {
	t.Helper()

	h := &harness{
		db:        testutil.SetupTestDB(t, fixture),
		clipboard: &fakeClipboard{},
	}

	cfg := defaultConfig()
	cfg.Storage = h.db.Storage
	cfg.Theme = themes.Default
	cfg.Width = 110
	cfg.Height = 34
	cfg.DateFormat = "2006-01-02"
	cfg.Clipboard = h.clipboard
	cfg.OpenURL = func(url string) error {
		h.opened = append(h.opened, url)
		return nil
	}
	cfg.Build = about.BuildInfo{Version: "1.2.3", Commit: "abc123"}
	cfg.BeforeDelete = func(ctx context.Context) {
		all, err := h.db.Storage.GetGoals(ctx)
		require.NoError(t, err)
		h.beforeDeletes = append(h.beforeDeletes, len(all))
	}

	h.m = newModel(cfg)
	h.run(t, h.m.Init())
	require.True(t, h.m.ready)
	return h
}

// send feeds msg to the model without running the returned command.
func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// run executes cmd and feeds back results until the model stops asking for
// data.
func (h *harness) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		switch msg.(type) {
		case goalsLoadedMsg, historyLoadedMsg, ledgerAppliedMsg, goalSavedMsg,
			goalDeletedMsg, reportCopiedMsg, linkOpenedMsg:
		default:
			t.Fatalf("unexpected command result %T", msg)
		}
		next, nextCmd := h.m.Update(msg)
		h.m = next.(Model)
		cmd = nextCmd
	}
}

// keys sends key presses. Commands are dropped: they only blink the cursor.
func (h *harness) keys(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		h.send(t, keyMsg(k))
	}
}

// press sends a key that triggers storage or about-screen work and runs it.
func (h *harness) press(t *testing.T, k string) {
	t.Helper()
	h.run(t, h.send(t, keyMsg(k)))
}

func (h *harness) typeText(t *testing.T, text string) {
	t.Helper()
	for _, r := range text {
		h.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func TestModel_LoadsGoals(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	assert.Equal(t, StateList, h.m.state)
	assert.Len(t, h.m.list.Visible(), 3)

	view := h.m.View()
	assert.Contains(t, view, "GreenStash")
	assert.Contains(t, view, "Emergency fund")
	assert.Contains(t, view, "$2,700.00 saved of $9,500.00")
}

func TestModel_EmptyState(t *testing.T) {
	h := newHarness(t, nil)

	assert.Contains(t, h.m.View(), "No goals yet")

	h.keys(t, "d")
	assert.Equal(t, StateList, h.m.state)
	assert.Equal(t, "No goal selected", h.m.notice.text)
}

func TestModel_LoadingBeforeData(t *testing.T) {
	m := newModel(defaultConfig())
	assert.Contains(t, m.View(), "Loading your goals")
}

func TestModel_NoStorage(t *testing.T) {
	m := newModel(defaultConfig())
	next, _ := m.Update(m.Init()())
	m = next.(Model)

	assert.True(t, m.ready)
	require.Error(t, m.lastError)
	assert.True(t, errors.Is(m.lastError, ErrNoStorage))
	assert.Equal(t, noticeError, m.notice.level)
}

func TestModel_Deposit(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "d")
	require.Equal(t, StateDeposit, h.m.state)
	assert.Contains(t, h.m.View(), "Emergency fund")

	// Empty amount keeps the dialog open.
	h.keys(t, "enter")
	assert.Equal(t, StateDeposit, h.m.state)
	assert.Contains(t, h.m.View(), "amount cannot be empty")

	h.typeText(t, "250,5")
	h.keys(t, "enter")
	h.typeText(t, "first paycheck")
	h.press(t, "enter")

	assert.Equal(t, StateList, h.m.state)
	assert.Equal(t, noticeSuccess, h.m.notice.level)
	assert.Equal(t, `Deposited $250.50 into "Emergency fund"`, h.m.notice.text)

	goal := h.db.FindGoal("Emergency fund")
	assert.True(t, decimal.RequireFromString("250.5").Equal(goal.CurrentAmount))

	txns, err := h.db.Storage.GetTransactions(context.Background(), goal.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "first paycheck", txns[0].Notes)

	selected, ok := h.m.list.Selected()
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("250.5").Equal(selected.CurrentAmount))
}

func TestModel_DepositReachesGoal(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "down", "+")
	require.Equal(t, StateDeposit, h.m.state)
	h.typeText(t, "1800")
	h.keys(t, "tab")
	h.press(t, "enter")

	assert.Contains(t, h.m.notice.text, "Goal reached!")
	assert.True(t, h.db.FindGoal("Vacation in Japan").IsCompleted())
}

func TestModel_DepositIntoCompletedGoal(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "down", "down", "d")

	assert.Equal(t, StateList, h.m.state)
	assert.Equal(t, noticeError, h.m.notice.level)
	assert.Equal(t, "Goal already achieved", h.m.notice.text)
}

func TestModel_WithdrawRules(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	// Nothing saved in the first goal.
	h.keys(t, "w")
	assert.Equal(t, StateList, h.m.state)
	assert.Equal(t, "Nothing saved to withdraw", h.m.notice.text)

	// More than the balance is rejected by storage.
	h.keys(t, "down", "w")
	require.Equal(t, StateWithdraw, h.m.state)
	h.typeText(t, "5000")
	h.keys(t, "tab")
	h.press(t, "enter")
	assert.Equal(t, noticeError, h.m.notice.level)
	assert.Equal(t, "Withdrawal exceeds saved amount", h.m.notice.text)

	h.keys(t, "-")
	h.typeText(t, "200")
	h.keys(t, "tab")
	h.press(t, "enter")
	assert.Equal(t, `Withdrew $200.00 from "Vacation in Japan"`, h.m.notice.text)
	assert.True(t, decimal.RequireFromString("1000").Equal(h.db.FindGoal("Vacation in Japan").CurrentAmount))
}

func TestModel_CancelForm(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "d")
	h.typeText(t, "10")
	h.keys(t, "esc")

	assert.Equal(t, StateList, h.m.state)
	assert.True(t, h.db.FindGoal("Emergency fund").CurrentAmount.IsZero())
}

func TestModel_Filter(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "f", "3")
	assert.Equal(t, StateList, h.m.state)
	require.Len(t, h.m.list.Visible(), 1)
	assert.Equal(t, "New Laptop", h.m.list.Visible()[0].Title)

	h.keys(t, "f", "1")
	assert.Len(t, h.m.list.Visible(), 3)
}

func TestModel_FilterWithNoMatchKeepsList(t *testing.T) {
	h := newHarness(t, goals.FixtureOngoing)

	h.keys(t, "f", "3")

	assert.Equal(t, StateList, h.m.state)
	assert.Equal(t, "No completed goals", h.m.notice.text)
	assert.Len(t, h.m.list.Visible(), 2)
	assert.Contains(t, h.m.View(), "No completed goals")
}

func TestModel_Search(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "/")
	require.True(t, h.m.list.Searching())

	// Action keys are typed into the search box.
	h.typeText(t, "LAP")
	assert.Equal(t, StateList, h.m.state)
	require.Len(t, h.m.list.Visible(), 1)
	assert.Equal(t, "New Laptop", h.m.list.Visible()[0].Title)

	h.typeText(t, "dw")
	assert.Contains(t, h.m.View(), "Item not found")

	h.keys(t, "esc")
	assert.False(t, h.m.list.Searching())
	assert.Len(t, h.m.list.Visible(), 3)
}

func TestModel_EscClearsSearchBeforeQuitting(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "/")
	h.typeText(t, "bike")
	h.keys(t, "enter")
	require.Equal(t, "bike", h.m.list.Query())

	next, cmd := h.m.Update(keyMsg("esc"))
	h.m = next.(Model)
	assert.Nil(t, cmd)
	assert.False(t, h.m.quitting)
	assert.Empty(t, h.m.list.Query())
}

func TestModel_Delete(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "x")
	require.Equal(t, StateConfirmDelete, h.m.state)
	assert.Contains(t, h.m.View(), "Delete goal?")

	h.keys(t, "n")
	assert.Equal(t, StateList, h.m.state)
	assert.Len(t, h.m.list.Goals(), 3)
	assert.Empty(t, h.beforeDeletes, "declining must not run the hook")

	h.keys(t, "x")
	h.press(t, "y")
	assert.Equal(t, `Deleted goal "Emergency fund"`, h.m.notice.text)
	assert.Len(t, h.m.list.Goals(), 2)

	// The hook ran once, while the goal still existed.
	assert.Equal(t, []int{3}, h.beforeDeletes)

	all, err := h.db.Storage.GetGoals(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestModel_Info(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "down")
	h.press(t, "enter")
	require.Equal(t, StateInfo, h.m.state)

	view := h.m.View()
	assert.Contains(t, view, "Vacation in Japan")
	assert.Contains(t, view, "Deposited | $1,000.00")
	assert.Contains(t, view, "Deposited | $200.00")

	h.keys(t, "esc")
	assert.Equal(t, StateList, h.m.state)
}

func TestModel_NewGoal(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "n")
	require.Equal(t, StateNewGoal, h.m.state)

	h.typeText(t, "Bike")
	h.keys(t, "enter")
	h.typeText(t, "600")
	h.keys(t, "enter")
	h.press(t, "enter")

	assert.Equal(t, StateList, h.m.state)
	assert.Equal(t, `Added goal "Bike"`, h.m.notice.text)
	assert.Len(t, h.m.list.Goals(), 4)

	bike := h.db.FindGoal("Bike")
	assert.True(t, decimal.NewFromInt(600).Equal(bike.TargetAmount))
}

func TestModel_EditGoal(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "down", "e")
	require.Equal(t, StateEditGoal, h.m.state)
	assert.Equal(t, "Vacation in Japan", h.m.form.Value(0))
	assert.Equal(t, "3000", h.m.form.Value(1))
	assert.Contains(t, h.m.View(), "Edit goal")

	h.typeText(t, " 2027")
	h.keys(t, "enter")
	h.typeText(t, "0")
	h.keys(t, "enter")
	h.typeText(t, "2099-12-31")
	h.keys(t, "enter")
	h.typeText(t, "cherry blossoms")
	h.press(t, "enter")

	assert.Equal(t, StateList, h.m.state)
	assert.Equal(t, `Updated goal "Vacation in Japan 2027"`, h.m.notice.text)
	assert.Len(t, h.m.list.Goals(), 3)

	trip := h.db.FindGoal("Vacation in Japan 2027")
	assert.True(t, decimal.NewFromInt(30000).Equal(trip.TargetAmount))
	assert.True(t, decimal.NewFromInt(1200).Equal(trip.CurrentAmount))
	require.NotNil(t, trip.Deadline)
	assert.Equal(t, "2099-12-31", trip.Deadline.Format("2006-01-02"))
	assert.Equal(t, "cherry blossoms", trip.Notes)

	txns, err := h.db.Storage.GetTransactions(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestModel_EditGoalRejectsBadDeadline(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "e", "enter", "enter")
	h.typeText(t, "next year")
	h.keys(t, "enter")

	assert.Equal(t, StateEditGoal, h.m.state)
	require.ErrorIs(t, h.m.form.Err(), model.ErrInvalidDate)

	h.keys(t, "esc")
	assert.Equal(t, StateList, h.m.state)
	assert.Nil(t, h.db.FindGoal("Emergency fund").Deadline)
}

func TestModel_About(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "a")
	require.Equal(t, StateAbout, h.m.state)

	view := h.m.View()
	assert.Contains(t, view, "Privacy Policy")
	assert.Contains(t, view, "App version: 1.2.3 (abc123)")

	h.press(t, "c")
	assert.Contains(t, h.clipboard.copied, "App version: 1.2.3")
	assert.Equal(t, "Version report copied to clipboard", h.m.notice.text)

	h.press(t, "3")
	require.Len(t, h.opened, 1)
	assert.Equal(t, about.Links[2].URL, h.opened[0])

	h.keys(t, "9")
	assert.Len(t, h.opened, 1)

	h.keys(t, "esc")
	assert.Equal(t, StateList, h.m.state)
}

func TestModel_AboutCopyFailure(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)
	h.clipboard.err = errors.New("no display")

	h.keys(t, "a")
	h.press(t, "c")

	assert.Equal(t, noticeError, h.m.notice.level)
	assert.Contains(t, h.m.notice.text, "no display")
}

func TestModel_Help(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.keys(t, "?")
	require.Equal(t, StateHelp, h.m.state)
	assert.Contains(t, h.m.View(), "GreenStash - Help")
	assert.Contains(t, h.m.View(), "Edit goal")

	h.keys(t, "?")
	assert.Equal(t, StateList, h.m.state)
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	next, cmd := h.m.Update(keyMsg("q"))
	m := next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_ForceQuitFromDialog(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)
	h.keys(t, "d")

	next, cmd := h.m.Update(keyMsg("ctrl+c"))
	require.NotNil(t, cmd)
	assert.True(t, next.(Model).quitting)
}

func TestModel_Resize(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)

	h.send(t, tea.WindowSizeMsg{Width: 60, Height: 20})

	assert.Equal(t, 60, h.m.width)
	assert.Equal(t, 20, h.m.height)
	assert.Contains(t, h.m.View(), "Emergency")
}

func TestModel_CatppuccinTheme(t *testing.T) {
	h := newHarness(t, goals.FixtureMixed)
	h.m.theme = themes.GetTheme("catppuccin-mocha")

	assert.Contains(t, h.m.View(), "Vacation in Japan")
}
