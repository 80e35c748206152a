package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshsymonds/greenstash/internal/about"
	"github.com/joshsymonds/greenstash/internal/model"
)

const storageTimeout = 10 * time.Second

// ErrNoStorage is returned when the TUI is started without a database.
var ErrNoStorage = errors.New("storage not configured")

// loadGoals loads goals from storage.
func (m Model) loadGoals() tea.Cmd {
	storage := m.storage
	return func() tea.Msg {
		if storage == nil {
			return goalsLoadedMsg{err: ErrNoStorage}
		}

		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()

		goals, err := storage.GetGoals(ctx)
		return goalsLoadedMsg{goals: goals, err: err}
	}
}

// loadHistory loads the transaction history of a goal.
func (m Model) loadHistory(goal model.Goal) tea.Cmd {
	storage := m.storage
	return func() tea.Msg {
		if storage == nil {
			return historyLoadedMsg{goal: goal, err: ErrNoStorage}
		}

		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()

		// Reload the goal so the header matches the history.
		fresh, err := storage.GetGoal(ctx, goal.ID)
		if err != nil {
			return historyLoadedMsg{goal: goal, err: err}
		}

		txns, err := storage.GetTransactions(ctx, goal.ID)
		return historyLoadedMsg{goal: *fresh, transactions: txns, err: err}
	}
}

// applyLedger records a deposit or a withdrawal.
func (m Model) applyLedger(goal model.Goal, txType model.TransactionType, entry model.LedgerEntry) tea.Cmd {
	storage := m.storage
	return func() tea.Msg {
		msg := ledgerAppliedMsg{txType: txType, title: goal.Title}
		if storage == nil {
			msg.err = ErrNoStorage
			return msg
		}

		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()

		if txType == model.TransactionWithdraw {
			msg.goal, msg.txn, msg.err = storage.Withdraw(ctx, goal.ID, entry)
		} else {
			msg.goal, msg.txn, msg.err = storage.Deposit(ctx, goal.ID, entry)
		}
		return msg
	}
}

// saveGoal stores a new goal, or replaces an existing one when goal has an ID.
func (m Model) saveGoal(goal model.Goal) tea.Cmd {
	storage := m.storage
	updated := goal.ID != 0
	return func() tea.Msg {
		if storage == nil {
			return goalSavedMsg{goal: goal, updated: updated, err: ErrNoStorage}
		}

		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()

		err := storage.SaveGoal(ctx, &goal)
		return goalSavedMsg{goal: goal, updated: updated, err: err}
	}
}

// deleteGoal removes a goal and its history.
func (m Model) deleteGoal(goal model.Goal) tea.Cmd {
	storage, before := m.storage, m.config.BeforeDelete
	return func() tea.Msg {
		if storage == nil {
			return goalDeletedMsg{goal: goal, err: ErrNoStorage}
		}

		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()

		if before != nil {
			before(ctx)
		}

		return goalDeletedMsg{goal: goal, err: storage.DeleteGoal(ctx, goal.ID)}
	}
}

// copyReport puts the version report on the clipboard.
func (m Model) copyReport() tea.Cmd {
	clipboard, report := m.config.Clipboard, m.report
	return func() tea.Msg {
		if clipboard == nil {
			return reportCopiedMsg{err: errors.New("clipboard not available")}
		}
		return reportCopiedMsg{err: about.CopyReport(clipboard, report)}
	}
}

// openLink opens a project link in the browser.
func (m Model) openLink(link about.Link) tea.Cmd {
	open := m.config.OpenURL
	return func() tea.Msg {
		if open == nil {
			return linkOpenedMsg{label: link.Label, err: errors.New("no browser configured")}
		}
		return linkOpenedMsg{label: link.Label, err: open(link.URL)}
	}
}
