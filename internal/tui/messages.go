package tui

import (
	"github.com/joshsymonds/greenstash/internal/model"
)

// Data loading messages.
type goalsLoadedMsg struct {
	err   error
	goals []model.Goal
}

type historyLoadedMsg struct {
	err          error
	transactions []model.Transaction
	goal         model.Goal
}

// Mutation results.
type ledgerAppliedMsg struct {
	err    error
	goal   *model.Goal
	txn    *model.Transaction
	txType model.TransactionType
	title  string
}

type goalSavedMsg struct {
	err     error
	goal    model.Goal
	updated bool
}

type goalDeletedMsg struct {
	err  error
	goal model.Goal
}

// About screen results.
type reportCopiedMsg struct {
	err error
}

type linkOpenedMsg struct {
	err   error
	label string
}
