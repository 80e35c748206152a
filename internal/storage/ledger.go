package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/joshsymonds/greenstash/internal/model"
)

const transactionColumns = `id, goal_id, type, amount, notes, date, external_id, created_at`

// GetTransactions returns a goal's transactions, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, goalID int64) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(goalID, "goalID"); err != nil {
		return nil, err
	}
	return s.getTransactionsTx(ctx, s.db, goalID)
}

func (s *SQLiteStorage) getTransactionsTx(ctx context.Context, q queryable, goalID int64) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE goal_id = ?
		ORDER BY date DESC, created_at DESC
	`, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return scanTransactions(rows)
}

// GetAllTransactions returns every transaction grouped by goal, oldest first
// within each goal.
func (s *SQLiteStorage) GetAllTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getAllTransactionsTx(ctx, s.db)
}

func (s *SQLiteStorage) getAllTransactionsTx(ctx context.Context, q queryable) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY goal_id ASC, date ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return scanTransactions(rows)
}

// Deposit adds money to a goal and records the transaction atomically.
func (s *SQLiteStorage) Deposit(ctx context.Context, goalID int64, entry model.LedgerEntry) (*model.Goal, *model.Transaction, error) {
	return s.apply(ctx, goalID, model.TransactionDeposit, entry)
}

// Withdraw takes money out of a goal and records the transaction atomically.
func (s *SQLiteStorage) Withdraw(ctx context.Context, goalID int64, entry model.LedgerEntry) (*model.Goal, *model.Transaction, error) {
	return s.apply(ctx, goalID, model.TransactionWithdraw, entry)
}

func (s *SQLiteStorage) apply(ctx context.Context, goalID int64, txType model.TransactionType, entry model.LedgerEntry) (*model.Goal, *model.Transaction, error) {
	if err := validateLedgerArgs(ctx, goalID, entry); err != nil {
		return nil, nil, err
	}

	var (
		goal *model.Goal
		txn  *model.Transaction
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var applyErr error
		goal, txn, applyErr = s.applyTx(ctx, tx, goalID, txType, entry, "")
		return applyErr
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Recorded transaction",
		"goal_id", goalID,
		"type", txType,
		"amount", txn.Amount.String(),
		"balance", goal.CurrentAmount.String())

	return goal, txn, nil
}

// applyTx enforces the deposit/withdraw rules, moves the balance and appends
// the transaction row.
func (s *SQLiteStorage) applyTx(ctx context.Context, q queryable, goalID int64, txType model.TransactionType, entry model.LedgerEntry, externalID string) (*model.Goal, *model.Transaction, error) {
	goal, err := s.getGoalTx(ctx, q, goalID)
	if err != nil {
		return nil, nil, err
	}

	switch txType {
	case model.TransactionDeposit:
		if err := goal.CanDeposit(); err != nil {
			return nil, nil, err
		}
		goal.CurrentAmount = goal.CurrentAmount.Add(entry.Amount)
	case model.TransactionWithdraw:
		if err := goal.CanWithdraw(entry.Amount); err != nil {
			return nil, nil, err
		}
		goal.CurrentAmount = goal.CurrentAmount.Sub(entry.Amount)
	default:
		return nil, nil, fmt.Errorf("%w: unknown type %q", ErrInvalidLedger, txType)
	}

	if err := s.updateGoalAmountTx(ctx, q, goalID, goal.CurrentAmount); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	date := entry.Date
	if date.IsZero() {
		date = now
	}

	txn := &model.Transaction{
		ID:         uuid.New().String(),
		GoalID:     goalID,
		Type:       txType,
		Amount:     entry.Amount,
		Notes:      entry.Notes,
		Date:       date.UTC(),
		ExternalID: externalID,
		CreatedAt:  now,
	}

	if err := insertTransaction(ctx, q, txn); err != nil {
		return nil, nil, err
	}

	goal.UpdatedAt = now
	return goal, txn, nil
}

// ImportStatement applies bank statement entries to a goal in date order.
// Entries seen before are counted as duplicates, and entries the goal rules
// reject are reported as skipped rather than failing the import.
func (s *SQLiteStorage) ImportStatement(ctx context.Context, goalID int64, entries []model.StatementEntry) (*model.ImportResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(goalID, "goalID"); err != nil {
		return nil, err
	}

	var result *model.ImportResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var importErr error
		result, importErr = s.importStatementTx(ctx, tx, goalID, entries)
		return importErr
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Imported statement",
		"goal_id", goalID,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"skipped", len(result.Skipped))

	return result, nil
}

func (s *SQLiteStorage) importStatementTx(ctx context.Context, q queryable, goalID int64, entries []model.StatementEntry) (*model.ImportResult, error) {
	goal, err := s.getGoalTx(ctx, q, goalID)
	if err != nil {
		return nil, err
	}

	ordered := slices.Clone(entries)
	slices.SortStableFunc(ordered, func(a, b model.StatementEntry) int {
		return a.Date.Compare(b.Date)
	})

	result := &model.ImportResult{Goal: goal}
	for _, entry := range ordered {
		if entry.Amount.IsZero() {
			result.Skipped = append(result.Skipped, model.SkippedEntry{Entry: entry, Reason: "zero amount"})
			continue
		}

		key := entry.Key()
		if key != "" {
			seen, err := externalIDExists(ctx, q, goalID, key)
			if err != nil {
				return nil, err
			}
			if seen {
				result.Duplicates++
				continue
			}
		}

		ledgerEntry := model.LedgerEntry{
			Amount: entry.Amount.Abs(),
			Notes:  entry.Memo,
			Date:   entry.Date,
		}

		updated, _, err := s.applyTx(ctx, q, goalID, entry.TransactionType(), ledgerEntry, key)
		if err != nil {
			if isLedgerRule(err) {
				result.Skipped = append(result.Skipped, model.SkippedEntry{Entry: entry, Reason: err.Error()})
				continue
			}
			return nil, err
		}

		result.Goal = updated
		result.Imported++
	}

	return result, nil
}

func isLedgerRule(err error) bool {
	return errors.Is(err, model.ErrGoalAchieved) ||
		errors.Is(err, model.ErrNothingToWithdraw) ||
		errors.Is(err, model.ErrInsufficientFunds)
}

func externalIDExists(ctx context.Context, q queryable, goalID int64, externalID string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM transactions WHERE goal_id = ? AND external_id = ?)
	`, goalID, externalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check statement id: %w", err)
	}
	return exists, nil
}

func insertTransaction(ctx context.Context, q queryable, txn *model.Transaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		txn.GoalID,
		string(txn.Type),
		txn.Amount.String(),
		txn.Notes,
		txn.Date,
		txn.ExternalID,
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var (
			txn    model.Transaction
			txType string
		)
		if err := rows.Scan(
			&txn.ID,
			&txn.GoalID,
			&txType,
			&txn.Amount,
			&txn.Notes,
			&txn.Date,
			&txn.ExternalID,
			&txn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Type = model.TransactionType(txType)
		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

func validateLedgerArgs(ctx context.Context, goalID int64, entry model.LedgerEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(goalID, "goalID"); err != nil {
		return err
	}
	return validateLedgerEntry(entry)
}
