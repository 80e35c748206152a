package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/shopspring/decimal"
)

const goalColumns = `id, title, target_amount, current_amount, deadline, notes, created_at, updated_at`

// GetGoals returns every goal ordered by id.
func (s *SQLiteStorage) GetGoals(ctx context.Context) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getGoalsTx(ctx, s.db)
}

func (s *SQLiteStorage) getGoalsTx(ctx context.Context, q queryable) ([]model.Goal, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []model.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}

	slog.Debug("Loaded goals", "count", len(goals))
	return goals, nil
}

// GetGoal returns a single goal, or ErrGoalNotFound.
func (s *SQLiteStorage) GetGoal(ctx context.Context, id int64) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}
	return s.getGoalTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getGoalTx(ctx context.Context, q queryable, id int64) (*model.Goal, error) {
	row := q.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)

	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrGoalNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// SaveGoal inserts a goal when its ID is zero and otherwise replaces the stored
// goal with the same ID. The goal's transactions are kept on replace.
func (s *SQLiteStorage) SaveGoal(ctx context.Context, goal *model.Goal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoal(goal); err != nil {
		return err
	}
	return s.saveGoalTx(ctx, s.db, goal)
}

func (s *SQLiteStorage) saveGoalTx(ctx context.Context, q queryable, goal *model.Goal) error {
	now := time.Now().UTC()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	goal.UpdatedAt = now

	deadline := sql.NullTime{}
	if goal.Deadline != nil {
		due := model.CalendarDate(*goal.Deadline)
		goal.Deadline = &due
		deadline = sql.NullTime{Time: due, Valid: true}
	}

	if goal.ID == 0 {
		result, err := q.ExecContext(ctx, `
			INSERT INTO goals (title, target_amount, current_amount, deadline, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, goal.Title, goal.TargetAmount.String(), goal.CurrentAmount.String(), deadline, goal.Notes,
			goal.CreatedAt.UTC(), goal.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert goal: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read goal id: %w", err)
		}
		goal.ID = id

		slog.Info("Created goal", "id", goal.ID, "title", goal.Title)
		return nil
	}

	// Upsert rather than INSERT OR REPLACE: a replace would delete the row and
	// cascade to its transactions.
	_, err := q.ExecContext(ctx, `
		INSERT INTO goals (id, title, target_amount, current_amount, deadline, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			target_amount = excluded.target_amount,
			current_amount = excluded.current_amount,
			deadline = excluded.deadline,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`, goal.ID, goal.Title, goal.TargetAmount.String(), goal.CurrentAmount.String(), deadline, goal.Notes,
		goal.CreatedAt.UTC(), goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}

	slog.Info("Saved goal", "id", goal.ID, "title", goal.Title)
	return nil
}

// UpdateGoalAmount sets a goal's saved amount without recording a transaction.
func (s *SQLiteStorage) UpdateGoalAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	return s.updateGoalAmountTx(ctx, s.db, id, amount)
}

func (s *SQLiteStorage) updateGoalAmountTx(ctx context.Context, q queryable, id int64, amount decimal.Decimal) error {
	result, err := q.ExecContext(ctx, `
		UPDATE goals SET current_amount = ?, updated_at = ? WHERE id = ?
	`, amount.String(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update goal amount: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrGoalNotFound, id)
	}

	slog.Debug("Updated goal amount", "id", id, "amount", amount.String())
	return nil
}

// DeleteGoal removes a goal together with its transactions.
func (s *SQLiteStorage) DeleteGoal(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.deleteGoalTx(ctx, tx, id)
	})
}

func (s *SQLiteStorage) deleteGoalTx(ctx context.Context, q queryable, id int64) error {
	// Explicit delete so the result does not depend on the foreign_keys pragma.
	if _, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE goal_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete goal transactions: %w", err)
	}

	result, err := q.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrGoalNotFound, id)
	}

	slog.Info("Deleted goal", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*model.Goal, error) {
	var (
		goal     model.Goal
		deadline sql.NullTime
	)

	err := row.Scan(
		&goal.ID,
		&goal.Title,
		&goal.TargetAmount,
		&goal.CurrentAmount,
		&deadline,
		&goal.Notes,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}

	if deadline.Valid {
		d := model.CalendarDate(deadline.Time.UTC())
		goal.Deadline = &d
	}

	return &goal, nil
}
