package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/common"
	"github.com/joshsymonds/greenstash/internal/config"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// loadSettings resolves the application settings from viper.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("invalid configuration", err)
	}
	return settings, nil
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		closeStorage(store)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// autoCheckpoint snapshots the database before a destructive command unless
// backup.auto is off. A failed snapshot is logged and never blocks the command.
func autoCheckpoint(ctx context.Context, store *storage.SQLiteStorage, operation string) {
	if !viper.GetBool(config.KeyAutoBackup) {
		return
	}

	manager, err := store.NewCheckpointManager()
	if err != nil {
		slog.Warn("failed to create checkpoint manager", "error", err)
		return
	}

	info, err := manager.AutoCheckpoint(ctx, operation)
	if err != nil {
		slog.Warn("failed to create automatic checkpoint", "operation", operation, "error", err)
		return
	}
	slog.Debug("Created automatic checkpoint", "id", info.ID)
}

// parseGoalID parses a goal id argument.
func parseGoalID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewUserError(fmt.Sprintf("invalid goal id %q", arg), storage.ErrInvalidID)
	}
	return id, nil
}

// loadGoal fetches a goal, turning a missing row into a friendly error.
func loadGoal(ctx context.Context, store *storage.SQLiteStorage, id int64) (*model.Goal, error) {
	goal, err := store.GetGoal(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrGoalNotFound) {
			return nil, common.NewUserError(fmt.Sprintf("no goal with id %d", id), err)
		}
		return nil, fmt.Errorf("failed to load goal: %w", err)
	}
	return goal, nil
}

// parseDate accepts YYYY-MM-DD as local midnight. Empty input means "not set".
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(model.DateLayout, s, time.Local)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", s), err)
	}
	return &t, nil
}

// parseDeadline accepts YYYY-MM-DD and returns the calendar date.
func parseDeadline(s string) (*time.Time, error) {
	due, err := model.ParseDeadline(s)
	if err != nil {
		return nil, common.NewUserError(err.Error(), err)
	}
	return due, nil
}

// parseAmountArg parses a money argument with a user-facing error.
func parseAmountArg(s string) (decimal.Decimal, error) {
	amount, err := model.ParseAmount(s)
	if err != nil {
		return decimal.Zero, common.NewUserError(err.Error(), err)
	}
	return amount, nil
}

func printLine(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format+"\n", args...); err != nil {
		slog.Error("failed to write output", "error", err)
	}
}

func printSuccess(w io.Writer, format string, args ...any) {
	printLine(w, "%s", cli.FormatSuccess(fmt.Sprintf(format, args...)))
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t, now time.Time) string {
	duration := now.Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
