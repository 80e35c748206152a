// Package main runs the goal browser against a throwaway database filled with
// sample goals.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/storage"
	"github.com/joshsymonds/greenstash/internal/tui"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
	"github.com/shopspring/decimal"
)

type demoGoal struct {
	title    string
	notes    string
	target   int64
	deposits []int64
	days     int
}

var demoGoals = []demoGoal{
	{title: "Emergency fund", target: 5000, deposits: []int64{1000, 750, 500}, notes: "Three months of rent"},
	{title: "New laptop", target: 1800, deposits: []int64{300, 200}, days: 90},
	{title: "Japan trip", target: 4200, deposits: []int64{1200}, days: 240, notes: "Cherry blossom season"},
	{title: "Concert tickets", target: 250, deposits: []int64{150, 100}},
	{title: "Bike repair", target: 120},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "greenstash-demo")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "demo.db"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	if err := seed(ctx, store); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}

	theme := themes.GetTheme(os.Getenv("GREENSTASH_THEME"))
	return tui.Run(ctx,
		tui.WithStorage(store),
		tui.WithTheme(theme),
		tui.WithSize(120, 40),
	)
}

func seed(ctx context.Context, store *storage.SQLiteStorage) error {
	now := time.Now()

	for _, d := range demoGoals {
		goal := &model.Goal{
			Title:        d.title,
			Notes:        d.notes,
			TargetAmount: decimal.NewFromInt(d.target),
		}
		if d.days > 0 {
			deadline := now.AddDate(0, 0, d.days)
			goal.Deadline = &deadline
		}
		if err := store.SaveGoal(ctx, goal); err != nil {
			return err
		}

		for i, amount := range d.deposits {
			entry := model.LedgerEntry{
				Amount: decimal.NewFromInt(amount),
				Date:   now.AddDate(0, 0, -7*(len(d.deposits)-i)),
			}
			if _, _, err := store.Deposit(ctx, goal.ID, entry); err != nil {
				return err
			}
		}
	}
	return nil
}
