package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/common"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/ofx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx <goal-id> <files...>",
		Short: "Apply OFX/QFX bank statements to a goal",
		Long: `Import the transactions of OFX or QFX (Quicken) files exported from your
bank into a goal. Credits become deposits and debits become withdrawals.

Entries that were imported before are skipped, so re-importing an
overlapping statement is safe. Entries the goal cannot take (a deposit into
a completed goal, a withdrawal larger than the saved amount) are reported
and skipped.`,
		Example: `  # Track a dedicated savings account against goal 3
  greenstash import-ofx 3 ~/Downloads/savings_*.qfx

  # Only one account of a multi-account statement
  greenstash import-ofx 3 statement.ofx --account 1234567890

  # Preview without saving
  greenstash import-ofx 3 statement.ofx --dry-run`,
		Args: cobra.MinimumNArgs(2),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	cmd.Flags().StringP("account", "a", "", "Only import entries of this account id")
	cmd.Flags().BoolP("verbose", "v", false, "List every entry")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	account, _ := cmd.Flags().GetString("account")
	verbose, _ := cmd.Flags().GetBool("verbose")

	goalID, err := parseGoalID(args[0])
	if err != nil {
		return err
	}

	files, err := expandFiles(args[1:])
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Import", true)
	defer handler.Stop()

	slog.Info("Importing OFX files", "file_count", len(files), "dry_run", dryRun)

	entries, err := parseStatements(ctx, cmd.ErrOrStderr(), files)
	if err != nil {
		return err
	}
	entries = ofx.FilterAccount(entries, account)

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		printLine(w, "%s", cli.FormatWarning("No statement entries found"))
		return nil
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	goal, err := loadGoal(ctx, store, goalID)
	if err != nil {
		return err
	}

	summarizeStatement(w, entries, settings.Currency, verbose)

	if dryRun {
		printLine(w, "%s", cli.FormatInfo(fmt.Sprintf("Dry run: nothing was applied to %q", goal.Title)))
		return nil
	}

	autoCheckpoint(ctx, store, "ofx-import")

	result, err := store.ImportStatement(ctx, goalID, entries)
	if err != nil {
		return fmt.Errorf("failed to import statement: %w", err)
	}

	printSuccess(w, "Imported %d entries into %q (%d duplicates)", result.Imported, goal.Title, result.Duplicates)
	for _, s := range result.Skipped {
		printLine(w, "  %s %s %s: %s",
			cli.WarningStyle.Render(cli.WarningIcon),
			s.Entry.Date.Format("2006-01-02"),
			model.FormatCurrency(s.Entry.Amount, settings.Currency),
			s.Reason)
	}
	if result.Goal != nil {
		printLine(w, "  %s of %s saved  %s",
			model.FormatCurrency(result.Goal.CurrentAmount, settings.Currency),
			model.FormatCurrency(result.Goal.TargetAmount, settings.Currency),
			cli.FormatProgressBar(result.Goal.Progress(), 20))
	}

	return nil
}

// expandFiles resolves glob patterns. Patterns matching nothing are kept when
// they name an existing file.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, common.NewUserError("no files found to import", common.ErrNoEntries)
	}
	return files, nil
}

// parseStatements reads every file, skipping files that fail to parse, and
// drops entries repeated across files.
func parseStatements(ctx context.Context, progressOut io.Writer, files []string) ([]model.StatementEntry, error) {
	parser := ofx.NewParser()
	progress := cli.NewProgress(progressOut, int64(len(files)), "Reading statements")
	defer progress.Finish()

	seen := make(map[string]bool)
	var entries []model.StatementEntry

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parsed, err := parseStatementFile(ctx, parser, path)
		progress.Add(1)
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		added := 0
		for _, e := range parsed {
			key := e.Key()
			if key != "" && seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, e)
			added++
		}

		slog.Info("Processed file",
			"file", filepath.Base(path),
			"entries", len(parsed),
			"duplicates", len(parsed)-added)
	}

	return entries, nil
}

func parseStatementFile(ctx context.Context, parser *ofx.Parser, path string) ([]model.StatementEntry, error) {
	f, err := os.Open(path) //nolint:gosec // user chosen statement file
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parser.ParseFile(ctx, f)
}

func summarizeStatement(w io.Writer, entries []model.StatementEntry, currency string, verbose bool) {
	var credits, debits decimal.Decimal
	accounts := make(map[string]int)

	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b model.StatementEntry) int {
		return a.Date.Compare(b.Date)
	})

	for _, e := range sorted {
		if e.Amount.IsNegative() {
			debits = debits.Add(e.Amount.Neg())
		} else {
			credits = credits.Add(e.Amount)
		}
		accounts[e.AccountID]++
	}

	oldest, newest := sorted[0].Date, sorted[len(sorted)-1].Date

	printLine(w, "%s", cli.FormatTitle("Statement summary"))
	printLine(w, "Entries:  %d from %d account(s)", len(sorted), len(accounts))
	printLine(w, "Period:   %s to %s", oldest.Format("2006-01-02"), newest.Format("2006-01-02"))
	printLine(w, "Deposits: %s", model.FormatCurrency(credits, currency))
	printLine(w, "Withdraw: %s", model.FormatCurrency(debits, currency))

	if verbose {
		for _, e := range sorted {
			printLine(w, "  %s  %12s  %s", e.Date.Format("2006-01-02"), model.FormatCurrency(e.Amount, currency), e.Memo)
		}
	}
}
