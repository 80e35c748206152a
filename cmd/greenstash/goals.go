package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/common"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "goals",
		Aliases: []string{"goal"},
		Short:   "Manage savings goals",
		Long: `Add, list, edit and delete savings goals.

A goal has a title, a target amount and the amount saved so far. Use
'greenstash deposit' and 'greenstash withdraw' to move money in and out.`,
		Example: `  # Save up for a laptop by the end of the year
  greenstash goals add "New laptop" --target 1500 --deadline 2026-12-31

  # Show only goals that still need money
  greenstash goals list --filter ongoing

  # Export everything as YAML
  greenstash goals list --output yaml`,
	}

	cmd.AddCommand(goalsAddCmd())
	cmd.AddCommand(goalsListCmd())
	cmd.AddCommand(goalsShowCmd())
	cmd.AddCommand(goalsEditCmd())
	cmd.AddCommand(goalsDeleteCmd())
	cmd.AddCommand(goalsSetAmountCmd())

	return cmd
}

func goalsAddCmd() *cobra.Command {
	var (
		target   string
		deadline string
		notes    string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a savings goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			title := strings.TrimSpace(args[0])
			if title == "" {
				return common.NewUserError("title cannot be empty", storage.ErrInvalidGoal)
			}

			targetAmount, err := parseAmountArg(target)
			if err != nil {
				return err
			}

			due, err := parseDeadline(deadline)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			goal := &model.Goal{
				Title:         title,
				TargetAmount:  targetAmount,
				CurrentAmount: decimal.Zero,
				Deadline:      due,
				Notes:         notes,
			}
			if err := store.SaveGoal(ctx, goal); err != nil {
				return fmt.Errorf("failed to save goal: %w", err)
			}

			printSuccess(cmd.OutOrStdout(), "Added goal #%d %q (target %s)",
				goal.ID, goal.Title, model.FormatCurrency(goal.TargetAmount, settings.Currency))
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Target amount (required)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func goalsListCmd() *cobra.Command {
	var (
		filter string
		search string
		output string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List savings goals",
		Long: `List goals with their progress.

--filter narrows the list to ongoing or completed goals. When nothing
matches the filter, the full list is shown with a notice. --search keeps
goals whose title contains the text, ignoring case.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			goalFilter, err := model.ParseGoalFilter(filter)
			if err != nil {
				return common.NewUserError(err.Error(), err)
			}
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
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

			goals, err := store.GetGoals(ctx)
			if err != nil {
				return fmt.Errorf("failed to get goals: %w", err)
			}

			w := cmd.OutOrStdout()
			visible, notice := selectGoals(goals, goalFilter, search)

			if format != outputTable {
				return writeStructured(w, format, newGoalOutputs(visible))
			}

			if notice != "" {
				printLine(w, "%s", cli.FormatInfo(notice))
			}
			if len(goals) == 0 {
				printLine(w, "%s", cli.SubtleStyle.Render("No goals yet. Use 'greenstash goals add' to create one."))
				return nil
			}
			if len(visible) == 0 {
				printLine(w, "%s", cli.FormatWarning("Item not found"))
				return nil
			}

			return renderGoalTable(w, visible, settings.Currency)
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "Filter by state (all, ongoing, completed)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show goals whose title contains this text")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")

	return cmd
}

// selectGoals applies the state filter and then the title search. A filter
// that matches nothing keeps the full list and returns the filter's notice.
func selectGoals(goals []model.Goal, f model.GoalFilter, query string) ([]model.Goal, string) {
	var notice string

	filtered, ok := model.FilterGoals(goals, f)
	if !ok {
		notice = f.EmptyMessage()
		filtered = goals
	}

	return model.SearchGoals(filtered, query), notice
}

func renderGoalTable(w io.Writer, goals []model.Goal, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
	if _, err := fmt.Fprintln(tw, strings.Join([]string{
		headerStyle.Render("ID"),
		headerStyle.Render("TITLE"),
		headerStyle.Render("SAVED"),
		headerStyle.Render("TARGET"),
		headerStyle.Render("PROGRESS"),
		headerStyle.Render("STATUS"),
	}, "\t")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, g := range goals {
		status := cli.InfoStyle.Render("ongoing")
		if g.IsCompleted() {
			status = cli.SuccessStyle.Render("completed")
		}

		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			g.ID,
			g.Title,
			model.FormatCurrency(g.CurrentAmount, currency),
			model.FormatCurrency(g.TargetAmount, currency),
			cli.FormatProgressBar(g.Progress(), 10),
			status,
		); err != nil {
			return fmt.Errorf("failed to write goal row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}

func goalsShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <goal-id>",
		Short: "Show a goal and its savings plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseGoalID(args[0])
			if err != nil {
				return err
			}
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
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

			goal, err := loadGoal(ctx, store, id)
			if err != nil {
				return err
			}

			if format != outputTable {
				return writeStructured(cmd.OutOrStdout(), format, newGoalOutput(*goal))
			}

			printLine(cmd.OutOrStdout(), "%s", renderGoalDetails(*goal, settings.Currency, settings.DateFormat, time.Now()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")

	return cmd
}

// renderGoalDetails is the text block printed by `goals show` and `history`.
func renderGoalDetails(g model.Goal, currency, dateFormat string, now time.Time) string {
	lines := []string{
		cli.FormatTitle(fmt.Sprintf("%s %s (#%d)", cli.GoalIcon, g.Title, g.ID)),
		fmt.Sprintf("Saved:     %s of %s", model.FormatCurrency(g.CurrentAmount, currency), model.FormatCurrency(g.TargetAmount, currency)),
		fmt.Sprintf("Remaining: %s", model.FormatCurrency(g.Remaining(), currency)),
		"Progress:  " + cli.FormatProgressBar(g.Progress(), 20),
	}

	if g.IsCompleted() {
		lines = append(lines, cli.FormatSuccess("Goal achieved"))
	}

	if g.Deadline != nil {
		lines = append(lines, fmt.Sprintf("Deadline:  %s (%d days left)", g.Deadline.Format(dateFormat), g.DaysLeft(now)))
	}

	if plan, ok := g.SavingsPlan(now); ok {
		lines = append(lines, fmt.Sprintf("Plan:      save %s a day, %s a week or %s a month",
			model.FormatCurrency(plan.Daily, currency),
			model.FormatCurrency(plan.Weekly, currency),
			model.FormatCurrency(plan.Monthly, currency)))
	}

	if g.Notes != "" {
		lines = append(lines, fmt.Sprintf("Notes:     %s", g.Notes))
	}

	return strings.Join(lines, "\n")
}

func goalsEditCmd() *cobra.Command {
	var (
		title         string
		target        string
		deadline      string
		notes         string
		clearDeadline bool
	)

	cmd := &cobra.Command{
		Use:   "edit <goal-id>",
		Short: "Change a goal's title, target, deadline or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseGoalID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			goal, err := loadGoal(ctx, store, id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			changed := false

			if flags.Changed("title") {
				if strings.TrimSpace(title) == "" {
					return common.NewUserError("title cannot be empty", storage.ErrInvalidGoal)
				}
				goal.Title = strings.TrimSpace(title)
				changed = true
			}
			if flags.Changed("target") {
				amount, err := parseAmountArg(target)
				if err != nil {
					return err
				}
				goal.TargetAmount = amount
				changed = true
			}
			if flags.Changed("deadline") {
				due, err := parseDeadline(deadline)
				if err != nil {
					return err
				}
				goal.Deadline = due
				changed = true
			}
			if clearDeadline {
				goal.Deadline = nil
				changed = true
			}
			if flags.Changed("notes") {
				goal.Notes = notes
				changed = true
			}

			if !changed {
				return common.NewUserError("nothing to change: pass --title, --target, --deadline, --clear-deadline or --notes", common.ErrNothingToChange)
			}

			if err := store.SaveGoal(ctx, goal); err != nil {
				return fmt.Errorf("failed to save goal: %w", err)
			}

			printSuccess(cmd.OutOrStdout(), "Updated goal #%d %q", goal.ID, goal.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&target, "target", "t", "", "New target amount")
	cmd.Flags().StringVar(&deadline, "deadline", "", "New deadline (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDeadline, "clear-deadline", false, "Remove the deadline")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "New notes")
	cmd.MarkFlagsMutuallyExclusive("deadline", "clear-deadline")

	return cmd
}

func goalsDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "delete <goal-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a goal and its transactions",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseGoalID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			goal, err := loadGoal(ctx, store, id)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !force {
				prompter := cli.NewPrompter(cmd.InOrStdin(), w)
				ok, err := prompter.Confirm(ctx, fmt.Sprintf("Delete goal %q and all of its transactions?", goal.Title))
				if err != nil {
					return err
				}
				if !ok {
					printLine(w, "%s", cli.SubtleStyle.Render("Deletion cancelled."))
					return nil
				}
			}

			autoCheckpoint(ctx, store, "goal-delete")

			if err := store.DeleteGoal(ctx, id); err != nil {
				return fmt.Errorf("failed to delete goal: %w", err)
			}

			printSuccess(w, "Deleted goal #%d %q", goal.ID, goal.Title)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func goalsSetAmountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-amount <goal-id> <amount>",
		Short: "Correct the saved amount without recording a transaction",
		Long: `Set a goal's saved amount directly. No deposit or withdrawal is recorded,
so use this to fix mistakes rather than to move money.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseGoalID(args[0])
			if err != nil {
				return err
			}

			amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(args[1]), ",", "."))
			if err != nil || amount.IsNegative() {
				return common.NewUserError(fmt.Sprintf("invalid amount %q", args[1]), model.ErrInvalidAmount)
			}
			amount = amount.Round(2)

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.UpdateGoalAmount(ctx, id, amount); err != nil {
				return fmt.Errorf("failed to update goal: %w", err)
			}

			printSuccess(cmd.OutOrStdout(), "Goal #%d now has %s saved", id, model.FormatCurrency(amount, settings.Currency))
			return nil
		},
	}
}
