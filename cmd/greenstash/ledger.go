package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/common"
	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/joshsymonds/greenstash/internal/storage"
	"github.com/spf13/cobra"
)

func depositCmd() *cobra.Command {
	return ledgerCmd(model.TransactionDeposit)
}

func withdrawCmd() *cobra.Command {
	return ledgerCmd(model.TransactionWithdraw)
}

// ledgerCmd builds the deposit and withdraw commands, which differ only in the
// transaction type they record.
func ledgerCmd(txType model.TransactionType) *cobra.Command {
	var (
		notes string
		date  string
	)

	use, short := "deposit", "Add money to a goal"
	if txType == model.TransactionWithdraw {
		use, short = "withdraw", "Take money out of a goal"
	}

	cmd := &cobra.Command{
		Use:   use + " <goal-id> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseGoalID(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmountArg(args[1])
			if err != nil {
				return err
			}
			when, err := parseDate(date)
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

			entry := model.LedgerEntry{Amount: amount, Notes: notes}
			if when != nil {
				entry.Date = *when
			}

			apply := store.Deposit
			if txType == model.TransactionWithdraw {
				apply = store.Withdraw
			}

			goal, txn, err := apply(ctx, id, entry)
			if err != nil {
				return ledgerError(err, id)
			}

			w := cmd.OutOrStdout()
			money := model.FormatCurrency(txn.Amount, settings.Currency)
			if txType == model.TransactionWithdraw {
				printSuccess(w, "Withdrew %s from %q", money, goal.Title)
			} else {
				printSuccess(w, "Deposited %s into %q", money, goal.Title)
			}
			printLine(w, "  %s of %s saved  %s",
				model.FormatCurrency(goal.CurrentAmount, settings.Currency),
				model.FormatCurrency(goal.TargetAmount, settings.Currency),
				cli.FormatProgressBar(goal.Progress(), 20))

			if txType == model.TransactionDeposit && goal.IsCompleted() {
				printLine(w, "%s", cli.SuccessStyle.Render(cli.CheckIcon+" Goal reached! Well done."))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&notes, "notes", "n", "", "What the money is for")
	cmd.Flags().StringVar(&date, "date", "", "Transaction date (YYYY-MM-DD, default today)")

	return cmd
}

// ledgerError turns the ledger rule violations into messages for the user.
func ledgerError(err error, goalID int64) error {
	switch {
	case errors.Is(err, model.ErrGoalAchieved),
		errors.Is(err, model.ErrNothingToWithdraw),
		errors.Is(err, model.ErrInsufficientFunds):
		return common.NewUserError(err.Error(), err)
	case errors.Is(err, storage.ErrGoalNotFound):
		return common.NewUserError(fmt.Sprintf("no goal with id %d", goalID), err)
	default:
		return fmt.Errorf("failed to record transaction: %w", err)
	}
}

func historyCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "history <goal-id>",
		Short: "Show a goal's deposits and withdrawals",
		Long:  `Show a goal's progress followed by its transactions, newest first.`,
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

			txns, err := store.GetTransactions(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}

			w := cmd.OutOrStdout()
			if format != outputTable {
				return writeStructured(w, format, txns)
			}

			printLine(w, "%s", renderGoalDetails(*goal, settings.Currency, settings.DateFormat, time.Now()))
			printLine(w, "")
			return renderHistory(w, txns, settings.Currency, settings.DateFormat)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")

	return cmd
}

func renderHistory(w io.Writer, txns []model.Transaction, currency, dateFormat string) error {
	if len(txns) == 0 {
		printLine(w, "%s", cli.SubtleStyle.Render("No transactions yet"))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range txns {
		icon := cli.DepositIcon
		if t.Type == model.TransactionWithdraw {
			icon = cli.WithdrawIcon
		}

		line := []string{t.Date.Local().Format(dateFormat), icon, t.Describe(currency)}
		if t.Notes != "" {
			line = append(line, t.Notes)
		}
		if _, err := fmt.Fprintln(tw, strings.Join(line, "\t")); err != nil {
			return fmt.Errorf("failed to write transaction: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}
