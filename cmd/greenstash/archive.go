package main

import (
	"fmt"
	"os"

	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/storage"
	"github.com/spf13/cobra"
)

func archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Export and import portable archives",
		Long: `Archives are compressed files holding every goal and transaction. Unlike
backups they do not depend on the database schema, so they can move data
between machines or GreenStash versions.`,
		Example: `  # Export everything
  greenstash archive export goals.gsz

  # Load an archive on a new machine
  greenstash archive import goals.gsz --mode replace

  # Add archived goals next to the existing ones
  greenstash archive import goals.gsz --mode merge`,
	}

	cmd.AddCommand(archiveExportCmd())
	cmd.AddCommand(archiveImportCmd())
	cmd.AddCommand(archiveInspectCmd())

	return cmd
}

func archiveExportCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write all goals and transactions to an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "Archive export", false)
			defer handler.Stop()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			f, err := os.Create(path) //nolint:gosec // user chosen output path
			if err != nil {
				return fmt.Errorf("failed to create archive: %w", err)
			}

			var progress *cli.Progress
			if !quiet {
				progress = cli.NewByteProgress(cmd.ErrOrStderr(), -1, "Exporting")
			}

			summary, err := store.ExportArchive(ctx, progress.Writer(f), version)
			progress.Finish()
			if closeErr := f.Close(); err == nil && closeErr != nil {
				err = fmt.Errorf("failed to close archive: %w", closeErr)
			}
			if err != nil {
				if rmErr := os.Remove(path); rmErr != nil {
					printLine(cmd.ErrOrStderr(), "%s", cli.FormatWarning("could not remove partial archive "+path))
				}
				return fmt.Errorf("failed to export archive: %w", err)
			}

			printSuccess(cmd.OutOrStdout(), "Exported %d goals and %d transactions to %s",
				summary.Goals, summary.Transactions, path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show a progress bar")

	return cmd
}

func archiveImportCmd() *cobra.Command {
	var (
		mode  string
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load goals and transactions from an archive",
		Long: `Load an archive into the database.

--mode replace removes every existing goal first. --mode merge adds the
archived goals as new goals and keeps the existing ones. Either way the
whole archive is applied in one database transaction, and the database is
backed up first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			importMode, err := storage.ParseImportMode(mode)
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "Archive import", true)
			defer handler.Stop()

			f, err := os.Open(path) //nolint:gosec // user chosen input path
			if err != nil {
				return fmt.Errorf("failed to open archive: %w", err)
			}
			defer func() { _ = f.Close() }()

			stat, err := f.Stat()
			if err != nil {
				return fmt.Errorf("failed to stat archive: %w", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			autoCheckpoint(ctx, store, "archive-import")

			var progress *cli.Progress
			if !quiet {
				progress = cli.NewByteProgress(cmd.ErrOrStderr(), stat.Size(), "Importing")
			}

			summary, err := store.ImportArchive(ctx, progress.Reader(f), importMode)
			progress.Finish()
			if err != nil {
				return fmt.Errorf("failed to import archive: %w", err)
			}

			printSuccess(cmd.OutOrStdout(), "Imported %d goals and %d transactions (%s)",
				summary.Goals, summary.Transactions, importMode)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(storage.ImportMerge), "Import mode (replace, merge)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show a progress bar")

	return cmd
}

func archiveInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Describe an archive without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open archive: %w", err)
			}
			defer func() { _ = f.Close() }()

			doc, err := storage.ReadArchive(f)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printLine(w, "%s", cli.FormatTitle("Archive "+doc.ID))
			printLine(w, "Created:      %s", doc.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			printLine(w, "App version:  %s", doc.AppVersion)
			printLine(w, "Format:       v%d (schema %d)", doc.FormatVersion, doc.SchemaVersion)
			printLine(w, "Goals:        %d", len(doc.Goals))
			printLine(w, "Transactions: %d", len(doc.Transactions))
			for _, g := range doc.Goals {
				printLine(w, "  %s %s", cli.GoalIcon, g.Title)
			}
			return nil
		},
	}
}
