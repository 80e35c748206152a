package main

import (
	"fmt"
	"log/slog"

	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every command migrates the database on startup, so this is only needed to
prepare a database ahead of time or to check its schema version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	dbPath := settings.DatabasePath

	slog.Info("Starting database migration", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStorage(store)

	w := cmd.OutOrStdout()
	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		printLine(w, "%s", cli.FormatTitle("Database migration status"))
		printLine(w, "Database:        %s", dbPath)
		printLine(w, "Current version: %d", current)
		printLine(w, "Latest version:  %d", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			printLine(w, "%s", cli.FormatWarning("Run 'greenstash migrate' to upgrade"))
		}
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	printSuccess(w, "Database is at schema version %d", storage.ExpectedSchemaVersion)
	return nil
}
