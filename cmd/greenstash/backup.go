package main

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/config"
	"github.com/joshsymonds/greenstash/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup",
		Aliases: []string{"checkpoint"},
		Short:   "Manage database backups",
		Long: `Create, list, restore, and delete database backups.

Backups are full snapshots of the database kept next to it. GreenStash also
takes automatic backups before deleting goals, restoring and importing
archives; only the newest few automatic backups are kept.`,
		Example: `  # Back up before a big cleanup
  greenstash backup create --tag before-cleanup

  # List all backups
  greenstash backup list

  # Roll back
  greenstash backup restore before-cleanup`,
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(listBackupsCmd())
	cmd.AddCommand(restoreBackupCmd())
	cmd.AddCommand(deleteBackupCmd())

	return cmd
}

// openCheckpoints opens storage and its checkpoint manager. The caller closes
// the returned storage.
func openCheckpoints(cmd *cobra.Command) (*storage.SQLiteStorage, *storage.CheckpointManager, error) {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	manager, err := store.NewCheckpointManager()
	if err != nil {
		closeStorage(store)
		return nil, nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	return store, manager, nil
}

func createBackupCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new backup",
		Long:  `Create a snapshot of the current database state.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, manager, err := openCheckpoints(cmd)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			info, err := manager.Create(cmd.Context(), tag, description)
			if err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}

			w := cmd.OutOrStdout()
			printLine(w, "%s Created backup %s (%s, %d goals)",
				cli.SuccessStyle.Render(cli.SuccessIcon),
				cli.InfoStyle.Render(info.ID),
				formatFileSize(info.FileSize),
				info.Goals)
			if info.Description != "" {
				printLine(w, "  Description: %s", info.Description)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Backup name (auto-generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of the backup")

	return cmd
}

func listBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all backups",
		Long:  `Display all available backups with their metadata.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, manager, err := openCheckpoints(cmd)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			checkpoints, err := manager.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(checkpoints) == 0 {
				printLine(w, "%s", cli.SubtleStyle.Render("No backups found."))
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
			printLine(tw, "%s", strings.Join([]string{
				headerStyle.Render("NAME"),
				headerStyle.Render("CREATED"),
				headerStyle.Render("SIZE"),
				headerStyle.Render("GOALS"),
				headerStyle.Render("TRANSACTIONS"),
				headerStyle.Render("TYPE"),
			}, "\t"))

			now := time.Now()
			for _, cp := range checkpoints {
				typeLabel := "manual"
				if cp.IsAuto {
					typeLabel = "auto"
				}

				printLine(tw, "%s\t%s\t%s\t%d\t%d\t%s",
					cli.InfoStyle.Render(cp.ID),
					formatRelativeTime(cp.CreatedAt, now),
					formatFileSize(cp.FileSize),
					cp.Goals,
					cp.Transactions,
					cli.SubtleStyle.Render(typeLabel),
				)
			}

			if err := tw.Flush(); err != nil {
				return fmt.Errorf("failed to flush table: %w", err)
			}
			return nil
		},
	}
}

func restoreBackupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <backup-id>",
		Short: "Restore the database from a backup",
		Long: `Replace the current database with a backup. The current state is backed up
first, so a restore can itself be undone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			checkpointID := args[0]

			store, manager, err := openCheckpoints(cmd)
			if err != nil {
				return err
			}
			// Restore closes the handle itself; closing again is harmless.
			defer closeStorage(store)

			info, err := manager.GetCheckpointInfo(ctx, checkpointID)
			if err != nil {
				return fmt.Errorf("failed to get backup info: %w", err)
			}

			w := cmd.OutOrStdout()
			if !force {
				printLine(w, "%s This will replace your current database with backup %s.",
					cli.WarningStyle.Render(cli.WarningIcon),
					cli.InfoStyle.Render(checkpointID))
				printLine(w, "  Created: %s", info.CreatedAt.Format("2006-01-02 15:04:05"))
				if info.Description != "" {
					printLine(w, "  Description: %s", info.Description)
				}

				ok, err := cli.NewPrompter(cmd.InOrStdin(), w).Confirm(ctx, "Continue?")
				if err != nil {
					return err
				}
				if !ok {
					printLine(w, "%s", cli.SubtleStyle.Render("Restore cancelled."))
					return nil
				}
			}

			// A manual snapshot: auto cleanup could otherwise prune the very
			// backup being restored.
			if viper.GetBool(config.KeyAutoBackup) {
				tag := "pre-restore-" + time.Now().Format("20060102-150405")
				if _, err := manager.Create(ctx, tag, "State before restoring "+checkpointID); err != nil {
					slog.Warn("failed to back up current state before restore", "error", err)
				}
			}

			if err := manager.Restore(ctx, checkpointID); err != nil {
				return fmt.Errorf("failed to restore backup: %w", err)
			}

			printLine(w, "%s Restored from backup %s",
				cli.SuccessStyle.Render(cli.SuccessIcon),
				cli.InfoStyle.Render(checkpointID))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func deleteBackupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <backup-id>",
		Short: "Delete a backup",
		Long:  `Permanently remove a backup.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			checkpointID := args[0]

			store, manager, err := openCheckpoints(cmd)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			info, err := manager.GetCheckpointInfo(ctx, checkpointID)
			if err != nil {
				return fmt.Errorf("failed to get backup info: %w", err)
			}

			w := cmd.OutOrStdout()
			if !force {
				printLine(w, "%s This will permanently delete backup %s.",
					cli.WarningStyle.Render(cli.WarningIcon),
					cli.InfoStyle.Render(checkpointID))
				printLine(w, "  Created: %s", info.CreatedAt.Format("2006-01-02 15:04:05"))
				printLine(w, "  Size: %s", formatFileSize(info.FileSize))

				ok, err := cli.NewPrompter(cmd.InOrStdin(), w).Confirm(ctx, "Continue?")
				if err != nil {
					return err
				}
				if !ok {
					printLine(w, "%s", cli.SubtleStyle.Render("Deletion cancelled."))
					return nil
				}
			}

			if err := manager.Delete(ctx, checkpointID); err != nil {
				return fmt.Errorf("failed to delete backup: %w", err)
			}

			printLine(w, "%s Deleted backup %s",
				cli.SuccessStyle.Render(cli.SuccessIcon),
				cli.InfoStyle.Render(checkpointID))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}
