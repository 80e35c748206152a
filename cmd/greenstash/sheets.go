package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/common"
	"github.com/joshsymonds/greenstash/internal/config"
	"github.com/joshsymonds/greenstash/internal/service"
	"github.com/joshsymonds/greenstash/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Open your browser to authenticate with Google
2. Save the refresh token for future use
3. Update your config file with the token

You'll need to run this once before 'greenstash export sheets'.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	clientID := viper.GetString("sheets.client_id")
	clientSecret := viper.GetString("sheets.client_secret")

	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}

	if clientID == "" {
		clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return common.NewUserError(
			"OAuth2 credentials not found. Set sheets.client_id and sheets.client_secret in the config or use --client-id and --client-secret",
			common.ErrMissingConfig)
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	tokenFile := filepath.Join(dir, "sheets-token.json")

	slog.Info("Starting Google Sheets authentication", "token_file", tokenFile)

	token, err := sheets.AuthenticateOAuth2Interactive(ctx, sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
		OpenURL:      openURL,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	w := cmd.OutOrStdout()
	viper.Set("sheets.refresh_token", token.RefreshToken)
	if err := saveConfig(dir); err != nil {
		slog.Warn("Failed to update config file with refresh token", "error", err)
		printLine(w, "%s", cli.FormatWarning("Could not save the refresh token to the config file"))
		printLine(w, "Please add this to your config.yaml manually:")
		printLine(w, "sheets:\n  refresh_token: %q", token.RefreshToken)
		return nil
	}

	printSuccess(w, "Authentication successful")
	printLine(w, "Run 'greenstash export sheets' to export your goals.")
	return nil
}

// saveConfig writes the current viper settings back to the config file in use,
// or to config.yaml in dir when none was loaded.
func saveConfig(dir string) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = filepath.Join(dir, "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export goals to external services",
	}

	cmd.AddCommand(exportSheetsCmd())

	return cmd
}

func exportSheetsCmd() *cobra.Command {
	var spreadsheetID string

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Export goals and transactions to Google Sheets",
		Long: `Write every goal, its progress and its transactions to a Google
spreadsheet. The spreadsheet is created on first use; later exports
overwrite its tabs.

Authenticate first with 'greenstash auth sheets', or configure a service
account with sheets.service_account_path.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sheetsConfig, err := config.LoadSheetsConfig()
			if err != nil {
				return common.NewUserError(
					"Google Sheets is not configured. Run 'greenstash auth sheets' first", err)
			}
			if spreadsheetID != "" {
				sheetsConfig.SpreadsheetID = spreadsheetID
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
			if len(goals) == 0 {
				return common.NewUserError("there are no goals to export", common.ErrNoEntries)
			}
			txns, err := store.GetAllTransactions(ctx)
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}

			writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to create sheets writer: %w", err)
			}

			report := &service.GoalReport{
				GeneratedAt:  time.Now(),
				Currency:     sheetsConfig.Currency,
				Goals:        goals,
				Transactions: txns,
			}

			err = common.WithRetry(ctx, func() error {
				return writer.Write(ctx, report)
			}, service.RetryOptions{
				MaxAttempts:  sheetsConfig.RetryAttempts,
				InitialDelay: sheetsConfig.RetryDelay,
			})
			if err != nil {
				return fmt.Errorf("failed to export to Google Sheets: %w", err)
			}

			printSuccess(cmd.OutOrStdout(), "Exported %d goals and %d transactions to %q",
				len(goals), len(txns), sheetsConfig.SpreadsheetName)
			return nil
		},
	}

	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet-id", "", "Spreadsheet to write to (overrides config)")

	return cmd
}
