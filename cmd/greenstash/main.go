package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joshsymonds/greenstash/internal/about"
	"github.com/joshsymonds/greenstash/internal/common"
	"github.com/joshsymonds/greenstash/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func buildInfo() about.BuildInfo {
	return about.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "greenstash",
		Short: "🌱 Savings goals in your terminal",
		Long: `GreenStash tracks savings goals: what you are saving for, how much you
have put aside and how much is left.

Run 'greenstash tui' for the interactive goal browser, or use the
subcommands below to script deposits, imports and backups.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		if err := initConfig(cfgFile); err != nil {
			return err
		}

		// Paths on the command line are relative to the working directory,
		// not to the config directory.
		if db := rootCmd.PersistentFlags().Lookup("db"); db.Changed {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			viper.Set(config.KeyDatabasePath, config.ResolvePath(db.Value.String(), wd))
		}
		return nil
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/greenstash/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "database file (overrides database.path)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag(config.KeyDatabasePath, rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(goalsCmd())
	rootCmd.AddCommand(depositCmd())
	rootCmd.AddCommand(withdrawCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(archiveCmd())
	rootCmd.AddCommand(importOFXCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(aboutCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, common.UserMessage(err))
		os.Exit(1)
	}
}

func initConfig(cfgFile string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(dir)
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Secrets such as the Sheets client secret usually live in a .env file.
	if err := config.LoadDotEnv(dir); err != nil {
		return err
	}

	viper.SetEnvPrefix("GREENSTASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging() error {
	level := common.ParseLevel(viper.GetString(config.KeyLogLevel))
	return common.SetupLogger(level, viper.GetString(config.KeyLogFormat))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			info := buildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "greenstash %s (commit %s, built %s)\n", info.Version, info.Commit, info.BuildDate)
		},
	}
}
