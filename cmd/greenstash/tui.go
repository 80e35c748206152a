package main

import (
	"context"

	"github.com/joshsymonds/greenstash/internal/tui"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
	"github.com/spf13/cobra"
)

func tuiCmd() *cobra.Command {
	var mouse bool

	cmd := &cobra.Command{
		Use:     "tui",
		Aliases: []string{"ui"},
		Short:   "Browse and manage goals interactively",
		Long: `Open the interactive goal browser. From there you can add, edit and
delete goals, record deposits and withdrawals, filter and search the list,
and read each goal's history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			return tui.Run(ctx,
				tui.WithStorage(store),
				tui.WithTheme(themes.GetTheme(settings.Theme)),
				tui.WithCurrency(settings.Currency),
				tui.WithDateFormat(settings.DateFormat),
				tui.WithBuildInfo(buildInfo()),
				tui.WithMouse(mouse),
				tui.WithBeforeDelete(func(ctx context.Context) {
					autoCheckpoint(ctx, store, "goal-delete")
				}),
			)
		},
	}

	cmd.Flags().BoolVar(&mouse, "mouse", false, "Enable mouse support")

	return cmd
}
