package main

import (
	"fmt"
	"strings"

	"github.com/joshsymonds/greenstash/internal/about"
	"github.com/joshsymonds/greenstash/internal/cli"
	"github.com/joshsymonds/greenstash/internal/common"
	"github.com/spf13/cobra"
)

// clipboard and openURL are swapped out in tests.
var (
	clipboard about.Clipboard = about.SystemClipboard
	openURL                   = about.OpenURL
)

func aboutCmd() *cobra.Command {
	var (
		copyReport bool
		open       string
	)

	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show version information and project links",
		Example: `  # Copy the version report for a bug report
  greenstash about --copy

  # Open the issue tracker
  greenstash about --open issues`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			report := about.NewVersionReport(buildInfo())

			if open != "" {
				link, err := about.FindLink(open)
				if err != nil {
					keys := make([]string, 0, len(about.Links))
					for _, l := range about.Links {
						keys = append(keys, l.Key)
					}
					return common.NewUserError(
						fmt.Sprintf("unknown link %q (choose from %s)", open, strings.Join(keys, ", ")), err)
				}
				if err := openURL(link.URL); err != nil {
					return fmt.Errorf("failed to open %s: %w", link.URL, err)
				}
				printSuccess(w, "Opened %s", link.Label)
				return nil
			}

			if copyReport {
				if err := about.CopyReport(clipboard, report); err != nil {
					return err
				}
				printSuccess(w, "Version report copied to the clipboard")
				return nil
			}

			printLine(w, "%s", cli.FormatTitle(cli.StashIcon+" GreenStash"))
			printLine(w, "%s", cli.SubtleStyle.Render("Save money towards the things that matter."))
			printLine(w, "")
			printLine(w, "%s", strings.TrimRight(report.String(), "\n"))
			printLine(w, "")
			for _, l := range about.Links {
				printLine(w, "%-16s %s", l.Label, cli.InfoStyle.Render(l.URL))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyReport, "copy", false, "Copy the version report to the clipboard")
	cmd.Flags().StringVar(&open, "open", "", "Open a project link (readme, privacy, issues, telegram)")
	cmd.MarkFlagsMutuallyExclusive("copy", "open")

	return cmd
}
