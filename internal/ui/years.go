package ui

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) yearsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List the years that have diary entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, view, err := a.loadCalendar(cmd.Context(), 0, 0)
			if err != nil {
				return err
			}
			counts := ctrl.Entries().CountByYear()

			out := cmd.OutOrStdout()
			for _, y := range view.Years {
				n := counts[y]
				label := fmt.Sprintf("%d entries", n)
				if n == 1 {
					label = "1 entry"
				}
				if n == 0 {
					label = formatMuted(label)
				}
				fmt.Fprintf(out, "  %d  %s\n", y, label)
			}
			return nil
		},
	}
}
