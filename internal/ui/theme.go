package ui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/bitacora/internal/tui/theme"
)

func (a *App) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [toggle|light|dark]",
		Short:     "Show or change the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"toggle", "light", "dark"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}
			pref := theme.NewPreference(a.store, a.config.UI.Theme)
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				fmt.Fprintln(out, pref.Load(ctx))
				return nil
			}

			switch arg := strings.ToLower(args[0]); arg {
			case "toggle":
				mode, err := pref.Toggle(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Theme set to %s\n", mode)
			default:
				mode, err := theme.ParseMode(arg)
				if err != nil {
					return fmt.Errorf("unknown theme %q (available: %s)", arg, strings.Join(theme.Available(), ", "))
				}
				if err := pref.Set(ctx, mode); err != nil {
					return err
				}
				fmt.Fprintf(out, "Theme set to %s\n", mode)
			}
			return nil
		},
	}
}
