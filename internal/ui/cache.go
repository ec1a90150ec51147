package ui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/bitacora/internal/localstore"
)

const previewWidth = 50

func (a *App) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local copy of entries",
	}
	cmd.AddCommand(a.cacheListCmd())
	cmd.AddCommand(a.cacheShowCmd())
	return cmd
}

func (a *App) cacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureStore(); err != nil {
				return err
			}
			entries, err := localstore.NewFallbackCache(a.store).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing cache: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No cached entries.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "  %s  %s  %s\n",
					formatHeader(e.Key.String()),
					formatMuted(e.UpdatedAt.Local().Format("2006-01-02 15:04")),
					preview(e.Content, previewWidth))
			}
			return nil
		},
	}
}

func (a *App) cacheShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <date>",
		Short: "Print the cached text of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.resolveDate(args)
			if err != nil {
				return err
			}
			if err := a.ensureStore(); err != nil {
				return err
			}
			content, ok, err := localstore.NewFallbackCache(a.store).Get(cmd.Context(), key)
			if err != nil {
				return fmt.Errorf("reading cache: %w", err)
			}
			if !ok {
				return fmt.Errorf("no cached text for %s", key)
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			if !strings.HasSuffix(content, "\n") {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

// preview returns the first line of s cut to width runes.
func preview(s string, width int) string {
	line, _, more := strings.Cut(strings.TrimSpace(s), "\n")
	r := []rune(line)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	if more {
		return line + " …"
	}
	return line
}
