package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/bitacora/internal/autosave"
	"github.com/javiermolinar/bitacora/internal/dateutil"
	"github.com/javiermolinar/bitacora/internal/localstore"
	"github.com/javiermolinar/bitacora/internal/logger"
)

// ErrSaveFailed is returned when every save attempt failed.
var ErrSaveFailed = errors.New("save failed")

func (a *App) writeCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "write <date>",
		Short: "Save an entry from stdin or a file",
		Long: `Save the text of an entry, replacing what the server has.

The text is read from --file, or from stdin. Failed saves are retried
with growing delays. If every attempt fails, the text is kept in the
local cache and the command exits with an error.

Example:
  echo "Went hiking" | bitacora write today
  bitacora write 2024-02-10 --file notes.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.resolveDate(args)
			if err != nil {
				return err
			}

			var src io.Reader = cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("opening %s: %w", file, err)
				}
				defer func() { _ = f.Close() }()
				src = f
			}
			data, err := io.ReadAll(src)
			if err != nil {
				return fmt.Errorf("reading entry text: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			result, err := a.writeEntry(ctx, key, string(data), autosave.RealClock())
			out := cmd.OutOrStdout()
			switch {
			case err != nil:
				fmt.Fprintln(out, formatWarning(fmt.Sprintf("%s kept in local cache", key)))
				return err
			case result == autosave.ResultSkipped:
				fmt.Fprintf(out, "%s unchanged\n", key)
			default:
				fmt.Fprintln(out, formatSuccess(fmt.Sprintf("Saved %s", key)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the entry from a file instead of stdin")

	return cmd
}

// writeEntry saves content for key through an autosave session and waits
// for the save to succeed or for the last retry to fail.
func (a *App) writeEntry(ctx context.Context, key dateutil.Key, content string, clock autosave.Clock) (autosave.Result, error) {
	if err := a.ensureStore(); err != nil {
		return autosave.ResultFailed, err
	}
	if err := a.ensureClient(); err != nil {
		return autosave.ResultFailed, err
	}

	ctrl := autosave.New(autosave.Config{
		Key:           key,
		Delay:         a.config.AutosaveDelay(),
		MaxRetries:    a.config.Editor.MaxRetries,
		StatusVisible: a.config.StatusVisible(),
	}, a.client, localstore.NewFallbackCache(a.store), clock, logger.Named("autosave"))
	defer func() {
		if err := ctrl.OnUnload(context.WithoutCancel(ctx)); err != nil {
			logger.Error("caching entry", "key", key, "err", err)
		}
	}()

	loadCtx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout())
	current, err := a.client.Entry(loadCtx, key)
	cancel()
	if err != nil {
		logger.Warn("loading entry before write", "key", key, "err", err)
		current = ""
	}
	// Edits before Attach do not arm the debounce.
	ctrl.OnInit(ctx, current)
	ctrl.OnTextChanged(content)
	ctrl.Attach()

	saveCtx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout())
	result := ctrl.Save(saveCtx)
	cancel()
	switch result {
	case autosave.ResultSkipped, autosave.ResultSaved:
		return result, nil
	}

	for {
		select {
		case <-ctx.Done():
			return autosave.ResultFailed, ctx.Err()
		case s := <-ctrl.Statuses():
			switch {
			case s.Kind == autosave.StatusSaved:
				return autosave.ResultSaved, nil
			case s.Kind == autosave.StatusFailed && s.Final:
				return autosave.ResultFailed, fmt.Errorf("saving %s: %w: %v", key, ErrSaveFailed, s.Err)
			}
		}
	}
}
