package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/bitacora/internal/credentials"
	"github.com/javiermolinar/bitacora/internal/diaryapi"
)

func (a *App) loginCmd() *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the diary service and remember the password",
		Long: `Sign in to the diary service. The password is checked against the
server and then stored in the OS keyring, keyed by the server URL.

Example:
  bitacora login
  pass show diary | bitacora login --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var password string
			var err error
			if passwordStdin || !isTerminal() {
				password, err = readPassword(cmd)
			} else {
				password, err = promptPassword(a.config.Server.BaseURL)
			}
			if err != nil {
				return err
			}
			return a.login(cmd.Context(), password, cmd)
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := credentials.DeletePassword(a.config.Server.BaseURL)
			switch {
			case errors.Is(err, credentials.ErrNotFound):
				fmt.Fprintln(cmd.OutOrStdout(), "No password stored.")
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatSuccess("Password removed."))
			return nil
		},
	}
}

func (a *App) login(ctx context.Context, password string, cmd *cobra.Command) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if err := a.ensureClient(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout())
	defer cancel()

	if err := a.client.Login(ctx, password); err != nil {
		if errors.Is(err, diaryapi.ErrUnauthorized) {
			return errors.New("wrong password")
		}
		return fmt.Errorf("signing in: %w", err)
	}
	if err := credentials.SetPassword(a.config.Server.BaseURL, password); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatSuccess("Signed in to "+a.config.Server.BaseURL))
	return nil
}

func promptPassword(baseURL string) (string, error) {
	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				Description(baseURL).
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password cannot be empty")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
