package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/bitacora/internal/autosave"
	"github.com/javiermolinar/bitacora/internal/config"
	"github.com/javiermolinar/bitacora/internal/credentials"
	"github.com/javiermolinar/bitacora/internal/dateutil"
	"github.com/javiermolinar/bitacora/internal/diaryapi"
	"github.com/javiermolinar/bitacora/internal/localstore"
	"github.com/javiermolinar/bitacora/internal/logger"
	"github.com/javiermolinar/bitacora/internal/tui"
	"github.com/javiermolinar/bitacora/internal/tui/theme"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// annotationTUI marks commands that start the bubbletea program.
const annotationTUI = "tui"

// App holds the CLI application state.
type App struct {
	config     *config.Config
	configPath string
	root       *cobra.Command
	debug      bool // Enable debug logging
	now        func() time.Time

	store  *localstore.SQLite
	client *diaryapi.Client
}

// AppOption configures optional App behavior.
type AppOption func(*App)

// WithConfigPath sets the config file the app was loaded from.
func WithConfigPath(path string) AppOption {
	return func(a *App) { a.configPath = path }
}

// WithNow overrides the wall clock.
func WithNow(now func() time.Time) AppOption {
	return func(a *App) { a.now = now }
}

// NewApp creates a new CLI application with the given config.
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	a := &App{
		config:     cfg,
		configPath: config.DefaultConfigPath(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.root = &cobra.Command{
		Use:   "bitacora",
		Short: "A terminal client for your diary",
		Long: `Bitacora is a terminal client for a personal diary service.

It shows a month calendar that highlights the days you wrote about,
and an editor that autosaves as you type. Text that cannot reach the
server is kept in a local cache.`,
		SilenceUsage: true,
		Annotations:  map[string]string{annotationTUI: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initLogger(cmd)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runTUI()
		},
	}

	// Add global flags
	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (copied to stderr, except in the TUI)")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.openCmd())
	a.root.AddCommand(a.calendarCmd())
	a.root.AddCommand(a.yearsCmd())
	a.root.AddCommand(a.writeCmd())
	a.root.AddCommand(a.cacheCmd())
	a.root.AddCommand(a.themeCmd())
	a.root.AddCommand(a.loginCmd())
	a.root.AddCommand(a.logoutCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bitacora %s (commit: %s)\n", Version, Commit)
		},
	}
}

func (a *App) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "open [date]",
		Short:       "Open the editor for a day",
		Annotations: map[string]string{annotationTUI: "true"},
		Long: `Open the editor for a day. The date defaults to today and accepts
today, yesterday, tomorrow, YYYY-MM-DD or YYYYMMDD.

Example:
  bitacora open yesterday
  bitacora open 2024-02-10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			key, err := a.resolveDate(args)
			if err != nil {
				return err
			}
			return a.runTUI(tui.WithEntry(key))
		},
	}
}

func (a *App) initLogger(cmd *cobra.Command) error {
	if logger.Logger != nil {
		return nil
	}
	return logger.Init(a.logConfig(cmd))
}

// logConfig keeps TUI commands off stderr; the program draws there.
func (a *App) logConfig(cmd *cobra.Command) logger.Config {
	cfg := logger.Config{
		Debug: a.debug,
		Dir:   a.config.Log.Dir,
		Level: a.config.Log.Level,
	}
	if a.debug && cmd.Annotations[annotationTUI] == "" {
		cfg.Stderr = os.Stderr
	}
	return cfg
}

func (a *App) runTUI(opts ...tui.ModelOption) error {
	deps, err := a.tuiDeps()
	if err != nil {
		return err
	}
	return tui.RunWithDebug(deps, a.debug, opts...)
}

func (a *App) tuiDeps() (tui.Deps, error) {
	if err := a.ensureStore(); err != nil {
		return tui.Deps{}, err
	}
	if err := a.ensureClient(); err != nil {
		return tui.Deps{}, err
	}
	return tui.Deps{
		Client: a.client,
		Cache:  localstore.NewFallbackCache(a.store),
		Theme:  theme.NewPreference(a.store, a.config.UI.Theme),
		Config: a.config,
		Now:    a.now,
		Clock:  autosave.RealClock(),
	}, nil
}

// ensureStore opens the local store, writing the default config on first run.
func (a *App) ensureStore() error {
	if a.store != nil {
		return nil
	}
	state, err := tui.DetectInitState(a.config, a.configPath)
	if err != nil {
		return err
	}
	store, err := tui.Initialize(a.config, state)
	if err != nil {
		return err
	}
	if state.ConfigMissing {
		logger.Info("wrote default config", "path", state.ConfigPath)
	}
	a.store = store
	return nil
}

// ensureClient builds the diary service client with the stored password.
func (a *App) ensureClient() error {
	if a.client != nil {
		return nil
	}
	baseURL := a.config.Server.BaseURL
	client, err := diaryapi.New(baseURL,
		diaryapi.WithTimeout(a.config.RequestTimeout()),
		diaryapi.WithPassword(credentials.LookupPassword(baseURL)),
		diaryapi.WithLogger(logger.Named("diaryapi")),
	)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	a.client = client
	return nil
}

func (a *App) resolveDate(args []string) (dateutil.Key, error) {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	key, err := dateutil.ResolveDate(arg, a.now())
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", arg, err)
	}
	return key, nil
}

// SetArgs overrides the command line, for tests.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Close releases the local store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	if err != nil {
		return fmt.Errorf("closing local store: %w", err)
	}
	return nil
}
