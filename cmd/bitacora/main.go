package main

import (
	"fmt"
	"os"

	"github.com/javiermolinar/bitacora/internal/config"
	"github.com/javiermolinar/bitacora/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	configPath := config.DefaultConfigPath()
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	app := ui.NewApp(cfg, ui.WithConfigPath(configPath))
	defer func() { _ = app.Close() }()
	return app.Execute()
}
