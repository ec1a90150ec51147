package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color definitions for consistent styling across the UI.
var (
	// Days with an entry: bold green
	colorEntry = color.New(color.FgGreen, color.Bold)

	// Today: reversed so it stands out with or without an entry
	colorToday = color.New(color.FgCyan, color.Bold, color.ReverseVideo)

	// Saturday and Sunday
	colorWeekend = color.New(color.FgWhite, color.Faint)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Success messages
	colorSuccess = color.New(color.FgGreen)

	// Warnings: text kept locally, failed saves
	colorWarning = color.New(color.FgYellow)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// isTerminal reports whether stdin is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

// formatEntry formats a day that has a diary entry.
func formatEntry(s string) string {
	return colorEntry.Sprint(s)
}

// formatToday formats today's day number.
func formatToday(s string) string {
	return colorToday.Sprint(s)
}

// formatWeekend formats a weekend day or header.
func formatWeekend(s string) string {
	return colorWeekend.Sprint(s)
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatSuccess formats a success message.
func formatSuccess(s string) string {
	return colorSuccess.Sprint(s)
}

// formatWarning formats a warning.
func formatWarning(s string) string {
	return colorWarning.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
