package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/javiermolinar/bitacora/internal/calendar"
	"github.com/javiermolinar/bitacora/internal/logger"
)

// Output formats for machine-readable commands.
const (
	outputText = "text"
	outputYAML = "yaml"
	outputJSON = "json"
)

func (a *App) calendarCmd() *cobra.Command {
	var year int
	var month int
	var output string
	var noColor bool

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a month with the days that have entries",
		Long: `Print a month grid, Monday first, marking the days that have a
diary entry and today.

Example:
  bitacora calendar
  bitacora calendar --year 2024 --month 2
  bitacora calendar --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}
			if month < 0 || month > 12 {
				return fmt.Errorf("month must be between 1 and 12, got %d", month)
			}

			_, view, err := a.loadCalendar(cmd.Context(), year, time.Month(month))
			if err != nil {
				return err
			}
			return writeCalendar(cmd.OutOrStdout(), view, output, cellWidthFor(termWidth()))
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year to show (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "Month to show, 1-12 (default: current)")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, yaml or json")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

// loadCalendar fetches entry dates and shows the requested month. Zero
// values keep the current year or month.
func (a *App) loadCalendar(ctx context.Context, year int, month time.Month) (*calendar.Controller, calendar.View, error) {
	if err := a.ensureClient(); err != nil {
		return nil, calendar.View{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout())
	defer cancel()

	ctrl := calendar.NewController(a.client, logger.Named("calendar"), a.now)
	view := ctrl.Init(ctx)

	target := view.Month
	if year != 0 {
		target.Year = year
	}
	if month != 0 {
		target.Month = month
	}
	return ctrl, ctrl.SetMonth(target), nil
}

func writeCalendar(w io.Writer, view calendar.View, output string, cellW int) error {
	switch strings.ToLower(output) {
	case outputText, "":
		renderMonthText(w, view, cellW)
		return nil
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(buildMonthReport(view))
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(buildMonthReport(view)); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, yaml or json)", output)
	}
}

// cellWidthFor picks a day column width that fits the terminal.
func cellWidthFor(termW int) int {
	w := termW / 7
	if w < 4 {
		return 4
	}
	if w > 6 {
		return 6
	}
	return w
}

// renderMonthText prints the grid. A trailing '*' marks a day with an entry.
func renderMonthText(w io.Writer, view calendar.View, cellW int) {
	entries := "entries"
	if view.EntryCount == 1 {
		entries = "entry"
	}
	fmt.Fprintf(w, "\n  %s  %s\n", formatHeader(view.Title), formatMuted(fmt.Sprintf("(%d %s in total)", view.EntryCount, entries)))
	fmt.Fprintln(w, strings.Repeat("─", cellW*7+2))

	var header strings.Builder
	header.WriteString("  ")
	for i, name := range calendar.Weekdays {
		cell := fmt.Sprintf("%*s", cellW, name)
		if i >= 5 {
			cell = formatWeekend(cell)
		}
		header.WriteString(cell)
	}
	fmt.Fprintln(w, header.String())

	for _, week := range view.Weeks {
		var line strings.Builder
		line.WriteString("  ")
		for i, cell := range week {
			line.WriteString(formatDayCell(cell, i >= 5, cellW))
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}

	fmt.Fprintln(w, strings.Repeat("─", cellW*7+2))
	fmt.Fprintf(w, "  %s entry  %s today\n", formatEntry("*"), formatToday("  "))
}

func formatDayCell(cell calendar.Cell, weekend bool, cellW int) string {
	if cell.Empty() {
		return strings.Repeat(" ", cellW)
	}
	num := fmt.Sprintf("%*d", cellW-1, cell.Day)
	marker := " "
	if cell.HasEntry {
		marker = "*"
	}
	switch {
	case cell.IsToday:
		return formatToday(num) + marker
	case cell.HasEntry:
		return formatEntry(num + marker)
	case weekend:
		return formatWeekend(num) + marker
	default:
		return num + marker
	}
}

type monthReport struct {
	Year    int           `json:"year" yaml:"year"`
	Month   int           `json:"month" yaml:"month"`
	Title   string        `json:"title" yaml:"title"`
	Today   string        `json:"today" yaml:"today"`
	Entries []string      `json:"entries" yaml:"entries"`
	Weeks   [][]dayReport `json:"weeks" yaml:"weeks"`
}

type dayReport struct {
	Date     string `json:"date,omitempty" yaml:"date,omitempty"`
	Day      int    `json:"day,omitempty" yaml:"day,omitempty"`
	HasEntry bool   `json:"has_entry,omitempty" yaml:"has_entry,omitempty"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
}

func buildMonthReport(view calendar.View) monthReport {
	r := monthReport{
		Year:    view.Month.Year,
		Month:   int(view.Month.Month),
		Title:   view.Title,
		Today:   view.Today.String(),
		Entries: []string{},
		Weeks:   make([][]dayReport, 0, len(view.Weeks)),
	}
	for _, week := range view.Weeks {
		days := make([]dayReport, 0, len(week))
		for _, cell := range week {
			if cell.Empty() {
				days = append(days, dayReport{})
				continue
			}
			if cell.HasEntry {
				r.Entries = append(r.Entries, cell.Key.String())
			}
			days = append(days, dayReport{
				Date:     cell.Key.String(),
				Day:      cell.Day,
				HasEntry: cell.HasEntry,
				Label:    string(cell.Label),
			})
		}
		r.Weeks = append(r.Weeks, days)
	}
	return r
}
