// Package cli renders pollen reports for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pollenpal/pollenpal/internal/pollen"
)

// Options selects the sections printed after the current conditions.
type Options struct {
	Forecast bool
	Detailed bool
	Advice   bool
}

// Renderer writes reports to w. Write errors are sticky: after the first one
// nothing more is written and Err returns it.
type Renderer struct {
	w   io.Writer
	err error
}

// NewRenderer creates a Renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Err returns the first write error, if any.
func (r *Renderer) Err() error {
	return r.err
}

func (r *Renderer) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *Renderer) rule(char string, width int) {
	r.printf("%s\n", strings.Repeat(char, width))
}

// Report prints the current conditions followed by the sections in opts.
func (r *Renderer) Report(report *pollen.PollenReport, opts Options) error {
	r.Current(report)
	if opts.Forecast {
		r.Forecast(report)
	}
	if opts.Detailed {
		r.Detailed(report)
	}
	if opts.Advice {
		r.Advice(pollen.Advise(report.CurrentDay))
	}
	return r.err
}

// JSON prints the report as indented JSON.
func (r *Renderer) JSON(report *pollen.PollenReport) error {
	if r.err != nil {
		return r.err
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	r.err = enc.Encode(report)
	return r.err
}

// Current prints today's category levels.
func (r *Renderer) Current(report *pollen.PollenReport) {
	r.printf("\nPOLLEN REPORT FOR %s\n", strings.ToUpper(report.Location.Name))
	r.rule("=", 60)

	day := report.CurrentDay
	r.printf("%s %s\n\n", day.DayName, day.DayNumber)

	for _, category := range pollen.AllCategories() {
		level, ok := day.Category(category)
		if !ok {
			r.printf("%-10s %-12s\n", category, "n/a")
			continue
		}
		r.printf("%-10s %-12s %d\n", category, level.Level, level.Count)
	}

	for _, warning := range report.Warnings {
		r.printf("warning: %s\n", warning)
	}
}

// Forecast prints one row per forecast day.
func (r *Renderer) Forecast(report *pollen.PollenReport) {
	r.printf("\n%d-DAY POLLEN FORECAST\n", len(report.Forecast))
	r.rule("=", 50)
	r.printf("%-8s %-12s %-12s %-12s\n", "Day", pollen.CategoryGrass, pollen.CategoryTrees, pollen.CategoryWeeds)
	r.rule("-", 50)

	for _, day := range report.Forecast {
		cells := make([]any, 0, 4)
		cells = append(cells, day.DayName)
		for _, category := range pollen.AllCategories() {
			cells = append(cells, levelLabel(day, category))
		}
		r.printf("%-8s %-12s %-12s %-12s\n", cells...)
	}
}

// Detailed prints today's species, skipping zero counts.
func (r *Renderer) Detailed(report *pollen.PollenReport) {
	r.printf("\nDETAILED POLLEN ANALYSIS\n")
	r.rule("=", 60)

	for _, category := range pollen.AllCategories() {
		title := strings.ToUpper(string(category)) + " POLLEN"
		r.printf("\n%s\n", title)
		r.rule("-", len(title))

		shown := 0
		for _, species := range report.DetailedBreakdown[category] {
			if species.Count <= 0 {
				continue
			}
			r.printf("  %-12s %6d PPM  %s\n", species.Name, species.Count, species.Severity)
			shown++
		}
		if shown == 0 {
			r.printf("  none reported\n")
		}
	}
}

// Advice prints health advice.
func (r *Renderer) Advice(advice pollen.HealthAdvice) {
	r.printf("\nHEALTH ADVICE (alert level: %s)\n", advice.AlertLevel)
	r.rule("=", 40)
	for _, line := range advice.Advice {
		r.printf("  - %s\n", line)
	}
}

func levelLabel(day pollen.DayForecast, category pollen.Category) string {
	level, ok := day.Category(category)
	if !ok {
		return "n/a"
	}
	return string(level.Level)
}
