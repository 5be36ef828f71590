// Package output renders harness progress and results to a terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/latencylab/stride/internal/harness"
)

// ColorScheme defines the colors used for the console output.
type ColorScheme struct {
	Title     *color.Color
	Rule      *color.Color
	Label     *color.Color
	Value     *color.Color
	Dim       *color.Color
	Warning   *color.Color
	ErrorText *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:     color.New(color.Bold),
		Rule:      color.New(color.FgCyan),
		Label:     color.New(color.FgYellow),
		Value:     color.New(color.FgCyan),
		Dim:       color.New(color.Faint),
		Warning:   color.New(color.FgYellow, color.Bold),
		ErrorText: color.New(color.FgRed, color.Bold),
	}
}

// NoColorScheme returns a scheme with all colors disabled.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	scheme.Title.DisableColor()
	scheme.Rule.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.Dim.DisableColor()
	scheme.Warning.DisableColor()
	scheme.ErrorText.DisableColor()
	return scheme
}

// Console writes harness progress and the final summary.
type Console struct {
	w      io.Writer
	scheme *ColorScheme
	quiet  bool
}

// NewConsole creates a console writing to w. Colors are enabled only
// when w is a terminal and NO_COLOR is unset. A nil w means stdout.
func NewConsole(w io.Writer, quiet bool) *Console {
	if w == nil {
		w = os.Stdout
	}
	scheme := NoColorScheme()
	if f, ok := w.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			scheme = DefaultColorScheme()
		}
	}
	return &Console{w: w, scheme: scheme, quiet: quiet}
}

const ruleWidth = 56

// Header prints the test header and derived run parameters.
func (c *Console) Header(name, operation string, threads int, interval time.Duration, clockCost int64) {
	if c.quiet {
		return
	}
	rule := strings.Repeat("━", ruleWidth)
	fmt.Fprintln(c.w, c.scheme.Rule.Sprint(rule))
	fmt.Fprintln(c.w, c.scheme.Title.Sprintf("%s [%s]", name, operation))
	fmt.Fprintln(c.w, c.scheme.Rule.Sprint(rule))
	fmt.Fprintf(c.w, "Workers:   %s\n", c.scheme.Value.Sprintf("%d", threads))
	fmt.Fprintf(c.w, "Interval:  %s\n", c.scheme.Value.Sprint(interval))
	fmt.Fprintf(c.w, "Clock cost: %s\n", c.scheme.Value.Sprintf("%dns", clockCost))
	fmt.Fprintln(c.w)
}

// Progress prints a one-line status after each iteration.
func (c *Console) Progress(phase string, iteration, total int, elapsed time.Duration) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.w, "[%s %d/%d] completed in %s\n",
		phase, iteration, total, c.scheme.Dim.Sprint(formatDuration(elapsed)))
}

// Summary prints the key percentiles and run totals. Scale divides
// every latency value; a scale of 1000 reports nanosecond samples in
// microseconds.
func (c *Console) Summary(report *harness.Report, scale float64) {
	if c.quiet {
		return
	}
	if scale <= 0 {
		scale = 1
	}

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.scheme.Title.Sprint("Latency Distribution:"))
	for _, p := range []float64{50, 90, 99, 99.9, 100} {
		v := float64(report.Histogram.Percentile(p)) / scale
		fmt.Fprintf(c.w, "  %s %s\n",
			c.scheme.Label.Sprintf("p%-5v", p),
			c.scheme.Value.Sprintf("%10.2f", v))
	}

	fmt.Fprintln(c.w)
	fmt.Fprintf(c.w, "Samples:    %s\n", c.scheme.Value.Sprint(humanize.Comma(report.Histogram.TotalCount())))
	fmt.Fprintf(c.w, "Iterations: %s x %s workers\n",
		c.scheme.Value.Sprintf("%d", report.Iterations),
		c.scheme.Value.Sprintf("%d", report.Workers))
	fmt.Fprintf(c.w, "Duration:   %s\n", c.scheme.Value.Sprint(formatDuration(report.Elapsed)))

	if n := report.Histogram.Overflows(); n > 0 {
		fmt.Fprintln(c.w, c.scheme.Warning.Sprintf("⚠ %s sample(s) exceeded the trackable range and were clamped", humanize.Comma(n)))
	}
	if report.Incomplete > 0 {
		fmt.Fprintln(c.w, c.scheme.Warning.Sprintf("⚠ %d worker run(s) did not complete and were excluded", report.Incomplete))
	}
}

// Errorf prints an error line.
func (c *Console) Errorf(format string, args ...interface{}) {
	fmt.Fprintln(c.w, c.scheme.ErrorText.Sprintf(format, args...))
}

// formatDuration formats a duration in a human-readable form.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %02dm %02ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	}
}
