package selftest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Result is the outcome of one suite.
type Result struct {
	Err      error
	Suite    string
	Title    string
	Duration time.Duration
	Ticks    int64
}

// Passed reports whether the suite passed.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Report collects suite results, in the order the suites were selected.
type Report struct {
	Results []Result
}

// Failed returns the number of failed suites.
func (r *Report) Failed() int {
	n := 0

	for _, res := range r.Results {
		if !res.Passed() {
			n++
		}
	}

	return n
}

// Render writes a summary of the report to w using the given color profile.
// Use [termenv.Ascii] for plain output.
func (r *Report) Render(w io.Writer, profile termenv.Profile) error {
	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(profile)

	var (
		pass  = renderer.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
		fail  = renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
		title = renderer.NewStyle().Width(r.titleWidth() + 2)
		faint = renderer.NewStyle().Faint(true)
	)

	var b strings.Builder

	for _, res := range r.Results {
		status := pass.Render("PASS")
		if !res.Passed() {
			status = fail.Render("FAIL")
		}

		fmt.Fprintf(&b, "%s %s%s\n", status, title.Render(res.Title),
			faint.Render(fmt.Sprintf("%s, %d ticks", res.Duration.Round(time.Millisecond), res.Ticks)))

		if res.Err != nil {
			fmt.Fprintf(&b, "     %s\n", res.Err)
		}
	}

	summary := fmt.Sprintf("%d passed, %d failed", len(r.Results)-r.Failed(), r.Failed())
	if r.Failed() > 0 {
		b.WriteString(fail.Render(summary))
	} else {
		b.WriteString(pass.Render(summary))
	}

	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func (r *Report) titleWidth() int {
	width := 0
	for _, res := range r.Results {
		width = max(width, lipgloss.Width(res.Title))
	}

	return width
}
