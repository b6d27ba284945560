package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/toutaio/toutago-tinst/config"
	"github.com/toutaio/toutago-tinst/engine"
)

const (
	markPass = "✔"
	markFail = "✘"
)

var styles = struct {
	title lipgloss.Style
	pass  lipgloss.Style
	fail  lipgloss.Style
	muted lipgloss.Style
}{
	title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	pass:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	muted: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

// renderReport writes the event tree (unless output is summary-only) and the
// summary line of one plan.
func renderReport(w io.Writer, name string, events []engine.Event, summary engine.Summary, output string) {
	fmt.Fprintln(w, styles.title.Render(name))

	if output != config.OutputSummary {
		for _, ev := range events {
			if line, ok := treeLine(ev); ok {
				fmt.Fprintln(w, line)
			}
		}
	}

	status := styles.pass.Render("PASSED")
	if summary.Failed() {
		status = styles.fail.Render("FAILED")
	}
	fmt.Fprintf(w, "%s  tests: %d started, %d succeeded, %d failed; containers failed: %d %s\n",
		status,
		summary.TestsStarted,
		summary.TestsSucceeded,
		summary.TestsFailed,
		summary.ContainersFailed,
		styles.muted.Render(fmt.Sprintf("(%s, run %s)", summary.Duration.Round(time.Microsecond), summary.RunID)),
	)
}

// treeLine renders container headings, test results and container failures.
// Indentation follows the depth of the unique id.
func treeLine(ev engine.Event) (string, bool) {
	depth := len(ev.ID.Segments()) - 2
	if depth < 0 {
		return "", false
	}
	indent := strings.Repeat("  ", depth)

	switch {
	case ev.Kind == engine.KindContainer && ev.Type == engine.EventStarted:
		return indent + ev.Name, true
	case ev.Kind == engine.KindContainer && ev.Result.Status == engine.StatusFailed:
		return fmt.Sprintf("%s  %s %s", indent, styles.fail.Render(markFail), errorText(ev.Result.Err)), true
	case ev.Kind == engine.KindTest && ev.Result.Status == engine.StatusSuccessful:
		return fmt.Sprintf("%s%s %s", indent, styles.pass.Render(markPass), ev.Name), true
	case ev.Kind == engine.KindTest && ev.Result.Status == engine.StatusFailed:
		return fmt.Sprintf("%s%s %s: %s", indent, styles.fail.Render(markFail), ev.Name, errorText(ev.Result.Err)), true
	}
	return "", false
}

func errorText(err error) string {
	if err == nil {
		return "failed"
	}
	return err.Error()
}
