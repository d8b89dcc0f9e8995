package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"xhsdl/pkg/i18n"
	"xhsdl/pkg/models"
)

// ANSI colour codes
const (
	cyan    = "\033[36m%s\033[0m"
	yellow  = "\033[33m%s\033[0m"
	red     = "\033[31m%s\033[0m"
	green   = "\033[32m%s\033[0m"
	magenta = "\033[35m%s\033[0m"
	dim     = "\033[2m%s\033[0m"
)

// Terminal writes human readable output. Colours are only used when the
// writer is a terminal.
type Terminal struct {
	out     io.Writer
	printer *i18n.Printer
	colour  bool
	quiet   bool
}

// New creates a Terminal writing to out. Quiet suppresses everything
// except failures and the final summary.
func New(out io.Writer, printer *i18n.Printer, quiet bool) *Terminal {
	if printer == nil {
		printer = i18n.New("")
	}
	return &Terminal{
		out:     out,
		printer: printer,
		colour:  isTerminal(out) && os.Getenv("NO_COLOR") == "",
		quiet:   quiet,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetColour overrides terminal detection
func (t *Terminal) SetColour(enabled bool) {
	t.colour = enabled
}

// colorize wraps text with an ANSI colour when colours are enabled
func (t *Terminal) colorize(code, text string) string {
	if !t.colour {
		return text
	}
	return fmt.Sprintf(code, text)
}

func (t *Terminal) Cyan(s string) string    { return t.colorize(cyan, s) }
func (t *Terminal) Yellow(s string) string  { return t.colorize(yellow, s) }
func (t *Terminal) Red(s string) string     { return t.colorize(red, s) }
func (t *Terminal) Green(s string) string   { return t.colorize(green, s) }
func (t *Terminal) Magenta(s string) string { return t.colorize(magenta, s) }
func (t *Terminal) Dim(s string) string     { return t.colorize(dim, s) }

// PrintError prints an error message in red
func (t *Terminal) PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(t.out, t.Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(t.out, t.Red(msg))
	}
}

// PrintSuccess prints a success message in green
func (t *Terminal) PrintSuccess(msg string) {
	if t.quiet {
		return
	}
	fmt.Fprintln(t.out, t.Green(msg))
}

// PrintInfo prints a label and value
func (t *Terminal) PrintInfo(label string, value string) {
	if t.quiet {
		return
	}
	fmt.Fprintf(t.out, "%s: %s\n", t.Cyan(label), t.Yellow(value))
}

// PrintWarning prints a warning message in yellow
func (t *Terminal) PrintWarning(msg string, args ...interface{}) {
	if t.quiet {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(t.out, t.Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(t.out, t.Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func (t *Terminal) PrintHighlight(msg string) {
	if t.quiet {
		return
	}
	fmt.Fprintln(t.out, t.Magenta(msg))
}

// PrintResult prints one extraction result: the headline message, then
// skipped indexes, warnings and failed assets.
func (t *Terminal) PrintResult(r *models.Result) {
	switch {
	case r.State == models.StateFailed:
		t.PrintError(r.Message)
		return
	case r.State == models.StateSkippedByRecord:
		if !t.quiet {
			fmt.Fprintln(t.out, t.Dim(r.Message))
		}
		return
	case r.Partial():
		fmt.Fprintln(t.out, t.Yellow(r.Message))
	default:
		t.PrintSuccess(r.Message)
	}

	for _, skip := range r.Skipped {
		t.PrintWarning("  " + t.printer.Sprintf(i18n.IndexSkipped, skip.Index))
	}
	for _, w := range r.Warnings {
		t.PrintWarning("  " + w)
	}
	for _, a := range r.Assets {
		if a.Outcome.Success {
			if !t.quiet {
				fmt.Fprintln(t.out, t.Dim("  "+t.printer.Sprintf(i18n.AssetSaved, a.Ordinal, a.Path)))
			}
			continue
		}
		fmt.Fprintln(t.out, t.Red("  "+t.printer.Sprintf(i18n.AssetFailed, a.Ordinal, a.Outcome.ErrorType, a.Outcome.Error)))
	}
}

// Tally counts results by how they ended
type Tally struct {
	Succeeded int
	Partial   int
	Skipped   int
	Failed    int
}

// Count sorts results into a Tally
func Count(results []*models.Result) Tally {
	var tally Tally
	for _, r := range results {
		switch {
		case r.State == models.StateFailed:
			tally.Failed++
		case r.State == models.StateSkippedByRecord:
			tally.Skipped++
		case r.Partial():
			tally.Partial++
		default:
			tally.Succeeded++
		}
	}
	return tally
}

// PrintSummary prints the closing line for a batch of results
func (t *Terminal) PrintSummary(results []*models.Result) Tally {
	tally := Count(results)
	line := t.printer.Sprintf(i18n.Summary, tally.Succeeded, tally.Partial, tally.Skipped, tally.Failed)
	if tally.Failed > 0 || tally.Partial > 0 {
		fmt.Fprintln(t.out, t.Yellow(line))
	} else {
		fmt.Fprintln(t.out, t.Green(line))
	}
	return tally
}
