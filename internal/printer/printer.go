package printer

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	// Stdout and Stderr receive all printer output; tests swap them for buffers
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr

	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(Stdout, msg)
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(Stdout, format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(Stdout, msg)
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(Stdout, "→ %s", fmt.Sprintf(format, a...))
}

// Error creates a formatted error message with title, explanation, and suggestions
// Prints the formatted error to stderr with colors and returns a simple error for Cobra
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext creates a formatted error with context details.
// Context keys are printed in sorted order.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(Stderr, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(Stderr, "%s\n", explanation)
	}

	if len(context) > 0 {
		fmt.Fprintf(Stderr, "\n")
		keys := make([]string, 0, len(context))
		for key := range context {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			fmt.Fprintf(Stderr, "  %s: %s\n", key, context[key])
		}
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

// Table prints rows aligned under a bold header
func Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(Stdout, 0, 4, 2, ' ', 0)
	bold.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

// Summary is the outcome of a solve, as shown to the user
type Summary struct {
	RunID      string
	Designs    int
	Trials     int
	Suppressed int
	Solved     int
	Unsolved   map[string]int // by reason
	Conflicts  int
	Files      []string
}

// PrintSummary prints a solve summary. Unsolved tags and conflicts are
// highlighted; they are expected in small corpora but worth a look.
func PrintSummary(s Summary) {
	bold.Fprintf(Stdout, "Run %s\n", s.RunID)
	fmt.Fprintf(Stdout, "  designs:     %d\n", s.Designs)
	fmt.Fprintf(Stdout, "  trials:      %d\n", s.Trials)
	fmt.Fprintf(Stdout, "  suppressed:  %d pips\n", s.Suppressed)
	green.Fprintf(Stdout, "  solved:      %d tags\n", s.Solved)

	reasons := make([]string, 0, len(s.Unsolved))
	total := 0
	for reason, n := range s.Unsolved {
		reasons = append(reasons, reason)
		total += n
	}
	slices.Sort(reasons)
	if total > 0 {
		yellow.Fprintf(Stdout, "  unsolved:    %d tags\n", total)
		for _, reason := range reasons {
			fmt.Fprintf(Stdout, "    %-22s %d\n", reason, s.Unsolved[reason])
		}
	} else {
		fmt.Fprintf(Stdout, "  unsolved:    0 tags\n")
	}

	if s.Conflicts > 0 {
		red.Fprintf(Stdout, "  conflicts:   %d\n", s.Conflicts)
	} else {
		fmt.Fprintf(Stdout, "  conflicts:   0\n")
	}

	for _, f := range s.Files {
		Success("Wrote %s\n", f)
	}
}

// Println prints a plain message (for output that doesn't need coloring)
func Println(a ...any) {
	fmt.Fprintln(Stdout, a...)
}

// Printf prints a plain formatted message (for output that doesn't need coloring)
func Printf(format string, a ...any) {
	fmt.Fprintf(Stdout, format, a...)
}
