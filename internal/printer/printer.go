package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// Colors stay on when piped; NO_COLOR turns them off
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	green     = color.New(color.FgGreen)
	greenBold = color.New(color.FgGreen, color.Bold)
	yellow    = color.New(color.FgYellow)
	red       = color.New(color.FgRed, color.Bold)
	cyan      = color.New(color.FgCyan)
	cyanBold  = color.New(color.FgCyan, color.Bold)
	dim       = color.New(color.Faint)
)

// SetOutput redirects stdout and stderr output, returning a restore func.
// Used by tests to capture what the loop prints.
func SetOutput(stdout, stderr io.Writer) func() {
	prevOut, prevErr := out, errOut
	out, errOut = stdout, stderr
	return func() {
		out, errOut = prevOut, prevErr
	}
}

// Header prints a bold cyan line
func Header(format string, a ...any) {
	cyanBold.Fprintf(out, format+"\n", a...)
}

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Fprintf(out, "✓ %s\n", msg)
	} else {
		green.Fprintln(out, msg)
	}
}

// Done prints a bold green line without a prefix
func Done(format string, a ...any) {
	greenBold.Fprintf(out, format+"\n", a...)
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(out, format+"\n", a...)
}

// Dim prints a faint line, used for timestamps and echoed prompts
func Dim(format string, a ...any) {
	dim.Fprintf(out, format+"\n", a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Fprintf(out, "⚠️  %s\n", msg)
	} else {
		yellow.Fprintln(out, msg)
	}
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Created and Skipped report per-file bootstrap results
func Created(path string) {
	fmt.Fprintf(out, "  %s %s\n", green.Sprint("create"), path)
}

func Skipped(path string) {
	fmt.Fprintf(out, "  %s %s (already exists)\n", yellow.Sprint("skip"), path)
}

// ClearScreen moves the cursor home and clears the terminal
func ClearScreen() {
	fmt.Fprint(out, "\033[H\033[2J")
}

// Iteration prints the per-pass header: "[15:04:05] Iteration 3"
func Iteration(timestamp string, n int) {
	fmt.Fprintf(out, "\n%s %s %s\n", dim.Sprintf("[%s]", timestamp), cyan.Sprint("Iteration"), cyanBold.Sprint(n))
}

// Progress prints "  PRD status: 2/5"
func Progress(passing, total int) {
	fmt.Fprintf(out, "  %s %s/%d\n", dim.Sprint("PRD status:"), green.Sprint(passing), total)
}

// Error prints a formatted error with a title, explanation and suggestions
// to stderr and returns a plain error for Cobra
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(errOut, "%s\n", title)

	if explanation != "" {
		fmt.Fprintf(errOut, "\n%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(errOut, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(errOut, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(errOut, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(errOut, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return fmt.Errorf("%s", title)
}
