package braindump

import (
	"os"
	"os/exec"
	"strings"
)

// Candidate is an editor launch command probed when neither EDITOR nor VISUAL is set
type Candidate struct {
	Argv []string
	// Baseline candidates are assumed installed and are not probed
	Baseline bool
}

// Candidates is the fallback probe order
var Candidates = []Candidate{
	{Argv: []string{"nano"}},
	{Argv: []string{"vim"}},
	{Argv: []string{"vi"}, Baseline: true},
}

// ResolveEditor returns the argv used to edit a file: EDITOR, then VISUAL,
// then the first candidate found on PATH. Values like "code --wait" are split
// on whitespace.
func ResolveEditor(getenv func(string) string, lookPath func(string) (string, error)) []string {
	for _, key := range []string{"EDITOR", "VISUAL"} {
		if argv := strings.Fields(getenv(key)); len(argv) > 0 {
			return argv
		}
	}

	for _, c := range Candidates {
		if c.Baseline {
			return c.Argv
		}
		if _, err := lookPath(c.Argv[0]); err == nil {
			return c.Argv
		}
	}
	return Candidates[len(Candidates)-1].Argv
}

// TerminalEditor runs the editor with the process's stdio attached
type TerminalEditor struct{}

// Edit returns an error if the editor cannot start or exits non-zero
func (TerminalEditor) Edit(argv []string, path string) error {
	args := append(append([]string{}, argv[1:]...), path)
	cmd := exec.Command(argv[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
