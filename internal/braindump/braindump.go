// Package braindump captures a free-text note about a new project through the
// user's editor and stores it as docs/brain-dump-NNN-YYYY-MM-DD.md, where the
// interview prompt can pick it up.
package braindump

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.coldcutz.net/ralph/internal/log"
)

// Heading seeds the temp file and is ignored if nothing else is written
const Heading = "# Brain Dump"

const seed = Heading + `

<!-- Write anything about the project: goals, users, constraints, ideas. -->
<!-- Lines that are entirely HTML comments are removed. -->
<!-- Save and close the editor when done. Leave it empty to skip. -->

`

const dateFormat = "2006-01-02"

var noteName = regexp.MustCompile(`^brain-dump-(\d{3,})-.*\.md$`)

// Prompter asks the operator a yes/no question
type Prompter interface {
	Confirm(question string) (bool, error)
}

// Editor runs argv with path appended, attached to the terminal, and blocks
// until it exits
type Editor interface {
	Edit(argv []string, path string) error
}

// Note is a persisted brain dump
type Note struct {
	Sequence uint
	Captured time.Time
	Body     string
}

// FileName returns brain-dump-NNN-YYYY-MM-DD.md
func (n Note) FileName() string {
	return fmt.Sprintf("brain-dump-%03d-%s.md", n.Sequence, n.Captured.Format(dateFormat))
}

// Render returns the file content, with a header restating sequence and date
func (n Note) Render() string {
	return fmt.Sprintf("# Brain Dump %03d\n\n_Captured: %s_\n\n%s\n", n.Sequence, n.Captured.Format(dateFormat), n.Body)
}

// Result describes what a capture did. Path is set when a note was written;
// otherwise Skipped says why not.
type Result struct {
	Path    string
	Skipped string
}

// Capturer runs the capture flow
type Capturer struct {
	Prompter Prompter
	Editor   Editor
	Getenv   func(string) string
	LookPath func(string) (string, error)
	Now      func() time.Time
	TempDir  string
}

// New returns a Capturer that launches real editor processes
func New(p Prompter) *Capturer {
	return &Capturer{
		Prompter: p,
		Editor:   TerminalEditor{},
		Getenv:   os.Getenv,
		LookPath: exec.LookPath,
		Now:      time.Now,
	}
}

// Capture asks for consent, opens the editor and stores the result under
// root/notesDir. Editor problems and empty notes are reported through
// Result.Skipped; only failing to write the note returns an error.
func (c *Capturer) Capture(root, notesDir string) (Result, error) {
	ok, err := c.Prompter.Confirm("Would you like to write a brain dump about this project?")
	if err != nil {
		log.Debug(log.CatEditor, "consent prompt failed", "error", err)
		return Result{Skipped: "no answer"}, nil
	}
	if !ok {
		return Result{Skipped: "declined"}, nil
	}

	tmp, err := os.CreateTemp(c.TempDir, "ralph-brain-dump-*.md")
	if err != nil {
		return Result{Skipped: fmt.Sprintf("could not create temp file: %v", err)}, nil
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, werr := tmp.WriteString(seed)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		return Result{Skipped: "could not seed temp file"}, nil
	}

	argv := ResolveEditor(c.Getenv, c.LookPath)
	log.Info(log.CatEditor, "launching editor", "argv", strings.Join(argv, " "), "file", tmpPath)
	if err := c.Editor.Edit(argv, tmpPath); err != nil {
		log.Warn(log.CatEditor, "editor failed", "error", err)
		return Result{Skipped: fmt.Sprintf("editor failed: %v", err)}, nil
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return Result{Skipped: "could not read temp file"}, nil
	}

	body := Clean(string(data))
	if body == "" || body == Heading {
		return Result{Skipped: "empty"}, nil
	}

	dir := filepath.Join(root, notesDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create %s: %w", notesDir, err)
	}

	seq, err := NextSequence(dir)
	if err != nil {
		return Result{}, err
	}

	note := Note{Sequence: seq, Captured: c.Now(), Body: stripHeading(body)}
	path := filepath.Join(dir, note.FileName())
	if err := os.WriteFile(path, []byte(note.Render()), 0644); err != nil {
		return Result{}, fmt.Errorf("failed to write brain dump: %w", err)
	}

	log.Info(log.CatEditor, "brain dump saved", "path", path)
	return Result{Path: path}, nil
}

// Clean removes every line that is a complete HTML comment and trims the rest
func Clean(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isComment(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// isComment reports whether line is exactly one <!-- ... --> comment
func isComment(line string) bool {
	if !strings.HasPrefix(line, "<!--") || !strings.HasSuffix(line, "-->") {
		return false
	}
	return strings.Index(line[len("<!--"):], "-->") == len(line)-len("<!--")-len("-->")
}

// stripHeading drops the seeded heading; Render writes its own
func stripHeading(body string) string {
	if rest, ok := strings.CutPrefix(body, Heading+"\n"); ok {
		return strings.TrimSpace(rest)
	}
	return body
}

// NextSequence returns one more than the highest note number in dir, or 1
func NextSequence(dir string) (uint, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var highest uint64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := noteName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return uint(highest) + 1, nil
}
