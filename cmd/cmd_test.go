package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.coldcutz.net/ralph/internal/braindump"
	"go.coldcutz.net/ralph/internal/claude"
	"go.coldcutz.net/ralph/internal/config"
	"go.coldcutz.net/ralph/internal/printer"
	"go.coldcutz.net/ralph/internal/prompt"
)

const (
	pendingPRD  = `{"project":"demo","features":[{"id":"f1","title":"Login page","status":"passing"},{"id":"f2","title":"Logout button","status":"pending"}]}`
	completePRD = `{"project":"demo","features":[{"id":"f1","title":"Login page","status":"passing"},{"id":"f2","title":"Logout button","status":"passing"}]}`
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type fakeAgent struct {
	prompts []string
	onCall  func(n int)
}

func (a *fakeAgent) Invoke(p string, _ bool) claude.Outcome {
	a.prompts = append(a.prompts, p)
	if a.onCall != nil {
		a.onCall(len(a.prompts))
	}
	return claude.Outcome{Kind: claude.Exited}
}

// project switches into a fresh directory and installs a fake agent
func project(t *testing.T) (string, *fakeAgent) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	fa := &fakeAgent{}
	prev := newAgent
	newAgent = func(config.Config, string) agent { return fa }
	t.Cleanup(func() { newAgent = prev })

	return dir, fa
}

func resetFlags(cmds ...*cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	for _, c := range cmds {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	}
}

// execute runs ralph with args and returns everything it printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd, statusCmd, watchCmd)

	var buf bytes.Buffer
	restore := printer.SetOutput(&buf, &buf)
	defer restore()

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// initProject scaffolds dir and replaces PRD.json with content
func initProject(t *testing.T, dir, prdContent string) {
	t.Helper()
	_, err := execute(t, "--init", "--no-brain-dump")
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, config.PRDFile), prdContent)
}

func TestInitCreatesScaffold(t *testing.T) {
	dir, fa := project(t)

	out, err := execute(t, "--init", "--no-brain-dump")
	require.NoError(t, err)

	for _, path := range []string{
		"CLAUDE.md", "PRD.json", "progress.md", "guardrails.md",
		".claude/settings.json", ".claude/commands/ralph.md",
		".claude/commands/interview.md", config.ConfigFile,
	} {
		assert.FileExists(t, filepath.Join(dir, path))
	}
	assert.DirExists(t, filepath.Join(dir, config.NotesDir))
	assert.Contains(t, out, "create PRD.json")
	assert.Contains(t, out, "Done! Next steps:")
	assert.Empty(t, fa.prompts, "--init never starts claude")

	out, err = execute(t, "--init", "--no-brain-dump")
	require.NoError(t, err)
	assert.Contains(t, out, "skip PRD.json (already exists)")
	assert.NotContains(t, out, "create ")
}

func TestInitKeepsExistingFiles(t *testing.T) {
	dir, _ := project(t)
	writeFile(t, filepath.Join(dir, "CLAUDE.md"), "my own notes")

	_, err := execute(t, "--init", "--no-brain-dump")
	require.NoError(t, err)
	assert.Equal(t, "my own notes", readFile(t, filepath.Join(dir, "CLAUDE.md")))
}

func TestInitWithProjectName(t *testing.T) {
	dir, _ := project(t)

	out, err := execute(t, "--init", "--no-brain-dump", "shop")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "shop", config.PRDFile))
	assert.Contains(t, out, "cd shop")

	// An existing project directory is reused
	_, err = execute(t, "--init", "--no-brain-dump", "shop")
	require.NoError(t, err)
}

func TestInitProjectNameIsFile(t *testing.T) {
	dir, _ := project(t)
	writeFile(t, filepath.Join(dir, "shop"), "not a dir")

	_, err := execute(t, "--init", "--no-brain-dump", "shop")
	assert.Error(t, err)
}

type yesPrompter struct{}

func (yesPrompter) Confirm(string) (bool, error) { return true, nil }

type scriptEditor struct{ text string }

func (e scriptEditor) Edit(_ []string, path string) error {
	return os.WriteFile(path, []byte(e.text), 0644)
}

func TestInitCapturesBrainDump(t *testing.T) {
	dir, _ := project(t)

	prev := newCapturer
	newCapturer = func() *braindump.Capturer {
		c := braindump.New(yesPrompter{})
		c.Editor = scriptEditor{text: "# Brain Dump\n<!-- hint -->\nA todo app for cats\n"}
		c.Getenv = func(string) string { return "" }
		return c
	}
	t.Cleanup(func() { newCapturer = prev })

	out, err := execute(t, "--init")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved brain dump")

	matches, err := filepath.Glob(filepath.Join(dir, config.NotesDir, "brain-dump-001-*.md"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, readFile(t, matches[0]), "A todo app for cats")
}

func TestLoopRunsUntilComplete(t *testing.T) {
	dir, fa := project(t)
	initProject(t, dir, pendingPRD)
	fa.onCall = func(n int) {
		if n == 2 {
			writeFile(t, filepath.Join(dir, config.PRDFile), completePRD)
		}
	}

	out, err := execute(t, "--delay", "0")
	require.NoError(t, err)

	assert.Len(t, fa.prompts, 2)
	assert.Equal(t, readFile(t, filepath.Join(dir, config.DefaultPromptPath())), fa.prompts[0])
	assert.Contains(t, out, "All features passing! PRD complete.")
	assert.Contains(t, out, "PRD status: 1/2")

	log := readFile(t, filepath.Join(dir, config.ProgressFile))
	assert.Contains(t, log, "Starting iteration 1")
	assert.Contains(t, log, "Iteration 2 completed successfully")
	assert.NotContains(t, log, "Starting iteration 3")
}

func TestLoopStopsAtMaxIterations(t *testing.T) {
	dir, fa := project(t)
	initProject(t, dir, pendingPRD)

	out, err := execute(t, "-m", "2", "-d", "0")
	require.NoError(t, err)
	assert.Len(t, fa.prompts, 2)
	assert.Contains(t, out, "Reached max iterations (2)")
}

func TestInterviewRunsForEmptyPRD(t *testing.T) {
	dir, fa := project(t)
	_, err := execute(t, "--init", "--no-brain-dump")
	require.NoError(t, err)

	fa.onCall = func(n int) {
		if n == 1 {
			writeFile(t, filepath.Join(dir, config.PRDFile), completePRD)
		}
	}

	_, err = execute(t, "-d", "0")
	require.NoError(t, err)

	require.Len(t, fa.prompts, 1, "only the interview runs; the loop sees a complete PRD")
	assert.Equal(t, readFile(t, filepath.Join(dir, config.InterviewPromptPath())), fa.prompts[0])
}

func TestMissingScaffoldIsCreatedBeforeLoop(t *testing.T) {
	dir, fa := project(t)

	out, err := execute(t, "--no-brain-dump", "--dry-run", "-m", "1", "-d", "0")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, config.PRDFile))
	assert.Contains(t, out, "Initializing ralph project...")
	assert.Contains(t, out, "Starting ralph loop...")
	assert.NotContains(t, out, "Done! Next steps:")
	assert.Empty(t, fa.prompts)
}

func TestDryRunNeverInvokes(t *testing.T) {
	dir, fa := project(t)
	initProject(t, dir, pendingPRD)

	out, err := execute(t, "--dry-run", "-m", "3", "-d", "0")
	require.NoError(t, err)

	assert.Empty(t, fa.prompts)
	assert.Equal(t, 3, strings.Count(out, "Dry run - would execute claude"))
	assert.NotContains(t, readFile(t, filepath.Join(dir, config.ProgressFile)), "Starting iteration")
}

func TestMissingConfigFileDoesNotRebootstrap(t *testing.T) {
	dir, fa := project(t)
	initProject(t, dir, completePRD)
	require.NoError(t, os.Remove(filepath.Join(dir, config.ConfigFile)))

	out, err := execute(t, "-d", "0")
	require.NoError(t, err)
	assert.NotContains(t, out, "Initializing ralph project...")
	assert.NoFileExists(t, filepath.Join(dir, config.ConfigFile))
	assert.Empty(t, fa.prompts)
}

func TestMissingPromptIsFatal(t *testing.T) {
	dir, fa := project(t)
	initProject(t, dir, pendingPRD)

	out, err := execute(t, "--prompt", "nope.md", "-d", "0")
	require.Error(t, err)
	assert.Contains(t, out, "Error reading prompt file:")
	assert.Contains(t, out, initHint)
	assert.Contains(t, out, prompt.ErrUnreadable.Error())
	assert.Empty(t, fa.prompts)
}

func TestRemovedScaffoldFileIsRestored(t *testing.T) {
	dir, fa := project(t)
	_, err := execute(t, "--init", "--no-brain-dump")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, config.InterviewPromptPath())))

	out, err := execute(t, "--no-brain-dump", "-m", "1", "-d", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "create .claude/commands/interview.md")
	assert.Len(t, fa.prompts, 2, "interview and one loop pass")
}

func TestConfigLayering(t *testing.T) {
	dir, fa := project(t)
	initProject(t, dir, pendingPRD)
	writeFile(t, filepath.Join(dir, config.ConfigFile), "max_iterations: 1\ndelay: 0\n")

	_, err := execute(t)
	require.NoError(t, err)
	assert.Len(t, fa.prompts, 1, "config file")

	fa.prompts = nil
	t.Setenv("RALPH_MAX_ITERATIONS", "3")
	_, err = execute(t)
	require.NoError(t, err)
	assert.Len(t, fa.prompts, 3, "env overrides config file")

	fa.prompts = nil
	_, err = execute(t, "-m", "2")
	require.NoError(t, err)
	assert.Len(t, fa.prompts, 2, "flag overrides env")
}

func TestExplicitConfigMustExist(t *testing.T) {
	dir, fa := project(t)
	initProject(t, dir, pendingPRD)

	out, err := execute(t, "--config", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, out, "Invalid configuration")
	assert.Empty(t, fa.prompts)
}

func TestDebugLog(t *testing.T) {
	dir, _ := project(t)
	initProject(t, dir, completePRD)

	_, err := execute(t, "--debug")
	require.NoError(t, err)
	assert.Contains(t, readFile(t, config.DebugLogPath(dir)), "[loop] prd complete")
}

func TestStatus(t *testing.T) {
	dir, _ := project(t)
	writeFile(t, filepath.Join(dir, config.PRDFile), pendingPRD)

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "=== demo ===")
	assert.Contains(t, out, "1/2 (50%)")
	assert.Contains(t, out, "Logout button")
	assert.NotContains(t, out, "Login page")
}

func TestStatusComplete(t *testing.T) {
	dir, _ := project(t)
	writeFile(t, filepath.Join(dir, config.PRDFile), completePRD)

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "All features passing!")
}

func TestStatusMissingPRD(t *testing.T) {
	project(t)

	out, err := execute(t, "status")
	require.Error(t, err)
	assert.Contains(t, out, "Could not read PRD")
}

func TestStatusForProjectName(t *testing.T) {
	dir, _ := project(t)
	writeFile(t, filepath.Join(dir, "shop", config.PRDFile), completePRD)

	out, err := execute(t, "status", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "2/2")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("░", barWidth), progressBar(0, 4))
	assert.Equal(t, strings.Repeat("█", barWidth/2)+strings.Repeat("░", barWidth/2), progressBar(2, 4))
	assert.Equal(t, strings.Repeat("█", barWidth), progressBar(4, 4))
}

func TestWatchLoopRedrawsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.PRDFile)
	writeFile(t, path, pendingPRD)

	var buf bytes.Buffer
	t.Cleanup(printer.SetOutput(&buf, &buf))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{})
	go func() {
		changes <- struct{}{}
		_ = os.WriteFile(path, []byte(completePRD), 0644)
		changes <- struct{}{}
		cancel()
	}()

	done := make(chan error, 1)
	go func() { done <- watchLoop(ctx, path, changes) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "Updated:"))
	assert.Contains(t, out, "All features passing!")
	assert.Contains(t, out, "Watch stopped.")
}

func TestUsageErrorsArePrinted(t *testing.T) {
	project(t)

	out, err := execute(t, "one", "two")
	require.Error(t, err)
	assert.Contains(t, out, "accepts at most 1 arg(s)")

	out, err = execute(t, "--max-iterations", "lots")
	require.Error(t, err)
	assert.Contains(t, out, "Run ralph --help for usage")
}
