package claude

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.coldcutz.net/ralph/internal/log"
)

const (
	DefaultBinary       = "claude"
	SkipPermissionsFlag = "--dangerously-skip-permissions"
)

// OutcomeKind classifies how an agent run ended
type OutcomeKind int

const (
	Exited OutcomeKind = iota
	Signaled
	LaunchFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Exited:
		return "exited"
	case Signaled:
		return "signaled"
	case LaunchFailed:
		return "launch failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one synchronous agent run
type Outcome struct {
	Kind OutcomeKind
	Code int
	Err  error
}

// Success reports a clean zero exit
func (o Outcome) Success() bool {
	return o.Kind == Exited && o.Code == 0
}

func (o Outcome) String() string {
	switch o.Kind {
	case Exited:
		return fmt.Sprintf("exit status %d", o.Code)
	case Signaled:
		if o.Err != nil {
			return o.Err.Error()
		}
		return "terminated by signal"
	default:
		return fmt.Sprintf("launch failed: %v", o.Err)
	}
}

// Invoker runs the claude CLI in the foreground with the terminal attached
type Invoker struct {
	Binary string
	// Dir is the agent's working directory; empty means the current one
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewInvoker returns an Invoker wired to the process's stdio
func NewInvoker(binary string) *Invoker {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Invoker{
		Binary: binary,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// BuildArgs returns the CLI arguments for a prompt: the prompt is passed
// positionally so claude starts an interactive session with it
func BuildArgs(prompt string, skipPermissions bool) []string {
	args := []string{prompt}
	if skipPermissions {
		args = append(args, SkipPermissionsFlag)
	}
	return args
}

// Invoke blocks until the agent exits. There is no timeout and no retry.
func (i *Invoker) Invoke(prompt string, skipPermissions bool) Outcome {
	cmd := exec.Command(i.Binary, BuildArgs(prompt, skipPermissions)...)
	cmd.Dir = i.Dir
	cmd.Stdin = i.Stdin
	cmd.Stdout = i.Stdout
	cmd.Stderr = i.Stderr

	log.Debug(log.CatAgent, "starting agent", "binary", i.Binary, "skip_permissions", skipPermissions, "prompt_bytes", len(prompt))
	outcome := classify(cmd.Run())
	log.Info(log.CatAgent, "agent finished", "outcome", outcome)
	return outcome
}

// classify maps the error from exec.Cmd.Run onto an Outcome
func classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: Exited, Code: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// ExitCode is -1 when the process was killed by a signal
		if code := exitErr.ExitCode(); code >= 0 {
			return Outcome{Kind: Exited, Code: code, Err: err}
		}
		return Outcome{Kind: Signaled, Code: -1, Err: err}
	}

	return Outcome{Kind: LaunchFailed, Code: -1, Err: err}
}

// CheckInstalled checks if the binary is on PATH
func CheckInstalled(binary string) error {
	if binary == "" {
		binary = DefaultBinary
	}
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%s CLI not found in PATH. Please install Claude Code first", binary)
	}
	return nil
}
