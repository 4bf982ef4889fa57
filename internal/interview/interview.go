package interview

import (
	"errors"
	"fmt"

	"go.coldcutz.net/ralph/internal/claude"
	"go.coldcutz.net/ralph/internal/log"
	"go.coldcutz.net/ralph/internal/prd"
	"go.coldcutz.net/ralph/internal/printer"
	"go.coldcutz.net/ralph/internal/prompt"
)

var (
	// ErrInstructionsMissing means the interview document could not be read
	ErrInstructionsMissing = errors.New("interview instructions missing")
	// ErrLaunchFailed means the agent process could not be started
	ErrLaunchFailed = errors.New("failed to launch interview session")
)

// Agent runs one synchronous agent session
type Agent interface {
	Invoke(prompt string, skipPermissions bool) claude.Outcome
}

// Outcome says what the gate did
type Outcome int

const (
	NotNeeded Outcome = iota
	DryRun
	Ran
)

func (o Outcome) String() string {
	switch o {
	case NotNeeded:
		return "not needed"
	case DryRun:
		return "dry run"
	default:
		return "ran"
	}
}

// Gate runs an interview session when the task list has nothing to work on
type Gate struct {
	Agent            Agent
	PRDPath          string
	InstructionsPath string
	SkipPermissions  bool
	DryRun           bool
}

// Run interviews the user if the task list is empty or unreadable.
// A non-zero exit from the agent is not an error; whether the task list got
// populated is left for the loop's first completion check.
func (g *Gate) Run() (Outcome, error) {
	if !prd.NeedsInterview(g.PRDPath) {
		return NotNeeded, nil
	}

	instructions, err := prompt.Load(g.InstructionsPath)
	if err != nil {
		return NotNeeded, fmt.Errorf("%w: %w", ErrInstructionsMissing, err)
	}

	printer.Step("%s has no features yet, starting interview", g.PRDPath)

	if g.DryRun {
		printer.Warning("Dry run - would run the interview with %s", g.InstructionsPath)
		return DryRun, nil
	}

	log.Info(log.CatAgent, "starting interview", "instructions", g.InstructionsPath)
	outcome := g.Agent.Invoke(instructions, g.SkipPermissions)
	switch {
	case outcome.Kind == claude.LaunchFailed:
		return Ran, fmt.Errorf("%w: %w", ErrLaunchFailed, outcome.Err)
	case !outcome.Success():
		printer.Warning("Interview session ended with %s, continuing", outcome)
		log.Warn(log.CatAgent, "interview exited unsuccessfully", "outcome", outcome)
	default:
		printer.Success("Interview finished")
	}

	return Ran, nil
}
