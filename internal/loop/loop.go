// Package loop drives the agent until the task list is complete or the
// iteration cap is reached.
//
// Each pass runs CheckLimit, CheckCompletion, RunIteration and Sleeping in
// that order, so the agent is never invoked against a task list that was
// already complete at the start of the pass.
package loop

import (
	"fmt"
	"time"

	"go.coldcutz.net/ralph/internal/claude"
	"go.coldcutz.net/ralph/internal/log"
	"go.coldcutz.net/ralph/internal/prd"
	"go.coldcutz.net/ralph/internal/printer"
	"go.coldcutz.net/ralph/internal/prompt"
)

// Agent runs one synchronous agent session
type Agent interface {
	Invoke(prompt string, skipPermissions bool) claude.Outcome
}

// Journal records iteration outcomes
type Journal interface {
	Append(message string)
}

// Reason is why the loop stopped
type Reason int

const (
	ReasonMaxIterations Reason = iota
	ReasonComplete
)

func (r Reason) String() string {
	if r == ReasonComplete {
		return "prd complete"
	}
	return "max iterations reached"
}

// Result summarizes a finished loop
type Result struct {
	Reason Reason
	// Passes is the number of iterations that ran past the completion check
	Passes int
	// Invocations counts agent sessions; always zero in dry-run mode
	Invocations int
}

// Options configure a Controller
type Options struct {
	PromptPath      string
	PRDPath         string
	MaxIterations   uint
	Delay           time.Duration
	DryRun          bool
	SkipPermissions bool
}

// Controller owns the iteration counter and runs the loop
type Controller struct {
	Options
	Agent    Agent
	Progress Journal
	Sleep    func(time.Duration)
	Now      func() time.Time
}

// New returns a Controller that sleeps and timestamps with the wall clock
func New(opts Options, agent Agent, progress Journal) *Controller {
	return &Controller{
		Options:  opts,
		Agent:    agent,
		Progress: progress,
		Sleep:    time.Sleep,
		Now:      time.Now,
	}
}

// Run loops until a terminal state. The only error is an unreadable prompt
// file, which wraps prompt.ErrUnreadable and should end the process.
func (c *Controller) Run() (Result, error) {
	printer.Header("Starting ralph loop...")

	var res Result
	limit := c.MaxIterations

	for n := 1; ; n++ {
		if limit > 0 && uint(n) > limit {
			printer.Warning("Reached max iterations (%d)", limit)
			log.Info(log.CatLoop, "max iterations reached", "limit", limit)
			res.Reason = ReasonMaxIterations
			break
		}

		if c.checkComplete() {
			printer.Done("All features passing! PRD complete.")
			log.Info(log.CatLoop, "prd complete", "iteration", n)
			res.Reason = ReasonComplete
			break
		}

		printer.Iteration(c.now().Format("15:04:05"), n)
		res.Passes++

		text, err := prompt.Load(c.PromptPath)
		if err != nil {
			log.ErrorErr(log.CatLoop, "prompt unreadable", err, "iteration", n)
			return res, err
		}

		if c.DryRun {
			printer.Warning("Dry run - would execute claude with prompt:")
			printer.Dim("%s", text)
		} else {
			c.runIteration(n, text)
			res.Invocations++
		}

		if c.Delay > 0 && !(limit > 0 && uint(n) >= limit) {
			c.sleep(c.Delay)
		}
	}

	printer.Header("\nRalph loop finished.")
	return res, nil
}

// checkComplete reloads the task list. Load failures are warnings and count
// as not complete.
func (c *Controller) checkComplete() bool {
	p, err := prd.Load(c.PRDPath)
	if err != nil {
		printer.Warning("Could not read PRD: %v", err)
		log.Warn(log.CatPRD, "prd load failed", "path", c.PRDPath, "malformed", prd.IsParseError(err), "error", err)
		return false
	}

	passing, total := p.Summarize()
	printer.Progress(passing, total)
	log.Debug(log.CatPRD, "prd status", "passing", passing, "total", total)
	return p.IsComplete()
}

func (c *Controller) runIteration(n int, text string) {
	c.Progress.Append(fmt.Sprintf("Starting iteration %d", n))

	outcome := c.Agent.Invoke(text, c.SkipPermissions)

	switch {
	case outcome.Success():
		c.Progress.Append(fmt.Sprintf("Iteration %d completed successfully", n))
	case outcome.Kind == claude.LaunchFailed:
		_ = printer.Error("Error running claude:", fmt.Sprint(outcome.Err), nil)
		c.Progress.Append(fmt.Sprintf("Iteration %d failed: %v", n, outcome.Err))
	default:
		c.Progress.Append(fmt.Sprintf("Iteration %d exited with status: %s", n, outcome))
	}
	log.Info(log.CatLoop, "iteration finished", "iteration", n, "outcome", outcome)
}

func (c *Controller) sleep(d time.Duration) {
	if c.Sleep != nil {
		c.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
