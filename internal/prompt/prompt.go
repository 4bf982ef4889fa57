package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.coldcutz.net/ralph/internal/config"
)

// ErrUnreadable is returned when a prompt document cannot be read.
// The loop treats it as fatal.
var ErrUnreadable = errors.New("prompt file unreadable")

// ralphTemplate is the prompt sent to claude on every loop iteration
const ralphTemplate = `# Ralph iteration

You are one iteration of an autonomous build loop. Each iteration starts with a
fresh context, so everything you need is on disk.

## Context
- PRD.json lists every feature and its status
- progress.md is the running journal of previous iterations
- guardrails.md lists rules learned the hard way; read it before changing code
- CLAUDE.md describes the project and how to run it

## Your task
1. Read PRD.json and pick the highest priority feature whose status is not "passing"
2. Set its status to "inprogress" and implement it
3. Verify every acceptance criterion (run the tests, check the dev server)
4. If everything passes set the status to "passing", otherwise "failing"
5. Commit ALL changes: ` + "`git add -A && git commit -m \"<feature id>: <summary>\"`" + `
6. Append a short note to progress.md describing what you did and what is left

## Rules
- Work on ONE feature per iteration, then stop
- Never mark a feature "passing" without verifying its acceptance criteria
- Never delete features from PRD.json
- If you discover a recurring mistake, add a rule to guardrails.md
`

// interviewTemplate populates an empty PRD.json by interviewing the user
const interviewTemplate = `# Interview

PRD.json has no features yet. Interview the user to build it.

## Process
1. Read docs/ for any brain dump notes the user left
2. Ask about the goal, the users, and the technology constraints, a few
   questions at a time
3. Break the project into small, independently verifiable features
4. Give every feature acceptance criteria the next iteration can check

## Output
Write PRD.json in this shape:
` + "```json" + `
{
  "project": "<name>",
  "features": [
    {
      "id": "F001",
      "title": "<short title>",
      "description": "<what and why>",
      "status": "pending",
      "acceptance_criteria": ["<observable check>"]
    }
  ]
}
` + "```" + `
Statuses are one of: pending, inprogress, failing, passing.
When PRD.json is written, summarise it for the user and stop.
`

// planTemplate reviews PRD.json without writing code
const planTemplate = `# Plan

Review PRD.json and the current codebase without changing code.

1. Reorder features so dependencies come first
2. Split any feature that cannot be finished in one iteration
3. Tighten vague acceptance criteria
4. Record the reasoning in progress.md
`

// buildTemplate runs a single feature by hand outside the loop
const buildTemplate = `# Build

Implement the feature given in $ARGUMENTS (or the next non-passing feature in
PRD.json), verify its acceptance criteria, update its status and commit.
`

// Command is a slash-command document written under .claude/commands
type Command struct {
	Name    string
	Content string
}

// Path returns where the command lives relative to the project root
func (c Command) Path() string {
	return filepath.Join(config.CommandsDir(), c.Name+".md")
}

// Commands returns the slash commands every project starts with
func Commands() []Command {
	return []Command{
		{Name: "interview", Content: interviewTemplate},
		{Name: "plan", Content: planTemplate},
		{Name: "build", Content: buildTemplate},
		{Name: "ralph", Content: ralphTemplate},
	}
}

// Load reads a prompt document. Any failure wraps ErrUnreadable.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}
	return string(data), nil
}
