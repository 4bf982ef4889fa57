package braindump

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
)

// ReadlinePrompter asks yes/no questions on the terminal
type ReadlinePrompter struct{}

// Confirm defaults to no on an empty answer
func (ReadlinePrompter) Confirm(question string) (bool, error) {
	rl, err := readline.New(question + " [y/N] ")
	if err != nil {
		return false, fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	answer, err := rl.Readline()
	if err != nil {
		return false, err
	}
	return IsYes(answer), nil
}

// IsYes accepts y and yes in any case
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
