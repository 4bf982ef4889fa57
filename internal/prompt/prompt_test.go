package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.coldcutz.net/ralph/internal/config"
)

func TestCommands(t *testing.T) {
	byName := make(map[string]Command)
	for _, c := range Commands() {
		byName[c.Name] = c
	}

	require.Contains(t, byName, "ralph")
	require.Contains(t, byName, "interview")
	assert.Equal(t, config.DefaultPromptPath(), byName["ralph"].Path())
	assert.Equal(t, config.InterviewPromptPath(), byName["interview"].Path())

	ralph := byName["ralph"].Content
	if !strings.Contains(ralph, "PRD.json") {
		t.Error("ralph prompt should reference PRD.json")
	}
	if !strings.Contains(ralph, "progress.md") {
		t.Error("ralph prompt should reference progress.md")
	}
	if !strings.Contains(ralph, "git add -A") {
		t.Error("ralph prompt should tell the agent to commit")
	}

	interview := byName["interview"].Content
	for _, status := range []string{"pending", "inprogress", "failing", "passing"} {
		if !strings.Contains(interview, status) {
			t.Errorf("interview prompt should list status %q", status)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ralph.md")
	require.NoError(t, os.WriteFile(path, []byte("do the next feature"), 0644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "do the next feature", got)
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.md")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadable))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), path)
}
