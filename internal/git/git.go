package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrGitNotFound indicates git is not installed
var ErrGitNotFound = errors.New("git not found in PATH")

// Repo runs git commands against a fixed directory
type Repo struct {
	Dir string
}

// New returns a Repo rooted at dir
func New(dir string) *Repo {
	return &Repo{Dir: dir}
}

// IsRepo reports whether Dir is inside a git work tree
func (r *Repo) IsRepo() (bool, error) {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = r.Dir
	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return false, ErrGitNotFound
		}
		return false, nil
	}
	return true, nil
}

// Init runs git init in Dir
func (r *Repo) Init() error {
	cmd := exec.Command("git", "init")
	cmd.Dir = r.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return ErrGitNotFound
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("git init: %s: %w", msg, err)
		}
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// EnsureRepo initializes a repository unless Dir is already inside one.
// It reports whether a new repository was created.
func (r *Repo) EnsureRepo() (bool, error) {
	isRepo, err := r.IsRepo()
	if err != nil {
		return false, err
	}
	if isRepo {
		return false, nil
	}
	if err := r.Init(); err != nil {
		return false, err
	}
	return true, nil
}
