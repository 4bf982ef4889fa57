package scaffold

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"go.coldcutz.net/ralph/internal/config"
	"go.coldcutz.net/ralph/internal/git"
	"go.coldcutz.net/ralph/internal/log"
	"go.coldcutz.net/ralph/internal/prompt"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Action records what bootstrap did with a single file
type Action string

const (
	ActionCreated Action = "created"
	ActionSkipped Action = "skipped"
)

// FileResult is one line of the bootstrap report
type FileResult struct {
	Path   string
	Action Action
}

// Report summarizes a bootstrap run
type Report struct {
	Files []FileResult
	// GitInitialized is true when a new repository was created
	GitInitialized bool
	// GitErr holds a git failure; bootstrap continues without version control
	GitErr error
}

// Created returns the paths that were written
func (r *Report) Created() []string {
	var out []string
	for _, f := range r.Files {
		if f.Action == ActionCreated {
			out = append(out, f.Path)
		}
	}
	return out
}

// Bootstrapper creates the ralph project structure under a root directory
type Bootstrapper struct {
	// EnsureRepo initializes version control in root. Defaults to git.
	EnsureRepo func(root string) (bool, error)
}

// New returns a Bootstrapper that initializes git repositories
func New() *Bootstrapper {
	return &Bootstrapper{
		EnsureRepo: func(root string) (bool, error) {
			return git.New(root).EnsureRepo()
		},
	}
}

// ResolveRoot returns the project root for an optional project name.
// With a name, base/name is created if absent and used as-is if it already
// exists as a directory.
func ResolveRoot(base, name string) (string, error) {
	root, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", base, err)
	}
	if name == "" {
		return root, nil
	}

	root = filepath.Join(root, name)
	info, err := os.Stat(root)
	switch {
	case err == nil && info.IsDir():
		log.Info(log.CatScaffold, "using existing project directory", "root", root)
		return root, nil
	case err == nil:
		return "", fmt.Errorf("%s exists and is not a directory", root)
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("failed to create project directory %s: %w", root, err)
	}
	log.Info(log.CatScaffold, "created project directory", "root", root)
	return root, nil
}

// Missing reports whether any scaffold file is absent from root. The config
// file is optional and does not count.
func Missing(root string) bool {
	files, err := TemplateFiles()
	if err != nil {
		return true
	}
	for _, f := range files {
		if f.Path == config.ConfigFile {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, f.Path)); err != nil {
			return true
		}
	}
	return false
}

// Bootstrap creates directories and writes every template file that does not
// exist yet. Existing files are never overwritten. Git failures are recorded
// in the report; directory or file failures abort.
func (b *Bootstrapper) Bootstrap(root string) (*Report, error) {
	report := &Report{}

	if b.EnsureRepo != nil {
		created, err := b.EnsureRepo(root)
		report.GitInitialized = created
		report.GitErr = err
		if err != nil {
			log.Warn(log.CatScaffold, "git init skipped", "error", err)
		}
	}

	files, err := TemplateFiles()
	if err != nil {
		return nil, err
	}

	if err := createDirectories(root); err != nil {
		return nil, err
	}

	for _, file := range files {
		action, err := writeIfMissing(root, file)
		if err != nil {
			return nil, err
		}
		report.Files = append(report.Files, FileResult{Path: file.Path, Action: action})
	}

	if err := validateCreatedFiles(root, report); err != nil {
		return nil, err
	}

	return report, nil
}

// TemplateFiles returns every file the scaffold writes, relative to the root
func TemplateFiles() ([]FileInfo, error) {
	files := []FileInfo{}

	for _, t := range []struct{ path, template string }{
		{"CLAUDE.md", "templates/CLAUDE.md.tmpl"},
		{config.PRDFile, "templates/PRD.json.tmpl"},
		{config.ProgressFile, "templates/progress.md.tmpl"},
		{"guardrails.md", "templates/guardrails.md.tmpl"},
	} {
		content, err := templatesFS.ReadFile(t.template)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", t.path, err)
		}
		files = append(files, FileInfo{Path: t.path, Content: content, Permissions: 0644})
	}

	settings, err := config.MarshalSettings(config.BaselineSettings())
	if err != nil {
		return nil, err
	}
	files = append(files, FileInfo{Path: config.SettingsPath(), Content: settings, Permissions: 0644})

	for _, c := range prompt.Commands() {
		files = append(files, FileInfo{Path: c.Path(), Content: []byte(c.Content), Permissions: 0644})
	}

	cfg, err := config.DefaultYAML()
	if err != nil {
		return nil, err
	}
	files = append(files, FileInfo{Path: config.ConfigFile, Content: cfg, Permissions: 0644})

	return files, nil
}

// createDirectories creates the necessary directory structure
func createDirectories(root string) error {
	dirs := []string{
		config.ClaudeDir,
		config.CommandsDir(),
		config.NotesDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// writeIfMissing writes file unless something already exists at its path.
// O_EXCL keeps a file that appears between the check and the write intact.
func writeIfMissing(root string, file FileInfo) (Action, error) {
	path := filepath.Join(root, file.Path)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, file.Permissions)
	if errors.Is(err, os.ErrExist) {
		log.Debug(log.CatScaffold, "skip existing file", "path", file.Path)
		return ActionSkipped, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", file.Path, err)
	}

	if _, err := f.Write(file.Content); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", file.Path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", file.Path, err)
	}

	log.Debug(log.CatScaffold, "created file", "path", file.Path)
	return ActionCreated, nil
}

// validateCreatedFiles checks that the structured files we just wrote parse
func validateCreatedFiles(root string, report *Report) error {
	for _, path := range report.Created() {
		switch filepath.Ext(path) {
		case ".json":
			content, err := os.ReadFile(filepath.Join(root, path))
			if err != nil {
				return fmt.Errorf("failed to read created %s: %w", path, err)
			}
			if !json.Valid(content) {
				return fmt.Errorf("created %s is not valid JSON", path)
			}
		case ".yaml", ".yml":
			content, err := os.ReadFile(filepath.Join(root, path))
			if err != nil {
				return fmt.Errorf("failed to read created %s: %w", path, err)
			}
			var yamlData interface{}
			if err := yaml.Unmarshal(content, &yamlData); err != nil {
				return fmt.Errorf("created %s is not valid YAML: %w", path, err)
			}
		}
	}
	return nil
}
