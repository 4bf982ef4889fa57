// Package config holds ralph's file layout, runtime configuration and the
// Claude settings written during bootstrap.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ClaudeDir           = ".claude"
	CommandsSubdir      = "commands"
	SettingsFile        = "settings.json"
	RalphPromptFile     = "ralph.md"
	InterviewPromptFile = "interview.md"
	PRDFile             = "PRD.json"
	ProgressFile        = "progress.md"
	NotesDir            = "docs"
	ConfigFile          = ".ralph.yaml"
	StateDir            = ".ralph"
	DebugLogFile        = "debug.log"
	EnvPrefix           = "RALPH"
)

// CommandsDir returns the slash-command directory relative to the project root
func CommandsDir() string {
	return filepath.Join(ClaudeDir, CommandsSubdir)
}

// DefaultPromptPath is the loop prompt relative to the project root
func DefaultPromptPath() string {
	return filepath.Join(CommandsDir(), RalphPromptFile)
}

// InterviewPromptPath is the interview instructions relative to the project root
func InterviewPromptPath() string {
	return filepath.Join(CommandsDir(), InterviewPromptFile)
}

// SettingsPath returns the Claude settings file relative to the project root
func SettingsPath() string {
	return filepath.Join(ClaudeDir, SettingsFile)
}

// DebugLogPath returns the debug log location for a project root
func DebugLogPath(root string) string {
	return filepath.Join(root, StateDir, DebugLogFile)
}

// Resolve joins a configured path onto root unless it is already absolute
func Resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// AgentConfig configures the external agent process
type AgentConfig struct {
	Binary string `mapstructure:"binary" yaml:"binary"`
}

// Config holds all options for a ralph run
type Config struct {
	Prompt        string      `mapstructure:"prompt" yaml:"prompt"`
	PRD           string      `mapstructure:"prd" yaml:"prd"`
	MaxIterations uint        `mapstructure:"max_iterations" yaml:"max_iterations"`
	Delay         uint        `mapstructure:"delay" yaml:"delay"`
	DryRun        bool        `mapstructure:"dry_run" yaml:"dry_run"`
	Yolo          bool        `mapstructure:"yolo" yaml:"yolo"`
	BrainDump     bool        `mapstructure:"brain_dump" yaml:"brain_dump"`
	Debug         bool        `mapstructure:"debug" yaml:"debug"`
	Agent         AgentConfig `mapstructure:"agent" yaml:"agent"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() Config {
	return Config{
		Prompt:        DefaultPromptPath(),
		PRD:           PRDFile,
		MaxIterations: 0,
		Delay:         2,
		BrainDump:     true,
		Agent:         AgentConfig{Binary: "claude"},
	}
}

// SetDefaults registers Defaults() on v
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("prompt", d.Prompt)
	v.SetDefault("prd", d.PRD)
	v.SetDefault("max_iterations", d.MaxIterations)
	v.SetDefault("delay", d.Delay)
	v.SetDefault("dry_run", d.DryRun)
	v.SetDefault("yolo", d.Yolo)
	v.SetDefault("brain_dump", d.BrainDump)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("agent.binary", d.Agent.Binary)
}

// Load layers defaults, the config file, RALPH_* environment variables and
// any flags already bound on v. cfgFile overrides the <root>/.ralph.yaml lookup.
// A missing default config file is not an error.
func Load(v *viper.Viper, root, cfgFile string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigFile(filepath.Join(root, ConfigFile))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// DefaultYAML renders Defaults() as the commented config file written on init
func DefaultYAML() ([]byte, error) {
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config: %w", err)
	}
	header := "# ralph configuration. Flags and RALPH_* environment variables override these values.\n"
	return append([]byte(header), data...), nil
}

// ClaudeSettings represents the Claude settings file structure
type ClaudeSettings struct {
	Permissions *Permissions `json:"permissions,omitempty"`
}

// Permissions represents the permissions section
type Permissions struct {
	Allow []string `json:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty"`
}

// BaselineSettings returns the permissions a fresh project starts with so the
// agent can edit files, run tests and commit without prompting for each one
func BaselineSettings() *ClaudeSettings {
	return &ClaudeSettings{
		Permissions: &Permissions{
			Allow: []string{
				"Read",
				"Edit",
				"Write",
				"Bash(git add:*)",
				"Bash(git commit:*)",
				"Bash(git status:*)",
				"Bash(git diff:*)",
				"Bash(git log:*)",
				"Bash(npm run:*)",
				"Bash(npm test:*)",
				"Bash(go test:*)",
				"Bash(go build:*)",
			},
			Deny: []string{
				"Bash(rm -rf:*)",
				"Bash(git push --force:*)",
			},
		},
	}
}

// MarshalSettings renders settings the way Claude expects to read them
func MarshalSettings(settings *ClaudeSettings) ([]byte, error) {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	return append(data, '\n'), nil
}
