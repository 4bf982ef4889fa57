package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.coldcutz.net/ralph/internal/claude"
	"go.coldcutz.net/ralph/internal/config"
	"go.coldcutz.net/ralph/internal/interview"
	"go.coldcutz.net/ralph/internal/log"
	"go.coldcutz.net/ralph/internal/loop"
	"go.coldcutz.net/ralph/internal/printer"
	"go.coldcutz.net/ralph/internal/progress"
	"go.coldcutz.net/ralph/internal/prompt"
	"go.coldcutz.net/ralph/internal/scaffold"
)

var (
	version = "dev"

	cfgFile       string
	promptFile    string
	prdFile       string
	maxIterations uint
	delaySeconds  uint
	initOnly      bool
	dryRun        bool
	yolo          bool
	noBrainDump   bool
	debug         bool
)

// agent is the subset of the claude invoker the gate and loop need
type agent interface {
	Invoke(prompt string, skipPermissions bool) claude.Outcome
}

// newAgent is swapped out in tests
var newAgent = func(cfg config.Config, root string) agent {
	inv := claude.NewInvoker(cfg.Agent.Binary)
	inv.Dir = root
	return inv
}

var rootCmd = &cobra.Command{
	Use:   "ralph [project-name]",
	Short: "Run Claude Code in autonomous loops until PRD is complete",
	Long: `ralph runs Claude Code over and over against the same prompt until every
feature in PRD.json is passing or the iteration cap is reached.

On first use (or with --init) ralph scaffolds the project: CLAUDE.md, PRD.json,
progress.md, guardrails.md and the .claude/commands prompts. If PRD.json has no
features yet, claude is started once with the interview prompt to fill it in.

Each iteration re-reads PRD.json, runs claude with the prompt file, and appends
the outcome to progress.md.`,
	Args:          maxArgs(1),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRalph,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	d := config.Defaults()

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <project>/.ralph.yaml)")
	rootCmd.PersistentFlags().StringVar(&prdFile, "prd", d.PRD, "Path to PRD file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Write a debug log to .ralph/debug.log")

	rootCmd.Flags().StringVarP(&promptFile, "prompt", "p", d.Prompt, "Path to the prompt file")
	rootCmd.Flags().UintVarP(&maxIterations, "max-iterations", "m", d.MaxIterations, "Maximum iterations (0 = unlimited)")
	rootCmd.Flags().UintVarP(&delaySeconds, "delay", "d", d.Delay, "Delay between iterations in seconds")
	rootCmd.Flags().BoolVar(&initOnly, "init", false, "Initialize the project with ralph templates and exit")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would run without executing claude")
	rootCmd.Flags().BoolVar(&yolo, "yolo", false, "Skip all permission prompts (passes --dangerously-skip-permissions to claude)")
	rootCmd.Flags().BoolVar(&noBrainDump, "no-brain-dump", false, "Skip the brain dump prompt during initialization")
}

// loadConfig layers flags over RALPH_* env vars over the project config file
func loadConfig(cmd *cobra.Command, root string) (config.Config, error) {
	v := viper.New()

	bindings := map[string]string{
		"prompt":         "prompt",
		"prd":            "prd",
		"max_iterations": "max-iterations",
		"delay":          "delay",
		"dry_run":        "dry-run",
		"yolo":           "yolo",
		"debug":          "debug",
	}
	for key, name := range bindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config.Config{}, fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(v, root, cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if noBrainDump {
		cfg.BrainDump = false
	}
	return cfg, nil
}

// startDebugLog installs the file logger when debugging is on
func startDebugLog(cfg config.Config, root string) func() {
	if !cfg.Debug {
		return func() {}
	}
	closeLog, err := log.Init(config.DebugLogPath(root))
	if err != nil {
		printer.Warning("Could not open debug log: %v", err)
		return func() {}
	}
	return closeLog
}

func runRalph(cmd *cobra.Command, args []string) error {
	var name string
	if len(args) > 0 {
		name = args[0]
	}

	root, err := scaffold.ResolveRoot(".", name)
	if err != nil {
		return printer.Error("Could not prepare the project directory", err.Error(), nil)
	}

	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return printer.Error("Invalid configuration", err.Error(), []string{
			fmt.Sprintf("Fix or remove %s", filepath.Join(root, config.ConfigFile)),
		})
	}

	defer startDebugLog(cfg, root)()
	log.Info(log.CatConfig, "starting",
		"root", root, "prompt", cfg.Prompt, "prd", cfg.PRD,
		"max_iterations", cfg.MaxIterations, "delay", cfg.Delay,
		"dry_run", cfg.DryRun, "yolo", cfg.Yolo)

	if initOnly || scaffold.Missing(root) {
		if err := bootstrap(root, cfg); err != nil {
			return err
		}
		if initOnly {
			printNextSteps(name)
			return nil
		}
	}

	if !cfg.DryRun {
		if err := claude.CheckInstalled(cfg.Agent.Binary); err != nil {
			printer.Warning("%v", err)
		}
	}

	a := newAgent(cfg, root)
	prdPath := config.Resolve(root, cfg.PRD)

	gate := &interview.Gate{
		Agent:            a,
		PRDPath:          prdPath,
		InstructionsPath: config.Resolve(root, config.InterviewPromptPath()),
		SkipPermissions:  cfg.Yolo,
		DryRun:           cfg.DryRun,
	}
	if _, err := gate.Run(); err != nil {
		switch {
		case errors.Is(err, interview.ErrInstructionsMissing):
			return printer.Error("Error reading interview instructions:", err.Error(), []string{initHint})
		case errors.Is(err, interview.ErrLaunchFailed):
			return printer.Error("Error running claude:", err.Error(), []string{"Make sure claude is installed and on your PATH"})
		}
		return printer.Error("Interview failed", err.Error(), nil)
	}

	ctrl := loop.New(loop.Options{
		PromptPath:      config.Resolve(root, cfg.Prompt),
		PRDPath:         prdPath,
		MaxIterations:   cfg.MaxIterations,
		Delay:           time.Duration(cfg.Delay) * time.Second,
		DryRun:          cfg.DryRun,
		SkipPermissions: cfg.Yolo,
	}, a, progress.New(filepath.Join(root, config.ProgressFile)))

	res, err := ctrl.Run()
	if err != nil {
		if errors.Is(err, prompt.ErrUnreadable) {
			return printer.Error("Error reading prompt file:", err.Error(), []string{initHint})
		}
		return printer.Error("Loop failed", err.Error(), nil)
	}

	log.Info(log.CatLoop, "finished", "reason", res.Reason, "passes", res.Passes, "invocations", res.Invocations)
	return nil
}

const initHint = "Run ralph --init to create template files"

// maxArgs wraps cobra.MaximumNArgs so usage errors print like every other failure
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func usageError(err error) error {
	return printer.Error(err.Error(), "", []string{"Run ralph --help for usage"})
}
