package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"go.coldcutz.net/ralph/internal/config"
	"go.coldcutz.net/ralph/internal/prd"
	"go.coldcutz.net/ralph/internal/printer"
)

const barWidth = 30

var statusCmd = &cobra.Command{
	Use:   "status [project-name]",
	Short: "Show PRD progress",
	Long:  `Display how many features in PRD.json are passing and list the ones still to do.`,
	Args:  maxArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// projectPRD returns the task list path for an optional project name
// without creating anything
func projectPRD(cmd *cobra.Command, args []string) (string, error) {
	base := "."
	if len(args) > 0 {
		base = args[0]
	}
	root, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", base, err)
	}

	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return "", err
	}
	return config.Resolve(root, cfg.PRD), nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	path, err := projectPRD(cmd, args)
	if err != nil {
		return printer.Error("Invalid configuration", err.Error(), nil)
	}

	p, err := prd.Load(path)
	if err != nil {
		return printer.Error("Could not read PRD", err.Error(), []string{initHint})
	}

	printStatus(p)
	return nil
}

func printStatus(p *prd.PRD) {
	title := p.Project
	if title == "" {
		title = "ralph"
	}
	printer.Header("=== %s ===", title)

	passing, total := p.Summarize()
	if total == 0 {
		printer.Warning("No features yet. Run: claude /interview")
		return
	}

	printer.Info("Progress:  [%s] %d/%d (%.0f%%)",
		progressBar(passing, total), passing, total, float64(passing)/float64(total)*100)

	if p.IsComplete() {
		printer.Done("All features passing!")
		return
	}

	remaining := p.Remaining()
	printer.Info("\nRemaining (%d):", len(remaining))
	for _, f := range remaining {
		printer.Info("  %-10s %s %s", f.Status, f.ID, f.Title)
	}
}

func progressBar(done, total int) string {
	filled := barWidth * done / total
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
