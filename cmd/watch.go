package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"go.coldcutz.net/ralph/internal/prd"
	"go.coldcutz.net/ralph/internal/printer"
	"go.coldcutz.net/ralph/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [project-name]",
	Short: "Watch PRD progress as it changes",
	Long: `Display PRD progress and redraw it whenever PRD.json changes on disk.
Run it in a second terminal while the ralph loop works.`,
	Args: maxArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "Wait this long after the last change before redrawing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := projectPRD(cmd, args)
	if err != nil {
		return printer.Error("Invalid configuration", err.Error(), nil)
	}

	w, err := watcher.New(path, watchDebounce)
	if err != nil {
		return printer.Error("Could not watch PRD", err.Error(), nil)
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return printer.Error("Could not watch PRD", err.Error(), []string{initHint})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchLoop(ctx, path, changes)
}

// watchLoop redraws on every change until ctx is done
func watchLoop(ctx context.Context, path string, changes <-chan struct{}) error {
	displayWatch(path)
	for {
		select {
		case <-changes:
			displayWatch(path)
		case <-ctx.Done():
			printer.Info("\nWatch stopped.")
			return nil
		}
	}
}

func displayWatch(path string) {
	printer.ClearScreen()
	printer.Dim("Updated: %s (watching %s)", time.Now().Format("2006-01-02 15:04:05"), path)
	printer.Info("")

	p, err := prd.Load(path)
	if err != nil {
		printer.Warning("Could not read PRD: %v", err)
	} else {
		printStatus(p)
	}

	printer.Dim("\nPress Ctrl+C to exit")
}
