package cmd

import (
	"go.coldcutz.net/ralph/internal/braindump"
	"go.coldcutz.net/ralph/internal/config"
	"go.coldcutz.net/ralph/internal/log"
	"go.coldcutz.net/ralph/internal/printer"
	"go.coldcutz.net/ralph/internal/scaffold"
)

// newCapturer is swapped out in tests
var newCapturer = func() *braindump.Capturer {
	return braindump.New(braindump.ReadlinePrompter{})
}

// bootstrap writes the scaffold into root and, if enabled, captures a brain dump
func bootstrap(root string, cfg config.Config) error {
	printer.Header("Initializing ralph project...")

	report, err := scaffold.New().Bootstrap(root)
	if err != nil {
		return printer.Error("Failed to initialize project", err.Error(), nil)
	}

	switch {
	case report.GitErr != nil:
		printer.Warning("Skipping git init: %v", report.GitErr)
	case report.GitInitialized:
		printer.Success("Initialized git repository")
	}

	for _, f := range report.Files {
		if f.Action == scaffold.ActionCreated {
			printer.Created(f.Path)
		} else {
			printer.Skipped(f.Path)
		}
	}

	if !cfg.BrainDump {
		return nil
	}

	printer.Info("")
	res, err := newCapturer().Capture(root, config.NotesDir)
	switch {
	case err != nil:
		printer.Warning("Could not save brain dump: %v", err)
	case res.Path != "":
		printer.Success("Saved brain dump to %s", res.Path)
	default:
		log.Debug(log.CatEditor, "brain dump skipped", "reason", res.Skipped)
	}
	return nil
}

func printNextSteps(name string) {
	printer.Done("\nDone! Next steps:")
	step := 1
	if name != "" {
		printer.Info("  %d. cd %s", step, name)
		step++
	}
	printer.Info("  %d. Start your dev server (e.g., npm run dev)", step)
	printer.Info("  %d. Run: claude /interview", step+1)
	printer.Info("     (Claude will ask questions and build your PRD)")
	printer.Info("  %d. Run: ralph --yolo", step+2)
}
