package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spindleapp/spindle/internal/cache"
	"github.com/spindleapp/spindle/internal/shared"
	"github.com/spindleapp/spindle/internal/tasks"
	"github.com/spindleapp/spindle/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing the library.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	dir, err := shared.UserDir()
	if err != nil {
		return err
	}
	fileLogger, err := shared.NewFileLogger(filepath.Join(dir, "tui.log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.logger = fileLogger

	reconciler := cache.NewReconciler(r.catalog, r.store, fileLogger)
	deduper := cache.NewDeduper(r.catalog, fileLogger)

	var covers *cache.CoverFetcher
	if r.config.UI.ShowCovers {
		if coverDir, err := r.config.CoverDir(); err == nil {
			covers = cache.NewCoverFetcher(r.store, coverDir, fileLogger)
		} else {
			fileLogger.Warnf("covers disabled: %v", err)
		}
	}

	runner := tasks.NewRunner(fileLogger, tasks.NetworkAvailable)
	defer runner.Shutdown()

	model := ui.NewModel(ctx, r.catalog, reconciler, r.store, covers, deduper, runner)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
