package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive goal browser and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Storage == nil {
		return ErrNoStorage
	}

	programOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}
	if cfg.MouseSupport {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}

	slog.Debug("Starting TUI", "theme", cfg.Theme.Name, "currency", cfg.Currency)

	p := tea.NewProgram(newModel(cfg), programOpts...)
	final, err := p.Run()
	if err != nil {
		// Cancelling ctx (Ctrl+C in the parent command) is a normal exit.
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := final.(Model); ok && m.lastError != nil {
		slog.Debug("TUI exited after an error", "error", m.lastError)
	}
	return nil
}
