package tui

import (
	"context"

	"github.com/joshsymonds/greenstash/internal/about"
	"github.com/joshsymonds/greenstash/internal/service"
	"github.com/joshsymonds/greenstash/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme        themes.Theme
	Storage      service.Storage
	Clipboard    about.Clipboard
	OpenURL      func(url string) error
	BeforeDelete func(ctx context.Context)
	Build        about.BuildInfo
	Currency     string
	DateFormat   string
	Width        int
	Height       int
	MouseSupport bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:      themes.Default,
		Clipboard:  about.SystemClipboard,
		OpenURL:    about.OpenURL,
		Currency:   "$",
		DateFormat: "Jan 2, 2006",
		Width:      80,
		Height:     24,
	}
}

// WithStorage sets the storage service.
func WithStorage(storage service.Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithCurrency sets the symbol placed before amounts.
func WithCurrency(symbol string) Option {
	return func(c *Config) {
		c.Currency = symbol
	}
}

// WithDateFormat sets the Go layout used for dates.
func WithDateFormat(layout string) Option {
	return func(c *Config) {
		if layout != "" {
			c.DateFormat = layout
		}
	}
}

// WithBuildInfo sets the version shown on the about screen.
func WithBuildInfo(info about.BuildInfo) Option {
	return func(c *Config) {
		c.Build = info
	}
}

// WithClipboard replaces the system clipboard.
func WithClipboard(clipboard about.Clipboard) Option {
	return func(c *Config) {
		c.Clipboard = clipboard
	}
}

// WithURLOpener replaces the browser launcher.
func WithURLOpener(open func(url string) error) Option {
	return func(c *Config) {
		c.OpenURL = open
	}
}

// WithBeforeDelete runs fn before a goal is deleted, for example to take a
// checkpoint of the database.
func WithBeforeDelete(fn func(ctx context.Context)) Option {
	return func(c *Config) {
		c.BeforeDelete = fn
	}
}

// WithMouse enables mouse wheel scrolling.
func WithMouse(enabled bool) Option {
	return func(c *Config) {
		c.MouseSupport = enabled
	}
}
