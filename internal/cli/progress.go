package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Progress wraps a progress bar for imports and exports. A nil *Progress is
// valid and does nothing, which keeps --quiet code paths simple.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a counting progress bar. A negative total renders a
// spinner, which suits byte streams of unknown length.
func NewProgress(writer io.Writer, total int64, description string) *Progress {
	return newProgress(writer, total, description, false)
}

// NewByteProgress creates a progress bar that counts bytes.
func NewByteProgress(writer io.Writer, total int64, description string) *Progress {
	return newProgress(writer, total, description, true)
}

func newProgress(writer io.Writer, total int64, description string, bytes bool) *Progress {
	if writer == nil {
		writer = os.Stderr
	}

	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionShowBytes(bytes),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[green][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	return &Progress{bar: bar}
}

// Add advances the bar by n steps.
func (p *Progress) Add(n int) {
	if p == nil {
		return
	}
	if err := p.bar.Add(n); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Reader wraps r so reads advance the bar.
func (p *Progress) Reader(r io.Reader) io.Reader {
	if p == nil {
		return r
	}
	reader := progressbar.NewReader(r, p.bar)
	return &reader
}

// Writer wraps w so writes advance the bar.
func (p *Progress) Writer(w io.Writer) io.Writer {
	if p == nil {
		return w
	}
	return io.MultiWriter(w, p.bar)
}

// Finish completes the bar.
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
