// Package about holds the project links and the version report shown by
// `greenstash about` and the TUI about screen.
package about

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrUnknownLink is returned when a link name does not match any project link.
var ErrUnknownLink = errors.New("unknown link")

// Link is a named project URL.
type Link struct {
	Key   string
	Label string
	URL   string
}

// Links are the project links, in display order.
var Links = []Link{
	{Key: "readme", Label: "ReadMe", URL: "https://github.com/Pool-Of-Tears/GreenStash"},
	{Key: "privacy", Label: "Privacy Policy", URL: "https://github.com/Pool-Of-Tears/GreenStash/blob/main/legal/PRIVACY-POLICY.md"},
	{Key: "issues", Label: "GitHub Issues", URL: "https://github.com/Pool-Of-Tears/GreenStash/issues/new"},
	{Key: "telegram", Label: "Telegram", URL: "https://t.me/PotApps"},
}

// FindLink looks a link up by key or label, ignoring case.
func FindLink(name string) (Link, error) {
	for _, l := range Links {
		if strings.EqualFold(l.Key, name) || strings.EqualFold(l.Label, name) {
			return l, nil
		}
	}
	return Link{}, fmt.Errorf("%w: %q", ErrUnknownLink, name)
}

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// VersionReport describes the binary and the machine it runs on. It is meant
// to be pasted into bug reports.
type VersionReport struct {
	BuildInfo
	GoVersion string
	OS        string
	Arch      string
	NumCPU    int
}

// NewVersionReport collects a report for the current process.
func NewVersionReport(info BuildInfo) VersionReport {
	return VersionReport{
		BuildInfo: info,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
	}
}

// String renders the report one fact per line.
func (r VersionReport) String() string {
	var b strings.Builder

	version := r.Version
	if version == "" {
		version = "dev"
	}
	if r.Commit != "" && r.Commit != "none" {
		fmt.Fprintf(&b, "App version: %s (%s)\n", version, r.Commit)
	} else {
		fmt.Fprintf(&b, "App version: %s\n", version)
	}
	if r.BuildDate != "" && r.BuildDate != "unknown" {
		fmt.Fprintf(&b, "Build date: %s\n", r.BuildDate)
	}
	fmt.Fprintf(&b, "Go version: %s\n", r.GoVersion)
	fmt.Fprintf(&b, "Platform: %s/%s\n", r.OS, r.Arch)
	fmt.Fprintf(&b, "CPUs: %d\n", r.NumCPU)

	return b.String()
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard is not supported on this system")
	}
	return clipboard.WriteAll(text)
}

// SystemClipboard is the clipboard of the running desktop session.
var SystemClipboard Clipboard = systemClipboard{}

// CopyReport copies the report to the clipboard.
func CopyReport(c Clipboard, r VersionReport) error {
	if err := c.WriteAll(r.String()); err != nil {
		return fmt.Errorf("failed to copy version report: %w", err)
	}
	return nil
}

// OpenURL opens url in the default browser.
func OpenURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url) //nolint:gosec
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:gosec
	case "darwin":
		cmd = exec.Command("open", url) //nolint:gosec
	default:
		return fmt.Errorf("opening links is not supported on %s", runtime.GOOS)
	}
	return cmd.Start()
}
