package cli

import (
	"errors"
	"io"

	"github.com/OpenGG/jbtool/internal/jbt/domain"
	"github.com/OpenGG/jbtool/internal/report"
)

// ErrPromptCancelled indicates that the user aborted an interactive prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

// ErrConfigDirRequired is returned when no config directory was given and none can be asked for.
var ErrConfigDirRequired = errors.New("a config directory is required (--config-dir DIR)")

// ExitCode maps a command result to the process exit status. A running IDE
// leaves everything untouched and exits 0.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, domain.ErrProcessRunning) {
		return 0
	}
	return 1
}

// Report prints the outcome of a failed command to w, which is stdout.
func Report(w io.Writer, err error) {
	if err == nil {
		return
	}
	p := report.New(w)
	if errors.Is(err, domain.ErrProcessRunning) {
		p.Warn("%v; nothing changed. Close the IDE and try again.", err)
		return
	}
	p.Error("Error: %v", err)
}
