// Package report prints user-facing status lines.
//
// Every line starts with a status marker:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
//
// All of them go to the same writer, normally the command's stdout. Structured
// diagnostics belong in slog, not here.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes marker-prefixed lines to w. Colors are applied only when w is a
// terminal that supports them.
type Printer struct {
	w       io.Writer
	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	item    lipgloss.Style
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		info:    r.NewStyle().Foreground(lipgloss.Color("39")),
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("196")),
		item:    r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Info prints an informational message.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.info, "ℹ", format, args...)
}

// Success prints a message for a completed change.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.success, "✓", format, args...)
}

// Warn prints a message for a benign problem.
func (p *Printer) Warn(format string, args ...any) {
	p.line(p.warn, "⚠", format, args...)
}

// Error prints a failure.
func (p *Printer) Error(format string, args ...any) {
	p.line(p.fail, "✗", format, args...)
}

// Item prints an indented list entry under the previous message.
func (p *Printer) Item(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s %s\n", p.item.Render("-"), fmt.Sprintf(format, args...))
}

func (p *Printer) line(style lipgloss.Style, marker, format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", style.Render(marker), fmt.Sprintf(format, args...))
}
