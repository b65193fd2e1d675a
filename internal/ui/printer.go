// Package ui renders operator-facing status lines and headers.
// All orchestration state transitions surface here; file logging is the
// logger package's job.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DividerWidth is the default width for divider lines.
const DividerWidth = 50

// Printer writes styled status lines to a terminal.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a Printer writing to w, with color detection applied.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, color: ColorsEnabled()}
}

// NewPlainPrinter creates a Printer with colors disabled, for tests and
// non-terminal output.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) render(symbol string, color lipgloss.Color, msg string) {
	if p.color {
		style := lipgloss.NewStyle().Foreground(color)
		fmt.Fprintf(p.w, "%s %s\n", style.Render(symbol), msg)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", symbol, msg)
}

// Success prints a green check line.
func (p *Printer) Success(format string, args ...interface{}) {
	p.render(SymbolSuccess, ColorSuccess, fmt.Sprintf(format, args...))
}

// Fail prints a red cross line.
func (p *Printer) Fail(format string, args ...interface{}) {
	p.render(SymbolFail, ColorError, fmt.Sprintf(format, args...))
}

// Warn prints a yellow warning line.
func (p *Printer) Warn(format string, args ...interface{}) {
	p.render(SymbolWarn, ColorWarning, fmt.Sprintf(format, args...))
}

// Info prints a cyan informational line.
func (p *Printer) Info(format string, args ...interface{}) {
	p.render(SymbolInfo, ColorInfo, fmt.Sprintf(format, args...))
}

// Progress prints a blue in-progress line.
func (p *Printer) Progress(format string, args ...interface{}) {
	p.render(SymbolProgress, ColorSecondary, fmt.Sprintf(format, args...))
}

// Plain prints an unstyled line.
func (p *Printer) Plain(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Divider prints a horizontal rule separating sections.
func (p *Printer) Divider() {
	line := strings.Repeat("━", DividerWidth)
	if p.color {
		line = lipgloss.NewStyle().Foreground(ColorMuted).Render(line)
	}
	fmt.Fprintln(p.w, line)
}

// OutputStart prints the opening frame for streamed remote output.
func (p *Printer) OutputStart() {
	frame := "┌─ Remote Script Output " + strings.Repeat("─", DividerWidth-24)
	if p.color {
		frame = lipgloss.NewStyle().Foreground(ColorMuted).Render(frame)
	}
	fmt.Fprintln(p.w, frame)
}

// OutputEnd prints the closing frame for streamed remote output.
func (p *Printer) OutputEnd() {
	frame := "└" + strings.Repeat("─", DividerWidth-1)
	if p.color {
		frame = lipgloss.NewStyle().Foreground(ColorMuted).Render(frame)
	}
	fmt.Fprintln(p.w, frame)
}

// Writer exposes the underlying writer for raw output passthrough.
func (p *Printer) Writer() io.Writer {
	return p.w
}
