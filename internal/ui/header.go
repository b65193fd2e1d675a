package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HeaderInfo contains information to display in the session header.
type HeaderInfo struct {
	Version string // Version string (e.g., "v1.2.0")
	Action  string // What is about to happen (e.g., "Login")
	Target  string // host[:port] being contacted
}

// RenderHeader renders the banner shown before interactive sessions.
func RenderHeader(info HeaderInfo) string {
	titleStyle := lipgloss.NewStyle().Foreground(ColorInfo).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	hostname, _ := os.Hostname()

	var b strings.Builder
	b.WriteString(mutedStyle.Render(strings.Repeat("=", DividerWidth)))
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("sofilab"))
	b.WriteString(" ")
	b.WriteString(mutedStyle.Render(info.Version))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Action: %s\n", info.Action))
	b.WriteString(fmt.Sprintf("Target: %s\n", info.Target))
	b.WriteString(fmt.Sprintf("From: %s  When: %s\n",
		hostname, time.Now().Format("2006-01-02 15:04:05")))
	b.WriteString(mutedStyle.Render(strings.Repeat("=", DividerWidth)))
	b.WriteString("\n")

	return b.String()
}
