// Package util holds small helpers shared across packages.
package util

import "strings"

// ShellQuote single-quotes s for safe literal use in a remote command
// line. Embedded single quotes become the '\'' sequence.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ShellQuotePreserveTilde quotes a path while leaving a leading ~/
// outside the quotes, so the remote shell still expands it to the
// user's home. Needed for workspace paths under ~.
func ShellQuotePreserveTilde(path string) string {
	if path == "~" {
		return "~"
	}
	if strings.HasPrefix(path, "~/") {
		return "~/" + ShellQuote(path[2:])
	}
	return ShellQuote(path)
}
