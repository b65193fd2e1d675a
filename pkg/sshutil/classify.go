package sshutil

import (
	stderrors "errors"
	"strings"
)

// FailKind categorizes why a transport operation failed. The distinction
// drives the auth fallback rules: an auth rejection moves on to the next
// strategy, a network failure aborts immediately.
type FailKind int

const (
	FailUnknown FailKind = iota
	FailNetwork
	FailAuth
	FailHostKey
)

// String returns a human-readable description of the failure kind.
func (k FailKind) String() string {
	switch k {
	case FailNetwork:
		return "network failure"
	case FailAuth:
		return "authentication rejected"
	case FailHostKey:
		return "host key mismatch"
	default:
		return "unknown error"
	}
}

// Classify inspects a transport error and categorizes it.
func Classify(err error) FailKind {
	if err == nil {
		return FailUnknown
	}

	var hostKeyErr *HostKeyMismatchError
	if stderrors.As(err, &hostKeyErr) {
		return FailHostKey
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "unable to authenticate") ||
		strings.Contains(errStr, "no supported methods") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "authentication failed") ||
		strings.Contains(errStr, "no agent or default identities") ||
		strings.Contains(errStr, "parse key") {
		return FailAuth
	}

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no route to host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "host is down") ||
		strings.Contains(errStr, "connection reset") {
		return FailNetwork
	}

	if strings.Contains(errStr, "host key") || strings.Contains(errStr, "knownhosts") {
		return FailHostKey
	}

	return FailUnknown
}
