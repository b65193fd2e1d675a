// Package sshutil provides the transport capability for the orchestrator:
// TCP liveness probes, strategy-based SSH authentication, remote command
// execution with merged output streaming, and SFTP file upload.
//
// The orchestrator depends on the Dialer and Conn interfaces so unit tests
// can swap in the in-memory fake from sshutil/testing.
package sshutil

import (
	"io"
	"time"
)

// Dialer abstracts establishing transport to a remote host.
type Dialer interface {
	// Probe tests TCP reachability of host:port without authenticating.
	// A pure connectivity check: failed-auth counters on remote
	// intrusion-prevention systems are never incremented by a probe.
	Probe(host string, port int, timeout time.Duration) error

	// Dial opens an authenticated SSH connection using one strategy.
	// Failures classify via Classify: auth rejections are distinct from
	// network-level failures and host key mismatches.
	Dial(host string, port int, user string, strategy Strategy, timeout time.Duration) (Conn, error)
}

// Conn is an authenticated SSH connection capable of running commands
// and uploading files.
type Conn interface {
	// Exec runs a command and returns stdout, stderr, and exit code.
	// Exit code is -1 if the command couldn't be executed at all.
	// A non-zero exit code with nil error means the command ran but failed.
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)

	// ExecStream runs a command with stdout and stderr merged into out.
	// When pty is true a pseudo-terminal is allocated for the command.
	// Returns the remote exit code.
	ExecStream(cmd string, out io.Writer, pty bool) (exitCode int, err error)

	// Upload writes the contents of r to remotePath, creating parent
	// directories as needed. Paths are relative to the remote home.
	Upload(r io.Reader, remotePath string) error

	// Shell starts an interactive login shell bridged to the given
	// streams, with a PTY of the given dimensions.
	Shell(stdin io.Reader, stdout io.Writer, width, height int) error

	// Close closes the connection.
	Close() error
}
