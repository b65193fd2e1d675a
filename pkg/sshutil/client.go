package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
)

// NetDialer is the production Dialer backed by TCP and golang.org/x/crypto/ssh.
type NetDialer struct{}

// NewDialer returns the production Dialer.
func NewDialer() *NetDialer {
	return &NetDialer{}
}

// Probe tests whether host:port accepts a TCP connection. The socket is
// closed immediately after connecting; no SSH traffic is exchanged, so
// the probe never trips auth-failure counters on the remote side.
func (d *NetDialer) Probe(host string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return err
	}
	conn.Close()
	return nil
}

// Dial opens an authenticated SSH connection to host:port using a
// single auth strategy. The caller decides fallback order; Dial itself
// never mixes strategies, so a failure is attributable to exactly one.
func (d *NetDialer) Dial(host string, port int, user string, strategy Strategy, timeout time.Duration) (Conn, error) {
	methods, err := strategy.methods()
	if err != nil {
		return nil, err
	}

	hostKeys, err := hostKeyCallback()
	if err != nil {
		return nil, fmt.Errorf("load known_hosts: %w", err)
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            methods,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	}

	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	tcpConn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, address, config)
	if err != nil {
		tcpConn.Close()

		// Surface the mismatch type directly so callers can errors.As it.
		var hostKeyErr *HostKeyMismatchError
		if stderrors.As(err, &hostKeyErr) {
			return nil, hostKeyErr
		}
		return nil, err
	}

	return &client{conn: ssh.NewClient(sshConn, chans, reqs), address: address}, nil
}

// client implements Conn over an established *ssh.Client.
type client struct {
	conn    *ssh.Client
	address string
}

func (c *client) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return nil, nil, -1, fmt.Errorf("create session: %w", err)
	}
	defer session.Close()

	var outBuf, errBuf bytes.Buffer
	session.Stdout = &outBuf
	session.Stderr = &errBuf

	err = session.Run(cmd)
	exitCode = exitCodeFrom(err)
	if exitCode >= 0 {
		// The command ran; a non-zero status is the caller's concern.
		err = nil
	}
	return outBuf.Bytes(), errBuf.Bytes(), exitCode, err
}

func (c *client) ExecStream(cmd string, out io.Writer, pty bool) (int, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return -1, fmt.Errorf("create session: %w", err)
	}
	defer session.Close()

	if pty {
		modes := ssh.TerminalModes{
			ssh.ECHO:          0,
			ssh.TTY_OP_ISPEED: 14400,
			ssh.TTY_OP_OSPEED: 14400,
		}
		if err := session.RequestPty("xterm-256color", 40, 120, modes); err != nil {
			return -1, fmt.Errorf("request pty: %w", err)
		}
	}

	// Merge stdout and stderr into one writer so remote output keeps
	// its interleaved order, matching what a terminal user would see.
	session.Stdout = out
	session.Stderr = out

	err = session.Run(cmd)
	code := exitCodeFrom(err)
	if code >= 0 {
		return code, nil
	}
	return -1, err
}

func (c *client) Shell(stdin io.Reader, stdout io.Writer, width, height int) error {
	session, err := c.conn.NewSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer session.Close()

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	term := os.Getenv("TERM")
	if term == "" {
		term = "xterm-256color"
	}
	if err := session.RequestPty(term, height, width, modes); err != nil {
		return fmt.Errorf("request pty: %w", err)
	}

	session.Stdin = stdin
	session.Stdout = stdout
	session.Stderr = stdout

	if err := session.Shell(); err != nil {
		return fmt.Errorf("start shell: %w", err)
	}

	err = session.Wait()
	if err != nil && exitCodeFrom(err) < 0 {
		return err
	}
	return nil
}

func (c *client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// exitCodeFrom extracts the remote exit status from a session error.
// Returns -1 when the command never produced a status (transport error,
// signal kill, missing status).
func exitCodeFrom(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ssh.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitStatus()
	}
	return -1
}
