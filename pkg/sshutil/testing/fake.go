// Package testing provides in-memory fakes for the sshutil transport
// interfaces. FakeDialer scripts probe and auth outcomes per port and
// strategy; FakeConn records uploads and executed commands and serves
// canned output, simulating a remote machine without a network.
package testing

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/sofibox/sofilab/pkg/sshutil"
)

// CommandResponse is a canned result for a command pattern.
type CommandResponse struct {
	Output   string
	ExitCode int
	Err      error
}

// DialAttempt records one authenticated connection attempt.
type DialAttempt struct {
	Host     string
	Port     int
	User     string
	Strategy sshutil.Strategy
}

// FakeDialer scripts transport behavior for tests. Probe outcomes are
// keyed by port; dial outcomes are keyed by strategy kind. Unscripted
// probes succeed and unscripted dials return the shared FakeConn.
type FakeDialer struct {
	mu sync.Mutex

	// ProbeErrs maps port -> error returned by Probe. A port with a
	// nil entry (or no entry) is reachable.
	ProbeErrs map[int]error

	// DialErrs maps strategy kind -> error returned by Dial. Errors
	// are returned once per key when Once is set.
	DialErrs map[sshutil.StrategyKind]error

	// DialErrsOnce, when true, clears each scripted dial error after
	// its first use. Models transient failures like a stale host key
	// that the caller remediates before retrying.
	DialErrsOnce bool

	// Conn is returned by successful dials. Lazily initialized.
	Conn *FakeConn

	Probes   []int
	Attempts []DialAttempt
}

// NewFakeDialer returns a dialer where every probe and dial succeeds.
func NewFakeDialer() *FakeDialer {
	return &FakeDialer{
		ProbeErrs: make(map[int]error),
		DialErrs:  make(map[sshutil.StrategyKind]error),
		Conn:      NewFakeConn(),
	}
}

func (d *FakeDialer) Probe(host string, port int, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Probes = append(d.Probes, port)
	return d.ProbeErrs[port]
}

func (d *FakeDialer) Dial(host string, port int, user string, strategy sshutil.Strategy, timeout time.Duration) (sshutil.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Attempts = append(d.Attempts, DialAttempt{Host: host, Port: port, User: user, Strategy: strategy})

	if err := d.DialErrs[strategy.Kind]; err != nil {
		if d.DialErrsOnce {
			delete(d.DialErrs, strategy.Kind)
		}
		return nil, err
	}
	if d.Conn == nil {
		d.Conn = NewFakeConn()
	}
	return d.Conn, nil
}

// LastAttempt returns the most recent dial attempt.
func (d *FakeDialer) LastAttempt() DialAttempt {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Attempts) == 0 {
		return DialAttempt{}
	}
	return d.Attempts[len(d.Attempts)-1]
}

// Upload is one recorded file transfer.
type Upload struct {
	Path    string
	Content []byte
}

// FakeConn simulates an authenticated connection. Commands match
// scripted patterns (regexp, first exact match wins) and fall back to
// exit 0 with no output.
type FakeConn struct {
	mu sync.Mutex

	responses map[string]CommandResponse
	Commands  []string
	Uploads   []Upload
	Closed    bool

	// UploadErr, when set, fails all uploads.
	UploadErr error
}

// NewFakeConn returns an empty fake connection.
func NewFakeConn() *FakeConn {
	return &FakeConn{responses: make(map[string]CommandResponse)}
}

// Respond scripts a response for commands matching the given pattern.
func (c *FakeConn) Respond(pattern string, resp CommandResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[pattern] = resp
}

func (c *FakeConn) lookup(cmd string) CommandResponse {
	if resp, ok := c.responses[cmd]; ok {
		return resp
	}
	for pattern, resp := range c.responses {
		if matched, _ := regexp.MatchString(pattern, cmd); matched {
			return resp
		}
	}
	return CommandResponse{}
}

func (c *FakeConn) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed {
		return nil, nil, -1, errors.New("connection closed")
	}
	c.Commands = append(c.Commands, cmd)
	resp := c.lookup(cmd)
	return []byte(resp.Output), nil, resp.ExitCode, resp.Err
}

func (c *FakeConn) ExecStream(cmd string, out io.Writer, pty bool) (int, error) {
	c.mu.Lock()
	if c.Closed {
		c.mu.Unlock()
		return -1, errors.New("connection closed")
	}
	c.Commands = append(c.Commands, cmd)
	resp := c.lookup(cmd)
	c.mu.Unlock()

	if resp.Output != "" {
		if _, err := io.WriteString(out, resp.Output); err != nil {
			return -1, err
		}
	}
	return resp.ExitCode, resp.Err
}

func (c *FakeConn) Upload(r io.Reader, remotePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.UploadErr != nil {
		return c.UploadErr
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload source: %w", err)
	}
	c.Uploads = append(c.Uploads, Upload{Path: remotePath, Content: content})
	return nil
}

func (c *FakeConn) Shell(stdin io.Reader, stdout io.Writer, width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed {
		return errors.New("connection closed")
	}
	return nil
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// Uploaded returns the recorded upload for path, if any.
func (c *FakeConn) Uploaded(path string) (Upload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.Uploads {
		if u.Path == path {
			return u, true
		}
	}
	return Upload{}, false
}
