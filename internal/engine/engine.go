// Package engine uploads scripts to a remote workspace and executes
// them with the session environment lab scripts expect, streaming the
// merged remote output line by line.
package engine

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/host"
	"github.com/sofibox/sofilab/internal/keys"
	"github.com/sofibox/sofilab/internal/logger"
	"github.com/sofibox/sofilab/internal/util"
	"github.com/sofibox/sofilab/pkg/sshutil"
)

// Workspace is the remote directory scripts are uploaded to, relative
// to the remote user's home.
const Workspace = ".sofilab_scripts"

// Task is one script to run on the remote.
type Task struct {
	Script string   // local path to the script
	Name   string   // remote filename, defaults to base of Script
	Args   []string // arguments passed to the script
	Strict bool     // run under an errexit shell
}

// RemoteName returns the filename the script runs under on the remote.
func (t Task) RemoteName() string {
	if t.Name != "" {
		return t.Name
	}
	return filepath.Base(t.Script)
}

// Phase identifies where in the task lifecycle a failure occurred.
type Phase int

const (
	PhaseConnect Phase = iota
	PhaseUpload
	PhaseExecute
)

func (p Phase) String() string {
	switch p {
	case PhaseConnect:
		return "connect"
	case PhaseUpload:
		return "upload"
	case PhaseExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// Result is the outcome of one task.
type Result struct {
	Task     Task
	ExitCode int
	Phase    Phase
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the script ran and exited zero.
func (r Result) Succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Engine runs tasks over an established connection. The endpoint and
// key info feed the environment variables handed to every script.
type Engine struct {
	Conn     sshutil.Conn
	Endpoint host.Endpoint
	Key      *keys.Info
	Remote   logger.RemoteSink
	Log      logger.Logger
	Out      io.Writer
	ForceTTY bool

	now func() time.Time
}

// New returns an engine bound to an established connection.
func New(conn sshutil.Conn, endpoint host.Endpoint, key *keys.Info, remote logger.RemoteSink, log logger.Logger, out io.Writer) *Engine {
	return &Engine{
		Conn:     conn,
		Endpoint: endpoint,
		Key:      key,
		Remote:   remote,
		Log:      log,
		Out:      out,
		now:      time.Now,
	}
}

// Env returns the session environment handed to every script. Scripts
// use these to configure the machine they run on: a hardening script
// reads SSH_PORT to know where sshd should end up listening, while
// ACTUAL_PORT tells it where the session actually connected.
func (e *Engine) Env() map[string]string {
	env := map[string]string{
		"SSH_PORT":       fmt.Sprintf("%d", e.Endpoint.ConfiguredPort),
		"ACTUAL_PORT":    fmt.Sprintf("%d", e.Endpoint.WorkingPort),
		"ADMIN_USER":     e.Endpoint.User,
		"SSH_KEY_PATH":   "",
		"SSH_PUBLIC_KEY": "",
	}
	if e.Key != nil {
		env["SSH_KEY_PATH"] = e.Key.PrivatePath
		env["SSH_PUBLIC_KEY"] = e.Key.PublicKey()
	}
	return env
}

// Run uploads the task's script into the workspace and executes it.
// The workspace copy is removed in-session after the run; the rm shares
// the script's shell, so the script's exit code is captured first and
// re-raised after cleanup.
func (e *Engine) Run(task Task) Result {
	start := e.now()
	result := Result{Task: task, ExitCode: -1}

	f, err := os.Open(task.Script)
	if err != nil {
		result.Phase = PhaseUpload
		result.Err = errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Can't read script '%s'", task.Script),
			"Check the file exists and is readable")
		result.Duration = e.now().Sub(start)
		return result
	}
	defer f.Close()

	name := task.RemoteName()
	remotePath := path.Join(Workspace, name)

	e.Log.Info("uploading %s to %s on %s", task.Script, remotePath, e.Endpoint.Alias)
	if err := e.Conn.Upload(f, remotePath); err != nil {
		result.Phase = PhaseUpload
		result.Err = errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Couldn't upload '%s' to %s", name, e.Endpoint.Alias),
			"Check the remote disk isn't full and SFTP is enabled")
		result.Duration = e.now().Sub(start)
		return result
	}

	cmd := e.command(task)
	e.Log.Debug("running on %s: %s", e.Endpoint.Alias, cmd)

	stream := newLineWriter(e.Out, e.Remote, e.Endpoint.Alias, name)
	exitCode, err := e.Conn.ExecStream(cmd, stream, e.ForceTTY)
	stream.Flush()

	result.Phase = PhaseExecute
	result.ExitCode = exitCode
	result.Duration = e.now().Sub(start)

	if err != nil {
		result.Err = errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Script '%s' didn't finish on %s", name, e.Endpoint.Alias),
			"The session may have dropped; check the host and rerun")
		return result
	}
	if exitCode != 0 {
		e.Log.Error("script %s exited %d on %s", name, exitCode, e.Endpoint.Alias)
	} else {
		e.Log.Info("script %s completed on %s in %s", name, e.Endpoint.Alias, result.Duration.Round(time.Millisecond))
	}
	return result
}

// command builds the remote command line for a task: exported session
// environment, chmod, the interpreter invocation, and in-session
// cleanup that preserves the script's exit code.
func (e *Engine) command(task Task) string {
	var sb strings.Builder

	env := e.Env()
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		sb.WriteString("export ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(util.ShellQuote(env[k]))
		sb.WriteString("; ")
	}

	quoted := util.ShellQuotePreserveTilde("~/" + path.Join(Workspace, task.RemoteName()))

	shell := "bash"
	if task.Strict {
		shell = "bash -e"
	}

	sb.WriteString("cd ~ && chmod +x ")
	sb.WriteString(quoted)
	sb.WriteString(" && ")
	sb.WriteString(shell)
	sb.WriteString(" ")
	sb.WriteString(quoted)
	for _, arg := range task.Args {
		sb.WriteString(" ")
		sb.WriteString(util.ShellQuote(arg))
	}
	sb.WriteString("; rc=$?; rm -f ")
	sb.WriteString(quoted)
	sb.WriteString("; exit $rc")

	return sb.String()
}
