// Package orchestrator drives a remote session end to end: negotiate
// the working port, select an auth strategy, then upload and execute
// scripts with the batch runner. CLI commands create one Session per
// target host and operate through it.
package orchestrator

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/sofibox/sofilab/internal/auth"
	"github.com/sofibox/sofilab/internal/batch"
	"github.com/sofibox/sofilab/internal/config"
	"github.com/sofibox/sofilab/internal/engine"
	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/host"
	"github.com/sofibox/sofilab/internal/keys"
	"github.com/sofibox/sofilab/internal/logger"
	"github.com/sofibox/sofilab/pkg/sshutil"
)

// Session is one orchestrated connection to a host. Zero value is not
// usable; build with New, then Connect before running anything.
type Session struct {
	Profile *config.Profile
	Global  config.Global
	Dialer  sshutil.Dialer
	Log     logger.Logger
	Remote  logger.RemoteSink

	// Populated by Connect.
	Endpoint host.Endpoint
	Strategy sshutil.Strategy
	Conn     sshutil.Conn
	Key      *keys.Info
}

// New builds a session for a resolved profile.
func New(profile *config.Profile, global config.Global, dialer sshutil.Dialer, log logger.Logger, remote logger.RemoteSink) *Session {
	return &Session{
		Profile: profile,
		Global:  global,
		Dialer:  dialer,
		Log:     log,
		Remote:  remote,
	}
}

// Connect negotiates the working port and authenticates. Key material
// is discovered here so the engine's script environment and the auth
// chain agree on which key was used.
func (s *Session) Connect() error {
	port, err := host.Negotiate(s.Dialer, s.Profile.Alias, s.Profile.Host, s.Profile.Port, s.Global.ProbeTimeout, s.Log)
	if err != nil {
		return err
	}

	s.Key = keys.Find(s.Profile)
	if s.Key != nil {
		s.Log.Debug("using key %s for %s", s.Key.PrivatePath, s.Profile.Alias)
	}

	chain := auth.Strategies(s.Profile, s.Key)
	conn, strategy, err := auth.Select(s.Dialer, s.Profile, port, chain, s.Global.ConnectTimeout, s.Log)
	if err != nil {
		return err
	}

	s.Endpoint = host.Endpoint{
		Alias:          s.Profile.Alias,
		Host:           s.Profile.Host,
		User:           s.Profile.User,
		ConfiguredPort: s.Profile.Port,
		WorkingPort:    port,
	}
	s.Strategy = strategy
	s.Conn = conn
	return nil
}

// Close releases the connection, if one was established.
func (s *Session) Close() error {
	if s.Conn == nil {
		return nil
	}
	err := s.Conn.Close()
	s.Conn = nil
	return err
}

// Engine returns a script engine bound to this session, streaming
// remote output to out.
func (s *Session) Engine(out io.Writer) *engine.Engine {
	e := engine.New(s.Conn, s.Endpoint, s.Key, s.Remote, s.Log, out)
	e.ForceTTY = s.Global.ForceTTY
	return e
}

// ScriptPath resolves a script reference against the host's script
// directory. Absolute paths are used as given.
func (s *Session) ScriptPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Profile.ScriptDir, name)
}

// Tasks builds the host's configured script sequence in execution
// order. explicitArgs, when non-nil, overrides every script's
// arguments; per-script sources apply otherwise.
func (s *Session) Tasks(explicitArgs []string) ([]engine.Task, error) {
	entries := batch.ParseEntries(s.Profile.Scripts)
	if len(entries) == 0 {
		// No configured list: run what the script directory holds.
		discovered, err := batch.Discover(s.Profile.ScriptDir)
		if err != nil || len(discovered) == 0 {
			return nil, errors.New(errors.ErrConfig,
				fmt.Sprintf("No scripts configured for '%s' and none found in %s", s.Profile.Alias, s.Profile.ScriptDir),
				"Add a scripts list to the host in sofilab.yaml, or drop scripts into the script directory")
		}
		entries = discovered
	}
	batch.Sort(entries)

	tasks := make([]engine.Task, 0, len(entries))
	for _, entry := range entries {
		args := batch.ResolveArgs(explicitArgs, s.Profile.ScriptArgs, entry.Script, entry.InlineArgs, s.Profile.DefaultArgs)
		tasks = append(tasks, engine.Task{
			Script: s.ScriptPath(entry.Script),
			Name:   entry.Script,
			Args:   args,
			Strict: s.Profile.Strict,
		})
	}
	return tasks, nil
}

// RunConfigured executes the host's full configured script sequence.
func (s *Session) RunConfigured(out io.Writer, explicitArgs []string, onStart func(i, total int, task engine.Task)) ([]engine.Result, error) {
	tasks, err := s.Tasks(explicitArgs)
	if err != nil {
		return nil, err
	}

	runner := batch.NewRunner(s.Engine(out), s.Log)
	runner.Pacing = s.Global.Pacing
	runner.OnStart = onStart
	return runner.Run(tasks)
}

// RunScript executes a single script with the standard argument
// precedence applied for that script.
func (s *Session) RunScript(out io.Writer, script string, explicitArgs []string) engine.Result {
	args := batch.ResolveArgs(explicitArgs, s.Profile.ScriptArgs, script, nil, s.Profile.DefaultArgs)
	task := engine.Task{
		Script: s.ScriptPath(script),
		Name:   filepath.Base(script),
		Args:   args,
		Strict: s.Profile.Strict,
	}
	return s.Engine(out).Run(task)
}
