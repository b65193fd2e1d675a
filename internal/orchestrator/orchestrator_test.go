package orchestrator

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofibox/sofilab/internal/config"
	sferrors "github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/engine"
	"github.com/sofibox/sofilab/internal/logger"
	"github.com/sofibox/sofilab/pkg/sshutil"
	sshtesting "github.com/sofibox/sofilab/pkg/sshutil/testing"
)

// labProfile builds a profile with a real key file and script dir on disk.
func labProfile(t *testing.T) *config.Profile {
	t.Helper()
	dir := t.TempDir()

	keyPath := filepath.Join(dir, "pmx_key")
	require.NoError(t, os.WriteFile(keyPath, []byte("private"), 0600))
	require.NoError(t, os.WriteFile(keyPath+".pub", []byte("ssh-ed25519 AAAA admin@lab\n"), 0644))

	scriptDir := filepath.Join(dir, "scripts")
	require.NoError(t, os.MkdirAll(scriptDir, 0755))
	for _, name := range []string{"10_harden.sh", "20_deploy.sh", "status.sh"} {
		require.NoError(t, os.WriteFile(filepath.Join(scriptDir, name), []byte("#!/bin/bash\necho "+name+"\n"), 0755))
	}

	return &config.Profile{
		Alias:     "pmx",
		Name:      "pmx",
		Aliases:   []string{"pmx"},
		Host:      "10.0.0.5",
		User:      "admin",
		Password:  "secret",
		Port:      896,
		Keyfile:   keyPath,
		Scripts:   []string{"20_deploy.sh", "10_harden.sh"},
		ScriptDir: scriptDir,
		Strict:    true,
		ConfigDir: dir,
	}
}

func testGlobal() config.Global {
	g := config.DefaultConfig().Global
	g.Pacing = 0
	return g
}

func TestConnectFallbackToStandardPort(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.ProbeErrs[896] = errors.New("dial tcp 10.0.0.5:896: i/o timeout")

	s := New(labProfile(t), testGlobal(), d, logger.Noop(), nil)
	require.NoError(t, s.Connect())
	defer s.Close()

	assert.Equal(t, 896, s.Endpoint.ConfiguredPort)
	assert.Equal(t, 22, s.Endpoint.WorkingPort)
	assert.True(t, s.Endpoint.Fallback())
	assert.Equal(t, sshutil.KindKey, s.Strategy.Kind)

	// The authenticated dial went to the fallback port.
	require.Len(t, d.Attempts, 1)
	assert.Equal(t, 22, d.Attempts[0].Port)

	// Scripts see both the intended and the actual port.
	env := s.Engine(nil).Env()
	assert.Equal(t, "896", env["SSH_PORT"])
	assert.Equal(t, "22", env["ACTUAL_PORT"])
	assert.Equal(t, "admin", env["ADMIN_USER"])
	assert.True(t, strings.HasSuffix(env["SSH_KEY_PATH"], "pmx_key"))
}

func TestConnectHostDown(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.ProbeErrs[896] = errors.New("i/o timeout")
	d.ProbeErrs[22] = errors.New("connection refused")

	s := New(labProfile(t), testGlobal(), d, logger.Noop(), nil)
	err := s.Connect()
	require.Error(t, err)
	assert.True(t, sferrors.IsCode(err, sferrors.ErrNetwork))
	assert.Empty(t, d.Attempts)
}

func TestConnectAuthFallsThroughToPassword(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.DialErrs[sshutil.KindKey] = errors.New("permission denied (publickey)")

	s := New(labProfile(t), testGlobal(), d, logger.Noop(), nil)
	require.NoError(t, s.Connect())
	defer s.Close()

	assert.Equal(t, sshutil.KindPassword, s.Strategy.Kind)
}

func TestTasksOrderedAndStrict(t *testing.T) {
	s := New(labProfile(t), testGlobal(), sshtesting.NewFakeDialer(), logger.Noop(), nil)

	tasks, err := s.Tasks(nil)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "10_harden.sh", tasks[0].Name)
	assert.Equal(t, "20_deploy.sh", tasks[1].Name)
	assert.True(t, tasks[0].Strict)
	assert.True(t, filepath.IsAbs(tasks[0].Script))
}

func TestTasksDiscoveredWhenNoneConfigured(t *testing.T) {
	profile := labProfile(t)
	profile.Scripts = nil

	s := New(profile, testGlobal(), sshtesting.NewFakeDialer(), logger.Noop(), nil)
	tasks, err := s.Tasks(nil)
	require.NoError(t, err)

	// Everything in the script directory, numbered scripts first.
	require.Len(t, tasks, 3)
	assert.Equal(t, "10_harden.sh", tasks[0].Name)
	assert.Equal(t, "20_deploy.sh", tasks[1].Name)
	assert.Equal(t, "status.sh", tasks[2].Name)
}

func TestTasksNoScriptsAnywhere(t *testing.T) {
	profile := labProfile(t)
	profile.Scripts = nil
	profile.ScriptDir = t.TempDir()

	s := New(profile, testGlobal(), sshtesting.NewFakeDialer(), logger.Noop(), nil)
	_, err := s.Tasks(nil)
	require.Error(t, err)
	assert.True(t, sferrors.IsCode(err, sferrors.ErrConfig))
}

func TestRunConfiguredEndToEnd(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	s := New(labProfile(t), testGlobal(), d, logger.Noop(), logger.NewBufferRemote())
	require.NoError(t, s.Connect())
	defer s.Close()

	var out bytes.Buffer
	var started []string
	results, err := s.RunConfigured(&out, nil, func(i, total int, task engine.Task) {
		started = append(started, task.RemoteName())
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []string{"10_harden.sh", "20_deploy.sh"}, started)

	// Both scripts were uploaded into the workspace.
	_, ok := d.Conn.Uploaded(".sofilab_scripts/10_harden.sh")
	assert.True(t, ok)
	_, ok = d.Conn.Uploaded(".sofilab_scripts/20_deploy.sh")
	assert.True(t, ok)
}

func TestRunConfiguredFailFast(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.Conn.Respond("10_harden", sshtesting.CommandResponse{ExitCode: 2})

	s := New(labProfile(t), testGlobal(), d, logger.Noop(), nil)
	require.NoError(t, s.Connect())
	defer s.Close()

	results, err := s.RunConfigured(nil, nil, nil)
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].ExitCode)

	// The second script never ran.
	for _, cmd := range d.Conn.Commands {
		assert.NotContains(t, cmd, "20_deploy.sh")
	}
}

func TestRunScriptSingle(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	s := New(labProfile(t), testGlobal(), d, logger.Noop(), nil)
	require.NoError(t, s.Connect())
	defer s.Close()

	result := s.RunScript(nil, "status.sh", []string{"-v"})
	require.True(t, result.Succeeded())

	require.Len(t, d.Conn.Commands, 1)
	assert.Contains(t, d.Conn.Commands[0], "'.sofilab_scripts/status.sh' '-v'")
}

func TestProbeStatusFallback(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.ProbeErrs[896] = errors.New("i/o timeout")

	status := ProbeStatus(d, labProfile(t), 0, testGlobal().ProbeTimeout)
	assert.False(t, status.Configured.Reachable)
	require.NotNil(t, status.Fallback)
	assert.True(t, status.Fallback.Reachable)
	assert.True(t, status.Reachable())
	assert.Equal(t, 22, status.WorkingPort())
}

func TestProbeStatusDown(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.ProbeErrs[896] = errors.New("i/o timeout")
	d.ProbeErrs[22] = errors.New("refused")

	status := ProbeStatus(d, labProfile(t), 0, testGlobal().ProbeTimeout)
	assert.False(t, status.Reachable())
	assert.Equal(t, 0, status.WorkingPort())
}

func TestProbeStatusPortOverride(t *testing.T) {
	d := sshtesting.NewFakeDialer()

	status := ProbeStatus(d, labProfile(t), 2222, testGlobal().ProbeTimeout)
	assert.Equal(t, 2222, status.Configured.Port)
	assert.True(t, status.Configured.Reachable)
	assert.Nil(t, status.Fallback)
	assert.Equal(t, []int{2222}, d.Probes)
}
