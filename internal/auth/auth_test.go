package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofibox/sofilab/internal/config"
	sferrors "github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/keys"
	"github.com/sofibox/sofilab/internal/logger"
	"github.com/sofibox/sofilab/pkg/sshutil"
	sshtesting "github.com/sofibox/sofilab/pkg/sshutil/testing"
)

func testProfile() *config.Profile {
	return &config.Profile{
		Alias:    "pmx",
		Host:     "10.0.0.5",
		User:     "admin",
		Password: "secret",
		Port:     896,
	}
}

func writeKey(t *testing.T) *keys.Info {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pmx_key")
	require.NoError(t, os.WriteFile(path, []byte("key material"), 0600))
	return keys.Find(&config.Profile{Keyfile: path})
}

func TestStrategiesFullChain(t *testing.T) {
	chain := Strategies(testProfile(), writeKey(t))
	require.Len(t, chain, 3)
	assert.Equal(t, sshutil.KindKey, chain[0].Kind)
	assert.Equal(t, sshutil.KindPassword, chain[1].Kind)
	assert.Equal(t, sshutil.KindAgent, chain[2].Kind)
}

func TestStrategiesWithoutKeyOrPassword(t *testing.T) {
	profile := testProfile()
	profile.Password = ""

	chain := Strategies(profile, nil)
	require.Len(t, chain, 1)
	assert.Equal(t, sshutil.KindAgent, chain[0].Kind)
}

func TestSelectFirstStrategyWins(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	profile := testProfile()
	chain := Strategies(profile, writeKey(t))

	conn, strategy, err := Select(d, profile, 896, chain, time.Second, logger.Noop())
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, sshutil.KindKey, strategy.Kind)
	require.Len(t, d.Attempts, 1)
	assert.Equal(t, "admin", d.Attempts[0].User)
	assert.Equal(t, 896, d.Attempts[0].Port)
}

func TestSelectAuthRejectFallsThrough(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.DialErrs[sshutil.KindKey] = errors.New("ssh: unable to authenticate, attempted methods [publickey]")

	profile := testProfile()
	chain := Strategies(profile, writeKey(t))

	log := logger.NewBufferLogger()
	conn, strategy, err := Select(d, profile, 896, chain, time.Second, log)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, sshutil.KindPassword, strategy.Kind)
	assert.Len(t, d.Attempts, 2)
	assert.True(t, log.HasLevel("WARN"))
}

func TestSelectNetworkFailureAborts(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.DialErrs[sshutil.KindKey] = errors.New("dial tcp 10.0.0.5:896: i/o timeout")

	profile := testProfile()
	chain := Strategies(profile, writeKey(t))

	_, _, err := Select(d, profile, 896, chain, time.Second, logger.Noop())
	require.Error(t, err)
	assert.True(t, sferrors.IsCode(err, sferrors.ErrNetwork))
	// No fall-through to password or agent after a transport failure.
	assert.Len(t, d.Attempts, 1)
}

func TestSelectAllRejected(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	reject := errors.New("permission denied (publickey,password)")
	d.DialErrs[sshutil.KindKey] = reject
	d.DialErrs[sshutil.KindPassword] = reject
	d.DialErrs[sshutil.KindAgent] = reject

	profile := testProfile()
	chain := Strategies(profile, writeKey(t))

	_, _, err := Select(d, profile, 896, chain, time.Second, logger.Noop())
	require.Error(t, err)
	assert.True(t, sferrors.IsCode(err, sferrors.ErrAuth))
	assert.Len(t, d.Attempts, 3)
}

func TestSelectHostKeyChangedRemediatesOnce(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.DialErrsOnce = true
	d.DialErrs[sshutil.KindKey] = &sshutil.HostKeyMismatchError{
		Hostname: "10.0.0.5", ReceivedType: "ssh-ed25519",
	}

	var removedHost string
	var removedPorts []int
	orig := removeKnownHost
	removeKnownHost = func(host string, ports ...int) (int, error) {
		removedHost = host
		removedPorts = ports
		return 2, nil
	}
	defer func() { removeKnownHost = orig }()

	profile := testProfile()
	chain := Strategies(profile, writeKey(t))

	log := logger.NewBufferLogger()
	conn, strategy, err := Select(d, profile, 896, chain, time.Second, log)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, sshutil.KindKey, strategy.Kind)
	assert.Equal(t, "10.0.0.5", removedHost)
	assert.Equal(t, []int{896, 22}, removedPorts)
	assert.True(t, log.Contains("host key"))
	// Same strategy retried after the purge.
	assert.Len(t, d.Attempts, 2)
	assert.Equal(t, sshutil.KindKey, d.Attempts[1].Strategy.Kind)
}

func TestSelectHostKeyStillMismatchedAborts(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.DialErrs[sshutil.KindKey] = &sshutil.HostKeyMismatchError{
		Hostname: "10.0.0.5", ReceivedType: "ssh-ed25519",
	}

	orig := removeKnownHost
	removeKnownHost = func(host string, ports ...int) (int, error) { return 0, nil }
	defer func() { removeKnownHost = orig }()

	profile := testProfile()
	chain := Strategies(profile, writeKey(t))

	_, _, err := Select(d, profile, 896, chain, time.Second, logger.Noop())
	require.Error(t, err)
	// One attempt, one retry, no third.
	assert.Len(t, d.Attempts, 2)
}

func TestSelectEmptyChain(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	_, _, err := Select(d, testProfile(), 896, nil, time.Second, logger.Noop())
	require.Error(t, err)
	assert.True(t, sferrors.IsCode(err, sferrors.ErrAuth))
	assert.Empty(t, d.Attempts)
}
