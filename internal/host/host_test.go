package host

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sferrors "github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/logger"
	sshtesting "github.com/sofibox/sofilab/pkg/sshutil/testing"
)

func TestNegotiateConfiguredPort(t *testing.T) {
	d := sshtesting.NewFakeDialer()

	port, err := Negotiate(d, "pmx", "10.0.0.5", 896, time.Second, logger.Noop())
	require.NoError(t, err)
	assert.Equal(t, 896, port)
	assert.Equal(t, []int{896}, d.Probes)
}

func TestNegotiateFallsBackToStandardPort(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.ProbeErrs[896] = errors.New("dial tcp 10.0.0.5:896: i/o timeout")

	buf := logger.NewBufferLogger()
	port, err := Negotiate(d, "pmx", "10.0.0.5", 896, time.Second, buf)
	require.NoError(t, err)
	assert.Equal(t, 22, port)
	assert.Equal(t, []int{896, 22}, d.Probes)
	assert.True(t, buf.Contains("fallback port 22"))
}

func TestNegotiateBothPortsDown(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.ProbeErrs[896] = errors.New("dial tcp 10.0.0.5:896: i/o timeout")
	d.ProbeErrs[22] = errors.New("dial tcp 10.0.0.5:22: connect: connection refused")

	_, err := Negotiate(d, "pmx", "10.0.0.5", 896, time.Second, logger.Noop())
	require.Error(t, err)
	assert.True(t, sferrors.IsCode(err, sferrors.ErrNetwork))
	// Exactly two probes, no third candidate.
	assert.Equal(t, []int{896, 22}, d.Probes)
	// No authenticated connection was ever attempted.
	assert.Empty(t, d.Attempts)
}

func TestNegotiateStandardPortNoSecondProbe(t *testing.T) {
	d := sshtesting.NewFakeDialer()
	d.ProbeErrs[22] = errors.New("connect: no route to host")

	_, err := Negotiate(d, "pmx", "10.0.0.5", 22, time.Second, logger.Noop())
	require.Error(t, err)
	assert.Equal(t, []int{22}, d.Probes)
}

func TestEndpointFallback(t *testing.T) {
	e := Endpoint{ConfiguredPort: 896, WorkingPort: 22}
	assert.True(t, e.Fallback())

	e.WorkingPort = 896
	assert.False(t, e.Fallback())
}
