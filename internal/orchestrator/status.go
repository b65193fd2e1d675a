package orchestrator

import (
	"time"

	"github.com/sofibox/sofilab/internal/config"
	"github.com/sofibox/sofilab/internal/host"
	"github.com/sofibox/sofilab/pkg/sshutil"
)

// PortStatus is the probe outcome for one port.
type PortStatus struct {
	Port      int
	Reachable bool
	Err       error
}

// Status is a connectivity report for a host, without authentication.
type Status struct {
	Alias      string
	Host       string
	Configured PortStatus
	Fallback   *PortStatus // nil when the configured port is the standard port
}

// Reachable reports whether any probed port answered.
func (s Status) Reachable() bool {
	if s.Configured.Reachable {
		return true
	}
	return s.Fallback != nil && s.Fallback.Reachable
}

// WorkingPort returns the port a connection would use, or 0 when the
// host is down.
func (s Status) WorkingPort() int {
	if s.Configured.Reachable {
		return s.Configured.Port
	}
	if s.Fallback != nil && s.Fallback.Reachable {
		return s.Fallback.Port
	}
	return 0
}

// ProbeStatus checks host reachability the same way Connect would,
// probe only, no SSH handshake. Port overrides the profile's
// configured port when non-zero.
func ProbeStatus(dialer sshutil.Dialer, profile *config.Profile, port int, timeout time.Duration) Status {
	if port == 0 {
		port = profile.Port
	}

	status := Status{
		Alias: profile.Alias,
		Host:  profile.Host,
	}

	err := dialer.Probe(profile.Host, port, timeout)
	status.Configured = PortStatus{Port: port, Reachable: err == nil, Err: err}

	if err != nil && port != host.StandardPort {
		fbErr := dialer.Probe(profile.Host, host.StandardPort, timeout)
		status.Fallback = &PortStatus{Port: host.StandardPort, Reachable: fbErr == nil, Err: fbErr}
	}
	return status
}
