// Package host negotiates the transport endpoint for a configured host:
// which TCP port SSH actually listens on, given a configured port and a
// single fallback to the standard port.
package host

import (
	"fmt"
	"time"

	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/logger"
)

// StandardPort is the fallback SSH port when the configured port does
// not answer. Common in lab setups where a freshly reinstalled machine
// listens on 22 before its hardening script moves sshd to a custom port.
const StandardPort = 22

// Endpoint is a negotiated transport endpoint. ConfiguredPort and
// WorkingPort differ when the fallback was taken; scripts receive both
// so a hardening script can tell intent from reality.
type Endpoint struct {
	Alias          string
	Host           string
	User           string
	ConfiguredPort int
	WorkingPort    int
}

// Fallback reports whether negotiation fell back to the standard port.
func (e Endpoint) Fallback() bool {
	return e.WorkingPort != e.ConfiguredPort
}

// Prober tests TCP reachability of a port without authenticating.
type Prober interface {
	Probe(host string, port int, timeout time.Duration) error
}

// Negotiate determines the working SSH port for host. The configured
// port is probed first; if unreachable and different from StandardPort,
// StandardPort is probed once. No further candidates are tried.
//
// Probes are plain TCP connects: no SSH handshake, no auth attempt, so
// negotiation cannot trip fail2ban-style counters on the remote.
func Negotiate(prober Prober, alias, host string, configuredPort int, timeout time.Duration, log logger.Logger) (int, error) {
	err := prober.Probe(host, configuredPort, timeout)
	if err == nil {
		log.Debug("port %d on %s is reachable", configuredPort, host)
		return configuredPort, nil
	}

	if configuredPort == StandardPort {
		return 0, errors.WrapWithCode(err, errors.ErrNetwork,
			fmt.Sprintf("Can't reach '%s' on port %d", alias, configuredPort),
			"Check the host is up and the port is correct: ping "+host)
	}

	log.Warn("port %d on %s unreachable, trying port %d: %v", configuredPort, host, StandardPort, err)

	fallbackErr := prober.Probe(host, StandardPort, timeout)
	if fallbackErr == nil {
		log.Info("using fallback port %d for %s (configured %d)", StandardPort, alias, configuredPort)
		return StandardPort, nil
	}

	return 0, errors.WrapWithCode(err, errors.ErrNetwork,
		fmt.Sprintf("Can't reach '%s' on port %d or %d", alias, configuredPort, StandardPort),
		"Check the host is up and reachable: ping "+host)
}
