// Package auth selects a working authentication strategy for a host.
//
// Strategies are tried in a fixed priority order: configured or
// discovered key file, then configured password, then the SSH agent
// with default identities. An auth rejection falls through to the next
// strategy; a network-level failure aborts immediately, because when
// the transport is down no strategy can do better and retrying only
// feeds intrusion-prevention counters on the remote.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/sofibox/sofilab/internal/config"
	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/host"
	"github.com/sofibox/sofilab/internal/keys"
	"github.com/sofibox/sofilab/internal/logger"
	"github.com/sofibox/sofilab/pkg/sshutil"
)

// removeKnownHost is swappable so tests don't touch ~/.ssh/known_hosts.
var removeKnownHost = sshutil.RemoveKnownHost

// Strategies builds the ordered strategy chain for a profile. The key
// strategy is present only when a key file actually exists, and the
// password strategy only when the profile configures one. The agent
// strategy is always last.
func Strategies(profile *config.Profile, key *keys.Info) []sshutil.Strategy {
	var chain []sshutil.Strategy
	if key != nil {
		chain = append(chain, sshutil.KeyStrategy(key.PrivatePath))
	}
	if profile.Password != "" {
		chain = append(chain, sshutil.PasswordStrategy(profile.Password))
	}
	chain = append(chain, sshutil.AgentStrategy())
	return chain
}

// Select dials host:port trying each strategy in order and returns the
// first authenticated connection along with the strategy that worked.
//
// A changed host identity is remediated once: the stale known_hosts
// entries for the host are purged, a warning is logged, and the same
// strategy is retried. A second mismatch aborts.
func Select(dialer sshutil.Dialer, profile *config.Profile, port int, strategies []sshutil.Strategy, timeout time.Duration, log logger.Logger) (sshutil.Conn, sshutil.Strategy, error) {
	if len(strategies) == 0 {
		return nil, sshutil.Strategy{}, errors.New(errors.ErrAuth,
			fmt.Sprintf("No way to authenticate to '%s'", profile.Alias),
			"Configure a keyfile or password for the host, or load a key: ssh-add -l")
	}

	var rejected []string
	hostKeyCleared := false

	for i := 0; i < len(strategies); i++ {
		strategy := strategies[i]
		log.Debug("trying %s auth for %s@%s:%d", strategy, profile.User, profile.Host, port)

		conn, err := dialer.Dial(profile.Host, port, profile.User, strategy, timeout)
		if err == nil {
			log.Info("authenticated to %s:%d with %s", profile.Host, port, strategy)
			return conn, strategy, nil
		}

		switch sshutil.Classify(err) {
		case sshutil.FailAuth:
			log.Warn("%s auth rejected for %s: %v", strategy, profile.Alias, err)
			rejected = append(rejected, strategy.String())

		case sshutil.FailHostKey:
			if hostKeyCleared {
				return nil, sshutil.Strategy{}, errors.WrapWithCode(err, errors.ErrNetwork,
					fmt.Sprintf("Host key for '%s' still doesn't match after resetting it", profile.Alias),
					"Verify the host manually: ssh "+profile.Host)
			}
			removed, rmErr := removeKnownHost(profile.Host, port, host.StandardPort)
			if rmErr != nil {
				return nil, sshutil.Strategy{}, errors.WrapWithCode(rmErr, errors.ErrNetwork,
					"Couldn't update known_hosts",
					"Remove the entry manually: ssh-keygen -R "+profile.Host)
			}
			log.Warn("host key for %s changed; removed %d known_hosts entries and retrying", profile.Host, removed)
			hostKeyCleared = true
			i-- // retry the same strategy

		case sshutil.FailNetwork:
			return nil, sshutil.Strategy{}, errors.WrapWithCode(err, errors.ErrNetwork,
				fmt.Sprintf("Lost the connection to '%s' while authenticating", profile.Alias),
				"Check the host is still reachable: ping "+profile.Host)

		default:
			return nil, sshutil.Strategy{}, errors.WrapWithCode(err, errors.ErrNetwork,
				fmt.Sprintf("SSH handshake with '%s' didn't go through", profile.Alias),
				"Try connecting manually: ssh "+profile.Host)
		}
	}

	return nil, sshutil.Strategy{}, errors.New(errors.ErrAuth,
		fmt.Sprintf("Every auth method was rejected by '%s' (%s)", profile.Alias, strings.Join(rejected, ", ")),
		"Check the configured key and password, and what the agent holds: ssh-add -l")
}
