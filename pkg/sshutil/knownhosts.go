package sshutil

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// HostKeyMismatchError reports that the remote host identity changed
// relative to known_hosts. The auth selector auto-remediates this once
// (stale entry purged, warning logged) to support the common
// server-reinstalled scenario.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// knownHostsMu serializes writes to the known_hosts file. Unknown hosts
// are appended accept-new style during the handshake callback.
var knownHostsMu sync.Mutex

func knownHostsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

// hostKeyCallback verifies host keys against known_hosts with
// accept-new semantics: unknown hosts are recorded and trusted, changed
// hosts fail with HostKeyMismatchError.
func hostKeyCallback() (ssh.HostKeyCallback, error) {
	path := knownHostsPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create .ssh directory: %w", err)
		}
		if err := os.WriteFile(path, []byte{}, 0600); err != nil {
			return nil, fmt.Errorf("create known_hosts: %w", err)
		}
	}

	verify, err := knownhosts.New(path)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := verify(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if stderrors.As(err, &keyErr) {
			if len(keyErr.Want) > 0 {
				return &HostKeyMismatchError{
					Hostname:     hostname,
					ReceivedType: key.Type(),
					KnownHosts:   path,
				}
			}
			// Unknown host: record and accept.
			return appendKnownHost(path, hostname, remote, key)
		}
		return err
	}, nil
}

func appendKnownHost(path, hostname string, remote net.Addr, key ssh.PublicKey) error {
	knownHostsMu.Lock()
	defer knownHostsMu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("record host key: %w", err)
	}
	defer f.Close()

	addrs := []string{hostname}
	if remote != nil && remote.String() != hostname {
		addrs = append(addrs, remote.String())
	}
	_, err = fmt.Fprintln(f, knownhosts.Line(addrs, key))
	return err
}

// RemoveKnownHost purges known_hosts entries for a host on the given
// ports, plus the bare hostname entry. Returns how many lines were
// removed. Used both by the reset-hostkey command and by the auth
// selector's changed-identity auto-remediation.
func RemoveKnownHost(host string, ports ...int) (int, error) {
	return removeKnownHostFrom(knownHostsPath(), host, ports...)
}

func removeKnownHostFrom(path, host string, ports ...int) (int, error) {
	knownHostsMu.Lock()
	defer knownHostsMu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	targets := map[string]bool{host: true}
	for _, port := range ports {
		targets[fmt.Sprintf("[%s]:%d", host, port)] = true
	}

	var kept []string
	removed := 0
	for _, line := range strings.Split(string(data), "\n") {
		if matchesKnownHost(line, targets) {
			removed++
			continue
		}
		kept = append(kept, line)
	}

	if removed == 0 {
		return 0, nil
	}

	out := strings.Join(kept, "\n")
	if err := os.WriteFile(path, []byte(out), 0600); err != nil {
		return 0, err
	}
	return removed, nil
}

// matchesKnownHost checks whether a known_hosts line names any target.
// The first field is a comma-separated host pattern list; hashed
// entries cannot be matched and are kept.
func matchesKnownHost(line string, targets map[string]bool) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 3 {
		return false
	}

	for _, name := range strings.Split(fields[0], ",") {
		if targets[name] {
			return true
		}
	}
	return false
}
