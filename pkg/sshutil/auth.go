package sshutil

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// StrategyKind identifies an authentication strategy.
type StrategyKind int

const (
	// KindKey authenticates with an explicit private key file.
	KindKey StrategyKind = iota
	// KindPassword authenticates with a configured password.
	KindPassword
	// KindAgent authenticates with the SSH agent and default identities.
	KindAgent
)

// Strategy is one way of authenticating to a host. The auth selector
// tries strategies in priority order and the engine reuses whichever
// one succeeded.
type Strategy struct {
	Kind     StrategyKind
	KeyPath  string
	Password string
}

// KeyStrategy returns a key-file authentication strategy.
func KeyStrategy(path string) Strategy {
	return Strategy{Kind: KindKey, KeyPath: path}
}

// PasswordStrategy returns a password authentication strategy.
func PasswordStrategy(secret string) Strategy {
	return Strategy{Kind: KindPassword, Password: secret}
}

// AgentStrategy returns an agent/default-identity strategy.
func AgentStrategy() Strategy {
	return Strategy{Kind: KindAgent}
}

// String describes the strategy without leaking secrets.
func (s Strategy) String() string {
	switch s.Kind {
	case KindKey:
		return fmt.Sprintf("key (%s)", s.KeyPath)
	case KindPassword:
		return "password"
	case KindAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// methods builds the ssh.AuthMethod list for this strategy.
func (s Strategy) methods() ([]ssh.AuthMethod, error) {
	switch s.Kind {
	case KindKey:
		auth, err := keyFileAuth(s.KeyPath)
		if err != nil {
			return nil, err
		}
		return []ssh.AuthMethod{auth}, nil

	case KindPassword:
		return []ssh.AuthMethod{ssh.Password(s.Password)}, nil

	case KindAgent:
		var methods []ssh.AuthMethod
		if agentAuth := sshAgentAuth(); agentAuth != nil {
			methods = append(methods, agentAuth)
		}
		for _, keyPath := range defaultKeyPaths() {
			if auth, err := keyFileAuth(keyPath); err == nil {
				methods = append(methods, auth)
			}
		}
		if len(methods) == 0 {
			return nil, fmt.Errorf("no agent or default identities available")
		}
		return methods, nil

	default:
		return nil, fmt.Errorf("unknown auth strategy %d", s.Kind)
	}
}

// keyFileAuth returns an auth method using a private key file.
func keyFileAuth(keyPath string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse key %s: %w", keyPath, err)
	}

	return ssh.PublicKeys(signer), nil
}

// sshAgentAuth returns an auth method using the SSH agent if available.
// Returns nil if the agent is absent or has no keys loaded.
func sshAgentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}
	client := agent.NewClient(conn)

	// Only use agent auth when the agent actually has keys. An empty
	// agent burns an auth attempt against the remote for nothing.
	signers, err := client.Signers()
	if err != nil || len(signers) == 0 {
		conn.Close()
		return nil
	}

	return ssh.PublicKeysCallback(client.Signers)
}

// defaultKeyPaths returns the standard locations for SSH keys.
func defaultKeyPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_rsa"),
		filepath.Join(home, ".ssh", "id_ecdsa"),
	}
}
