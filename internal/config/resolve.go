package config

import (
	"path/filepath"
	"strconv"

	"github.com/kevinburke/ssh_config"
	"github.com/sofibox/sofilab/internal/errors"
)

// Profile is the resolved, read-only connection profile for one alias.
// Built once per invocation; the orchestrator borrows it and never
// mutates it.
type Profile struct {
	Alias       string // the alias the operator typed
	Name        string // the config map key
	Aliases     []string
	Host        string
	User        string
	Password    string
	Port        int
	Keyfile     string
	Scripts     []string
	ScriptArgs  map[string][]string
	DefaultArgs []string
	ScriptDir   string // absolute local script directory
	Strict      bool
	ConfigDir   string
}

// Resolve maps an alias to its connection profile. The alias matches
// either a hosts map key or any entry in a host's aliases list.
//
// Fields left blank in the config are filled from ~/.ssh/config for the
// alias (HostName, User, Port), so profiles can lean on existing SSH
// setup instead of repeating it.
func (c *Config) Resolve(alias string) (*Profile, error) {
	name, host, ok := c.lookup(alias)
	if !ok {
		return nil, errors.New(errors.ErrConfig,
			"Unknown host-alias: "+alias,
			"Check the hosts section of sofilab.yaml, or run 'sofilab init'")
	}

	p := &Profile{
		Alias:       alias,
		Name:        name,
		Aliases:     append([]string{name}, host.Aliases...),
		Host:        host.Host,
		User:        host.User,
		Password:    host.Password,
		Port:        host.Port,
		Keyfile:     host.Keyfile,
		Scripts:     host.Scripts,
		ScriptArgs:  host.ScriptArgs,
		DefaultArgs: host.DefaultArgs,
		Strict:      c.Global.Strict,
		ConfigDir:   c.Dir,
	}
	if host.Strict != nil {
		p.Strict = *host.Strict
	}

	// Fill gaps from ~/.ssh/config.
	if p.Host == "" {
		if hn := ssh_config.Get(alias, "HostName"); hn != "" {
			p.Host = hn
		}
	}
	if p.User == "" {
		p.User = ssh_config.Get(alias, "User")
	}
	if p.Port == 0 {
		if port := ssh_config.Get(alias, "Port"); port != "" {
			if n, err := strconv.Atoi(port); err == nil {
				p.Port = n
			}
		}
	}
	if p.Port == 0 {
		p.Port = 22
	}
	if p.Keyfile != "" && !filepath.IsAbs(p.Keyfile) {
		p.Keyfile = filepath.Join(c.Dir, p.Keyfile)
	}

	scriptDir := host.ScriptDir
	if scriptDir == "" {
		scriptDir = c.Global.ScriptDir
	}
	if !filepath.IsAbs(scriptDir) {
		scriptDir = filepath.Join(c.Dir, scriptDir)
	}
	p.ScriptDir = scriptDir

	if p.Host == "" {
		return nil, errors.New(errors.ErrConfig,
			"No host address for alias: "+alias,
			"Set 'host:' in sofilab.yaml or a HostName in ~/.ssh/config")
	}
	if p.User == "" {
		return nil, errors.New(errors.ErrConfig,
			"No user for alias: "+alias,
			"Set 'user:' in sofilab.yaml or a User in ~/.ssh/config")
	}

	return p, nil
}

func (c *Config) lookup(alias string) (string, Host, bool) {
	if host, ok := c.Hosts[alias]; ok {
		return alias, host, true
	}
	for name, host := range c.Hosts {
		for _, a := range host.Aliases {
			if a == alias {
				return name, host, true
			}
		}
	}
	return "", Host{}, false
}
