package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete sofilab.yaml configuration file.
type Config struct {
	Version int             `yaml:"version" mapstructure:"version"`
	Global  Global          `yaml:"global" mapstructure:"global"`
	Hosts   map[string]Host `yaml:"hosts" mapstructure:"hosts"`

	// Dir is the directory containing the config file, set by the loader.
	// Relative keyfile and script paths resolve against it.
	Dir string `yaml:"-" mapstructure:"-"`
}

// Global holds settings shared by every host.
type Global struct {
	// LogDir is where the event, error, and remote-output logs live.
	// Relative paths resolve against the config directory.
	LogDir string `yaml:"log_dir" mapstructure:"log_dir"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	// Logging toggles file logging on/off.
	Logging bool `yaml:"enable_logging" mapstructure:"enable_logging"`

	// MaxLogSize is the per-file size before rotation (K/M/G suffix).
	MaxLogSize string `yaml:"max_log_size" mapstructure:"max_log_size"`

	// MaxLogFiles is how many rotated files to keep.
	MaxLogFiles int `yaml:"max_log_files" mapstructure:"max_log_files"`

	// Strict makes the remote shell abort a script at its first failing
	// statement (bash -e). Individual scripts can override it.
	Strict bool `yaml:"script_exit_on_error" mapstructure:"script_exit_on_error"`

	// ForceTTY requests a pseudo-terminal for script execution.
	ForceTTY bool `yaml:"force_tty" mapstructure:"force_tty"`

	// Pacing is the delay between scripts in a batch, to stay under
	// connection-rate intrusion-prevention thresholds.
	Pacing time.Duration `yaml:"pacing" mapstructure:"pacing"`

	// ProbeTimeout bounds the TCP liveness probe per port.
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`

	// ConnectTimeout bounds SSH connection establishment.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// ScriptDir is where local payload scripts live.
	// Relative paths resolve against the config directory.
	ScriptDir string `yaml:"script_dir" mapstructure:"script_dir"`
}

// Host defines a remote machine and its connection settings.
type Host struct {
	// Aliases are additional names resolving to this host.
	Aliases []string `yaml:"aliases" mapstructure:"aliases"`

	// Host is the address to connect to. When empty, HostName from
	// ~/.ssh/config for the alias is used.
	Host string `yaml:"host" mapstructure:"host"`

	// User is the remote admin username.
	User string `yaml:"user" mapstructure:"user"`

	// Password enables password authentication as a fallback strategy.
	Password string `yaml:"password" mapstructure:"password"`

	// Port is the configured SSH port. Negotiation may fall back to 22.
	Port int `yaml:"port" mapstructure:"port"`

	// Keyfile is the private key path. When empty, a key at
	// ssh/<alias>_key next to the config file is auto-discovered.
	Keyfile string `yaml:"keyfile" mapstructure:"keyfile"`

	// Scripts run in order by run-scripts. Entries may carry inline
	// arguments: "20_setup.sh --flag" is a name plus arguments.
	Scripts []string `yaml:"scripts" mapstructure:"scripts"`

	// ScriptArgs maps a script name to its configured arguments.
	// Takes precedence over inline and default arguments.
	ScriptArgs map[string][]string `yaml:"script_args" mapstructure:"script_args"`

	// DefaultArgs apply to any script with no other argument source.
	DefaultArgs []string `yaml:"default_args" mapstructure:"default_args"`

	// ScriptDir overrides the global script directory for this host.
	ScriptDir string `yaml:"script_dir" mapstructure:"script_dir"`

	// Strict overrides the global strict mode for this host's scripts.
	Strict *bool `yaml:"strict" mapstructure:"strict"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Global: Global{
			LogDir:         "logs",
			LogLevel:       "INFO",
			Logging:        true,
			MaxLogSize:     "10M",
			MaxLogFiles:    5,
			Strict:         true,
			ForceTTY:       true,
			Pacing:         3 * time.Second,
			ProbeTimeout:   3 * time.Second,
			ConnectTimeout: 5 * time.Second,
			ScriptDir:      "scripts",
		},
		Hosts: make(map[string]Host),
	}
}
