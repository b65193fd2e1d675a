package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sofibox/sofilab/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "sofilab.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/sofilab"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	// Script names carry dots (20_setup.sh); viper's default "." key
	// delimiter would split them into nested keys, so use one that
	// never appears in config keys.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'sofilab init' to create one, or specify a path with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. sofilab.yaml in current directory
// 3. sofilab.yaml in parent directories (stops at git root or home)
// 4. ~/.config/sofilab/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			break
		}
		dir = parent

		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		// Stop at git root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
	}

	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	setDefaults(v)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// setDefaults configures viper defaults so partial config files get the
// same values DefaultConfig provides.
func setDefaults(v *viper.Viper) {
	v.SetDefault("global::log_dir", "logs")
	v.SetDefault("global::log_level", "INFO")
	v.SetDefault("global::enable_logging", true)
	v.SetDefault("global::max_log_size", "10M")
	v.SetDefault("global::max_log_files", 5)
	v.SetDefault("global::script_exit_on_error", true)
	v.SetDefault("global::force_tty", true)
	v.SetDefault("global::pacing", "3s")
	v.SetDefault("global::probe_timeout", "3s")
	v.SetDefault("global::connect_timeout", "5s")
	v.SetDefault("global::script_dir", "scripts")
}

// LogDirAbs returns the log directory as an absolute path, or empty when
// logging is disabled.
func (c *Config) LogDirAbs() string {
	if !c.Global.Logging {
		return ""
	}
	if filepath.IsAbs(c.Global.LogDir) {
		return c.Global.LogDir
	}
	return filepath.Join(c.Dir, c.Global.LogDir)
}

// MaxLogSizeMB parses the human size string ("10M", "512K", "1G") into
// whole megabytes, never returning less than 1.
func (c *Config) MaxLogSizeMB() int {
	s := strings.TrimSpace(strings.ToUpper(c.Global.MaxLogSize))
	if s == "" {
		return 10
	}

	mult := 1
	switch s[len(s)-1] {
	case 'G':
		mult = 1024
		s = s[:len(s)-1]
	case 'M':
		s = s[:len(s)-1]
	case 'K':
		mult = 0
		s = s[:len(s)-1]
	}

	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 10
	}
	if mult == 0 {
		// Kilobytes round up to one megabyte; lumberjack counts in MB.
		return 1
	}
	return n * mult
}
