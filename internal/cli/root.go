// Package cli wires the sofilab commands: per-host script execution,
// batch runs, connectivity checks, and log management.
package cli

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofibox/sofilab/internal/config"
	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/logger"
	"github.com/sofibox/sofilab/internal/orchestrator"
	"github.com/sofibox/sofilab/internal/ui"
	"github.com/sofibox/sofilab/pkg/sshutil"
)

var (
	configFlag  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "sofilab",
	Short: "Manage lab servers over SSH",
	Long: `Sofilab runs provisioning and maintenance scripts on lab servers.

Hosts, credentials, and script sequences live in sofilab.yaml. Each host
gets an alias; commands target an alias and sofilab handles port fallback,
authentication, script upload, and logging.

Examples:
  sofilab run-scripts pmx
  sofilab run-script pmx status.sh
  sofilab status pmx
  sofilab login pmx`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitCodeError carries a remote script's exit status out of a command
// so deferred cleanup runs before the process exits.
type exitCodeError struct {
	msg  string
	code int
}

func (e *exitCodeError) Error() string { return e.msg }

// exitWithCode builds the error that maps to a non-zero process status.
func exitWithCode(code int, format string, args ...interface{}) error {
	return &exitCodeError{msg: fmt.Sprintf(format, args...), code: code}
}

// Execute runs the root command and renders structured errors. Script
// failures carry their remote exit code through to the process status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		var ec *exitCodeError
		if stderrors.As(err, &ec) {
			os.Exit(ec.code)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "path to sofilab.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log debug events")
}

// loadConfig finds and parses the config file.
func loadConfig() (*config.Config, error) {
	path, err := config.Find(configFlag)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New(errors.ErrConfig,
			"No sofilab.yaml found",
			"Run 'sofilab init' to create one, or point --config at it")
	}
	return config.Load(path)
}

// newLogger builds the event logger from config, honoring --verbose.
func newLogger(cfg *config.Config) logger.Logger {
	if !cfg.Global.Logging {
		return logger.Noop()
	}
	level := cfg.Global.LogLevel
	if verboseFlag {
		level = "DEBUG"
	}
	return logger.New(logger.Options{
		Dir:      cfg.LogDirAbs(),
		Level:    level,
		MaxSize:  cfg.MaxLogSizeMB(),
		MaxFiles: cfg.Global.MaxLogFiles,
	})
}

// newRemoteSink builds the raw remote-output sink from config.
func newRemoteSink(cfg *config.Config) logger.RemoteSink {
	if !cfg.Global.Logging {
		return logger.NewBufferRemote()
	}
	return logger.NewRemoteLog(cfg.LogDirAbs(), logger.Options{
		MaxSize:  cfg.MaxLogSizeMB(),
		MaxFiles: cfg.Global.MaxLogFiles,
	})
}

// newSession resolves an alias and builds an unconnected session plus
// the console printer commands share.
func newSession(alias string) (*orchestrator.Session, *ui.Printer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	profile, err := cfg.Resolve(alias)
	if err != nil {
		return nil, nil, err
	}

	log := newLogger(cfg)
	session := orchestrator.New(profile, cfg.Global, sshutil.NewDialer(), log, newRemoteSink(cfg))

	printer := ui.NewPrinter(os.Stdout)
	if !ui.ColorsEnabled() {
		printer = ui.NewPlainPrinter(os.Stdout)
	}
	return session, printer, nil
}
