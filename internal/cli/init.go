package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sofibox/sofilab/internal/config"
	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/ui"
)

var initForceFlag bool

// configTemplate is the starter sofilab.yaml. Kept as a literal so
// comments survive; config.DefaultConfig supplies the same defaults at
// load time for anything removed.
const configTemplate = `version: 1

global:
  # Where log files go, relative to this file unless absolute.
  log_dir: logs
  log_level: INFO
  enable_logging: true
  max_log_size: 10M
  max_log_files: 5

  # Abort a script at its first failing command. Hosts can override
  # with their own strict setting.
  script_exit_on_error: true

  # Seconds between scripts in a batch.
  pacing: 3s
  probe_timeout: 3s
  connect_timeout: 5s

  # Local directory holding the scripts, relative to this file.
  script_dir: scripts

hosts:
  pmx:
    aliases: [proxmox]
    host: 192.168.1.10
    user: root
    # password: changeme
    port: 896
    # keyfile: ssh/pmx_key    # auto-discovered at ssh/<alias>_key
    scripts:
      - 10_harden.sh
      - 20_setup.sh --mode full
    script_args:
      20_setup.sh: [--mode, full]
    default_args: []
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter sofilab.yaml",
	Long: `Write a commented sofilab.yaml into the current directory, plus an
empty scripts directory.

Examples:
  sofilab init
  sofilab init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(initForceFlag)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}

func initCommand(force bool) error {
	printer := ui.NewPrinter(os.Stdout)
	if !ui.ColorsEnabled() {
		printer = ui.NewPlainPrinter(os.Stdout)
	}

	path := config.ConfigFileName
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrConfig,
			path+" already exists",
			"Use --force to overwrite it")
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write "+path,
			"Check directory permissions")
	}
	printer.Success("wrote %s", path)

	if err := os.MkdirAll("scripts", 0755); err == nil {
		printer.Success("created scripts/")
	}

	abs, _ := filepath.Abs(path)
	printer.Info("edit %s, drop scripts into scripts/, then: sofilab run-scripts <alias>", abs)
	return nil
}
