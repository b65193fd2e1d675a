package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sofibox/sofilab/internal/host"
	"github.com/sofibox/sofilab/internal/ui"
	"github.com/sofibox/sofilab/pkg/sshutil"
)

var resetHostkeyCmd = &cobra.Command{
	Use:   "reset-hostkey <alias>",
	Short: "Forget a host's recorded SSH identity",
	Long: `Remove the host's entries from ~/.ssh/known_hosts.

Use after reinstalling a server, when its SSH identity legitimately
changed. Entries for the configured port, port 22, and the bare
hostname are all removed; the next connection records the new key.

Examples:
  sofilab reset-hostkey pmx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resetHostkeyCommand(args[0])
	},
}

func init() {
	rootCmd.AddCommand(resetHostkeyCmd)
}

func resetHostkeyCommand(alias string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	profile, err := cfg.Resolve(alias)
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)
	if !ui.ColorsEnabled() {
		printer = ui.NewPlainPrinter(os.Stdout)
	}

	removed, err := sshutil.RemoveKnownHost(profile.Host, profile.Port, host.StandardPort)
	if err != nil {
		return err
	}

	if removed == 0 {
		printer.Info("no known_hosts entries for %s", profile.Host)
		return nil
	}
	printer.Success("removed %d known_hosts entries for %s", removed, profile.Host)
	return nil
}
