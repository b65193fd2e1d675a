package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/ui"
)

// installDir is where the symlink goes. Overridable in tests.
var installDir = "/usr/local/bin"

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Symlink sofilab into /usr/local/bin",
	Long: `Create a symlink to the running binary so "sofilab" works from any
directory.

Examples:
  sudo sofilab install`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return installCommand()
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the sofilab symlink",
	RunE: func(cmd *cobra.Command, args []string) error {
		return uninstallCommand()
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}

func installCommand() error {
	printer := ui.NewPrinter(os.Stdout)
	if !ui.ColorsEnabled() {
		printer = ui.NewPlainPrinter(os.Stdout)
	}

	self, err := os.Executable()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't locate the running binary",
			"Reinstall sofilab or run it from an absolute path")
	}
	self, err = filepath.EvalSymlinks(self)
	if err != nil {
		return err
	}

	target := filepath.Join(installDir, "sofilab")
	if existing, err := os.Readlink(target); err == nil {
		if existing == self {
			printer.Info("already installed at %s", target)
			return nil
		}
		os.Remove(target)
	}

	if err := os.Symlink(self, target); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't create "+target,
			"Try with sudo: sudo sofilab install")
	}
	printer.Success("installed %s -> %s", target, self)
	return nil
}

func uninstallCommand() error {
	printer := ui.NewPrinter(os.Stdout)
	if !ui.ColorsEnabled() {
		printer = ui.NewPlainPrinter(os.Stdout)
	}

	target := filepath.Join(installDir, "sofilab")
	if _, err := os.Lstat(target); os.IsNotExist(err) {
		printer.Info("nothing installed at %s", target)
		return nil
	}

	if err := os.Remove(target); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't remove "+target,
			"Try with sudo: sudo sofilab uninstall")
	}
	printer.Success("removed %s", target)
	return nil
}
