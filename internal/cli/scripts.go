package cli

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sofibox/sofilab/internal/batch"
	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/ui"
)

var listScriptsCmd = &cobra.Command{
	Use:   "list-scripts <alias>",
	Short: "Show a host's scripts and their run order",
	Long: `List the scripts in the host's script directory, marking which ones
are configured to run and in what order.

Examples:
  sofilab list-scripts pmx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listScriptsCommand(args[0])
	},
}

func init() {
	rootCmd.AddCommand(listScriptsCmd)
}

func listScriptsCommand(alias string) error {
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

	// Execution order for the configured entries.
	entries := batch.ParseEntries(profile.Scripts)
	batch.Sort(entries)
	position := make(map[string]int, len(entries))
	for i, e := range entries {
		position[e.Script] = i + 1
	}

	printer.Plain("scripts for %s (%s):", alias, profile.ScriptDir)

	dirEntries, err := os.ReadDir(profile.ScriptDir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrConfig,
				"Script directory doesn't exist: "+profile.ScriptDir,
				"Create it, or point script_dir somewhere else")
		}
		return err
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if pos, ok := position[name]; ok {
			printer.Success("%s (runs #%d)", name, pos)
		} else {
			printer.Info("%s", name)
		}
	}

	// Configured scripts that don't exist on disk are a config bug
	// worth surfacing here rather than at run time.
	for _, e := range entries {
		if _, err := os.Stat(filepath.Join(profile.ScriptDir, e.Script)); err != nil {
			printer.Warn("%s is configured but missing from %s", e.Script, profile.ScriptDir)
		}
	}
	return nil
}
