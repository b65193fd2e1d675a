package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/logger"
	"github.com/sofibox/sofilab/internal/ui"
)

var logsCmd = &cobra.Command{
	Use:   "logs [main|error|remote] [lines]",
	Short: "Show recent log entries",
	Long: `Print the tail of a sofilab log file.

Three logs exist: "main" holds orchestration events, "error" holds only
errors, and "remote" holds raw remote script output tagged with host
and script. Default is the last 50 lines of the main log.

Examples:
  sofilab logs
  sofilab logs remote 200
  sofilab logs error`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		which := "main"
		lines := 50
		if len(args) > 0 {
			which = args[0]
		}
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return errors.New(errors.ErrConfig,
					"Invalid line count: "+args[1],
					"Give a positive number, like: sofilab logs main 100")
			}
			lines = n
		}
		return logsCommand(which, lines)
	},
}

var clearLogsCmd = &cobra.Command{
	Use:   "clear-logs [main|error|remote|all]",
	Short: "Delete sofilab log files",
	Long: `Delete log files. With a type, only that log is removed; "all"
(the default) also removes rotated and compressed files.

Examples:
  sofilab clear-logs
  sofilab clear-logs remote`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		which := "all"
		if len(args) > 0 {
			which = args[0]
		}
		return clearLogsCommand(which)
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(clearLogsCmd)
}

func logFileName(which string) (string, error) {
	switch which {
	case "main":
		return logger.MainLogName, nil
	case "error":
		return logger.ErrorLogName, nil
	case "remote":
		return logger.RemoteLogName, nil
	default:
		return "", errors.New(errors.ErrConfig,
			"Unknown log: "+which,
			"Pick one of: main, error, remote")
	}
}

func logsCommand(which string, lines int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name, err := logFileName(which)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.LogDirAbs(), name)
	data, err := logger.Tail(path, lines)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No %s log yet (%s)\n", which, path)
			return nil
		}
		return err
	}
	os.Stdout.Write(data)
	return nil
}

func clearLogsCommand(which string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)
	if !ui.ColorsEnabled() {
		printer = ui.NewPlainPrinter(os.Stdout)
	}

	if which != "all" {
		if _, err := logFileName(which); err != nil {
			return err
		}
	}

	removed, err := clearLogs(cfg.LogDirAbs(), which)
	if err != nil {
		if os.IsNotExist(err) {
			printer.Info("no logs to clear")
			return nil
		}
		return err
	}
	printer.Success("removed %d log files from %s", removed, cfg.LogDirAbs())
	return nil
}

// clearLogs removes log files under dir. A specific type removes just
// that log file; "all" also sweeps rotated and compressed copies.
func clearLogs(dir, which string) (int, error) {
	if which != "all" {
		name, err := logFileName(which)
		if err != nil {
			return 0, err
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			if os.IsNotExist(err) {
				return 0, nil
			}
			return 0, err
		}
		return 1, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if filepath.Ext(name) != ".log" && filepath.Ext(name) != ".gz" {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}
