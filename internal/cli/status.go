package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sofibox/sofilab/internal/orchestrator"
)

var statusPortFlag int

var statusCmd = &cobra.Command{
	Use:   "status <alias>",
	Short: "Check whether a host is reachable and accepting logins",
	Long: `Probe the host's configured SSH port, falling back to port 22 the
same way a connection would, then authenticate and print a short
system summary from the host.

With --port only the TCP probe runs, against the given port; no
authentication is attempted.

Examples:
  sofilab status pmx
  sofilab status pmx --port 2222`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusCommand(args[0], statusPortFlag)
	},
}

func init() {
	statusCmd.Flags().IntVarP(&statusPortFlag, "port", "p", 0, "probe this port instead of the configured one")
	rootCmd.AddCommand(statusCmd)
}

func statusCommand(alias string, port int) error {
	session, printer, err := newSession(alias)
	if err != nil {
		return err
	}

	printer.Progress("probing %s (%s)", alias, session.Profile.Host)

	status := orchestrator.ProbeStatus(session.Dialer, session.Profile, port, session.Global.ProbeTimeout)

	renderPort := func(ps orchestrator.PortStatus) {
		if ps.Reachable {
			printer.Success("port %d open", ps.Port)
		} else {
			printer.Fail("port %d: %v", ps.Port, ps.Err)
		}
	}
	renderPort(status.Configured)
	if status.Fallback != nil {
		renderPort(*status.Fallback)
	}

	if !status.Reachable() {
		printer.Fail("%s is unreachable", alias)
		os.Exit(1)
	}
	printer.Success("%s is up (port %d)", alias, status.WorkingPort())

	if port != 0 {
		// Explicit port probes stop here.
		return nil
	}

	if err := connectWithFeedback(session, printer); err != nil {
		return err
	}
	defer session.Close()

	stdout, _, code, execErr := session.Conn.Exec("uname -a && uptime")
	if execErr != nil || code != 0 {
		printer.Warn("could not read system summary")
		return nil
	}
	for _, line := range strings.Split(strings.TrimRight(string(stdout), "\n"), "\n") {
		printer.Plain("  %s", line)
	}
	return nil
}
