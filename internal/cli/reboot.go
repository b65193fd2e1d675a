package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/host"
	"github.com/sofibox/sofilab/pkg/sshutil"
)

var (
	rebootWaitFlag    bool
	rebootTimeoutFlag time.Duration
)

var rebootCmd = &cobra.Command{
	Use:   "reboot <alias>",
	Short: "Reboot a host",
	Long: `Reboot the host over SSH.

With --wait, keeps probing the SSH port until the host comes back or the
timeout expires. Probe-only, so waiting never trips auth counters.

Examples:
  sofilab reboot pmx
  sofilab reboot pmx --wait --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return rebootCommand(args[0], rebootWaitFlag, rebootTimeoutFlag)
	},
}

func init() {
	rebootCmd.Flags().BoolVarP(&rebootWaitFlag, "wait", "w", false, "wait for the host to come back")
	rebootCmd.Flags().DurationVar(&rebootTimeoutFlag, "timeout", 5*time.Minute, "how long to wait with --wait")
	rootCmd.AddCommand(rebootCmd)
}

func rebootCommand(alias string, wait bool, timeout time.Duration) error {
	session, printer, err := newSession(alias)
	if err != nil {
		return err
	}

	if err := connectWithFeedback(session, printer); err != nil {
		return err
	}
	defer session.Close()

	printer.Progress("rebooting %s", alias)

	// The session drops when the host goes down, so a transport error
	// here is the expected outcome, not a failure.
	cmd := "systemctl reboot || reboot || shutdown -r now"
	_, _, _, execErr := session.Conn.Exec(cmd)
	if execErr != nil {
		session.Log.Debug("reboot command ended the session: %v", execErr)
	}
	session.Close()
	printer.Success("reboot issued")

	if !wait {
		return nil
	}

	printer.Progress("waiting for %s to come back (up to %s)", alias, timeout)

	dialer := sshutil.NewDialer()
	deadline := time.Now().Add(timeout)

	// Give the host a moment to actually go down before probing, or
	// the still-running sshd answers and we declare victory early.
	time.Sleep(10 * time.Second)

	for time.Now().Before(deadline) {
		port, err := host.Negotiate(dialer, alias, session.Profile.Host, session.Profile.Port, session.Global.ProbeTimeout, session.Log)
		if err == nil {
			printer.Success("%s is back (port %d)", alias, port)
			return nil
		}
		time.Sleep(5 * time.Second)
	}

	return errors.New(errors.ErrNetwork,
		alias+" didn't come back within "+timeout.String(),
		"The host may still be booting; check with: sofilab status "+alias)
}
