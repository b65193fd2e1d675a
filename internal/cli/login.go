package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sofibox/sofilab/internal/errors"
)

var loginCmd = &cobra.Command{
	Use:   "login <alias>",
	Short: "Open an interactive shell on a host",
	Long: `Connect to the host and start an interactive login shell.

Port negotiation and authentication work exactly as for script
execution, so login is a quick way to verify a host is usable.

Examples:
  sofilab login pmx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return loginCommand(args[0])
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func loginCommand(alias string) error {
	session, printer, err := newSession(alias)
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New(errors.ErrExec,
			"login needs an interactive terminal",
			"Run sofilab from a terminal, or use run-script for automation")
	}

	err = connectWithFeedback(session, printer)
	if err != nil && errors.IsCode(err, errors.ErrAuth) {
		// Configured methods were rejected; fall back to asking, the
		// way plain ssh would.
		fmt.Fprintf(os.Stderr, "%s@%s password: ", session.Profile.User, session.Profile.Host)
		password, readErr := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if readErr != nil {
			return err
		}
		session.Profile.Password = string(password)
		err = connectWithFeedback(session, printer)
	}
	if err != nil {
		return err
	}
	defer session.Close()

	width, height, err := term.GetSize(fd)
	if err != nil {
		width, height = 80, 24
	}

	// Raw mode so control sequences pass straight through to the
	// remote shell. Restored before any error is rendered.
	state, err := term.MakeRaw(fd)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't switch the terminal to raw mode",
			"Check the terminal supports raw input")
	}
	defer term.Restore(fd, state)

	return session.Conn.Shell(os.Stdin, os.Stdout, width, height)
}
