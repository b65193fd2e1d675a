package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofibox/sofilab/internal/batch"
	"github.com/sofibox/sofilab/internal/engine"
	"github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/orchestrator"
	"github.com/sofibox/sofilab/internal/ui"
)

var runScriptsCmd = &cobra.Command{
	Use:   "run-scripts <alias> [args...]",
	Short: "Run a host's configured script sequence",
	Long: `Run every script configured for the host, in order.

Numbered scripts (10_base.sh, 20_harden.sh) run first, ordered by their
numeric prefix; unnumbered scripts follow alphabetically. The batch stops
at the first failing script. Arguments given here apply to every script
and override the configured per-script arguments.

Examples:
  sofilab run-scripts pmx
  sofilab run-scripts pmx --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScriptsCommand(args[0], args[1:])
	},
}

var runScriptCmd = &cobra.Command{
	Use:   "run-script <alias> <script> [-- args...]",
	Short: "Run a single script on a host",
	Long: `Run one script on the host, regardless of the configured sequence.

The script resolves against the host's script directory unless an
absolute path is given. Arguments after -- go to the script verbatim
and override any configured arguments for it.

Examples:
  sofilab run-script pmx status.sh
  sofilab run-script pmx 20_harden.sh -- --ssh-port 896`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScriptCommand(args[0], args[1], args[2:])
	},
}

func init() {
	rootCmd.AddCommand(runScriptsCmd)
	rootCmd.AddCommand(runScriptCmd)
}

func runScriptsCommand(alias string, args []string) error {
	session, printer, err := newSession(alias)
	if err != nil {
		return err
	}

	printer.Plain("%s", ui.RenderHeader(ui.HeaderInfo{
		Version: version,
		Action:  "run-scripts",
		Target:  alias,
	}))

	if err := connectWithFeedback(session, printer); err != nil {
		return err
	}
	defer session.Close()

	// Explicit args only when the operator gave some; nil keeps the
	// per-script sources in play.
	var explicit []string
	if len(args) > 0 {
		explicit = args
	}

	start := time.Now()
	printer.OutputStart()
	results, err := session.RunConfigured(printer.Writer(), explicit, func(i, total int, task engine.Task) {
		printer.Progress("[%d/%d] %s", i+1, total, task.RemoteName())
	})
	printer.OutputEnd()

	if err != nil {
		if len(results) > 0 {
			last := results[len(results)-1]
			printer.Fail("batch stopped at %s", last.Task.RemoteName())
			if last.Err == nil && last.ExitCode != 0 {
				return exitWithCode(last.ExitCode, "%s", err.Error())
			}
		}
		return err
	}

	printer.Success("%d scripts completed on %s in %s", len(results), alias, time.Since(start).Round(time.Second))
	return nil
}

func runScriptCommand(alias, script string, args []string) error {
	session, printer, err := newSession(alias)
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(session.ScriptPath(script)); statErr != nil {
		if entries, derr := batch.Discover(session.Profile.ScriptDir); derr == nil && len(entries) > 0 {
			batch.Sort(entries)
			printer.Info("available scripts in %s:", session.Profile.ScriptDir)
			for _, entry := range entries {
				printer.Plain("  %s", entry.Script)
			}
		}
		return errors.New(errors.ErrConfig,
			"Script not found: "+session.ScriptPath(script),
			"Check the script name, or pass an absolute path")
	}

	if err := connectWithFeedback(session, printer); err != nil {
		return err
	}
	defer session.Close()

	var explicit []string
	if len(args) > 0 {
		explicit = args
	}

	printer.Progress("running %s on %s", script, alias)
	printer.OutputStart()
	result := session.RunScript(printer.Writer(), script, explicit)
	printer.OutputEnd()

	if result.Err != nil {
		return result.Err
	}
	if result.ExitCode != 0 {
		return exitWithCode(result.ExitCode, "Script '%s' exited %d", script, result.ExitCode)
	}

	printer.Success("%s completed in %s", script, result.Duration.Round(time.Millisecond))
	return nil
}

// connectWithFeedback connects the session and narrates the outcome.
func connectWithFeedback(session *orchestrator.Session, printer *ui.Printer) error {
	if err := session.Connect(); err != nil {
		return err
	}

	if session.Endpoint.Fallback() {
		printer.Warn("port %d unreachable, connected on %d", session.Endpoint.ConfiguredPort, session.Endpoint.WorkingPort)
	}
	printer.Info("connected to %s@%s:%d (%s)", session.Endpoint.User, session.Endpoint.Host, session.Endpoint.WorkingPort, session.Strategy)
	return nil
}
