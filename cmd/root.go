package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X github.com/jandubois/jmxcheck/cmd.Version=..."
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "jmxcheck",
	Short: "Query and check JMX attributes through a Jolokia agent",
	Long: `jmxcheck reads attributes and zero-argument operations of remote managed
objects, writes their schema to a configuration file, and checks values
against ok/warn/error thresholds. The exit code of "check" is the code of
the threshold tier that fired, so it plugs into Nagios-style supervisors.`,
	Version:           Version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the command tree. Errors other than a check result are
// printed to stderr; use ExitCode to turn the error into a process status.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		if _, ok := err.(*ExitError); !ok {
			fmt.Fprintf(os.Stderr, "%s %v\n", describe(err), err)
		}
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("url", "u", "", "Agent URL (or JMXCHECK_URL env var, default "+defaultURLHelp+")")
	pf.StringP("user", "c", "", "User to authenticate with (or JMXCHECK_USER env var)")
	pf.StringP("password", "p", "", "Password to authenticate with (or JMXCHECK_PASSWORD env var)")
	pf.StringP("config", "f", "", "Configuration file")
	pf.StringP("object", "o", "", "Object name or section to use")
	pf.StringP("regexp", "e", "", "Regular expression selecting the object")
	pf.StringP("extends", "i", "", "Section the command line section inherits from")
	pf.StringP("member", "q", "", "Attribute, or *operation, to query")
	pf.BoolP("tolerate-missing", "l", false, "Ignore attributes that cannot be read")
	pf.Bool("merge-extends", false, "Copy headers and members from @extends parents")
	pf.StringSlice("env-file", nil, "Dotenv files providing ${key} values")
	pf.StringP("database", "d", "", "SQLite database for check history (or JMXCHECK_DATABASE env var)")
	pf.Duration("timeout", 0, "Timeout for each agent request (default 30s)")
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.BoolP("verbose", "v", false, "Verbose output, same as --log-level debug")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errMissingParameter, err)
	})
}

func setupLogging(cmd *cobra.Command, args []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		levelName = "debug"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(levelName))); err != nil {
		return fmt.Errorf("%w: invalid log level %q", errMissingParameter, levelName)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// getDatabasePath returns the history database, or "" when history is off.
func getDatabasePath(cmd *cobra.Command) string {
	return flagOrEnv(cmd, "database", "JMXCHECK_DATABASE")
}
