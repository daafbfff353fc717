package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jandubois/jmxcheck/internal/check"
	"github.com/jandubois/jmxcheck/internal/db"
	"github.com/jandubois/jmxcheck/internal/notify"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a member value against its thresholds",
	Long: `Check reads --member of the section selected by --object and evaluates
it against the --warn rule, or the rule configured for the member. The
message of the tier that fired is printed and its code becomes the exit
status.

Rule format:

  <ok-code>[:<ok-msg>]|<warn-code>:[<warn-msg>]:<warn-value>[:<comp>]|<error-code>:[<error-msg>]:<error-value>[:<comp>]

Messages are URL-encoded (see "encode"); {0} is replaced by the value.
Comparators are <, <=, =, ==, !=, >= and >, the default is >.

Example for a percentage:

  0:OK%3A+%7B0%7D|2:WARN%3A+%7B0%7D:80:>=|1:FAIL%3A+%7B0%7D:95:>`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("warn", "w", "", "Threshold rule overriding the configured one")
	checkCmd.Flags().Bool("json", false, "Print the result as JSON")
	checkCmd.Flags().String("ntfy-url", "", "ntfy topic URL notified on status changes, needs --database (or JMXCHECK_NTFY_URL env var)")
	checkCmd.Flags().String("ntfy-token", "", "ntfy access token")
	checkCmd.Flags().String("pushover-token", "", "Pushover application token notified on status changes, needs --database")
	checkCmd.Flags().String("pushover-user", "", "Pushover user key")
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	override, _ := cmd.Flags().GetString("warn")
	asJSON, _ := cmd.Flags().GetBool("json")
	if opts.member == "" {
		return fmt.Errorf("%w: --member is required", errMissingParameter)
	}

	doc, err := loadDocument(opts)
	if err != nil {
		return err
	}

	checker := check.NewChecker(newRetriever(opts))
	report, err := checker.Run(cmd.Context(), doc, opts.object, opts.member, override)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else if report.Result.HasMessage {
		fmt.Fprintln(cmd.OutOrStdout(), report.Result.Message)
	}

	dispatcher, err := notificationChannels(cmd)
	if err != nil {
		return err
	}
	dbPath := getDatabasePath(cmd)
	warnWithoutHistory(dbPath, dispatcher)
	if dbPath != "" {
		recordResult(cmd.Context(), dbPath, report, dispatcher)
	}

	if report.Result.Code != 0 {
		return &ExitError{Code: report.Result.Code}
	}
	return nil
}

func notificationChannels(cmd *cobra.Command) (*notify.Dispatcher, error) {
	var channels []notify.Channel

	if ntfyURL := flagOrEnv(cmd, "ntfy-url", "JMXCHECK_NTFY_URL"); ntfyURL != "" {
		cfg, err := notify.ParseNtfyURL(ntfyURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMissingParameter, err)
		}
		cfg.Token, _ = cmd.Flags().GetString("ntfy-token")
		channels = append(channels, notify.NewNtfyChannel(cfg))
	}

	token, _ := cmd.Flags().GetString("pushover-token")
	user, _ := cmd.Flags().GetString("pushover-user")
	if token != "" || user != "" {
		if token == "" || user == "" {
			return nil, fmt.Errorf("%w: --pushover-token and --pushover-user go together", errMissingParameter)
		}
		channels = append(channels, notify.NewPushoverChannel(notify.PushoverConfig{APIToken: token, UserKey: user}))
	}
	return notify.NewDispatcher(channels...), nil
}

// warnWithoutHistory reports notification channels that can never fire
// because status changes are detected against the history store.
func warnWithoutHistory(dbPath string, dispatcher *notify.Dispatcher) bool {
	if dbPath != "" || dispatcher.Len() == 0 {
		return false
	}
	slog.Warn("notification channels configured without --database, no notifications will be sent",
		"channels", dispatcher.Len())
	return true
}

// recordResult stores the result and notifies on a status change. Failures
// are logged and never change the exit status of the check.
func recordResult(ctx context.Context, dbPath string, report *check.Report, dispatcher *notify.Dispatcher) {
	store, err := db.Open(ctx, dbPath)
	if err != nil {
		slog.Error("open history database failed", "path", dbPath, "error", err)
		return
	}
	defer store.Close()

	previous, _, err := store.PreviousStatus(ctx, report.Section, report.Member)
	if err != nil {
		slog.Error("read previous status failed", "error", err)
	}

	res := report.Result
	record := &db.CheckResult{
		Section: report.Section,
		Object:  report.Object,
		Member:  report.Member,
		Value:   res.Value,
		Code:    res.Code,
		Status:  string(res.Status),
		Message: res.Message,
		Data:    db.JSONMap{"comparison": res.Comparison.String(), "host": hostname()},
	}
	if err := store.Record(ctx, record); err != nil {
		slog.Error("record check result failed", "error", err)
		return
	}
	slog.Debug("check result recorded", "id", record.ID, "run_id", record.RunID)

	dispatcher.NotifyStatusChange(ctx, &notify.StatusChange{
		Section:   report.Section,
		Member:    report.Member,
		OldStatus: check.Status(previous),
		NewStatus: res.Status,
		Value:     res.Value,
		Message:   res.Message,
	})
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
