package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jandubois/jmxcheck/internal/check"
	"github.com/jandubois/jmxcheck/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded check results",
	Long: `History lists check results recorded by "check --database", newest
first. Filter with --object (section) and --member.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of results")
	historyCmd.Flags().String("status", "", "Only show results with this status (ok, warning, critical)")
	historyCmd.Flags().Duration("prune", 0, "Delete results older than this before listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath := getDatabasePath(cmd)
	if dbPath == "" {
		return fmt.Errorf("%w: --database or JMXCHECK_DATABASE is required", errMissingParameter)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	status, _ := cmd.Flags().GetString("status")
	prune, _ := cmd.Flags().GetDuration("prune")
	section, _ := cmd.Flags().GetString("object")
	member, _ := cmd.Flags().GetString("member")

	store, err := db.Open(cmd.Context(), dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if prune > 0 {
		n, err := store.Prune(cmd.Context(), time.Now().Add(-prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "pruned %d results older than %s\n", n, units.HumanDuration(prune))
	}

	results, err := store.Recent(cmd.Context(), db.RecentFilter{
		Section: section,
		Member:  member,
		Status:  status,
		Limit:   limit,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSECTION\tMEMBER\tVALUE\tSTATUS\tCODE\tMESSAGE")
	now := time.Now()
	for _, r := range results {
		fmt.Fprintf(tw, "%s ago\t%s\t%s\t%s\t%s\t%d\t%s\n",
			units.HumanDuration(now.Sub(r.CheckedAt)),
			r.Section, r.Member, r.Value, colorStatus(r.Status), r.Code, r.Message)
	}
	return tw.Flush()
}

func colorStatus(status string) string {
	switch check.Status(status) {
	case check.StatusOK:
		return color.GreenString(status)
	case check.StatusWarning:
		return color.YellowString(status)
	case check.StatusCritical:
		return color.RedString(status)
	default:
		return status
	}
}
