package cmd

import (
	"github.com/spf13/cobra"
)

var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "List every remote object with its attribute values",
	RunE:  runWalk,
}

func init() {
	rootCmd.AddCommand(walkCmd)
}

func runWalk(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return newRetriever(opts).Walk(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}
