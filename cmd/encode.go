package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jandubois/jmxcheck/internal/check"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [message...]",
	Short: "URL-encode a message for use in a threshold rule",
	Example: `  jmxcheck encode "WARN: {0}"
  jmxcheck encode -m "FAIL: heap at {0}%"`,
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringP("message", "m", "", "Message to encode")
}

func runEncode(cmd *cobra.Command, args []string) error {
	message, _ := cmd.Flags().GetString("message")
	if message == "" {
		message = strings.Join(args, " ")
	}
	if message == "" {
		return fmt.Errorf("%w: a message is required", errMissingParameter)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), check.EncodeMessage(message))
	return err
}
