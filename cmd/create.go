package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jandubois/jmxcheck/internal/config"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Discover attributes and operations and write the configuration",
	Long: `Create describes every object matched by each section and adds its
attributes and zero-argument operations to the section. Members already
declared keep their type and rule.

The result is written back to --config, or to stdout with --stdout or when
no configuration file is used. The toml and yaml formats always go to stdout.`,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().BoolP("stdout", "x", false, "Print the configuration instead of writing --config")
	createCmd.Flags().String("format", "ini", "Output format (ini, toml, yaml)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	toStdout, _ := cmd.Flags().GetBool("stdout")
	formatName, _ := cmd.Flags().GetString("format")
	format, err := config.ParseFormat(formatName)
	if err != nil {
		return err
	}

	doc, err := loadDocument(opts)
	if err != nil {
		return err
	}
	if err := newRetriever(opts).DiscoverAll(cmd.Context(), doc); err != nil {
		return err
	}

	if format != config.FormatINI {
		return doc.Write(cmd.OutOrStdout(), format)
	}
	if toStdout || opts.configFile == "" {
		return doc.Render(cmd.OutOrStdout())
	}
	slog.Info("writing configuration", "file", opts.configFile, "sections", len(doc.Sections))
	return doc.Save(opts.configFile)
}
