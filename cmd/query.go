package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jandubois/jmxcheck/internal/config"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query member values of the configured objects",
	Long: `Query reads the members of the section selected with --object, or of
every section, and prints them as name:value pairs on one line.

Sections without members are discovered from the agent first. With
--member only that attribute (or *operation) is read.`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("json", false, "Print values as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	doc, err := loadDocument(opts)
	if err != nil {
		return err
	}
	if err := newRetriever(opts).Query(cmd.Context(), doc, opts.object, opts.member); err != nil {
		return err
	}

	if asJSON {
		return writeValuesJSON(cmd.OutOrStdout(), doc)
	}
	return writeValues(cmd.OutOrStdout(), doc)
}

func writeValues(w io.Writer, doc *config.Document) error {
	for _, s := range doc.Sections {
		if _, err := s.WriteValues(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// sectionValues is the JSON form of one queried section.
type sectionValues struct {
	Section string         `json:"section"`
	Object  string         `json:"object,omitempty"`
	Values  map[string]any `json:"values"`
}

func writeValuesJSON(w io.Writer, doc *config.Document) error {
	var out []sectionValues
	for _, s := range doc.Sections {
		sv := sectionValues{Section: s.Name, Values: map[string]any{}}
		for _, m := range s.Members.All() {
			if m.HasValue() {
				sv.Values[m.Name] = m.Value
			}
		}
		if len(sv.Values) == 0 {
			continue
		}
		if name, err := s.ObjectName(); err == nil {
			sv.Object = name.String()
		}
		out = append(out, sv)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
