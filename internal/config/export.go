package config

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format selects how a document is written.
type Format string

const (
	FormatINI  Format = "ini"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatINI, FormatTOML, FormatYAML:
		return f, nil
	case "":
		return FormatINI, nil
	default:
		return "", fmt.Errorf("unknown format %q (must be ini, toml or yaml)", s)
	}
}

// SchemaExport is the structured form of a document used by the TOML and
// YAML exports.
type SchemaExport struct {
	Sections []SectionExport `toml:"section" yaml:"sections"`
}

// SectionExport is one exported section.
type SectionExport struct {
	Name     string         `toml:"name" yaml:"name"`
	Object   string         `toml:"object,omitempty" yaml:"object,omitempty"`
	Regexp   string         `toml:"regexp,omitempty" yaml:"regexp,omitempty"`
	URL      string         `toml:"url,omitempty" yaml:"url,omitempty"`
	Extends  string         `toml:"extends,omitempty" yaml:"extends,omitempty"`
	User     string         `toml:"user,omitempty" yaml:"user,omitempty"`
	Password string         `toml:"password,omitempty" yaml:"password,omitempty"`
	Members  []MemberExport `toml:"member,omitempty" yaml:"members,omitempty"`
}

// MemberExport is one exported member.
type MemberExport struct {
	Name string `toml:"name" yaml:"name"`
	Kind string `toml:"kind" yaml:"kind"`
	Type string `toml:"type" yaml:"type"`
	Rule string `toml:"rule,omitempty" yaml:"rule,omitempty"`
}

// Export converts the document into its structured form.
func (d *Document) Export() SchemaExport {
	var out SchemaExport
	for _, s := range d.Sections {
		se := SectionExport{
			Name:     s.Name,
			Object:   s.Object,
			Regexp:   s.Regexp,
			URL:      s.URL,
			Extends:  s.Extends,
			User:     s.User,
			Password: s.Password,
		}
		for _, m := range s.Members.All() {
			me := MemberExport{Name: m.Name, Kind: m.Kind.String(), Type: m.Type.String()}
			if m.Rule != nil && !m.Rule.Empty() {
				me.Rule = m.Rule.String()
			}
			se.Members = append(se.Members, me)
		}
		out.Sections = append(out.Sections, se)
	}
	return out
}

// Write renders the document in the given format.
func (d *Document) Write(w io.Writer, format Format) error {
	switch format {
	case FormatINI, "":
		return d.Render(w)
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(d.Export()); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d.Export()); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
