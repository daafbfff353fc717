package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jandubois/jmxcheck/internal/rule"
	"github.com/jandubois/jmxcheck/internal/vars"
)

// Document is the ordered list of sections of one configuration.
type Document struct {
	Sections []*Section
}

// Append adds a section at the end.
func (d *Document) Append(s *Section) {
	d.Sections = append(d.Sections, s)
}

// Lookup returns the first section whose name equals query or whose selector
// matches it.
func (d *Document) Lookup(query string) (*Section, error) {
	for _, s := range d.Sections {
		if s.Name == query || s.Matches(query) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, query)
}

// Load parses the configuration file at path.
func Load(path string, env vars.Env) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f, env)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Parse reads a document. Malformed members degrade with a warning; only an
// @regexp that does not compile fails the parse.
func Parse(r io.Reader, env vars.Env) (*Document, error) {
	doc := &Document{}
	var current *Section

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			current = NewSection(line)
			doc.Append(current)
			continue
		}
		if current == nil {
			slog.Debug("ignoring line outside of a section", "line", lineNo)
			continue
		}
		if err := parseLine(current, line, lineNo, env); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	slog.Debug("config parsed", "sections", len(doc.Sections))
	return doc, nil
}

func parseLine(s *Section, line string, lineNo int, env vars.Env) error {
	name, data, hasData := strings.Cut(line, "=")

	if hasData && strings.HasPrefix(name, "@") {
		kept := vars.Replace(env, data, true)
		resolved := vars.Replace(env, data, false)
		switch strings.ToLower(name) {
		case "@object":
			s.Object = resolved
		case "@regexp":
			return s.SetRegexp(resolved)
		case "@url":
			s.URL = kept
		case "@extends":
			s.Extends = kept
		case "@user":
			s.User = kept
		case "@password":
			s.Password = kept
		default:
			slog.Debug("ignoring unknown header", "section", s.Name, "header", name, "line", lineNo)
		}
		return nil
	}

	memberName, kind := ParseMemberRef(name)
	m := NewMember(memberName, kind, TypeNone)
	if hasData {
		typeName, ruleText, hasRule := strings.Cut(data, "|")
		if typeName != "" {
			typ, err := ParseType(typeName)
			if err != nil {
				slog.Warn("unsupported member type, using none",
					"section", s.Name, "member", memberName, "line", lineNo, "error", err)
			}
			m.Type = typ
		}
		if hasRule {
			r, err := rule.Parse(ruleText)
			if err != nil {
				slog.Warn("could not parse check details, ignoring rule",
					"section", s.Name, "member", memberName, "line", lineNo, "rule", ruleText, "error", err)
			} else {
				m.Rule = r
			}
		}
	}
	if !s.Add(m) {
		slog.Debug("duplicate member ignored", "section", s.Name, "member", memberName, "line", lineNo)
	}
	return nil
}

// Render writes every section in declaration order, each followed by a blank line.
func (d *Document) Render(w io.Writer) error {
	for _, s := range d.Sections {
		if _, err := io.WriteString(w, s.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// String renders the document as text.
func (d *Document) String() string {
	var sb strings.Builder
	d.Render(&sb)
	return sb.String()
}

// Save renders the document to path, replacing its contents.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	if err := d.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	return f.Close()
}

// MergeExtends copies headers and members from each section's @extends
// parent into the section. Values already present in the child win. Parents
// are resolved by Lookup; chains are followed, cycles are reported.
func (d *Document) MergeExtends(env vars.Env) error {
	done := make(map[*Section]bool)
	for _, s := range d.Sections {
		if err := d.merge(s, env, done, map[*Section]bool{}); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) merge(s *Section, env vars.Env, done, visiting map[*Section]bool) error {
	if done[s] || s.Extends == "" {
		done[s] = true
		return nil
	}
	if visiting[s] {
		return fmt.Errorf("section %s: @extends cycle", s.Name)
	}
	visiting[s] = true

	parentName := vars.Replace(env, s.Extends, false)
	parent, err := d.Lookup(parentName)
	if err != nil {
		return fmt.Errorf("section %s extends %s: %w", s.Name, parentName, err)
	}
	if parent == s {
		return fmt.Errorf("section %s: @extends cycle", s.Name)
	}
	if err := d.merge(parent, env, done, visiting); err != nil {
		return err
	}

	if s.Object == "" && s.Regexp == "" {
		s.Object = parent.Object
		if parent.Regexp != "" {
			if err := s.SetRegexp(parent.Regexp); err != nil {
				return err
			}
		}
	}
	if s.URL == "" {
		s.URL = parent.URL
	}
	if s.User == "" {
		s.User = parent.User
	}
	if s.Password == "" {
		s.Password = parent.Password
	}
	for _, m := range parent.Members.All() {
		clone := *m
		clone.Value = nil
		s.Add(&clone)
	}

	done[s] = true
	return nil
}
