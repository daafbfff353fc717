package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jandubois/jmxcheck/internal/remote"
)

var (
	// ErrSectionNotFound is returned when no section matches a lookup.
	ErrSectionNotFound = errors.New("no matching section found")
	// ErrMemberNotFound is returned when a section lacks the requested member.
	ErrMemberNotFound = errors.New("member not found")
)

// Section is a named group of members bound to one remote object, or to
// every object matching a pattern.
type Section struct {
	Name     string
	Object   string // literal object identifier
	Regexp   string // pattern source, compiled into pattern
	URL      string
	User     string
	Password string
	Extends  string

	Members MemberSet

	// Connected is true only while a session for this section is open.
	Connected bool

	pattern *Pattern

	resolveOnce sync.Once
	resolved    remote.ObjectName
	resolveErr  error
}

// NewSection creates a section, trimming the name and stripping one pair of
// enclosing brackets.
func NewSection(name string) *Section {
	n := strings.TrimSpace(name)
	n = strings.TrimPrefix(n, "[")
	n = strings.TrimSuffix(n, "]")
	return &Section{Name: n}
}

// SetRegexp sets and compiles the section's object pattern. An empty
// expression clears the pattern.
func (s *Section) SetRegexp(expr string) error {
	if expr == "" {
		s.Regexp = ""
		s.pattern = nil
		return nil
	}
	p, err := CompilePattern(expr)
	if err != nil {
		return err
	}
	s.Regexp = expr
	s.pattern = p
	return nil
}

// Selector returns the pattern if one is set, else the literal object, else nil.
func (s *Section) Selector() Selector {
	if s.pattern != nil {
		return s.pattern
	}
	if s.Object != "" {
		return Literal(s.Object)
	}
	return nil
}

// Matches reports whether the section's selector accepts id.
func (s *Section) Matches(id string) bool {
	sel := s.Selector()
	return sel != nil && sel.Match(id)
}

// ObjectName returns the identifier members are queried on. It is computed
// from the literal object once, unless SetObjectName supplied one.
func (s *Section) ObjectName() (remote.ObjectName, error) {
	s.resolveOnce.Do(func() {
		if s.resolved != "" {
			return
		}
		if s.Object == "" {
			s.resolveErr = fmt.Errorf("section %q: no object configured", s.Name)
			return
		}
		s.resolved, s.resolveErr = remote.ParseObjectName(s.Object)
	})
	return s.resolved, s.resolveErr
}

// SetObjectName overrides the resolved identifier, e.g. after a pattern search.
func (s *Section) SetObjectName(name remote.ObjectName) {
	s.resolveOnce.Do(func() {})
	s.resolved = name
	s.resolveErr = nil
}

// Add inserts a member; a member with the same name already present wins.
func (s *Section) Add(m *Member) bool {
	return s.Members.Add(m)
}

// Member looks up a member by name. A leading "*" is ignored.
func (s *Section) Member(ref string) (*Member, error) {
	name, _ := ParseMemberRef(ref)
	m, ok := s.Members.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in section %s", ErrMemberNotFound, name, s.Name)
	}
	return m, nil
}

// WriteValues writes "name:value " for every member that has a value and
// reports how many were written.
func (s *Section) WriteValues(w io.Writer) (int, error) {
	n := 0
	for _, m := range s.Members.All() {
		if !m.HasValue() {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:%s ", m.Name, m.ValueString()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// String renders the section in the config text format.
func (s *Section) String() string {
	var sb strings.Builder
	sb.WriteString("[" + s.Name + "]\n")
	headers := []struct {
		key   string
		value string
	}{
		{"object", s.Object},
		{"regexp", s.Regexp},
		{"url", s.URL},
		{"extends", s.Extends},
		{"user", s.User},
		{"password", s.Password},
	}
	for _, h := range headers {
		if h.value != "" {
			sb.WriteString("@" + h.key + "=" + h.value + "\n")
		}
	}
	for _, m := range s.Members.All() {
		sb.WriteString(m.String() + "\n")
	}
	return sb.String()
}
