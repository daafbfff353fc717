package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jandubois/jmxcheck/internal/rule"
)

// Kind distinguishes attributes from operations.
type Kind int

const (
	Attribute Kind = iota
	Operation
)

func (k Kind) String() string {
	if k == Operation {
		return "operation"
	}
	return "attribute"
}

// operationPrefix marks operations in the text format and on the command line.
const operationPrefix = "*"

// Member is one monitored attribute or zero-argument operation.
// Members are identified by name only.
type Member struct {
	Name  string
	Kind  Kind
	Type  Type
	Rule  *rule.Rule
	Value any
}

// NewMember creates a member of the given kind.
func NewMember(name string, kind Kind, typ Type) *Member {
	return &Member{Name: name, Kind: kind, Type: typ}
}

// ParseMemberRef interprets a name from the command line, where a leading
// "*" selects an operation.
func ParseMemberRef(ref string) (name string, kind Kind) {
	if strings.HasPrefix(ref, operationPrefix) {
		return ref[len(operationPrefix):], Operation
	}
	return ref, Attribute
}

// HasValue reports whether a value was retrieved.
func (m *Member) HasValue() bool {
	return m.Value != nil
}

// ValueString renders the retrieved value as text for comparisons and output.
func (m *Member) ValueString() string {
	return FormatValue(m.Value)
}

// String renders the member as a config line.
func (m *Member) String() string {
	var sb strings.Builder
	if m.Kind == Operation {
		sb.WriteString(operationPrefix)
	}
	sb.WriteString(m.Name)
	hasRule := m.Rule != nil && !m.Rule.Empty()
	if m.Type != TypeNone || hasRule {
		sb.WriteString("=" + m.Type.String())
	}
	if hasRule {
		sb.WriteString("|" + m.Rule.String())
	}
	return sb.String()
}

// FormatValue renders a remote value as text. Composite and array values are
// rendered as compact JSON.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}

// MemberSet is an insertion-ordered set of members keyed by name.
type MemberSet struct {
	order []*Member
	index map[string]*Member
}

// Add inserts m unless a member with the same name exists. It reports
// whether m was inserted.
func (s *MemberSet) Add(m *Member) bool {
	if s.index == nil {
		s.index = make(map[string]*Member)
	}
	if _, exists := s.index[m.Name]; exists {
		return false
	}
	s.index[m.Name] = m
	s.order = append(s.order, m)
	return true
}

// Get returns the member with the given name.
func (s *MemberSet) Get(name string) (*Member, bool) {
	m, ok := s.index[name]
	return m, ok
}

// Len returns the number of members.
func (s *MemberSet) Len() int {
	return len(s.order)
}

// All returns the members in insertion order.
func (s *MemberSet) All() []*Member {
	return s.order
}
