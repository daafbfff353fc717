package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jandubois/jmxcheck/internal/config"
	"github.com/jandubois/jmxcheck/internal/query"
	"github.com/jandubois/jmxcheck/internal/rule"
)

// ErrNoValue is returned when the checked member produced no value.
var ErrNoValue = errors.New("member has no value")

// Report is a single evaluated check.
type Report struct {
	Section string  `json:"section"`
	Object  string  `json:"object,omitempty"`
	Member  string  `json:"member"`
	Result  *Result `json:"result"`
}

// Checker queries one member and evaluates it.
type Checker struct {
	retriever *query.Retriever
}

// NewChecker creates a Checker that reads values through r.
func NewChecker(r *query.Retriever) *Checker {
	return &Checker{retriever: r}
}

// Run reads memberRef of the section found by sectionRef and evaluates it.
// A non-empty override replaces the member's configured rule; an override
// that does not parse is ignored with a warning.
func (c *Checker) Run(ctx context.Context, doc *config.Document, sectionRef, memberRef, override string) (*Report, error) {
	if err := c.retriever.Query(ctx, doc, sectionRef, memberRef); err != nil {
		return nil, err
	}

	s, err := doc.Lookup(sectionRef)
	if err != nil {
		return nil, err
	}
	m, err := s.Member(memberRef)
	if err != nil {
		return nil, err
	}

	r := m.Rule
	if override != "" {
		o, err := rule.Parse(override)
		if err != nil {
			slog.Warn("ignoring unparsable check override", "rule", override, "error", err)
		} else {
			r = o
		}
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s in section %s", ErrNoRule, m.Name, s.Name)
	}
	if !m.HasValue() {
		return nil, fmt.Errorf("%w: %s in section %s", ErrNoValue, m.Name, s.Name)
	}

	value := m.ValueString()
	res, err := Evaluate(r, value)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", m.Name, err)
	}
	slog.Debug("check evaluated", "section", s.Name, "member", m.Name,
		"value", value, "code", res.Code, "comparison", res.Comparison)

	report := &Report{Section: s.Name, Member: m.Name, Result: res}
	if name, err := s.ObjectName(); err == nil {
		report.Object = name.String()
	}
	return report, nil
}
