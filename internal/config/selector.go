package config

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrBadPattern is returned when an @regexp value does not compile.
var ErrBadPattern = errors.New("invalid object pattern")

// Selector decides which remote objects a section is bound to.
type Selector interface {
	Match(id string) bool
	String() string
}

// Literal matches exactly one object identifier.
type Literal string

// Match reports whether id equals the literal.
func (l Literal) Match(id string) bool {
	return string(l) == id
}

func (l Literal) String() string {
	return string(l)
}

// Pattern matches identifiers against a regular expression covering the
// whole identifier.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// CompilePattern compiles expr into a Pattern.
func CompilePattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, expr, err)
	}
	return &Pattern{source: expr, re: re}, nil
}

// Match reports whether the whole of id matches.
func (p *Pattern) Match(id string) bool {
	return p.re.MatchString(id)
}

func (p *Pattern) String() string {
	return p.source
}
