package rule

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownComparator is returned when a rule names a comparator outside < <= = == != >= >.
var ErrUnknownComparator = errors.New("unknown comparator")

// Comparator is the textual operator used to test a value against a threshold.
type Comparator string

const (
	Lower          Comparator = "<"
	LowerOrEqual   Comparator = "<="
	Equal          Comparator = "="
	EqualEqual     Comparator = "=="
	NotEqual       Comparator = "!="
	GreaterOrEqual Comparator = ">="
	Greater        Comparator = ">"
)

// DefaultComparator applies when a tier has a threshold but no comparator.
const DefaultComparator = Greater

// Outcome is the result of a single comparison.
type Outcome int

const (
	// Passed means the comparator did not trigger.
	Passed Outcome = iota
	TriggeredLower
	TriggeredLowerOrEqual
	TriggeredEqual
	TriggeredNotEqual
	TriggeredGreaterOrEqual
	TriggeredGreater
)

// Triggered reports whether the comparison fired.
func (o Outcome) Triggered() bool {
	return o != Passed
}

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "ok"
	case TriggeredLower:
		return "lower"
	case TriggeredLowerOrEqual:
		return "lower_or_equal"
	case TriggeredEqual:
		return "equal"
	case TriggeredNotEqual:
		return "not_equal"
	case TriggeredGreaterOrEqual:
		return "greater_or_equal"
	case TriggeredGreater:
		return "greater"
	default:
		return "unknown"
	}
}

// Compare tests value against threshold. Both are compared as decimal numbers
// when both parse, otherwise lexicographically.
func Compare(value, threshold string, comp Comparator) (Outcome, error) {
	c := order(value, threshold)

	var hit bool
	var outcome Outcome
	switch comp {
	case Lower:
		hit, outcome = c < 0, TriggeredLower
	case LowerOrEqual:
		hit, outcome = c <= 0, TriggeredLowerOrEqual
	case Equal, EqualEqual:
		hit, outcome = c == 0, TriggeredEqual
	case NotEqual:
		hit, outcome = c != 0, TriggeredNotEqual
	case GreaterOrEqual:
		hit, outcome = c >= 0, TriggeredGreaterOrEqual
	case Greater:
		hit, outcome = c > 0, TriggeredGreater
	default:
		return Passed, fmt.Errorf("%w: %q", ErrUnknownComparator, string(comp))
	}
	if !hit {
		return Passed, nil
	}
	return outcome, nil
}

func order(value, threshold string) int {
	v, verr := parseNumber(value)
	t, terr := parseNumber(threshold)
	if verr == nil && terr == nil {
		return cmp.Compare(v, t)
	}
	return strings.Compare(value, threshold)
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
