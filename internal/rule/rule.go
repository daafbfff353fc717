// Package rule holds the ok/warn/error threshold rules attached to members.
//
// The text form is
//
//	[okCode][:okMsg]|[warnCode]:[warnMsg]:[warnThresh]:[warnComp]|[errorCode]:[errorMsg]:[errorThresh]:[errorComp]
//
// where every field is optional and messages are percent-encoded.
package rule

import (
	"fmt"
	"strconv"
	"strings"
)

// Tier is one severity level of a rule.
type Tier struct {
	Code       *int
	Message    string // percent-encoded, empty when absent
	Threshold  string // empty when absent
	Comparator Comparator
}

// Active reports whether the tier has both a code and a threshold.
func (t Tier) Active() bool {
	return t.Code != nil && t.Threshold != ""
}

// Rule is a three-tier threshold rule.
type Rule struct {
	OK    Tier
	Warn  Tier
	Error Tier
}

// HasWarnCheck reports whether the warn tier can fire.
func (r *Rule) HasWarnCheck() bool {
	return r.Warn.Active()
}

// HasErrorCheck reports whether the error tier can fire.
func (r *Rule) HasErrorCheck() bool {
	return r.Error.Active()
}

// CheckWarn compares value against the warn threshold.
func (r *Rule) CheckWarn(value string) (Outcome, error) {
	return Compare(value, r.Warn.Threshold, r.Warn.Comparator)
}

// CheckError compares value against the error threshold.
func (r *Rule) CheckError(value string) (Outcome, error) {
	return Compare(value, r.Error.Threshold, r.Error.Comparator)
}

// Parse reads a rule from its text form. Comparators are not validated here;
// an unknown comparator surfaces when the rule is evaluated.
func Parse(data string) (*Rule, error) {
	r := &Rule{
		Warn:  Tier{Comparator: DefaultComparator},
		Error: Tier{Comparator: DefaultComparator},
	}

	parts := strings.Split(data, "|")
	if parts[0] != "" {
		fields := strings.Split(parts[0], ":")
		code, err := parseCode(fields[0])
		if err != nil {
			return nil, fmt.Errorf("ok tier: %w", err)
		}
		r.OK.Code = code
		if len(fields) > 1 {
			r.OK.Message = fields[1]
		}
	}
	if len(parts) > 1 {
		if err := parseTier(parts[1], &r.Warn); err != nil {
			return nil, fmt.Errorf("warn tier: %w", err)
		}
	}
	if len(parts) > 2 {
		if err := parseTier(parts[2], &r.Error); err != nil {
			return nil, fmt.Errorf("error tier: %w", err)
		}
	}
	return r, nil
}

func parseTier(data string, t *Tier) error {
	if data == "" {
		return nil
	}
	fields := strings.Split(data, ":")
	code, err := parseCode(fields[0])
	if err != nil {
		return err
	}
	t.Code = code
	if len(fields) > 1 {
		t.Message = fields[1]
	}
	if len(fields) > 2 {
		t.Threshold = fields[2]
	}
	if len(fields) > 3 && fields[3] != "" {
		t.Comparator = Comparator(fields[3])
	}
	return nil
}

func parseCode(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid code %q", s)
	}
	return &n, nil
}

// Empty reports whether the rule carries nothing that Parse would restore.
func (r *Rule) Empty() bool {
	return r.OK.empty() && r.Warn.empty() && r.Error.empty()
}

func (t Tier) empty() bool {
	return t.Code == nil && t.Message == "" && t.Threshold == "" &&
		(t.Comparator == "" || t.Comparator == DefaultComparator)
}

// String renders the canonical text form without the leading separator.
func (r *Rule) String() string {
	var sb strings.Builder
	writeCode(&sb, r.OK.Code)
	if r.OK.Message != "" {
		sb.WriteString(":" + r.OK.Message)
	}
	for _, t := range []Tier{r.Warn, r.Error} {
		sb.WriteString("|")
		writeCode(&sb, t.Code)
		sb.WriteString(":" + t.Message + ":" + FormatThreshold(t.Threshold) + ":" + string(t.Comparator))
	}
	return sb.String()
}

func writeCode(sb *strings.Builder, code *int) {
	if code != nil {
		sb.WriteString(strconv.Itoa(*code))
	}
}

// FormatThreshold normalises numeric thresholds to at most ten fractional
// digits. Non-numeric thresholds are returned unchanged.
func FormatThreshold(s string) string {
	f, err := parseNumber(s)
	if err != nil {
		return s
	}
	out := strconv.FormatFloat(f, 'f', 10, 64)
	out = strings.TrimRight(out, "0")
	out = strings.TrimSuffix(out, ".")
	if out == "-0" {
		out = "0"
	}
	return out
}
