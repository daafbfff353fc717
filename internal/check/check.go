// Package check evaluates a member's value against its threshold rule.
package check

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jandubois/jmxcheck/internal/rule"
)

// ErrNoRule is returned when neither an override nor the member carries a rule.
var ErrNoRule = errors.New("no check defined")

// Status is the monitoring state derived from the tier that fired.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Result is the outcome of evaluating one rule.
type Result struct {
	Code       int          `json:"code"`
	Status     Status       `json:"status"`
	Message    string       `json:"message,omitempty"`
	HasMessage bool         `json:"-"`
	Value      string       `json:"value"`
	Comparison rule.Outcome `json:"-"`
}

// Evaluate tests value against r. The error tier outranks the warn tier,
// which outranks ok; only one tier fires.
func Evaluate(r *rule.Rule, value string) (*Result, error) {
	if r.HasErrorCheck() {
		outcome, err := r.CheckError(value)
		if err != nil {
			return nil, fmt.Errorf("error tier: %w", err)
		}
		if outcome.Triggered() {
			return newResult(*r.Error.Code, StatusCritical, r.Error.Message, value, outcome)
		}
	}

	if r.HasWarnCheck() {
		outcome, err := r.CheckWarn(value)
		if err != nil {
			return nil, fmt.Errorf("warn tier: %w", err)
		}
		if outcome.Triggered() {
			return newResult(*r.Warn.Code, StatusWarning, r.Warn.Message, value, outcome)
		}
	}

	code := 0
	if r.OK.Code != nil {
		code = *r.OK.Code
	}
	return newResult(code, StatusOK, r.OK.Message, value, rule.Passed)
}

func newResult(code int, status Status, message, value string, outcome rule.Outcome) (*Result, error) {
	res := &Result{
		Code:       code,
		Status:     status,
		Value:      value,
		Comparison: outcome,
	}
	if message != "" {
		text, err := FormatMessage(message, value)
		if err != nil {
			return nil, err
		}
		res.Message = text
		res.HasMessage = true
	}
	return res, nil
}

// FormatMessage decodes a percent-encoded message and substitutes value for
// the {0} marker.
func FormatMessage(message, value string) (string, error) {
	decoded, err := url.QueryUnescape(message)
	if err != nil {
		return "", fmt.Errorf("decode message %q: %w", message, err)
	}
	return strings.ReplaceAll(decoded, "{0}", value), nil
}

// EncodeMessage percent-encodes text for use as a rule message.
func EncodeMessage(text string) string {
	return url.QueryEscape(text)
}
