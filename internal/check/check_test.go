package check

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jandubois/jmxcheck/internal/config"
	"github.com/jandubois/jmxcheck/internal/query"
	"github.com/jandubois/jmxcheck/internal/remote"
	"github.com/jandubois/jmxcheck/internal/rule"
)

func mustRule(t *testing.T, text string) *rule.Rule {
	t.Helper()
	r, err := rule.Parse(text)
	if err != nil {
		t.Fatalf("rule.Parse(%q) error = %v", text, err)
	}
	return r
}

func TestEvaluate(t *testing.T) {
	cpu := "0:OK {0}|2:WARN {0}:80:>=|1:FAIL {0}:95:>"
	tests := []struct {
		name    string
		rule    string
		value   string
		code    int
		status  Status
		message string
		outcome rule.Outcome
	}{
		{"error tier wins", cpu, "97", 1, StatusCritical, "FAIL 97", rule.TriggeredGreater},
		{"warn tier", cpu, "85", 2, StatusWarning, "WARN 85", rule.TriggeredGreaterOrEqual},
		{"warn boundary", cpu, "80", 2, StatusWarning, "WARN 80", rule.TriggeredGreaterOrEqual},
		{"ok", cpu, "50", 0, StatusOK, "OK 50", rule.Passed},
		{"default ok code", "|2::10", "5", 0, StatusOK, "", rule.Passed},
		{"custom ok code", "3|2::10", "5", 3, StatusOK, "", rule.Passed},
		{"default comparator", "|2::10", "11", 2, StatusWarning, "", rule.TriggeredGreater},
		{"warn without code never fires", "|:w:10|", "11", 0, StatusOK, "", rule.Passed},
		{"string equality", "||2:down:DOWN:==", "DOWN", 2, StatusCritical, "down", rule.TriggeredEqual},
		{"encoded message", "0:All+good%3A+{0}%25", "42", 0, StatusOK, "All good: 42%", rule.Passed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Evaluate(mustRule(t, tt.rule), tt.value)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if res.Code != tt.code {
				t.Errorf("code = %d, want %d", res.Code, tt.code)
			}
			if res.Status != tt.status {
				t.Errorf("status = %s, want %s", res.Status, tt.status)
			}
			if res.Message != tt.message {
				t.Errorf("message = %q, want %q", res.Message, tt.message)
			}
			if res.HasMessage != (tt.message != "") {
				t.Errorf("HasMessage = %v", res.HasMessage)
			}
			if res.Comparison != tt.outcome {
				t.Errorf("comparison = %s, want %s", res.Comparison, tt.outcome)
			}
		})
	}
}

func TestEvaluateUnknownComparator(t *testing.T) {
	_, err := Evaluate(mustRule(t, "|2::10:~"), "11")
	if !errors.Is(err, rule.ErrUnknownComparator) {
		t.Errorf("expected ErrUnknownComparator, got %v", err)
	}
}

func TestEncodeMessageRoundTrip(t *testing.T) {
	text := "heap at {0}: 90% | check gc"
	encoded := EncodeMessage(text)
	if strings.ContainsAny(encoded, ":| ") {
		t.Errorf("encoded message %q still contains separators", encoded)
	}
	decoded, err := FormatMessage(encoded, "x")
	if err != nil {
		t.Fatal(err)
	}
	if decoded != "heap at x: 90% | check gc" {
		t.Errorf("unexpected round trip %q", decoded)
	}
}

func TestFormatMessageBadEncoding(t *testing.T) {
	if _, err := FormatMessage("100%zz", "1"); err == nil {
		t.Error("expected an error for an invalid escape")
	}
}

// singleValueDialer serves one attribute value for every object it lists.
type singleValueDialer struct {
	object remote.ObjectName
	values map[string]any
}

func (d *singleValueDialer) Open(ctx context.Context, url string, creds *remote.Credentials) (remote.Session, error) {
	return d, nil
}

func (d *singleValueDialer) ListObjects(ctx context.Context) ([]remote.ObjectName, error) {
	return []remote.ObjectName{d.object}, nil
}

func (d *singleValueDialer) Describe(ctx context.Context, name remote.ObjectName) (*remote.ObjectInfo, error) {
	info := &remote.ObjectInfo{}
	for k := range d.values {
		info.Attributes = append(info.Attributes, remote.MemberInfo{Name: k, Type: "java.lang.String"})
	}
	return info, nil
}

func (d *singleValueDialer) GetAttribute(ctx context.Context, name remote.ObjectName, attribute string) (any, error) {
	v, ok := d.values[attribute]
	if !ok {
		return nil, &remote.AccessError{Object: name, Member: attribute, Err: remote.ErrInstanceNotFound}
	}
	return v, nil
}

func (d *singleValueDialer) Invoke(ctx context.Context, name remote.ObjectName, operation string) (any, error) {
	return d.GetAttribute(ctx, name, operation)
}

func (d *singleValueDialer) Close() error { return nil }

type noEnv struct{}

func (noEnv) Lookup(string) (string, bool) { return "", false }

func newChecker(values map[string]any) *Checker {
	dialer := &singleValueDialer{object: "app:type=Server", values: values}
	return NewChecker(query.NewRetriever(dialer, query.Options{Env: noEnv{}}))
}

func parseDoc(t *testing.T, text string) *config.Document {
	t.Helper()
	doc, err := config.Parse(strings.NewReader(text), noEnv{})
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestCheckerRun(t *testing.T) {
	doc := parseDoc(t, "[server]\n@object=app:type=Server\ncpu=integer|0:OK {0}|2:WARN {0}:80:>=|1:FAIL {0}:95:>\n")
	c := newChecker(map[string]any{"cpu": "97"})

	report, err := c.Run(context.Background(), doc, "server", "cpu", "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Section != "server" || report.Member != "cpu" || report.Object != "app:type=Server" {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Result.Code != 1 || report.Result.Message != "FAIL 97" {
		t.Errorf("unexpected result %+v", report.Result)
	}
}

func TestCheckerOverride(t *testing.T) {
	tests := []struct {
		name     string
		override string
		code     int
	}{
		{"override replaces rule", "|5::100:<", 5},
		{"bad override falls back", "x|y", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, "[server]\n@object=app:type=Server\ncpu=integer|||1::95:>\n")
			c := newChecker(map[string]any{"cpu": "97"})
			report, err := c.Run(context.Background(), doc, "server", "cpu", tt.override)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if report.Result.Code != tt.code {
				t.Errorf("code = %d, want %d", report.Result.Code, tt.code)
			}
		})
	}
}

func TestCheckerErrors(t *testing.T) {
	doc := parseDoc(t, "[server]\n@object=app:type=Server\ncpu=integer\nthreads=integer|0\n")

	c := newChecker(map[string]any{"cpu": "97"})
	if _, err := c.Run(context.Background(), doc, "server", "cpu", ""); !errors.Is(err, ErrNoRule) {
		t.Errorf("expected ErrNoRule, got %v", err)
	}

	tolerant := NewChecker(query.NewRetriever(
		&singleValueDialer{object: "app:type=Server", values: map[string]any{}},
		query.Options{Env: noEnv{}, TolerateMissing: true}))
	if _, err := tolerant.Run(context.Background(), doc, "server", "threads", ""); !errors.Is(err, ErrNoValue) {
		t.Errorf("expected ErrNoValue, got %v", err)
	}

	if _, err := c.Run(context.Background(), doc, "client", "cpu", ""); !errors.Is(err, config.ErrSectionNotFound) {
		t.Errorf("expected ErrSectionNotFound, got %v", err)
	}
}
