package rule

import (
	"errors"
	"testing"
)

func TestCompareTable(t *testing.T) {
	tests := []struct {
		comp      Comparator
		triggered bool
	}{
		{Lower, false},
		{LowerOrEqual, true},
		{EqualEqual, true},
		{Equal, true},
		{NotEqual, false},
		{GreaterOrEqual, true},
		{Greater, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.comp), func(t *testing.T) {
			outcome, err := Compare("80", "80", tt.comp)
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if outcome.Triggered() != tt.triggered {
				t.Errorf("80 %s 80: expected triggered=%v, got %v", tt.comp, tt.triggered, outcome)
			}
		})
	}
}

func TestCompareOutcomes(t *testing.T) {
	tests := []struct {
		value     string
		threshold string
		comp      Comparator
		expected  Outcome
	}{
		{"1", "2", Lower, TriggeredLower},
		{"2", "2", LowerOrEqual, TriggeredLowerOrEqual},
		{"2", "2.0", Equal, TriggeredEqual},
		{"3", "2", NotEqual, TriggeredNotEqual},
		{"2", "2", GreaterOrEqual, TriggeredGreaterOrEqual},
		{"97", "95", Greater, TriggeredGreater},
		{"50", "95", Greater, Passed},
	}

	for _, tt := range tests {
		outcome, err := Compare(tt.value, tt.threshold, tt.comp)
		if err != nil {
			t.Fatalf("Compare(%s %s %s) error = %v", tt.value, tt.comp, tt.threshold, err)
		}
		if outcome != tt.expected {
			t.Errorf("Compare(%s %s %s) = %v, want %v", tt.value, tt.comp, tt.threshold, outcome, tt.expected)
		}
	}
}

func TestCompareNumericBeforeLexicographic(t *testing.T) {
	outcome, err := Compare("9", "10", Greater)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Triggered() {
		t.Error("9 > 10 must be false under numeric comparison")
	}

	// Falls back to string comparison when either side is not a number.
	outcome, err = Compare("beta", "alpha", Greater)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Triggered() {
		t.Error("expected beta > alpha lexicographically")
	}

	outcome, err = Compare("9x", "10", Greater)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Triggered() {
		t.Error("expected \"9x\" > \"10\" lexicographically")
	}
}

func TestCompareUnknownComparator(t *testing.T) {
	_, err := Compare("1", "2", Comparator("=>"))
	if !errors.Is(err, ErrUnknownComparator) {
		t.Errorf("expected ErrUnknownComparator, got %v", err)
	}
}

func TestParse(t *testing.T) {
	r, err := Parse("0:OK {0}|2:WARN {0}:80:>=|1:FAIL {0}:95:>")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if r.OK.Code == nil || *r.OK.Code != 0 {
		t.Errorf("unexpected ok code %v", r.OK.Code)
	}
	if r.OK.Message != "OK {0}" {
		t.Errorf("unexpected ok message %q", r.OK.Message)
	}
	if !r.HasWarnCheck() || *r.Warn.Code != 2 || r.Warn.Threshold != "80" || r.Warn.Comparator != GreaterOrEqual {
		t.Errorf("unexpected warn tier %+v", r.Warn)
	}
	if !r.HasErrorCheck() || *r.Error.Code != 1 || r.Error.Threshold != "95" || r.Error.Comparator != Greater {
		t.Errorf("unexpected error tier %+v", r.Error)
	}
}

func TestParsePartial(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		warnCheck bool
		errCheck  bool
	}{
		{"ok only", "0:fine", false, false},
		{"warn without threshold", "0|2:msg", false, false},
		{"warn with default comparator", "|2::80", true, false},
		{"error only", "||1::95:<", false, true},
		{"threshold without code", "|:msg:80:>", false, false},
		{"empty", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if r.HasWarnCheck() != tt.warnCheck {
				t.Errorf("HasWarnCheck() = %v, want %v", r.HasWarnCheck(), tt.warnCheck)
			}
			if r.HasErrorCheck() != tt.errCheck {
				t.Errorf("HasErrorCheck() = %v, want %v", r.HasErrorCheck(), tt.errCheck)
			}
			if r.Warn.Comparator != DefaultComparator && tt.input != "||1::95:<" {
				t.Errorf("expected default warn comparator, got %q", r.Warn.Comparator)
			}
		})
	}
}

func TestParseBadCode(t *testing.T) {
	for _, input := range []string{"x:msg", "0|two::80", "0|2::80|one::95"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q): expected error", input)
		}
	}
}

func TestParseKeepsUnknownComparator(t *testing.T) {
	r, err := Parse("0|2::80:~")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := r.CheckWarn("90"); !errors.Is(err, ErrUnknownComparator) {
		t.Errorf("expected ErrUnknownComparator at evaluation, got %v", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	inputs := []string{
		"0:OK%20%7B0%7D|2:WARN:80:>=|1:FAIL:95:>",
		"|2::80.5:<|",
		"3",
		"||1:down:0:==",
	}

	for _, input := range inputs {
		first, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		rendered := first.String()
		second, err := Parse(rendered)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", rendered, err)
		}
		if second.String() != rendered {
			t.Errorf("render not stable: %q -> %q", rendered, second.String())
		}
		if first.HasWarnCheck() != second.HasWarnCheck() || first.HasErrorCheck() != second.HasErrorCheck() {
			t.Errorf("active tiers changed for %q", input)
		}
		if first.OK.Message != second.OK.Message || first.Warn.Message != second.Warn.Message {
			t.Errorf("messages changed for %q", input)
		}
	}
}

func TestString(t *testing.T) {
	r, err := Parse("0:OK|2::80.50:>=|1::95")
	if err != nil {
		t.Fatal(err)
	}
	expected := "0:OK|2::80.5:>=|1::95:>"
	if r.String() != expected {
		t.Errorf("String() = %q, want %q", r.String(), expected)
	}
}

func TestFormatThreshold(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"80", "80"},
		{"80.0", "80"},
		{"0.5", "0.5"},
		{"1e3", "1000"},
		{"0.123456789012", "0.123456789"},
		{"-0.00000000001", "0"},
		{"running", "running"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FormatThreshold(tt.input); got != tt.expected {
				t.Errorf("FormatThreshold(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	tests := []struct {
		input string
		empty bool
	}{
		{"", true},
		{"||", true},
		{"|:::>|:::>", true},
		{":OK+{0}", false},
		{"|:WARN:", false},
		{"||:FAIL", false},
		{"|:::<", false},
		{"0", false},
		{"|::80", false},
	}
	for _, tt := range tests {
		r, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.input, err)
		}
		if r.Empty() != tt.empty {
			t.Errorf("Parse(%q).Empty() = %v, want %v", tt.input, r.Empty(), tt.empty)
		}
	}
}
