package redact

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "CRLFFolded",
			input: "line one\r\nline two",
			want:  "line one\nline two",
		},
		{
			name:  "LeadingTimestampStripped",
			input: "10:45 pt arrived short of breath",
			want:  "pt arrived short of breath",
		},
		{
			name:  "TriageDecorationDropped",
			input: "--- Triage Note ---\ncp since morning",
			want:  "cp since morning",
		},
		{
			name:  "RuleLineDropped",
			input: "vitals stable\n----------\nplan below",
			want:  "vitals stable\nplan below",
		},
		{
			name:  "BoilerplateRemoved",
			input: "do not share this note\nreal content here",
			want:  "this note\nreal content here",
		},
		{
			name:  "PunctuationRunsCollapsed",
			input: "what is this?? not sure!!! waiting....",
			want:  "what is this? not sure! waiting.",
		},
		{
			name:  "EllipsisStripped",
			input: "thinking… more text",
			want:  "thinking more text",
		},
		{
			name:  "MultiSpaceCollapsed",
			input: "bp   150/90   today",
			want:  "bp 150/90 today",
		},
		{
			name:  "EmptyLinesDropped",
			input: "first\n\n\n   \nsecond",
			want:  "first\nsecond",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	input := "09:12 pt arrived\nfeels dizzy??  worse on stairs\n.......\nplan: rest"
	once := Normalize(input)
	twice := Normalize(once)
	if once != twice {
		t.Errorf("Normalize is not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
	if strings.Contains(once, "??") {
		t.Errorf("Punctuation run survived: %q", once)
	}
}
