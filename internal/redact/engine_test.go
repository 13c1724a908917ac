package redact

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/logger"
)

func newTestEngine(t *testing.T, cfg config.PipelineConfig) *Engine {
	t.Helper()
	if cfg.Thresholds.DigitLength == 0 {
		cfg.Thresholds.DigitLength = 8
	}
	engine, err := New(cfg, &logger.Logger{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return engine
}

func TestParseStyle(t *testing.T) {
	for _, name := range []string{"protected", "masked", "hidden", "removed", "angle"} {
		style, err := ParseStyle(name)
		if err != nil {
			t.Errorf("ParseStyle(%q) returned error: %v", name, err)
		}
		if string(style) != name {
			t.Errorf("ParseStyle(%q) = %q", name, style)
		}
	}

	if _, err := ParseStyle("bogus"); err == nil {
		t.Error("ParseStyle accepted an unknown style")
	}

	if style, err := ParseStyle("MASKED"); err != nil || style != StyleMasked {
		t.Errorf("ParseStyle is not case-insensitive: %v %v", style, err)
	}
}

func TestStyleToken(t *testing.T) {
	tests := []struct {
		style    Style
		category string
		want     string
	}{
		{StyleProtected, CategoryName, "[NAME_PROTECTED]"},
		{StyleMasked, CategoryEmail, "[EMAIL_MASKED]"},
		{StyleHidden, CategoryPhone, "[PHONE_HIDDEN]"},
		{StyleRemoved, CategoryID, "[ID_REMOVED]"},
		{StyleAngle, CategoryName, "<NAME>"},
		{Style("mystery"), CategoryDOB, "[DOB_MYSTERY]"},
	}

	for _, tt := range tests {
		if got := tt.style.Token(tt.category); got != tt.want {
			t.Errorf("Token(%q, %q) = %q, want %q", tt.style, tt.category, got, tt.want)
		}
	}
}

func TestProtectRules(t *testing.T) {
	engine := newTestEngine(t, config.PipelineConfig{})

	t.Run("LabeledName", func(t *testing.T) {
		result := engine.Protect("Patient: Jane Doe Smith seen today", StyleProtected)
		if !strings.Contains(result.ProtectedText, "Patient: [NAME_PROTECTED]") {
			t.Errorf("Label not preserved: %q", result.ProtectedText)
		}
		if strings.Contains(result.ProtectedText, "Jane") {
			t.Errorf("Name leaked: %q", result.ProtectedText)
		}
		if result.Counts.Name != 1 {
			t.Errorf("Name count = %d, want 1", result.Counts.Name)
		}
	})

	t.Run("EmailAndPhone", func(t *testing.T) {
		result := engine.Protect("Reach me at john.doe@example.com or 555-123-4567", StyleProtected)
		if !strings.Contains(result.ProtectedText, "[EMAIL_PROTECTED]") {
			t.Errorf("Email not redacted: %q", result.ProtectedText)
		}
		if !strings.Contains(result.ProtectedText, "[PHONE_PROTECTED]") {
			t.Errorf("Phone not redacted: %q", result.ProtectedText)
		}
		if result.Counts.Email != 1 || result.Counts.Phone != 1 {
			t.Errorf("Counts = %+v", result.Counts)
		}
	})

	t.Run("LabeledDOB", func(t *testing.T) {
		result := engine.Protect("DOB: 12/03/1982", StyleProtected)
		if result.ProtectedText != "DOB: [DOB_PROTECTED]" {
			t.Errorf("DOB redaction = %q", result.ProtectedText)
		}
		if result.Counts.DOB != 1 || result.Counts.Phone != 0 {
			t.Errorf("Counts = %+v", result.Counts)
		}
	})

	t.Run("LabeledAddressFixedLabel", func(t *testing.T) {
		result := engine.Protect("Address: 12 Main Street, Springfield", StyleProtected)
		if result.ProtectedText != "Address: [ADDRESS_PROTECTED]" {
			t.Errorf("Address redaction = %q", result.ProtectedText)
		}
		if result.Counts.Address != 1 {
			t.Errorf("Address count = %d, want 1", result.Counts.Address)
		}
	})

	t.Run("StreetAddress", func(t *testing.T) {
		result := engine.Protect("Lives at 45 Oak Street.", StyleProtected)
		if !strings.Contains(result.ProtectedText, "[ADDRESS_PROTECTED]") {
			t.Errorf("Street address not redacted: %q", result.ProtectedText)
		}
		if strings.Contains(result.ProtectedText, "Oak") {
			t.Errorf("Street leaked: %q", result.ProtectedText)
		}
	})

	t.Run("LabeledIDBeforeGeneric", func(t *testing.T) {
		result := engine.Protect("MRN: 883920", StyleProtected)
		if result.ProtectedText != "MRN: [ID_PROTECTED]" {
			t.Errorf("MRN redaction = %q", result.ProtectedText)
		}
		if result.Counts.ID != 1 {
			t.Errorf("ID count = %d, want 1", result.Counts.ID)
		}
	})

	t.Run("GenericID", func(t *testing.T) {
		result := engine.Protect("ref 9876543 on file", StyleProtected)
		if !strings.Contains(result.ProtectedText, "[ID_PROTECTED]") {
			t.Errorf("Generic id not redacted: %q", result.ProtectedText)
		}
	})

	t.Run("AngleStyle", func(t *testing.T) {
		result := engine.Protect("mail jane@example.org please", StyleAngle)
		if !strings.Contains(result.ProtectedText, "<EMAIL>") {
			t.Errorf("Angle token missing: %q", result.ProtectedText)
		}
	})
}

func TestProtectCleanupArtifacts(t *testing.T) {
	engine := newTestEngine(t, config.PipelineConfig{})

	result := engine.Protect("call 0176-12345678 now", StyleProtected)
	if !strings.Contains(result.ProtectedText, "[PHONE_PROTECTED]") {
		t.Fatalf("Phone not redacted: %q", result.ProtectedText)
	}
	if strings.Contains(result.ProtectedText, "[PHONE_PROTECTED]8") {
		t.Errorf("Trailing digit left after token: %q", result.ProtectedText)
	}
}

func TestProtectIdempotent(t *testing.T) {
	engine := newTestEngine(t, config.PipelineConfig{})

	tests := []struct {
		name  string
		text  string
		style Style
	}{
		{"NameAndPhone", "Name: John Smith, phone 555-123-4567", StyleProtected},
		{"StreetAddress", "He lives at 12 Main Street nearby", StyleProtected},
		{"StreetAddressAngle", "He lives at 12 Main Street nearby", StyleAngle},
		{"LabeledAddress", "Address: 45 Oak Street, Springfield", StyleProtected},
		{"LabeledAddressAngle", "Address: 45 Oak Street, Springfield", StyleAngle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := engine.Protect(tt.text, tt.style)
			second := engine.Protect(first.ProtectedText, tt.style)
			if second.ProtectedText != first.ProtectedText {
				t.Errorf("Second pass changed text:\nfirst:  %q\nsecond: %q",
					first.ProtectedText, second.ProtectedText)
			}
			if second.Counts.Total() != 0 {
				t.Errorf("Second pass counted new redactions: %+v", second.Counts)
			}
		})
	}
}

func TestReviewFlags(t *testing.T) {
	cfg := config.PipelineConfig{}
	cfg.Thresholds.DigitLength = 8
	cfg.Thresholds.MinNoteLength = 20
	engine := newTestEngine(t, cfg)

	t.Run("LongDigitSequence", func(t *testing.T) {
		result := engine.Protect("Account 12345678 closed per protocol today", StyleProtected)
		if !containsFlag(result.Flags, "Long digit sequence") {
			t.Errorf("Flags = %v", result.Flags)
		}
	})

	t.Run("MultipleIdentifiersOnALine", func(t *testing.T) {
		result := engine.Protect("Name: John Smith, phone 555-123-4567, stable overnight", StyleProtected)
		if !containsFlag(result.Flags, "Multiple identifiers on a line") {
			t.Errorf("Flags = %v", result.Flags)
		}
	})

	t.Run("ShortNote", func(t *testing.T) {
		result := engine.Protect("BP 91", StyleProtected)
		if !containsFlag(result.Flags, "Short note") {
			t.Errorf("Flags = %v", result.Flags)
		}
	})

	t.Run("CleanNote", func(t *testing.T) {
		result := engine.Protect("Patient resting comfortably, no complaints overnight.", StyleProtected)
		if len(result.Flags) != 0 {
			t.Errorf("Unexpected flags: %v", result.Flags)
		}
	})
}

func TestCustomPatterns(t *testing.T) {
	cfg := config.PipelineConfig{
		CustomPatterns: []config.CustomPattern{
			{Name: "insurance", Pattern: `INS-\d{4,}`},
		},
	}
	engine := newTestEngine(t, cfg)

	result := engine.Protect("Policy INS-99887 active", StyleProtected)
	if !strings.Contains(result.ProtectedText, "[INSURANCE_PROTECTED]") {
		t.Errorf("Custom pattern not applied: %q", result.ProtectedText)
	}
	if result.Counts.Other != 1 {
		t.Errorf("Other count = %d, want 1", result.Counts.Other)
	}
}

func TestCustomPatternInvalid(t *testing.T) {
	cfg := config.PipelineConfig{
		CustomPatterns: []config.CustomPattern{
			{Name: "broken", Pattern: `([`},
		},
	}
	cfg.Thresholds.DigitLength = 8
	if _, err := New(cfg, &logger.Logger{Logger: zap.NewNop()}); err == nil {
		t.Error("Invalid custom pattern accepted")
	}
}

func containsFlag(flags []string, want string) bool {
	for _, flag := range flags {
		if flag == want {
			return true
		}
	}
	return false
}
