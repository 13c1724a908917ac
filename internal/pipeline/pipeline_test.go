package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/logger"
	"github.com/notecloak/notecloak/internal/redact"
	"github.com/notecloak/notecloak/internal/views"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := config.GetDefaults().Pipeline
	pipe, err := New(cfg, &logger.Logger{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}
	return pipe
}

func TestProcess(t *testing.T) {
	pipe := newTestPipeline(t)

	note := "Patient: Jane Doe, DOB: 12/03/1982, MRN: 883920\n" +
		"CC: chest pain\n" +
		"sob x 3 days, worse on stairs\n" +
		"meds metformin 500 bid; nkda\n" +
		"Plan: repeat labs; follow-up cardio"

	result, err := pipe.Process(note, redact.StyleProtected)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if strings.Contains(result.ProtectedText, "Jane") {
		t.Errorf("Name leaked: %q", result.ProtectedText)
	}
	if strings.Contains(result.ProtectedText, "12/03/1982") {
		t.Errorf("DOB leaked: %q", result.ProtectedText)
	}
	if result.Counts.Name != 1 || result.Counts.DOB != 1 || result.Counts.ID != 1 {
		t.Errorf("Counts = %+v", result.Counts)
	}
	if result.Summary.ChiefConcern[0] != "chest pain" {
		t.Errorf("ChiefConcern = %v", result.Summary.ChiefConcern)
	}
	if len(result.Summary.Plan) != 2 {
		t.Errorf("Plan = %v", result.Summary.Plan)
	}
	if result.Coverage.FieldsFound+len(result.Coverage.FieldsMissing) != 12 {
		t.Errorf("Coverage inconsistent: %+v", result.Coverage)
	}
	if result.PlaceholderStyle != redact.StyleProtected {
		t.Errorf("PlaceholderStyle = %q", result.PlaceholderStyle)
	}
}

func TestProcessEmptyStyleUsesDefault(t *testing.T) {
	pipe := newTestPipeline(t)
	result, err := pipe.Process("CC: headache for 2 days now", "")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.PlaceholderStyle != redact.StyleProtected {
		t.Errorf("PlaceholderStyle = %q, want default", result.PlaceholderStyle)
	}
}

func TestProcessEmptyInput(t *testing.T) {
	pipe := newTestPipeline(t)

	for _, input := range []string{"", "   ", "\n\n\t"} {
		if _, err := pipe.Process(input, redact.StyleProtected); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Process(%q) err = %v, want ErrEmptyInput", input, err)
		}
	}
}

func TestRenderText(t *testing.T) {
	pipe := newTestPipeline(t)
	result, err := pipe.Process("CC: chest pain\nPlan: rest", redact.StyleProtected)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	out := result.RenderText(views.ModeBoth)
	for _, want := range []string{
		"Placeholder style: Protected",
		"Protected note:",
		"Patient View:",
		"Clinician View:",
		"fields_found:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText missing %q:\n%s", want, out)
		}
	}
}

func TestUnwrapNote(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"PlainText", "note.txt", "raw note text", "raw note text"},
		{"NoteField", "note.json", `{"note":"from note field"}`, "from note field"},
		{"TextField", "note.json", `{"text":"from text field"}`, "from text field"},
		{"ContentField", "note.json", `{"content":"from content field"}`, "from content field"},
		{"MalformedJSON", "note.json", `{not json`, `{not json`},
		{"EmptyEnvelope", "note.json", `{"other":"x"}`, `{"other":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnwrapNote(tt.file, []byte(tt.content)); got != tt.want {
				t.Errorf("UnwrapNote = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveInput(t *testing.T) {
	t.Run("PastedTextWins", func(t *testing.T) {
		got, err := ResolveInput("pasted note", "ignored.txt")
		if err != nil || got != "pasted note" {
			t.Errorf("ResolveInput = %q, %v", got, err)
		}
	})

	t.Run("NothingSupplied", func(t *testing.T) {
		if _, err := ResolveInput("", ""); !errors.Is(err, ErrInputUnavailable) {
			t.Errorf("err = %v, want ErrInputUnavailable", err)
		}
	})

	t.Run("FileRead", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "note.json")
		if err := os.WriteFile(path, []byte(`{"note":"file note"}`), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := ResolveInput("", path)
		if err != nil || got != "file note" {
			t.Errorf("ResolveInput = %q, %v", got, err)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := ResolveInput("", filepath.Join(t.TempDir(), "missing.txt")); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}
