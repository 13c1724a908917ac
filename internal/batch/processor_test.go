package batch

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/logger"
	"github.com/notecloak/notecloak/internal/pipeline"
	"github.com/notecloak/notecloak/internal/redact"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	cfg := config.GetDefaults()
	log := &logger.Logger{Logger: zap.NewNop()}

	pipe, err := pipeline.New(cfg.Pipeline, log)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}
	return New(pipe, nil, nil, cfg.Batch, log)
}

func TestDetectFileFormat(t *testing.T) {
	tests := []struct {
		file string
		want FileFormat
	}{
		{"data.csv", FormatCSV},
		{"data.parquet", FormatParquet},
		{"data.json", FormatJSON},
		{"data.jsonl", FormatJSON},
		{"note.txt", FormatText},
		{"note", FormatText},
	}
	for _, tt := range tests {
		if got := DetectFileFormat(tt.file); got != tt.want {
			t.Errorf("DetectFileFormat(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestProcessDirectory(t *testing.T) {
	processor := newTestProcessor(t)

	inDir := t.TempDir()
	outDir := t.TempDir()

	writeFile(t, inDir, "a.txt", "Patient: Jane Doe\nCC: chest pain\nPlan: rest")
	writeFile(t, inDir, "b.json", `{"note":"CC: headache\nsob x 2 days"}`)
	writeFile(t, inDir, "c.txt", "MRN: 883920\nDenies fever")
	writeFile(t, inDir, "skip.log", "not a note file")

	result, err := processor.ProcessPath(context.Background(), inDir, outDir, redact.StyleProtected)
	if err != nil {
		t.Fatalf("ProcessPath failed: %v", err)
	}

	if result.TotalNotes != 3 || result.ProcessedOK != 3 {
		t.Errorf("result = %+v", result)
	}

	for _, name := range []string{"a.protected.txt", "b.protected.txt", "c.protected.txt"} {
		path := filepath.Join(outDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Missing output %s: %v", name, err)
		}
		if strings.Contains(string(content), "Jane") || strings.Contains(string(content), "883920") {
			t.Errorf("Identifier leaked in %s: %s", name, content)
		}
	}

	rows := readCoverage(t, outDir)
	if len(rows) != 4 {
		t.Fatalf("Coverage rows = %d, want header + 3", len(rows))
	}
	wantHeader := []string{"file", "fields_found", "fields_missing", "names", "phones", "emails", "dobs", "ids", "addresses"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("Header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][0] != "a.txt" {
		t.Errorf("First row file = %q", rows[1][0])
	}
	if rows[1][3] != "1" {
		t.Errorf("a.txt names = %q, want 1", rows[1][3])
	}
}

func TestProcessCSVDataset(t *testing.T) {
	processor := newTestProcessor(t)

	inDir := t.TempDir()
	outDir := t.TempDir()

	dataset := "file,text\n" +
		"n1.txt,\"CC: chest pain\nPlan: rest\"\n" +
		"n2.txt,\"Denies fever\"\n" +
		"n3.txt,\"\"\n"
	path := filepath.Join(inDir, "dataset.csv")
	if err := os.WriteFile(path, []byte(dataset), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := processor.ProcessPath(context.Background(), path, outDir, redact.StyleProtected)
	if err != nil {
		t.Fatalf("ProcessPath failed: %v", err)
	}

	if result.ProcessedOK != 2 {
		t.Errorf("ProcessedOK = %d, want 2", result.ProcessedOK)
	}
	if result.SkippedInvalid != 1 {
		t.Errorf("SkippedInvalid = %d, want 1", result.SkippedInvalid)
	}

	rows := readCoverage(t, outDir)
	if len(rows) != 3 {
		t.Errorf("Coverage rows = %d, want header + 2", len(rows))
	}
}

func TestProcessJSONLinesDataset(t *testing.T) {
	processor := newTestProcessor(t)

	inDir := t.TempDir()
	outDir := t.TempDir()

	dataset := `{"file":"x.txt","text":"CC: chest pain"}` + "\n" +
		`{"file":"y.txt","text":"sob x 3 days"}` + "\n"
	path := filepath.Join(inDir, "dataset.jsonl")
	if err := os.WriteFile(path, []byte(dataset), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := processor.ProcessPath(context.Background(), path, outDir, redact.StyleProtected)
	if err != nil {
		t.Fatalf("ProcessPath failed: %v", err)
	}
	if result.ProcessedOK != 2 {
		t.Errorf("ProcessedOK = %d, want 2", result.ProcessedOK)
	}
	if _, err := os.Stat(filepath.Join(outDir, "x.protected.txt")); err != nil {
		t.Errorf("Missing protected output: %v", err)
	}
}

func TestValidateRecord(t *testing.T) {
	processor := newTestProcessor(t)

	if processor.validateRecord(&NoteRecord{File: "a", Text: ""}) {
		t.Error("Empty text accepted")
	}
	if processor.validateRecord(&NoteRecord{File: "a", Text: strings.Repeat("x", 100001)}) {
		t.Error("Oversized note accepted")
	}
	if !processor.validateRecord(&NoteRecord{File: "a", Text: "CC: chest pain"}) {
		t.Error("Valid record rejected")
	}

	processor.config.ValidateData = false
	if !processor.validateRecord(&NoteRecord{File: "a", Text: ""}) {
		t.Error("Validation ran while disabled")
	}
}

func TestProcessEmptyDirectory(t *testing.T) {
	processor := newTestProcessor(t)
	if _, err := processor.ProcessPath(context.Background(), t.TempDir(), t.TempDir(), redact.StyleProtected); err == nil {
		t.Error("Expected error for directory without notes")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readCoverage(t *testing.T, outDir string) [][]string {
	t.Helper()
	file, err := os.Open(filepath.Join(outDir, CoverageFileName))
	if err != nil {
		t.Fatalf("Missing coverage summary: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Invalid coverage CSV: %v", err)
	}
	return rows
}
