package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/notecloak/notecloak/internal/logger"
	"github.com/notecloak/notecloak/internal/pipeline"
	"github.com/notecloak/notecloak/internal/redact"
	"github.com/notecloak/notecloak/internal/views"
)

func TestNewReport(t *testing.T) {
	result := &pipeline.Result{
		ProtectedText:    "Patient: [NAME_PROTECTED] seen for chest pain",
		PlaceholderStyle: redact.StyleProtected,
		Counts:           redact.Counts{Name: 1, Phone: 2, DOB: 1},
		Flags:            []string{"Long digit sequence"},
		Coverage: views.Coverage{
			FieldsFound:   4,
			FieldsMissing: []string{"vitals", "tests"},
		},
	}

	report := NewReport("api", result)

	if report.Source != "api" {
		t.Errorf("Source = %q, want %q", report.Source, "api")
	}
	if report.Style != "protected" {
		t.Errorf("Style = %q, want %q", report.Style, "protected")
	}
	if len(report.TextHash) != 64 {
		t.Errorf("TextHash length = %d, want 64", len(report.TextHash))
	}
	if report.FieldsFound != 4 {
		t.Errorf("FieldsFound = %d, want 4", report.FieldsFound)
	}
	if report.FieldsMissing != "vitals|tests" {
		t.Errorf("FieldsMissing = %q", report.FieldsMissing)
	}
	if report.Names != 1 || report.Phones != 2 || report.DOBs != 1 {
		t.Errorf("Counts wrong: %+v", report)
	}
	if report.Flags != 1 {
		t.Errorf("Flags = %d, want 1", report.Flags)
	}

	same := NewReport("batch", result)
	if same.TextHash != report.TextHash {
		t.Error("Hash not stable for identical protected text")
	}
}

// noRowsConnector backs a database handle whose queries always return
// zero rows, the shape a conflicting INSERT ... DO NOTHING produces.
type noRowsConnector struct{}

func (noRowsConnector) Connect(context.Context) (driver.Conn, error) { return noRowsConn{}, nil }
func (noRowsConnector) Driver() driver.Driver                        { return noRowsDriver{} }

type noRowsDriver struct{}

func (noRowsDriver) Open(string) (driver.Conn, error) { return noRowsConn{}, nil }

type noRowsConn struct{}

func (noRowsConn) Prepare(string) (driver.Stmt, error) { return noRowsStmt{}, nil }
func (noRowsConn) Close() error                        { return nil }
func (noRowsConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

type noRowsStmt struct{}

func (noRowsStmt) Close() error  { return nil }
func (noRowsStmt) NumInput() int { return -1 }
func (noRowsStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.ResultNoRows, nil
}
func (noRowsStmt) Query([]driver.Value) (driver.Rows, error) { return &noRows{}, nil }

type noRows struct{}

func (*noRows) Columns() []string         { return []string{"id", "created_at"} }
func (*noRows) Close() error              { return nil }
func (*noRows) Next([]driver.Value) error { return io.EOF }

func TestInsertDuplicateReport(t *testing.T) {
	s := &Store{
		db:     sqlx.NewDb(sql.OpenDB(noRowsConnector{}), "postgres"),
		logger: &logger.Logger{Logger: zap.NewNop()},
	}

	report := &Report{
		Source:   "api",
		TextHash: "0d7f2a",
		Style:    "protected",
	}
	if err := s.Insert(context.Background(), report); err != nil {
		t.Errorf("Insert on conflict returned error: %v", err)
	}
}

func TestMaskDatabaseURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"WithCredentials", "postgres://app:secret@db:5432/notecloak", "postgres://***@db:5432/notecloak"},
		{"NoCredentials", "postgres://db:5432/notecloak", "postgres://db:5432/notecloak"},
		{"NoScheme", "app:secret@db:5432", "app:secret@db:5432"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskDatabaseURL(tt.url); got != tt.expected {
				t.Errorf("maskDatabaseURL(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}
