package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/logger"
	"github.com/notecloak/notecloak/internal/pipeline"
)

// Report is one persisted coverage row. Only aggregate numbers and the
// hash of the protected text are stored, never note content.
type Report struct {
	ID            int64     `db:"id" json:"id"`
	Source        string    `db:"source" json:"source"`
	TextHash      string    `db:"text_hash" json:"text_hash"`
	Style         string    `db:"style" json:"style"`
	FieldsFound   int       `db:"fields_found" json:"fields_found"`
	FieldsMissing string    `db:"fields_missing" json:"fields_missing"`
	Names         int       `db:"names" json:"names"`
	Phones        int       `db:"phones" json:"phones"`
	Emails        int       `db:"emails" json:"emails"`
	DOBs          int       `db:"dobs" json:"dobs"`
	IDs           int       `db:"ids" json:"ids"`
	Addresses     int       `db:"addresses" json:"addresses"`
	Others        int       `db:"others" json:"others"`
	Flags         int       `db:"flags" json:"flags"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// NewReport builds a coverage row from a pipeline result
func NewReport(source string, result *pipeline.Result) *Report {
	hash := sha256.Sum256([]byte(result.ProtectedText))
	counts := result.Counts
	return &Report{
		Source:        source,
		TextHash:      hex.EncodeToString(hash[:]),
		Style:         string(result.PlaceholderStyle),
		FieldsFound:   result.Coverage.FieldsFound,
		FieldsMissing: strings.Join(result.Coverage.FieldsMissing, "|"),
		Names:         counts.Name,
		Phones:        counts.Phone,
		Emails:        counts.Email,
		DOBs:          counts.DOB,
		IDs:           counts.ID,
		Addresses:     counts.Address,
		Others:        counts.Other,
		Flags:         len(result.Flags),
	}
}

// Store persists coverage reports to PostgreSQL
type Store struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// New creates a coverage report store
func New(cfg config.StorageConfig, log *logger.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	store := &Store{
		db:     db,
		logger: log,
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	log.Info("Coverage store initialized",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return store, nil
}

// initialize checks the connection and ensures the reports table
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS note_reports (
			id BIGSERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			text_hash TEXT NOT NULL,
			style TEXT NOT NULL,
			fields_found INT NOT NULL,
			fields_missing TEXT NOT NULL DEFAULT '',
			names INT NOT NULL DEFAULT 0,
			phones INT NOT NULL DEFAULT 0,
			emails INT NOT NULL DEFAULT 0,
			dobs INT NOT NULL DEFAULT 0,
			ids INT NOT NULL DEFAULT 0,
			addresses INT NOT NULL DEFAULT 0,
			others INT NOT NULL DEFAULT 0,
			flags INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (text_hash, style)
		)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure note_reports table: %w", err)
	}

	return nil
}

// Insert persists one coverage report
func (s *Store) Insert(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO note_reports (source, text_hash, style, fields_found, fields_missing,
			names, phones, emails, dobs, ids, addresses, others, flags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (text_hash, style) DO NOTHING
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		report.Source,
		report.TextHash,
		report.Style,
		report.FieldsFound,
		report.FieldsMissing,
		report.Names,
		report.Phones,
		report.Emails,
		report.DOBs,
		report.IDs,
		report.Addresses,
		report.Others,
		report.Flags,
	).Scan(&report.ID, &report.CreatedAt)

	// DO NOTHING returns no row when the report already exists
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logger.Error("Failed to insert coverage report",
			zap.Error(err),
			zap.String("source", report.Source))
		return fmt.Errorf("failed to insert coverage report: %w", err)
	}

	return nil
}

// BatchInsert persists multiple coverage reports in one statement
func (s *Store) BatchInsert(ctx context.Context, reports []*Report) (int64, error) {
	if len(reports) == 0 {
		return 0, nil
	}

	start := time.Now()
	const cols = 13

	valueStrings := make([]string, 0, len(reports))
	valueArgs := make([]interface{}, 0, len(reports)*cols)

	for i, report := range reports {
		placeholders := make([]string, cols)
		for j := 0; j < cols; j++ {
			placeholders[j] = fmt.Sprintf("$%d", i*cols+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")
		valueArgs = append(valueArgs,
			report.Source,
			report.TextHash,
			report.Style,
			report.FieldsFound,
			report.FieldsMissing,
			report.Names,
			report.Phones,
			report.Emails,
			report.DOBs,
			report.IDs,
			report.Addresses,
			report.Others,
			report.Flags,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO note_reports (source, text_hash, style, fields_found, fields_missing,
			names, phones, emails, dobs, ids, addresses, others, flags)
		VALUES %s
		ON CONFLICT (text_hash, style) DO NOTHING`,
		strings.Join(valueStrings, ","))

	res, err := s.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("batch insert failed: %w", err)
	}

	inserted, _ := res.RowsAffected()
	s.logger.Debug("Coverage reports inserted",
		zap.Int64("inserted", inserted),
		zap.Int("submitted", len(reports)),
		zap.Duration("duration", time.Since(start)))

	return inserted, nil
}

// Recent returns the most recently stored reports, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 50
	}

	var reports []Report
	query := `SELECT * FROM note_reports ORDER BY created_at DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &reports, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	return reports, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// maskDatabaseURL masks credentials in a database URL for logging
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			schemeParts := strings.Split(parts[0], "://")
			if len(schemeParts) == 2 {
				return schemeParts[0] + "://***@" + strings.Join(parts[1:], "@")
			}
		}
	}
	return url
}
