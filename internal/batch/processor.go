package batch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"

	"github.com/notecloak/notecloak/internal/cache"
	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/logger"
	"github.com/notecloak/notecloak/internal/pipeline"
	"github.com/notecloak/notecloak/internal/redact"
	"github.com/notecloak/notecloak/internal/store"
)

// CoverageFileName is the per-run summary written next to the
// protected notes.
const CoverageFileName = "batch_coverage.csv"

// Processor runs whole datasets of notes through the pipeline. Inputs
// may be a directory of note files or a CSV, JSON-lines, or Parquet
// dataset. Each note yields a protected text file and one row in the
// coverage summary.
type Processor struct {
	pipeline *pipeline.Pipeline
	store    *store.Store
	cache    *cache.ResultCache
	config   config.BatchConfig
	logger   *logger.Logger

	mu        sync.Mutex
	rows      []coverageRow
	anonIndex int
}

// New creates a dataset processor. store and cache may be nil.
func New(pipe *pipeline.Pipeline, reportStore *store.Store, resultCache *cache.ResultCache, cfg config.BatchConfig, log *logger.Logger) *Processor {
	return &Processor{
		pipeline: pipe,
		store:    reportStore,
		cache:    resultCache,
		config:   cfg,
		logger:   log.WithComponent("batch"),
	}
}

// ProcessPath processes every note under inputPath and writes the
// protected notes plus the coverage summary into outputDir.
func (p *Processor) ProcessPath(ctx context.Context, inputPath, outputDir string, style redact.Style) (*ProcessingResult, error) {
	start := time.Now()
	result := &ProcessingResult{}

	p.mu.Lock()
	p.rows = nil
	p.anonIndex = 0
	p.mu.Unlock()

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return result, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return result, fmt.Errorf("failed to stat input: %w", err)
	}

	p.logger.Info("Starting batch run",
		zap.String("input", inputPath),
		zap.String("output", outputDir),
		zap.String("style", string(style)),
		zap.Int("batch_size", p.config.BatchSize))

	if info.IsDir() {
		err = p.processDirectory(ctx, inputPath, outputDir, style, result)
	} else {
		format := DetectFileFormat(inputPath)
		p.logger.Info("Detected dataset format", zap.String("format", string(format)))
		switch format {
		case FormatCSV:
			err = p.processCSV(ctx, inputPath, outputDir, style, result)
		case FormatParquet:
			err = p.processParquet(ctx, inputPath, outputDir, style, result)
		case FormatJSON:
			err = p.processJSONLines(ctx, inputPath, outputDir, style, result)
		default:
			err = p.processNoteFiles(ctx, []string{inputPath}, outputDir, style, result)
		}
	}
	if err != nil {
		return result, err
	}

	if outputDir != "" {
		if err := p.writeCoverageSummary(outputDir); err != nil {
			return result, fmt.Errorf("failed to write coverage summary: %w", err)
		}
	}

	result.Duration = time.Since(start)
	p.logger.Info("Batch run completed",
		zap.Int64("total_notes", result.TotalNotes),
		zap.Int64("processed_ok", result.ProcessedOK),
		zap.Int64("processed_failed", result.ProcessedFailed),
		zap.Int64("skipped_invalid", result.SkippedInvalid),
		zap.Duration("total_duration", result.Duration),
		zap.Duration("pipeline_time", result.PipelineTime),
		zap.Duration("database_time", result.DatabaseTime))

	return result, nil
}

// processDirectory walks one level of a directory of note files
func (p *Processor) processDirectory(ctx context.Context, dir, outputDir string, style redact.Style, result *ProcessingResult) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".json") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("no note files found in %s", dir)
	}

	return p.processNoteFiles(ctx, files, outputDir, style, result)
}

// processNoteFiles reads each file as a single note
func (p *Processor) processNoteFiles(ctx context.Context, files []string, outputDir string, style redact.Style, result *ProcessingResult) error {
	idx := 0
	return p.processBatches(ctx, func() ([]*NoteRecord, error) {
		var batch []*NoteRecord
		for len(batch) < p.config.BatchSize && idx < len(files) {
			path := files[idx]
			idx++

			content, err := os.ReadFile(path)
			if err != nil {
				p.logger.Warn("Failed to read note file", zap.String("file", path), zap.Error(err))
				result.ProcessedFailed++
				continue
			}

			record := &NoteRecord{
				File: filepath.Base(path),
				Text: pipeline.UnwrapNote(path, content),
			}
			if p.validateRecord(record) {
				batch = append(batch, record)
			} else {
				result.SkippedInvalid++
			}
		}
		return batch, nil
	}, outputDir, style, result)
}

// processCSV reads a dataset with file and text columns
func (p *Processor) processCSV(ctx context.Context, filePath, outputDir string, style redact.Style, result *ProcessingResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	fileCol, textCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "file", "name", "id":
			if fileCol < 0 {
				fileCol = i
			}
		case "text", "note", "content":
			if textCol < 0 {
				textCol = i
			}
		}
	}
	if textCol < 0 {
		return fmt.Errorf("CSV header has no text column: %v", header)
	}

	return p.processBatches(ctx, func() ([]*NoteRecord, error) {
		var batch []*NoteRecord
		for len(batch) < p.config.BatchSize {
			row, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read CSV record", zap.Error(err))
				result.ProcessedFailed++
				continue
			}
			if textCol >= len(row) {
				result.SkippedInvalid++
				continue
			}

			record := &NoteRecord{Text: row[textCol]}
			if fileCol >= 0 && fileCol < len(row) {
				record.File = strings.TrimSpace(row[fileCol])
			}

			if p.validateRecord(record) {
				batch = append(batch, record)
			} else {
				result.SkippedInvalid++
			}
		}
		return batch, nil
	}, outputDir, style, result)
}

// processParquet reads a Parquet dataset of note records
func (p *Processor) processParquet(ctx context.Context, filePath, outputDir string, style redact.Style, result *ProcessingResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open Parquet file: %w", err)
	}
	defer file.Close()

	reader := parquet.NewReader(file)
	defer reader.Close()

	return p.processBatches(ctx, func() ([]*NoteRecord, error) {
		var batch []*NoteRecord
		for len(batch) < p.config.BatchSize {
			var record NoteRecord
			err := reader.Read(&record)
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read Parquet record", zap.Error(err))
				result.ProcessedFailed++
				continue
			}

			if p.validateRecord(&record) {
				batch = append(batch, &record)
			} else {
				result.SkippedInvalid++
			}
		}
		return batch, nil
	}, outputDir, style, result)
}

// processJSONLines reads a stream of JSON note records
func (p *Processor) processJSONLines(ctx context.Context, filePath, outputDir string, style redact.Style, result *ProcessingResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)

	return p.processBatches(ctx, func() ([]*NoteRecord, error) {
		var batch []*NoteRecord
		for len(batch) < p.config.BatchSize {
			var record NoteRecord
			err := decoder.Decode(&record)
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read JSON record", zap.Error(err))
				result.ProcessedFailed++
				continue
			}

			if p.validateRecord(&record) {
				batch = append(batch, &record)
			} else {
				result.SkippedInvalid++
			}
		}
		return batch, nil
	}, outputDir, style, result)
}

// processBatches drains the reader function batch by batch
func (p *Processor) processBatches(ctx context.Context, readBatch func() ([]*NoteRecord, error), outputDir string, style redact.Style, result *ProcessingResult) error {
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := readBatch()
		if err != nil {
			return fmt.Errorf("failed to read batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		if err := p.processBatch(ctx, batch, outputDir, style, result); err != nil {
			p.logger.Error("Batch processing failed", zap.Error(err))
			result.ProcessedFailed += int64(len(batch))
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		if p.config.ProgressReport > 0 && result.TotalNotes >= int64(p.config.ProgressReport) &&
			result.TotalNotes%int64(p.config.ProgressReport) < int64(p.config.BatchSize) {
			elapsed := time.Since(start)
			p.logger.Info("Processing progress",
				zap.Int64("notes_processed", result.TotalNotes),
				zap.Int64("notes_ok", result.ProcessedOK),
				zap.Int64("notes_failed", result.ProcessedFailed),
				zap.Float64("rate_per_sec", float64(result.TotalNotes)/elapsed.Seconds()),
				zap.Duration("elapsed", elapsed))
		}
	}
	return nil
}

// processBatch runs one batch through the pipeline and flushes the
// store and cache in bulk
func (p *Processor) processBatch(ctx context.Context, batch []*NoteRecord, outputDir string, style redact.Style, result *ProcessingResult) error {
	var (
		texts   []string
		results []*pipeline.Result
		reports []*store.Report
	)

	for _, record := range batch {
		result.TotalNotes++

		pipelineStart := time.Now()
		res, err := p.pipeline.Process(record.Text, style)
		result.PipelineTime += time.Since(pipelineStart)
		if err != nil {
			p.logger.Warn("Note processing failed",
				zap.String("file", record.File), zap.Error(err))
			result.ProcessedFailed++
			continue
		}

		name := record.File
		if name == "" {
			p.mu.Lock()
			p.anonIndex++
			name = fmt.Sprintf("record_%06d", p.anonIndex)
			p.mu.Unlock()
		}

		if outputDir != "" {
			if err := p.writeProtected(outputDir, name, res.ProtectedText); err != nil {
				p.logger.Warn("Failed to write protected note",
					zap.String("file", name), zap.Error(err))
				result.ProcessedFailed++
				continue
			}
		}

		p.mu.Lock()
		p.rows = append(p.rows, coverageRow{
			File:          name,
			FieldsFound:   res.Coverage.FieldsFound,
			FieldsMissing: res.Coverage.FieldsMissing,
			Names:         res.Counts.Name,
			Phones:        res.Counts.Phone,
			Emails:        res.Counts.Email,
			DOBs:          res.Counts.DOB,
			IDs:           res.Counts.ID,
			Addresses:     res.Counts.Address,
		})
		p.mu.Unlock()

		texts = append(texts, record.Text)
		results = append(results, res)
		if p.store != nil {
			reports = append(reports, store.NewReport(name, res))
		}
		result.ProcessedOK++
	}

	if p.store != nil && len(reports) > 0 {
		dbStart := time.Now()
		inserted, err := p.store.BatchInsert(ctx, reports)
		result.DatabaseTime += time.Since(dbStart)
		if err != nil {
			p.logger.Warn("Failed to store coverage reports", zap.Error(err))
		} else {
			p.logger.Debug("Coverage reports stored", zap.Int64("inserted", inserted))
		}
	}

	if p.cache != nil && len(results) > 0 {
		cacheStart := time.Now()
		if err := p.cache.StoreBatch(ctx, texts, style, results); err != nil {
			p.logger.Warn("Failed to update result cache", zap.Error(err))
		}
		result.CacheTime += time.Since(cacheStart)
	}

	return nil
}

// writeProtected writes one protected note next to the coverage summary
func (p *Processor) writeProtected(outputDir, name, protectedText string) error {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	outPath := filepath.Join(outputDir, base+".protected.txt")
	return os.WriteFile(outPath, []byte(protectedText+"\n"), 0o644)
}

// writeCoverageSummary writes batch_coverage.csv for the whole run
func (p *Processor) writeCoverageSummary(outputDir string) error {
	p.mu.Lock()
	rows := make([]coverageRow, len(p.rows))
	copy(rows, p.rows)
	p.mu.Unlock()

	file, err := os.Create(filepath.Join(outputDir, CoverageFileName))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"file", "fields_found", "fields_missing", "names", "phones", "emails", "dobs", "ids", "addresses"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.File,
			strconv.Itoa(row.FieldsFound),
			strings.Join(row.FieldsMissing, "|"),
			strconv.Itoa(row.Names),
			strconv.Itoa(row.Phones),
			strconv.Itoa(row.Emails),
			strconv.Itoa(row.DOBs),
			strconv.Itoa(row.IDs),
			strconv.Itoa(row.Addresses),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// validateRecord applies the configured input checks
func (p *Processor) validateRecord(record *NoteRecord) bool {
	if !p.config.ValidateData {
		return true
	}

	if strings.TrimSpace(record.Text) == "" {
		p.logger.Debug("Invalid record: empty text", zap.String("file", record.File))
		return false
	}

	if p.config.MaxNoteLength > 0 && len(record.Text) > p.config.MaxNoteLength {
		p.logger.Debug("Invalid record: text too long",
			zap.String("file", record.File), zap.Int("length", len(record.Text)))
		return false
	}

	return true
}
