package batch

import (
	"strings"
	"time"
)

// NoteRecord represents a single note from an input dataset
type NoteRecord struct {
	File string `csv:"file" parquet:"file" json:"file"`
	Text string `csv:"text" parquet:"text" json:"text"`
}

// ProcessingResult represents the result of processing a dataset
type ProcessingResult struct {
	TotalNotes      int64         `json:"total_notes"`
	ProcessedOK     int64         `json:"processed_ok"`
	ProcessedFailed int64         `json:"processed_failed"`
	SkippedInvalid  int64         `json:"skipped_invalid"`
	Duration        time.Duration `json:"duration"`
	PipelineTime    time.Duration `json:"pipeline_time"`
	DatabaseTime    time.Duration `json:"database_time"`
	CacheTime       time.Duration `json:"cache_time"`
	Errors          []string      `json:"errors,omitempty"`
}

// coverageRow is one line of the batch coverage summary
type coverageRow struct {
	File          string
	FieldsFound   int
	FieldsMissing []string
	Names         int
	Phones        int
	Emails        int
	DOBs          int
	IDs           int
	Addresses     int
}

// FileFormat represents supported dataset formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "json"
	FormatText    FileFormat = "text"
)

// DetectFileFormat detects dataset format from the file extension.
// Unknown extensions are treated as plain-text notes.
func DetectFileFormat(filename string) FileFormat {
	switch {
	case strings.HasSuffix(filename, ".csv"):
		return FormatCSV
	case strings.HasSuffix(filename, ".parquet"):
		return FormatParquet
	case strings.HasSuffix(filename, ".json"), strings.HasSuffix(filename, ".jsonl"):
		return FormatJSON
	default:
		return FormatText
	}
}
