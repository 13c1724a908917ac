package pipeline

import (
	"errors"
	"strings"
	"time"

	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/extract"
	"github.com/notecloak/notecloak/internal/logger"
	"github.com/notecloak/notecloak/internal/redact"
	"github.com/notecloak/notecloak/internal/views"
)

// ErrEmptyInput is returned when the trimmed note text is empty
var ErrEmptyInput = errors.New("input is empty")

// ErrInputUnavailable is returned when neither note text nor an input
// file was supplied
var ErrInputUnavailable = errors.New("no note text or file supplied")

// Result bundles every pipeline output for one note
type Result struct {
	ProtectedText    string               `json:"protected_text"`
	PlaceholderStyle redact.Style         `json:"placeholder_style"`
	Counts           redact.Counts        `json:"counts"`
	Flags            []string             `json:"flags"`
	Summary          extract.Summary      `json:"summary"`
	PatientView      views.PatientView    `json:"patient_view"`
	ClinicianViews   views.ClinicianViews `json:"clinician_views"`
	Coverage         views.Coverage       `json:"coverage"`
}

// Pipeline sequences normalize, redact, extract, and the view
// builders. Invocations are stateless and safe to run concurrently.
type Pipeline struct {
	engine       *redact.Engine
	defaultStyle redact.Style
	logger       *logger.Logger
}

// New creates a pipeline from configuration
func New(cfg config.PipelineConfig, log *logger.Logger) (*Pipeline, error) {
	style, err := redact.ParseStyle(cfg.DefaultStyle)
	if err != nil {
		return nil, err
	}

	engine, err := redact.New(cfg, log.WithComponent("redact"))
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		engine:       engine,
		defaultStyle: style,
		logger:       log,
	}, nil
}

// DefaultStyle returns the configured placeholder style
func (p *Pipeline) DefaultStyle() redact.Style {
	return p.defaultStyle
}

// Process runs one note through the full pipeline. An empty style
// selects the configured default. The only failure mode is having no
// content: unexpected text degrades to sentinels, never to an error.
func (p *Pipeline) Process(raw string, style redact.Style) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}
	if style == "" {
		style = p.defaultStyle
	}

	start := time.Now()

	normalized := redact.Normalize(raw)
	if normalized == "" {
		return nil, ErrEmptyInput
	}

	redaction := p.engine.Protect(normalized, style)
	summary := extract.Summarize(redaction.ProtectedText)
	patient := views.BuildPatientView(&summary)
	clinician := views.BuildClinicianViews(&summary)
	coverage := views.BuildCoverage(&summary, redaction.Counts)

	if p.logger != nil {
		p.logger.LogProcessed(
			string(style),
			len(raw),
			redaction.Counts.Total(),
			len(redaction.Flags),
			coverage.FieldsFound,
			time.Since(start),
		)
	}

	return &Result{
		ProtectedText:    redaction.ProtectedText,
		PlaceholderStyle: style,
		Counts:           redaction.Counts,
		Flags:            redaction.Flags,
		Summary:          summary,
		PatientView:      patient,
		ClinicianViews:   clinician,
		Coverage:         coverage,
	}, nil
}

// PatientText renders the patient view as text
func (r *Result) PatientText() string {
	return views.RenderPatientView(&r.PatientView)
}

// ClinicianText renders the clinician view as text in the given mode
func (r *Result) ClinicianText(mode views.ClinicianMode) string {
	return views.RenderClinicianView(&r.ClinicianViews, mode)
}

// CoverageText renders the coverage report as text
func (r *Result) CoverageText() string {
	return views.RenderCoverage(&r.Coverage)
}

// RenderText formats the complete text output for one note
func (r *Result) RenderText(mode views.ClinicianMode) string {
	styleLabel := string(r.PlaceholderStyle)
	if styleLabel != "" {
		styleLabel = strings.ToUpper(styleLabel[:1]) + styleLabel[1:]
	}

	sections := []string{
		"Placeholder style: " + styleLabel,
		"Protected note:\n" + r.ProtectedText,
		"Patient View:\n" + r.PatientText(),
		"Clinician View:\n" + r.ClinicianText(mode),
		r.CoverageText(),
	}
	return strings.Join(sections, "\n\n")
}
