package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/notecloak/notecloak/internal/events"
	"github.com/notecloak/notecloak/internal/pipeline"
	"github.com/notecloak/notecloak/internal/redact"
	"github.com/notecloak/notecloak/internal/store"
	"github.com/notecloak/notecloak/internal/views"
	"go.uber.org/zap"
)

// processRequest is the JSON body accepted by the note endpoints.
// Note, text, and content are interchangeable envelope keys.
type processRequest struct {
	Note    string `json:"note"`
	Text    string `json:"text"`
	Content string `json:"content"`
	Style   string `json:"style"`
}

func (pr *processRequest) noteText() string {
	if strings.TrimSpace(pr.Note) != "" {
		return pr.Note
	}
	if strings.TrimSpace(pr.Text) != "" {
		return pr.Text
	}
	return pr.Content
}

// processResponse wraps a pipeline result with request metadata
type processResponse struct {
	RequestID  string  `json:"request_id"`
	CacheHit   bool    `json:"cache_hit"`
	DurationMS float64 `json:"duration_ms"`
	*pipeline.Result
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":            "notecloak",
		"version":         "0.1.0",
		"default_style":   s.config.Pipeline.DefaultStyle,
		"custom_patterns": len(s.config.Pipeline.CustomPatterns),
		"cache_enabled":   s.cache != nil,
		"storage_enabled": s.store != nil,
		"uptime":          time.Since(s.started).String(),
	})
}

// handleProcess runs one note through the pipeline and returns the
// full structured result
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r.Context())
	logger := s.logger.WithRequestID(requestID)
	start := time.Now()

	text, style, err := s.readNoteRequest(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	// Result cache lookup
	if s.cache != nil {
		if cached, err := s.cache.Get(r.Context(), text, style); err == nil && cached != nil {
			s.writeJSON(w, http.StatusOK, processResponse{
				RequestID:  requestID,
				CacheHit:   true,
				DurationMS: float64(time.Since(start).Nanoseconds()) / 1e6,
				Result:     cached,
			})
			return
		}
	}

	result, err := s.pipeline.Process(text, style)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrEmptyInput) || errors.Is(err, pipeline.ErrInputUnavailable) {
			status = http.StatusBadRequest
		}
		logger.Error("Note processing failed", zap.Error(err))
		s.writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	duration := time.Since(start)

	if s.cache != nil {
		if err := s.cache.Store(r.Context(), text, style, result); err != nil {
			logger.Warn("Failed to cache result", zap.Error(err))
		}
	}

	if s.store != nil {
		report := store.NewReport("api", result)
		if err := s.store.Insert(r.Context(), report); err != nil {
			logger.Warn("Failed to store coverage report", zap.Error(err))
		}
	}

	s.hub.BroadcastEvent(events.Event{
		Type:      events.EventTypeRedaction,
		Timestamp: time.Now(),
		RequestID: requestID,
		Data: events.RedactionEvent{
			RequestID:    requestID,
			Style:        string(result.PlaceholderStyle),
			Counts:       result.Counts,
			Flags:        result.Flags,
			FieldsFound:  result.Coverage.FieldsFound,
			ProcessingMS: float64(duration.Nanoseconds()) / 1e6,
		},
	})

	s.writeJSON(w, http.StatusOK, processResponse{
		RequestID:  requestID,
		DurationMS: float64(duration.Nanoseconds()) / 1e6,
		Result:     result,
	})
}

// handleRender runs the pipeline and returns a plain-text rendering.
// The view query parameter selects patient, clinician, coverage, or
// full output; mode selects the clinician layout.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	text, style, err := s.readNoteRequest(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	mode := views.ParseClinicianMode(r.URL.Query().Get("mode"))

	result, err := s.pipeline.Process(text, style)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrEmptyInput) || errors.Is(err, pipeline.ErrInputUnavailable) {
			status = http.StatusBadRequest
		}
		s.writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	var out string
	switch view := r.URL.Query().Get("view"); view {
	case "patient":
		out = result.PatientText()
	case "clinician":
		out = result.ClinicianText(mode)
	case "coverage":
		out = result.CoverageText()
	case "", "full":
		out = result.RenderText(mode)
	default:
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown view %q", view)})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out)
}

// handleRecentReports returns the latest stored coverage reports
func (s *Server) handleRecentReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 500"})
			return
		}
		limit = parsed
	}

	reports, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to load recent reports", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load reports"})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(reports),
		"reports": reports,
	})
}

// handleCacheStats returns result-cache statistics
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.GetStats(r.Context())
	if err != nil {
		s.logger.Error("Failed to read cache stats", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read cache stats"})
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// handleCacheClear drops every cached result
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Clear(r.Context()); err != nil {
		s.logger.Error("Failed to clear cache", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to clear cache"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readNoteRequest extracts the note text and placeholder style from an
// incoming request. JSON bodies may use the note, text, or content
// keys; any other body is treated as the raw note.
func (s *Server) readNoteRequest(r *http.Request) (string, redact.Style, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return "", "", fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body.Close()

	text := string(body)
	styleName := ""

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req processRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return "", "", fmt.Errorf("invalid JSON body: %w", err)
		}
		text = req.noteText()
		styleName = req.Style
	}

	if qs := r.URL.Query().Get("style"); qs != "" {
		styleName = qs
	}

	style := s.pipeline.DefaultStyle()
	if styleName != "" {
		style, err = redact.ParseStyle(styleName)
		if err != nil {
			return "", "", err
		}
	}

	return text, style, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
