package events

import (
	"time"

	"github.com/notecloak/notecloak/internal/redact"
)

// EventType represents the type of event broadcast to clients
type EventType string

const (
	// EventTypeRedaction is emitted after a note passes the pipeline
	EventTypeRedaction EventType = "redaction"
	// EventTypeRequestLog is emitted per handled HTTP request
	EventTypeRequestLog EventType = "request_log"
	// EventTypeSystemStatus carries periodic hub statistics
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection reports client connects and disconnects
	EventTypeConnection EventType = "connection"
)

// Event is the envelope sent to WebSocket clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// RedactionEvent summarizes one processed note. It carries counts and
// flags only; neither the raw note nor extracted values are broadcast.
type RedactionEvent struct {
	RequestID    string        `json:"request_id"`
	Style        string        `json:"style"`
	Counts       redact.Counts `json:"counts"`
	Flags        []string      `json:"flags"`
	FieldsFound  int           `json:"fields_found"`
	ProcessingMS float64       `json:"processing_ms"`
}

// RequestLogEvent describes one handled HTTP request
type RequestLogEvent struct {
	RequestID  string        `json:"request_id"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	ClientIP   string        `json:"client_ip"`
	Duration   time.Duration `json:"duration"`
}

// SystemStatusEvent reports hub health
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	TotalNotes       int64  `json:"total_notes"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent reports a WebSocket client change
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
	Message  string `json:"message,omitempty"`
}

// ClientMessage is a message sent from a client to the server
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest limits which events a client receives
type SubscriptionRequest struct {
	Events []EventType `json:"events"`
}
