package redact

import (
	"fmt"
	"regexp"
	"strings"
)

// Style selects how redaction placeholders are rendered in output text.
type Style string

const (
	StyleProtected Style = "protected"
	StyleMasked    Style = "masked"
	StyleHidden    Style = "hidden"
	StyleRemoved   Style = "removed"
	StyleAngle     Style = "angle"
)

// ParseStyle validates a style name from config or a request
func ParseStyle(input string) (Style, error) {
	switch Style(strings.ToLower(input)) {
	case StyleProtected:
		return StyleProtected, nil
	case StyleMasked:
		return StyleMasked, nil
	case StyleHidden:
		return StyleHidden, nil
	case StyleRemoved:
		return StyleRemoved, nil
	case StyleAngle:
		return StyleAngle, nil
	}
	return "", fmt.Errorf("invalid placeholder style: %s (use protected, masked, hidden, removed, angle)", input)
}

// Token renders the placeholder for a category in this style. Unrecognized
// styles render in the bracketed form using the literal style name.
func (s Style) Token(category string) string {
	if s == StyleAngle {
		return "<" + category + ">"
	}
	return "[" + category + "_" + strings.ToUpper(string(s)) + "]"
}

// Placeholder categories
const (
	CategoryName    = "NAME"
	CategoryEmail   = "EMAIL"
	CategoryPhone   = "PHONE"
	CategoryDOB     = "DOB"
	CategoryAddress = "ADDRESS"
	CategoryID      = "ID"
)

// Count buckets. Both address rules share the address bucket and both ID
// rules share the id bucket; custom patterns land in other.
const (
	bucketName    = "name"
	bucketEmail   = "email"
	bucketPhone   = "phone"
	bucketDOB     = "dob"
	bucketAddress = "address"
	bucketID      = "id"
	bucketOther   = "other"
)

// Rule is a single redaction rule. Rules are immutable and applied in
// catalog order; each rule sees the text as left by the rules before it.
type Rule struct {
	Name       string
	Category   string
	Bucket     string
	Pattern    *regexp.Regexp
	Labeled    bool                    // preserve the first capture group as a label
	FixedLabel string                  // always emit this label regardless of matched text
	Skip       func(match string) bool // leave the match untouched when true
}

// Counts holds per-category redaction totals. All buckets are always
// present, defaulting to zero.
type Counts struct {
	Name    int `json:"name"`
	Email   int `json:"email"`
	Phone   int `json:"phone"`
	DOB     int `json:"dob"`
	ID      int `json:"id"`
	Address int `json:"address"`
	Other   int `json:"other"`
}

// Total returns the number of redacted spans across all buckets
func (c Counts) Total() int {
	return c.Name + c.Email + c.Phone + c.DOB + c.ID + c.Address + c.Other
}

// Result contains the outcome of redacting one note
type Result struct {
	ProtectedText string   `json:"protected_text"`
	Counts        Counts   `json:"counts"`
	Flags         []string `json:"flags"`
	Style         Style    `json:"placeholder_style"`
}
