package redact

import (
	"regexp"
	"strings"
)

var (
	addressLabelRe = regexp.MustCompile(`(?i)^(?:Address|Addr)`)
	addressTokenRe = regexp.MustCompile(`^(?:\[ADDRESS_[A-Z]+\]|<ADDRESS>)`)
)

// addressAlreadyRedacted reports whether an address-label match sits
// inside a placeholder token or already carries an address token, so
// that re-protecting redacted output leaves it unchanged.
func addressAlreadyRedacted(match string) bool {
	rest := addressLabelRe.ReplaceAllString(match, "")
	if strings.HasPrefix(rest, ">") || strings.HasPrefix(rest, "_") {
		return true
	}
	rest = strings.TrimLeft(rest, ":- \t")
	return addressTokenRe.MatchString(rest)
}

// GetDefaultRules returns the built-in rule catalog in priority order.
// Labeled rules run before the generic fallbacks so that a field like
// "MRN: 883920" keeps its label instead of being consumed as a bare
// digit run.
func GetDefaultRules() []Rule {
	return []Rule{
		{
			Name:     "labeled_name",
			Category: CategoryName,
			Bucket:   bucketName,
			Labeled:  true,
			Pattern:  regexp.MustCompile(`\b(Name|Patient Name|Patient|Pt)\s*:\s*[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2}`),
		},
		{
			Name:     "email",
			Category: CategoryEmail,
			Bucket:   bucketEmail,
			Pattern:  regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`),
		},
		{
			Name:     "phone",
			Category: CategoryPhone,
			Bucket:   bucketPhone,
			Pattern:  regexp.MustCompile(`(?:\+?\d{1,2}\s*)?(?:\(?\d{3}\)?[\s.-]?)\d{3}[\s.-]?\d{4}`),
		},
		{
			Name:     "labeled_dob",
			Category: CategoryDOB,
			Bucket:   bucketDOB,
			Labeled:  true,
			Pattern:  regexp.MustCompile(`(?i)\b(DOB|Date of Birth)\s*[:\-]?\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|\d{4}[/\-]\d{1,2}[/\-]\d{1,2})`),
		},
		{
			Name:       "labeled_address",
			Category:   CategoryAddress,
			Bucket:     bucketAddress,
			FixedLabel: "Address",
			Pattern:    regexp.MustCompile(`(?i)\b(?:Address|Addr)\b\s*[:\-]?\s*[^\n.]*`),
			Skip:       addressAlreadyRedacted,
		},
		{
			Name:     "street_address",
			Category: CategoryAddress,
			Bucket:   bucketAddress,
			Pattern:  regexp.MustCompile(`\b\d{1,5}\s+[A-Za-z0-9.'-]+(?:\s+[A-Za-z0-9.'-]+){0,4}\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Way|Place|Pl|Strasse|Str)\b(?:\s+\d{4,5})?`),
		},
		{
			Name:     "labeled_id",
			Category: CategoryID,
			Bucket:   bucketID,
			Labeled:  true,
			Pattern:  regexp.MustCompile(`(?i)\b(ID|MRN|Record|Account)\s*[:#]?\s*\d{5,}\b`),
		},
		{
			Name:     "generic_id",
			Category: CategoryID,
			Bucket:   bucketID,
			Pattern:  regexp.MustCompile(`\b\d{6,}\b`),
		},
	}
}
