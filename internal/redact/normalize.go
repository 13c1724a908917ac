package redact

import (
	"regexp"
	"strings"
)

var (
	timestampRe   = regexp.MustCompile(`^\d{1,2}:\d{2}\s*`)
	triageRe      = regexp.MustCompile(`(?i)[-–—\s]*\btriage note\b[-–—\s]*`)
	boilerplateRe = regexp.MustCompile(`(?i)do not share|random footer|copied template|template text|random junk`)
	ruleLineRe    = regexp.MustCompile(`^[-–—.…]{5,}$`)
	questionRunRe = regexp.MustCompile(`\?{2,}`)
	bangRunRe     = regexp.MustCompile(`!{2,}`)
	dotRunRe      = regexp.MustCompile(`\.{2,}`)
	ellipsisRe    = regexp.MustCompile(`…+`)
	multiSpaceRe  = regexp.MustCompile(`[ \t]{2,}`)
)

// Normalize cleans raw note text before redaction: leading timestamps,
// triage-heading decorations, boilerplate phrases, and repeated
// punctuation are removed line by line. Lines that end up empty are
// dropped. The pass is idempotent on already-clean text.
func Normalize(input string) string {
	text := strings.ReplaceAll(input, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = timestampRe.ReplaceAllString(line, "")
		line = triageRe.ReplaceAllString(line, " ")
		if ruleLineRe.MatchString(line) {
			continue
		}
		line = boilerplateRe.ReplaceAllString(line, "")
		line = questionRunRe.ReplaceAllString(line, "?")
		line = bangRunRe.ReplaceAllString(line, "!")
		line = dotRunRe.ReplaceAllString(line, ".")
		line = ellipsisRe.ReplaceAllString(line, "")
		line = multiSpaceRe.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

// cleanupArtifacts repairs visual damage left when two rules fire on
// adjacent spans: a "+" prefix stranded before a phone token, digits
// left dangling after a token, doubled spaces, and space-before-punctuation.
func cleanupArtifacts(text string, style Style) string {
	categories := []string{
		CategoryPhone,
		CategoryEmail,
		CategoryID,
		CategoryDOB,
		CategoryAddress,
		CategoryName,
	}

	for _, category := range categories {
		token := style.Token(category)
		escaped := regexp.QuoteMeta(token)
		text = regexp.MustCompile(`\+\s*`+escaped).ReplaceAllString(text, token)
		text = regexp.MustCompile(escaped+`\d+`).ReplaceAllString(text, token)
	}

	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, " ,", ",")
	text = strings.ReplaceAll(text, " .", ".")
	text = strings.ReplaceAll(text, " ;", ";")
	return text
}
