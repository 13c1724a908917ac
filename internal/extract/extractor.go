package extract

import (
	"regexp"
	"strings"
)

var (
	chiefHeadingRe = regexp.MustCompile(`(?i)^(Chief Complaint|Chief Concern|CC|Reason for Visit)\s*[:\-]\s*`)
	planHeadingRe  = regexp.MustCompile(`(?i)^(Plan|Treatment|Recommendations|Follow[- ]?Up)\s*[:\-]\s*`)

	bulletPrefixRe = regexp.MustCompile(`^[-*>\d.]+\s*`)
	planSplitRe    = regexp.MustCompile(`\s*(?:;|&&)\s*`)
	medSplitRe     = regexp.MustCompile(`\s*(?:[+,/;]|\band\b)\s*`)
	medPrefixRe    = regexp.MustCompile(`(?i)\b(pmh|meds?|hx|taking)\b\s*:?\s*`)
	letterDigitRe  = regexp.MustCompile(`([A-Za-z])(\d)`)
	digitLetterRe  = regexp.MustCompile(`(\d)([A-Za-z])`)
)

// Line classification states. CapturingPlan is entered on a plan
// heading and persists until another recognized heading starts a line.
type state int

const (
	stateDefault state = iota
	stateCapturingPlan
)

// Summarize distills a normalized, redacted note into structured
// fields. Only protected text goes in; raw note text is never
// reprocessed here.
func Summarize(text string) Summary {
	summary := Summary{}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	current := stateDefault
	for _, line := range lines {
		if rest, ok := stripHeading(line, chiefHeadingRe); ok {
			if rest != "" {
				summary.ChiefConcern = append(summary.ChiefConcern, rest)
			}
			current = stateDefault
			continue
		}
		if rest, ok := stripHeading(line, planHeadingRe); ok {
			summary.Plan = append(summary.Plan, planItems(rest)...)
			current = stateCapturingPlan
			continue
		}

		if current == stateCapturingPlan {
			summary.Plan = append(summary.Plan, planItems(line)...)
			continue
		}

		classifyLine(&summary, line)
	}

	summary.normalize()
	return summary
}

func stripHeading(line string, heading *regexp.Regexp) (string, bool) {
	loc := heading.FindStringIndex(line)
	if loc == nil {
		return "", false
	}
	return strings.TrimSpace(line[loc[1]:]), true
}

// planItems splits plan content on internal separators into discrete
// items. Items that are nothing but a redaction placeholder are
// dropped so identifiers never surface as plan steps.
func planItems(content string) []string {
	content = bulletPrefixRe.ReplaceAllString(content, "")
	var items []string
	for _, part := range planSplitRe.Split(content, -1) {
		part = strings.TrimSpace(strings.Trim(part, ".;"))
		part = bulletPrefixRe.ReplaceAllString(part, "")
		part = strings.TrimSpace(part)
		if part == "" || containsPlaceholder(part) {
			continue
		}
		items = append(items, part)
	}
	return items
}

// classifyLine tests a default-state line against every heuristic; a
// line may contribute to several buckets at once.
func classifyLine(summary *Summary, line string) {
	if match := durationRe.FindString(line); match != "" {
		summary.Duration = append(summary.Duration, match)
	}

	isDenies := deniesRe.MatchString(line)
	if !isDenies {
		summary.Symptoms = append(summary.Symptoms, extractSymptoms(line)...)
	} else {
		summary.Negatives = append(summary.Negatives, deniesEntry(line))
	}

	if hasVital(line) && !containsPlaceholder(line) {
		for _, match := range vitalRe.FindAllStringSubmatch(line, -1) {
			summary.Vitals = append(summary.Vitals, normalizeVital(match[1], match[2]))
		}
	}

	if isTestLine(line) {
		summary.Tests = append(summary.Tests, testEntries(line)...)
	}

	if medRe.MatchString(line) || allergyRe.MatchString(line) {
		meds, allergies, nkda := splitMedsAllergies(line)
		summary.Meds = append(summary.Meds, meds...)
		if nkda {
			summary.Allergies = []string{"No known drug allergies"}
		} else {
			summary.Allergies = append(summary.Allergies, allergies...)
		}
	}

	if contextRe.MatchString(line) {
		summary.Context = append(summary.Context, line)
	}
	if concernsRe.MatchString(line) {
		summary.Concerns = append(summary.Concerns, line)
	}
	if copingRe.MatchString(line) {
		summary.Coping = append(summary.Coping, line)
	}
}

// deniesEntry captures the negated remainder as "Denies <remainder>"
func deniesEntry(line string) string {
	loc := deniesRe.FindStringIndex(line)
	rest := strings.TrimSpace(strings.Trim(line[loc[1]:], " :,.;"))
	if rest == "" {
		return "Denies"
	}
	return "Denies " + rest
}

// testEntries normalizes test mentions: troponin values become
// "Troponin: <value>", ECG mentions become "ECG: noted", anything else
// passes through as the raw line.
func testEntries(line string) []string {
	var entries []string
	if match := troponinValueRe.FindStringSubmatch(line); match != nil {
		entries = append(entries, "Troponin: "+match[1])
	}
	if ecgRe.MatchString(line) {
		entries = append(entries, "ECG: noted")
	}
	if len(entries) == 0 {
		entries = append(entries, line)
	}
	return entries
}

// splitMedsAllergies divides a line at the allergy keyword into a
// medications segment and an allergies segment, then cleans both.
func splitMedsAllergies(line string) (meds []string, allergies []string, nkda bool) {
	nkda = nkdaRe.MatchString(line)

	medsSeg := line
	allergySeg := ""
	if loc := allergySplitRe.FindStringIndex(line); loc != nil {
		medsSeg = line[:loc[0]]
		allergySeg = line[loc[1]:]
	}

	inMedsContext := medsCueRe.MatchString(medsSeg)
	for _, candidate := range medSplitRe.Split(cleanMedsSegment(medsSeg), -1) {
		candidate = strings.TrimSpace(strings.Trim(candidate, " .;:,"))
		if isMedicationCandidate(candidate, inMedsContext) {
			meds = append(meds, candidate)
		}
	}

	if !nkda && allergySeg != "" {
		entry := strings.TrimSpace(strings.Trim(allergySeg, " .;:,-"))
		if entry != "" {
			allergies = append(allergies, entry)
		}
	}

	return meds, allergies, nkda
}

// cleanMedsSegment prepares a medications segment for splitting: label
// prefixes and the NKDA token are removed, run-together dose text gains
// spaces ("metformin500bid" -> "metformin 500 bid"), and everything
// from the first vital or lab token onward is cut.
func cleanMedsSegment(segment string) string {
	segment = strings.ReplaceAll(segment, `"`, "")
	segment = medPrefixRe.ReplaceAllString(segment, "")
	segment = nkdaRe.ReplaceAllString(segment, "")
	if loc := vitalOrLabRe.FindStringIndex(segment); loc != nil {
		segment = segment[:loc[0]]
	}
	segment = letterDigitRe.ReplaceAllString(segment, "$1 $2")
	segment = digitLetterRe.ReplaceAllString(segment, "$1 $2")
	return segment
}

// normalize applies the per-field post-pass: trim, drop empties,
// case-insensitive dedupe preserving first-seen order, and the
// NotFound sentinel for empty fields. Two cross-field repairs run
// first: promoting a symptom into an unresolved chief concern, and
// merging independently detected breathlessness and chest tightness.
func (s *Summary) normalize() {
	s.Symptoms = mergeBreathlessness(dedupe(s.Symptoms))

	if len(s.ChiefConcern) == 0 && len(s.Symptoms) > 0 {
		s.ChiefConcern = []string{s.Symptoms[0]}
	}

	s.ChiefConcern = finalize(s.ChiefConcern)
	s.Duration = finalize(s.Duration)
	s.Symptoms = finalize(s.Symptoms)
	s.Negatives = finalize(s.Negatives)
	s.Meds = finalize(s.Meds)
	s.Allergies = finalize(s.Allergies)
	s.Vitals = finalize(s.Vitals)
	s.Tests = finalize(s.Tests)
	s.Plan = finalize(s.Plan)
	s.Context = finalize(s.Context)
	s.Concerns = finalize(s.Concerns)
	s.Coping = finalize(s.Coping)
}

func mergeBreathlessness(symptoms []string) []string {
	hasSOB := false
	hasTightness := false
	for _, symptom := range symptoms {
		switch strings.ToLower(symptom) {
		case "shortness of breath":
			hasSOB = true
		case "chest tightness":
			hasTightness = true
		}
	}
	if !hasSOB || !hasTightness {
		return symptoms
	}

	merged := []string{"Shortness of breath with chest tightness"}
	for _, symptom := range symptoms {
		lower := strings.ToLower(symptom)
		if lower == "shortness of breath" || lower == "chest tightness" {
			continue
		}
		merged = append(merged, symptom)
	}
	return merged
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, item := range list {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(item))
	}
	return out
}

func finalize(list []string) []string {
	cleaned := dedupe(list)
	if len(cleaned) == 0 {
		return []string{NotFound}
	}
	return cleaned
}
