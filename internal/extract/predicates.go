package extract

import (
	"regexp"
	"strings"
)

var (
	placeholderRe = regexp.MustCompile(`\[[A-Z]+(?:_[A-Z]+)+\]|<[A-Z]+>`)

	durationRe = regexp.MustCompile(`(?i)\b(x\s?\d+\s?(?:d|day|days|w|wk|week|weeks|mo|month|months)|for\s+\d+\s?(?:d|day|days|w|wk|week|weeks|mo|month|months)|since\s+\w+|started\s+last\s+\w+)\b`)

	symptomRe = regexp.MustCompile(`(?i)\b(sob|shortness of breath|breathe|breathing|dyspnea|cp|chest pain|tightness|abdo pain|abdominal pain|fatigue|nausea|vomiting|diarrhea|cough|fever|dizzy|dizziness|headache)\b`)

	vitalRe = regexp.MustCompile(`(?i)\b(SpO2|O2\s?sat|BP|HR|RR|Temp|T)\s?(\d{2,3}(?:/\d{2,3})?(?:\.\d)?)%?`)

	testRe = regexp.MustCompile(`(?i)\b(ecg|ekg|trop|troponin|crp|hba1c|labs?|ct|cxr|x-ray|wbc)\b`)

	medRe = regexp.MustCompile(`(?i)\b(meds?|taking|metformin|ramipril|lisinopril|amlodipine|ibu|ibuprofen|asa|statin|prazosin)\b`)

	medsCueRe = regexp.MustCompile(`(?i)\b(meds?|taking)\b`)

	allergyRe      = regexp.MustCompile(`(?i)\b(nkda|allergy|allergies|penicillin)\b`)
	allergySplitRe = regexp.MustCompile(`(?i)\ballerg(?:y|ies)\b`)
	nkdaRe         = regexp.MustCompile(`(?i)\b(nkda|no known drug allergies)\b`)

	deniesRe = regexp.MustCompile(`(?i)\bdenies\b`)

	troponinValueRe = regexp.MustCompile(`(?i)\btrop(?:onin)?\s*:?\s*(\d+(?:\.\d+)?)`)
	ecgRe           = regexp.MustCompile(`(?i)\b(ecg|ekg)\b`)
	repeatTropRe    = regexp.MustCompile(`(?i)\brepeat\b.*\btrop`)

	contextRe  = regexp.MustCompile(`(?i)stress|work|context`)
	concernsRe = regexp.MustCompile(`(?i)concern|worried|denies`)
	copingRe   = regexp.MustCompile(`(?i)sleep|coping`)

	doseMarkerRe = regexp.MustCompile(`(?i)\b(mg|mcg|g|ml|units?|bid|od|tid|qid|prn|qd|nocte)\b`)
	freqOnlyRe   = regexp.MustCompile(`(?i)\b(bid|od|tid|qid|prn|qd|nocte)\b`)
	alphaTokenRe = regexp.MustCompile(`^[A-Za-z][A-Za-z ]*$`)
)

// diagnosisAbbrevs are history shorthand that rides along on medication
// lines but is not itself a medication.
var diagnosisAbbrevs = map[string]bool{
	"htn":  true,
	"dm":   true,
	"dm2":  true,
	"t2dm": true,
	"copd": true,
	"cad":  true,
	"chf":  true,
	"afib": true,
	"gerd": true,
	"hld":  true,
	"nkda": true,
	"hx":   true,
	"pmh":  true,
}

// knownDrugs is the small vocabulary of drug names recognized without
// any dose or frequency marker.
var knownDrugs = map[string]bool{
	"metformin":  true,
	"ramipril":   true,
	"lisinopril": true,
	"amlodipine": true,
	"ibuprofen":  true,
	"ibu":        true,
	"asa":        true,
	"statin":     true,
	"prazosin":   true,
	"heparin":    true,
}

// vitalOrLabRe marks tokens that belong to vitals or lab results, never
// to a medication list.
var vitalOrLabRe = regexp.MustCompile(`(?i)\b(vitals?|bp|hr|rr|temp|spo2|o2|trop|troponin|crp|wbc|ecg|ekg|hba1c|labs?)\b`)

func containsPlaceholder(line string) bool {
	return placeholderRe.MatchString(line)
}

func hasVital(line string) bool {
	return vitalRe.MatchString(line)
}

func isTestLine(line string) bool {
	return testRe.MatchString(line) &&
		!containsPlaceholder(line) &&
		!hasVital(line) &&
		!repeatTropRe.MatchString(line)
}

// isMedicationCandidate decides whether a cleaned token from a
// medication segment is an actual medication. inMedsContext is true
// when the source line carried an explicit meds cue ("meds", "taking").
func isMedicationCandidate(token string, inMedsContext bool) bool {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" || containsPlaceholder(trimmed) {
		return false
	}

	compact := strings.ToLower(strings.ReplaceAll(trimmed, " ", ""))
	hasDose := doseMarkerRe.MatchString(trimmed)

	if diagnosisAbbrevs[compact] && !hasDose {
		return false
	}
	if vitalOrLabRe.MatchString(trimmed) {
		return false
	}
	if hasDose {
		return true
	}

	words := strings.Fields(strings.ToLower(trimmed))
	for _, word := range words {
		if knownDrugs[word] {
			return true
		}
	}

	if inMedsContext && alphaTokenRe.MatchString(trimmed) {
		return true
	}

	return false
}

// normalizeSymptom folds abbreviations into their canonical terms
func normalizeSymptom(token string) string {
	switch strings.ToLower(token) {
	case "sob":
		return "shortness of breath"
	case "cp":
		return "chest pain"
	case "abdo pain":
		return "abdominal pain"
	case "tightness":
		return "chest tightness"
	default:
		return strings.ToLower(token)
	}
}

// extractSymptoms returns the normalized symptom hits in a line, in
// first-appearance order without duplicates.
func extractSymptoms(line string) []string {
	var hits []string
	for _, match := range symptomRe.FindAllString(line, -1) {
		normalized := normalizeSymptom(match)
		seen := false
		for _, existing := range hits {
			if strings.EqualFold(existing, normalized) {
				seen = true
				break
			}
		}
		if !seen {
			hits = append(hits, normalized)
		}
	}
	return hits
}

// normalizeVital renders a matched vital as "LABEL value". SpO2 and
// O2-sat variants fold to "SpO2 NN%".
func normalizeVital(label, value string) string {
	value = strings.TrimSuffix(strings.TrimSpace(value), "%")
	compact := strings.ToLower(strings.ReplaceAll(label, " ", ""))
	switch compact {
	case "spo2", "o2sat":
		return "SpO2 " + value + "%"
	case "bp":
		return "BP " + value
	case "hr":
		return "HR " + value
	case "rr":
		return "RR " + value
	case "t", "temp":
		return "Temp " + value
	default:
		return strings.ToUpper(label) + " " + value
	}
}
