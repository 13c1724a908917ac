package extract

// NotFound is the sentinel entry marking a field with no extracted
// content. Fields are never empty: consumers check IsNotFound instead
// of testing for an empty slice.
const NotFound = "Not found"

// Summary holds the structured fields distilled from one protected note
type Summary struct {
	ChiefConcern []string `json:"chief_concern"`
	Duration     []string `json:"duration"`
	Symptoms     []string `json:"symptoms"`
	Negatives    []string `json:"negatives"`
	Meds         []string `json:"meds"`
	Allergies    []string `json:"allergies"`
	Vitals       []string `json:"vitals"`
	Tests        []string `json:"tests"`
	Plan         []string `json:"plan"`
	Context      []string `json:"context"`
	Concerns     []string `json:"concerns"`
	Coping       []string `json:"coping"`
}

// Fields returns the summary fields with their coverage labels, in
// reporting order.
func (s *Summary) Fields() []struct {
	Label string
	Items []string
} {
	return []struct {
		Label string
		Items []string
	}{
		{"chief_concern", s.ChiefConcern},
		{"duration", s.Duration},
		{"symptoms", s.Symptoms},
		{"negatives", s.Negatives},
		{"meds", s.Meds},
		{"allergies", s.Allergies},
		{"vitals", s.Vitals},
		{"tests", s.Tests},
		{"plan", s.Plan},
		{"context", s.Context},
		{"concerns", s.Concerns},
		{"coping", s.Coping},
	}
}

// IsNotFound reports whether a field holds only the sentinel
func IsNotFound(list []string) bool {
	return len(list) == 1 && list[0] == NotFound
}
