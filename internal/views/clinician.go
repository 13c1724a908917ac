package views

import (
	"strings"

	"github.com/notecloak/notecloak/internal/extract"
)

// SOAP is the Subjective / Objective / Assessment / Plan clinician view
type SOAP struct {
	S []string `json:"S"`
	O []string `json:"O"`
	A []string `json:"A"`
	P []string `json:"P"`
}

// FiveCs is the Chief complaint / Course / Context / Concerns / Coping
// clinician view
type FiveCs struct {
	ChiefComplaint string   `json:"chief_complaint"`
	Course         []string `json:"course"`
	Context        []string `json:"context"`
	Concerns       []string `json:"concerns"`
	Coping         []string `json:"coping"`
}

// ClinicianViews bundles both clinician projections
type ClinicianViews struct {
	SOAP   SOAP   `json:"soap"`
	FiveCs FiveCs `json:"five_cs"`
}

// BuildClinicianViews projects a summary into both clinician views.
// Narrative fields fall back to "Not stated"; objective fields fall
// back to "(none detected)".
func BuildClinicianViews(summary *extract.Summary) ClinicianViews {
	soap := SOAP{
		S: []string{
			narrativeLine("CC", summary.ChiefConcern),
			narrativeLine("Duration", summary.Duration),
			narrativeLine("Symptoms", summary.Symptoms),
		},
		O: []string{
			objectiveLine("Vitals", summary.Vitals),
			objectiveLine("Tests", summary.Tests),
			objectiveLine("Meds", summary.Meds),
			objectiveLine("Allergies", summary.Allergies),
		},
		A: []string{"Assessment not explicitly stated."},
		P: summary.Plan,
	}
	if extract.IsNotFound(summary.Plan) {
		soap.P = []string{"Not stated"}
	}

	chiefComplaint := extract.NotFound
	if !extract.IsNotFound(summary.ChiefConcern) {
		chiefComplaint = strings.Join(summary.ChiefConcern, "; ")
	}

	coping := summary.Coping
	if extract.IsNotFound(summary.Coping) {
		coping = []string{"Not stated"}
	}

	return ClinicianViews{
		SOAP: soap,
		FiveCs: FiveCs{
			ChiefComplaint: chiefComplaint,
			Course:         summary.Duration,
			Context:        summary.Context,
			Concerns:       summary.Concerns,
			Coping:         coping,
		},
	}
}

func narrativeLine(label string, items []string) string {
	if extract.IsNotFound(items) {
		return label + ": Not stated"
	}
	return label + ": " + strings.Join(items, "; ")
}

func objectiveLine(label string, items []string) string {
	if extract.IsNotFound(items) {
		return label + ": (none detected)"
	}
	return label + ": " + strings.Join(items, "; ")
}
