package views

import (
	"fmt"
	"strings"

	"github.com/notecloak/notecloak/internal/extract"
)

// ClinicianMode selects which clinician projection to render
type ClinicianMode string

const (
	ModeSOAP   ClinicianMode = "soap"
	ModeFiveCs ClinicianMode = "5cs"
	ModeBoth   ClinicianMode = "both"
)

// ParseClinicianMode maps a request value to a mode, defaulting to both
func ParseClinicianMode(value string) ClinicianMode {
	switch strings.ToLower(value) {
	case "soap":
		return ModeSOAP
	case "5cs", "5c":
		return ModeFiveCs
	default:
		return ModeBoth
	}
}

func renderSection(title string, items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return title + "\n" + strings.Join(lines, "\n")
}

// RenderPatientView formats the patient view as bulleted text sections
func RenderPatientView(view *PatientView) string {
	cameIn := []string{"Main concern: " + view.MainConcern}
	if view.OnsetDuration != extract.NotFound {
		cameIn = append(cameIn, "Duration: "+view.OnsetDuration)
	}
	if !extract.IsNotFound(view.Triggers) {
		cameIn = append(cameIn, "Triggers: "+strings.Join(view.Triggers, "; "))
	}

	found := []string{
		"Symptoms: " + strings.Join(view.WhatWeFound.Symptoms, "; "),
		"Negatives: " + strings.Join(view.WhatWeFound.Negatives, "; "),
		"Medications: " + strings.Join(view.WhatWeFound.Medications, "; "),
		"Allergies: " + strings.Join(view.WhatWeFound.Allergies, "; "),
		"Tests/results: " + strings.Join(view.WhatWeFound.TestsResults, "; "),
		"Vitals: " + strings.Join(view.WhatWeFound.Vitals, "; "),
	}

	sections := []string{
		renderSection("What you came in with", cameIn),
		renderSection("What it could mean", []string{view.WhatItCouldMean}),
		renderSection("What we found in your note", found),
		renderSection("What to do next (checklist)", view.NextSteps),
		renderSection("Questions to ask your clinician", view.QuestionsToAsk),
		renderSection("When to seek urgent care", view.UrgentRedFlags),
		renderSection("Disclaimer", []string{view.Disclaimer}),
	}
	return strings.Join(sections, "\n\n")
}

// RenderClinicianView formats the requested clinician projection
func RenderClinicianView(views *ClinicianViews, mode ClinicianMode) string {
	switch mode {
	case ModeSOAP:
		return renderSOAP(&views.SOAP)
	case ModeFiveCs:
		return renderFiveCs(&views.FiveCs)
	default:
		return renderSOAP(&views.SOAP) + "\n\n" + renderFiveCs(&views.FiveCs)
	}
}

func renderSOAP(view *SOAP) string {
	sections := []string{
		renderSection("SOAP - S", view.S),
		renderSection("SOAP - O", view.O),
		renderSection("SOAP - A", view.A),
		renderSection("SOAP - P", view.P),
	}
	return strings.Join(sections, "\n\n")
}

func renderFiveCs(view *FiveCs) string {
	sections := []string{
		renderSection("5C's - Chief complaint", []string{view.ChiefComplaint}),
		renderSection("5C's - Course", view.Course),
		renderSection("5C's - Context", view.Context),
		renderSection("5C's - Concerns", view.Concerns),
		renderSection("5C's - Coping", view.Coping),
	}
	return strings.Join(sections, "\n\n")
}

// RenderCoverage formats the coverage report as three lines: found
// count, missing list, and the redaction-count digest in fixed order.
func RenderCoverage(coverage *Coverage) string {
	missing := "none"
	if len(coverage.FieldsMissing) > 0 {
		missing = strings.Join(coverage.FieldsMissing, ", ")
	}
	counts := coverage.ProtectedCounts
	return fmt.Sprintf(
		"fields_found: %d\nmissing: %s\nprotected_counts: names %d, phones %d, emails %d, dobs %d, ids %d, addresses %d",
		coverage.FieldsFound,
		missing,
		counts.Name, counts.Phone, counts.Email, counts.DOB, counts.ID, counts.Address,
	)
}
