package views

import (
	"regexp"
	"strings"

	"github.com/notecloak/notecloak/internal/extract"
)

var triggerRe = regexp.MustCompile(`(?i)worse|stairs|exertion`)

// PatientFound groups the note evidence shown back to the patient
type PatientFound struct {
	Symptoms     []string `json:"symptoms"`
	Negatives    []string `json:"negatives"`
	Medications  []string `json:"medications"`
	Allergies    []string `json:"allergies"`
	TestsResults []string `json:"tests_results"`
	Vitals       []string `json:"vitals"`
}

// PatientView is the patient-friendly projection of a summary. The
// educational text, question list, red flags, and disclaimer are fixed
// content, not derived from the note.
type PatientView struct {
	MainConcern     string       `json:"main_concern"`
	OnsetDuration   string       `json:"onset_duration"`
	Triggers        []string     `json:"triggers"`
	WhatItCouldMean string       `json:"what_it_could_mean"`
	WhatWeFound     PatientFound `json:"what_we_found"`
	NextSteps       []string     `json:"next_steps"`
	QuestionsToAsk  []string     `json:"questions_to_ask"`
	UrgentRedFlags  []string     `json:"urgent_red_flags"`
	Disclaimer      string       `json:"disclaimer"`
}

// BuildPatientView projects a summary into the patient view
func BuildPatientView(summary *extract.Summary) PatientView {
	mainConcern := "Symptoms not clearly stated"
	switch {
	case !extract.IsNotFound(summary.ChiefConcern):
		mainConcern = strings.Join(summary.ChiefConcern, "; ")
	case !extract.IsNotFound(summary.Symptoms):
		mainConcern = summary.Symptoms[0]
	case !extract.IsNotFound(summary.Context):
		mainConcern = summary.Context[0]
	}

	onsetDuration := extract.NotFound
	if !extract.IsNotFound(summary.Duration) {
		onsetDuration = strings.Join(summary.Duration, ", ")
	}

	var triggers []string
	if !extract.IsNotFound(summary.Symptoms) {
		for _, symptom := range summary.Symptoms {
			if triggerRe.MatchString(symptom) {
				triggers = append(triggers, symptom)
			}
		}
	}
	if len(triggers) == 0 {
		triggers = []string{extract.NotFound}
	}

	nextSteps := summary.Plan
	if extract.IsNotFound(summary.Plan) {
		nextSteps = []string{"Follow the plan and confirm timing with your clinician."}
	}

	return PatientView{
		MainConcern:   mainConcern,
		OnsetDuration: onsetDuration,
		Triggers:      triggers,
		WhatItCouldMean: "These symptoms can have many causes. " +
			"Some need urgent evaluation when breathing or chest symptoms are present.",
		WhatWeFound: PatientFound{
			Symptoms:     summary.Symptoms,
			Negatives:    summary.Negatives,
			Medications:  summary.Meds,
			Allergies:    summary.Allergies,
			TestsResults: summary.Tests,
			Vitals:       summary.Vitals,
		},
		NextSteps: nextSteps,
		QuestionsToAsk: []string{
			"What is the most likely cause of my symptoms?",
			"What warning signs should make me seek help immediately?",
			"What tests are still pending, and what do they mean?",
			"What is my follow-up plan and timeline?",
		},
		UrgentRedFlags: []string{
			"Worsening chest pain or pressure",
			"Severe difficulty breathing",
			"Fainting or confusion",
			"Blue lips/face, or new weakness on one side",
		},
		Disclaimer: "This summary is for informational use and does not replace medical advice.",
	}
}
