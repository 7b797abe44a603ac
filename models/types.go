// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Question type constants
const (
	TypeSingleSelect = "single_select"
	TypeMultiSelect  = "multi_select"
	TypeRatingScale  = "rating_scale"
	TypeOpenEnded    = "open_ended"

	// LegacyTypeUserInput is an older alias for open-ended questions that
	// still appears in imported survey data.
	LegacyTypeUserInput = "user_input"
)

// Stability labels and their display colors
const (
	StabilityHigh   = "High"
	StabilityMedium = "Medium"
	StabilityLow    = "Low"

	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
)

// BaselineRunNumber is reserved for the original persona generation pass.
// Reruns start at 2.
const BaselineRunNumber = 1

// Request types

type StartRerunRequest struct {
	RerunCount int    `json:"rerun_count"`
	Purpose    string `json:"purpose"`
}

type ReplicateRequest struct {
	Models              []string `json:"models"`
	AudienceDescription string   `json:"audience_description,omitempty"`
	SurveyTitle         string   `json:"survey_title,omitempty"`
}

// Response types

type StartRerunResponse struct {
	RunID        string   `json:"run_id"`
	RunIDs       []string `json:"run_ids"`
	PersonaCount int      `json:"persona_count"`
}

type ProgressResponse struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type RunListResponse struct {
	Runs []RunWithProgress `json:"runs"`
}

type RunWithProgress struct {
	Run       SimulationRun `json:"run"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
}

// Domain types

type Survey struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	AudienceDescription string    `json:"audience_description"`
	CreatedAt           time.Time `json:"created_at"`
}

type Question struct {
	ID       string   `json:"id"`
	SurveyID string   `json:"survey_id"`
	Number   int      `json:"number"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Options  []string `json:"options"`
}

// IsOpenEnded reports whether answers to the question are free text and
// therefore carry no exact-match agreement signal.
func (q Question) IsOpenEnded() bool {
	return q.Type == TypeOpenEnded || q.Type == LegacyTypeUserInput
}

// Persona is a fixed synthetic respondent identity. Created once by
// baseline generation and never mutated; replicated results copy its
// fields by value so every model's rows share the same identity.
type Persona struct {
	ID               string            `json:"persona_id"`
	SurveyID         string            `json:"survey_id"`
	Archetype        string            `json:"archetype"`
	Profile          map[string]string `json:"demographic_profile"`
	RespondentNumber int               `json:"respondent_number"`
}

// SimulationRun records one requested pass of all personas through a
// survey. Append-only: rows are never updated or deleted.
type SimulationRun struct {
	ID                  string    `json:"run_id"`
	SurveyID            string    `json:"survey_id"`
	RunNumber           int       `json:"run_number"`
	Purpose             string    `json:"purpose"`
	PersonaCount        int       `json:"persona_count"`
	RequestedRerunCount int       `json:"requested_rerun_count"`
	CreatedAt           time.Time `json:"created_at"`
}

// Answer is one question's answer within a result. Multi-select answers
// are a single semicolon-joined string.
type Answer struct {
	QuestionNumber int    `json:"question_number"`
	Answer         string `json:"answer"`
}

// SimulationResult is one persona's complete answer set for one run on
// one model. At most one row exists per
// (survey_id, persona_id, run_number, model); retried writes overwrite.
type SimulationResult struct {
	ID               string            `json:"result_id"`
	SurveyID         string            `json:"survey_id"`
	PersonaID        string            `json:"persona_id"`
	RunNumber        int               `json:"run_number"`
	Model            string            `json:"model"`
	Answers          []Answer          `json:"answers"`
	Confidence       *float64          `json:"confidence,omitempty"` // defined but unpopulated; no per-answer scoring source exists yet
	PersonaArchetype string            `json:"persona_archetype"`
	PersonaProfile   map[string]string `json:"persona_profile"`
	SimulationRunID  string            `json:"simulation_run_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Gateway output types

// StructuredAnswer is one answer as returned by a model backend, after
// tolerant decoding of the raw response.
type StructuredAnswer struct {
	QuestionNumber int    `json:"question_number"`
	Answer         string `json:"answer"`
}

// StructuredAnswerSet is the Gateway's output contract. Always populated:
// provider failures degrade to mock synthesis rather than an empty set.
type StructuredAnswerSet struct {
	Answers    []StructuredAnswer `json:"answers"`
	Confidence *float64           `json:"confidence,omitempty"`
	Synthetic  bool               `json:"-"` // true when the mock path produced the set
}

// AnswerFor returns the answer matching the question number, if present.
func (s StructuredAnswerSet) AnswerFor(number int) (string, bool) {
	for _, a := range s.Answers {
		if a.QuestionNumber == number {
			return a.Answer, true
		}
	}
	return "", false
}

// Replication report types

type ReplicationOutcome struct {
	Model     string `json:"model"`
	PersonaID string `json:"persona_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type ReplicationReport struct {
	SurveyID string               `json:"survey_id"`
	Results  []ReplicationOutcome `json:"results"`
}

// Consistency report types

type StabilityScore struct {
	Stability float64 `json:"stability"`
	Label     string  `json:"label"`
	Color     string  `json:"color"`
}

type QuestionStability struct {
	QuestionNumber int     `json:"question_number"`
	Stability      float64 `json:"stability"`
	Label          string  `json:"label"`
	Color          string  `json:"color"`
	PersonaCount   int     `json:"persona_count"`
	Excluded       bool    `json:"excluded"` // open-ended; never in the overall denominator
}

type ConfidenceReport struct {
	SurveyID    string              `json:"survey_id"`
	Overall     StabilityScore      `json:"overall"`
	PerQuestion []QuestionStability `json:"per_question"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
