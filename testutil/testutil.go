// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mirrorpanel/server/cliparse"
	"github.com/mirrorpanel/server/db"
	"github.com/mirrorpanel/server/models"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full
// schema. Each test gets its own database; no cleanup is needed.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// A second connection would see a different empty in-memory DB.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration: no provider
// keys (everything synthesizes), no replication delay.
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                 3419,
		DatabaseURL:          ":memory:",
		DatabaseType:         "sqlite",
		BaselineModel:        "OpenAI",
		ReplicateDelay:       0,
		ReplicateConcurrency: 1,
	}
}

// CreateTestSurvey inserts a survey and returns its ID.
func CreateTestSurvey(t *testing.T, conn *sql.DB, title string) string {
	t.Helper()

	surveyID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO survey (id, title, audience_description, created_at)
		VALUES ($1, $2, 'US consumers aged 25-45', $3)
	`, surveyID, title, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test survey: %v", err)
	}

	return surveyID
}

// AddTestQuestion inserts a question and returns its ID.
func AddTestQuestion(t *testing.T, conn *sql.DB, surveyID string, number int, text, qtype string, options []string) string {
	t.Helper()

	if options == nil {
		options = []string{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		t.Fatalf("Failed to marshal options: %v", err)
	}

	questionID := uuid.NewString()
	_, err = conn.Exec(`
		INSERT INTO question (id, survey_id, number, text, qtype, options)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, questionID, surveyID, number, text, qtype, string(optionsJSON))
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	return questionID
}

// CreateTestPersona inserts a persona row and returns it.
func CreateTestPersona(t *testing.T, conn *sql.DB, surveyID, archetype string, respondentNumber int) models.Persona {
	t.Helper()

	persona := models.Persona{
		ID:        uuid.NewString(),
		SurveyID:  surveyID,
		Archetype: archetype,
		Profile: map[string]string{
			"age":      "34",
			"location": "Denver, CO",
		},
		RespondentNumber: respondentNumber,
	}

	profileJSON, err := json.Marshal(persona.Profile)
	if err != nil {
		t.Fatalf("Failed to marshal profile: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO persona (id, survey_id, archetype, profile, respondent_number)
		VALUES ($1, $2, $3, $4, $5)
	`, persona.ID, surveyID, archetype, string(profileJSON), respondentNumber)
	if err != nil {
		t.Fatalf("Failed to create test persona: %v", err)
	}

	return persona
}

// InsertTestResult writes a simulation result row directly. Answers map
// question numbers to answer strings.
func InsertTestResult(t *testing.T, conn *sql.DB, surveyID, personaID string, runNumber int, model string, answers []models.Answer) string {
	t.Helper()

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("Failed to marshal answers: %v", err)
	}

	resultID := uuid.NewString()
	_, err = conn.Exec(`
		INSERT INTO simulation_result
			(id, survey_id, persona_id, run_number, model, answers,
			 persona_archetype, persona_profile, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'Value Shopper', '{"age":"34"}', $7)
	`, resultID, surveyID, personaID, runNumber, model, string(answersJSON), time.Now())
	if err != nil {
		t.Fatalf("Failed to create test result: %v", err)
	}

	return resultID
}

// Answers builds an answer list for questions 1..len(values).
func Answers(values ...string) []models.Answer {
	answers := make([]models.Answer, 0, len(values))
	for i, v := range values {
		answers = append(answers, models.Answer{QuestionNumber: i + 1, Answer: v})
	}
	return answers
}

// StubGateway is a scripted simulation.Generator for tests.
type StubGateway struct {
	// Fn produces the answer set per call. Required.
	Fn func(model, prompt string) models.StructuredAnswerSet
	// Calls records every (model, prompt) pair, in order.
	Calls []struct{ Model, Prompt string }
}

func (s *StubGateway) Generate(_ context.Context, model, prompt string) models.StructuredAnswerSet {
	s.Calls = append(s.Calls, struct{ Model, Prompt string }{model, prompt})
	return s.Fn(model, prompt)
}

// FixedAnswers returns a StubGateway that always answers questions
// 1..len(values) with the given values.
func FixedAnswers(values ...string) *StubGateway {
	return &StubGateway{
		Fn: func(model, prompt string) models.StructuredAnswerSet {
			set := models.StructuredAnswerSet{}
			for i, v := range values {
				set.Answers = append(set.Answers, models.StructuredAnswer{
					QuestionNumber: i + 1,
					Answer:         v,
				})
			}
			return set
		},
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
