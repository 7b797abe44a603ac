// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package simulation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mirrorpanel/server/catalog"
	"github.com/mirrorpanel/server/gateway"
	"github.com/mirrorpanel/server/models"
	"github.com/mirrorpanel/server/testutil"
)

func TestReplicateRequiresBaseline(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	surveyID := testutil.CreateTestSurvey(t, db, "No Baseline Yet")
	testutil.AddTestQuestion(t, db, surveyID, 1, "Favorite snack?", "single_select", []string{"Chips"})

	rep := NewReplicator(db, testutil.FixedAnswers("Chips"), cfg)
	_, err := rep.Replicate(context.Background(), surveyID, []string{"Claude"}, "", "")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Expected ErrNotFound without baseline results, got %v", err)
	}
}

func TestReplicateUnknownSurvey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rep := NewReplicator(db, testutil.FixedAnswers("x"), testutil.GetTestConfig())

	_, err := rep.Replicate(context.Background(), "missing-survey", []string{"Claude"}, "", "")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown survey, got %v", err)
	}
}

func TestReplicateSkipsBaselineModel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	surveyID := testutil.CreateTestSurvey(t, db, "Skip Baseline")
	testutil.AddTestQuestion(t, db, surveyID, 1, "Favorite snack?", "single_select", []string{"Chips"})
	persona := testutil.CreateTestPersona(t, db, surveyID, "Value Shopper", 1)
	testutil.InsertTestResult(t, db, surveyID, persona.ID, 1, "OpenAI", testutil.Answers("Chips"))

	stub := testutil.FixedAnswers("Chips")
	rep := NewReplicator(db, stub, cfg)

	report, err := rep.Replicate(context.Background(), surveyID, []string{"openai", "Claude"}, "", "")
	if err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}

	if len(report.Results) != 1 {
		t.Fatalf("Expected 1 outcome (baseline skipped), got %d", len(report.Results))
	}
	if report.Results[0].Model != "Claude" {
		t.Errorf("Expected outcome for Claude, got %s", report.Results[0].Model)
	}
	for _, call := range stub.Calls {
		if call.Model != "Claude" {
			t.Errorf("Generator was called for baseline model %s", call.Model)
		}
	}
}

func TestReplicateWithoutKeySynthesizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig() // no provider keys

	surveyID := testutil.CreateTestSurvey(t, db, "Coffee Habits")
	testutil.AddTestQuestion(t, db, surveyID, 1, "Favorite roast?", "single_select", []string{"Light", "Dark"})
	testutil.AddTestQuestion(t, db, surveyID, 2, "Cups per day?", "rating_scale", []string{"1", "2", "3"})
	persona := testutil.CreateTestPersona(t, db, surveyID, "Morning Commuter", 1)
	testutil.InsertTestResult(t, db, surveyID, persona.ID, 1, "OpenAI", testutil.Answers("Dark", "2"))

	rep := NewReplicator(db, gateway.New(cfg), cfg)

	report, err := rep.Replicate(context.Background(), surveyID, []string{"Claude"}, "", "")
	if err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}
	if len(report.Results) != 1 || !report.Results[0].Success {
		t.Fatalf("Expected one successful outcome, got %+v", report.Results)
	}

	row := loadResultRow(t, db, surveyID, persona.ID, "Claude")
	if row.RunNumber != models.BaselineRunNumber {
		t.Errorf("Expected replicated result at run %d, got %d", models.BaselineRunNumber, row.RunNumber)
	}
	if len(row.Answers) != 2 {
		t.Fatalf("Expected 2 answers, got %d", len(row.Answers))
	}
	for _, a := range row.Answers {
		if a.Answer == "" {
			t.Errorf("Question %d: expected synthesized answer, got empty string", a.QuestionNumber)
		}
	}
}

func TestReplicateCleansMisnumberedAnswers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	surveyID := testutil.CreateTestSurvey(t, db, "Cleaning Survey")
	testutil.AddTestQuestion(t, db, surveyID, 1, "First?", "single_select", []string{"A", "B"})
	testutil.AddTestQuestion(t, db, surveyID, 2, "Second?", "single_select", []string{"C", "D"})
	testutil.AddTestQuestion(t, db, surveyID, 3, "Third?", "single_select", []string{"E", "F"})
	persona := testutil.CreateTestPersona(t, db, surveyID, "Value Shopper", 1)
	testutil.InsertTestResult(t, db, surveyID, persona.ID, 1, "OpenAI", testutil.Answers("A", "C", "E"))

	// Answers question 2, skips 1 and 3, and adds a number the survey
	// does not have.
	stub := &testutil.StubGateway{
		Fn: func(model, prompt string) models.StructuredAnswerSet {
			return models.StructuredAnswerSet{Answers: []models.StructuredAnswer{
				{QuestionNumber: 2, Answer: "D"},
				{QuestionNumber: 9, Answer: "stray"},
			}}
		},
	}
	rep := NewReplicator(db, stub, cfg)

	report, err := rep.Replicate(context.Background(), surveyID, []string{"Gemini"}, "", "")
	if err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}
	if !report.Results[0].Success {
		t.Fatalf("Expected success, got %+v", report.Results[0])
	}

	row := loadResultRow(t, db, surveyID, persona.ID, "Gemini")
	want := []models.Answer{
		{QuestionNumber: 1, Answer: ""},
		{QuestionNumber: 2, Answer: "D"},
		{QuestionNumber: 3, Answer: ""},
	}
	if len(row.Answers) != len(want) {
		t.Fatalf("Expected %d answers, got %d", len(want), len(row.Answers))
	}
	for i, w := range want {
		if row.Answers[i] != w {
			t.Errorf("Answer %d: expected %+v, got %+v", i, w, row.Answers[i])
		}
	}
}

func TestReplicateCopiesPersonaIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	surveyID := testutil.CreateTestSurvey(t, db, "Identity Survey")
	testutil.AddTestQuestion(t, db, surveyID, 1, "Favorite snack?", "single_select", []string{"Chips"})
	persona := testutil.CreateTestPersona(t, db, surveyID, "Value Shopper", 1)
	testutil.InsertTestResult(t, db, surveyID, persona.ID, 1, "OpenAI", testutil.Answers("Chips"))

	rep := NewReplicator(db, testutil.FixedAnswers("Chips"), cfg)
	if _, err := rep.Replicate(context.Background(), surveyID, []string{"Claude"}, "", ""); err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}

	row := loadResultRow(t, db, surveyID, persona.ID, "Claude")
	if row.PersonaArchetype != "Value Shopper" {
		t.Errorf("Expected archetype copied from baseline, got %q", row.PersonaArchetype)
	}
	if row.PersonaProfile["age"] != "34" {
		t.Errorf("Expected profile copied from baseline, got %v", row.PersonaProfile)
	}
	if row.PersonaID != persona.ID {
		t.Errorf("Expected persona ID %s, got %s", persona.ID, row.PersonaID)
	}
}

func loadResultRow(t *testing.T, db *sql.DB, surveyID, personaID, model string) models.SimulationResult {
	t.Helper()

	var res models.SimulationResult
	var answersJSON, profileJSON string
	err := db.QueryRow(`
		SELECT persona_id, run_number, model, answers, persona_archetype, persona_profile
		FROM simulation_result
		WHERE survey_id = $1 AND persona_id = $2 AND model = $3
	`, surveyID, personaID, model).Scan(
		&res.PersonaID, &res.RunNumber, &res.Model, &answersJSON,
		&res.PersonaArchetype, &profileJSON,
	)
	if err != nil {
		t.Fatalf("Failed to load result row: %v", err)
	}
	if err := json.Unmarshal([]byte(answersJSON), &res.Answers); err != nil {
		t.Fatalf("Failed to decode answers: %v", err)
	}
	if err := json.Unmarshal([]byte(profileJSON), &res.PersonaProfile); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	return res
}
