// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package simulation

import (
	"context"
	"strings"
	"testing"

	"github.com/mirrorpanel/server/catalog"
	"github.com/mirrorpanel/server/models"
	"github.com/mirrorpanel/server/testutil"
)

func TestReplayAnswerListShape(t *testing.T) {
	db := testutil.SetupTestDB(t)
	surveyID := testutil.CreateTestSurvey(t, db, "Grocery Habits")
	testutil.AddTestQuestion(t, db, surveyID, 1, "Where do you shop?", models.TypeSingleSelect, []string{"Supermarket", "Farmers market"})
	testutil.AddTestQuestion(t, db, surveyID, 2, "Which factors matter?", models.TypeMultiSelect, []string{"Price", "Quality", "Distance"})
	testutil.AddTestQuestion(t, db, surveyID, 3, "Anything else?", models.TypeOpenEnded, nil)

	persona := testutil.CreateTestPersona(t, db, surveyID, "Busy Parent", 1)

	// The stub always answers question 1; replay prompts one question at
	// a time, so every question receives that single answer.
	stub := &testutil.StubGateway{
		Fn: func(model, prompt string) models.StructuredAnswerSet {
			return models.StructuredAnswerSet{
				Answers: []models.StructuredAnswer{{QuestionNumber: 1, Answer: "Supermarket"}},
			}
		},
	}

	engine := NewEngine(db, stub)
	questions, err := catalog.Questions(db, surveyID)
	if err != nil {
		t.Fatalf("failed to load questions: %v", err)
	}

	result, err := engine.Replay(context.Background(), persona, questions, 2, "run-1", "OpenAI")
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	// One answer per question, numbered 1..N with no gaps or duplicates.
	if len(result.Answers) != len(questions) {
		t.Fatalf("Expected %d answers, got %d", len(questions), len(result.Answers))
	}
	for i, a := range result.Answers {
		if a.QuestionNumber != i+1 {
			t.Errorf("Answer %d numbered %d, want %d", i, a.QuestionNumber, i+1)
		}
	}

	// One gateway call per question, not one batched call.
	if len(stub.Calls) != len(questions) {
		t.Errorf("Expected %d gateway calls, got %d", len(questions), len(stub.Calls))
	}

	// The persisted row must be readable back with the same key.
	rows, err := loadResults(db, surveyID)
	if err != nil {
		t.Fatalf("loadResults failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 persisted result, got %d", len(rows))
	}
	if rows[0].PersonaID != persona.ID || rows[0].RunNumber != 2 || rows[0].Model != "OpenAI" {
		t.Errorf("Persisted row has wrong key: %+v", rows[0])
	}
	if rows[0].SimulationRunID != "run-1" {
		t.Errorf("Expected run back-reference 'run-1', got %q", rows[0].SimulationRunID)
	}
}

func TestReplayPromptConditioning(t *testing.T) {
	db := testutil.SetupTestDB(t)
	surveyID := testutil.CreateTestSurvey(t, db, "Grocery Habits")
	testutil.AddTestQuestion(t, db, surveyID, 1, "Where do you shop?", models.TypeSingleSelect, []string{"Supermarket", "Online"})

	persona := testutil.CreateTestPersona(t, db, surveyID, "Busy Parent", 1)
	stub := testutil.FixedAnswers("Supermarket")
	engine := NewEngine(db, stub)

	questions, err := catalog.Questions(db, surveyID)
	if err != nil {
		t.Fatalf("failed to load questions: %v", err)
	}
	if _, err := engine.Replay(context.Background(), persona, questions, 2, "run-1", "OpenAI"); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	prompt := stub.Calls[0].Prompt
	for _, want := range []string{"Busy Parent", "Where do you shop?", "Supermarket", "exactly 1 answer"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestReplayIdempotentOverwrite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	surveyID := testutil.CreateTestSurvey(t, db, "Grocery Habits")
	testutil.AddTestQuestion(t, db, surveyID, 1, "Where do you shop?", models.TypeSingleSelect, []string{"Supermarket", "Online"})

	persona := testutil.CreateTestPersona(t, db, surveyID, "Busy Parent", 1)
	questions, err := catalog.Questions(db, surveyID)
	if err != nil {
		t.Fatalf("failed to load questions: %v", err)
	}

	engine := NewEngine(db, testutil.FixedAnswers("Supermarket"))
	if _, err := engine.Replay(context.Background(), persona, questions, 2, "run-1", "OpenAI"); err != nil {
		t.Fatalf("first replay failed: %v", err)
	}

	// A retried write for the same (survey, persona, run, model) must
	// overwrite, not stack.
	engine = NewEngine(db, testutil.FixedAnswers("Online"))
	if _, err := engine.Replay(context.Background(), persona, questions, 2, "run-1", "OpenAI"); err != nil {
		t.Fatalf("second replay failed: %v", err)
	}

	rows, err := loadResults(db, surveyID)
	if err != nil {
		t.Fatalf("loadResults failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row after retry, got %d", len(rows))
	}
	if rows[0].Answers[0].Answer != "Online" {
		t.Errorf("Expected retried answer to win, got %q", rows[0].Answers[0].Answer)
	}
}
