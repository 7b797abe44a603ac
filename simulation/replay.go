// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package simulation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mirrorpanel/server/models"
)

// Generator is the slice of the model backend gateway the simulation
// components need. Satisfied by *gateway.Gateway and by test fakes.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) models.StructuredAnswerSet
}

// Engine replays a fixed persona against a survey, producing one
// complete answer set per invocation.
type Engine struct {
	db  *sql.DB
	gen Generator
}

func NewEngine(db *sql.DB, gen Generator) *Engine {
	return &Engine{db: db, gen: gen}
}

// Replay asks the backend one question at a time and persists the
// assembled answer set as a result tagged with the run. One call per
// question isolates a bad response to that question instead of voiding
// the whole persona.
//
// The answer list always has exactly one entry per question, in question
// order. A persistence failure is returned to the caller: it is fatal
// for this persona's run.
func (e *Engine) Replay(ctx context.Context, persona models.Persona, questions []models.Question, runNumber int, runID, model string) (models.SimulationResult, error) {
	answers := make([]models.Answer, 0, len(questions))
	for _, q := range questions {
		prompt := BuildQuestionPrompt(persona, q)
		set := e.gen.Generate(ctx, model, prompt)

		answer, ok := set.AnswerFor(q.Number)
		if !ok && len(set.Answers) > 0 {
			// Single-question prompt; a set that misnumbers its only
			// answer still answered the question.
			answer = set.Answers[0].Answer
		}
		answers = append(answers, models.Answer{QuestionNumber: q.Number, Answer: answer})
	}

	result := models.SimulationResult{
		ID:               uuid.NewString(),
		SurveyID:         persona.SurveyID,
		PersonaID:        persona.ID,
		RunNumber:        runNumber,
		Model:            model,
		Answers:          answers,
		PersonaArchetype: persona.Archetype,
		PersonaProfile:   persona.Profile,
		SimulationRunID:  runID,
		CreatedAt:        time.Now(),
	}

	if err := upsertResult(e.db, result); err != nil {
		return models.SimulationResult{}, fmt.Errorf("persona %s replay: %w", persona.ID, err)
	}

	return result, nil
}
