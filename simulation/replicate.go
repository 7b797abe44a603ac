// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package simulation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mirrorpanel/server/catalog"
	"github.com/mirrorpanel/server/cliparse"
	"github.com/mirrorpanel/server/models"
)

// Replicator regenerates a survey's baseline persona set through
// alternate model backends, preserving persona identity so answers are
// comparable per persona across models.
type Replicator struct {
	db  *sql.DB
	gen Generator
	cfg cliparse.Config
}

func NewReplicator(db *sql.DB, gen Generator, cfg cliparse.Config) *Replicator {
	return &Replicator{db: db, gen: gen, cfg: cfg}
}

// Replicate runs every baseline persona through each target model and
// persists the cleaned answer sets as run-1 results under the target
// model's name. Per-persona failures land in the report without
// aborting the remaining personas; only a missing baseline fails the
// whole request.
//
// Personas within one model run with bounded parallelism; the gateway's
// per-provider limiter keeps the inter-call delay per provider.
func (r *Replicator) Replicate(ctx context.Context, surveyID string, targets []string, audience, title string) (models.ReplicationReport, error) {
	survey, err := catalog.GetSurvey(r.db, surveyID)
	if err != nil {
		return models.ReplicationReport{}, err
	}
	if audience == "" {
		audience = survey.AudienceDescription
	}
	if title == "" {
		title = survey.Title
	}

	questions, err := catalog.Questions(r.db, surveyID)
	if err != nil {
		return models.ReplicationReport{}, err
	}

	baseline, err := baselineResults(r.db, surveyID, r.cfg.BaselineModel)
	if err != nil {
		return models.ReplicationReport{}, err
	}
	if len(baseline) == 0 {
		return models.ReplicationReport{}, fmt.Errorf(
			"nothing to replicate: survey %s has no %s baseline results: %w",
			surveyID, r.cfg.BaselineModel, catalog.ErrNotFound)
	}

	report := models.ReplicationReport{SurveyID: surveyID, Results: []models.ReplicationOutcome{}}
	for _, target := range targets {
		if strings.EqualFold(target, r.cfg.BaselineModel) {
			slog.Info("skipping baseline model in replication", "model", target)
			continue
		}
		outcomes := r.replicateModel(ctx, target, title, audience, questions, baseline)
		report.Results = append(report.Results, outcomes...)
	}

	return report, nil
}

func (r *Replicator) replicateModel(ctx context.Context, target, title, audience string, questions []models.Question, baseline []models.SimulationResult) []models.ReplicationOutcome {
	outcomes := make([]models.ReplicationOutcome, len(baseline))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.ReplicateConcurrency)

	for i, base := range baseline {
		g.Go(func() error {
			outcomes[i] = r.replicatePersona(gctx, target, title, audience, questions, base)
			return nil
		})
	}
	// Workers never return errors; failures are report entries.
	_ = g.Wait()

	return outcomes
}

func (r *Replicator) replicatePersona(ctx context.Context, target, title, audience string, questions []models.Question, base models.SimulationResult) models.ReplicationOutcome {
	prompt := BuildReplicationPrompt(title, audience, base.PersonaArchetype, base.PersonaProfile, questions)
	set := r.gen.Generate(ctx, target, prompt)

	result := models.SimulationResult{
		ID:        uuid.NewString(),
		SurveyID:  base.SurveyID,
		PersonaID: base.PersonaID,
		RunNumber: models.BaselineRunNumber,
		Model:     target,
		Answers:   cleanAnswers(questions, set),
		// Identity copied from the baseline row so the replicated result
		// is attributable to the same persona.
		PersonaArchetype: base.PersonaArchetype,
		PersonaProfile:   base.PersonaProfile,
		CreatedAt:        time.Now(),
	}

	if err := upsertResult(r.db, result); err != nil {
		slog.Error("replication write failed",
			"model", target, "persona_id", base.PersonaID, "error", err)
		return models.ReplicationOutcome{
			Model:     target,
			PersonaID: base.PersonaID,
			Success:   false,
			Error:     err.Error(),
		}
	}

	return models.ReplicationOutcome{Model: target, PersonaID: base.PersonaID, Success: true}
}

// cleanAnswers enforces the prompt's format contract: iterate the
// survey's own question order, look up the model's answer by number,
// and substitute an empty string when it is missing. One malformed
// question never voids an otherwise-usable answer set.
func cleanAnswers(questions []models.Question, set models.StructuredAnswerSet) []models.Answer {
	answers := make([]models.Answer, 0, len(questions))
	for _, q := range questions {
		answer, _ := set.AnswerFor(q.Number)
		answers = append(answers, models.Answer{QuestionNumber: q.Number, Answer: answer})
	}
	return answers
}
