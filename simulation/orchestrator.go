// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package simulation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mirrorpanel/server/catalog"
	"github.com/mirrorpanel/server/cliparse"
	"github.com/mirrorpanel/server/models"
)

// Orchestrator manages rerun batches: it assigns monotonically
// increasing run numbers, replays every baseline persona per run, and
// answers progress queries.
type Orchestrator struct {
	db     *sql.DB
	engine *Engine
	cfg    cliparse.Config
}

func NewOrchestrator(db *sql.DB, gen Generator, cfg cliparse.Config) *Orchestrator {
	return &Orchestrator{db: db, engine: NewEngine(db, gen), cfg: cfg}
}

// StartRerun validates preconditions and creates rerunCount run rows
// with consecutive run numbers. It does not process them; the caller
// decides whether RunBatch executes inline (tests) or on a goroutine
// (the HTTP handler), so progress stays pollable either way.
//
// Preconditions: the survey has at least one question and at least one
// baseline persona result. Violations return ErrNotFound before any run
// row is created.
func (o *Orchestrator) StartRerun(ctx context.Context, surveyID string, rerunCount int, purpose string) (models.StartRerunResponse, []models.SimulationRun, error) {
	if rerunCount < 1 {
		return models.StartRerunResponse{}, nil, fmt.Errorf("rerun count must be at least 1")
	}

	questions, err := catalog.Questions(o.db, surveyID)
	if err != nil {
		return models.StartRerunResponse{}, nil, err
	}
	if len(questions) == 0 {
		return models.StartRerunResponse{}, nil, fmt.Errorf("survey %s has no questions: %w", surveyID, catalog.ErrNotFound)
	}

	baseline, err := baselineResults(o.db, surveyID, o.cfg.BaselineModel)
	if err != nil {
		return models.StartRerunResponse{}, nil, err
	}
	if len(baseline) == 0 {
		return models.StartRerunResponse{}, nil, fmt.Errorf("survey %s has no baseline personas: %w", surveyID, catalog.ErrNotFound)
	}

	highest, err := maxRunNumber(o.db, surveyID)
	if err != nil {
		return models.StartRerunResponse{}, nil, err
	}
	next := highest + 1
	if next < models.BaselineRunNumber+1 {
		// Run 1 belongs to the original baseline and is never produced
		// by this path.
		next = models.BaselineRunNumber + 1
	}

	runs := make([]models.SimulationRun, 0, rerunCount)
	for i := 0; i < rerunCount; i++ {
		run := models.SimulationRun{
			ID:                  uuid.NewString(),
			SurveyID:            surveyID,
			RunNumber:           next + i,
			Purpose:             purpose,
			PersonaCount:        len(baseline),
			RequestedRerunCount: rerunCount,
			CreatedAt:           time.Now(),
		}
		if err := insertRun(o.db, run); err != nil {
			return models.StartRerunResponse{}, nil, err
		}
		runs = append(runs, run)
	}

	slog.Info("rerun batch created",
		"survey_id", surveyID,
		"runs", rerunCount,
		"first_run_number", runs[0].RunNumber,
		"personas", len(baseline),
	)

	resp := models.StartRerunResponse{
		RunID:        runs[0].ID,
		PersonaCount: len(baseline),
	}
	for _, run := range runs {
		resp.RunIDs = append(resp.RunIDs, run.ID)
	}
	return resp, runs, nil
}

// RunBatch replays every baseline persona for each run, in ascending
// run-number order with personas FIFO, so progress counters only move
// forward. A persistence failure aborts the run it occurred in; later
// runs in the batch still execute.
func (o *Orchestrator) RunBatch(ctx context.Context, runs []models.SimulationRun) {
	for _, run := range runs {
		if err := o.processRun(ctx, run); err != nil {
			slog.Error("rerun aborted",
				"run_id", run.ID,
				"run_number", run.RunNumber,
				"error", err,
			)
		}
	}
}

func (o *Orchestrator) processRun(ctx context.Context, run models.SimulationRun) error {
	questions, err := catalog.Questions(o.db, run.SurveyID)
	if err != nil {
		return err
	}
	baseline, err := baselineResults(o.db, run.SurveyID, o.cfg.BaselineModel)
	if err != nil {
		return err
	}

	for _, base := range baseline {
		persona := models.Persona{
			ID:        base.PersonaID,
			SurveyID:  run.SurveyID,
			Archetype: base.PersonaArchetype,
			Profile:   base.PersonaProfile,
		}
		if _, err := o.engine.Replay(ctx, persona, questions, run.RunNumber, run.ID, o.cfg.BaselineModel); err != nil {
			// Fatal to this run: the persona's result did not persist,
			// so the run must never read as complete.
			return err
		}
	}

	slog.Info("rerun completed", "run_id", run.ID, "run_number", run.RunNumber, "personas", len(baseline))
	return nil
}

// Progress reports how many of the run's personas have persisted
// results. Partial completion is a normal observable state.
func (o *Orchestrator) Progress(runID string) (models.ProgressResponse, error) {
	run, err := getRun(o.db, runID)
	if err != nil {
		return models.ProgressResponse{}, err
	}
	completed, err := countRunResults(o.db, runID)
	if err != nil {
		return models.ProgressResponse{}, err
	}
	return models.ProgressResponse{Completed: completed, Total: run.PersonaCount}, nil
}

// ListRuns returns every run for the survey with its progress, oldest
// run number first.
func (o *Orchestrator) ListRuns(surveyID string) ([]models.RunWithProgress, error) {
	runs, err := listRuns(o.db, surveyID)
	if err != nil {
		return nil, err
	}

	out := make([]models.RunWithProgress, 0, len(runs))
	for _, run := range runs {
		completed, err := countRunResults(o.db, run.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.RunWithProgress{
			Run:       run,
			Completed: completed,
			Total:     run.PersonaCount,
		})
	}
	return out, nil
}
