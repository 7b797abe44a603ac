// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package simulation

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mirrorpanel/server/catalog"
	"github.com/mirrorpanel/server/models"
)

// upsertResult writes a simulation result, overwriting any existing row
// with the same (survey_id, persona_id, run_number, model) key. Retried
// writes under provider timeouts must replace rather than stack, or the
// consistency scorer's denominators go wrong.
func upsertResult(db *sql.DB, res models.SimulationResult) error {
	answersJSON, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	profileJSON, err := json.Marshal(res.PersonaProfile)
	if err != nil {
		return fmt.Errorf("failed to marshal persona profile: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO simulation_result
			(id, survey_id, persona_id, run_number, model, answers, confidence,
			 persona_archetype, persona_profile, simulation_run_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (survey_id, persona_id, run_number, model) DO UPDATE SET
			answers = excluded.answers,
			confidence = excluded.confidence,
			persona_archetype = excluded.persona_archetype,
			persona_profile = excluded.persona_profile,
			simulation_run_id = excluded.simulation_run_id,
			created_at = excluded.created_at
	`, res.ID, res.SurveyID, res.PersonaID, res.RunNumber, res.Model,
		string(answersJSON), res.Confidence, res.PersonaArchetype,
		string(profileJSON), nullableString(res.SimulationRunID), res.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to write simulation result: %w", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func scanResults(rows *sql.Rows) ([]models.SimulationResult, error) {
	results := []models.SimulationResult{}
	for rows.Next() {
		var res models.SimulationResult
		var answersJSON, profileJSON string
		var runID sql.NullString
		if err := rows.Scan(&res.ID, &res.SurveyID, &res.PersonaID, &res.RunNumber,
			&res.Model, &answersJSON, &res.Confidence, &res.PersonaArchetype,
			&profileJSON, &runID, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan simulation result: %w", err)
		}
		if err := json.Unmarshal([]byte(answersJSON), &res.Answers); err != nil {
			return nil, fmt.Errorf("result %s has malformed answers: %w", res.ID, err)
		}
		if err := json.Unmarshal([]byte(profileJSON), &res.PersonaProfile); err != nil {
			return nil, fmt.Errorf("result %s has malformed persona profile: %w", res.ID, err)
		}
		if runID.Valid {
			res.SimulationRunID = runID.String
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate simulation results: %w", err)
	}
	return results, nil
}

const resultColumns = `id, survey_id, persona_id, run_number, model, answers, confidence,
	persona_archetype, persona_profile, simulation_run_id, created_at`

// baselineResults returns the survey's original persona answer sets:
// run number 1 under the designated baseline model, ordered by persona
// so batch progress stays deterministic.
func baselineResults(db *sql.DB, surveyID, baselineModel string) ([]models.SimulationResult, error) {
	rows, err := db.Query(`
		SELECT `+resultColumns+`
		FROM simulation_result
		WHERE survey_id = $1 AND run_number = $2 AND LOWER(model) = LOWER($3)
		ORDER BY persona_id
	`, surveyID, models.BaselineRunNumber, baselineModel)
	if err != nil {
		return nil, fmt.Errorf("failed to query baseline results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// loadResults returns every simulation result for the survey, across all
// runs and models.
func loadResults(db *sql.DB, surveyID string) ([]models.SimulationResult, error) {
	rows, err := db.Query(`
		SELECT `+resultColumns+`
		FROM simulation_result
		WHERE survey_id = $1
		ORDER BY persona_id, run_number, model
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulation results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// maxRunNumber returns the highest run number observed for the survey in
// either the run table or the result table. Baseline generation writes
// result rows without a run row, so both must be considered.
func maxRunNumber(db *sql.DB, surveyID string) (int, error) {
	var fromRuns, fromResults int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(run_number), 0) FROM simulation_run WHERE survey_id = $1
	`, surveyID).Scan(&fromRuns)
	if err != nil {
		return 0, fmt.Errorf("failed to query max run number: %w", err)
	}
	err = db.QueryRow(`
		SELECT COALESCE(MAX(run_number), 0) FROM simulation_result WHERE survey_id = $1
	`, surveyID).Scan(&fromResults)
	if err != nil {
		return 0, fmt.Errorf("failed to query max result run number: %w", err)
	}

	if fromResults > fromRuns {
		return fromResults, nil
	}
	return fromRuns, nil
}

func insertRun(db *sql.DB, run models.SimulationRun) error {
	_, err := db.Exec(`
		INSERT INTO simulation_run
			(id, survey_id, run_number, purpose, persona_count, requested_rerun_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.SurveyID, run.RunNumber, run.Purpose, run.PersonaCount,
		run.RequestedRerunCount, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert simulation run: %w", err)
	}
	return nil
}

func getRun(db *sql.DB, runID string) (models.SimulationRun, error) {
	var run models.SimulationRun
	err := db.QueryRow(`
		SELECT id, survey_id, run_number, purpose, persona_count, requested_rerun_count, created_at
		FROM simulation_run
		WHERE id = $1
	`, runID).Scan(&run.ID, &run.SurveyID, &run.RunNumber, &run.Purpose,
		&run.PersonaCount, &run.RequestedRerunCount, &run.CreatedAt)

	if err == sql.ErrNoRows {
		return models.SimulationRun{}, fmt.Errorf("simulation run %s: %w", runID, catalog.ErrNotFound)
	}
	if err != nil {
		return models.SimulationRun{}, fmt.Errorf("failed to query simulation run: %w", err)
	}
	return run, nil
}

func listRuns(db *sql.DB, surveyID string) ([]models.SimulationRun, error) {
	rows, err := db.Query(`
		SELECT id, survey_id, run_number, purpose, persona_count, requested_rerun_count, created_at
		FROM simulation_run
		WHERE survey_id = $1
		ORDER BY run_number
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulation runs: %w", err)
	}
	defer rows.Close()

	runs := []models.SimulationRun{}
	for rows.Next() {
		var run models.SimulationRun
		if err := rows.Scan(&run.ID, &run.SurveyID, &run.RunNumber, &run.Purpose,
			&run.PersonaCount, &run.RequestedRerunCount, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan simulation run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate simulation runs: %w", err)
	}
	return runs, nil
}

// countRunResults returns how many results are attached to the run.
// This is the progress counter: completed = count, total = persona_count.
func countRunResults(db *sql.DB, runID string) (int, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM simulation_result WHERE simulation_run_id = $1
	`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count run results: %w", err)
	}
	return n, nil
}
