// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is portable between SQLite and PostgreSQL: timestamps are
// written from Go rather than via database defaults, and JSON columns
// are plain TEXT.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Surveys (written by the authoring frontend; read-only here)
CREATE TABLE IF NOT EXISTS survey (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    audience_description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

-- Questions
CREATE TABLE IF NOT EXISTS question (
    id TEXT PRIMARY KEY,
    survey_id TEXT NOT NULL REFERENCES survey(id) ON DELETE CASCADE,
    number INTEGER NOT NULL,
    text TEXT NOT NULL,
    qtype TEXT NOT NULL CHECK (qtype IN ('single_select', 'multi_select', 'rating_scale', 'open_ended', 'user_input')),
    options TEXT NOT NULL DEFAULT '[]',
    UNIQUE (survey_id, number)
);

CREATE INDEX IF NOT EXISTS idx_question_survey_id ON question(survey_id);

-- Personas (written by baseline generation; never mutated here)
CREATE TABLE IF NOT EXISTS persona (
    id TEXT PRIMARY KEY,
    survey_id TEXT NOT NULL REFERENCES survey(id) ON DELETE CASCADE,
    archetype TEXT NOT NULL,
    profile TEXT NOT NULL DEFAULT '{}',
    respondent_number INTEGER NOT NULL,
    UNIQUE (survey_id, respondent_number)
);

CREATE INDEX IF NOT EXISTS idx_persona_survey_id ON persona(survey_id);

-- Simulation runs (append-only audit trail; never updated or deleted)
CREATE TABLE IF NOT EXISTS simulation_run (
    id TEXT PRIMARY KEY,
    survey_id TEXT NOT NULL REFERENCES survey(id) ON DELETE CASCADE,
    run_number INTEGER NOT NULL,
    purpose TEXT NOT NULL DEFAULT '',
    persona_count INTEGER NOT NULL,
    requested_rerun_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_simulation_run_survey_id ON simulation_run(survey_id);

-- Simulation results
-- The UNIQUE constraint enforces the natural key so retried writes
-- upsert instead of stacking duplicate rows.
CREATE TABLE IF NOT EXISTS simulation_result (
    id TEXT PRIMARY KEY,
    survey_id TEXT NOT NULL REFERENCES survey(id) ON DELETE CASCADE,
    persona_id TEXT NOT NULL,
    run_number INTEGER NOT NULL,
    model TEXT NOT NULL,
    answers TEXT NOT NULL DEFAULT '[]',
    confidence REAL,
    persona_archetype TEXT NOT NULL DEFAULT '',
    persona_profile TEXT NOT NULL DEFAULT '{}',
    simulation_run_id TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (survey_id, persona_id, run_number, model)
);

CREATE INDEX IF NOT EXISTS idx_simulation_result_survey_id ON simulation_result(survey_id);
CREATE INDEX IF NOT EXISTS idx_simulation_result_run_id ON simulation_result(simulation_run_id);
`
