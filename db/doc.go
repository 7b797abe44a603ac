// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - survey: Survey metadata (title, audience description)
  - question: Ordered questions per survey
  - persona: Fixed synthetic respondents per survey
  - simulation_run: Append-only rerun audit trail
  - simulation_result: One answer set per (survey, persona, run, model)

# Relationships

	survey 1──* question
	survey 1──* persona
	survey 1──* simulation_run
	survey 1──* simulation_result
	simulation_run 1──* simulation_result (via simulation_run_id)

All foreign keys use ON DELETE CASCADE.

# Uniqueness

	question.(survey_id, number)
	persona.(survey_id, respondent_number)
	simulation_result.(survey_id, persona_id, run_number, model)

The last constraint is load-bearing: concurrent retried writes must
upsert against it rather than inserting duplicate rows, or the
consistency scorer's denominators drift.

# Portability

The DDL runs unchanged on SQLite (modernc.org/sqlite) and PostgreSQL
(lib/pq). Timestamps are always written from Go and JSON payloads are
stored as TEXT.
*/
package db
