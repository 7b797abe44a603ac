// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the shared domain, request, and response types for
the Mirror Panel simulation API.

# Domain Types

  - Survey, Question: the question catalog, owned by the authoring
    frontend and read-only here
  - Persona: a fixed synthetic respondent (archetype + demographic
    profile), created once by baseline generation
  - SimulationRun: one requested pass of all personas through a survey
  - SimulationResult: one persona's complete answer set for one run on
    one model

# Result Identity

A SimulationResult is uniquely keyed by

	(survey_id, persona_id, run_number, model)

Run number 1 is the baseline. Replicated results reuse run number 1 under
a different model name and copy the baseline's persona fields by value,
so the same identity is comparable across models.

# Stability Classification

Agreement ratios map to labels through fixed thresholds:

	>= 0.90  High    green
	>= 0.70  Medium  yellow
	otherwise Low    red
*/
package models
