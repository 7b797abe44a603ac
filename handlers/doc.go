// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Mirror Panel
simulation API.

# Handler Types

Each handler is a struct with database, config, and gateway
dependencies, created via constructor functions:

  - SimulationHandler: rerun batches and progress polling
  - ReplicationHandler: cross-model replication
  - ConfidenceHandler: consistency scoring

# Rerun Flow

	POST /surveys/{id}/simulations/rerun   → StartRerun (202, returns run ids)
	GET  /simulations/{runId}/progress     → Progress ({completed, total})
	GET  /surveys/{id}/simulations         → ListRuns

StartRerun validates preconditions (baseline personas and questions
exist), then processes the batch on a background goroutine. Progress is
polled; a run is complete when completed >= total.

# Replication

	POST /surveys/{id}/simulations/replicate → Replicate

Synchronous: the response is a per-(model, persona) outcome report.
Per-persona failures appear in the report; only a missing baseline
fails the request (404).

# Scoring

	GET /surveys/{id}/confidence → GetConfidence

Returns overall and per-question stability. No results at all is a 404.
*/
package handlers
