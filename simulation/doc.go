// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package simulation is the orchestration and scoring core: it replays
fixed personas against a survey, replicates baseline persona sets onto
alternate model backends, and scores answer stability.

# Components

  - Engine: replays one persona, one gateway call per question
  - Orchestrator: rerun batches, run-number assignment, progress
  - Replicator: cross-model replication under strict answer formats
  - ComputeStability: per-question and overall consistency scoring

All of them take a Generator, the injected model backend gateway, so
tests substitute fakes without touching real providers.

# Run Numbering

Run 1 is the original baseline and is never produced here. Reruns are
assigned the next free run number, starting at 2, strictly increasing
per survey across batches.

# Failure Semantics

A persistence failure during replay is fatal to the run being
processed; remaining runs in the batch continue. Replication failures
are recorded per persona in the report and never abort the batch.
Provider failures never surface at all - the gateway degrades to mock
synthesis so every result row keeps its full shape.
*/
package simulation
