// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Mirror Panel simulation
API server.

Mirror Panel simulates survey respondents through AI model backends and
measures how consistent each simulated persona's answers are across
repeated runs and across different models.

# Starting the Server

The server requires a database URL via environment variable or CLI flag:

	DATABASE_URL=mirrorpanel.db go run main.go

Or with flags:

	go run main.go -p 3419 -d mirrorpanel.db -t sqlite

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string

Optional settings:

  - PORT (-p): Server port (default: 3419)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - BASELINE_MODEL (--baseline-model): model family of run 1 (default: OpenAI)
  - REPLICATE_DELAY_MS (--replicate-delay): per-provider call spacing (default: 2000)
  - REPLICATE_CONCURRENCY (--replicate-concurrency): personas in parallel per model (default: 1)
  - OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY: provider
    credentials; a missing key degrades that backend to mock synthesis

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (simulations, replication, confidence)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Domain and request/response types
  - catalog: Read-only survey question view
  - gateway: Model backend dispatch with mock synthesis fallback
  - simulation: Replay engine, run orchestrator, replicator, scorer
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
