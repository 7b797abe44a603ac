// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/mirrorpanel/server/cliparse"
	"github.com/mirrorpanel/server/handlers"
	"github.com/mirrorpanel/server/middleware"
	"github.com/mirrorpanel/server/simulation"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, gen simulation.Generator) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	simulationHandler := handlers.NewSimulationHandler(db, cfg, gen)
	replicationHandler := handlers.NewReplicationHandler(db, cfg, gen)
	confidenceHandler := handlers.NewConfidenceHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Simulation runs
	mux.HandleFunc("POST /surveys/{id}/simulations/rerun", middleware.WithLogging(simulationHandler.StartRerun))
	mux.HandleFunc("GET /surveys/{id}/simulations", middleware.WithLogging(simulationHandler.ListRuns))
	mux.HandleFunc("GET /simulations/{runId}/progress", middleware.WithLogging(simulationHandler.Progress))

	// Cross-model replication
	mux.HandleFunc("POST /surveys/{id}/simulations/replicate", middleware.WithLogging(replicationHandler.Replicate))

	// Consistency scoring
	mux.HandleFunc("GET /surveys/{id}/confidence", middleware.WithLogging(confidenceHandler.GetConfidence))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mirrorpanel API v1"))
	})

	return mux
}
