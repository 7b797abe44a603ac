// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mirrorpanel/server/catalog"
	"github.com/mirrorpanel/server/cliparse"
	"github.com/mirrorpanel/server/middleware"
	"github.com/mirrorpanel/server/models"
	"github.com/mirrorpanel/server/simulation"
)

type SimulationHandler struct {
	db   *sql.DB
	cfg  cliparse.Config
	orch *simulation.Orchestrator
}

func NewSimulationHandler(db *sql.DB, cfg cliparse.Config, gen simulation.Generator) *SimulationHandler {
	return &SimulationHandler{
		db:   db,
		cfg:  cfg,
		orch: simulation.NewOrchestrator(db, gen, cfg),
	}
}

// StartRerun handles POST /surveys/:id/simulations/rerun
// Creates the requested run rows, kicks off processing, and returns
// immediately; callers poll progress.
func (h *SimulationHandler) StartRerun(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")
	if surveyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "survey_id is required")
		return
	}

	var req models.StartRerunRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.RerunCount < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "rerun_count must be at least 1")
		return
	}

	resp, runs, err := h.orch.StartRerun(r.Context(), surveyID, req.RerunCount, req.Purpose)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to start rerun", "survey_id", surveyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start rerun")
		return
	}

	// The batch outlives the request; progress is polled.
	go h.orch.RunBatch(context.Background(), runs)

	slog.Info("rerun started", "survey_id", surveyID, "run_id", resp.RunID, "rerun_count", req.RerunCount)

	middleware.JSONResponse(w, http.StatusAccepted, resp)
}

// Progress handles GET /simulations/:runId/progress
func (h *SimulationHandler) Progress(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runId")
	if runID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "run_id is required")
		return
	}

	progress, err := h.orch.Progress(runID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to query progress", "run_id", runID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, progress)
}

// ListRuns handles GET /surveys/:id/simulations
// Returns every run for the survey with its progress, for dashboard
// polling.
func (h *SimulationHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")
	if surveyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "survey_id is required")
		return
	}

	runs, err := h.orch.ListRuns(surveyID)
	if err != nil {
		slog.Error("failed to list runs", "survey_id", surveyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RunListResponse{Runs: runs})
}
