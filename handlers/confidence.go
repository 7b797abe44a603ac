// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mirrorpanel/server/catalog"
	"github.com/mirrorpanel/server/cliparse"
	"github.com/mirrorpanel/server/middleware"
	"github.com/mirrorpanel/server/simulation"
)

type ConfidenceHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewConfidenceHandler(db *sql.DB, cfg cliparse.Config) *ConfidenceHandler {
	return &ConfidenceHandler{db: db, cfg: cfg}
}

// GetConfidence handles GET /surveys/:id/confidence
// A survey with no simulation results is a 404, not a zero score.
func (h *ConfidenceHandler) GetConfidence(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")
	if surveyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "survey_id is required")
		return
	}

	report, err := simulation.ComputeStability(h.db, surveyID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("failed to compute stability", "survey_id", surveyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, report)
}
