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
	"github.com/mirrorpanel/server/models"
	"github.com/mirrorpanel/server/simulation"
)

type ReplicationHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	rep *simulation.Replicator
}

func NewReplicationHandler(db *sql.DB, cfg cliparse.Config, gen simulation.Generator) *ReplicationHandler {
	return &ReplicationHandler{
		db:  db,
		cfg: cfg,
		rep: simulation.NewReplicator(db, gen, cfg),
	}
}

// Replicate handles POST /surveys/:id/simulations/replicate
// Regenerates the baseline persona set through each requested model and
// returns a per-(model, persona) outcome report. Partial failures are
// report entries, not request failures; only a missing baseline fails
// the whole request.
func (h *ReplicationHandler) Replicate(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")
	if surveyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "survey_id is required")
		return
	}

	var req models.ReplicateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Models) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "models is required")
		return
	}

	report, err := h.rep.Replicate(r.Context(), surveyID, req.Models, req.AudienceDescription, req.SurveyTitle)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("replication failed", "survey_id", surveyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Replication failed")
		return
	}

	slog.Info("replication finished",
		"survey_id", surveyID,
		"models", len(req.Models),
		"outcomes", len(report.Results),
	)

	middleware.JSONResponse(w, http.StatusOK, report)
}
