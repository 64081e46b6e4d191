package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/integrations/webhook"
	"github.com/Dan9191/rental-yield/internal/middleware"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/Dan9191/rental-yield/internal/service"
	"github.com/gorilla/mux"
)

// ListAnalyses returns saved analyses, optionally filtered by status and tag
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.analyses.List(r.Context(), service.ListFilter{
		Status: q.Get("status"),
		Tag:    q.Get("tag"),
	})
	if err != nil {
		h.log.WithError(err).Error("Failed to list analyses")
		writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetAnalysis returns one analysis
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, found, err := h.analyses.GetByID(r.Context(), id)
	if err != nil {
		h.log.WithError(err).Errorf("Failed to get analysis %s", id)
		writeError(w, http.StatusInternalServerError, "failed to get analysis")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// SaveAnalysis stores a complete analysis. Calculations are derived when the
// request carries no plans.
func (h *Handler) SaveAnalysis(w http.ResponseWriter, r *http.Request) {
	var a models.SavedAnalysis
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(a.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	if len(a.Calculations.Plans) == 0 {
		_, a.Calculations = h.calc.Evaluate(calculator.FormFromAnalysis(a.Property, a.Analysis))
	}

	saved, err := h.analyses.Save(r.Context(), a)
	if err != nil {
		h.log.WithError(err).Error("Failed to save analysis")
		writeError(w, http.StatusInternalServerError, "failed to save analysis")
		return
	}
	broker, _ := middleware.Subject(r.Context())
	h.log.WithField("broker", broker).Infof("Analysis %s saved", saved.ID)
	writeJSON(w, http.StatusCreated, saved)
}

// UpdateAnalysis applies a partial update
func (h *Handler) UpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch models.AnalysisPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, found, err := h.analyses.Update(r.Context(), id, patch)
	if err != nil {
		h.log.WithError(err).Errorf("Failed to update analysis %s", id)
		writeError(w, http.StatusInternalServerError, "failed to update analysis")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAnalysis removes an analysis
func (h *Handler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed, err := h.analyses.Delete(r.Context(), id)
	if err != nil {
		h.log.WithError(err).Errorf("Failed to delete analysis %s", id)
		writeError(w, http.StatusInternalServerError, "failed to delete analysis")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitProposal forwards an analysis for review
func (h *Handler) SubmitProposal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, found, err := h.proposals.Submit(r.Context(), id)
	switch {
	case errors.Is(err, webhook.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "proposal forwarding is not configured")
		return
	case err != nil:
		h.log.WithError(err).Errorf("Failed to submit proposal %s", id)
		writeError(w, http.StatusBadGateway, "failed to send proposal")
		return
	case !found:
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	writeJSON(w, http.StatusAccepted, p)
}
