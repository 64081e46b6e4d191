package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/Dan9191/rental-yield/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RateSource supplies the current UF value
type RateSource interface {
	Current(ctx context.Context) models.UFRate
}

type Handler struct {
	calc      *calculator.Calculator
	analyses  *service.AnalysisService
	rates     RateSource
	proposals *service.ProposalService
	auth      *service.AuthService
	log       *logrus.Logger
}

func NewHandler(calc *calculator.Calculator, analyses *service.AnalysisService, rates RateSource, proposals *service.ProposalService, auth *service.AuthService, log *logrus.Logger) *Handler {
	return &Handler{
		calc:      calc,
		analyses:  analyses,
		rates:     rates,
		proposals: proposals,
		auth:      auth,
		log:       log,
	}
}

// Register mounts the API on r. Write routes go through requireAuth.
func (h *Handler) Register(r *mux.Router, requireAuth mux.MiddlewareFunc) {
	// Public routes
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/calculate", h.Calculate).Methods("POST")
	r.HandleFunc("/uf-rate", h.UFRate).Methods("GET")
	r.HandleFunc("/analyses", h.ListAnalyses).Methods("GET")
	r.HandleFunc("/analyses/{id}", h.GetAnalysis).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/analyses").Subrouter()
	authRouter.Use(requireAuth)
	authRouter.HandleFunc("", h.SaveAnalysis).Methods("POST")
	authRouter.HandleFunc("/{id}", h.UpdateAnalysis).Methods("PATCH")
	authRouter.HandleFunc("/{id}", h.DeleteAnalysis).Methods("DELETE")
	authRouter.HandleFunc("/{id}/proposal", h.SubmitProposal).Methods("POST")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Login handles broker authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.log.WithError(err).Error("Login failed")
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// UFRate returns the current UF value
func (h *Handler) UFRate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rates.Current(r.Context()))
}
