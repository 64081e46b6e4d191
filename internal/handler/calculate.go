package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/models"
)

type calculateResponse struct {
	Metrics      models.DerivedMetrics     `json:"metrics"`
	Calculations models.RentalCalculations `json:"calculations"`
	MarketRent   float64                   `json:"market_rent,omitempty"`
}

type calculateRequest struct {
	Values      map[string]any              `json:"values"`
	AreaM2      float64                     `json:"area_m2"`
	Comparables []models.ComparableProperty `json:"comparables"`
}

// formValues stringifies decoded JSON so numbers and strings are both accepted
func formValues(raw map[string]any) models.FormValues {
	values := make(models.FormValues, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			values[k] = t
		case float64:
			values[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			values[k] = strconv.FormatBool(t)
		}
	}
	return values
}

// Calculate derives metrics and plan comparisons from raw form values.
// A missing UF value is filled with the current quotation.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	values := formValues(req.Values)
	if strings.TrimSpace(values[models.FieldUFValueCLP]) == "" {
		rate := h.rates.Current(r.Context())
		values[models.FieldUFValueCLP] = strconv.FormatFloat(rate.Value, 'f', -1, 64)
	}

	metrics, calcs := h.calc.Evaluate(values)
	writeJSON(w, http.StatusOK, calculateResponse{
		Metrics:      metrics,
		Calculations: calcs,
		MarketRent:   calculator.MarketRent(req.Comparables, req.AreaM2),
	})
}
