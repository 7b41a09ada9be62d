package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finviz/longview/internal/engine"
	"github.com/finviz/longview/internal/models"
)

// projectionEngine is the package-level handle to the stateless
// computation core; it holds no per-request state so one instance
// serves every request.
var projectionEngine = engine.New()

// handleCapitalizationPreview wires entry point 1: a deterministic
// single-path projection using only expected returns.
func handleCapitalizationPreview(w http.ResponseWriter, r *http.Request) {
	if !canRunSimulations(r) {
		respondError(w, http.StatusForbidden, "View-only access does not permit running projections")
		return
	}

	var in models.CapitalizationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := projectionEngine.CapitalizationPreview(in)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleMonteCarloCapitalization wires entry point 2.
func handleMonteCarloCapitalization(w http.ResponseWriter, r *http.Request) {
	if !canRunSimulations(r) {
		respondError(w, http.StatusForbidden, "View-only access does not permit running projections")
		return
	}

	var in models.MonteCarloInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := projectionEngine.MonteCarloCapitalization(in, nil)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleMonteCarloRetirement wires entry point 3.
func handleMonteCarloRetirement(w http.ResponseWriter, r *http.Request) {
	if !canRunSimulations(r) {
		respondError(w, http.StatusForbidden, "View-only access does not permit running projections")
		return
	}

	var in models.RetirementMonteCarloInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := projectionEngine.MonteCarloRetirement(in, nil)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleOptimizeSavings wires entry point 4: the bisection-based
// savings-rate optimizer.
func handleOptimizeSavings(w http.ResponseWriter, r *http.Request) {
	if !canRunSimulations(r) {
		respondError(w, http.StatusForbidden, "View-only access does not permit running projections")
		return
	}

	var in models.SavingsOptimizationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := projectionEngine.OptimizeSavings(in, nil)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// respondEngineError maps the engine's sentinel errors to HTTP status
// codes; anything else is an internal failure.
func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrCovarianceIllConditioned):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, engine.ErrSaturatedOptimization):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Projection failed")
	}
}
