package api

import (
	"encoding/json"
	"net/http"
	"regexp"
)

// clientIDPattern matches paths with a numeric client ID followed by more path segments
// e.g., /api/advisor/clients/123/simulations
var clientIDPattern = regexp.MustCompile(`^/api/advisor/clients/\d+/.+`)

func NewRouter() http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth required)
	mux.HandleFunc("POST /api/auth/register", handleRegister)
	mux.HandleFunc("POST /api/auth/login", handleLogin)
	mux.HandleFunc("GET /api/health", handleHealth)

	// Protected routes - wrap with auth middleware
	protectedMux := http.NewServeMux()

	// User info
	protectedMux.HandleFunc("GET /api/auth/me", handleGetMe)

	// Projection entry points
	protectedMux.HandleFunc("POST /api/projections/capitalization", handleCapitalizationPreview)
	protectedMux.HandleFunc("POST /api/projections/monte-carlo", handleMonteCarloCapitalization)
	protectedMux.HandleFunc("POST /api/projections/retirement", handleMonteCarloRetirement)
	protectedMux.HandleFunc("POST /api/projections/optimize-savings", handleOptimizeSavings)

	// Saved projection runs
	protectedMux.HandleFunc("GET /api/simulations", handleListSimulations)
	protectedMux.HandleFunc("GET /api/simulations/{id}", handleGetSimulation)
	protectedMux.HandleFunc("POST /api/simulations", handleSaveSimulation)
	protectedMux.HandleFunc("PUT /api/simulations/{id}", handleUpdateSimulation)
	protectedMux.HandleFunc("DELETE /api/simulations/{id}", handleDeleteSimulation)

	// Household data import
	protectedMux.HandleFunc("POST /api/import/csv", handleCSVImport)
	protectedMux.HandleFunc("POST /api/import/bareme", handleParseBareme)

	// Report generation
	protectedMux.HandleFunc("POST /api/reports/generate", handleGenerateReport)

	// Advisor-only routes (handled in advisor mux)
	advisorMux := http.NewServeMux()
	advisorMux.HandleFunc("GET /api/advisor/clients", handleListClients)
	advisorMux.HandleFunc("POST /api/advisor/clients/create", handleCreateClient)
	advisorMux.HandleFunc("POST /api/advisor/clients/add", handleAddExistingClient)
	advisorMux.HandleFunc("PUT /api/advisor/clients/{id}", handleUpdateClient)
	advisorMux.HandleFunc("DELETE /api/advisor/clients/{id}", handleRemoveClient)

	// Admin routes (advisor-only) for managing advisors
	advisorMux.HandleFunc("GET /api/advisor/admin/advisors", handleListAdvisors)
	advisorMux.HandleFunc("POST /api/advisor/admin/advisors", handleCreateAdvisor)
	advisorMux.HandleFunc("GET /api/advisor/admin/advisors/{id}", handleGetAdvisor)

	// Advisor client context routes (for running projections on a specific client's behalf)
	clientContextMux := http.NewServeMux()
	clientContextMux.HandleFunc("POST /api/advisor/clients/{clientId}/projections/capitalization", handleCapitalizationPreview)
	clientContextMux.HandleFunc("POST /api/advisor/clients/{clientId}/projections/monte-carlo", handleMonteCarloCapitalization)
	clientContextMux.HandleFunc("POST /api/advisor/clients/{clientId}/projections/retirement", handleMonteCarloRetirement)
	clientContextMux.HandleFunc("POST /api/advisor/clients/{clientId}/projections/optimize-savings", handleOptimizeSavings)
	clientContextMux.HandleFunc("GET /api/advisor/clients/{clientId}/simulations", handleListSimulations)
	clientContextMux.HandleFunc("GET /api/advisor/clients/{clientId}/simulations/{id}", handleGetSimulation)
	clientContextMux.HandleFunc("POST /api/advisor/clients/{clientId}/simulations", handleSaveSimulation)
	clientContextMux.HandleFunc("POST /api/advisor/clients/{clientId}/reports/generate", handleGenerateReport)

	// Apply auth middleware to protected routes
	mux.Handle("/api/auth/me", AuthMiddleware(protectedMux))
	mux.Handle("/api/projections/", AuthMiddleware(protectedMux))
	mux.Handle("/api/simulations", AuthMiddleware(protectedMux))
	mux.Handle("/api/simulations/", AuthMiddleware(protectedMux))
	mux.Handle("/api/import/", AuthMiddleware(protectedMux))
	mux.Handle("/api/reports/", AuthMiddleware(protectedMux))

	// Apply auth + advisor middleware to advisor routes
	mux.Handle("/api/advisor/clients", AuthMiddleware(AdvisorMiddleware(advisorMux)))
	mux.Handle("/api/advisor/clients/", AuthMiddleware(AdvisorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Routes like /api/advisor/clients/{clientId}/projections/...
		if clientIDPattern.MatchString(r.URL.Path) {
			ClientAccessMiddleware(clientContextMux).ServeHTTP(w, r)
		} else {
			advisorMux.ServeHTTP(w, r)
		}
	}))))

	// Admin routes (advisor-only) for managing advisors
	mux.Handle("/api/advisor/admin/", AuthMiddleware(AdvisorMiddleware(advisorMux)))

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
