package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/finviz/longview/internal/db"
	"github.com/finviz/longview/internal/models"
)

// SimulationSaveRequest is the request body for saving a projection run.
// Params and Results carry the raw input/result JSON of whichever entry
// point Kind names (capitalization, monte_carlo, retirement,
// optimize_savings) — the history table doesn't care which shape it is.
type SimulationSaveRequest struct {
	Kind             string          `json:"kind"`
	Params           json.RawMessage `json:"params"`
	Results          json.RawMessage `json:"results"`
	Name             *string         `json:"name,omitempty"`
	Notes            *string         `json:"notes,omitempty"`
	FinalP50         float64         `json:"finalP50"`
	TimeHorizonYears int             `json:"timeHorizonYears"`
}

// SimulationUpdateRequest is the request body for updating a simulation's metadata
type SimulationUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	IsFavorite *bool   `json:"isFavorite,omitempty"`
}

// handleListSimulations returns a list of saved projection runs for the user
func handleListSimulations(w http.ResponseWriter, r *http.Request) {
	userID := getEffectiveUserID(r)
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	offsetStr := r.URL.Query().Get("offset")
	offset := 0
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	favoritesOnly := r.URL.Query().Get("favorites") == "true"

	query := `
		SELECT sh.id, sh.kind, sh.name, sh.final_p50,
		       sh.time_horizon_years, sh.is_favorite, sh.created_at,
		       COALESCE(u.name, '') as run_by_user_name
		FROM simulation_history sh
		LEFT JOIN users u ON sh.run_by_user_id = u.id
		WHERE sh.user_id = ?
	`
	args := []interface{}{userID}

	if favoritesOnly {
		query += " AND sh.is_favorite = TRUE"
	}

	query += " ORDER BY sh.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.DB.Query(query, args...)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch simulations")
		return
	}
	defer rows.Close()

	simulations := []models.SimulationHistorySummary{}
	for rows.Next() {
		var sim models.SimulationHistorySummary
		err := rows.Scan(
			&sim.ID, &sim.Kind, &sim.Name, &sim.FinalP50,
			&sim.TimeHorizonYears, &sim.IsFavorite,
			&sim.CreatedAt, &sim.RunByUserName,
		)
		if err != nil {
			continue
		}
		simulations = append(simulations, sim)
	}

	respondJSON(w, http.StatusOK, simulations)
}

// handleGetSimulation returns the full details of a specific projection run
func handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	userID := getEffectiveUserID(r)
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	simIDStr := r.PathValue("id")
	simID, err := strconv.Atoi(simIDStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid simulation ID")
		return
	}

	var sim models.SimulationHistory
	var runByUserName string
	err = db.DB.QueryRow(`
		SELECT sh.id, sh.user_id, sh.run_by_user_id, sh.kind, sh.name, sh.notes,
		       sh.params, sh.results, sh.final_p50,
		       sh.time_horizon_years, sh.is_favorite, sh.created_at,
		       COALESCE(u.name, '') as run_by_user_name
		FROM simulation_history sh
		LEFT JOIN users u ON sh.run_by_user_id = u.id
		WHERE sh.id = ? AND sh.user_id = ?
	`, simID, userID).Scan(
		&sim.ID, &sim.UserID, &sim.RunByUserID, &sim.Kind, &sim.Name, &sim.Notes,
		&sim.Params, &sim.Results, &sim.FinalP50,
		&sim.TimeHorizonYears, &sim.IsFavorite, &sim.CreatedAt,
		&runByUserName,
	)

	if err != nil {
		respondError(w, http.StatusNotFound, "Simulation not found")
		return
	}

	response := models.SimulationHistoryFull{
		SimulationHistory: sim,
		ParsedParams:      json.RawMessage(sim.Params),
		ParsedResults:     json.RawMessage(sim.Results),
	}
	if runByUserName != "" {
		response.RunByUser = &models.User{Name: runByUserName}
	}

	respondJSON(w, http.StatusOK, response)
}

// handleSaveSimulation saves a new projection run to history
func handleSaveSimulation(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	targetUserID := getEffectiveUserID(r)

	var req SimulationSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Kind == "" {
		respondError(w, http.StatusBadRequest, "kind is required")
		return
	}

	result, err := db.DB.Exec(`
		INSERT INTO simulation_history
		(user_id, run_by_user_id, kind, name, notes, params, results,
		 final_p50, time_horizon_years)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		targetUserID,
		user.ID, // The person running it (could be advisor)
		req.Kind,
		req.Name,
		req.Notes,
		string(req.Params),
		string(req.Results),
		req.FinalP50,
		req.TimeHorizonYears,
	)

	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save simulation")
		return
	}

	id, _ := result.LastInsertId()

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      id,
		"message": "Simulation saved successfully",
	})
}

// handleUpdateSimulation updates a simulation's metadata
func handleUpdateSimulation(w http.ResponseWriter, r *http.Request) {
	userID := getEffectiveUserID(r)
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	simIDStr := r.PathValue("id")
	simID, err := strconv.Atoi(simIDStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid simulation ID")
		return
	}

	var req SimulationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var exists int
	err = db.DB.QueryRow(
		"SELECT COUNT(*) FROM simulation_history WHERE id = ? AND user_id = ?",
		simID, userID,
	).Scan(&exists)
	if err != nil || exists == 0 {
		respondError(w, http.StatusNotFound, "Simulation not found")
		return
	}

	updates := []string{}
	args := []interface{}{}

	if req.Name != nil {
		updates = append(updates, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Notes != nil {
		updates = append(updates, "notes = ?")
		args = append(args, *req.Notes)
	}
	if req.IsFavorite != nil {
		updates = append(updates, "is_favorite = ?")
		args = append(args, *req.IsFavorite)
	}

	if len(updates) == 0 {
		respondError(w, http.StatusBadRequest, "No updates provided")
		return
	}

	query := "UPDATE simulation_history SET "
	for i, u := range updates {
		if i > 0 {
			query += ", "
		}
		query += u
	}
	query += " WHERE id = ? AND user_id = ?"
	args = append(args, simID, userID)

	_, err = db.DB.Exec(query, args...)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update simulation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Simulation updated"})
}

// handleDeleteSimulation deletes a simulation from history
func handleDeleteSimulation(w http.ResponseWriter, r *http.Request) {
	userID := getEffectiveUserID(r)
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	simIDStr := r.PathValue("id")
	simID, err := strconv.Atoi(simIDStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid simulation ID")
		return
	}

	result, err := db.DB.Exec(
		"DELETE FROM simulation_history WHERE id = ? AND user_id = ?",
		simID, userID,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete simulation")
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Simulation not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Simulation deleted"})
}
