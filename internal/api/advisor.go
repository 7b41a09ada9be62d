package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finviz/longview/internal/auth"
	"github.com/finviz/longview/internal/db"
	"github.com/finviz/longview/internal/models"
)

// CreateClientRequest is the request body for creating a client directly
type CreateClientRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Password    string `json:"password,omitempty"` // Optional - generate if not provided
	AccessLevel string `json:"accessLevel,omitempty"`
}

// UpdateClientRequest is the request body for updating client relationship
type UpdateClientRequest struct {
	AccessLevel string `json:"accessLevel,omitempty"`
	Status      string `json:"status,omitempty"`
}

// ClientSummary is the response for client list with summary info
type ClientSummary struct {
	models.User
	RelationshipID int        `json:"relationshipId"`
	AccessLevel    string     `json:"accessLevel"`
	Status         string     `json:"status"`
	AcceptedAt     *time.Time `json:"acceptedAt,omitempty"`
	LastSimulation *time.Time `json:"lastSimulation,omitempty"`
}

// handleListClients returns list of advisor's clients
func handleListClients(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	rows, err := db.DB.Query(`
		SELECT
			u.id, u.email, u.name, u.role, u.created_at, u.updated_at,
			ac.id as relationship_id, ac.access_level, ac.status, ac.accepted_at,
			(SELECT MAX(created_at) FROM simulation_history WHERE user_id = u.id) as last_simulation
		FROM advisor_clients ac
		JOIN users u ON ac.client_id = u.id
		WHERE ac.advisor_id = ? AND ac.status != 'revoked'
		ORDER BY u.name
	`, user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch clients")
		return
	}
	defer rows.Close()

	clients := []ClientSummary{}
	for rows.Next() {
		var client ClientSummary
		var lastSim *time.Time
		err := rows.Scan(
			&client.ID, &client.Email, &client.Name, &client.Role,
			&client.CreatedAt, &client.UpdatedAt,
			&client.RelationshipID, &client.AccessLevel, &client.Status, &client.AcceptedAt,
			&lastSim,
		)
		if err != nil {
			continue
		}
		client.LastSimulation = lastSim
		clients = append(clients, client)
	}

	respondJSON(w, http.StatusOK, clients)
}

// handleCreateClient creates a new client account directly
func handleCreateClient(w http.ResponseWriter, r *http.Request) {
	advisor := getUserFromContext(r)
	if advisor == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "Email and name are required")
		return
	}

	var exists int
	err := db.DB.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", req.Email).Scan(&exists)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists > 0 {
		respondError(w, http.StatusConflict, "Email already registered")
		return
	}

	password := req.Password
	if password == "" {
		password = generateToken()[:16]
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	accessLevel := models.AccessLevelFull
	if req.AccessLevel != "" {
		accessLevel = req.AccessLevel
	}

	result, err := db.DB.Exec(
		`INSERT INTO users (email, password_hash, name, role, created_by_advisor_id)
		 VALUES (?, ?, ?, 'client', ?)`,
		req.Email, hashedPassword, req.Name, advisor.ID,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	clientID, _ := result.LastInsertId()

	_, err = db.DB.Exec(`
		INSERT INTO advisor_clients (advisor_id, client_id, status, access_level, accepted_at)
		VALUES (?, ?, 'active', ?, NOW())
	`, advisor.ID, clientID, accessLevel)

	if err != nil {
		db.DB.Exec("DELETE FROM users WHERE id = ?", clientID)
		respondError(w, http.StatusInternalServerError, "Failed to create relationship")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":           "Client created successfully",
		"clientId":          clientID,
		"email":             req.Email,
		"temporaryPassword": password, // In production, send via email
	})
}

// handleUpdateClient updates the advisor-client relationship
func handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	clientIDStr := r.PathValue("id")
	clientID, err := strconv.Atoi(clientIDStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}

	var req UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var exists int
	err = db.DB.QueryRow(
		"SELECT COUNT(*) FROM advisor_clients WHERE advisor_id = ? AND client_id = ?",
		user.ID, clientID,
	).Scan(&exists)
	if err != nil || exists == 0 {
		respondError(w, http.StatusNotFound, "Client relationship not found")
		return
	}

	updates := []string{}
	args := []interface{}{}

	if req.AccessLevel != "" {
		if req.AccessLevel != models.AccessLevelView &&
			req.AccessLevel != models.AccessLevelEdit &&
			req.AccessLevel != models.AccessLevelFull {
			respondError(w, http.StatusBadRequest, "Invalid access level")
			return
		}
		updates = append(updates, "access_level = ?")
		args = append(args, req.AccessLevel)
	}

	if req.Status != "" {
		if req.Status != models.RelationshipStatusActive &&
			req.Status != models.RelationshipStatusRevoked {
			respondError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		updates = append(updates, "status = ?")
		args = append(args, req.Status)
	}

	if len(updates) == 0 {
		respondError(w, http.StatusBadRequest, "No updates provided")
		return
	}

	query := "UPDATE advisor_clients SET " + strings.Join(updates, ", ") + " WHERE advisor_id = ? AND client_id = ?"
	args = append(args, user.ID, clientID)

	_, err = db.DB.Exec(query, args...)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update relationship")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Client updated"})
}

// handleRemoveClient revokes the advisor-client relationship
func handleRemoveClient(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	clientIDStr := r.PathValue("id")
	clientID, err := strconv.Atoi(clientIDStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}

	result, err := db.DB.Exec(
		"UPDATE advisor_clients SET status = 'revoked' WHERE advisor_id = ? AND client_id = ?",
		user.ID, clientID,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to remove client")
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Client relationship not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Client removed"})
}

// handleAddExistingClient adds an existing user as a client
func handleAddExistingClient(w http.ResponseWriter, r *http.Request) {
	advisor := getUserFromContext(r)
	if advisor == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		ClientID    int    `json:"clientId"`
		AccessLevel string `json:"accessLevel,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ClientID == 0 {
		respondError(w, http.StatusBadRequest, "Client ID is required")
		return
	}

	var clientRole string
	err := db.DB.QueryRow("SELECT role FROM users WHERE id = ?", req.ClientID).Scan(&clientRole)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	var existingID int
	err = db.DB.QueryRow(
		"SELECT id FROM advisor_clients WHERE advisor_id = ? AND client_id = ?",
		advisor.ID, req.ClientID,
	).Scan(&existingID)
	if err == nil {
		respondError(w, http.StatusConflict, "Relationship already exists")
		return
	}

	accessLevel := models.AccessLevelFull
	if req.AccessLevel != "" {
		accessLevel = req.AccessLevel
	}

	_, err = db.DB.Exec(`
		INSERT INTO advisor_clients (advisor_id, client_id, status, access_level, accepted_at)
		VALUES (?, ?, 'active', ?, NOW())
	`, advisor.ID, req.ClientID, accessLevel)

	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to add client")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Client added successfully"})
}

// generateToken creates a secure random token
func generateToken() string {
	return uuid.NewString()
}

// ==================== Admin Functions (Advisor Only) ====================

// CreateAdvisorRequest is the request body for creating a new advisor
type CreateAdvisorRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"` // Optional - generate if not provided
}

// AdvisorSummary is the response for advisor list
type AdvisorSummary struct {
	ID          int       `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	ClientCount int       `json:"clientCount"`
}

// handleListAdvisors returns list of all advisors (admin function)
func handleListAdvisors(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	rows, err := db.DB.Query(`
		SELECT
			u.id, u.email, u.name, u.role, u.created_at,
			(SELECT COUNT(*) FROM advisor_clients ac WHERE ac.advisor_id = u.id AND ac.status = 'active') as client_count
		FROM users u
		WHERE u.role = 'advisor'
		ORDER BY u.name
	`)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch advisors")
		return
	}
	defer rows.Close()

	advisors := []AdvisorSummary{}
	for rows.Next() {
		var advisor AdvisorSummary
		err := rows.Scan(
			&advisor.ID, &advisor.Email, &advisor.Name, &advisor.Role,
			&advisor.CreatedAt, &advisor.ClientCount,
		)
		if err != nil {
			continue
		}
		advisors = append(advisors, advisor)
	}

	respondJSON(w, http.StatusOK, advisors)
}

// handleCreateAdvisor creates a new advisor account (admin function)
func handleCreateAdvisor(w http.ResponseWriter, r *http.Request) {
	currentUser := getUserFromContext(r)
	if currentUser == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateAdvisorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "Email and name are required")
		return
	}

	var exists int
	err := db.DB.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", req.Email).Scan(&exists)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists > 0 {
		respondError(w, http.StatusConflict, "Email already registered")
		return
	}

	password := req.Password
	generatedPassword := ""
	if password == "" {
		generatedPassword = generateToken()[:16]
		password = generatedPassword
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	result, err := db.DB.Exec(
		`INSERT INTO users (email, password_hash, name, role)
		 VALUES (?, ?, ?, 'advisor')`,
		req.Email, hashedPassword, req.Name,
	)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create advisor")
		return
	}

	advisorID, _ := result.LastInsertId()

	response := map[string]interface{}{
		"message":   "Advisor created successfully",
		"advisorId": advisorID,
		"email":     req.Email,
		"name":      req.Name,
	}

	if generatedPassword != "" {
		response["temporaryPassword"] = generatedPassword
	}

	respondJSON(w, http.StatusCreated, response)
}

// handleGetAdvisor returns details for a specific advisor
func handleGetAdvisor(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	advisorIDStr := r.PathValue("id")
	advisorID, err := strconv.Atoi(advisorIDStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid advisor ID")
		return
	}

	var advisor AdvisorSummary
	err = db.DB.QueryRow(`
		SELECT
			u.id, u.email, u.name, u.role, u.created_at,
			(SELECT COUNT(*) FROM advisor_clients ac WHERE ac.advisor_id = u.id AND ac.status = 'active') as client_count
		FROM users u
		WHERE u.id = ? AND u.role = 'advisor'
	`, advisorID).Scan(
		&advisor.ID, &advisor.Email, &advisor.Name, &advisor.Role,
		&advisor.CreatedAt, &advisor.ClientCount,
	)

	if err != nil {
		respondError(w, http.StatusNotFound, "Advisor not found")
		return
	}

	respondJSON(w, http.StatusOK, advisor)
}
