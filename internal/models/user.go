package models

import (
	"encoding/json"
	"time"
)

// User roles
const (
	RoleClient  = "client"
	RoleAdvisor = "advisor"
)

type User struct {
	ID                 int       `json:"id" db:"id"`
	Email              string    `json:"email" db:"email"`
	Password           string    `json:"-" db:"password_hash"` // Never expose password hash
	Name               string    `json:"name" db:"name"`
	Role               string    `json:"role" db:"role"`
	CreatedByAdvisorID *int      `json:"createdByAdvisorId,omitempty" db:"created_by_advisor_id"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdvisor returns true if the user is a financial advisor
func (u *User) IsAdvisor() bool {
	return u.Role == RoleAdvisor
}

// IsClient returns true if the user is a client
func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"` // Optional: "client" or "advisor", defaults to "client"
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Claims struct {
	UserID int    `json:"userId"`
	Email  string `json:"email"`
}

// AdvisorClient represents the relationship between an advisor and a client
type AdvisorClient struct {
	ID                  int        `json:"id" db:"id"`
	AdvisorID           int        `json:"advisorId" db:"advisor_id"`
	ClientID            int        `json:"clientId" db:"client_id"`
	Status              string     `json:"status" db:"status"`           // pending, active, revoked
	AccessLevel         string     `json:"accessLevel" db:"access_level"` // view, edit, full
	InvitationToken     *string    `json:"-" db:"invitation_token"`
	InvitationExpiresAt *time.Time `json:"-" db:"invitation_expires_at"`
	AcceptedAt          *time.Time `json:"acceptedAt,omitempty" db:"accepted_at"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" db:"updated_at"`
}

// AdvisorClientWithUser includes the client user details
type AdvisorClientWithUser struct {
	AdvisorClient
	Client User `json:"client"`
}

// Access level constants
const (
	AccessLevelView = "view"
	AccessLevelEdit = "edit"
	AccessLevelFull = "full"
)

// Relationship status constants
const (
	RelationshipStatusPending = "pending"
	RelationshipStatusActive  = "active"
	RelationshipStatusRevoked = "revoked"
)

// Simulation kind constants identify which of the four engine entry
// points a saved run belongs to, since each has a distinct input and
// result shape.
const (
	SimulationKindCapitalization = "capitalization"
	SimulationKindMonteCarlo     = "monte_carlo"
	SimulationKindRetirement     = "retirement"
	SimulationKindOptimizeSavings = "optimize_savings"
)

// SimulationHistory represents a saved projection run. Params and
// Results hold the raw JSON of whichever entry point's input/result
// struct Kind names; SimulationHistoryFull exposes them parsed.
type SimulationHistory struct {
	ID               int       `json:"id" db:"id"`
	UserID           int       `json:"userId" db:"user_id"`
	RunByUserID      int       `json:"runByUserId" db:"run_by_user_id"`
	Kind             string    `json:"kind" db:"kind"`
	Name             *string   `json:"name,omitempty" db:"name"`
	Notes            *string   `json:"notes,omitempty" db:"notes"`
	Params           string    `json:"-" db:"params"`  // JSON stored as string
	Results          string    `json:"-" db:"results"` // JSON stored as string
	FinalP50         float64   `json:"finalP50" db:"final_p50"`
	TimeHorizonYears int       `json:"timeHorizonYears" db:"time_horizon_years"`
	IsFavorite       bool      `json:"isFavorite" db:"is_favorite"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// SimulationHistoryFull includes parsed params and results. The
// concrete type behind the raw message depends on Kind; callers
// unmarshal into the matching models.*Input/*Result struct.
type SimulationHistoryFull struct {
	SimulationHistory
	ParsedParams  json.RawMessage `json:"params"`
	ParsedResults json.RawMessage `json:"results"`
	RunByUser     *User           `json:"runByUser,omitempty"`
}

// SimulationHistorySummary is a lightweight version for list views
type SimulationHistorySummary struct {
	ID               int       `json:"id"`
	Kind             string    `json:"kind"`
	Name             *string   `json:"name,omitempty"`
	FinalP50         float64   `json:"finalP50"`
	TimeHorizonYears int       `json:"timeHorizonYears"`
	IsFavorite       bool      `json:"isFavorite"`
	CreatedAt        time.Time `json:"createdAt"`
	RunByUserName    string    `json:"runByUserName,omitempty"`
}
