package assignments

import "time"

// Assignment links a distributor (user) to a health facility.
type Assignment struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user"`
	HealthFacilityID int64     `json:"health_facility"`
	IsActive         bool      `json:"is_active"`
	AssignedDate     time.Time `json:"assigned_date"`
	AssignedBy       *int64    `json:"assigned_by,omitempty"`
	Notes            string    `json:"notes,omitempty"`
}

// State returns the lifecycle state of a stored row.
func (a Assignment) State() State {
	if a.IsActive {
		return StateActive
	}
	return StateInactive
}

// User is a candidate distributor.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// State is the lifecycle of one (user, facility) assignment.
type State string

const (
	// StateNone means no row exists; the precondition for Assign.
	StateNone     State = "NONE"
	StateActive   State = "ACTIVE"
	StateInactive State = "INACTIVE"
	// StateDeleted is terminal.
	StateDeleted State = "DELETED"
)

// CanTransition reports whether the lifecycle allows moving from one state to another.
func (s State) CanTransition(to State) bool {
	switch s {
	case StateNone:
		return to == StateActive
	case StateActive:
		return to == StateInactive || to == StateDeleted
	case StateInactive:
		return to == StateActive || to == StateDeleted
	default:
		return false
	}
}

// Filter narrows assignments fetched from the backend.
type Filter struct {
	FacilityID int64
	UserID     int64
}

// AssignInput describes a new assignment request.
type AssignInput struct {
	UserID     int64  `json:"user_id" validate:"required,gt=0"`
	FacilityID int64  `json:"-" validate:"required,gt=0"`
	Notes      string `json:"notes,omitempty" validate:"max=500"`
}

// CreateRequest is the body sent to create an assignment.
type CreateRequest struct {
	UserID           int64     `json:"user"`
	HealthFacilityID int64     `json:"health_facility"`
	IsActive         bool      `json:"is_active"`
	AssignedDate     time.Time `json:"assigned_date"`
	Notes            string    `json:"notes,omitempty"`
}

// UpdateRequest is the body sent to update an assignment.
type UpdateRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// FacilityView lists a facility's assignments with display statistics.
type FacilityView struct {
	FacilityID  int64        `json:"facility_id"`
	Assignments []Assignment `json:"assignments"`
	ActiveCount int          `json:"active_count"`
	TotalCount  int          `json:"total_count"`
}
