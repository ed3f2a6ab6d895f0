package assignments

import (
	"fmt"
	"time"

	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// msgAlreadyAssigned is the user-facing message for duplicate assignments.
const msgAlreadyAssigned = "user already assigned to this facility; reactivate the existing assignment instead"

// AvailableCandidates returns the users with no assignment row for the
// facility, active or not. Input order is preserved.
func AvailableCandidates(allUsers []User, existing []Assignment, facilityID int64) []User {
	taken := make(map[int64]struct{}, len(existing))
	for _, a := range existing {
		if a.HealthFacilityID == facilityID {
			taken[a.UserID] = struct{}{}
		}
	}
	out := make([]User, 0, len(allUsers))
	for _, u := range allUsers {
		if _, ok := taken[u.ID]; !ok {
			out = append(out, u)
		}
	}
	return out
}

// ActiveCountFor counts active assignments of a facility.
func ActiveCountFor(facilityID int64, list []Assignment) int {
	n := 0
	for _, a := range list {
		if a.HealthFacilityID == facilityID && a.IsActive {
			n++
		}
	}
	return n
}

// TotalCountFor counts all assignments of a facility.
func TotalCountFor(facilityID int64, list []Assignment) int {
	n := 0
	for _, a := range list {
		if a.HealthFacilityID == facilityID {
			n++
		}
	}
	return n
}

// Roster applies the assignment rules to a fetched collection. It never
// talks to the backend; Service pairs it with the store.
type Roster struct {
	rows   []Assignment
	nextID int64
}

// NewRoster copies rows into a new Roster.
func NewRoster(rows []Assignment) *Roster {
	r := &Roster{rows: make([]Assignment, len(rows))}
	copy(r.rows, rows)
	for _, a := range rows {
		if a.ID >= r.nextID {
			r.nextID = a.ID
		}
	}
	return r
}

// Rows returns a copy of the current rows.
func (r *Roster) Rows() []Assignment {
	out := make([]Assignment, len(r.rows))
	copy(out, r.rows)
	return out
}

// Find returns the row for a (user, facility) pair, if any.
func (r *Roster) Find(userID, facilityID int64) (Assignment, bool) {
	for _, a := range r.rows {
		if a.UserID == userID && a.HealthFacilityID == facilityID {
			return a, true
		}
	}
	return Assignment{}, false
}

// CheckAssignable fails with a ConflictError when any row exists for the pair.
func (r *Roster) CheckAssignable(userID, facilityID int64) error {
	if existing, ok := r.Find(userID, facilityID); ok {
		return &shared.Error{
			Kind:    shared.ErrConflict,
			Message: msgAlreadyAssigned,
			Err:     fmt.Errorf("assignment %d is %s", existing.ID, existing.State()),
		}
	}
	return nil
}

// Assign adds a new active row for the pair.
func (r *Roster) Assign(userID, facilityID int64, now time.Time) (Assignment, error) {
	if err := r.CheckAssignable(userID, facilityID); err != nil {
		return Assignment{}, err
	}
	r.nextID++
	a := Assignment{ID: r.nextID, UserID: userID, HealthFacilityID: facilityID, IsActive: true, AssignedDate: now}
	r.rows = append(r.rows, a)
	return a, nil
}

// Reactivate marks the row active. Reactivating an active row is a no-op.
// It fails with a ConflictError if another row of the same pair is active.
func (r *Roster) Reactivate(id int64) (Assignment, error) {
	i, err := r.index(id)
	if err != nil {
		return Assignment{}, err
	}
	row := r.rows[i]
	if row.IsActive {
		return row, nil
	}
	for _, other := range r.rows {
		if other.ID != id && other.IsActive && other.UserID == row.UserID && other.HealthFacilityID == row.HealthFacilityID {
			return Assignment{}, shared.Conflict(msgAlreadyAssigned)
		}
	}
	r.rows[i].IsActive = true
	return r.rows[i], nil
}

// Deactivate marks the row inactive. It always succeeds when the row exists.
func (r *Roster) Deactivate(id int64) (Assignment, error) {
	i, err := r.index(id)
	if err != nil {
		return Assignment{}, err
	}
	r.rows[i].IsActive = false
	return r.rows[i], nil
}

// HardDelete removes the row permanently.
func (r *Roster) HardDelete(id int64) error {
	i, err := r.index(id)
	if err != nil {
		return err
	}
	r.rows = append(r.rows[:i], r.rows[i+1:]...)
	return nil
}

// ActiveCountFor counts active rows for a facility.
func (r *Roster) ActiveCountFor(facilityID int64) int {
	return ActiveCountFor(facilityID, r.rows)
}

// TotalCountFor counts rows for a facility.
func (r *Roster) TotalCountFor(facilityID int64) int {
	return TotalCountFor(facilityID, r.rows)
}

func (r *Roster) index(id int64) (int, error) {
	for i, a := range r.rows {
		if a.ID == id {
			return i, nil
		}
	}
	return -1, shared.NotFound("assignment", id)
}
