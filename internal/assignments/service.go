package assignments

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// Store abstracts the backend holding assignments and users.
type Store interface {
	ListAssignments(ctx context.Context, sess *shared.Session, filter Filter) ([]Assignment, error)
	GetAssignment(ctx context.Context, sess *shared.Session, id int64) (Assignment, error)
	CreateAssignment(ctx context.Context, sess *shared.Session, req CreateRequest) (Assignment, error)
	UpdateAssignment(ctx context.Context, sess *shared.Session, id int64, req UpdateRequest) (Assignment, error)
	DeleteAssignment(ctx context.Context, sess *shared.Session, id int64) error
	ListDistributors(ctx context.Context, sess *shared.Session) ([]User, error)
}

// Service enforces the assignment rules around single-shot backend mutations.
type Service struct {
	store    Store
	validate *validator.Validate
	clock    func() time.Time
}

// NewService builds Service.
func NewService(store Store) *Service {
	return &Service{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Candidates returns the distributors that may be newly assigned to the
// facility. Users and assignments are fetched together; if either fetch fails
// the call fails.
func (s *Service) Candidates(ctx context.Context, sess *shared.Session, facilityID int64) ([]User, error) {
	if facilityID <= 0 {
		return nil, shared.Validation("facility_id", "must be positive")
	}
	var users []User
	var rows []Assignment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.store.ListDistributors(gctx, sess)
		if err != nil {
			return err
		}
		users = list
		return nil
	})
	g.Go(func() error {
		list, err := s.store.ListAssignments(gctx, sess, Filter{FacilityID: facilityID})
		if err != nil {
			return err
		}
		rows = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return AvailableCandidates(users, rows, facilityID), nil
}

// Facility lists a facility's assignments with active and total counts.
func (s *Service) Facility(ctx context.Context, sess *shared.Session, facilityID int64) (FacilityView, error) {
	if facilityID <= 0 {
		return FacilityView{}, shared.Validation("facility_id", "must be positive")
	}
	rows, err := s.store.ListAssignments(ctx, sess, Filter{FacilityID: facilityID})
	if err != nil {
		return FacilityView{}, err
	}
	return FacilityView{
		FacilityID:  facilityID,
		Assignments: rows,
		ActiveCount: ActiveCountFor(facilityID, rows),
		TotalCount:  TotalCountFor(facilityID, rows),
	}, nil
}

// ListByUser lists the facilities a distributor is linked to.
func (s *Service) ListByUser(ctx context.Context, sess *shared.Session, userID int64) ([]Assignment, error) {
	if userID <= 0 {
		return nil, shared.Validation("user_id", "must be positive")
	}
	return s.store.ListAssignments(ctx, sess, Filter{UserID: userID})
}

// Assign links a user to a facility. It fails with a ConflictError when any
// row already exists for the pair; callers must reactivate that row instead.
func (s *Service) Assign(ctx context.Context, sess *shared.Session, in AssignInput) (Assignment, error) {
	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			msg := "is required"
			if fe.Tag() == "max" {
				msg = "must be at most " + fe.Param() + " characters"
			}
			return Assignment{}, shared.Validation(fieldName(fe.Field()), msg)
		}
		return Assignment{}, err
	}
	rows, err := s.store.ListAssignments(ctx, sess, Filter{FacilityID: in.FacilityID})
	if err != nil {
		return Assignment{}, err
	}
	if err := NewRoster(rows).CheckAssignable(in.UserID, in.FacilityID); err != nil {
		return Assignment{}, err
	}
	return s.store.CreateAssignment(ctx, sess, CreateRequest{
		UserID:           in.UserID,
		HealthFacilityID: in.FacilityID,
		IsActive:         true,
		AssignedDate:     s.clock(),
		Notes:            in.Notes,
	})
}

// Reactivate flips an existing row back to active without creating a new one.
func (s *Service) Reactivate(ctx context.Context, sess *shared.Session, id int64) (Assignment, error) {
	row, err := s.get(ctx, sess, id)
	if err != nil {
		return Assignment{}, err
	}
	if row.IsActive {
		return row, nil
	}
	siblings, err := s.store.ListAssignments(ctx, sess, Filter{FacilityID: row.HealthFacilityID})
	if err != nil {
		return Assignment{}, err
	}
	roster := NewRoster(withRow(siblings, row))
	if _, err := roster.Reactivate(id); err != nil {
		return Assignment{}, err
	}
	return s.setActive(ctx, sess, id, true)
}

// Deactivate is the canonical "remove distributor" action: the row is kept
// for history with is_active=false.
func (s *Service) Deactivate(ctx context.Context, sess *shared.Session, id int64) (Assignment, error) {
	row, err := s.get(ctx, sess, id)
	if err != nil {
		return Assignment{}, err
	}
	if !row.IsActive {
		return row, nil
	}
	return s.setActive(ctx, sess, id, false)
}

// HardDelete permanently removes the row. It is an administrative action,
// distinct from Deactivate.
func (s *Service) HardDelete(ctx context.Context, sess *shared.Session, id int64) error {
	if _, err := s.get(ctx, sess, id); err != nil {
		return err
	}
	return s.store.DeleteAssignment(ctx, sess, id)
}

func (s *Service) get(ctx context.Context, sess *shared.Session, id int64) (Assignment, error) {
	if id <= 0 {
		return Assignment{}, shared.Validation("id", "must be positive")
	}
	return s.store.GetAssignment(ctx, sess, id)
}

func (s *Service) setActive(ctx context.Context, sess *shared.Session, id int64, active bool) (Assignment, error) {
	return s.store.UpdateAssignment(ctx, sess, id, UpdateRequest{IsActive: &active})
}

// withRow makes sure row is part of list, replacing any stale copy.
func withRow(list []Assignment, row Assignment) []Assignment {
	out := make([]Assignment, 0, len(list)+1)
	for _, a := range list {
		if a.ID != row.ID {
			out = append(out, a)
		}
	}
	return append(out, row)
}

func fieldName(structField string) string {
	switch structField {
	case "UserID":
		return "user_id"
	case "FacilityID":
		return "facility_id"
	case "Notes":
		return "notes"
	default:
		return structField
	}
}
