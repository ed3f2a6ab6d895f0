package backend

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/pharmaflow/pharmaflow/internal/assignments"
	"github.com/pharmaflow/pharmaflow/internal/shared"
)

const (
	assignmentsPath = "/health-facility-distributors/"
	usersPath       = "/users/"
	distributorRole = "distributor"
)

// AssignmentStore implements assignments.Store.
type AssignmentStore struct {
	client *Client
}

// NewAssignmentStore constructs AssignmentStore.
func NewAssignmentStore(client *Client) *AssignmentStore {
	return &AssignmentStore{client: client}
}

var _ assignments.Store = (*AssignmentStore)(nil)

// ListAssignments uses the by_facility and by_user views when filtered.
func (s *AssignmentStore) ListAssignments(ctx context.Context, sess *shared.Session, filter assignments.Filter) ([]assignments.Assignment, error) {
	switch {
	case filter.FacilityID > 0:
		return list[assignments.Assignment](ctx, s.client, sess, assignmentsPath+"by_facility/",
			map[string]string{"facility_id": strconv.FormatInt(filter.FacilityID, 10)})
	case filter.UserID > 0:
		return list[assignments.Assignment](ctx, s.client, sess, assignmentsPath+"by_user/",
			map[string]string{"user_id": strconv.FormatInt(filter.UserID, 10)})
	default:
		return list[assignments.Assignment](ctx, s.client, sess, assignmentsPath, nil)
	}
}

// GetAssignment fetches one assignment row.
func (s *AssignmentStore) GetAssignment(ctx context.Context, sess *shared.Session, id int64) (assignments.Assignment, error) {
	var row assignments.Assignment
	if err := s.client.do(ctx, sess, resty.MethodGet, itemPath(assignmentsPath, id), nil, nil, &row); err != nil {
		return assignments.Assignment{}, notFoundAs(err, "assignment", id)
	}
	return row, nil
}

// CreateAssignment creates a row. A 400 about uniqueness is reported as a conflict.
func (s *AssignmentStore) CreateAssignment(ctx context.Context, sess *shared.Session, req assignments.CreateRequest) (assignments.Assignment, error) {
	var row assignments.Assignment
	if err := s.client.do(ctx, sess, resty.MethodPost, assignmentsPath, nil, req, &row); err != nil {
		return assignments.Assignment{}, uniqueAsConflict(err)
	}
	return row, nil
}

// UpdateAssignment patches is_active and notes.
func (s *AssignmentStore) UpdateAssignment(ctx context.Context, sess *shared.Session, id int64, req assignments.UpdateRequest) (assignments.Assignment, error) {
	var row assignments.Assignment
	if err := s.client.do(ctx, sess, resty.MethodPatch, itemPath(assignmentsPath, id), nil, req, &row); err != nil {
		return assignments.Assignment{}, notFoundAs(uniqueAsConflict(err), "assignment", id)
	}
	return row, nil
}

// DeleteAssignment removes the row permanently.
func (s *AssignmentStore) DeleteAssignment(ctx context.Context, sess *shared.Session, id int64) error {
	err := s.client.do(ctx, sess, resty.MethodDelete, itemPath(assignmentsPath, id), nil, nil, nil)
	return notFoundAs(err, "assignment", id)
}

// ListDistributors fetches users holding the distributor role.
func (s *AssignmentStore) ListDistributors(ctx context.Context, sess *shared.Session) ([]assignments.User, error) {
	return list[assignments.User](ctx, s.client, sess, usersPath, map[string]string{"role": distributorRole})
}

// uniqueAsConflict maps the backend's unique_together rejection onto ErrConflict.
func uniqueAsConflict(err error) error {
	var e *shared.Error
	if !errors.As(err, &e) || !errors.Is(err, shared.ErrValidation) {
		return err
	}
	if _, ok := e.Fields[""]; !ok {
		return err
	}
	if containsUnique(e.Fields[""]) {
		return &shared.Error{Kind: shared.ErrConflict, Message: e.Message, Status: e.Status}
	}
	return err
}
