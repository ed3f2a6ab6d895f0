package alerts

import (
	"context"
	"sort"
	"time"

	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// Store abstracts the backend holding alerts.
type Store interface {
	ListAlerts(ctx context.Context, sess *shared.Session, filter ListFilter) ([]Alert, error)
	GetAlert(ctx context.Context, sess *shared.Session, id int64) (Alert, error)
	UpdateAlert(ctx context.Context, sess *shared.Session, id int64, patch ResolvePatch) (Alert, error)
}

// Service coordinates alert listing and resolution.
type Service struct {
	store Store
	clock func() time.Time
}

// NewService builds Service.
func NewService(store Store) *Service {
	return &Service{store: store, clock: func() time.Time { return time.Now().UTC() }}
}

// SortBySeverity orders alerts from most to least urgent. Equal ranks keep
// their fetch order.
func SortBySeverity(list []Alert) []Alert {
	sorted := make([]Alert, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
	})
	return sorted
}

// CountBySeverity counts active alerts per severity. Every known severity is
// present in the result.
func CountBySeverity(list []Alert) SeverityCounts {
	counts := make(SeverityCounts, len(Severities))
	for _, s := range Severities {
		counts[s] = 0
	}
	for _, a := range list {
		if a.IsActive {
			counts[a.Severity.Normalize()]++
		}
	}
	return counts
}

// List fetches alerts sorted by severity.
func (s *Service) List(ctx context.Context, sess *shared.Session, filter ListFilter) ([]Alert, error) {
	list, err := s.store.ListAlerts(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	if filter.ActiveOnly {
		active := list[:0:0]
		for _, a := range list {
			if a.IsActive {
				active = append(active, a)
			}
		}
		list = active
	}
	return SortBySeverity(list), nil
}

// Summary counts active alerts per severity.
func (s *Service) Summary(ctx context.Context, sess *shared.Session) (SeverityCounts, error) {
	list, err := s.store.ListAlerts(ctx, sess, ListFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	return CountBySeverity(list), nil
}

// Resolve deactivates an alert and stamps its resolution time. Resolving an
// inactive alert returns it untouched.
func (s *Service) Resolve(ctx context.Context, sess *shared.Session, id int64) (Alert, error) {
	if id <= 0 {
		return Alert{}, shared.Validation("id", "must be positive")
	}
	current, err := s.store.GetAlert(ctx, sess, id)
	if err != nil {
		return Alert{}, err
	}
	if !current.IsActive {
		return current, nil
	}
	return s.store.UpdateAlert(ctx, sess, id, ResolvePatch{IsActive: false, ResolvedAt: s.clock()})
}
