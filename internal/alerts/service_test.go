package alerts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pharmaflow/pharmaflow/internal/shared"
)

type fakeStore struct {
	alerts  map[int64]Alert
	order   []int64
	updates []ResolvePatch
}

func newFakeStore(list ...Alert) *fakeStore {
	s := &fakeStore{alerts: map[int64]Alert{}}
	for _, a := range list {
		s.alerts[a.ID] = a
		s.order = append(s.order, a.ID)
	}
	return s
}

func (s *fakeStore) ListAlerts(ctx context.Context, sess *shared.Session, filter ListFilter) ([]Alert, error) {
	out := make([]Alert, 0, len(s.order))
	for _, id := range s.order {
		a := s.alerts[id]
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeStore) GetAlert(ctx context.Context, sess *shared.Session, id int64) (Alert, error) {
	a, ok := s.alerts[id]
	if !ok {
		return Alert{}, shared.NotFound("alert", id)
	}
	return a, nil
}

func (s *fakeStore) UpdateAlert(ctx context.Context, sess *shared.Session, id int64, patch ResolvePatch) (Alert, error) {
	s.updates = append(s.updates, patch)
	a := s.alerts[id]
	a.IsActive = patch.IsActive
	resolved := patch.ResolvedAt
	a.ResolvedAt = &resolved
	s.alerts[id] = a
	return a, nil
}

func TestSortBySeverityIsStable(t *testing.T) {
	list := []Alert{
		{ID: 1, Severity: SeverityLow},
		{ID: 2, Severity: SeverityCritical},
		{ID: 3, Severity: "BOGUS"},
		{ID: 4, Severity: SeverityWarning},
		{ID: 5, Severity: SeverityCritical},
		{ID: 6, Severity: SeverityMedium},
	}
	sorted := SortBySeverity(list)

	ids := make([]int64, 0, len(sorted))
	for _, a := range sorted {
		ids = append(ids, a.ID)
	}
	require.Equal(t, []int64{2, 5, 4, 6, 1, 3}, ids)
	require.EqualValues(t, 1, list[0].ID, "input must not be reordered")
}

func TestCountBySeverity(t *testing.T) {
	counts := CountBySeverity([]Alert{
		{Severity: SeverityCritical, IsActive: true},
		{Severity: SeverityCritical, IsActive: false},
		{Severity: "unknown", IsActive: true},
		{Severity: SeverityWarning, IsActive: true},
	})
	require.Equal(t, SeverityCounts{
		SeverityCritical: 1,
		SeverityWarning:  1,
		SeverityMedium:   0,
		SeverityLow:      1,
	}, counts)
}

func TestListActiveOnlyFiltersAndSorts(t *testing.T) {
	store := newFakeStore(
		Alert{ID: 1, Severity: SeverityLow, IsActive: true},
		Alert{ID: 2, Severity: SeverityCritical, IsActive: false},
		Alert{ID: 3, Severity: SeverityWarning, IsActive: true},
	)
	list, err := NewService(store).List(context.Background(), shared.NewSession("", "t"), ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.EqualValues(t, 3, list[0].ID)
	require.EqualValues(t, 1, list[1].ID)
}

func TestResolveIsIdempotent(t *testing.T) {
	store := newFakeStore(Alert{ID: 7, Severity: SeverityWarning, IsActive: true})
	svc := NewService(store)
	stamp := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return stamp }
	sess := shared.NewSession("", "t")

	resolved, err := svc.Resolve(context.Background(), sess, 7)
	require.NoError(t, err)
	require.False(t, resolved.IsActive)
	require.Equal(t, stamp, *resolved.ResolvedAt)

	svc.clock = func() time.Time { return stamp.Add(time.Hour) }
	again, err := svc.Resolve(context.Background(), sess, 7)
	require.NoError(t, err)
	require.Equal(t, stamp, *again.ResolvedAt, "resolution time must not be overwritten")
	require.Len(t, store.updates, 1)
}

func TestResolveMissingAlert(t *testing.T) {
	_, err := NewService(newFakeStore()).Resolve(context.Background(), shared.NewSession("", "t"), 3)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestHandlerRoutes(t *testing.T) {
	store := newFakeStore(
		Alert{ID: 1, Severity: SeverityMedium, IsActive: true, Type: TypeExpiry},
		Alert{ID: 2, Severity: SeverityCritical, IsActive: true, Type: TypeStockout},
	)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), shared.NewSession("", "t"))))
		})
	})
	r.Route("/alerts", NewHandler(nil, NewService(store)).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/alerts/summary", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"CRITICAL":1,"WARNING":0,"MEDIUM":1,"LOW":0}`, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/alerts/2/resolve", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, store.alerts[2].IsActive)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/alerts?facility=abc", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
