package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pharmaflow/pharmaflow/internal/alerts"
	"github.com/pharmaflow/pharmaflow/internal/assignments"
	"github.com/pharmaflow/pharmaflow/internal/shared"
	"github.com/pharmaflow/pharmaflow/internal/stock"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/api/", Timeout: 2 * time.Second}, nil)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClientSendsBearerToken(t *testing.T) {
	var auth, path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		writeJSON(w, http.StatusOK, `[]`)
	})
	_, err := NewStockStore(client).ListProjects(context.Background(), shared.NewSession("", "tok-1"))
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-1", auth)
	require.Equal(t, "/api/projects/", path)
}

func TestClientRefusesAnonymousSession(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusOK, `[]`)
	})
	_, err := NewStockStore(client).ListProjects(context.Background(), nil)
	require.ErrorIs(t, err, shared.ErrAuth)

	sess := shared.NewSession("", "tok")
	sess.Invalidate()
	_, err = NewStockStore(client).ListProjects(context.Background(), sess)
	require.ErrorIs(t, err, shared.ErrAuth)
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"detail":"Invalid token."}`)
	})
	sess := shared.NewSession("abc", "stale")
	var fired int
	sess.OnInvalidate(func(*shared.Session) { fired++ })

	_, err := NewAlertStore(client).ListAlerts(context.Background(), sess, alerts.ListFilter{})
	require.ErrorIs(t, err, shared.ErrAuth)
	require.True(t, sess.Invalidated())
	require.Empty(t, sess.Token())

	_, err = NewAlertStore(client).ListAlerts(context.Background(), sess, alerts.ListFilter{})
	require.ErrorIs(t, err, shared.ErrAuth)
	require.Equal(t, 1, fired)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   error
		msg    string
	}{
		{"field errors", http.StatusBadRequest, `{"quantity_delivered":["Ensure this value is greater than or equal to 0."]}`, shared.ErrValidation, "quantity_delivered: Ensure this value is greater than or equal to 0."},
		{"bare 400", http.StatusBadRequest, `{"detail":"Bad input"}`, shared.ErrValidation, "Bad input"},
		{"not found", http.StatusNotFound, `{"detail":"Not found."}`, shared.ErrNotFound, "stock entry 9 not found"},
		{"server error", http.StatusInternalServerError, `{"detail":"database is down"}`, shared.ErrTransport, "database is down"},
		{"gateway without body", http.StatusBadGateway, ``, shared.ErrTransport, "the server could not complete the request, please try again"},
		{"field message on 5xx", http.StatusServiceUnavailable, `{"medication":"unavailable"}`, shared.ErrTransport, "unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})
			_, err := NewStockStore(client).GetStockEntry(context.Background(), shared.NewSession("", "tok"), 9)
			require.ErrorIs(t, err, tc.kind)
			require.Equal(t, tc.msg, shared.UserMessage(err))
		})
	}
}

func TestNetworkFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	client := New(Config{BaseURL: url, Timeout: time.Second}, nil)
	_, err := NewStockStore(client).ListProjects(context.Background(), shared.NewSession("", "tok"))
	require.ErrorIs(t, err, shared.ErrTransport)
}

func TestListFollowsPagination(t *testing.T) {
	var queries []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		switch r.URL.Query().Get("page") {
		case "":
			writeJSON(w, http.StatusOK, `{"count":3,"next":"http://x/api/stock-entries/?page=2&project=4","results":[{"id":1,"quantity_delivered":"5"},{"id":2}]}`)
		case "2":
			writeJSON(w, http.StatusOK, `{"count":3,"next":null,"results":[{"id":3,"unit_price":"1.50"}]}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"detail":"Invalid page."}`)
		}
	})
	entries, err := NewStockStore(client).ListStockEntries(context.Background(), shared.NewSession("", "tok"), stock.ListFilter{ProjectID: 4})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, int64(5), entries[0].QuantityDelivered.Int())
	require.Equal(t, "1.5", entries[2].UnitPrice.Decimal().String())
	require.Equal(t, []string{"project=4", "page=2&project=4"}, queries)
}

func TestListFollowsOffsetNextLinks(t *testing.T) {
	rows := []string{
		`{"id":1,"user":1,"health_facility":3,"is_active":true}`,
		`{"id":2,"user":7,"health_facility":3,"is_active":true}`,
	}
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "/api/health-facility-distributors/by_facility/", r.URL.Path)
		require.Equal(t, "3", r.URL.Query().Get("facility_id"))
		offset := 0
		if raw := r.URL.Query().Get("offset"); raw != "" {
			_, err := fmt.Sscan(raw, &offset)
			require.NoError(t, err)
		}
		next := "null"
		if offset+1 < len(rows) {
			next = fmt.Sprintf(`"http://backend.internal:8000/api/health-facility-distributors/by_facility/?facility_id=3&limit=1&offset=%d"`, offset+1)
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"count":2,"next":%s,"results":[%s]}`, next, rows[offset]))
	})

	got, err := NewAssignmentStore(client).ListAssignments(context.Background(), shared.NewSession("", "tok"), assignments.Filter{FacilityID: 3})
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0].ID)
	require.Equal(t, int64(2), got[1].ID)
	require.Equal(t, int64(7), got[1].UserID)
}

func TestListFailsPastPageLimit(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"next":"/api/stock-entries/?page=%d","results":[{"id":%d}]}`, n+1, n))
	})

	entries, err := NewStockStore(client).ListStockEntries(context.Background(), shared.NewSession("", "tok"), stock.ListFilter{})
	require.ErrorIs(t, err, shared.ErrTransport)
	require.Nil(t, entries)
	require.EqualValues(t, maxPages, calls.Load())
}

func TestListRejectsEnvelopeWithoutResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"count":0}`)
	})
	_, err := NewStockStore(client).ListProjects(context.Background(), shared.NewSession("", "tok"))
	require.ErrorIs(t, err, shared.ErrTransport)
}

func TestAlertQueryAndResolve(t *testing.T) {
	var gotQuery string
	var patched map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gotQuery = r.URL.RawQuery
			writeJSON(w, http.StatusOK, `[{"id":7,"alert_type":"EXPIRY","severity":"CRITICAL","is_active":true,"created_at":"2024-01-01T00:00:00Z","resolved_at":null}]`)
		case http.MethodPatch:
			require.Equal(t, "/api/alerts/7/", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			writeJSON(w, http.StatusOK, `{"id":7,"alert_type":"EXPIRY","severity":"CRITICAL","is_active":false,"created_at":"2024-01-01T00:00:00Z","resolved_at":"2024-01-02T00:00:00Z"}`)
		}
	})
	store := NewAlertStore(client)
	sess := shared.NewSession("", "tok")

	list, err := store.ListAlerts(context.Background(), sess, alerts.ListFilter{ActiveOnly: true, HealthFacilityID: 3})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "health_facility=3&is_active=true", gotQuery)

	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	resolved, err := store.UpdateAlert(context.Background(), sess, 7, alerts.ResolvePatch{IsActive: false, ResolvedAt: now})
	require.NoError(t, err)
	require.False(t, resolved.IsActive)
	require.Equal(t, false, patched["is_active"])
	require.NotNil(t, resolved.ResolvedAt)
}

func TestAssignmentStore(t *testing.T) {
	var created map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/health-facility-distributors/by_facility/":
			require.Equal(t, "2", r.URL.Query().Get("facility_id"))
			writeJSON(w, http.StatusOK, `[{"id":1,"user":5,"health_facility":2,"is_active":false,"assigned_date":"2024-01-01T00:00:00Z"}]`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/users/":
			require.Equal(t, "distributor", r.URL.Query().Get("role"))
			writeJSON(w, http.StatusOK, `{"next":null,"results":[{"id":5,"username":"ada"}]}`)
		case r.Method == http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			if created["user"] == float64(5) {
				writeJSON(w, http.StatusBadRequest, `{"non_field_errors":["The fields user, health_facility must make a unique set."]}`)
				return
			}
			writeJSON(w, http.StatusCreated, `{"id":2,"user":6,"health_facility":2,"is_active":true,"assigned_date":"2024-01-01T00:00:00Z"}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"detail":"Not found."}`)
		}
	})
	store := NewAssignmentStore(client)
	sess := shared.NewSession("", "tok")
	ctx := context.Background()

	rows, err := store.ListAssignments(ctx, sess, assignments.Filter{FacilityID: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(5), rows[0].UserID)

	users, err := store.ListDistributors(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, "ada", users[0].Username)

	_, err = store.CreateAssignment(ctx, sess, assignments.CreateRequest{UserID: 5, HealthFacilityID: 2, IsActive: true})
	require.ErrorIs(t, err, shared.ErrConflict)

	row, err := store.CreateAssignment(ctx, sess, assignments.CreateRequest{UserID: 6, HealthFacilityID: 2, IsActive: true})
	require.NoError(t, err)
	require.True(t, row.IsActive)
	require.Equal(t, true, created["is_active"])

	_, err = store.GetAssignment(ctx, sess, 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, "assignment 99 not found", shared.UserMessage(err))
}

type recordingObserver struct {
	calls []string
}

func (o *recordingObserver) ObserveBackendCall(method, resource string, status int, _ time.Duration) {
	o.calls = append(o.calls, fmt.Sprintf("%s %s %d", method, resource, status))
}

func TestClientReportsCallsToObserver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"detail":"Not found."}`)
	}))
	t.Cleanup(srv.Close)
	observer := &recordingObserver{}
	client := New(Config{BaseURL: srv.URL, Observer: observer}, nil)

	_, err := NewAlertStore(client).GetAlert(context.Background(), shared.NewSession("", "tok"), 12)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, []string{"GET alerts 404"}, observer.calls)

	require.Equal(t, "health-facility-distributors", resourceOf("/health-facility-distributors/by_facility/"))
	require.Equal(t, "root", resourceOf("/"))
}
