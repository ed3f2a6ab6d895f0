package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/pharmaflow/pharmaflow/internal/app"
	"github.com/pharmaflow/pharmaflow/internal/auth"
	"github.com/pharmaflow/pharmaflow/internal/shared"
	_ "github.com/pharmaflow/pharmaflow/testing"
)

func newAuthRouter(t *testing.T) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessions := shared.NewSessionStore(redisClient, "test_session", time.Hour, false)

	r := chi.NewRouter()
	r.Use(app.SessionMiddleware(sessions, nil))
	r.Route("/session", auth.NewHandler(nil, sessions).MountRoutes)
	return r, mr
}

func TestSignInAndOut(t *testing.T) {
	router, mr := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"token":"backend-token"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusCreated, res.Code)

	var body struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.NotEmpty(t, body.SessionID)
	require.True(t, mr.Exists("session:"+body.SessionID))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)

	req = httptest.NewRequest(http.MethodDelete, "/session", nil)
	req.AddCookie(cookies[0])
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)
	require.False(t, mr.Exists("session:"+body.SessionID))
}

func TestSignInRejectsMissingToken(t *testing.T) {
	router, mr := newAuthRouter(t)

	for _, payload := range []string{`{}`, `{"token":""}`, `not json`} {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(payload)))
		require.Equal(t, http.StatusBadRequest, res.Code, payload)
	}
	require.Empty(t, mr.Keys())
}

func TestSignOutWithoutSession(t *testing.T) {
	router, _ := newAuthRouter(t)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/session", nil))
	require.Equal(t, http.StatusNoContent, res.Code)
}
