package shared

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session carries the backend bearer token for one caller. It is passed
// explicitly to every data-access call.
type Session struct {
	ID string

	token      string
	persistent bool

	mu           sync.Mutex
	invalidated  bool
	onInvalidate []func(*Session)
}

// NewSession wraps a bearer token. The ID may be empty for token-only sessions.
func NewSession(id, token string) *Session {
	return &Session{ID: id, token: token}
}

// Token returns the bearer token, or "" once the session was invalidated.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidated {
		return ""
	}
	return s.token
}

// Persistent reports whether the token lives in the session store.
func (s *Session) Persistent() bool {
	return s != nil && s.persistent
}

// OnInvalidate registers a callback run once when the session is invalidated.
func (s *Session) OnInvalidate(fn func(*Session)) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInvalidate = append(s.onInvalidate, fn)
}

// Invalidate marks the session unusable and fires the callbacks. Safe to call
// repeatedly; callbacks run only on the first call.
func (s *Session) Invalidate() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.invalidated {
		s.mu.Unlock()
		return
	}
	s.invalidated = true
	callbacks := s.onInvalidate
	s.onInvalidate = nil
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn(s)
	}
}

// Invalidated reports whether Invalidate was called.
func (s *Session) Invalidated() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

// SessionStore keeps backend tokens in Redis behind an opaque cookie.
type SessionStore struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionStore {
	return &SessionStore{client: client, cookieName: cookieName, ttl: ttl, secure: secure}
}

// Load resolves the caller's session. A bearer Authorization header wins over
// the cookie. Returns nil without error for anonymous requests.
func (st *SessionStore) Load(ctx context.Context, r *http.Request) (*Session, error) {
	if token := bearerToken(r); token != "" {
		return NewSession("", token), nil
	}
	cookie, err := r.Cookie(st.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}
	token, err := st.client.Get(ctx, st.redisKey(cookie.Value)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	sess := NewSession(cookie.Value, token)
	sess.persistent = true
	return sess, nil
}

// Create stores token under a fresh session id and sets the cookie.
func (st *SessionStore) Create(ctx context.Context, w http.ResponseWriter, token string) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, Validation("token", "is required")
	}
	id := uuid.NewString()
	if err := st.client.Set(ctx, st.redisKey(id), token, st.ttl).Err(); err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     st.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   st.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(st.ttl),
	})
	sess := NewSession(id, token)
	sess.persistent = true
	return sess, nil
}

// Destroy removes the stored token and expires the cookie.
func (st *SessionStore) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil || !sess.persistent {
		return nil
	}
	if err := st.client.Del(ctx, st.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     st.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   st.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// CookieName returns the cookie identifier used for sessions.
func (st *SessionStore) CookieName() string {
	return st.cookieName
}

func (st *SessionStore) redisKey(id string) string {
	return "session:" + id
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
