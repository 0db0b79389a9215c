package middleware

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/cookie"
	"github.com/dmitrymomot/soloweb/core/logger"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/core/session"
)

// sessionKey is the request value key for the loaded session.
type sessionKey struct{}

// SessionConfig configures the session middleware.
type SessionConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool
	// Store persists session payloads. Required.
	Store session.Store
	// CookieName is the cookie carrying the session token (default: session.DefaultCookieName)
	CookieName string
	// Signer signs the token in the cookie. Optional: tokens are unguessable on
	// their own, signing lets forged cookies be rejected without a store lookup.
	Signer *cookie.Signer
	// CookieOptions apply to the session cookie (default: HttpOnly, SameSite=Lax)
	CookieOptions []cookie.Option
	// Rolling refreshes the session expiry on every request, not only on writes.
	Rolling bool
	// Logger reports rejected cookies and store failures
	Logger *slog.Logger
}

// Session is the per-request view of a stored session.
// Changes are persisted after the handler returns.
type Session struct {
	mu        sync.Mutex
	id        string
	data      session.Data
	modified  bool
	destroyed bool
}

// ID returns the session token, or "" for a session not stored yet.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool {
	return s.ID() == ""
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.modified = true
}

// Delete removes key.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.modified = true
	}
}

// Data returns a copy of the payload.
func (s *Session) Data() session.Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Destroy deletes the session from the store and expires the cookie.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = session.Data{}
	s.destroyed = true
}

type sessionMiddleware struct {
	cfg    SessionConfig
	logger *slog.Logger
}

// SessionWithConfig creates a middleware that loads the session named by the
// request cookie and saves it after the handler. A new session is written to
// the store only once something is set on it. Panics if no store is provided.
func SessionWithConfig(cfg SessionConfig) soloweb.Middleware {
	if cfg.Store == nil {
		panic("session middleware: store is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = session.DefaultCookieName
	}
	if cfg.CookieOptions == nil {
		cfg.CookieOptions = []cookie.Option{
			cookie.WithHTTPOnly(true),
			cookie.WithSameSite(http.SameSiteLaxMode),
		}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sessionMiddleware{cfg: cfg, logger: log.With(logger.Component("session"))}
}

// SessionMiddleware creates a session middleware on store with default settings.
func SessionMiddleware(store session.Store) soloweb.Middleware {
	return SessionWithConfig(SessionConfig{Store: store})
}

func (m *sessionMiddleware) ProcessRequest(req *request.Request) (*response.Response, error) {
	if m.cfg.Skip != nil && m.cfg.Skip(req) {
		return nil, nil
	}

	sess := &Session{data: session.Data{}}
	req.SetValue(sessionKey{}, sess)

	id := m.tokenFromCookie(req)
	if id == "" {
		return nil, nil
	}

	data, err := m.cfg.Store.Get(req.Context(), id)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("session: load: %w", err)
	}

	sess.id = id
	sess.data = data
	return nil, nil
}

func (m *sessionMiddleware) ProcessResponse(req *request.Request, resp *response.Response) (*response.Response, error) {
	sess, ok := GetSession(req)
	if !ok {
		return resp, nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	ctx := req.Context()
	switch {
	case sess.destroyed:
		if sess.id != "" {
			if err := m.cfg.Store.Delete(ctx, sess.id); err != nil {
				return nil, err
			}
		}
		if _, sent := req.Cookie(m.cfg.CookieName); sent || sess.id != "" {
			if err := resp.DeleteCookie(m.cfg.CookieName, m.cfg.CookieOptions...); err != nil {
				return nil, err
			}
		}
		sess.id = ""

	case sess.id == "" && sess.modified:
		id, err := m.cfg.Store.Create(ctx, sess.data)
		if err != nil {
			return nil, err
		}
		sess.id = id
		if err := resp.SetCookie(m.cfg.CookieName, m.encode(id), m.cfg.CookieOptions...); err != nil {
			return nil, err
		}

	case sess.id != "" && (sess.modified || m.cfg.Rolling):
		if err := m.cfg.Store.Update(ctx, sess.id, sess.data); err != nil {
			return nil, err
		}
	}

	sess.modified = false
	return resp, nil
}

func (m *sessionMiddleware) tokenFromCookie(req *request.Request) string {
	raw, ok := req.Cookie(m.cfg.CookieName)
	if !ok || raw == "" {
		return ""
	}
	if m.cfg.Signer == nil {
		return raw
	}
	id, err := m.cfg.Signer.Verify(raw)
	if err != nil {
		m.logger.DebugContext(req.Context(), "rejected session cookie", logger.Error(err))
		return ""
	}
	return id
}

func (m *sessionMiddleware) encode(id string) string {
	if m.cfg.Signer == nil {
		return id
	}
	return m.cfg.Signer.Sign(id)
}

// GetSession returns the session loaded by the session middleware.
func GetSession(req *request.Request) (*Session, bool) {
	sess, ok := req.Value(sessionKey{}).(*Session)
	return sess, ok
}

// MustGetSession is GetSession for handlers that only run behind the
// session middleware. It panics otherwise.
func MustGetSession(req *request.Request) *Session {
	sess, ok := GetSession(req)
	if !ok {
		panic("session middleware is not installed")
	}
	return sess
}
