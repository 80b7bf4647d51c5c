package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/security"
	"shikshaleap/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	PrincipalContextKey ContextKey = "principal"
	RequestIDContextKey ContextKey = "request_id"
)

// AccountChecker confirms that the account behind a session still exists and is active
type AccountChecker interface {
	CurrentUser(ctx context.Context, p models.Principal) (*models.User, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	sessions *security.SessionManager
	accounts AccountChecker
	limiter  *security.RateLimiter
	log      *logger.Logger
}

// NewMiddleware creates a new middleware instance. limiter may be nil to disable rate limiting.
func NewMiddleware(sessions *security.SessionManager, accounts AccountChecker, limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{
		sessions: sessions,
		accounts: accounts,
		limiter:  limiter,
		log:      log,
	}
}

// RequireAuth is middleware that requires a valid session cookie
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			respondWithError(w, m.log, http.StatusUnauthorized, MsgNotAuthenticated, "", nil)
			return
		}

		principal, err := m.sessions.Parse(cookie.Value)
		if err != nil {
			// Clear invalid cookie
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			respondWithError(w, m.log, http.StatusUnauthorized, MsgNotAuthenticated, "", nil)
			return
		}

		if _, err := m.accounts.CurrentUser(r.Context(), principal); err != nil {
			if errors.Is(err, service.ErrAccountDisabled) || errors.Is(err, service.ErrUnauthenticated) {
				http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			}
			respondWithServiceError(w, m.log, "failed to load session account", err)
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole wraps RequireAuth and additionally rejects callers whose role is not role
func (m *Middleware) RequireRole(role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := GetPrincipalFromContext(r.Context())
		if principal.Role != role {
			respondWithError(w, m.log, http.StatusForbidden, MsgNotAuthorized, "", nil)
			return
		}
		next(w, r)
	})
}

// RateLimit rejects clients that exceed the configured request rate
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			respondWithError(w, m.log, http.StatusTooManyRequests, MsgTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", requestID,
		)
	})
}

// GetPrincipalFromContext retrieves the authenticated caller from the request context
func GetPrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	principal, ok := ctx.Value(PrincipalContextKey).(models.Principal)
	return principal, ok
}
