package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/atomity/research-server-go/internal/audit"
	"github.com/atomity/research-server-go/internal/model"
	"github.com/atomity/research-server-go/internal/service"
)

type contextKey string

const (
	ResearcherContextKey contextKey = "researcher"
	SessionContextKey    contextKey = "session"
)

// SessionCookieName is the cookie carrying the raw session token.
const SessionCookieName = "atomity_session"

func GetResearcher(ctx context.Context) *model.Researcher {
	if researcher, ok := ctx.Value(ResearcherContextKey).(*model.Researcher); ok {
		return researcher
	}
	return nil
}

func GetSession(ctx context.Context) *model.Session {
	if session, ok := ctx.Value(SessionContextKey).(*model.Session); ok {
		return session
	}
	return nil
}

type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Handler rejects requests without a live session.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractSessionToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing session token",
			})
			return
		}

		researcher, session, err := m.authService.ValidateSession(r.Context(), token)
		if err != nil {
			// A failed lookup counts as no session.
			log.Error().Err(err).Msg("auth middleware: session lookup failed")
			researcher = nil
		}

		if researcher == nil {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventAuthFailure})
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid or expired session",
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), researcher, session)))
	})
}

// Optional attaches the researcher when a valid session is present and
// passes the request through either way. Page routes use it to decide
// between rendering and redirecting to the login page.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractSessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		researcher, session, err := m.authService.ValidateSession(r.Context(), token)
		if err != nil || researcher == nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), researcher, session)))
	})
}

func withIdentity(ctx context.Context, researcher *model.Researcher, session *model.Session) context.Context {
	ctx = context.WithValue(ctx, ResearcherContextKey, researcher)
	return context.WithValue(ctx, SessionContextKey, session)
}

// ExtractSessionToken looks in the session cookie first, then the
// Authorization header. SSE clients that cannot set headers may also
// pass ?token=.
func ExtractSessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return ""
}
