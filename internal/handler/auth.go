package handler

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/atomity/research-server-go/internal/audit"
	apperrors "github.com/atomity/research-server-go/internal/errors"
	"github.com/atomity/research-server-go/internal/middleware"
	"github.com/atomity/research-server-go/internal/service"
)

var validate = validator.New()

type AuthHandler struct {
	authService   *service.AuthService
	auth          *middleware.AuthMiddleware
	secureCookies bool
}

func NewAuthHandler(authService *service.AuthService, auth *middleware.AuthMiddleware, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		auth:          auth,
		secureCookies: secureCookies,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/magic-link", h.RequestMagicLink)
	r.Get("/verify", h.Verify)
	r.With(h.auth.Handler).Get("/session", h.GetSession)
	r.Post("/logout", h.Logout)

	return r
}

type magicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /auth/magic-link
func (h *AuthHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, apperrors.InvalidInput("email", "must be a valid email address"))
		return
	}

	if err := h.authService.RequestMagicLink(r.Context(), req.Email, clientIP(r)); err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeRateLimitExceeded {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventMagicLinkRequest})

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Check your email for a sign-in link",
	})
}

// GET /auth/verify?token=...
//
// Browser flow: set the session cookie and land on the reserve page.
// Clients that ask for JSON get the raw session token instead.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, apperrors.MissingRequired("token"))
		return
	}

	result, err := h.authService.VerifyToken(r.Context(), token)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		if wantsJSON(r) {
			writeError(w, err)
			return
		}
		log.Warn().Err(err).Msg("magic link verification failed")
		http.Redirect(w, r, "/login?error=invalid_link", http.StatusFound)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:         audit.EventLoginSuccess,
		ResearcherID: result.Researcher.ID,
	})

	h.setSessionCookie(w, result.SessionToken, result.Session.ExpiresAt)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"sessionToken": result.SessionToken,
			"researcher":   result.Researcher,
			"expiresAt":    result.Session.ExpiresAt,
		})
		return
	}

	http.Redirect(w, r, "/reserve", http.StatusFound)
}

// GET /auth/session
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())
	session := middleware.GetSession(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"researcher": researcher,
		"expiresAt":  session.ExpiresAt,
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.ExtractSessionToken(r); token != "" {
		if err := h.authService.SignOut(r.Context(), token); err != nil {
			writeError(w, err)
			return
		}
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
