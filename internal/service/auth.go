package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atomity/research-server-go/internal/config"
	apperrors "github.com/atomity/research-server-go/internal/errors"
	"github.com/atomity/research-server-go/internal/mail"
	"github.com/atomity/research-server-go/internal/model"
	"github.com/atomity/research-server-go/internal/repository"
	"github.com/atomity/research-server-go/internal/sse"
	"github.com/atomity/research-server-go/internal/util"
)

const sessionTTL = 7 * 24 * time.Hour

type AuthService struct {
	researcherRepo repository.ResearcherRepository
	loginTokenRepo repository.LoginTokenRepository
	sessionRepo    repository.SessionRepository
	rateLimiter    *RateLimiter
	mailer         mail.Mailer
	broker         *sse.Broker
	baseURL        string
	sessionSecret  string
	loginTokenTTL  time.Duration
}

func NewAuthService(
	researcherRepo repository.ResearcherRepository,
	loginTokenRepo repository.LoginTokenRepository,
	sessionRepo repository.SessionRepository,
	rateLimiter *RateLimiter,
	mailer mail.Mailer,
	broker *sse.Broker,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		researcherRepo: researcherRepo,
		loginTokenRepo: loginTokenRepo,
		sessionRepo:    sessionRepo,
		rateLimiter:    rateLimiter,
		mailer:         mailer,
		broker:         broker,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		sessionSecret:  cfg.SessionSecret,
		loginTokenTTL:  cfg.LoginTokenTTL(),
	}
}

// hashToken derives the stored form of a raw token. Keyed by
// SESSION_SECRET, so rotating the secret invalidates every outstanding
// token at once.
func (s *AuthService) hashToken(token string) string {
	return util.HmacSHA256(s.sessionSecret, token)
}

// RequestMagicLink issues a single-use sign-in token and mails the
// verification link. The response does not distinguish new from known
// emails.
func (s *AuthService) RequestMagicLink(ctx context.Context, email, clientIP string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !util.IsValidEmail(email) {
		return apperrors.InvalidInput("email", "must be a valid email address")
	}

	if allowed, _ := s.rateLimiter.Allow(ctx,
		"magiclink:email:"+email,
		config.MagicLinkLimitPerEmail,
		config.MagicLinkEmailWindow,
	); !allowed {
		return apperrors.RateLimitExceeded()
	}
	if clientIP != "" {
		if allowed, _ := s.rateLimiter.Allow(ctx,
			"magiclink:ip:"+clientIP,
			config.MagicLinkLimitPerIP,
			config.MagicLinkIPWindow,
		); !allowed {
			return apperrors.RateLimitExceeded()
		}
	}

	token, err := util.GenerateToken()
	if err != nil {
		return fmt.Errorf("generate login token: %w", err)
	}

	_, err = s.loginTokenRepo.Create(ctx, model.CreateLoginTokenParams{
		Email:     email,
		TokenHash: s.hashToken(token),
		ExpiresAt: time.Now().Add(s.loginTokenTTL),
	})
	if err != nil {
		return fmt.Errorf("store login token: %w", err)
	}

	link := fmt.Sprintf("%s/auth/verify?token=%s", s.baseURL, token)
	if err := s.mailer.SendMagicLink(ctx, email, link); err != nil {
		return fmt.Errorf("send magic link: %w", err)
	}

	log.Info().
		Str("email", util.MaskEmail(email)).
		Msg("magic link requested")

	return nil
}

type SignInResult struct {
	Researcher   *model.Researcher
	Session      *model.Session
	SessionToken string
}

// VerifyToken consumes a magic-link token and opens a session. The
// token is single use; a second verification fails even inside the TTL.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*SignInResult, error) {
	loginToken, err := s.loginTokenRepo.FindActiveByTokenHash(ctx, s.hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("find login token: %w", err)
	}
	if loginToken == nil {
		return nil, apperrors.InvalidToken("This sign-in link is invalid or has expired")
	}

	if err := s.loginTokenRepo.MarkUsed(ctx, loginToken.ID); err != nil {
		return nil, fmt.Errorf("mark login token used: %w", err)
	}

	researcher, err := s.researcherRepo.FindOrCreateByEmail(ctx, loginToken.Email)
	if err != nil {
		return nil, fmt.Errorf("find or create researcher: %w", err)
	}

	sessionToken, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	session, err := s.sessionRepo.Create(ctx, model.CreateSessionParams{
		ResearcherID: researcher.ID,
		TokenHash:    s.hashToken(sessionToken),
		ExpiresAt:    time.Now().Add(sessionTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	log.Info().
		Str("researcherId", researcher.ID).
		Str("email", util.MaskEmail(researcher.Email)).
		Msg("researcher signed in")

	return &SignInResult{
		Researcher:   researcher,
		Session:      session,
		SessionToken: sessionToken,
	}, nil
}

// ValidateSession resolves a raw session token to its researcher, or
// (nil, nil, nil) when the token matches no live session.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*model.Researcher, *model.Session, error) {
	session, err := s.sessionRepo.FindByTokenHash(ctx, s.hashToken(token))
	if err != nil {
		return nil, nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, nil, nil
	}

	researcher, err := s.researcherRepo.FindByID(ctx, session.ResearcherID)
	if err != nil {
		return nil, nil, fmt.Errorf("find researcher: %w", err)
	}
	if researcher == nil {
		return nil, nil, nil
	}

	return researcher, session, nil
}

// SignOut deletes the session and notifies the researcher's other open
// tabs through the event stream.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	session, err := s.sessionRepo.FindByTokenHash(ctx, s.hashToken(token))
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil
	}

	if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := s.broker.PublishJSON(ctx, session.ResearcherID, sse.EventSessionRevoked, map[string]string{
		"sessionId": session.ID,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to publish session revoked event")
	}

	log.Info().
		Str("researcherId", session.ResearcherID).
		Str("sessionId", session.ID).
		Msg("researcher signed out")

	return nil
}
