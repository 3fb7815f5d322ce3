package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/atomity/research-server-go/internal/config"
	"github.com/atomity/research-server-go/internal/database"
	"github.com/atomity/research-server-go/internal/handler"
	"github.com/atomity/research-server-go/internal/jobs"
	"github.com/atomity/research-server-go/internal/mail"
	"github.com/atomity/research-server-go/internal/middleware"
	"github.com/atomity/research-server-go/internal/redis"
	"github.com/atomity/research-server-go/internal/repository"
	"github.com/atomity/research-server-go/internal/service"
	"github.com/atomity/research-server-go/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if cfg.MigrateOnStart {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Msg("migrations applied")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	researcherRepo := repository.NewResearcherRepository(db.DB)
	loginTokenRepo := repository.NewLoginTokenRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	companyRepo := repository.NewCompanyRepository(db.DB)
	submissionRepo := repository.NewSubmissionRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SMTPAddr != "" {
		mailer = &mail.SMTPMailer{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom, TokenTTL: cfg.LoginTokenTTL()}
	}

	rateLimiter := service.NewRateLimiter(redisClient)
	authService := service.NewAuthService(
		researcherRepo, loginTokenRepo, sessionRepo, rateLimiter, mailer, broker, cfg,
	)
	reservationService := service.NewReservationService(db, companyRepo, submissionRepo, cfg)
	draftStore := service.NewDraftStore(redisClient, cfg)
	researchService := service.NewResearchService(companyRepo, submissionRepo, reservationService, draftStore)
	keepAliveRunner := service.NewKeepAliveRunner(reservationService, broker, cfg.KeepAliveInterval())

	authMiddleware := middleware.NewAuthMiddleware(authService)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	authHandler := handler.NewAuthHandler(authService, authMiddleware, isProduction)
	reservationHandler := handler.NewReservationHandler(reservationService)
	researchHandler := handler.NewResearchHandler(researchService)
	eventsHandler := handler.NewEventsHandler(broker, keepAliveRunner)
	spaHandler := handler.NewSPAHandler("static")

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Mount("/", authHandler.Routes())
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)

		r.Route("/reserve", func(r chi.Router) {
			r.Mount("/", reservationHandler.Routes())
		})
		r.Route("/research", func(r chi.Router) {
			r.Mount("/", researchHandler.Routes())
		})
		r.Get("/events", eventsHandler.ServeHTTP)
	})

	r.Group(func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(authMiddleware.Optional)
		r.Get("/*", spaHandler.ServeHTTP)
	})

	cleanupJob := jobs.NewCleanupJob(
		sessionRepo, loginTokenRepo, companyRepo, broker, config.CleanupJobInterval,
	)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
