package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atomity/research-server-go/internal/repository"
	"github.com/atomity/research-server-go/internal/sse"
)

type CleanupJob struct {
	sessionRepo    repository.SessionRepository
	loginTokenRepo repository.LoginTokenRepository
	companyRepo    repository.CompanyRepository
	broker         *sse.Broker
	interval       time.Duration
	done           chan struct{}
}

func NewCleanupJob(
	sessionRepo repository.SessionRepository,
	loginTokenRepo repository.LoginTokenRepository,
	companyRepo repository.CompanyRepository,
	broker *sse.Broker,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo:    sessionRepo,
		loginTokenRepo: loginTokenRepo,
		companyRepo:    companyRepo,
		broker:         broker,
		interval:       interval,
		done:           make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "sessions", j.sessionRepo.DeleteExpired)
	j.runCleanup(ctx, "login tokens", j.loginTokenRepo.DeleteExpired)
	j.sweepReservations(ctx)
}

// sweepReservations marks lapsed reservations expired and tells their
// former holders over the event stream.
func (j *CleanupJob) sweepReservations(ctx context.Context) {
	expired, err := j.companyRepo.ExpireLapsed(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to expire lapsed reservations")
		return
	}
	if len(expired) == 0 {
		return
	}

	log.Info().Int("count", len(expired)).Msg("expired lapsed reservations")

	if j.broker == nil {
		return
	}
	for _, res := range expired {
		if res.ReservedBy == nil {
			continue
		}
		err := j.broker.PublishJSON(ctx, *res.ReservedBy, sse.EventReservationExpired, map[string]string{
			"company_key": res.CompanyKey,
		})
		if err != nil {
			log.Warn().Err(err).
				Str("companyKey", res.CompanyKey).
				Msg("failed to publish reservation expired event")
		}
	}
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
