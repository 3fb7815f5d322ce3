package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/atomity/research-server-go/internal/errors"
	"github.com/atomity/research-server-go/internal/sse"
)

// KeepAliveRunner refreshes one reservation on a fixed interval for as
// long as its context lives. Each tick is independent: a failed refresh
// is reported on the event stream and the runner simply waits for the
// next tick.
type KeepAliveRunner struct {
	reservations *ReservationService
	broker       *sse.Broker
	interval     time.Duration
}

func NewKeepAliveRunner(reservations *ReservationService, broker *sse.Broker, interval time.Duration) *KeepAliveRunner {
	return &KeepAliveRunner{
		reservations: reservations,
		broker:       broker,
		interval:     interval,
	}
}

type keepAliveStatus struct {
	CompanyKey string `json:"company_key"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Run blocks until ctx is cancelled. Callers start it in a goroutine
// tied to the SSE connection so closing the stream stops the timer.
func (r *KeepAliveRunner) Run(ctx context.Context, researcherID, companyKey string) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Debug().
		Str("researcherId", researcherID).
		Str("companyKey", companyKey).
		Msg("keep-alive runner started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().
				Str("researcherId", researcherID).
				Str("companyKey", companyKey).
				Msg("keep-alive runner stopped")
			return

		case <-ticker.C:
			r.tick(ctx, researcherID, companyKey)
		}
	}
}

func (r *KeepAliveRunner) tick(ctx context.Context, researcherID, companyKey string) {
	status := keepAliveStatus{CompanyKey: companyKey, Status: "ok"}

	if _, err := r.reservations.KeepAlive(ctx, researcherID, companyKey); err != nil {
		status.Status = "failed"
		status.Error = keepAliveErrorString(err)

		log.Warn().Err(err).
			Str("researcherId", researcherID).
			Str("companyKey", companyKey).
			Msg("keep-alive refresh failed")
	}

	if err := r.broker.PublishJSON(ctx, researcherID, sse.EventKeepAliveStatus, status); err != nil {
		log.Warn().Err(err).Msg("failed to publish keep-alive status")
	}
}

func keepAliveErrorString(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return "KEEP_ALIVE_FAILED"
}
