package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/atomity/research-server-go/internal/config"
	"github.com/atomity/research-server-go/internal/database"
	apperrors "github.com/atomity/research-server-go/internal/errors"
	"github.com/atomity/research-server-go/internal/model"
	"github.com/atomity/research-server-go/internal/normalize"
	"github.com/atomity/research-server-go/internal/repository"
)

type ReserveResult struct {
	Reservation *model.CompanyReservation `json:"reservation"`
	Resumed     bool                      `json:"resumed"`
}

// txRunner runs a function inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type ReservationService struct {
	db             txRunner
	companyRepo    repository.CompanyRepository
	submissionRepo repository.SubmissionRepository
	window         time.Duration
}

func NewReservationService(
	db txRunner,
	companyRepo repository.CompanyRepository,
	submissionRepo repository.SubmissionRepository,
	cfg *config.Config,
) *ReservationService {
	return &ReservationService{
		db:             db,
		companyRepo:    companyRepo,
		submissionRepo: submissionRepo,
		window:         cfg.ReservationWindow(),
	}
}

// Reserve claims a company for one researcher. Names that normalize to
// the same string are the same company: the claim locks the normalized
// row, and the unique index on company_name_normalized backstops any
// race between two first-time claims.
func (s *ReservationService) Reserve(ctx context.Context, researcherID, companyName string) (*ReserveResult, error) {
	normalized := normalize.CompanyName(companyName)
	if normalized == "" {
		return nil, apperrors.InvalidInput("company_name", "must not be empty")
	}

	var result ReserveResult
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		companies := s.companyRepo.WithTx(tx)
		now := time.Now()

		existing, err := companies.LockByNormalizedName(ctx, normalized)
		if err != nil {
			return fmt.Errorf("lock company row: %w", err)
		}
		if existing == nil {
			// Rows created before normalization only match on the raw name.
			existing, err = companies.LockByName(ctx, strings.TrimSpace(companyName))
			if err != nil {
				return fmt.Errorf("lock company row by name: %w", err)
			}
		}

		if existing != nil {
			submission, err := s.submissionRepo.WithTx(tx).FindByKey(ctx, existing.CompanyKey)
			if err != nil {
				return fmt.Errorf("check submission: %w", err)
			}
			if submission != nil {
				return apperrors.ResearchComplete()
			}

			if existing.ActiveAt(now) {
				if !existing.HeldBy(researcherID) {
					return apperrors.CompanyReserved()
				}
				refreshed, err := companies.Reclaim(ctx, existing.CompanyKey, researcherID, now.Add(s.window))
				if err != nil {
					return fmt.Errorf("refresh reservation: %w", err)
				}
				result = ReserveResult{Reservation: refreshed, Resumed: true}
				return nil
			}

			reclaimed, err := companies.Reclaim(ctx, existing.CompanyKey, researcherID, now.Add(s.window))
			if err != nil {
				return fmt.Errorf("reclaim lapsed reservation: %w", err)
			}
			result = ReserveResult{Reservation: reclaimed, Resumed: existing.HeldBy(researcherID)}
			return nil
		}

		created, err := companies.Create(ctx, model.CreateReservationParams{
			CompanyKey:            normalize.CompanyKey(normalized),
			CompanyName:           companyName,
			CompanyNameNormalized: normalized,
			ReservedBy:            researcherID,
			ExpiresAt:             now.Add(s.window),
		})
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return apperrors.CompanyReserved()
			}
			return fmt.Errorf("create reservation: %w", err)
		}
		result = ReserveResult{Reservation: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("researcherId", researcherID).
		Str("companyKey", result.Reservation.CompanyKey).
		Bool("resumed", result.Resumed).
		Msg("company reserved")

	return &result, nil
}

// KeepAlive extends a held reservation by the full window. It fails
// loudly when the caller no longer holds the company, so the client can
// stop its timer and surface the loss.
func (s *ReservationService) KeepAlive(ctx context.Context, researcherID, companyKey string) (*model.CompanyReservation, error) {
	ok, err := s.companyRepo.Refresh(ctx, companyKey, researcherID, time.Now().Add(s.window))
	if err != nil {
		return nil, fmt.Errorf("refresh reservation: %w", err)
	}
	if !ok {
		return nil, s.accessError(ctx, researcherID, companyKey)
	}

	reservation, err := s.companyRepo.FindByKey(ctx, companyKey)
	if err != nil {
		return nil, fmt.Errorf("reload reservation: %w", err)
	}
	if reservation == nil {
		return nil, apperrors.NotFound("Company")
	}
	return reservation, nil
}

// Current returns the researcher's active reservation, or nil when they
// hold none.
func (s *ReservationService) Current(ctx context.Context, researcherID string) (*model.CompanyReservation, error) {
	return s.companyRepo.ActiveByResearcher(ctx, researcherID)
}

// Release voluntarily gives the company up so others can claim it.
func (s *ReservationService) Release(ctx context.Context, researcherID, companyKey string) error {
	ok, err := s.companyRepo.Release(ctx, companyKey, researcherID)
	if err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	if !ok {
		return s.accessError(ctx, researcherID, companyKey)
	}

	log.Info().
		Str("researcherId", researcherID).
		Str("companyKey", companyKey).
		Msg("reservation released")

	return nil
}

// CheckAccess verifies that researcherID may work on companyKey right
// now. It returns the reservation on success and a lifecycle error
// otherwise.
func (s *ReservationService) CheckAccess(ctx context.Context, researcherID, companyKey string) (*model.CompanyReservation, error) {
	reservation, err := s.companyRepo.FindByKey(ctx, companyKey)
	if err != nil {
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	if reservation == nil {
		return nil, apperrors.NotFound("Company")
	}

	switch reservation.AccessFor(researcherID, time.Now()) {
	case model.AccessGranted:
		return reservation, nil
	case model.AccessTakenByOther:
		return nil, apperrors.ReservationNotHeld()
	case model.AccessNotActive:
		return nil, apperrors.ReservationNotActive()
	default:
		return nil, apperrors.ReservationExpired()
	}
}

// accessError recomputes the precise failure reason after a guarded
// write matched no rows.
func (s *ReservationService) accessError(ctx context.Context, researcherID, companyKey string) error {
	reservation, err := s.companyRepo.FindByKey(ctx, companyKey)
	if err != nil {
		return fmt.Errorf("find reservation: %w", err)
	}
	if reservation == nil {
		return apperrors.NotFound("Company")
	}

	switch reservation.AccessFor(researcherID, time.Now()) {
	case model.AccessTakenByOther:
		return apperrors.ReservationNotHeld()
	case model.AccessNotActive:
		return apperrors.ReservationNotActive()
	case model.AccessExpired:
		return apperrors.ReservationExpired()
	default:
		return apperrors.ReservationNotActive()
	}
}
