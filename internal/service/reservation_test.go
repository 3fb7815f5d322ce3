package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomity/research-server-go/internal/config"
	"github.com/atomity/research-server-go/internal/database"
	apperrors "github.com/atomity/research-server-go/internal/errors"
	"github.com/atomity/research-server-go/internal/model"
	"github.com/atomity/research-server-go/internal/repository"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type fakeCompanyRepo struct {
	findByKey            func(ctx context.Context, companyKey string) (*model.CompanyReservation, error)
	findByNormalizedName func(ctx context.Context, normalized string) (*model.CompanyReservation, error)
	lockByNormalizedName func(ctx context.Context, normalized string) (*model.CompanyReservation, error)
	lockByName           func(ctx context.Context, name string) (*model.CompanyReservation, error)
	create               func(ctx context.Context, params model.CreateReservationParams) (*model.CompanyReservation, error)
	reclaim              func(ctx context.Context, companyKey, researcherID string, expiresAt time.Time) (*model.CompanyReservation, error)
	refresh              func(ctx context.Context, companyKey, researcherID string, expiresAt time.Time) (bool, error)
	release              func(ctx context.Context, companyKey, researcherID string) (bool, error)
	activeByResearcher   func(ctx context.Context, researcherID string) (*model.CompanyReservation, error)
	expireLapsed         func(ctx context.Context) ([]repository.ExpiredReservation, error)
}

func (f *fakeCompanyRepo) FindByKey(ctx context.Context, companyKey string) (*model.CompanyReservation, error) {
	return f.findByKey(ctx, companyKey)
}

func (f *fakeCompanyRepo) FindByNormalizedName(ctx context.Context, normalized string) (*model.CompanyReservation, error) {
	return f.findByNormalizedName(ctx, normalized)
}

func (f *fakeCompanyRepo) LockByNormalizedName(ctx context.Context, normalized string) (*model.CompanyReservation, error) {
	return f.lockByNormalizedName(ctx, normalized)
}

func (f *fakeCompanyRepo) LockByName(ctx context.Context, name string) (*model.CompanyReservation, error) {
	return f.lockByName(ctx, name)
}

func (f *fakeCompanyRepo) Create(ctx context.Context, params model.CreateReservationParams) (*model.CompanyReservation, error) {
	return f.create(ctx, params)
}

func (f *fakeCompanyRepo) Reclaim(ctx context.Context, companyKey, researcherID string, expiresAt time.Time) (*model.CompanyReservation, error) {
	return f.reclaim(ctx, companyKey, researcherID, expiresAt)
}

func (f *fakeCompanyRepo) Refresh(ctx context.Context, companyKey, researcherID string, expiresAt time.Time) (bool, error) {
	return f.refresh(ctx, companyKey, researcherID, expiresAt)
}

func (f *fakeCompanyRepo) Release(ctx context.Context, companyKey, researcherID string) (bool, error) {
	return f.release(ctx, companyKey, researcherID)
}

func (f *fakeCompanyRepo) ActiveByResearcher(ctx context.Context, researcherID string) (*model.CompanyReservation, error) {
	return f.activeByResearcher(ctx, researcherID)
}

func (f *fakeCompanyRepo) ExpireLapsed(ctx context.Context) ([]repository.ExpiredReservation, error) {
	return f.expireLapsed(ctx)
}

func (f *fakeCompanyRepo) WithTx(_ *sqlx.Tx) repository.CompanyRepository { return f }

type fakeSubmissionRepo struct {
	findByKey func(ctx context.Context, companyKey string) (*model.ResearchSubmission, error)
	upsert    func(ctx context.Context, s *model.ResearchSubmission) (*model.ResearchSubmission, error)
}

func (f *fakeSubmissionRepo) FindByKey(ctx context.Context, companyKey string) (*model.ResearchSubmission, error) {
	return f.findByKey(ctx, companyKey)
}

func (f *fakeSubmissionRepo) Upsert(ctx context.Context, s *model.ResearchSubmission) (*model.ResearchSubmission, error) {
	return f.upsert(ctx, s)
}

func (f *fakeSubmissionRepo) WithTx(_ *sqlx.Tx) repository.SubmissionRepository { return f }

func noSubmission() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{
		findByKey: func(context.Context, string) (*model.ResearchSubmission, error) {
			return nil, nil
		},
	}
}

func newTestReservationService(companies *fakeCompanyRepo, submissions *fakeSubmissionRepo) *ReservationService {
	cfg := &config.Config{ReservationWindowHours: 24}
	return NewReservationService(fakeTxRunner{}, companies, submissions, cfg)
}

func heldReservation(companyKey, researcherID string, expiresAt time.Time) *model.CompanyReservation {
	return &model.CompanyReservation{
		CompanyKey:            companyKey,
		CompanyName:           "Acme Inc.",
		CompanyNameNormalized: "acme",
		ReservedBy:            &researcherID,
		ReservationStatus:     model.ReservationStatusReserved,
		ReservedAt:            time.Now().Add(-time.Hour),
		LastActivityAt:        time.Now().Add(-time.Minute),
		ReservationExpiresAt:  expiresAt,
	}
}

func TestReservationServiceReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a fresh reservation", func(t *testing.T) {
		var created model.CreateReservationParams
		companies := &fakeCompanyRepo{
			lockByNormalizedName: func(context.Context, string) (*model.CompanyReservation, error) {
				return nil, nil
			},
			lockByName: func(context.Context, string) (*model.CompanyReservation, error) {
				return nil, nil
			},
			create: func(_ context.Context, params model.CreateReservationParams) (*model.CompanyReservation, error) {
				created = params
				return heldReservation(params.CompanyKey, params.ReservedBy, params.ExpiresAt), nil
			},
		}
		svc := newTestReservationService(companies, noSubmission())

		result, err := svc.Reserve(ctx, "researcher-1", "Acme Inc.")
		require.NoError(t, err)
		assert.False(t, result.Resumed)
		assert.Equal(t, "acme", created.CompanyNameNormalized)
		assert.Equal(t, "Acme Inc.", created.CompanyName)
		assert.Equal(t, "researcher-1", created.ReservedBy)
		assert.True(t, result.Reservation.HeldBy("researcher-1"))
	})

	t.Run("rejects a company held by another researcher", func(t *testing.T) {
		companies := &fakeCompanyRepo{
			lockByNormalizedName: func(context.Context, string) (*model.CompanyReservation, error) {
				return heldReservation("acme-x1", "researcher-2", time.Now().Add(12*time.Hour)), nil
			},
		}
		svc := newTestReservationService(companies, noSubmission())

		_, err := svc.Reserve(ctx, "researcher-1", "Acme Inc.")
		assert.Equal(t, apperrors.ErrCodeCompanyReserved, apperrors.GetCode(err))
	})

	t.Run("resumes the caller's own active reservation", func(t *testing.T) {
		var reclaimedKey string
		companies := &fakeCompanyRepo{
			lockByNormalizedName: func(context.Context, string) (*model.CompanyReservation, error) {
				return heldReservation("acme-x1", "researcher-1", time.Now().Add(12*time.Hour)), nil
			},
			reclaim: func(_ context.Context, companyKey, researcherID string, expiresAt time.Time) (*model.CompanyReservation, error) {
				reclaimedKey = companyKey
				return heldReservation(companyKey, researcherID, expiresAt), nil
			},
		}
		svc := newTestReservationService(companies, noSubmission())

		result, err := svc.Reserve(ctx, "researcher-1", "Acme Inc.")
		require.NoError(t, err)
		assert.True(t, result.Resumed)
		assert.Equal(t, "acme-x1", reclaimedKey)
		assert.Equal(t, "acme-x1", result.Reservation.CompanyKey)
	})

	t.Run("reclaims a lapsed reservation for a new holder", func(t *testing.T) {
		companies := &fakeCompanyRepo{
			lockByNormalizedName: func(context.Context, string) (*model.CompanyReservation, error) {
				return heldReservation("acme-x1", "researcher-2", time.Now().Add(-time.Hour)), nil
			},
			reclaim: func(_ context.Context, companyKey, researcherID string, expiresAt time.Time) (*model.CompanyReservation, error) {
				return heldReservation(companyKey, researcherID, expiresAt), nil
			},
		}
		svc := newTestReservationService(companies, noSubmission())

		result, err := svc.Reserve(ctx, "researcher-1", "Acme Inc.")
		require.NoError(t, err)
		assert.False(t, result.Resumed)
		assert.Equal(t, "acme-x1", result.Reservation.CompanyKey)
		assert.True(t, result.Reservation.HeldBy("researcher-1"))
	})

	t.Run("rejects companies with a finished submission", func(t *testing.T) {
		companies := &fakeCompanyRepo{
			lockByNormalizedName: func(context.Context, string) (*model.CompanyReservation, error) {
				return heldReservation("acme-x1", "researcher-2", time.Now().Add(-time.Hour)), nil
			},
		}
		submissions := &fakeSubmissionRepo{
			findByKey: func(context.Context, string) (*model.ResearchSubmission, error) {
				return &model.ResearchSubmission{CompanyKey: "acme-x1"}, nil
			},
		}
		svc := newTestReservationService(companies, submissions)

		_, err := svc.Reserve(ctx, "researcher-1", "Acme Inc.")
		assert.Equal(t, apperrors.ErrCodeResearchComplete, apperrors.GetCode(err))
	})

	t.Run("maps a create race to the reserved error", func(t *testing.T) {
		companies := &fakeCompanyRepo{
			lockByNormalizedName: func(context.Context, string) (*model.CompanyReservation, error) {
				return nil, nil
			},
			lockByName: func(context.Context, string) (*model.CompanyReservation, error) {
				return nil, nil
			},
			create: func(context.Context, model.CreateReservationParams) (*model.CompanyReservation, error) {
				return nil, &pq.Error{Code: "23505"}
			},
		}
		svc := newTestReservationService(companies, noSubmission())

		_, err := svc.Reserve(ctx, "researcher-1", "Acme Inc.")
		assert.Equal(t, apperrors.ErrCodeCompanyReserved, apperrors.GetCode(err))
	})

	t.Run("falls back to the raw name for pre-normalization rows", func(t *testing.T) {
		var lockedName string
		companies := &fakeCompanyRepo{
			lockByNormalizedName: func(context.Context, string) (*model.CompanyReservation, error) {
				return nil, nil
			},
			lockByName: func(_ context.Context, name string) (*model.CompanyReservation, error) {
				lockedName = name
				return heldReservation("acme-x1", "researcher-2", time.Now().Add(12*time.Hour)), nil
			},
		}
		svc := newTestReservationService(companies, noSubmission())

		_, err := svc.Reserve(ctx, "researcher-1", "  Acme Inc.  ")
		assert.Equal(t, "Acme Inc.", lockedName)
		assert.Equal(t, apperrors.ErrCodeCompanyReserved, apperrors.GetCode(err))
	})

	t.Run("rejects empty company names", func(t *testing.T) {
		svc := newTestReservationService(&fakeCompanyRepo{}, noSubmission())

		_, err := svc.Reserve(ctx, "researcher-1", "   ")
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})
}
