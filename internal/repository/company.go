package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/atomity/research-server-go/internal/model"
)

// ExpiredReservation identifies a reservation swept by the cleanup job,
// so its former holder can be notified.
type ExpiredReservation struct {
	CompanyKey string  `db:"company_key"`
	ReservedBy *string `db:"reserved_by"`
}

type CompanyRepository interface {
	FindByKey(ctx context.Context, companyKey string) (*model.CompanyReservation, error)
	FindByNormalizedName(ctx context.Context, normalized string) (*model.CompanyReservation, error)
	LockByNormalizedName(ctx context.Context, normalized string) (*model.CompanyReservation, error)
	LockByName(ctx context.Context, name string) (*model.CompanyReservation, error)
	Create(ctx context.Context, params model.CreateReservationParams) (*model.CompanyReservation, error)
	Reclaim(ctx context.Context, companyKey, researcherID string, expiresAt time.Time) (*model.CompanyReservation, error)
	Refresh(ctx context.Context, companyKey, researcherID string, expiresAt time.Time) (bool, error)
	Release(ctx context.Context, companyKey, researcherID string) (bool, error)
	ActiveByResearcher(ctx context.Context, researcherID string) (*model.CompanyReservation, error)
	ExpireLapsed(ctx context.Context) ([]ExpiredReservation, error)
	// WithTx returns a repository bound to the given transaction
	WithTx(tx *sqlx.Tx) CompanyRepository
}

type companyDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type companyRepo struct {
	db companyDB
}

func NewCompanyRepository(db *sqlx.DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) WithTx(tx *sqlx.Tx) CompanyRepository {
	return &companyRepo{db: tx}
}

func (r *companyRepo) FindByKey(ctx context.Context, companyKey string) (*model.CompanyReservation, error) {
	var company model.CompanyReservation
	err := r.db.GetContext(ctx, &company, `
		SELECT * FROM company_registry WHERE company_key = $1
	`, companyKey)
	return HandleNotFound(&company, err)
}

func (r *companyRepo) FindByNormalizedName(ctx context.Context, normalized string) (*model.CompanyReservation, error) {
	var company model.CompanyReservation
	err := r.db.GetContext(ctx, &company, `
		SELECT * FROM company_registry WHERE company_name_normalized = $1
	`, normalized)
	return HandleNotFound(&company, err)
}

func (r *companyRepo) LockByNormalizedName(ctx context.Context, normalized string) (*model.CompanyReservation, error) {
	var company model.CompanyReservation
	err := r.db.GetContext(ctx, &company, `
		SELECT * FROM company_registry
		WHERE company_name_normalized = $1
		FOR UPDATE
	`, normalized)
	return HandleNotFound(&company, err)
}

func (r *companyRepo) LockByName(ctx context.Context, name string) (*model.CompanyReservation, error) {
	var company model.CompanyReservation
	err := r.db.GetContext(ctx, &company, `
		SELECT * FROM company_registry
		WHERE company_name = $1
		FOR UPDATE
	`, name)
	return HandleNotFound(&company, err)
}

func (r *companyRepo) Create(ctx context.Context, params model.CreateReservationParams) (*model.CompanyReservation, error) {
	var company model.CompanyReservation
	err := r.db.GetContext(ctx, &company, `
		INSERT INTO company_registry (
			company_key, company_name, company_name_normalized,
			reserved_by, reservation_status,
			reserved_at, last_activity_at, reservation_expires_at
		)
		VALUES ($1, $2, $3, $4, 'reserved', NOW(), NOW(), $5)
		RETURNING *
	`, params.CompanyKey, params.CompanyName, params.CompanyNameNormalized,
		params.ReservedBy, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// Reclaim takes over a lapsed row, keeping its company_key stable across
// holders.
func (r *companyRepo) Reclaim(ctx context.Context, companyKey, researcherID string, expiresAt time.Time) (*model.CompanyReservation, error) {
	var company model.CompanyReservation
	err := r.db.GetContext(ctx, &company, `
		UPDATE company_registry SET
			reserved_by = $2,
			reservation_status = 'reserved',
			reserved_at = NOW(),
			last_activity_at = NOW(),
			reservation_expires_at = $3
		WHERE company_key = $1
		RETURNING *
	`, companyKey, researcherID, expiresAt)
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// Refresh is the keep-alive write. It only touches a row still held by
// the caller; the returned bool is false when ownership was lost.
func (r *companyRepo) Refresh(ctx context.Context, companyKey, researcherID string, expiresAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE company_registry SET
			last_activity_at = NOW(),
			reservation_expires_at = $3
		WHERE company_key = $1
		AND reserved_by = $2
		AND reservation_status = 'reserved'
	`, companyKey, researcherID, expiresAt)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Release marks a held reservation as given up. Guarded the same way
// as Refresh.
func (r *companyRepo) Release(ctx context.Context, companyKey, researcherID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE company_registry SET
			reservation_status = 'released'
		WHERE company_key = $1
		AND reserved_by = $2
		AND reservation_status = 'reserved'
	`, companyKey, researcherID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *companyRepo) ActiveByResearcher(ctx context.Context, researcherID string) (*model.CompanyReservation, error) {
	var company model.CompanyReservation
	err := r.db.GetContext(ctx, &company, `
		SELECT * FROM company_registry
		WHERE reserved_by = $1
		AND reservation_status = 'reserved'
		AND reservation_expires_at > NOW()
		ORDER BY last_activity_at DESC
		LIMIT 1
	`, researcherID)
	return HandleNotFound(&company, err)
}

func (r *companyRepo) ExpireLapsed(ctx context.Context) ([]ExpiredReservation, error) {
	var expired []ExpiredReservation
	err := r.db.SelectContext(ctx, &expired, `
		UPDATE company_registry SET
			reservation_status = 'expired'
		WHERE reservation_status = 'reserved'
		AND reservation_expires_at < NOW()
		RETURNING company_key, reserved_by
	`)
	if err != nil {
		return nil, err
	}
	return expired, nil
}
