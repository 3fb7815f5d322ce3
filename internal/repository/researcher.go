package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/atomity/research-server-go/internal/model"
)

type ResearcherRepository interface {
	FindByID(ctx context.Context, id string) (*model.Researcher, error)
	FindByEmail(ctx context.Context, email string) (*model.Researcher, error)
	FindOrCreateByEmail(ctx context.Context, email string) (*model.Researcher, error)
}

type researcherDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type researcherRepo struct {
	db researcherDB
}

func NewResearcherRepository(db *sqlx.DB) ResearcherRepository {
	return &researcherRepo{db: db}
}

func (r *researcherRepo) FindByID(ctx context.Context, id string) (*model.Researcher, error) {
	var researcher model.Researcher
	err := r.db.GetContext(ctx, &researcher, `
		SELECT * FROM researchers WHERE id = $1
	`, id)
	return HandleNotFound(&researcher, err)
}

func (r *researcherRepo) FindByEmail(ctx context.Context, email string) (*model.Researcher, error) {
	var researcher model.Researcher
	err := r.db.GetContext(ctx, &researcher, `
		SELECT * FROM researchers WHERE email = $1
	`, email)
	return HandleNotFound(&researcher, err)
}

func (r *researcherRepo) FindOrCreateByEmail(ctx context.Context, email string) (*model.Researcher, error) {
	var researcher model.Researcher
	err := r.db.GetContext(ctx, &researcher, `
		INSERT INTO researchers (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING *
	`, email)
	if err != nil {
		return nil, err
	}
	return &researcher, nil
}
