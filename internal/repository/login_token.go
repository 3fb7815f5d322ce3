package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atomity/research-server-go/internal/model"
)

type LoginTokenRepository interface {
	FindActiveByTokenHash(ctx context.Context, tokenHash string) (*model.LoginToken, error)
	Create(ctx context.Context, params model.CreateLoginTokenParams) (*model.LoginToken, error)
	MarkUsed(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type loginTokenDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type loginTokenRepo struct {
	db loginTokenDB
}

func NewLoginTokenRepository(db *sqlx.DB) LoginTokenRepository {
	return &loginTokenRepo{db: db}
}

func (r *loginTokenRepo) FindActiveByTokenHash(ctx context.Context, tokenHash string) (*model.LoginToken, error) {
	var token model.LoginToken
	err := r.db.GetContext(ctx, &token, `
		SELECT * FROM login_tokens
		WHERE token_hash = $1
		AND used_at IS NULL
		AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&token, err)
}

func (r *loginTokenRepo) Create(ctx context.Context, params model.CreateLoginTokenParams) (*model.LoginToken, error) {
	var token model.LoginToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO login_tokens (id, email, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, uuid.NewString(), params.Email, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *loginTokenRepo) MarkUsed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE login_tokens SET used_at = $2 WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *loginTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM login_tokens
		WHERE expires_at < NOW() OR used_at IS NOT NULL
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
