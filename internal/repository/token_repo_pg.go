package repository

import (
	"context"
	"errors"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRepository interface {
	Create(ctx context.Context, token *domain.VerificationToken) error
	Redeem(ctx context.Context, tokenHash string, tokenType domain.TokenType, now time.Time) (*domain.VerificationToken, error)
}

type PGTokenRepository struct {
	db *pgxpool.Pool
}

func NewTokenRepository(db *pgxpool.Pool) TokenRepository {
	return &PGTokenRepository{db: db}
}

func (r *PGTokenRepository) Create(ctx context.Context, token *domain.VerificationToken) error {
	return r.db.QueryRow(ctx, `INSERT INTO verification_tokens (user_id, email, token_hash, type, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		token.UserID, token.Email, token.TokenHash, token.Type, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
}

// Redeem is the whole check-then-act in one conditional update: the token is
// marked used only if it matches, is unused, and has not expired. A second
// redemption of the same token matches zero rows.
func (r *PGTokenRepository) Redeem(ctx context.Context, tokenHash string, tokenType domain.TokenType, now time.Time) (*domain.VerificationToken, error) {
	row := r.db.QueryRow(ctx, `UPDATE verification_tokens
		SET used_at=$1
		WHERE token_hash=$2 AND type=$3 AND used_at IS NULL AND expires_at > $1
		RETURNING id, user_id, email, token_hash, type, expires_at, used_at, created_at`,
		now, tokenHash, tokenType)

	var t domain.VerificationToken
	if err := row.Scan(&t.ID, &t.UserID, &t.Email, &t.TokenHash, &t.Type, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return &t, nil
}

var _ TokenRepository = (*PGTokenRepository)(nil)
