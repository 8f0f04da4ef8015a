package repository

import (
	"context"
	"errors"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetEmailVerified(ctx context.Context, id string) error
	SetPasswordHash(ctx context.Context, id, hash string) error
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, email, name, password_hash, role, email_verified, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.EmailVerified, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.QueryRow(ctx, `INSERT INTO users (id, email, name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role).
		Scan(&user.CreatedAt)
}

func (r *PGUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *PGUserRepository) SetEmailVerified(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET email_verified=true WHERE id=$1`, id)
	return err
}

func (r *PGUserRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ UserRepository = (*PGUserRepository)(nil)
