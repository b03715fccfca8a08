package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/taskmanager/internal/domain"
	"github.com/vedran77/taskmanager/internal/repository"
)

const uniqueViolation = "23505"

const userColumns = `
	u.id, u.name, u.age, u.email, u.password_hash, u.avatar IS NOT NULL,
	COALESCE((SELECT array_agg(t.token ORDER BY t.created_at) FROM user_tokens t WHERE t.user_id = u.id), '{}'),
	u.created_at, u.updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, age, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Name, user.Age, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	return mapError(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT"+userColumns+" FROM users u WHERE u.id = $1", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT"+userColumns+" FROM users u WHERE u.email = $1", email)
}

func (r *UserRepo) GetByToken(ctx context.Context, id uuid.UUID, token string) (*domain.User, error) {
	query := "SELECT" + userColumns + `
		FROM users u
		WHERE u.id = $1 AND EXISTS (SELECT 1 FROM user_tokens t WHERE t.user_id = u.id AND t.token = $2)`
	return r.scanUser(ctx, query, id, token)
}

func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET name = $1, age = $2, email = $3, password_hash = $4, updated_at = $5 WHERE id = $6`
	_, err := r.pool.Exec(ctx, query, user.Name, user.Age, user.Email, user.PasswordHash, user.UpdatedAt, user.ID)
	return mapError(err)
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *UserRepo) AddToken(ctx context.Context, id uuid.UUID, token string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_tokens (user_id, token, created_at) VALUES ($1, $2, now())`, id, token)
	return err
}

func (r *UserRepo) RemoveToken(ctx context.Context, id uuid.UUID, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_tokens WHERE user_id = $1 AND token = $2`, id, token)
	return err
}

func (r *UserRepo) ClearTokens(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_tokens WHERE user_id = $1`, id)
	return err
}

func (r *UserRepo) SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET avatar = $1, updated_at = now() WHERE id = $2`, avatar, id)
	return err
}

func (r *UserRepo) GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var avatar []byte
	err := r.pool.QueryRow(ctx, `SELECT avatar FROM users WHERE id = $1`, id).Scan(&avatar)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return avatar, err
}

func (r *UserRepo) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Name, &u.Age, &u.Email, &u.PasswordHash, &u.HasAvatar,
		&u.Tokens, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicateEmail
	}
	return err
}
