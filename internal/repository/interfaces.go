package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/taskmanager/internal/domain"
)

// ErrDuplicateEmail is returned when a user insert or update collides with
// the unique email constraint.
var ErrDuplicateEmail = errors.New("email already exists")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByToken returns the user only if token is in their active set.
	GetByToken(ctx context.Context, id uuid.UUID, token string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddToken(ctx context.Context, id uuid.UUID, token string) error
	RemoveToken(ctx context.Context, id uuid.UUID, token string) error
	ClearTokens(ctx context.Context, id uuid.UUID) error
	SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error
	GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter domain.TaskFilter) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}
