package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/taskmanager/internal/domain"
)

// Mailer delivers transactional account emails.
type Mailer interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendCancellation(ctx context.Context, email, name string) error
}

// TaskNotifier pushes task changes to the owner's live connections.
type TaskNotifier interface {
	TaskCreated(task *domain.Task)
	TaskUpdated(task *domain.Task)
	TaskDeleted(task *domain.Task)
}

// SessionCloser ends live connections that were opened with a token once
// it is revoked. An empty token means every session of the user.
type SessionCloser interface {
	CloseSessions(userID uuid.UUID, token string)
}

// SessionCache remembers which user a token belongs to so authentication
// can skip the token-set lookup. Entries must be dropped whenever the token
// leaves the user's set.
type SessionCache interface {
	Lookup(ctx context.Context, token string) (uuid.UUID, bool, error)
	Store(ctx context.Context, token string, userID uuid.UUID) error
	Forget(ctx context.Context, token string) error
	ForgetUser(ctx context.Context, userID uuid.UUID) error
}

type noopSessions struct{}

func (noopSessions) Lookup(context.Context, string) (uuid.UUID, bool, error) {
	return uuid.Nil, false, nil
}
func (noopSessions) Store(context.Context, string, uuid.UUID) error { return nil }
func (noopSessions) Forget(context.Context, string) error           { return nil }
func (noopSessions) ForgetUser(context.Context, uuid.UUID) error    { return nil }
