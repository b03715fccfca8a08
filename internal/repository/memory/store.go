// Package memory keeps users and tasks in process memory. It backs the
// STORE_DRIVER=memory mode and the HTTP and service tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/taskmanager/internal/domain"
	"github.com/vedran77/taskmanager/internal/repository"
)

type userRecord struct {
	user   domain.User
	avatar []byte
}

type taskRecord struct {
	task domain.Task
	seq  int
}

// Store holds both collections behind one lock so cross-collection reads
// see a consistent snapshot.
type Store struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*userRecord
	tasks map[uuid.UUID]*taskRecord
	seq   int
}

func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]*userRecord),
		tasks: make(map[uuid.UUID]*taskRecord),
	}
}

func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }
func (s *Store) Tasks() *TaskRepo { return &TaskRepo{s: s} }

type UserRepo struct {
	s *Store
}

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicateEmail
	}
	u := *user
	u.Tokens = slices.Clone(user.Tokens)
	u.HasAvatar = false
	r.s.users[u.ID] = &userRecord{user: u}
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.copyOf(r.s.users[id]), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.users {
		if rec.user.Email == email {
			return r.copyOf(rec), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) GetByToken(_ context.Context, id uuid.UUID, token string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.users[id]
	if !ok || !rec.user.HasToken(token) {
		return nil, nil
	}
	return r.copyOf(rec), nil
}

func (r *UserRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.users[user.ID]
	if !ok {
		return nil
	}
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicateEmail
	}
	rec.user.Name = user.Name
	rec.user.Age = user.Age
	rec.user.Email = user.Email
	rec.user.PasswordHash = user.PasswordHash
	rec.user.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	return nil
}

func (r *UserRepo) AddToken(_ context.Context, id uuid.UUID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec, ok := r.s.users[id]; ok {
		rec.user.Tokens = append(rec.user.Tokens, token)
	}
	return nil
}

func (r *UserRepo) RemoveToken(_ context.Context, id uuid.UUID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec, ok := r.s.users[id]; ok {
		rec.user.Tokens = slices.DeleteFunc(rec.user.Tokens, func(t string) bool { return t == token })
	}
	return nil
}

func (r *UserRepo) ClearTokens(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec, ok := r.s.users[id]; ok {
		rec.user.Tokens = nil
	}
	return nil
}

func (r *UserRepo) SetAvatar(_ context.Context, id uuid.UUID, avatar []byte) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec, ok := r.s.users[id]; ok {
		rec.avatar = slices.Clone(avatar)
		rec.user.HasAvatar = len(avatar) > 0
	}
	return nil
}

func (r *UserRepo) GetAvatar(_ context.Context, id uuid.UUID) ([]byte, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return slices.Clone(rec.avatar), nil
}

func (r *UserRepo) emailTaken(email string, except uuid.UUID) bool {
	for id, rec := range r.s.users {
		if id != except && rec.user.Email == email {
			return true
		}
	}
	return false
}

func (r *UserRepo) copyOf(rec *userRecord) *domain.User {
	if rec == nil {
		return nil
	}
	u := rec.user
	u.Tokens = slices.Clone(rec.user.Tokens)
	return &u
}

type TaskRepo struct {
	s *Store
}

var _ repository.TaskRepository = (*TaskRepo)(nil)

func (r *TaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	r.s.tasks[task.ID] = &taskRecord{task: *task, seq: r.s.seq}
	return nil
}

func (r *TaskRepo) GetByIDAndOwner(_ context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.tasks[id]
	if !ok || rec.task.OwnerID != ownerID {
		return nil, nil
	}
	t := rec.task
	return &t, nil
}

func (r *TaskRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, filter domain.TaskFilter) ([]domain.Task, error) {
	r.s.mu.RLock()
	var recs []taskRecord
	for _, rec := range r.s.tasks {
		if rec.task.OwnerID != ownerID {
			continue
		}
		if filter.Completed != nil && rec.task.Completed != *filter.Completed {
			continue
		}
		recs = append(recs, *rec)
	}
	r.s.mu.RUnlock()

	sort.SliceStable(recs, func(i, j int) bool {
		c := compareTasks(recs[i], recs[j], filter.SortField)
		if filter.SortDesc {
			return c > 0
		}
		return c < 0
	})

	if filter.Skip > 0 {
		if filter.Skip >= len(recs) {
			recs = nil
		} else {
			recs = recs[filter.Skip:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(recs) {
		recs = recs[:filter.Limit]
	}

	tasks := make([]domain.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, rec.task)
	}
	return tasks, nil
}

func (r *TaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec, ok := r.s.tasks[task.ID]; ok {
		rec.task.Description = task.Description
		rec.task.Completed = task.Completed
		rec.task.UpdatedAt = task.UpdatedAt
	}
	return nil
}

func (r *TaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tasks, id)
	return nil
}

func (r *TaskRepo) DeleteByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, rec := range r.s.tasks {
		if rec.task.OwnerID == ownerID {
			delete(r.s.tasks, id)
			n++
		}
	}
	return n, nil
}

// compareTasks orders by the requested field, falling back to insertion order.
func compareTasks(a, b taskRecord, field domain.TaskSortField) int {
	var c int
	switch field {
	case domain.TaskSortUpdatedAt:
		c = a.task.UpdatedAt.Compare(b.task.UpdatedAt)
	case domain.TaskSortDescription:
		c = strings.Compare(a.task.Description, b.task.Description)
	case domain.TaskSortCompleted:
		switch {
		case a.task.Completed == b.task.Completed:
		case b.task.Completed:
			c = -1
		default:
			c = 1
		}
	default:
		c = a.task.CreatedAt.Compare(b.task.CreatedAt)
	}
	if c != 0 {
		return c
	}
	switch {
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}
