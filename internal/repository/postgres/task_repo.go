package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/taskmanager/internal/domain"
)

const taskColumns = `id, description, completed, owner_id, created_at, updated_at`

// sortColumns whitelists ORDER BY targets; the filter value never reaches SQL directly.
var sortColumns = map[domain.TaskSortField]string{
	domain.TaskSortCreatedAt:   "created_at",
	domain.TaskSortUpdatedAt:   "updated_at",
	domain.TaskSortDescription: "description",
	domain.TaskSortCompleted:   "completed",
}

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, description, completed, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		task.ID, task.Description, task.Completed, task.OwnerID, task.CreatedAt, task.UpdatedAt,
	)
	return err
}

func (r *TaskRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`

	var t domain.Task
	err := r.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&t.ID, &t.Description, &t.Completed, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter domain.TaskFilter) ([]domain.Task, error) {
	var sb strings.Builder
	args := []any{ownerID}

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		fmt.Fprintf(&sb, " AND completed = $%d", len(args))
	}

	order := "created_at"
	if col, ok := sortColumns[filter.SortField]; ok {
		order = col
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	// id breaks ties so pagination is stable
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", order, direction, direction)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Skip > 0 {
		args = append(args, filter.Skip)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Description, &t.Completed, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, task *domain.Task) error {
	query := `UPDATE tasks SET description = $1, completed = $2, updated_at = $3 WHERE id = $4`
	_, err := r.pool.Exec(ctx, query, task.Description, task.Completed, task.UpdatedAt, task.ID)
	return err
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *TaskRepo) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
