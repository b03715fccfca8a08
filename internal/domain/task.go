package domain

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskSortField names a column tasks can be ordered by.
type TaskSortField string

const (
	TaskSortCreatedAt   TaskSortField = "created_at"
	TaskSortUpdatedAt   TaskSortField = "updated_at"
	TaskSortDescription TaskSortField = "description"
	TaskSortCompleted   TaskSortField = "completed"
)

// TaskFilter narrows an owner's task list. Zero Limit and Skip mean no
// pagination; an empty SortField keeps creation order.
type TaskFilter struct {
	Completed *bool
	Limit     int
	Skip      int
	SortField TaskSortField
	SortDesc  bool
}
