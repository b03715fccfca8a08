package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/taskmanager/internal/domain"
	"github.com/vedran77/taskmanager/internal/repository"
	"github.com/vedran77/taskmanager/pkg/validator"
)

type TaskService struct {
	taskRepo repository.TaskRepository
	logger   *zap.Logger
	notifier TaskNotifier
}

func NewTaskService(taskRepo repository.TaskRepository, logger *zap.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *TaskService) SetNotifier(n TaskNotifier) {
	s.notifier = n
}

type CreateTaskInput struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type UpdateTaskInput struct {
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// Create always assigns ownerID, whatever owner the client sent.
func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*domain.Task, error) {
	description := strings.TrimSpace(input.Description)
	if err := validationError(validator.ValidateTask(description)); err != nil {
		return nil, err
	}

	now := time.Now()
	task := &domain.Task{
		ID:          uuid.New(),
		Description: description,
		Completed:   input.Completed,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	if s.notifier != nil {
		s.notifier.TaskCreated(task)
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID, filter domain.TaskFilter) ([]domain.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, ownerID, taskID uuid.UUID, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
		if err := validationError(validator.ValidateTask(task.Description)); err != nil {
			return nil, err
		}
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
	task.UpdatedAt = time.Now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}

	if s.notifier != nil {
		s.notifier.TaskUpdated(task)
	}
	return task, nil
}

// Delete removes the task and returns it as it was.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return nil, fmt.Errorf("deleting task: %w", err)
	}

	s.logger.Debug("task deleted", zap.Stringer("task_id", task.ID), zap.Stringer("owner_id", ownerID))

	if s.notifier != nil {
		s.notifier.TaskDeleted(task)
	}
	return task, nil
}
