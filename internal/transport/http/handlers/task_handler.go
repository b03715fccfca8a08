package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/taskmanager/internal/domain"
	"github.com/vedran77/taskmanager/internal/service"
	"github.com/vedran77/taskmanager/internal/transport/http/middleware"
)

var taskUpdateFields = []string{"description", "completed"}

// sortFields accepts both the JSON spelling and the camelCase one clients
// tend to send.
var sortFields = map[string]domain.TaskSortField{
	"createdAt":   domain.TaskSortCreatedAt,
	"created_at":  domain.TaskSortCreatedAt,
	"updatedAt":   domain.TaskSortUpdatedAt,
	"updated_at":  domain.TaskSortUpdatedAt,
	"description": domain.TaskSortDescription,
	"completed":   domain.TaskSortCompleted,
}

type TaskHandler struct {
	taskService *service.TaskService
	logger      *zap.Logger
}

func NewTaskHandler(taskService *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateTaskInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, input)
	if err != nil {
		h.writeTaskError(w, "create task", err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// List handles GET /tasks?completed=true&limit=10&skip=10&sortBy=createdAt:desc
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	tasks, err := h.taskService.List(r.Context(), userID, parseTaskFilter(r.URL.Query()))
	if err != nil {
		h.writeTaskError(w, "list tasks", err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		h.writeTaskError(w, "get task", err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.UpdateTaskInput
	if err := decodeUpdate(r, taskUpdateFields, &input); err != nil {
		writeDecodeError(w, err)
		return
	}

	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, taskID, input)
	if err != nil {
		h.writeTaskError(w, "update task", err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Delete(r.Context(), userID, taskID)
	if err != nil {
		h.writeTaskError(w, "delete task", err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) writeTaskError(w http.ResponseWriter, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationErrors(w, verr.Fields)
	case errors.Is(err, service.ErrTaskNotFound):
		writeTaskNotFound(w)
	default:
		h.logger.Error(op, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

// parseTaskID treats a malformed ID like a missing task.
func parseTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeTaskNotFound(w)
		return uuid.Nil, false
	}
	return id, true
}

func writeTaskNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "No tasks found for the provided id")
}

func parseTaskFilter(q url.Values) domain.TaskFilter {
	var filter domain.TaskFilter

	switch q.Get("completed") {
	case "true":
		completed := true
		filter.Completed = &completed
	case "false":
		completed := false
		filter.Completed = &completed
	}

	filter.Limit = nonNegativeInt(q.Get("limit"))
	filter.Skip = nonNegativeInt(q.Get("skip"))

	if sortBy := q.Get("sortBy"); sortBy != "" {
		field, direction, _ := strings.Cut(sortBy, ":")
		if f, known := sortFields[field]; known {
			filter.SortField = f
			filter.SortDesc = direction == "desc"
		}
	}

	return filter
}

func nonNegativeInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
