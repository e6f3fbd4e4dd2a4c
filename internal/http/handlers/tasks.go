package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/envelope"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TasksRepo interface {
	List(ctx context.Context, ownerID string, filters task.ListTasksFilter) ([]task.Task, error)
	GetByID(ctx context.Context, ownerID, id string) (task.Task, error)
	Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error)
	Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type TasksHandler struct {
	repo TasksRepo
}

func NewTasksHandler(repo TasksRepo) *TasksHandler {
	return &TasksHandler{repo: repo}
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	filters := parseTaskFilters(ctx)

	if err := filters.Validate(); err != nil {
		RespondValidation(ctx, err.Error())
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	tasks, err := h.repo.List(cctx, ownerID, filters)
	if err != nil {
		respondStoreError(ctx, err, "Task not found", "Could not list tasks")
		return
	}

	ctx.JSON(http.StatusOK, envelope.List(len(tasks), gin.H{"tasks": tasks}))
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx, 2*time.Second)
	defer cancel()

	t, err := h.repo.GetByID(cctx, ownerID, ctx.Param("id"))
	if err != nil {
		respondStoreError(ctx, err, "Task not found", "Could not fetch task")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, envelope.Success(gin.H{"task": t}))
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	t, err := h.repo.Create(cctx, ownerID, req)
	if err != nil {
		respondStoreError(ctx, err, "Task not found", "Could not create task")
		return
	}

	ctx.JSON(http.StatusCreated, envelope.Success(gin.H{"task": t}))
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	t, err := h.repo.Update(cctx, ownerID, ctx.Param("id"), req)
	if err != nil {
		respondStoreError(ctx, err, "Task not found", "Could not update task")
		return
	}

	ctx.JSON(http.StatusOK, envelope.Success(gin.H{"task": t}))
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, ownerID, ctx.Param("id")); err != nil {
		respondStoreError(ctx, err, "Task not found", "Could not delete task")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// parseTaskFilters reads status, priority, project and tag; blank values
// mean no constraint.
func parseTaskFilters(ctx *gin.Context) task.ListTasksFilter {
	var filters task.ListTasksFilter

	if v := strings.TrimSpace(ctx.Query("status")); v != "" {
		s := task.Status(v)
		filters.Status = &s
	}

	if v := strings.TrimSpace(ctx.Query("priority")); v != "" {
		p := task.Priority(v)
		filters.Priority = &p
	}

	if v := strings.TrimSpace(ctx.Query("project")); v != "" {
		filters.ProjectID = &v
	}

	if v := strings.TrimSpace(ctx.Query("tag")); v != "" {
		filters.Tag = &v
	}

	return filters
}

func requireOwner(ctx *gin.Context) (string, bool) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return "", false
	}
	return ownerID, true
}
