package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/envelope"
	"github.com/gin-gonic/gin"
)

type ProjectsRepo interface {
	List(ctx context.Context, ownerID string) ([]project.Project, error)
	GetByID(ctx context.Context, ownerID, id string) (project.Project, error)
	Create(ctx context.Context, ownerID string, req project.CreateProjectRequest) (project.Project, error)
	Update(ctx context.Context, ownerID, id string, req project.UpdateProjectRequest) (project.Project, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type TaskLister interface {
	List(ctx context.Context, ownerID string, filters task.ListTasksFilter) ([]task.Task, error)
}

type ProjectsHandler struct {
	repo  ProjectsRepo
	tasks TaskLister
}

func NewProjectsHandler(repo ProjectsRepo, tasks TaskLister) *ProjectsHandler {
	return &ProjectsHandler{repo: repo, tasks: tasks}
}

func (h *ProjectsHandler) ListProjects(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	projects, err := h.repo.List(cctx, ownerID)
	if err != nil {
		respondStoreError(ctx, err, "Project not found", "Could not list projects")
		return
	}

	ctx.JSON(http.StatusOK, envelope.List(len(projects), gin.H{"projects": projects}))
}

func (h *ProjectsHandler) GetProject(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx, 2*time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, ownerID, ctx.Param("id"))
	if err != nil {
		respondStoreError(ctx, err, "Project not found", "Could not fetch project")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, envelope.Success(gin.H{"project": p}))
}

func (h *ProjectsHandler) CreateProject(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	var req project.CreateProjectRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	p, err := h.repo.Create(cctx, ownerID, req)
	if err != nil {
		respondStoreError(ctx, err, "Project not found", "Could not create project")
		return
	}

	ctx.JSON(http.StatusCreated, envelope.Success(gin.H{"project": p}))
}

func (h *ProjectsHandler) UpdateProject(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	var req project.UpdateProjectRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	p, err := h.repo.Update(cctx, ownerID, ctx.Param("id"), req)
	if err != nil {
		respondStoreError(ctx, err, "Project not found", "Could not update project")
		return
	}

	ctx.JSON(http.StatusOK, envelope.Success(gin.H{"project": p}))
}

// DeleteProject removes the project and its tasks; success is only reported
// once the cascade has finished.
func (h *ProjectsHandler) DeleteProject(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx, 5*time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, ownerID, ctx.Param("id")); err != nil {
		respondStoreError(ctx, err, "Project not found", "Could not delete project")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ProjectsHandler) ProjectTasks(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, ownerID, ctx.Param("id"))
	if err != nil {
		respondStoreError(ctx, err, "Project not found", "Could not fetch project")
		return
	}

	tasks, err := h.tasks.List(cctx, ownerID, task.ListTasksFilter{ProjectID: &p.ID})
	if err != nil {
		respondStoreError(ctx, err, "Project not found", "Could not list tasks")
		return
	}

	ctx.JSON(http.StatusOK, envelope.List(len(tasks), gin.H{"tasks": tasks}))
}
