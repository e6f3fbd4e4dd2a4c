package task

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ProjectRef is a lookup-only view of the project a task points at. It carries
// no ownership: deleting or missing the project just makes the reference dangle.
type ProjectRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      Status      `json:"status"`
	Priority    Priority    `json:"priority"`
	DueDate     *time.Time  `json:"dueDate"`
	ProjectID   *string     `json:"-"`
	Project     *ProjectRef `json:"project"`
	Tags        []string    `json:"tags"`
	OwnerID     string      `json:"owner"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

var (
	ErrNotFound        = errors.New("task not found")
	ErrInvalidTitle    = errors.New("title must not be empty")
	ErrInvalidStatus   = errors.New("status must be one of pending, in_progress, completed")
	ErrInvalidPriority = errors.New("priority must be one of low, medium, high")
	ErrProjectNotFound = errors.New("project not found")
)

// with pointers if optional, it will be nil
type ListTasksFilter struct {
	Status    *Status
	Priority  *Priority
	ProjectID *string
	Tag       *string
}

func (f ListTasksFilter) Validate() error {
	if f.Status != nil && !f.Status.IsValid() {
		return ErrInvalidStatus
	}
	if f.Priority != nil && !f.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return nil
}

// Matches reports whether t satisfies every set filter.
func (f ListTasksFilter) Matches(t Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.ProjectID != nil && (t.ProjectID == nil || *t.ProjectID != *f.ProjectID) {
		return false
	}
	if f.Tag != nil && !hasTag(t.Tags, *f.Tag) {
		return false
	}
	return true
}

type CreateTaskRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"omitempty,max=5000"`
	Status      Status   `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    Priority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     DueDate  `json:"dueDate,omitzero"`
	Project     *string  `json:"project" binding:"omitempty,uuid"`
	Tags        []string `json:"tags" binding:"omitempty,max=50,dive,max=50"`
}

// UpdateTaskRequest is a partial update. An empty Project clears the
// reference; a null or empty dueDate clears the date.
type UpdateTaskRequest struct {
	Title       *string   `json:"title" binding:"omitempty,max=200"`
	Description *string   `json:"description" binding:"omitempty,max=5000"`
	Status      *Status   `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *Priority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     DueDate   `json:"dueDate,omitzero"`
	Project     *string   `json:"project" binding:"omitempty,uuid"`
	Tags        *[]string `json:"tags" binding:"omitempty,max=50"`
}

// ProjectChange reports whether the patch touches the project reference and,
// if so, the new value (nil meaning "clear").
func (req UpdateTaskRequest) ProjectChange() (changed bool, projectID *string) {
	if req.Project == nil {
		return false, nil
	}
	id := strings.TrimSpace(*req.Project)
	if id == "" {
		return true, nil
	}
	return true, &id
}

func NewFromCreateRequest(ownerID string, req CreateTaskRequest) (Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return Task{}, ErrInvalidTitle
	}

	status := req.Status
	if status == "" {
		status = StatusPending
	}
	if !status.IsValid() {
		return Task{}, ErrInvalidStatus
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return Task{}, ErrInvalidPriority
	}

	var projectID *string
	if req.Project != nil {
		if id := strings.TrimSpace(*req.Project); id != "" {
			projectID = &id
		}
	}

	now := time.Now().UTC()

	return Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     utcPtr(req.DueDate.Time),
		ProjectID:   projectID,
		Tags:        NormalizeTags(req.Tags),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Apply validates the patch and writes it onto t. The project reference is
// handled by the caller, which has to check it against the owner's projects.
func (req UpdateTaskRequest) Apply(t *Task) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return ErrInvalidTitle
		}
		t.Title = title
	}

	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			return ErrInvalidStatus
		}
		t.Status = *req.Status
	}

	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return ErrInvalidPriority
		}
		t.Priority = *req.Priority
	}

	if req.DueDate.Set {
		t.DueDate = utcPtr(req.DueDate.Time)
	}

	if req.Tags != nil {
		t.Tags = NormalizeTags(*req.Tags)
	}

	if changed, projectID := req.ProjectChange(); changed {
		t.ProjectID = projectID
		t.Project = nil
	}

	t.UpdatedAt = time.Now().UTC()

	return nil
}

// NormalizeTags trims tags and drops empties and duplicates, keeping the first
// occurrence's position.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))

	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
