package memory

import (
	"context"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

type TasksRepo struct {
	s *Store
}

func (r *TasksRepo) List(ctx context.Context, ownerID string, filters task.ListTasksFilter) ([]task.Task, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]task.Task, 0)
	for _, t := range r.s.tasks {
		if t.OwnerID != ownerID || !filters.Matches(t) {
			continue
		}
		out = append(out, r.s.populate(t))
	}

	newestFirst(out,
		func(t task.Task) time.Time { return t.CreatedAt },
		func(t task.Task) string { return t.ID },
	)

	return out, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, ownerID, id string) (task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, err := r.s.ownedTask(ownerID, id)
	if err != nil {
		return task.Task{}, err
	}

	return r.s.populate(t), nil
}

func (r *TasksRepo) Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
	t, err := task.NewFromCreateRequest(ownerID, req)
	if err != nil {
		return task.Task{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkProjectRef(ownerID, t.ProjectID); err != nil {
		return task.Task{}, err
	}

	r.s.tasks[t.ID] = t

	return r.s.populate(t), nil
}

func (r *TasksRepo) Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, err := r.s.ownedTask(ownerID, id)
	if err != nil {
		return task.Task{}, err
	}

	if err := req.Apply(&t); err != nil {
		return task.Task{}, err
	}

	if changed, projectID := req.ProjectChange(); changed {
		if err := r.s.checkProjectRef(ownerID, projectID); err != nil {
			return task.Task{}, err
		}
	}

	r.s.tasks[id] = t

	return r.s.populate(t), nil
}

func (r *TasksRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.s.ownedTask(ownerID, id); err != nil {
		return err
	}

	delete(r.s.tasks, id)

	return nil
}

// caller holds the lock
func (s *Store) ownedTask(ownerID, id string) (task.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

// caller holds the lock
func (s *Store) checkProjectRef(ownerID string, projectID *string) error {
	if projectID == nil {
		return nil
	}
	if _, err := s.ownedProject(ownerID, *projectID); err != nil {
		return task.ErrProjectNotFound
	}
	return nil
}

// populate fills the weak project reference. A dangling id renders as nil.
// caller holds the lock
func (s *Store) populate(t task.Task) task.Task {
	t.Project = nil
	if t.ProjectID != nil {
		if p, ok := s.projects[*t.ProjectID]; ok && p.OwnerID == t.OwnerID {
			t.Project = &task.ProjectRef{ID: p.ID, Name: p.Name, Color: p.Color}
		}
	}

	t.Tags = append([]string(nil), t.Tags...)
	if t.Tags == nil {
		t.Tags = []string{}
	}

	return t
}
