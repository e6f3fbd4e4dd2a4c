package memory

import (
	"context"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/project"
)

type ProjectsRepo struct {
	s *Store
}

func (r *ProjectsRepo) List(ctx context.Context, ownerID string) ([]project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]project.Project, 0)
	for _, p := range r.s.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}

	newestFirst(out,
		func(p project.Project) time.Time { return p.CreatedAt },
		func(p project.Project) string { return p.ID },
	)

	return out, nil
}

func (r *ProjectsRepo) GetByID(ctx context.Context, ownerID, id string) (project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.ownedProject(ownerID, id)
}

func (r *ProjectsRepo) Create(ctx context.Context, ownerID string, req project.CreateProjectRequest) (project.Project, error) {
	p, err := project.NewFromCreateRequest(ownerID, req)
	if err != nil {
		return project.Project{}, err
	}

	r.s.mu.Lock()
	r.s.projects[p.ID] = p
	r.s.mu.Unlock()

	return p, nil
}

func (r *ProjectsRepo) Update(ctx context.Context, ownerID, id string, req project.UpdateProjectRequest) (project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, err := r.s.ownedProject(ownerID, id)
	if err != nil {
		return project.Project{}, err
	}

	if err := req.Apply(&p); err != nil {
		return project.Project{}, err
	}

	r.s.projects[id] = p

	return p, nil
}

// Delete removes the project and, under the same lock, every task pointing at
// it regardless of the task's owner.
func (r *ProjectsRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.s.ownedProject(ownerID, id); err != nil {
		return err
	}

	delete(r.s.projects, id)

	for taskID, t := range r.s.tasks {
		if t.ProjectID != nil && *t.ProjectID == id {
			delete(r.s.tasks, taskID)
		}
	}

	return nil
}

// caller holds the lock
func (s *Store) ownedProject(ownerID, id string) (project.Project, error) {
	p, ok := s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}
