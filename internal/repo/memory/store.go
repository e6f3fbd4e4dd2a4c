package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

// Store keeps users, projects and tasks behind one lock so a project delete
// and its task cascade are a single step.
type Store struct {
	mu       sync.RWMutex
	users    map[string]user.User
	emails   map[string]string // email -> user id
	projects map[string]project.Project
	tasks    map[string]task.Task
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]user.User),
		emails:   make(map[string]string),
		projects: make(map[string]project.Project),
		tasks:    make(map[string]task.Task),
	}
}

func (s *Store) Users() *UsersRepo       { return &UsersRepo{s: s} }
func (s *Store) Projects() *ProjectsRepo { return &ProjectsRepo{s: s} }
func (s *Store) Tasks() *TasksRepo       { return &TasksRepo{s: s} }

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// DeleteUser removes a user record only. It exists for tests of dangling tokens.
func (s *Store) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		delete(s.emails, u.Email)
		delete(s.users, id)
	}
}

// newestFirst sorts by creation time descending, id as tie-breaker.
func newestFirst[T any](items []T, createdAt func(T) time.Time, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		a, b := createdAt(items[i]), createdAt(items[j])
		if a.Equal(b) {
			return id(items[i]) > id(items[j])
		}
		return a.After(b)
	})
}
