package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The project join only resolves references to the task owner's own
// projects; anything else renders as a dangling (nil) reference.
const taskSelect = `SELECT t.id, t.title, t.description, t.status, t.priority, t.due_date,
	t.project_id, t.tags, t.owner_id, t.created_at, t.updated_at,
	p.id, p.name, p.color
FROM tasks t
LEFT JOIN projects p ON p.id = t.project_id AND p.owner_id = t.owner_id`

type TasksRepo struct {
	base
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{base{pool: pool, prom: prom}}
}

func (r *TasksRepo) List(ctx context.Context, ownerID string, filters task.ListTasksFilter) ([]task.Task, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	conds := []string{"t.owner_id = $1"}
	args := []any{ownerID}
	argsPosition := 2

	if filters.Status != nil {
		conds = append(conds, fmt.Sprintf("t.status = $%d", argsPosition))
		args = append(args, string(*filters.Status))
		argsPosition++
	}

	if filters.Priority != nil {
		conds = append(conds, fmt.Sprintf("t.priority = $%d", argsPosition))
		args = append(args, string(*filters.Priority))
		argsPosition++
	}

	if filters.ProjectID != nil {
		// no task can reference a malformed id
		if !validID(*filters.ProjectID) {
			return []task.Task{}, nil
		}
		conds = append(conds, fmt.Sprintf("t.project_id = $%d", argsPosition))
		args = append(args, *filters.ProjectID)
		argsPosition++
	}

	if filters.Tag != nil {
		conds = append(conds, fmt.Sprintf("$%d = ANY(t.tags)", argsPosition))
		args = append(args, *filters.Tag)
	}

	query := taskSelect + " WHERE " + strings.Join(conds, " AND ") + " ORDER BY t.created_at DESC, t.id DESC"

	var rows pgx.Rows

	err := r.observe("tasks.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, query, args...)
		return e
	})

	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	defer rows.Close()

	out := make([]task.Task, 0)

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return out, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, ownerID, id string) (task.Task, error) {
	return r.get(ctx, r.pool, "tasks.get", ownerID, id)
}

func (r *TasksRepo) Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
	t, err := task.NewFromCreateRequest(ownerID, req)
	if err != nil {
		return task.Task{}, err
	}

	var created task.Task

	err = r.withTx(ctx, func(tx pgx.Tx) error {
		if err := r.checkProjectRef(ctx, tx, ownerID, t.ProjectID); err != nil {
			return err
		}

		err := r.observe("tasks.create", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO tasks (id, title, description, status, priority, due_date, project_id, tags, owner_id, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
				t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate,
				t.ProjectID, t.Tags, t.OwnerID, t.CreatedAt, t.UpdatedAt,
			)
			return e
		})
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}

		created, err = r.get(ctx, tx, "tasks.create.reload", ownerID, t.ID)
		return err
	})

	if err != nil {
		return task.Task{}, err
	}

	return created, nil
}

func (r *TasksRepo) Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error) {
	if !validID(id) {
		return task.Task{}, task.ErrNotFound
	}

	var updated task.Task

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		var t task.Task

		err := r.observe("tasks.update.lock", func() error {
			row := tx.QueryRow(ctx,
				`SELECT id, title, description, status, priority, due_date, project_id, tags, owner_id, created_at, updated_at
				FROM tasks
				WHERE id = $1 AND owner_id = $2
				FOR UPDATE`,
				id, ownerID,
			)
			var status, priority string
			e := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &t.DueDate,
				&t.ProjectID, &t.Tags, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt)
			t.Status, t.Priority = task.Status(status), task.Priority(priority)
			return e
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return task.ErrNotFound
			}
			return fmt.Errorf("lock task: %w", err)
		}

		if err := req.Apply(&t); err != nil {
			return err
		}

		if changed, projectID := req.ProjectChange(); changed {
			if err := r.checkProjectRef(ctx, tx, ownerID, projectID); err != nil {
				return err
			}
		}

		err = r.observe("tasks.update", func() error {
			_, e := tx.Exec(ctx,
				`UPDATE tasks
				SET title = $3, description = $4, status = $5, priority = $6, due_date = $7,
					project_id = $8, tags = $9, updated_at = $10
				WHERE id = $1 AND owner_id = $2`,
				t.ID, t.OwnerID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate,
				t.ProjectID, t.Tags, t.UpdatedAt,
			)
			return e
		})
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		updated, err = r.get(ctx, tx, "tasks.update.reload", ownerID, id)
		return err
	})

	if err != nil {
		return task.Task{}, err
	}

	return updated, nil
}

func (r *TasksRepo) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return task.ErrNotFound
	}

	var tag pgconn.CommandTag

	err := r.observe("tasks.delete", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
		return e
	})

	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}

	return nil
}

// checkProjectRef requires projectID, when set, to name a project of the same
// owner. The row is share-locked so a concurrent project delete waits for this
// transaction and then cascades over the new task too.
func (r *TasksRepo) checkProjectRef(ctx context.Context, tx pgx.Tx, ownerID string, projectID *string) error {
	if projectID == nil {
		return nil
	}

	if !validID(*projectID) {
		return task.ErrProjectNotFound
	}

	var one int

	err := r.observe("tasks.project_ref", func() error {
		return tx.QueryRow(ctx,
			`SELECT 1 FROM projects WHERE id = $1 AND owner_id = $2 FOR SHARE`,
			*projectID, ownerID,
		).Scan(&one)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.ErrProjectNotFound
		}
		return fmt.Errorf("check project ref: %w", err)
	}

	return nil
}

func (r *TasksRepo) get(ctx context.Context, q querier, op, ownerID, id string) (task.Task, error) {
	if !validID(id) {
		return task.Task{}, task.ErrNotFound
	}

	var t task.Task

	err := r.observe(op, func() error {
		var e error
		t, e = scanTask(q.QueryRow(ctx, taskSelect+` WHERE t.id = $1 AND t.owner_id = $2`, id, ownerID))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}

	return t, nil
}

func scanTask(row pgx.Row) (task.Task, error) {
	var (
		t                task.Task
		status, priority string
		refID, refName   *string
		refColor         *string
	)

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &status, &priority, &t.DueDate,
		&t.ProjectID, &t.Tags, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt,
		&refID, &refName, &refColor,
	)
	if err != nil {
		return task.Task{}, err
	}

	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)

	if refID != nil {
		t.Project = &task.ProjectRef{ID: *refID, Name: deref(refName), Color: deref(refColor)}
	}

	if t.Tags == nil {
		t.Tags = []string{}
	}

	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
