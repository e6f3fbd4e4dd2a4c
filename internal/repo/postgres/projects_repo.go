package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectColumns = `id, name, description, color, owner_id, created_at, updated_at`

type ProjectsRepo struct {
	base
}

func NewProjectsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProjectsRepo {
	return &ProjectsRepo{base{pool: pool, prom: prom}}
}

func (r *ProjectsRepo) List(ctx context.Context, ownerID string) ([]project.Project, error) {
	var rows pgx.Rows

	err := r.observe("projects.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx,
			`SELECT `+projectColumns+`
			FROM projects
			WHERE owner_id = $1
			ORDER BY created_at DESC, id DESC`,
			ownerID,
		)
		return e
	})

	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	defer rows.Close()

	out := make([]project.Project, 0)

	for rows.Next() {
		var p project.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return out, nil
}

func (r *ProjectsRepo) GetByID(ctx context.Context, ownerID, id string) (project.Project, error) {
	return r.get(ctx, r.pool, "projects.get", ownerID, id, "")
}

func (r *ProjectsRepo) Create(ctx context.Context, ownerID string, req project.CreateProjectRequest) (project.Project, error) {
	p, err := project.NewFromCreateRequest(ownerID, req)
	if err != nil {
		return project.Project{}, err
	}

	err = r.observe("projects.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO projects (id, name, description, color, owner_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, p.Name, p.Description, p.Color, p.OwnerID, p.CreatedAt, p.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return project.Project{}, fmt.Errorf("insert project: %w", err)
	}

	return p, nil
}

func (r *ProjectsRepo) Update(ctx context.Context, ownerID, id string, req project.UpdateProjectRequest) (project.Project, error) {
	var p project.Project

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		var err error

		p, err = r.get(ctx, tx, "projects.update.lock", ownerID, id, " FOR UPDATE")
		if err != nil {
			return err
		}

		if err = req.Apply(&p); err != nil {
			return err
		}

		return r.observe("projects.update", func() error {
			_, e := tx.Exec(ctx,
				`UPDATE projects
				SET name = $3, description = $4, color = $5, updated_at = $6
				WHERE id = $1 AND owner_id = $2`,
				p.ID, p.OwnerID, p.Name, p.Description, p.Color, p.UpdatedAt,
			)
			return e
		})
	})

	if err != nil {
		return project.Project{}, err
	}

	return p, nil
}

// Delete removes the project and every task referencing it in one
// transaction. Tasks are matched on project_id alone, whoever owns them.
func (r *ProjectsRepo) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return project.ErrNotFound
	}

	var cascaded int64

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		var tag pgconn.CommandTag

		err := r.observe("projects.delete", func() error {
			var e error
			tag, e = tx.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND owner_id = $2`, id, ownerID)
			return e
		})
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return project.ErrNotFound
		}

		err = r.observe("projects.delete.cascade_tasks", func() error {
			var e error
			tag, e = tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, id)
			return e
		})
		if err != nil {
			return fmt.Errorf("cascade tasks: %w", err)
		}

		cascaded = tag.RowsAffected()

		return nil
	})

	if err != nil {
		return err
	}

	r.prom.AddCascadeDeletes(cascaded)

	return nil
}

func (r *ProjectsRepo) get(ctx context.Context, q querier, op, ownerID, id, suffix string) (project.Project, error) {
	if !validID(id) {
		return project.Project{}, project.ErrNotFound
	}

	var p project.Project

	err := r.observe(op, func() error {
		return scanProject(q.QueryRow(ctx,
			`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND owner_id = $2`+suffix,
			id, ownerID,
		), &p)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, fmt.Errorf("get project: %w", err)
	}

	return p, nil
}

func scanProject(row pgx.Row, p *project.Project) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
}
