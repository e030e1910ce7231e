package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/latticeforge/kernel/pkg/errors"
)

// ProjectRepository persists `.cnnd` project documents (spec.md §6) keyed by
// project name. It satisfies internal/application/project.Repository.
type ProjectRepository interface {
	SaveProject(ctx context.Context, name string, cnnd []byte) error
	LoadProject(ctx context.Context, name string) ([]byte, error)
	DeleteProject(ctx context.Context, name string) error
	ListProjects(ctx context.Context) ([]string, error)
}

type postgresProjectRepo struct {
	pool *pgxpool.Pool
	log  Logger
}

// NewProjectRepository returns a ProjectRepository backed by pool. The
// "projects" table is expected to already exist (see migrations).
func NewProjectRepository(pool *pgxpool.Pool, log Logger) ProjectRepository {
	return &postgresProjectRepo{pool: pool, log: log}
}

func (r *postgresProjectRepo) SaveProject(ctx context.Context, name string, cnnd []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects (name, cnnd_data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET cnnd_data = EXCLUDED.cnnd_data, updated_at = EXCLUDED.updated_at
	`, name, cnnd, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to save project "+name)
	}
	return nil
}

func (r *postgresProjectRepo) LoadProject(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT cnnd_data FROM projects WHERE name = $1`, name).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("project " + name + " not found")
		}
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load project "+name)
	}
	return data, nil
}

func (r *postgresProjectRepo) DeleteProject(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE name = $1`, name)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to delete project "+name)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("project " + name + " not found")
	}
	return nil
}

func (r *postgresProjectRepo) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM projects ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list projects")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to scan project row")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to iterate project rows")
	}
	return names, nil
}
