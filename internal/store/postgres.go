package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newProjectID() string { return uuid.NewString() }

// PostgresStore persists projects as JSONB columns via sqlx over a pgx
// stdlib connection, the same driver/ORM pairing the platform this engine
// was adapted from uses for its own repositories.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore opens a connection pool against dsn and verifies it with
// a ping before returning.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type projectRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Problem      []byte         `db:"problem"`
	LastSolution []byte         `db:"last_solution"`
	Warnings     pq.StringArray `db:"warnings"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

const projectColumns = "id, name, problem, last_solution, warnings, created_at, updated_at"

func (r projectRow) toProject() (Project, error) {
	p := Project{
		ID:                     r.ID,
		Name:                   r.Name,
		LastValidationWarnings: []string(r.Warnings),
		CreatedAt:              r.CreatedAt.UTC(),
		UpdatedAt:              r.UpdatedAt.UTC(),
	}
	if len(r.Problem) > 0 {
		if err := json.Unmarshal(r.Problem, &p.Problem); err != nil {
			return Project{}, fmt.Errorf("failed to decode stored problem: %w", err)
		}
	}
	if len(r.LastSolution) > 0 {
		if err := json.Unmarshal(r.LastSolution, &p.LastSolution); err != nil {
			return Project{}, fmt.Errorf("failed to decode stored solution: %w", err)
		}
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at ASC`
	var rows []projectRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	out := make([]Project, 0, len(rows))
	for _, row := range rows {
		p, err := row.toProject()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	var row projectRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return Project{}, ErrProjectNotFound
		}
		return Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	return row.toProject()
}

func (s *PostgresStore) Create(ctx context.Context, name string, problem map[string]any) (Project, error) {
	problemJSON, err := json.Marshal(problem)
	if err != nil {
		return Project{}, fmt.Errorf("failed to encode problem: %w", err)
	}

	query := `
		INSERT INTO projects (id, name, problem, last_solution, warnings, created_at, updated_at)
		VALUES ($1, $2, $3, NULL, $4, $5, $5)
	`
	now := time.Now().UTC()
	id := newProjectID()
	if _, err := s.db.ExecContext(ctx, query, id, name, problemJSON, pq.StringArray{}, now); err != nil {
		return Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	return Project{ID: id, Name: name, Problem: problem, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, name *string, problem map[string]any) (Project, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if name != nil {
		current.Name = *name
	}
	if problem != nil {
		current.Problem = problem
	}

	problemJSON, err := json.Marshal(current.Problem)
	if err != nil {
		return Project{}, fmt.Errorf("failed to encode problem: %w", err)
	}

	query := `
		UPDATE projects
		SET name = $2, problem = $3, updated_at = $4
		WHERE id = $1
	`
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, query, id, current.Name, problemJSON, now)
	if err != nil {
		return Project{}, fmt.Errorf("failed to update project: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return Project{}, ErrProjectNotFound
	}

	current.UpdatedAt = now
	return current, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *PostgresStore) SetSolution(ctx context.Context, id string, solution map[string]any) (Project, error) {
	solutionJSON, err := json.Marshal(solution)
	if err != nil {
		return Project{}, fmt.Errorf("failed to encode solution: %w", err)
	}

	query := `
		UPDATE projects
		SET last_solution = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + projectColumns
	now := time.Now().UTC()
	var row projectRow
	if err := s.db.GetContext(ctx, &row, query, id, solutionJSON, now); err != nil {
		if err == sql.ErrNoRows {
			return Project{}, ErrProjectNotFound
		}
		return Project{}, fmt.Errorf("failed to set project solution: %w", err)
	}
	return row.toProject()
}

func (s *PostgresStore) SetValidationWarnings(ctx context.Context, id string, warnings []string) (Project, error) {
	query := `
		UPDATE projects
		SET warnings = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + projectColumns
	now := time.Now().UTC()
	var row projectRow
	if err := s.db.GetContext(ctx, &row, query, id, pq.StringArray(warnings), now); err != nil {
		if err == sql.ErrNoRows {
			return Project{}, ErrProjectNotFound
		}
		return Project{}, fmt.Errorf("failed to set project validation warnings: %w", err)
	}
	return row.toProject()
}
