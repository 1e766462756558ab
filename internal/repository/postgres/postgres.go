package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/ruediste/diy-dc-converter/internal/repository"
	"github.com/ruediste/diy-dc-converter/internal/repository/migrations"
	"github.com/ruediste/diy-dc-converter/pkg/models"
)

// PostgresRepository implements Repository for PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

// Open connects to dsn and applies pending migrations
func Open(ctx context.Context, dsn string) (repository.Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrations.Up(db, migrations.Postgres); err != nil {
		db.Close()
		return nil, err
	}
	return NewPostgresRepository(db), nil
}

// NewPostgresRepository wraps an already migrated database
func NewPostgresRepository(db *sql.DB) repository.Repository {
	return &PostgresRepository{db: db}
}

// Load returns the stored state of a tool
func (r *PostgresRepository) Load(ctx context.Context, sessionID, tool string) ([]byte, error) {
	query := `
		SELECT data
		FROM tool_state
		WHERE session_id = $1 AND tool = $2`

	var data []byte
	err := r.db.QueryRowContext(ctx, query, sessionID, tool).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save inserts or replaces the state of a tool
func (r *PostgresRepository) Save(ctx context.Context, sessionID, tool string, data []byte) error {
	query := `
		INSERT INTO tool_state (session_id, tool, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id, tool)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, sessionID, tool, string(data))
	return err
}

// Delete removes the state of a tool. Deleting missing state is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, sessionID, tool string) error {
	query := `DELETE FROM tool_state WHERE session_id = $1 AND tool = $2`

	_, err := r.db.ExecContext(ctx, query, sessionID, tool)
	return err
}

// CreateExport inserts a chart export record
func (r *PostgresRepository) CreateExport(ctx context.Context, export *models.ChartExport) error {
	query := `
		INSERT INTO chart_exports (id, session_id, tool, graph, format, object_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		export.ID,
		export.SessionID,
		export.Tool,
		export.Graph,
		export.Format,
		export.ObjectKey,
		export.CreatedAt)

	return err
}

// GetExport retrieves a chart export by ID
func (r *PostgresRepository) GetExport(ctx context.Context, id uuid.UUID) (*models.ChartExport, error) {
	query := `
		SELECT id, session_id, tool, graph, format, object_key, created_at
		FROM chart_exports
		WHERE id = $1`

	var export models.ChartExport
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&export.ID,
		&export.SessionID,
		&export.Tool,
		&export.Graph,
		&export.Format,
		&export.ObjectKey,
		&export.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &export, nil
}

// ListExports returns the exports of a session, newest first
func (r *PostgresRepository) ListExports(ctx context.Context, sessionID string) ([]*models.ChartExport, error) {
	query := `
		SELECT id, session_id, tool, graph, format, object_key, created_at
		FROM chart_exports
		WHERE session_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*models.ChartExport
	for rows.Next() {
		var export models.ChartExport
		err := rows.Scan(
			&export.ID,
			&export.SessionID,
			&export.Tool,
			&export.Graph,
			&export.Format,
			&export.ObjectKey,
			&export.CreatedAt)

		if err != nil {
			return nil, err
		}
		exports = append(exports, &export)
	}

	return exports, rows.Err()
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
