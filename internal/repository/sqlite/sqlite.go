package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ruediste/diy-dc-converter/internal/repository"
	"github.com/ruediste/diy-dc-converter/internal/repository/migrations"
	"github.com/ruediste/diy-dc-converter/pkg/models"
	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Repository on a local SQLite file
type SQLiteRepository struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies pending migrations
func Open(ctx context.Context, path string) (repository.Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if err := migrations.Up(db, migrations.SQLite); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

// Load returns the stored state of a tool
func (r *SQLiteRepository) Load(ctx context.Context, sessionID, tool string) ([]byte, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM tool_state WHERE session_id = ? AND tool = ?`,
		sessionID, tool).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// Save inserts or replaces the state of a tool
func (r *SQLiteRepository) Save(ctx context.Context, sessionID, tool string, data []byte) error {
	query := `
		INSERT INTO tool_state (session_id, tool, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (session_id, tool)
		DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`

	_, err := r.db.ExecContext(ctx, query, sessionID, tool, string(data))
	return err
}

// Delete removes the state of a tool
func (r *SQLiteRepository) Delete(ctx context.Context, sessionID, tool string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tool_state WHERE session_id = ? AND tool = ?`,
		sessionID, tool)
	return err
}

// CreateExport inserts a chart export record
func (r *SQLiteRepository) CreateExport(ctx context.Context, export *models.ChartExport) error {
	query := `
		INSERT INTO chart_exports (id, session_id, tool, graph, format, object_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		export.ID.String(),
		export.SessionID,
		export.Tool,
		export.Graph,
		export.Format,
		export.ObjectKey,
		export.CreatedAt.UTC().UnixNano())

	return err
}

// GetExport retrieves a chart export by ID
func (r *SQLiteRepository) GetExport(ctx context.Context, id uuid.UUID) (*models.ChartExport, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, tool, graph, format, object_key, created_at
		FROM chart_exports
		WHERE id = ?`, id.String())

	export, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return export, err
}

// ListExports returns the exports of a session, newest first
func (r *SQLiteRepository) ListExports(ctx context.Context, sessionID string) ([]*models.ChartExport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, tool, graph, format, object_key, created_at
		FROM chart_exports
		WHERE session_id = ?
		ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*models.ChartExport
	for rows.Next() {
		export, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, export)
	}
	return exports, rows.Err()
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanExport reads one chart_exports row; ids are stored as text and
// timestamps as unix nanoseconds.
func scanExport(s scanner) (*models.ChartExport, error) {
	var (
		export  models.ChartExport
		id      string
		created int64
	)
	if err := s.Scan(&id, &export.SessionID, &export.Tool, &export.Graph,
		&export.Format, &export.ObjectKey, &created); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export id %q: %w", id, err)
	}
	export.ID = parsed
	export.CreatedAt = time.Unix(0, created).UTC()
	return &export, nil
}
