package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ruediste/diy-dc-converter/pkg/models"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("repository: not found")

// StateRepository stores the serialized input state of each tool per session
type StateRepository interface {
	Load(ctx context.Context, sessionID, tool string) ([]byte, error)
	Save(ctx context.Context, sessionID, tool string, data []byte) error
	Delete(ctx context.Context, sessionID, tool string) error
}

// ExportRepository records charts uploaded to object storage
type ExportRepository interface {
	CreateExport(ctx context.Context, export *models.ChartExport) error
	GetExport(ctx context.Context, id uuid.UUID) (*models.ChartExport, error)
	ListExports(ctx context.Context, sessionID string) ([]*models.ChartExport, error)
}

// Repository is implemented by each database backend
type Repository interface {
	StateRepository
	ExportRepository
	Close() error
}
