package models

import (
	"time"

	"github.com/google/uuid"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// ChartExport is a rendered chart stored in object storage
type ChartExport struct {
	ID        uuid.UUID `json:"id" doc:"Export identifier"`
	SessionID string    `json:"session_id" doc:"Client session identifier"`
	Tool      string    `json:"tool" doc:"Tool key"`
	Graph     string    `json:"graph" doc:"Graph key"`
	Format    string    `json:"format" enum:"png,html" doc:"Chart format"`
	ObjectKey string    `json:"object_key" doc:"Object storage key"`
	CreatedAt time.Time `json:"created_at" doc:"Export timestamp"`
}
