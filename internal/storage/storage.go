package storage

import (
	"context"
	"fmt"
	"time"
)

// ObjectStore handles chart file storage operations
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, data []byte) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// DefaultURLExpiry is how long download links stay valid
const DefaultURLExpiry = 24 * time.Hour

// Backend names accepted by New
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// Config selects and configures an object store backend
type Config struct {
	Backend   string
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	URLExpiry time.Duration
}

// New creates the object store selected by cfg.Backend
func New(ctx context.Context, cfg Config) (ObjectStore, error) {
	switch cfg.Backend {
	case BackendS3, "":
		return NewS3Service(S3Config{
			Bucket:    cfg.Bucket,
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			URLExpiry: cfg.URLExpiry,
		})
	case BackendMinio:
		return NewMinioService(ctx, MinioConfig{
			Bucket:    cfg.Bucket,
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			URLExpiry: cfg.URLExpiry,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func expiryOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultURLExpiry
	}
	return d
}

// validateContentType validates that the content type is a chart format
func validateContentType(contentType string) error {
	validTypes := map[string]bool{
		"image/png":                true,
		"text/html; charset=utf-8": true,
	}

	if !validTypes[contentType] {
		return fmt.Errorf("invalid content type: %s. Supported types: image/png, text/html", contentType)
	}

	return nil
}
