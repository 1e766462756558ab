package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite://calculators.db", cfg.Database.URL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.False(t, cfg.Storage.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.Storage.URLExpiry)
	assert.Equal(t, 200, cfg.Charts.SweepPoints)
	assert.Equal(t, 730, cfg.Charts.Width)
	assert.Equal(t, 500, cfg.Charts.Height)
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte(
		"S3_BUCKET=charts\nSTORAGE_BACKEND=minio\nSWEEP_POINTS=50\nPORT=9000\n"), 0o644))

	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("PORT", "9100")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Server.Env)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Enabled())
	assert.Equal(t, 50, cfg.Charts.SweepPoints)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"sweep points", "SWEEP_POINTS", 1},
		{"too many sweep points", "SWEEP_POINTS", 1_000_000},
		{"chart width", "CHART_WIDTH", 0},
		{"backend", "STORAGE_BACKEND", "ftp"},
		{"database", "DATABASE_URL", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := load(v)
			assert.Error(t, err)
		})
	}
}
