package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const maxSweepPoints = 2000

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	Charts   ChartConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// URL is either postgres://... or sqlite://<path>
	URL string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// StorageConfig holds object storage configuration for chart exports
type StorageConfig struct {
	Backend         string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	UseSSL          bool
	URLExpiry       time.Duration
}

// Enabled reports whether chart exports have somewhere to go
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// ChartConfig holds sweep and rendering configuration
type ChartConfig struct {
	SweepPoints int
	Width       int
	Height      int
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	// Set defaults
	v.SetDefault("DATABASE_URL", "sqlite://calculators.db")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "dev")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("STORAGE_BACKEND", "s3")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_USE_SSL", false)
	v.SetDefault("DOWNLOAD_URL_EXPIRY", "24h")
	v.SetDefault("SWEEP_POINTS", 200)
	v.SetDefault("CHART_WIDTH", 730)
	v.SetDefault("CHART_HEIGHT", 500)

	// Environment variables override .env file values
	v.AutomaticEnv()

	// Read from .env files based on environment
	env := v.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev" // Use "dev" to match .env.dev filename
	}

	v.SetConfigName(".env." + env)
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// Read .env file (ignore error if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read .env.%s: %w", env, err)
		}
	}

	var config Config
	config.Database.URL = v.GetString("DATABASE_URL")
	config.Server.Port = v.GetString("PORT")
	config.Server.Env = env
	config.Server.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"))
	config.Storage.Backend = strings.ToLower(v.GetString("STORAGE_BACKEND"))
	config.Storage.Region = v.GetString("AWS_REGION")
	config.Storage.AccessKeyID = v.GetString("AWS_ACCESS_KEY_ID")
	config.Storage.SecretAccessKey = v.GetString("AWS_SECRET_ACCESS_KEY")
	config.Storage.Bucket = v.GetString("S3_BUCKET")
	config.Storage.Endpoint = v.GetString("S3_ENDPOINT")
	config.Storage.UseSSL = v.GetBool("S3_USE_SSL")
	config.Storage.URLExpiry = v.GetDuration("DOWNLOAD_URL_EXPIRY")
	config.Charts.SweepPoints = v.GetInt("SWEEP_POINTS")
	config.Charts.Width = v.GetInt("CHART_WIDTH")
	config.Charts.Height = v.GetInt("CHART_HEIGHT")

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Charts.SweepPoints < 2 || c.Charts.SweepPoints > maxSweepPoints {
		return fmt.Errorf("SWEEP_POINTS must be between 2 and %d, got %d", maxSweepPoints, c.Charts.SweepPoints)
	}
	if c.Charts.Width <= 0 || c.Charts.Height <= 0 {
		return fmt.Errorf("invalid chart size %dx%d", c.Charts.Width, c.Charts.Height)
	}
	switch c.Storage.Backend {
	case "s3", "minio":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be s3 or minio, got %q", c.Storage.Backend)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
