// Package config loads application configuration from environment
// variables so the server wiring does not read env vars ad hoc.
// Sensible defaults are provided for development.
package config

import (
	"os"
	"strconv"
)

// Config holds all server configuration
type Config struct {
	// Port is the HTTP listen port
	Port string

	// DBPath is the SQLite database path
	DBPath string

	// BaseURL is the public-facing URL of the service
	BaseURL string

	// Icons holds object-store settings for icon uploads. Uploads are
	// disabled when Endpoint is empty.
	Icons IconStoreConfig
}

// IconStoreConfig holds S3-compatible object store settings
type IconStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// PublicBaseURL is the URL prefix stored icons are served from.
	// Defaults to the store endpoint.
	PublicBaseURL string
}

// Load reads configuration from the environment
func Load() Config {
	cfg := Config{
		Port:    getenv("PORT", "8080"),
		DBPath:  getenv("APIDEX_DB_PATH", "apidex.db"),
		BaseURL: getenv("APIDEX_BASE_URL", "http://localhost:8080"),
		Icons: IconStoreConfig{
			Endpoint:      os.Getenv("APIDEX_ICONS_ENDPOINT"),
			AccessKey:     os.Getenv("APIDEX_ICONS_ACCESS_KEY"),
			SecretKey:     os.Getenv("APIDEX_ICONS_SECRET_KEY"),
			Bucket:        getenv("APIDEX_ICONS_BUCKET", "endpoint-icons"),
			PublicBaseURL: os.Getenv("APIDEX_ICONS_PUBLIC_URL"),
		},
	}

	if v, err := strconv.ParseBool(os.Getenv("APIDEX_ICONS_USE_SSL")); err == nil {
		cfg.Icons.UseSSL = v
	}
	if cfg.Icons.PublicBaseURL == "" && cfg.Icons.Endpoint != "" {
		scheme := "http://"
		if cfg.Icons.UseSSL {
			scheme = "https://"
		}
		cfg.Icons.PublicBaseURL = scheme + cfg.Icons.Endpoint
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
