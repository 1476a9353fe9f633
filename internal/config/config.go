// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the storage toolkit configuration.
type Config struct {
	// Logging
	LogLevel  string
	LogFormat string

	// Local storage layout
	StoragePath string // shared storage root holding the synced-files cache
	DataFolder  string // app folder name below StoragePath
	FilesDir    string // app-private files directory

	// Volume discovery
	ExternalStorageDir      string   // platform default external storage directory
	ExternalFilesDirs       []string // per-app external files directories
	StorageVolumes          []string // explicit volume list; replaces the legacy algorithm when set
	LegacyStoragePermission bool

	// Remote account
	ServerURL string

	// File index (optional)
	DatabaseURL string

	// Metrics textfile (optional)
	MetricsFile string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:                envOr("LOG_LEVEL", "info"),
		LogFormat:               envOr("LOG_FORMAT", "console"),
		StoragePath:             envOr("FRUITSALADE_STORAGE_PATH", ""),
		DataFolder:              envOr("FRUITSALADE_DATA_FOLDER", "nextcloud"),
		FilesDir:                envOr("FRUITSALADE_FILES_DIR", ""),
		ExternalStorageDir:      envOr("FRUITSALADE_EXTERNAL_STORAGE_DIR", "/storage/emulated/0"),
		ExternalFilesDirs:       envList("FRUITSALADE_EXTERNAL_FILES_DIRS"),
		StorageVolumes:          envList("FRUITSALADE_STORAGE_VOLUMES"),
		LegacyStoragePermission: envBool("FRUITSALADE_LEGACY_STORAGE_PERMISSION", false),
		ServerURL:               strings.TrimRight(envOr("FRUITSALADE_SERVER_URL", ""), "/"),
		DatabaseURL:             envOr("DATABASE_URL", ""),
		MetricsFile:             envOr("METRICS_FILE", ""),
	}

	if cfg.StoragePath == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("FRUITSALADE_STORAGE_PATH is required: %w", err)
		}
		cfg.StoragePath = filepath.Join(dir, "fruitsalade")
	}
	if cfg.FilesDir == "" {
		cfg.FilesDir = filepath.Join(cfg.StoragePath, "files")
	}
	if cfg.DataFolder == "" || strings.ContainsRune(cfg.DataFolder, '/') {
		return nil, fmt.Errorf("FRUITSALADE_DATA_FOLDER must be a single path segment, got %q", cfg.DataFolder)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envList splits a list variable on the OS path list separator.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range filepath.SplitList(v) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
