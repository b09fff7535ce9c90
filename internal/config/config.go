// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for all databases (always absolute)
	ModelsDir      string // Directory holding per-model signal log JSON files
	CandleProxyURL string // Base URL of the historical-candle proxy
	LogLevel       string
	Port           int
	DevMode        bool
	Backup         *BackupConfig
}

// BackupConfig holds R2/S3 backup settings. Backups are disabled when
// the bucket or credentials are empty.
type BackupConfig struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	RetentionDays   int // 0 keeps every backup
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. SIGNALBOARD_DATA_DIR environment variable
	// 2. ./data
	// Always resolved to an absolute path and created if missing.
	dataDir := getEnv("SIGNALBOARD_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	modelsDir := getEnv("SIGNALBOARD_MODELS_DIR", "")
	if modelsDir == "" {
		modelsDir = filepath.Join(absDataDir, "models")
	}
	absModelsDir, err := filepath.Abs(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve models directory path: %w", err)
	}
	if err := os.MkdirAll(absModelsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create models directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		ModelsDir:      absModelsDir,
		Port:           getEnvAsInt("GO_PORT", 8001),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		CandleProxyURL: getEnv("CANDLE_PROXY_URL", "https://api.kucoin.com"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Backup:         loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// loadBackupConfig loads R2 backup settings from the environment
func loadBackupConfig() *BackupConfig {
	cfg := &BackupConfig{
		AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		Bucket:          getEnv("R2_BUCKET", ""),
		Prefix:          getEnv("R2_PREFIX", "signalboard-backups"),
		RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
	cfg.Enabled = getEnvAsBool("BACKUP_ENABLED", cfg.Bucket != "" && cfg.AccessKeyID != "")
	return cfg
}
