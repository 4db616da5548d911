package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"oddsledger/internal/history"
	"oddsledger/internal/ocr"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const defaultUploadMaxBytes = 10 << 20

// AppConfig holds the complete application configuration.
type AppConfig struct {
	HTTPAddr       string
	DataPath       string
	LogDir         string
	Store          history.Options
	JWTSecret      string
	OCR            ocr.Config
	UploadMaxBytes int64
	// OwnerID is the identity the MCP stdio server acts for.
	OwnerID string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return FromEnv(exeDir)
}

// FromEnv builds the configuration from the process environment only.
// baseDir is the fallback for DATA_PATH.
func FromEnv(baseDir string) (*AppConfig, error) {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if baseDir != "" {
			dataPath = baseDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))

	uploadMax, err := getEnvInt64("UPLOAD_MAX_BYTES", defaultUploadMaxBytes)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		HTTPAddr: getEnv("HTTP_ADDR", ":"+getEnv("PORT", "5000")),
		DataPath: dataPath,
		LogDir:   logDir,
		Store: history.Options{
			Driver:      getEnv("STORE_DRIVER", history.DriverMemory),
			SQLitePath:  getEnv("SQLITE_PATH", filepath.Join(dataPath, "oddsledger.db")),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		JWTSecret: getEnv("JWT_SECRET", ""),
		OCR: ocr.Config{
			Command:  getEnv("OCR_COMMAND", "tesseract"),
			Language: getEnv("OCR_LANG", "eng"),
		},
		UploadMaxBytes: uploadMax,
		OwnerID:        getEnv("OWNER_ID", ""),
	}

	if getEnvBool("HISTORY_SNAPSHOTS", true) {
		cfg.Store.Dir = filepath.Join(dataPath, "history")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Store.Driver {
	case history.DriverMemory, history.DriverSQLite:
	case history.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (use memory, sqlite or postgres)", c.Store.Driver)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.UploadMaxBytes)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
