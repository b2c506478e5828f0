// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Extract  ExtractConfig
	OCR      OCRConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN         string // empty -> in-memory sqlite
	DialTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	StagingDir      string // where uploaded files land before extraction
	MaxUploadBytes  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ExtractConfig holds the extraction binary paths and policy
type ExtractConfig struct {
	Pdftotext string
	Pdftoppm  string
	Antiword  string
	MaxPages  int
	Languages string // ";"-separated allowlist for the gibberish gate
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	Language      string
	TessdataDir   string
	DPI           int
	PSM           int
	OEM           int
	TSVConfidence bool // second tesseract pass for per-word confidence
	UseGosseract  bool // link against libtesseract instead of shelling out
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // "text" or "json"
	File   string // optional tee target
}

// Load reads .env (when present) and then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			DSN:         getEnv("DB_URL", ""),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			StagingDir:      getEnv("STAGING_DIR", "./tmp/uploads"),
			MaxUploadBytes:  getEnvAsInt64("MAX_UPLOAD_BYTES", 64<<20),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 2*time.Minute),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 2*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Extract: ExtractConfig{
			Pdftotext: getEnv("PDFTOTEXT_PATH", "pdftotext"),
			Pdftoppm:  getEnv("PDFTOPPM_PATH", "pdftoppm"),
			Antiword:  getEnv("ANTIWORD_PATH", ""),
			MaxPages:  getEnvAsInt("MAX_PAGES", 0),
			Languages: getEnv("LANGUAGES", "en;fr;nl"),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_PATH", "tesseract"),
			Language:      getEnv("OCR_LANGUAGE", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			PSM:           getEnvAsInt("OCR_PSM", 0),
			OEM:           getEnvAsInt("OCR_OEM", 0),
			TSVConfidence: getEnvAsBool("OCR_TSV_CONFIDENCE", false),
			UseGosseract:  getEnvAsBool("OCR_USE_GOSSERACT", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
