package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Generated document storage
	DocumentStorageDir  string
	MaxRequestSizeBytes int64

	// Cache settings
	CacheExpiry          time.Duration
	CacheCleanupInterval time.Duration

	// Company identity printed on documents
	CompanyName    string
	CompanyAddress string
	CompanyPhone   string
	CompanyEmail   string
	CompanyRegNo   string
	LogoPath       string

	// Frontend URL for reference (CORS)
	FrontendBaseURL string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxRequestSizeStr := getEnv("MAX_REQUEST_SIZE_BYTES", "1048576") // 1MB default
	maxRequestSize, err := strconv.ParseInt(maxRequestSizeStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_REQUEST_SIZE_BYTES format '%s'. Using default 1MB. Error: %v", maxRequestSizeStr, err)
		maxRequestSize = 1024 * 1024
	}

	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./fortivest.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Documents
		DocumentStorageDir:  getEnv("DOCUMENT_STORAGE_DIR", "./generated"),
		MaxRequestSizeBytes: maxRequestSize,

		// Cache
		CacheExpiry:          getEnvAsDuration("CACHE_EXPIRY", 15*time.Minute),
		CacheCleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		// Company identity
		CompanyName:    getEnv("COMPANY_NAME", "Fortivest Capital Ltd"),
		CompanyAddress: getEnv("COMPANY_ADDRESS", "12 Harbour Square, Docklands, Dublin 1"),
		CompanyPhone:   getEnv("COMPANY_PHONE", "+353 1 555 0140"),
		CompanyEmail:   getEnv("COMPANY_EMAIL", "quotations@fortivest.example"),
		CompanyRegNo:   getEnv("COMPANY_REG_NO", "Registered in Ireland No. 481207"),
		LogoPath:       getEnv("COMPANY_LOGO_PATH", ""),

		FrontendBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, StorageDir=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.DocumentStorageDir)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start.", key)
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
