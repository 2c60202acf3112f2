package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string

	// xe.gr Bulk Import Tool
	XEBaseURL    string
	XETimeoutSec int

	// Cron spec for the pending-package reconcile sweep
	ReconcileSpec string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	timeout, err := strconv.Atoi(getEnv("XE_TIMEOUT_SEC", "20"))
	if err != nil || timeout <= 0 {
		timeout = 20
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("DB_NAME", "estia-crm"),
		SkipAuth:      getEnv("SKIP_AUTH", "false") == "true",
		Environment:   getEnv("ENVIRONMENT", "development"),
		AppId:         getEnv("APP_ID", "estia-crm"),
		XEBaseURL:     getEnv("XE_BASE_URL", "https://import.xe.gr/bulk/v1"),
		XETimeoutSec:  timeout,
		ReconcileSpec: getEnv("RECONCILE_CRON", "@every 2m"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
