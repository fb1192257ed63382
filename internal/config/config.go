package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server
	Port        string
	Environment string

	// Events
	NATSUrl            string
	ImportEventSubject string

	// Import pipeline
	ImportLockTTL       time.Duration
	LegacyStatuses      bool
	ChunkPauseMS        int
	ViewRefreshSchedule string
	MaxUploadSizeBytes  int64
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	lockTTLMinutes, _ := strconv.Atoi(getEnv("IMPORT_LOCK_TTL_MINUTES", "30"))
	chunkPauseMS, _ := strconv.Atoi(getEnv("IMPORT_CHUNK_PAUSE_MS", "100"))
	maxUploadMB, _ := strconv.Atoi(getEnv("MAX_UPLOAD_SIZE_MB", "32"))
	legacyStatuses, _ := strconv.ParseBool(getEnv("LEGACY_RELATIONSHIP_STATUSES", "false"))

	return &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "reassignment_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Events
		NATSUrl:            getEnv("NATS_URL", ""),
		ImportEventSubject: getEnv("IMPORT_EVENT_SUBJECT", "book.import.completed"),

		// Import pipeline
		ImportLockTTL:       time.Duration(lockTTLMinutes) * time.Minute,
		LegacyStatuses:      legacyStatuses,
		ChunkPauseMS:        chunkPauseMS,
		ViewRefreshSchedule: getEnv("VIEW_REFRESH_SCHEDULE", "@every 10m"),
		MaxUploadSizeBytes:  int64(maxUploadMB) << 20,
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	// Use URL format for better pgx driver compatibility with SSL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
