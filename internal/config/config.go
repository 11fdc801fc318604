// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageDisk = "disk"
	StorageS3   = "s3"
)

// Event brokers.
const (
	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsAMQP  = "amqp"
)

// Config holds all server settings.
type Config struct {
	Addr        string
	PublicURL   string
	LogPath     string
	LogLevel    string
	CORSOrigins []string

	DBDriver string
	DBDSN    string

	Storage     string
	UploadDir   string
	MaxUploadMB int
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	GeoBaseURL string

	Events       string
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
}

// LoadEnvFiles loads variables from the given .env files (or ./.env when none
// are given) without overriding variables already set. A missing default
// file is not an error.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		err := godotenv.Load()
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no .env file found, using process environment")
			return nil
		}
		return err
	}
	return godotenv.Load(files...)
}

// Load builds a Config from the process environment.
func Load() *Config {
	return &Config{
		Addr:        getEnv("ADDR", ":3333"),
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:3333"), "/"),
		LogPath:     getEnv("LOG_PATH", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "ecoleta.sqlite3"),

		Storage:     getEnv("STORAGE", StorageDisk),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 5),
		S3Endpoint:  getEnv("MINIO_ENDPOINT", ""),
		S3AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		S3SecretKey: getEnv("MINIO_SECRET_KEY", ""),
		S3Bucket:    getEnv("MINIO_BUCKET", "ecoleta-uploads"),
		S3Region:    getEnv("MINIO_REGION", ""),
		S3UseSSL:    getEnv("MINIO_USE_SSL", "") == "true",

		GeoBaseURL: getEnv("GEO_BASE_URL", "https://servicodados.ibge.gov.br/api/v1/localidades"),

		Events:       getEnv("EVENTS", EventsNone),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "ecoleta.points"),
		AMQPURL:      getEnv("AMQP_URL", ""),
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
	}

	switch c.Storage {
	case StorageDisk:
		if c.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR required for disk storage")
		}
	case StorageS3:
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q (want disk or s3)", c.Storage)
	}

	switch c.Events {
	case EventsNone, "":
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS required for kafka events")
		}
	case EventsAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL required for amqp events")
		}
	default:
		return fmt.Errorf("unknown EVENTS %q (want none, kafka or amqp)", c.Events)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// ParseLevel parses a LOG_LEVEL value (debug, info, warn, error, or an offset
// such as "info+2"). Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
