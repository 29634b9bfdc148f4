package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting. It is built once by Load and passed
// by reference; nothing reads it through a package global.
type Config struct {
	JWTSecret string

	MongoURL string
	DBName   string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MinioHost     string
	MinioPort     string
	MinioUsername string
	MinioPassword string
	MinioUseSSL   bool
	BucketName    string

	RabbitMQURL      string
	RabbitMQPrefetch int

	AccessURLExpiry  time.Duration
	StoreCallTimeout time.Duration
	LockTTL          time.Duration

	SweepInterval time.Duration
	FeedInterval  time.Duration

	IngestWorkerConcurrency int
	IngestRate              float64
	IngestBurst             int
	IngestRetryMax          int
	IngestRetryDelays       []time.Duration

	ServerAddr string
}

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Load builds the configuration from the environment.
func Load() *Config {
	rabbitHost := getEnv("RABBITMQ_HOST", "localhost")
	rabbitPort := getEnv("RABBITMQ_PORT", "5672")
	rabbitUser := getEnv("RABBITMQ_USER", "guest")
	rabbitPass := getEnv("RABBITMQ_PASSWORD", "guest")
	rabbitVhost := getEnv("RABBITMQ_VHOST", "/")
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(rabbitUser),
			url.PathEscape(rabbitPass),
			rabbitHost,
			rabbitPort,
			url.PathEscape(rabbitVhost),
		)
	}
	retryDelays := getEnvDurationList(
		"INGEST_RETRY_DELAYS",
		[]time.Duration{10 * time.Second, 1 * time.Minute, 10 * time.Minute},
	)
	return &Config{
		JWTSecret: getEnv("JWT_SECRET", "l=ax+b"),

		MongoURL: getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		DBName:   getEnv("DB_NAME", "courseforge"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioHost:     getEnv("MINIO_HOST", "localhost"),
		MinioPort:     getEnv("MINIO_PORT", "9000"),
		MinioUsername: getEnv("MINIO_USERNAME", "minioadmin"),
		MinioPassword: getEnv("MINIO_PASSWORD", "minioadmin"),
		MinioUseSSL:   getEnvBool("MINIO_USE_SSL", false),
		BucketName:    getEnv("BUCKET_NAME", "course-files"),

		RabbitMQURL:      rabbitURL,
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 8),

		AccessURLExpiry:  getEnvDuration("ACCESS_URL_EXPIRY", time.Hour),
		StoreCallTimeout: getEnvDuration("STORE_CALL_TIMEOUT", 30*time.Second),
		LockTTL:          getEnvDuration("FILE_LOCK_TTL", 30*time.Second),

		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 24*time.Hour),
		FeedInterval:  getEnvDuration("FEED_INTERVAL", time.Hour),

		IngestWorkerConcurrency: getEnvInt("INGEST_WORKER_CONCURRENCY", 4),
		IngestRate:              getEnvFloat("INGEST_RATE", 2),
		IngestBurst:             getEnvInt("INGEST_BURST", 4),
		IngestRetryMax:          getEnvInt("INGEST_RETRY_MAX", 3),
		IngestRetryDelays:       retryDelays,

		ServerAddr: getEnv("SERVER_ADDR", ":8000"),
	}
}
