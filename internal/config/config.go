package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	// memory, postgres, sqlite or redis
	StoreDriver string
	DatabaseURL string
	RedisURL    string
	RedisPrefix string

	IDStrategy string

	// log or kafka
	SubmitPublisher string
	KafkaBrokers    []string
	SubmitTopic     string

	WorkerCount     int
	WorkerQueueSize int

	CORSOrigins []string
}

// LoadConfig reads .env when present and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		StoreDriver:     getEnv("STORE_DRIVER", "memory"),
		DatabaseURL:     getEnv("DATABASE_URL", "file:formbuilder.db?_foreign_keys=on"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		RedisPrefix:     getEnv("REDIS_PREFIX", "formbuilder"),
		IDStrategy:      getEnv("ID_STRATEGY", "uuid"),
		SubmitPublisher: getEnv("SUBMIT_PUBLISHER", "log"),
		KafkaBrokers:    getList("KAFKA_BROKERS", "localhost:9092"),
		SubmitTopic:     getEnv("SUBMIT_TOPIC", "form-submissions"),
		WorkerCount:     getInt("WORKER_COUNT", 2),
		WorkerQueueSize: getInt("WORKER_QUEUE_SIZE", 100),
		CORSOrigins:     getList("CORS_ORIGINS", "*"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
