package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres  = "postgres"
	StorageDriverMemory    = "memory"
	StorageDriverDatastore = "datastore"
	StorageDriverDynamoDB  = "dynamodb"
)

var DefaultEnvConfig *envConfig

type envConfig struct {
	// http config
	APP_PORT         string
	PUBLIC_BASE_URL  string
	SHUTDOWN_TIMEOUT time.Duration
	// storage config
	STORAGE_DRIVER string
	// database config
	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_CONN_MAX_LIFETIME time.Duration
	DB_MAX_IDLE_CONNS    int
	DB_MAX_OPEN_CONNS    int
	// datastore config
	DATASTORE_PROJECT_ID string
	// dynamodb config
	DYNAMODB_TABLE    string
	DYNAMODB_ENDPOINT string
	AWS_REGION        string
	// search config
	ELASTICSEARCH_URL   string
	ELASTICSEARCH_INDEX string
	// export config
	EXPORT_TEMPLATE_PATH string
	// logger config
	LOG_FILE_PATH string
	LOG_LEVEL     string
}

// LoadEnvConfig reads .env (when present) and the process environment.
func LoadEnvConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	DefaultEnvConfig = &envConfig{
		APP_PORT:             getEnvString("APP_PORT", "8080"),
		PUBLIC_BASE_URL:      strings.TrimRight(getEnvString("PUBLIC_BASE_URL", ""), "/"),
		SHUTDOWN_TIMEOUT:     getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		STORAGE_DRIVER:       strings.ToLower(getEnvString("STORAGE_DRIVER", StorageDriverPostgres)),
		DB_HOST:              getEnvString("DB_HOST", "localhost"),
		DB_PORT:              getEnvInt("DB_PORT", 5432),
		DB_USER:              getEnvString("DB_USER", "postgres"),
		DB_PASSWORD:          getEnvString("DB_PASSWORD", "postgres"),
		DB_NAME:              getEnvString("DB_NAME", "payroll"),
		DB_SSL_MODE:          getEnvString("DB_SSL_MODE", "disable"),
		DB_CONN_MAX_LIFETIME: getEnvDuration("DB_CONN_MAX_LIFETIME", 20*time.Minute),
		DB_MAX_IDLE_CONNS:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DB_MAX_OPEN_CONNS:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
		DATASTORE_PROJECT_ID: getEnvString("DATASTORE_PROJECT_ID", ""),
		DYNAMODB_TABLE:       getEnvString("DYNAMODB_TABLE", "employees"),
		DYNAMODB_ENDPOINT:    getEnvString("DYNAMODB_ENDPOINT", ""),
		AWS_REGION:           getEnvString("AWS_REGION", "us-east-1"),
		ELASTICSEARCH_URL:    getEnvString("ELASTICSEARCH_URL", ""),
		ELASTICSEARCH_INDEX:  getEnvString("ELASTICSEARCH_INDEX", "employees"),
		EXPORT_TEMPLATE_PATH: getEnvString("EXPORT_TEMPLATE_PATH", ""),
		LOG_FILE_PATH:        getEnvString("LOG_FILE_PATH", ""),
		LOG_LEVEL:            getEnvString("LOG_LEVEL", "info"),
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
