package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ronda-app-go/pkg/logger"
)

type Config struct {
	HTTPPort string
	Env      string
	CORS     CORSConfig
	DB       DBConfig
	Sync     SyncConfig
	Cache    CacheConfig
	Agent    AgentConfig
	Metrics  MetricsConfig
}

type CORSConfig struct {
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowQuery       time.Duration
	MigrationsDir   string
	AutoMigrate     bool
}

// SyncConfig controls the server side replay endpoint.
type SyncConfig struct {
	Enabled bool
}

type CacheConfig struct {
	ContratoTTL   time.Duration
	DashboardTTL  time.Duration
	UpcomingDays  int
	UpcomingLimit int
}

// AgentConfig is read by the offline agent running on the device.
type AgentConfig struct {
	ServerURL        string
	ContratoID       string
	QueueBackend     string
	QueuePath        string
	ProbeInterval    time.Duration
	SyncInterval     time.Duration
	OperationTimeout time.Duration
	MaxAttempts      int
	FailurePolicy    string
}

// MetricsConfig controls OTLP metric export. Export is off unless
// OTEL_METRICS_ENABLED is set, so a device without a collector stays quiet.
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
	Insecure bool
	Interval time.Duration
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "ronda_app"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			SlowQuery:       getEnvDuration("DB_SLOW_QUERY", 500*time.Millisecond),
			MigrationsDir:   getEnv("DB_MIGRATIONS_DIR", "migrations"),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Sync: SyncConfig{
			Enabled: getEnvBool("OFFLINE_SYNC_ENABLED", true),
		},
		Cache: CacheConfig{
			ContratoTTL:   getEnvDuration("CONTRATO_CACHE_TTL", time.Minute),
			DashboardTTL:  getEnvDuration("DASHBOARD_CACHE_TTL", 30*time.Second),
			UpcomingDays:  getEnvInt("DASHBOARD_UPCOMING_DAYS", 14),
			UpcomingLimit: getEnvInt("DASHBOARD_UPCOMING_LIMIT", 10),
		},
		Agent: AgentConfig{
			ServerURL:        getEnv("AGENT_SERVER_URL", "http://localhost:8080"),
			ContratoID:       getEnv("AGENT_CONTRATO_ID", ""),
			QueueBackend:     getEnv("AGENT_QUEUE_BACKEND", "file"),
			QueuePath:        getEnv("AGENT_QUEUE_PATH", ".ronda-queue"),
			ProbeInterval:    getEnvDuration("AGENT_PROBE_INTERVAL", 15*time.Second),
			SyncInterval:     getEnvDuration("AGENT_SYNC_INTERVAL", 0),
			OperationTimeout: getEnvDuration("AGENT_OPERATION_TIMEOUT", 30*time.Second),
			MaxAttempts:      getEnvInt("AGENT_MAX_ATTEMPTS", 0),
			FailurePolicy:    getEnv("AGENT_FAILURE_POLICY", "abort"),
		},
		Metrics: MetricsConfig{
			Enabled:  getEnvBool("OTEL_METRICS_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			Insecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			Interval: getEnvDuration("OTEL_METRIC_INTERVAL", 30*time.Second),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
