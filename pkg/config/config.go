package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Queue     QueueConfig
	Events    EventsConfig
	Exports   ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig holds the optimization engine defaults applied to requests
// that leave a parameter unset.
type SchedulerConfig struct {
	Enabled        bool
	ProposalTTL    time.Duration
	Algorithm      string
	Iterations     int
	PopulationSize int
	Restarts       int
	Workers        int
	MaxDuration    time.Duration
	Seed           int64
}

// QueueConfig sizes the background optimization worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// EventsConfig configures run-completed notifications. An empty URL disables
// publishing.
type EventsConfig struct {
	RabbitMQURL    string
	Queue          string
	PublishTimeout time.Duration
}

// ExportsConfig controls downloadable schedule files.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:        v.GetBool("ENABLE_SCHEDULER"),
		ProposalTTL:    parseDuration(v.GetString("SCHEDULER_PROPOSAL_TTL"), 30*time.Minute),
		Algorithm:      v.GetString("SCHEDULER_ALGORITHM"),
		Iterations:     v.GetInt("SCHEDULER_ITERATIONS"),
		PopulationSize: v.GetInt("SCHEDULER_POPULATION_SIZE"),
		Restarts:       v.GetInt("SCHEDULER_RESTARTS"),
		Workers:        v.GetInt("SCHEDULER_WORKERS"),
		MaxDuration:    parseDuration(v.GetString("SCHEDULER_MAX_DURATION"), 0),
		Seed:           v.GetInt64("SCHEDULER_SEED"),
	}

	cfg.Queue = QueueConfig{
		Workers:    v.GetInt("SCHEDULER_QUEUE_WORKERS"),
		BufferSize: v.GetInt("SCHEDULER_QUEUE_BUFFER"),
		MaxRetries: v.GetInt("SCHEDULER_QUEUE_RETRIES"),
		RetryDelay: parseDuration(v.GetString("SCHEDULER_QUEUE_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Events = EventsConfig{
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		Queue:          v.GetString("SCHEDULER_EVENTS_QUEUE"),
		PublishTimeout: parseDuration(v.GetString("RABBITMQ_PUBLISH_TIMEOUT"), 5*time.Second),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "defense_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("SCHEDULER_PROPOSAL_TTL", "30m")
	v.SetDefault("SCHEDULER_ALGORITHM", "temperature")
	v.SetDefault("SCHEDULER_ITERATIONS", 500)
	v.SetDefault("SCHEDULER_POPULATION_SIZE", 24)
	v.SetDefault("SCHEDULER_RESTARTS", 1)
	v.SetDefault("SCHEDULER_WORKERS", 1)
	v.SetDefault("SCHEDULER_MAX_DURATION", "")
	v.SetDefault("SCHEDULER_SEED", 1)

	v.SetDefault("SCHEDULER_QUEUE_WORKERS", 2)
	v.SetDefault("SCHEDULER_QUEUE_BUFFER", 32)
	v.SetDefault("SCHEDULER_QUEUE_RETRIES", 1)
	v.SetDefault("SCHEDULER_QUEUE_RETRY_DELAY", "2s")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("SCHEDULER_EVENTS_QUEUE", "defense.optimization.completed")
	v.SetDefault("RABBITMQ_PUBLISH_TIMEOUT", "5s")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
