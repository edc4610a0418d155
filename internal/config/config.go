package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/worktime"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Lock     LockConfig
	JWT      JWTConfig
	App      AppConfig
	WorkTime worktime.Settings
	Batch    BatchConfig
	Cron     CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LockConfig selects how concurrent runs over the same month are serialized.
type LockConfig struct {
	Backend string // postgres, redis or local
	TTL     time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	StorageType string // postgres or memory
	Location    *time.Location

	AllowedOrigins []string
}

type BatchConfig struct {
	Size    int
	Workers int
}

type CronConfig struct {
	Enabled     bool
	DailySpec   string
	MonthlySpec string
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	LockPostgres = "postgres"
	LockRedis    = "redis"
	LockLocal    = "local"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Redis configuration
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	lockTTL, err := time.ParseDuration(getEnv("LOCK_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}
	config.Lock = LockConfig{
		Backend: strings.ToLower(getEnv("LOCK_BACKEND", LockPostgres)),
		TTL:     lockTTL,
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	location, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Jakarta"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StorageType: strings.ToLower(getEnv("STORAGE_TYPE", StoragePostgres)),
		Location:    location,

		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Work time defaults
	settings := worktime.DefaultSettings()
	for _, f := range []struct {
		key string
		dst *calendar.TimeOfDay
	}{
		{"WORK_START_TIME", &settings.WorkStart},
		{"WORK_END_TIME", &settings.WorkEnd},
		{"LUNCH_START_TIME", &settings.LunchStart},
		{"LUNCH_END_TIME", &settings.LunchEnd},
	} {
		if err := getEnvTimeOfDay(f.key, f.dst); err != nil {
			return nil, err
		}
	}
	if settings.WorkableMinutesPerDay, err = getEnvInt("WORKABLE_MINUTES_PER_DAY", settings.WorkableMinutesPerDay); err != nil {
		return nil, err
	}
	config.WorkTime = settings

	// Batch configuration
	batchSize, err := getEnvInt("BATCH_SIZE", 500)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("WORKERS", 8)
	if err != nil {
		return nil, err
	}
	config.Batch = BatchConfig{Size: batchSize, Workers: workers}

	// Cron configuration
	cronEnabled, err := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_ENABLED: %w", err)
	}
	config.Cron = CronConfig{
		Enabled:     cronEnabled,
		DailySpec:   getEnv("CRON_DAILY_SPEC", "0 2 * * *"),
		MonthlySpec: getEnv("CRON_MONTHLY_SPEC", "30 3 1 * *"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.App.StorageType {
	case StoragePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageMemory:
		if c.Lock.Backend == LockPostgres {
			return fmt.Errorf("LOCK_BACKEND=postgres requires STORAGE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_TYPE must be postgres or memory, got %q", c.App.StorageType)
	}

	switch c.Lock.Backend {
	case LockPostgres, LockRedis, LockLocal:
	default:
		return fmt.Errorf("LOCK_BACKEND must be postgres, redis or local, got %q", c.Lock.Backend)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if !c.WorkTime.WorkStart.Before(c.WorkTime.WorkEnd) {
		return fmt.Errorf("WORK_START_TIME must be before WORK_END_TIME")
	}
	if !c.WorkTime.LunchStart.Before(c.WorkTime.LunchEnd) {
		return fmt.Errorf("LUNCH_START_TIME must be before LUNCH_END_TIME")
	}
	if c.WorkTime.WorkableMinutesPerDay <= 0 {
		return fmt.Errorf("WORKABLE_MINUTES_PER_DAY must be positive")
	}
	if c.Batch.Size <= 0 || c.Batch.Workers <= 0 {
		return fmt.Errorf("BATCH_SIZE and WORKERS must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvTimeOfDay(key string, dst *calendar.TimeOfDay) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	t, err := calendar.ParseTimeOfDay(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = t
	return nil
}

func getEnvSlice(env, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}
