// /internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================
// КОНФИГУРАЦИЯ БАЗЫ ДАННЫХ
// ============================================

// DatabaseConfig - конфигурация базы данных
type DatabaseConfig struct {
	Host     string `mapstructure:"DB_HOST"`
	Port     int    `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`

	// Настройки пула соединений
	MaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	MaxConnLifetime time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	MaxConnIdleTime time.Duration `mapstructure:"DB_MAX_CONN_IDLE_TIME"`

	// Настройки миграций
	MigrationsPath    string `mapstructure:"DB_MIGRATIONS_PATH"`
	EnableAutoMigrate bool   `mapstructure:"DB_ENABLE_AUTO_MIGRATE"`
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`     // localhost
	Port     int    `mapstructure:"REDIS_PORT"`     // 6379
	Password string `mapstructure:"REDIS_PASSWORD"` // пустой или пароль
	DB       int    `mapstructure:"REDIS_DB"`       // 0

	// Настройки пула соединений
	PoolSize        int           `mapstructure:"REDIS_POOL_SIZE"`         // 10
	MinIdleConns    int           `mapstructure:"REDIS_MIN_IDLE_CONNS"`    // 5
	MaxRetries      int           `mapstructure:"REDIS_MAX_RETRIES"`       // 3
	MinRetryBackoff time.Duration `mapstructure:"REDIS_MIN_RETRY_BACKOFF"` // 8ms
	MaxRetryBackoff time.Duration `mapstructure:"REDIS_MAX_RETRY_BACKOFF"` // 512ms
	DialTimeout     time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`      // 5s
	ReadTimeout     time.Duration `mapstructure:"REDIS_READ_TIMEOUT"`      // 3s
	WriteTimeout    time.Duration `mapstructure:"REDIS_WRITE_TIMEOUT"`     // 3s
	PoolTimeout     time.Duration `mapstructure:"REDIS_POOL_TIMEOUT"`      // 4s
}

// QueueConfig - конфигурация очередей событий (голоса и комментарии)
type QueueConfig struct {
	VotePrefix    string `mapstructure:"QUEUE_VOTE_PREFIX"`    // vote_queue
	CommentPrefix string `mapstructure:"QUEUE_COMMENT_PREFIX"` // comment_queue

	BatchSize     int64         `mapstructure:"QUEUE_BATCH_SIZE"`      // 50
	DeadLetterCap int64         `mapstructure:"QUEUE_DEAD_LETTER_CAP"` // 1000
	TickInterval  time.Duration `mapstructure:"QUEUE_TICK_INTERVAL"`   // 5s
}

// LeaderboardConfig - конфигурация лидербордов
type LeaderboardConfig struct {
	// LegacyKeys: старая схема ключей без seasonId (развертывания с одним жанром)
	LegacyKeys    bool          `mapstructure:"LEADERBOARD_LEGACY_KEYS"`     // false
	DailyVoterTTL time.Duration `mapstructure:"LEADERBOARD_DAILY_VOTER_TTL"` // 48h
}

// VoteCacheConfig - конфигурация кэша счетчиков голосов
type VoteCacheConfig struct {
	TTL time.Duration `mapstructure:"VOTE_CACHE_TTL"` // 30s
}

// LeaseConfig - конфигурация аренды единственного потребителя
type LeaseConfig struct {
	TTL time.Duration `mapstructure:"CONSUMER_LEASE_TTL"` // 30s
}

// ReconciliationConfig - конфигурация фоновой сверки лидербордов с БД
type ReconciliationConfig struct {
	Interval time.Duration `mapstructure:"RECONCILE_INTERVAL"` // 10m
}

// ============================================
// ОСНОВНАЯ КОНФИГУРАЦИЯ ПРИЛОЖЕНИЯ
// ============================================

// Config - основная структура конфигурации
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Version     string `mapstructure:"VERSION"`

	Database       DatabaseConfig       `mapstructure:"DATABASE"`
	Redis          RedisConfig          `mapstructure:",squash"`
	Queue          QueueConfig          `mapstructure:",squash"`
	Leaderboard    LeaderboardConfig    `mapstructure:",squash"`
	VoteCache      VoteCacheConfig      `mapstructure:",squash"`
	Lease          LeaseConfig          `mapstructure:",squash"`
	Reconciliation ReconciliationConfig `mapstructure:",squash"`

	// ======================
	// ЛОГИРОВАНИЕ И МОНИТОРИНГ
	// ======================
	Logging struct {
		Level       string `mapstructure:"LOG_LEVEL"`
		File        string `mapstructure:"LOG_FILE"`
		DebugMode   bool   `mapstructure:"DEBUG_MODE,omitempty"`
		HTTPEnabled bool   `mapstructure:"HTTP_ENABLED"`
		HTTPPort    int    `mapstructure:"HTTP_PORT"`
	} `mapstructure:",squash"`
}

// ============================================
// ЗАГРУЗКА КОНФИГУРАЦИИ
// ============================================

// LoadConfig загружает конфигурацию из .env файла
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		fmt.Printf("⚠️  Config file not found, using environment variables\n")
	}

	cfg := &Config{}

	// ======================
	// ОСНОВНЫЕ НАСТРОЙКИ
	// ======================
	cfg.Environment = getEnv("ENVIRONMENT", "production")
	cfg.Version = getEnv("VERSION", "1.0.0")

	// ======================
	// БАЗА ДАННЫХ
	// ======================
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	cfg.Database.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	cfg.Database.MaxConnIdleTime = getEnvDuration("DB_MAX_CONN_IDLE_TIME", 10*time.Minute)
	cfg.Database.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "./migrations")
	cfg.Database.EnableAutoMigrate = getEnvBool("DB_ENABLE_AUTO_MIGRATE", true)

	// ======================
	// REDIS
	// ======================
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnvInt("REDIS_PORT", 6379)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.PoolSize = getEnvInt("REDIS_POOL_SIZE", 10)
	cfg.Redis.MinIdleConns = getEnvInt("REDIS_MIN_IDLE_CONNS", 5)
	cfg.Redis.MaxRetries = getEnvInt("REDIS_MAX_RETRIES", 3)
	cfg.Redis.MinRetryBackoff = getEnvDuration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond)
	cfg.Redis.MaxRetryBackoff = getEnvDuration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond)
	cfg.Redis.DialTimeout = getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.Redis.ReadTimeout = getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.Redis.WriteTimeout = getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.Redis.PoolTimeout = getEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second)

	// ======================
	// ОЧЕРЕДИ СОБЫТИЙ
	// ======================
	cfg.Queue.VotePrefix = getEnv("QUEUE_VOTE_PREFIX", "vote_queue")
	cfg.Queue.CommentPrefix = getEnv("QUEUE_COMMENT_PREFIX", "comment_queue")
	cfg.Queue.BatchSize = getEnvInt64("QUEUE_BATCH_SIZE", 50)
	cfg.Queue.DeadLetterCap = getEnvInt64("QUEUE_DEAD_LETTER_CAP", 1000)
	cfg.Queue.TickInterval = getEnvDuration("QUEUE_TICK_INTERVAL", 5*time.Second)

	// ======================
	// ЛИДЕРБОРДЫ И КЭШ
	// ======================
	cfg.Leaderboard.LegacyKeys = getEnvBool("LEADERBOARD_LEGACY_KEYS", false)
	cfg.Leaderboard.DailyVoterTTL = getEnvDuration("LEADERBOARD_DAILY_VOTER_TTL", 48*time.Hour)
	cfg.VoteCache.TTL = getEnvDuration("VOTE_CACHE_TTL", 30*time.Second)

	// ======================
	// АРЕНДА ПОТРЕБИТЕЛЯ И СВЕРКА
	// ======================
	cfg.Lease.TTL = getEnvDuration("CONSUMER_LEASE_TTL", 30*time.Second)
	cfg.Reconciliation.Interval = getEnvDuration("RECONCILE_INTERVAL", 10*time.Minute)

	// ======================
	// ЛОГИРОВАНИЕ И МОНИТОРИНГ
	// ======================
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.File = getEnv("LOG_FILE", "logs/clip_vote_consumer.log")
	cfg.Logging.DebugMode = getEnvBool("DEBUG_MODE", false)
	cfg.Logging.HTTPEnabled = getEnvBool("HTTP_ENABLED", false)
	cfg.Logging.HTTPPort = getEnvInt("HTTP_PORT", 8080)

	// ======================
	// ВАЛИДАЦИЯ КОНФИГУРАЦИИ
	// ======================
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ============================================
// ВАЛИДАЦИЯ
// ============================================

// validate проверяет обязательные параметры конфигурации
func (c *Config) validate() error {
	var validationErrors []string

	// Проверка настроек базы данных
	if c.Database.Host == "" {
		validationErrors = append(validationErrors, "DB_HOST is required")
	}
	if c.Database.Port <= 0 {
		validationErrors = append(validationErrors, "DB_PORT must be positive")
	}
	if c.Database.User == "" {
		validationErrors = append(validationErrors, "DB_USER is required")
	}
	if c.Database.Password == "" {
		validationErrors = append(validationErrors, "DB_PASSWORD is required")
	}
	if c.Database.Name == "" {
		validationErrors = append(validationErrors, "DB_NAME is required")
	}

	// Проверка настроек очередей
	if c.Queue.VotePrefix == "" || c.Queue.CommentPrefix == "" {
		validationErrors = append(validationErrors, "queue prefixes must not be empty")
	}
	if c.Queue.VotePrefix == c.Queue.CommentPrefix {
		validationErrors = append(validationErrors, "QUEUE_VOTE_PREFIX and QUEUE_COMMENT_PREFIX must differ")
	}
	if c.Queue.BatchSize <= 0 {
		validationErrors = append(validationErrors, "QUEUE_BATCH_SIZE must be positive")
	}
	if c.Queue.DeadLetterCap <= 0 {
		validationErrors = append(validationErrors, "QUEUE_DEAD_LETTER_CAP must be positive")
	}

	// Аренда должна жить дольше одного тика, иначе потребители будут толкаться
	if c.Lease.TTL <= c.Queue.TickInterval {
		validationErrors = append(validationErrors, "CONSUMER_LEASE_TTL must exceed QUEUE_TICK_INTERVAL")
	}

	if c.Logging.HTTPEnabled {
		if c.Logging.HTTPPort <= 0 || c.Logging.HTTPPort > 65535 {
			validationErrors = append(validationErrors, "HTTP_PORT должен быть в диапазоне 1-65535")
		}
	}

	if len(validationErrors) > 0 {
		errMsg := strings.Join(validationErrors, "; ")
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

// GetPostgresDSN возвращает DSN для подключения к PostgreSQL
func (c *Config) GetPostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddress возвращает адрес Redis
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// PrintSummary выводит сводку конфигурации при старте
func (c *Config) PrintSummary() {
	log.Printf("📋 Конфигурация приложения:")
	log.Printf("   • Окружение: %s", c.Environment)
	log.Printf("   • Уровень логирования: %s", c.Logging.Level)
	log.Printf("   • PostgreSQL: %s:%d/%s", c.Database.Host, c.Database.Port, c.Database.Name)
	log.Printf("   • Redis: %s:%d (DB: %d, Pool: %d)",
		c.Redis.Host, c.Redis.Port, c.Redis.DB, c.Redis.PoolSize)
	log.Printf("   • Очереди: %s / %s (батч: %d, тик: %s)",
		c.Queue.VotePrefix, c.Queue.CommentPrefix, c.Queue.BatchSize, c.Queue.TickInterval)
	log.Printf("   • Dead letter cap: %d", c.Queue.DeadLetterCap)
	log.Printf("   • Лидерборды: legacy=%v, daily TTL=%s",
		c.Leaderboard.LegacyKeys, c.Leaderboard.DailyVoterTTL)
	log.Printf("   • Кэш голосов TTL: %s", c.VoteCache.TTL)
	log.Printf("   • Аренда потребителя TTL: %s", c.Lease.TTL)
	log.Printf("   • Интервал сверки: %s", c.Reconciliation.Interval)
	log.Printf("   • HTTP сервер: %v (порт: %d)", c.Logging.HTTPEnabled, c.Logging.HTTPPort)
}

// IsDev возвращает true если текущее окружение — разработка
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ ФУНКЦИИ
// ============================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
