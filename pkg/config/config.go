package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devSecret = "dev_secret"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream    UpstreamConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Cache       CacheConfig
	Workspace   WorkspaceConfig
	Submissions SubmissionsConfig
}

// UpstreamConfig points at the extraction pipeline's review backend.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
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

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs caching of upstream listings.
type CacheConfig struct {
	Enabled    bool
	PendingTTL time.Duration
}

// WorkspaceConfig controls the lifetime of in-memory review workspaces.
type WorkspaceConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// SubmissionsConfig tunes the background submission log writer.
type SubmissionsConfig struct {
	LogEnabled        bool
	WorkerConcurrency int
	WorkerRetries     int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: UPSTREAM_BASE_URL %q is not an absolute URL", c.Upstream.BaseURL)
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("config: UPSTREAM_TIMEOUT must be positive")
	}
	if c.Env == EnvProduction && (c.JWT.Secret == "" || c.JWT.Secret == devSecret) {
		return errors.New("config: JWT_SECRET must be set in production")
	}
	if c.Workspace.IdleTTL <= 0 || c.Workspace.SweepInterval <= 0 {
		return errors.New("config: workspace TTL and sweep interval must be positive")
	}
	if c.Submissions.WorkerConcurrency < 1 {
		c.Submissions.WorkerConcurrency = 1
	}
	if c.Submissions.WorkerRetries < 0 {
		c.Submissions.WorkerRetries = 0
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL: strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
	}

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

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_PENDING_CACHE"),
		PendingTTL: parseDuration(v.GetString("PENDING_CACHE_TTL"), 30*time.Second),
	}

	cfg.Workspace = WorkspaceConfig{
		IdleTTL:       parseDuration(v.GetString("WORKSPACE_IDLE_TTL"), 2*time.Hour),
		SweepInterval: parseDuration(v.GetString("WORKSPACE_SWEEP_INTERVAL"), 5*time.Minute),
	}

	cfg.Submissions = SubmissionsConfig{
		LogEnabled:        v.GetBool("ENABLE_SUBMISSION_LOG"),
		WorkerConcurrency: v.GetInt("SUBMISSION_LOG_WORKERS"),
		WorkerRetries:     v.GetInt("SUBMISSION_LOG_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:4200/api")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "entity_review")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", devSecret)
	v.SetDefault("JWT_ISSUER", "entity-review-api")
	v.SetDefault("JWT_EXPIRATION", "12h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_PENDING_CACHE", true)
	v.SetDefault("PENDING_CACHE_TTL", "30s")

	v.SetDefault("WORKSPACE_IDLE_TTL", "2h")
	v.SetDefault("WORKSPACE_SWEEP_INTERVAL", "5m")

	v.SetDefault("ENABLE_SUBMISSION_LOG", true)
	v.SetDefault("SUBMISSION_LOG_WORKERS", 1)
	v.SetDefault("SUBMISSION_LOG_RETRIES", 3)
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
