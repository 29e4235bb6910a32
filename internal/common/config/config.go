package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AlibekovAA/social-hub/internal/common/constants"
)

var (
	ErrMissingRequiredEnv   = errors.New("missing required environment variable")
	ErrInvalidSessionSecret = errors.New("SESSION_SECRET must be at least 32 bytes")
)

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
}

func (c StorageConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type AppConfig struct {
	HTTPPort       string        `yaml:"httpPort"`
	DatabaseURL    string        `yaml:"databaseURL"`
	SessionSecret  string        `yaml:"sessionSecret"`
	SessionTTL     time.Duration `yaml:"sessionTTL"`
	RedisAddr      string        `yaml:"redisAddr"`
	RedisPassword  string        `yaml:"redisPassword"`
	AdminUserID    string        `yaml:"adminUserID"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	UploadTimeout  time.Duration `yaml:"uploadTimeout"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	RunMigrations  bool          `yaml:"runMigrations"`
	LogDir         string        `yaml:"logDir"`
	LogLevel       string        `yaml:"logLevel"`
	Storage        StorageConfig `yaml:"storage"`
}

func defaults() AppConfig {
	return AppConfig{
		HTTPPort:       constants.DefaultHTTPPort,
		SessionTTL:     constants.DefaultSessionTTL,
		RequestTimeout: constants.DefaultRequestTimeout,
		UploadTimeout:  constants.DefaultUploadTimeout,
		MaxUploadBytes: constants.DefaultMaxUploadBytes,
		RunMigrations:  true,
		LogLevel:       "INFO",
	}
}

// LoadAppConfig reads the optional YAML file named by CONFIG_FILE and then
// applies environment overrides. Environment always wins.
func LoadAppConfig() (AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionTTL = getDurationEnv("SESSION_TTL", cfg.SessionTTL)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.AdminUserID = strings.TrimSpace(getEnv("ADMIN_USER_ID", cfg.AdminUserID))
	cfg.RequestTimeout = getDurationEnv("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.UploadTimeout = getDurationEnv("UPLOAD_TIMEOUT", cfg.UploadTimeout)
	cfg.MaxUploadBytes = getInt64Env("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.RunMigrations = getBoolEnv("RUN_MIGRATIONS", cfg.RunMigrations)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Storage.Endpoint = getEnv("STORAGE_ENDPOINT", cfg.Storage.Endpoint)
	cfg.Storage.AccessKey = getEnv("STORAGE_ACCESS_KEY", cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = getEnv("STORAGE_SECRET_KEY", cfg.Storage.SecretKey)
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.UseSSL = getBoolEnv("STORAGE_USE_SSL", cfg.Storage.UseSSL)

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequiredEnv, "DATABASE_URL")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequiredEnv, "SESSION_SECRET")
	}
	if len(c.SessionSecret) < constants.SessionSecretMinLength {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidSessionSecret, len(c.SessionSecret))
	}
	return nil
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getInt64Env(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}
