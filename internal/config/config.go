package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	S3         S3Config
	Log        LogConfig
	CORS       CORSConfig
	Validation ValidationConfig
	Cleanup    CleanupConfig
	RateLimit  RateLimitConfig
	Sweeper    SweeperConfig
	Redis      RedisConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds the settings used to verify access tokens.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds attachment storage settings.
type S3Config struct {
	Region            string   `mapstructure:"region"`
	Endpoint          string   `mapstructure:"endpoint"`
	AccessKey         string   `mapstructure:"access_key"`
	SecretKey         string   `mapstructure:"secret_key"`
	AttachmentsBucket string   `mapstructure:"attachments_bucket"`
	KnownBuckets      []string `mapstructure:"known_buckets"`
	DefaultBucket     string   `mapstructure:"default_bucket"`
	PublicBaseURL     string   `mapstructure:"public_base_url"`
	MaxFileSizeMB     int64    `mapstructure:"max_file_size_mb"`
	PresignExpiry     int64    `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ValidationConfig holds AI validation workflow settings.
type ValidationConfig struct {
	WebhookURL      string        `mapstructure:"webhook_url"`
	WebhookToken    string        `mapstructure:"webhook_token"`
	CallbackURL     string        `mapstructure:"callback_url"`
	CallbackToken   string        `mapstructure:"callback_token"`
	Timeout         time.Duration `mapstructure:"timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollMaxAttempts int           `mapstructure:"poll_max_attempts"`
}

// CleanupConfig selects the submission delete strategy.
type CleanupConfig struct {
	UseRPC bool `mapstructure:"use_rpc"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// SweeperConfig holds the stale validation sweeper settings.
type SweeperConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
	BatchSize  int           `mapstructure:"batch_size"`
	Schedule   string        `mapstructure:"schedule"`
}

// RedisConfig enables the durable dispatch queue. When disabled, dispatches
// run in-process.
type RedisConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	Concurrency int    `mapstructure:"concurrency"`
}

func splitList(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Load reads configuration from environment variables with the VERIFORM_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VERIFORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "6m")
	v.SetDefault("server.environment", "development")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "veriform")
	v.SetDefault("db.password", "veriform_secret")
	v.SetDefault("db.name", "veriform_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "veriform")

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.attachments_bucket", "form-attachments")
	v.SetDefault("s3.known_buckets", "public,documents,attachments,files,avatars,form-attachments")
	v.SetDefault("s3.default_bucket", "public")
	v.SetDefault("s3.public_base_url", "")
	v.SetDefault("s3.max_file_size_mb", 10)
	v.SetDefault("s3.presign_expiry", 3600)

	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	v.SetDefault("validation.webhook_url", "")
	v.SetDefault("validation.webhook_token", "")
	v.SetDefault("validation.callback_url", "")
	v.SetDefault("validation.callback_token", "")
	v.SetDefault("validation.timeout", "5m")
	v.SetDefault("validation.poll_interval", "3s")
	v.SetDefault("validation.poll_max_attempts", 20)

	v.SetDefault("cleanup.use_rpc", false)

	v.SetDefault("ratelimit.rps", 10)
	v.SetDefault("ratelimit.burst", 20)

	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.interval", "1m")
	v.SetDefault("sweeper.stale_after", "30m")
	v.SetDefault("sweeper.batch_size", 50)
	v.SetDefault("sweeper.schedule", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.concurrency", 10)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                  "VERIFORM_SERVER_PORT",
		"server.read_timeout":          "VERIFORM_SERVER_READ_TIMEOUT",
		"server.write_timeout":         "VERIFORM_SERVER_WRITE_TIMEOUT",
		"server.environment":           "VERIFORM_SERVER_ENVIRONMENT",
		"db.host":                      "VERIFORM_DB_HOST",
		"db.port":                      "VERIFORM_DB_PORT",
		"db.user":                      "VERIFORM_DB_USER",
		"db.password":                  "VERIFORM_DB_PASSWORD",
		"db.name":                      "VERIFORM_DB_NAME",
		"db.sslmode":                   "VERIFORM_DB_SSLMODE",
		"db.max_open":                  "VERIFORM_DB_MAX_OPEN",
		"db.max_idle":                  "VERIFORM_DB_MAX_IDLE",
		"jwt.secret":                   "VERIFORM_JWT_SECRET",
		"jwt.issuer":                   "VERIFORM_JWT_ISSUER",
		"s3.region":                    "VERIFORM_S3_REGION",
		"s3.endpoint":                  "VERIFORM_S3_ENDPOINT",
		"s3.access_key":                "VERIFORM_S3_ACCESS_KEY",
		"s3.secret_key":                "VERIFORM_S3_SECRET_KEY",
		"s3.attachments_bucket":        "VERIFORM_S3_ATTACHMENTS_BUCKET",
		"s3.known_buckets":             "VERIFORM_S3_KNOWN_BUCKETS",
		"s3.default_bucket":            "VERIFORM_S3_DEFAULT_BUCKET",
		"s3.public_base_url":           "VERIFORM_S3_PUBLIC_BASE_URL",
		"s3.max_file_size_mb":          "VERIFORM_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":            "VERIFORM_S3_PRESIGN_EXPIRY",
		"log.level":                    "VERIFORM_LOG_LEVEL",
		"log.format":                   "VERIFORM_LOG_FORMAT",
		"cors.allowed_origins":         "VERIFORM_CORS_ALLOWED_ORIGINS",
		"validation.webhook_url":       "VERIFORM_VALIDATION_WEBHOOK_URL",
		"validation.webhook_token":     "VERIFORM_VALIDATION_WEBHOOK_TOKEN",
		"validation.callback_url":      "VERIFORM_VALIDATION_CALLBACK_URL",
		"validation.callback_token":    "VERIFORM_VALIDATION_CALLBACK_TOKEN",
		"validation.timeout":           "VERIFORM_VALIDATION_TIMEOUT",
		"validation.poll_interval":     "VERIFORM_VALIDATION_POLL_INTERVAL",
		"validation.poll_max_attempts": "VERIFORM_VALIDATION_POLL_MAX_ATTEMPTS",
		"cleanup.use_rpc":              "VERIFORM_CLEANUP_USE_RPC",
		"ratelimit.rps":                "VERIFORM_RATELIMIT_RPS",
		"ratelimit.burst":              "VERIFORM_RATELIMIT_BURST",
		"sweeper.enabled":              "VERIFORM_SWEEPER_ENABLED",
		"sweeper.interval":             "VERIFORM_SWEEPER_INTERVAL",
		"sweeper.stale_after":          "VERIFORM_SWEEPER_STALE_AFTER",
		"sweeper.batch_size":           "VERIFORM_SWEEPER_BATCH_SIZE",
		"sweeper.schedule":             "VERIFORM_SWEEPER_SCHEDULE",
		"redis.enabled":                "VERIFORM_REDIS_ENABLED",
		"redis.addr":                   "VERIFORM_REDIS_ADDR",
		"redis.password":               "VERIFORM_REDIS_PASSWORD",
		"redis.db":                     "VERIFORM_REDIS_DB",
		"redis.concurrency":            "VERIFORM_REDIS_CONCURRENCY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Platforms like Railway set PORT. Use it if VERIFORM_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("VERIFORM_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:            v.GetString("s3.region"),
		Endpoint:          v.GetString("s3.endpoint"),
		AccessKey:         v.GetString("s3.access_key"),
		SecretKey:         v.GetString("s3.secret_key"),
		AttachmentsBucket: v.GetString("s3.attachments_bucket"),
		KnownBuckets:      splitList(v.GetString("s3.known_buckets")),
		DefaultBucket:     v.GetString("s3.default_bucket"),
		PublicBaseURL:     strings.TrimRight(v.GetString("s3.public_base_url"), "/"),
		MaxFileSizeMB:     v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry:     v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Validation = ValidationConfig{
		WebhookURL:      v.GetString("validation.webhook_url"),
		WebhookToken:    v.GetString("validation.webhook_token"),
		CallbackURL:     v.GetString("validation.callback_url"),
		CallbackToken:   v.GetString("validation.callback_token"),
		Timeout:         v.GetDuration("validation.timeout"),
		PollInterval:    v.GetDuration("validation.poll_interval"),
		PollMaxAttempts: v.GetInt("validation.poll_max_attempts"),
	}
	cfg.Cleanup = CleanupConfig{
		UseRPC: v.GetBool("cleanup.use_rpc"),
	}
	cfg.RateLimit = RateLimitConfig{
		RPS:   v.GetFloat64("ratelimit.rps"),
		Burst: v.GetInt("ratelimit.burst"),
	}
	cfg.Sweeper = SweeperConfig{
		Enabled:    v.GetBool("sweeper.enabled"),
		Interval:   v.GetDuration("sweeper.interval"),
		StaleAfter: v.GetDuration("sweeper.stale_after"),
		BatchSize:  v.GetInt("sweeper.batch_size"),
		Schedule:   strings.TrimSpace(v.GetString("sweeper.schedule")),
	}
	cfg.Redis = RedisConfig{
		Enabled:     v.GetBool("redis.enabled"),
		Addr:        v.GetString("redis.addr"),
		Password:    v.GetString("redis.password"),
		DB:          v.GetInt("redis.db"),
		Concurrency: v.GetInt("redis.concurrency"),
	}

	if cfg.Validation.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("config: validation.poll_max_attempts must be positive")
	}
	if cfg.Validation.Timeout <= 0 {
		return nil, fmt.Errorf("config: validation.timeout must be positive")
	}

	return cfg, nil
}
