package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-jwt-secret"

var ErrParsingConfig = errors.New("failed to parse config")

type Config struct {
	AppEnv      string   `env:"APP_ENV" envDefault:"dev"`
	Port        string   `env:"PORT" envDefault:"8080"`
	BaseURL     string   `env:"APP_BASE_URL"`
	DatabaseURL string   `env:"DATABASE_URL" envDefault:"file:contacts.db?_pragma=busy_timeout(5000)"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string   `env:"LOG_FORMAT"`

	RequireEmailVerification bool `env:"REQUIRE_EMAIL_VERIFICATION" envDefault:"true"`

	JWT       JWTConfig       `envPrefix:"JWT_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Mail      MailConfig      `envPrefix:"POSTMARK_"`
	Storage   StorageConfig
}

type JWTConfig struct {
	Secret          string        `env:"SECRET" envDefault:"change-me-jwt-secret"`
	Algorithm       string        `env:"ALGORITHM" envDefault:"HS256"`
	AccessTTL       time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	RefreshTTL      time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
	VerificationTTL time.Duration `env:"VERIFICATION_TTL" envDefault:"15m"`
	ResetTTL        time.Duration `env:"RESET_TTL" envDefault:"15m"`
}

type RedisConfig struct {
	URL            string        `env:"URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"30s"`
	ProfileTTL     time.Duration `env:"PROFILE_TTL" envDefault:"1h"`
}

type RateLimitConfig struct {
	Requests int           `env:"REQUESTS" envDefault:"5"`
	Window   time.Duration `env:"WINDOW" envDefault:"60s"`
}

// MailConfig selects Postmark when ServerToken is set, the console sender otherwise.
type MailConfig struct {
	ServerToken  string `env:"SERVER_TOKEN"`
	AccountToken string `env:"ACCOUNT_TOKEN"`
	SenderEmail  string `env:"SENDER_EMAIL" envDefault:"no-reply@contacts.local"`
	SupportEmail string `env:"SUPPORT_EMAIL"`
}

// StorageConfig selects S3 when S3Bucket is set, local disk otherwise.
type StorageConfig struct {
	S3Bucket         string `env:"S3_BUCKET"`
	S3Region         string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"S3_SECRET_ACCESS_KEY"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3BaseURL        string `env:"S3_PUBLIC_URL"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE"`
	UploadDir        string `env:"UPLOAD_DIR" envDefault:"public"`
	StaticPrefix     string `env:"STATIC_PREFIX" envDefault:"/static"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
		if cfg.IsProdLike() {
			cfg.LogFormat = "json"
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func (c *Config) UseS3() bool {
	return c.Storage.S3Bucket != ""
}

func (c *Config) UsePostmark() bool {
	return c.Mail.ServerToken != ""
}

func validateConfig(cfg *Config) error {
	if cfg.JWT.AccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("JWT_REFRESH_TTL must be > 0")
	}
	if cfg.JWT.VerificationTTL <= 0 {
		return fmt.Errorf("JWT_VERIFICATION_TTL must be > 0")
	}
	if cfg.JWT.ResetTTL <= 0 {
		return fmt.Errorf("JWT_RESET_TTL must be > 0")
	}
	switch cfg.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("JWT_ALGORITHM must be one of: HS256, HS384, HS512")
	}
	if cfg.Redis.ProfileTTL <= 0 {
		return fmt.Errorf("REDIS_PROFILE_TTL must be > 0")
	}
	if cfg.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, text")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWT.Secret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if len(cfg.JWT.Secret) < 32 {
			return fmt.Errorf("in prod/release JWT_SECRET must be at least 32 bytes")
		}
		if cfg.BaseURL == "" {
			return fmt.Errorf("in prod/release APP_BASE_URL must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
