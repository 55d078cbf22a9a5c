package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrInvalidConfig marks configuration that must stop startup.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration.
type Config struct {
	Port            string   `env:"PORT"               envDefault:"5000"`
	Env             string   `env:"ENV"                envDefault:"dev"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	PublicBaseURL   string   `env:"PUBLIC_BASE_URL"`
	MaxUploadBytes  int64    `env:"MAX_UPLOAD_BYTES"   envDefault:"10485760"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL"    envDefault:"24h"`

	RecordStore string `env:"RECORD_STORE" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	MongoURI    string `env:"MONGO_URI"`
	MongoDB     string `env:"MONGO_DB"     envDefault:"smartpdf"`

	ObjectStoreType string `env:"OBJECT_STORE"    envDefault:"local"`
	LocalStoreDir   string `env:"LOCAL_STORE_DIR" envDefault:"./uploads"`
	AWSRegion       string `env:"AWS_REGION"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3Prefix        string `env:"S3_PREFIX"`
	SSEKMSKeyID     string `env:"SSE_KMS_KEY_ID"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	MinioEndpoint   string `env:"MINIO_ENDPOINT"`
	MinioAccessKey  string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey  string `env:"MINIO_SECRET_KEY"`
	MinioBucket     string `env:"MINIO_BUCKET"    envDefault:"smartpdf"`
	MinioUseSSL     bool   `env:"MINIO_USE_SSL"`

	SummarizerProvider string        `env:"SUMMARIZER_PROVIDER" envDefault:"gemini"`
	SummarizerModel    string        `env:"SUMMARIZER_MODEL"`
	SummarizerBaseURL  string        `env:"SUMMARIZER_BASE_URL"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	AnthropicAPIKey    string        `env:"ANTHROPIC_API_KEY"`
	SummarizerTimeout  time.Duration `env:"SUMMARIZER_TIMEOUT"  envDefault:"60s"`
	SummaryTimeout     time.Duration `env:"SUMMARY_TIMEOUT"     envDefault:"90s"`
	SummaryRatePerSec  float64       `env:"SUMMARY_RATE_PER_SEC" envDefault:"0.5"`
	SummaryRateBurst   int           `env:"SUMMARY_RATE_BURST"  envDefault:"5"`

	RedisURL       string        `env:"REDIS_URL"`
	SummaryLockTTL time.Duration `env:"SUMMARY_LOCK_TTL" envDefault:"2m"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"   envDefault:"smartpdf.documents"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
	UIRedirectURL      string `env:"UI_REDIRECT_URL"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize canonicalizes enum-like values.
func (c *Config) Normalize() {
	c.Env = normalizeEnv(c.Env)
	c.RecordStore = normalizeRecordStore(c.RecordStore)
	c.ObjectStoreType = normalizeStoreType(c.ObjectStoreType)
	c.SummarizerProvider = normalizeProvider(c.SummarizerProvider)
	c.CORSAllowOrigin = trimAll(c.CORSAllowOrigin)
	c.KafkaBrokers = trimAll(c.KafkaBrokers)
	c.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/")
}

// Validate checks cross-field consistency and the settings production cannot run without.
func (c Config) Validate() error {
	// The summary lock must outlive one summary computation.
	if strings.TrimSpace(c.RedisURL) != "" && c.SummaryLockTTL <= c.SummaryTimeout {
		return fmt.Errorf("%w: SUMMARY_LOCK_TTL (%s) must be longer than SUMMARY_TIMEOUT (%s)",
			ErrInvalidConfig, c.SummaryLockTTL, c.SummaryTimeout)
	}
	if !c.IsProduction() {
		return nil
	}
	var missing []string
	if strings.TrimSpace(c.JWTSecret) == "" {
		missing = append(missing, "JWT_SECRET")
	}
	switch c.RecordStore {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case "mongo":
		if strings.TrimSpace(c.MongoURI) == "" {
			missing = append(missing, "MONGO_URI")
		}
	}
	if strings.TrimSpace(c.SummarizerAPIKey()) == "" {
		missing = append(missing, providerKeyName(c.SummarizerProvider))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required in production", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction reports whether the process runs with production guarantees.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// SummarizerAPIKey returns the credential for the selected provider.
func (c Config) SummarizerAPIKey() string {
	switch c.SummarizerProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return c.GeminiAPIKey
	}
}

func providerKeyName(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

func trimAll(in []string) []string {
	var out []string
	for _, p := range in {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeRecordStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mongo", "mongodb":
		return "mongo"
	case "memory", "mem":
		return "memory"
	default:
		return "postgres"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "anthropic", "claude":
		return "anthropic"
	default:
		return "gemini"
	}
}
