package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Public URL of the browser front-end, used in receipt emails
	BaseURL string

	// Origins allowed to call the API from a browser
	CORSAllowedOrigins []string

	// Identity provider (Supabase-style HS256 access tokens)
	AuthJWTSecret string
	AuthIssuer    string // Optional; checked when set
	AuthAudience  string // Optional; checked when set

	// AI Provider Configuration
	AIProvider       string // "anthropic", "openai", or "mock"
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	OpenAIAPIKey     string
	OpenAIModel      string
	AIRequestTimeout time.Duration

	// Razorpay gateway
	// Order creation and verification fail closed when these are empty.
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayAPIURL    string

	// Pro plan pricing, in major currency units
	ProMonthlyAmount int64
	ProYearlyAmount  int64
	ProCurrency      string

	// Free tier
	FreeDailyLimit int

	// Storage Configuration (payment receipts)
	StorageProvider string // "local" or "r2"

	LocalStoragePath string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2Endpoint        string // Optional; overrides the account endpoint

	// SMTP Configuration (receipt emails). Disabled when SMTPHost is empty.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Rate limiting for the generation and payment endpoints.
	// When RedisURL is set the limit is shared across instances.
	RedisURL           string
	GenerateRateLimit  int
	GenerateRateWindow time.Duration
	PaymentRateLimit   int
	PaymentRateWindow  time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		BaseURL:            getEnv("BASE_URL", "http://localhost:5173"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),

		AuthJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		AuthIssuer:    getEnv("AUTH_ISSUER", ""),
		AuthAudience:  getEnv("AUTH_AUDIENCE", "authenticated"),

		// AI provider defaults
		AIProvider:       getEnv("AI_PROVIDER", "mock"),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1/messages"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 20*time.Second),

		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayAPIURL:    getEnv("RAZORPAY_API_URL", "https://api.razorpay.com"),

		ProMonthlyAmount: getEnvInt64("PRO_MONTHLY_AMOUNT", 30),
		ProYearlyAmount:  getEnvInt64("PRO_YEARLY_AMOUNT", 350),
		ProCurrency:      strings.ToUpper(getEnv("PRO_CURRENCY", "INR")),

		FreeDailyLimit: getEnvInt("FREE_DAILY_LIMIT", 3),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2Endpoint:        getEnv("R2_ENDPOINT", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "billing@smartmail.app"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "SmartMail AI"),

		RedisURL:           getEnv("REDIS_URL", ""),
		GenerateRateLimit:  getEnvInt("GENERATE_RATE_LIMIT", 20),
		GenerateRateWindow: getEnvDuration("GENERATE_RATE_WINDOW", time.Minute),
		PaymentRateLimit:   getEnvInt("PAYMENT_RATE_LIMIT", 10),
		PaymentRateWindow:  getEnvDuration("PAYMENT_RATE_WINDOW", time.Minute),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" && cfg.R2Endpoint == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID or R2_ENDPOINT is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	// Credentials are checked per request so a missing key only disables its endpoint.
	switch cfg.AIProvider {
	case "anthropic", "openai", "mock":
	default:
		return nil, fmt.Errorf("AI_PROVIDER must be 'anthropic', 'openai', or 'mock', got: %s", cfg.AIProvider)
	}

	if cfg.FreeDailyLimit < 0 {
		return nil, fmt.Errorf("FREE_DAILY_LIMIT must not be negative")
	}
	if cfg.ProMonthlyAmount <= 0 || cfg.ProYearlyAmount <= 0 {
		return nil, fmt.Errorf("PRO_MONTHLY_AMOUNT and PRO_YEARLY_AMOUNT must be positive")
	}
	if cfg.GenerateRateLimit <= 0 || cfg.GenerateRateWindow <= 0 {
		return nil, fmt.Errorf("GENERATE_RATE_LIMIT and GENERATE_RATE_WINDOW must be positive")
	}
	if cfg.PaymentRateLimit <= 0 || cfg.PaymentRateWindow <= 0 {
		return nil, fmt.Errorf("PAYMENT_RATE_LIMIT and PAYMENT_RATE_WINDOW must be positive")
	}

	return cfg, nil
}

// BillingEnabled reports whether the payment gateway credentials are present.
func (c *Config) BillingEnabled() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}

// MockProviderAllowed reports whether the canned mock text provider may serve
// generations. Outside development it is treated as a missing provider.
func (c *Config) MockProviderAllowed() bool {
	return c.Env == "development"
}

// SMTPEnabled reports whether receipt emails can be sent.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList parses a comma-separated variable, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
