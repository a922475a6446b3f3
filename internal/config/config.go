package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is built once in Load and
// passed explicitly to every component; nothing reads configuration
// ambiently after startup.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	S3         S3Config
	Log        LogConfig
	LLM        LLMConfig
	Extraction ExtractionConfig
	Queue      QueueConfig
	OrderAPI   OrderAPIConfig
	CORS       CORSConfig
	Email      EmailConfig
}

// LLMProviderConfig holds settings for a single LLM provider.
type LLMProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Configured reports whether this provider has usable credentials.
func (p *LLMProviderConfig) Configured() bool {
	return p.Provider != "" && p.APIKey != ""
}

// LLMConfig holds language-model client settings with primary/secondary
// provider fallback.
type LLMConfig struct {
	Primary   LLMProviderConfig `mapstructure:"primary"`
	Secondary LLMProviderConfig `mapstructure:"secondary"`
}

// Configured reports whether at least one provider has credentials.
func (l *LLMConfig) Configured() bool {
	return l.Primary.Configured() || l.Secondary.Configured()
}

// ExtractionConfig holds extraction engine settings.
type ExtractionConfig struct {
	// Mode selects the strategy family: deterministic, llm, or agentic.
	Mode                  string  `mapstructure:"mode"`
	ProcessingMode        string  `mapstructure:"processing_mode"`
	RequireValidation     bool    `mapstructure:"require_validation"`
	ValidationThreshold   float64 `mapstructure:"validation_threshold"`
	MaxCorrectionAttempts int     `mapstructure:"max_correction_attempts"`
	ReviewThreshold       float64 `mapstructure:"review_threshold"`
	MaxTokens             int     `mapstructure:"max_tokens"`
	Temperature           float64 `mapstructure:"temperature"`
}

// QueueConfig holds extraction queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// OrderAPIConfig holds downstream order submission API settings.
type OrderAPIConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EmailConfig holds review alert email settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	ReviewList  string `mapstructure:"review_list"`
	ConsoleURL  string `mapstructure:"console_url"`
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

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer             string        `mapstructure:"issuer"`
}

// S3Config holds note archive storage settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxNoteSizeKB int64  `mapstructure:"max_note_size_kb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the DMEFLOW prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DMEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "dmeflow")
	v.SetDefault("db.password", "dmeflow_secret")
	v.SetDefault("db.name", "dmeflow_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.refresh_expiry", "168h")
	v.SetDefault("jwt.issuer", "dmeflow")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "dmeflow-notes")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_note_size_kb", 512)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 5)
	v.SetDefault("queue.concurrency", 5)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@dmeflow.io")
	v.SetDefault("email.from_name", "DMEFlow")
	v.SetDefault("email.review_list", "")
	v.SetDefault("email.console_url", "http://localhost:3000")

	// LLM provider defaults
	v.SetDefault("llm.primary.provider", "")
	v.SetDefault("llm.primary.api_key", "")
	v.SetDefault("llm.primary.model", "")
	v.SetDefault("llm.primary.timeout_secs", 120)
	v.SetDefault("llm.secondary.provider", "")
	v.SetDefault("llm.secondary.api_key", "")
	v.SetDefault("llm.secondary.model", "")
	v.SetDefault("llm.secondary.timeout_secs", 120)

	// Extraction defaults
	v.SetDefault("extraction.mode", "deterministic")
	v.SetDefault("extraction.processing_mode", "standard")
	v.SetDefault("extraction.require_validation", true)
	v.SetDefault("extraction.validation_threshold", 0.7)
	v.SetDefault("extraction.max_correction_attempts", 1)
	v.SetDefault("extraction.review_threshold", 0.6)
	v.SetDefault("extraction.max_tokens", 1024)
	v.SetDefault("extraction.temperature", 0.1)

	// Order API defaults
	v.SetDefault("order_api.base_url", "")
	v.SetDefault("order_api.api_key", "")
	v.SetDefault("order_api.timeout_secs", 30)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                        "DMEFLOW_SERVER_PORT",
		"server.read_timeout":                "DMEFLOW_SERVER_READ_TIMEOUT",
		"server.write_timeout":               "DMEFLOW_SERVER_WRITE_TIMEOUT",
		"server.environment":                 "DMEFLOW_SERVER_ENVIRONMENT",
		"db.host":                            "DMEFLOW_DB_HOST",
		"db.port":                            "DMEFLOW_DB_PORT",
		"db.user":                            "DMEFLOW_DB_USER",
		"db.password":                        "DMEFLOW_DB_PASSWORD",
		"db.name":                            "DMEFLOW_DB_NAME",
		"db.sslmode":                         "DMEFLOW_DB_SSLMODE",
		"db.max_open":                        "DMEFLOW_DB_MAX_OPEN",
		"db.max_idle":                        "DMEFLOW_DB_MAX_IDLE",
		"jwt.secret":                         "DMEFLOW_JWT_SECRET",
		"jwt.access_expiry":                  "DMEFLOW_JWT_ACCESS_EXPIRY",
		"jwt.refresh_expiry":                 "DMEFLOW_JWT_REFRESH_EXPIRY",
		"jwt.issuer":                         "DMEFLOW_JWT_ISSUER",
		"s3.region":                          "DMEFLOW_S3_REGION",
		"s3.bucket":                          "DMEFLOW_S3_BUCKET",
		"s3.endpoint":                        "DMEFLOW_S3_ENDPOINT",
		"s3.access_key":                      "DMEFLOW_S3_ACCESS_KEY",
		"s3.secret_key":                      "DMEFLOW_S3_SECRET_KEY",
		"s3.max_note_size_kb":                "DMEFLOW_S3_MAX_NOTE_SIZE_KB",
		"s3.presign_expiry":                  "DMEFLOW_S3_PRESIGN_EXPIRY",
		"log.level":                          "DMEFLOW_LOG_LEVEL",
		"log.format":                         "DMEFLOW_LOG_FORMAT",
		"cors.allowed_origins":               "DMEFLOW_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":           "DMEFLOW_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":                  "DMEFLOW_QUEUE_MAX_RETRIES",
		"queue.concurrency":                  "DMEFLOW_QUEUE_CONCURRENCY",
		"llm.primary.provider":               "DMEFLOW_LLM_PRIMARY_PROVIDER",
		"llm.primary.api_key":                "DMEFLOW_LLM_PRIMARY_API_KEY",
		"llm.primary.model":                  "DMEFLOW_LLM_PRIMARY_MODEL",
		"llm.primary.timeout_secs":           "DMEFLOW_LLM_PRIMARY_TIMEOUT_SECS",
		"llm.secondary.provider":             "DMEFLOW_LLM_SECONDARY_PROVIDER",
		"llm.secondary.api_key":              "DMEFLOW_LLM_SECONDARY_API_KEY",
		"llm.secondary.model":                "DMEFLOW_LLM_SECONDARY_MODEL",
		"llm.secondary.timeout_secs":         "DMEFLOW_LLM_SECONDARY_TIMEOUT_SECS",
		"extraction.mode":                    "DMEFLOW_EXTRACTION_MODE",
		"extraction.processing_mode":         "DMEFLOW_EXTRACTION_PROCESSING_MODE",
		"extraction.require_validation":      "DMEFLOW_EXTRACTION_REQUIRE_VALIDATION",
		"extraction.validation_threshold":    "DMEFLOW_EXTRACTION_VALIDATION_THRESHOLD",
		"extraction.max_correction_attempts": "DMEFLOW_EXTRACTION_MAX_CORRECTION_ATTEMPTS",
		"extraction.review_threshold":        "DMEFLOW_EXTRACTION_REVIEW_THRESHOLD",
		"extraction.max_tokens":              "DMEFLOW_EXTRACTION_MAX_TOKENS",
		"extraction.temperature":             "DMEFLOW_EXTRACTION_TEMPERATURE",
		"order_api.base_url":                 "DMEFLOW_ORDER_API_BASE_URL",
		"order_api.api_key":                  "DMEFLOW_ORDER_API_API_KEY",
		"order_api.timeout_secs":             "DMEFLOW_ORDER_API_TIMEOUT_SECS",
		"email.provider":                     "DMEFLOW_EMAIL_PROVIDER",
		"email.region":                       "DMEFLOW_EMAIL_REGION",
		"email.from_address":                 "DMEFLOW_EMAIL_FROM_ADDRESS",
		"email.from_name":                    "DMEFLOW_EMAIL_FROM_NAME",
		"email.review_list":                  "DMEFLOW_EMAIL_REVIEW_LIST",
		"email.console_url":                  "DMEFLOW_EMAIL_CONSOLE_URL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DMEFLOW_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DMEFLOW_SERVER_PORT") == "" {
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
		Secret:             v.GetString("jwt.secret"),
		AccessTokenExpiry:  v.GetDuration("jwt.access_expiry"),
		RefreshTokenExpiry: v.GetDuration("jwt.refresh_expiry"),
		Issuer:             v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxNoteSizeKB: v.GetInt64("s3.max_note_size_kb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("cors.allowed_origins")),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}
	cfg.LLM = LLMConfig{
		Primary: LLMProviderConfig{
			Provider:    v.GetString("llm.primary.provider"),
			APIKey:      v.GetString("llm.primary.api_key"),
			Model:       v.GetString("llm.primary.model"),
			TimeoutSecs: v.GetInt("llm.primary.timeout_secs"),
		},
		Secondary: LLMProviderConfig{
			Provider:    v.GetString("llm.secondary.provider"),
			APIKey:      v.GetString("llm.secondary.api_key"),
			Model:       v.GetString("llm.secondary.model"),
			TimeoutSecs: v.GetInt("llm.secondary.timeout_secs"),
		},
	}
	cfg.Extraction = ExtractionConfig{
		Mode:                  v.GetString("extraction.mode"),
		ProcessingMode:        v.GetString("extraction.processing_mode"),
		RequireValidation:     v.GetBool("extraction.require_validation"),
		ValidationThreshold:   v.GetFloat64("extraction.validation_threshold"),
		MaxCorrectionAttempts: v.GetInt("extraction.max_correction_attempts"),
		ReviewThreshold:       v.GetFloat64("extraction.review_threshold"),
		MaxTokens:             v.GetInt("extraction.max_tokens"),
		Temperature:           v.GetFloat64("extraction.temperature"),
	}
	cfg.OrderAPI = OrderAPIConfig{
		BaseURL:     v.GetString("order_api.base_url"),
		APIKey:      v.GetString("order_api.api_key"),
		TimeoutSecs: v.GetInt("order_api.timeout_secs"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		ReviewList:  v.GetString("email.review_list"),
		ConsoleURL:  v.GetString("email.console_url"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Extraction.Mode {
	case "deterministic", "llm", "agentic":
	default:
		return fmt.Errorf("invalid extraction.mode %q (want deterministic, llm, or agentic)", c.Extraction.Mode)
	}
	switch c.Extraction.ProcessingMode {
	case "fast", "standard", "thorough":
	default:
		return fmt.Errorf("invalid extraction.processing_mode %q (want fast, standard, or thorough)", c.Extraction.ProcessingMode)
	}
	if c.Extraction.ValidationThreshold < 0 || c.Extraction.ValidationThreshold > 1 {
		return fmt.Errorf("extraction.validation_threshold must be in [0,1], got %v", c.Extraction.ValidationThreshold)
	}
	if c.Extraction.MaxCorrectionAttempts < 0 {
		return fmt.Errorf("extraction.max_correction_attempts must be >= 0, got %d", c.Extraction.MaxCorrectionAttempts)
	}
	if c.Server.Environment == "production" && c.JWT.Secret == "change-me-in-production" {
		return fmt.Errorf("jwt.secret must be set in production")
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
