// Package config loads service configuration from built-in defaults, an optional
// .env file and the process environment, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Paystack PaystackConfig `koanf:"paystack"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
	SMTP     SMTPConfig     `koanf:"smtp"`
}

type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required"`
	AppURL          string        `koanf:"app_url" validate:"required,url"` // public storefront URL, used for gateway callbacks
	CORSOrigins     string        `koanf:"cors_origins"`                    // comma separated, "*" allows any
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver" validate:"oneof=postgres sqlite"`
	URL      string `koanf:"url"` // DSN; overrides the discrete fields below
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
}

type PaystackConfig struct {
	SecretKey string        `koanf:"secret_key" validate:"required"`
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	Timeout   time.Duration `koanf:"timeout"`
}

type AuthConfig struct {
	JWTSecret   string `koanf:"jwt_secret" validate:"required"`
	AdminAPIKey string `koanf:"admin_api_key" validate:"required"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

type SMTPConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	User       string `koanf:"user"`
	Password   string `koanf:"password"`
	From       string `koanf:"from"`
	AdminEmail string `koanf:"admin_email"`
}

// Enabled mirrors the storefront rule: mail is sent only when every SMTP setting is present.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.User != "" && s.Password != "" && s.From != "" && s.AdminEmail != ""
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Driver == "sqlite" {
		return "storefront.db"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// AllowedOrigins splits CORSOrigins into a list.
func (s ServerConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			CORSOrigins:     "*",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Port:    "5432",
			SSLMode: "disable",
		},
		Paystack: PaystackConfig{
			BaseURL: "https://api.paystack.co",
			Timeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
	}
}

// envKeys maps the flat environment variable names used in deployment to koanf paths.
var envKeys = map[string]string{
	"PORT":                "server.port",
	"APP_URL":             "server.app_url",
	"NEXT_PUBLIC_APP_URL": "server.app_url",
	"CORS_ORIGINS":        "server.cors_origins",
	"SHUTDOWN_TIMEOUT":    "server.shutdown_timeout",
	"DB_DRIVER":           "database.driver",
	"DATABASE_URL":        "database.url",
	"DB_HOST":             "database.host",
	"DB_PORT":             "database.port",
	"DB_USER":             "database.user",
	"DB_PASSWORD":         "database.password",
	"DB_NAME":             "database.name",
	"DB_SSLMODE":          "database.sslmode",
	"PAYSTACK_SECRET_KEY": "paystack.secret_key",
	"PAYSTACK_BASE_URL":   "paystack.base_url",
	"PAYSTACK_TIMEOUT":    "paystack.timeout",
	"JWT_SECRET":          "auth.jwt_secret",
	"COST_API_KEY":        "auth.admin_api_key",
	"LOG_LEVEL":           "log.level",
	"LOG_FORMAT":          "log.format",
	"SMTP_HOST":           "smtp.host",
	"SMTP_PORT":           "smtp.port",
	"SMTP_USER":           "smtp.user",
	"SMTP_PASS":           "smtp.password",
	"SMTP_FROM":           "smtp.from",
	"ADMIN_EMAIL":         "smtp.admin_email",
}

// envTransform returns "" for unknown variables so koanf skips them.
func envTransform(key string) string {
	return envKeys[key]
}

// Load reads defaults, then .env (if present), then the environment, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	return validate.Struct(c)
}
