package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_URL", "https://shop.example.com")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_123")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("COST_API_KEY", "admin-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://shop.example.com", cfg.Server.AppURL)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "https://api.paystack.co", cfg.Paystack.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Paystack.Timeout)
	assert.Equal(t, "admin-key", cfg.Auth.AdminAPIKey)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("PAYSTACK_TIMEOUT", "3s")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "storefront.db", cfg.Database.DSN())
	assert.Equal(t, 3*time.Second, cfg.Paystack.Timeout)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins())
}

func TestLoadRejectsMissingSecrets(t *testing.T) {
	t.Setenv("APP_URL", "https://shop.example.com")
	t.Setenv("PAYSTACK_SECRET_KEY", "")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("COST_API_KEY", "admin-key")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSNFromFields(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Name: "shop", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=shop port=5432 sslmode=disable", d.DSN())

	d.URL = "postgres://u:p@db/shop"
	assert.Equal(t, "postgres://u:p@db/shop", d.DSN())
}
