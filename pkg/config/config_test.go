package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "tax-shipping", cfg.Server.CartMode)
	assert.False(t, cfg.SMTPEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "bakeshop.yaml", `
server:
  port: 9000
database:
  type: postgres
  path: postgres://bakery@localhost/bakery
email:
  bakery_email: owner@example.com
  smtp:
    host: mail.example.com
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "owner@example.com", cfg.Email.BakeryEmail)
	assert.Equal(t, "orders@bakeshop.local", cfg.Email.From)
	assert.Equal(t, 587, cfg.Email.SMTP.Port)
	assert.True(t, cfg.SMTPEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, "broken.yaml", "server: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "bakeshop.yaml", "server:\n  port: 9000\nstripe:\n  secret_key: sk_from_file\n")
	t.Setenv("PORT", "9100")
	t.Setenv("STRIPE_SECRET_KEY", "sk_from_env")
	t.Setenv("BAKERY_PHONE", "203-555-0100")
	t.Setenv("ADMIN_TOKEN", "kitchen-door")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sk_from_env", cfg.Stripe.SecretKey)
	assert.Equal(t, "203-555-0100", cfg.Email.BakeryPhone)
	assert.Equal(t, "kitchen-door", cfg.Admin.Token)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("gmail credentials pick the gmail relay", func(t *testing.T) {
		t.Setenv("EMAIL_USER", "bakery@gmail.com")
		t.Setenv("EMAIL_PASSWORD", "app-password")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "smtp.gmail.com", cfg.Email.SMTP.Host)
		assert.Equal(t, "bakery@gmail.com", cfg.Email.SMTP.Username)
		assert.Equal(t, "app-password", cfg.Email.SMTP.Password)
	})

	t.Run("SMTP_HOST wins over the gmail default", func(t *testing.T) {
		t.Setenv("EMAIL_USER", "bakery@gmail.com")
		t.Setenv("SMTP_HOST", "relay.internal")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "relay.internal", cfg.Email.SMTP.Host)
	})

	t.Run("DATABASE_URL selects postgres", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/bakery")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "postgres", cfg.Database.Type)
		assert.Equal(t, "postgres://localhost/bakery", cfg.Database.Path)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		cfg := DefaultConfig()
		assert.Error(t, cfg.applyEnvOverrides())
	})
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "BAKESHOP_TEST_FROM_FILE=loaded\nBAKESHOP_TEST_PRESET=from-file\n")
	t.Setenv("BAKESHOP_TEST_PRESET", "from-env")
	t.Cleanup(func() { os.Unsetenv("BAKESHOP_TEST_FROM_FILE") })

	require.NoError(t, LoadEnvFile(path, true))
	assert.Equal(t, "loaded", os.Getenv("BAKESHOP_TEST_FROM_FILE"))
	assert.Equal(t, "from-env", os.Getenv("BAKESHOP_TEST_PRESET"))

	missing := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, LoadEnvFile(missing, false))
	assert.Error(t, LoadEnvFile(missing, true))
	assert.NoError(t, LoadEnvFile("", true))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 70000
	cfg.Database.Type = "oracle"
	cfg.Server.CartMode = "barter"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 70000")
	assert.Contains(t, err.Error(), "oracle")
	assert.Contains(t, err.Error(), "barter")

	cfg = DefaultConfig()
	cfg.Database.Type = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.Port = 0
	cfg.Server.Domain = "bakery.example.com"
	assert.NoError(t, cfg.Validate())
}
