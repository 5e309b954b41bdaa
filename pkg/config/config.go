// Package config loads storefront settings from defaults, a YAML file, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bakeshop/pkg/checkout"
	"bakeshop/pkg/storage"
)

// Config is the complete runtime configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Stripe   StripeConfig   `yaml:"stripe"`
	PayPal   PayPalConfig   `yaml:"paypal"`
	Email    EmailConfig    `yaml:"email"`
	Admin    AdminConfig    `yaml:"admin"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	Domain string `yaml:"domain"` // serve HTTPS on 80/443 when set
	// CartMode picks the totals shown with the cart; checkout always charges the delivery mode.
	CartMode string `yaml:"cart_mode"`
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite or postgres
	Path string `yaml:"path"` // sqlite file, ":memory:" or a postgres DSN
}

type StripeConfig struct {
	SecretKey      string `yaml:"secret_key"`
	PublishableKey string `yaml:"publishable_key"`
	WebhookSecret  string `yaml:"webhook_secret"`
	APIURL         string `yaml:"api_url"`
}

type PayPalConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	BaseURL      string `yaml:"base_url"`
}

type EmailConfig struct {
	From        string     `yaml:"from"`
	BakeryEmail string     `yaml:"bakery_email"`
	BakeryPhone string     `yaml:"bakery_phone"`
	SMTP        SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// AdminConfig guards the order administration endpoints. An empty token
// locks them for everyone.
type AdminConfig struct {
	Token string `yaml:"token"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8765,
			CartMode: string(checkout.ModeTaxShipping),
		},
		Database: DatabaseConfig{
			Type: storage.TypeSQLite,
		},
		PayPal: PayPalConfig{
			BaseURL: "https://api-m.sandbox.paypal.com",
		},
		Email: EmailConfig{
			From:        "orders@bakeshop.local",
			BakeryEmail: "kitchen@bakeshop.local",
			SMTP:        SMTPConfig{Port: 587},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadEnvFile loads KEY=value pairs into the process environment. Variables
// already set win. A missing file is not an error unless required.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path or a missing file yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	setString(&c.Server.Domain, "DOMAIN")
	setString(&c.Server.CartMode, "CART_MODE")
	setString(&c.Database.Type, "DB_TYPE")
	setString(&c.Database.Path, "DB_PATH")
	if v := os.Getenv("DATABASE_URL"); v != "" && c.Database.Path == "" {
		c.Database.Type = storage.TypePostgres
		c.Database.Path = v
	}

	setString(&c.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&c.Stripe.PublishableKey, "STRIPE_PUBLISHABLE_KEY")
	setString(&c.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&c.PayPal.ClientID, "PAYPAL_CLIENT_ID")
	setString(&c.PayPal.ClientSecret, "PAYPAL_CLIENT_SECRET")
	setString(&c.PayPal.BaseURL, "PAYPAL_BASE_URL")

	setString(&c.Email.From, "EMAIL_FROM")
	setString(&c.Email.BakeryEmail, "BAKERY_EMAIL")
	setString(&c.Email.BakeryPhone, "BAKERY_PHONE")
	// EMAIL_USER/EMAIL_PASSWORD are gmail app credentials.
	if user := os.Getenv("EMAIL_USER"); user != "" {
		c.Email.SMTP.Username = user
		if c.Email.SMTP.Host == "" {
			c.Email.SMTP.Host = "smtp.gmail.com"
		}
	}
	setString(&c.Email.SMTP.Password, "EMAIL_PASSWORD")
	setString(&c.Email.SMTP.Host, "SMTP_HOST")
	setString(&c.Email.SMTP.Username, "SMTP_USERNAME")
	setString(&c.Email.SMTP.Password, "SMTP_PASSWORD")
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		c.Email.SMTP.Port = port
	}
	setString(&c.Admin.Token, "ADMIN_TOKEN")
	setString(&c.Logging.Level, "LOG_LEVEL")
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Domain == "" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if _, err := checkout.ParseMode(c.Server.CartMode); err != nil {
		errs = append(errs, err)
	}
	switch c.Database.Type {
	case storage.TypeSQLite:
	case storage.TypePostgres, "pgx":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("postgres needs a connection string in database.path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database type %q", c.Database.Type))
	}
	if c.Email.SMTP.Host != "" && (c.Email.SMTP.Port <= 0 || c.Email.SMTP.Port > 65535) {
		errs = append(errs, fmt.Errorf("smtp port %d out of range", c.Email.SMTP.Port))
	}
	return errors.Join(errs...)
}

// SMTPEnabled reports whether mail should go to a relay instead of the log.
func (c *Config) SMTPEnabled() bool {
	return c.Email.SMTP.Host != ""
}
