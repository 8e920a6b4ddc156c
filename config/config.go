// Package config reads config.yml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"go-donations/battlemetrics"
	"go-donations/cftools"
	"go-donations/discord"
	"go-donations/log"
	"go-donations/payment/paypal"
	"go-donations/perk"
)

const DefaultFile = "config.yml"

type Config struct {
	App           AppConfig            `yaml:"app"`
	Log           log.Config           `yaml:"log"`
	Database      DatabaseConfig       `yaml:"database"`
	Redis         RedisConfig          `yaml:"redis"`
	Discord       discord.Config       `yaml:"discord"`
	CFTools       cftools.Config       `yaml:"cftools"`
	BattleMetrics battlemetrics.Config `yaml:"battlemetrics"`
	PayPal        paypal.Config        `yaml:"paypal"`
	ServerNames   perk.ServerNames     `yaml:"serverNames"`
	Packages      []perk.PackageConfig `yaml:"packages"`

	// Warnings collects suspicious but accepted settings found while loading.
	Warnings []string `yaml:"-"`
}

type AppConfig struct {
	Port           int             `yaml:"port"`
	PublicURL      string          `yaml:"publicUrl"`
	SessionSecret  string          `yaml:"sessionSecret"`
	TokenTTL       time.Duration   `yaml:"tokenTtl"`
	CORSOrigins    []string        `yaml:"corsOrigins"`
	// WebhookToken guards the endpoint the provider integration reports
	// subscription payments to. Empty disables the endpoint.
	WebhookToken   string          `yaml:"webhookToken"`
	CaptureEvery   time.Duration   `yaml:"captureEvery"`
	PaymentTimeout time.Duration   `yaml:"paymentTimeout"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

func Default() Config {
	return Config{
		App: AppConfig{
			Port:           8080,
			TokenTTL:       24 * time.Hour,
			CaptureEvery:   15 * time.Minute,
			PaymentTimeout: 72 * time.Hour,
			RateLimit: RateLimitConfig{
				Requests: 15,
				Window:   time.Minute,
			},
		},
		Log:      log.Config{Level: "info", File: log.DefaultFile},
		Database: DatabaseConfig{DSN: "sqlite:donations.db"},
		PayPal:   paypal.Config{Environment: paypal.EnvironmentSandbox},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := Parse(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes data into cfg and records warnings for Discord snowflakes
// written as YAML numbers.
func Parse(data []byte, cfg *Config) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}
	if err := root.Decode(cfg); err != nil {
		return err
	}
	cfg.Warnings = append(cfg.Warnings, numericSnowflakes(&root)...)
	return nil
}

func (c Config) Validate() error {
	if c.App.SessionSecret == "" {
		return errors.New("app.sessionSecret can not be empty, choose an individual random secret")
	}
	if _, err := c.PublicURL(); err != nil {
		return err
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port %d is out of range", c.App.Port)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn can not be empty")
	}
	switch c.PayPal.Environment {
	case paypal.EnvironmentSandbox, paypal.EnvironmentLive:
	default:
		return fmt.Errorf("paypal.environment must be %q or %q, got %q",
			paypal.EnvironmentSandbox, paypal.EnvironmentLive, c.PayPal.Environment)
	}
	return nil
}

// PublicURL is the absolute http(s) URL the service is reachable at.
func (c Config) PublicURL() (*url.URL, error) {
	u, err := url.Parse(c.App.PublicURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("app.publicUrl must be an absolute http(s) URL, got %q", c.App.PublicURL)
	}
	return u, nil
}

func applyEnvOverrides(cfg *Config) error {
	overrideString("DONATIONS_PUBLIC_URL", &cfg.App.PublicURL)
	overrideString("DONATIONS_SESSION_SECRET", &cfg.App.SessionSecret)
	overrideString("DONATIONS_WEBHOOK_TOKEN", &cfg.App.WebhookToken)
	overrideString("DONATIONS_DATABASE_DSN", &cfg.Database.DSN)
	overrideString("DONATIONS_LOG_LEVEL", &cfg.Log.Level)
	overrideString("REDIS_ADDR", &cfg.Redis.Addr)
	overrideString("REDIS_PASSWORD", &cfg.Redis.Password)
	overrideString("DISCORD_BOT_TOKEN", &cfg.Discord.Token)
	overrideString("CFTOOLS_APPLICATION_ID", &cfg.CFTools.ApplicationID)
	overrideString("CFTOOLS_SECRET", &cfg.CFTools.Secret)
	overrideString("BATTLEMETRICS_ACCESS_TOKEN", &cfg.BattleMetrics.AccessToken)
	overrideString("PAYPAL_CLIENT_ID", &cfg.PayPal.ClientID)
	overrideString("PAYPAL_SECRET", &cfg.PayPal.Secret)
	overrideString("PAYPAL_ENVIRONMENT", &cfg.PayPal.Environment)

	if err := overrideInt("DONATIONS_PORT", &cfg.App.Port); err != nil {
		return err
	}
	return overrideInt("REDIS_DB", &cfg.Redis.DB)
}

func overrideString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = n
	return nil
}
