package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/models"
)

// EnvironmentLive is the only environment value that selects the live endpoint
const EnvironmentLive = "live"

// Config is the connector configuration. It is loaded once and passed
// to the services that need it.
type Config struct {
	Server struct {
		Port           int    `mapstructure:"port"`
		Mode           string `mapstructure:"mode"`
		AdminLocalOnly bool   `mapstructure:"admin_local_only"`
	} `mapstructure:"server"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Merchant struct {
		ID             string `mapstructure:"id"`
		Secret         string `mapstructure:"secret"`
		ApplicationKey string `mapstructure:"application_key"`
	} `mapstructure:"merchant"`
	Gateway struct {
		Environment     string        `mapstructure:"environment"`
		SandboxEndpoint string        `mapstructure:"sandbox_endpoint"`
		LiveEndpoint    string        `mapstructure:"live_endpoint"`
		Timeout         time.Duration `mapstructure:"timeout"`
		MaxConcurrent   int           `mapstructure:"max_concurrent"`
		Breaker         Breaker       `mapstructure:"breaker"`
	} `mapstructure:"gateway"`
	Shop struct {
		Domain        string `mapstructure:"domain"`
		NotifyURL     string `mapstructure:"notify_url"`
		RedirectURL   string `mapstructure:"redirect_url"` // {orderReference} is substituted
		Source        string `mapstructure:"source"`
		PluginVersion string `mapstructure:"plugin_version"`
		DialCode      string `mapstructure:"dial_code"`
	} `mapstructure:"shop"`
	OrderStates models.OrderStates `mapstructure:"order_states"`
	Database    struct {
		Driver       string `mapstructure:"driver"`
		DSN          string `mapstructure:"dsn"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
	} `mapstructure:"database"`
}

// Breaker configures the gateway circuit breaker
type Breaker struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

var defaults = map[string]any{
	"server.port":             8082,
	"server.mode":             "release",
	"server.admin_local_only": true,

	"log.level":  "info",
	"log.format": "json",

	"merchant.id":              "",
	"merchant.secret":          "",
	"merchant.application_key": "",

	"gateway.environment":           "sandbox",
	"gateway.sandbox_endpoint":      "",
	"gateway.live_endpoint":         "",
	"gateway.timeout":               "30s",
	"gateway.max_concurrent":        10,
	"gateway.breaker.max_requests":  3,
	"gateway.breaker.interval":      "15s",
	"gateway.breaker.timeout":       "30s",
	"gateway.breaker.failure_ratio": 0.6,
	"gateway.breaker.min_requests":  3,

	"shop.domain":         "",
	"shop.notify_url":     "",
	"shop.redirect_url":   "",
	"shop.source":         "PRESTASHOP",
	"shop.plugin_version": "1.0.0",
	"shop.dial_code":      "+94",

	"order_states.payment_accepted": 2,
	"order_states.awaiting_payment": 10,
	"order_states.payment_error":    8,
	"order_states.canceled":         6,

	"database.driver":         "postgres",
	"database.dsn":            "",
	"database.max_open_conns": 10,
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("PAYPLUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the configuration built from defaults and the environment only
func Default() (*Config, error) {
	return decode(newViper())
}

// Load reads the configuration file at path, or searches for payplus.yaml
// when path is empty. Environment variables (PAYPLUS_MERCHANT_SECRET, ...)
// override file values; a .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("payplus")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/payplus")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// IsLive reports whether the live gateway is selected
func (c *Config) IsLive() bool {
	return c.Gateway.Environment == EnvironmentLive
}

// Endpoint returns the session endpoint for the configured environment.
// Anything other than "live" selects the sandbox.
func (c *Config) Endpoint() string {
	if c.IsLive() {
		return c.Gateway.LiveEndpoint
	}
	return c.Gateway.SandboxEndpoint
}

// RedirectURLFor returns the buyer return URL for an order reference
func (c *Config) RedirectURLFor(orderReference string) string {
	return strings.ReplaceAll(c.Shop.RedirectURL, "{orderReference}", url.QueryEscape(orderReference))
}

// Validate checks the merchant credentials and the selected endpoint
func (c *Config) Validate() error {
	var missing []string
	if c.Merchant.ID == "" {
		missing = append(missing, "merchant.id")
	}
	if c.Merchant.Secret == "" {
		missing = append(missing, "merchant.secret")
	}
	if c.Merchant.ApplicationKey == "" {
		missing = append(missing, "merchant.application_key")
	}
	if len(missing) > 0 {
		return apperrors.Configuration("missing merchant configuration: " + strings.Join(missing, ", "))
	}

	endpoint := c.Endpoint()
	u, err := url.Parse(endpoint)
	if endpoint == "" || err != nil || u.Host == "" {
		return apperrors.Configuration(fmt.Sprintf("invalid %s endpoint %q", c.environmentName(), endpoint))
	}
	if c.IsLive() && u.Scheme != "https" {
		return apperrors.Configuration("live endpoint must use https")
	}
	if c.Gateway.Timeout <= 0 {
		return apperrors.Configuration("gateway.timeout must be positive")
	}
	return nil
}

func (c *Config) environmentName() string {
	if c.IsLive() {
		return "live"
	}
	return "sandbox"
}

// Masked returns a copy safe for printing
func (c *Config) Masked() Config {
	out := *c
	out.Merchant.Secret = mask(c.Merchant.Secret)
	out.Merchant.ApplicationKey = mask(c.Merchant.ApplicationKey)
	out.Database.DSN = mask(c.Database.DSN)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
