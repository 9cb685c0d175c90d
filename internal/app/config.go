package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/bistro/internal/domain/order"
	"github.com/xenking/bistro/internal/wire"
)

// Config holds the complete application configuration, loadable from
// environment variables (BISTRO_ prefix), flags, a .env file, or YAML
// config files.
type Config struct {
	Addr           string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL    string `usage:"PostgreSQL connection URL (BISTRO_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	AdminKeyHash   string `usage:"Hex HMAC-SHA256 of the admin key (BISTRO_ADMIN_KEY_HASH)" flag:"admin-key-hash"`
	AdminKeyPepper string `usage:"HMAC pepper for the admin key (BISTRO_ADMIN_KEY_PEPPER)" flag:"admin-key-pepper"`
	MaxBodyBytes   int64  `default:"65536" usage:"Maximum request body size"`

	Orders    OrdersConfig
	Reports   ReportsConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// OrdersConfig controls the order lifecycle and its wire representation.
type OrdersConfig struct {
	CutoffTime       string `default:"23:59" usage:"Daily HH:mm cutoff for placing and editing orders" flag:"order-cutoff-time"`
	TimeZone         string `default:"UTC" usage:"IANA time zone for cutoffs and reports" flag:"time-zone"`
	Currency         string `default:"VND" usage:"Currency label shown to clients"`
	CurrencyExponent int32  `default:"0" usage:"Minor unit exponent of the currency"`
	StatusCodes      wire.StatusCodes
}

// ReportsConfig controls report sizes.
type ReportsConfig struct {
	TopCustomers int `default:"10" usage:"Customers in top rankings"`
	RecentOrders int `default:"10" usage:"Orders in the recent list"`
	StatsDays    int `default:"30" usage:"Days in daily statistics"`
}

// RateLimitConfig controls the per-customer order placement limiter.
type RateLimitConfig struct {
	Max    int           `default:"20" usage:"Max orders placed per window, 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from a .env file, environment variables,
// YAML config files and flags, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BISTRO",
		Files:     []string{"config.yaml", "/etc/bistro/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set BISTRO_DATABASE_URL or DATABASE_URL")
	}
	if c.Orders.StatusCodes == (wire.StatusCodes{}) {
		c.Orders.StatusCodes = wire.DefaultStatusCodes
	}
	if err := c.Orders.StatusCodes.Validate(); err != nil {
		return errors.Wrap(err, "status codes")
	}
	if _, err := c.Cutoff(); err != nil {
		return err
	}
	if c.Orders.CurrencyExponent < 0 || c.Orders.CurrencyExponent > 4 {
		return errors.Errorf("currency exponent %d out of range [0, 4]", c.Orders.CurrencyExponent)
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Orders.TimeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", c.Orders.TimeZone)
	}
	return loc, nil
}

// Cutoff returns the daily order cutoff in the configured time zone.
func (c *Config) Cutoff() (order.Cutoff, error) {
	loc, err := c.Location()
	if err != nil {
		return order.Cutoff{}, err
	}
	return order.ParseCutoff(c.Orders.CutoffTime, loc)
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's BISTRO_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
