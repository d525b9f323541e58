package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Session  SessionConfig
	Checkout CheckoutConfig
	Order    OrderConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port            int
	Mode            string
	CORSOrigin      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type SessionConfig struct {
	Secret       []byte
	CookieName   string
	TTL          time.Duration
	CookieSecure bool
}

type CheckoutConfig struct {
	TaxPolicy string
	TaxFlat   decimal.Decimal
	TaxRate   decimal.Decimal
}

type OrderConfig struct {
	OperatorCancelAfterDispatch bool
}

// AdminConfig seeds the first admin account; admins cannot self-register.
type AdminConfig struct {
	Email    string
	Password string
}

// Load reads configuration from the environment, falling back to defaults
// suitable for local development.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "food_ordering.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "foodhub_dev_secret_change_me")
	v.SetDefault("SESSION_COOKIE", "session")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("TAX_POLICY", "flat")
	v.SetDefault("TAX_FLAT_AMOUNT", "35.80")
	v.SetDefault("TAX_RATE", "0")
	v.SetDefault("ORDER_OPERATOR_CANCEL_AFTER_DISPATCH", false)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")

	cfg := &Config{}
	durations := map[string]*time.Duration{
		"SERVER_READ_TIMEOUT":  &cfg.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT": &cfg.Server.WriteTimeout,
		"SHUTDOWN_TIMEOUT":     &cfg.Server.ShutdownTimeout,
		"DB_CONN_MAX_LIFETIME": &cfg.Database.ConnMaxLifetime,
		"SESSION_TTL":          &cfg.Session.TTL,
	}
	for key, dst := range durations {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		*dst = d
	}

	taxFlat, err := decimal.NewFromString(v.GetString("TAX_FLAT_AMOUNT"))
	if err != nil {
		return nil, fmt.Errorf("parsing TAX_FLAT_AMOUNT: %w", err)
	}
	taxRate, err := decimal.NewFromString(v.GetString("TAX_RATE"))
	if err != nil {
		return nil, fmt.Errorf("parsing TAX_RATE: %w", err)
	}

	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.Mode = v.GetString("GIN_MODE")
	cfg.Server.CORSOrigin = v.GetString("CORS_ORIGIN")
	cfg.Database.Driver = v.GetString("DB_DRIVER")
	cfg.Database.DSN = v.GetString("DB_DSN")
	cfg.Database.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Session.Secret = []byte(v.GetString("JWT_SECRET"))
	cfg.Session.CookieName = v.GetString("SESSION_COOKIE")
	cfg.Session.CookieSecure = v.GetBool("COOKIE_SECURE")
	cfg.Checkout.TaxPolicy = v.GetString("TAX_POLICY")
	cfg.Checkout.TaxFlat = taxFlat
	cfg.Checkout.TaxRate = taxRate
	cfg.Order.OperatorCancelAfterDispatch = v.GetBool("ORDER_OPERATOR_CANCEL_AFTER_DISPATCH")
	cfg.Admin.Email = v.GetString("ADMIN_EMAIL")
	cfg.Admin.Password = v.GetString("ADMIN_PASSWORD")

	return cfg, nil
}
