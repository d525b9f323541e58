package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "session", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "flat", cfg.Checkout.TaxPolicy)
	assert.True(t, decimal.RequireFromString("35.80").Equal(cfg.Checkout.TaxFlat))
	assert.False(t, cfg.Order.OperatorCancelAfterDispatch)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TAX_POLICY", "rate")
	t.Setenv("TAX_RATE", "0.08")
	t.Setenv("ORDER_OPERATOR_CANCEL_AFTER_DISPATCH", "true")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "rate", cfg.Checkout.TaxPolicy)
	assert.True(t, decimal.RequireFromString("0.08").Equal(cfg.Checkout.TaxRate))
	assert.True(t, cfg.Order.OperatorCancelAfterDispatch)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL")
}

func TestLoad_InvalidTax(t *testing.T) {
	t.Setenv("TAX_FLAT_AMOUNT", "a lot")

	_, err := Load()
	assert.Error(t, err)
}

func TestOpenDB_UnsupportedDriver(t *testing.T) {
	_, err := OpenDB(DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestOpenDB_SQLiteMigrates(t *testing.T) {
	db, err := OpenDB(DatabaseConfig{Driver: "sqlite", DSN: "file::memory:", ConnMaxLifetime: time.Minute})
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable("orders"))
	assert.True(t, db.Migrator().HasTable("cart_lines"))
	assert.True(t, db.Migrator().HasTable("reviews"))
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	logger, err := NewLogger("loud")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestSeedAdmin(t *testing.T) {
	db, err := OpenDB(DatabaseConfig{Driver: "sqlite", DSN: "file:seed?mode=memory&cache=shared"})
	require.NoError(t, err)

	created, err := SeedAdmin(db, AdminConfig{})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = SeedAdmin(db, AdminConfig{Email: "root@example.com"})
	assert.Error(t, err)

	created, err = SeedAdmin(db, AdminConfig{Email: "Root@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = SeedAdmin(db, AdminConfig{Email: "root@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.False(t, created)
}
