package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	assert.Empty(t, cfg.AuthSecret)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("BUSINESS_TIMEZONE", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Address())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 480, cfg.AccessTokenTTLMinutes)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-5")
	t.Setenv("BUSINESS_TIMEZONE", "Asia/Jakarta")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-secret")
	t.Setenv("SEED_CASHIER_PASSWORD", "kasir-secret")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 480, cfg.AccessTokenTTLMinutes)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "admin-secret", cfg.SeedAdminPassword)
	assert.Equal(t, "kasir-secret", cfg.SeedCashierPassword)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}
