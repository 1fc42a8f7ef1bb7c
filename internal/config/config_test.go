package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DISPATCH_CONCURRENCY", "")
	t.Setenv("TRUST_PROXY", "")
	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, ProviderLINE, cfg.MessagingProvider)
	assert.Equal(t, 8, cfg.DispatchConcurrency)
	assert.Equal(t, 24*time.Hour, cfg.DedupTTL)
	assert.Equal(t, "apartment_members", cfg.DynamoTables.Members)
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("DISPATCH_CONCURRENCY", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TRUST_PROXY", "true")
	cfg := Load()

	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 8, cfg.DispatchConcurrency)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.TrustProxy)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		StoreDriver:         StoreMemory,
		MessagingProvider:   ProviderLINE,
		ChannelAccessToken:  "token",
		ChannelSecret:       "secret",
		AdminUser:           "guard",
		AdminPass:           "pw",
		DispatchConcurrency: 1,
	}
	require.NoError(t, cfg.Validate())

	cfg.StoreDriver = "mongo"
	cfg.ChannelSecret = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
	assert.Contains(t, err.Error(), "CHANNEL_SECRET")
}
