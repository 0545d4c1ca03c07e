package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  host: localhost
  name: localink
kafka:
  brokers: ["localhost:9092"]
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 3, cfg.Database.MaxTxAttempts)
	assert.Equal(t, 365, cfg.Booking.MaxAdvanceDays)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, 10, cfg.RateLimit.Messages)
	assert.Equal(t, time.Minute, cfg.Booking.ToursCacheTTL())
	assert.Equal(t, "host=localhost port=5432 user= password= dbname=localink sslmode=disable", cfg.Database.DSN())
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{name: "missing database", yaml: "http:\n  address: ':9000'\n"},
		{name: "redis backend without addr", yaml: "database: {host: db, name: x}\nrate_limit: {backend: redis}\n"},
		{name: "unknown backend", yaml: "database: {host: db, name: x}\nrate_limit: {backend: memcached}\n"},
		{name: "broken yaml", yaml: "database: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
