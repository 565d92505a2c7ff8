package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "UTC", cfg.Booking.Timezone)
	assert.Equal(t, 60*time.Minute, cfg.Booking.UrgentWindow())
	assert.Equal(t, 2*time.Second, cfg.Booking.LockTimeout())
	assert.Equal(t, 30, cfg.Booking.CalendarDays)
	assert.Equal(t, 100.00, cfg.Payments.SingleGameAmount)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_FileAndEnvOverlay(t *testing.T) {
	path := writeFile(t, `
[server]
http_port = 9090

[database]
host = "db"
user = "booking"
password = "from-file"
dbname = "facilities"

[storage]
driver = "postgres"

[booking]
timezone = "Asia/Kolkata"
urgent_window_minutes = 30
`)
	t.Setenv("BOOKING_DATABASE_PASSWORD", "from-env")
	t.Setenv("BOOKING_BOOKING_LOCK_TIMEOUT_MS", "500")
	t.Setenv("BOOKING_MANAGEMENT_TOKEN", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Booking.LockTimeout())
	assert.Equal(t, 30*time.Minute, cfg.Booking.UrgentWindow())
	assert.Equal(t, "s3cret", cfg.Management.Token)

	loc, err := cfg.Booking.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	assert.Contains(t, cfg.Database.DSN(), "password=from-env")
	assert.Contains(t, cfg.Database.DSN(), "dbname=facilities")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown driver", "[storage]\ndriver = \"redis\"\n"},
		{"unknown timezone", "[booking]\ntimezone = \"Mars/Olympus\"\n"},
		{"negative lock timeout", "[booking]\nlock_timeout_ms = -1\n"},
		{"bad port", "[server]\nhttp_port = 70000\n"},
		{"postgres without db", "[storage]\ndriver = \"postgres\"\n"},
		{"events without url", "[events]\nenabled = true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_BrokenFile(t *testing.T) {
	_, err := Load(writeFile(t, "[server\nhttp_port = "))
	assert.ErrorIs(t, err, ErrLoad)
}
