package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")
}

func TestNewDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.Empty(t, cfg.Database.MigrationsDir)
	assert.Equal(t, 48*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "jwt", cfg.Auth.CookieName)
	assert.Equal(t, "/public/uploads", cfg.Upload.PublicPrefix)
	require.NotNil(t, cfg.Reporting.Location)
	assert.Equal(t, "UTC", cfg.Reporting.Location.String())
}

func TestNewRequiresJWTSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "  ")

	_, err := New()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestNewNormalisesPaths(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("OBS_PROMETHEUS_PATH", "prom")
	t.Setenv("UPLOAD_PUBLIC_PREFIX", "static/files/")
	t.Setenv("ADMIN_EMAIL", " Admin@Bistro.Local ")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/prom", cfg.Observability.PrometheusPath)
	assert.Equal(t, "/static/files", cfg.Upload.PublicPrefix)
	assert.Equal(t, "admin@bistro.local", cfg.Auth.AdminEmail)
}

func TestNewRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"cache driver":   {"CACHE_ENABLED", "true"},
		"timezone":       {"REPORT_TIMEZONE", "Mars/Olympus"},
		"bcrypt cost":    {"BCRYPT_COST", "2"},
		"messaging mode": {"MESSAGING_ENABLED", "true"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(kv[0], kv[1])
			switch name {
			case "cache driver":
				t.Setenv("CACHE_DRIVER", "memcached")
			case "messaging mode":
				t.Setenv("MESSAGING_DRIVER", "rabbitmq")
			}

			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("BISTRO_INT", "12")
	t.Setenv("BISTRO_BAD_INT", "twelve")
	t.Setenv("BISTRO_LIST", " a, ,b ")
	t.Setenv("BISTRO_DURATION", "90s")

	assert.Equal(t, 12, getEnvAsInt("BISTRO_INT", 1))
	assert.Equal(t, 1, getEnvAsInt("BISTRO_BAD_INT", 1))
	assert.Equal(t, []string{"a", "b"}, getEnvAsStringSlice("BISTRO_LIST", nil))
	assert.Equal(t, 90*time.Second, getEnvAsDuration("BISTRO_DURATION", time.Second))
	assert.Equal(t, "fallback", getEnv("BISTRO_MISSING", "fallback"))
}
