package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type cachedConfig struct {
	Name string `env:"CONFIG_TEST_NAME" envDefault:"default"`
}

type requiredConfig struct {
	Value string `env:"CONFIG_TEST_REQUIRED,required"`
}

type fromConfig struct {
	URL      string        `env:"JWKS_URL"`
	Interval time.Duration `env:"REFRESH_INTERVAL" envDefault:"5m"`
	Output   string        `env:"OUTPUT" envDefault:"json"`
}

func TestLoadCaches(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "first")

	var first cachedConfig
	require.NoError(t, Load(&first))
	require.Equal(t, "first", first.Name)

	t.Setenv("CONFIG_TEST_NAME", "second")

	var second cachedConfig
	require.NoError(t, Load(&second))
	require.Equal(t, "first", second.Name)
}

func TestLoadRequired(t *testing.T) {
	var cfg requiredConfig
	require.Error(t, Load(&cfg))
	require.Panics(t, func() {
		MustLoad(&cfg)
	})

	t.Setenv("CONFIG_TEST_REQUIRED", "set")
	require.NotPanics(t, func() {
		MustLoad(&cfg)
	})
	require.Equal(t, "set", cfg.Value)
}

func TestLoadFrom(t *testing.T) {
	var cfg fromConfig
	require.NoError(t, LoadFrom(&cfg, map[string]string{
		"JWKS_URL":         "https://example.com/jwks",
		"REFRESH_INTERVAL": "30s",
	}))
	require.Equal(t, "https://example.com/jwks", cfg.URL)
	require.Equal(t, 30*time.Second, cfg.Interval)
	require.Equal(t, "json", cfg.Output)

	require.Error(t, LoadFrom(&cfg, map[string]string{"REFRESH_INTERVAL": "soon"}))
}
