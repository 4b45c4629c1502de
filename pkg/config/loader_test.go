package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedapi/typedapi/pkg/config"
)

type serverConfig struct {
	Host string `env:"TEST_CFG_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"TEST_CFG_PORT" envDefault:"8080"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg serverConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
}

type overrideConfig struct {
	Name string `env:"TEST_CFG_NAME" envDefault:"fallback"`
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TEST_CFG_NAME", "from-env")

	var cfg overrideConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-env", cfg.Name)
}

type cachedConfig struct {
	Value string `env:"TEST_CFG_CACHED" envDefault:"first"`
}

func TestLoad_CachesPerType(t *testing.T) {
	var first cachedConfig
	require.NoError(t, config.Load(&first))

	// Changing the environment after the first load must not change the
	// cached result.
	t.Setenv("TEST_CFG_CACHED", "second")

	var again cachedConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, first.Value, again.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[serverConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

type requiredConfig struct {
	Secret string `env:"TEST_CFG_REQUIRED_SECRET,required"`
}

func TestLoad_RequiredMissing(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}
