package configuration

import (
	"testing"
	"time"

	"github.com/form3tech-oss/pact-core/pkg/models"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	config, err := newFromLookuper(envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, 8080, config.AdminPort)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, int64(0), config.GeneratorSeed)
	assert.Equal(t, models.V4, config.SpecVersion())
	assert.Equal(t, 500*time.Millisecond, config.WaitDelay)
	assert.Equal(t, 15*time.Second, config.WaitDuration)
}

func TestConfigFromEnvironment(t *testing.T) {
	config, err := newFromLookuper(envconfig.MapLookuper(map[string]string{
		"ADMIN_PORT":         "9090",
		"LOG_LEVEL":          "debug",
		"GENERATOR_SEED":     "42",
		"PACT_SPECIFICATION": "3.0.0",
		"MOCK_SERVER_URL":    "http://localhost:1234",
		"WAIT_DURATION":      "2s",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, config.AdminPort)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, int64(42), config.GeneratorSeed)
	assert.Equal(t, models.V3, config.SpecVersion())
	assert.Equal(t, "http://localhost:1234", config.MockServerURL)
	assert.Equal(t, 2*time.Second, config.WaitDuration)
}

func TestConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "port out of range", env: map[string]string{"ADMIN_PORT": "70000"}},
		{name: "port not a number", env: map[string]string{"ADMIN_PORT": "http"}},
		{name: "unknown log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "unknown pact specification", env: map[string]string{"PACT_SPECIFICATION": "latest"}},
		{name: "bad duration", env: map[string]string{"WAIT_DELAY": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newFromLookuper(envconfig.MapLookuper(tt.env))
			assert.Error(t, err)
		})
	}
}
