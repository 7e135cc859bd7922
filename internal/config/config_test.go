package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONConfigFile(t *testing.T, content string) string {
	t.Helper()

	configFilePath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configFilePath, []byte(content), 0644))

	return configFilePath
}

func TestDefaults(t *testing.T) {
	values, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":8080", values.RunAddr)
	assert.Equal(t, "info", values.LogLevel)
	assert.Empty(t, values.DBFileName)
	assert.Empty(t, values.DatabaseDSN)
	assert.Equal(t, "migrations", values.MigrationsDir)
	assert.Equal(t, "access_token", values.AuthCookieName)
	assert.NotEmpty(t, values.AuthTokenSigningSecretKey)
	assert.Equal(t, time.Duration(0), values.AuthTokenTTL)
	assert.Equal(t, 100, values.ChannelCapacity)
	assert.Equal(t, 5*time.Second, values.DelayBetweenQueueFetches)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "localhost:9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH_TOKEN_TTL", "24h")
	t.Setenv("TRUSTED_SUBNET", "10.0.0.0/8")

	values, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "localhost:9090", values.RunAddr)
	assert.Equal(t, "debug", values.LogLevel)
	assert.Equal(t, 24*time.Hour, values.AuthTokenTTL)
	assert.Equal(t, "10.0.0.0/8", values.TrustedSubnet)
}

func TestJSONConfigFile(t *testing.T) {
	configFilePath := writeJSONConfigFile(t, `{
	"server_address": "localhost:7070",
	"log_level": "warning",
	"file_storage_path": "/tmp/bookmarkr-db.json",
	"delay_between_queue_fetches": 1000000000
}`)
	t.Setenv("CONFIG", configFilePath)

	values, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "localhost:7070", values.RunAddr)
	assert.Equal(t, "warning", values.LogLevel)
	assert.Equal(t, "/tmp/bookmarkr-db.json", values.DBFileName)
	assert.Equal(t, time.Second, values.DelayBetweenQueueFetches)

	// Settings absent from the file keep their defaults.
	assert.Equal(t, "migrations", values.MigrationsDir)
}

func TestEnvironmentOverridesJSONConfigFile(t *testing.T) {
	configFilePath := writeJSONConfigFile(t, `{"server_address": "localhost:7070"}`)
	t.Setenv("CONFIG", configFilePath)
	t.Setenv("SERVER_ADDRESS", "localhost:9090")

	values, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "localhost:9090", values.RunAddr)
}

func TestMissingJSONConfigFile(t *testing.T) {
	t.Setenv("CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	testCases := []struct {
		name     string
		envName  string
		envValue string
	}{
		{
			name:     "unknown log level",
			envName:  "LOG_LEVEL",
			envValue: "verbose",
		},
		{
			name:     "malformed run address",
			envName:  "SERVER_ADDRESS",
			envValue: "not-an-address",
		},
		{
			name:     "malformed trusted subnet",
			envName:  "TRUSTED_SUBNET",
			envValue: "not-a-cidr",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Setenv(testCase.envName, testCase.envValue)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}
