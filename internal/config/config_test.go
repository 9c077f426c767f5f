package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		unsetEnv(t, "PORT", "VERIFY_TOKEN", "META_APP_SECRET", "REQUIRE_SIGNATURE",
			"WHATSAPP_ACCESS_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "GRAPH_API_BASE_URL",
			"GRAPH_API_VERSION", "SEND_TIMEOUT", "PROCESSING_TIMEOUT", "ENABLE_TEST_ENDPOINT")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "3000", cfg.Port)
		assert.Equal(t, PlaceholderVerifyToken, cfg.VerifyToken)
		assert.True(t, cfg.UsesPlaceholderToken())
		assert.True(t, cfg.RequireSignature)
		assert.False(t, cfg.SignatureEnabled())
		assert.False(t, cfg.SenderConfigured())
		assert.Equal(t, "https://graph.facebook.com", cfg.GraphAPIBaseURL)
		assert.Equal(t, "v18.0", cfg.GraphAPIVersion)
		assert.Equal(t, 10*time.Second, cfg.SendTimeout)
		assert.Equal(t, 15*time.Second, cfg.ProcessingTimeout)
		assert.False(t, cfg.EnableTestEndpoint)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PORT", "8081")
		t.Setenv("VERIFY_TOKEN", "  my-token  ")
		t.Setenv("META_APP_SECRET", "shh")
		t.Setenv("REQUIRE_SIGNATURE", "false")
		t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")
		t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "12345")
		t.Setenv("GRAPH_API_BASE_URL", "http://localhost:9999/")
		t.Setenv("SEND_TIMEOUT", "2s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8081", cfg.Port)
		assert.Equal(t, "my-token", cfg.VerifyToken)
		assert.False(t, cfg.UsesPlaceholderToken())
		assert.True(t, cfg.SignatureEnabled())
		assert.False(t, cfg.RequireSignature)
		assert.True(t, cfg.SenderConfigured())
		assert.Equal(t, "http://localhost:9999", cfg.GraphAPIBaseURL)
		assert.Equal(t, 2*time.Second, cfg.SendTimeout)
	})

	t.Run("blank verify token falls back to placeholder", func(t *testing.T) {
		t.Setenv("VERIFY_TOKEN", "   ")
		t.Setenv("PORT", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, PlaceholderVerifyToken, cfg.VerifyToken)
		assert.Equal(t, "3000", cfg.Port)
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Setenv("SEND_TIMEOUT", "soon")

		_, err := Load()
		require.Error(t, err)
	})
}

// unsetEnv removes keys for the duration of the test and restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}
