package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskURL(t *testing.T) {
	cases := map[string]string{
		"/api/formats?url=https%3A%2F%2Fyoutu.be%2Fabc":       "/api/formats?url=***",
		"/api/formats?lang=en&url=https%3A%2F%2Fyoutu.be&x=1": "/api/formats?lang=en&url=***&x=1",
		"/download/dQw4w9WgXcQ/0/video":                       "/download/dQw4w9WgXcQ/0/video",
	}

	for in, want := range cases {
		assert.Equal(t, want, maskURL(in))
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := config{}
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}))

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "youtube-media-downloader.p.rapidapi.com", cfg.ProviderHost)
	assert.Empty(t, cfg.ProviderAPIKey)
	assert.Equal(t, 2.0, cfg.ProviderRate)
	assert.Equal(t, "5m0s", cfg.CacheExpiry.String())
	assert.Equal(t, "20s", cfg.RequestTimeout.String())
}

func TestConfigFromEnvironment(t *testing.T) {
	cfg := config{}
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"PROVIDER_API_KEY": "secret",
		"CACHE_EXPIRY":     "30s",
		"LISTEN_ADDR":      ":8080",
	}}))

	assert.Equal(t, "secret", cfg.ProviderAPIKey)
	assert.Equal(t, "30s", cfg.CacheExpiry.String())
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestNewAppRoutes(t *testing.T) {
	app := newApp(config{ProviderURL: "http://127.0.0.1:1", ProviderAPIKey: "secret"})

	for _, target := range []string{"/", "/api/status"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, target)
		assert.NotEmpty(t, resp.Header.Get("X-Request-Id"), target)
		_ = resp.Body.Close()
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/formats?url=https://example.com/x", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
