package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xM4sk/researcher/internal/analysis"
	"github.com/0xM4sk/researcher/internal/config"
)

func TestSetupProvidersWithAllKeys(t *testing.T) {
	providers := setupProviders(config.ProvidersConfig{
		GoogleAPIKey:       "google-key",
		SerperAPIKey:       "serper-key",
		HTTPTimeoutSeconds: 10,
	}, slog.Default())

	require.Len(t, providers, 3)
	assert.Equal(t, "google", providers[0].Name())
	assert.Equal(t, "serper", providers[1].Name())
	assert.Equal(t, "duckduckgo", providers[2].Name())
}

func TestSetupProvidersWithoutKeys(t *testing.T) {
	providers := setupProviders(config.ProvidersConfig{
		HTTPTimeoutSeconds: 10,
	}, slog.Default())

	// DuckDuckGo needs no API key and is always registered.
	require.Len(t, providers, 1)
	assert.Equal(t, "duckduckgo", providers[0].Name())
}

func TestSetupAnalyzerFallsBackToHeuristic(t *testing.T) {
	cfg := &config.Config{}

	analyzer, err := setupAnalyzer(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &analysis.HeuristicAnalyzer{}, analyzer)
}
