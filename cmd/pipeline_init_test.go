package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formulary-labs/formulation-cli/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store: config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")},
		Groq: config.GroqConfig{
			Key:       "test-key",
			BaseURL:   "http://127.0.0.1:1/v1",
			Model:     "llama-3.3-70b-versatile",
			MaxTokens: 2048,
		},
		PubChem: config.PubChemConfig{
			BaseURL:       "http://127.0.0.1:1/rest/pug",
			TimeoutSecs:   15,
			RatePerSecond: 5,
			MaxRetries:    3,
		},
		Pipeline: config.PipelineConfig{VerifyWorkers: 4},
		Cache: config.CacheConfig{
			Capacity:        64,
			FailureTTLSecs:  60,
			PersistTTLHours: 720,
		},
	}
}

func TestInitPipeline(t *testing.T) {
	cfg = testConfig(t)

	env, err := initPipeline(context.Background())
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Store)
	assert.NotNil(t, env.Pipeline)
}

func TestInitPipeline_RequiresKey(t *testing.T) {
	cfg = testConfig(t)
	cfg.Groq.Key = ""

	_, err := initPipeline(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORMULATION_GROQ_KEY")
}
