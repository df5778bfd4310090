package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/formulary-labs/formulation-cli/internal/cache"
	"github.com/formulary-labs/formulation-cli/internal/pipeline"
	"github.com/formulary-labs/formulation-cli/internal/resilience"
	"github.com/formulary-labs/formulation-cli/internal/store"
	"github.com/formulary-labs/formulation-cli/pkg/groq"
	"github.com/formulary-labs/formulation-cli/pkg/pubchem"
)

// pipelineEnv holds the initialized store, clients, and pipeline needed by
// the run/verify/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens and migrates the sqlite run store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initPipeline sets up the store, API clients, cache, and pipeline. Callers
// should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Groq.Key == "" {
		return nil, eris.New("groq API key is required (FORMULATION_GROQ_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	groqClient := groq.NewClient(cfg.Groq.Key,
		groq.WithBaseURL(cfg.Groq.BaseURL),
		groq.WithModel(cfg.Groq.Model),
	)
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.PubChem.MaxRetries
	pubchemClient := pubchem.NewClient(
		pubchem.WithBaseURL(cfg.PubChem.BaseURL),
		pubchem.WithRateLimit(cfg.PubChem.RatePerSecond),
		pubchem.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.PubChem.TimeoutSecs) * time.Second}),
		pubchem.WithRetry(retry),
	)

	memory := cache.NewMemory(cfg.Cache.Capacity, time.Duration(cfg.Cache.FailureTTLSecs)*time.Second)
	layered := cache.NewLayered(memory, st, time.Duration(cfg.Cache.PersistTTLHours)*time.Hour)

	verifier := pipeline.NewVerifier(pubchemClient, layered)
	escalator := pipeline.NewEscalator(groqClient, cfg.Groq, verifier)
	assembler := pipeline.NewAssembler(verifier, escalator, cfg.Pipeline.VerifyWorkers, cfg.Pipeline.NoEscalate)
	classifier := pipeline.NewClassifier(groqClient, cfg.Groq)
	generator := pipeline.NewGenerator(groqClient, cfg.Groq)

	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline.New(cfg, st, classifier, generator, assembler),
	}, nil
}
