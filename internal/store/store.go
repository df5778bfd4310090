package store

import (
	"context"
	"time"

	"github.com/formulary-labs/formulation-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the verification pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, brief model.Brief) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	GetRunResult(ctx context.Context, runID string) (*model.RunResult, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Compound lookup cache
	GetCachedLookup(ctx context.Context, name string) (*model.LookupResult, error)
	SetCachedLookup(ctx context.Context, name string, result model.LookupResult, ttl time.Duration) error
	DeleteExpiredLookups(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
