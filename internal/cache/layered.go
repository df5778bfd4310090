package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/formulary-labs/formulation-cli/internal/model"
)

// PersistentStore is the subset of the run store used for durable lookup
// caching across sessions.
type PersistentStore interface {
	GetCachedLookup(ctx context.Context, name string) (*model.LookupResult, error)
	SetCachedLookup(ctx context.Context, name string, result model.LookupResult, ttl time.Duration) error
}

// Layered fronts a persistent store with a memory cache. Reads fill the
// memory layer; writes go to both. Only conclusive outcomes are persisted;
// failures stay in the memory layer where the failure TTL applies.
type Layered struct {
	memory *Memory
	store  PersistentStore
	ttl    time.Duration
}

// NewLayered creates a layered cache. ttl bounds how long persisted entries
// remain valid.
func NewLayered(memory *Memory, store PersistentStore, ttl time.Duration) *Layered {
	return &Layered{memory: memory, store: store, ttl: ttl}
}

func (l *Layered) Get(ctx context.Context, name string) (model.LookupResult, bool) {
	if r, ok := l.memory.Get(ctx, name); ok {
		return r, true
	}

	r, err := l.store.GetCachedLookup(ctx, name)
	if err != nil {
		zap.L().Warn("cache: persistent lookup failed", zap.String("name", name), zap.Error(err))
		return model.LookupResult{}, false
	}
	if r == nil {
		return model.LookupResult{}, false
	}

	l.memory.Put(ctx, name, *r)
	return *r, true
}

func (l *Layered) Put(ctx context.Context, name string, result model.LookupResult) {
	l.memory.Put(ctx, name, result)

	if result.Outcome != model.OutcomeVerified && result.Outcome != model.OutcomeNotFound {
		return
	}
	if err := l.store.SetCachedLookup(ctx, name, result, l.ttl); err != nil {
		zap.L().Warn("cache: persist failed", zap.String("name", name), zap.Error(err))
	}
}
