// Package cache memoizes compound lookups by normalized ingredient name.
//
// The verification engine treats the cache as an injected dependency so it
// can be tested against a fake without network access. Lookups are pure
// functions of the name, so concurrent writers for the same key may simply
// overwrite each other idempotently.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/formulary-labs/formulation-cli/internal/model"
)

// Cache stores lookup results keyed by exact normalized ingredient name.
type Cache interface {
	Get(ctx context.Context, name string) (model.LookupResult, bool)
	Put(ctx context.Context, name string, result model.LookupResult)
}

// entry tags a stored result with its write time so failure outcomes can
// expire independently of successes.
type entry struct {
	result   model.LookupResult
	storedAt time.Time
}

// Memory is a process-wide, LRU-bounded cache. Verified and NotFound
// outcomes live for the process lifetime (subject to eviction); LookupError
// outcomes expire after failureTTL so one transient network blip does not
// permanently downgrade an ingredient for the rest of the session.
type Memory struct {
	lru        *lru.Cache[string, entry]
	failureTTL time.Duration
	now        func() time.Time // injectable for testing
}

// NewMemory creates a memory cache with the given capacity and failure TTL.
// A non-positive capacity falls back to 4096 entries.
func NewMemory(capacity int, failureTTL time.Duration) *Memory {
	if capacity <= 0 {
		capacity = 4096
	}
	l, _ := lru.New[string, entry](capacity) // errors only on capacity <= 0
	return &Memory{
		lru:        l,
		failureTTL: failureTTL,
		now:        time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (m *Memory) WithNow(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Get returns the cached result for name. Expired failure entries read as a
// miss and are dropped.
func (m *Memory) Get(_ context.Context, name string) (model.LookupResult, bool) {
	e, ok := m.lru.Get(name)
	if !ok {
		return model.LookupResult{}, false
	}
	if e.result.Outcome == model.OutcomeLookupError && m.failureTTL > 0 {
		if m.now().Sub(e.storedAt) > m.failureTTL {
			m.lru.Remove(name)
			return model.LookupResult{}, false
		}
	}
	return e.result, true
}

// Put stores a result. EmptyQuery outcomes are never cached.
func (m *Memory) Put(_ context.Context, name string, result model.LookupResult) {
	if result.Outcome == model.OutcomeEmptyQuery {
		return
	}
	m.lru.Add(name, entry{result: result, storedAt: m.now()})
}

// Len reports the number of cached entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}
