package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/formulary-labs/formulation-cli/internal/cache"
	"github.com/formulary-labs/formulation-cli/internal/model"
	"github.com/formulary-labs/formulation-cli/pkg/pubchem"
)

// Verifier resolves normalized ingredient names against the compound
// database through an injected cache. It issues exactly one exact-name query
// per cache miss and takes the first match; there is no fuzzy retry or
// synonym expansion.
type Verifier struct {
	compounds pubchem.Client
	cache     cache.Cache
}

// NewVerifier creates a Verifier sharing the given cache.
func NewVerifier(compounds pubchem.Client, c cache.Cache) *Verifier {
	return &Verifier{compounds: compounds, cache: c}
}

// Verify classifies a normalized name. An empty name short-circuits to
// EmptyQuery with no external call and no cache entry. Lookup failures are
// classified as LookupError and cached like any other outcome; the cache
// layer decides how long failures stay sticky.
func (v *Verifier) Verify(ctx context.Context, name string) model.LookupResult {
	if name == "" {
		return model.LookupResult{Outcome: model.OutcomeEmptyQuery}
	}

	if result, ok := v.cache.Get(ctx, name); ok {
		zap.L().Debug("verify: cache hit",
			zap.String("name", name),
			zap.String("outcome", string(result.Outcome)),
		)
		return result
	}

	matches, err := v.compounds.LookupByName(ctx, name)

	var result model.LookupResult
	switch {
	case err != nil:
		zap.L().Warn("verify: lookup failed", zap.String("name", name), zap.Error(err))
		result = model.LookupResult{Outcome: model.OutcomeLookupError}
	case len(matches) == 0:
		result = model.LookupResult{Outcome: model.OutcomeNotFound}
	default:
		first := matches[0]
		result = model.LookupResult{
			Outcome:   model.OutcomeVerified,
			Formula:   first.MolecularFormula,
			IUPACName: first.IUPACName,
		}
	}

	v.cache.Put(ctx, name, result)
	return result
}
