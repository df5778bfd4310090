package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/formulary-labs/formulation-cli/internal/model"
)

// Assembler turns extracted candidates into status-annotated report rows.
// Verification fans out across a bounded worker pool; rows come back in
// extraction order regardless of completion order, and a failure on one row
// never aborts the others.
type Assembler struct {
	verifier   *Verifier
	escalator  *Escalator
	workers    int
	noEscalate bool
}

func NewAssembler(verifier *Verifier, escalator *Escalator, workers int, noEscalate bool) *Assembler {
	if workers < 1 {
		workers = 1
	}
	return &Assembler{
		verifier:   verifier,
		escalator:  escalator,
		workers:    workers,
		noEscalate: noEscalate,
	}
}

// Assemble verifies every candidate and returns one row per candidate that
// survives normalization, ordered by extraction index. Candidates whose
// normalized name is empty are dropped entirely: they produce no row, no
// lookup, and no cache entry. The returned usage aggregates token spend from
// any escalations.
func (a *Assembler) Assemble(ctx context.Context, candidates []model.CandidateIngredient) ([]model.ReportRow, model.TokenUsage, error) {
	slots := make([]*model.ReportRow, len(candidates))
	usages := make([]model.TokenUsage, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, candidate := range candidates {
		// The extractor assigns dense indices, so each candidate owns
		// exactly one slot regardless of slice order or which worker
		// finishes first.
		slot := candidate.Index
		g.Go(func() error {
			name := NormalizeName(candidate.Raw)
			if name == "" {
				return nil
			}
			row, usage := a.resolve(ctx, candidate.Raw, name)
			slots[slot] = &row
			usages[slot] = usage
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, model.TokenUsage{}, err
	}

	rows := make([]model.ReportRow, 0, len(candidates))
	var usage model.TokenUsage
	for i, slot := range slots {
		if slot != nil {
			rows = append(rows, *slot)
		}
		usage.Add(usages[i])
	}
	return rows, usage, nil
}

// resolve produces the row for one candidate. Lookups use the normalized
// name; the row carries the raw extracted string for display. NotFound
// outcomes escalate to the decomposition model unless escalation is
// disabled; an escalation transport failure degrades that row alone.
func (a *Assembler) resolve(ctx context.Context, raw, name string) (model.ReportRow, model.TokenUsage) {
	var usage model.TokenUsage

	result := a.verifier.Verify(ctx, name)
	if result.Outcome != model.OutcomeNotFound || a.noEscalate || a.escalator == nil {
		return rowFromLookup(raw, result), usage
	}

	analysis, escUsage, err := a.escalator.Analyze(ctx, name)
	usage.Add(escUsage)
	if err != nil {
		zap.L().Warn("assemble: escalation failed", zap.String("name", name), zap.Error(err))
		return model.ReportRow{Ingredient: raw, Status: model.StatusAnalysisFailed, Detail: "-"}, usage
	}

	return model.ReportRow{
		Ingredient: raw,
		Status:     model.StatusComplex,
		Detail:     analysis.Summary(),
	}, usage
}

func rowFromLookup(raw string, result model.LookupResult) model.ReportRow {
	row := model.ReportRow{
		Ingredient: raw,
		Status:     model.RowStatusFor(result.Outcome),
		Detail:     "-",
	}
	if result.Outcome == model.OutcomeVerified && result.Formula != "" {
		row.Detail = result.Formula
	}
	return row
}
