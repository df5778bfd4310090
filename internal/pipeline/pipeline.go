package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/formulary-labs/formulation-cli/internal/config"
	"github.com/formulary-labs/formulation-cli/internal/model"
	"github.com/formulary-labs/formulation-cli/internal/store"
)

// ErrNothingParseable reports that no extraction strategy recognized any
// ingredient in the generated text. It is distinct from a run whose
// ingredients all individually failed verification.
var ErrNothingParseable = eris.New("no ingredients could be extracted from the formulation text")

// Pipeline orchestrates the classify, generate, extract, and verify phases.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	classifier *Classifier
	generator  *Generator
	assembler  *Assembler
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, classifier *Classifier, generator *Generator, assembler *Assembler) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      st,
		classifier: classifier,
		generator:  generator,
		assembler:  assembler,
	}
}

// Run executes the full pipeline for a brief, persisting progress and the
// final result under a new run record.
func (p *Pipeline) Run(ctx context.Context, brief model.Brief) (*model.RunResult, error) {
	log := zap.L().With(zap.String("category", brief.Category))
	log.Info("pipeline: starting run")

	result := &model.RunResult{}

	run, err := p.store.CreateRun(ctx, brief)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run_id", run.ID))

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	trackPhase := p.phaseTracker(log, result)

	// Phase 1: classify.
	setStatus(model.RunStatusClassifying)
	trackPhase("classify", func() (*model.PhaseResult, error) {
		category, usage := p.classifier.Classify(ctx, brief)
		result.Category = category
		result.TokenUsage.Add(usage)
		return &model.PhaseResult{
			TokenUsage: usage,
			Metadata:   map[string]any{"category": category},
		}, nil
	})

	// Phase 2: generate. A failure here is fatal.
	setStatus(model.RunStatusGenerating)
	var genErr error
	pr := trackPhase("generate", func() (*model.PhaseResult, error) {
		text, usage, phaseErr := p.generator.Generate(ctx, result.Category, brief)
		result.TokenUsage.Add(usage)
		if phaseErr != nil {
			genErr = phaseErr
			return &model.PhaseResult{TokenUsage: usage}, phaseErr
		}
		result.FormulationText = text
		return &model.PhaseResult{TokenUsage: usage}, nil
	})
	if pr.Status == model.PhaseStatusFailed {
		return p.fail(ctx, run.ID, result, genErr)
	}

	// Phases 3-4: extract and verify.
	setStatus(model.RunStatusVerifying)
	var verifyErr error
	pr = trackPhase("verify", func() (*model.PhaseResult, error) {
		rows, usage, phaseErr := p.verifyText(ctx, result.FormulationText)
		result.Rows = rows
		result.TokenUsage.Add(usage)
		if phaseErr != nil {
			verifyErr = phaseErr
			return &model.PhaseResult{TokenUsage: usage}, phaseErr
		}
		return &model.PhaseResult{
			TokenUsage: usage,
			Metadata:   map[string]any{"rows": len(rows)},
		}, nil
	})
	if pr.Status == model.PhaseStatusFailed {
		return p.fail(ctx, run.ID, result, verifyErr)
	}

	// Phase 5: report.
	trackPhase("report", func() (*model.PhaseResult, error) {
		result.Report = FormatReport(result.Category, result.Rows, result.Phases, result.TokenUsage)
		return nil, nil
	})

	if err := p.store.UpdateRunResult(ctx, run.ID, result); err != nil {
		log.Warn("pipeline: failed to persist result", zap.Error(err))
	}
	setStatus(model.RunStatusComplete)
	log.Info("pipeline: run complete",
		zap.Int("rows", len(result.Rows)),
		zap.Int("total_tokens", result.TokenUsage.Total()),
	)
	return result, nil
}

// VerifyText runs extraction and verification over caller-supplied
// formulation text, skipping classification and generation. Nothing is
// persisted; this serves ad-hoc verification of existing formulations.
func (p *Pipeline) VerifyText(ctx context.Context, text string) (*model.RunResult, error) {
	result := &model.RunResult{}
	trackPhase := p.phaseTracker(zap.L(), result)

	var verifyErr error
	pr := trackPhase("verify", func() (*model.PhaseResult, error) {
		rows, usage, phaseErr := p.verifyText(ctx, text)
		result.Rows = rows
		result.TokenUsage.Add(usage)
		if phaseErr != nil {
			verifyErr = phaseErr
			return &model.PhaseResult{TokenUsage: usage}, phaseErr
		}
		return &model.PhaseResult{TokenUsage: usage}, nil
	})
	if pr.Status == model.PhaseStatusFailed {
		result.Error = pr.Error
		return result, verifyErr
	}

	result.Report = FormatReport("Verification", result.Rows, result.Phases, result.TokenUsage)
	return result, nil
}

// verifyText extracts candidates and assembles rows for them.
func (p *Pipeline) verifyText(ctx context.Context, text string) ([]model.ReportRow, model.TokenUsage, error) {
	candidates := ExtractIngredients(text)
	if len(candidates) == 0 {
		return nil, model.TokenUsage{}, ErrNothingParseable
	}
	return p.assembler.Assemble(ctx, candidates)
}

// phaseTracker returns a helper that times a phase, records its outcome on
// the result, and logs it.
func (p *Pipeline) phaseTracker(log *zap.Logger, result *model.RunResult) func(string, func() (*model.PhaseResult, error)) *model.PhaseResult {
	return func(name string, fn func() (*model.PhaseResult, error)) *model.PhaseResult {
		start := time.Now()
		phaseResult, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{}
		}
		phaseResult.Name = name
		phaseResult.Duration = duration

		if fnErr != nil {
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		} else {
			phaseResult.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		result.Phases = append(result.Phases, *phaseResult)
		return phaseResult
	}
}

// fail records a terminal failure on the run and returns it to the caller.
func (p *Pipeline) fail(ctx context.Context, runID string, result *model.RunResult, err error) (*model.RunResult, error) {
	result.Error = err.Error()
	if storeErr := p.store.UpdateRunResult(ctx, runID, result); storeErr != nil {
		zap.L().Warn("pipeline: failed to persist failed result", zap.Error(storeErr))
	}
	return result, err
}
