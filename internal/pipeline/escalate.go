package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/formulary-labs/formulation-cli/internal/config"
	"github.com/formulary-labs/formulation-cli/internal/model"
	"github.com/formulary-labs/formulation-cli/pkg/groq"
)

const analysisPrompt = `You are a cosmetic chemist. The ingredient "%s" was not found in the PubChem compound database.

Analyze it and respond in EXACTLY this format, with each field on its own line:

ANALYSIS: <one sentence explaining what this ingredient is and why it may not appear in a chemical database>
COMPONENTS: <comma-separated list of the individual chemical compounds it is composed of, or NONE if it is not decomposable>

Do not include any other text in your response.`

var (
	analysisLineRe   = regexp.MustCompile(`(?m)^\s*ANALYSIS:\s*(.+)`)
	componentsLineRe = regexp.MustCompile(`(?m)^\s*COMPONENTS:\s*(.+)`)
)

// Escalator handles ingredients the compound database does not know about.
// It asks the model to decompose the name into constituent compounds and
// re-verifies each component through the shared Verifier.
type Escalator struct {
	llm      groq.Client
	cfg      config.GroqConfig
	verifier *Verifier
}

func NewEscalator(llm groq.Client, cfg config.GroqConfig, verifier *Verifier) *Escalator {
	return &Escalator{llm: llm, cfg: cfg, verifier: verifier}
}

// Analyze decomposes a not-found ingredient name. A transport or API failure
// is returned as an error; a response that violates the line contract is not
// an error, it yields a degenerate analysis with no components so the caller
// can still render the row.
func (e *Escalator) Analyze(ctx context.Context, name string) (model.ComplexAnalysis, model.TokenUsage, error) {
	var usage model.TokenUsage

	temp := e.cfg.Temperature
	maxTokens := e.cfg.MaxTokens
	resp, err := e.llm.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: e.cfg.Model,
		Messages: []groq.Message{
			{Role: "user", Content: fmt.Sprintf(analysisPrompt, name)},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return model.ComplexAnalysis{}, usage, eris.Wrapf(err, "analyzing ingredient %q", name)
	}
	usage.PromptTokens = resp.Usage.PromptTokens
	usage.CompletionTokens = resp.Usage.CompletionTokens

	analysis, components := parseAnalysis(resp.Text())
	if analysis.Rationale == "" {
		zap.L().Warn("escalate: response violated format contract", zap.String("name", name))
		return model.ComplexAnalysis{Rationale: "Analysis Failed"}, usage, nil
	}

	for _, component := range components {
		result := e.verifier.Verify(ctx, NormalizeName(component))
		analysis.Components = append(analysis.Components, model.ComponentResult{
			Name:   component,
			Result: result,
		})
	}

	return analysis, usage, nil
}

// parseAnalysis extracts the ANALYSIS and COMPONENTS lines. Both lines must
// be present for the rationale to be accepted; a COMPONENTS value of NONE
// means the ingredient is not decomposable.
func parseAnalysis(text string) (model.ComplexAnalysis, []string) {
	analysisMatch := analysisLineRe.FindStringSubmatch(text)
	componentsMatch := componentsLineRe.FindStringSubmatch(text)
	if analysisMatch == nil || componentsMatch == nil {
		return model.ComplexAnalysis{}, nil
	}

	analysis := model.ComplexAnalysis{
		Rationale: strings.TrimSpace(analysisMatch[1]),
	}

	raw := strings.TrimSpace(componentsMatch[1])
	if strings.EqualFold(raw, "NONE") {
		return analysis, nil
	}
	var components []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			components = append(components, part)
		}
	}
	return analysis, components
}
