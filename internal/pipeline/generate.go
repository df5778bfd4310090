package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/formulary-labs/formulation-cli/internal/config"
	"github.com/formulary-labs/formulation-cli/internal/model"
	"github.com/formulary-labs/formulation-cli/pkg/groq"
)

const generatePrompt = `You are an expert cosmetic formulation chemist. Create a complete formulation for a %s.

%s
Present the formulation as a markdown table with these columns, in this order:

| Phase | Ingredient Name | INCI Name | %% (w/w) | Function |

Include every phase (water phase, oil phase, cool-down, preservation) and make the percentages sum to 100. After the table, add brief manufacturing notes.`

// Generator produces the formulation draft. Unlike classification and
// escalation, a generation failure is fatal to the run: everything
// downstream consumes this text.
type Generator struct {
	llm groq.Client
	cfg config.GroqConfig
}

func NewGenerator(llm groq.Client, cfg config.GroqConfig) *Generator {
	return &Generator{llm: llm, cfg: cfg}
}

// Generate returns the raw formulation text for the brief.
func (g *Generator) Generate(ctx context.Context, category string, brief model.Brief) (string, model.TokenUsage, error) {
	var usage model.TokenUsage

	temp := g.cfg.Temperature
	maxTokens := g.cfg.MaxTokens
	resp, err := g.llm.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []groq.Message{
			{Role: "user", Content: fmt.Sprintf(generatePrompt, category, briefRequirements(brief))},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", usage, eris.Wrap(err, "generating formulation")
	}
	usage.PromptTokens = resp.Usage.PromptTokens
	usage.CompletionTokens = resp.Usage.CompletionTokens

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", usage, eris.New("model returned an empty formulation")
	}
	return text, usage, nil
}

func briefRequirements(brief model.Brief) string {
	var sb strings.Builder
	if brief.Ingredients != "" {
		fmt.Fprintf(&sb, "Required ingredients: %s.\n", brief.Ingredients)
	}
	if brief.PriceTier != "" {
		fmt.Fprintf(&sb, "Target price tier: %s.\n", brief.PriceTier)
	}
	if len(brief.Constraints) > 0 {
		fmt.Fprintf(&sb, "Constraints: %s.\n", strings.Join(brief.Constraints, ", "))
	}
	return sb.String()
}
