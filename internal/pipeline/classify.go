package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/formulary-labs/formulation-cli/internal/config"
	"github.com/formulary-labs/formulation-cli/internal/model"
	"github.com/formulary-labs/formulation-cli/pkg/groq"
)

// Categories recognized by the classifier, in display order.
var productCategories = []string{
	"Cleanser",
	"Moisturizer",
	"Serum",
	"Sunscreen",
	"Toner",
	"Shampoo",
	"Conditioner",
	"Body Lotion",
	"Lip Balm",
}

const classifyPrompt = `Classify the following cosmetic product brief into exactly one category from this list: %s.

Brief:
%s

Respond with ONLY a JSON object in this exact format:
{"category": "<category from the list>", "confidence": <0.0-1.0>}`

// Classifier infers a product category from a brief. When the brief already
// names a category it is used verbatim and no model call is made.
type Classifier struct {
	llm groq.Client
	cfg config.GroqConfig
}

func NewClassifier(llm groq.Client, cfg config.GroqConfig) *Classifier {
	return &Classifier{llm: llm, cfg: cfg}
}

// Classify returns the category for the brief. A model failure falls back to
// keyword matching rather than failing the run; classification is advisory
// and only shapes the generation prompt.
func (c *Classifier) Classify(ctx context.Context, brief model.Brief) (string, model.TokenUsage) {
	var usage model.TokenUsage

	if brief.Category != "" {
		return brief.Category, usage
	}

	// Deterministic classification, regardless of the configured temperature.
	temp := 0.0
	maxTokens := c.cfg.MaxTokens
	resp, err := c.llm.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []groq.Message{
			{Role: "user", Content: fmt.Sprintf(classifyPrompt, strings.Join(productCategories, ", "), briefText(brief))},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		zap.L().Warn("classify: model call failed, using keyword fallback", zap.Error(err))
		return classifyByKeywords(brief), usage
	}
	usage.PromptTokens = resp.Usage.PromptTokens
	usage.CompletionTokens = resp.Usage.CompletionTokens

	category, err := parseClassification(resp.Text())
	if err != nil {
		zap.L().Warn("classify: unparseable response, using keyword fallback", zap.Error(err))
		return classifyByKeywords(brief), usage
	}
	return category, usage
}

// parseClassification decodes the classifier JSON and validates the category
// against the known list.
func parseClassification(text string) (string, error) {
	var raw struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return "", eris.Wrap(err, "parsing classification JSON")
	}
	for _, cat := range productCategories {
		if strings.EqualFold(raw.Category, cat) {
			return cat, nil
		}
	}
	return "", eris.Errorf("unknown category %q", raw.Category)
}

// Keyword fallback rules, checked in order so more specific terms win.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"sunscreen", "Sunscreen"},
	{"spf", "Sunscreen"},
	{"lip balm", "Lip Balm"},
	{"face wash", "Cleanser"},
	{"cleanser", "Cleanser"},
	{"shampoo", "Shampoo"},
	{"conditioner", "Conditioner"},
	{"serum", "Serum"},
	{"toner", "Toner"},
	{"lotion", "Body Lotion"},
	{"moisturizer", "Moisturizer"},
	{"cream", "Moisturizer"},
}

// classifyByKeywords is the no-model fallback. Unmatched briefs default to
// Moisturizer, the most common formulation shape.
func classifyByKeywords(brief model.Brief) string {
	text := strings.ToLower(briefText(brief))
	for _, rule := range categoryKeywords {
		if strings.Contains(text, rule.keyword) {
			return rule.category
		}
	}
	return "Moisturizer"
}

func briefText(brief model.Brief) string {
	parts := []string{brief.Ingredients}
	if brief.PriceTier != "" {
		parts = append(parts, "price tier: "+brief.PriceTier)
	}
	if len(brief.Constraints) > 0 {
		parts = append(parts, strings.Join(brief.Constraints, ", "))
	}
	return strings.Join(parts, "; ")
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
