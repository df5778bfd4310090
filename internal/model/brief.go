package model

import "time"

// Brief is the structured formulation request passed to the generator.
type Brief struct {
	Category    string   `json:"category"`
	Ingredients string   `json:"ingredients"`
	PriceTier   string   `json:"price_tier,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

// RunStatus tracks a verification run through the pipeline.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusClassifying RunStatus = "classifying"
	RunStatusGenerating  RunStatus = "generating"
	RunStatusVerifying   RunStatus = "verifying"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run is a persisted pipeline invocation.
type Run struct {
	ID        string    `json:"id"`
	Brief     Brief     `json:"brief"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name       string         `json:"name"`
	Status     PhaseStatus    `json:"status"`
	Duration   int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
	TokenUsage TokenUsage     `json:"token_usage,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// TokenUsage tracks generative-model token consumption across phases.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.PromptTokens += other.PromptTokens
	t.CompletionTokens += other.CompletionTokens
}

// Total returns combined prompt and completion tokens.
func (t TokenUsage) Total() int {
	return t.PromptTokens + t.CompletionTokens
}

// RunResult is the full outcome of a pipeline run: the generated document,
// the verification rows in extraction order, and the rendered report.
type RunResult struct {
	Category        string        `json:"category"`
	FormulationText string        `json:"formulation_text,omitempty"`
	Rows            []ReportRow   `json:"rows"`
	Report          string        `json:"report"`
	Phases          []PhaseResult `json:"phases"`
	TokenUsage      TokenUsage    `json:"token_usage"`
	Error           string        `json:"error,omitempty"`
}
