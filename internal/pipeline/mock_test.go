package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/formulary-labs/formulation-cli/internal/model"
	"github.com/formulary-labs/formulation-cli/internal/store"
	"github.com/formulary-labs/formulation-cli/pkg/groq"
	"github.com/formulary-labs/formulation-cli/pkg/pubchem"
)

// --- Groq Mock ---

type mockGroqClient struct {
	mock.Mock
}

func (m *mockGroqClient) ChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*groq.ChatCompletionResponse), args.Error(1)
}

// groqTextResponse builds a single-choice response with the given content.
func groqTextResponse(content string) *groq.ChatCompletionResponse {
	return &groq.ChatCompletionResponse{
		Choices: []groq.Choice{
			{Message: groq.Message{Role: "assistant", Content: content}},
		},
		Usage: groq.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}
}

// --- PubChem Mock ---

type mockPubChemClient struct {
	mock.Mock
}

func (m *mockPubChemClient) LookupByName(ctx context.Context, name string) ([]pubchem.Compound, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pubchem.Compound), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, brief model.Brief) (*model.Run, error) {
	args := m.Called(ctx, brief)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	args := m.Called(ctx, runID, status)
	return args.Error(0)
}

func (m *mockStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	args := m.Called(ctx, runID, result)
	return args.Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) GetRunResult(ctx context.Context, runID string) (*model.RunResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RunResult), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) GetCachedLookup(ctx context.Context, name string) (*model.LookupResult, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LookupResult), args.Error(1)
}

func (m *mockStore) SetCachedLookup(ctx context.Context, name string, result model.LookupResult, ttl time.Duration) error {
	args := m.Called(ctx, name, result, ttl)
	return args.Error(0)
}

func (m *mockStore) DeleteExpiredLookups(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Cache fake ---

// fakeCache is a plain map cache with call counters, simpler than a mock
// for asserting hit/miss behavior.
type fakeCache struct {
	entries map[string]model.LookupResult
	gets    int
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]model.LookupResult{}}
}

func (f *fakeCache) Get(_ context.Context, name string) (model.LookupResult, bool) {
	f.gets++
	r, ok := f.entries[name]
	return r, ok
}

func (f *fakeCache) Put(_ context.Context, name string, result model.LookupResult) {
	f.puts++
	f.entries[name] = result
}
