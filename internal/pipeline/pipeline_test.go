package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/formulary-labs/formulation-cli/internal/config"
	"github.com/formulary-labs/formulation-cli/internal/model"
	"github.com/formulary-labs/formulation-cli/pkg/pubchem"
)

func testPipeline(llm *mockGroqClient, compounds *mockPubChemClient, st *mockStore) *Pipeline {
	cfg := &config.Config{
		Groq:     testGroqConfig(),
		Pipeline: config.PipelineConfig{VerifyWorkers: 2},
	}
	verifier := NewVerifier(compounds, newFakeCache())
	escalator := NewEscalator(llm, cfg.Groq, verifier)
	assembler := NewAssembler(verifier, escalator, cfg.Pipeline.VerifyWorkers, cfg.Pipeline.NoEscalate)
	return New(cfg, st, NewClassifier(llm, cfg.Groq), NewGenerator(llm, cfg.Groq), assembler)
}

func passiveStore() *mockStore {
	st := &mockStore{}
	st.On("CreateRun", mock.Anything, mock.Anything).Return(&model.Run{ID: "run-1"}, nil)
	st.On("UpdateRunStatus", mock.Anything, "run-1", mock.Anything).Return(nil)
	st.On("UpdateRunResult", mock.Anything, "run-1", mock.Anything).Return(nil)
	return st
}

func TestPipelineRun(t *testing.T) {
	llm := &mockGroqClient{}
	llm.On("ChatCompletion", mock.Anything, mock.Anything).Return(groqTextResponse(sampleTable), nil)

	compounds := &mockPubChemClient{}
	compounds.On("LookupByName", mock.Anything, "Aqua").Return([]pubchem.Compound{
		{CID: 962, MolecularFormula: "H2O"},
	}, nil)
	compounds.On("LookupByName", mock.Anything, "Glycerin").Return([]pubchem.Compound{
		{CID: 753, MolecularFormula: "C3H8O3"},
	}, nil)
	compounds.On("LookupByName", mock.Anything, "Cetyl Alcohol").Return([]pubchem.Compound{
		{CID: 2682, MolecularFormula: "C16H34O"},
	}, nil)

	st := passiveStore()
	p := testPipeline(llm, compounds, st)

	result, err := p.Run(context.Background(), model.Brief{
		Category:    "Moisturizer",
		Ingredients: "glycerin, cetyl alcohol",
	})

	require.NoError(t, err)
	assert.Equal(t, "Moisturizer", result.Category)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "Aqua*", result.Rows[0].Ingredient)
	assert.Equal(t, model.StatusVerified, result.Rows[0].Status)
	assert.Contains(t, result.Report, "Formulation Report: Moisturizer")
	assert.Empty(t, result.Error)

	// classify (skipped model call), generate, verify, report.
	names := make([]string, len(result.Phases))
	for i, ph := range result.Phases {
		names[i] = ph.Name
		assert.Equal(t, model.PhaseStatusComplete, ph.Status)
	}
	assert.Equal(t, []string{"classify", "generate", "verify", "report"}, names)

	st.AssertCalled(t, "UpdateRunStatus", mock.Anything, "run-1", model.RunStatusComplete)
	st.AssertCalled(t, "UpdateRunResult", mock.Anything, "run-1", mock.Anything)
}

func TestPipelineRun_GenerateFailureIsFatal(t *testing.T) {
	llm := &mockGroqClient{}
	llm.On("ChatCompletion", mock.Anything, mock.Anything).Return(nil, eris.New("status 500"))

	st := passiveStore()
	p := testPipeline(llm, &mockPubChemClient{}, st)

	result, err := p.Run(context.Background(), model.Brief{
		Category:    "Serum",
		Ingredients: "niacinamide",
	})

	require.Error(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Error)
	st.AssertCalled(t, "UpdateRunResult", mock.Anything, "run-1", mock.Anything)
	st.AssertNotCalled(t, "UpdateRunStatus", mock.Anything, "run-1", model.RunStatusComplete)
}

func TestPipelineRun_NothingParseable(t *testing.T) {
	llm := &mockGroqClient{}
	llm.On("ChatCompletion", mock.Anything, mock.Anything).Return(groqTextResponse(
		"I could not produce a formulation table for this brief.",
	), nil)

	st := passiveStore()
	p := testPipeline(llm, &mockPubChemClient{}, st)

	_, err := p.Run(context.Background(), model.Brief{
		Category:    "Toner",
		Ingredients: "witch hazel",
	})

	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNothingParseable))
}

func TestVerifyText(t *testing.T) {
	compounds := &mockPubChemClient{}
	compounds.On("LookupByName", mock.Anything, "Aqua").Return([]pubchem.Compound{
		{CID: 962, MolecularFormula: "H2O"},
	}, nil)
	compounds.On("LookupByName", mock.Anything, "Glycerin").Return([]pubchem.Compound{
		{CID: 753, MolecularFormula: "C3H8O3"},
	}, nil)
	compounds.On("LookupByName", mock.Anything, "Cetyl Alcohol").Return([]pubchem.Compound{}, nil)

	llm := &mockGroqClient{}
	llm.On("ChatCompletion", mock.Anything, mock.Anything).Return(groqTextResponse(
		"ANALYSIS: A fatty alcohol blend.\nCOMPONENTS: NONE",
	), nil)

	st := &mockStore{}
	p := testPipeline(llm, compounds, st)

	result, err := p.VerifyText(context.Background(), sampleTable)

	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, model.StatusComplex, result.Rows[2].Status)
	assert.Equal(t, "A fatty alcohol blend.", result.Rows[2].Detail)
	// Nothing touches the store in verify-only mode.
	st.AssertNotCalled(t, "CreateRun")
}

func TestVerifyText_NothingParseable(t *testing.T) {
	p := testPipeline(&mockGroqClient{}, &mockPubChemClient{}, &mockStore{})

	result, err := p.VerifyText(context.Background(), "no table here")

	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNothingParseable))
	assert.NotEmpty(t, result.Error)
}
