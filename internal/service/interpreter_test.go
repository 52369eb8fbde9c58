package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staprolab/interpret-server/internal/domain"
)

type stubGenerator struct {
	text    string
	err     error
	called  int
	lastReq *domain.GenerationRequest
}

func (g *stubGenerator) Generate(ctx context.Context, req *domain.GenerationRequest) (string, error) {
	g.called++
	g.lastReq = req
	return g.text, g.err
}

func newTestInterpreter(gen domain.Generator, searcher domain.KnowledgeSearcher, snippets domain.SnippetSearcher) *Interpreter {
	logger := quietLogger()
	return NewInterpreter(InterpreterParams{
		Normalizer: NewNormalizer(logger),
		Scorer:     NewRuleBasedRiskScorer(logger),
		Engine:     NewInstructionEngine(logger),
		Formulator: NewQueryFormulator(),
		Retriever:  NewRetriever(searcher, snippets, 3, logger),
		Assembler:  NewPromptAssembler(),
		Generator:  gen,
		Logger:     logger,
	})
}

func TestInterpretNormalScenario(t *testing.T) {
	gen := &stubGenerator{text: "All parameters are within the reference range."}
	i := newTestInterpreter(gen, nil, &stubSnippets{})

	raw := []byte(`{
		"request_id": "req-1",
		"evaluation_method": "NEHRAZENY_POPIS_NORMAL",
		"current_lab_results": [
			{"parameter_code": "CRP", "parameter_name": "CRP", "value": "2.0",
			 "unit": "mg/L", "reference_range_raw": "0-5", "interpretation_status": "NORMAL"}
		]
	}`)

	text, err := i.Interpret(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "All parameters are within the reference range.", text)

	require.NotNil(t, gen.lastReq)
	assert.True(t, gen.lastReq.Instructions.Contains(DirectiveBriefNormal))
	assert.False(t, gen.lastReq.Instructions.Contains("HRAZENY_POPIS_BALICEK"))
}

func TestInterpretAbnormalScenario(t *testing.T) {
	gen := &stubGenerator{text: "Elevated CRP suggests inflammation."}
	i := newTestInterpreter(gen, nil, &stubSnippets{})

	raw := []byte(`{
		"request_id": "req-2",
		"evaluation_method": "NEHRAZENY_POPIS_ABNORMITA",
		"current_lab_results": [
			{"parameter_code": "CRP", "parameter_name": "CRP", "value": "35.0",
			 "unit": "mg/L", "reference_range_raw": "0-5", "interpretation_status": "HIGH"}
		]
	}`)

	_, err := i.Interpret(context.Background(), raw)
	require.NoError(t, err)

	require.NotNil(t, gen.lastReq)
	assert.True(t, gen.lastReq.Instructions.Contains(DirectiveFocus))
	assert.Contains(t, gen.lastReq.PredictiveText, "increased risk of inflammatory disease")
}

func TestInterpretMalformedInputNeverReachesGenerator(t *testing.T) {
	gen := &stubGenerator{text: "should not be produced"}
	i := newTestInterpreter(gen, nil, &stubSnippets{})

	_, err := i.Interpret(context.Background(), []byte(`{"request_id": "r", "evaluation`))
	require.Error(t, err)

	var pe *domain.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, domain.ErrMalformedInput, pe.Kind)
	assert.Zero(t, gen.called)
}

func TestInterpretRetrievalFailureDoesNotAbort(t *testing.T) {
	gen := &stubGenerator{text: "interpretation"}
	searcher := &stubSearcher{err: errors.New("vector backend down")}
	snippets := &stubSnippets{hits: []domain.RetrievalHit{
		{Source: "builtin/crp", Content: "crp snippet", Score: 1.0},
	}}
	i := newTestInterpreter(gen, searcher, snippets)

	raw := []byte(`{
		"request_id": "req-3",
		"evaluation_method": "NEHRAZENY",
		"current_lab_results": [
			{"parameter_name": "CRP", "value": "35.0", "interpretation_status": "HIGH"}
		]
	}`)

	_, err := i.Interpret(context.Background(), raw)
	require.NoError(t, err)
	assert.Contains(t, gen.lastReq.RetrievedContext, "crp snippet")
}

func TestInterpretGenerationFailureSurfacesStructuredError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model overloaded")}
	i := newTestInterpreter(gen, nil, &stubSnippets{})

	raw := []byte(`{"request_id": "req-4", "evaluation_method": "NEHRAZENY"}`)

	_, err := i.Interpret(context.Background(), raw)
	require.Error(t, err)

	var pe *domain.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, domain.ErrGenerationFailure, pe.Kind)
	assert.Equal(t, 500, pe.StatusCode)
}
