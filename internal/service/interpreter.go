package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/staprolab/interpret-server/internal/domain"
)

// Interpreter sequences the interpretation pipeline:
// Normalize -> Predict -> FormulateQuery -> Retrieve -> Assemble -> Generate.
// Each stage adds to the accumulated state and never mutates prior results.
// All state is request-scoped; concurrent requests share only the injected
// read-only collaborators.
type Interpreter struct {
	normalizer *Normalizer
	scorer     domain.RiskScorer
	engine     *InstructionEngine
	formulator *QueryFormulator
	retriever  *Retriever
	assembler  *PromptAssembler
	generator  domain.Generator

	retrievalTimeout time.Duration
	logger           *logrus.Logger
}

// InterpreterParams bundles the collaborators for construction.
type InterpreterParams struct {
	Normalizer       *Normalizer
	Scorer           domain.RiskScorer
	Engine           *InstructionEngine
	Formulator       *QueryFormulator
	Retriever        *Retriever
	Assembler        *PromptAssembler
	Generator        domain.Generator
	RetrievalTimeout time.Duration
	Logger           *logrus.Logger
}

// NewInterpreter creates a new pipeline orchestrator.
func NewInterpreter(params InterpreterParams) *Interpreter {
	if params.RetrievalTimeout <= 0 {
		params.RetrievalTimeout = 30 * time.Second
	}
	return &Interpreter{
		normalizer:       params.Normalizer,
		scorer:           params.Scorer,
		engine:           params.Engine,
		formulator:       params.Formulator,
		retriever:        params.Retriever,
		assembler:        params.Assembler,
		generator:        params.Generator,
		retrievalTimeout: params.RetrievalTimeout,
		logger:           params.Logger,
	}
}

// Interpret runs the full pipeline on a raw request body. It returns the
// interpretation text or a structured pipeline error.
func (i *Interpreter) Interpret(ctx context.Context, raw []byte) (string, error) {
	record, err := i.normalizer.Normalize(raw)
	if err != nil {
		return "", err
	}
	return i.run(ctx, record)
}

// InterpretRequest runs the pipeline on an already-decoded request.
func (i *Interpreter) InterpretRequest(ctx context.Context, req *domain.InterpretRequest) (string, error) {
	record, err := i.normalizer.NormalizeRequest(req)
	if err != nil {
		return "", err
	}
	return i.run(ctx, record)
}

func (i *Interpreter) run(ctx context.Context, record *domain.CanonicalRecord) (string, error) {
	started := time.Now()
	log := i.logger.WithFields(logrus.Fields{
		"request_id":        record.RequestID,
		"evaluation_method": record.EvaluationMethod,
	})

	predictive := i.scorer.Score(record)
	log.WithField("predictive_status", predictive.Status).Debug("Predictive stage completed")

	instructions := i.engine.Derive(record.EvaluationMethod, record.Patient, record.LabResults)

	query := i.formulator.Formulate(record, predictive)
	log.WithField("query", query).Debug("Retrieval query formulated")

	retrievalCtx, cancel := context.WithTimeout(ctx, i.retrievalTimeout)
	retrieval := i.retriever.Retrieve(retrievalCtx, query)
	cancel()
	log.WithFields(logrus.Fields{
		"hits":     len(retrieval.Hits),
		"fallback": retrieval.Fallback,
	}).Debug("Retrieval stage completed")

	genReq := i.assembler.Assemble(record, predictive, retrieval, instructions)

	text, err := i.generator.Generate(ctx, genReq)
	if err != nil {
		log.WithError(err).Error("Generation failed")
		pe := domain.AsPipelineError(err)
		if pe.Kind != domain.ErrGenerationFailure {
			pe = domain.NewGenerationError("interpretation generation failed").WithCause(err)
		}
		return "", pe
	}

	log.WithFields(logrus.Fields{
		"duration_ms": time.Since(started).Milliseconds(),
		"text_length": len(text),
	}).Info("Interpretation completed")

	return text, nil
}
