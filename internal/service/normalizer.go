package service

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/staprolab/interpret-server/internal/domain"
)

// Normalizer parses and validates raw structured lab-request input into a
// canonical record. The record is created once per request and treated as
// read-only afterwards.
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a new normalizer.
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize parses the raw JSON body into a canonical record. Malformed
// payloads fail the pipeline before any other stage runs; missing optional
// fields degrade to defaults instead of failing.
func (n *Normalizer) Normalize(raw []byte) (*domain.CanonicalRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, domain.NewMalformedInputError("request body is empty")
	}

	// Reject non-object payloads up front; json.Unmarshal into a struct
	// accepts top-level null silently.
	if trimmed[0] != '{' {
		return nil, domain.NewNormalizationError("request body is not a JSON object").
			WithDetail(snippet(trimmed))
	}

	var req domain.InterpretRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, domain.NewMalformedInputError("request body is not well-formed JSON").WithCause(err)
	}

	return n.NormalizeRequest(&req)
}

// NormalizeRequest validates an already-decoded request and builds the
// canonical record.
func (n *Normalizer) NormalizeRequest(req *domain.InterpretRequest) (*domain.CanonicalRecord, error) {
	if strings.TrimSpace(req.RequestID) == "" {
		return nil, domain.NewMalformedInputError("request_id is required")
	}
	if strings.TrimSpace(req.EvaluationMethod) == "" {
		return nil, domain.NewMalformedInputError("evaluation_method is required")
	}

	record := &domain.CanonicalRecord{
		RequestID:              req.RequestID,
		EvaluationMethod:       req.EvaluationMethod,
		Patient:                req.PatientMetadata,
		LabResults:             req.CurrentLabResults,
		DastaTextSections:      req.DastaTextSections,
		Diagnoses:              req.Diagnoses,
		AnamnesisAndMedication: req.AnamnesisAndMedication,
	}

	if n.logger != nil {
		n.logger.WithFields(logrus.Fields{
			"request_id":        record.RequestID,
			"evaluation_method": record.EvaluationMethod,
			"lab_result_count":  len(record.LabResults),
		}).Debug("Normalized lab request")
	}

	return record, nil
}

// snippet truncates a payload for error details.
func snippet(raw []byte) string {
	const max = 200
	s := string(raw)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
