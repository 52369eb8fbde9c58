package service

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staprolab/interpret-server/internal/domain"
)

func newTestNormalizer() *Normalizer {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewNormalizer(logger)
}

func TestNormalizeValidPayload(t *testing.T) {
	n := newTestNormalizer()

	raw := []byte(`{
		"request_id": "req-001",
		"evaluation_method": "NEHRAZENY_POPIS_NORMAL",
		"patient_metadata": {"age": 42, "gender": "F"},
		"current_lab_results": [
			{"parameter_code": "CRP", "parameter_name": "CRP", "value": "2.0",
			 "unit": "mg/L", "reference_range_raw": "0-5", "interpretation_status": "NORMAL"}
		],
		"diagnoses": ["J06.9"]
	}`)

	record, err := n.Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "req-001", record.RequestID)
	assert.Equal(t, "NEHRAZENY_POPIS_NORMAL", record.EvaluationMethod)
	require.NotNil(t, record.Patient.Age)
	assert.Equal(t, 42, *record.Patient.Age)
	require.Len(t, record.LabResults, 1)
	assert.Equal(t, "CRP", record.LabResults[0].ParameterCode)
	assert.Equal(t, []string{"J06.9"}, record.Diagnoses)
}

func TestNormalizeErrors(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name     string
		raw      string
		wantKind string
	}{
		{"empty body", "", domain.ErrMalformedInput},
		{"unterminated payload", `{"request_id": "r1", "evaluation_method"`, domain.ErrMalformedInput},
		{"non-object payload", `[1, 2, 3]`, domain.ErrNormalizationFailure},
		{"missing request_id", `{"evaluation_method": "NEHRAZENY"}`, domain.ErrMalformedInput},
		{"missing evaluation_method", `{"request_id": "r1"}`, domain.ErrMalformedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := n.Normalize([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, record)

			var pe *domain.PipelineError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantKind, pe.Kind)
		})
	}
}

func TestNormalizeOptionalFieldsDegrade(t *testing.T) {
	n := newTestNormalizer()

	raw := []byte(`{"request_id": "r2", "evaluation_method": "NEHRAZENY"}`)

	record, err := n.Normalize(raw)
	require.NoError(t, err)

	assert.Nil(t, record.Patient.Age)
	assert.Equal(t, "unknown", record.Patient.AgeText())
	assert.Empty(t, record.LabResults)
	assert.Empty(t, record.Diagnoses)
}
