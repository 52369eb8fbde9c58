package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/staprolab/interpret-server/internal/domain"
)

func TestFormulateCombinesClauses(t *testing.T) {
	f := NewQueryFormulator()

	record := &domain.CanonicalRecord{
		LabResults: []domain.LabResult{
			{ParameterName: "CRP", InterpretationStatus: "HIGH"},
			{ParameterName: "Glukóza", InterpretationStatus: "HIGH"},
			{ParameterName: "ALT", InterpretationStatus: "NORMAL"},
		},
	}
	predictive := &domain.PredictiveOutput{
		IdentifiedRisks: []string{"increased risk of inflammatory disease"},
	}

	query := f.Formulate(record, predictive)

	assert.Contains(t, query, "abnormal parameters: CRP, Glukóza")
	assert.Contains(t, query, "risk information: increased risk of inflammatory disease")
	assert.NotContains(t, query, "ALT")
}

func TestFormulateFallbacks(t *testing.T) {
	f := NewQueryFormulator()

	tests := []struct {
		name     string
		record   *domain.CanonicalRecord
		expected string
	}{
		{
			name: "all normal falls back to first parameter",
			record: &domain.CanonicalRecord{
				LabResults: []domain.LabResult{
					{ParameterName: "Kreatinin", InterpretationStatus: "NORMAL"},
				},
			},
			expected: "general information for Kreatinin",
		},
		{
			name:     "empty panel falls back to generic term",
			record:   &domain.CanonicalRecord{},
			expected: "general information for laboratory results",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := f.Formulate(tt.record, &domain.PredictiveOutput{})
			assert.Equal(t, tt.expected, query)
		})
	}
}

func TestFormulateIncludesIndeterminateStatuses(t *testing.T) {
	f := NewQueryFormulator()

	record := &domain.CanonicalRecord{
		LabResults: []domain.LabResult{
			{ParameterName: "Titr BK", InterpretationStatus: "N/A"},
			{ParameterName: "CRP", InterpretationStatus: "HIGH"},
			{ParameterName: "ALT"},
		},
	}

	query := f.Formulate(record, &domain.PredictiveOutput{})

	// N/A is indeterminate, not normal; it belongs in the retrieval query.
	// A missing status defaults to normal and stays out.
	assert.Equal(t, "abnormal parameters: Titr BK, CRP", query)
}

func TestFormulateNeverEmpty(t *testing.T) {
	f := NewQueryFormulator()

	tests := []struct {
		name       string
		record     *domain.CanonicalRecord
		predictive *domain.PredictiveOutput
	}{
		{"nil predictive", &domain.CanonicalRecord{}, nil},
		{"empty predictive", &domain.CanonicalRecord{}, &domain.PredictiveOutput{}},
		{
			"abnormal result without a name",
			&domain.CanonicalRecord{LabResults: []domain.LabResult{{InterpretationStatus: "HIGH"}}},
			&domain.PredictiveOutput{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, f.Formulate(tt.record, tt.predictive))
		})
	}
}

func TestFormulateDeterministic(t *testing.T) {
	f := NewQueryFormulator()

	record := &domain.CanonicalRecord{
		LabResults: []domain.LabResult{
			{ParameterName: "CRP", InterpretationStatus: "HIGH"},
		},
	}
	predictive := &domain.PredictiveOutput{IdentifiedRisks: []string{"risk a", "risk b"}}

	assert.Equal(t, f.Formulate(record, predictive), f.Formulate(record, predictive))
}
