package service

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staprolab/interpret-server/internal/domain"
)

func newTestScorer() *RuleBasedRiskScorer {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewRuleBasedRiskScorer(logger)
}

func TestScoreThresholds(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		name          string
		result        domain.LabResult
		wantRisk      string
		wantDiagnosis string
	}{
		{
			name:          "crp above sepsis threshold",
			result:        domain.LabResult{ParameterName: "CRP", Value: "150", InterpretationStatus: "HIGH"},
			wantRisk:      "risk of severe infection or sepsis",
			wantDiagnosis: "possible sepsis or severe infection",
		},
		{
			name:          "crp above inflammation threshold",
			result:        domain.LabResult{ParameterName: "CRP", Value: "35.0", InterpretationStatus: "HIGH"},
			wantRisk:      "increased risk of inflammatory disease",
			wantDiagnosis: "possible inflammatory process",
		},
		{
			name:          "glucose above diabetes threshold",
			result:        domain.LabResult{ParameterName: "Glukóza", Value: "12.5", InterpretationStatus: "HIGH"},
			wantRisk:      "high risk of diabetes mellitus",
			wantDiagnosis: "probable diabetes mellitus",
		},
		{
			name:     "glucose above prediabetes threshold",
			result:   domain.LabResult{ParameterName: "glucose", Value: "8.2", InterpretationStatus: "HIGH"},
			wantRisk: "risk of impaired glucose tolerance or prediabetes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &domain.CanonicalRecord{LabResults: []domain.LabResult{tt.result}}
			out := scorer.Score(record)

			require.NotNil(t, out)
			assert.Equal(t, RiskStatusIdentified, out.Status)
			assert.Equal(t, riskModelVersion, out.ModelVersion)
			if tt.wantRisk != "" {
				assert.Contains(t, out.IdentifiedRisks, tt.wantRisk)
			}
			if tt.wantDiagnosis != "" {
				assert.Contains(t, out.PotentialDiagnoses, tt.wantDiagnosis)
			}
		})
	}
}

func TestScoreIgnoresNonTriggering(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		name   string
		result domain.LabResult
	}{
		{"crp high but below threshold", domain.LabResult{ParameterName: "CRP", Value: "5.0", InterpretationStatus: "HIGH"}},
		{"crp elevated value but normal status", domain.LabResult{ParameterName: "CRP", Value: "150", InterpretationStatus: "NORMAL"}},
		{"non-numeric value", domain.LabResult{ParameterName: "CRP", Value: "positive", InterpretationStatus: "HIGH"}},
		{"unrelated parameter", domain.LabResult{ParameterName: "ALT", Value: "99", InterpretationStatus: "HIGH"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &domain.CanonicalRecord{LabResults: []domain.LabResult{tt.result}}
			out := scorer.Score(record)

			assert.Equal(t, RiskStatusNone, out.Status)
			assert.Empty(t, out.IdentifiedRisks)
			assert.Empty(t, out.PotentialDiagnoses)
		})
	}
}

func TestScoreDecimalComma(t *testing.T) {
	scorer := newTestScorer()

	record := &domain.CanonicalRecord{LabResults: []domain.LabResult{
		{ParameterName: "Glukóza", Value: "12,5", InterpretationStatus: "HIGH"},
	}}
	out := scorer.Score(record)

	assert.Contains(t, out.PotentialDiagnoses, "probable diabetes mellitus")
}
