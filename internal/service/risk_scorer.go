package service

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/staprolab/interpret-server/internal/domain"
)

// Rule-based stand-in for a trained predictive model. Version is reported in
// the output so downstream consumers can tell heuristic flags from real ones.
const riskModelVersion = "mock_v0.1"

// Predictive status tags.
const (
	RiskStatusIdentified = "risks_identified"
	RiskStatusNone       = "no_risks_identified"
)

// RuleBasedRiskScorer derives risk flags from the current lab panel using a
// fixed threshold table. Implements domain.RiskScorer.
type RuleBasedRiskScorer struct {
	logger *logrus.Logger
}

// NewRuleBasedRiskScorer creates a new rule-based risk scorer.
func NewRuleBasedRiskScorer(logger *logrus.Logger) *RuleBasedRiskScorer {
	return &RuleBasedRiskScorer{logger: logger}
}

// Score evaluates the threshold rules against the record's lab results.
// Non-numeric values are skipped; the scorer never fails.
func (s *RuleBasedRiskScorer) Score(record *domain.CanonicalRecord) *domain.PredictiveOutput {
	out := &domain.PredictiveOutput{
		IdentifiedRisks:    []string{},
		PotentialDiagnoses: []string{},
		ModelVersion:       riskModelVersion,
	}

	for _, r := range record.LabResults {
		if r.Status() != domain.StatusHigh {
			continue
		}
		value, ok := numericValue(r.Value)
		if !ok {
			continue
		}
		name := strings.ToLower(r.ParameterName)

		switch {
		case strings.Contains(name, "crp"):
			if value > 100 {
				out.IdentifiedRisks = append(out.IdentifiedRisks, "risk of severe infection or sepsis")
				out.PotentialDiagnoses = append(out.PotentialDiagnoses, "possible sepsis or severe infection")
			} else if value > 10 {
				out.IdentifiedRisks = append(out.IdentifiedRisks, "increased risk of inflammatory disease")
				out.PotentialDiagnoses = append(out.PotentialDiagnoses, "possible inflammatory process")
			}
		case strings.Contains(name, "glukóza"), strings.Contains(name, "glucose"):
			if value > 11.1 {
				out.IdentifiedRisks = append(out.IdentifiedRisks, "high risk of diabetes mellitus")
				out.PotentialDiagnoses = append(out.PotentialDiagnoses, "probable diabetes mellitus")
			} else if value > 7.0 {
				out.IdentifiedRisks = append(out.IdentifiedRisks, "risk of impaired glucose tolerance or prediabetes")
			}
		}
	}

	if len(out.IdentifiedRisks) > 0 || len(out.PotentialDiagnoses) > 0 {
		out.Status = RiskStatusIdentified
	} else {
		out.Status = RiskStatusNone
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"request_id": record.RequestID,
			"status":     out.Status,
			"risks":      len(out.IdentifiedRisks),
			"diagnoses":  len(out.PotentialDiagnoses),
		}).Debug("Predictive analysis completed")
	}

	return out
}

// numericValue parses an analyzer value string, tolerating decimal commas.
func numericValue(raw string) (float64, bool) {
	v := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
