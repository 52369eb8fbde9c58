package service

import (
	"fmt"
	"strings"

	"github.com/staprolab/interpret-server/internal/domain"
)

// QueryFormulator builds the retrieval query string from the canonical
// record and the predictive output. Deterministic and never empty.
type QueryFormulator struct{}

// NewQueryFormulator creates a new query formulator.
func NewQueryFormulator() *QueryFormulator {
	return &QueryFormulator{}
}

// Formulate concatenates a labeled clause per non-empty source. When no
// abnormality and no risk exist, it falls back to a generic clause built
// from the first parameter name, or a generic term for an empty panel.
//
// The abnormal clause collects every named parameter whose status is present
// and not NORMAL. That includes N/A: an indeterminate result is still worth
// retrieving context for, unlike in the significant-abnormality rule where
// N/A counts as normal.
func (f *QueryFormulator) Formulate(record *domain.CanonicalRecord, predictive *domain.PredictiveOutput) string {
	var abnormalNames []string
	for _, r := range record.LabResults {
		if r.Status() != domain.StatusNormal && strings.TrimSpace(r.ParameterName) != "" {
			abnormalNames = append(abnormalNames, r.ParameterName)
		}
	}

	var risks []string
	if predictive != nil {
		risks = predictive.IdentifiedRisks
	}

	var clauses []string
	if len(abnormalNames) > 0 {
		clauses = append(clauses, "abnormal parameters: "+strings.Join(abnormalNames, ", "))
	}
	if len(risks) > 0 {
		clauses = append(clauses, "risk information: "+strings.Join(risks, ", "))
	}
	if len(clauses) > 0 {
		return strings.Join(clauses, "; ")
	}

	if len(record.LabResults) > 0 && strings.TrimSpace(record.LabResults[0].ParameterName) != "" {
		return fmt.Sprintf("general information for %s", record.LabResults[0].ParameterName)
	}
	return "general information for laboratory results"
}
