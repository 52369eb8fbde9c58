package service

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/staprolab/interpret-server/internal/domain"
)

// Directives shared with tests and downstream consumers. The generator
// receives these verbatim; substring checks against them are part of the
// engine's contract.
const (
	DirectiveBriefNormal = "All measured parameters are within the reference range. Generate only a brief statement confirming this."
	DirectiveNoElaborate = "Do not elaborate on individual parameters and do not add recommendations."
	DirectiveFocus       = "Focus the interpretation on the significantly abnormal parameters and on any exception parameters present. Do not describe unremarkable parameters in detail."
	DirectiveFallback    = "No specific reporting instructions apply to this request. Generate a standard interpretation of the provided laboratory results."
)

// InstructionEngine derives the reporting policy for one request. It is a
// pure function of (evaluation_method, patient metadata, lab results):
// identical inputs always yield identical output and no input shape fails.
type InstructionEngine struct {
	logger *logrus.Logger
}

// NewInstructionEngine creates a new instruction engine.
func NewInstructionEngine(logger *logrus.Logger) *InstructionEngine {
	return &InstructionEngine{logger: logger}
}

// Derive produces the ordered instruction set governing what the generator
// must discuss. All applicable branches fire; instructions accumulate and
// are not mutually exclusive. The result is never empty.
func (e *InstructionEngine) Derive(evaluationMethod string, patient domain.PatientMetadata, results []domain.LabResult) domain.InstructionSet {
	flags := domain.ClassifyPolicy(evaluationMethod, results)
	abnormal := domain.HasSignificantAbnormality(results)

	var out domain.InstructionSet

	if flags.HasTier(domain.TierUnreimbursed) {
		out = append(out, "This is an unreimbursed evaluation request (NEHRAZENY). Reporting obligations are minimal unless abnormalities or exception parameters are present.")
		if !abnormal && !flags.ExceptionCase() {
			out = append(out, DirectiveBriefNormal, DirectiveNoElaborate)
		} else {
			out = append(out, DirectiveFocus)
		}
	}

	out = append(out, e.exceptionDirectives(flags, patient)...)

	if flags.HasTier(domain.TierReimbursedIndividual) {
		out = append(out, individualReportDirectives...)
	}
	if flags.HasTier(domain.TierReimbursedPackage) {
		out = append(out, packageReportDirectives...)
	}

	if len(out) == 0 {
		out = append(out, DirectiveFallback)
	}

	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{
			"tiers":                   flags.Tiers,
			"exception_case":          flags.ExceptionCase(),
			"significant_abnormality": abnormal,
			"instruction_count":       len(out),
		}).Debug("Derived reporting instructions")
	}

	return out
}

// exceptionDirectives emits the always-report directive for each detected
// exception parameter. Each triggers independently of tier and of the
// parameter's normal/abnormal status, and only from the parameter names
// themselves (plus the KO/M+S short codes); a marker in the method tag alone
// gates the exception case without emitting a directive. A detected blood
// group likewise gates but carries no directive of its own.
func (e *InstructionEngine) exceptionDirectives(flags domain.PolicyFlags, patient domain.PatientMetadata) []string {
	var out []string

	if flags.HCG {
		out = append(out, "An hCG parameter is present. Always generate a pregnancy status interpretation: state whether the result is suggestive of pregnancy, not suggestive of pregnancy, or suggestive of a non-progressing pregnancy. Include a cumulative evaluation against historical hCG values if such data is available.")
	}
	if flags.PSA {
		out = append(out, fmt.Sprintf("A PSA parameter (prostate specific antigen) is present. Always generate an interpretation weighted by patient age (age: %s) and clinical history, including prior treatment or surgery.", patient.AgeText()))
	}
	if flags.BloodCount {
		out = append(out, "A complete blood count (KREVNÍ OBRAZ) is present. Always generate a statement about the blood count, explicitly including the normal case: when all counts are in range, state that the complete blood count is within the normal range.")
	}
	if flags.UrineSediment {
		out = append(out, "A urine and sediment examination (MOČ + SEDIMENT) is present. Always generate a statement about the urinalysis, explicitly including the normal case.")
	}

	return out
}

// individualReportDirectives are the obligations of a reimbursed individual
// report (HRAZENY_POPIS_INDIVIDUALNI).
var individualReportDirectives = []string{
	"Reimbursed individual report (HRAZENY_POPIS_INDIVIDUALNI): describe every pathological parameter, including its severity, an explanation, and the relations between abnormal findings.",
	"Incorporate structured questionnaire data into the interpretation when present.",
	"Perform a cumulative evaluation against the patient's historical results.",
	"Briefly assess the parameters within the reference range as well.",
	"State a single laboratory diagnosis conclusion.",
	"Provide detailed recommendations for the ordering physician.",
}

// packageReportDirectives are the obligations of a reimbursed package report
// (HRAZENY_POPIS_BALICEK). Strictly more detailed than the individual tier.
var packageReportDirectives = []string{
	"Reimbursed package report (HRAZENY_POPIS_BALICEK): describe every tested method in the package, not only the pathological ones.",
	"For results within the reference range, go beyond stating they are normal and state what the result rules out.",
	"For pathological results, include a trend analysis when historical data exists.",
	"Explain the clinical linkage between the method groups in the package.",
	"Discuss possible interferences, pre-analytical effects, and trends.",
	"Incorporate structured questionnaire data into the interpretation when present.",
	"Perform a cumulative evaluation across all historical methods, not only the current panel.",
	"Assess the named risk factor categories such as atherosclerosis, osteoporosis, and diabetes.",
	"State a therapy-oriented diagnosis.",
	"Provide very detailed multi-domain recommendations covering physician referral, specialist referral, lifestyle, diet, exercise, and supplementation.",
}
