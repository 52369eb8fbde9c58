package domain

import "strings"

// ReportTier is the reimbursement category of a requested report. The tier
// drives the minimum reporting obligations placed on the generator.
type ReportTier string

const (
	TierUnknown              ReportTier = "UNKNOWN"
	TierUnreimbursed         ReportTier = "UNREIMBURSED"
	TierReimbursedIndividual ReportTier = "REIMBURSED_INDIVIDUAL"
	TierReimbursedPackage    ReportTier = "REIMBURSED_PACKAGE"
)

// Policy keywords carried in the evaluation_method tag by the LIS. Matching
// is case-insensitive substring matching; the tags are free text assembled
// by upstream systems and carry suffixes like _PREVENCE_MUZ.
const (
	tagUnreimbursed         = "NEHRAZENY"
	tagReimbursedIndividual = "HRAZENY_POPIS_INDIVIDUALNI"
	tagReimbursedPackage    = "HRAZENY_POPIS_BALICEK"
)

// Exception parameter markers. A parameter matching one of these must always
// be narratively addressed regardless of its normal/abnormal status. The
// Czech tokens are kept verbatim because matching runs against DASTA payloads.
const (
	markerHCG           = "HCG"
	markerPSA           = "PSA"
	markerPSAFullName   = "PROSTATICKÝ SPECIFICKÝ ANTIGEN"
	markerBloodCount    = "KREVNÍ OBRAZ"
	markerUrineSediment = "MOČ + SEDIMENT"
	markerUrineSedAlt   = "MOČOVÝ SEDIMENT"
	markerBloodGroup    = "KREVNÍ SKUPINA"

	// Short codes that appear in evaluation_method instead of parameter names.
	shortCodeBloodCount    = "KO"
	shortCodeUrineSediment = "M+S"
)

// PolicyFlags is the classification of one request: the set of matched
// reimbursement tiers, the detected exception parameters, and the gating
// matches. Tier matching is deliberately non-exclusive; a tag may carry
// multiple tier keywords and each matched tier contributes its own
// instruction block.
//
// The per-parameter flags drive the always-report directives and match on
// parameter names only (plus the KO/M+S short codes in the method tag).
// A marker token appearing in evaluation_method alone marks the request as
// an exception case but fires no directive; there is no parameter to report.
type PolicyFlags struct {
	Tiers         []ReportTier
	HCG           bool
	PSA           bool
	BloodCount    bool
	UrineSediment bool
	BloodGroup    bool

	// Gating matches: a marker token seen in any parameter name / in the
	// evaluation_method tag.
	NameMarker   bool
	MethodMarker bool
}

// HasTier reports whether the given tier was matched.
func (f PolicyFlags) HasTier(t ReportTier) bool {
	for _, tier := range f.Tiers {
		if tier == t {
			return true
		}
	}
	return false
}

// ExceptionCase reports whether the request is governed by the exception
// rules: a marker token present in any parameter name or in the method tag.
func (f PolicyFlags) ExceptionCase() bool {
	return f.NameMarker || f.MethodMarker
}

// gatingMarkers are the tokens that make a request an exception case when
// they appear in a parameter name or in the evaluation_method tag.
var gatingMarkers = []string{
	markerHCG, markerPSA, markerBloodCount,
	markerUrineSediment, markerUrineSedAlt, markerBloodGroup,
}

// ClassifyPolicy parses the free-text evaluation_method tag and the lab
// parameter names into an explicit classification. Computed once per request;
// the instruction engine branches on the result instead of rescanning strings.
func ClassifyPolicy(evaluationMethod string, results []LabResult) PolicyFlags {
	method := strings.ToUpper(evaluationMethod)

	flags := PolicyFlags{}
	if strings.Contains(method, tagUnreimbursed) {
		flags.Tiers = append(flags.Tiers, TierUnreimbursed)
	}
	if strings.Contains(method, tagReimbursedIndividual) {
		flags.Tiers = append(flags.Tiers, TierReimbursedIndividual)
	}
	if strings.Contains(method, tagReimbursedPackage) {
		flags.Tiers = append(flags.Tiers, TierReimbursedPackage)
	}
	if len(flags.Tiers) == 0 {
		flags.Tiers = append(flags.Tiers, TierUnknown)
	}

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, strings.ToUpper(r.ParameterName))
	}

	flags.HCG = anyContains(names, markerHCG)
	flags.PSA = anyContains(names, markerPSA) || anyContains(names, markerPSAFullName)
	flags.BloodCount = anyContains(names, markerBloodCount) ||
		strings.Contains(method, shortCodeBloodCount)
	flags.UrineSediment = anyContains(names, markerUrineSediment) || anyContains(names, markerUrineSedAlt) ||
		strings.Contains(method, shortCodeUrineSediment)
	flags.BloodGroup = anyContains(names, markerBloodGroup)

	for _, marker := range gatingMarkers {
		if anyContains(names, marker) {
			flags.NameMarker = true
		}
		if strings.Contains(method, marker) {
			flags.MethodMarker = true
		}
	}
	if anyContains(names, markerPSAFullName) {
		flags.NameMarker = true
	}

	return flags
}

// IsExceptionParameter reports whether a parameter name matches any exception
// marker. Such parameters are governed by their always-report rules, not by
// the generic abnormality rule.
func IsExceptionParameter(name string) bool {
	n := strings.ToUpper(name)
	for _, marker := range []string{
		markerHCG, markerPSA, markerPSAFullName,
		markerBloodCount, markerUrineSediment, markerUrineSedAlt, markerBloodGroup,
	} {
		if strings.Contains(n, marker) {
			return true
		}
	}
	return false
}

// HasSignificantAbnormality reports whether any non-exception lab result is
// outside its reference range.
func HasSignificantAbnormality(results []LabResult) bool {
	for _, r := range results {
		if r.IsAbnormal() && !IsExceptionParameter(r.ParameterName) {
			return true
		}
	}
	return false
}

func anyContains(values []string, substr string) bool {
	for _, v := range values {
		if strings.Contains(v, substr) {
			return true
		}
	}
	return false
}
