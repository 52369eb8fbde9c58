package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPolicyTiers(t *testing.T) {
	tests := []struct {
		name   string
		method string
		want   []ReportTier
	}{
		{"unreimbursed", "NEHRAZENY_POPIS_NORMAL", []ReportTier{TierUnreimbursed}},
		{"individual", "HRAZENY_POPIS_INDIVIDUALNI", []ReportTier{TierReimbursedIndividual}},
		{"package with suffix", "HRAZENY_POPIS_BALICEK_PREVENCE_MUZ", []ReportTier{TierReimbursedPackage}},
		{"case insensitive", "nehrazeny_popis", []ReportTier{TierUnreimbursed}},
		{"unknown", "SOMETHING_ELSE", []ReportTier{TierUnknown}},
		{
			"multiple tiers accumulate",
			"NEHRAZENY_HRAZENY_POPIS_BALICEK",
			[]ReportTier{TierUnreimbursed, TierReimbursedPackage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := ClassifyPolicy(tt.method, nil)
			assert.Equal(t, tt.want, flags.Tiers)
		})
	}
}

func TestClassifyPolicyExceptions(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		results []LabResult
		check   func(t *testing.T, f PolicyFlags)
	}{
		{
			name:    "hcg in parameter name",
			method:  "NEHRAZENY",
			results: []LabResult{{ParameterName: "S_HCG celkové"}},
			check:   func(t *testing.T, f PolicyFlags) { assert.True(t, f.HCG) },
		},
		{
			name:    "psa full czech name",
			method:  "NEHRAZENY",
			results: []LabResult{{ParameterName: "Prostatický specifický antigen"}},
			check:   func(t *testing.T, f PolicyFlags) { assert.True(t, f.PSA) },
		},
		{
			name:   "blood count short code in method",
			method: "NEHRAZENY_KO",
			check:  func(t *testing.T, f PolicyFlags) { assert.True(t, f.BloodCount) },
		},
		{
			name:   "urine sediment short code in method",
			method: "NEHRAZENY_M+S",
			check:  func(t *testing.T, f PolicyFlags) { assert.True(t, f.UrineSediment) },
		},
		{
			name:    "blood group flag only",
			method:  "NEHRAZENY",
			results: []LabResult{{ParameterName: "Krevní skupina AB0"}},
			check: func(t *testing.T, f PolicyFlags) {
				assert.True(t, f.BloodGroup)
				assert.True(t, f.ExceptionCase())
			},
		},
		{
			name:    "psa in method tag gates without the directive flag",
			method:  "NEHRAZENY_POPIS_PSA",
			results: []LabResult{{ParameterName: "S_CRP"}},
			check: func(t *testing.T, f PolicyFlags) {
				assert.False(t, f.PSA)
				assert.True(t, f.MethodMarker)
				assert.True(t, f.ExceptionCase())
			},
		},
		{
			name:   "hcg in method tag gates without the directive flag",
			method: "NEHRAZENY_HCG",
			check: func(t *testing.T, f PolicyFlags) {
				assert.False(t, f.HCG)
				assert.True(t, f.ExceptionCase())
			},
		},
		{
			name:   "short code sets the directive flag but not the gating markers",
			method: "NEHRAZENY_KO",
			check: func(t *testing.T, f PolicyFlags) {
				assert.True(t, f.BloodCount)
				assert.False(t, f.MethodMarker)
				assert.False(t, f.ExceptionCase())
			},
		},
		{
			name:   "no exceptions",
			method: "NEHRAZENY",
			results: []LabResult{
				{ParameterName: "ALT"}, {ParameterName: "Kreatinin"},
			},
			check: func(t *testing.T, f PolicyFlags) { assert.False(t, f.ExceptionCase()) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ClassifyPolicy(tt.method, tt.results))
		})
	}
}

func TestHasSignificantAbnormality(t *testing.T) {
	tests := []struct {
		name    string
		results []LabResult
		want    bool
	}{
		{
			"high non-exception parameter",
			[]LabResult{{ParameterName: "CRP", InterpretationStatus: "HIGH"}},
			true,
		},
		{
			"abnormal exception parameter does not count",
			[]LabResult{{ParameterName: "PSA", InterpretationStatus: "HIGH"}},
			false,
		},
		{
			"all normal",
			[]LabResult{{ParameterName: "CRP", InterpretationStatus: "NORMAL"}},
			false,
		},
		{
			"missing status defaults to normal",
			[]LabResult{{ParameterName: "CRP"}},
			false,
		},
		{
			"not applicable counts as normal",
			[]LabResult{{ParameterName: "CRP", InterpretationStatus: "n/a"}},
			false,
		},
		{
			"borderline counts as abnormal",
			[]LabResult{{ParameterName: "CRP", InterpretationStatus: "BORDERLINE"}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasSignificantAbnormality(tt.results))
		})
	}
}

func TestRetrievalContextText(t *testing.T) {
	t.Run("empty hits yield sentinel", func(t *testing.T) {
		ctx := RetrievalContext{Query: "crp"}
		assert.Equal(t, `no relevant information found for query "crp"`, ctx.Text())
	})

	t.Run("hits render ordered blocks", func(t *testing.T) {
		ctx := RetrievalContext{
			Query: "crp",
			Hits: []RetrievalHit{
				{Source: "a.txt", Content: "first", Score: 0.9},
				{Source: "b.txt", Content: "second", Score: 0.5},
			},
		}
		text := ctx.Text()
		assert.Contains(t, text, "Source: a.txt (relevance: 0.90)")
		assert.Contains(t, text, "Source: b.txt (relevance: 0.50)")
		assert.Less(t, strings.Index(text, "first"), strings.Index(text, "second"))
	})
}
