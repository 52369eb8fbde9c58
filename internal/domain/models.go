package domain

import (
	"fmt"
	"strings"
)

// LabResult represents one measured laboratory parameter as received from
// the lab information system. Values stay as strings because analyzers emit
// non-numeric results (titers, "positive", "<0.1").
type LabResult struct {
	ParameterCode        string `json:"parameter_code"`
	ParameterName        string `json:"parameter_name"`
	Value                string `json:"value"`
	Unit                 string `json:"unit"`
	ReferenceRangeRaw    string `json:"reference_range_raw"`
	InterpretationStatus string `json:"interpretation_status"`
	ScaleAnnotation      string `json:"scale_annotation,omitempty"`
}

// Interpretation status tokens used by the DASTA feed.
const (
	StatusNormal        = "NORMAL"
	StatusHigh          = "HIGH"
	StatusLow           = "LOW"
	StatusBorderline    = "BORDERLINE"
	StatusNotApplicable = "N/A"
)

// Status returns the interpretation status normalized to upper case,
// defaulting to NORMAL when the field is absent.
func (r LabResult) Status() string {
	s := strings.ToUpper(strings.TrimSpace(r.InterpretationStatus))
	if s == "" {
		return StatusNormal
	}
	return s
}

// IsAbnormal reports whether the result is outside the reference range.
// Missing and not-applicable statuses count as normal.
func (r LabResult) IsAbnormal() bool {
	s := r.Status()
	return s != StatusNormal && s != StatusNotApplicable
}

// PatientMetadata carries the demographic fields relevant to interpretation.
// Age is a pointer because the LIS omits it for anonymized requests.
type PatientMetadata struct {
	Age                     *int   `json:"age,omitempty"`
	Gender                  string `json:"gender,omitempty"`
	HistoricalDataAccessKey string `json:"historical_data_access_key,omitempty"`
}

// AgeText renders the age for prompt embedding, with an explicit token when
// the age is unknown rather than omitting the field.
func (p PatientMetadata) AgeText() string {
	if p.Age == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *p.Age)
}

// CanonicalRecord is the normalized unit of work for one interpretation
// request. It is created once by the Normalizer and read-only afterwards.
type CanonicalRecord struct {
	RequestID              string            `json:"request_id"`
	EvaluationMethod       string            `json:"evaluation_method"`
	Patient                PatientMetadata   `json:"patient_metadata"`
	LabResults             []LabResult       `json:"current_lab_results"`
	DastaTextSections      map[string]string `json:"dasta_text_sections,omitempty"`
	Diagnoses              []string          `json:"diagnoses,omitempty"`
	AnamnesisAndMedication map[string]string `json:"anamnesis_and_medication,omitempty"`
}

// PredictiveOutput holds the heuristic risk flags derived from the current
// lab panel. Request-scoped, never persisted.
type PredictiveOutput struct {
	IdentifiedRisks    []string `json:"identified_risks"`
	PotentialDiagnoses []string `json:"potential_diagnoses"`
	Status             string   `json:"status"`
	ModelVersion       string   `json:"model_version"`
}

// InstructionSet is the ordered list of policy directives for the generator.
// The engine guarantees it is never empty.
type InstructionSet []string

// Contains reports whether any directive contains the given substring.
func (s InstructionSet) Contains(substr string) bool {
	for _, d := range s {
		if strings.Contains(d, substr) {
			return true
		}
	}
	return false
}

// RetrievalHit is one ranked snippet returned by the knowledge base.
type RetrievalHit struct {
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// RetrievalContext is the ordered retrieval result for one query.
type RetrievalContext struct {
	Query    string         `json:"query"`
	Hits     []RetrievalHit `json:"hits"`
	Fallback bool           `json:"fallback"`
}

// Text renders the context blocks for prompt assembly. Backend ordering is
// passed through unmodified. An empty hit list yields an explicit sentinel
// so the prompt's context field is never blank.
func (c RetrievalContext) Text() string {
	if len(c.Hits) == 0 {
		return fmt.Sprintf("no relevant information found for query %q", c.Query)
	}
	blocks := make([]string, 0, len(c.Hits))
	for _, h := range c.Hits {
		blocks = append(blocks, fmt.Sprintf("Source: %s (relevance: %.2f)\nContent:\n%s", h.Source, h.Score, h.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// GenerationRequest is the flattened prompt input handed to the generator.
// All fields are pre-rendered text; the generator treats it as opaque.
type GenerationRequest struct {
	RequestID        string         `json:"request_id"`
	EvaluationMethod string         `json:"evaluation_method"`
	PatientAge       string         `json:"patient_age"`
	PatientGender    string         `json:"patient_gender"`
	Diagnoses        string         `json:"diagnoses"`
	Anamnesis        string         `json:"anamnesis_and_medication"`
	DoctorNotes      string         `json:"dasta_text_sections"`
	LabResultsText   string         `json:"lab_results_text"`
	PredictiveText   string         `json:"predictive_analysis"`
	RetrievedContext string         `json:"retrieved_context"`
	Instructions     InstructionSet `json:"instructions"`
	SystemPrompt     string         `json:"-"`
	UserPrompt       string         `json:"-"`
}

// InterpretRequest is the inbound HTTP payload shape.
type InterpretRequest struct {
	RequestID              string            `json:"request_id"`
	EvaluationMethod       string            `json:"evaluation_method"`
	PatientMetadata        PatientMetadata   `json:"patient_metadata"`
	CurrentLabResults      []LabResult       `json:"current_lab_results"`
	DastaTextSections      map[string]string `json:"dasta_text_sections,omitempty"`
	Diagnoses              []string          `json:"diagnoses,omitempty"`
	AnamnesisAndMedication map[string]string `json:"anamnesis_and_medication,omitempty"`
}

// InterpretResponse is the outbound HTTP payload shape.
type InterpretResponse struct {
	RequestID          string `json:"request_id"`
	InterpretationText string `json:"interpretation_text,omitempty"`
	Error              string `json:"error,omitempty"`
	Detail             string `json:"detail,omitempty"`
}
