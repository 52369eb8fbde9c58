package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/staprolab/interpret-server/internal/domain"
)

// notProvided is the explicit token for absent optional fields. The prompt
// always names every section so the model cannot hallucinate missing data.
const notProvided = "Not provided"

const systemPrompt = "You are a clinical laboratory specialist writing interpretation comments for medical reports. " +
	"Base your interpretation strictly on the provided laboratory results, patient information, and knowledge context. " +
	"Follow every reporting instruction exactly. Write a single coherent free-text interpretation suitable for " +
	"insertion into the report's comment field. Do not invent results that were not provided."

// PromptAssembler merges the canonical record, predictive flags, retrieved
// context, and the instruction set into a single generation request.
type PromptAssembler struct{}

// NewPromptAssembler creates a new prompt assembler.
func NewPromptAssembler() *PromptAssembler {
	return &PromptAssembler{}
}

// Assemble builds the flattened generation request. Append-only with respect
// to its inputs; nothing upstream is mutated.
func (a *PromptAssembler) Assemble(
	record *domain.CanonicalRecord,
	predictive *domain.PredictiveOutput,
	retrieval domain.RetrievalContext,
	instructions domain.InstructionSet,
) *domain.GenerationRequest {
	req := &domain.GenerationRequest{
		RequestID:        record.RequestID,
		EvaluationMethod: record.EvaluationMethod,
		PatientAge:       record.Patient.AgeText(),
		PatientGender:    textOrDefault(record.Patient.Gender),
		Diagnoses:        joinOrDefault(record.Diagnoses),
		Anamnesis:        renderSections(record.AnamnesisAndMedication),
		DoctorNotes:      renderSections(record.DastaTextSections),
		LabResultsText:   FormatLabResults(record.LabResults),
		PredictiveText:   renderPredictive(predictive),
		RetrievedContext: retrieval.Text(),
		Instructions:     instructions,
	}

	req.SystemPrompt = systemPrompt
	req.UserPrompt = renderUserPrompt(req)
	return req
}

// FormatLabResults renders the lab panel one parameter per line in the
// format the generator prompt expects.
func FormatLabResults(results []domain.LabResult) string {
	if len(results) == 0 {
		return "No laboratory results provided."
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		line := fmt.Sprintf("- %s (%s): %s %s (reference range: %s) - interpretation: %s",
			textOrDefault(r.ParameterName),
			textOrDefault(r.ParameterCode),
			textOrDefault(r.Value),
			strings.TrimSpace(r.Unit),
			textOrDefault(r.ReferenceRangeRaw),
			r.Status(),
		)
		if r.ScaleAnnotation != "" {
			line += fmt.Sprintf(" (scale: %s)", r.ScaleAnnotation)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderPredictive(p *domain.PredictiveOutput) string {
	if p == nil {
		return notProvided
	}
	data, err := json.Marshal(p)
	if err != nil {
		return notProvided
	}
	return string(data)
}

// renderSections flattens a free-text section map into "key: value" lines,
// sorted for deterministic prompts.
func renderSections(sections map[string]string) string {
	if len(sections) == 0 {
		return notProvided
	}
	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, sections[k]))
	}
	return strings.Join(lines, "\n")
}

func renderUserPrompt(req *domain.GenerationRequest) string {
	var b strings.Builder

	b.WriteString("PATIENT INFORMATION\n")
	fmt.Fprintf(&b, "Age: %s\nGender: %s\nDiagnoses: %s\n\n", req.PatientAge, req.PatientGender, req.Diagnoses)

	b.WriteString("ANAMNESIS AND MEDICATION\n")
	b.WriteString(req.Anamnesis)
	b.WriteString("\n\n")

	b.WriteString("NOTES FROM THE ORDERING PHYSICIAN\n")
	b.WriteString(req.DoctorNotes)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "EVALUATION METHOD\n%s\n\n", req.EvaluationMethod)

	b.WriteString("CURRENT LABORATORY RESULTS\n")
	b.WriteString(req.LabResultsText)
	b.WriteString("\n\n")

	b.WriteString("PREDICTIVE ANALYSIS\n")
	b.WriteString(req.PredictiveText)
	b.WriteString("\n\n")

	b.WriteString("KNOWLEDGE BASE CONTEXT\n")
	b.WriteString(req.RetrievedContext)
	b.WriteString("\n\n")

	b.WriteString("REPORTING INSTRUCTIONS\n")
	for i, instr := range req.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, instr)
	}

	return b.String()
}

func textOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}

func joinOrDefault(values []string) string {
	if len(values) == 0 {
		return notProvided
	}
	return strings.Join(values, ", ")
}
