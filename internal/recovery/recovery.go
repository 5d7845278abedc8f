// Package recovery extracts and validates the structured triage payload
// embedded in the consultation role's free-text output. It is the sole
// boundary between untrusted generation text and the typed result: every
// failure degrades to the raw text plus a diagnostic, never a hard error.
package recovery

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Diagnostic codes. An empty code means recovery succeeded.
const (
	NoPayloadFound   = "NO_PAYLOAD_FOUND"
	MalformedPayload = "MALFORMED_PAYLOAD"
	SchemaInvalid    = "SCHEMA_INVALID"
)

// Diagnostic explains why recovery failed. The zero value means success.
type Diagnostic struct {
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (d Diagnostic) OK() bool { return d.Code == "" }

func (d Diagnostic) String() string {
	if d.OK() {
		return ""
	}
	if d.Detail == "" {
		return d.Code
	}
	return d.Code + ": " + d.Detail
}

// TriageResult is the validated structured output of a consultation.
type TriageResult struct {
	UrgencyLevel        string   `json:"urgency_level"`
	PossibleConditions  []string `json:"possible_conditions"`
	SelfCare            []string `json:"self_care"`
	SeeDoctorIf         []string `json:"see_doctor_if"`
	EmergencyNowIf      []string `json:"emergency_now_if"`
	ClarifyingQuestions []string `json:"clarifying_questions"`
	Summary             string   `json:"summary"`
}

const resultSchemaJSON = `{
	"type": "object",
	"required": ["urgency_level", "summary"],
	"properties": {
		"urgency_level": {"enum": ["none", "low", "medium", "high"]},
		"possible_conditions": {"type": "array", "items": {"type": "string"}},
		"self_care": {"type": "array", "items": {"type": "string"}},
		"see_doctor_if": {"type": "array", "items": {"type": "string"}},
		"emergency_now_if": {"type": "array", "items": {"type": "string"}},
		"clarifying_questions": {"type": "array", "items": {"type": "string"}},
		"summary": {"type": "string", "minLength": 1}
	}
}`

var resultSchema = jsonschema.MustCompileString("triage_result.json", resultSchemaJSON)

// Recover locates the structured payload in the final role's text, parses
// it, and validates it against the result schema. On failure the caller
// must present the raw text alongside the returned diagnostic.
func Recover(finalText string) (*TriageResult, Diagnostic) {
	span, ok := extractBraceSpan(finalText)
	if !ok {
		return nil, Diagnostic{Code: NoPayloadFound, Detail: "no brace-delimited payload in text"}
	}

	var decoded any
	if err := json.Unmarshal([]byte(span), &decoded); err != nil {
		return nil, Diagnostic{Code: MalformedPayload, Detail: err.Error()}
	}

	if err := resultSchema.Validate(decoded); err != nil {
		return nil, Diagnostic{Code: SchemaInvalid, Detail: err.Error()}
	}

	var result TriageResult
	if err := json.Unmarshal([]byte(span), &result); err != nil {
		// Schema passed, so this only fires on shapes json can't coerce.
		return nil, Diagnostic{Code: SchemaInvalid, Detail: err.Error()}
	}
	fillListDefaults(&result)
	return &result, Diagnostic{}
}

// extractBraceSpan returns the largest brace-delimited span: first '{' to
// last '}'. Generation roles often wrap the payload in prose despite
// instructions, so the span is a greedy pre-filter; the schema remains the
// authority on correctness.
func extractBraceSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// fillListDefaults replaces absent list fields with empty lists so callers
// never see nil.
func fillListDefaults(r *TriageResult) {
	for _, p := range []*[]string{
		&r.PossibleConditions, &r.SelfCare, &r.SeeDoctorIf,
		&r.EmergencyNowIf, &r.ClarifyingQuestions,
	} {
		if *p == nil {
			*p = []string{}
		}
	}
}
