package consult

// TurnPolicy describes how often a role is expected to contribute. It is
// declarative data carried on the RoleSpec; the round-robin scheduler
// dispatches purely by order, and single-shot roles enforce their limit
// through their own instructions.
type TurnPolicy string

const (
	TurnUnlimited  TurnPolicy = "unlimited"
	TurnSingleShot TurnPolicy = "single_shot"
)

// RoleSpec is a fixed conversational identity: a name, its static
// instructions, and its turn policy. Specs are never mutated per request.
type RoleSpec struct {
	Name         string
	Instructions string
	TurnPolicy   TurnPolicy
}

// CompletionMarker is the token the consolidation role emits when the
// consultation is finished. Its presence halts orchestration early.
const CompletionMarker = "CONSULTATION_COMPLETE"

const (
	RolePatient      = "patient"
	RoleDiagnosis    = "diagnosis"
	RolePharmacy     = "pharmacy"
	RoleConsultation = "consultation"
)

// Registry holds the role set for exactly one consultation. Every session
// constructs its own registry so no state can leak between requests.
type Registry struct {
	initiator RoleSpec
	speakers  []RoleSpec
}

// NewRegistry returns a fresh registry with the fixed triage role set:
// an initiating patient role plus the analysis, recommendation, and
// consolidation speakers, in dispatch order.
func NewRegistry() *Registry {
	return &Registry{
		initiator: RoleSpec{
			Name:         RolePatient,
			Instructions: "You describe symptoms and ask for medical help.",
			TurnPolicy:   TurnSingleShot,
		},
		speakers: []RoleSpec{
			{
				Name: RoleDiagnosis,
				Instructions: "You analyze symptoms and provide possible causes (not definitive diagnosis). " +
					"Ask at most 2 clarifying questions if needed, otherwise summarize key points in ONE response. " +
					"Include red-flag symptoms to watch for.",
				TurnPolicy: TurnUnlimited,
			},
			{
				Name: RolePharmacy,
				Instructions: "You recommend OTC/self-care options based on the analysis. " +
					"Be conservative, include contraindication warnings, and suggest consulting a pharmacist/doctor when relevant. " +
					"Only respond once.",
				TurnPolicy: TurnSingleShot,
			},
			{
				Name: RoleConsultation,
				Instructions: "You decide if a doctor's visit is required and produce the final structured plan. " +
					"Respond with a single JSON object and no other prose, using exactly these fields: " +
					`"urgency_level" (one of: none, low, medium, high), ` +
					`"possible_conditions", "self_care", "see_doctor_if", "emergency_now_if", "clarifying_questions" (each an array of strings), ` +
					`and "summary" (plain-language recap of what to do now). ` +
					"IMPORTANT: End your response with '" + CompletionMarker + "'.",
				TurnPolicy: TurnUnlimited,
			},
		},
	}
}

// Initiator returns the role that supplies the opening message.
func (r *Registry) Initiator() RoleSpec { return r.initiator }

// Speakers returns the scheduled roles in declared order.
func (r *Registry) Speakers() []RoleSpec {
	return append([]RoleSpec{}, r.speakers...)
}

// Consolidator returns the role whose output carries the structured result.
func (r *Registry) Consolidator() RoleSpec {
	return r.speakers[len(r.speakers)-1]
}
